package managers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chrissnell/solarclear/internal/log"
	"github.com/chrissnell/solarclear/internal/storage"
	"github.com/chrissnell/solarclear/internal/storage/csvfile"
	"github.com/chrissnell/solarclear/internal/storage/sqlite"
	"github.com/chrissnell/solarclear/internal/storage/timescaledb"
	"github.com/chrissnell/solarclear/internal/types"
	"github.com/chrissnell/solarclear/pkg/config"
)

// StorageManager holds our active storage backends
type StorageManager struct {
	Engines []StorageEngine
	Health  *storage.HealthManager
}

// StorageEngine holds a backend storage engine's interface as well as
// a channel for passing record batches to the engine
type StorageEngine struct {
	Engine storage.StorageEngineInterface
	C      chan<- types.RecordBatch
}

// NewStorageManager creates a StorageManager populated with every configured
// storage engine.
func NewStorageManager(ctx context.Context, wg *sync.WaitGroup, c *config.StorageData) (*StorageManager, error) {
	s := &StorageManager{Health: storage.NewHealthManager()}

	if c.TimescaleDB != nil {
		engine, err := timescaledb.New(ctx, c.TimescaleDB)
		if err != nil {
			return s, fmt.Errorf("could not add TimescaleDB storage backend: %w", err)
		}
		s.AddEngine(ctx, wg, engine)
	}

	if c.SQLite != nil {
		engine, err := sqlite.New(ctx, c.SQLite.Path)
		if err != nil {
			return s, fmt.Errorf("could not add SQLite storage backend: %w", err)
		}
		s.AddEngine(ctx, wg, engine)
	}

	if c.CSV != nil {
		engine, err := csvfile.New(c.CSV.Path)
		if err != nil {
			return s, fmt.Errorf("could not add CSV storage backend: %w", err)
		}
		s.AddEngine(ctx, wg, engine)
	}

	return s, nil
}

// AddEngine starts engine and adds it to the fan-out
func (s *StorageManager) AddEngine(ctx context.Context, wg *sync.WaitGroup, engine storage.StorageEngineInterface) {
	s.Engines = append(s.Engines, StorageEngine{
		Engine: engine,
		C:      engine.StartStorageEngine(ctx, wg),
	})
}

// Store hands the batch to every engine and waits for all of them. Failures
// are recorded in Health and joined into the returned error.
func (s *StorageManager) Store(ctx context.Context, runID string, records []types.SimulationRecord) error {
	if len(s.Engines) == 0 {
		log.Warn("no storage engines configured; simulation records discarded")
		return nil
	}

	results := make([]chan error, len(s.Engines))
	for i, e := range s.Engines {
		results[i] = make(chan error, 1)
		batch := types.RecordBatch{RunID: runID, Records: records, Done: results[i]}
		select {
		case e.C <- batch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	var errs []error
	for i, e := range s.Engines {
		var err error
		select {
		case err = <-results[i]:
		case <-ctx.Done():
			return ctx.Err()
		}

		name := e.Engine.Name()
		if err != nil {
			s.Health.UpdateHealth(name, storage.CreateHealthData("unhealthy", "last store failed", err))
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		s.Health.UpdateHealth(name, e.Engine.CheckHealth(ctx))
	}

	return errors.Join(errs...)
}

// CheckHealth refreshes the health of every engine
func (s *StorageManager) CheckHealth(ctx context.Context) map[string]storage.HealthData {
	for _, e := range s.Engines {
		s.Health.UpdateHealth(e.Engine.Name(), e.Engine.CheckHealth(ctx))
	}
	return s.Health.GetAllHealth()
}
