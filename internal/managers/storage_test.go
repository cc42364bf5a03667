package managers

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/chrissnell/solarclear/internal/csvio"
	"github.com/chrissnell/solarclear/internal/storage"
	"github.com/chrissnell/solarclear/internal/types"
	"github.com/chrissnell/solarclear/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingEngine struct{}

func (failingEngine) Name() string { return "failing" }

func (f failingEngine) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.RecordBatch {
	return storage.StartEngine(ctx, wg, func(context.Context, types.RecordBatch) error {
		return errors.New("disk on fire")
	}, f.Name())
}

func (failingEngine) CheckHealth(context.Context) *storage.HealthData {
	return storage.CreateHealthData("healthy", "", nil)
}

func records() []types.SimulationRecord {
	base := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	return []types.SimulationRecord{
		{Timestamp: base, SimulatedPowerWatt: 120},
		{Timestamp: base.Add(time.Hour), SimulatedPowerWatt: 150},
	}
}

func TestStorageManagerFansOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	dir := t.TempDir()
	sm, err := NewStorageManager(ctx, &wg, &config.StorageData{
		SQLite: &config.SQLiteData{Path: filepath.Join(dir, "pv.db")},
		CSV:    &config.CSVData{Path: filepath.Join(dir, "pv.csv")},
	})
	require.NoError(t, err)
	require.Len(t, sm.Engines, 2)

	require.NoError(t, sm.Store(ctx, "run-1", records()))

	got, err := csvio.ReadRecordsFile(filepath.Join(dir, "pv.csv"))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	health := sm.Health.GetAllHealth()
	assert.Equal(t, "healthy", health["sqlite"].Status)
	assert.Equal(t, "healthy", health["csv"].Status)

	cancel()
	wg.Wait()
}

func TestStorageManagerReportsFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	sm, err := NewStorageManager(ctx, &wg, &config.StorageData{
		CSV: &config.CSVData{Path: filepath.Join(t.TempDir(), "pv.csv")},
	})
	require.NoError(t, err)
	sm.AddEngine(ctx, &wg, failingEngine{})

	err = sm.Store(ctx, "run-2", records())
	assert.ErrorContains(t, err, "failing: disk on fire")
	assert.False(t, sm.Health.IsHealthy("failing", time.Minute))
	assert.True(t, sm.Health.IsHealthy("csv", time.Minute))

	cancel()
	wg.Wait()
}

func TestStorageManagerWithoutEngines(t *testing.T) {
	var wg sync.WaitGroup
	sm, err := NewStorageManager(context.Background(), &wg, &config.StorageData{})
	require.NoError(t, err)
	assert.NoError(t, sm.Store(context.Background(), "run-3", records()))
}
