// Package timescaledb stores simulation records in PostgreSQL, optionally as a
// TimescaleDB hypertable.
package timescaledb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chrissnell/solarclear/internal/database"
	"github.com/chrissnell/solarclear/internal/log"
	"github.com/chrissnell/solarclear/internal/storage"
	"github.com/chrissnell/solarclear/internal/types"
	"github.com/chrissnell/solarclear/pkg/config"
	"gorm.io/gorm"
)

const (
	createExtensionSQL  = `CREATE EXTENSION IF NOT EXISTS timescaledb`
	createHypertableSQL = `SELECT create_hypertable('hourly_pv_data', 'timestamp', if_not_exists => TRUE, migrate_data => TRUE)`

	insertBatchSize = 500
)

// Storage holds the connection to the hourly_pv_data database
type Storage struct {
	TimescaleDBConn *gorm.DB
}

// New connects, migrates the hourly_pv_data table and, when asked, turns it
// into a hypertable.
func New(ctx context.Context, c *config.TimescaleDBData) (*Storage, error) {
	conn, err := database.CreateConnection(c.ConnectionString)
	if err != nil {
		return nil, err
	}
	return NewWithDB(ctx, conn, c.Hypertable)
}

// NewWithDB wraps an existing gorm connection
func NewWithDB(ctx context.Context, conn *gorm.DB, hypertable bool) (*Storage, error) {
	t := &Storage{TimescaleDBConn: conn}

	log.Info("migrating hourly_pv_data table...")
	if err := conn.WithContext(ctx).AutoMigrate(&types.SimulationRecord{}); err != nil {
		return nil, fmt.Errorf("could not migrate hourly_pv_data: %w", err)
	}

	if hypertable {
		log.Info("creating TimescaleDB extension...")
		if err := conn.WithContext(ctx).Exec(createExtensionSQL).Error; err != nil {
			return nil, fmt.Errorf("could not create TimescaleDB extension: %w", err)
		}

		log.Info("creating hypertable...")
		if err := conn.WithContext(ctx).Exec(createHypertableSQL).Error; err != nil {
			return nil, fmt.Errorf("could not create hypertable: %w", err)
		}
	}

	return t, nil
}

// Name identifies the backend in logs and health reports
func (t *Storage) Name() string {
	return "timescaledb"
}

// StartStorageEngine creates a goroutine loop to receive record batches and
// send them off to the database
func (t *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.RecordBatch {
	return storage.StartEngine(ctx, wg, t.StoreBatch, t.Name())
}

// StoreBatch replaces every stored record inside the batch's time span with
// the batch's records, in one transaction.
func (t *Storage) StoreBatch(ctx context.Context, b types.RecordBatch) error {
	from, to, ok := b.Span()
	if !ok {
		return nil
	}

	err := t.TimescaleDBConn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("timestamp BETWEEN ? AND ?", from, to).Delete(&types.SimulationRecord{}).Error; err != nil {
			return fmt.Errorf("could not clear previous records: %w", err)
		}
		if err := tx.CreateInBatches(b.Records, insertBatchSize).Error; err != nil {
			return fmt.Errorf("could not insert records: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Infow("stored simulation records", "backend", t.Name(), "run_id", b.RunID, "records", len(b.Records))
	return nil
}

// Records returns stored records between from and to, inclusive, in time order
func (t *Storage) Records(ctx context.Context, from, to time.Time) ([]types.SimulationRecord, error) {
	var out []types.SimulationRecord
	err := t.TimescaleDBConn.WithContext(ctx).
		Where("timestamp BETWEEN ? AND ?", from, to).
		Order("timestamp").
		Find(&out).Error
	return out, err
}

// CheckHealth pings the database and runs a trivial query
func (t *Storage) CheckHealth(ctx context.Context) *storage.HealthData {
	if t.TimescaleDBConn == nil {
		return storage.CreateHealthData("unhealthy", "No database connection", fmt.Errorf("connection is nil"))
	}

	sqlDB, err := t.TimescaleDBConn.DB()
	if err != nil {
		return storage.CreateHealthData("unhealthy", "Failed to get underlying database connection", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return storage.CreateHealthData("unhealthy", "Database ping failed", err)
	}

	var result int
	if err := t.TimescaleDBConn.WithContext(ctx).Raw("SELECT 1").Scan(&result).Error; err != nil {
		return storage.CreateHealthData("unhealthy", "Database query test failed", err)
	}
	return storage.CreateHealthData("healthy", "TimescaleDB operational", nil)
}
