// Package sqlite stores simulation records in a local SQLite file
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/chrissnell/solarclear/internal/log"
	"github.com/chrissnell/solarclear/internal/storage"
	"github.com/chrissnell/solarclear/internal/types"
	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02 15:04:05"

const createTableSQL = `
CREATE TABLE IF NOT EXISTS hourly_pv_data (
	timestamp TEXT PRIMARY KEY,
	pm25 REAL NOT NULL,
	direct_normal_irradiance REAL NOT NULL,
	cloud_cover REAL NOT NULL,
	temperature_2m REAL NOT NULL,
	poa_irradiance REAL NOT NULL,
	simulated_power_watt REAL NOT NULL,
	shortwave_radiation REAL NOT NULL,
	diffuse_radiation REAL NOT NULL,
	zenith REAL NOT NULL,
	azimuth REAL NOT NULL,
	clear_sky_ghi REAL NOT NULL,
	clearness_index REAL NOT NULL,
	aqi INTEGER NOT NULL,
	run_id TEXT
);
CREATE INDEX IF NOT EXISTS idx_hourly_pv_data_run_id ON hourly_pv_data (run_id);
`

const insertSQL = `
INSERT INTO hourly_pv_data (
	timestamp, pm25, direct_normal_irradiance, cloud_cover, temperature_2m,
	poa_irradiance, simulated_power_watt, shortwave_radiation, diffuse_radiation,
	zenith, azimuth, clear_sky_ghi, clearness_index, aqi, run_id
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectSQL = `
SELECT timestamp, pm25, direct_normal_irradiance, cloud_cover, temperature_2m,
       poa_irradiance, simulated_power_watt, shortwave_radiation, diffuse_radiation,
       zenith, azimuth, clear_sky_ghi, clearness_index, aqi, run_id
FROM hourly_pv_data
WHERE timestamp BETWEEN ? AND ?
ORDER BY timestamp`

// Storage writes records to a SQLite database file
type Storage struct {
	db   *sql.DB
	path string
}

// New opens (creating if needed) the database at path
func New(ctx context.Context, path string) (*Storage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create hourly_pv_data table: %w", err)
	}

	log.Infof("opened SQLite storage at %s", path)
	return &Storage{db: db, path: path}, nil
}

// Name identifies the backend in logs and health reports
func (s *Storage) Name() string {
	return "sqlite"
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// StartStorageEngine starts the batch loop
func (s *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.RecordBatch {
	return storage.StartEngine(ctx, wg, s.StoreBatch, s.Name())
}

// StoreBatch replaces the records inside the batch's time span
func (s *Storage) StoreBatch(ctx context.Context, b types.RecordBatch) error {
	from, to, ok := b.Span()
	if !ok {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM hourly_pv_data WHERE timestamp BETWEEN ? AND ?`,
		from.Format(timeLayout), to.Format(timeLayout)); err != nil {
		return fmt.Errorf("could not clear previous records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("could not prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range b.Records {
		_, err := stmt.ExecContext(ctx,
			r.Timestamp.Format(timeLayout), r.PM25, r.DNI, r.CloudCover, r.Temperature,
			r.POAIrradiance, r.SimulatedPowerWatt, r.GHI, r.DHI,
			r.Zenith, r.Azimuth, r.ClearSkyGHI, r.ClearnessIndex, r.AQI, r.RunID,
		)
		if err != nil {
			return fmt.Errorf("could not insert record %s: %w", r.Timestamp.Format(timeLayout), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}

	log.Infow("stored simulation records", "backend", s.Name(), "run_id", b.RunID, "records", len(b.Records))
	return nil
}

// Records returns stored records between from and to, inclusive, in time order
func (s *Storage) Records(ctx context.Context, from, to time.Time) ([]types.SimulationRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectSQL, from.Format(timeLayout), to.Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var out []types.SimulationRecord
	for rows.Next() {
		var r types.SimulationRecord
		var ts string
		var runID sql.NullString
		err := rows.Scan(
			&ts, &r.PM25, &r.DNI, &r.CloudCover, &r.Temperature,
			&r.POAIrradiance, &r.SimulatedPowerWatt, &r.GHI, &r.DHI,
			&r.Zenith, &r.Azimuth, &r.ClearSkyGHI, &r.ClearnessIndex, &r.AQI, &runID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if r.Timestamp, err = time.Parse(timeLayout, ts); err != nil {
			return nil, fmt.Errorf("bad stored timestamp %q: %w", ts, err)
		}
		r.RunID = runID.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// CheckHealth pings the database
func (s *Storage) CheckHealth(ctx context.Context) *storage.HealthData {
	if err := s.db.PingContext(ctx); err != nil {
		return storage.CreateHealthData("unhealthy", "SQLite ping failed", err)
	}
	return storage.CreateHealthData("healthy", "SQLite operational: "+s.path, nil)
}
