package config

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS configs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS sites (
	config_id INTEGER PRIMARY KEY REFERENCES configs(id) ON DELETE CASCADE,
	name TEXT,
	latitude REAL NOT NULL,
	longitude REAL NOT NULL,
	altitude REAL,
	tilt REAL NOT NULL,
	panel_azimuth REAL NOT NULL,
	rated_power REAL NOT NULL,
	temp_coefficient REAL NOT NULL,
	albedo REAL,
	reference_meridian REAL,
	utc_offset_hours REAL,
	timezone TEXT NOT NULL,
	include_azimuth_term INTEGER,
	inverter_efficiency REAL
);
CREATE TABLE IF NOT EXISTS runs (
	config_id INTEGER PRIMARY KEY REFERENCES configs(id) ON DELETE CASCADE,
	start_date TEXT NOT NULL,
	end_date TEXT NOT NULL,
	workers INTEGER
);
CREATE TABLE IF NOT EXISTS sources (
	config_id INTEGER PRIMARY KEY REFERENCES configs(id) ON DELETE CASCADE,
	weather_csv TEXT,
	measurements_csv TEXT,
	save_dir TEXT,
	open_meteo_enabled INTEGER NOT NULL DEFAULT 0,
	open_meteo_base_url TEXT,
	openaq_enabled INTEGER NOT NULL DEFAULT 0,
	openaq_base_url TEXT,
	openaq_api_key TEXT,
	openaq_concurrency INTEGER
);
CREATE TABLE IF NOT EXISTS openaq_sensors (
	config_id INTEGER NOT NULL REFERENCES configs(id) ON DELETE CASCADE,
	sensor_id INTEGER NOT NULL,
	parameter TEXT NOT NULL,
	PRIMARY KEY (config_id, sensor_id)
);
CREATE TABLE IF NOT EXISTS storage_configs (
	config_id INTEGER NOT NULL REFERENCES configs(id) ON DELETE CASCADE,
	backend_type TEXT NOT NULL,
	connection_string TEXT,
	path TEXT,
	hypertable INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (config_id, backend_type)
);
CREATE TABLE IF NOT EXISTS servers (
	config_id INTEGER PRIMARY KEY REFERENCES configs(id) ON DELETE CASCADE,
	listen_addr TEXT,
	port INTEGER NOT NULL,
	cert TEXT,
	key TEXT
);
`

const defaultConfigFilter = `config_id = (SELECT id FROM configs WHERE name = 'default')`

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider opens dbPath and creates the configuration schema if it
// doesn't exist yet.
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create configuration schema: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	site, err := s.GetSite()
	if err != nil {
		return nil, fmt.Errorf("failed to load site: %w", err)
	}
	config.Site = *site

	run, err := s.GetRun()
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	config.Run = *run

	sources, err := s.GetSources()
	if err != nil {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}
	config.Sources = *sources

	storage, err := s.GetStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}
	config.Storage = *storage

	config.Server, err = s.GetServer()
	if err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}

	return config, nil
}

// GetSite returns the site from the database
func (s *SQLiteProvider) GetSite() (*SiteData, error) {
	query := `
		SELECT name, latitude, longitude, altitude, tilt, panel_azimuth,
		       rated_power, temp_coefficient, albedo, reference_meridian,
		       utc_offset_hours, timezone, include_azimuth_term, inverter_efficiency
		FROM sites
		WHERE ` + defaultConfigFilter

	var site SiteData
	var name sql.NullString
	var altitude, albedo, meridian, offset, efficiency sql.NullFloat64
	var azimuthTerm sql.NullBool

	err := s.db.QueryRow(query).Scan(
		&name, &site.Latitude, &site.Longitude, &altitude, &site.Tilt,
		&site.PanelAzimuth, &site.RatedPower, &site.TempCoefficient, &albedo,
		&meridian, &offset, &site.Timezone, &azimuthTerm, &efficiency,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no site configured")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query site: %w", err)
	}

	site.Name = name.String
	site.Altitude = altitude.Float64
	site.Albedo = floatPtr(albedo)
	site.ReferenceMeridian = floatPtr(meridian)
	site.UTCOffsetHours = floatPtr(offset)
	site.InverterEfficiency = floatPtr(efficiency)
	if azimuthTerm.Valid {
		v := azimuthTerm.Bool
		site.IncludeAzimuthTerm = &v
	}

	return &site, nil
}

// GetRun returns the simulated period
func (s *SQLiteProvider) GetRun() (*RunData, error) {
	var run RunData
	var workers sql.NullInt64

	err := s.db.QueryRow(`SELECT start_date, end_date, workers FROM runs WHERE `+defaultConfigFilter).
		Scan(&run.StartDate, &run.EndDate, &workers)
	if errors.Is(err, sql.ErrNoRows) {
		return &RunData{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	run.Workers = int(workers.Int64)
	return &run, nil
}

// GetSources returns the data source configuration, including OpenAQ sensors
func (s *SQLiteProvider) GetSources() (*SourcesData, error) {
	query := `
		SELECT weather_csv, measurements_csv, save_dir,
		       open_meteo_enabled, open_meteo_base_url,
		       openaq_enabled, openaq_base_url, openaq_api_key, openaq_concurrency
		FROM sources
		WHERE ` + defaultConfigFilter

	var weatherCSV, measurementsCSV, saveDir, meteoURL, aqURL, aqKey sql.NullString
	var meteoEnabled, aqEnabled bool
	var aqConcurrency sql.NullInt64

	err := s.db.QueryRow(query).Scan(
		&weatherCSV, &measurementsCSV, &saveDir,
		&meteoEnabled, &meteoURL,
		&aqEnabled, &aqURL, &aqKey, &aqConcurrency,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return &SourcesData{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}

	sources := &SourcesData{
		WeatherCSV:      weatherCSV.String,
		MeasurementsCSV: measurementsCSV.String,
		SaveDir:         saveDir.String,
	}
	if meteoEnabled {
		sources.OpenMeteo = &OpenMeteoData{BaseURL: meteoURL.String}
	}
	if aqEnabled {
		sources.OpenAQ = &OpenAQData{
			BaseURL:     aqURL.String,
			APIKey:      aqKey.String,
			Concurrency: int(aqConcurrency.Int64),
		}
		sources.OpenAQ.Sensors, err = s.getSensors()
		if err != nil {
			return nil, err
		}
	}
	return sources, nil
}

func (s *SQLiteProvider) getSensors() ([]SensorData, error) {
	rows, err := s.db.Query(`SELECT sensor_id, parameter FROM openaq_sensors WHERE ` + defaultConfigFilter + ` ORDER BY sensor_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sensors: %w", err)
	}
	defer rows.Close()

	var sensors []SensorData
	for rows.Next() {
		var sensor SensorData
		if err := rows.Scan(&sensor.ID, &sensor.Parameter); err != nil {
			return nil, fmt.Errorf("failed to scan sensor row: %w", err)
		}
		sensors = append(sensors, sensor)
	}
	return sensors, rows.Err()
}

// GetStorageConfig returns storage configuration from the database
func (s *SQLiteProvider) GetStorageConfig() (*StorageData, error) {
	rows, err := s.db.Query(`SELECT backend_type, connection_string, path, hypertable FROM storage_configs WHERE ` + defaultConfigFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to query storage configs: %w", err)
	}
	defer rows.Close()

	storage := &StorageData{}
	for rows.Next() {
		var backendType string
		var connStr, path sql.NullString
		var hypertable bool

		if err := rows.Scan(&backendType, &connStr, &path, &hypertable); err != nil {
			return nil, fmt.Errorf("failed to scan storage config row: %w", err)
		}

		switch backendType {
		case "timescaledb":
			storage.TimescaleDB = &TimescaleDBData{ConnectionString: connStr.String, Hypertable: hypertable}
		case "sqlite":
			storage.SQLite = &SQLiteData{Path: path.String}
		case "csv":
			storage.CSV = &CSVData{Path: path.String}
		default:
			return nil, fmt.Errorf("unknown storage backend %q", backendType)
		}
	}
	return storage, rows.Err()
}

// GetServer returns the REST server configuration, nil when none is stored
func (s *SQLiteProvider) GetServer() (*ServerData, error) {
	var server ServerData
	var listenAddr, cert, key sql.NullString

	err := s.db.QueryRow(`SELECT listen_addr, port, cert, key FROM servers WHERE `+defaultConfigFilter).
		Scan(&listenAddr, &server.Port, &cert, &key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query server: %w", err)
	}
	server.ListenAddr = listenAddr.String
	server.Cert = cert.String
	server.Key = key.String
	return &server, nil
}

// IsReadOnly returns false since SQLite supports writes
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveConfig replaces the stored configuration with configData
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	configID, err := s.getOrCreateConfigID(tx)
	if err != nil {
		return fmt.Errorf("failed to insert config: %w", err)
	}

	if err := s.clearExistingConfig(tx, configID); err != nil {
		return fmt.Errorf("failed to clear existing config: %w", err)
	}

	if err := s.insertSite(tx, configID, &configData.Site); err != nil {
		return fmt.Errorf("failed to insert site: %w", err)
	}

	if _, err := tx.Exec(`INSERT INTO runs (config_id, start_date, end_date, workers) VALUES (?, ?, ?, ?)`,
		configID, configData.Run.StartDate, configData.Run.EndDate, configData.Run.Workers); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if err := s.insertSources(tx, configID, &configData.Sources); err != nil {
		return fmt.Errorf("failed to insert sources: %w", err)
	}

	if err := s.insertStorageConfigs(tx, configID, &configData.Storage); err != nil {
		return fmt.Errorf("failed to insert storage configs: %w", err)
	}

	if srv := configData.Server; srv != nil {
		if _, err := tx.Exec(`INSERT INTO servers (config_id, listen_addr, port, cert, key) VALUES (?, ?, ?, ?, ?)`,
			configID, nullString(srv.ListenAddr), srv.Port, nullString(srv.Cert), nullString(srv.Key)); err != nil {
			return fmt.Errorf("failed to insert server: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteProvider) getOrCreateConfigID(tx *sql.Tx) (int64, error) {
	_, err := tx.Exec(`INSERT INTO configs (name, created_at, updated_at) VALUES ('default', datetime('now'), datetime('now'))
		ON CONFLICT(name) DO UPDATE SET updated_at = datetime('now')`)
	if err != nil {
		return 0, err
	}
	var id int64
	err = tx.QueryRow(`SELECT id FROM configs WHERE name = 'default'`).Scan(&id)
	return id, err
}

func (s *SQLiteProvider) clearExistingConfig(tx *sql.Tx, configID int64) error {
	tables := []string{"sites", "runs", "sources", "openaq_sensors", "storage_configs", "servers"}
	for _, table := range tables {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE config_id = ?", configID); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteProvider) insertSite(tx *sql.Tx, configID int64, site *SiteData) error {
	query := `
		INSERT INTO sites (
			config_id, name, latitude, longitude, altitude, tilt, panel_azimuth,
			rated_power, temp_coefficient, albedo, reference_meridian,
			utc_offset_hours, timezone, include_azimuth_term, inverter_efficiency
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var azimuthTerm sql.NullBool
	if site.IncludeAzimuthTerm != nil {
		azimuthTerm = sql.NullBool{Bool: *site.IncludeAzimuthTerm, Valid: true}
	}

	_, err := tx.Exec(query,
		configID, nullString(site.Name), site.Latitude, site.Longitude, site.Altitude,
		site.Tilt, site.PanelAzimuth, site.RatedPower, site.TempCoefficient,
		nullFloat64(site.Albedo), nullFloat64(site.ReferenceMeridian),
		nullFloat64(site.UTCOffsetHours), site.Timezone, azimuthTerm,
		nullFloat64(site.InverterEfficiency),
	)
	return err
}

func (s *SQLiteProvider) insertSources(tx *sql.Tx, configID int64, src *SourcesData) error {
	var meteoURL, aqURL, aqKey string
	var aqConcurrency int
	if src.OpenMeteo != nil {
		meteoURL = src.OpenMeteo.BaseURL
	}
	if src.OpenAQ != nil {
		aqURL, aqKey, aqConcurrency = src.OpenAQ.BaseURL, src.OpenAQ.APIKey, src.OpenAQ.Concurrency
	}

	_, err := tx.Exec(`
		INSERT INTO sources (
			config_id, weather_csv, measurements_csv, save_dir,
			open_meteo_enabled, open_meteo_base_url,
			openaq_enabled, openaq_base_url, openaq_api_key, openaq_concurrency
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		configID, nullString(src.WeatherCSV), nullString(src.MeasurementsCSV), nullString(src.SaveDir),
		src.OpenMeteo != nil, nullString(meteoURL),
		src.OpenAQ != nil, nullString(aqURL), nullString(aqKey), aqConcurrency,
	)
	if err != nil {
		return err
	}

	if src.OpenAQ == nil {
		return nil
	}
	for _, sensor := range src.OpenAQ.Sensors {
		if _, err := tx.Exec(`INSERT INTO openaq_sensors (config_id, sensor_id, parameter) VALUES (?, ?, ?)`,
			configID, sensor.ID, sensor.Parameter); err != nil {
			return fmt.Errorf("sensor %d: %w", sensor.ID, err)
		}
	}
	return nil
}

func (s *SQLiteProvider) insertStorageConfigs(tx *sql.Tx, configID int64, storage *StorageData) error {
	query := `INSERT INTO storage_configs (config_id, backend_type, connection_string, path, hypertable) VALUES (?, ?, ?, ?, ?)`

	if storage.TimescaleDB != nil {
		if _, err := tx.Exec(query, configID, "timescaledb", storage.TimescaleDB.ConnectionString, nil, storage.TimescaleDB.Hypertable); err != nil {
			return err
		}
	}
	if storage.SQLite != nil {
		if _, err := tx.Exec(query, configID, "sqlite", nil, storage.SQLite.Path, false); err != nil {
			return err
		}
	}
	if storage.CSV != nil {
		if _, err := tx.Exec(query, configID, "csv", nil, storage.CSV.Path, false); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat64(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
