package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment override, e.g. SOLARCLEAR_OPENAQ_API_KEY
const EnvPrefix = "SOLARCLEAR"

// envOverrides are the settings that may come from the environment instead
// of the config source. Secrets belong here rather than in YAML.
type envOverrides struct {
	OpenAQAPIKey    string `envconfig:"OPENAQ_API_KEY"`
	TimescaleDBDSN  string `envconfig:"TIMESCALEDB_DSN"`
	SQLitePath      string `envconfig:"SQLITE_PATH"`
	CSVPath         string `envconfig:"CSV_PATH"`
	ListenAddr      string `envconfig:"LISTEN_ADDR"`
	Port            int    `envconfig:"PORT"`
	Workers         int    `envconfig:"WORKERS"`
	StartDate       string `envconfig:"START_DATE"`
	EndDate         string `envconfig:"END_DATE"`
	WeatherCSV      string `envconfig:"WEATHER_CSV"`
	MeasurementsCSV string `envconfig:"MEASUREMENTS_CSV"`
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are skipped; existing variables win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("error loading %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays SOLARCLEAR_* environment variables onto cfg
func ApplyEnv(cfg *ConfigData) error {
	var o envOverrides
	if err := envconfig.Process(EnvPrefix, &o); err != nil {
		return fmt.Errorf("error reading environment: %w", err)
	}

	if o.OpenAQAPIKey != "" && cfg.Sources.OpenAQ != nil {
		cfg.Sources.OpenAQ.APIKey = o.OpenAQAPIKey
	}
	if o.TimescaleDBDSN != "" {
		if cfg.Storage.TimescaleDB == nil {
			cfg.Storage.TimescaleDB = &TimescaleDBData{}
		}
		cfg.Storage.TimescaleDB.ConnectionString = o.TimescaleDBDSN
	}
	if o.SQLitePath != "" {
		cfg.Storage.SQLite = &SQLiteData{Path: o.SQLitePath}
	}
	if o.CSVPath != "" {
		cfg.Storage.CSV = &CSVData{Path: o.CSVPath}
	}
	if o.ListenAddr != "" || o.Port != 0 {
		if cfg.Server == nil {
			cfg.Server = &ServerData{}
		}
		if o.ListenAddr != "" {
			cfg.Server.ListenAddr = o.ListenAddr
		}
		if o.Port != 0 {
			cfg.Server.Port = o.Port
		}
	}
	if o.Workers != 0 {
		cfg.Run.Workers = o.Workers
	}
	if o.StartDate != "" {
		cfg.Run.StartDate = o.StartDate
	}
	if o.EndDate != "" {
		cfg.Run.EndDate = o.EndDate
	}
	if o.WeatherCSV != "" {
		cfg.Sources.WeatherCSV = o.WeatherCSV
	}
	if o.MeasurementsCSV != "" {
		cfg.Sources.MeasurementsCSV = o.MeasurementsCSV
	}
	return nil
}
