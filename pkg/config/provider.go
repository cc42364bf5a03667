// Package config loads solarclear run configuration from YAML files or
// SQLite databases.
package config

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetSite() (*SiteData, error)
	GetRun() (*RunData, error)
	GetSources() (*SourcesData, error)
	GetStorageConfig() (*StorageData, error)
	GetServer() (*ServerData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Site    SiteData    `json:"site" yaml:"site"`
	Run     RunData     `json:"run" yaml:"run"`
	Sources SourcesData `json:"sources" yaml:"sources"`
	Storage StorageData `json:"storage,omitempty" yaml:"storage,omitempty"`
	Server  *ServerData `json:"server,omitempty" yaml:"server,omitempty"`
}

// SiteData describes the location and the simulated panel. Optional fields
// fall back to the engine defaults when nil.
type SiteData struct {
	Name      string  `json:"name,omitempty" yaml:"name,omitempty"`
	Latitude  float64 `json:"latitude" yaml:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" yaml:"longitude" validate:"gte=-180,lte=180"`
	Altitude  float64 `json:"altitude,omitempty" yaml:"altitude,omitempty" validate:"gte=-500,lte=9000"`

	Tilt            float64  `json:"tilt" yaml:"tilt" validate:"gte=0,lte=90"`
	PanelAzimuth    float64  `json:"panel_azimuth" yaml:"panel_azimuth" validate:"gte=0,lt=360"`
	RatedPower      float64  `json:"rated_power" yaml:"rated_power" validate:"gt=0"`
	TempCoefficient float64  `json:"temp_coefficient" yaml:"temp_coefficient" validate:"gte=-0.1,lte=0"`
	Albedo          *float64 `json:"albedo,omitempty" yaml:"albedo,omitempty" validate:"omitempty,gte=0,lte=1"`

	ReferenceMeridian *float64 `json:"reference_meridian,omitempty" yaml:"reference_meridian,omitempty" validate:"omitempty,gte=-180,lte=180"`
	UTCOffsetHours    *float64 `json:"utc_offset_hours,omitempty" yaml:"utc_offset_hours,omitempty" validate:"omitempty,gte=-12,lte=14"`
	Timezone          string   `json:"timezone" yaml:"timezone" validate:"required,timezone"`

	IncludeAzimuthTerm *bool    `json:"include_azimuth_term,omitempty" yaml:"include_azimuth_term,omitempty"`
	InverterEfficiency *float64 `json:"inverter_efficiency,omitempty" yaml:"inverter_efficiency,omitempty" validate:"omitempty,gt=0,lte=1"`
}

// RunData selects the simulated period, inclusive, as YYYY-MM-DD dates in
// the site's timezone.
type RunData struct {
	StartDate string `json:"start_date" yaml:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" yaml:"end_date" validate:"required,datetime=2006-01-02"`
	Workers   int    `json:"workers,omitempty" yaml:"workers,omitempty" validate:"gte=0"`
}

// SourcesData says where weather and pollution series come from. A CSV path
// takes precedence over the matching API.
type SourcesData struct {
	WeatherCSV      string         `json:"weather_csv,omitempty" yaml:"weather_csv,omitempty"`
	MeasurementsCSV string         `json:"measurements_csv,omitempty" yaml:"measurements_csv,omitempty"`
	SaveDir         string         `json:"save_dir,omitempty" yaml:"save_dir,omitempty"`
	OpenMeteo       *OpenMeteoData `json:"open_meteo,omitempty" yaml:"open_meteo,omitempty"`
	OpenAQ          *OpenAQData    `json:"openaq,omitempty" yaml:"openaq,omitempty"`
}

// OpenMeteoData configures the Open-Meteo archive source
type OpenMeteoData struct {
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" validate:"omitempty,url"`
}

// OpenAQData configures the OpenAQ v3 source
type OpenAQData struct {
	BaseURL     string       `json:"base_url,omitempty" yaml:"base_url,omitempty" validate:"omitempty,url"`
	APIKey      string       `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Concurrency int          `json:"concurrency,omitempty" yaml:"concurrency,omitempty" validate:"gte=0"`
	Sensors     []SensorData `json:"sensors" yaml:"sensors" validate:"required,min=1,dive"`
}

// SensorData maps an OpenAQ sensor to the parameter it measures
type SensorData struct {
	ID        int64  `json:"id" yaml:"id" validate:"gt=0"`
	Parameter string `json:"parameter" yaml:"parameter" validate:"oneof=pm1 pm25 pm10 temperature relativehumidity um003"`
}

// StorageData holds the configuration for the storage backends
type StorageData struct {
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty" yaml:"timescaledb,omitempty"`
	SQLite      *SQLiteData      `json:"sqlite,omitempty" yaml:"sqlite,omitempty"`
	CSV         *CSVData         `json:"csv,omitempty" yaml:"csv,omitempty"`
}

type TimescaleDBData struct {
	ConnectionString string `json:"connection_string" yaml:"connection_string" validate:"required"`
	Hypertable       bool   `json:"hypertable,omitempty" yaml:"hypertable,omitempty"`
}

type SQLiteData struct {
	Path string `json:"path" yaml:"path" validate:"required"`
}

type CSVData struct {
	Path string `json:"path" yaml:"path" validate:"required"`
}

// ServerData configures the read-only REST API. Without it the process
// exits after storing the run.
type ServerData struct {
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`
	Port       int    `json:"port" yaml:"port" validate:"gt=0,lte=65535"`
	Cert       string `json:"cert,omitempty" yaml:"cert,omitempty" validate:"required_with=Key"`
	Key        string `json:"key,omitempty" yaml:"key,omitempty" validate:"required_with=Cert"`
}
