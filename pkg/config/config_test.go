package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chrissnell/solarclear/pkg/solar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baliYAML = `
site:
  name: ubud
  latitude: -8.53035
  longitude: 115.26933
  tilt: 10
  panel_azimuth: 0
  rated_power: 250
  temp_coefficient: -0.0045
  timezone: Asia/Makassar
run:
  start_date: "2025-06-22"
  end_date: "2025-11-19"
  workers: 4
sources:
  open_meteo: {}
  openaq:
    sensors:
      - {id: 13397854, parameter: pm1}
      - {id: 13397855, parameter: pm25}
storage:
  csv:
    path: dataset_final_analisis_pv.csv
server:
  port: 8080
`

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func loadBali(t *testing.T) *ConfigData {
	t.Helper()
	cfg, err := NewYAMLProvider(writeYAML(t, baliYAML)).LoadConfig()
	require.NoError(t, err)
	return cfg
}

func TestYAMLProvider(t *testing.T) {
	p := NewYAMLProvider(writeYAML(t, baliYAML))
	defer p.Close()

	cfg, err := p.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "ubud", cfg.Site.Name)
	assert.Equal(t, 250.0, cfg.Site.RatedPower)
	require.NotNil(t, cfg.Sources.OpenAQ)
	assert.Len(t, cfg.Sources.OpenAQ.Sensors, 2)
	assert.NotNil(t, cfg.Sources.OpenMeteo)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, p.IsReadOnly())

	site, err := p.GetSite()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Makassar", site.Timezone)

	require.NoError(t, Validate(cfg))
}

func TestYAMLRejectsUnknownKeys(t *testing.T) {
	_, err := NewYAMLProvider(writeYAML(t, "site:\n  lattitude: 1\n")).LoadConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ConfigData)
	}{
		{"latitude", func(c *ConfigData) { c.Site.Latitude = 91 }},
		{"tilt", func(c *ConfigData) { c.Site.Tilt = -1 }},
		{"azimuth", func(c *ConfigData) { c.Site.PanelAzimuth = 360 }},
		{"rated power", func(c *ConfigData) { c.Site.RatedPower = 0 }},
		{"temp coefficient", func(c *ConfigData) { c.Site.TempCoefficient = 0.01 }},
		{"timezone", func(c *ConfigData) { c.Site.Timezone = "Mars/Olympus" }},
		{"efficiency", func(c *ConfigData) { v := 1.2; c.Site.InverterEfficiency = &v }},
		{"date format", func(c *ConfigData) { c.Run.StartDate = "22/06/2025" }},
		{"inverted period", func(c *ConfigData) { c.Run.EndDate = "2025-01-01" }},
		{"sensor parameter", func(c *ConfigData) { c.Sources.OpenAQ.Sensors[0].Parameter = "ozone" }},
		{"no weather source", func(c *ConfigData) { c.Sources.OpenMeteo = nil }},
		{"port", func(c *ConfigData) { c.Server.Port = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadBali(t)
			tt.mutate(cfg)
			assert.ErrorIs(t, Validate(cfg), solar.ErrInvalidInput)
		})
	}
}

func TestToSite(t *testing.T) {
	cfg := loadBali(t)
	at := time.Date(2025, 6, 22, 0, 0, 0, 0, time.UTC)

	site, err := cfg.Site.ToSite(at)
	require.NoError(t, err)
	assert.Equal(t, 120.0, site.ReferenceMeridian, "derived from Asia/Makassar")
	assert.Equal(t, solar.DefaultAlbedo, site.Albedo)
	assert.True(t, site.IncludeAzimuthTerm)
	assert.Nil(t, site.InverterEfficiency)

	offset, off, eff := 7.0, false, 0.96
	cfg.Site.UTCOffsetHours = &offset
	cfg.Site.IncludeAzimuthTerm = &off
	cfg.Site.InverterEfficiency = &eff
	site, err = cfg.Site.ToSite(at)
	require.NoError(t, err)
	assert.Equal(t, 105.0, site.ReferenceMeridian)
	assert.False(t, site.IncludeAzimuthTerm)
	require.NotNil(t, site.InverterEfficiency)
	assert.Equal(t, 0.96, *site.InverterEfficiency)

	meridian := 115.0
	cfg.Site.ReferenceMeridian = &meridian
	site, err = cfg.Site.ToSite(at)
	require.NoError(t, err)
	assert.Equal(t, 115.0, site.ReferenceMeridian)
}

func TestRunPeriod(t *testing.T) {
	loc := time.FixedZone("WITA", 8*3600)
	from, to, err := RunData{StartDate: "2025-06-22", EndDate: "2025-06-22"}.Period(loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 22, 0, 0, 0, 0, loc), from)
	assert.Equal(t, time.Date(2025, 6, 22, 23, 59, 59, 0, loc), to)
}

func TestSQLiteProviderRoundTrip(t *testing.T) {
	cfg := loadBali(t)
	eff := 0.96
	cfg.Site.InverterEfficiency = &eff
	cfg.Storage.TimescaleDB = &TimescaleDBData{ConnectionString: "postgres://localhost/pv", Hypertable: true}

	p, err := NewSQLiteProvider(filepath.Join(t.TempDir(), "config.db"))
	require.NoError(t, err)
	defer p.Close()
	assert.False(t, p.IsReadOnly())

	require.NoError(t, p.SaveConfig(cfg))
	// saving twice replaces rather than duplicates
	require.NoError(t, p.SaveConfig(cfg))

	got, err := p.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestSQLiteProviderEmpty(t *testing.T) {
	p, err := NewSQLiteProvider(filepath.Join(t.TempDir(), "config.db"))
	require.NoError(t, err)
	defer p.Close()

	_, err = p.LoadConfig()
	assert.Error(t, err)

	srv, err := p.GetServer()
	require.NoError(t, err)
	assert.Nil(t, srv)
}

func TestApplyEnv(t *testing.T) {
	cfg := loadBali(t)

	t.Setenv("SOLARCLEAR_OPENAQ_API_KEY", "from-env")
	t.Setenv("SOLARCLEAR_TIMESCALEDB_DSN", "postgres://db/pv")
	t.Setenv("SOLARCLEAR_PORT", "9090")
	t.Setenv("SOLARCLEAR_WORKERS", "2")

	require.NoError(t, ApplyEnv(cfg))
	assert.Equal(t, "from-env", cfg.Sources.OpenAQ.APIKey)
	assert.Equal(t, "postgres://db/pv", cfg.Storage.TimescaleDB.ConnectionString)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Run.Workers)

	t.Setenv("SOLARCLEAR_PORT", "not-a-port")
	assert.Error(t, ApplyEnv(cfg))
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SOLARCLEAR_DOTENV_PROBE=yes\n"), 0o600))
	t.Setenv("SOLARCLEAR_DOTENV_PROBE", "")
	os.Unsetenv("SOLARCLEAR_DOTENV_PROBE")

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"), path))
	assert.Equal(t, "yes", os.Getenv("SOLARCLEAR_DOTENV_PROBE"))
}
