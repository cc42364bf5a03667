package csvio

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chrissnell/solarclear/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var makassar = time.FixedZone("WITA", 8*3600)

func TestTimestampLayouts(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-06-22 10:00:00", time.Date(2025, 6, 22, 10, 0, 0, 0, time.UTC)},
		{"2025-06-22T10:00", time.Date(2025, 6, 22, 10, 0, 0, 0, time.UTC)},
		{"2025-06-22T02:00:00Z", time.Date(2025, 6, 22, 10, 0, 0, 0, time.UTC)},
		{"2025-06-22T10:00:00+08:00", time.Date(2025, 6, 22, 10, 0, 0, 0, time.UTC)},
		{"2025-06-22 03:00:00+01:00", time.Date(2025, 6, 22, 10, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, ts.UnmarshalCSV(tt.in))
			assert.Equal(t, tt.want, ts.Civil(makassar))
		})
	}

	var ts Timestamp
	assert.Error(t, ts.UnmarshalCSV("yesterday"))
	require.NoError(t, ts.UnmarshalCSV(""))
	assert.True(t, ts.Civil(makassar).IsZero())
}

func TestNumber(t *testing.T) {
	for _, s := range []string{"", "NaN", "nan", " ", "inf"} {
		var n Number
		require.NoError(t, n.UnmarshalCSV(s), s)
		assert.Nil(t, n.Ptr(), s)
	}

	var n Number
	require.NoError(t, n.UnmarshalCSV(" 12.5 "))
	require.NotNil(t, n.Ptr())
	assert.Equal(t, 12.5, *n.Ptr())

	assert.Error(t, n.UnmarshalCSV("twelve"))
}

const weatherCSV = `date,temperature_2m,cloud_cover,relative_humidity_2m,precipitation,shortwave_radiation,direct_normal_irradiance,diffuse_radiation
2025-06-22 09:00:00,27.1,40,80,0,450.5,300,120
2025-06-22 10:00:00,28.0,,78,0,NaN,310,130
`

func TestReadWeather(t *testing.T) {
	got, err := ReadWeather(strings.NewReader(weatherCSV), makassar)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, time.Date(2025, 6, 22, 9, 0, 0, 0, time.UTC), got[0].Timestamp)
	assert.Equal(t, 450.5, *got[0].GHI)
	assert.Equal(t, 300.0, *got[0].DNI)
	assert.Equal(t, 120.0, *got[0].DHI)
	assert.Equal(t, 40.0, *got[0].CloudCover)

	assert.Nil(t, got[1].CloudCover)
	assert.Nil(t, got[1].GHI)
	assert.Equal(t, 28.0, *got[1].Temperature)
}

func TestWeatherFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather.csv")
	in := []types.WeatherSample{
		{Timestamp: time.Date(2025, 6, 22, 11, 0, 0, 0, time.UTC), GHI: types.Float(700), Temperature: types.Float(29.5)},
	}
	require.NoError(t, WriteWeatherFile(path, in))

	out, err := ReadWeatherFile(path, makassar)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, in[0].Timestamp, out[0].Timestamp)
	assert.Equal(t, 700.0, *out[0].GHI)
	assert.Nil(t, out[0].DNI)
}

func TestReadMeasurements(t *testing.T) {
	const in = `sensor_id,parameter,value,datetime_utc,datetime_local
13397855,pm25,35.2,2025-06-22T01:00:00Z,2025-06-22T09:00:00+08:00
13397856,relativehumidity,81,2025-06-22T01:00:00Z,
13397855,pm25,,2025-06-22T02:00:00Z,2025-06-22T10:00:00+08:00
`
	got, err := ReadMeasurements(strings.NewReader(in), makassar)
	require.NoError(t, err)
	require.Len(t, got, 3)

	nine := time.Date(2025, 6, 22, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, nine, got[0].Timestamp)
	assert.Equal(t, "pm25", got[0].Parameter)
	assert.Equal(t, 35.2, *got[0].Value)

	assert.Equal(t, nine, got[1].Timestamp, "falls back to the UTC column")
	assert.Nil(t, got[2].Value)
}

func TestRecordsRoundTrip(t *testing.T) {
	in := []types.SimulationRecord{{
		Timestamp:          time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC),
		PM25:               35,
		DNI:                600,
		CloudCover:         10,
		Temperature:        30,
		POAIrradiance:      731.98,
		SimulatedPowerWatt: 164.16,
		AQI:                99,
		RunID:              "run-1",
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, in))

	header := strings.SplitN(buf.String(), "\n", 2)[0]
	assert.True(t, strings.HasPrefix(header,
		"timestamp,pm25,direct_normal_irradiance,cloud_cover,temperature_2m,poa_irradiance,simulated_power_watt"))
	assert.Contains(t, buf.String(), "2025-07-01 12:00:00")

	out, err := ReadRecords(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
