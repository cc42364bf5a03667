package align

import (
	"math"
	"testing"
	"time"

	"github.com/chrissnell/solarclear/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func civil(h int) time.Time {
	return time.Date(2025, 6, 22, h, 0, 0, 0, time.UTC)
}

func TestToCivil(t *testing.T) {
	makassar := time.FixedZone("WITA", 8*3600)
	utc := time.Date(2025, 6, 22, 2, 0, 0, 0, time.UTC)

	got := ToCivil(utc, makassar)
	assert.Equal(t, civil(10), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestPivotPollution(t *testing.T) {
	ms := []types.Measurement{
		{Timestamp: civil(9), Parameter: "pm25", Value: types.Float(30)},
		{Timestamp: civil(9), Parameter: "pm25", Value: types.Float(40)},
		{Timestamp: civil(9), Parameter: "pm1", Value: types.Float(12)},
		{Timestamp: civil(8), Parameter: "relativehumidity", Value: types.Float(80)},
		{Timestamp: civil(8), Parameter: "pm25", Value: nil},
		{Timestamp: civil(8), Parameter: "pm25", Value: types.Float(math.NaN())},
		{Timestamp: civil(7), Parameter: "no2", Value: types.Float(3)},
		{Parameter: "pm25", Value: types.Float(99)},
	}

	got := PivotPollution(ms)
	require.Len(t, got, 3)

	assert.Equal(t, civil(7), got[0].Timestamp)
	assert.Nil(t, got[0].PM25)

	assert.Equal(t, civil(8), got[1].Timestamp)
	assert.Nil(t, got[1].PM25)
	assert.Equal(t, 80.0, *got[1].RelativeHumidity)

	assert.Equal(t, civil(9), got[2].Timestamp)
	assert.Equal(t, 35.0, *got[2].PM25)
	assert.Equal(t, 12.0, *got[2].PM1)
}

func TestJoinIsInner(t *testing.T) {
	weather := []types.WeatherSample{
		{Timestamp: civil(10), GHI: types.Float(500)},
		{Timestamp: civil(8), GHI: types.Float(100)},
		{Timestamp: civil(9), GHI: types.Float(300)},
	}
	pollution := []types.PollutionSample{
		{Timestamp: civil(9), PM25: types.Float(20)},
		{Timestamp: civil(10)},
		{Timestamp: civil(11), PM25: types.Float(50)},
	}

	rows := Join(weather, pollution)
	require.Len(t, rows, 2)
	assert.Equal(t, civil(9), rows[0].Timestamp)
	assert.Equal(t, 300.0, *rows[0].Weather.GHI)
	assert.Equal(t, 20.0, *rows[0].Pollution.PM25)
	assert.Equal(t, civil(10), rows[1].Timestamp)
	assert.Nil(t, rows[1].Pollution.PM25)

	from, to, ok := Span(rows)
	require.True(t, ok)
	assert.Equal(t, civil(9), from)
	assert.Equal(t, civil(10), to)

	_, _, ok = Span(nil)
	assert.False(t, ok)
}

func TestJoinDropsRepeatedWeatherHours(t *testing.T) {
	fallBack := time.Date(2025, 11, 2, 1, 0, 0, 0, time.UTC)
	weather := []types.WeatherSample{
		{Timestamp: fallBack, GHI: types.Float(0), Temperature: types.Float(12)},
		{Timestamp: fallBack, GHI: types.Float(0), Temperature: types.Float(11)},
		{Timestamp: fallBack.Add(time.Hour), GHI: types.Float(0)},
	}
	pollution := []types.PollutionSample{
		{Timestamp: fallBack, PM25: types.Float(7)},
		{Timestamp: fallBack.Add(time.Hour), PM25: types.Float(8)},
	}

	rows := Join(weather, pollution)
	require.Len(t, rows, 2)
	assert.Equal(t, fallBack, rows[0].Timestamp)
	assert.Equal(t, 12.0, *rows[0].Weather.Temperature, "first occurrence wins")
	assert.Equal(t, fallBack.Add(time.Hour), rows[1].Timestamp)
}
