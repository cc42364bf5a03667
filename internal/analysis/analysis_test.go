package analysis

import (
	"testing"
	"time"

	"github.com/chrissnell/solarclear/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

func record(h int, pm25, dni, cloud, power float64, aqi int32) types.SimulationRecord {
	return types.SimulationRecord{
		Timestamp:          base.Add(time.Duration(h) * time.Hour),
		PM25:               pm25,
		DNI:                dni,
		CloudCover:         cloud,
		SimulatedPowerWatt: power,
		AQI:                aqi,
	}
}

func TestFilter(t *testing.T) {
	maxCloud := 30.0
	records := []types.SimulationRecord{
		record(2, 10, 0, 0, 0, 42),       // night
		record(9, 10, 500, 20, 120, 42),  // kept
		record(10, 10, 500, 80, 60, 42),  // cloudy
		record(34, 10, 500, 10, 130, 42), // next day
	}

	got := Apply(records, Filter{MaxCloud: &maxCloud, Daylight: true})
	require.Len(t, got, 2)
	assert.Equal(t, 120.0, got[0].SimulatedPowerWatt)

	got = Apply(records, Filter{To: base, MaxCloud: &maxCloud, Daylight: true})
	require.Len(t, got, 1)

	got = Apply(records, Filter{From: base.AddDate(0, 0, 1)})
	require.Len(t, got, 1)
	assert.Equal(t, 130.0, got[0].SimulatedPowerWatt)

	assert.Len(t, Apply(records, Filter{}), 4)
}

func TestSummarize(t *testing.T) {
	// DNI falls 2 W/m² for every µg/m³ of PM2.5
	records := []types.SimulationRecord{
		record(9, 10, 780, 10, 100, 42),
		record(10, 20, 760, 10, 200, 68),
		record(11, 30, 740, 10, 300, 89),
		record(12, 40, 720, 10, 400, 112),
	}

	s := Summarize(records)
	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 250.0, s.AvgPowerWatt, 1e-9)
	assert.InDelta(t, 25.0, s.AvgPM25, 1e-9)
	assert.InDelta(t, 1.0, s.TotalEnergyKWh, 1e-9)
	assert.Equal(t, records[0].Timestamp, s.From)
	assert.Equal(t, records[3].Timestamp, s.To)

	require.NotNil(t, s.CorrelationPM25DNI)
	assert.InDelta(t, -1.0, *s.CorrelationPM25DNI, 1e-9)
	require.NotNil(t, s.DNISlope)
	assert.InDelta(t, -2.0, *s.DNISlope, 1e-9)
	assert.InDelta(t, 800.0, *s.DNIIntercept, 1e-9)
	assert.InDelta(t, 20.0, *s.DNILossPer10ug, 1e-9)

	require.Len(t, s.AQI, 6)
	assert.Equal(t, "Good", s.AQI[0].Category)
	assert.Equal(t, 1, s.AQI[0].Count)
	assert.Equal(t, 2, s.AQI[1].Count)
	assert.InDelta(t, 250.0, s.AQI[1].AvgPowerWatt, 1e-9)
	assert.Equal(t, 1, s.AQI[2].Count)
	assert.Equal(t, "#ff7e00", s.AQI[2].Color)
	assert.Equal(t, 0, s.AQI[5].Count)
	assert.Equal(t, "#7e0023", s.AQI[5].Color)
}

func TestSummarizeDegenerate(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Count)
	assert.Nil(t, s.CorrelationPM25DNI)

	s = Summarize([]types.SimulationRecord{record(9, 10, 700, 0, 100, 42)})
	assert.Equal(t, 1, s.Count)
	assert.Nil(t, s.CorrelationPM25DNI)
	assert.Nil(t, s.DNILossPer10ug)

	// constant PM2.5 has no regression
	s = Summarize([]types.SimulationRecord{
		record(9, 10, 700, 0, 100, 42),
		record(10, 10, 650, 0, 90, 42),
	})
	assert.Nil(t, s.CorrelationPM25DNI)
	assert.Nil(t, s.DNISlope)
}
