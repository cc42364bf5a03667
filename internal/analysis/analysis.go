// Package analysis computes the dashboard statistics over simulation
// records: filtered means, energy totals and the PM2.5 vs DNI relationship.
package analysis

import (
	"math"
	"time"

	"github.com/chrissnell/solarclear/internal/types"
	"github.com/chrissnell/solarclear/pkg/aqi"
	"gonum.org/v1/gonum/stat"
)

// Filter selects records. Zero From/To leave that side of the date range
// open; dates compare by calendar day, inclusive.
type Filter struct {
	From     time.Time
	To       time.Time
	MaxCloud *float64
	Daylight bool
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Match reports whether r passes the filter
func (f Filter) Match(r types.SimulationRecord) bool {
	d := day(r.Timestamp)
	if !f.From.IsZero() && d.Before(day(f.From)) {
		return false
	}
	if !f.To.IsZero() && d.After(day(f.To)) {
		return false
	}
	if f.MaxCloud != nil && r.CloudCover > *f.MaxCloud {
		return false
	}
	if f.Daylight && !r.Daylight() {
		return false
	}
	return true
}

// Apply returns the records passing f, preserving order
func Apply(records []types.SimulationRecord, f Filter) []types.SimulationRecord {
	out := make([]types.SimulationRecord, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// CategoryStats aggregates records that fall in one AQI category
type CategoryStats struct {
	Category     string  `json:"category"`
	Color        string  `json:"color"`
	Count        int     `json:"count"`
	AvgPowerWatt float64 `json:"avg_power_watt"`
	AvgDNI       float64 `json:"avg_direct_normal_irradiance"`
}

// Summary is the headline statistics of a set of records. Statistics that
// are undefined for the sample (fewer than two points, or no variance) are
// nil.
type Summary struct {
	Count          int       `json:"count"`
	From           time.Time `json:"from,omitzero"`
	To             time.Time `json:"to,omitzero"`
	AvgPowerWatt   float64   `json:"avg_power_watt"`
	AvgPM25        float64   `json:"avg_pm25"`
	TotalEnergyKWh float64   `json:"total_energy_kwh"`

	// Pearson correlation between PM2.5 and DNI
	CorrelationPM25DNI *float64 `json:"correlation_pm25_dni"`

	// Least-squares fit DNI = intercept + slope·PM2.5
	DNISlope     *float64 `json:"dni_slope"`
	DNIIntercept *float64 `json:"dni_intercept"`

	// |slope|·10: DNI lost per +10 µg/m³ PM2.5, W/m²
	DNILossPer10ug *float64 `json:"dni_loss_per_10ug"`

	AQI []CategoryStats `json:"aqi_breakdown"`
}

// Summarize computes the statistics of records. Records are treated as
// hourly samples, so the energy total is the power sum in kWh.
func Summarize(records []types.SimulationRecord) Summary {
	s := Summary{Count: len(records)}
	if len(records) == 0 {
		return s
	}

	power := make([]float64, len(records))
	pm25 := make([]float64, len(records))
	dni := make([]float64, len(records))
	s.From, s.To = records[0].Timestamp, records[0].Timestamp

	var energyWh float64
	for i, r := range records {
		power[i], pm25[i], dni[i] = r.SimulatedPowerWatt, r.PM25, r.DNI
		energyWh += r.SimulatedPowerWatt
		if r.Timestamp.Before(s.From) {
			s.From = r.Timestamp
		}
		if r.Timestamp.After(s.To) {
			s.To = r.Timestamp
		}
	}

	s.AvgPowerWatt = stat.Mean(power, nil)
	s.AvgPM25 = stat.Mean(pm25, nil)
	s.TotalEnergyKWh = energyWh / 1000

	if len(records) >= 2 {
		s.CorrelationPM25DNI = finite(stat.Correlation(pm25, dni, nil))

		if stat.Variance(pm25, nil) > 0 {
			intercept, slope := stat.LinearRegression(pm25, dni, nil, false)
			s.DNISlope = finite(slope)
			s.DNIIntercept = finite(intercept)
			if s.DNISlope != nil {
				s.DNILossPer10ug = finite(math.Abs(slope * 10))
			}
		}
	}

	s.AQI = Breakdown(records)
	return s
}

// categoryFloor is the lowest AQI of each category in aqi.Categories
var categoryFloor = []int32{0, 51, 101, 151, 201, 301}

// Breakdown groups records by the AQI category of their PM2.5. Every
// category is listed, in ascending severity, including empty ones.
func Breakdown(records []types.SimulationRecord) []CategoryStats {
	index := make(map[string]int, len(aqi.Categories))
	out := make([]CategoryStats, len(aqi.Categories))
	for i, name := range aqi.Categories {
		index[name] = i
		out[i].Category = name
		out[i].Color = aqi.GetCategoryColor(categoryFloor[i])
	}

	sums := make([]struct{ power, dni float64 }, len(out))
	for _, r := range records {
		i := index[aqi.GetCategory(r.AQI)]
		out[i].Count++
		sums[i].power += r.SimulatedPowerWatt
		sums[i].dni += r.DNI
	}

	for i := range out {
		if out[i].Count > 0 {
			out[i].AvgPowerWatt = sums[i].power / float64(out[i].Count)
			out[i].AvgDNI = sums[i].dni / float64(out[i].Count)
		}
	}
	return out
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
