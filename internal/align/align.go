// Package align turns raw ingested series into the joined, offset-free rows
// the simulation consumes.
package align

import (
	"math"
	"sort"
	"time"

	"github.com/chrissnell/solarclear/internal/log"
	"github.com/chrissnell/solarclear/internal/types"
	"gonum.org/v1/gonum/stat"
)

// ToCivil converts t to loc and drops the offset, keeping the local wall clock
func ToCivil(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return types.Civil(t.In(loc))
}

// PivotPollution groups long-format measurements by timestamp and averages
// repeated readings of the same parameter. Absent and non-finite values are
// ignored; a parameter with no usable readings stays nil. Unknown parameters
// are dropped. The result is sorted by timestamp.
func PivotPollution(measurements []types.Measurement) []types.PollutionSample {
	type key struct {
		ts    time.Time
		param string
	}
	values := make(map[key][]float64)
	seen := make(map[time.Time]struct{})

	for _, m := range measurements {
		if m.Timestamp.IsZero() {
			continue
		}
		seen[m.Timestamp] = struct{}{}
		if m.Value == nil || math.IsNaN(*m.Value) || math.IsInf(*m.Value, 0) {
			continue
		}
		k := key{m.Timestamp, m.Parameter}
		values[k] = append(values[k], *m.Value)
	}

	mean := func(ts time.Time, param string) *float64 {
		v, ok := values[key{ts, param}]
		if !ok || len(v) == 0 {
			return nil
		}
		return types.Float(stat.Mean(v, nil))
	}

	out := make([]types.PollutionSample, 0, len(seen))
	for ts := range seen {
		out = append(out, types.PollutionSample{
			Timestamp:        ts,
			PM1:              mean(ts, "pm1"),
			PM25:             mean(ts, "pm25"),
			PM10:             mean(ts, "pm10"),
			Temperature:      mean(ts, "temperature"),
			RelativeHumidity: mean(ts, "relativehumidity"),
			UM003:            mean(ts, "um003"),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// Join inner-joins weather and pollution samples on exact timestamp
// equality. A timestamp missing from either side is dropped. Output is sorted
// by timestamp. Weather rows repeating an hour, as a DST fall-back produces,
// keep only the first occurrence.
func Join(weather []types.WeatherSample, pollution []types.PollutionSample) []types.Observation {
	byTime := make(map[time.Time]types.PollutionSample, len(pollution))
	for _, p := range pollution {
		if p.Timestamp.IsZero() {
			continue
		}
		if _, dup := byTime[p.Timestamp]; !dup {
			byTime[p.Timestamp] = p
		}
	}

	out := make([]types.Observation, 0, min(len(weather), len(byTime)))
	seen := make(map[time.Time]struct{}, len(weather))
	duplicates := 0
	for _, w := range weather {
		p, ok := byTime[w.Timestamp]
		if !ok {
			continue
		}
		if _, dup := seen[w.Timestamp]; dup {
			duplicates++
			continue
		}
		seen[w.Timestamp] = struct{}{}
		out = append(out, types.Observation{
			Timestamp: w.Timestamp,
			Weather:   w,
			Pollution: p,
		})
	}

	if duplicates > 0 {
		log.Warnw("dropped repeated weather hours", "count", duplicates)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// Span returns the first and last timestamps of a joined series
func Span(rows []types.Observation) (from, to time.Time, ok bool) {
	if len(rows) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return rows[0].Timestamp, rows[len(rows)-1].Timestamp, true
}
