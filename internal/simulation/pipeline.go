// Package simulation runs the solar engine over a sequence of joined
// weather/pollution observations.
package simulation

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/chrissnell/solarclear/internal/types"
	"github.com/chrissnell/solarclear/pkg/aqi"
	"github.com/chrissnell/solarclear/pkg/solar"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// chunkSize is the number of consecutive rows handed to one worker at a time
const chunkSize = 256

// Skipped describes an input row that produced no record
type Skipped struct {
	Index     int
	Timestamp string
	Err       error
}

// Result is the outcome of a pipeline run. Records are in input order.
type Result struct {
	Records []types.SimulationRecord
	Skipped []Skipped
}

// Pipeline simulates plane-of-array irradiance and panel output for a fixed site
type Pipeline struct {
	site      solar.Site
	altitudeM float64
	workers   int
	runID     string
	logger    *zap.SugaredLogger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithWorkers bounds the number of rows computed concurrently
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithAltitude sets the site altitude used by the clear-sky reference
func WithAltitude(meters float64) Option {
	return func(p *Pipeline) {
		p.altitudeM = meters
	}
}

// WithRunID stamps every record with a run identifier
func WithRunID(id string) Option {
	return func(p *Pipeline) {
		p.runID = id
	}
}

// WithLogger sets the logger used for skipped-row diagnostics
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New validates the site and returns a pipeline bound to it. An invalid site
// aborts here, before any row is looked at.
func New(site solar.Site, opts ...Option) (*Pipeline, error) {
	if err := site.Validate(); err != nil {
		return nil, fmt.Errorf("site configuration: %w", err)
	}

	p := &Pipeline{
		site:    site,
		workers: runtime.GOMAXPROCS(0),
		logger:  zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Site returns the pipeline's site
func (p *Pipeline) Site() solar.Site {
	return p.site
}

// reading maps an absent or non-finite measurement to zero
func reading(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0
	}
	return *v
}

// Simulate computes the record for a single observation. It fails only when
// the row has no timestamp (ErrMissingField) or the timestamp cannot be
// placed (ErrInvalidInput); numeric edge cases are clamped.
func (p *Pipeline) Simulate(obs types.Observation) (types.SimulationRecord, error) {
	if obs.Timestamp.IsZero() {
		return types.SimulationRecord{}, fmt.Errorf("timestamp: %w", solar.ErrMissingField)
	}

	w := obs.Weather
	pm25 := reading(obs.Pollution.PM25)
	irr := solar.Irradiance{
		GHI: reading(w.GHI),
		DNI: reading(w.DNI),
		DHI: reading(w.DHI),
	}
	ambient := reading(w.Temperature)

	clearSky := solar.ClearSkyGHI(obs.Timestamp, p.site, p.altitudeM)

	rec := types.SimulationRecord{
		Timestamp:      obs.Timestamp,
		PM25:           pm25,
		DNI:            irr.DNI,
		CloudCover:     reading(w.CloudCover),
		Temperature:    ambient,
		GHI:            irr.GHI,
		DHI:            irr.DHI,
		Zenith:         solar.BelowHorizon.Zenith,
		ClearSkyGHI:    clearSky,
		ClearnessIndex: solar.ClearnessIndex(irr.GHI, clearSky),
		AQI:            aqi.CalculatePM25(pm25),
		RunID:          p.runID,
	}

	// No global irradiance means night or a dead sensor; either way there is
	// nothing to convert.
	if irr.GHI <= 0 {
		return rec, nil
	}

	geom, err := solar.Position(obs.Timestamp, p.site)
	if err != nil {
		return types.SimulationRecord{}, err
	}

	poa := solar.PlaneOfArray(geom, p.site, irr)

	rec.Zenith = geom.Zenith
	rec.Azimuth = geom.Azimuth
	rec.POAIrradiance = poa
	rec.SimulatedPowerWatt = solar.Power(poa, ambient, p.site)

	return rec, nil
}

// Run simulates every row. Rows are computed concurrently but each result is
// written to its own slot, so the output keeps input order and repeated runs
// over the same input are identical. Rows that fail are reported in
// Result.Skipped and do not abort the run; only context cancellation does.
func (p *Pipeline) Run(ctx context.Context, rows []types.Observation) (Result, error) {
	records := make([]types.SimulationRecord, len(rows))
	errs := make([]error, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for start := 0; start < len(rows); start += chunkSize {
		start, end := start, min(start+chunkSize, len(rows))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				records[i], errs[i] = p.Simulate(rows[i])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("simulation cancelled: %w", err)
	}

	res := Result{Records: make([]types.SimulationRecord, 0, len(rows))}
	for i := range rows {
		if errs[i] != nil {
			s := Skipped{Index: i, Err: errs[i]}
			if !rows[i].Timestamp.IsZero() {
				s.Timestamp = rows[i].Timestamp.Format("2006-01-02T15:04:05")
			}
			p.logger.Warnw("skipping row", "index", i, "timestamp", s.Timestamp, "error", errs[i])
			res.Skipped = append(res.Skipped, s)
			continue
		}
		res.Records = append(res.Records, records[i])
	}

	p.logger.Infow("simulation complete",
		"rows", len(rows),
		"records", len(res.Records),
		"skipped", len(res.Skipped),
		"workers", p.workers,
	)

	return res, nil
}
