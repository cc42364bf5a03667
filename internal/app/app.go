// Package app wires a simulation run together: load the sources, join them,
// simulate, store, and optionally serve the result over HTTP.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/chrissnell/solarclear/internal/align"
	"github.com/chrissnell/solarclear/internal/constants"
	"github.com/chrissnell/solarclear/internal/controllers/restserver"
	"github.com/chrissnell/solarclear/internal/csvio"
	"github.com/chrissnell/solarclear/internal/fetch"
	"github.com/chrissnell/solarclear/internal/log"
	"github.com/chrissnell/solarclear/internal/managers"
	"github.com/chrissnell/solarclear/internal/simulation"
	"github.com/chrissnell/solarclear/internal/types"
	"github.com/chrissnell/solarclear/pkg/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// App represents the main application
type App struct {
	config     *config.ConfigData
	logger     *zap.SugaredLogger
	httpClient *http.Client
	latest     *restserver.LatestRun
	signals    <-chan os.Signal
}

// Option configures an App
type Option func(*App)

// WithHTTPClient sets the HTTP client used for the Open-Meteo and OpenAQ sources
func WithHTTPClient(c *http.Client) Option {
	return func(a *App) {
		a.httpClient = c
	}
}

// New creates a new application instance from a validated configuration
func New(cfg *config.ConfigData, logger *zap.SugaredLogger, opts ...Option) *App {
	a := &App{
		config:     cfg,
		logger:     logger,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		latest:     &restserver.LatestRun{},
	}
	if a.logger == nil {
		a.logger = log.GetSugaredLogger()
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Latest is the most recent run, as served by the REST API
func (a *App) Latest() *restserver.LatestRun {
	return a.latest
}

// Run simulates the configured period and stores the records. With a server
// configured it then serves them until SIGINT, SIGTERM or ctx ends.
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		wg.Wait()
	}()

	// Initialize the storage manager
	storageManager, err := managers.NewStorageManager(ctx, &wg, &a.config.Storage)
	if err != nil {
		return err
	}

	runID, result, err := a.Simulate(ctx)
	if err != nil {
		return err
	}

	if err := storageManager.Store(ctx, runID, result.Records); err != nil {
		return fmt.Errorf("error storing run %s: %w", runID, err)
	}
	a.latest.Set(runID, result.Records)
	a.logger.Infow("run stored", "run_id", runID, "records", len(result.Records), "engines", len(storageManager.Engines))

	// Initialize the controller manager
	cm, err := managers.NewControllerManager(ctx, &wg, a.config.Server, a.latest, storageManager, a.logger)
	if err != nil {
		return err
	}
	if cm.Len() == 0 {
		return nil
	}
	if err := cm.StartControllers(); err != nil {
		return err
	}

	a.logger.Info("Application started successfully")

	// Set up signal handling
	sigs := a.signals
	if sigs == nil {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(c)
		sigs = c
	}

	// Wait for shutdown signal
	select {
	case <-sigs:
		a.logger.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		a.logger.Info("context cancelled, shutting down...")
	}

	cancel()
	a.logger.Info("waiting for all workers to terminate...")
	wg.Wait()
	a.logger.Info("shutdown complete")

	return nil
}

// Simulate loads both sources, joins them on civil time, restricts the rows to
// the configured period and runs the pipeline.
func (a *App) Simulate(ctx context.Context) (string, simulation.Result, error) {
	cfg := a.config

	loc, err := cfg.Site.Location()
	if err != nil {
		return "", simulation.Result{}, err
	}
	from, to, err := cfg.Run.Period(loc)
	if err != nil {
		return "", simulation.Result{}, err
	}
	site, err := cfg.Site.ToSite(from)
	if err != nil {
		return "", simulation.Result{}, fmt.Errorf("site configuration: %w", err)
	}

	weather, err := a.loadWeather(ctx, loc, from, to)
	if err != nil {
		return "", simulation.Result{}, err
	}
	measurements, err := a.loadMeasurements(ctx, loc, from, to)
	if err != nil {
		return "", simulation.Result{}, err
	}

	pollution := align.PivotPollution(measurements)
	rows := inPeriod(align.Join(weather, pollution), align.ToCivil(from, loc), align.ToCivil(to, loc))
	a.logger.Infow("sources joined",
		"weather", len(weather),
		"pollution", len(pollution),
		"rows", len(rows),
	)
	if len(rows) == 0 {
		a.logger.Warnw("no overlapping weather and pollution hours in the run period",
			"start", cfg.Run.StartDate, "end", cfg.Run.EndDate)
	}

	runID := uuid.NewString()
	pipeline, err := simulation.New(site,
		simulation.WithWorkers(cfg.Run.Workers),
		simulation.WithAltitude(cfg.Site.Altitude),
		simulation.WithRunID(runID),
		simulation.WithLogger(a.logger),
	)
	if err != nil {
		return "", simulation.Result{}, err
	}

	result, err := pipeline.Run(ctx, rows)
	if err != nil {
		return "", simulation.Result{}, err
	}
	return runID, result, nil
}

func inPeriod(rows []types.Observation, from, to time.Time) []types.Observation {
	out := rows[:0:0]
	for _, r := range rows {
		if r.Timestamp.Before(from) || r.Timestamp.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (a *App) loadWeather(ctx context.Context, loc *time.Location, from, to time.Time) ([]types.WeatherSample, error) {
	src := a.config.Sources
	if src.WeatherCSV != "" {
		samples, err := csvio.ReadWeatherFile(src.WeatherCSV, loc)
		if err != nil {
			return nil, fmt.Errorf("error reading weather CSV: %w", err)
		}
		a.logger.Infow("loaded weather CSV", "path", src.WeatherCSV, "rows", len(samples))
		return samples, nil
	}

	base := fetch.NewBaseClient(a.httpClient, "open-meteo", fetch.DefaultRetryPolicy(), constants.UserAgent, fetch.WithClientLogger(a.logger))
	client := fetch.NewOpenMeteoClient(base, src.OpenMeteo.BaseURL, a.logger)
	samples, err := client.Archive(ctx, fetch.ArchiveRequest{
		Latitude:  a.config.Site.Latitude,
		Longitude: a.config.Site.Longitude,
		StartDate: from,
		EndDate:   to,
		Timezone:  a.config.Site.Timezone,
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching Open-Meteo archive: %w", err)
	}

	if src.SaveDir != "" {
		path := a.savePath("weather")
		if err := csvio.WriteWeatherFile(path, samples); err != nil {
			return nil, fmt.Errorf("error saving weather CSV: %w", err)
		}
		a.logger.Infow("saved weather CSV", "path", path)
	}
	return samples, nil
}

func (a *App) loadMeasurements(ctx context.Context, loc *time.Location, from, to time.Time) ([]types.Measurement, error) {
	src := a.config.Sources
	if src.MeasurementsCSV != "" {
		ms, err := csvio.ReadMeasurementsFile(src.MeasurementsCSV, loc)
		if err != nil {
			return nil, fmt.Errorf("error reading measurements CSV: %w", err)
		}
		a.logger.Infow("loaded measurements CSV", "path", src.MeasurementsCSV, "rows", len(ms))
		return ms, nil
	}

	sensors := make([]fetch.Sensor, len(src.OpenAQ.Sensors))
	sensorIDs := make(map[string]int64, len(src.OpenAQ.Sensors))
	for i, s := range src.OpenAQ.Sensors {
		sensors[i] = fetch.Sensor{ID: s.ID, Parameter: s.Parameter}
		sensorIDs[s.Parameter] = s.ID
	}

	base := fetch.NewBaseClient(a.httpClient, "openaq", fetch.DefaultRetryPolicy(), constants.UserAgent, fetch.WithClientLogger(a.logger))
	client := fetch.NewOpenAQClient(base, src.OpenAQ.BaseURL, src.OpenAQ.APIKey, loc, src.OpenAQ.Concurrency, a.logger)
	ms, err := client.Measurements(ctx, sensors, from, to)
	if err != nil {
		return nil, fmt.Errorf("error fetching OpenAQ measurements: %w", err)
	}

	if src.SaveDir != "" {
		path := a.savePath("measurements")
		if err := csvio.WriteMeasurementsFile(path, ms, sensorIDs); err != nil {
			return nil, fmt.Errorf("error saving measurements CSV: %w", err)
		}
		a.logger.Infow("saved measurements CSV", "path", path)
	}
	return ms, nil
}

// savePath names an intermediate file after its kind and the run period
func (a *App) savePath(kind string) string {
	name := fmt.Sprintf("%s_%s_%s.csv", kind, a.config.Run.StartDate, a.config.Run.EndDate)
	return filepath.Join(a.config.Sources.SaveDir, name)
}
