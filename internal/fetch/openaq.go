package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/chrissnell/solarclear/internal/align"
	"github.com/chrissnell/solarclear/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultOpenAQURL is the OpenAQ API host
	DefaultOpenAQURL = "https://api.openaq.org"

	// OpenAQPageLimit is the page size requested from the measurements endpoint
	OpenAQPageLimit = 1000
)

// Sensor is an OpenAQ sensor and the parameter it reports
type Sensor struct {
	ID        int64  `yaml:"id" json:"id"`
	Parameter string `yaml:"parameter" json:"parameter"`
}

type openAQDatetime struct {
	UTC   string `json:"utc"`
	Local string `json:"local"`
}

type openAQMeasurement struct {
	Value  *float64 `json:"value"`
	Period struct {
		DatetimeFrom *openAQDatetime `json:"datetimeFrom"`
		DatetimeTo   *openAQDatetime `json:"datetimeTo"`
	} `json:"period"`
}

type openAQPage struct {
	Results []openAQMeasurement `json:"results"`
}

// OpenAQClient reads sensor measurements from the OpenAQ v3 API
type OpenAQClient struct {
	base        *BaseClient
	baseURL     string
	apiKey      string
	loc         *time.Location
	concurrency int
	pageDelay   time.Duration
	logger      *zap.SugaredLogger
}

// NewOpenAQClient returns a client that converts timestamps to loc. Sensors
// are fetched concurrently, at most concurrency at a time.
func NewOpenAQClient(base *BaseClient, baseURL, apiKey string, loc *time.Location, concurrency int, logger *zap.SugaredLogger) *OpenAQClient {
	if baseURL == "" {
		baseURL = DefaultOpenAQURL
	}
	if loc == nil {
		loc = time.UTC
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &OpenAQClient{
		base:        base,
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		loc:         loc,
		concurrency: concurrency,
		pageDelay:   200 * time.Millisecond,
		logger:      logger,
	}
}

// SensorMeasurements pages through one sensor's measurements between from
// and to. Paging stops at the first short or empty page. A 4xx on a later
// page ends paging with the data gathered so far.
func (c *OpenAQClient) SensorMeasurements(ctx context.Context, s Sensor, from, to time.Time) ([]types.Measurement, error) {
	header := http.Header{}
	if c.apiKey != "" {
		header.Set("X-API-Key", c.apiKey)
	}

	var out []types.Measurement
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("datetime_from", from.UTC().Format(time.RFC3339))
		q.Set("datetime_to", to.UTC().Format(time.RFC3339))
		q.Set("limit", strconv.Itoa(OpenAQPageLimit))
		q.Set("page", strconv.Itoa(page))
		u := fmt.Sprintf("%s/v3/sensors/%d/measurements?%s", c.baseURL, s.ID, q.Encode())

		var p openAQPage
		if err := c.base.GetJSON(ctx, u, header, &p); err != nil {
			var se *StatusError
			if page > 1 && errors.As(err, &se) && se.Code < 500 {
				c.logger.Warnw("stopping openaq pagination", "sensor", s.ID, "page", page, "status", se.Code)
				break
			}
			return nil, fmt.Errorf("openaq sensor %d page %d: %w", s.ID, page, err)
		}

		for _, r := range p.Results {
			ts, ok := c.timestamp(r)
			if !ok {
				continue
			}
			out = append(out, types.Measurement{Timestamp: ts, Parameter: s.Parameter, Value: r.Value})
		}

		c.logger.Debugw("fetched openaq page", "sensor", s.ID, "page", page, "results", len(p.Results))

		if len(p.Results) < OpenAQPageLimit {
			break
		}
		if c.pageDelay > 0 {
			if err := sleepContext(ctx, c.pageDelay); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// timestamp reads the period end, falling back to its start, and converts it
// to offset-free civil time.
func (c *OpenAQClient) timestamp(r openAQMeasurement) (time.Time, bool) {
	var raw string
	if dt := r.Period.DatetimeTo; dt != nil && dt.Local != "" {
		raw = dt.Local
	} else if df := r.Period.DatetimeFrom; df != nil && df.Local != "" {
		raw = df.Local
	}
	if raw == "" {
		return time.Time{}, false
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return align.ToCivil(t, c.loc), true
	}
	if t, err := time.Parse("2006-01-02T15:04:05", raw); err == nil {
		return t, true
	}
	c.logger.Debugw("unparseable openaq timestamp", "value", raw)
	return time.Time{}, false
}

// Measurements fetches every sensor and concatenates the results in sensor
// order.
func (c *OpenAQClient) Measurements(ctx context.Context, sensors []Sensor, from, to time.Time) ([]types.Measurement, error) {
	perSensor := make([][]types.Measurement, len(sensors))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, s := range sensors {
		g.Go(func() error {
			ms, err := c.SensorMeasurements(gctx, s, from, to)
			if err != nil {
				return err
			}
			perSensor[i] = ms
			c.logger.Infow("fetched openaq sensor", "sensor", s.ID, "parameter", s.Parameter, "measurements", len(ms))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []types.Measurement
	for _, ms := range perSensor {
		out = append(out, ms...)
	}
	return out, nil
}
