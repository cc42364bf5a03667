package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/chrissnell/solarclear/internal/types"
	"go.uber.org/zap"
)

// DefaultOpenMeteoURL is the historical weather archive endpoint host
const DefaultOpenMeteoURL = "https://archive-api.open-meteo.com"

const openMeteoTimeLayout = "2006-01-02T15:04"

var openMeteoHourly = []string{
	"temperature_2m",
	"cloud_cover",
	"relative_humidity_2m",
	"precipitation",
	"shortwave_radiation",
	"direct_normal_irradiance",
	"diffuse_radiation",
}

// ArchiveRequest selects a location and an inclusive date range. Timezone is
// an IANA name; returned timestamps are civil times in that zone.
type ArchiveRequest struct {
	Latitude  float64
	Longitude float64
	StartDate time.Time
	EndDate   time.Time
	Timezone  string
}

type openMeteoResponse struct {
	Timezone string `json:"timezone"`
	Hourly   struct {
		Time             []string   `json:"time"`
		Temperature      []*float64 `json:"temperature_2m"`
		CloudCover       []*float64 `json:"cloud_cover"`
		RelativeHumidity []*float64 `json:"relative_humidity_2m"`
		Precipitation    []*float64 `json:"precipitation"`
		GHI              []*float64 `json:"shortwave_radiation"`
		DNI              []*float64 `json:"direct_normal_irradiance"`
		DHI              []*float64 `json:"diffuse_radiation"`
	} `json:"hourly"`
}

// OpenMeteoClient reads hourly weather and irradiance from the Open-Meteo
// archive.
type OpenMeteoClient struct {
	base    *BaseClient
	baseURL string
	logger  *zap.SugaredLogger
}

// NewOpenMeteoClient returns a client for baseURL, or DefaultOpenMeteoURL when empty
func NewOpenMeteoClient(base *BaseClient, baseURL string, logger *zap.SugaredLogger) *OpenMeteoClient {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoURL
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &OpenMeteoClient{base: base, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

// Archive fetches hourly samples for the request's date range
func (c *OpenMeteoClient) Archive(ctx context.Context, ar ArchiveRequest) ([]types.WeatherSample, error) {
	if ar.EndDate.Before(ar.StartDate) {
		return nil, fmt.Errorf("end date %s before start date %s",
			ar.EndDate.Format(time.DateOnly), ar.StartDate.Format(time.DateOnly))
	}

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(ar.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(ar.Longitude, 'f', -1, 64))
	q.Set("start_date", ar.StartDate.Format(time.DateOnly))
	q.Set("end_date", ar.EndDate.Format(time.DateOnly))
	q.Set("hourly", strings.Join(openMeteoHourly, ","))
	tz := ar.Timezone
	if tz == "" {
		tz = "UTC"
	}
	q.Set("timezone", tz)

	var resp openMeteoResponse
	if err := c.base.GetJSON(ctx, c.baseURL+"/v1/archive?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("open-meteo archive: %w", err)
	}

	h := resp.Hourly
	at := func(series []*float64, i int) *float64 {
		if i < len(series) {
			return series[i]
		}
		return nil
	}

	samples := make([]types.WeatherSample, 0, len(h.Time))
	for i, s := range h.Time {
		ts, err := time.Parse(openMeteoTimeLayout, s)
		if err != nil {
			return nil, fmt.Errorf("open-meteo archive: bad time %q: %w", s, err)
		}
		samples = append(samples, types.WeatherSample{
			Timestamp:        ts,
			Temperature:      at(h.Temperature, i),
			CloudCover:       at(h.CloudCover, i),
			RelativeHumidity: at(h.RelativeHumidity, i),
			Precipitation:    at(h.Precipitation, i),
			GHI:              at(h.GHI, i),
			DNI:              at(h.DNI, i),
			DHI:              at(h.DHI, i),
		})
	}

	c.logger.Infow("fetched open-meteo archive", "samples", len(samples), "timezone", resp.Timezone)
	return samples, nil
}
