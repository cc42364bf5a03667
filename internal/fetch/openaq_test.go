package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOpenAQ struct {
	pages    map[string][]int // sensor id -> results per page
	apiKeys  atomic.Int32
	requests atomic.Int32
}

func (f *fakeOpenAQ) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.requests.Add(1)
	if r.Header.Get("X-API-Key") == "secret" {
		f.apiKeys.Add(1)
	}
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	sizes, ok := f.pages[parts[2]]
	if !ok {
		http.NotFound(w, r)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page > len(sizes) {
		http.Error(w, "page out of range", http.StatusUnprocessableEntity)
		return
	}

	results := make([]map[string]any, 0, sizes[page-1])
	for i := range sizes[page-1] {
		hour := (page-1)*OpenAQPageLimit + i
		ts := time.Date(2025, 6, 22, 0, 0, 0, 0, time.UTC).Add(time.Duration(hour) * time.Hour)
		period := map[string]any{
			"datetimeFrom": map[string]string{"local": ts.Add(-time.Hour).In(time.FixedZone("", 8*3600)).Format(time.RFC3339)},
		}
		if i%2 == 0 {
			period["datetimeTo"] = map[string]string{"local": ts.In(time.FixedZone("", 8*3600)).Format(time.RFC3339)}
		}
		results = append(results, map[string]any{"value": float64(hour), "period": period})
	}
	json.NewEncoder(w).Encode(map[string]any{"results": results})
}

func newTestOpenAQ(srvURL string) *OpenAQClient {
	c := NewOpenAQClient(newTestClient(DefaultRetryPolicy()), srvURL, "secret", time.FixedZone("WITA", 8*3600), 2, nil)
	c.pageDelay = 0
	return c
}

func TestSensorMeasurementsPaginates(t *testing.T) {
	f := &fakeOpenAQ{pages: map[string][]int{"55": {OpenAQPageLimit, 3}}}
	srv := httptest.NewServer(f)
	defer srv.Close()

	c := newTestOpenAQ(srv.URL)
	from := time.Date(2025, 6, 22, 0, 0, 0, 0, time.UTC)
	got, err := c.SensorMeasurements(context.Background(), Sensor{ID: 55, Parameter: "pm25"}, from, from.AddDate(0, 3, 0))
	require.NoError(t, err)

	require.Len(t, got, OpenAQPageLimit+3)
	assert.Equal(t, int32(2), f.requests.Load())
	assert.Equal(t, int32(2), f.apiKeys.Load())

	// datetimeTo present: 00:00Z is 08:00 WITA
	assert.Equal(t, time.Date(2025, 6, 22, 8, 0, 0, 0, time.UTC), got[0].Timestamp)
	// datetimeTo missing: fall back to datetimeFrom, one hour earlier
	assert.Equal(t, time.Date(2025, 6, 22, 8, 0, 0, 0, time.UTC), got[1].Timestamp)
	assert.Equal(t, "pm25", got[0].Parameter)
	assert.Equal(t, 1.0, *got[1].Value)
}

func TestSensorMeasurementsStopsOnLaterClientError(t *testing.T) {
	f := &fakeOpenAQ{pages: map[string][]int{"7": {OpenAQPageLimit}}}
	srv := httptest.NewServer(f)
	defer srv.Close()

	got, err := newTestOpenAQ(srv.URL).SensorMeasurements(context.Background(), Sensor{ID: 7, Parameter: "pm1"}, time.Now(), time.Now())
	require.NoError(t, err)
	assert.Len(t, got, OpenAQPageLimit)
}

func TestMeasurementsAcrossSensors(t *testing.T) {
	f := &fakeOpenAQ{pages: map[string][]int{"1": {2}, "2": {4}, "3": {0}}}
	srv := httptest.NewServer(f)
	defer srv.Close()

	sensors := []Sensor{{1, "pm25"}, {2, "relativehumidity"}, {3, "um003"}}
	got, err := newTestOpenAQ(srv.URL).Measurements(context.Background(), sensors, time.Now(), time.Now())
	require.NoError(t, err)
	require.Len(t, got, 6)
	assert.Equal(t, "pm25", got[0].Parameter)
	assert.Equal(t, "relativehumidity", got[5].Parameter)

	_, err = newTestOpenAQ(srv.URL).Measurements(context.Background(), []Sensor{{404, "pm10"}}, time.Now(), time.Now())
	assert.ErrorContains(t, err, fmt.Sprintf("sensor %d", 404))
}
