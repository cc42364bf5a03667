package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(context.Context, time.Duration) error { return nil }

func newTestClient(policy RetryPolicy) *BaseClient {
	return NewBaseClient(&http.Client{Timeout: 5 * time.Second}, "test", policy, "solarclear-test", WithSleepFunc(noSleep))
}

func TestGetJSONSuccess(t *testing.T) {
	var ua, accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua, accept = r.Header.Get("User-Agent"), r.Header.Get("Accept")
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	var out struct{ Status string }
	require.NoError(t, newTestClient(DefaultRetryPolicy()).GetJSON(context.Background(), srv.URL, nil, &out))
	assert.Equal(t, "ok", out.Status)
	assert.Equal(t, "solarclear-test", ua)
	assert.Equal(t, "application/json", accept)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	var out map[string]any
	require.NoError(t, newTestClient(DefaultRetryPolicy()).GetJSON(context.Background(), srv.URL, nil, &out))
	assert.Equal(t, int32(3), calls.Load())
}

func TestExhaustedRetriesReturnStatusError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	policy := RetryPolicy{MaxRetries: 2, MinWait: time.Millisecond, MaxWait: time.Millisecond}
	err := newTestClient(policy).GetJSON(context.Background(), srv.URL, nil, &struct{}{})

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	err := newTestClient(DefaultRetryPolicy()).GetJSON(context.Background(), srv.URL, nil, &struct{}{})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnprocessableEntity, se.Code)
	assert.Contains(t, se.Body, "nope")
	assert.Equal(t, int32(1), calls.Load())
}

func TestBreakerOpens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(RetryPolicy{MaxRetries: 0})
	for range 6 {
		_ = c.GetJSON(context.Background(), srv.URL, nil, &struct{}{})
	}
	err := c.GetJSON(context.Background(), srv.URL, nil, &struct{}{})
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestComputeBackoff(t *testing.T) {
	c := newTestClient(RetryPolicy{MaxRetries: 3, MinWait: 100 * time.Millisecond, MaxWait: 2 * time.Second})

	resp := &http.Response{Header: http.Header{"Retry-After": []string{"1"}}}
	assert.Equal(t, time.Second, c.computeBackoff(0, resp))

	resp.Header.Set("Retry-After", "60")
	assert.Equal(t, 2*time.Second, c.computeBackoff(0, resp))

	assert.Equal(t, 100*time.Millisecond, c.computeBackoff(0, nil))
	for attempt := range 5 {
		wait := c.computeBackoff(attempt, nil)
		assert.GreaterOrEqual(t, wait, 100*time.Millisecond)
		assert.LessOrEqual(t, wait, 2*time.Second)
	}
}
