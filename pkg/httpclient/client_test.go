package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient() *Client {
	return New(Options{
		Timeout:         2 * time.Second,
		RequestsPerSec:  1000,
		Burst:           10,
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		MaxRetryTimeout: time.Second,
		Headers:         map[string]string{"X-API-KEY": "secret"},
	})
}

// TestGetJSON_RetriesServerErrors tests that 5xx responses are retried
func TestGetJSON_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.Equal(t, "secret", r.Header.Get("X-API-KEY"))
		assert.Equal(t, "b", r.URL.Query().Get("a"))
		json.NewEncoder(w).Encode(map[string]string{"ok": "yes"})
	}))
	defer srv.Close()

	var out map[string]string
	err := testClient().GetJSON(context.Background(), srv.URL, url.Values{"a": {"b"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "yes", out["ok"])
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

// TestGetJSON_ClientErrorNotRetried tests that 4xx other than 429 fail at once
func TestGetJSON_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad mint", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := testClient().GetJSON(context.Background(), srv.URL, nil, nil)
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "bad mint")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

// TestGetJSON_GivesUpAfterMaxRetries tests the retry bound
func TestGetJSON_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := testClient().GetJSON(context.Background(), srv.URL, nil, nil)
	require.Error(t, err)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

// TestPostJSON_NeverRetries tests that POST is attempted once even on 5xx
func TestPostJSON_NeverRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := testClient().PostJSON(context.Background(), srv.URL, map[string]int{"x": 1}, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

// TestGetJSON_ContextCancelled tests that a cancelled context stops the call
func TestGetJSON_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := testClient().GetJSON(ctx, srv.URL, nil, nil)
	assert.Error(t, err)
}

// TestBreaker_States tests open, cooldown and half-open transitions
func TestBreaker_States(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	b := NewBreaker(2, time.Minute)
	b.now = func() time.Time { return now }

	require.True(t, b.Allow())
	b.Record(true)
	assert.Equal(t, StateClosed, b.State())
	require.True(t, b.Allow())
	b.Record(true)
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())

	now = now.Add(time.Minute)
	assert.Equal(t, StateHalfOpen, b.State())
	require.True(t, b.Allow())
	assert.False(t, b.Allow(), "only one trial call at a time")
	b.Record(true)
	assert.Equal(t, StateOpen, b.State())

	now = now.Add(time.Minute)
	require.True(t, b.Allow())
	b.Record(false)
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

// TestGetJSON_BreakerOpens tests that repeated upstream failures short-circuit requests
func TestGetJSON_BreakerOpens(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := New(Options{
		RequestsPerSec:   1000,
		Burst:            10,
		MaxRetries:       1,
		InitialInterval:  time.Millisecond,
		MaxRetryTimeout:  time.Second,
		BreakerThreshold: 2,
		BreakerCooldown:  time.Hour,
	})

	for i := 0; i < 2; i++ {
		err := client.GetJSON(context.Background(), srv.URL, nil, nil)
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
	}
	sent := atomic.LoadInt32(&calls)
	assert.Equal(t, int32(4), sent)

	err := client.GetJSON(context.Background(), srv.URL, nil, nil)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, sent, atomic.LoadInt32(&calls))
	assert.Equal(t, StateOpen, client.Breaker().State())
}

// TestGetJSON_CancelledCallKeepsBreakerOpen tests that a half-open call cut short by its context does not close the breaker
func TestGetJSON_CancelledCallKeepsBreakerOpen(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := New(Options{
		RequestsPerSec:   1000,
		Burst:            10,
		MaxRetries:       1,
		InitialInterval:  time.Millisecond,
		MaxRetryTimeout:  time.Second,
		BreakerThreshold: 1,
		BreakerCooldown:  time.Minute,
	})
	breaker := client.Breaker()
	now := time.Unix(1_700_000_000, 0)
	breaker.now = func() time.Time { return now }

	require.Error(t, client.GetJSON(context.Background(), srv.URL, nil, nil))
	require.Equal(t, StateOpen, breaker.State())

	now = now.Add(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := client.GetJSON(ctx, srv.URL, nil, nil)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, StateOpen, breaker.state)
	assert.Equal(t, 1, breaker.failures)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	require.True(t, breaker.Allow(), "next call is a trial again")
	breaker.Record(false)
	assert.Equal(t, StateClosed, breaker.State())
}

// TestBreaker_AbandonClosedIsNoop tests that abandoning outside half-open changes nothing
func TestBreaker_AbandonClosedIsNoop(t *testing.T) {
	b := NewBreaker(2, time.Minute)
	require.True(t, b.Allow())
	b.Record(true)
	b.Abandon()
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, 1, b.failures)
}

// TestGetJSON_ClientErrorsKeepBreakerClosed tests that 4xx responses do not trip the breaker
func TestGetJSON_ClientErrorsKeepBreakerClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := New(Options{RequestsPerSec: 1000, BreakerThreshold: 1})
	for i := 0; i < 3; i++ {
		assert.Error(t, client.GetJSON(context.Background(), srv.URL, nil, nil))
	}
	assert.Equal(t, StateClosed, client.Breaker().State())
}
