package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProbeSuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	result := NewHTTPProber().Probe(context.Background(), Target{URL: ts.URL, Timeout: 5000})

	require.True(t, result.Received())
	require.Equal(t, http.StatusOK, *result.StatusCode)
	require.NotNil(t, result.ResponseTime)
	require.GreaterOrEqual(t, *result.ResponseTime, 0.0)
	require.Empty(t, result.Err)
}

// Any HTTP response is a result, never an error, whatever the status.
func TestProbeCapturesErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	result := NewHTTPProber().Probe(context.Background(), Target{URL: ts.URL, Timeout: 5000})

	require.True(t, result.Received())
	require.Equal(t, http.StatusServiceUnavailable, *result.StatusCode)
	require.NotNil(t, result.ResponseTime)
	require.Empty(t, result.Err)
}

func TestProbeTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	result := NewHTTPProber().Probe(context.Background(), Target{URL: url, Timeout: 5000})

	require.False(t, result.Received())
	require.Nil(t, result.StatusCode)
	require.Nil(t, result.ResponseTime)
	require.NotEmpty(t, result.Err)
}

func TestProbeTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer ts.Close()

	start := time.Now()
	result := NewHTTPProber().Probe(context.Background(), Target{URL: ts.URL, Timeout: 50})

	require.False(t, result.Received())
	require.NotEmpty(t, result.Err)
	require.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestProbeSendsHeaders(t *testing.T) {
	var got string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Api-Key")
	}))
	defer ts.Close()

	result := NewHTTPProber().Probe(context.Background(), Target{
		URL:     ts.URL,
		Timeout: 5000,
		Headers: map[string]string{"X-Api-Key": "secret"},
	})

	require.True(t, result.Received())
	require.Equal(t, "secret", got)
}

func TestProbeInvalidURL(t *testing.T) {
	result := NewHTTPProber().Probe(context.Background(), Target{URL: "://not-a-url", Timeout: 5000})

	require.False(t, result.Received())
	require.NotEmpty(t, result.Err)
}
