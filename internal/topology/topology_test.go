package topology

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/siteconfig/internal/config"
	"git.home.luguber.info/inful/siteconfig/internal/foundation/errors"
)

func TestStaticLookup(t *testing.T) {
	s := NewStatic(config.TopologyConfig{
		CMWebsiteURL: "https://cm.example.com",
		SearchQueryURLs: []config.SearchQueryURL{
			{Purpose: "Live", URL: "https://search/live"},
			{Publication: "5", Purpose: "Live", URL: "https://search/live-5"},
			{Purpose: "Staging", URL: "https://search/staging"},
		},
	})
	ctx := context.Background()

	env, err := s.EnvironmentURL(ctx)
	require.NoError(t, err)
	require.Equal(t, "https://cm.example.com", env)

	got, err := s.SearchQueryURL(ctx, "5", "Live")
	require.NoError(t, err)
	require.Equal(t, "https://search/live-5", got)

	got, err = s.SearchQueryURL(ctx, "6", "Live")
	require.NoError(t, err)
	require.Equal(t, "https://search/live", got)

	got, err = s.SearchQueryURL(ctx, "6", "Preview")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestNewPicksImplementation(t *testing.T) {
	l, err := New(config.TopologyConfig{}, nil)
	require.NoError(t, err)
	require.IsType(t, &Static{}, l)

	l, err = New(config.TopologyConfig{Endpoint: "http://localhost:1"}, nil)
	require.NoError(t, err)
	require.IsType(t, &Client{}, l)
}

func testClient(t *testing.T, h http.Handler, retries int) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(config.TopologyConfig{
		Endpoint:  srv.URL + "/",
		CacheSize: 8,
		Timeout:   2 * time.Second,
		Retry:     config.RetryConfig{Backoff: config.RetryBackoffFixed, Initial: time.Millisecond, Max: time.Millisecond, MaxRetries: retries},
	}, nil)
	require.NoError(t, err)
	return c
}

func TestClientLookupsAreCached(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/environment", func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"url":"https://cm.example.com"}`))
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("purpose") != "Live" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"url":"https://search/` + r.URL.Query().Get("publication") + `"}`))
	})
	c := testClient(t, mux, 0)
	ctx := context.Background()

	for range 2 {
		got, err := c.EnvironmentURL(ctx)
		require.NoError(t, err)
		require.Equal(t, "https://cm.example.com", got)
	}
	got, err := c.SearchQueryURL(ctx, "5", "Live")
	require.NoError(t, err)
	require.Equal(t, "https://search/5", got)

	got, err = c.SearchQueryURL(ctx, "5", "Staging")
	require.NoError(t, err)
	require.Empty(t, got)

	require.Equal(t, int32(3), calls.Load())
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"url":"https://cm"}`))
	}), 3)

	got, err := c.EnvironmentURL(context.Background())
	require.NoError(t, err)
	require.Equal(t, "https://cm", got)
	require.Equal(t, int32(3), calls.Load())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}), 3)

	_, err := c.EnvironmentURL(context.Background())
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryTopology))
	require.Equal(t, int32(1), calls.Load())
}

func TestClientRejectsMalformedBody(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}), 0)
	_, err := c.EnvironmentURL(context.Background())
	require.Error(t, err)
}
