package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Jadavivek/deepsolv/internal/insights"
	"github.com/Jadavivek/deepsolv/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Init()
	os.Exit(m.Run())
}

func testConfig() Config {
	return Config{
		UserAgent:      "insights-test",
		Timeout:        5 * time.Second,
		MaxRetries:     3,
		BackoffBase:    time.Millisecond,
		MaxConnections: 4,
		MaxPerHost:     2,
	}
}

func TestFetchSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	c := New(testConfig(), nil)
	body, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "<html>ok</html>", string(body))
}

func TestFetchSameURLTwice(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	// Force-refresh and cache expiry re-fetch the same URL on one client,
	// so a second Fetch must reach the network again.
	c := New(testConfig(), nil)
	_, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	body, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "<html>ok</html>", string(body))
	require.EqualValues(t, 2, hits.Load())
}

func TestFetchRetriesUntilExhausted(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(testConfig(), nil)
	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	require.ErrorIs(t, err, insights.ErrUnreachable)
	require.EqualValues(t, 4, attempts.Load())
}

func TestFetchNotFoundShortCircuits(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(testConfig(), nil)
	_, err := c.Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, insights.ErrNotFound)
	require.EqualValues(t, 1, attempts.Load())
}

func TestFetchRecoversAfterTransientFailure(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	c := New(testConfig(), nil)
	body, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "recovered", string(body))
	require.EqualValues(t, 3, attempts.Load())
}

func TestFetchJSONDecodeErrorIsNotRetried(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	c := New(testConfig(), nil)
	var out map[string]any
	err := c.FetchJSON(context.Background(), srv.URL, &out)
	require.Error(t, err)
	require.NotErrorIs(t, err, insights.ErrUnreachable)
	require.EqualValues(t, 1, attempts.Load())
}

func TestFetchJSONDecodesBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"products":[{"title":"Mug"}]}`))
	}))
	defer srv.Close()

	c := New(testConfig(), nil)
	var out struct {
		Products []struct {
			Title string `json:"title"`
		} `json:"products"`
	}
	require.NoError(t, c.FetchJSON(context.Background(), srv.URL, &out))
	require.Len(t, out.Products, 1)
	require.Equal(t, "Mug", out.Products[0].Title)
}

func TestFetchHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.BackoffBase = time.Hour
	c := New(cfg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Fetch(ctx, srv.URL)
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
