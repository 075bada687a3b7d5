// Package fetcher implements insights.Fetcher using gocolly.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/Jadavivek/deepsolv/internal/insights"
	"github.com/Jadavivek/deepsolv/internal/metrics"
)

// Config controls collector and retry behavior.
type Config struct {
	UserAgent      string
	Timeout        time.Duration
	MaxRetries     int
	BackoffBase    time.Duration
	MaxConnections int64
	MaxPerHost     int
	PerHostRPS     float64
	PerHostBurst   int
}

// Client implements insights.Fetcher with bounded retries, exponential
// backoff, a process-wide connection budget, and per-host rate limiting.
type Client struct {
	cfg           Config
	baseCollector *colly.Collector
	sem           *semaphore.Weighted
	limiter       *hostLimiter
	logger        *zap.Logger
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// attemptResult captures the outcome of one collector visit.
type attemptResult struct {
	statusCode int
	body       []byte
}

// New builds a Client.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	c.AllowURLRevisit = true
	c.WithTransport(newHTTPTransport(cfg.MaxPerHost))

	return &Client{
		cfg:           cfg,
		baseCollector: c,
		sem:           semaphore.NewWeighted(cfg.MaxConnections),
		limiter:       newHostLimiter(cfg.PerHostRPS, cfg.PerHostBurst),
		logger:        logger,
	}
}

// Fetch retrieves url with retries. A 404 short-circuits immediately with
// insights.ErrNotFound; any other failure is retried up to MaxRetries times
// with exponential backoff, then surfaced wrapped in insights.ErrUnreachable.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire connection slot: %w", err)
	}
	defer c.sem.Release(1)

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			metrics.ObserveFetchRetry()
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, err
			}
		}
		if err := c.limiter.Wait(ctx, url); err != nil {
			return nil, err
		}

		body, err := c.attempt(ctx, url)
		if err == nil {
			metrics.ObserveFetch(url, "success", len(body))
			return body, nil
		}
		if errors404(err) {
			metrics.ObserveFetch(url, "not_found", 0)
			return nil, fmt.Errorf("fetch %s: %w", url, insights.ErrNotFound)
		}
		metrics.ObserveFetch(url, "error", 0)
		c.logger.Debug("fetch attempt failed",
			zap.String("url", url),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		lastErr = err
	}
	return nil, fmt.Errorf("fetch %s after %d attempts: %w: %w", url, c.cfg.MaxRetries+1, insights.ErrUnreachable, lastErr)
}

// FetchJSON fetches url and decodes the body into v. Decode failures are
// permanent and never retried.
func (c *Client) FetchJSON(ctx context.Context, url string, v any) error {
	body, err := c.Fetch(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// attempt performs one collector visit and classifies the outcome.
func (c *Client) attempt(ctx context.Context, url string) ([]byte, error) {
	var (
		result   attemptResult
		fetchErr error
	)
	collector := c.buildCollector(&result, &fetchErr)

	if err := c.runCollector(ctx, collector, url, &fetchErr); err != nil {
		if result.statusCode == http.StatusNotFound {
			return nil, statusError{code: http.StatusNotFound}
		}
		return nil, err
	}
	if result.statusCode >= 200 && result.statusCode < 300 {
		return result.body, nil
	}
	return nil, statusError{code: result.statusCode}
}

func (c *Client) buildCollector(result *attemptResult, fetchErr *error) *colly.Collector {
	collector := c.baseCollector.Clone()
	if c.cfg.UserAgent != "" {
		collector.UserAgent = c.cfg.UserAgent
	}
	collector.IgnoreRobotsTxt = true
	// Clone shares the parent's visited-URL store, so without this every
	// retry and every re-fetch of a known URL dies on the visited check.
	collector.AllowURLRevisit = true
	collector.SetRequestTimeout(c.cfg.Timeout)

	c.configureCollectorHooks(collector, result, fetchErr)
	return collector
}

func (c *Client) configureCollectorHooks(hooks collectorHooks, result *attemptResult, fetchErr *error) {
	hooks.OnResponse(func(r *colly.Response) {
		result.statusCode = r.StatusCode
		result.body = append([]byte(nil), r.Body...)
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil {
			result.statusCode = r.StatusCode
		}
		*fetchErr = err
	})
}

func (c *Client) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("response failed: %w", *fetchErr)
		}
		return nil
	}
}

// backoff sleeps for BackoffBase << (attempt-1) plus jitter, or returns
// early if the context expires.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	delay := c.cfg.BackoffBase << (attempt - 1)
	delay += time.Duration(rand.Int63n(int64(c.cfg.BackoffBase)/2 + 1))
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("backoff canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

type statusError struct {
	code int
}

func (e statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

func errors404(err error) bool {
	var se statusError
	if errors.As(err, &se) {
		return se.code == http.StatusNotFound
	}
	return false
}

func newHTTPTransport(maxPerHost int) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxConnsPerHost:       maxPerHost,
		IdleConnTimeout:       90 * time.Second,
	}
}
