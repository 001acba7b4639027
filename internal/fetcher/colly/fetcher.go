// Package collyfetcher implements Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/depth-scraper/internal/crawler"
	"github.com/JakeFAU/depth-scraper/internal/metrics"
	"github.com/JakeFAU/depth-scraper/internal/policy/ratelimit"
)

const defaultUserAgent = "scraper/1.0"

// Config controls collector behavior.
type Config struct {
	UserAgent string
	// Retries is the number of attempts per Fetch call.
	Retries     int
	BaseTimeout time.Duration
	// MaxBodyBytes truncates bodies; zero means unlimited.
	MaxBodyBytes int
	// RequestsPerSecond throttles every attempt across all workers; zero
	// disables throttling.
	RequestsPerSecond float64
}

// Fetcher implements crawler.Fetcher using the Colly collector.
type Fetcher struct {
	cfg       Config
	schedule  crawler.TimeoutSchedule
	transport http.RoundTripper
	limiter   *ratelimit.Limiter
	metrics   *metrics.Collector
	logger    *zap.Logger
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher. The metrics collector may be nil.
func New(cfg Config, m *metrics.Collector, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	return &Fetcher{
		cfg:       cfg,
		schedule:  crawler.NewTimeoutSchedule(cfg.BaseTimeout, cfg.Retries),
		transport: newHTTPTransport(),
		limiter:   ratelimit.New(ratelimit.Config{RPS: cfg.RequestsPerSecond}),
		metrics:   m,
		logger:    logger.Named("fetcher"),
	}
}

// Schedule returns the effective per-attempt timeout schedule.
func (f *Fetcher) Schedule() crawler.TimeoutSchedule {
	return f.schedule
}

// Fetch GETs rawURL, retrying up to the configured number of attempts. Any
// failure (transport error, non-2xx status, timeout) consumes one attempt.
// Once every attempt has failed the returned error wraps
// crawler.ErrFetchFailed and the last attempt's error.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (crawler.FetchResponse, error) {
	start := time.Now()
	var lastErr error
	for attempt := 0; attempt < f.schedule.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return crawler.FetchResponse{Attempts: attempt}, fmt.Errorf("%w: colly fetch canceled: %w", crawler.ErrFetchFailed, err)
		}
		if _, err := f.limiter.Wait(ctx); err != nil {
			return crawler.FetchResponse{Attempts: attempt}, fmt.Errorf("%w: %w", crawler.ErrFetchFailed, err)
		}
		timeout, err := f.schedule.Timeout(attempt)
		if err != nil {
			return crawler.FetchResponse{}, err
		}

		f.metrics.ObserveFetchAttempt()
		result, err := f.attempt(ctx, rawURL, timeout)
		if err == nil {
			result.Attempts = attempt + 1
			result.Duration = time.Since(start)
			f.metrics.ObserveFetchDuration(result.Duration)
			return result, nil
		}
		lastErr = err
		if ctxErr := ctx.Err(); ctxErr != nil {
			return crawler.FetchResponse{Attempts: attempt + 1}, fmt.Errorf("%w: colly fetch canceled: %w", crawler.ErrFetchFailed, ctxErr)
		}
		f.logger.Debug("fetch attempt failed",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
	}
	return crawler.FetchResponse{Attempts: f.schedule.Retries},
		fmt.Errorf("%w: %s after %d attempts: %w", crawler.ErrFetchFailed, rawURL, f.schedule.Retries, lastErr)
}

func (f *Fetcher) attempt(ctx context.Context, rawURL string, timeout time.Duration) (crawler.FetchResponse, error) {
	var (
		result   crawler.FetchResponse
		fetchErr error
	)
	collector := f.buildCollector(timeout, &result, &fetchErr)
	if err := runCollector(ctx, collector, rawURL, &fetchErr); err != nil {
		return crawler.FetchResponse{}, err
	}
	return result, nil
}

// buildCollector creates a collector for a single attempt. Clones would share
// the base collector's http.Client, so concurrent attempts with different
// timeouts each get their own collector on top of the shared transport.
func (f *Fetcher) buildCollector(
	timeout time.Duration,
	result *crawler.FetchResponse,
	fetchErr *error,
) *colly.Collector {
	collector := colly.NewCollector(
		colly.Async(false),
		colly.UserAgent(f.cfg.UserAgent),
		colly.MaxBodySize(f.cfg.MaxBodyBytes),
		colly.IgnoreRobotsTxt(),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
	)
	collector.WithTransport(f.transport)
	collector.SetRequestTimeout(timeout)

	f.configureCollectorHooks(collector, result, fetchErr)
	return collector
}

func (f *Fetcher) configureCollectorHooks(
	hooks collectorHooks,
	result *crawler.FetchResponse,
	fetchErr *error,
) {
	hooks.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	})

	hooks.OnResponse(func(r *colly.Response) {
		if r.StatusCode < http.StatusOK || r.StatusCode >= http.StatusMultipleChoices {
			*fetchErr = fmt.Errorf("unexpected status %d", r.StatusCode)
			return
		}
		*result = crawler.FetchResponse{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
		}
	})

	hooks.OnError(func(_ *colly.Response, err error) {
		*fetchErr = err
	})
}

func runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
	}
}
