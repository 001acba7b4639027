// Package app_test contains unit tests for the app package.
package app_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/depth-scraper/internal/app"
	"github.com/JakeFAU/depth-scraper/internal/config"
	"github.com/JakeFAU/depth-scraper/internal/crawler"
	"github.com/JakeFAU/depth-scraper/internal/logging"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		Crawler: config.CrawlerConfig{
			Workers:     2,
			Retries:     2,
			BaseTimeout: time.Second,
			OutputDir:   filepath.Join(dir, "pages"),
			Storage:     config.StorageLocal,
			UserAgent:   "app-test",
		},
		Logging: logging.Config{Level: "error"},
		Metrics: config.MetricsConfig{Textfile: filepath.Join(dir, "scraper.prom")},
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Crawler.Workers = 0
	_, err := app.New(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, crawler.ErrInvalidConfig))
}

func TestNewBuildsServices(t *testing.T) {
	t.Parallel()

	a, err := app.New(testConfig(t))
	require.NoError(t, err)
	assert.NotNil(t, a.GetLogger())
	assert.Len(t, a.RunID(), 36)
	assert.Equal(t, 2, a.Workers())
}

func TestCrawlWritesArtifactsAndMetrics(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch r.URL.Path {
		case "/":
			_, _ = w.Write([]byte(`<a href="/next">next</a>`))
		case "/next":
			_, _ = w.Write([]byte(`<a href="/">home</a>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := testConfig(t)
	a, err := app.New(cfg)
	require.NoError(t, err)

	stats, err := a.Crawl(context.Background(), crawler.Config{
		SeedURL:           srv.URL + "/",
		MaxLinksPerPage:   3,
		MaxDepth:          1,
		EnforceUniqueness: true,
		NumWorkers:        a.Workers(),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Pages)
	assert.EqualValues(t, 1, stats.LinksEnqueued)

	for _, depth := range []string{"0", "1"} {
		entries, err := os.ReadDir(filepath.Join(cfg.Crawler.OutputDir, depth))
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	}

	require.NoError(t, a.Close())
	// #nosec G304 -- test reads from the controlled temp directory.
	data, err := os.ReadFile(cfg.Metrics.Textfile)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `scraper_pages_total{status="ok"} 2`), string(data))
	assert.True(t, strings.Contains(string(data), "scraper_links_enqueued_total 1"), string(data))
}

func TestCrawlRejectsInvalidCrawlConfig(t *testing.T) {
	t.Parallel()

	a, err := app.New(testConfig(t))
	require.NoError(t, err)

	_, err = a.Crawl(context.Background(), crawler.Config{SeedURL: "https://a.test/", MaxLinksPerPage: 0, MaxDepth: 1, NumWorkers: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, crawler.ErrInvalidConfig))
}

func TestCrawlRejectsUnusableOutputDir(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	cfg.Crawler.OutputDir = file

	a, err := app.New(cfg)
	require.NoError(t, err)
	_, err = a.Crawl(context.Background(), crawler.Config{SeedURL: "https://a.test/", MaxLinksPerPage: 1, MaxDepth: 1, NumWorkers: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, crawler.ErrInvalidConfig))
}

func TestCrawlMemoryStorageWritesNothing(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<a href="/other">other</a>`))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.Crawler.Storage = config.StorageMemory
	a, err := app.New(cfg)
	require.NoError(t, err)

	stats, err := a.Crawl(context.Background(), crawler.Config{
		SeedURL:           srv.URL + "/",
		MaxLinksPerPage:   1,
		MaxDepth:          1,
		EnforceUniqueness: true,
		NumWorkers:        a.Workers(),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Pages)
	assert.Zero(t, stats.PersistFailures)

	_, err = os.Stat(cfg.Crawler.OutputDir)
	assert.True(t, errors.Is(err, os.ErrNotExist), "memory storage must not create %s", cfg.Crawler.OutputDir)
	require.NoError(t, a.Close())
}
