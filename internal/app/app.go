// Package app initializes and holds long-lived application services, acting as
// a dependency injection container for a crawl run.
package app

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"go.uber.org/zap"

	"github.com/JakeFAU/depth-scraper/internal/config"
	"github.com/JakeFAU/depth-scraper/internal/crawler"
	"github.com/JakeFAU/depth-scraper/internal/dispatcher"
	collyfetcher "github.com/JakeFAU/depth-scraper/internal/fetcher/colly"
	"github.com/JakeFAU/depth-scraper/internal/id/uuid"
	"github.com/JakeFAU/depth-scraper/internal/logging"
	"github.com/JakeFAU/depth-scraper/internal/metrics"
	queuememory "github.com/JakeFAU/depth-scraper/internal/queue/memory"
	"github.com/JakeFAU/depth-scraper/internal/storage/local"
	storagememory "github.com/JakeFAU/depth-scraper/internal/storage/memory"
	"github.com/JakeFAU/depth-scraper/internal/worker"
)

// App holds the shared services for one process: configuration, the logger,
// and the metrics registry.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	metrics *metrics.Collector
	runID   string
}

// New builds the logger and metrics registry described by cfg and tags every
// log line with a fresh run ID.
func New(cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	runID, err := uuid.New().NewID()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	return &App{
		cfg:     cfg,
		logger:  logger.With(zap.String("run_id", runID)),
		metrics: metrics.New(),
		runID:   runID,
	}, nil
}

// GetLogger returns the run-scoped logger.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// RunID identifies this process in logs.
func (a *App) RunID() string {
	return a.runID
}

// Workers returns the configured worker pool size.
func (a *App) Workers() int {
	return a.cfg.Crawler.Workers
}

// Crawl wires the fetcher, frontier, deduplicator, artifact store, and worker
// pool for crawlCfg, then blocks until the crawl drains or ctx ends.
func (a *App) Crawl(ctx context.Context, crawlCfg crawler.Config) (crawler.Stats, error) {
	if err := crawlCfg.Validate(); err != nil {
		return crawler.Stats{}, err
	}
	store, err := a.newStore()
	if err != nil {
		return crawler.Stats{}, err
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:         a.cfg.Crawler.UserAgent,
		Retries:           a.cfg.Crawler.Retries,
		BaseTimeout:       a.cfg.Crawler.BaseTimeout,
		MaxBodyBytes:      a.cfg.Crawler.MaxBodyBytes,
		RequestsPerSecond: a.cfg.Crawler.MaxRequestsPerSecond,
	}, a.metrics, a.logger)

	frontier := queuememory.NewFrontier()
	var seen crawler.Deduplicator
	if crawlCfg.EnforceUniqueness {
		seen = crawler.NewSeenSet()
	}
	extractor := crawler.NewLinkProcessor(crawler.IsValidURL)
	workerCfg := worker.Config{Crawl: crawlCfg, Schedule: fetcher.Schedule()}

	workers := make([]*worker.Worker, crawlCfg.NumWorkers)
	for i := range workers {
		workers[i] = worker.New(i, frontier, fetcher, extractor, store, seen, workerCfg, a.metrics, a.logger)
	}

	return dispatcher.New(crawlCfg, frontier, seen, store, workers, a.logger).Run(ctx)
}

// artifactStore is what the workers and dispatcher need from a backend.
type artifactStore interface {
	crawler.ArtifactStore
	crawler.DepthPreparer
}

// newStore selects the backend named by crawler.storage. The memory backend
// writes nothing to disk.
func (a *App) newStore() (artifactStore, error) {
	if a.cfg.Crawler.Storage == config.StorageMemory {
		return storagememory.NewArtifactStore(), nil
	}
	store, err := local.New(local.Config{BaseDir: a.cfg.Crawler.OutputDir})
	if err != nil {
		return nil, fmt.Errorf("%w: crawler.output_dir: %w", crawler.ErrInvalidConfig, err)
	}
	return store, nil
}

// Close flushes the metrics textfile and the logger.
func (a *App) Close() error {
	var errs []error
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.logger.Warn("write metrics textfile failed", zap.Error(err))
		errs = append(errs, err)
	}
	// Syncing a console logger fails with EINVAL/ENOTTY on terminals and pipes.
	if err := a.logger.Sync(); err != nil && !errors.Is(err, syscall.EINVAL) && !errors.Is(err, syscall.ENOTTY) {
		errs = append(errs, fmt.Errorf("sync logger: %w", err))
	}
	return errors.Join(errs...)
}
