// Package dispatcher seeds the frontier and fans crawl work out to a pool of
// workers.
package dispatcher

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/depth-scraper/internal/crawler"
	"github.com/JakeFAU/depth-scraper/internal/worker"
)

// Dispatcher runs one crawl: it prepares the output tree, seeds the frontier,
// and blocks until every worker has stopped.
type Dispatcher struct {
	cfg      crawler.Config
	frontier crawler.Frontier
	seen     crawler.Deduplicator
	preparer crawler.DepthPreparer
	workers  []*worker.Worker
	logger   *zap.Logger
}

// New creates a Dispatcher. preparer may be nil when the store needs no setup.
func New(
	cfg crawler.Config,
	frontier crawler.Frontier,
	seen crawler.Deduplicator,
	preparer crawler.DepthPreparer,
	workers []*worker.Worker,
	logger *zap.Logger,
) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		cfg:      cfg,
		frontier: frontier,
		seen:     seen,
		preparer: preparer,
		workers:  workers,
		logger:   logger.Named("dispatcher"),
	}
}

// Run starts all workers and blocks until the frontier drains or ctx ends, then
// closes the frontier. The
// returned Stats sum every worker's counters even when ctx interrupted the
// crawl, in which case the error wraps ctx.Err().
func (d *Dispatcher) Run(ctx context.Context) (crawler.Stats, error) {
	if err := d.cfg.Validate(); err != nil {
		return crawler.Stats{}, err
	}
	if len(d.workers) != d.cfg.NumWorkers {
		return crawler.Stats{}, fmt.Errorf("%w: expected %d workers, got %d",
			crawler.ErrInvalidConfig, d.cfg.NumWorkers, len(d.workers))
	}
	if d.cfg.EnforceUniqueness && d.seen == nil {
		return crawler.Stats{}, fmt.Errorf("%w: uniqueness requires a deduplicator", crawler.ErrInvalidConfig)
	}

	if d.preparer != nil {
		if err := d.preparer.PrepareDepths(d.cfg.MaxDepth); err != nil {
			// Individual writes will fail and be logged; the crawl still runs.
			d.logger.Error("prepare output directories failed",
				zap.Int("max_depth", d.cfg.MaxDepth),
				zap.Error(err),
			)
		}
	}

	seed := crawler.Job{URL: d.cfg.SeedURL, Depth: 0}
	if d.cfg.EnforceUniqueness {
		d.seen.CheckAndAdd(seed.URL)
	}
	if err := d.frontier.Submit(seed); err != nil {
		return crawler.Stats{}, fmt.Errorf("submit seed: %w", err)
	}

	d.logger.Info("crawl started",
		zap.String("url", seed.URL),
		zap.Int("max_depth", d.cfg.MaxDepth),
		zap.Int("max_links_per_page", d.cfg.MaxLinksPerPage),
		zap.Bool("unique", d.cfg.EnforceUniqueness),
		zap.Int("workers", len(d.workers)),
	)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range d.workers {
		g.Go(func() error {
			return w.Run(gctx)
		})
	}
	err := g.Wait()
	d.frontier.Close()

	var stats crawler.Stats
	for _, w := range d.workers {
		stats.Add(w.Stats())
	}
	d.logger.Info("crawl finished",
		zap.Int64("pages", stats.Pages),
		zap.Int64("fetch_failures", stats.FetchFailures),
		zap.Int64("persist_failures", stats.PersistFailures),
		zap.Int64("panics", stats.Panics),
		zap.Int64("links_enqueued", stats.LinksEnqueued),
		zap.Int64("duplicate_links", stats.DuplicateLinks),
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("interrupted", err != nil),
	)
	if err != nil {
		return stats, fmt.Errorf("crawl interrupted: %w", err)
	}
	return stats, nil
}
