// Package worker implements the crawl pipeline execution loop.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/JakeFAU/depth-scraper/internal/crawler"
	"github.com/JakeFAU/depth-scraper/internal/metrics"
)

// State is the lifecycle phase a Worker is in.
type State int32

// Worker states. A worker loops Idle -> Fetching -> Persisting ->
// (Extracting -> Enqueueing) -> Idle until the frontier reports no more work.
const (
	StateIdle State = iota
	StateFetching
	StatePersisting
	StateExtracting
	StateEnqueueing
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StatePersisting:
		return "persisting"
	case StateExtracting:
		return "extracting"
	case StateEnqueueing:
		return "enqueueing"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Config controls Worker behavior.
type Config struct {
	Crawl crawler.Config
	// Schedule is only used to describe fetch failures in logs; the Fetcher
	// owns the actual retry loop.
	Schedule crawler.TimeoutSchedule
}

type outstandingReporter interface {
	Outstanding() int
}

// Worker pulls jobs from the shared frontier and runs fetch, persist, extract,
// and enqueue for each one.
type Worker struct {
	index     int
	frontier  crawler.Frontier
	fetcher   crawler.Fetcher
	extractor crawler.LinkExtractor
	store     crawler.ArtifactStore
	seen      crawler.Deduplicator
	cfg       Config
	metrics   *metrics.Collector
	logger    *zap.Logger

	state atomic.Int32

	mu    sync.Mutex
	stats crawler.Stats
}

// New constructs a Worker. seen must be shared by every worker of a crawl and
// is only consulted when cfg.Crawl.EnforceUniqueness is set.
func New(
	index int,
	frontier crawler.Frontier,
	fetcher crawler.Fetcher,
	extractor crawler.LinkExtractor,
	store crawler.ArtifactStore,
	seen crawler.Deduplicator,
	cfg Config,
	m *metrics.Collector,
	logger *zap.Logger,
) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		index:     index,
		frontier:  frontier,
		fetcher:   fetcher,
		extractor: extractor,
		store:     store,
		seen:      seen,
		cfg:       cfg,
		metrics:   m,
		logger:    logger.Named("worker").With(zap.Int("index", index)),
	}
}

// State returns the current lifecycle phase.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Stats returns a snapshot of what this worker has done so far.
func (w *Worker) Stats() crawler.Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Run consumes jobs until the frontier is drained or closed, returning nil, or
// until ctx is done, returning ctx.Err().
func (w *Worker) Run(ctx context.Context) error {
	defer w.setState(StateStopped)
	for {
		w.setState(StateIdle)
		job, ok := w.frontier.Acquire(ctx)
		if !ok {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("worker %d: %w", w.index, err)
			}
			return nil
		}
		w.logger.Debug("acquired job", zap.String("url", job.URL), zap.Int("depth", job.Depth))

		w.metrics.IncActiveWorkers()
		if err := w.safeProcess(ctx, job); err != nil {
			w.logger.Error("job panicked",
				zap.String("url", job.URL),
				zap.Int("depth", job.Depth),
				zap.Error(err),
			)
			w.record(func(s *crawler.Stats) { s.Panics++ })
			w.metrics.ObservePage(job.URL, metrics.StatusPanic, 0)
		}
		w.frontier.Complete(job)
		w.metrics.DecActiveWorkers()
		w.reportOutstanding()
	}
}

func (w *Worker) safeProcess(ctx context.Context, job crawler.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", crawler.ErrJobPanic, r)
		}
	}()
	w.processJob(ctx, job)
	return nil
}

func (w *Worker) processJob(ctx context.Context, job crawler.Job) {
	status := metrics.StatusOK

	w.setState(StateFetching)
	var body []byte
	resp, err := w.fetcher.Fetch(ctx, job.URL)
	fetched := err == nil
	if fetched {
		body = resp.Body
	} else {
		if ctx.Err() != nil {
			// Canceled mid-fetch: nothing was downloaded and nothing may be
			// scheduled, so the job is simply completed.
			return
		}
		w.logger.Warn("fetch failed",
			zap.String("url", job.URL),
			zap.Int("retries", w.cfg.Schedule.Retries),
			zap.Duration("base_timeout", w.cfg.Schedule.Base),
			zap.Error(err),
		)
		w.record(func(s *crawler.Stats) { s.FetchFailures++ })
		status = metrics.StatusFetchFailed
	}

	w.setState(StatePersisting)
	location, err := w.store.PutArtifact(ctx, crawler.Artifact{Depth: job.Depth, URL: job.URL, Body: body})
	if err != nil {
		w.logger.Error("persist artifact failed",
			zap.String("url", job.URL),
			zap.Int("depth", job.Depth),
			zap.Error(err),
		)
		w.record(func(s *crawler.Stats) { s.PersistFailures++ })
		if status == metrics.StatusOK {
			status = metrics.StatusPersistFailed
		}
	} else {
		w.logger.Debug("artifact stored",
			zap.String("url", job.URL),
			zap.Int("depth", job.Depth),
			zap.String("location", location),
		)
	}
	w.record(func(s *crawler.Stats) { s.Pages++ })
	w.metrics.ObservePage(job.URL, status, len(body))

	if !fetched || job.Depth >= w.cfg.Crawl.MaxDepth {
		return
	}

	w.setState(StateExtracting)
	links, err := w.extractor.ExtractLinks(job.URL, body)
	if err != nil {
		w.logger.Warn("link extraction failed", zap.String("url", job.URL), zap.Error(err))
		return
	}

	w.setState(StateEnqueueing)
	w.enqueueLinks(ctx, job, links)
}

// enqueueLinks submits children in document order until MaxLinksPerPage have
// been accepted. Links rejected as duplicates do not count toward the cap.
func (w *Worker) enqueueLinks(ctx context.Context, parent crawler.Job, links []string) {
	var accepted, duplicates int
	for _, link := range links {
		if accepted >= w.cfg.Crawl.MaxLinksPerPage || ctx.Err() != nil {
			break
		}
		if w.cfg.Crawl.EnforceUniqueness && !w.seen.CheckAndAdd(link) {
			duplicates++
			continue
		}
		child := crawler.Job{URL: link, Depth: parent.Depth + 1}
		if err := w.frontier.Submit(child); err != nil {
			w.logger.Debug("submit rejected", zap.String("url", link), zap.Error(err))
			break
		}
		accepted++
	}
	w.record(func(s *crawler.Stats) {
		s.LinksEnqueued += int64(accepted)
		s.DuplicateLinks += int64(duplicates)
	})
	w.metrics.ObserveLinks(accepted, duplicates)
	w.logger.Debug("links enqueued",
		zap.String("url", parent.URL),
		zap.Int("depth", parent.Depth),
		zap.Int("found", len(links)),
		zap.Int("accepted", accepted),
		zap.Int("duplicates", duplicates),
	)
}

func (w *Worker) record(update func(*crawler.Stats)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	update(&w.stats)
}

func (w *Worker) setState(s State) {
	w.state.Store(int32(s))
}

func (w *Worker) reportOutstanding() {
	if r, ok := w.frontier.(outstandingReporter); ok {
		w.metrics.SetOutstanding(r.Outstanding())
	}
}
