package crawler

import (
	"fmt"
	"time"
)

// Job is one unit of crawl work. Two jobs with the same URL are the same job
// as far as deduplication is concerned; Depth only drives scheduling policy.
type Job struct {
	URL   string
	Depth int
}

// Config is the read-only description of a single crawl run.
type Config struct {
	SeedURL           string
	MaxLinksPerPage   int
	MaxDepth          int
	EnforceUniqueness bool
	NumWorkers        int
}

// Validate checks the invariants a crawl run depends on. Every failure wraps
// ErrInvalidConfig.
func (c Config) Validate() error {
	if c.SeedURL == "" {
		return fmt.Errorf("%w: seed url must be set", ErrInvalidConfig)
	}
	if c.MaxLinksPerPage <= 0 {
		return fmt.Errorf("%w: max links per page must be > 0", ErrInvalidConfig)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("%w: max depth must be >= 0", ErrInvalidConfig)
	}
	if c.NumWorkers <= 0 {
		return fmt.Errorf("%w: number of workers must be > 0", ErrInvalidConfig)
	}
	return nil
}

// FetchResponse is the result of a successful Fetcher call.
type FetchResponse struct {
	URL        string
	StatusCode int
	Body       []byte
	Attempts   int
	Duration   time.Duration
}

// Artifact is the raw body persisted for one processed job. Body is empty when
// every fetch attempt failed.
type Artifact struct {
	Depth int
	URL   string
	Body  []byte
}

// Stats summarizes what a crawl (or a single worker) did.
type Stats struct {
	Pages           int64
	FetchFailures   int64
	PersistFailures int64
	Panics          int64
	LinksEnqueued   int64
	DuplicateLinks  int64
}

// Add folds other into s.
func (s *Stats) Add(other Stats) {
	s.Pages += other.Pages
	s.FetchFailures += other.FetchFailures
	s.PersistFailures += other.PersistFailures
	s.Panics += other.Panics
	s.LinksEnqueued += other.LinksEnqueued
	s.DuplicateLinks += other.DuplicateLinks
}
