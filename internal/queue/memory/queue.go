// Package memory provides the in-process crawl frontier.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/depth-scraper/internal/crawler"
)

// Frontier is an unbounded FIFO of crawl jobs paired with an outstanding-job
// count. A job is outstanding from Submit until the matching Complete, so the
// count covers both queued jobs and jobs a worker is processing. Queue and
// count are always mutated under the same lock.
type Frontier struct {
	mu          sync.Mutex
	jobs        []crawler.Job
	outstanding int
	drained     bool
	closed      bool
	// changed is closed and replaced on every state change to wake waiters.
	changed chan struct{}
}

// NewFrontier returns an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{changed: make(chan struct{})}
}

// Submit appends job and counts it as outstanding. Once the outstanding count
// has returned to zero the frontier is drained for good and Submit fails.
func (f *Frontier) Submit(job crawler.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.drained {
		return fmt.Errorf("submit %s: %w", job.URL, crawler.ErrFrontierClosed)
	}
	f.jobs = append(f.jobs, job)
	f.outstanding++
	f.broadcastLocked()
	return nil
}

// Acquire pops the oldest job, blocking while the queue is empty but jobs are
// still outstanding. It returns false when the frontier is drained or closed,
// or when ctx ends first.
func (f *Frontier) Acquire(ctx context.Context) (crawler.Job, bool) {
	for {
		if ctx.Err() != nil {
			return crawler.Job{}, false
		}
		f.mu.Lock()
		if f.closed {
			f.mu.Unlock()
			return crawler.Job{}, false
		}
		if len(f.jobs) > 0 {
			job := f.jobs[0]
			f.jobs[0] = crawler.Job{}
			f.jobs = f.jobs[1:]
			f.mu.Unlock()
			return job, true
		}
		if f.outstanding == 0 {
			f.mu.Unlock()
			return crawler.Job{}, false
		}
		wait := f.changed
		f.mu.Unlock()

		select {
		case <-ctx.Done():
			return crawler.Job{}, false
		case <-wait:
		}
	}
}

// Complete retires one outstanding job. When the count reaches zero every
// blocked and future Acquire returns false.
func (f *Frontier) Complete(_ crawler.Job) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.outstanding == 0 {
		return
	}
	f.outstanding--
	if f.outstanding == 0 {
		f.drained = true
	}
	f.broadcastLocked()
}

// Outstanding returns the number of queued plus in-progress jobs.
func (f *Frontier) Outstanding() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outstanding
}

// Len returns the number of jobs waiting in the queue.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

// Close wakes every waiter and makes the frontier reject further work.
func (f *Frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.broadcastLocked()
}

func (f *Frontier) broadcastLocked() {
	close(f.changed)
	f.changed = make(chan struct{})
}
