package crawler

import "context"

// Fetcher downloads a URL. Implementations own their retry policy and return an
// error wrapping ErrFetchFailed once it is exhausted.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (FetchResponse, error)
}

// LinkExtractor returns the absolute, valid outbound links of a page in
// document order. Duplicates are preserved.
type LinkExtractor interface {
	ExtractLinks(baseURL string, html []byte) ([]string, error)
}

// ArtifactStore persists fetched bodies and returns where they were written.
type ArtifactStore interface {
	PutArtifact(ctx context.Context, artifact Artifact) (string, error)
}

// DepthPreparer creates the per-depth output locations before a crawl starts.
type DepthPreparer interface {
	PrepareDepths(maxDepth int) error
}

// Frontier is the shared queue of pending jobs plus its outstanding-job
// accounting.
type Frontier interface {
	// Submit queues job and counts it as outstanding.
	Submit(job Job) error
	// Acquire blocks until a job is available. It returns false once no job is
	// outstanding, the frontier was closed, or ctx is done.
	Acquire(ctx context.Context) (Job, bool)
	// Complete marks a previously acquired job as fully processed.
	Complete(job Job)
	// Close wakes every waiter and rejects further submissions.
	Close()
}

// Deduplicator records URLs that were already scheduled.
type Deduplicator interface {
	// CheckAndAdd reports whether url was new, adding it in the same critical
	// section.
	CheckAndAdd(url string) bool
}

// URLValidator classifies a string as a valid absolute URL.
type URLValidator func(raw string) bool
