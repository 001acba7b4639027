package crawler

import "errors"

var (
	// ErrInvalidConfig marks configuration and argument errors. It is the only
	// error class that aborts a run.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrFetchFailed is returned once a Fetcher has exhausted its attempts.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrPersist wraps failures to create output directories or write artifacts.
	ErrPersist = errors.New("persist artifact")
	// ErrJobPanic wraps a panic recovered while a worker processed a job.
	ErrJobPanic = errors.New("job panicked")
	// ErrInvalidAttempt is returned for negative attempt indexes.
	ErrInvalidAttempt = errors.New("attempt must be a non-negative integer")
	// ErrFrontierClosed is returned when submitting to a drained or closed frontier.
	ErrFrontierClosed = errors.New("frontier closed")
)
