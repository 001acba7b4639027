package crawler

import (
	"fmt"
	"time"
)

// Fetch defaults used when configuration leaves them unset.
const (
	DefaultRetries     = 5
	DefaultBaseTimeout = time.Second
)

// TimeoutSchedule derives the per-attempt request timeout. Attempt i waits
// Base + Base/(i+1), so early attempts get the most slack and the timeout
// converges on Base.
type TimeoutSchedule struct {
	Base    time.Duration
	Retries int
}

// NewTimeoutSchedule builds a schedule, substituting defaults for non-positive
// values.
func NewTimeoutSchedule(base time.Duration, retries int) TimeoutSchedule {
	if base <= 0 {
		base = DefaultBaseTimeout
	}
	if retries <= 0 {
		retries = DefaultRetries
	}
	return TimeoutSchedule{Base: base, Retries: retries}
}

// Timeout returns the timeout for the zero-based attempt.
func (s TimeoutSchedule) Timeout(attempt int) (time.Duration, error) {
	if attempt < 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidAttempt, attempt)
	}
	return s.Base + s.Base/time.Duration(attempt+1), nil
}
