// Package ratelimit implements a token bucket rate limiter shared by every
// fetch attempt of a crawl.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Config holds rate limiter configuration.
type Config struct {
	// RPS is the sustained request rate. Zero or negative disables limiting.
	RPS float64
	// Burst defaults to max(1, int(RPS)).
	Burst int
}

// Limiter throttles requests globally, across all hosts.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a Limiter, or returns nil when cfg disables limiting. A nil
// *Limiter never blocks.
func New(cfg Config) *Limiter {
	if cfg.RPS <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = int(cfg.RPS)
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(cfg.RPS), burst)}
}

// Wait blocks until a token is available, respecting the context. It returns
// how long the caller was held back.
func (l *Limiter) Wait(ctx context.Context) (time.Duration, error) {
	if l == nil {
		return 0, nil
	}
	start := time.Now()
	if err := l.limiter.Wait(ctx); err != nil {
		return time.Since(start), fmt.Errorf("rate limit wait: %w", err)
	}
	return time.Since(start), nil
}

// Burst reports the bucket size.
func (l *Limiter) Burst() int {
	if l == nil {
		return 0
	}
	return l.limiter.Burst()
}
