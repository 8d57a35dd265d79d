package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"NewsFetcher/internal/ports"
)

// Limiter enforces a minimum spacing between outbound requests.
// A single instance is shared by every fetch of one engine and is safe for concurrent use.
type Limiter struct {
	limiter  *rate.Limiter
	minDelay time.Duration
}

var _ ports.RateLimiter = (*Limiter)(nil)

// New builds a limiter; minDelay <= 0 disables spacing.
func New(minDelay time.Duration) *Limiter {
	limit := rate.Inf
	if minDelay > 0 {
		limit = rate.Every(minDelay)
	}
	return &Limiter{
		limiter:  rate.NewLimiter(limit, 1),
		minDelay: minDelay,
	}
}

// Acquire blocks until minDelay has passed since the previous Acquire returned.
// It only fails when ctx is done first.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// MinDelay returns the configured spacing.
func (l *Limiter) MinDelay() time.Duration {
	return l.minDelay
}
