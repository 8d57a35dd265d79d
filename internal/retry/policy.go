// Package retry provides a fixed-delay retry policy decoupled from what is being retried.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy retries an attempt up to MaxAttempts times with a fixed Delay between tries.
type Policy struct {
	// MaxAttempts includes the first attempt; values below 1 mean a single attempt.
	MaxAttempts int
	// Delay is slept between attempts, never after the last one.
	Delay time.Duration
}

// Fixed builds a policy from a retry count (attempts = retries + 1).
func Fixed(retries int, delay time.Duration) Policy {
	if retries < 0 {
		retries = 0
	}
	return Policy{MaxAttempts: retries + 1, Delay: delay}
}

// Attempt runs try number n (1-based) and reports whether the operation is done.
type Attempt func(ctx context.Context, n int) bool

// Do runs attempt until it reports done or attempts run out.
// It returns the number of attempts made and whether the last one finished the operation.
// The only error is context cancellation during a delay.
func (p Policy) Do(ctx context.Context, attempt Attempt) (int, bool, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for n := 1; n <= maxAttempts; n++ {
		if attempt(ctx, n) {
			return n, true, nil
		}
		if n == maxAttempts {
			return n, false, nil
		}
		if err := p.wait(ctx); err != nil {
			return n, false, fmt.Errorf("retry wait after attempt %d: %w", n, err)
		}
	}

	return maxAttempts, false, nil
}

func (p Policy) wait(ctx context.Context) error {
	if p.Delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(p.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
