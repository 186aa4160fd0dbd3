package httpfactory

import (
	"context"
	"time"
)

// RateLimiter enforces a minimum interval between outgoing requests so the
// client sustains at most ratePerSecond requests. Acquire blocks until the
// caller's turn arrives. A single slot channel serializes admissions, so
// the interval bookkeeping needs no extra lock; last is only touched while
// the slot is held.
type RateLimiter struct {
	minInterval time.Duration
	slot        chan struct{}
	last        time.Time
}

// NewRateLimiter creates a rate limiter admitting ratePerSecond requests.
// A rate of zero or less disables limiting.
func NewRateLimiter(ratePerSecond float64) *RateLimiter {
	rl := &RateLimiter{
		slot: make(chan struct{}, 1),
	}
	if ratePerSecond > 0 {
		rl.minInterval = time.Duration(float64(time.Second) / ratePerSecond)
	}
	return rl
}

// Acquire blocks until the minimum interval since the previous admission
// has elapsed, then records the admission. It returns early with ctx.Err()
// if the context is canceled while waiting, leaving the schedule untouched
// for the next caller.
func (rl *RateLimiter) Acquire(ctx context.Context) error {
	if rl == nil || rl.minInterval <= 0 {
		return nil
	}

	select {
	case rl.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-rl.slot }()

	wait := rl.minInterval - time.Since(rl.last)
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	rl.last = time.Now()
	return nil
}
