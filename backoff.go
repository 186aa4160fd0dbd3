package httpfactory

import (
	"time"

	internalbackoff "github.com/rajindersingh041/http-factory/internal/backoff"
)

// BackoffStrategy computes the pause between retry attempts. Attempt
// numbering starts at 0 for the first request.
type BackoffStrategy = internalbackoff.Strategy

// NewExponentialBackoff returns a capped exponential schedule without
// jitter: base, 2*base, 4*base, ... up to limit.
func NewExponentialBackoff(base, limit time.Duration) BackoffStrategy {
	return internalbackoff.CappedExponential{Base: base, Cap: limit}
}

// NewExponentialJitterBackoff returns an exponential schedule with uniform
// jitter, spreading out retries from callers that fail in lockstep.
func NewExponentialJitterBackoff(initial, limit time.Duration, multiplier, jitter float64) BackoffStrategy {
	return internalbackoff.ExponentialJitter{
		Initial:    initial,
		Max:        limit,
		Multiplier: multiplier,
		Jitter:     jitter,
	}
}

// NewDecorrelatedJitterBackoff returns the decorrelated jitter schedule
// described in the AWS architecture blog, which smooths tail latencies
// better than plain exponential jitter.
func NewDecorrelatedJitterBackoff(initial, limit time.Duration) BackoffStrategy {
	return internalbackoff.DecorrelatedJitter{Initial: initial, Max: limit}
}
