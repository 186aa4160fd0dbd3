package backoff

import (
	"math/rand"
	"time"
)

// Strategy defines the interface for backoff calculation algorithms.
// Implementations carry their own parameters; Delay is the whole contract.
type Strategy interface {
	// Delay returns the pause before the retry following the given attempt.
	// Attempt numbering starts at 0 for the first request.
	Delay(attempt int) time.Duration
}

// CappedExponential doubles a base delay per attempt up to a fixed cap,
// with no jitter. With the default parameters the schedule is
// 1s, 2s, 4s, 8s, 16s, 30s, 30s, ...
type CappedExponential struct {
	Base time.Duration
	Cap  time.Duration
}

// Default returns the strategy used when none is configured.
func Default() Strategy {
	return CappedExponential{Base: time.Second, Cap: 30 * time.Second}
}

// Delay implements the Strategy interface for capped exponential backoff.
func (s CappedExponential) Delay(attempt int) time.Duration {
	base := s.Base
	if base <= 0 {
		base = time.Second
	}
	limit := s.Cap
	if limit <= 0 {
		limit = 30 * time.Second
	}

	if attempt < 0 {
		attempt = 0
	}
	// Prevent overflow by limiting attempt
	if attempt > 30 {
		attempt = 30
	}

	delay := time.Duration(float64(base) * pow(2.0, attempt))
	if delay < 0 || delay > limit {
		delay = limit
	}
	return delay
}

// ExponentialJitter implements exponential backoff with uniform jitter.
type ExponentialJitter struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
}

// Delay implements the Strategy interface for exponential backoff with jitter.
func (s ExponentialJitter) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	// Prevent overflow by limiting attempt
	if attempt > 30 {
		attempt = 30
	}

	delay := time.Duration(float64(s.Initial) * pow(s.Multiplier, attempt))
	if delay < 0 || delay > s.Max {
		delay = s.Max
	}

	jitter := clampJitter(s.Jitter)
	if jitter > 0 {
		jitterAmount := time.Duration(float64(delay) * jitter * rand.Float64())
		if delay+jitterAmount > s.Max {
			delay = s.Max
		} else {
			delay += jitterAmount
		}
	}
	return delay
}

// DecorrelatedJitter implements decorrelated jitter as per AWS paper.
// This provides smoother tail latencies compared to exponential jitter.
type DecorrelatedJitter struct {
	Initial time.Duration
	Max     time.Duration
}

// Delay implements the Strategy interface for decorrelated jitter.
func (s DecorrelatedJitter) Delay(attempt int) time.Duration {
	// Decorrelated jitter as per AWS: https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter/
	// Formula: random_between(base, min(cap, base * 3^attempt))

	if attempt <= 0 {
		return s.Initial
	}

	// Prevent overflow by limiting attempt
	if attempt > 10 {
		attempt = 10
	}

	base := float64(s.Initial)
	upper := base * pow(3.0, attempt)

	maxFloat := float64(s.Max)
	if upper > maxFloat || upper < 0 {
		upper = maxFloat
	}
	if upper < base {
		upper = base
	}

	delay := base + rand.Float64()*(upper-base)

	result := time.Duration(delay)
	if result < 0 || result > s.Max {
		result = s.Max
	}

	return result
}

// clampJitter ensures jitter is within valid bounds [0, 1].
func clampJitter(jitter float64) float64 {
	if jitter < 0 {
		return 0
	}
	if jitter > 1 {
		return 1
	}
	return jitter
}

// pow calculates base^exponent using integer exponentiation.
func pow(base float64, exponent int) float64 {
	result := 1.0
	for i := 0; i < exponent; i++ {
		result *= base
	}
	return result
}
