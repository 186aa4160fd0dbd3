package httpfactory

import (
	"sync"
	"time"
)

// CircuitState represents the current state of the circuit breaker.
type CircuitState int

const (
	// StateClosed means requests flow normally.
	StateClosed CircuitState = iota
	// StateOpen means requests are rejected until the recovery timeout elapses.
	StateOpen
	// StateHalfOpen means probe requests are admitted to test recovery.
	StateHalfOpen
)

// String returns a human-readable state name.
func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures failure detection and recovery.
// Zero values take the defaults of 5 failures and a 60 second recovery
// timeout.
type CircuitBreakerConfig struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
}

// CircuitBreaker stops traffic to an endpoint that keeps failing. It moves
// from Closed to Open after FailureThreshold consecutive failures, rejects
// requests while Open, and admits a probe once RecoveryTimeout has elapsed
// since the last failure. The mutex guards only state transitions and is
// never held across a request.
type CircuitBreaker struct {
	mu          sync.Mutex
	config      CircuitBreakerConfig
	state       CircuitState
	failures    int
	lastFailure time.Time
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout == 0 {
		config.RecoveryTimeout = 60 * time.Second
	}

	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
	}
}

// Allow reports whether a request may proceed. While Open it returns a
// *CircuitOpenError carrying the remaining cooldown; once the recovery
// timeout has elapsed it transitions to HalfOpen and admits the request as
// a probe. Several goroutines may be admitted in HalfOpen before an outcome
// lands; the first recorded outcome decides the next state. A nil breaker
// admits everything.
func (cb *CircuitBreaker) Allow() error {
	if cb == nil {
		return nil
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed, StateHalfOpen:
		return nil
	case StateOpen:
		remaining := cb.config.RecoveryTimeout - time.Since(cb.lastFailure)
		if remaining > 0 {
			return &CircuitOpenError{Remaining: remaining}
		}
		cb.state = StateHalfOpen
		return nil
	default:
		return &CircuitOpenError{}
	}
}

// RecordSuccess records a successful outcome. In HalfOpen the probe result
// closes the circuit; in Closed it resets the failure count. A success
// arriving while Open is ignored, it belongs to a request admitted before
// the circuit tripped.
func (cb *CircuitBreaker) RecordSuccess() {
	if cb == nil {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.state = StateClosed
		cb.failures = 0
	case StateOpen:
	}
}

// RecordFailure records a failed outcome. In Closed it opens the circuit
// once the failure threshold is reached; in HalfOpen the failed probe
// reopens it and the cooldown restarts.
func (cb *CircuitBreaker) RecordFailure() {
	if cb == nil {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailure = time.Now()

	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.config.FailureThreshold {
			cb.state = StateOpen
		}
	case StateHalfOpen:
		cb.state = StateOpen
	case StateOpen:
	}
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	if cb == nil {
		return StateClosed
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
