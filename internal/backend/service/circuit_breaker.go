// Package service implements resilient execution against the backend API:
// a circuit breaker, a retry core, and an executor combining the API path
// with a local cache path under configurable fallback strategies.
package service

import (
	"sync"
	"time"

	backendDomain "github.com/allisson/factorauth/internal/backend/domain"
)

// CircuitBreaker tracks consecutive failures and fails fast while the
// backend is considered down. All state transitions happen under a single
// mutex: Allow, RecordSuccess and RecordFailure each take the lock once,
// so concurrent callers always observe a consistent state.
type CircuitBreaker struct {
	mu sync.Mutex

	state            backendDomain.BreakerState
	failureCount     int
	probeSuccesses   int
	probeInFlight    bool
	openedAt         time.Time
	threshold        int
	timeout          time.Duration
	successThreshold int

	// now is swapped in tests.
	now func() time.Time
}

// NewCircuitBreaker creates a breaker that opens after threshold consecutive
// failures, probes again after timeout, and closes after successThreshold
// consecutive probe successes.
func NewCircuitBreaker(threshold int, timeout time.Duration, successThreshold int) *CircuitBreaker {
	if threshold < 1 {
		threshold = 1
	}
	if successThreshold < 1 {
		successThreshold = 1
	}
	return &CircuitBreaker{
		state:            backendDomain.StateClosed,
		threshold:        threshold,
		timeout:          timeout,
		successThreshold: successThreshold,
		now:              time.Now,
	}
}

// Allow reports whether a call may proceed. While open, the first caller
// after the timeout flips the breaker to half-open and is admitted as a
// probe. Half-open admits one probe at a time: further callers are rejected
// until RecordSuccess or RecordFailure settles the in-flight probe.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case backendDomain.StateClosed:
		return true
	case backendDomain.StateHalfOpen:
		if cb.probeInFlight {
			return false
		}
		cb.probeInFlight = true
		return true
	case backendDomain.StateOpen:
		if cb.now().Sub(cb.openedAt) >= cb.timeout {
			cb.state = backendDomain.StateHalfOpen
			cb.probeSuccesses = 0
			cb.probeInFlight = true
			return true
		}
		return false
	default:
		return false
	}
}

// RecordSuccess feeds a successful call into the breaker.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case backendDomain.StateClosed:
		cb.failureCount = 0
	case backendDomain.StateHalfOpen:
		cb.probeInFlight = false
		cb.probeSuccesses++
		if cb.probeSuccesses >= cb.successThreshold {
			cb.state = backendDomain.StateClosed
			cb.failureCount = 0
			cb.probeSuccesses = 0
		}
	}
}

// RecordFailure feeds a failed call into the breaker. A failure during a
// half-open probe reopens immediately and restarts the timeout.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case backendDomain.StateClosed:
		cb.failureCount++
		if cb.failureCount >= cb.threshold {
			cb.open()
		}
	case backendDomain.StateHalfOpen:
		cb.open()
	}
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() backendDomain.BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset forces the breaker back to closed with cleared counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = backendDomain.StateClosed
	cb.failureCount = 0
	cb.probeSuccesses = 0
	cb.probeInFlight = false
}

func (cb *CircuitBreaker) open() {
	cb.state = backendDomain.StateOpen
	cb.openedAt = cb.now()
	cb.failureCount = 0
	cb.probeSuccesses = 0
	cb.probeInFlight = false
}
