package domain

// BreakerState is the circuit breaker's current position.
type BreakerState int

const (
	// StateClosed passes calls through and counts consecutive failures.
	StateClosed BreakerState = iota
	// StateOpen fails fast without calling the backend.
	StateOpen
	// StateHalfOpen lets probe calls through to test recovery.
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}
