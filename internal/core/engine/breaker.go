package engine

import (
	"sync"
	"time"
)

// BreakerState is one of the three circuit breaker states.
type BreakerState string

const (
	BreakerClosed   BreakerState = "closed"
	BreakerOpen     BreakerState = "open"
	BreakerHalfOpen BreakerState = "half_open"
)

// CircuitBreaker is a fail-fast gate in front of one endpoint.
//
// It does not wrap the call itself; the router asks Allow before dispatching
// and reports the outcome with OnSuccess/OnFailure. Retrying against other
// endpoints is the router's concern.
type CircuitBreaker struct {
	mu          sync.Mutex
	state       BreakerState
	failures    int
	threshold   int
	recovery    time.Duration
	lastFailure time.Time

	Clock func() time.Time
}

// NewCircuitBreaker builds a closed breaker with the given consecutive
// failure threshold and recovery timeout.
func NewCircuitBreaker(threshold int, recovery time.Duration) *CircuitBreaker {
	if threshold < 1 {
		threshold = 1
	}
	if recovery <= 0 {
		recovery = 60 * time.Second
	}
	return &CircuitBreaker{
		state:     BreakerClosed,
		threshold: threshold,
		recovery:  recovery,
	}
}

// Allow reports whether a call may proceed now. While open, the first Allow
// after the recovery timeout elapses moves the breaker to half-open and is
// the trial call; further calls are rejected until the trial resolves.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		if b.now().Sub(b.lastFailure) >= b.recovery {
			b.state = BreakerHalfOpen
			return true
		}
		return false
	case BreakerHalfOpen:
		// Trial call still in flight.
		return false
	default:
		return true
	}
}

// OnSuccess records a successful call, closing the breaker and resetting
// the failure counter.
func (b *CircuitBreaker) OnSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.state = BreakerClosed
}

// OnFailure records a failed call. A failed trial reopens the breaker and
// restarts the recovery timer; while closed, reaching the threshold opens it.
func (b *CircuitBreaker) OnFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailure = b.now()

	if b.state == BreakerHalfOpen {
		b.state = BreakerOpen
		return
	}

	b.failures++
	if b.failures >= b.threshold {
		b.state = BreakerOpen
	}
}

// Release returns an unresolved half-open trial to the open state, for
// callers that consumed the trial via Allow but never dispatched (rate-limit
// skip, cancelled wait). The recovery timer is not restarted, so the next
// Allow may start a fresh trial immediately.
func (b *CircuitBreaker) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerHalfOpen {
		b.state = BreakerOpen
	}
}

// State returns the current breaker state.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the current consecutive failure count.
func (b *CircuitBreaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

func (b *CircuitBreaker) now() time.Time {
	if b != nil && b.Clock != nil {
		return b.Clock()
	}
	return time.Now().UTC()
}
