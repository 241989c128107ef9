package engine

import (
	"sync"
	"time"
)

// rateWindow is the trailing admission window.
const rateWindow = time.Minute

// emptyWindowWait is returned by WaitTime when the window is unexpectedly
// empty (denied with nothing admitted), so callers still back off briefly.
const emptyWindowWait = time.Second

// RateLimiter admits requests against a sliding one-minute window for one
// endpoint. A slot is claimed atomically by Reserve and given back by
// Release when the dispatch does not complete, so only completed dispatches
// persist in the window and denials leave no trace.
type RateLimiter struct {
	mu     sync.Mutex
	limit  int
	window []time.Time

	Clock func() time.Time
}

// NewRateLimiter builds a limiter allowing perMinute admissions per trailing
// minute.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	return &RateLimiter{limit: perMinute}
}

// Reserve claims one admission slot under a single lock acquisition,
// recording the timestamp. It returns false when the window is full;
// concurrent callers can never over-admit.
func (r *RateLimiter) Reserve() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.prune(now)
	if len(r.window) >= r.limit {
		return false
	}
	r.window = append(r.window, now)
	return true
}

// Release drops the newest reservation after a dispatch that did not
// complete. Concurrent reservations carry near-identical timestamps, so
// dropping the newest stands in for dropping the caller's own.
func (r *RateLimiter) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n := len(r.window); n > 0 {
		r.window = r.window[:n-1]
	}
}

// WaitTime returns how long until the oldest admission leaves the window.
func (r *RateLimiter) WaitTime() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.prune(now)
	if len(r.window) == 0 {
		return emptyWindowWait
	}

	wait := r.window[0].Add(rateWindow).Sub(now)
	if wait < 0 {
		wait = 0
	}
	return wait
}

// Limit returns the configured admissions per minute.
func (r *RateLimiter) Limit() int {
	return r.limit
}

// InWindow returns the number of admissions currently inside the window.
func (r *RateLimiter) InWindow() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prune(r.now())
	return len(r.window)
}

// prune drops timestamps older than the trailing window. Callers hold the
// mutex.
func (r *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-rateWindow)
	idx := 0
	for idx < len(r.window) && !r.window[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		r.window = append(r.window[:0], r.window[idx:]...)
	}
}

func (r *RateLimiter) now() time.Time {
	if r != nil && r.Clock != nil {
		return r.Clock()
	}
	return time.Now().UTC()
}
