package engine

import (
	"sync"
	"time"

	"github.com/bizlens/bizlens/internal/core"
)

// EndpointRuntime holds the mutable per-endpoint counters. It is updated
// only after a dispatch completes; cached responses never touch it.
type EndpointRuntime struct {
	mu          sync.Mutex
	requests    int64
	successes   int64
	failures    int64
	avgLatency  time.Duration
	lastRequest time.Time
	health      core.HealthState
	cost        float64

	Clock func() time.Time
}

// NewEndpointRuntime returns a zeroed runtime record in the healthy state.
func NewEndpointRuntime() *EndpointRuntime {
	return &EndpointRuntime{health: core.HealthHealthy}
}

// RecordSuccess folds a successful dispatch into the counters.
func (r *EndpointRuntime) RecordSuccess(latency time.Duration, cost float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.requests++
	r.successes++
	r.record(latency, cost)
	r.health = core.HealthHealthy
}

// RecordFailure folds a failed dispatch into the counters.
func (r *EndpointRuntime) RecordFailure(latency time.Duration, cost float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.requests++
	r.failures++
	r.record(latency, cost)
	r.health = core.HealthDegraded
}

// SetHealth overrides the health state, used for breaker-open and
// rate-limited conditions observed outside a dispatch.
func (r *EndpointRuntime) SetHealth(state core.HealthState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.health = state
}

// Snapshot returns a consistent copy of the counters.
func (r *EndpointRuntime) Snapshot() core.EndpointMetrics {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := core.EndpointMetrics{
		Requests:      r.requests,
		Successes:     r.successes,
		Failures:      r.failures,
		AvgLatency:    r.avgLatency,
		LastRequestAt: r.lastRequest,
		Health:        r.health,
		Cost:          r.cost,
	}
	if r.requests > 0 {
		m.SuccessRate = float64(r.successes) / float64(r.requests)
	}
	return m
}

// record updates the rolling average latency and bookkeeping shared by both
// outcomes. Callers hold the mutex.
func (r *EndpointRuntime) record(latency time.Duration, cost float64) {
	r.avgLatency += (latency - r.avgLatency) / time.Duration(r.requests)
	r.lastRequest = r.now()
	r.cost += cost
}

func (r *EndpointRuntime) now() time.Time {
	if r != nil && r.Clock != nil {
		return r.Clock()
	}
	return time.Now().UTC()
}
