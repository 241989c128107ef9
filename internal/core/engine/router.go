package engine

import (
	"sort"

	"go.uber.org/zap"

	"github.com/bizlens/bizlens/internal/core"
)

// Router owns the endpoint registries for every logical service: the
// configured endpoints plus one breaker, one rate limiter, and one runtime
// record per endpoint. Registries are built once at construction; only the
// per-endpoint state behind them mutates afterwards.
type Router struct {
	services map[string][]core.Endpoint
	breakers map[string]*CircuitBreaker
	limiters map[string]*RateLimiter
	runtimes map[string]*EndpointRuntime
	weights  ScoreWeights
	logger   *zap.Logger
}

// NewRouter builds a router for the given service endpoint lists.
func NewRouter(services map[string][]core.Endpoint, weights ScoreWeights, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Router{
		services: make(map[string][]core.Endpoint, len(services)),
		breakers: make(map[string]*CircuitBreaker),
		limiters: make(map[string]*RateLimiter),
		runtimes: make(map[string]*EndpointRuntime),
		weights:  weights,
		logger:   logger,
	}

	for service, endpoints := range services {
		list := make([]core.Endpoint, 0, len(endpoints))
		for _, ep := range endpoints {
			ep.Service = service
			key := ep.Key()
			if _, exists := r.breakers[key]; exists {
				logger.Warn("duplicate endpoint skipped",
					zap.String("service", service),
					zap.String("endpoint", ep.Name))
				continue
			}
			r.breakers[key] = NewCircuitBreaker(ep.BreakerThreshold, ep.BreakerRecovery)
			r.limiters[key] = NewRateLimiter(ep.RequestsPerMinute)
			r.runtimes[key] = NewEndpointRuntime()
			list = append(list, ep)
		}
		r.services[service] = list
	}

	return r
}

// Candidates returns the endpoints for a service ordered by priority
// ascending, then current health score descending.
func (r *Router) Candidates(service string) []core.Endpoint {
	if r == nil {
		return nil
	}

	endpoints := r.services[service]
	if len(endpoints) == 0 {
		return nil
	}

	candidates := make([]core.Endpoint, len(endpoints))
	copy(candidates, endpoints)

	scores := make(map[string]float64, len(candidates))
	for _, ep := range candidates {
		scores[ep.Key()] = r.Score(ep)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority < candidates[j].Priority
		}
		return scores[candidates[i].Key()] > scores[candidates[j].Key()]
	})

	return candidates
}

// Score computes the current health score of an endpoint.
func (r *Router) Score(ep core.Endpoint) float64 {
	runtime := r.runtimes[ep.Key()]
	breaker := r.breakers[ep.Key()]
	if runtime == nil || breaker == nil {
		return 0
	}
	return r.weights.Score(runtime.Snapshot(), breaker.State() == BreakerOpen)
}

// Breaker returns the breaker registered for an endpoint.
func (r *Router) Breaker(ep core.Endpoint) *CircuitBreaker {
	return r.breakers[ep.Key()]
}

// Limiter returns the rate limiter registered for an endpoint.
func (r *Router) Limiter(ep core.Endpoint) *RateLimiter {
	return r.limiters[ep.Key()]
}

// Runtime returns the runtime record registered for an endpoint.
func (r *Router) Runtime(ep core.Endpoint) *EndpointRuntime {
	return r.runtimes[ep.Key()]
}

// Services returns the configured service names in sorted order.
func (r *Router) Services() []string {
	names := make([]string, 0, len(r.services))
	for name := range r.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Status assembles per-endpoint metric snapshots for one service.
func (r *Router) Status(service string) core.ServiceStatus {
	status := core.ServiceStatus{Service: service}
	for _, ep := range r.services[service] {
		snapshot := r.runtimes[ep.Key()].Snapshot()
		snapshot.Name = ep.Name
		snapshot.Priority = ep.Priority
		breaker := r.breakers[ep.Key()]
		snapshot.BreakerState = string(breaker.State())
		snapshot.HealthScore = r.weights.Score(snapshot, breaker.State() == BreakerOpen)
		status.Endpoints = append(status.Endpoints, snapshot)
	}
	return status
}
