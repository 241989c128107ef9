package core

import (
	"encoding/json"
	"time"
)

// HealthState describes the current serviceability of an endpoint.
type HealthState string

const (
	HealthHealthy     HealthState = "healthy"
	HealthDegraded    HealthState = "degraded"
	HealthDown        HealthState = "down"
	HealthRateLimited HealthState = "rate_limited"
)

// Endpoint is one concrete route to a data provider. Endpoints are built
// from configuration at startup and never mutated afterwards.
type Endpoint struct {
	Name              string        `json:"name"`
	Service           string        `json:"service"`
	BaseURL           string        `json:"base_url"`
	APIKey            string        `json:"-"`
	RequestsPerMinute int           `json:"requests_per_minute"`
	Timeout           time.Duration `json:"timeout"`
	BreakerThreshold  int           `json:"breaker_threshold"`
	BreakerRecovery   time.Duration `json:"breaker_recovery"`
	Priority          int           `json:"priority"`
	CostPerRequest    float64       `json:"cost_per_request"`
	QualityWeight     float64       `json:"quality_weight"`
}

// Key returns the registry key for the endpoint. Endpoint names only need
// to be unique within one service.
func (e Endpoint) Key() string {
	return e.Service + "/" + e.Name
}

// RequestSpec names a logical service call.
//
// CacheTTL of zero disables caching for the request; callers that want the
// conventional one hour default apply it at their own boundary.
type RequestSpec struct {
	Service  string            `json:"service"`
	Path     string            `json:"path"`
	Method   string            `json:"method,omitempty"`
	Params   map[string]string `json:"params,omitempty"`
	Body     map[string]any    `json:"body,omitempty"`
	CacheTTL time.Duration     `json:"cache_ttl,omitempty"`
}

// Response is the outcome of one orchestrated request. Failure is always a
// Response with Success=false and a message, never a raised error.
type Response struct {
	RequestID    string          `json:"request_id"`
	Service      string          `json:"service"`
	Source       string          `json:"source,omitempty"`
	Success      bool            `json:"success"`
	StatusCode   int             `json:"status_code,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Elapsed      time.Duration   `json:"elapsed"`
	Cached       bool            `json:"cached"`
	RequestedAt  time.Time       `json:"requested_at"`
	ResolvedAt   time.Time       `json:"resolved_at"`
}

// EndpointMetrics is a point-in-time snapshot of one endpoint's runtime
// counters, derived score, and breaker state.
type EndpointMetrics struct {
	Name          string        `json:"name"`
	Requests      int64         `json:"requests"`
	Successes     int64         `json:"successes"`
	Failures      int64         `json:"failures"`
	SuccessRate   float64       `json:"success_rate"`
	AvgLatency    time.Duration `json:"avg_latency"`
	LastRequestAt time.Time     `json:"last_request_at"`
	Health        HealthState   `json:"health"`
	HealthScore   float64       `json:"health_score"`
	BreakerState  string        `json:"breaker_state"`
	Cost          float64       `json:"cost"`
	Priority      int           `json:"priority"`
}

// ServiceStatus aggregates endpoint metrics for one logical service.
type ServiceStatus struct {
	Service   string            `json:"service"`
	Endpoints []EndpointMetrics `json:"endpoints"`
}

// CacheStatus reports response cache occupancy and effectiveness.
type CacheStatus struct {
	Size      int     `json:"size"`
	Capacity  int     `json:"capacity"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	HitRate   float64 `json:"hit_rate"`
	Evictions int64   `json:"evictions"`
}

// StatusReport is the full observability snapshot exposed to callers.
type StatusReport struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Services    []ServiceStatus `json:"services"`
	Cache       CacheStatus     `json:"cache"`
	TotalCost   float64         `json:"total_cost"`
}
