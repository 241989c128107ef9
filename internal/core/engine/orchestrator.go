package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bizlens/bizlens/internal/core"
)

const (
	// defaultMaxRateLimitWait separates "wait briefly then proceed" from
	// "skip this endpoint this round".
	defaultMaxRateLimitWait = 30 * time.Second

	// defaultFanoutWorkers bounds concurrent dispatches in ParallelRequests.
	defaultFanoutWorkers = 8

	// maxPayloadBytes caps how much of a provider response is retained.
	maxPayloadBytes = 4 << 20
)

// Orchestrator is the facade over the resilience machinery. It owns the
// response cache and, through the router, the per-endpoint breakers,
// limiters, and runtime counters.
//
// Every failure mode surfaces as a Response with Success=false; nothing
// below Request or ParallelRequests raises an error into caller code.
type Orchestrator struct {
	Router *Router
	Cache  *ResponseCache
	Client *http.Client
	Logger *zap.Logger

	// MaxRateLimitWait overrides the default 30s wait-or-skip bound.
	MaxRateLimitWait time.Duration

	// Workers overrides the fan-out worker pool size.
	Workers int

	Clock func() time.Time
}

// New builds an orchestrator around a router and cache.
func New(router *Router, cache *ResponseCache, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		Router: router,
		Cache:  cache,
		Client: &http.Client{},
		Logger: logger,
	}
}

// Request resolves one logical service call: cache lookup, endpoint
// selection, gated dispatch with failover, metric recording, and cache
// population.
func (o *Orchestrator) Request(ctx context.Context, spec core.RequestSpec) *core.Response {
	if ctx == nil {
		ctx = context.Background()
	}

	requestedAt := o.now()
	requestID := uuid.New().String()

	if strings.TrimSpace(spec.Method) == "" {
		spec.Method = http.MethodGet
	}

	// An unencodable body is a caller error, not an endpoint failure.
	var body []byte
	if len(spec.Body) > 0 {
		encoded, err := json.Marshal(spec.Body)
		if err != nil {
			return o.failed(requestID, spec, requestedAt,
				fmt.Sprintf("encode request body: %v", err))
		}
		body = encoded
	}

	key := CacheKey(spec)
	if spec.CacheTTL > 0 && o.Cache != nil {
		if payload, ok := o.Cache.Get(key, spec.CacheTTL); ok {
			return &core.Response{
				RequestID:   requestID,
				Service:     spec.Service,
				Source:      "cache",
				Success:     true,
				Payload:     payload,
				Cached:      true,
				RequestedAt: requestedAt,
				ResolvedAt:  o.now(),
			}
		}
	}

	candidates := o.Router.Candidates(spec.Service)
	if len(candidates) == 0 {
		return o.failed(requestID, spec, requestedAt,
			fmt.Sprintf("no endpoints configured for service %q", spec.Service))
	}

	for _, ep := range candidates {
		if err := ctx.Err(); err != nil {
			return o.failed(requestID, spec, requestedAt,
				fmt.Sprintf("request cancelled: %v", err))
		}

		reqURL, err := buildURL(ep.BaseURL, spec.Path, spec.Params)
		if err != nil {
			// Config error; skip without penalizing the endpoint.
			o.Logger.Warn("invalid request url, skipping endpoint",
				zap.String("service", spec.Service),
				zap.String("endpoint", ep.Name),
				zap.Error(err))
			continue
		}

		breaker := o.Router.Breaker(ep)
		limiter := o.Router.Limiter(ep)
		runtime := o.Router.Runtime(ep)

		if !breaker.Allow() {
			runtime.SetHealth(core.HealthDown)
			o.Logger.Debug("breaker open, skipping endpoint",
				zap.String("service", spec.Service),
				zap.String("endpoint", ep.Name))
			continue
		}

		if !limiter.Reserve() {
			wait := limiter.WaitTime()
			if wait > o.maxWait() {
				breaker.Release()
				runtime.SetHealth(core.HealthRateLimited)
				o.Logger.Debug("rate limited, skipping endpoint",
					zap.String("service", spec.Service),
					zap.String("endpoint", ep.Name),
					zap.Duration("wait", wait))
				continue
			}
			o.Logger.Debug("rate limited, waiting",
				zap.String("service", spec.Service),
				zap.String("endpoint", ep.Name),
				zap.Duration("wait", wait))
			if err := sleepCtx(ctx, wait); err != nil {
				breaker.Release()
				return o.failed(requestID, spec, requestedAt,
					fmt.Sprintf("request cancelled: %v", err))
			}
			if !limiter.Reserve() {
				breaker.Release()
				runtime.SetHealth(core.HealthRateLimited)
				o.Logger.Debug("rate limited after waiting, skipping endpoint",
					zap.String("service", spec.Service),
					zap.String("endpoint", ep.Name))
				continue
			}
		}

		start := time.Now()
		payload, statusCode, err := o.dispatch(ctx, ep, spec.Method, reqURL, body)
		elapsed := time.Since(start)

		if err != nil {
			limiter.Release()
			breaker.OnFailure()
			runtime.RecordFailure(elapsed, ep.CostPerRequest)
			if breaker.State() == BreakerOpen {
				runtime.SetHealth(core.HealthDown)
			}
			o.Logger.Warn("endpoint dispatch failed",
				zap.String("service", spec.Service),
				zap.String("endpoint", ep.Name),
				zap.Int("status", statusCode),
				zap.Duration("elapsed", elapsed),
				zap.Error(err))
			continue
		}

		breaker.OnSuccess()
		runtime.RecordSuccess(elapsed, ep.CostPerRequest)

		if spec.CacheTTL > 0 && o.Cache != nil {
			o.Cache.Set(key, payload, spec.CacheTTL)
		}

		return &core.Response{
			RequestID:   requestID,
			Service:     spec.Service,
			Source:      ep.Name,
			Success:     true,
			StatusCode:  statusCode,
			Payload:     payload,
			Elapsed:     elapsed,
			RequestedAt: requestedAt,
			ResolvedAt:  o.now(),
		}
	}

	return o.failed(requestID, spec, requestedAt,
		fmt.Sprintf("all endpoints failed for service %q", spec.Service))
}

// ParallelRequests dispatches every spec concurrently through Request and
// returns responses in input order regardless of completion order. A panic
// while resolving one slot becomes a failed Response for that slot only.
func (o *Orchestrator) ParallelRequests(ctx context.Context, specs []core.RequestSpec) []*core.Response {
	if ctx == nil {
		ctx = context.Background()
	}

	results := make([]*core.Response, len(specs))
	if len(specs) == 0 {
		return results
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := o.fanoutWorkers()
	if workers > len(specs) {
		workers = len(specs)
	}

	worker := func() {
		defer wg.Done()
		for i := range jobs {
			results[i] = o.safeRequest(ctx, specs[i])
		}
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go worker()
	}

	for i := range specs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// StatusReport snapshots every service, endpoint, and the cache.
func (o *Orchestrator) StatusReport() core.StatusReport {
	report := core.StatusReport{GeneratedAt: o.now()}

	for _, service := range o.Router.Services() {
		status := o.Router.Status(service)
		for _, ep := range status.Endpoints {
			report.TotalCost += ep.Cost
		}
		report.Services = append(report.Services, status)
	}

	if o.Cache != nil {
		report.Cache = o.Cache.Status()
	}

	return report
}

// safeRequest shields sibling fan-out slots from a panic in this one.
func (o *Orchestrator) safeRequest(ctx context.Context, spec core.RequestSpec) (resp *core.Response) {
	requestedAt := o.now()
	defer func() {
		if r := recover(); r != nil {
			o.Logger.Error("request panicked",
				zap.String("service", spec.Service),
				zap.Any("panic", r))
			resp = o.failed(uuid.New().String(), spec, requestedAt,
				fmt.Sprintf("internal error: %v", r))
		}
	}()
	return o.Request(ctx, spec)
}

// dispatch performs the single outbound call to one endpoint with a prebuilt
// URL and body. Any transport error or non-2xx status is an endpoint
// failure; status granularity beyond that is not load-bearing here.
func (o *Orchestrator) dispatch(ctx context.Context, ep core.Endpoint, method, reqURL string, body []byte) (json.RawMessage, int, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	timeout := ep.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), reqURL, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if key := strings.TrimSpace(ep.APIKey); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	client := o.Client
	if client == nil {
		client = &http.Client{}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}

	if json.Valid(data) {
		return data, resp.StatusCode, nil
	}

	// Non-JSON provider payloads are preserved as a JSON string.
	wrapped, err := json.Marshal(string(data))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("encode response payload: %w", err)
	}
	return wrapped, resp.StatusCode, nil
}

func (o *Orchestrator) failed(requestID string, spec core.RequestSpec, requestedAt time.Time, message string) *core.Response {
	return &core.Response{
		RequestID:    requestID,
		Service:      spec.Service,
		Success:      false,
		ErrorMessage: message,
		RequestedAt:  requestedAt,
		ResolvedAt:   o.now(),
	}
}

func (o *Orchestrator) maxWait() time.Duration {
	if o.MaxRateLimitWait > 0 {
		return o.MaxRateLimitWait
	}
	return defaultMaxRateLimitWait
}

func (o *Orchestrator) fanoutWorkers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return defaultFanoutWorkers
}

func (o *Orchestrator) now() time.Time {
	if o != nil && o.Clock != nil {
		return o.Clock()
	}
	return time.Now().UTC()
}

// buildURL joins the endpoint base address with the request path and query
// parameters.
func buildURL(base, path string, params map[string]string) (string, error) {
	parsed, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", err
	}

	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/") + path

	if len(params) > 0 {
		query := parsed.Query()
		for k, v := range params {
			query.Set(k, v)
		}
		parsed.RawQuery = query.Encode()
	}

	return parsed.String(), nil
}

// sleepCtx suspends for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
