package config

import (
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bizlens/bizlens/internal/core"
)

// placeholderFragments mark credentials that were never filled in. An
// endpoint configured with one is excluded rather than attempted.
var placeholderFragments = []string{"your-", "your_", "changeme", "placeholder", "xxx"}

// Endpoints converts the configured services into immutable endpoint lists,
// resolving credentials and dropping endpoints whose required credential is
// missing or still a placeholder.
func (c *Config) Endpoints(logger *zap.Logger) map[string][]core.Endpoint {
	if logger == nil {
		logger = zap.NewNop()
	}

	services := make(map[string][]core.Endpoint, len(c.Services))
	for service, specs := range c.Services {
		endpoints := make([]core.Endpoint, 0, len(specs))
		for _, spec := range specs {
			key, ok := resolveCredential(spec)
			if !ok {
				logger.Warn("endpoint excluded: credential missing or placeholder",
					zap.String("service", service),
					zap.String("endpoint", spec.Name))
				continue
			}
			endpoints = append(endpoints, spec.endpoint(service, key))
		}
		if len(endpoints) > 0 {
			services[service] = endpoints
		}
	}
	return services
}

func (s EndpointSpec) endpoint(service, apiKey string) core.Endpoint {
	ep := core.Endpoint{
		Name:              s.Name,
		Service:           service,
		BaseURL:           strings.TrimRight(s.BaseURL, "/"),
		APIKey:            apiKey,
		RequestsPerMinute: s.RequestsPerMinute,
		Timeout:           s.Timeout,
		BreakerThreshold:  s.BreakerThreshold,
		BreakerRecovery:   s.BreakerRecovery,
		Priority:          s.Priority,
		CostPerRequest:    s.CostPerRequest,
		QualityWeight:     s.QualityWeight,
	}
	if ep.RequestsPerMinute < 1 {
		ep.RequestsPerMinute = 60
	}
	if ep.Timeout <= 0 {
		ep.Timeout = 10 * time.Second
	}
	if ep.BreakerThreshold < 1 {
		ep.BreakerThreshold = 5
	}
	if ep.BreakerRecovery <= 0 {
		ep.BreakerRecovery = 60 * time.Second
	}
	if ep.QualityWeight <= 0 {
		ep.QualityWeight = 1
	}
	return ep
}

// resolveCredential returns the endpoint's credential and whether the
// endpoint is usable. Endpoints configured without any credential reference
// pass through keyless; an endpoint that references a credential which
// resolves empty or to a placeholder is excluded.
func resolveCredential(spec EndpointSpec) (string, bool) {
	key := strings.TrimSpace(spec.APIKey)
	if env := strings.TrimSpace(spec.APIKeyEnv); env != "" {
		key = strings.TrimSpace(os.Getenv(env))
	}

	referenced := spec.RequiresKey ||
		strings.TrimSpace(spec.APIKeyEnv) != "" ||
		strings.TrimSpace(spec.APIKey) != ""

	if isPlaceholder(key) {
		return "", false
	}
	if key == "" && referenced {
		return "", false
	}
	return key, true
}

func isPlaceholder(key string) bool {
	if key == "" {
		return false
	}
	lowered := strings.ToLower(key)
	for _, fragment := range placeholderFragments {
		if strings.Contains(lowered, fragment) {
			return true
		}
	}
	return false
}
