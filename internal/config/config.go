package config

import (
	"time"
)

// Config is the complete application configuration, loaded from an optional
// YAML file with BIZLENS_* environment overrides on top.
type Config struct {
	Server       ServerConfig              `mapstructure:"server"`
	Logging      LoggingConfig             `mapstructure:"logging"`
	Orchestrator OrchestratorConfig        `mapstructure:"orchestrator"`
	Services     map[string][]EndpointSpec `mapstructure:"services"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig controls log verbosity and encoding.
type LoggingConfig struct {
	// Level is one of: debug, info, warn, error.
	Level string `mapstructure:"level"`

	// Format is "json" for server deployments or "console" for humans.
	Format string `mapstructure:"format"`
}

// OrchestratorConfig tunes the resilience machinery.
type OrchestratorConfig struct {
	CacheCapacity    int           `mapstructure:"cache_capacity"`
	DefaultCacheTTL  time.Duration `mapstructure:"default_cache_ttl"`
	MaxRateLimitWait time.Duration `mapstructure:"max_rate_limit_wait"`
	FanoutWorkers    int           `mapstructure:"fanout_workers"`
	Score            ScoreConfig   `mapstructure:"score"`
}

// ScoreConfig overrides the health score blend. Zero values fall back to
// the built-in defaults.
type ScoreConfig struct {
	SuccessRateWeight float64       `mapstructure:"success_rate_weight"`
	LatencyWeight     float64       `mapstructure:"latency_weight"`
	LatencyCeiling    time.Duration `mapstructure:"latency_ceiling"`
	BreakerPenalty    float64       `mapstructure:"breaker_penalty"`
}

// EndpointSpec describes one provider endpoint inside a logical service.
//
// APIKeyEnv names an environment variable holding the credential; it takes
// precedence over the inline APIKey when set.
type EndpointSpec struct {
	Name              string        `mapstructure:"name"`
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	APIKeyEnv         string        `mapstructure:"api_key_env"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Timeout           time.Duration `mapstructure:"timeout"`
	BreakerThreshold  int           `mapstructure:"breaker_threshold"`
	BreakerRecovery   time.Duration `mapstructure:"breaker_recovery"`
	Priority          int           `mapstructure:"priority"`
	CostPerRequest    float64       `mapstructure:"cost_per_request"`
	QualityWeight     float64       `mapstructure:"quality_weight"`
	RequiresKey       bool          `mapstructure:"requires_key"`
}
