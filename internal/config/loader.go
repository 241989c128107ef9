// Package config provides centralized configuration management for BizLens.
// Configuration is layered: built-in defaults, an optional YAML file, then
// BIZLENS_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Load reads configuration from the given file path (optional; empty means
// defaults plus environment only). Each call returns an independent Config
// so multiple orchestrators never share state.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("BIZLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the orchestrator cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Orchestrator.CacheCapacity < 1 {
		return fmt.Errorf("cache capacity must be at least 1, got %d", c.Orchestrator.CacheCapacity)
	}
	if c.Orchestrator.FanoutWorkers < 1 {
		return fmt.Errorf("fanout workers must be at least 1, got %d", c.Orchestrator.FanoutWorkers)
	}

	for service, endpoints := range c.Services {
		if strings.TrimSpace(service) == "" {
			return fmt.Errorf("service name must not be empty")
		}
		for _, ep := range endpoints {
			if strings.TrimSpace(ep.Name) == "" {
				return fmt.Errorf("service %q: endpoint name is required", service)
			}
			if strings.TrimSpace(ep.BaseURL) == "" {
				return fmt.Errorf("service %q endpoint %q: base_url is required", service, ep.Name)
			}
		}
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("orchestrator.cache_capacity", 1000)
	v.SetDefault("orchestrator.default_cache_ttl", time.Hour)
	v.SetDefault("orchestrator.max_rate_limit_wait", 30*time.Second)
	v.SetDefault("orchestrator.fanout_workers", 8)
}
