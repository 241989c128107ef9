package cmd

import (
	"go.uber.org/zap"

	"github.com/bizlens/bizlens/internal/config"
	"github.com/bizlens/bizlens/internal/core/engine"
)

// buildOrchestrator assembles the full resilience stack from configuration.
// Each call yields an independent orchestrator instance.
func buildOrchestrator(cfg *config.Config, logger *zap.Logger) *engine.Orchestrator {
	weights := scoreWeights(cfg.Orchestrator.Score)

	router := engine.NewRouter(cfg.Endpoints(logger), weights, logger)
	cache := engine.NewResponseCache(cfg.Orchestrator.CacheCapacity)

	orch := engine.New(router, cache, logger)
	orch.MaxRateLimitWait = cfg.Orchestrator.MaxRateLimitWait
	orch.Workers = cfg.Orchestrator.FanoutWorkers
	return orch
}

// scoreWeights merges configured overrides onto the default blend. The
// coefficients are tuning constants, so partial overrides are allowed.
func scoreWeights(score config.ScoreConfig) engine.ScoreWeights {
	weights := engine.DefaultScoreWeights()
	if score.SuccessRateWeight > 0 {
		weights.SuccessRate = score.SuccessRateWeight
	}
	if score.LatencyWeight > 0 {
		weights.Latency = score.LatencyWeight
	}
	if score.LatencyCeiling > 0 {
		weights.LatencyCeiling = score.LatencyCeiling
	}
	if score.BreakerPenalty > 0 {
		weights.BreakerPenalty = score.BreakerPenalty
	}
	return weights
}
