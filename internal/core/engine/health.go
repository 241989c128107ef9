package engine

import (
	"math"
	"time"

	"github.com/bizlens/bizlens/internal/core"
)

// ScoreWeights parameterizes endpoint health scoring. The defaults are
// tuning constants, not derived policy, so deployments may override them.
type ScoreWeights struct {
	SuccessRate    float64
	Latency        float64
	LatencyCeiling time.Duration
	BreakerPenalty float64
}

// DefaultScoreWeights returns the standard blend: success rate dominates,
// latency contributes up to the ceiling, an open breaker costs a flat penalty.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		SuccessRate:    0.7,
		Latency:        0.3,
		LatencyCeiling: 10 * time.Second,
		BreakerPenalty: 0.5,
	}
}

// Score derives a 0-1 health score from an endpoint's runtime snapshot and
// breaker state. An endpoint with no history scores 1.0 so new and backup
// endpoints get a fair trial.
func (w ScoreWeights) Score(m core.EndpointMetrics, breakerOpen bool) float64 {
	if m.Requests == 0 {
		return 1.0
	}

	ceiling := w.LatencyCeiling.Seconds()
	if ceiling <= 0 {
		ceiling = 10
	}

	latencyFactor := math.Max(0, 1-m.AvgLatency.Seconds()/ceiling)
	score := w.SuccessRate*m.SuccessRate + w.Latency*latencyFactor
	if breakerOpen {
		score -= w.BreakerPenalty
	}
	return math.Max(0, score)
}
