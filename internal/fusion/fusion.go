// Package fusion combines the five engine scores into one trading decision
// using fixed weights.
package fusion

import (
	"fmt"

	"github.com/rs/zerolog"

	"signal-fusion-engine/internal/engine"
)

// Action is the trading decision derived from the fused score
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Decision thresholds on the fused score
const (
	buyThreshold  = 0.3
	sellThreshold = -0.3
)

// eventRiskHoldThreshold forces HOLD when event risk is worse than this,
// regardless of the fused score
const eventRiskHoldThreshold = -0.5

// fallbackConfidence is used when no engine reports positive confidence
const fallbackConfidence = 0.5

// Weights is the fixed fusion weight table. An engine's weight applies to
// its score regardless of its confidence.
var Weights = map[string]float64{
	engine.NameSentiment:   0.35,
	engine.NameTrend:       0.25,
	engine.NameFundamental: 0.15,
	engine.NameEventRisk:   0.15,
	engine.NameLiquidity:   0.10,
}

func init() {
	total := 0.0
	for _, w := range Weights {
		total += w
	}
	if total < 0.999 || total > 1.001 {
		panic(fmt.Sprintf("fusion weights must sum to 1.0, got %.4f", total))
	}
}

// Result is the fused decision over one EngineScoreSet
type Result struct {
	Score      float64            `json:"score"`
	Confidence float64            `json:"confidence"`
	Action     Action             `json:"action"`
	Breakdown  map[string]float64 `json:"breakdown,omitempty"` // per-engine weighted contribution
}

// Engine fuses engine scores with the fixed weight table
type Engine struct {
	logger zerolog.Logger
}

// NewEngine creates a fusion engine
func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{logger: logger.With().Str("component", "fusion").Logger()}
}

// Calculate produces the fused score, confidence and action. An empty
// score set degrades to a zero-valued HOLD result with the fallback
// confidence; it never returns an error to the caller.
func (e *Engine) Calculate(scores engine.EngineScoreSet) *Result {
	if len(scores) == 0 {
		e.logger.Warn().Msg("empty engine score set, returning neutral fusion result")
		return &Result{
			Score:      0,
			Confidence: fallbackConfidence,
			Action:     ActionHold,
			Breakdown:  map[string]float64{},
		}
	}

	var finalScore float64
	breakdown := make(map[string]float64, len(scores))

	// Weighted sum over the fixed table. Score weighting ignores
	// confidence entirely.
	for name, weight := range Weights {
		score, ok := scores[name]
		if !ok {
			continue
		}
		contribution := weight * engine.ClampScore(score.Score)
		finalScore += contribution
		breakdown[name] = contribution
	}
	finalScore = engine.ClampScore(finalScore)

	// Confidence averages only over engines that reported any confidence,
	// with their weights renormalized to sum to 1 across that subset.
	var confSum, weightSum float64
	for name, weight := range Weights {
		score, ok := scores[name]
		if !ok || score.Confidence <= 0 {
			continue
		}
		confSum += engine.ClampConfidence(score.Confidence) * weight
		weightSum += weight
	}

	confidence := fallbackConfidence
	if weightSum > 0 {
		confidence = confSum / weightSum
	}

	return &Result{
		Score:      finalScore,
		Confidence: engine.ClampConfidence(confidence),
		Action:     e.deriveAction(finalScore, scores),
		Breakdown:  breakdown,
	}
}

// deriveAction applies the decision thresholds. The event risk override is
// checked first: severe event risk forces HOLD irrespective of the score.
func (e *Engine) deriveAction(finalScore float64, scores engine.EngineScoreSet) Action {
	if risk, ok := scores[engine.NameEventRisk]; ok && risk.Score < eventRiskHoldThreshold {
		e.logger.Info().
			Float64("event_risk_score", risk.Score).
			Float64("final_score", finalScore).
			Msg("event risk override, forcing HOLD")
		return ActionHold
	}

	switch {
	case finalScore > buyThreshold:
		return ActionBuy
	case finalScore < sellThreshold:
		return ActionSell
	default:
		return ActionHold
	}
}
