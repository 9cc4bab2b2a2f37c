// Package confidence derives overall signal confidence from sub-factors
// and translates it into a bounded position size.
package confidence

import (
	"math"

	"github.com/rs/zerolog"
)

// Risk level multipliers: the fraction of portfolio value risked per
// position before confidence scaling
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

var riskMultipliers = map[string]float64{
	RiskLow:    0.02,
	RiskMedium: 0.05,
	RiskHigh:   0.10,
}

// DefaultMaxAllocation caps position size at this fraction of portfolio
// value when the caller does not supply a limit
const DefaultMaxAllocation = 0.10

// referenceStopDistance is the stop-loss distance at which sizing is
// unscaled; tighter stops permit proportionally larger positions
const referenceStopDistance = 0.05

// Input carries the confidence sub-factors and sizing parameters
type Input struct {
	SentimentConfidence   float64
	TrendStrength         float64
	DataFreshness         float64
	DiversificationWeight float64
	RiskLevel             string  // low, medium, high
	PortfolioValue        float64 // sizing skipped when <= 0
	StopLossDistance      float64 // optional, as a fraction (0.05 = 5%)
	MaxAllocation         float64 // defaults to DefaultMaxAllocation
}

// Result is the derived confidence and optional position sizing
type Result struct {
	Confidence         float64 `json:"confidence"`
	PositionSize       float64 `json:"position_size,omitempty"`
	PositionPercentage float64 `json:"position_percentage,omitempty"`
	RiskAdjustedSize   float64 `json:"risk_adjusted_size,omitempty"`
}

// Engine computes confidence and position sizing
type Engine struct {
	logger zerolog.Logger
}

// NewEngine creates a confidence engine
func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{logger: logger.With().Str("component", "confidence").Logger()}
}

// Calculate combines the four factors with a cube-root dampened product:
// a single weak factor lowers confidence without collapsing it to zero as
// fast as a plain product would, while all factors must stay non-trivial.
// Position sizing is only computed when a portfolio value is supplied.
func (e *Engine) Calculate(input Input) *Result {
	f1 := clamp01(input.SentimentConfidence)
	f2 := clamp01(input.TrendStrength)
	f3 := clamp01(input.DataFreshness)
	f4 := clamp01(input.DiversificationWeight)

	conf := clamp01(math.Cbrt(f1 * f2 * f3 * f4))

	result := &Result{Confidence: conf}

	if input.PortfolioValue <= 0 {
		return result
	}

	riskMult, ok := riskMultipliers[input.RiskLevel]
	if !ok {
		riskMult = riskMultipliers[RiskMedium]
	}

	maxAllocation := input.MaxAllocation
	if maxAllocation <= 0 {
		maxAllocation = DefaultMaxAllocation
	}

	base := input.PortfolioValue * riskMult
	sized := base * conf

	// Stops wider than the reference distance shrink the size
	// proportionally; the scale never exceeds 1
	if input.StopLossDistance > 0 {
		scale := referenceStopDistance / input.StopLossDistance
		if scale > 1 {
			scale = 1
		}
		sized *= scale
	}

	cap := input.PortfolioValue * maxAllocation
	if sized > cap {
		sized = cap
	}

	result.PositionSize = sized
	result.PositionPercentage = sized / input.PortfolioValue * 100
	result.RiskAdjustedSize = sized

	e.logger.Debug().
		Float64("confidence", conf).
		Float64("position_size", sized).
		Str("risk_level", input.RiskLevel).
		Msg("position sized")

	return result
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
