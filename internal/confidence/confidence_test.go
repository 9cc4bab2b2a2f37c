package confidence

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestConfidenceCubeRootDampening checks the dampened product formula
func TestConfidenceCubeRootDampening(t *testing.T) {
	e := NewEngine(zerolog.Nop())

	result := e.Calculate(Input{
		SentimentConfidence:   0.9,
		TrendStrength:         0.8,
		DataFreshness:         1.0,
		DiversificationWeight: 1.0,
	})

	expected := math.Cbrt(0.9 * 0.8)
	if !almostEqual(result.Confidence, expected) {
		t.Errorf("Expected confidence %v, got %v", expected, result.Confidence)
	}
}

// TestConfidenceWeakFactorDampens verifies one weak factor lowers
// confidence without collapsing it
func TestConfidenceWeakFactorDampens(t *testing.T) {
	e := NewEngine(zerolog.Nop())

	result := e.Calculate(Input{
		SentimentConfidence:   1.0,
		TrendStrength:         1.0,
		DataFreshness:         1.0,
		DiversificationWeight: 0.1,
	})

	expected := math.Cbrt(0.1)
	if !almostEqual(result.Confidence, expected) {
		t.Errorf("Expected confidence %v, got %v", expected, result.Confidence)
	}
	if result.Confidence <= 0.1 {
		t.Error("Expected cube root to dampen the weak factor, not pass it through")
	}
}

// TestConfidenceZeroFactor verifies any zero factor zeroes confidence
func TestConfidenceZeroFactor(t *testing.T) {
	e := NewEngine(zerolog.Nop())

	result := e.Calculate(Input{
		SentimentConfidence:   0.9,
		TrendStrength:         0,
		DataFreshness:         1.0,
		DiversificationWeight: 1.0,
	})

	if result.Confidence != 0 {
		t.Errorf("Expected confidence 0 with a zero factor, got %v", result.Confidence)
	}
}

// TestConfidenceClampsInputs verifies out-of-range factors are bounded
// before combining
func TestConfidenceClampsInputs(t *testing.T) {
	e := NewEngine(zerolog.Nop())

	result := e.Calculate(Input{
		SentimentConfidence:   2.5,
		TrendStrength:         -0.4,
		DataFreshness:         1.0,
		DiversificationWeight: 1.0,
	})

	if result.Confidence != 0 {
		t.Errorf("Expected negative factor to clamp to 0, got confidence %v", result.Confidence)
	}
}

// TestPositionSizingSkippedWithoutPortfolio verifies sizing requires a
// portfolio value
func TestPositionSizingSkippedWithoutPortfolio(t *testing.T) {
	e := NewEngine(zerolog.Nop())

	result := e.Calculate(Input{
		SentimentConfidence:   1.0,
		TrendStrength:         1.0,
		DataFreshness:         1.0,
		DiversificationWeight: 1.0,
	})

	if result.PositionSize != 0 || result.PositionPercentage != 0 {
		t.Errorf("Expected no sizing without portfolio value, got size %v", result.PositionSize)
	}
}

// TestPositionSizingRiskLevels checks the per-level risk multipliers
func TestPositionSizingRiskLevels(t *testing.T) {
	e := NewEngine(zerolog.Nop())

	full := Input{
		SentimentConfidence:   1.0,
		TrendStrength:         1.0,
		DataFreshness:         1.0,
		DiversificationWeight: 1.0,
		PortfolioValue:        100000,
	}

	tests := []struct {
		riskLevel string
		expected  float64
	}{
		{RiskLow, 2000},
		{RiskMedium, 5000},
		{RiskHigh, 10000},
		{"unknown", 5000}, // falls back to medium
	}

	for _, tt := range tests {
		input := full
		input.RiskLevel = tt.riskLevel
		result := e.Calculate(input)
		if !almostEqual(result.PositionSize, tt.expected) {
			t.Errorf("Risk %s: expected size %v, got %v", tt.riskLevel, tt.expected, result.PositionSize)
		}
	}
}

// TestPositionSizingConfidenceScaling verifies the size scales with
// confidence
func TestPositionSizingConfidenceScaling(t *testing.T) {
	e := NewEngine(zerolog.Nop())

	result := e.Calculate(Input{
		SentimentConfidence:   0.512, // cbrt(0.512) = 0.8
		TrendStrength:         1.0,
		DataFreshness:         1.0,
		DiversificationWeight: 1.0,
		RiskLevel:             RiskMedium,
		PortfolioValue:        100000,
	})

	if !almostEqual(result.PositionSize, 4000) {
		t.Errorf("Expected size 4000, got %v", result.PositionSize)
	}
	if !almostEqual(result.PositionPercentage, 4.0) {
		t.Errorf("Expected 4%% of portfolio, got %v", result.PositionPercentage)
	}
}

// TestPositionSizingWideStopShrinks verifies stops wider than the
// reference distance shrink the position
func TestPositionSizingWideStopShrinks(t *testing.T) {
	e := NewEngine(zerolog.Nop())

	base := Input{
		SentimentConfidence:   1.0,
		TrendStrength:         1.0,
		DataFreshness:         1.0,
		DiversificationWeight: 1.0,
		RiskLevel:             RiskMedium,
		PortfolioValue:        100000,
	}

	wide := base
	wide.StopLossDistance = 0.10
	result := e.Calculate(wide)
	if !almostEqual(result.PositionSize, 2500) {
		t.Errorf("Expected 10%% stop to halve the size to 2500, got %v", result.PositionSize)
	}

	tight := base
	tight.StopLossDistance = 0.02
	result = e.Calculate(tight)
	if !almostEqual(result.PositionSize, 5000) {
		t.Errorf("Expected tight stop scale to cap at 1, got size %v", result.PositionSize)
	}
}

// TestPositionSizingAllocationCap verifies the portfolio allocation cap
func TestPositionSizingAllocationCap(t *testing.T) {
	e := NewEngine(zerolog.Nop())

	input := Input{
		SentimentConfidence:   1.0,
		TrendStrength:         1.0,
		DataFreshness:         1.0,
		DiversificationWeight: 1.0,
		RiskLevel:             RiskHigh,
		PortfolioValue:        100000,
		MaxAllocation:         0.05,
	}

	result := e.Calculate(input)

	if !almostEqual(result.PositionSize, 5000) {
		t.Errorf("Expected cap at 5%% of portfolio, got %v", result.PositionSize)
	}

	// default cap admits the full high-risk size
	input.MaxAllocation = 0
	result = e.Calculate(input)
	if !almostEqual(result.PositionSize, 10000) {
		t.Errorf("Expected default cap to admit 10000, got %v", result.PositionSize)
	}
}
