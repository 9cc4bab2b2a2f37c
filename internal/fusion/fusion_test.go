package fusion

import (
	"math"
	"testing"

	"signal-fusion-engine/internal/engine"

	"github.com/rs/zerolog"
)

func newTestEngine() *Engine {
	return NewEngine(zerolog.Nop())
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestWeightsSumToOne verifies the fixed weight table stays normalized
func TestWeightsSumToOne(t *testing.T) {
	total := 0.0
	for _, w := range Weights {
		total += w
	}
	if !almostEqual(total, 1.0) {
		t.Errorf("Weights should sum to 1.0, got %v", total)
	}
}

// TestCalculateBullishConsensus checks the weighted sum, confidence
// renormalization over the confident subset, and the BUY threshold
func TestCalculateBullishConsensus(t *testing.T) {
	e := newTestEngine()

	scores := engine.EngineScoreSet{
		engine.NameSentiment:   {Score: 0.8, Confidence: 0.9},
		engine.NameTrend:       {Score: 0.6, Confidence: 0.7},
		engine.NameFundamental: {Score: 0.0, Confidence: 0.0},
		engine.NameLiquidity:   {Score: 0.5, Confidence: 0.8},
		engine.NameEventRisk:   {Score: -0.2, Confidence: 0.6},
	}

	result := e.Calculate(scores)

	// 0.35*0.8 + 0.25*0.6 + 0.15*0 + 0.10*0.5 + 0.15*(-0.2) = 0.45
	if !almostEqual(result.Score, 0.45) {
		t.Errorf("Expected fused score 0.45, got %v", result.Score)
	}

	if result.Action != ActionBuy {
		t.Errorf("Expected BUY for score above threshold, got %v", result.Action)
	}

	// Fundamental reported zero confidence, so it is excluded and the
	// remaining weights (0.85) are renormalized.
	expectedConf := (0.35*0.9 + 0.25*0.7 + 0.10*0.8 + 0.15*0.6) / 0.85
	if !almostEqual(result.Confidence, expectedConf) {
		t.Errorf("Expected confidence %v, got %v", expectedConf, result.Confidence)
	}

	if len(result.Breakdown) != 5 {
		t.Errorf("Expected 5 breakdown entries, got %d", len(result.Breakdown))
	}
	if !almostEqual(result.Breakdown[engine.NameSentiment], 0.28) {
		t.Errorf("Expected sentiment contribution 0.28, got %v", result.Breakdown[engine.NameSentiment])
	}
}

// TestCalculateSellThreshold checks the SELL side of the decision band
func TestCalculateSellThreshold(t *testing.T) {
	e := newTestEngine()

	scores := engine.EngineScoreSet{
		engine.NameSentiment: {Score: -0.9, Confidence: 0.8},
		engine.NameTrend:     {Score: -0.8, Confidence: 0.8},
	}

	result := e.Calculate(scores)

	// 0.35*(-0.9) + 0.25*(-0.8) = -0.515
	if !almostEqual(result.Score, -0.515) {
		t.Errorf("Expected fused score -0.515, got %v", result.Score)
	}
	if result.Action != ActionSell {
		t.Errorf("Expected SELL, got %v", result.Action)
	}
}

// TestCalculateHoldBand verifies scores inside (-0.3, 0.3] stay HOLD
func TestCalculateHoldBand(t *testing.T) {
	e := newTestEngine()

	scores := engine.EngineScoreSet{
		engine.NameSentiment: {Score: 0.5, Confidence: 0.5},
	}

	result := e.Calculate(scores)

	// 0.35*0.5 = 0.175, inside the hold band
	if result.Action != ActionHold {
		t.Errorf("Expected HOLD for score %v, got %v", result.Score, result.Action)
	}
}

// TestEventRiskOverride verifies severe event risk forces HOLD even when
// every other engine is strongly bullish
func TestEventRiskOverride(t *testing.T) {
	e := newTestEngine()

	scores := engine.EngineScoreSet{
		engine.NameSentiment:   {Score: 1.0, Confidence: 0.9},
		engine.NameTrend:       {Score: 1.0, Confidence: 0.9},
		engine.NameFundamental: {Score: 1.0, Confidence: 0.9},
		engine.NameLiquidity:   {Score: 1.0, Confidence: 0.9},
		engine.NameEventRisk:   {Score: -0.6, Confidence: 0.8},
	}

	result := e.Calculate(scores)

	if result.Score <= 0.3 {
		t.Fatalf("Test setup broken, fused score should exceed buy threshold, got %v", result.Score)
	}
	if result.Action != ActionHold {
		t.Errorf("Expected event risk override to force HOLD, got %v", result.Action)
	}
}

// TestEventRiskAtThresholdDoesNotOverride verifies the override is strict
func TestEventRiskAtThresholdDoesNotOverride(t *testing.T) {
	e := newTestEngine()

	scores := engine.EngineScoreSet{
		engine.NameSentiment: {Score: 1.0, Confidence: 0.9},
		engine.NameTrend:     {Score: 1.0, Confidence: 0.9},
		engine.NameEventRisk: {Score: -0.5, Confidence: 0.8},
	}

	result := e.Calculate(scores)

	if result.Action != ActionBuy {
		t.Errorf("Event risk exactly at -0.5 should not force HOLD, got %v", result.Action)
	}
}

// TestCalculateEmptySet verifies graceful degradation with no engines
func TestCalculateEmptySet(t *testing.T) {
	e := newTestEngine()

	result := e.Calculate(engine.EngineScoreSet{})

	if result.Score != 0 {
		t.Errorf("Expected zero score for empty set, got %v", result.Score)
	}
	if result.Confidence != 0.5 {
		t.Errorf("Expected fallback confidence 0.5, got %v", result.Confidence)
	}
	if result.Action != ActionHold {
		t.Errorf("Expected HOLD for empty set, got %v", result.Action)
	}
}

// TestCalculateAllZeroConfidence verifies the confidence fallback when
// every engine reports zero confidence
func TestCalculateAllZeroConfidence(t *testing.T) {
	e := newTestEngine()

	scores := engine.EngineScoreSet{
		engine.NameSentiment: {Score: 0.2, Confidence: 0},
		engine.NameTrend:     {Score: 0.1, Confidence: 0},
	}

	result := e.Calculate(scores)

	if result.Confidence != 0.5 {
		t.Errorf("Expected fallback confidence 0.5, got %v", result.Confidence)
	}
}

// TestCalculateClampsScores verifies out-of-range engine scores are
// clamped before weighting
func TestCalculateClampsScores(t *testing.T) {
	e := newTestEngine()

	scores := engine.EngineScoreSet{
		engine.NameSentiment: {Score: 5.0, Confidence: 0.9},
	}

	result := e.Calculate(scores)

	if !almostEqual(result.Score, 0.35) {
		t.Errorf("Expected clamped contribution 0.35, got %v", result.Score)
	}
}
