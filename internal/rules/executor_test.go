package rules

import (
	"testing"

	"signal-fusion-engine/internal/engine"
	"signal-fusion-engine/internal/fusion"

	"github.com/rs/zerolog"
)

func testContext() *EvaluationContext {
	return &EvaluationContext{
		Fusion: &fusion.Result{Score: 0.45, Confidence: 0.7},
		EngineScores: engine.EngineScoreSet{
			engine.NameSentiment: {Score: 0.6, Confidence: 0.9},
			engine.NameTrend:     {Score: -0.2, Confidence: 0.5},
		},
		MarketData: map[string]interface{}{
			"price":      50000.0,
			"volume_24h": 1200.0,
			"book":       map[string]interface{}{"spread_pct": 0.05},
		},
	}
}

// TestExecuteNoRules verifies a ruleless strategy is not evaluated at all
func TestExecuteNoRules(t *testing.T) {
	ex := NewExecutor(zerolog.Nop())

	result := ex.Execute(&Strategy{}, testContext(), nil)

	if result.Evaluated {
		t.Error("Expected ruleless strategy to skip evaluation")
	}
	if result.Signal != "HOLD" {
		t.Errorf("Expected HOLD, got %s", result.Signal)
	}
}

// TestExecuteEntryMet checks met entry rules produce BUY
func TestExecuteEntryMet(t *testing.T) {
	ex := NewExecutor(zerolog.Nop())

	strategy := &Strategy{
		EntryRules: []Rule{
			{Indicator: "RSI", Operator: "<", Value: 30.0},
			{Field: "sentiment.score", Operator: ">", Value: 0.5},
		},
	}
	table := map[string]float64{"RSI": 25}

	result := ex.Execute(strategy, testContext(), table)

	if !result.Evaluated {
		t.Error("Expected strategy to be evaluated")
	}
	if result.Signal != "BUY" {
		t.Errorf("Expected BUY, got %s", result.Signal)
	}
	if !result.EntryConditionsMet {
		t.Error("Expected entry conditions met")
	}
}

// TestExecuteExitPrecedence verifies met exit rules win over met entry
// rules
func TestExecuteExitPrecedence(t *testing.T) {
	ex := NewExecutor(zerolog.Nop())

	strategy := &Strategy{
		EntryRules: []Rule{{Indicator: "RSI", Operator: "<", Value: 30.0}},
		ExitRules:  []Rule{{Indicator: "RSI", Operator: "<", Value: 40.0}},
	}
	table := map[string]float64{"RSI": 25}

	result := ex.Execute(strategy, testContext(), table)

	if result.Signal != "SELL" {
		t.Errorf("Expected SELL when both sets are met, got %s", result.Signal)
	}
}

// TestExecuteExitOrLogic verifies exit sets resolve per-rule logic the same
// way entry sets do, so one met rule in an OR exit set sells
func TestExecuteExitOrLogic(t *testing.T) {
	ex := NewExecutor(zerolog.Nop())

	strategy := &Strategy{
		ExitRules: []Rule{
			{Indicator: "RSI", Operator: ">", Value: 70.0},
			{Field: "trend.score", Operator: "<", Value: 0.0, Logic: "OR"},
		},
	}
	table := map[string]float64{"RSI": 25}

	result := ex.Execute(strategy, testContext(), table)

	if result.Signal != "SELL" {
		t.Errorf("Expected SELL with one met OR exit rule, got %s", result.Signal)
	}
	if !result.ExitConditionsMet {
		t.Error("Expected exit conditions met")
	}
}

// TestExecuteAndLogic verifies one unmet rule fails an AND set
func TestExecuteAndLogic(t *testing.T) {
	ex := NewExecutor(zerolog.Nop())

	strategy := &Strategy{
		EntryRules: []Rule{
			{Indicator: "RSI", Operator: "<", Value: 30.0},
			{Field: "trend.score", Operator: ">", Value: 0.0, Logic: "AND"},
		},
	}
	table := map[string]float64{"RSI": 25}

	result := ex.Execute(strategy, testContext(), table)

	if result.Signal != "HOLD" {
		t.Errorf("Expected HOLD with one unmet AND rule, got %s", result.Signal)
	}
	if result.EntryConditionsMet {
		t.Error("Expected entry conditions not met")
	}
}

// TestExecuteOrLogic verifies one met rule passes an OR set
func TestExecuteOrLogic(t *testing.T) {
	ex := NewExecutor(zerolog.Nop())

	strategy := &Strategy{
		EntryRules: []Rule{
			{Indicator: "RSI", Operator: "<", Value: 30.0},
			{Field: "trend.score", Operator: ">", Value: 0.0, Logic: "OR"},
		},
	}
	table := map[string]float64{"RSI": 25}

	result := ex.Execute(strategy, testContext(), table)

	if result.Signal != "BUY" {
		t.Errorf("Expected BUY with one met OR rule, got %s", result.Signal)
	}
}

// TestExecuteLastLogicWins verifies disagreeing logic values resolve to
// the last rule's logic
func TestExecuteLastLogicWins(t *testing.T) {
	ex := NewExecutor(zerolog.Nop())

	strategy := &Strategy{
		EntryRules: []Rule{
			{Indicator: "RSI", Operator: "<", Value: 30.0, Logic: "OR"},
			{Field: "trend.score", Operator: ">", Value: 0.0, Logic: "AND"},
		},
	}
	table := map[string]float64{"RSI": 25}

	result := ex.Execute(strategy, testContext(), table)

	// under the final AND the unmet trend rule fails the set
	if result.EntryConditionsMet {
		t.Error("Expected AND from the last rule to govern the set")
	}
}

// TestExecuteUnresolvableRule verifies unresolvable rules are recorded as
// not met with the error detail, never as a failure
func TestExecuteUnresolvableRule(t *testing.T) {
	ex := NewExecutor(zerolog.Nop())

	strategy := &Strategy{
		EntryRules: []Rule{
			{Indicator: "MACD", Operator: ">", Value: 0.0},
		},
	}

	result := ex.Execute(strategy, testContext(), map[string]float64{})

	if result.Signal != "HOLD" {
		t.Errorf("Expected HOLD, got %s", result.Signal)
	}
	if len(result.EntryDetails) != 1 {
		t.Fatalf("Expected 1 entry detail, got %d", len(result.EntryDetails))
	}
	detail := result.EntryDetails[0]
	if detail.Met {
		t.Error("Expected unresolvable rule to be not met")
	}
	if detail.Error == "" {
		t.Error("Expected the resolution error to be recorded")
	}
}

// TestExecuteCrossOperators verifies cross_above and cross_below compare
// as plain greater/less
func TestExecuteCrossOperators(t *testing.T) {
	ex := NewExecutor(zerolog.Nop())
	table := map[string]float64{"MA20": 105, "MA50": 100}

	strategy := &Strategy{
		EntryRules: []Rule{{Indicator: "MA20", Operator: "cross_above", Value: 100.0}},
	}
	result := ex.Execute(strategy, testContext(), table)
	if result.Signal != "BUY" {
		t.Errorf("Expected cross_above to behave as >, got %s", result.Signal)
	}

	strategy = &Strategy{
		EntryRules: []Rule{{Indicator: "MA50", Operator: "cross_below", Value: 100.0}},
	}
	result = ex.Execute(strategy, testContext(), table)
	if result.Signal != "HOLD" {
		t.Errorf("Expected cross_below at equality to be not met, got %s", result.Signal)
	}
}

// TestExecuteDeterminism verifies identical inputs produce identical
// outcomes across repeated evaluations
func TestExecuteDeterminism(t *testing.T) {
	ex := NewExecutor(zerolog.Nop())

	strategy := &Strategy{
		EntryRules: []Rule{
			{Indicator: "RSI", Operator: "<", Value: 30.0},
			{Field: "fusion.score", Operator: ">", Value: 0.3, Logic: "AND"},
		},
		ExitRules: []Rule{{Field: "trend.score", Operator: "<", Value: -0.5}},
	}
	table := map[string]float64{"RSI": 25}
	evalCtx := testContext()

	first := ex.Execute(strategy, evalCtx, table)
	for i := 0; i < 10; i++ {
		again := ex.Execute(strategy, evalCtx, table)
		if again.Signal != first.Signal ||
			again.EntryConditionsMet != first.EntryConditionsMet ||
			again.ExitConditionsMet != first.ExitConditionsMet {
			t.Fatal("Expected identical outcomes on repeated evaluation")
		}
	}
}

// TestResolveFieldPaths checks the supported field path forms
func TestResolveFieldPaths(t *testing.T) {
	evalCtx := testContext()

	tests := []struct {
		path     string
		expected float64
	}{
		{"final_score", 0.45},
		{"fusion.score", 0.45},
		{"fusion.confidence", 0.7},
		{"engine_scores.sentiment.score", 0.6},
		{"sentiment.score", 0.6},
		{"trend.confidence", 0.5},
		{"market_data.price", 50000},
		{"price", 50000},
		{"book.spread_pct", 0.05},
	}

	for _, tt := range tests {
		got, err := evalCtx.Resolve(tt.path)
		if err != nil {
			t.Errorf("Path %q: unexpected error %v", tt.path, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("Path %q: expected %v, got %v", tt.path, tt.expected, got)
		}
	}

	if _, err := evalCtx.Resolve("no.such.path"); err == nil {
		t.Error("Expected error for unknown path")
	}
	if _, err := evalCtx.Resolve(""); err == nil {
		t.Error("Expected error for empty path")
	}
}
