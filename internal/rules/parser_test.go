package rules

import (
	"strings"
	"testing"
)

// TestValidateNilStrategy verifies the parser rejects a missing strategy
func TestValidateNilStrategy(t *testing.T) {
	result := NewParser().ValidateSyntax(nil)

	if result.Valid {
		t.Error("Expected nil strategy to be invalid")
	}
	if len(result.Errors) != 1 {
		t.Errorf("Expected 1 error, got %v", result.Errors)
	}
}

// TestValidateWellFormedStrategy checks a correct strategy passes with no
// errors
func TestValidateWellFormedStrategy(t *testing.T) {
	strategy := &Strategy{
		EntryRules: []Rule{
			{Indicator: "RSI", Operator: "<", Value: 30.0},
			{Field: "sentiment.score", Operator: ">", Value: 0.5, Logic: "AND"},
		},
		ExitRules: []Rule{
			{Indicator: "RSI", Operator: ">", Value: 70.0},
		},
	}

	result := NewParser().ValidateSyntax(strategy)

	if !result.Valid {
		t.Errorf("Expected valid strategy, got errors: %v", result.Errors)
	}
}

// TestValidateCollectsAllErrors verifies validation reports every problem
// instead of stopping at the first
func TestValidateCollectsAllErrors(t *testing.T) {
	strategy := &Strategy{
		EntryRules: []Rule{
			{Operator: "~", Value: "not-a-number", Logic: "XOR"},
			{Indicator: "SUPERTREND", Operator: ">", Value: 1.0},
		},
	}

	result := NewParser().ValidateSyntax(strategy)

	if result.Valid {
		t.Error("Expected invalid strategy")
	}
	// rule 0: missing target, bad operator, non-numeric value, bad logic;
	// rule 1: unknown indicator
	if len(result.Errors) != 5 {
		t.Errorf("Expected 5 errors, got %d: %v", len(result.Errors), result.Errors)
	}
	for _, e := range result.Errors[:4] {
		if !strings.HasPrefix(e, "entry_rules[0]") {
			t.Errorf("Expected error located at entry_rules[0], got %q", e)
		}
	}
	if !strings.HasPrefix(result.Errors[4], "entry_rules[1]") {
		t.Errorf("Expected error located at entry_rules[1], got %q", result.Errors[4])
	}
}

// TestValidateUnknownIndicator verifies the indicator whitelist
func TestValidateUnknownIndicator(t *testing.T) {
	strategy := &Strategy{
		ExitRules: []Rule{
			{Indicator: "ICHIMOKU", Operator: ">", Value: 1.0},
		},
	}

	result := NewParser().ValidateSyntax(strategy)

	if result.Valid {
		t.Error("Expected unknown indicator to be rejected")
	}
	if !strings.Contains(result.Errors[0], "ICHIMOKU") {
		t.Errorf("Expected error to name the indicator, got %q", result.Errors[0])
	}
}

// TestRuleNumericValue checks value coercion across JSON representations
func TestRuleNumericValue(t *testing.T) {
	tests := []struct {
		value    interface{}
		expected float64
		wantErr  bool
	}{
		{30.5, 30.5, false},
		{30, 30, false},
		{"0.75", 0.75, false},
		{"abc", 0, true},
		{true, 0, true},
	}

	for _, tt := range tests {
		rule := &Rule{Value: tt.value}
		got, err := rule.NumericValue()
		if tt.wantErr {
			if err == nil {
				t.Errorf("Expected error for value %v", tt.value)
			}
			continue
		}
		if err != nil {
			t.Errorf("Unexpected error for value %v: %v", tt.value, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("Value %v: expected %v, got %v", tt.value, tt.expected, got)
		}
	}
}
