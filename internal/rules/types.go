// Package rules implements the caller-supplied strategy rule DSL: syntax
// validation and deterministic rule evaluation against computed scores.
package rules

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Rule operators
const (
	OpGreater      = ">"
	OpLess         = "<"
	OpGreaterEqual = ">="
	OpLessEqual    = "<="
	OpEqual        = "=="
	OpNotEqual     = "!="
	OpCrossAbove   = "cross_above"
	OpCrossBelow   = "cross_below"
)

// knownOperators is the operator whitelist
var knownOperators = map[string]bool{
	OpGreater:      true,
	OpLess:         true,
	OpGreaterEqual: true,
	OpLessEqual:    true,
	OpEqual:        true,
	OpNotEqual:     true,
	OpCrossAbove:   true,
	OpCrossBelow:   true,
}

// Logic values combining the rules of one set
const (
	LogicAnd = "AND"
	LogicOr  = "OR"
)

// Rule is a single entry or exit condition. Exactly one of Indicator or
// Field addresses the comparison operand: Indicator names a whitelisted
// indicator, Field is a dot-path into the evaluation context.
type Rule struct {
	Indicator string      `json:"indicator,omitempty"`
	Field     string      `json:"field,omitempty"`
	Operator  string      `json:"operator"`
	Value     interface{} `json:"value"`
	Timeframe string      `json:"timeframe,omitempty"`
	Logic     string      `json:"logic,omitempty"`
}

// NumericValue parses the rule value as a float. JSON callers may send
// numbers or numeric strings.
func (r *Rule) NumericValue() (float64, error) {
	switch v := r.Value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not numeric", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("value %v is not numeric", r.Value)
	}
}

// Target returns the rule's operand reference for messages
func (r *Rule) Target() string {
	if r.Indicator != "" {
		return r.Indicator
	}
	return r.Field
}

// IndicatorSpec declares an indicator the strategy wants computed
type IndicatorSpec struct {
	Name       string                 `json:"name"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	Timeframe  string                 `json:"timeframe,omitempty"`
}

// Strategy is the caller-supplied rule set, immutable per request
type Strategy struct {
	EntryRules      []Rule          `json:"entry_rules"`
	ExitRules       []Rule          `json:"exit_rules"`
	Indicators      []IndicatorSpec `json:"indicators,omitempty"`
	Timeframe       string          `json:"timeframe,omitempty"`
	StopLossType    string          `json:"stop_loss_type,omitempty"`
	StopLossValue   float64         `json:"stop_loss_value,omitempty"`
	TakeProfitType  string          `json:"take_profit_type,omitempty"`
	TakeProfitValue float64         `json:"take_profit_value,omitempty"`
}

// HasRules reports whether the strategy carries any entry or exit rules.
// A ruleless strategy bypasses the executor entirely.
func (s *Strategy) HasRules() bool {
	return s != nil && (len(s.EntryRules) > 0 || len(s.ExitRules) > 0)
}

// ValidationResult is the outcome of strategy syntax validation
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}
