package rules

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Executor evaluates a validated strategy against computed scores and
// market data. Evaluation is purely deterministic: re-running Execute on
// identical inputs yields identical output.
type Executor struct {
	logger zerolog.Logger
}

// NewExecutor creates a strategy rule executor
func NewExecutor(logger zerolog.Logger) *Executor {
	return &Executor{logger: logger.With().Str("component", "rule_executor").Logger()}
}

// RuleDetail records the evaluation of one rule
type RuleDetail struct {
	Target   string  `json:"target"`
	Operator string  `json:"operator"`
	Value    float64 `json:"value"`
	Operand  float64 `json:"operand"`
	Met      bool    `json:"met"`
	Error    string  `json:"error,omitempty"`
}

// ExecutionResult is the outcome of evaluating a strategy
type ExecutionResult struct {
	Signal             string       `json:"signal"` // BUY, SELL or HOLD
	EntryConditionsMet bool         `json:"entry_conditions_met"`
	ExitConditionsMet  bool         `json:"exit_conditions_met"`
	Evaluated          bool         `json:"evaluated"` // false when the strategy has no rules
	EntryDetails       []RuleDetail `json:"entry_details,omitempty"`
	ExitDetails        []RuleDetail `json:"exit_details,omitempty"`
}

// Execute evaluates the strategy's exit and entry rule sets. Exit rules
// take precedence: when they are met the signal is SELL, otherwise met
// entry rules produce BUY, otherwise HOLD. A strategy without rules is
// not evaluated; the caller falls back to the fused action.
func (ex *Executor) Execute(strategy *Strategy, evalCtx *EvaluationContext, indicatorTable map[string]float64) *ExecutionResult {
	result := &ExecutionResult{Signal: "HOLD"}

	if !strategy.HasRules() {
		return result
	}
	result.Evaluated = true

	result.ExitConditionsMet, result.ExitDetails = ex.evaluateSet(strategy.ExitRules, evalCtx, indicatorTable)
	result.EntryConditionsMet, result.EntryDetails = ex.evaluateSet(strategy.EntryRules, evalCtx, indicatorTable)

	if len(strategy.ExitRules) > 0 && result.ExitConditionsMet {
		result.Signal = "SELL"
	} else if len(strategy.EntryRules) > 0 && result.EntryConditionsMet {
		result.Signal = "BUY"
	}

	ex.logger.Debug().
		Str("signal", result.Signal).
		Bool("entry_met", result.EntryConditionsMet).
		Bool("exit_met", result.ExitConditionsMet).
		Msg("strategy rules executed")

	return result
}

// evaluateSet evaluates one rule list and combines the per-rule outcomes
// under the set's resolved logic. The logic value is taken from the rules
// themselves; when rules disagree, the last rule's logic wins.
func (ex *Executor) evaluateSet(set []Rule, evalCtx *EvaluationContext, indicatorTable map[string]float64) (bool, []RuleDetail) {
	if len(set) == 0 {
		return false, nil
	}

	logic := LogicAnd
	details := make([]RuleDetail, 0, len(set))

	anyMet := false
	allMet := true

	for i := range set {
		rule := &set[i]
		if rule.Logic != "" {
			logic = rule.Logic
		}

		detail := ex.evaluateRule(rule, evalCtx, indicatorTable)
		details = append(details, detail)

		if detail.Met {
			anyMet = true
		} else {
			allMet = false
		}
	}

	if logic == LogicOr {
		return anyMet, details
	}
	return allMet, details
}

// evaluateRule resolves the rule's operand and compares it to the rule
// value. A rule that cannot be resolved is simply not met.
func (ex *Executor) evaluateRule(rule *Rule, evalCtx *EvaluationContext, indicatorTable map[string]float64) RuleDetail {
	detail := RuleDetail{
		Target:   rule.Target(),
		Operator: rule.Operator,
	}

	value, err := rule.NumericValue()
	if err != nil {
		detail.Error = err.Error()
		return detail
	}
	detail.Value = value

	operand, err := ex.resolveOperand(rule, evalCtx, indicatorTable)
	if err != nil {
		detail.Error = err.Error()
		return detail
	}
	detail.Operand = operand

	detail.Met = compare(operand, rule.Operator, value)
	return detail
}

func (ex *Executor) resolveOperand(rule *Rule, evalCtx *EvaluationContext, indicatorTable map[string]float64) (float64, error) {
	if rule.Indicator != "" {
		operand, ok := indicatorTable[rule.Indicator]
		if !ok {
			return 0, fmt.Errorf("indicator %q not computed", rule.Indicator)
		}
		return operand, nil
	}
	return evalCtx.Resolve(rule.Field)
}

// compare applies the rule operator. cross_above and cross_below are
// plain greater/less comparisons: there is no crossing memory between
// evaluations, matching the historical behavior callers depend on.
func compare(operand float64, operator string, value float64) bool {
	switch operator {
	case OpGreater, OpCrossAbove:
		return operand > value
	case OpLess, OpCrossBelow:
		return operand < value
	case OpGreaterEqual:
		return operand >= value
	case OpLessEqual:
		return operand <= value
	case OpEqual:
		return operand == value
	case OpNotEqual:
		return operand != value
	default:
		return false
	}
}
