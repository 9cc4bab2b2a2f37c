package rules

import (
	"fmt"

	"signal-fusion-engine/internal/indicators"
)

// Parser validates strategy rule syntax before execution
type Parser struct{}

// NewParser creates a strategy rule parser
func NewParser() *Parser {
	return &Parser{}
}

// ValidateSyntax checks every rule in the strategy and collects all
// problems instead of stopping at the first. It never returns an error;
// invalid syntax is reported through the result.
func (p *Parser) ValidateSyntax(strategy *Strategy) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if strategy == nil {
		result.Valid = false
		result.Errors = append(result.Errors, "strategy is required")
		return result
	}

	for i := range strategy.EntryRules {
		p.validateRule(&strategy.EntryRules[i], fmt.Sprintf("entry_rules[%d]", i), result)
	}
	for i := range strategy.ExitRules {
		p.validateRule(&strategy.ExitRules[i], fmt.Sprintf("exit_rules[%d]", i), result)
	}

	return result
}

func (p *Parser) validateRule(rule *Rule, location string, result *ValidationResult) {
	if rule.Indicator == "" && rule.Field == "" {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("%s: rule must reference an indicator or a field", location))
	}

	if rule.Indicator != "" && !indicators.IsKnownName(rule.Indicator) {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("%s: unknown indicator %q", location, rule.Indicator))
	}

	if !knownOperators[rule.Operator] {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("%s: unknown operator %q", location, rule.Operator))
	}

	if _, err := rule.NumericValue(); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", location, err))
	}

	if rule.Logic != "" && rule.Logic != LogicAnd && rule.Logic != LogicOr {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("%s: logic must be %q or %q", location, LogicAnd, LogicOr))
	}
}
