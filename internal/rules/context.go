package rules

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"signal-fusion-engine/internal/engine"
	"signal-fusion-engine/internal/fusion"
)

// EvaluationContext exposes the structures a rule field path may address.
// Paths resolve through typed accessors rather than reflection; the set of
// resolvable paths is closed.
type EvaluationContext struct {
	Fusion       *fusion.Result
	EngineScores engine.EngineScoreSet
	MarketData   map[string]interface{}
}

// Resolve looks up a dotted field path and returns its numeric value.
//
// Supported forms:
//
//	final_score                          alias for the fused score
//	fusion.score, fusion.confidence      fused result fields
//	engine_scores.<engine>.<field>       engine score/confidence
//	<engine>.<field>                     shorthand for the above
//	market_data.<key>[.<key>...]         market data lookup
//	<key>[.<key>...]                     market data lookup, bare form
func (c *EvaluationContext) Resolve(path string) (float64, error) {
	if path == "" {
		return 0, fmt.Errorf("empty field path")
	}

	parts := strings.Split(path, ".")

	switch parts[0] {
	case "final_score":
		if c.Fusion == nil {
			return 0, fmt.Errorf("no fusion result available")
		}
		return c.Fusion.Score, nil

	case "fusion", "fusion_result":
		return c.resolveFusion(parts[1:], path)

	case "engine_scores":
		return c.resolveEngineScore(parts[1:], path)

	case engine.NameSentiment, engine.NameTrend, engine.NameFundamental,
		engine.NameLiquidity, engine.NameEventRisk:
		return c.resolveEngineScore(parts, path)

	case "market_data", "market":
		return c.resolveMarketData(parts[1:], path)

	default:
		return c.resolveMarketData(parts, path)
	}
}

func (c *EvaluationContext) resolveFusion(parts []string, path string) (float64, error) {
	if c.Fusion == nil {
		return 0, fmt.Errorf("no fusion result available")
	}
	if len(parts) != 1 {
		return 0, fmt.Errorf("unresolvable field path %q", path)
	}

	switch parts[0] {
	case "score":
		return c.Fusion.Score, nil
	case "confidence":
		return c.Fusion.Confidence, nil
	default:
		return 0, fmt.Errorf("unknown fusion field %q", parts[0])
	}
}

func (c *EvaluationContext) resolveEngineScore(parts []string, path string) (float64, error) {
	if len(parts) != 2 {
		return 0, fmt.Errorf("unresolvable field path %q", path)
	}

	score, ok := c.EngineScores[parts[0]]
	if !ok {
		return 0, fmt.Errorf("unknown engine %q", parts[0])
	}

	switch parts[1] {
	case "score":
		return score.Score, nil
	case "confidence":
		return score.Confidence, nil
	default:
		return 0, fmt.Errorf("unknown engine score field %q", parts[1])
	}
}

func (c *EvaluationContext) resolveMarketData(parts []string, path string) (float64, error) {
	if len(parts) == 0 {
		return 0, fmt.Errorf("unresolvable field path %q", path)
	}

	var current interface{} = c.MarketData
	for _, key := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return 0, fmt.Errorf("field path %q does not resolve to a value", path)
		}
		current, ok = m[key]
		if !ok {
			return 0, fmt.Errorf("field path %q not found in market data", path)
		}
	}

	return toFloat(current, path)
}

func toFloat(v interface{}, path string) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case json.Number:
		return val.Float64()
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("field path %q resolves to non-numeric value %q", path, val)
		}
		return f, nil
	case bool:
		if val {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("field path %q resolves to non-numeric value", path)
	}
}
