// Package engine defines the scoring engine contract and its five
// implementations: sentiment, trend, fundamental, liquidity and event risk.
// Every engine turns domain inputs into a normalized (score, confidence)
// pair; engine failure always degrades to a neutral score, never an error.
package engine

import (
	"fmt"
	"time"

	"signal-fusion-engine/internal/market"
)

// AssetType identifies the asset class being scored
type AssetType string

const (
	AssetTypeCrypto AssetType = "crypto"
	AssetTypeStock  AssetType = "stock"
)

// Valid reports whether the asset type is a supported value
func (t AssetType) Valid() bool {
	return t == AssetTypeCrypto || t == AssetTypeStock
}

// Engine names, used as EngineScoreSet keys and fusion weight keys.
const (
	NameSentiment   = "sentiment"
	NameTrend       = "trend"
	NameFundamental = "fundamental"
	NameLiquidity   = "liquidity"
	NameEventRisk   = "event_risk"
)

// EngineScore is the normalized output of one scoring engine
type EngineScore struct {
	Score      float64                `json:"score"`      // -1 to +1
	Confidence float64                `json:"confidence"` // 0 to 1
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// EngineScoreSet maps engine name to its score for one request
type EngineScoreSet map[string]EngineScore

// ClampScore bounds a score to [-1, 1]
func ClampScore(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// ClampConfidence bounds a confidence to [0, 1]
func ClampConfidence(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

// Neutral builds the graceful-degradation score: zero score, zero
// confidence, with the failure reason recorded in metadata.
func Neutral(reason string) EngineScore {
	return EngineScore{
		Score:      0,
		Confidence: 0,
		Metadata:   map[string]interface{}{"error": reason},
	}
}

// Neutralf is Neutral with a formatted reason
func Neutralf(format string, args ...interface{}) EngineScore {
	return Neutral(fmt.Sprintf(format, args...))
}

// SentimentInput carries already-scored sentiment items for aggregation
type SentimentInput struct {
	Items []market.SentimentItem `json:"items"`
}

// TechnicalInput carries OHLCV candle series keyed by timeframe ("1h",
// "4h", "1d"). Any timeframe may be missing; missing data contributes a
// zero term to the composite, not an error.
type TechnicalInput struct {
	Series map[string][]market.Candle `json:"series"`
}

// FundamentalInput carries the normalized fundamental metrics from the
// external metrics provider
type FundamentalInput struct {
	Fundamentals *market.FundamentalMetrics `json:"fundamentals"`
}

// LiquidityInput carries order book and volume data
type LiquidityInput struct {
	OrderBook     *market.OrderBook `json:"order_book"`
	Volume24h     float64           `json:"volume_24h"`
	AverageVolume float64           `json:"average_volume"`
}

// EventRiskInput carries upcoming events and the evaluation time
type EventRiskInput struct {
	Events []market.Event `json:"events"`
	Now    time.Time      `json:"now"`
}

// Inputs bundles the typed per-engine inputs for one request. Each engine
// reads only its own field; a nil field means no data was supplied.
type Inputs struct {
	Sentiment   *SentimentInput
	Technical   *TechnicalInput
	Fundamental *FundamentalInput
	Liquidity   *LiquidityInput
	EventRisk   *EventRiskInput
}

// Request is the validated input for one engine calculation
type Request struct {
	AssetID   string
	AssetType AssetType
	Timeframe string
	Inputs    Inputs
}

// Validate returns the list of validation problems, empty when the
// request is well-formed
func (r *Request) Validate() []string {
	var errs []string
	if r.AssetID == "" {
		errs = append(errs, "asset_id is required")
	}
	if !r.AssetType.Valid() {
		errs = append(errs, fmt.Sprintf("asset_type must be %q or %q", AssetTypeCrypto, AssetTypeStock))
	}
	return errs
}
