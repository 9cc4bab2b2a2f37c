// Package signal orchestrates the scoring engines, fusion, strategy rules
// and confidence sizing into one trading signal per request.
package signal

import (
	"strings"
	"time"

	"signal-fusion-engine/internal/confidence"
	"signal-fusion-engine/internal/engine"
	"signal-fusion-engine/internal/fusion"
	"signal-fusion-engine/internal/market"
	"signal-fusion-engine/internal/rules"
)

// GenerateRequest is the full input for one signal generation call. All
// market inputs are optional: engines degrade to neutral scores on
// missing data.
type GenerateRequest struct {
	StrategyID     string                     `json:"strategy_id"`
	AssetID        string                     `json:"asset_id"`
	AssetType      string                     `json:"asset_type"` // crypto or stock
	Strategy       *rules.Strategy            `json:"strategy,omitempty"`
	MarketData     map[string]interface{}     `json:"market_data,omitempty"`
	OHLCV          map[string][]market.Candle `json:"ohlcv_data,omitempty"`
	OrderBook      *market.OrderBook          `json:"order_book,omitempty"`
	Sentiment      []market.SentimentItem     `json:"sentiment,omitempty"`
	Fundamentals   *market.FundamentalMetrics `json:"fundamentals,omitempty"`
	Events         []market.Event             `json:"events,omitempty"`
	PortfolioValue float64                    `json:"portfolio_value,omitempty"`
	RiskLevel      string                     `json:"risk_level,omitempty"` // low, medium, high
	MaxAllocation  float64                    `json:"max_allocation,omitempty"`
	ConnectionID   string                     `json:"connection_id,omitempty"`
	Exchange       string                     `json:"exchange,omitempty"`
	Volume24h      float64                    `json:"volume_24h,omitempty"`
	AverageVolume  float64                    `json:"average_volume,omitempty"`
	RetrievedAt    time.Time                  `json:"retrieved_at,omitempty"` // when market data was fetched
}

// Signal is the final immutable output of one generation request. Callers
// always receive a well-formed signal; on internal failure the action is
// HOLD and Error carries the reason.
type Signal struct {
	ID                string                    `json:"id"`
	StrategyID        string                    `json:"strategy_id"`
	AssetID           string                    `json:"asset_id"`
	AssetType         string                    `json:"asset_type"`
	Timestamp         time.Time                 `json:"timestamp"`
	FinalScore        float64                   `json:"final_score"`
	Action            fusion.Action             `json:"action"`
	Confidence        float64                   `json:"confidence"`
	EngineScores      engine.EngineScoreSet     `json:"engine_scores"`
	StrategyExecution *rules.ExecutionResult    `json:"strategy_execution,omitempty"`
	PositionSizing    *confidence.Result        `json:"position_sizing,omitempty"`
	Metadata          map[string]interface{}    `json:"metadata,omitempty"`
	Error             string                    `json:"error,omitempty"`
}

// ValidationError is the only caller-visible failure mode: the request was
// rejected before any engine ran.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "invalid signal request: " + strings.Join(e.Errors, "; ")
}
