package engine

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"signal-fusion-engine/internal/market"
)

// Liquidity component weights
const (
	liquidityWeightSpread      = 0.4
	liquidityWeightDepth       = 0.3
	liquidityWeightVolumeRatio = 0.2
	liquidityWeightSlippage    = 0.1
)

// Calibrated interpolation bounds, as percentages
const (
	spreadTightPct = 0.1 // spread below this scores +1
	spreadWidePct  = 2.0 // spread above this scores -1

	slippageTightPct = 0.1
	slippageWidePct  = 1.0
)

// largeOrderDepthFraction marks a single resting order as "large" when it
// exceeds this fraction of its side's visible depth
const largeOrderDepthFraction = 0.10

// largeOrderPenalty is applied to the depth score when a large single
// order is present
const largeOrderPenalty = 0.8

// LiquidityEngine scores how cheaply a position could be entered and
// exited, from spread, book depth, volume and estimated slippage.
type LiquidityEngine struct {
	logger zerolog.Logger
}

// NewLiquidityEngine creates the liquidity scoring engine
func NewLiquidityEngine(logger zerolog.Logger) *LiquidityEngine {
	return &LiquidityEngine{logger: logger.With().Str("engine", NameLiquidity).Logger()}
}

func (e *LiquidityEngine) Name() string { return NameLiquidity }

// Calculate combines spread, depth, volume-ratio and slippage scores
func (e *LiquidityEngine) Calculate(ctx context.Context, req *Request) EngineScore {
	input := req.Inputs.Liquidity
	if input == nil {
		return Neutral("no liquidity data available")
	}

	hasBook := input.OrderBook != nil && len(input.OrderBook.Bids) > 0 && len(input.OrderBook.Asks) > 0
	hasVolume := input.AverageVolume > 0

	if !hasBook && !hasVolume {
		return Neutral("no order book or volume data available")
	}

	var score float64
	var availableWeight float64
	metadata := make(map[string]interface{})

	if hasBook {
		spreadPct := spreadPercent(input.OrderBook)
		spreadScore := interpolateInverse(spreadPct, spreadTightPct, spreadWidePct)
		score += liquidityWeightSpread * spreadScore
		availableWeight += liquidityWeightSpread
		metadata["spread_pct"] = spreadPct

		depthScore := e.depthScore(input.OrderBook)
		score += liquidityWeightDepth * depthScore
		availableWeight += liquidityWeightDepth
		metadata["depth_score"] = depthScore

		slippagePct := estimateSlippagePercent(input.OrderBook)
		slippageScore := interpolateInverse(slippagePct, slippageTightPct, slippageWidePct)
		score += liquidityWeightSlippage * slippageScore
		availableWeight += liquidityWeightSlippage
		metadata["slippage_pct"] = slippagePct
	}

	if hasVolume {
		ratio := input.Volume24h / input.AverageVolume
		volumeScore := ClampScore(ratio - 1.0)
		score += liquidityWeightVolumeRatio * volumeScore
		availableWeight += liquidityWeightVolumeRatio
		metadata["volume_ratio"] = ratio
	}

	e.logger.Debug().
		Str("asset_id", req.AssetID).
		Float64("score", score).
		Msg("liquidity scored")

	return EngineScore{
		Score:      ClampScore(score),
		Confidence: ClampConfidence(availableWeight),
		Metadata:   metadata,
	}
}

// depthScore rewards a balanced book and penalizes imbalance plus large
// single resting orders
func (e *LiquidityEngine) depthScore(ob *market.OrderBook) float64 {
	bidDepth, maxBid := sideDepth(ob.Bids)
	askDepth, maxAsk := sideDepth(ob.Asks)

	total := bidDepth + askDepth
	if total == 0 {
		return 0
	}

	imbalance := math.Abs(bidDepth-askDepth) / total
	score := ClampScore(1 - 2*imbalance)

	largeOrder := (bidDepth > 0 && maxBid/bidDepth > largeOrderDepthFraction) ||
		(askDepth > 0 && maxAsk/askDepth > largeOrderDepthFraction)
	if largeOrder {
		score *= largeOrderPenalty
	}

	return score
}

func sideDepth(levels []market.BookLevel) (total, max float64) {
	for _, l := range levels {
		total += l.Quantity
		if l.Quantity > max {
			max = l.Quantity
		}
	}
	return total, max
}

// spreadPercent returns the bid/ask spread as a percentage of the midpoint
func spreadPercent(ob *market.OrderBook) float64 {
	bid := ob.BestBid().Price
	ask := ob.BestAsk().Price
	mid := (bid + ask) / 2
	if mid == 0 {
		return spreadWidePct
	}
	return (ask - bid) / mid * 100
}

// estimateSlippagePercent walks the ask side for a reference order sized
// at 10% of visible ask depth and returns the VWAP premium over best ask
func estimateSlippagePercent(ob *market.OrderBook) float64 {
	bestAsk := ob.BestAsk().Price
	if bestAsk == 0 {
		return slippageWidePct
	}

	totalDepth, _ := sideDepth(ob.Asks)
	target := totalDepth * largeOrderDepthFraction
	if target == 0 {
		return slippageWidePct
	}

	var filled, cost float64
	for _, level := range ob.Asks {
		qty := level.Quantity
		if filled+qty > target {
			qty = target - filled
		}
		filled += qty
		cost += qty * level.Price
		if filled >= target {
			break
		}
	}

	if filled == 0 {
		return slippageWidePct
	}

	vwap := cost / filled
	return (vwap - bestAsk) / bestAsk * 100
}

// interpolateInverse maps value onto [-1, 1]: at or below tight it scores
// +1, at or above wide it scores -1, linear in between
func interpolateInverse(value, tight, wide float64) float64 {
	if value <= tight {
		return 1
	}
	if value >= wide {
		return -1
	}
	return 1 - 2*((value-tight)/(wide-tight))
}
