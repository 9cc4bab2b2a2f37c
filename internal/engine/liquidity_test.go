package engine

import (
	"context"
	"math"
	"testing"

	"signal-fusion-engine/internal/market"

	"github.com/rs/zerolog"
)

// balancedBook builds a deep, tight, balanced order book with no single
// dominant resting order
func balancedBook() *market.OrderBook {
	ob := &market.OrderBook{}
	for i := 0; i < 20; i++ {
		ob.Bids = append(ob.Bids, market.BookLevel{Price: 99.95 - float64(i)*0.01, Quantity: 1})
		ob.Asks = append(ob.Asks, market.BookLevel{Price: 100.05 + float64(i)*0.01, Quantity: 1})
	}
	return ob
}

func liquidityRequest(input *LiquidityInput) *Request {
	return &Request{
		AssetID:   "ETH",
		AssetType: AssetTypeCrypto,
		Inputs:    Inputs{Liquidity: input},
	}
}

// TestLiquidityNoData verifies neutral degradation when neither book nor
// volume is available
func TestLiquidityNoData(t *testing.T) {
	e := NewLiquidityEngine(zerolog.Nop())

	score := e.Calculate(context.Background(), liquidityRequest(&LiquidityInput{}))

	if score.Score != 0 || score.Confidence != 0 {
		t.Errorf("Expected neutral {0, 0}, got {%v, %v}", score.Score, score.Confidence)
	}
}

// TestLiquidityHealthyBook checks a tight balanced book with normal
// volume scores strongly positive with full confidence
func TestLiquidityHealthyBook(t *testing.T) {
	e := NewLiquidityEngine(zerolog.Nop())

	input := &LiquidityInput{
		OrderBook:     balancedBook(),
		Volume24h:     1000,
		AverageVolume: 1000,
	}

	score := e.Calculate(context.Background(), liquidityRequest(input))

	// spread, depth and slippage components all saturate at +1; the
	// volume ratio of exactly 1 contributes zero
	if math.Abs(score.Score-0.8) > 1e-9 {
		t.Errorf("Expected score 0.8, got %v", score.Score)
	}
	if score.Confidence != 1.0 {
		t.Errorf("Expected full confidence with all components present, got %v", score.Confidence)
	}
}

// TestLiquidityVolumeOnly verifies confidence reflects the missing book
func TestLiquidityVolumeOnly(t *testing.T) {
	e := NewLiquidityEngine(zerolog.Nop())

	input := &LiquidityInput{
		Volume24h:     1500,
		AverageVolume: 1000,
	}

	score := e.Calculate(context.Background(), liquidityRequest(input))

	// volume ratio 1.5 contributes 0.2 * 0.5
	if math.Abs(score.Score-0.1) > 1e-9 {
		t.Errorf("Expected score 0.1, got %v", score.Score)
	}
	if math.Abs(score.Confidence-0.2) > 1e-9 {
		t.Errorf("Expected confidence 0.2 with only volume present, got %v", score.Confidence)
	}
}

// TestLiquidityDepthImbalance verifies a one-sided book zeroes the depth
// component
func TestLiquidityDepthImbalance(t *testing.T) {
	e := NewLiquidityEngine(zerolog.Nop())

	ob := &market.OrderBook{}
	for i := 0; i < 30; i++ {
		ob.Bids = append(ob.Bids, market.BookLevel{Price: 99.95 - float64(i)*0.01, Quantity: 1})
	}
	for i := 0; i < 10; i++ {
		ob.Asks = append(ob.Asks, market.BookLevel{Price: 100.05 + float64(i)*0.01, Quantity: 1})
	}

	// imbalance 0.5 gives a raw depth score of 0
	depth := e.depthScore(ob)
	if depth != 0 {
		t.Errorf("Expected depth score 0 for 3:1 imbalance, got %v", depth)
	}
}

// TestLiquidityLargeOrderPenalty verifies a dominant resting order
// discounts the depth score
func TestLiquidityLargeOrderPenalty(t *testing.T) {
	e := NewLiquidityEngine(zerolog.Nop())

	ob := balancedBook()
	base := e.depthScore(ob)

	// One ask now holds half the side's visible depth
	ob.Asks[0].Quantity = 19

	penalized := e.depthScore(ob)
	if penalized >= base {
		t.Errorf("Expected large-order book to score below %v, got %v", base, penalized)
	}
}

// TestInterpolateInverse checks the calibration bounds and midpoint
func TestInterpolateInverse(t *testing.T) {
	if interpolateInverse(0.05, 0.1, 2.0) != 1 {
		t.Error("Value below tight bound should score +1")
	}
	if interpolateInverse(2.5, 0.1, 2.0) != -1 {
		t.Error("Value above wide bound should score -1")
	}
	mid := interpolateInverse(1.05, 0.1, 2.0)
	if math.Abs(mid) > 1e-9 {
		t.Errorf("Expected midpoint to score 0, got %v", mid)
	}
}

// TestLiquidityVolumeRatioClamped verifies extreme volume spikes stay in
// range
func TestLiquidityVolumeRatioClamped(t *testing.T) {
	e := NewLiquidityEngine(zerolog.Nop())

	input := &LiquidityInput{
		Volume24h:     10000,
		AverageVolume: 100,
	}

	score := e.Calculate(context.Background(), liquidityRequest(input))

	// ratio 100 clamps the component to +1, weighted 0.2
	if math.Abs(score.Score-0.2) > 1e-9 {
		t.Errorf("Expected clamped score 0.2, got %v", score.Score)
	}
}
