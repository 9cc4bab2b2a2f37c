package engine

import (
	"context"
	"math"
	"testing"

	"signal-fusion-engine/internal/market"

	"github.com/rs/zerolog"
)

// flatCandles builds n candles at a constant price
func flatCandles(n int, price float64) []market.Candle {
	candles := make([]market.Candle, n)
	for i := range candles {
		candles[i] = market.Candle{
			Open:  price,
			High:  price,
			Low:   price,
			Close: price,
		}
	}
	return candles
}

// risingCandles builds n candles with linearly increasing closes
func risingCandles(n int, start, step float64) []market.Candle {
	candles := make([]market.Candle, n)
	for i := range candles {
		price := start + float64(i)*step
		candles[i] = market.Candle{
			Open:  price,
			High:  price,
			Low:   price,
			Close: price,
		}
	}
	return candles
}

func trendRequest(timeframe string, series map[string][]market.Candle) *Request {
	return &Request{
		AssetID:   "BTC",
		AssetType: AssetTypeCrypto,
		Timeframe: timeframe,
		Inputs:    Inputs{Technical: &TechnicalInput{Series: series}},
	}
}

// TestTrendNoData verifies neutral degradation without candle series
func TestTrendNoData(t *testing.T) {
	e := NewTechnicalEngine(zerolog.Nop())

	score := e.Calculate(context.Background(), &Request{AssetID: "BTC", AssetType: AssetTypeCrypto})

	if score.Score != 0 || score.Confidence != 0 {
		t.Errorf("Expected neutral {0, 0}, got {%v, %v}", score.Score, score.Confidence)
	}
}

// TestTrendInsufficientHistory verifies every composite term dropping out
// yields a neutral score
func TestTrendInsufficientHistory(t *testing.T) {
	e := NewTechnicalEngine(zerolog.Nop())

	series := map[string][]market.Candle{
		"1h": flatCandles(4, 100),
	}

	score := e.Calculate(context.Background(), trendRequest("1h", series))

	if score.Score != 0 || score.Confidence != 0 {
		t.Errorf("Expected neutral with too little history, got {%v, %v}", score.Score, score.Confidence)
	}
}

// TestTrendROCMomentum checks the rate-of-change term with only hourly
// data available
func TestTrendROCMomentum(t *testing.T) {
	e := NewTechnicalEngine(zerolog.Nop())

	series := map[string][]market.Candle{
		"1h": risingCandles(30, 100, 1),
	}

	score := e.Calculate(context.Background(), trendRequest("1h", series))

	// ROC over 12 candles is well above the 5% saturation point, so the
	// momentum term contributes its full 0.2. A monotonic series has no
	// confirmed swing points, so structure contributes zero score but
	// still counts toward confidence.
	if math.Abs(score.Score-0.2) > 1e-9 {
		t.Errorf("Expected score 0.2, got %v", score.Score)
	}
	if math.Abs(score.Confidence-0.3) > 1e-9 {
		t.Errorf("Expected confidence 0.3, got %v", score.Confidence)
	}
}

// TestTrendDailyGoldenCross checks MA50 above MA200 drives the daily term
// positive
func TestTrendDailyGoldenCross(t *testing.T) {
	e := NewTechnicalEngine(zerolog.Nop())

	daily := append(flatCandles(160, 100), flatCandles(50, 110)...)

	score := e.Calculate(context.Background(), trendRequest("", map[string][]market.Candle{"1d": daily}))

	// MA50 is 110, MA200 is 102.5; the 7.3% spread saturates the daily
	// term at its full 0.4 weight
	if math.Abs(score.Score-0.4) > 1e-9 {
		t.Errorf("Expected score 0.4, got %v", score.Score)
	}
	if math.Abs(score.Confidence-0.5) > 1e-9 {
		t.Errorf("Expected confidence 0.5 (daily MA plus structure), got %v", score.Confidence)
	}
	if score.Metadata["ma50_1d"] != 110.0 {
		t.Errorf("Expected ma50_1d 110, got %v", score.Metadata["ma50_1d"])
	}
}

// TestTrendDailyDeathCross checks MA50 below MA200 drives the daily term
// negative
func TestTrendDailyDeathCross(t *testing.T) {
	e := NewTechnicalEngine(zerolog.Nop())

	daily := append(flatCandles(160, 100), flatCandles(50, 90)...)

	score := e.Calculate(context.Background(), trendRequest("", map[string][]market.Candle{"1d": daily}))

	if math.Abs(score.Score-(-0.4)) > 1e-9 {
		t.Errorf("Expected score -0.4, got %v", score.Score)
	}
}

// TestTrendPrimarySeriesSelection verifies the requested timeframe wins
// and the longest horizon is the fallback
func TestTrendPrimarySeriesSelection(t *testing.T) {
	e := NewTechnicalEngine(zerolog.Nop())

	daily := flatCandles(10, 100)
	hourly := flatCandles(20, 200)
	series := map[string][]market.Candle{"1d": daily, "1h": hourly}

	picked := e.primarySeries("1h", series)
	if len(picked) != 20 || picked[0].Close != 200 {
		t.Error("Expected the requested timeframe's series to be primary")
	}

	picked = e.primarySeries("", series)
	if len(picked) != 10 || picked[0].Close != 100 {
		t.Error("Expected the daily series as fallback primary")
	}
}
