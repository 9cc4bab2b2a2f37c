package indicators

import (
	"math"
	"testing"

	"signal-fusion-engine/internal/market"
)

// candlesFromCloses builds candles whose high/low straddle each close
func candlesFromCloses(closes ...float64) []market.Candle {
	candles := make([]market.Candle, len(closes))
	for i, c := range closes {
		candles[i] = market.Candle{
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 100,
		}
	}
	return candles
}

// TestSMA checks the simple moving average over the last period
func TestSMA(t *testing.T) {
	candles := candlesFromCloses(1, 2, 3, 4, 5)

	if got := SMA(candles, 3); got != 4 {
		t.Errorf("Expected SMA 4, got %v", got)
	}
	if got := SMA(candles, 5); got != 3 {
		t.Errorf("Expected SMA 3, got %v", got)
	}
	if got := SMA(candles, 10); got != 0 {
		t.Errorf("Expected 0 on insufficient data, got %v", got)
	}
	if got := SMA(candles, 0); got != 0 {
		t.Errorf("Expected 0 on zero period, got %v", got)
	}
}

// TestEMAConvergesToConstant verifies the EMA of a flat series is the price
func TestEMAConvergesToConstant(t *testing.T) {
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 100
	}

	if got := EMA(candlesFromCloses(closes...), 20); got != 100 {
		t.Errorf("Expected EMA 100 on flat series, got %v", got)
	}
}

// TestEMAWeightsRecentPrices verifies the EMA tracks a late breakout
// faster than the SMA
func TestEMAWeightsRecentPrices(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		if i < 30 {
			closes[i] = 100
		} else {
			closes[i] = 100 + 2*float64(i-29)
		}
	}
	candles := candlesFromCloses(closes...)

	ema := EMA(candles, 20)
	sma := SMA(candles, 20)
	if ema <= sma {
		t.Errorf("Expected EMA %v above SMA %v after a breakout", ema, sma)
	}
}

// TestRSI checks extremes and the insufficient-data fallback
func TestRSI(t *testing.T) {
	rising := candlesFromCloses(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16)
	if got := RSI(rising, 14); got != 100 {
		t.Errorf("Expected RSI 100 on pure gains, got %v", got)
	}

	falling := candlesFromCloses(16, 15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1)
	if got := RSI(falling, 14); got != 0 {
		t.Errorf("Expected RSI 0 on pure losses, got %v", got)
	}

	if got := RSI(candlesFromCloses(1, 2, 3), 14); got != 50 {
		t.Errorf("Expected neutral RSI 50 on insufficient data, got %v", got)
	}
}

// TestRSIBalanced verifies equal gains and losses score 50
func TestRSIBalanced(t *testing.T) {
	closes := make([]float64, 0, 20)
	price := 100.0
	for i := 0; i < 20; i++ {
		closes = append(closes, price)
		if i%2 == 0 {
			price += 2
		} else {
			price -= 2
		}
	}

	got := RSI(candlesFromCloses(closes...), 14)
	if math.Abs(got-50) > 1e-9 {
		t.Errorf("Expected RSI 50 on balanced moves, got %v", got)
	}
}

// TestMACDInsufficientData verifies the zero result below the minimum
// history
func TestMACDInsufficientData(t *testing.T) {
	result := MACD(candlesFromCloses(1, 2, 3), 12, 26, 9)
	if result == nil {
		t.Fatal("Expected a zero result, not nil")
	}
	if result.MACD != 0 || result.Signal != 0 || result.Histogram != 0 {
		t.Errorf("Expected zero MACD values, got %+v", result)
	}
}

// TestMACDUptrend verifies the MACD line is positive when price
// accelerates upward
func TestMACDUptrend(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)*2
	}

	result := MACD(candlesFromCloses(closes...), 12, 26, 9)
	if result.MACD <= 0 {
		t.Errorf("Expected positive MACD in an uptrend, got %v", result.MACD)
	}
}

// TestMACDFlat verifies a flat series yields a zero MACD line
func TestMACDFlat(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}

	result := MACD(candlesFromCloses(closes...), 12, 26, 9)
	if result.MACD != 0 || result.Histogram != 0 {
		t.Errorf("Expected zero MACD on flat series, got %+v", result)
	}
}

// TestATR checks the true-range average on a constant-range series
func TestATR(t *testing.T) {
	// every candle spans 2 around its close and closes flat
	candles := candlesFromCloses(100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100)

	if got := ATR(candles, 14); got != 2 {
		t.Errorf("Expected ATR 2 on constant 2-point ranges, got %v", got)
	}
	if got := ATR(candles[:5], 14); got != 0 {
		t.Errorf("Expected 0 on insufficient data, got %v", got)
	}
}

// TestROC checks the rate-of-change percentage
func TestROC(t *testing.T) {
	candles := candlesFromCloses(100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110, 111, 112)

	// 12 candles back from 112 is 100
	if got := ROC(candles, 12); got != 12 {
		t.Errorf("Expected ROC 12%%, got %v", got)
	}
	if got := ROC(candles, 20); got != 0 {
		t.Errorf("Expected 0 on insufficient data, got %v", got)
	}
}

// TestOBV checks the cumulative volume direction
func TestOBV(t *testing.T) {
	candles := candlesFromCloses(100, 101, 102, 101, 103)

	// +100 +100 -100 +100
	if got := OBV(candles); got != 200 {
		t.Errorf("Expected OBV 200, got %v", got)
	}
}

// TestStructureBullish verifies rising swing points score positive
func TestStructureBullish(t *testing.T) {
	// peaks every four candles, each above the last
	closes := []float64{10, 11, 12, 11, 10.5, 12.5, 13, 12, 11, 13.5, 14, 13, 11.5, 14.5, 15, 13, 12}
	candles := candlesFromCloses(closes...)

	result := Structure(candles)
	if result.Score <= 0 {
		t.Errorf("Expected positive structure score, got %v", result.Score)
	}
	if result.HigherHighs == 0 {
		t.Error("Expected higher highs to be detected")
	}
}

// TestStructureBearish verifies falling swing points score negative
func TestStructureBearish(t *testing.T) {
	closes := []float64{12, 13, 15, 14.5, 11.5, 13, 14, 13.5, 11, 12, 13, 12.5, 10.5, 11, 12, 11, 10}
	candles := candlesFromCloses(closes...)

	result := Structure(candles)
	if result.Score >= 0 {
		t.Errorf("Expected negative structure score, got %v", result.Score)
	}
}

// TestStructureInsufficientData verifies short series yield a zero result
func TestStructureInsufficientData(t *testing.T) {
	result := Structure(candlesFromCloses(1, 2, 3))
	if result == nil {
		t.Fatal("Expected a zero result, not nil")
	}
	if result.Score != 0 {
		t.Errorf("Expected zero score on short series, got %v", result.Score)
	}
}

// TestBuildTableKeys verifies every whitelisted indicator appears in the
// table even without data
func TestBuildTableKeys(t *testing.T) {
	table := BuildTable(nil)

	for _, name := range KnownNames {
		if _, ok := table[name]; !ok {
			t.Errorf("Expected table to contain %s", name)
		}
	}
	if table[NameRSI] != 50 {
		t.Errorf("Expected neutral RSI 50 without data, got %v", table[NameRSI])
	}
}

// TestIsKnownName checks the whitelist lookup
func TestIsKnownName(t *testing.T) {
	if !IsKnownName("RSI") {
		t.Error("Expected RSI to be known")
	}
	if IsKnownName("rsi") {
		t.Error("Expected the whitelist to be case sensitive")
	}
	if IsKnownName("SUPERTREND") {
		t.Error("Expected unknown names to be rejected")
	}
}
