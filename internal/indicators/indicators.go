// Package indicators implements the technical indicator math used by the
// technical scoring engine and the strategy rule table.
package indicators

import (
	"math"

	"signal-fusion-engine/internal/market"
)

// ============================================================================
// MOVING AVERAGES
// ============================================================================

// SMA calculates the Simple Moving Average of closes over the last period candles
func SMA(candles []market.Candle, period int) float64 {
	if period <= 0 || len(candles) < period {
		return 0
	}

	sum := 0.0
	for i := len(candles) - period; i < len(candles); i++ {
		sum += candles[i].Close
	}

	return sum / float64(period)
}

// EMA calculates the Exponential Moving Average of closes
func EMA(candles []market.Candle, period int) float64 {
	if period <= 0 || len(candles) < period {
		return 0
	}

	// Seed with the SMA of the first window, then walk forward
	ema := SMA(candles[:period], period)
	multiplier := 2.0 / float64(period+1)

	for i := period; i < len(candles); i++ {
		ema = (candles[i].Close * multiplier) + (ema * (1 - multiplier))
	}

	return ema
}

// ============================================================================
// RSI
// ============================================================================

// RSI calculates the Relative Strength Index; returns 50 on insufficient data
func RSI(candles []market.Candle, period int) float64 {
	if period <= 0 || len(candles) < period+1 {
		return 50.0
	}

	gains := 0.0
	losses := 0.0

	for i := len(candles) - period; i < len(candles); i++ {
		change := candles[i].Close - candles[i-1].Close
		if change > 0 {
			gains += change
		} else {
			losses += -change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100.0
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// ============================================================================
// MACD
// ============================================================================

// MACDResult holds MACD indicator values
type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// MACD calculates the MACD line, signal line and histogram. The signal line
// is a real EMA over the MACD series, which requires slow+signal candles.
func MACD(candles []market.Candle, fastPeriod, slowPeriod, signalPeriod int) *MACDResult {
	if len(candles) < slowPeriod+signalPeriod {
		return &MACDResult{}
	}

	// Build the MACD series over the tail so the signal EMA has history
	macdSeries := make([]float64, 0, signalPeriod*2)
	for i := slowPeriod; i <= len(candles); i++ {
		fast := EMA(candles[:i], fastPeriod)
		slow := EMA(candles[:i], slowPeriod)
		macdSeries = append(macdSeries, fast-slow)
	}

	macdLine := macdSeries[len(macdSeries)-1]
	signalLine := emaOfSeries(macdSeries, signalPeriod)

	return &MACDResult{
		MACD:      macdLine,
		Signal:    signalLine,
		Histogram: macdLine - signalLine,
	}
}

func emaOfSeries(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		if len(values) == 0 {
			return 0
		}
		return values[len(values)-1]
	}

	ema := 0.0
	for i := 0; i < period; i++ {
		ema += values[i]
	}
	ema /= float64(period)

	multiplier := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		ema = (values[i] * multiplier) + (ema * (1 - multiplier))
	}

	return ema
}

// ============================================================================
// BOLLINGER BANDS
// ============================================================================

// BollingerResult holds Bollinger Band values
type BollingerResult struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// Bollinger calculates Bollinger Bands around an SMA midline
func Bollinger(candles []market.Candle, period int, stdDevMultiplier float64) *BollingerResult {
	if period <= 0 || len(candles) < period {
		return &BollingerResult{}
	}

	middle := SMA(candles, period)

	variance := 0.0
	for i := len(candles) - period; i < len(candles); i++ {
		diff := candles[i].Close - middle
		variance += diff * diff
	}
	stdDev := math.Sqrt(variance / float64(period))

	return &BollingerResult{
		Upper:  middle + (stdDev * stdDevMultiplier),
		Middle: middle,
		Lower:  middle - (stdDev * stdDevMultiplier),
	}
}

// ============================================================================
// ATR
// ============================================================================

// ATR calculates the Average True Range
func ATR(candles []market.Candle, period int) float64 {
	if period <= 0 || len(candles) < period+1 {
		return 0
	}

	trSum := 0.0
	for i := len(candles) - period; i < len(candles); i++ {
		high := candles[i].High
		low := candles[i].Low
		prevClose := candles[i-1].Close

		tr := math.Max(
			high-low,
			math.Max(
				math.Abs(high-prevClose),
				math.Abs(low-prevClose),
			),
		)
		trSum += tr
	}

	return trSum / float64(period)
}

// ============================================================================
// STOCHASTIC OSCILLATOR
// ============================================================================

// StochasticResult holds Stochastic Oscillator values
type StochasticResult struct {
	K float64
	D float64
}

// Stochastic calculates the Stochastic Oscillator %K and a smoothed %D
func Stochastic(candles []market.Candle, kPeriod, dPeriod int) *StochasticResult {
	if kPeriod <= 0 || len(candles) < kPeriod {
		return &StochasticResult{K: 50, D: 50}
	}

	kValues := make([]float64, 0, dPeriod)
	for offset := dPeriod - 1; offset >= 0; offset-- {
		end := len(candles) - offset
		if end < kPeriod {
			continue
		}
		kValues = append(kValues, percentK(candles[:end], kPeriod))
	}

	k := percentK(candles, kPeriod)
	d := k
	if len(kValues) > 0 {
		sum := 0.0
		for _, v := range kValues {
			sum += v
		}
		d = sum / float64(len(kValues))
	}

	return &StochasticResult{K: k, D: d}
}

func percentK(candles []market.Candle, period int) float64 {
	startIdx := len(candles) - period
	highestHigh := candles[startIdx].High
	lowestLow := candles[startIdx].Low

	for i := startIdx; i < len(candles); i++ {
		if candles[i].High > highestHigh {
			highestHigh = candles[i].High
		}
		if candles[i].Low < lowestLow {
			lowestLow = candles[i].Low
		}
	}

	if highestHigh == lowestLow {
		return 0
	}

	currentClose := candles[len(candles)-1].Close
	return ((currentClose - lowestLow) / (highestHigh - lowestLow)) * 100
}

// ============================================================================
// ADX
// ============================================================================

// ADX calculates a simplified Average Directional Index from the ratio of
// the latest candle range to the ATR, scaled to 0-100.
func ADX(candles []market.Candle, period int) float64 {
	if len(candles) < period+1 {
		return 0
	}

	atr := ATR(candles, period)
	if atr == 0 {
		return 0
	}

	priceRange := candles[len(candles)-1].High - candles[len(candles)-1].Low

	adx := (priceRange / atr) * 25
	if adx > 100 {
		adx = 100
	}

	return adx
}

// ============================================================================
// CCI
// ============================================================================

// CCI calculates the Commodity Channel Index over typical prices
func CCI(candles []market.Candle, period int) float64 {
	if period <= 0 || len(candles) < period {
		return 0
	}

	typical := make([]float64, period)
	sum := 0.0
	for i := 0; i < period; i++ {
		c := candles[len(candles)-period+i]
		typical[i] = (c.High + c.Low + c.Close) / 3
		sum += typical[i]
	}
	mean := sum / float64(period)

	meanDev := 0.0
	for _, tp := range typical {
		meanDev += math.Abs(tp - mean)
	}
	meanDev /= float64(period)

	if meanDev == 0 {
		return 0
	}

	return (typical[period-1] - mean) / (0.015 * meanDev)
}

// ============================================================================
// VOLUME
// ============================================================================

// AverageVolume calculates average volume over a period
func AverageVolume(candles []market.Candle, period int) float64 {
	if len(candles) == 0 {
		return 0
	}
	if len(candles) < period {
		period = len(candles)
	}

	sum := 0.0
	for i := len(candles) - period; i < len(candles); i++ {
		sum += candles[i].Volume
	}

	return sum / float64(period)
}

// OBV calculates On-Balance Volume over the full series
func OBV(candles []market.Candle) float64 {
	obv := 0.0
	for i := 1; i < len(candles); i++ {
		if candles[i].Close > candles[i-1].Close {
			obv += candles[i].Volume
		} else if candles[i].Close < candles[i-1].Close {
			obv -= candles[i].Volume
		}
	}
	return obv
}

// ============================================================================
// MOMENTUM
// ============================================================================

// ROC calculates the Rate of Change over a period, as a percentage
func ROC(candles []market.Candle, period int) float64 {
	if period <= 0 || len(candles) < period+1 {
		return 0
	}

	currentPrice := candles[len(candles)-1].Close
	pastPrice := candles[len(candles)-period-1].Close
	if pastPrice == 0 {
		return 0
	}

	return ((currentPrice - pastPrice) / pastPrice) * 100
}
