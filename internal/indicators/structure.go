package indicators

import (
	"signal-fusion-engine/internal/market"
)

// StructureResult summarizes higher-high / lower-low market structure
type StructureResult struct {
	HigherHighs int
	HigherLows  int
	LowerHighs  int
	LowerLows   int
	Score       float64 // -1 (strongly bearish structure) to +1 (strongly bullish)
}

// structureLookback is the number of recent candles examined
const structureLookback = 20

// swingWindow is the number of candles on each side used to confirm a swing
const swingWindow = 2

// Structure scores recent market structure from swing highs and lows over
// the last 20 candles. Insufficient data yields a zero score.
func Structure(candles []market.Candle) *StructureResult {
	result := &StructureResult{}

	if len(candles) > structureLookback {
		candles = candles[len(candles)-structureLookback:]
	}
	if len(candles) < swingWindow*2+1 {
		return result
	}

	highs := swingPoints(candles, true)
	lows := swingPoints(candles, false)

	for i := 1; i < len(highs); i++ {
		if highs[i] > highs[i-1] {
			result.HigherHighs++
		} else if highs[i] < highs[i-1] {
			result.LowerHighs++
		}
	}
	for i := 1; i < len(lows); i++ {
		if lows[i] > lows[i-1] {
			result.HigherLows++
		} else if lows[i] < lows[i-1] {
			result.LowerLows++
		}
	}

	bullish := result.HigherHighs + result.HigherLows
	bearish := result.LowerHighs + result.LowerLows
	total := bullish + bearish
	if total == 0 {
		return result
	}

	result.Score = float64(bullish-bearish) / float64(total)
	return result
}

// swingPoints returns the prices of confirmed swing highs (or lows) in order
func swingPoints(candles []market.Candle, findHighs bool) []float64 {
	var points []float64

	for i := swingWindow; i < len(candles)-swingWindow; i++ {
		isSwing := true
		for j := i - swingWindow; j <= i+swingWindow; j++ {
			if j == i {
				continue
			}
			if findHighs && candles[j].High >= candles[i].High {
				isSwing = false
				break
			}
			if !findHighs && candles[j].Low <= candles[i].Low {
				isSwing = false
				break
			}
		}
		if isSwing {
			if findHighs {
				points = append(points, candles[i].High)
			} else {
				points = append(points, candles[i].Low)
			}
		}
	}

	return points
}
