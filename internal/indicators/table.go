package indicators

import (
	"signal-fusion-engine/internal/market"
)

// Known indicator names usable as rule targets.
const (
	NameMA20   = "MA20"
	NameMA50   = "MA50"
	NameMA200  = "MA200"
	NameRSI    = "RSI"
	NameMACD   = "MACD"
	NameATR    = "ATR"
	NameBB     = "BB"
	NameSTOCH  = "STOCH"
	NameADX    = "ADX"
	NameCCI    = "CCI"
	NameOBV    = "OBV"
	NameVOLUME = "VOLUME"
)

// KnownNames lists every indicator name the rule parser accepts
var KnownNames = []string{
	NameMA20, NameMA50, NameMA200, NameRSI, NameMACD, NameATR,
	NameBB, NameSTOCH, NameADX, NameCCI, NameOBV, NameVOLUME,
}

// IsKnownName reports whether name is a whitelisted indicator
func IsKnownName(name string) bool {
	for _, n := range KnownNames {
		if n == name {
			return true
		}
	}
	return false
}

// BuildTable computes the flat numeric indicator table the rule executor
// resolves indicator targets against. Indicators without enough data are
// present with their neutral/zero value, matching the per-indicator
// functions' degradation behavior.
func BuildTable(candles []market.Candle) map[string]float64 {
	table := make(map[string]float64, len(KnownNames))

	table[NameMA20] = SMA(candles, 20)
	table[NameMA50] = SMA(candles, 50)
	table[NameMA200] = SMA(candles, 200)
	table[NameRSI] = RSI(candles, 14)
	table[NameMACD] = MACD(candles, 12, 26, 9).MACD
	table[NameATR] = ATR(candles, 14)
	table[NameBB] = Bollinger(candles, 20, 2.0).Middle
	table[NameSTOCH] = Stochastic(candles, 14, 3).K
	table[NameADX] = ADX(candles, 14)
	table[NameCCI] = CCI(candles, 20)
	table[NameOBV] = OBV(candles)
	if len(candles) > 0 {
		table[NameVOLUME] = candles[len(candles)-1].Volume
	} else {
		table[NameVOLUME] = 0
	}

	return table
}
