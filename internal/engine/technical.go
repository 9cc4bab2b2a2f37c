package engine

import (
	"context"

	"github.com/rs/zerolog"

	"signal-fusion-engine/internal/indicators"
	"signal-fusion-engine/internal/market"
)

// Multi-timeframe composite weights. Each term drops to zero when its
// timeframe has insufficient data; the remaining terms are not renormalized.
const (
	trendWeightDailyMA    = 0.4 // MA50 vs MA200 on 1d
	trendWeightIntradayMA = 0.3 // MA20 vs MA50 on 4h
	trendWeightROC        = 0.2 // rate of change on 1h
	trendWeightStructure  = 0.1 // higher-highs / lower-lows structure
)

// Normalization scales: the relative MA spread (or ROC percentage) that
// maps to a full-strength score of 1.
const (
	dailyMASpreadScale    = 0.05
	intradayMASpreadScale = 0.03
	rocPercentScale       = 5.0
	rocPeriod             = 12
)

// TechnicalEngine scores trend from moving averages, momentum and market
// structure across multiple timeframes.
type TechnicalEngine struct {
	logger zerolog.Logger
}

// NewTechnicalEngine creates the technical trend scoring engine
func NewTechnicalEngine(logger zerolog.Logger) *TechnicalEngine {
	return &TechnicalEngine{logger: logger.With().Str("engine", NameTrend).Logger()}
}

func (e *TechnicalEngine) Name() string { return NameTrend }

// Calculate computes the multi-timeframe trend composite
func (e *TechnicalEngine) Calculate(ctx context.Context, req *Request) EngineScore {
	input := req.Inputs.Technical
	if input == nil || len(input.Series) == 0 {
		return Neutral("no candle data available")
	}

	daily := input.Series["1d"]
	fourHour := input.Series["4h"]
	hourly := input.Series["1h"]

	var score float64
	var availableWeight float64
	metadata := make(map[string]interface{})

	// MA50 vs MA200 on daily
	if len(daily) >= 200 {
		ma50 := indicators.SMA(daily, 50)
		ma200 := indicators.SMA(daily, 200)
		term := normalizeSpread(ma50, ma200, dailyMASpreadScale)
		score += trendWeightDailyMA * term
		availableWeight += trendWeightDailyMA
		metadata["ma50_1d"] = ma50
		metadata["ma200_1d"] = ma200
	}

	// MA20 vs MA50 on 4h
	if len(fourHour) >= 50 {
		ma20 := indicators.SMA(fourHour, 20)
		ma50 := indicators.SMA(fourHour, 50)
		term := normalizeSpread(ma20, ma50, intradayMASpreadScale)
		score += trendWeightIntradayMA * term
		availableWeight += trendWeightIntradayMA
		metadata["ma20_4h"] = ma20
		metadata["ma50_4h"] = ma50
	}

	// Rate of change on 1h
	if len(hourly) >= rocPeriod+1 {
		roc := indicators.ROC(hourly, rocPeriod)
		score += trendWeightROC * ClampScore(roc/rocPercentScale)
		availableWeight += trendWeightROC
		metadata["roc_1h"] = roc
	}

	// Structure on the primary timeframe
	primary := e.primarySeries(req.Timeframe, input.Series)
	if structure := indicators.Structure(primary); structure != nil && len(primary) > 0 {
		score += trendWeightStructure * structure.Score
		if len(primary) >= 5 {
			availableWeight += trendWeightStructure
		}
		metadata["structure_score"] = structure.Score
		metadata["higher_highs"] = structure.HigherHighs
		metadata["lower_lows"] = structure.LowerLows
	}

	if availableWeight == 0 {
		return Neutral("insufficient candle history on all timeframes")
	}

	// Secondary indicators for the metadata breakdown
	if len(primary) > 0 {
		metadata["rsi"] = indicators.RSI(primary, 14)
		metadata["macd"] = indicators.MACD(primary, 12, 26, 9).MACD
		metadata["atr"] = indicators.ATR(primary, 14)
	}

	e.logger.Debug().
		Str("asset_id", req.AssetID).
		Float64("score", score).
		Float64("available_weight", availableWeight).
		Msg("trend composite computed")

	return EngineScore{
		Score:      ClampScore(score),
		Confidence: ClampConfidence(availableWeight),
		Metadata:   metadata,
	}
}

// primarySeries picks the candle series structure and secondary indicators
// are computed on: the requested timeframe when supplied, otherwise the
// longest-horizon series available.
func (e *TechnicalEngine) primarySeries(timeframe string, series map[string][]market.Candle) []market.Candle {
	if timeframe != "" && len(series[timeframe]) > 0 {
		return series[timeframe]
	}
	for _, tf := range []string{"1d", "4h", "1h"} {
		if len(series[tf]) > 0 {
			return series[tf]
		}
	}
	for _, candles := range series {
		if len(candles) > 0 {
			return candles
		}
	}
	return nil
}

// normalizeSpread maps the relative spread between a fast and slow moving
// average onto [-1, 1]; a spread of scale (e.g. 5%) saturates the score.
func normalizeSpread(fast, slow, scale float64) float64 {
	if slow == 0 || scale == 0 {
		return 0
	}
	return ClampScore(((fast - slow) / slow) / scale)
}
