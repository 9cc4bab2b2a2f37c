package engine

import (
	"context"

	"github.com/rs/zerolog"
)

// sentimentSampleTarget is the item count at which sample coverage no
// longer discounts confidence
const sentimentSampleTarget = 5

// SentimentEngine aggregates per-item sentiment oracle output into one
// normalized score. The language model itself is an external collaborator;
// this engine only merges its already-scored items.
type SentimentEngine struct {
	logger zerolog.Logger
}

// NewSentimentEngine creates the sentiment scoring engine
func NewSentimentEngine(logger zerolog.Logger) *SentimentEngine {
	return &SentimentEngine{logger: logger.With().Str("engine", NameSentiment).Logger()}
}

func (e *SentimentEngine) Name() string { return NameSentiment }

// Calculate merges item sentiments into a confidence-weighted score
func (e *SentimentEngine) Calculate(ctx context.Context, req *Request) EngineScore {
	input := req.Inputs.Sentiment
	if input == nil || len(input.Items) == 0 {
		return Neutral("no sentiment data available")
	}

	var (
		weightedSum   float64
		weightSum     float64
		positiveCount int
		negativeCount int
		neutralCount  int
		skipped       int
	)

	for _, item := range input.Items {
		conf := ClampConfidence(item.Confidence)

		var value float64
		switch item.Sentiment {
		case "positive":
			value = 1
			positiveCount++
		case "negative":
			value = -1
			negativeCount++
		case "neutral":
			value = 0
			neutralCount++
		default:
			skipped++
			continue
		}

		weightedSum += value * conf
		weightSum += conf
	}

	scored := len(input.Items) - skipped
	if scored == 0 {
		return Neutral("no usable sentiment items")
	}

	score := 0.0
	if weightSum > 0 {
		score = weightedSum / weightSum
	}

	// Average item confidence, discounted when the sample is small
	avgConf := weightSum / float64(scored)
	coverage := float64(scored) / float64(sentimentSampleTarget)
	if coverage > 1 {
		coverage = 1
	}

	e.logger.Debug().
		Str("asset_id", req.AssetID).
		Int("items", scored).
		Float64("score", score).
		Msg("sentiment aggregated")

	return EngineScore{
		Score:      ClampScore(score),
		Confidence: ClampConfidence(avgConf * coverage),
		Metadata: map[string]interface{}{
			"positive": positiveCount,
			"negative": negativeCount,
			"neutral":  neutralCount,
			"skipped":  skipped,
		},
	}
}
