package engine

import (
	"context"

	"github.com/rs/zerolog"
)

// FundamentalEngine normalizes the score delivered by the external
// fundamentals provider. The metric computation (market cap ratios,
// revenue, tokenomics) happens in the collaborator; this engine clamps
// and annotates its output.
type FundamentalEngine struct {
	logger zerolog.Logger
}

// NewFundamentalEngine creates the fundamental scoring engine
func NewFundamentalEngine(logger zerolog.Logger) *FundamentalEngine {
	return &FundamentalEngine{logger: logger.With().Str("engine", NameFundamental).Logger()}
}

func (e *FundamentalEngine) Name() string { return NameFundamental }

// Calculate clamps the provider-supplied score and confidence
func (e *FundamentalEngine) Calculate(ctx context.Context, req *Request) EngineScore {
	input := req.Inputs.Fundamental
	if input == nil || input.Fundamentals == nil {
		return Neutral("no fundamental data available")
	}

	f := input.Fundamentals

	metadata := map[string]interface{}{
		"metric_count": len(f.Metrics),
	}
	if !f.AsOf.IsZero() {
		metadata["as_of"] = f.AsOf
	}

	return EngineScore{
		Score:      ClampScore(f.Score),
		Confidence: ClampConfidence(f.Confidence),
		Metadata:   metadata,
	}
}
