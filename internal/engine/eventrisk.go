package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Asymmetric impact weighting: downside risk is treated as more costly
// than equivalent upside.
const (
	positiveImpactWeight = 0.5
	negativeImpactWeight = 1.5
)

// Time proximity weighting: full weight inside the near window, then a
// linear decay down to the floor.
const (
	proximityFullDays  = 7
	proximityDecayDays = 30
	proximityFloor     = 0.3
)

// baseImpacts maps event types to their base impact in [-1, 1]. Unknown
// event types carry a small negative impact: unclassified events are
// treated as mild risk.
var baseImpacts = map[string]float64{
	"token_unlock":     -0.6,
	"delisting":        -0.8,
	"security_breach":  -0.9,
	"hack":             -0.9,
	"regulatory":       -0.7,
	"lawsuit":          -0.5,
	"hard_fork":        -0.3,
	"earnings":         -0.2,
	"exchange_listing": 0.6,
	"product_launch":   0.5,
	"partnership":      0.4,
	"mainnet_launch":   0.5,
	"airdrop":          0.3,
	"buyback":          0.4,
}

const unknownEventImpact = -0.1

// EventRiskEngine scores the risk contributed by scheduled events,
// weighting each by type and time proximity.
type EventRiskEngine struct {
	logger zerolog.Logger
}

// NewEventRiskEngine creates the event risk scoring engine
func NewEventRiskEngine(logger zerolog.Logger) *EventRiskEngine {
	return &EventRiskEngine{logger: logger.With().Str("engine", NameEventRisk).Logger()}
}

func (e *EventRiskEngine) Name() string { return NameEventRisk }

// Calculate aggregates per-event impacts into one asymmetric risk score.
// An empty event list is a valid "no known events" answer, not a failure.
func (e *EventRiskEngine) Calculate(ctx context.Context, req *Request) EngineScore {
	input := req.Inputs.EventRisk
	if input == nil {
		return Neutral("no event data available")
	}

	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}

	if len(input.Events) == 0 {
		return EngineScore{
			Score:      0,
			Confidence: 0.5,
			Metadata:   map[string]interface{}{"event_count": 0},
		}
	}

	var positiveSum, negativeSum float64
	scored := 0

	for _, event := range input.Events {
		daysAway := event.Date.Sub(now).Hours() / 24
		weight := proximityWeight(daysAway)
		if weight == 0 {
			continue
		}

		impact := baseImpact(event.Type, event.UnlockPercentage) * weight
		if impact >= 0 {
			positiveSum += impact
		} else {
			negativeSum += impact
		}
		scored++
	}

	score := ClampScore(positiveImpactWeight*positiveSum + negativeImpactWeight*negativeSum)

	// Confidence grows with the number of scored events
	confidence := 0.5 + 0.1*float64(scored)
	if confidence > 0.9 {
		confidence = 0.9
	}

	e.logger.Debug().
		Str("asset_id", req.AssetID).
		Int("events", scored).
		Float64("score", score).
		Msg("event risk scored")

	return EngineScore{
		Score:      score,
		Confidence: ClampConfidence(confidence),
		Metadata: map[string]interface{}{
			"event_count":  len(input.Events),
			"scored_count": scored,
			"positive_sum": positiveSum,
			"negative_sum": negativeSum,
		},
	}
}

// baseImpact returns the type's base impact, scaling token unlocks by the
// unlocked supply percentage
func baseImpact(eventType string, unlockPercentage float64) float64 {
	impact, ok := baseImpacts[eventType]
	if !ok {
		return unknownEventImpact
	}

	if eventType == "token_unlock" && unlockPercentage > 0 {
		// A 20% supply unlock doubles the base impact, capped at 2x
		scale := 1 + unlockPercentage/20
		if scale > 2 {
			scale = 2
		}
		impact *= scale
	}

	return impact
}

// proximityWeight is 1.0 for events within proximityFullDays, decays
// linearly to proximityFloor over proximityDecayDays, and is 0 for past
// events
func proximityWeight(daysAway float64) float64 {
	if daysAway < 0 {
		return 0
	}
	if daysAway <= proximityFullDays {
		return 1.0
	}

	decayed := 1.0 - (daysAway-proximityFullDays)/proximityDecayDays*(1.0-proximityFloor)
	if decayed < proximityFloor {
		return proximityFloor
	}
	return decayed
}
