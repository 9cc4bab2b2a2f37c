package signal

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"signal-fusion-engine/internal/confidence"
	"signal-fusion-engine/internal/engine"
	"signal-fusion-engine/internal/fusion"
	"signal-fusion-engine/internal/indicators"
	"signal-fusion-engine/internal/rules"
)

// defaultEngineTimeout bounds a single engine calculation. A timed-out
// engine degrades to a neutral score; it never fails the request.
const defaultEngineTimeout = 5 * time.Second

// Data freshness decay bounds: data younger than freshFull scores 1.0,
// older than freshZero scores 0.
const (
	freshFull = 5 * time.Minute
	freshZero = 24 * time.Hour
)

// Generator runs the full signal pipeline for one request
type Generator struct {
	registry      *engine.Registry
	fusionEngine  *fusion.Engine
	parser        *rules.Parser
	executor      *rules.Executor
	confEngine    *confidence.Engine
	logger        zerolog.Logger
	engineTimeout time.Duration
	maxAllocation float64
}

// Option configures a Generator
type Option func(*Generator)

// WithEngineTimeout overrides the per-engine calculation timeout
func WithEngineTimeout(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.engineTimeout = d
		}
	}
}

// WithMaxAllocation sets the fallback position size cap for requests
// that don't specify one
func WithMaxAllocation(frac float64) Option {
	return func(g *Generator) {
		if frac > 0 && frac <= 1 {
			g.maxAllocation = frac
		}
	}
}

// NewGenerator wires the pipeline components together
func NewGenerator(registry *engine.Registry, logger zerolog.Logger, opts ...Option) *Generator {
	g := &Generator{
		registry:      registry,
		fusionEngine:  fusion.NewEngine(logger),
		parser:        rules.NewParser(),
		executor:      rules.NewExecutor(logger),
		confEngine:    confidence.NewEngine(logger),
		logger:        logger.With().Str("component", "signal_generator").Logger(),
		engineTimeout: defaultEngineTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate validates the request, fans the engines out concurrently,
// fuses their scores, applies the strategy rules and derives confidence
// and position sizing. The only error it returns is *ValidationError;
// every downstream failure degrades into a well-formed HOLD signal.
func (g *Generator) Generate(ctx context.Context, req *GenerateRequest) (sig *Signal, err error) {
	engineReq := g.buildEngineRequest(req)

	// Request validation is the single caller-visible failure mode
	var errs []string
	errs = append(errs, engineReq.Validate()...)
	if req.Strategy != nil {
		if result := g.parser.ValidateSyntax(req.Strategy); !result.Valid {
			errs = append(errs, result.Errors...)
		}
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	// Anything unexpected past validation degrades to a safe HOLD signal:
	// a trading decision must always be returned.
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error().
				Interface("panic", r).
				Str("asset_id", req.AssetID).
				Msg("signal pipeline panic recovered")
			sig = g.errorSignal(req, fmt.Sprintf("internal error: %v", r))
			err = nil
		}
	}()

	scores := g.runEngines(ctx, engineReq)
	fusionResult := g.fusionEngine.Calculate(scores)

	indicatorTable := g.buildIndicatorTable(req)

	evalCtx := &rules.EvaluationContext{
		Fusion:       fusionResult,
		EngineScores: scores,
		MarketData:   req.MarketData,
	}

	action := fusionResult.Action
	var execution *rules.ExecutionResult
	if req.Strategy.HasRules() {
		execution = g.executor.Execute(req.Strategy, evalCtx, indicatorTable)
		action = fusion.Action(execution.Signal)
	}

	// The event risk override outranks the strategy decision as well
	if risk, ok := scores[engine.NameEventRisk]; ok && risk.Score < -0.5 {
		action = fusion.ActionHold
	}

	maxAllocation := req.MaxAllocation
	if maxAllocation <= 0 {
		maxAllocation = g.maxAllocation
	}

	sizing := g.confEngine.Calculate(confidence.Input{
		SentimentConfidence:   scores[engine.NameSentiment].Confidence,
		TrendStrength:         math.Abs(scores[engine.NameTrend].Score),
		DataFreshness:         g.dataFreshness(req),
		DiversificationWeight: diversification(scores),
		RiskLevel:             req.RiskLevel,
		PortfolioValue:        req.PortfolioValue,
		StopLossDistance:      stopLossDistance(req.Strategy),
		MaxAllocation:         maxAllocation,
	})

	sig = &Signal{
		ID:                uuid.New().String(),
		StrategyID:        req.StrategyID,
		AssetID:           req.AssetID,
		AssetType:         req.AssetType,
		Timestamp:         time.Now().UTC(),
		FinalScore:        fusionResult.Score,
		Action:            action,
		Confidence:        fusionResult.Confidence,
		EngineScores:      scores,
		StrategyExecution: execution,
		PositionSizing:    sizing,
		Metadata: map[string]interface{}{
			"fusion_breakdown":  fusionResult.Breakdown,
			"fusion_action":     fusionResult.Action,
			"signal_confidence": sizing.Confidence,
			"exchange":          req.Exchange,
			"connection_id":     req.ConnectionID,
		},
	}

	g.logger.Info().
		Str("asset_id", req.AssetID).
		Str("action", string(action)).
		Float64("final_score", fusionResult.Score).
		Float64("confidence", fusionResult.Confidence).
		Msg("signal generated")

	return sig, nil
}

// Describe reports the registered engines and the fusion weight table
func (g *Generator) Describe() map[string]interface{} {
	engines := g.registry.Engines()
	names := make([]string, 0, len(engines))
	for _, eng := range engines {
		names = append(names, eng.Name())
	}

	return map[string]interface{}{
		"engines":        names,
		"fusion_weights": fusion.Weights,
		"engine_timeout": g.engineTimeout.String(),
	}
}

// runEngines dispatches all engines concurrently and joins them. Each
// engine runs under its own timeout; a timed-out or panicking engine
// yields a neutral score. Already-completed results are kept even when
// the caller cancels mid-flight.
func (g *Generator) runEngines(ctx context.Context, req *engine.Request) engine.EngineScoreSet {
	engines := g.registry.Engines()
	scores := make(engine.EngineScoreSet, len(engines))

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, eng := range engines {
		wg.Add(1)
		go func(eng engine.ScoringEngine) {
			defer wg.Done()
			score := g.safeCalculate(ctx, eng, req)
			mu.Lock()
			scores[eng.Name()] = score
			mu.Unlock()
		}(eng)
	}

	wg.Wait()
	return scores
}

// safeCalculate runs one engine with timeout, cancellation and panic
// isolation
func (g *Generator) safeCalculate(ctx context.Context, eng engine.ScoringEngine, req *engine.Request) engine.EngineScore {
	engineCtx, cancel := context.WithTimeout(ctx, g.engineTimeout)
	defer cancel()

	done := make(chan engine.EngineScore, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				g.logger.Error().
					Str("engine", eng.Name()).
					Interface("panic", r).
					Msg("engine panic recovered")
				done <- engine.Neutralf("engine panic: %v", r)
			}
		}()
		done <- eng.Calculate(engineCtx, req)
	}()

	select {
	case score := <-done:
		return score
	case <-engineCtx.Done():
		g.logger.Warn().
			Str("engine", eng.Name()).
			Err(engineCtx.Err()).
			Msg("engine timed out, degrading to neutral")
		return engine.Neutralf("engine %s: %v", eng.Name(), engineCtx.Err())
	}
}

// buildEngineRequest maps the request's market inputs onto the typed
// per-engine inputs
func (g *Generator) buildEngineRequest(req *GenerateRequest) *engine.Request {
	inputs := engine.Inputs{}

	if len(req.Sentiment) > 0 {
		inputs.Sentiment = &engine.SentimentInput{Items: req.Sentiment}
	}
	if len(req.OHLCV) > 0 {
		inputs.Technical = &engine.TechnicalInput{Series: req.OHLCV}
	}
	if req.Fundamentals != nil {
		inputs.Fundamental = &engine.FundamentalInput{Fundamentals: req.Fundamentals}
	}
	if req.OrderBook != nil || req.AverageVolume > 0 {
		inputs.Liquidity = &engine.LiquidityInput{
			OrderBook:     req.OrderBook,
			Volume24h:     req.Volume24h,
			AverageVolume: req.AverageVolume,
		}
	}
	inputs.EventRisk = &engine.EventRiskInput{Events: req.Events, Now: time.Now().UTC()}

	return &engine.Request{
		AssetID:   req.AssetID,
		AssetType: engine.AssetType(req.AssetType),
		Timeframe: timeframeOrDefault(req),
		Inputs:    inputs,
	}
}

// buildIndicatorTable computes the rule-engine indicator table from the
// primary candle series
func (g *Generator) buildIndicatorTable(req *GenerateRequest) map[string]float64 {
	tf := timeframeOrDefault(req)
	candles := req.OHLCV[tf]
	if len(candles) == 0 {
		for _, fallback := range []string{"1d", "4h", "1h"} {
			if len(req.OHLCV[fallback]) > 0 {
				candles = req.OHLCV[fallback]
				break
			}
		}
	}
	return indicators.BuildTable(candles)
}

func timeframeOrDefault(req *GenerateRequest) string {
	if req.Strategy != nil && req.Strategy.Timeframe != "" {
		return req.Strategy.Timeframe
	}
	return "1h"
}

// dataFreshness scores how recent the supplied market data is, from 1.0
// (just fetched) decaying linearly to 0 after 24 hours. Requests without
// a retrieval timestamp fall back to the order book timestamp, then to a
// conservative middle value.
func (g *Generator) dataFreshness(req *GenerateRequest) float64 {
	ts := req.RetrievedAt
	if ts.IsZero() && req.OrderBook != nil {
		ts = req.OrderBook.Timestamp
	}
	if ts.IsZero() {
		return 0.5
	}

	age := time.Since(ts)
	if age <= freshFull {
		return 1.0
	}
	if age >= freshZero {
		return 0
	}

	return 1.0 - float64(age-freshFull)/float64(freshZero-freshFull)
}

// diversification is the fraction of engines that produced a confident
// score; decisions backed by more independent dimensions size larger
func diversification(scores engine.EngineScoreSet) float64 {
	if len(scores) == 0 {
		return 0
	}
	confident := 0
	for _, s := range scores {
		if s.Confidence > 0 {
			confident++
		}
	}
	return float64(confident) / float64(len(scores))
}

// stopLossDistance extracts a fractional stop distance from the strategy
func stopLossDistance(s *rules.Strategy) float64 {
	if s == nil || s.StopLossValue <= 0 {
		return 0
	}
	// Percentage-typed stops arrive as e.g. 5 meaning 5%
	if s.StopLossType == "percentage" && s.StopLossValue > 1 {
		return s.StopLossValue / 100
	}
	return s.StopLossValue
}

// errorSignal builds the well-formed degraded signal returned on
// unexpected pipeline failure
func (g *Generator) errorSignal(req *GenerateRequest, reason string) *Signal {
	return &Signal{
		ID:           uuid.New().String(),
		StrategyID:   req.StrategyID,
		AssetID:      req.AssetID,
		AssetType:    req.AssetType,
		Timestamp:    time.Now().UTC(),
		FinalScore:   0,
		Action:       fusion.ActionHold,
		Confidence:   0,
		EngineScores: neutralScores(),
		Error:        reason,
	}
}

func neutralScores() engine.EngineScoreSet {
	set := make(engine.EngineScoreSet, 5)
	for _, name := range []string{
		engine.NameSentiment, engine.NameTrend, engine.NameFundamental,
		engine.NameLiquidity, engine.NameEventRisk,
	} {
		set[name] = engine.EngineScore{}
	}
	return set
}
