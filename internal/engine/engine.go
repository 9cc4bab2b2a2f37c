package engine

import (
	"context"

	"github.com/rs/zerolog"
)

// ScoringEngine scores one analytical dimension of an asset. Implementations
// must be total: any internal failure is reported as a neutral EngineScore
// with the reason in metadata, never as an error. Implementations must be
// safe for concurrent use across requests.
type ScoringEngine interface {
	// Name returns the engine's EngineScoreSet key
	Name() string

	// Calculate produces the normalized score for the request
	Calculate(ctx context.Context, req *Request) EngineScore
}

// Registry holds the constructed scoring engines. It is built once at
// startup and injected into the signal generator; there are no package-level
// engine singletons.
type Registry struct {
	engines []ScoringEngine
}

// NewRegistry constructs all five engines with the given logger
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		engines: []ScoringEngine{
			NewSentimentEngine(logger),
			NewTechnicalEngine(logger),
			NewFundamentalEngine(logger),
			NewLiquidityEngine(logger),
			NewEventRiskEngine(logger),
		},
	}
}

// NewRegistryWith builds a registry from explicit engines, used by tests to
// substitute mock engines
func NewRegistryWith(engines ...ScoringEngine) *Registry {
	return &Registry{engines: engines}
}

// Engines returns the registered engines in registration order
func (r *Registry) Engines() []ScoringEngine {
	return r.engines
}

// Get returns the engine with the given name, or nil
func (r *Registry) Get(name string) ScoringEngine {
	for _, e := range r.engines {
		if e.Name() == name {
			return e
		}
	}
	return nil
}
