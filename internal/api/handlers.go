package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"signal-fusion-engine/internal/database"
	"signal-fusion-engine/internal/rules"
	"signal-fusion-engine/internal/signal"
	"signal-fusion-engine/internal/vault"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ============================================================================
// SIGNAL HANDLERS
// ============================================================================

// handleGenerateSignal runs the full pipeline for one request
// POST /api/v1/signals/generate
func (s *Server) handleGenerateSignal(c *gin.Context) {
	var req signal.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	log := s.requestLogger(c)

	s.hydrateMarketData(c.Request.Context(), log, &req)

	sig, err := s.generator.Generate(c.Request.Context(), &req)
	if err != nil {
		var validationErr *signal.ValidationError
		if errors.As(err, &validationErr) {
			s.eventBus.PublishValidationFailed(req.AssetID, validationErr.Errors)
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "VALIDATION_ERROR",
				"message": "signal request rejected",
				"errors":  validationErr.Errors,
			})
			return
		}
		log.Error().Err(err).Str("asset_id", req.AssetID).Msg("signal generation failed")
		errorResponse(c, http.StatusInternalServerError, "signal generation failed")
		return
	}

	log.Info().
		Str("signal_id", sig.ID).
		Str("asset_id", sig.AssetID).
		Str("action", string(sig.Action)).
		Float64("final_score", sig.FinalScore).
		Msg("signal generated")

	s.persistSignal(c.Request.Context(), log, sig)

	s.eventBus.PublishSignalGenerated(
		sig.ID, sig.StrategyID, sig.AssetID,
		string(sig.Action), sig.FinalScore, sig.Confidence,
	)

	successResponse(c, sig)
}

// hydrationTimeframes are fetched for requests arriving without candles.
// The limit covers the 200-candle daily moving average.
var hydrationTimeframes = []string{"1h", "4h", "1d"}

const hydrationCandleLimit = 250

// hydrateMarketData fills in candles and the order book from the configured
// feed when the caller supplied neither. Hydration is best effort; on
// failure the engines score what the request carries.
func (s *Server) hydrateMarketData(ctx context.Context, log zerolog.Logger, req *signal.GenerateRequest) {
	if s.provider == nil || req.AssetID == "" {
		return
	}
	if len(req.OHLCV) > 0 || req.OrderBook != nil {
		return
	}

	snap, err := s.provider.Snapshot(ctx, req.AssetID, hydrationTimeframes, hydrationCandleLimit)
	if err != nil {
		log.Warn().Err(err).Str("asset_id", req.AssetID).Msg("market data hydration failed")
		return
	}

	req.OHLCV = snap.OHLCV
	req.OrderBook = snap.OrderBook
	if req.RetrievedAt.IsZero() {
		req.RetrievedAt = snap.RetrievedAt
	}
}

// persistSignal writes the signal to history and updates the last-signal
// cache. Both are best effort, a storage outage never fails the request.
func (s *Server) persistSignal(ctx context.Context, log zerolog.Logger, sig *signal.Signal) {
	if s.cache != nil {
		if err := s.cache.SetLastSignal(ctx, sig.AssetID, sig); err != nil {
			log.Warn().Err(err).Str("asset_id", sig.AssetID).Msg("failed to cache signal")
		}
	}

	if s.repo == nil {
		return
	}

	rec := &database.SignalRecord{
		ID:          sig.ID,
		StrategyID:  sig.StrategyID,
		AssetID:     sig.AssetID,
		AssetType:   sig.AssetType,
		Action:      string(sig.Action),
		FinalScore:  sig.FinalScore,
		Confidence:  sig.Confidence,
		Error:       sig.Error,
		GeneratedAt: sig.Timestamp,
	}
	rec.EngineScores, _ = json.Marshal(sig.EngineScores)
	if sig.StrategyExecution != nil {
		rec.StrategyExecution, _ = json.Marshal(sig.StrategyExecution)
	}
	if sig.PositionSizing != nil {
		rec.PositionSizing, _ = json.Marshal(sig.PositionSizing)
	}
	if sig.Metadata != nil {
		rec.Metadata, _ = json.Marshal(sig.Metadata)
	}

	if err := s.repo.SaveSignal(ctx, rec); err != nil {
		log.Error().Err(err).Str("signal_id", sig.ID).Msg("failed to persist signal")
	}
}

// handleGetSignalHistory returns stored signals, newest first
// GET /api/v1/signals/history?asset_id=BTC&limit=50&offset=0
func (s *Server) handleGetSignalHistory(c *gin.Context) {
	if s.repo == nil {
		errorResponse(c, http.StatusServiceUnavailable, "signal history is not enabled")
		return
	}

	assetID := c.Query("asset_id")

	limit := 50
	offset := 0

	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	if o := c.Query("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	records, err := s.repo.GetSignalHistory(c.Request.Context(), assetID, limit, offset)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to fetch signal history")
		return
	}

	successResponse(c, records)
}

// handleGetSignalByID returns one stored signal
// GET /api/v1/signals/:id
func (s *Server) handleGetSignalByID(c *gin.Context) {
	if s.repo == nil {
		errorResponse(c, http.StatusServiceUnavailable, "signal history is not enabled")
		return
	}

	id := c.Param("id")
	if id == "" {
		errorResponse(c, http.StatusBadRequest, "signal id is required")
		return
	}

	record, err := s.repo.GetSignalByID(c.Request.Context(), id)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to fetch signal")
		return
	}
	if record == nil {
		errorResponse(c, http.StatusNotFound, "signal not found")
		return
	}

	successResponse(c, record)
}

// handleGetLastSignal returns the most recent cached signal for an asset
// GET /api/v1/signals/last/:asset_id
func (s *Server) handleGetLastSignal(c *gin.Context) {
	assetID := c.Param("asset_id")
	if assetID == "" {
		errorResponse(c, http.StatusBadRequest, "asset_id is required")
		return
	}

	if s.cache != nil {
		var sig signal.Signal
		if err := s.cache.GetLastSignal(c.Request.Context(), assetID, &sig); err == nil {
			successResponse(c, &sig)
			return
		}
	}

	// Cache miss, fall back to history if available.
	if s.repo != nil {
		records, err := s.repo.GetSignalHistory(c.Request.Context(), assetID, 1, 0)
		if err == nil && len(records) > 0 {
			successResponse(c, records[0])
			return
		}
	}

	errorResponse(c, http.StatusNotFound, "no signal found for asset")
}

// ============================================================================
// STRATEGY HANDLERS
// ============================================================================

// handleValidateStrategy checks strategy rules without executing them
// POST /api/v1/strategies/validate
func (s *Server) handleValidateStrategy(c *gin.Context) {
	var strategy rules.Strategy
	if err := c.ShouldBindJSON(&strategy); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	parser := rules.NewParser()
	result := parser.ValidateSyntax(&strategy)

	successResponse(c, result)
}

// ============================================================================
// ENGINE HANDLERS
// ============================================================================

// handleListEngines returns the registered scoring engines and fusion weights
// GET /api/v1/engines
func (s *Server) handleListEngines(c *gin.Context) {
	successResponse(c, s.generator.Describe())
}

// ============================================================================
// PROVIDER CREDENTIAL HANDLERS
// ============================================================================

type storeCredentialsRequest struct {
	Provider  string `json:"provider" binding:"required"`
	APIKey    string `json:"api_key" binding:"required"`
	APISecret string `json:"api_secret"`
	Sandbox   bool   `json:"sandbox"`
}

// handleListProviders lists providers with stored credentials
// GET /api/v1/providers
func (s *Server) handleListProviders(c *gin.Context) {
	if s.vaultClient == nil {
		errorResponse(c, http.StatusServiceUnavailable, "credential storage is not enabled")
		return
	}

	providers, err := s.vaultClient.ListProviders(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to list providers")
		return
	}

	successResponse(c, gin.H{"providers": providers, "count": len(providers)})
}

// handleStoreProviderCredentials stores credentials for a data provider
// POST /api/v1/providers/credentials
func (s *Server) handleStoreProviderCredentials(c *gin.Context) {
	if s.vaultClient == nil {
		errorResponse(c, http.StatusServiceUnavailable, "credential storage is not enabled")
		return
	}

	var req storeCredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	err := s.vaultClient.StoreCredentials(c.Request.Context(), vault.ProviderCredentials{
		Provider:  req.Provider,
		APIKey:    req.APIKey,
		APISecret: req.APISecret,
		Sandbox:   req.Sandbox,
	})
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to store credentials")
		return
	}

	log := s.requestLogger(c)
	log.Info().Str("provider", req.Provider).Msg("provider credentials stored")
	successResponse(c, gin.H{"message": "credentials stored", "provider": req.Provider})
}

// handleDeleteProviderCredentials removes credentials for a data provider
// DELETE /api/v1/providers/credentials/:provider
func (s *Server) handleDeleteProviderCredentials(c *gin.Context) {
	if s.vaultClient == nil {
		errorResponse(c, http.StatusServiceUnavailable, "credential storage is not enabled")
		return
	}

	provider := c.Param("provider")
	sandbox := c.Query("sandbox") == "true"

	if err := s.vaultClient.DeleteCredentials(c.Request.Context(), provider, sandbox); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to delete credentials")
		return
	}

	successResponse(c, gin.H{"message": "credentials deleted", "provider": provider})
}
