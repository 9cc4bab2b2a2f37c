package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// SignalRecord is the persisted form of a generated signal
type SignalRecord struct {
	ID                string          `json:"id"`
	StrategyID        string          `json:"strategy_id"`
	AssetID           string          `json:"asset_id"`
	AssetType         string          `json:"asset_type"`
	Action            string          `json:"action"`
	FinalScore        float64         `json:"final_score"`
	Confidence        float64         `json:"confidence"`
	EngineScores      json.RawMessage `json:"engine_scores,omitempty"`
	StrategyExecution json.RawMessage `json:"strategy_execution,omitempty"`
	PositionSizing    json.RawMessage `json:"position_sizing,omitempty"`
	Metadata          json.RawMessage `json:"metadata,omitempty"`
	Error             string          `json:"error,omitempty"`
	GeneratedAt       time.Time       `json:"generated_at"`
}

// Repository provides access to signal history
type Repository struct {
	db *DB
}

// NewRepository creates a signal repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// HealthCheck verifies the underlying connection is alive
func (r *Repository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// SaveSignal inserts one generated signal
func (r *Repository) SaveSignal(ctx context.Context, rec *SignalRecord) error {
	query := `
		INSERT INTO signals (
			id, strategy_id, asset_id, asset_type, action, final_score,
			confidence, engine_scores, strategy_execution, position_sizing,
			metadata, error, generated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Pool.Exec(ctx, query,
		rec.ID, rec.StrategyID, rec.AssetID, rec.AssetType, rec.Action,
		rec.FinalScore, rec.Confidence, rec.EngineScores, rec.StrategyExecution,
		rec.PositionSizing, rec.Metadata, nullable(rec.Error), rec.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save signal: %w", err)
	}
	return nil
}

// GetSignalHistory returns signals for an asset, newest first
func (r *Repository) GetSignalHistory(ctx context.Context, assetID string, limit, offset int) ([]*SignalRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, strategy_id, asset_id, asset_type, action, final_score,
		       confidence, engine_scores, strategy_execution, position_sizing,
		       metadata, COALESCE(error, ''), generated_at
		FROM signals
		WHERE ($1 = '' OR asset_id = $1)
		ORDER BY generated_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Pool.Query(ctx, query, assetID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query signal history: %w", err)
	}
	defer rows.Close()

	var records []*SignalRecord
	for rows.Next() {
		rec := &SignalRecord{}
		if err := rows.Scan(
			&rec.ID, &rec.StrategyID, &rec.AssetID, &rec.AssetType, &rec.Action,
			&rec.FinalScore, &rec.Confidence, &rec.EngineScores, &rec.StrategyExecution,
			&rec.PositionSizing, &rec.Metadata, &rec.Error, &rec.GeneratedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan signal record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetSignalByID fetches one signal by its ID
func (r *Repository) GetSignalByID(ctx context.Context, id string) (*SignalRecord, error) {
	query := `
		SELECT id, strategy_id, asset_id, asset_type, action, final_score,
		       confidence, engine_scores, strategy_execution, position_sizing,
		       metadata, COALESCE(error, ''), generated_at
		FROM signals WHERE id = $1`

	rec := &SignalRecord{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.StrategyID, &rec.AssetID, &rec.AssetType, &rec.Action,
		&rec.FinalScore, &rec.Confidence, &rec.EngineScores, &rec.StrategyExecution,
		&rec.PositionSizing, &rec.Metadata, &rec.Error, &rec.GeneratedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch signal %s: %w", id, err)
	}
	return rec, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
