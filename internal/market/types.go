// Package market defines the market data model consumed by the scoring
// engines and the collaborator interfaces that supply it.
package market

import (
	"context"
	"time"
)

// Candle represents one OHLCV candle
type Candle struct {
	OpenTime  int64   `json:"open_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	CloseTime int64   `json:"close_time"`
}

// BookLevel is a single price level in an order book snapshot
type BookLevel struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// OrderBook is a point-in-time order book snapshot
type OrderBook struct {
	Bids      []BookLevel `json:"bids"`
	Asks      []BookLevel `json:"asks"`
	Timestamp time.Time   `json:"timestamp"`
}

// BestBid returns the highest bid, or zero value if the book side is empty
func (ob *OrderBook) BestBid() BookLevel {
	if ob == nil || len(ob.Bids) == 0 {
		return BookLevel{}
	}
	return ob.Bids[0]
}

// BestAsk returns the lowest ask, or zero value if the book side is empty
func (ob *OrderBook) BestAsk() BookLevel {
	if ob == nil || len(ob.Asks) == 0 {
		return BookLevel{}
	}
	return ob.Asks[0]
}

// Event represents a scheduled or announced market event (unlock, listing,
// regulatory decision, earnings, ...)
type Event struct {
	Type             string    `json:"type"`
	Date             time.Time `json:"date"`
	Description      string    `json:"description"`
	UnlockPercentage float64   `json:"unlock_percentage,omitempty"`
}

// SentimentItem is one already-scored text item from the sentiment oracle.
// The oracle itself (the language model) is an external collaborator; the
// engine only aggregates its per-item output.
type SentimentItem struct {
	Sentiment  string  `json:"sentiment"` // positive, negative, neutral
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// FundamentalMetrics carries normalized fundamental data from the metrics
// provider. Score is already normalized to [-1, 1] by the provider; the
// engine clamps and annotates it.
type FundamentalMetrics struct {
	Score      float64            `json:"score"`
	Confidence float64            `json:"confidence"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	AsOf       time.Time          `json:"as_of,omitempty"`
}

// Snapshot bundles the market data for one asset at one point in time.
// Any field may be absent; engines degrade to neutral on missing data.
type Snapshot struct {
	AssetID        string              `json:"asset_id"`
	OHLCV          map[string][]Candle `json:"ohlcv,omitempty"` // keyed by timeframe, e.g. "1h"
	OrderBook      *OrderBook          `json:"order_book,omitempty"`
	Volume24h      float64             `json:"volume_24h,omitempty"`
	AverageVolume  float64             `json:"average_volume,omitempty"`
	Sentiment      []SentimentItem     `json:"sentiment,omitempty"`
	Fundamentals   *FundamentalMetrics `json:"fundamentals,omitempty"`
	Events         []Event             `json:"events,omitempty"`
	RetrievedAt    time.Time           `json:"retrieved_at"`
}

// DataProvider supplies candle series and order book snapshots on demand.
// A nil/empty response is valid and means no data is available.
type DataProvider interface {
	GetCandles(ctx context.Context, assetID, timeframe string, limit int) ([]Candle, error)
	GetOrderBook(ctx context.Context, assetID string) (*OrderBook, error)
}

// SnapshotProvider assembles full market snapshots for an asset on demand.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, assetID string, timeframes []string, limit int) (*Snapshot, error)
}

// EventProvider supplies upcoming events for an asset
type EventProvider interface {
	GetEvents(ctx context.Context, assetID string) ([]Event, error)
}

// SentimentOracle scores text items. The core never calls the model
// directly; it consumes the per-item results.
type SentimentOracle interface {
	Analyze(ctx context.Context, assetID string) ([]SentimentItem, error)
}
