package market

import (
	"context"
	"fmt"
	"time"

	"signal-fusion-engine/internal/cache"

	"github.com/rs/zerolog"
)

// Cache is the subset of the cache service the provider decorator needs.
// *cache.CacheService satisfies it.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, dest interface{}) error
}

// CachedProvider wraps a DataProvider with read-through caching. Cache
// errors are treated as misses; a write failure never fails the read.
// A nil Cache disables caching and every read goes upstream.
type CachedProvider struct {
	upstream  DataProvider
	cache     Cache
	candleTTL time.Duration
	bookTTL   time.Duration
	logger    zerolog.Logger
}

var (
	_ DataProvider     = (*CachedProvider)(nil)
	_ SnapshotProvider = (*CachedProvider)(nil)
)

// NewCachedProvider creates a read-through caching decorator around upstream.
func NewCachedProvider(upstream DataProvider, c Cache, logger zerolog.Logger) *CachedProvider {
	return &CachedProvider{
		upstream:  upstream,
		cache:     c,
		candleTTL: cache.DefaultCandleTTL,
		bookTTL:   cache.DefaultBookTTL,
		logger:    logger.With().Str("component", "cached_provider").Logger(),
	}
}

// GetCandles returns the cached series for the asset and timeframe, falling
// back to the upstream provider on a miss.
func (p *CachedProvider) GetCandles(ctx context.Context, assetID, timeframe string, limit int) ([]Candle, error) {
	key := fmt.Sprintf(cache.PrefixCandles, assetID, timeframe)

	if p.cache != nil {
		var cached []Candle
		if err := p.cache.GetJSON(ctx, key, &cached); err == nil && len(cached) >= limit {
			if limit > 0 && len(cached) > limit {
				cached = cached[len(cached)-limit:]
			}
			return cached, nil
		}
	}

	candles, err := p.upstream.GetCandles(ctx, assetID, timeframe, limit)
	if err != nil {
		return nil, err
	}

	if p.cache != nil && len(candles) > 0 {
		if err := p.cache.Set(ctx, key, candles, p.candleTTL); err != nil {
			p.logger.Warn().Err(err).Str("key", key).Msg("failed to cache candles")
		}
	}

	return candles, nil
}

// GetOrderBook returns the cached order book for the asset, falling back to
// the upstream provider on a miss. Books go stale fast, so the TTL is short.
func (p *CachedProvider) GetOrderBook(ctx context.Context, assetID string) (*OrderBook, error) {
	key := fmt.Sprintf(cache.PrefixOrderBook, assetID)

	if p.cache != nil {
		var cached OrderBook
		if err := p.cache.GetJSON(ctx, key, &cached); err == nil && (len(cached.Bids) > 0 || len(cached.Asks) > 0) {
			return &cached, nil
		}
	}

	book, err := p.upstream.GetOrderBook(ctx, assetID)
	if err != nil {
		return nil, err
	}

	if p.cache != nil && book != nil {
		if err := p.cache.Set(ctx, key, book, p.bookTTL); err != nil {
			p.logger.Warn().Err(err).Str("key", key).Msg("failed to cache order book")
		}
	}

	return book, nil
}

// Snapshot assembles candles for the given timeframes plus the order book
// into one bundle and caches it under the asset's snapshot key. Providers
// returning partial data still yield a usable snapshot; engines handle the
// missing fields.
func (p *CachedProvider) Snapshot(ctx context.Context, assetID string, timeframes []string, limit int) (*Snapshot, error) {
	key := fmt.Sprintf(cache.PrefixMarketSnapshot, assetID)

	if p.cache != nil {
		var cached Snapshot
		if err := p.cache.GetJSON(ctx, key, &cached); err == nil && cached.AssetID == assetID {
			return &cached, nil
		}
	}

	snap := &Snapshot{
		AssetID:     assetID,
		OHLCV:       make(map[string][]Candle),
		RetrievedAt: time.Now().UTC(),
	}

	for _, tf := range timeframes {
		candles, err := p.GetCandles(ctx, assetID, tf, limit)
		if err != nil {
			p.logger.Warn().Err(err).Str("asset_id", assetID).Str("timeframe", tf).Msg("candle fetch failed")
			continue
		}
		if len(candles) > 0 {
			snap.OHLCV[tf] = candles
		}
	}

	book, err := p.GetOrderBook(ctx, assetID)
	if err != nil {
		p.logger.Warn().Err(err).Str("asset_id", assetID).Msg("order book fetch failed")
	} else {
		snap.OrderBook = book
	}

	if len(snap.OHLCV) == 0 && snap.OrderBook == nil {
		return nil, fmt.Errorf("no market data available for %s", assetID)
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, key, snap, cache.DefaultSnapshotTTL); err != nil {
			p.logger.Warn().Err(err).Str("key", key).Msg("failed to cache snapshot")
		}
	}

	return snap, nil
}
