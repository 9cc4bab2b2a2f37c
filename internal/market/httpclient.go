package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// HTTPProvider fetches market data from a REST feed. The feed exposes
// GET /candles and GET /orderbook and returns the wire types of this
// package as JSON.
type HTTPProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

var _ DataProvider = (*HTTPProvider)(nil)

// NewHTTPProvider creates a client for the market data feed. The API key
// is optional; when set it is sent as X-API-Key.
func NewHTTPProvider(baseURL, apiKey string, logger zerolog.Logger) *HTTPProvider {
	return &HTTPProvider{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger.With().Str("component", "market_feed").Logger(),
	}
}

// GetCandles fetches a candle series for the asset and timeframe
func (p *HTTPProvider) GetCandles(ctx context.Context, assetID, timeframe string, limit int) ([]Candle, error) {
	params := url.Values{}
	params.Set("asset", assetID)
	params.Set("timeframe", timeframe)
	params.Set("limit", strconv.Itoa(limit))

	var candles []Candle
	if err := p.getJSON(ctx, fmt.Sprintf("%s/candles?%s", p.baseURL, params.Encode()), &candles); err != nil {
		return nil, fmt.Errorf("error fetching candles: %w", err)
	}

	p.logger.Debug().Str("asset_id", assetID).Str("timeframe", timeframe).Int("count", len(candles)).Msg("candles fetched")
	return candles, nil
}

// GetOrderBook fetches the current order book snapshot for the asset
func (p *HTTPProvider) GetOrderBook(ctx context.Context, assetID string) (*OrderBook, error) {
	params := url.Values{}
	params.Set("asset", assetID)

	var book OrderBook
	if err := p.getJSON(ctx, fmt.Sprintf("%s/orderbook?%s", p.baseURL, params.Encode()), &book); err != nil {
		return nil, fmt.Errorf("error fetching order book: %w", err)
	}

	return &book, nil
}

func (p *HTTPProvider) getJSON(ctx context.Context, endpoint string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if p.apiKey != "" {
		req.Header.Set("X-API-Key", p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("feed returned %d: %s", resp.StatusCode, string(body))
	}

	return json.Unmarshal(body, dest)
}
