// Package scryfall is the HTTP client for the external pricing source.
// Lookups go through the batched collection endpoint; a client-side
// token bucket keeps the request rate inside the source's budget.
package scryfall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tolarian/deckwatch/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, rps float64, logger *zap.Logger) *Client {
	if rps <= 0 {
		rps = 10
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger,
	}
}

type collectionRequest struct {
	Identifiers []cardIdentifier `json:"identifiers"`
}

type cardIdentifier struct {
	ID string `json:"id"`
}

type collectionResponse struct {
	Data []cardEntry `json:"data"`
}

type cardEntry struct {
	ID     string     `json:"id"`
	Prices cardPrices `json:"prices"`
}

type cardPrices struct {
	USD       *string `json:"usd"`
	USDFoil   *string `json:"usd_foil"`
	USDEtched *string `json:"usd_etched"`
}

func (c *Client) PricesForBatch(ctx context.Context, cardIDs []string) (map[string]domain.CardPricing, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	identifiers := make([]cardIdentifier, 0, len(cardIDs))
	for _, id := range cardIDs {
		identifiers = append(identifiers, cardIdentifier{ID: id})
	}
	body, err := json.Marshal(collectionRequest{Identifiers: identifiers})
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/cards/collection"
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")

	start := time.Now()
	response, err := c.client.Do(request)
	if err != nil {
		c.logger.Warn("scryfall request failed", zap.Int("batch_size", len(cardIDs)), zap.Error(err))
		return nil, &domain.TransientError{Cause: err}
	}
	defer response.Body.Close()

	c.logger.Debug(
		"scryfall request complete",
		zap.Int("batch_size", len(cardIDs)),
		zap.Int("status", response.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	switch {
	case response.StatusCode == http.StatusTooManyRequests:
		return nil, &domain.TransientError{Cause: fmt.Errorf("scryfall rate limited")}
	case response.StatusCode >= 500:
		return nil, &domain.TransientError{Cause: fmt.Errorf("scryfall error: status %d", response.StatusCode)}
	case response.StatusCode < 200 || response.StatusCode >= 300:
		return nil, fmt.Errorf("scryfall error: status %d", response.StatusCode)
	}

	var payload collectionResponse
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return nil, err
	}

	prices := make(map[string]domain.CardPricing, len(payload.Data))
	for _, entry := range payload.Data {
		prices[entry.ID] = domain.CardPricing{
			CardID:      entry.ID,
			NormalCents: toCents(entry.Prices.USD),
			FoilCents:   toCents(entry.Prices.USDFoil),
			EtchedCents: toCents(entry.Prices.USDEtched),
		}
	}
	return prices, nil
}

// toCents converts a decimal price string ("12.34") into minor units.
// Unparseable or absent values come back nil rather than zero so a
// missing treatment is distinguishable from a free card.
func toCents(value *string) *int64 {
	if value == nil || *value == "" {
		return nil
	}
	parsed, err := decimal.NewFromString(*value)
	if err != nil {
		return nil
	}
	cents := parsed.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	return &cents
}
