// Package edhtop is the HTTP client for the external commander-ranking
// site: one call for the ranked list, one per-commander call for the
// representative decklist.
package edhtop

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tolarian/deckwatch/internal/domain"
	"go.uber.org/zap"
)

type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type rankingResponse struct {
	Commanders []rankedCommander `json:"commanders"`
}

type rankedCommander struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
	Rank int    `json:"rank"`
	URL  string `json:"url"`
}

type decklistResponse struct {
	Commander string         `json:"commander"`
	Partner   *partnerInfo   `json:"partner"`
	Cards     []decklistCard `json:"cards"`
}

type partnerInfo struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type decklistCard struct {
	CardID   string `json:"card_id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

func (c *Client) TopCommanders(ctx context.Context, n int) ([]domain.RankedCommander, error) {
	endpoint := fmt.Sprintf("%s/commanders?limit=%d", c.baseURL, n)

	var payload rankingResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	commanders := make([]domain.RankedCommander, 0, len(payload.Commanders))
	for i, entry := range payload.Commanders {
		rank := entry.Rank
		if rank == 0 {
			rank = i + 1
		}
		sourceURL := entry.URL
		if sourceURL == "" {
			sourceURL = fmt.Sprintf("%s/commander/%s", c.baseURL, url.PathEscape(entry.Slug))
		}
		commanders = append(commanders, domain.RankedCommander{
			Slug:      entry.Slug,
			Name:      entry.Name,
			Rank:      rank,
			SourceURL: sourceURL,
		})
		if len(commanders) == n {
			break
		}
	}
	return commanders, nil
}

func (c *Client) Decklist(ctx context.Context, slug string) (*domain.ScrapedDecklist, error) {
	endpoint := fmt.Sprintf("%s/commander/%s/decklist", c.baseURL, url.PathEscape(slug))

	var payload decklistResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	decklist := &domain.ScrapedDecklist{
		CommanderSlug: slug,
		Cards:         make([]domain.DecklistCard, 0, len(payload.Cards)),
	}
	if payload.Partner != nil {
		decklist.PartnerSlug = payload.Partner.Slug
		decklist.PartnerName = payload.Partner.Name
	}
	for _, card := range payload.Cards {
		quantity := card.Quantity
		if quantity < 1 {
			quantity = 1
		}
		decklist.Cards = append(decklist.Cards, domain.DecklistCard{
			CardID:   card.CardID,
			Name:     card.Name,
			Quantity: quantity,
		})
	}
	return decklist, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	start := time.Now()
	response, err := c.client.Do(request)
	if err != nil {
		c.logger.Warn("edhtop request failed", zap.String("url", endpoint), zap.Error(err))
		return &domain.TransientError{Cause: err}
	}
	defer response.Body.Close()

	c.logger.Debug(
		"edhtop request complete",
		zap.String("url", endpoint),
		zap.Int("status", response.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	switch {
	case response.StatusCode == http.StatusNotFound:
		return domain.ErrDecklistNotFound
	case response.StatusCode == http.StatusTooManyRequests:
		return &domain.TransientError{Cause: fmt.Errorf("rate limited (retry-after %s)", retryAfter(response))}
	case response.StatusCode >= 500:
		return &domain.TransientError{Cause: fmt.Errorf("edhtop error: status %d", response.StatusCode)}
	case response.StatusCode < 200 || response.StatusCode >= 300:
		return fmt.Errorf("edhtop error: status %d", response.StatusCode)
	}

	return json.NewDecoder(response.Body).Decode(out)
}

func retryAfter(response *http.Response) string {
	header := response.Header.Get("Retry-After")
	if header == "" {
		return "unset"
	}
	if _, err := strconv.Atoi(header); err == nil {
		return header + "s"
	}
	return header
}
