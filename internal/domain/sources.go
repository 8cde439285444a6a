package domain

import (
	"context"
	"errors"
)

var ErrDecklistNotFound = errors.New("decklist not found")

// TransientError marks a source failure worth retrying: timeouts,
// 5xx responses, explicit rate-limit signals.
type TransientError struct {
	Cause error
}

func (e *TransientError) Error() string {
	return "transient source error: " + e.Cause.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}

func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// RankedCommander is one entry of the external ranking list.
type RankedCommander struct {
	Slug      string
	Name      string
	Rank      int
	SourceURL string
}

// ScrapedDecklist is a commander's representative build as fetched
// from the ranking site, before persistence.
type ScrapedDecklist struct {
	CommanderSlug string
	PartnerSlug   string
	PartnerName   string
	Cards         []DecklistCard
}

// RankingSource is the commander-ranking site: one call for the ranked
// list, one per-commander call for the decklist.
type RankingSource interface {
	TopCommanders(ctx context.Context, n int) ([]RankedCommander, error)
	Decklist(ctx context.Context, slug string) (*ScrapedDecklist, error)
}

// CardPricing carries per-treatment prices in minor currency units.
// A nil treatment means the source reported no price for that variant.
type CardPricing struct {
	CardID      string
	NormalCents *int64
	FoilCents   *int64
	EtchedCents *int64
}

// PricingSource resolves prices for a batch of card identifiers in one
// external call. Cards the source does not know are absent from the
// result rather than an error.
type PricingSource interface {
	PricesForBatch(ctx context.Context, cardIDs []string) (map[string]CardPricing, error)
}
