package domain

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

type CommanderRepository interface {
	Upsert(ctx context.Context, commander *Commander) error
	// EnsureBySlug returns the commander with the given slug, creating
	// an unranked placeholder row if none exists. Used for decklist
	// partners that may not appear in the scraped ranking.
	EnsureBySlug(ctx context.Context, slug, name string) (*Commander, error)
	GetByID(ctx context.Context, id uint) (*Commander, error)
	GetBySlug(ctx context.Context, slug string) (*Commander, error)
	List(ctx context.Context) ([]Commander, error)
	// ReplaceDecklist swaps a commander's decklist in full, atomically,
	// and stamps LastScrapedAt. An observer never sees the commander
	// without a decklist mid-replace.
	ReplaceDecklist(ctx context.Context, commanderID uint, partnerID *uint, cards []DecklistCard, scrapedAt time.Time) error
	GetDecklist(ctx context.Context, commanderID uint) (*Decklist, error)
}

type CardPriceRepository interface {
	// Insert appends a new observation; existing rows are never touched.
	Insert(ctx context.Context, price *CardPrice) error
	Latest(ctx context.Context, cardID string) (*CardPrice, error)
	History(ctx context.Context, cardID string, limit int) ([]CardPrice, error)
	// CardIDsFetchedSince reports which of the given cards already have
	// an observation at or after the cutoff.
	CardIDsFetchedSince(ctx context.Context, cutoff time.Time) (map[string]bool, error)
}

type PriceAlertRepository interface {
	Create(ctx context.Context, alert *PriceAlert) error
	List(ctx context.Context, includeDismissed bool) ([]PriceAlert, error)
	Dismiss(ctx context.Context, alertID uint) error
}

type ScrapeExecutionRepository interface {
	Create(ctx context.Context, execution *ScrapeExecution) error
	Finalize(ctx context.Context, execution *ScrapeExecution) error
}

// CollectionSource is the read capability the surrounding application
// exposes: the distinct card identifiers currently tracked by any
// collection entry. The core never writes collection data.
type CollectionSource interface {
	DistinctCardIDs(ctx context.Context) ([]string, error)
}
