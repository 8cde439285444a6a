package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/tolarian/deckwatch/internal/domain"
)

type fakeCommanderRepo struct {
	nextID    uint
	bySlug    map[string]*domain.Commander
	decklists map[uint]*domain.Decklist
	upsertErr error
}

func newFakeCommanderRepo() *fakeCommanderRepo {
	return &fakeCommanderRepo{
		bySlug:    make(map[string]*domain.Commander),
		decklists: make(map[uint]*domain.Decklist),
	}
}

func (f *fakeCommanderRepo) Upsert(ctx context.Context, commander *domain.Commander) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if existing, ok := f.bySlug[commander.Slug]; ok {
		existing.Name = commander.Name
		existing.Rank = commander.Rank
		existing.SourceURL = commander.SourceURL
		*commander = *existing
		return nil
	}
	f.nextID++
	commander.ID = f.nextID
	saved := *commander
	f.bySlug[commander.Slug] = &saved
	return nil
}

func (f *fakeCommanderRepo) EnsureBySlug(ctx context.Context, slug, name string) (*domain.Commander, error) {
	if existing, ok := f.bySlug[slug]; ok {
		copied := *existing
		return &copied, nil
	}
	f.nextID++
	saved := domain.Commander{ID: f.nextID, Slug: slug, Name: name}
	f.bySlug[slug] = &saved
	copied := saved
	return &copied, nil
}

func (f *fakeCommanderRepo) GetByID(ctx context.Context, id uint) (*domain.Commander, error) {
	for _, commander := range f.bySlug {
		if commander.ID == id {
			copied := *commander
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeCommanderRepo) GetBySlug(ctx context.Context, slug string) (*domain.Commander, error) {
	commander, ok := f.bySlug[slug]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *commander
	return &copied, nil
}

func (f *fakeCommanderRepo) List(ctx context.Context) ([]domain.Commander, error) {
	commanders := make([]domain.Commander, 0, len(f.bySlug))
	for _, commander := range f.bySlug {
		commanders = append(commanders, *commander)
	}
	sort.Slice(commanders, func(i, j int) bool { return commanders[i].Rank < commanders[j].Rank })
	return commanders, nil
}

func (f *fakeCommanderRepo) ReplaceDecklist(ctx context.Context, commanderID uint, partnerID *uint, cards []domain.DecklistCard, scrapedAt time.Time) error {
	count := 0
	for _, card := range cards {
		count += card.Quantity
	}
	f.decklists[commanderID] = &domain.Decklist{
		CommanderID:        commanderID,
		PartnerCommanderID: partnerID,
		Cards:              cards,
		CardCount:          count,
	}
	for _, commander := range f.bySlug {
		if commander.ID == commanderID {
			stamped := scrapedAt
			commander.LastScrapedAt = &stamped
		}
	}
	return nil
}

func (f *fakeCommanderRepo) GetDecklist(ctx context.Context, commanderID uint) (*domain.Decklist, error) {
	decklist, ok := f.decklists[commanderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *decklist
	return &copied, nil
}

type fakeExecutionRepo struct {
	created   []*domain.ScrapeExecution
	finalized []domain.ScrapeExecution
}

func (f *fakeExecutionRepo) Create(ctx context.Context, execution *domain.ScrapeExecution) error {
	execution.ID = uint(len(f.created) + 1)
	copied := *execution
	f.created = append(f.created, &copied)
	return nil
}

func (f *fakeExecutionRepo) Finalize(ctx context.Context, execution *domain.ScrapeExecution) error {
	f.finalized = append(f.finalized, *execution)
	return nil
}

type fakeRanking struct {
	commanders []domain.RankedCommander
	listErr    error
	decklists  map[string]*domain.ScrapedDecklist
	deckErr    map[string]error
	deckCalls  map[string]int
}

func newFakeRanking(commanders ...domain.RankedCommander) *fakeRanking {
	return &fakeRanking{
		commanders: commanders,
		decklists:  make(map[string]*domain.ScrapedDecklist),
		deckErr:    make(map[string]error),
		deckCalls:  make(map[string]int),
	}
}

func (f *fakeRanking) TopCommanders(ctx context.Context, n int) ([]domain.RankedCommander, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if n > len(f.commanders) {
		n = len(f.commanders)
	}
	return f.commanders[:n], nil
}

func (f *fakeRanking) Decklist(ctx context.Context, slug string) (*domain.ScrapedDecklist, error) {
	f.deckCalls[slug]++
	if err, ok := f.deckErr[slug]; ok {
		return nil, err
	}
	if decklist, ok := f.decklists[slug]; ok {
		return decklist, nil
	}
	return &domain.ScrapedDecklist{CommanderSlug: slug}, nil
}

type fakePriceRepo struct {
	rows      []domain.CardPrice
	insertErr error
}

func (f *fakePriceRepo) Insert(ctx context.Context, price *domain.CardPrice) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	price.ID = uint(len(f.rows) + 1)
	f.rows = append(f.rows, *price)
	return nil
}

func (f *fakePriceRepo) Latest(ctx context.Context, cardID string) (*domain.CardPrice, error) {
	var latest *domain.CardPrice
	for i := range f.rows {
		row := f.rows[i]
		if row.CardID != cardID {
			continue
		}
		if latest == nil || row.FetchedAt.After(latest.FetchedAt) {
			copied := row
			latest = &copied
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return latest, nil
}

func (f *fakePriceRepo) History(ctx context.Context, cardID string, limit int) ([]domain.CardPrice, error) {
	var history []domain.CardPrice
	for _, row := range f.rows {
		if row.CardID == cardID {
			history = append(history, row)
		}
	}
	sort.Slice(history, func(i, j int) bool { return history[i].FetchedAt.After(history[j].FetchedAt) })
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

func (f *fakePriceRepo) CardIDsFetchedSince(ctx context.Context, cutoff time.Time) (map[string]bool, error) {
	fresh := make(map[string]bool)
	for _, row := range f.rows {
		if !row.FetchedAt.Before(cutoff) {
			fresh[row.CardID] = true
		}
	}
	return fresh, nil
}

type fakeCollection struct {
	cardIDs []string
}

func (f *fakeCollection) DistinctCardIDs(ctx context.Context) ([]string, error) {
	return f.cardIDs, nil
}

type fakePricing struct {
	prices     map[string]domain.CardPricing
	batchSizes []int
	failures   int
	failErr    error
}

func (f *fakePricing) PricesForBatch(ctx context.Context, cardIDs []string) (map[string]domain.CardPricing, error) {
	f.batchSizes = append(f.batchSizes, len(cardIDs))
	if f.failures > 0 {
		f.failures--
		return nil, f.failErr
	}
	result := make(map[string]domain.CardPricing, len(cardIDs))
	for _, id := range cardIDs {
		if pricing, ok := f.prices[id]; ok {
			result[id] = pricing
		}
	}
	return result, nil
}

type fakeAlertRepo struct {
	alerts []domain.PriceAlert
}

func (f *fakeAlertRepo) Create(ctx context.Context, alert *domain.PriceAlert) error {
	alert.ID = uint(len(f.alerts) + 1)
	f.alerts = append(f.alerts, *alert)
	return nil
}

func (f *fakeAlertRepo) List(ctx context.Context, includeDismissed bool) ([]domain.PriceAlert, error) {
	var out []domain.PriceAlert
	for _, alert := range f.alerts {
		if !includeDismissed && alert.Dismissed {
			continue
		}
		out = append(out, alert)
	}
	return out, nil
}

func (f *fakeAlertRepo) Dismiss(ctx context.Context, alertID uint) error {
	for i := range f.alerts {
		if f.alerts[i].ID == alertID && !f.alerts[i].Dismissed {
			now := time.Now()
			f.alerts[i].Dismissed = true
			f.alerts[i].DismissedAt = &now
			return nil
		}
	}
	return domain.ErrNotFound
}

func cents(v int64) *int64 { return &v }
