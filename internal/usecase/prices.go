package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tolarian/deckwatch/internal/domain"
	"github.com/tolarian/deckwatch/internal/retry"
	"go.uber.org/zap"
)

// RefreshSummary reports what one price refresh accomplished. Skipped
// cards were already fresh today; failed cards exhausted their retries
// or were unknown to the source.
type RefreshSummary struct {
	Processed     int
	Skipped       int
	Failed        int
	AlertsCreated int
	FailedCardIDs []string
	Duration      time.Duration
}

type RefresherConfig struct {
	BatchSize  int
	BatchDelay time.Duration
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

type PriceRefresher struct {
	prices     domain.CardPriceRepository
	collection domain.CollectionSource
	source     domain.PricingSource
	alerts     *AlertEngine
	cfg        RefresherConfig
	logger     *zap.Logger
	progress   ProgressReporter
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewPriceRefresher(
	prices domain.CardPriceRepository,
	collection domain.CollectionSource,
	source domain.PricingSource,
	alerts *AlertEngine,
	cfg RefresherConfig,
	logger *zap.Logger,
	progress ProgressReporter,
) *PriceRefresher {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 50
	}
	if progress == nil {
		progress = NopReporter()
	}
	return &PriceRefresher{
		prices:     prices,
		collection: collection,
		source:     source,
		alerts:     alerts,
		cfg:        cfg,
		logger:     logger,
		progress:   progress,
		now:        time.Now,
		sleep:      sleepCtx,
	}
}

// Refresh fetches current prices for the given card ids, or for every
// distinct card in the tracked collection when none are given. The
// collection path skips cards already fetched today; explicit ids
// bypass that filter so a manual refresh always hits the source.
func (r *PriceRefresher) Refresh(ctx context.Context, cardIDs []string) (RefreshSummary, error) {
	started := r.now()
	summary := RefreshSummary{}
	forced := len(cardIDs) > 0

	targets := cardIDs
	if !forced {
		all, err := r.collection.DistinctCardIDs(ctx)
		if err != nil {
			return summary, fmt.Errorf("list tracked cards: %w", err)
		}
		fresh, err := r.prices.CardIDsFetchedSince(ctx, startOfDayUTC(started))
		if err != nil {
			return summary, fmt.Errorf("check freshness: %w", err)
		}
		targets = targets[:0]
		for _, id := range all {
			if fresh[id] {
				summary.Skipped++
				continue
			}
			targets = append(targets, id)
		}
	}

	batches := chunk(targets, r.cfg.BatchSize)
	for i, batch := range batches {
		if i > 0 {
			// Fixed pause between batches keeps us under the source's
			// implicit rate budget regardless of per-call outcomes.
			if err := r.sleep(ctx, r.cfg.BatchDelay); err != nil {
				summary.Duration = r.now().Sub(started)
				return summary, err
			}
		}
		r.progress.OnProgress(ProgressEvent{
			Stage:   "price batch",
			Index:   i + 1,
			Total:   len(batches),
			Percent: float64(i+1) / float64(len(batches)) * 100,
			Detail:  fmt.Sprintf("%d cards", len(batch)),
		})
		r.refreshBatch(ctx, batch, &summary)
		if ctx.Err() != nil {
			summary.Duration = r.now().Sub(started)
			return summary, ctx.Err()
		}
	}

	summary.Duration = r.now().Sub(started)
	r.logger.Info("price refresh finished",
		zap.Int("processed", summary.Processed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Int("alerts", summary.AlertsCreated),
		zap.Duration("duration", summary.Duration),
	)
	return summary, nil
}

// refreshBatch fetches one batch with retry, then persists each card's
// observation. A batch that exhausts its retries fails all of its
// cards for this run; the refresh itself continues.
func (r *PriceRefresher) refreshBatch(ctx context.Context, batch []string, summary *RefreshSummary) {
	fetched, err := retry.Do(ctx, retry.Policy{
		MaxAttempts: r.cfg.MaxRetries,
		BaseDelay:   r.cfg.BaseDelay,
		MaxDelay:    r.cfg.MaxDelay,
		Retryable:   domain.IsTransient,
		OnRetry: func(attempt int, err error) {
			r.logger.Warn("price batch retry",
				zap.Int("attempt", attempt),
				zap.Int("batch_size", len(batch)),
				zap.Error(err),
			)
		},
	}, func(ctx context.Context) (map[string]domain.CardPricing, error) {
		return r.source.PricesForBatch(ctx, batch)
	})
	if err != nil {
		var exhausted *retry.ExhaustedError
		if errors.As(err, &exhausted) {
			r.logger.Error("price batch exhausted, skipping cards",
				zap.Int("batch_size", len(batch)),
				zap.Error(err),
			)
		} else {
			r.logger.Error("price batch failed", zap.Int("batch_size", len(batch)), zap.Error(err))
		}
		summary.Failed += len(batch)
		summary.FailedCardIDs = append(summary.FailedCardIDs, batch...)
		return
	}

	for _, cardID := range batch {
		pricing, ok := fetched[cardID]
		if !ok {
			r.logger.Warn("card missing from pricing response", zap.String("card_id", cardID))
			summary.Failed++
			summary.FailedCardIDs = append(summary.FailedCardIDs, cardID)
			continue
		}
		alerts, err := r.persist(ctx, pricing)
		if err != nil {
			r.logger.Error("failed to persist price", zap.String("card_id", cardID), zap.Error(err))
			summary.Failed++
			summary.FailedCardIDs = append(summary.FailedCardIDs, cardID)
			continue
		}
		summary.Processed++
		summary.AlertsCreated += alerts
	}
}

// persist appends the new observation and runs the alert engine for
// each treatment present on it, comparing against the prior row.
func (r *PriceRefresher) persist(ctx context.Context, pricing domain.CardPricing) (int, error) {
	prior, err := r.prices.Latest(ctx, pricing.CardID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return 0, err
	}

	price := domain.CardPrice{
		CardID:      pricing.CardID,
		FetchedAt:   r.now().UTC(),
		NormalCents: pricing.NormalCents,
		FoilCents:   pricing.FoilCents,
		EtchedCents: pricing.EtchedCents,
	}
	if err := r.prices.Insert(ctx, &price); err != nil {
		return 0, err
	}

	created := 0
	for _, treatment := range []domain.Treatment{domain.TreatmentNormal, domain.TreatmentFoil, domain.TreatmentEtched} {
		newCents := price.ByTreatment(treatment)
		if newCents == nil {
			continue
		}
		var oldCents *int64
		if prior != nil {
			oldCents = prior.ByTreatment(treatment)
		}
		alert, err := r.alerts.MaybeAlert(ctx, pricing.CardID, treatment, oldCents, *newCents)
		if err != nil {
			r.logger.Error("alert evaluation failed",
				zap.String("card_id", pricing.CardID),
				zap.String("treatment", string(treatment)),
				zap.Error(err),
			)
			continue
		}
		if alert != nil {
			created++
		}
	}
	return created, nil
}

func chunk(ids []string, size int) [][]string {
	if len(ids) == 0 {
		return nil
	}
	batches := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}

func startOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
