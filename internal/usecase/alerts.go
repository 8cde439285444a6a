package usecase

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/tolarian/deckwatch/internal/domain"
	"go.uber.org/zap"
)

var ErrAlertNotFound = errors.New("alert not found")

// AlertNotifier pushes a freshly created alert to an external channel.
// Delivery failure never fails the refresh that produced the alert.
type AlertNotifier interface {
	NotifyAlert(ctx context.Context, alert domain.PriceAlert) error
}

// AlertEngine compares a new price observation against the prior one
// and persists a write-once alert when the change clears the
// configured threshold.
type AlertEngine struct {
	alerts    domain.PriceAlertRepository
	threshold decimal.Decimal
	notifier  AlertNotifier
	logger    *zap.Logger
}

func NewAlertEngine(alerts domain.PriceAlertRepository, thresholdPct float64, notifier AlertNotifier, logger *zap.Logger) *AlertEngine {
	return &AlertEngine{
		alerts:    alerts,
		threshold: decimal.NewFromFloat(thresholdPct),
		notifier:  notifier,
		logger:    logger,
	}
}

// MaybeAlert returns the created alert, or nil when no alert applies:
// first observation (no prior price) and a zero old price both make
// the percentage change undefined.
func (e *AlertEngine) MaybeAlert(ctx context.Context, cardID string, treatment domain.Treatment, oldCents *int64, newCents int64) (*domain.PriceAlert, error) {
	if oldCents == nil || *oldCents == 0 {
		return nil, nil
	}

	oldPrice := decimal.NewFromInt(*oldCents)
	newPrice := decimal.NewFromInt(newCents)
	change := newPrice.Sub(oldPrice).Div(oldPrice).Mul(decimal.NewFromInt(100)).Round(2)
	if change.Abs().LessThan(e.threshold) {
		return nil, nil
	}

	direction := domain.AlertIncrease
	if newCents < *oldCents {
		direction = domain.AlertDecrease
	}

	alert := &domain.PriceAlert{
		CardID:           cardID,
		Treatment:        treatment,
		OldPriceCents:    *oldCents,
		NewPriceCents:    newCents,
		PercentageChange: change.StringFixed(2),
		Direction:        direction,
	}
	if err := e.alerts.Create(ctx, alert); err != nil {
		return nil, err
	}

	e.logger.Info("price alert created",
		zap.String("card_id", cardID),
		zap.String("treatment", string(treatment)),
		zap.Int64("old_cents", *oldCents),
		zap.Int64("new_cents", newCents),
		zap.String("change_pct", alert.PercentageChange),
		zap.String("direction", string(direction)),
	)

	if e.notifier != nil {
		if err := e.notifier.NotifyAlert(ctx, *alert); err != nil {
			e.logger.Warn("alert notification failed", zap.Uint("alert_id", alert.ID), zap.Error(err))
		}
	}
	return alert, nil
}

func (e *AlertEngine) List(ctx context.Context, includeDismissed bool) ([]domain.PriceAlert, error) {
	return e.alerts.List(ctx, includeDismissed)
}

// Dismiss is the single mutation the user-facing layer may apply to a
// core-created alert.
func (e *AlertEngine) Dismiss(ctx context.Context, alertID uint) error {
	if err := e.alerts.Dismiss(ctx, alertID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrAlertNotFound
		}
		return err
	}
	return nil
}
