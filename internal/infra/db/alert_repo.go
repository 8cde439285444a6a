package db

import (
	"context"
	"time"

	"github.com/tolarian/deckwatch/internal/domain"
	"gorm.io/gorm"
)

type PriceAlertRepository struct {
	db *gorm.DB
}

func NewPriceAlertRepository(db *gorm.DB) *PriceAlertRepository {
	return &PriceAlertRepository{db: db}
}

func (r *PriceAlertRepository) Create(ctx context.Context, alert *domain.PriceAlert) error {
	model := mapAlertToModel(*alert)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	alert.ID = model.ID
	alert.CreatedAt = model.CreatedAt
	return nil
}

func (r *PriceAlertRepository) List(ctx context.Context, includeDismissed bool) ([]domain.PriceAlert, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if !includeDismissed {
		query = query.Where("dismissed = ?", false)
	}
	var models []priceAlertModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	alerts := make([]domain.PriceAlert, 0, len(models))
	for _, model := range models {
		alerts = append(alerts, *mapAlertToDomain(model))
	}
	return alerts, nil
}

func (r *PriceAlertRepository) Dismiss(ctx context.Context, alertID uint) error {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&priceAlertModel{}).
		Where("id = ? AND dismissed = ?", alertID, false).
		Updates(map[string]interface{}{"dismissed": true, "dismissed_at": now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func mapAlertToDomain(model priceAlertModel) *domain.PriceAlert {
	return &domain.PriceAlert{
		ID:               model.ID,
		CardID:           model.CardID,
		Treatment:        domain.Treatment(model.Treatment),
		OldPriceCents:    model.OldPriceCents,
		NewPriceCents:    model.NewPriceCents,
		PercentageChange: model.PercentageChange,
		Direction:        domain.AlertDirection(model.Direction),
		Dismissed:        model.Dismissed,
		DismissedAt:      model.DismissedAt,
		CreatedAt:        model.CreatedAt,
	}
}

func mapAlertToModel(alert domain.PriceAlert) priceAlertModel {
	return priceAlertModel{
		ID:               alert.ID,
		CardID:           alert.CardID,
		Treatment:        string(alert.Treatment),
		OldPriceCents:    alert.OldPriceCents,
		NewPriceCents:    alert.NewPriceCents,
		PercentageChange: alert.PercentageChange,
		Direction:        string(alert.Direction),
		Dismissed:        alert.Dismissed,
		DismissedAt:      alert.DismissedAt,
	}
}
