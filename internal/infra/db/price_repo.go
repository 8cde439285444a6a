package db

import (
	"context"
	"time"

	"github.com/tolarian/deckwatch/internal/domain"
	"gorm.io/gorm"
)

type CardPriceRepository struct {
	db *gorm.DB
}

func NewCardPriceRepository(db *gorm.DB) *CardPriceRepository {
	return &CardPriceRepository{db: db}
}

func (r *CardPriceRepository) Insert(ctx context.Context, price *domain.CardPrice) error {
	model := cardPriceModel{
		CardID:      price.CardID,
		FetchedAt:   price.FetchedAt,
		NormalCents: price.NormalCents,
		FoilCents:   price.FoilCents,
		EtchedCents: price.EtchedCents,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	price.ID = model.ID
	return nil
}

func (r *CardPriceRepository) Latest(ctx context.Context, cardID string) (*domain.CardPrice, error) {
	var model cardPriceModel
	err := r.db.WithContext(ctx).
		Where("card_id = ?", cardID).
		Order("fetched_at DESC").
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return mapPriceToDomain(model), nil
}

func (r *CardPriceRepository) History(ctx context.Context, cardID string, limit int) ([]domain.CardPrice, error) {
	var models []cardPriceModel
	query := r.db.WithContext(ctx).
		Where("card_id = ?", cardID).
		Order("fetched_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	prices := make([]domain.CardPrice, 0, len(models))
	for _, model := range models {
		prices = append(prices, *mapPriceToDomain(model))
	}
	return prices, nil
}

func (r *CardPriceRepository) CardIDsFetchedSince(ctx context.Context, cutoff time.Time) (map[string]bool, error) {
	var cardIDs []string
	err := r.db.WithContext(ctx).
		Model(&cardPriceModel{}).
		Where("fetched_at >= ?", cutoff).
		Distinct().
		Pluck("card_id", &cardIDs).Error
	if err != nil {
		return nil, err
	}
	fresh := make(map[string]bool, len(cardIDs))
	for _, id := range cardIDs {
		fresh[id] = true
	}
	return fresh, nil
}

func mapPriceToDomain(model cardPriceModel) *domain.CardPrice {
	return &domain.CardPrice{
		ID:          model.ID,
		CardID:      model.CardID,
		FetchedAt:   model.FetchedAt,
		NormalCents: model.NormalCents,
		FoilCents:   model.FoilCents,
		EtchedCents: model.EtchedCents,
	}
}
