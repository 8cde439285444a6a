package db

import (
	"context"

	"gorm.io/gorm"
)

// CollectionRepository reads the collection table owned by the
// surrounding application. The ingestion core only ever needs the
// distinct card identifiers in use and never writes here.
type CollectionRepository struct {
	db *gorm.DB
}

func NewCollectionRepository(db *gorm.DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

func (r *CollectionRepository) DistinctCardIDs(ctx context.Context) ([]string, error) {
	var cardIDs []string
	err := r.db.WithContext(ctx).
		Table("collection_entries").
		Distinct().
		Pluck("card_id", &cardIDs).Error
	if err != nil {
		return nil, err
	}
	return cardIDs, nil
}
