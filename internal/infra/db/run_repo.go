package db

import (
	"context"

	"github.com/tolarian/deckwatch/internal/domain"
	"gorm.io/gorm"
)

type ScrapeExecutionRepository struct {
	db *gorm.DB
}

func NewScrapeExecutionRepository(db *gorm.DB) *ScrapeExecutionRepository {
	return &ScrapeExecutionRepository{db: db}
}

func (r *ScrapeExecutionRepository) Create(ctx context.Context, execution *domain.ScrapeExecution) error {
	model := mapExecutionToModel(*execution)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	execution.ID = model.ID
	return nil
}

func (r *ScrapeExecutionRepository) Finalize(ctx context.Context, execution *domain.ScrapeExecution) error {
	result := r.db.WithContext(ctx).
		Model(&scrapeExecutionModel{}).
		Where("id = ?", execution.ID).
		Updates(map[string]interface{}{
			"finished_at":          execution.FinishedAt,
			"status":               string(execution.Status),
			"commanders_attempted": execution.CommandersAttempted,
			"commanders_succeeded": execution.CommandersSucceeded,
			"commanders_failed":    execution.CommandersFailed,
			"cards_processed":      execution.CardsProcessed,
			"error_summary":        execution.ErrorSummary,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func mapExecutionToModel(execution domain.ScrapeExecution) scrapeExecutionModel {
	return scrapeExecutionModel{
		ID:                  execution.ID,
		RunID:               execution.RunID,
		StartedAt:           execution.StartedAt,
		FinishedAt:          execution.FinishedAt,
		Status:              string(execution.Status),
		CommandersAttempted: execution.CommandersAttempted,
		CommandersSucceeded: execution.CommandersSucceeded,
		CommandersFailed:    execution.CommandersFailed,
		CardsProcessed:      execution.CardsProcessed,
		ErrorSummary:        execution.ErrorSummary,
	}
}
