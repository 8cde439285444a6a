package db

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/tolarian/deckwatch/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommanderRepository struct {
	db *gorm.DB
}

func NewCommanderRepository(db *gorm.DB) *CommanderRepository {
	return &CommanderRepository{db: db}
}

// Upsert creates or refreshes a commander by slug. Rank and source URL
// move between runs; slug and identity do not.
func (r *CommanderRepository) Upsert(ctx context.Context, commander *domain.Commander) error {
	model := commanderModel{
		Slug:      commander.Slug,
		Name:      commander.Name,
		Rank:      commander.Rank,
		SourceURL: commander.SourceURL,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "rank", "source_url", "updated_at"}),
	}).Create(&model).Error
	if err != nil {
		return err
	}

	// The conflict path does not report the surviving row's id.
	var saved commanderModel
	if err := r.db.WithContext(ctx).Where("slug = ?", commander.Slug).First(&saved).Error; err != nil {
		return err
	}
	*commander = *mapCommanderToDomain(saved)
	return nil
}

// EnsureBySlug creates an unranked placeholder when the slug is new
// and otherwise leaves the existing row untouched.
func (r *CommanderRepository) EnsureBySlug(ctx context.Context, slug, name string) (*domain.Commander, error) {
	model := commanderModel{Slug: slug, Name: name}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoNothing: true,
	}).Create(&model).Error
	if err != nil {
		return nil, err
	}
	return r.GetBySlug(ctx, slug)
}

func (r *CommanderRepository) GetByID(ctx context.Context, id uint) (*domain.Commander, error) {
	var model commanderModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return mapCommanderToDomain(model), nil
}

func (r *CommanderRepository) GetBySlug(ctx context.Context, slug string) (*domain.Commander, error) {
	var model commanderModel
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return mapCommanderToDomain(model), nil
}

func (r *CommanderRepository) List(ctx context.Context) ([]domain.Commander, error) {
	var models []commanderModel
	if err := r.db.WithContext(ctx).Order("rank").Find(&models).Error; err != nil {
		return nil, err
	}
	commanders := make([]domain.Commander, 0, len(models))
	for _, model := range models {
		commanders = append(commanders, *mapCommanderToDomain(model))
	}
	return commanders, nil
}

// ReplaceDecklist deletes the commander's current decklist and inserts
// the new one in a single transaction, then stamps last_scraped_at.
// Readers either see the old list or the new one, never neither.
func (r *CommanderRepository) ReplaceDecklist(ctx context.Context, commanderID uint, partnerID *uint, cards []domain.DecklistCard, scrapedAt time.Time) error {
	payload, err := json.Marshal(cards)
	if err != nil {
		return err
	}

	cardCount := 0
	names := make([]string, 0, len(cards))
	for _, card := range cards {
		cardCount += card.Quantity
		names = append(names, strings.ToLower(card.Name))
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("commander_id = ?", commanderID).Delete(&decklistModel{}).Error; err != nil {
			return err
		}
		model := decklistModel{
			CommanderID:        commanderID,
			PartnerCommanderID: partnerID,
			Cards:              payload,
			CardCount:          cardCount,
			SearchText:         strings.Join(names, " "),
		}
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		return tx.Model(&commanderModel{}).Where("id = ?", commanderID).
			Update("last_scraped_at", scrapedAt).Error
	})
}

func (r *CommanderRepository) GetDecklist(ctx context.Context, commanderID uint) (*domain.Decklist, error) {
	var model decklistModel
	if err := r.db.WithContext(ctx).Where("commander_id = ?", commanderID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var cards []domain.DecklistCard
	if err := json.Unmarshal(model.Cards, &cards); err != nil {
		return nil, err
	}

	return &domain.Decklist{
		ID:                 model.ID,
		CommanderID:        model.CommanderID,
		PartnerCommanderID: model.PartnerCommanderID,
		Cards:              cards,
		CardCount:          model.CardCount,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	}, nil
}

func mapCommanderToDomain(model commanderModel) *domain.Commander {
	return &domain.Commander{
		ID:            model.ID,
		Slug:          model.Slug,
		Name:          model.Name,
		Rank:          model.Rank,
		SourceURL:     model.SourceURL,
		LastScrapedAt: model.LastScrapedAt,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}
