package db

import (
	"time"

	"gorm.io/datatypes"
)

type commanderModel struct {
	ID            uint   `gorm:"primaryKey"`
	Slug          string `gorm:"uniqueIndex;not null"`
	Name          string `gorm:"not null"`
	Rank          int    `gorm:"not null"`
	SourceURL     string `gorm:"not null"`
	LastScrapedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (commanderModel) TableName() string { return "commanders" }

type decklistModel struct {
	ID                 uint           `gorm:"primaryKey"`
	CommanderID        uint           `gorm:"uniqueIndex:idx_decklists_commander_partner,priority:1;not null"`
	PartnerCommanderID *uint          `gorm:"uniqueIndex:idx_decklists_commander_partner,priority:2"`
	Commander          commanderModel `gorm:"foreignKey:CommanderID;constraint:OnDelete:CASCADE"`
	Cards              datatypes.JSON `gorm:"type:jsonb;not null"`
	CardCount          int            `gorm:"not null"`
	SearchText         string         `gorm:"type:text;index"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (decklistModel) TableName() string { return "decklists" }

type scrapeExecutionModel struct {
	ID                  uint   `gorm:"primaryKey"`
	RunID               string `gorm:"uniqueIndex;not null"`
	StartedAt           time.Time
	FinishedAt          *time.Time
	Status              string `gorm:"index;not null"`
	CommandersAttempted int
	CommandersSucceeded int
	CommandersFailed    int
	CardsProcessed      int
	ErrorSummary        string
}

func (scrapeExecutionModel) TableName() string { return "scrape_executions" }

// cardPriceModel rows are append-only; the composite descending index
// makes the latest-price lookup an index seek.
type cardPriceModel struct {
	ID          uint      `gorm:"primaryKey"`
	CardID      string    `gorm:"index:idx_card_prices_card_fetched,priority:1;not null"`
	FetchedAt   time.Time `gorm:"index:idx_card_prices_card_fetched,priority:2,sort:desc;not null"`
	NormalCents *int64
	FoilCents   *int64
	EtchedCents *int64
}

func (cardPriceModel) TableName() string { return "card_prices" }

type priceAlertModel struct {
	ID               uint   `gorm:"primaryKey"`
	CardID           string `gorm:"index;not null"`
	Treatment        string `gorm:"not null"`
	OldPriceCents    int64  `gorm:"not null"`
	NewPriceCents    int64  `gorm:"not null"`
	PercentageChange string `gorm:"not null"`
	Direction        string `gorm:"not null"`
	Dismissed        bool   `gorm:"index;not null;default:false"`
	DismissedAt      *time.Time
	CreatedAt        time.Time
}

func (priceAlertModel) TableName() string { return "price_alerts" }
