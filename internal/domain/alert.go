package domain

import "time"

type AlertDirection string

const (
	AlertIncrease AlertDirection = "increase"
	AlertDecrease AlertDirection = "decrease"
)

// PriceAlert is write-once from the core; dismissal is the only
// mutation, and it comes from the user-facing layer.
type PriceAlert struct {
	ID               uint
	CardID           string
	Treatment        Treatment
	OldPriceCents    int64
	NewPriceCents    int64
	PercentageChange string
	Direction        AlertDirection
	Dismissed        bool
	DismissedAt      *time.Time
	CreatedAt        time.Time
}
