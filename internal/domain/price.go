package domain

import "time"

type Treatment string

const (
	TreatmentNormal Treatment = "normal"
	TreatmentFoil   Treatment = "foil"
	TreatmentEtched Treatment = "etched"
)

// CardPrice is one observation in an append-only time series keyed by
// (card id, fetched at). Rows are never updated in place; the current
// price is the row with the newest FetchedAt.
type CardPrice struct {
	ID          uint
	CardID      string
	FetchedAt   time.Time
	NormalCents *int64
	FoilCents   *int64
	EtchedCents *int64
}

// ByTreatment returns the price for a treatment, nil when the source
// reported no price for that variant.
func (p CardPrice) ByTreatment(treatment Treatment) *int64 {
	switch treatment {
	case TreatmentNormal:
		return p.NormalCents
	case TreatmentFoil:
		return p.FoilCents
	case TreatmentEtched:
		return p.EtchedCents
	default:
		return nil
	}
}
