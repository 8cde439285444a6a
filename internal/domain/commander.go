package domain

import "time"

type Commander struct {
	ID            uint
	Slug          string
	Name          string
	Rank          int
	SourceURL     string
	LastScrapedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type DecklistCard struct {
	CardID   string `json:"card_id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type Decklist struct {
	ID                 uint
	CommanderID        uint
	PartnerCommanderID *uint
	Cards              []DecklistCard
	CardCount          int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TotalCards sums quantities across all tuples, which is what the
// scrape run reports as "cards processed".
func (d Decklist) TotalCards() int {
	total := 0
	for _, card := range d.Cards {
		total += card.Quantity
	}
	return total
}
