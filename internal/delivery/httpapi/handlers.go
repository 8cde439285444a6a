package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/tolarian/deckwatch/internal/domain"
	"github.com/tolarian/deckwatch/internal/usecase"
	"go.uber.org/zap"
)

type Handlers struct {
	commanders      domain.CommanderRepository
	prices          domain.CardPriceRepository
	alerts          *usecase.AlertEngine
	historyPageSize int
	logger          *zap.Logger
}

func NewHandlers(
	commanders domain.CommanderRepository,
	prices domain.CardPriceRepository,
	alerts *usecase.AlertEngine,
	historyPageSize int,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		commanders:      commanders,
		prices:          prices,
		alerts:          alerts,
		historyPageSize: historyPageSize,
		logger:          logger,
	}
}

type commanderResponse struct {
	ID            uint       `json:"id"`
	Slug          string     `json:"slug"`
	Name          string     `json:"name"`
	Rank          int        `json:"rank"`
	SourceURL     string     `json:"source_url"`
	LastScrapedAt *time.Time `json:"last_scraped_at,omitempty"`
}

type commanderDetailResponse struct {
	commanderResponse
	Decklist *decklistResponse `json:"decklist,omitempty"`
}

type decklistResponse struct {
	PartnerCommanderID *uint                 `json:"partner_commander_id,omitempty"`
	CardCount          int                   `json:"card_count"`
	Cards              []domain.DecklistCard `json:"cards"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

type priceResponse struct {
	FetchedAt   time.Time `json:"fetched_at"`
	NormalCents *int64    `json:"normal_cents,omitempty"`
	FoilCents   *int64    `json:"foil_cents,omitempty"`
	EtchedCents *int64    `json:"etched_cents,omitempty"`
}

type alertResponse struct {
	ID               uint       `json:"id"`
	CardID           string     `json:"card_id"`
	Treatment        string     `json:"treatment"`
	OldPriceCents    int64      `json:"old_price_cents"`
	NewPriceCents    int64      `json:"new_price_cents"`
	PercentageChange string     `json:"percentage_change"`
	Direction        string     `json:"direction"`
	Dismissed        bool       `json:"dismissed"`
	DismissedAt      *time.Time `json:"dismissed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) ListCommanders(w http.ResponseWriter, r *http.Request) {
	commanders, err := h.commanders.List(r.Context())
	if err != nil {
		h.serverError(w, "list commanders", err)
		return
	}
	out := make([]commanderResponse, 0, len(commanders))
	for _, commander := range commanders {
		out = append(out, mapCommander(commander))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) GetCommander(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid commander id")
		return
	}

	commander, err := h.commanders.GetByID(r.Context(), uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "commander not found")
			return
		}
		h.serverError(w, "get commander", err)
		return
	}

	detail := commanderDetailResponse{commanderResponse: mapCommander(*commander)}
	decklist, err := h.commanders.GetDecklist(r.Context(), commander.ID)
	switch {
	case err == nil:
		detail.Decklist = &decklistResponse{
			PartnerCommanderID: decklist.PartnerCommanderID,
			CardCount:          decklist.CardCount,
			Cards:              decklist.Cards,
			UpdatedAt:          decklist.UpdatedAt,
		}
	case errors.Is(err, domain.ErrNotFound):
		// A commander scraped without a decklist is a documented state.
	default:
		h.serverError(w, "get decklist", err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

func (h *Handlers) PriceHistory(w http.ResponseWriter, r *http.Request) {
	cardID := r.PathValue("cardID")
	if cardID == "" {
		writeError(w, http.StatusBadRequest, "missing card id")
		return
	}

	history, err := h.prices.History(r.Context(), cardID, h.historyPageSize)
	if err != nil {
		h.serverError(w, "price history", err)
		return
	}
	out := make([]priceResponse, 0, len(history))
	for _, price := range history {
		out = append(out, priceResponse{
			FetchedAt:   price.FetchedAt,
			NormalCents: price.NormalCents,
			FoilCents:   price.FoilCents,
			EtchedCents: price.EtchedCents,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) ListAlerts(w http.ResponseWriter, r *http.Request) {
	includeDismissed := r.URL.Query().Get("dismissed") == "true"
	alerts, err := h.alerts.List(r.Context(), includeDismissed)
	if err != nil {
		h.serverError(w, "list alerts", err)
		return
	}
	out := make([]alertResponse, 0, len(alerts))
	for _, alert := range alerts {
		out = append(out, alertResponse{
			ID:               alert.ID,
			CardID:           alert.CardID,
			Treatment:        string(alert.Treatment),
			OldPriceCents:    alert.OldPriceCents,
			NewPriceCents:    alert.NewPriceCents,
			PercentageChange: alert.PercentageChange,
			Direction:        string(alert.Direction),
			Dismissed:        alert.Dismissed,
			DismissedAt:      alert.DismissedAt,
			CreatedAt:        alert.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) DismissAlert(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid alert id")
		return
	}

	if err := h.alerts.Dismiss(r.Context(), uint(id)); err != nil {
		if errors.Is(err, usecase.ErrAlertNotFound) {
			writeError(w, http.StatusNotFound, "alert not found")
			return
		}
		h.serverError(w, "dismiss alert", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) serverError(w http.ResponseWriter, op string, err error) {
	h.logger.Error("request failed", zap.String("op", op), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func mapCommander(commander domain.Commander) commanderResponse {
	return commanderResponse{
		ID:            commander.ID,
		Slug:          commander.Slug,
		Name:          commander.Name,
		Rank:          commander.Rank,
		SourceURL:     commander.SourceURL,
		LastScrapedAt: commander.LastScrapedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
