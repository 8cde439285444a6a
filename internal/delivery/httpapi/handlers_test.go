package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tolarian/deckwatch/internal/domain"
	"github.com/tolarian/deckwatch/internal/usecase"
	"go.uber.org/zap"
)

type stubCommanderRepo struct {
	commanders []domain.Commander
	decklists  map[uint]*domain.Decklist
}

func (s *stubCommanderRepo) Upsert(ctx context.Context, commander *domain.Commander) error {
	return nil
}

func (s *stubCommanderRepo) EnsureBySlug(ctx context.Context, slug, name string) (*domain.Commander, error) {
	return nil, domain.ErrNotFound
}

func (s *stubCommanderRepo) GetByID(ctx context.Context, id uint) (*domain.Commander, error) {
	for _, commander := range s.commanders {
		if commander.ID == id {
			copied := commander
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubCommanderRepo) GetBySlug(ctx context.Context, slug string) (*domain.Commander, error) {
	return nil, domain.ErrNotFound
}

func (s *stubCommanderRepo) List(ctx context.Context) ([]domain.Commander, error) {
	return s.commanders, nil
}

func (s *stubCommanderRepo) ReplaceDecklist(ctx context.Context, commanderID uint, partnerID *uint, cards []domain.DecklistCard, scrapedAt time.Time) error {
	return nil
}

func (s *stubCommanderRepo) GetDecklist(ctx context.Context, commanderID uint) (*domain.Decklist, error) {
	decklist, ok := s.decklists[commanderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return decklist, nil
}

type stubPriceRepo struct {
	history []domain.CardPrice
}

func (s *stubPriceRepo) Insert(ctx context.Context, price *domain.CardPrice) error { return nil }

func (s *stubPriceRepo) Latest(ctx context.Context, cardID string) (*domain.CardPrice, error) {
	return nil, domain.ErrNotFound
}

func (s *stubPriceRepo) History(ctx context.Context, cardID string, limit int) ([]domain.CardPrice, error) {
	return s.history, nil
}

func (s *stubPriceRepo) CardIDsFetchedSince(ctx context.Context, cutoff time.Time) (map[string]bool, error) {
	return nil, nil
}

type stubAlertRepo struct {
	alerts []domain.PriceAlert
}

func (s *stubAlertRepo) Create(ctx context.Context, alert *domain.PriceAlert) error {
	alert.ID = uint(len(s.alerts) + 1)
	s.alerts = append(s.alerts, *alert)
	return nil
}

func (s *stubAlertRepo) List(ctx context.Context, includeDismissed bool) ([]domain.PriceAlert, error) {
	var out []domain.PriceAlert
	for _, alert := range s.alerts {
		if !includeDismissed && alert.Dismissed {
			continue
		}
		out = append(out, alert)
	}
	return out, nil
}

func (s *stubAlertRepo) Dismiss(ctx context.Context, alertID uint) error {
	for i := range s.alerts {
		if s.alerts[i].ID == alertID {
			s.alerts[i].Dismissed = true
			return nil
		}
	}
	return domain.ErrNotFound
}

func newTestMux(t *testing.T, commanders *stubCommanderRepo, prices *stubPriceRepo, alerts *stubAlertRepo) *http.ServeMux {
	t.Helper()
	engine := usecase.NewAlertEngine(alerts, 20, nil, zap.NewNop())
	handlers := NewHandlers(commanders, prices, engine, 90, zap.NewNop())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handlers.Health)
	mux.HandleFunc("GET /commanders", handlers.ListCommanders)
	mux.HandleFunc("GET /commanders/{id}", handlers.GetCommander)
	mux.HandleFunc("GET /cards/{cardID}/prices", handlers.PriceHistory)
	mux.HandleFunc("GET /alerts", handlers.ListAlerts)
	mux.HandleFunc("POST /alerts/{id}/dismiss", handlers.DismissAlert)
	return mux
}

func doRequest(t *testing.T, mux *http.ServeMux, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, httptest.NewRequest(method, target, nil))
	return recorder
}

func TestListCommanders(t *testing.T) {
	commanders := &stubCommanderRepo{
		commanders: []domain.Commander{
			{ID: 1, Slug: "atraxa", Name: "Atraxa, Praetors' Voice", Rank: 1},
			{ID: 2, Slug: "krenko", Name: "Krenko, Mob Boss", Rank: 2},
		},
		decklists: map[uint]*domain.Decklist{},
	}
	mux := newTestMux(t, commanders, &stubPriceRepo{}, &stubAlertRepo{})

	recorder := doRequest(t, mux, http.MethodGet, "/commanders")
	if recorder.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", recorder.Code)
	}
	var payload []commanderResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload) != 2 || payload[0].Slug != "atraxa" {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestGetCommander_WithAndWithoutDecklist(t *testing.T) {
	commanders := &stubCommanderRepo{
		commanders: []domain.Commander{
			{ID: 1, Slug: "atraxa", Name: "Atraxa", Rank: 1},
			{ID: 2, Slug: "krenko", Name: "Krenko", Rank: 2},
		},
		decklists: map[uint]*domain.Decklist{
			1: {CommanderID: 1, CardCount: 100, Cards: []domain.DecklistCard{{CardID: "c1", Name: "Sol Ring", Quantity: 1}}},
		},
	}
	mux := newTestMux(t, commanders, &stubPriceRepo{}, &stubAlertRepo{})

	recorder := doRequest(t, mux, http.MethodGet, "/commanders/1")
	if recorder.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", recorder.Code)
	}
	var withDeck commanderDetailResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &withDeck); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if withDeck.Decklist == nil || withDeck.Decklist.CardCount != 100 {
		t.Errorf("expected decklist in detail: %+v", withDeck)
	}

	recorder = doRequest(t, mux, http.MethodGet, "/commanders/2")
	if recorder.Code != http.StatusOK {
		t.Fatalf("commander without decklist must still render, got %d", recorder.Code)
	}
	var withoutDeck commanderDetailResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &withoutDeck); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if withoutDeck.Decklist != nil {
		t.Error("expected no decklist")
	}

	recorder = doRequest(t, mux, http.MethodGet, "/commanders/99")
	if recorder.Code != http.StatusNotFound {
		t.Errorf("got status %d, want 404", recorder.Code)
	}
}

func TestPriceHistory(t *testing.T) {
	now := time.Now().UTC()
	normal := int64(1234)
	prices := &stubPriceRepo{history: []domain.CardPrice{
		{CardID: "card-1", FetchedAt: now, NormalCents: &normal},
	}}
	mux := newTestMux(t, &stubCommanderRepo{decklists: map[uint]*domain.Decklist{}}, prices, &stubAlertRepo{})

	recorder := doRequest(t, mux, http.MethodGet, "/cards/card-1/prices")
	if recorder.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", recorder.Code)
	}
	var payload []priceResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload) != 1 || payload[0].NormalCents == nil || *payload[0].NormalCents != 1234 {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestAlerts_ListAndDismiss(t *testing.T) {
	alerts := &stubAlertRepo{alerts: []domain.PriceAlert{
		{ID: 1, CardID: "card-1", Treatment: domain.TreatmentNormal, Direction: domain.AlertIncrease, PercentageChange: "30.00"},
	}}
	mux := newTestMux(t, &stubCommanderRepo{decklists: map[uint]*domain.Decklist{}}, &stubPriceRepo{}, alerts)

	recorder := doRequest(t, mux, http.MethodGet, "/alerts")
	if recorder.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", recorder.Code)
	}
	var payload []alertResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload) != 1 || payload[0].PercentageChange != "30.00" {
		t.Errorf("unexpected payload: %+v", payload)
	}

	recorder = doRequest(t, mux, http.MethodPost, "/alerts/1/dismiss")
	if recorder.Code != http.StatusNoContent {
		t.Errorf("got status %d, want 204", recorder.Code)
	}

	recorder = doRequest(t, mux, http.MethodGet, "/alerts")
	_ = json.Unmarshal(recorder.Body.Bytes(), &payload)
	if len(payload) != 0 {
		t.Errorf("dismissed alert should be filtered by default, got %+v", payload)
	}

	recorder = doRequest(t, mux, http.MethodGet, "/alerts?dismissed=true")
	_ = json.Unmarshal(recorder.Body.Bytes(), &payload)
	if len(payload) != 1 {
		t.Errorf("dismissed=true should include dismissed alerts, got %+v", payload)
	}

	recorder = doRequest(t, mux, http.MethodPost, "/alerts/42/dismiss")
	if recorder.Code != http.StatusNotFound {
		t.Errorf("got status %d, want 404", recorder.Code)
	}
}

func TestHealth(t *testing.T) {
	mux := newTestMux(t, &stubCommanderRepo{decklists: map[uint]*domain.Decklist{}}, &stubPriceRepo{}, &stubAlertRepo{})
	recorder := doRequest(t, mux, http.MethodGet, "/health")
	if recorder.Code != http.StatusOK {
		t.Errorf("got status %d, want 200", recorder.Code)
	}
}
