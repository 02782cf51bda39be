package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jpolanco/cardwise/internal/domain"
	"github.com/jpolanco/cardwise/internal/engine"
	"github.com/jpolanco/cardwise/internal/handler"
	"github.com/jpolanco/cardwise/internal/infra/cache"
	"github.com/jpolanco/cardwise/internal/infra/memory"
	"github.com/jpolanco/cardwise/internal/infra/observability"
	"github.com/jpolanco/cardwise/internal/service"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	store := memory.New()
	snapshots := cache.New[*engine.Snapshot](time.Minute)
	metrics := observability.NewMetrics()
	logger := zap.NewNop()

	ledger := service.NewLedgerService(store, snapshots, metrics, logger)
	rec := service.NewRecommendationService(store, ledger, engine.NewScorer(engine.DefaultPolicy()), metrics, logger)
	sav := service.NewSavingsService(store, ledger, logger)
	return handler.NewRouter(ledger, rec, sav, metrics, logger)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

func TestHealthz(t *testing.T) {
	router := newRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	router := newRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/readyz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	router := newRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestCardLifecycle(t *testing.T) {
	router := newRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/cards", map[string]any{
		"name":               "Blue Cash",
		"closing_day":        19,
		"payment_days_after": 28,
		"credit_limit":       20000,
		"current_balance":    1500,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var card domain.CreditCard
	decodeBody(t, rec, &card)
	if card.ID == "" {
		t.Fatal("expected a generated card ID")
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/cards/"+card.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPut, "/v1/cards/"+card.ID, map[string]any{
		"credit_limit": 25000,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated domain.CreditCard
	decodeBody(t, rec, &updated)
	if updated.CreditLimit != 25000 {
		t.Errorf("expected limit 25000, got %.2f", updated.CreditLimit)
	}
	if updated.Name != "Blue Cash" {
		t.Errorf("partial update must not clear the name, got %q", updated.Name)
	}

	rec = doJSON(t, router, http.MethodDelete, "/v1/cards/"+card.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/cards/"+card.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestCreateCard_Invalid(t *testing.T) {
	router := newRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/cards", map[string]any{
		"name":        "Bad",
		"closing_day": 42,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for closing_day 42, got %d", rec.Code)
	}
}

func TestRecommendFlow(t *testing.T) {
	router := newRouter(t)
	seedRouter(t, router)

	rec := doJSON(t, router, http.MethodPost, "/v1/recommendations", map[string]any{
		"amount":      500,
		"description": "new monitor",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created domain.PurchaseRecommendation
	decodeBody(t, rec, &created)
	if len(created.Ranking) != 2 {
		t.Fatalf("expected 2 ranked cards, got %d", len(created.Ranking))
	}
	if created.Ranking[0].Rank != 1 || created.Ranking[1].Rank != 2 {
		t.Error("ranking must be contiguous starting at 1")
	}

	// Execute with an empty body charges the top card.
	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/v1/recommendations/%s/execute", created.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var executed domain.ExecuteRecommendationResponse
	decodeBody(t, rec, &executed)
	if executed.CardID != created.Ranking[0].CardID {
		t.Errorf("expected top card %s charged, got %s", created.Ranking[0].CardID, executed.CardID)
	}

	// Executing twice conflicts.
	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/v1/recommendations/%s/execute", created.ID), nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 on double execution, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/recommendations?status=executed", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var listed struct {
		Recommendations []domain.PurchaseRecommendation `json:"recommendations"`
	}
	decodeBody(t, rec, &listed)
	if len(listed.Recommendations) != 1 {
		t.Errorf("expected 1 executed recommendation, got %d", len(listed.Recommendations))
	}
}

func TestRecommend_NoCards(t *testing.T) {
	router := newRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/recommendations", map[string]any{"amount": 100})
	if rec.Code != http.StatusPreconditionFailed {
		t.Errorf("expected 412 without cards, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRecommend_InvalidStatusFilter(t *testing.T) {
	router := newRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/recommendations?status=bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bogus status, got %d", rec.Code)
	}
}

func TestSavingsAvailable_Unconfigured(t *testing.T) {
	router := newRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/savings/available", nil)
	if rec.Code != http.StatusPreconditionFailed {
		t.Errorf("expected 412 without income/goal, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSavingsTransfer_Insufficient(t *testing.T) {
	router := newRouter(t)
	seedRouter(t, router)

	rec := doJSON(t, router, http.MethodPost, "/v1/savings/transfer", map[string]any{"amount": 99999})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSavingsRoundTrip(t *testing.T) {
	router := newRouter(t)
	seedRouter(t, router)

	rec := doJSON(t, router, http.MethodGet, "/v1/savings/available", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var av domain.SavingsAvailability
	decodeBody(t, rec, &av)
	if av.RecommendedTransfer < 0 {
		t.Errorf("recommended transfer must never be negative, got %.2f", av.RecommendedTransfer)
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/savings/transfer", map[string]any{"amount": 500})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp domain.TransferResponse
	decodeBody(t, rec, &resp)
	if resp.NewSavingsBalance != 500 {
		t.Errorf("expected savings 500, got %.2f", resp.NewSavingsBalance)
	}
}

func TestPayFixedExpense_DuplicateMonth(t *testing.T) {
	router := newRouter(t)
	seedRouter(t, router)

	rec := doJSON(t, router, http.MethodPost, "/v1/expenses/fixed", map[string]any{
		"name":    "Rent",
		"amount":  1200,
		"due_day": 1,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var expense domain.FixedExpense
	decodeBody(t, rec, &expense)

	payPath := fmt.Sprintf("/v1/expenses/fixed/%s/pay", expense.ID)
	rec = doJSON(t, router, http.MethodPost, payPath, map[string]any{})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, payPath, map[string]any{})
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 paying the same month twice, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDashboard(t *testing.T) {
	router := newRouter(t)
	seedRouter(t, router)

	rec := doJSON(t, router, http.MethodGet, "/v1/dashboard", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var dash domain.Dashboard
	decodeBody(t, rec, &dash)
	if len(dash.Cards) != 2 {
		t.Errorf("expected 2 active cards, got %d", len(dash.Cards))
	}
	if dash.TotalCreditLimit != 40000 {
		t.Errorf("expected total limit 40000, got %.2f", dash.TotalCreditLimit)
	}
	if dash.NextPaycheck.IsZero() {
		t.Error("expected a next paycheck with income configured")
	}
}

func TestDashboard_Unconfigured(t *testing.T) {
	router := newRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/dashboard", nil)
	if rec.Code != http.StatusPreconditionFailed {
		t.Errorf("expected 412 before setup, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestEngineMetricsEndpoint(t *testing.T) {
	router := newRouter(t)
	seedRouter(t, router)

	doJSON(t, router, http.MethodPost, "/v1/recommendations", map[string]any{"amount": 300})

	rec := doJSON(t, router, http.MethodGet, "/v1/metrics/engine", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var m domain.EngineMetrics
	decodeBody(t, rec, &m)
	if m.RecommendationsMade != 1 {
		t.Errorf("expected 1 recommendation made, got %d", m.RecommendationsMade)
	}
}

// seedRouter configures income, goal, balance and two cards over the API.
func seedRouter(t *testing.T, router http.Handler) {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/v1/balance", map[string]any{"balance": 5000})
	if rec.Code != http.StatusOK {
		t.Fatalf("seeding balance: %d %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, router, http.MethodPut, "/v1/income", map[string]any{
		"amount": 2300, "first_payday": 15, "second_payday": 30,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("seeding income: %d %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, router, http.MethodPut, "/v1/savings/goal", map[string]any{
		"amount_per_paycheck": 600, "min_comfort_balance": 2000, "variable_monthly": 1500,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("seeding goal: %d %s", rec.Code, rec.Body.String())
	}
	for _, card := range []map[string]any{
		{"name": "Blue", "closing_day": 19, "payment_days_after": 28, "credit_limit": 20000, "current_balance": 0},
		{"name": "Gold", "closing_day": 5, "payment_days_after": 25, "credit_limit": 20000, "current_balance": 16000},
	} {
		rec = doJSON(t, router, http.MethodPost, "/v1/cards", card)
		if rec.Code != http.StatusCreated {
			t.Fatalf("seeding card: %d %s", rec.Code, rec.Body.String())
		}
	}
}
