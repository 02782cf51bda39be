package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/jpolanco/cardwise/internal/domain"
	"github.com/jpolanco/cardwise/internal/service"
)

// ============================================================
// Fixed expenses
// ============================================================

func listFixedExpensesHandler(ledger *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/expenses/fixed")
		defer span.End()

		expenses, err := ledger.ListFixedExpenses(ctx, boolQuery(r, "include_inactive"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if expenses == nil {
			expenses = []domain.FixedExpense{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"expenses": expenses})
	}
}

func createFixedExpenseHandler(ledger *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/expenses/fixed")
		defer span.End()

		var req struct {
			Name     string  `json:"name"`
			Amount   float64 `json:"amount"`
			DueDay   int     `json:"due_day"`
			Category string  `json:"category,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		expense, err := ledger.CreateFixedExpense(ctx, &domain.FixedExpense{
			Name:     req.Name,
			Amount:   req.Amount,
			DueDay:   req.DueDay,
			Category: req.Category,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, expense)
	}
}

func updateFixedExpenseHandler(ledger *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/expenses/fixed/{expenseId}")
		defer span.End()

		expenseID := chi.URLParam(r, "expenseId")
		span.SetAttributes(attribute.String("expense.id", expenseID))

		var req domain.UpdateFixedExpenseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		expense, err := ledger.UpdateFixedExpense(ctx, expenseID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, expense)
	}
}

func payFixedExpenseHandler(ledger *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/expenses/fixed/{expenseId}/pay")
		defer span.End()

		expenseID := chi.URLParam(r, "expenseId")
		span.SetAttributes(attribute.String("expense.id", expenseID))

		var req domain.PayExpenseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := ledger.PayFixedExpense(ctx, expenseID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ============================================================
// Variable expenses
// ============================================================

func listVariableExpensesHandler(ledger *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/expenses/variable")
		defer span.End()

		// Default window: the last 30 days.
		since := time.Now().UTC().AddDate(0, 0, -30)
		if v := r.URL.Query().Get("since"); v != "" {
			parsed, err := time.Parse("2006-01-02", v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "since must be YYYY-MM-DD")
				return
			}
			since = parsed
		}

		expenses, err := ledger.ListVariableExpenses(ctx, since)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if expenses == nil {
			expenses = []domain.VariableExpense{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"expenses": expenses})
	}
}

func logVariableExpenseHandler(ledger *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/expenses/variable")
		defer span.End()

		var req struct {
			Category    string  `json:"category"`
			Amount      float64 `json:"amount"`
			Description string  `json:"description,omitempty"`
			SpentOn     string  `json:"spent_on,omitempty"`
			CardID      string  `json:"card_id,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		expense := &domain.VariableExpense{
			Category:    req.Category,
			Amount:      req.Amount,
			Description: req.Description,
			CardID:      req.CardID,
		}
		if req.SpentOn != "" {
			spentOn, err := time.Parse("2006-01-02", req.SpentOn)
			if err != nil {
				writeError(w, http.StatusBadRequest, "spent_on must be YYYY-MM-DD")
				return
			}
			expense.SpentOn = spentOn
		}

		created, err := ledger.LogVariableExpense(ctx, expense)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// ============================================================
// Bonus events
// ============================================================

func listBonusesHandler(ledger *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/bonuses")
		defer span.End()

		bonuses, err := ledger.ListBonusEvents(ctx, boolQuery(r, "include_received"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if bonuses == nil {
			bonuses = []domain.BonusEvent{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"bonuses": bonuses})
	}
}

func createBonusHandler(ledger *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/bonuses")
		defer span.End()

		var req struct {
			Amount      float64 `json:"amount"`
			ExpectedOn  string  `json:"expected_on"`
			Description string  `json:"description,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		bonus := &domain.BonusEvent{
			Amount:      req.Amount,
			Description: req.Description,
		}
		if req.ExpectedOn != "" {
			expectedOn, err := time.Parse("2006-01-02", req.ExpectedOn)
			if err != nil {
				writeError(w, http.StatusBadRequest, "expected_on must be YYYY-MM-DD")
				return
			}
			bonus.ExpectedOn = expectedOn
		}

		created, err := ledger.CreateBonusEvent(ctx, bonus)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func markBonusReceivedHandler(ledger *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/bonuses/{bonusId}/received")
		defer span.End()

		bonusID := chi.URLParam(r, "bonusId")
		span.SetAttributes(attribute.String("bonus.id", bonusID))

		bonus, err := ledger.MarkBonusReceived(ctx, bonusID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, bonus)
	}
}
