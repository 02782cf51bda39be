package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/jpolanco/cardwise/internal/domain"
	"github.com/jpolanco/cardwise/internal/service"
)

// ============================================================
// Dashboard — GET /v1/dashboard
// ============================================================

func dashboardHandler(ledger *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard")
		defer span.End()

		dash, err := ledger.Dashboard(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, dash)
	}
}

// ============================================================
// Checking balance — POST /v1/balance
// ============================================================

func updateBalanceHandler(ledger *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/balance")
		defer span.End()

		var req domain.UpdateBalanceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := ledger.UpdateBalance(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ============================================================
// Income schedule — PUT /v1/income
// ============================================================

func setIncomeHandler(ledger *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/income")
		defer span.End()

		var req domain.IncomeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		income, err := ledger.SetIncome(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, income)
	}
}
