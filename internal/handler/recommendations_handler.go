package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/jpolanco/cardwise/internal/domain"
	"github.com/jpolanco/cardwise/internal/service"
)

// ============================================================
// Purchase recommendations
// ============================================================

func recommendHandler(rec *service.RecommendationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/recommendations")
		defer span.End()

		var req domain.RecommendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(attribute.Float64("purchase.amount", req.Amount))

		recommendation, err := rec.Recommend(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, recommendation)
	}
}

func listRecommendationsHandler(rec *service.RecommendationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/recommendations")
		defer span.End()

		status := r.URL.Query().Get("status")
		limit := intQuery(r, "limit", 20)

		recommendations, err := rec.List(ctx, status, limit)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if recommendations == nil {
			recommendations = []domain.PurchaseRecommendation{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"recommendations": recommendations})
	}
}

func getRecommendationHandler(rec *service.RecommendationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/recommendations/{recId}")
		defer span.End()

		recID := chi.URLParam(r, "recId")
		span.SetAttributes(attribute.String("recommendation.id", recID))

		recommendation, err := rec.Get(ctx, recID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, recommendation)
	}
}

func executeRecommendationHandler(rec *service.RecommendationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/recommendations/{recId}/execute")
		defer span.End()

		recID := chi.URLParam(r, "recId")
		span.SetAttributes(attribute.String("recommendation.id", recID))

		// The body is optional: absent means "charge the top-ranked card".
		var req domain.ExecuteRecommendationRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}

		resp, err := rec.Execute(ctx, recID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func cancelRecommendationHandler(rec *service.RecommendationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/recommendations/{recId}/cancel")
		defer span.End()

		recID := chi.URLParam(r, "recId")
		span.SetAttributes(attribute.String("recommendation.id", recID))

		recommendation, err := rec.Cancel(ctx, recID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, recommendation)
	}
}
