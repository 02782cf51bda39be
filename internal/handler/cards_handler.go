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
// Credit cards
// ============================================================

func listCardsHandler(ledger *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cards")
		defer span.End()

		cards, err := ledger.ListCards(ctx, boolQuery(r, "include_inactive"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if cards == nil {
			cards = []domain.CreditCard{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"cards": cards})
	}
}

func createCardHandler(ledger *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/cards")
		defer span.End()

		var req domain.CreateCardRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		card, err := ledger.CreateCard(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, card)
	}
}

func getCardHandler(ledger *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cards/{cardId}")
		defer span.End()

		cardID := chi.URLParam(r, "cardId")
		span.SetAttributes(attribute.String("card.id", cardID))

		card, err := ledger.GetCard(ctx, cardID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, card)
	}
}

func updateCardHandler(ledger *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/cards/{cardId}")
		defer span.End()

		cardID := chi.URLParam(r, "cardId")
		span.SetAttributes(attribute.String("card.id", cardID))

		var req domain.UpdateCardRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		card, err := ledger.UpdateCard(ctx, cardID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, card)
	}
}

func deleteCardHandler(ledger *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/cards/{cardId}")
		defer span.End()

		cardID := chi.URLParam(r, "cardId")
		span.SetAttributes(attribute.String("card.id", cardID))

		if err := ledger.DeleteCard(ctx, cardID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func payCardHandler(ledger *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/cards/{cardId}/pay")
		defer span.End()

		cardID := chi.URLParam(r, "cardId")
		span.SetAttributes(attribute.String("card.id", cardID))

		var req domain.PayCardRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := ledger.PayCard(ctx, cardID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
