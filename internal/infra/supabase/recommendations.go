package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jpolanco/cardwise/internal/domain"
)

// supabaseRecommendation maps the recommendations table. The ranking
// column holds the scored list as a JSONB snapshot.
type supabaseRecommendation struct {
	ID             string          `json:"id"`
	Amount         float64         `json:"amount"`
	Description    string          `json:"description"`
	PurchaseDate   string          `json:"purchase_date"`
	Status         string          `json:"status"`
	Ranking        json.RawMessage `json:"ranking"`
	Affordability  json.RawMessage `json:"affordability"`
	Plan           json.RawMessage `json:"plan"`
	CreatedAt      string          `json:"created_at"`
	ExecutedAt     *string         `json:"executed_at"`
	ExecutedCardID string          `json:"executed_card_id"`
}

func (r supabaseRecommendation) toDomain() (domain.PurchaseRecommendation, error) {
	purchaseDate, _ := time.Parse(dateLayout, r.PurchaseDate)
	created, _ := time.Parse(time.RFC3339, r.CreatedAt)
	rec := domain.PurchaseRecommendation{
		ID:           r.ID,
		Amount:       r.Amount,
		Description:  r.Description,
		PurchaseDate: purchaseDate,
		Status:       r.Status,
		CreatedAt:    created,
		ExecutedCard: r.ExecutedCardID,
	}
	if r.ExecutedAt != nil {
		if t, err := time.Parse(time.RFC3339, *r.ExecutedAt); err == nil {
			rec.ExecutedAt = &t
		}
	}
	if err := json.Unmarshal(r.Ranking, &rec.Ranking); err != nil {
		return rec, fmt.Errorf("failed to decode ranking: %w", err)
	}
	if len(r.Affordability) > 0 && string(r.Affordability) != "null" {
		if err := json.Unmarshal(r.Affordability, &rec.Affordability); err != nil {
			return rec, fmt.Errorf("failed to decode affordability: %w", err)
		}
	}
	if len(r.Plan) > 0 && string(r.Plan) != "null" {
		rec.Plan = &domain.PaymentPlan{}
		if err := json.Unmarshal(r.Plan, rec.Plan); err != nil {
			return rec, fmt.Errorf("failed to decode payment plan: %w", err)
		}
	}
	return rec, nil
}

// SaveRecommendation inserts a freshly computed recommendation.
func (c *Client) SaveRecommendation(ctx context.Context, rec *domain.PurchaseRecommendation) error {
	ctx, span := tracer.Start(ctx, "Supabase.SaveRecommendation")
	defer span.End()

	ranking, err := json.Marshal(rec.Ranking)
	if err != nil {
		return err
	}
	affordability, err := json.Marshal(rec.Affordability)
	if err != nil {
		return err
	}
	payload := map[string]any{
		"id":            rec.ID,
		"amount":        rec.Amount,
		"description":   rec.Description,
		"purchase_date": rec.PurchaseDate.Format(dateLayout),
		"status":        rec.Status,
		"ranking":       json.RawMessage(ranking),
		"affordability": json.RawMessage(affordability),
		"created_at":    rec.CreatedAt.Format(time.RFC3339),
	}
	if rec.Plan != nil {
		plan, err := json.Marshal(rec.Plan)
		if err != nil {
			return err
		}
		payload["plan"] = json.RawMessage(plan)
	}
	_, err = c.doPost(ctx, "recommendations", payload)
	if err != nil {
		return c.wrapExternal("supabase/recommendations", err)
	}
	return nil
}

// GetRecommendation fetches one recommendation.
func (c *Client) GetRecommendation(ctx context.Context, recID string) (*domain.PurchaseRecommendation, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetRecommendation")
	defer span.End()
	span.SetAttributes(attribute.String("recommendation.id", recID))

	var rec *domain.PurchaseRecommendation
	err := c.withResilience(ctx, func() error {
		body, err := c.doGet(ctx, fmt.Sprintf("recommendations?id=eq.%s&limit=1", recID))
		if err != nil {
			return err
		}
		var rows []supabaseRecommendation
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode recommendation: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "recommendation", ID: recID}
		}
		v, err := rows[0].toDomain()
		if err != nil {
			return err
		}
		rec = &v
		return nil
	})
	if err != nil {
		return nil, c.wrapExternal("supabase/recommendations", err)
	}
	return rec, nil
}

// ListRecommendations fetches recommendations newest first, optionally
// filtered by status. limit <= 0 means no limit.
func (c *Client) ListRecommendations(ctx context.Context, status string, limit int) ([]domain.PurchaseRecommendation, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListRecommendations")
	defer span.End()

	path := "recommendations?order=created_at.desc"
	if status != "" {
		path = fmt.Sprintf("recommendations?status=eq.%s&order=created_at.desc", status)
	}
	if limit > 0 {
		path += fmt.Sprintf("&limit=%d", limit)
	}

	var out []domain.PurchaseRecommendation
	err := c.withResilience(ctx, func() error {
		body, err := c.doGet(ctx, path)
		if err != nil {
			return err
		}
		var rows []supabaseRecommendation
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode recommendations: %w", err)
		}
		out = make([]domain.PurchaseRecommendation, 0, len(rows))
		for _, r := range rows {
			rec, err := r.toDomain()
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, c.wrapExternal("supabase/recommendations", err)
	}
	return out, nil
}

// ExecuteRecommendation calls the execute_recommendation SQL function,
// which flips the status and charges the card in one transaction.
func (c *Client) ExecuteRecommendation(ctx context.Context, recID, cardID string, executedAt time.Time) (*domain.PurchaseRecommendation, *domain.CreditCard, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ExecuteRecommendation")
	defer span.End()
	span.SetAttributes(
		attribute.String("recommendation.id", recID),
		attribute.String("card.id", cardID),
	)

	body, err := c.doRPC(ctx, "execute_recommendation", map[string]any{
		"p_rec_id":      recID,
		"p_card_id":     cardID,
		"p_executed_at": executedAt.Format(time.RFC3339),
	})
	if err != nil {
		return nil, nil, c.wrapExternal("supabase/recommendations", err)
	}

	var result struct {
		Recommendation supabaseRecommendation `json:"recommendation"`
		Card           supabaseCard           `json:"card"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, nil, fmt.Errorf("failed to decode execution result: %w", err)
	}
	rec, err := result.Recommendation.toDomain()
	if err != nil {
		return nil, nil, err
	}
	card := result.Card.toDomain()
	return &rec, &card, nil
}

// CancelRecommendation calls the cancel_recommendation SQL function.
func (c *Client) CancelRecommendation(ctx context.Context, recID string) (*domain.PurchaseRecommendation, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CancelRecommendation")
	defer span.End()

	body, err := c.doRPC(ctx, "cancel_recommendation", map[string]any{"p_rec_id": recID})
	if err != nil {
		return nil, c.wrapExternal("supabase/recommendations", err)
	}

	var row supabaseRecommendation
	if err := json.Unmarshal(body, &row); err != nil {
		return nil, fmt.Errorf("failed to decode recommendation: %w", err)
	}
	rec, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
