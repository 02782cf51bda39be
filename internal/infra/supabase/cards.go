package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jpolanco/cardwise/internal/domain"
)

// supabaseCard maps the credit_cards table.
type supabaseCard struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	ClosingDay       int     `json:"closing_day"`
	PaymentDaysAfter int     `json:"payment_days_after"`
	CreditLimit      float64 `json:"credit_limit"`
	CurrentBalance   float64 `json:"current_balance"`
	APR              float64 `json:"apr"`
	Color            string  `json:"color"`
	Active           bool    `json:"active"`
	CreatedAt        string  `json:"created_at"`
}

func (r supabaseCard) toDomain() domain.CreditCard {
	created, _ := time.Parse(time.RFC3339, r.CreatedAt)
	return domain.CreditCard{
		ID:               r.ID,
		Name:             r.Name,
		ClosingDay:       r.ClosingDay,
		PaymentDaysAfter: r.PaymentDaysAfter,
		CreditLimit:      r.CreditLimit,
		CurrentBalance:   r.CurrentBalance,
		APR:              r.APR,
		Color:            r.Color,
		Active:           r.Active,
		CreatedAt:        created,
	}
}

func cardPayload(c *domain.CreditCard) map[string]any {
	return map[string]any{
		"id":                 c.ID,
		"name":               c.Name,
		"closing_day":        c.ClosingDay,
		"payment_days_after": c.PaymentDaysAfter,
		"credit_limit":       c.CreditLimit,
		"current_balance":    c.CurrentBalance,
		"apr":                c.APR,
		"color":              c.Color,
		"active":             c.Active,
		"created_at":         c.CreatedAt.Format(time.RFC3339),
	}
}

// ListCards fetches cards, active first.
func (c *Client) ListCards(ctx context.Context, includeInactive bool) ([]domain.CreditCard, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCards")
	defer span.End()

	path := "credit_cards?order=active.desc,name.asc"
	if !includeInactive {
		path = "credit_cards?active=eq.true&order=name.asc"
	}

	var cards []domain.CreditCard
	err := c.withResilience(ctx, func() error {
		body, err := c.doGet(ctx, path)
		if err != nil {
			return err
		}
		var rows []supabaseCard
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode cards: %w", err)
		}
		cards = make([]domain.CreditCard, 0, len(rows))
		for _, r := range rows {
			cards = append(cards, r.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, c.wrapExternal("supabase/cards", err)
	}
	return cards, nil
}

// GetCard fetches one card.
func (c *Client) GetCard(ctx context.Context, cardID string) (*domain.CreditCard, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCard")
	defer span.End()
	span.SetAttributes(attribute.String("card.id", cardID))

	var card *domain.CreditCard
	err := c.withResilience(ctx, func() error {
		body, err := c.doGet(ctx, fmt.Sprintf("credit_cards?id=eq.%s&limit=1", cardID))
		if err != nil {
			return err
		}
		var rows []supabaseCard
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode card: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "card", ID: cardID}
		}
		v := rows[0].toDomain()
		card = &v
		return nil
	})
	if err != nil {
		return nil, c.wrapExternal("supabase/cards", err)
	}
	return card, nil
}

// CreateCard inserts a card.
func (c *Client) CreateCard(ctx context.Context, card *domain.CreditCard) error {
	ctx, span := tracer.Start(ctx, "Supabase.CreateCard")
	defer span.End()

	if _, err := c.doPost(ctx, "credit_cards", cardPayload(card)); err != nil {
		return c.wrapExternal("supabase/cards", err)
	}
	return nil
}

// UpdateCard overwrites a card's mutable fields.
func (c *Client) UpdateCard(ctx context.Context, card *domain.CreditCard) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateCard")
	defer span.End()

	payload := cardPayload(card)
	delete(payload, "id")
	delete(payload, "created_at")
	if err := c.doPatch(ctx, fmt.Sprintf("credit_cards?id=eq.%s", card.ID), payload); err != nil {
		return c.wrapExternal("supabase/cards", err)
	}
	return nil
}

// DeleteCard calls the delete_card SQL function, which refuses to drop
// cards with recorded history.
func (c *Client) DeleteCard(ctx context.Context, cardID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteCard")
	defer span.End()

	if _, err := c.doRPC(ctx, "delete_card", map[string]any{"p_card_id": cardID}); err != nil {
		return c.wrapExternal("supabase/cards", err)
	}
	return nil
}

// PayCard calls the pay_card SQL function: payment row appended, card
// and checking balances adjusted, all in one transaction.
func (c *Client) PayCard(ctx context.Context, payment *domain.CardPayment) (*domain.PayCardResponse, error) {
	ctx, span := tracer.Start(ctx, "Supabase.PayCard")
	defer span.End()

	body, err := c.doRPC(ctx, "pay_card", map[string]any{
		"p_payment_id": payment.ID,
		"p_card_id":    payment.CardID,
		"p_amount":     payment.Amount,
		"p_paid_on":    payment.PaidOn.Format("2006-01-02"),
		"p_notes":      payment.Notes,
	})
	if err != nil {
		return nil, c.wrapExternal("supabase/cards", err)
	}

	var result struct {
		NewCardBalance     float64 `json:"new_card_balance"`
		NewCheckingBalance float64 `json:"new_checking_balance"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode payment result: %w", err)
	}
	return &domain.PayCardResponse{
		Payment:            payment,
		NewCardBalance:     result.NewCardBalance,
		NewCheckingBalance: result.NewCheckingBalance,
	}, nil
}
