package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jpolanco/cardwise/internal/domain"
)

const dateLayout = "2006-01-02"

// supabaseFixedExpense maps the fixed_expenses table.
type supabaseFixedExpense struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	DueDay   int     `json:"due_day"`
	Category string  `json:"category"`
	Active   bool    `json:"active"`
}

func (r supabaseFixedExpense) toDomain() domain.FixedExpense {
	return domain.FixedExpense(r)
}

// ListFixedExpenses fetches fixed expenses ordered by due day.
func (c *Client) ListFixedExpenses(ctx context.Context, includeInactive bool) ([]domain.FixedExpense, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListFixedExpenses")
	defer span.End()

	path := "fixed_expenses?order=due_day.asc,name.asc"
	if !includeInactive {
		path = "fixed_expenses?active=eq.true&order=due_day.asc,name.asc"
	}

	var out []domain.FixedExpense
	err := c.withResilience(ctx, func() error {
		body, err := c.doGet(ctx, path)
		if err != nil {
			return err
		}
		var rows []supabaseFixedExpense
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode fixed expenses: %w", err)
		}
		out = make([]domain.FixedExpense, 0, len(rows))
		for _, r := range rows {
			out = append(out, r.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, c.wrapExternal("supabase/expenses", err)
	}
	return out, nil
}

// GetFixedExpense fetches one fixed expense.
func (c *Client) GetFixedExpense(ctx context.Context, expenseID string) (*domain.FixedExpense, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetFixedExpense")
	defer span.End()

	var out *domain.FixedExpense
	err := c.withResilience(ctx, func() error {
		body, err := c.doGet(ctx, fmt.Sprintf("fixed_expenses?id=eq.%s&limit=1", expenseID))
		if err != nil {
			return err
		}
		var rows []supabaseFixedExpense
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode fixed expense: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "fixed expense", ID: expenseID}
		}
		v := rows[0].toDomain()
		out = &v
		return nil
	})
	if err != nil {
		return nil, c.wrapExternal("supabase/expenses", err)
	}
	return out, nil
}

// CreateFixedExpense inserts a fixed expense.
func (c *Client) CreateFixedExpense(ctx context.Context, e *domain.FixedExpense) error {
	ctx, span := tracer.Start(ctx, "Supabase.CreateFixedExpense")
	defer span.End()

	_, err := c.doPost(ctx, "fixed_expenses", map[string]any{
		"id":       e.ID,
		"name":     e.Name,
		"amount":   e.Amount,
		"due_day":  e.DueDay,
		"category": e.Category,
		"active":   e.Active,
	})
	if err != nil {
		return c.wrapExternal("supabase/expenses", err)
	}
	return nil
}

// UpdateFixedExpense overwrites a fixed expense.
func (c *Client) UpdateFixedExpense(ctx context.Context, e *domain.FixedExpense) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateFixedExpense")
	defer span.End()

	err := c.doPatch(ctx, fmt.Sprintf("fixed_expenses?id=eq.%s", e.ID), map[string]any{
		"name":     e.Name,
		"amount":   e.Amount,
		"due_day":  e.DueDay,
		"category": e.Category,
		"active":   e.Active,
	})
	if err != nil {
		return c.wrapExternal("supabase/expenses", err)
	}
	return nil
}

// supabaseExpensePayment maps the expense_payments table.
type supabaseExpensePayment struct {
	ID        string  `json:"id"`
	ExpenseID string  `json:"expense_id"`
	Amount    float64 `json:"amount"`
	PaidOn    string  `json:"paid_on"`
	Month     int     `json:"month"`
	Year      int     `json:"year"`
	Notes     string  `json:"notes"`
}

// ListExpensePayments fetches payments made on or after since.
func (c *Client) ListExpensePayments(ctx context.Context, since time.Time) ([]domain.ExpensePayment, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListExpensePayments")
	defer span.End()

	var out []domain.ExpensePayment
	err := c.withResilience(ctx, func() error {
		path := fmt.Sprintf("expense_payments?paid_on=gte.%s&order=paid_on.desc", since.Format(dateLayout))
		body, err := c.doGet(ctx, path)
		if err != nil {
			return err
		}
		var rows []supabaseExpensePayment
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode expense payments: %w", err)
		}
		out = make([]domain.ExpensePayment, 0, len(rows))
		for _, r := range rows {
			paidOn, _ := time.Parse(dateLayout, r.PaidOn)
			out = append(out, domain.ExpensePayment{
				ID:        r.ID,
				ExpenseID: r.ExpenseID,
				Amount:    r.Amount,
				PaidOn:    paidOn,
				Month:     r.Month,
				Year:      r.Year,
				Notes:     r.Notes,
			})
		}
		return nil
	})
	if err != nil {
		return nil, c.wrapExternal("supabase/expenses", err)
	}
	return out, nil
}

// PayFixedExpense calls the pay_fixed_expense SQL function.
func (c *Client) PayFixedExpense(ctx context.Context, payment *domain.ExpensePayment, method, cardID string, adjustBalance bool) (*domain.PayExpenseResponse, error) {
	ctx, span := tracer.Start(ctx, "Supabase.PayFixedExpense")
	defer span.End()

	body, err := c.doRPC(ctx, "pay_fixed_expense", map[string]any{
		"p_payment_id":     payment.ID,
		"p_expense_id":     payment.ExpenseID,
		"p_amount":         payment.Amount,
		"p_paid_on":        payment.PaidOn.Format(dateLayout),
		"p_month":          payment.Month,
		"p_year":           payment.Year,
		"p_notes":          payment.Notes,
		"p_method":         method,
		"p_card_id":        cardID,
		"p_adjust_balance": adjustBalance,
	})
	if err != nil {
		return nil, c.wrapExternal("supabase/expenses", err)
	}

	var result struct {
		CheckingUpdated    bool    `json:"checking_updated"`
		NewCheckingBalance float64 `json:"new_checking_balance"`
		CardUpdated        bool    `json:"card_updated"`
		NewCardBalance     float64 `json:"new_card_balance"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode payment result: %w", err)
	}
	return &domain.PayExpenseResponse{
		Payment:            payment,
		CheckingUpdated:    result.CheckingUpdated,
		NewCheckingBalance: result.NewCheckingBalance,
		CardUpdated:        result.CardUpdated,
		NewCardBalance:     result.NewCardBalance,
	}, nil
}

// supabaseVariableExpense maps the variable_expenses table.
type supabaseVariableExpense struct {
	ID          string  `json:"id"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	SpentOn     string  `json:"spent_on"`
	CardID      string  `json:"card_id"`
}

// ListVariableExpenses fetches variable expenses spent on or after since.
func (c *Client) ListVariableExpenses(ctx context.Context, since time.Time) ([]domain.VariableExpense, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListVariableExpenses")
	defer span.End()

	var out []domain.VariableExpense
	err := c.withResilience(ctx, func() error {
		path := fmt.Sprintf("variable_expenses?spent_on=gte.%s&order=spent_on.desc", since.Format(dateLayout))
		body, err := c.doGet(ctx, path)
		if err != nil {
			return err
		}
		var rows []supabaseVariableExpense
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode variable expenses: %w", err)
		}
		out = make([]domain.VariableExpense, 0, len(rows))
		for _, r := range rows {
			spentOn, _ := time.Parse(dateLayout, r.SpentOn)
			out = append(out, domain.VariableExpense{
				ID:          r.ID,
				Category:    r.Category,
				Amount:      r.Amount,
				Description: r.Description,
				SpentOn:     spentOn,
				CardID:      r.CardID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, c.wrapExternal("supabase/expenses", err)
	}
	return out, nil
}

// CreateVariableExpense calls the log_variable_expense SQL function,
// which also bumps the card's balance when the spend was on a card.
func (c *Client) CreateVariableExpense(ctx context.Context, e *domain.VariableExpense) error {
	ctx, span := tracer.Start(ctx, "Supabase.CreateVariableExpense")
	defer span.End()

	_, err := c.doRPC(ctx, "log_variable_expense", map[string]any{
		"p_id":          e.ID,
		"p_category":    e.Category,
		"p_amount":      e.Amount,
		"p_description": e.Description,
		"p_spent_on":    e.SpentOn.Format(dateLayout),
		"p_card_id":     e.CardID,
	})
	if err != nil {
		return c.wrapExternal("supabase/expenses", err)
	}
	return nil
}

// supabaseBonus maps the bonus_events table.
type supabaseBonus struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	ExpectedOn  string  `json:"expected_on"`
	Description string  `json:"description"`
	Received    bool    `json:"received"`
}

func (r supabaseBonus) toDomain() domain.BonusEvent {
	expected, _ := time.Parse(dateLayout, r.ExpectedOn)
	return domain.BonusEvent{
		ID:          r.ID,
		Amount:      r.Amount,
		ExpectedOn:  expected,
		Description: r.Description,
		Received:    r.Received,
	}
}

// ListBonusEvents fetches bonus events, soonest first.
func (c *Client) ListBonusEvents(ctx context.Context, includeReceived bool) ([]domain.BonusEvent, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListBonusEvents")
	defer span.End()

	path := "bonus_events?order=expected_on.asc"
	if !includeReceived {
		path = "bonus_events?received=eq.false&order=expected_on.asc"
	}

	var out []domain.BonusEvent
	err := c.withResilience(ctx, func() error {
		body, err := c.doGet(ctx, path)
		if err != nil {
			return err
		}
		var rows []supabaseBonus
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode bonuses: %w", err)
		}
		out = make([]domain.BonusEvent, 0, len(rows))
		for _, r := range rows {
			out = append(out, r.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, c.wrapExternal("supabase/bonuses", err)
	}
	return out, nil
}

// CreateBonusEvent inserts an expected bonus.
func (c *Client) CreateBonusEvent(ctx context.Context, b *domain.BonusEvent) error {
	ctx, span := tracer.Start(ctx, "Supabase.CreateBonusEvent")
	defer span.End()

	_, err := c.doPost(ctx, "bonus_events", map[string]any{
		"id":          b.ID,
		"amount":      b.Amount,
		"expected_on": b.ExpectedOn.Format(dateLayout),
		"description": b.Description,
		"received":    b.Received,
	})
	if err != nil {
		return c.wrapExternal("supabase/bonuses", err)
	}
	return nil
}

// MarkBonusReceived calls the receive_bonus SQL function, which flags
// the bonus and credits checking atomically.
func (c *Client) MarkBonusReceived(ctx context.Context, bonusID string) (*domain.BonusEvent, error) {
	ctx, span := tracer.Start(ctx, "Supabase.MarkBonusReceived")
	defer span.End()

	body, err := c.doRPC(ctx, "receive_bonus", map[string]any{"p_bonus_id": bonusID})
	if err != nil {
		return nil, c.wrapExternal("supabase/bonuses", err)
	}

	var row supabaseBonus
	if err := json.Unmarshal(body, &row); err != nil {
		return nil, fmt.Errorf("failed to decode bonus: %w", err)
	}
	bonus := row.toDomain()
	return &bonus, nil
}
