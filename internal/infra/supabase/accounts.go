package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jpolanco/cardwise/internal/domain"
)

// supabaseChecking maps the checking_account table.
type supabaseChecking struct {
	Balance   float64 `json:"balance"`
	UpdatedAt string  `json:"updated_at"`
}

// supabaseSavings maps the savings_account table.
type supabaseSavings struct {
	Balance   float64 `json:"balance"`
	Target    float64 `json:"target"`
	UpdatedAt string  `json:"updated_at"`
}

// GetChecking fetches the checking account singleton.
func (c *Client) GetChecking(ctx context.Context) (*domain.CheckingAccount, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetChecking")
	defer span.End()

	var acc *domain.CheckingAccount
	err := c.withResilience(ctx, func() error {
		body, err := c.doGet(ctx, "checking_account?id=eq.1&limit=1")
		if err != nil {
			return err
		}
		var rows []supabaseChecking
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode checking account: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "checking account", ID: "1"}
		}
		updated, _ := time.Parse(time.RFC3339, rows[0].UpdatedAt)
		acc = &domain.CheckingAccount{Balance: rows[0].Balance, UpdatedAt: updated}
		return nil
	})
	if err != nil {
		return nil, c.wrapExternal("supabase/checking", err)
	}
	return acc, nil
}

// SetCheckingBalance overwrites the checking balance.
func (c *Client) SetCheckingBalance(ctx context.Context, balance float64) (*domain.CheckingAccount, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SetCheckingBalance")
	defer span.End()

	now := time.Now().UTC()
	err := c.doPatch(ctx, "checking_account?id=eq.1", map[string]any{
		"balance":    balance,
		"updated_at": now.Format(time.RFC3339),
	})
	if err != nil {
		return nil, c.wrapExternal("supabase/checking", err)
	}
	return &domain.CheckingAccount{Balance: balance, UpdatedAt: now}, nil
}

// GetSavings fetches the savings account singleton.
func (c *Client) GetSavings(ctx context.Context) (*domain.SavingsAccount, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetSavings")
	defer span.End()

	var acc *domain.SavingsAccount
	err := c.withResilience(ctx, func() error {
		body, err := c.doGet(ctx, "savings_account?id=eq.1&limit=1")
		if err != nil {
			return err
		}
		var rows []supabaseSavings
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode savings account: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "savings account", ID: "1"}
		}
		updated, _ := time.Parse(time.RFC3339, rows[0].UpdatedAt)
		acc = &domain.SavingsAccount{Balance: rows[0].Balance, Target: rows[0].Target, UpdatedAt: updated}
		return nil
	})
	if err != nil {
		return nil, c.wrapExternal("supabase/savings", err)
	}
	return acc, nil
}

// SetSavingsTarget overwrites the savings target.
func (c *Client) SetSavingsTarget(ctx context.Context, target float64) (*domain.SavingsAccount, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SetSavingsTarget")
	defer span.End()

	err := c.doPatch(ctx, "savings_account?id=eq.1", map[string]any{
		"target":     target,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, c.wrapExternal("supabase/savings", err)
	}
	return c.GetSavings(ctx)
}

// TransferToSavings calls the transfer_to_savings SQL function, which
// debits checking and credits savings in one transaction.
func (c *Client) TransferToSavings(ctx context.Context, amount float64) (*domain.CheckingAccount, *domain.SavingsAccount, error) {
	ctx, span := tracer.Start(ctx, "Supabase.TransferToSavings")
	defer span.End()

	body, err := c.doRPC(ctx, "transfer_to_savings", map[string]any{"p_amount": amount})
	if err != nil {
		return nil, nil, c.wrapExternal("supabase/transfer", err)
	}

	var result struct {
		CheckingBalance float64 `json:"checking_balance"`
		SavingsBalance  float64 `json:"savings_balance"`
		SavingsTarget   float64 `json:"savings_target"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, nil, fmt.Errorf("failed to decode transfer result: %w", err)
	}

	now := time.Now().UTC()
	return &domain.CheckingAccount{Balance: result.CheckingBalance, UpdatedAt: now},
		&domain.SavingsAccount{Balance: result.SavingsBalance, Target: result.SavingsTarget, UpdatedAt: now},
		nil
}

// supabaseIncome maps the income_schedule table.
type supabaseIncome struct {
	Amount       float64 `json:"amount"`
	FirstPayday  int     `json:"first_payday"`
	SecondPayday int     `json:"second_payday"`
}

// GetIncomeSchedule fetches the income schedule.
func (c *Client) GetIncomeSchedule(ctx context.Context) (*domain.IncomeSchedule, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetIncomeSchedule")
	defer span.End()

	var inc *domain.IncomeSchedule
	err := c.withResilience(ctx, func() error {
		body, err := c.doGet(ctx, "income_schedule?id=eq.1&limit=1")
		if err != nil {
			return err
		}
		var rows []supabaseIncome
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode income schedule: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotConfigured{Resource: "income schedule"}
		}
		inc = &domain.IncomeSchedule{
			Amount:       rows[0].Amount,
			FirstPayday:  rows[0].FirstPayday,
			SecondPayday: rows[0].SecondPayday,
		}
		return nil
	})
	if err != nil {
		return nil, c.wrapExternal("supabase/income", err)
	}
	return inc, nil
}

// UpsertIncomeSchedule creates or replaces the income schedule.
func (c *Client) UpsertIncomeSchedule(ctx context.Context, inc *domain.IncomeSchedule) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertIncomeSchedule")
	defer span.End()

	_, err := c.doWrite(ctx, http.MethodPost, "income_schedule?on_conflict=id", map[string]any{
		"id":            1,
		"amount":        inc.Amount,
		"first_payday":  inc.FirstPayday,
		"second_payday": inc.SecondPayday,
	}, "resolution=merge-duplicates,return=minimal")
	if err != nil {
		return c.wrapExternal("supabase/income", err)
	}
	return nil
}

// supabaseGoal maps the savings_goal table.
type supabaseGoal struct {
	AmountPerPaycheck float64 `json:"amount_per_paycheck"`
	MinComfortBalance float64 `json:"min_comfort_balance"`
	VariableMonthly   float64 `json:"variable_monthly"`
}

// GetSavingsGoal fetches the savings goal.
func (c *Client) GetSavingsGoal(ctx context.Context) (*domain.SavingsGoal, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetSavingsGoal")
	defer span.End()

	var g *domain.SavingsGoal
	err := c.withResilience(ctx, func() error {
		body, err := c.doGet(ctx, "savings_goal?id=eq.1&limit=1")
		if err != nil {
			return err
		}
		var rows []supabaseGoal
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode savings goal: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotConfigured{Resource: "savings goal"}
		}
		g = &domain.SavingsGoal{
			AmountPerPaycheck: rows[0].AmountPerPaycheck,
			MinComfortBalance: rows[0].MinComfortBalance,
			VariableMonthly:   rows[0].VariableMonthly,
		}
		return nil
	})
	if err != nil {
		return nil, c.wrapExternal("supabase/goal", err)
	}
	return g, nil
}

// UpsertSavingsGoal creates or replaces the savings goal.
func (c *Client) UpsertSavingsGoal(ctx context.Context, g *domain.SavingsGoal) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertSavingsGoal")
	defer span.End()

	_, err := c.doWrite(ctx, http.MethodPost, "savings_goal?on_conflict=id", map[string]any{
		"id":                  1,
		"amount_per_paycheck": g.AmountPerPaycheck,
		"min_comfort_balance": g.MinComfortBalance,
		"variable_monthly":    g.VariableMonthly,
	}, "resolution=merge-duplicates,return=minimal")
	if err != nil {
		return c.wrapExternal("supabase/goal", err)
	}
	return nil
}
