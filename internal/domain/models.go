package domain

import "time"

// ============================================================
// Credit Cards
// ============================================================

// CreditCard represents one revolving-credit instrument.
// CurrentBalance is allowed to exceed CreditLimit; utilization above
// 100% is a scoring signal, never a rejected state.
type CreditCard struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	ClosingDay       int       `json:"closing_day"`        // day of month the statement closes (1-31)
	PaymentDaysAfter int       `json:"payment_days_after"` // grace lag in days after closing
	CreditLimit      float64   `json:"credit_limit"`
	CurrentBalance   float64   `json:"current_balance"`
	APR              float64   `json:"apr"`
	Color            string    `json:"color,omitempty"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
}

// Utilization returns the balance/limit ratio. Zero-limit cards report 0
// rather than dividing.
func (c *CreditCard) Utilization() float64 {
	if c.CreditLimit <= 0 {
		return 0
	}
	return c.CurrentBalance / c.CreditLimit
}

// CreateCardRequest is the payload for POST /v1/cards.
type CreateCardRequest struct {
	Name             string  `json:"name"`
	ClosingDay       int     `json:"closing_day"`
	PaymentDaysAfter int     `json:"payment_days_after"`
	CreditLimit      float64 `json:"credit_limit"`
	CurrentBalance   float64 `json:"current_balance"`
	APR              float64 `json:"apr"`
	Color            string  `json:"color,omitempty"`
}

// UpdateCardRequest is the payload for PUT /v1/cards/{cardId}.
// Pointer fields distinguish "not provided" from zero values.
type UpdateCardRequest struct {
	Name             *string  `json:"name,omitempty"`
	ClosingDay       *int     `json:"closing_day,omitempty"`
	PaymentDaysAfter *int     `json:"payment_days_after,omitempty"`
	CreditLimit      *float64 `json:"credit_limit,omitempty"`
	CurrentBalance   *float64 `json:"current_balance,omitempty"`
	APR              *float64 `json:"apr,omitempty"`
	Color            *string  `json:"color,omitempty"`
	Active           *bool    `json:"active,omitempty"`
}

// CardPayment is an append-only record of a payment made toward a card
// from the checking account.
type CardPayment struct {
	ID     string    `json:"id"`
	CardID string    `json:"card_id"`
	Amount float64   `json:"amount"`
	PaidOn time.Time `json:"paid_on"`
	Notes  string    `json:"notes,omitempty"`
}

// PayCardRequest is the payload for POST /v1/cards/{cardId}/pay.
type PayCardRequest struct {
	Amount float64 `json:"amount"`
	PaidOn string  `json:"paid_on,omitempty"` // YYYY-MM-DD, defaults to today
	Notes  string  `json:"notes,omitempty"`
}

// PayCardResponse reports the balances after a card payment.
type PayCardResponse struct {
	Payment            *CardPayment `json:"payment"`
	NewCardBalance     float64      `json:"new_card_balance"`
	NewCheckingBalance float64      `json:"new_checking_balance"`
}

// ============================================================
// Accounts
// ============================================================

// CheckingAccount is the single liquid account all projections start from.
type CheckingAccount struct {
	Balance   float64   `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SavingsAccount is the single savings/emergency-fund account.
type SavingsAccount struct {
	Balance   float64   `json:"balance"`
	Target    float64   `json:"target"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Progress returns the raw balance/target ratio (may exceed 1.0 when the
// goal is surpassed) and the display ratio clamped to [0,1].
func (s *SavingsAccount) Progress() (raw, clamped float64) {
	if s.Target <= 0 {
		return 0, 0
	}
	raw = s.Balance / s.Target
	clamped = raw
	if clamped > 1 {
		clamped = 1
	}
	if clamped < 0 {
		clamped = 0
	}
	return raw, clamped
}

// ============================================================
// Income & Savings policy
// ============================================================

// IncomeSchedule models a semimonthly paycheck: the same amount lands on
// two day-of-month anchors.
type IncomeSchedule struct {
	Amount       float64 `json:"amount"`
	FirstPayday  int     `json:"first_payday"`
	SecondPayday int     `json:"second_payday"`
}

// SavingsGoal is the user's savings policy: how much to move per paycheck,
// the minimum liquid balance to preserve, and the estimated average
// monthly variable spend used for projections.
type SavingsGoal struct {
	AmountPerPaycheck float64 `json:"amount_per_paycheck"`
	MinComfortBalance float64 `json:"min_comfort_balance"`
	VariableMonthly   float64 `json:"variable_monthly"`
}

// ============================================================
// Expenses
// ============================================================

// FixedExpense is a recurring monthly obligation due on a fixed day.
type FixedExpense struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	DueDay   int     `json:"due_day"`
	Category string  `json:"category,omitempty"`
	Active   bool    `json:"active"`
}

// UpdateFixedExpenseRequest is the payload for PUT /v1/expenses/fixed/{id}.
type UpdateFixedExpenseRequest struct {
	Name     *string  `json:"name,omitempty"`
	Amount   *float64 `json:"amount,omitempty"`
	DueDay   *int     `json:"due_day,omitempty"`
	Category *string  `json:"category,omitempty"`
	Active   *bool    `json:"active,omitempty"`
}

// ExpensePayment marks a FixedExpense as paid for one month. Append-only;
// at most one payment per (expense, month, year).
type ExpensePayment struct {
	ID        string    `json:"id"`
	ExpenseID string    `json:"expense_id"`
	Amount    float64   `json:"amount"`
	PaidOn    time.Time `json:"paid_on"`
	Month     int       `json:"month"`
	Year      int       `json:"year"`
	Notes     string    `json:"notes,omitempty"`
}

// Payment methods for marking a fixed expense paid.
const (
	PayMethodCash = "cash" // debit checking
	PayMethodCard = "card" // add to a card's balance
)

// PayExpenseRequest is the payload for POST /v1/expenses/fixed/{id}/pay.
type PayExpenseRequest struct {
	Amount           float64 `json:"amount,omitempty"`  // defaults to the expense amount
	PaidOn           string  `json:"paid_on,omitempty"` // YYYY-MM-DD, defaults to today
	Method           string  `json:"method,omitempty"`  // cash (default) or card
	CardID           string  `json:"card_id,omitempty"`
	AlreadyInBalance bool    `json:"already_in_balance,omitempty"` // card method: skip balance change
	Notes            string  `json:"notes,omitempty"`
}

// PayExpenseResponse reports what a fixed-expense payment changed.
type PayExpenseResponse struct {
	Payment            *ExpensePayment `json:"payment"`
	CheckingUpdated    bool            `json:"checking_updated"`
	NewCheckingBalance float64         `json:"new_checking_balance,omitempty"`
	CardUpdated        bool            `json:"card_updated"`
	NewCardBalance     float64         `json:"new_card_balance,omitempty"`
}

// VariableExpense is one logged discretionary expenditure. Append-only.
// CardID is empty for cash spending.
type VariableExpense struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description,omitempty"`
	SpentOn     time.Time `json:"spent_on"`
	CardID      string    `json:"card_id,omitempty"`
}

// ============================================================
// Bonus events
// ============================================================

// BonusEvent is a one-off expected inflow (yearly bonus, tax refund...).
// Once received it is assumed folded into the checking balance and no
// longer counts toward projections.
type BonusEvent struct {
	ID          string    `json:"id"`
	Amount      float64   `json:"amount"`
	ExpectedOn  time.Time `json:"expected_on"`
	Description string    `json:"description,omitempty"`
	Received    bool      `json:"received"`
}

// ============================================================
// Balance update
// ============================================================

// UpdateBalanceRequest is the payload for POST /v1/balance.
type UpdateBalanceRequest struct {
	Balance float64 `json:"balance"`
}

// UpdateBalanceResponse reports a manual checking-balance correction.
type UpdateBalanceResponse struct {
	Success    bool      `json:"success"`
	OldBalance float64   `json:"old_balance"`
	NewBalance float64   `json:"new_balance"`
	UpdatedAt  time.Time `json:"updated_at"`
}
