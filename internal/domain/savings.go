package domain

import "time"

// SavingsAvailability is the advisor's answer to "how much can I move to
// savings right now without breaking anything before the next paycheck".
type SavingsAvailability struct {
	CheckingBalance     float64   `json:"checking_balance"`
	MinComfortBalance   float64   `json:"min_comfort_balance"`
	UpcomingExpenses    float64   `json:"upcoming_expenses"`
	AvailableToSave     float64   `json:"available_to_save"`
	RecommendedTransfer float64   `json:"recommended_transfer"`
	WouldMeetGoal       bool      `json:"would_meet_goal"`
	GoalPerPaycheck     float64   `json:"goal_per_paycheck"`
	NextPaycheck        time.Time `json:"next_paycheck"`
}

// TransferRequest is the payload for POST /v1/savings/transfer.
type TransferRequest struct {
	Amount float64 `json:"amount"`
}

// TransferResponse reports both balances after a checking→savings move.
type TransferResponse struct {
	Success            bool    `json:"success"`
	Amount             float64 `json:"amount"`
	NewCheckingBalance float64 `json:"new_checking_balance"`
	NewSavingsBalance  float64 `json:"new_savings_balance"`
	SavingsProgress    float64 `json:"savings_progress"` // clamped [0,1]
}

// SavingsGoalRequest is the payload for PUT /v1/savings/goal.
type SavingsGoalRequest struct {
	AmountPerPaycheck float64  `json:"amount_per_paycheck"`
	MinComfortBalance float64  `json:"min_comfort_balance"`
	VariableMonthly   float64  `json:"variable_monthly"`
	Target            *float64 `json:"target,omitempty"` // optionally update the savings target
}

// IncomeRequest is the payload for PUT /v1/income.
type IncomeRequest struct {
	Amount       float64 `json:"amount"`
	FirstPayday  int     `json:"first_payday"`
	SecondPayday int     `json:"second_payday"`
}
