package domain

import "time"

// DashboardCard is the per-card slice of the dashboard view.
type DashboardCard struct {
	CreditCard
	UtilizationPct  float64   `json:"utilization_pct"`
	NextClosingDate time.Time `json:"next_closing_date"`
	NextPaymentDate time.Time `json:"next_payment_date"`
	DaysUntilClose  int       `json:"days_until_close"`
}

// UpcomingItem is one cash-out event inside the projection window.
type UpcomingItem struct {
	Kind   string    `json:"kind"` // fixed_expense | card_payment
	Name   string    `json:"name"`
	Amount float64   `json:"amount"`
	DueOn  time.Time `json:"due_on"`
}

// Dashboard is the aggregate read model for GET /v1/dashboard.
type Dashboard struct {
	AsOf             time.Time       `json:"as_of"`
	Checking         CheckingAccount `json:"checking"`
	Savings          SavingsAccount  `json:"savings"`
	SavingsProgress  float64         `json:"savings_progress"` // clamped [0,1]
	Cards            []DashboardCard `json:"cards"`
	TotalCardDebt    float64         `json:"total_card_debt"`
	TotalCreditLimit float64         `json:"total_credit_limit"`
	OverallUtilPct   float64         `json:"overall_utilization_pct"`

	NextPaycheck           time.Time                `json:"next_paycheck"`
	DaysUntilPaycheck      int                      `json:"days_until_paycheck"`
	Upcoming               []UpcomingItem           `json:"upcoming"`
	UpcomingTotal          float64                  `json:"upcoming_total"`
	ProjectedAtPaycheck    float64                  `json:"projected_balance_at_paycheck"`
	PendingRecommendations []PurchaseRecommendation `json:"pending_recommendations"`
}
