package domain

import "time"

// Recommendation lifecycle states.
const (
	RecommendationPending   = "pending"
	RecommendationExecuted  = "executed"
	RecommendationCancelled = "cancelled"
)

// Liquidity verdicts on whether a purchase is affordable right now.
const (
	LiquiditySafe     = "safe"     // comfortable headroom remains
	LiquidityTight    = "tight"    // affordable, but the buffer runs thin
	LiquidityCritical = "critical" // wait for the next paycheck
)

// Installment frequencies for deferred purchases.
const (
	FrequencyWeekly   = "weekly"
	FrequencyBiweekly = "biweekly"
	FrequencyMonthly  = "monthly"
)

// FactorScore is one scored dimension of a card's suitability for a
// purchase. Score is the raw sub-score in [0,1]; Contribution is the
// weighted value that entered the total.
type FactorScore struct {
	Score        float64 `json:"score"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// CardScore is the full scoring breakdown for one candidate card.
type CardScore struct {
	CardID        string      `json:"card_id"`
	CardName      string      `json:"card_name"`
	Total         float64     `json:"total"` // 0-100
	Timing        FactorScore `json:"timing"`
	Liquidity     FactorScore `json:"liquidity"`
	SavingsImpact FactorScore `json:"savings_impact"`
	Utilization   FactorScore `json:"utilization"`
	Distribution  FactorScore `json:"distribution"`

	ClosingDate      time.Time `json:"closing_date"`
	PaymentDate      time.Time `json:"payment_date"`
	DaysUntilPayment int       `json:"days_until_payment"`
	PaychecksBefore  int       `json:"paychecks_before_payment"`
	ProjectedBalance float64   `json:"projected_balance_at_payment"`
	UtilizationAfter float64   `json:"utilization_after"`
	Reasoning        string    `json:"reasoning"`
}

// RankedCard is one entry of a recommendation's ranking, best first.
type RankedCard struct {
	Rank int `json:"rank"`
	CardScore
}

// AffordabilityAnalysis is the liquidity verdict attached to every
// recommendation: can the purchase happen now, or should it wait.
type AffordabilityAnalysis struct {
	CanAffordNow        bool       `json:"can_afford_now"`
	LiquidityStatus     string     `json:"liquidity_status"`
	ProjectedBalance    float64    `json:"projected_balance"`
	UpcomingObligations float64    `json:"upcoming_obligations"`
	AvailableAfter      float64    `json:"available_after_obligations"`
	RemainingAfter      float64    `json:"remaining_after_purchase"`
	RequiredAmount      float64    `json:"required_amount"`
	NextPaycheck        *time.Time `json:"next_paycheck,omitempty"`
	SuggestedWaitDate   *time.Time `json:"suggested_wait_date,omitempty"`
	Warning             string     `json:"warning,omitempty"`
}

// ScheduledPayment is one installment of a deferred purchase.
type ScheduledPayment struct {
	Number          int       `json:"payment_number"`
	Amount          float64   `json:"payment_amount"`
	ExpectedOn      time.Time `json:"expected_date"`
	StatementCloses time.Time `json:"statement_close_date"`
}

// PaymentPlan lays out a deferred purchase's installments against the
// recommended card's statement calendar.
type PaymentPlan struct {
	NumPayments   int                `json:"num_payments"`
	PaymentAmount float64            `json:"payment_amount"`
	Frequency     string             `json:"frequency"`
	Schedule      []ScheduledPayment `json:"schedule"`
}

// PurchaseRecommendation is a persisted ranking of every active card for
// one contemplated purchase.
type PurchaseRecommendation struct {
	ID            string                `json:"id"`
	Amount        float64               `json:"amount"`
	Description   string                `json:"description,omitempty"`
	PurchaseDate  time.Time             `json:"purchase_date"`
	Status        string                `json:"status"`
	Ranking       []RankedCard          `json:"ranking"`
	Affordability AffordabilityAnalysis `json:"affordability"`
	Plan          *PaymentPlan          `json:"payment_plan,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	ExecutedAt    *time.Time            `json:"executed_at,omitempty"`
	ExecutedCard  string                `json:"executed_card_id,omitempty"`
}

// Best returns the top-ranked card, or nil when no card could be scored.
func (r *PurchaseRecommendation) Best() *RankedCard {
	if len(r.Ranking) == 0 {
		return nil
	}
	return &r.Ranking[0]
}

// RecommendRequest is the payload for POST /v1/recommendations.
// Save defaults to true; a false value computes the ranking without
// persisting it. Deferred purchases split the amount into NumPayments
// installments at the given frequency (monthly by default).
type RecommendRequest struct {
	Amount           float64 `json:"amount"`
	Description      string  `json:"description,omitempty"`
	PurchaseDate     string  `json:"purchase_date,omitempty"` // YYYY-MM-DD, defaults to today
	IsDeferred       bool    `json:"is_deferred,omitempty"`
	NumPayments      int     `json:"num_payments,omitempty"`
	PaymentFrequency string  `json:"payment_frequency,omitempty"`
	Save             *bool   `json:"save,omitempty"`
}

// ExecuteRecommendationRequest optionally overrides the card charged.
// Empty CardID means the top-ranked card.
type ExecuteRecommendationRequest struct {
	CardID string `json:"card_id,omitempty"`
}

// ExecuteRecommendationResponse reports the outcome of executing a
// recommendation: the charged card with its new balance.
type ExecuteRecommendationResponse struct {
	Recommendation *PurchaseRecommendation `json:"recommendation"`
	CardID         string                  `json:"card_id"`
	NewCardBalance float64                 `json:"new_card_balance"`
}
