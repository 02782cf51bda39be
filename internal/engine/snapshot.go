package engine

import (
	"fmt"
	"time"

	"github.com/jpolanco/cardwise/internal/domain"
)

// Snapshot is the full financial state the engine computes over. It is a
// plain value: callers assemble it from storage, the engine never does IO.
type Snapshot struct {
	CheckingBalance float64
	Income          domain.IncomeSchedule
	Goal            domain.SavingsGoal
	Cards           []domain.CreditCard
	FixedExpenses   []domain.FixedExpense
	Paid            map[string]bool // see PaidKey
	Bonuses         []domain.BonusEvent
}

// PaidKey identifies one fixed-expense occurrence for dedup and
// projection purposes.
func PaidKey(expenseID string, year int, month time.Month) string {
	return fmt.Sprintf("%s-%04d-%02d", expenseID, year, int(month))
}

// IsPaid reports whether the expense occurrence for the given month has
// already been settled.
func (s *Snapshot) IsPaid(expenseID string, year int, month time.Month) bool {
	return s.Paid[PaidKey(expenseID, year, month)]
}

// ActiveCards returns the cards eligible for recommendation.
func (s *Snapshot) ActiveCards() []domain.CreditCard {
	out := make([]domain.CreditCard, 0, len(s.Cards))
	for _, c := range s.Cards {
		if c.Active {
			out = append(out, c)
		}
	}
	return out
}

// FixedMonthly sums all active fixed expenses.
func (s *Snapshot) FixedMonthly() float64 {
	var total float64
	for _, e := range s.FixedExpenses {
		if e.Active {
			total += e.Amount
		}
	}
	return total
}

// Obligation is an extra projected cash-out, typically the hypothetical
// statement payment for a purchase being scored.
type Obligation struct {
	CardID string
	Amount float64
	DueOn  time.Time
}
