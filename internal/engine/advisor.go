package engine

import (
	"time"

	"github.com/jpolanco/cardwise/internal/domain"
)

// Availability computes how much of the checking balance can move to
// savings today without breaching the comfort floor before the next
// paycheck. Upcoming expenses cover unpaid fixed expenses, card
// statement payments due in the window, and prorated variable spend.
func Availability(s *Snapshot, ref time.Time) domain.SavingsAvailability {
	ref = midnight(ref)
	next := NextPaycheck(s.Income.FirstPayday, s.Income.SecondPayday, ref)
	days := int(next.Sub(ref).Hours() / 24)

	upcoming := fixedDueBetween(s, ref, next)
	for _, c := range s.Cards {
		if !c.Active || c.CurrentBalance <= 0 {
			continue
		}
		due := PaymentDate(NextClosingDate(c.ClosingDay, ref), c.PaymentDaysAfter)
		if due.After(ref) && !due.After(next) {
			upcoming += c.CurrentBalance
		}
	}
	if s.Goal.VariableMonthly > 0 {
		upcoming += s.Goal.VariableMonthly / 30 * float64(days)
	}

	available := s.CheckingBalance - s.Goal.MinComfortBalance - upcoming
	recommended := available
	if recommended > s.Goal.AmountPerPaycheck {
		recommended = s.Goal.AmountPerPaycheck
	}
	if recommended < 0 {
		recommended = 0
	}

	return domain.SavingsAvailability{
		CheckingBalance:     s.CheckingBalance,
		MinComfortBalance:   s.Goal.MinComfortBalance,
		UpcomingExpenses:    upcoming,
		AvailableToSave:     available,
		RecommendedTransfer: recommended,
		WouldMeetGoal:       recommended >= s.Goal.AmountPerPaycheck && s.Goal.AmountPerPaycheck > 0,
		GoalPerPaycheck:     s.Goal.AmountPerPaycheck,
		NextPaycheck:        next,
	}
}
