package engine

import (
	"fmt"
	"time"

	"github.com/jpolanco/cardwise/internal/domain"
)

// affordabilityHorizonDays is how far past the purchase date obligations
// still count against the available cash.
const affordabilityHorizonDays = 30

// Affordability judges whether the purchase fits current liquidity or
// should wait for the next paycheck. The balance is projected to the
// purchase date, then every obligation falling within 30 days of it is
// held back, along with the cash buffer and one paycheck of savings.
// firstPayment is the cash hit of the purchase itself: the full amount,
// or a single installment when deferred.
func (sc *Scorer) Affordability(s *Snapshot, firstPayment float64, today, purchaseDate time.Time) domain.AffordabilityAnalysis {
	today, purchaseDate = midnight(today), midnight(purchaseDate)
	horizon := purchaseDate.AddDate(0, 0, affordabilityHorizonDays)

	projected := ProjectedBalance(s, today, purchaseDate, nil)

	obligations := fixedDueBetween(s, purchaseDate, horizon)
	for _, c := range s.Cards {
		if !c.Active || c.CurrentBalance <= 0 {
			continue
		}
		due := PaymentDate(NextClosingDate(c.ClosingDay, purchaseDate), c.PaymentDaysAfter)
		if due.After(purchaseDate) && !due.After(horizon) {
			obligations += c.CurrentBalance
		}
	}

	available := projected - obligations - sc.policy.BufferRequired - s.Goal.AmountPerPaycheck
	remaining := available - firstPayment

	a := domain.AffordabilityAnalysis{
		ProjectedBalance:    projected,
		UpcomingObligations: obligations,
		AvailableAfter:      available,
		RemainingAfter:      remaining,
		RequiredAmount:      firstPayment,
	}
	if s.Income.Amount > 0 {
		next := NextPaycheck(s.Income.FirstPayday, s.Income.SecondPayday, purchaseDate)
		a.NextPaycheck = &next
	}

	switch {
	case remaining >= sc.policy.ComfortableBuffer:
		a.CanAffordNow = true
		a.LiquidityStatus = domain.LiquiditySafe
	case remaining >= sc.policy.CriticalThreshold:
		a.CanAffordNow = true
		a.LiquidityStatus = domain.LiquidityTight
		a.SuggestedWaitDate = a.NextPaycheck
		a.Warning = fmt.Sprintf("only %.2f would remain after the purchase; %.2f is the comfortable minimum", remaining, sc.policy.ComfortableBuffer)
	default:
		a.LiquidityStatus = domain.LiquidityCritical
		a.SuggestedWaitDate = a.NextPaycheck
		a.Warning = fmt.Sprintf("%.2f would remain after the purchase, below the %.2f floor", remaining, sc.policy.CriticalThreshold)
		if a.NextPaycheck != nil {
			a.Warning += fmt.Sprintf("; wait until the %s paycheck", a.NextPaycheck.Format("2006-01-02"))
		}
	}
	return a
}

// PaymentSchedule lays out a deferred purchase's installments against
// the card's statement calendar. Unknown frequencies fall back to
// monthly.
func PaymentSchedule(card domain.CreditCard, purchaseDate time.Time, total float64, numPayments int, frequency string) *domain.PaymentPlan {
	purchaseDate = midnight(purchaseDate)

	var interval int
	switch frequency {
	case domain.FrequencyWeekly:
		interval = 7
	case domain.FrequencyBiweekly:
		interval = 14
	default:
		frequency = domain.FrequencyMonthly
		interval = 30
	}

	per := total / float64(numPayments)
	plan := &domain.PaymentPlan{
		NumPayments:   numPayments,
		PaymentAmount: per,
		Frequency:     frequency,
		Schedule:      make([]domain.ScheduledPayment, numPayments),
	}
	for i := range plan.Schedule {
		expected := purchaseDate.AddDate(0, 0, interval*i)
		plan.Schedule[i] = domain.ScheduledPayment{
			Number:          i + 1,
			Amount:          per,
			ExpectedOn:      expected,
			StatementCloses: NextClosingDate(card.ClosingDay, expected),
		}
	}
	return plan
}
