package engine

import "time"

// ProjectedBalance walks the checking balance from ref to target:
// paychecks and unreceived bonuses in, unpaid fixed expenses and card
// statement payments out, plus any extra obligations. The window is the
// half-open interval (ref, target].
func ProjectedBalance(s *Snapshot, ref, target time.Time, extra []Obligation) float64 {
	ref, target = midnight(ref), midnight(target)
	balance := s.CheckingBalance
	if !target.After(ref) {
		return balance
	}

	if s.Income.Amount > 0 {
		n := PaychecksBetween(s.Income.FirstPayday, s.Income.SecondPayday, ref, target)
		balance += float64(n) * s.Income.Amount
	}

	balance -= fixedDueBetween(s, ref, target)

	for _, b := range s.Bonuses {
		if b.Received {
			continue
		}
		due := midnight(b.ExpectedOn)
		if due.After(ref) && !due.After(target) {
			balance += b.Amount
		}
	}

	// Each card's current balance comes due at the payment date of its
	// next statement. Only statements paying inside the window count.
	// Cards carrying an explicit obligation are skipped here: the
	// obligation already states their full statement amount.
	override := make(map[string]bool, len(extra))
	for _, ob := range extra {
		if ob.CardID != "" {
			override[ob.CardID] = true
		}
	}
	for _, c := range s.Cards {
		if !c.Active || c.CurrentBalance <= 0 || override[c.ID] {
			continue
		}
		due := PaymentDate(NextClosingDate(c.ClosingDay, ref), c.PaymentDaysAfter)
		if due.After(ref) && !due.After(target) {
			balance -= c.CurrentBalance
		}
	}

	for _, ob := range extra {
		due := midnight(ob.DueOn)
		if due.After(ref) && !due.After(target) {
			balance -= ob.Amount
		}
	}

	return balance
}

// fixedDueBetween sums unpaid active fixed-expense occurrences whose due
// date falls in (ref, target].
func fixedDueBetween(s *Snapshot, ref, target time.Time) float64 {
	var total float64
	y, m := ref.Year(), ref.Month()
	for {
		monthStart := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		if monthStart.After(target) {
			break
		}
		for _, e := range s.FixedExpenses {
			if !e.Active {
				continue
			}
			due := clampDay(y, m, e.DueDay)
			if due.After(ref) && !due.After(target) && !s.IsPaid(e.ID, y, m) {
				total += e.Amount
			}
		}
		m++
		if m > time.December {
			m = time.January
			y++
		}
	}
	return total
}
