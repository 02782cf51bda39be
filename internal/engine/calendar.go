package engine

import "time"

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// clampDay builds a UTC-midnight date, clamping day to the month's length
// so that "the 31st" of February resolves to the 28th/29th.
func clampDay(year int, month time.Month, day int) time.Time {
	if max := daysIn(year, month); day > max {
		day = max
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DueDate resolves a day-of-month anchor within a specific month,
// clamping like closing days and paydays do.
func DueDate(year int, month time.Month, day int) time.Time {
	return clampDay(year, month, day)
}

// midnight truncates t to UTC midnight.
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NextClosingDate returns the statement closing a purchase on `from`
// lands in: the current month's closing when the purchase day has not
// passed the closing day, otherwise next month's. Closing days beyond
// the month's length clamp to its last day.
func NextClosingDate(closingDay int, from time.Time) time.Time {
	from = midnight(from)
	if from.Day() <= closingDay {
		return clampDay(from.Year(), from.Month(), closingDay)
	}
	next := from.AddDate(0, 1, -from.Day()+1) // first of next month
	return clampDay(next.Year(), next.Month(), closingDay)
}

// PaymentDate returns when the statement closing on `closing` is due.
func PaymentDate(closing time.Time, paymentDaysAfter int) time.Time {
	return closing.AddDate(0, 0, paymentDaysAfter)
}

// NextPaycheck returns the first semimonthly payday strictly after `from`,
// given the two day-of-month anchors. Anchors clamp to short months.
func NextPaycheck(firstDay, secondDay int, from time.Time) time.Time {
	from = midnight(from)
	y, m := from.Year(), from.Month()
	for i := 0; i < 3; i++ {
		for _, d := range orderedPaydays(firstDay, secondDay) {
			candidate := clampDay(y, m, d)
			if candidate.After(from) {
				return candidate
			}
		}
		m++
		if m > time.December {
			m = time.January
			y++
		}
	}
	// unreachable with valid anchors
	return clampDay(y, m, firstDay)
}

// PaychecksBetween counts semimonthly paydays in the half-open interval
// (from, to].
func PaychecksBetween(firstDay, secondDay int, from, to time.Time) int {
	from, to = midnight(from), midnight(to)
	if !to.After(from) {
		return 0
	}
	n := 0
	y, m := from.Year(), from.Month()
	for {
		monthStart := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		if monthStart.After(to) {
			break
		}
		for _, d := range orderedPaydays(firstDay, secondDay) {
			candidate := clampDay(y, m, d)
			if candidate.After(from) && !candidate.After(to) {
				n++
			}
		}
		m++
		if m > time.December {
			m = time.January
			y++
		}
	}
	return n
}

func orderedPaydays(a, b int) [2]int {
	if a <= b {
		return [2]int{a, b}
	}
	return [2]int{b, a}
}
