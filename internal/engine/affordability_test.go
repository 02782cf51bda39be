package engine_test

import (
	"testing"
	"time"

	"github.com/jpolanco/cardwise/internal/domain"
	"github.com/jpolanco/cardwise/internal/engine"
)

func affordabilitySnapshot(checking float64) *engine.Snapshot {
	return &engine.Snapshot{
		CheckingBalance: checking,
		Income:          domain.IncomeSchedule{Amount: 2300, FirstPayday: 15, SecondPayday: 30},
		Goal:            domain.SavingsGoal{AmountPerPaycheck: 600, MinComfortBalance: 2000},
		Paid:            map[string]bool{},
	}
}

func TestAffordability_SafeWithAmpleCash(t *testing.T) {
	sc := engine.NewScorer(engine.DefaultPolicy())
	day := date(2026, time.March, 3)

	// available = 5000 - 1000 buffer - 600 savings = 3400; 2900 remains.
	a := sc.Affordability(affordabilitySnapshot(5000), 500, day, day)
	if !a.CanAffordNow {
		t.Error("expected the purchase to be affordable")
	}
	if a.LiquidityStatus != domain.LiquiditySafe {
		t.Errorf("expected safe, got %s", a.LiquidityStatus)
	}
	if a.SuggestedWaitDate != nil {
		t.Errorf("safe purchases carry no wait date, got %v", a.SuggestedWaitDate)
	}
	if a.Warning != "" {
		t.Errorf("safe purchases carry no warning, got %q", a.Warning)
	}
	if a.RemainingAfter != 2900 {
		t.Errorf("expected 2900 remaining, got %.2f", a.RemainingAfter)
	}
}

func TestAffordability_TightWarnsButAllows(t *testing.T) {
	sc := engine.NewScorer(engine.DefaultPolicy())
	day := date(2026, time.March, 3)

	// available = 3000 - 1000 - 600 = 1400; 900 remains: above the
	// critical floor, below the comfortable buffer.
	a := sc.Affordability(affordabilitySnapshot(3000), 500, day, day)
	if !a.CanAffordNow {
		t.Error("a tight purchase is still affordable")
	}
	if a.LiquidityStatus != domain.LiquidityTight {
		t.Errorf("expected tight, got %s", a.LiquidityStatus)
	}
	if a.SuggestedWaitDate == nil || !a.SuggestedWaitDate.Equal(date(2026, time.March, 15)) {
		t.Errorf("expected wait suggestion 2026-03-15, got %v", a.SuggestedWaitDate)
	}
	if a.Warning == "" {
		t.Error("tight purchases must carry a warning")
	}
}

func TestAffordability_CriticalSuggestsWaiting(t *testing.T) {
	sc := engine.NewScorer(engine.DefaultPolicy())
	day := date(2026, time.March, 3)

	// available = 2000 - 1000 - 600 = 400; -100 remains.
	a := sc.Affordability(affordabilitySnapshot(2000), 500, day, day)
	if a.CanAffordNow {
		t.Error("expected the purchase to be unaffordable")
	}
	if a.LiquidityStatus != domain.LiquidityCritical {
		t.Errorf("expected critical, got %s", a.LiquidityStatus)
	}
	if a.SuggestedWaitDate == nil || !a.SuggestedWaitDate.Equal(date(2026, time.March, 15)) {
		t.Errorf("expected wait until 2026-03-15, got %v", a.SuggestedWaitDate)
	}
}

func TestAffordability_CountsObligationsInWindow(t *testing.T) {
	sc := engine.NewScorer(engine.DefaultPolicy())
	day := date(2026, time.March, 3)

	s := affordabilitySnapshot(10000)
	s.FixedExpenses = []domain.FixedExpense{
		{ID: "rent", Name: "Rent", Amount: 2800, DueDay: 12, Active: true},
	}
	s.Cards = []domain.CreditCard{
		// closes Mar 10, pays Mar 20: inside the 30-day window
		{ID: "c1", ClosingDay: 10, PaymentDaysAfter: 10, CurrentBalance: 1200, CreditLimit: 5000, Active: true},
	}

	a := sc.Affordability(s, 500, day, day)
	if a.UpcomingObligations != 4000 {
		t.Errorf("expected 4000 in obligations (rent + statement), got %.2f", a.UpcomingObligations)
	}
	// available = 10000 - 4000 - 1000 - 600 = 4400; 3900 remains.
	if a.RemainingAfter != 3900 {
		t.Errorf("expected 3900 remaining, got %.2f", a.RemainingAfter)
	}
	if a.LiquidityStatus != domain.LiquiditySafe {
		t.Errorf("expected safe, got %s", a.LiquidityStatus)
	}
}

func TestAffordability_ProjectsToFuturePurchaseDate(t *testing.T) {
	sc := engine.NewScorer(engine.DefaultPolicy())

	// Purchasing after the Mar 15 paycheck lands adds one paycheck to
	// the projected balance.
	a := sc.Affordability(affordabilitySnapshot(2000), 500,
		date(2026, time.March, 3), date(2026, time.March, 16))
	if a.ProjectedBalance != 2000+2300 {
		t.Errorf("expected projected 4300, got %.2f", a.ProjectedBalance)
	}
	if !a.CanAffordNow {
		t.Error("the paycheck should make the purchase affordable")
	}
}

func TestPaymentSchedule_BiweeklyInstallments(t *testing.T) {
	card := domain.CreditCard{ID: "card-a", Name: "A", ClosingDay: 19, PaymentDaysAfter: 28, CreditLimit: 20000, Active: true}

	plan := engine.PaymentSchedule(card, date(2026, time.January, 5), 900, 3, domain.FrequencyBiweekly)
	if plan.NumPayments != 3 || len(plan.Schedule) != 3 {
		t.Fatalf("expected 3 installments, got %d (%d scheduled)", plan.NumPayments, len(plan.Schedule))
	}
	if plan.PaymentAmount != 300 {
		t.Errorf("expected 300 per installment, got %.2f", plan.PaymentAmount)
	}

	wantExpected := []time.Time{
		date(2026, time.January, 5),
		date(2026, time.January, 19),
		date(2026, time.February, 2),
	}
	wantCloses := []time.Time{
		date(2026, time.January, 19),
		date(2026, time.January, 19),
		date(2026, time.February, 19),
	}
	for i, p := range plan.Schedule {
		if p.Number != i+1 {
			t.Errorf("installment %d: expected number %d, got %d", i, i+1, p.Number)
		}
		if !p.ExpectedOn.Equal(wantExpected[i]) {
			t.Errorf("installment %d: expected date %v, got %v", i, wantExpected[i], p.ExpectedOn)
		}
		if !p.StatementCloses.Equal(wantCloses[i]) {
			t.Errorf("installment %d: expected close %v, got %v", i, wantCloses[i], p.StatementCloses)
		}
	}
}

func TestPaymentSchedule_DefaultsToMonthly(t *testing.T) {
	card := domain.CreditCard{ID: "card-a", ClosingDay: 10, PaymentDaysAfter: 20, Active: true}

	plan := engine.PaymentSchedule(card, date(2026, time.January, 5), 600, 2, "")
	if plan.Frequency != domain.FrequencyMonthly {
		t.Errorf("expected monthly fallback, got %s", plan.Frequency)
	}
	if !plan.Schedule[1].ExpectedOn.Equal(date(2026, time.February, 4)) {
		t.Errorf("expected second installment 30 days out, got %v", plan.Schedule[1].ExpectedOn)
	}
}
