package engine_test

import (
	"testing"
	"time"

	"github.com/jpolanco/cardwise/internal/domain"
	"github.com/jpolanco/cardwise/internal/engine"
)

func twoCardSnapshot() *engine.Snapshot {
	s := baseSnapshot()
	s.Cards = []domain.CreditCard{
		{ID: "card-a", Name: "A", ClosingDay: 19, PaymentDaysAfter: 28, CreditLimit: 20000, CurrentBalance: 0, Active: true},
		{ID: "card-b", Name: "B", ClosingDay: 19, PaymentDaysAfter: 28, CreditLimit: 20000, CurrentBalance: 18000, Active: true},
	}
	return s
}

func TestRank_OneEntryPerActiveCard(t *testing.T) {
	s := twoCardSnapshot()
	s.Cards = append(s.Cards, domain.CreditCard{ID: "card-c", Name: "C", ClosingDay: 5, PaymentDaysAfter: 20, CreditLimit: 8000, Active: false})

	sc := engine.NewScorer(engine.DefaultPolicy())
	ranked, err := sc.Rank(s, 500, date(2026, time.January, 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked entries, got %d", len(ranked))
	}
	for i, rc := range ranked {
		if rc.Rank != i+1 {
			t.Errorf("expected contiguous ranks from 1, got rank %d at index %d", rc.Rank, i)
		}
		if rc.CardID == "card-c" {
			t.Error("inactive card must not be ranked")
		}
	}
}

func TestRank_LowUtilizationWins(t *testing.T) {
	sc := engine.NewScorer(engine.DefaultPolicy())
	ranked, err := sc.Rank(twoCardSnapshot(), 500, date(2026, time.January, 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ranked[0].CardID != "card-a" {
		t.Errorf("expected the empty card to rank first, got %s", ranked[0].CardID)
	}
	a, b := ranked[0], ranked[1]
	if a.Utilization.Score <= b.Utilization.Score {
		t.Errorf("expected A's utilization sub-score (%.3f) to exceed B's (%.3f)", a.Utilization.Score, b.Utilization.Score)
	}
}

func TestScoreCard_BoundsAndContributions(t *testing.T) {
	s := twoCardSnapshot()
	sc := engine.NewScorer(engine.DefaultPolicy())

	for _, amount := range []float64{0, 100, 5000, 50000} {
		for _, card := range s.Cards {
			cs := sc.ScoreCard(s, card, amount, date(2026, time.January, 5))
			if cs.Total < 0 || cs.Total > 100 {
				t.Errorf("card %s amount %.0f: total %.2f out of [0,100]", card.ID, amount, cs.Total)
			}
			for name, f := range map[string]domain.FactorScore{
				"timing":         cs.Timing,
				"liquidity":      cs.Liquidity,
				"savings_impact": cs.SavingsImpact,
				"utilization":    cs.Utilization,
				"distribution":   cs.Distribution,
			} {
				if f.Contribution < 0 || f.Contribution > f.Weight {
					t.Errorf("card %s amount %.0f: %s contribution %.3f out of [0,%.0f]", card.ID, amount, name, f.Contribution, f.Weight)
				}
			}
		}
	}
}

func TestScoreCard_UtilizationMonotone(t *testing.T) {
	s := twoCardSnapshot()
	card := s.Cards[0]
	sc := engine.NewScorer(engine.DefaultPolicy())

	prev := 2.0
	for _, amount := range []float64{0, 1000, 5000, 10000, 19000, 25000} {
		cs := sc.ScoreCard(s, card, amount, date(2026, time.January, 5))
		if cs.Utilization.Score > prev {
			t.Errorf("utilization score rose from %.3f to %.3f as amount increased", prev, cs.Utilization.Score)
		}
		prev = cs.Utilization.Score
	}
}

func TestScoreCard_ZeroLimitFloors(t *testing.T) {
	s := twoCardSnapshot()
	card := domain.CreditCard{ID: "card-z", Name: "Z", ClosingDay: 10, PaymentDaysAfter: 20, CreditLimit: 0, Active: true}
	s.Cards = append(s.Cards, card)

	sc := engine.NewScorer(engine.DefaultPolicy())
	cs := sc.ScoreCard(s, card, 500, date(2026, time.January, 5))
	if cs.Utilization.Score != 0 {
		t.Errorf("zero-limit card should floor utilization at 0, got %.3f", cs.Utilization.Score)
	}
	if cs.Distribution.Score != 0 {
		t.Errorf("zero-limit card should floor distribution at 0, got %.3f", cs.Distribution.Score)
	}
	if cs.Total < 0 || cs.Total > 100 {
		t.Errorf("total %.2f out of [0,100]", cs.Total)
	}
}

func TestScoreCard_TimingFullWithTwoPaychecks(t *testing.T) {
	s := twoCardSnapshot()
	sc := engine.NewScorer(engine.DefaultPolicy())

	// Purchase Jan 5, closing Jan 19, payment Feb 16: paydays Jan 15,
	// Jan 30 and Feb 15 land before payment.
	cs := sc.ScoreCard(s, s.Cards[0], 500, date(2026, time.January, 5))
	if cs.Timing.Score != 1 {
		t.Errorf("expected full timing score with %d paychecks, got %.3f", cs.PaychecksBefore, cs.Timing.Score)
	}
	if !cs.ClosingDate.Equal(date(2026, time.January, 19)) {
		t.Errorf("expected closing 2026-01-19, got %v", cs.ClosingDate)
	}
	if !cs.PaymentDate.Equal(date(2026, time.February, 16)) {
		t.Errorf("expected payment 2026-02-16, got %v", cs.PaymentDate)
	}
}

func TestScoreCard_DistributionSingleCard(t *testing.T) {
	s := baseSnapshot()
	card := domain.CreditCard{ID: "only", Name: "Only", ClosingDay: 10, PaymentDaysAfter: 20, CreditLimit: 5000, Active: true}
	s.Cards = []domain.CreditCard{card}

	sc := engine.NewScorer(engine.DefaultPolicy())
	cs := sc.ScoreCard(s, card, 100, date(2026, time.January, 5))
	if cs.Distribution.Score != 0.5 {
		t.Errorf("single-card distribution should be neutral 0.5, got %.3f", cs.Distribution.Score)
	}
}

func TestRank_Deterministic(t *testing.T) {
	s := twoCardSnapshot()
	sc := engine.NewScorer(engine.DefaultPolicy())

	first, err := sc.Rank(s, 500, date(2026, time.January, 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := sc.Rank(s, 500, date(2026, time.January, 5))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for j := range first {
			if again[j].CardID != first[j].CardID || again[j].Total != first[j].Total {
				t.Fatalf("ranking changed across runs at position %d", j)
			}
		}
	}
}
