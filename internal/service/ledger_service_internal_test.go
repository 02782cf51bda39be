package service

import (
	"testing"
	"time"

	"github.com/jpolanco/cardwise/internal/domain"
	"github.com/jpolanco/cardwise/internal/engine"
)

// A due day past the month's length must land on the month's last day,
// not spill into the next month.
func TestUpcomingItems_ClampsShortMonths(t *testing.T) {
	snap := &engine.Snapshot{
		FixedExpenses: []domain.FixedExpense{
			{ID: "rent", Name: "Rent", Amount: 2800, DueDay: 31, Active: true},
		},
		Paid: map[string]bool{},
	}
	from := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)

	items := upcomingItems(snap, from, to)
	if len(items) != 1 {
		t.Fatalf("expected 1 upcoming item, got %d", len(items))
	}
	want := time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC)
	if !items[0].DueOn.Equal(want) {
		t.Errorf("expected due date clamped to %v, got %v", want, items[0].DueOn)
	}
}

func TestUpcomingItems_SkipsPaidMonths(t *testing.T) {
	snap := &engine.Snapshot{
		FixedExpenses: []domain.FixedExpense{
			{ID: "net", Name: "Internet", Amount: 50, DueDay: 20, Active: true},
		},
		Paid: map[string]bool{
			engine.PaidKey("net", 2026, time.February): true,
		},
	}
	from := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC)

	if items := upcomingItems(snap, from, to); len(items) != 0 {
		t.Fatalf("expected no items for a paid month, got %d", len(items))
	}
}
