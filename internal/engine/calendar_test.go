package engine_test

import (
	"testing"
	"time"

	"github.com/jpolanco/cardwise/internal/engine"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextClosingDate_SameMonth(t *testing.T) {
	got := engine.NextClosingDate(19, date(2026, time.January, 5))
	want := date(2026, time.January, 19)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestNextClosingDate_RollsToNextMonth(t *testing.T) {
	got := engine.NextClosingDate(19, date(2026, time.January, 20))
	want := date(2026, time.February, 19)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestNextClosingDate_OnClosingDay(t *testing.T) {
	got := engine.NextClosingDate(19, date(2026, time.January, 19))
	want := date(2026, time.January, 19)
	if !got.Equal(want) {
		t.Errorf("purchase on the closing day should bill this statement, got %v", got)
	}
}

func TestNextClosingDate_ClampsShortFebruary(t *testing.T) {
	got := engine.NextClosingDate(31, date(2026, time.February, 10))
	want := date(2026, time.February, 28)
	if !got.Equal(want) {
		t.Errorf("expected clamp to Feb 28, got %v", got)
	}
}

func TestNextClosingDate_ClampsLeapFebruary(t *testing.T) {
	got := engine.NextClosingDate(31, date(2028, time.February, 10))
	want := date(2028, time.February, 29)
	if !got.Equal(want) {
		t.Errorf("expected clamp to Feb 29, got %v", got)
	}
}

func TestPaymentDate(t *testing.T) {
	closing := engine.NextClosingDate(19, date(2026, time.January, 5))
	got := engine.PaymentDate(closing, 28)
	want := date(2026, time.February, 16)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestNextPaycheck(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{"before first anchor", date(2026, time.March, 3), date(2026, time.March, 15)},
		{"between anchors", date(2026, time.March, 16), date(2026, time.March, 30)},
		{"after second anchor", date(2026, time.March, 31), date(2026, time.April, 15)},
		{"on payday rolls forward", date(2026, time.March, 15), date(2026, time.March, 30)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.NextPaycheck(15, 30, tt.from)
			if !got.Equal(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNextPaycheck_ClampsFebruary(t *testing.T) {
	got := engine.NextPaycheck(15, 30, date(2026, time.February, 20))
	want := date(2026, time.February, 28)
	if !got.Equal(want) {
		t.Errorf("expected second anchor clamped to Feb 28, got %v", got)
	}
}

func TestPaychecksBetween(t *testing.T) {
	n := engine.PaychecksBetween(15, 30, date(2026, time.January, 5), date(2026, time.February, 16))
	if n != 3 {
		t.Errorf("expected 3 paydays (Jan 15, Jan 30, Feb 15), got %d", n)
	}
}

func TestPaychecksBetween_EmptyWindow(t *testing.T) {
	if n := engine.PaychecksBetween(15, 30, date(2026, time.January, 5), date(2026, time.January, 5)); n != 0 {
		t.Errorf("expected 0 for empty window, got %d", n)
	}
}
