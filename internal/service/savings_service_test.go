package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jpolanco/cardwise/internal/domain"
)

func TestAvailable_RequiresConfiguration(t *testing.T) {
	_, _, _, sav := newServices(t)

	_, err := sav.Available(context.Background())
	var notConfigured *domain.ErrNotConfigured
	if !errors.As(err, &notConfigured) {
		t.Fatalf("expected ErrNotConfigured without income/goal, got %v", err)
	}
}

func TestAvailable_NeverNegative(t *testing.T) {
	store, _, _, sav := newServices(t)
	seedLedger(t, store)

	// Drain checking below the comfort floor.
	if _, err := store.SetCheckingBalance(context.Background(), 500); err != nil {
		t.Fatalf("setting balance: %v", err)
	}

	av, err := sav.Available(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if av.RecommendedTransfer < 0 {
		t.Errorf("recommended transfer must never be negative, got %.2f", av.RecommendedTransfer)
	}
	if av.WouldMeetGoal {
		t.Error("a drained account should not meet the paycheck goal")
	}
}

func TestAvailable_CapsAtGoal(t *testing.T) {
	store, _, _, sav := newServices(t)
	seedLedger(t, store)

	// Plenty of cash: the recommendation caps at amount_per_paycheck.
	if _, err := store.SetCheckingBalance(context.Background(), 50000); err != nil {
		t.Fatalf("setting balance: %v", err)
	}

	av, err := sav.Available(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if av.RecommendedTransfer != av.GoalPerPaycheck {
		t.Errorf("expected recommendation capped at goal %.2f, got %.2f", av.GoalPerPaycheck, av.RecommendedTransfer)
	}
	if !av.WouldMeetGoal {
		t.Error("expected the goal to be met with ample cash")
	}
}

func TestTransfer_RejectsNonPositiveAmount(t *testing.T) {
	store, _, _, sav := newServices(t)
	seedLedger(t, store)

	_, err := sav.Transfer(context.Background(), &domain.TransferRequest{Amount: 0})
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestTransfer_MovesFundsAndReportsProgress(t *testing.T) {
	store, _, _, sav := newServices(t)
	seedLedger(t, store)
	ctx := context.Background()

	if _, err := store.SetSavingsTarget(ctx, 10000); err != nil {
		t.Fatalf("setting target: %v", err)
	}

	resp, err := sav.Transfer(ctx, &domain.TransferRequest{Amount: 1000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.NewCheckingBalance != 4000 {
		t.Errorf("expected checking 4000, got %.2f", resp.NewCheckingBalance)
	}
	if resp.NewSavingsBalance != 1000 {
		t.Errorf("expected savings 1000, got %.2f", resp.NewSavingsBalance)
	}
	if resp.SavingsProgress != 0.1 {
		t.Errorf("expected progress 0.1, got %.2f", resp.SavingsProgress)
	}
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	store, _, _, sav := newServices(t)
	seedLedger(t, store)

	_, err := sav.Transfer(context.Background(), &domain.TransferRequest{Amount: 99999})
	var insufficient *domain.ErrInsufficientFunds
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestSetGoal_UpdatesTargetWhenProvided(t *testing.T) {
	store, _, _, sav := newServices(t)
	seedLedger(t, store)
	ctx := context.Background()

	target := 15000.0
	goal, err := sav.SetGoal(ctx, &domain.SavingsGoalRequest{
		AmountPerPaycheck: 700,
		MinComfortBalance: 2500,
		VariableMonthly:   1200,
		Target:            &target,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if goal.AmountPerPaycheck != 700 {
		t.Errorf("expected amount 700, got %.2f", goal.AmountPerPaycheck)
	}

	savings, err := store.GetSavings(ctx)
	if err != nil {
		t.Fatalf("loading savings: %v", err)
	}
	if savings.Target != 15000 {
		t.Errorf("expected target 15000, got %.2f", savings.Target)
	}
}

func TestSetGoal_RejectsNegativeValues(t *testing.T) {
	store, _, _, sav := newServices(t)
	seedLedger(t, store)

	_, err := sav.SetGoal(context.Background(), &domain.SavingsGoalRequest{AmountPerPaycheck: -1})
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

// A request that fails validation must not touch the store, even when
// only the optional target field is at fault.
func TestSetGoal_NegativeTargetLeavesGoalUntouched(t *testing.T) {
	store, _, _, sav := newServices(t)
	seedLedger(t, store)
	ctx := context.Background()

	before, err := store.GetSavingsGoal(ctx)
	if err != nil {
		t.Fatalf("loading goal: %v", err)
	}

	target := -1.0
	_, err = sav.SetGoal(ctx, &domain.SavingsGoalRequest{
		AmountPerPaycheck: 900,
		MinComfortBalance: 3000,
		VariableMonthly:   1800,
		Target:            &target,
	})
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	after, err := store.GetSavingsGoal(ctx)
	if err != nil {
		t.Fatalf("reloading goal: %v", err)
	}
	if *after != *before {
		t.Errorf("rejected request must leave the goal unchanged, got %+v want %+v", after, before)
	}
}

// Availability must reflect the ledger after mutations go through the
// services (cache invalidation), not a stale snapshot.
func TestAvailable_SeesFreshBalance(t *testing.T) {
	store, ledger, _, sav := newServices(t)
	seedLedger(t, store)
	ctx := context.Background()

	first, err := sav.Available(ctx)
	if err != nil {
		t.Fatalf("first availability: %v", err)
	}

	if _, err := ledger.UpdateBalance(ctx, &domain.UpdateBalanceRequest{Balance: first.CheckingBalance + 10000}); err != nil {
		t.Fatalf("updating balance: %v", err)
	}

	second, err := sav.Available(ctx)
	if err != nil {
		t.Fatalf("second availability: %v", err)
	}
	if second.CheckingBalance != first.CheckingBalance+10000 {
		t.Errorf("expected fresh balance %.2f, got %.2f", first.CheckingBalance+10000, second.CheckingBalance)
	}
}
