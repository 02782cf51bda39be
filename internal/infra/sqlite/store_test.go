package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jpolanco/cardwise/internal/domain"
	"github.com/jpolanco/cardwise/internal/infra/sqlite"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestTransferToSavings_Atomic(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	if _, err := s.SetCheckingBalance(ctx, 500); err != nil {
		t.Fatalf("seeding checking: %v", err)
	}

	_, _, err := s.TransferToSavings(ctx, 800)
	var insufficient *domain.ErrInsufficientFunds
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	checking, err := s.GetChecking(ctx)
	if err != nil {
		t.Fatalf("getting checking: %v", err)
	}
	savings, err := s.GetSavings(ctx)
	if err != nil {
		t.Fatalf("getting savings: %v", err)
	}
	if checking.Balance != 500 || savings.Balance != 0 {
		t.Errorf("rejected transfer must leave balances unchanged, got checking=%.2f savings=%.2f",
			checking.Balance, savings.Balance)
	}
}

func TestTransferToSavings_MovesFunds(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	if _, err := s.SetCheckingBalance(ctx, 1000); err != nil {
		t.Fatalf("seeding checking: %v", err)
	}

	checking, savings, err := s.TransferToSavings(ctx, 300)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if checking.Balance != 700 {
		t.Errorf("expected checking 700, got %.2f", checking.Balance)
	}
	if savings.Balance != 300 {
		t.Errorf("expected savings 300, got %.2f", savings.Balance)
	}
}

func TestGetIncomeSchedule_NotConfigured(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, err := s.GetIncomeSchedule(ctx)
	var notConfigured *domain.ErrNotConfigured
	if !errors.As(err, &notConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	want := domain.IncomeSchedule{Amount: 2300, FirstPayday: 15, SecondPayday: 30}
	if err := s.UpsertIncomeSchedule(ctx, &want); err != nil {
		t.Fatalf("upserting income: %v", err)
	}
	got, err := s.GetIncomeSchedule(ctx)
	if err != nil {
		t.Fatalf("getting income: %v", err)
	}
	if *got != want {
		t.Errorf("expected %+v, got %+v", want, *got)
	}
}

func TestPayFixedExpense_DuplicateMonth(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	if _, err := s.SetCheckingBalance(ctx, 5000); err != nil {
		t.Fatalf("seeding checking: %v", err)
	}
	expense := &domain.FixedExpense{ID: uuid.NewString(), Name: "Rent", Amount: 1200, DueDay: 1, Active: true}
	if err := s.CreateFixedExpense(ctx, expense); err != nil {
		t.Fatalf("creating expense: %v", err)
	}

	pay := func() error {
		_, err := s.PayFixedExpense(ctx, &domain.ExpensePayment{
			ID:        uuid.NewString(),
			ExpenseID: expense.ID,
			Amount:    1200,
			PaidOn:    time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
			Month:     3,
			Year:      2026,
		}, domain.PayMethodCash, "", false)
		return err
	}

	if err := pay(); err != nil {
		t.Fatalf("first payment: %v", err)
	}
	var dup *domain.ErrDuplicate
	if err := pay(); !errors.As(err, &dup) {
		t.Fatalf("expected ErrDuplicate on second payment for the same month, got %v", err)
	}

	checking, err := s.GetChecking(ctx)
	if err != nil {
		t.Fatalf("getting checking: %v", err)
	}
	if checking.Balance != 3800 {
		t.Errorf("duplicate must not double-debit: expected 3800, got %.2f", checking.Balance)
	}
}

func TestExecuteRecommendation_ChargesCard(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	card := &domain.CreditCard{
		ID: uuid.NewString(), Name: "Blue", ClosingDay: 19, PaymentDaysAfter: 28,
		CreditLimit: 10000, CurrentBalance: 100, Active: true, CreatedAt: time.Now().UTC(),
	}
	if err := s.CreateCard(ctx, card); err != nil {
		t.Fatalf("creating card: %v", err)
	}

	rec := &domain.PurchaseRecommendation{
		ID:           uuid.NewString(),
		Amount:       250,
		PurchaseDate: time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC),
		Status:       domain.RecommendationPending,
		Ranking: []domain.RankedCard{
			{Rank: 1, CardScore: domain.CardScore{CardID: card.ID, CardName: card.Name, Total: 90}},
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.SaveRecommendation(ctx, rec); err != nil {
		t.Fatalf("saving recommendation: %v", err)
	}

	executed, updatedCard, err := s.ExecuteRecommendation(ctx, rec.ID, card.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("executing: %v", err)
	}
	if executed.Status != domain.RecommendationExecuted {
		t.Errorf("expected executed status, got %s", executed.Status)
	}
	if updatedCard.CurrentBalance != 350 {
		t.Errorf("expected card balance 350, got %.2f", updatedCard.CurrentBalance)
	}

	// Executing again must conflict and leave the card untouched.
	_, _, err = s.ExecuteRecommendation(ctx, rec.ID, card.ID, time.Now().UTC())
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ErrConflict on re-execution, got %v", err)
	}
	again, err := s.GetCard(ctx, card.ID)
	if err != nil {
		t.Fatalf("getting card: %v", err)
	}
	if again.CurrentBalance != 350 {
		t.Errorf("re-execution must not recharge the card, got %.2f", again.CurrentBalance)
	}
}

func TestDeleteCard_RejectsWithHistory(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	card := &domain.CreditCard{
		ID: uuid.NewString(), Name: "Gold", ClosingDay: 10, PaymentDaysAfter: 20,
		CreditLimit: 5000, Active: true, CreatedAt: time.Now().UTC(),
	}
	if err := s.CreateCard(ctx, card); err != nil {
		t.Fatalf("creating card: %v", err)
	}
	if err := s.CreateVariableExpense(ctx, &domain.VariableExpense{
		ID: uuid.NewString(), Category: "dining", Amount: 40,
		SpentOn: time.Now().UTC(), CardID: card.ID,
	}); err != nil {
		t.Fatalf("creating variable expense: %v", err)
	}

	var conflict *domain.ErrConflict
	if err := s.DeleteCard(ctx, card.ID); !errors.As(err, &conflict) {
		t.Fatalf("expected ErrConflict deleting a card with history, got %v", err)
	}
}

func TestMarkBonusReceived_CreditsChecking(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	if _, err := s.SetCheckingBalance(ctx, 1000); err != nil {
		t.Fatalf("seeding checking: %v", err)
	}
	bonus := &domain.BonusEvent{
		ID: uuid.NewString(), Amount: 2500,
		ExpectedOn: time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC),
	}
	if err := s.CreateBonusEvent(ctx, bonus); err != nil {
		t.Fatalf("creating bonus: %v", err)
	}

	got, err := s.MarkBonusReceived(ctx, bonus.ID)
	if err != nil {
		t.Fatalf("marking received: %v", err)
	}
	if !got.Received {
		t.Error("expected bonus marked received")
	}
	checking, err := s.GetChecking(ctx)
	if err != nil {
		t.Fatalf("getting checking: %v", err)
	}
	if checking.Balance != 3500 {
		t.Errorf("expected checking 3500, got %.2f", checking.Balance)
	}

	var conflict *domain.ErrConflict
	if _, err := s.MarkBonusReceived(ctx, bonus.ID); !errors.As(err, &conflict) {
		t.Fatalf("expected ErrConflict receiving twice, got %v", err)
	}
}
