// Package service provides the business logic layer (use cases).
// LedgerService owns the persisted financial state, RecommendationService
// scores purchases against it, SavingsService advises on transfers.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/jpolanco/cardwise/internal/domain"
	"github.com/jpolanco/cardwise/internal/engine"
	"github.com/jpolanco/cardwise/internal/infra/observability"
	"github.com/jpolanco/cardwise/internal/port"
)

var ledgerTracer = otel.Tracer("service/ledger")

const snapshotCacheKey = "snapshot"

// LedgerService orchestrates all ledger operations via the store.
type LedgerService struct {
	store     port.LedgerStore
	snapshots port.Cache[*engine.Snapshot]
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(store port.LedgerStore, snapshots port.Cache[*engine.Snapshot], metrics *observability.Metrics, logger *zap.Logger) *LedgerService {
	return &LedgerService{store: store, snapshots: snapshots, metrics: metrics, logger: logger}
}

// invalidate drops the cached snapshot after any mutation.
func (s *LedgerService) invalidate() {
	s.snapshots.Delete(snapshotCacheKey)
}

// LoadSnapshot assembles the engine's view of the ledger. Missing income
// schedule or savings goal become zero values: the engine floors the
// affected factors instead of failing.
func (s *LedgerService) LoadSnapshot(ctx context.Context) (*engine.Snapshot, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.LoadSnapshot")
	defer span.End()

	if snap, ok := s.snapshots.Get(snapshotCacheKey); ok {
		s.metrics.IncrCacheHit("snapshot")
		return snap, nil
	}
	s.metrics.IncrCacheMiss("snapshot")

	checking, err := s.store.GetChecking(ctx)
	if err != nil {
		return nil, err
	}
	cards, err := s.store.ListCards(ctx, true)
	if err != nil {
		return nil, err
	}
	expenses, err := s.store.ListFixedExpenses(ctx, true)
	if err != nil {
		return nil, err
	}
	bonuses, err := s.store.ListBonusEvents(ctx, false)
	if err != nil {
		return nil, err
	}

	snap := &engine.Snapshot{
		CheckingBalance: checking.Balance,
		Cards:           cards,
		FixedExpenses:   expenses,
		Bonuses:         bonuses,
		Paid:            map[string]bool{},
	}

	var notConfigured *domain.ErrNotConfigured
	income, err := s.store.GetIncomeSchedule(ctx)
	switch {
	case err == nil:
		snap.Income = *income
	case !errors.As(err, &notConfigured):
		return nil, err
	}
	goal, err := s.store.GetSavingsGoal(ctx)
	switch {
	case err == nil:
		snap.Goal = *goal
	case !errors.As(err, &notConfigured):
		return nil, err
	}

	// Payments from the start of last month cover every occurrence the
	// projection window can reach backwards.
	since := time.Now().UTC().AddDate(0, -1, 0)
	since = time.Date(since.Year(), since.Month(), 1, 0, 0, 0, 0, time.UTC)
	payments, err := s.store.ListExpensePayments(ctx, since)
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		snap.Paid[engine.PaidKey(p.ExpenseID, p.Year, time.Month(p.Month))] = true
	}

	s.snapshots.Set(snapshotCacheKey, snap)
	return snap, nil
}

// Dashboard assembles the aggregate read model.
func (s *LedgerService) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Dashboard")
	defer span.End()

	snap, err := s.LoadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if len(snap.Cards) == 0 {
		return nil, &domain.ErrNotConfigured{Resource: "credit cards"}
	}
	checking, err := s.store.GetChecking(ctx)
	if err != nil {
		return nil, err
	}
	savings, err := s.store.GetSavings(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.store.ListRecommendations(ctx, domain.RecommendationPending, 10)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	_, progress := savings.Progress()

	d := &domain.Dashboard{
		AsOf:                   now,
		Checking:               *checking,
		Savings:                *savings,
		SavingsProgress:        progress,
		PendingRecommendations: pending,
	}

	for _, c := range snap.Cards {
		if !c.Active {
			continue
		}
		closing := engine.NextClosingDate(c.ClosingDay, today)
		d.Cards = append(d.Cards, domain.DashboardCard{
			CreditCard:      c,
			UtilizationPct:  c.Utilization() * 100,
			NextClosingDate: closing,
			NextPaymentDate: engine.PaymentDate(closing, c.PaymentDaysAfter),
			DaysUntilClose:  int(closing.Sub(today).Hours() / 24),
		})
		d.TotalCardDebt += c.CurrentBalance
		d.TotalCreditLimit += c.CreditLimit
	}
	if d.TotalCreditLimit > 0 {
		d.OverallUtilPct = d.TotalCardDebt / d.TotalCreditLimit * 100
	}

	if snap.Income.Amount > 0 {
		d.NextPaycheck = engine.NextPaycheck(snap.Income.FirstPayday, snap.Income.SecondPayday, today)
		d.DaysUntilPaycheck = int(d.NextPaycheck.Sub(today).Hours() / 24)
		d.Upcoming = upcomingItems(snap, today, d.NextPaycheck)
		for _, item := range d.Upcoming {
			d.UpcomingTotal += item.Amount
		}
		d.ProjectedAtPaycheck = engine.ProjectedBalance(snap, today, d.NextPaycheck, nil)
	}

	return d, nil
}

// upcomingItems lists the cash-out events between today and the horizon:
// unpaid fixed expenses and card statement payments.
func upcomingItems(snap *engine.Snapshot, from, to time.Time) []domain.UpcomingItem {
	var items []domain.UpcomingItem
	y, m := from.Year(), from.Month()
	for i := 0; i < 2; i++ {
		for _, e := range snap.FixedExpenses {
			if !e.Active || snap.IsPaid(e.ID, y, m) {
				continue
			}
			due := engine.DueDate(y, m, e.DueDay)
			if due.After(from) && !due.After(to) {
				items = append(items, domain.UpcomingItem{
					Kind: "fixed_expense", Name: e.Name, Amount: e.Amount, DueOn: due,
				})
			}
		}
		m++
		if m > time.December {
			m = time.January
			y++
		}
	}
	for _, c := range snap.Cards {
		if !c.Active || c.CurrentBalance <= 0 {
			continue
		}
		due := engine.PaymentDate(engine.NextClosingDate(c.ClosingDay, from), c.PaymentDaysAfter)
		if due.After(from) && !due.After(to) {
			items = append(items, domain.UpcomingItem{
				Kind: "card_payment", Name: c.Name, Amount: c.CurrentBalance, DueOn: due,
			})
		}
	}
	return items
}

// ============================================================
// Accounts
// ============================================================

// UpdateBalance overwrites the checking balance (manual correction after
// checking the real bank).
func (s *LedgerService) UpdateBalance(ctx context.Context, req *domain.UpdateBalanceRequest) (*domain.UpdateBalanceResponse, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.UpdateBalance")
	defer span.End()

	old, err := s.store.GetChecking(ctx)
	if err != nil {
		return nil, err
	}
	updated, err := s.store.SetCheckingBalance(ctx, req.Balance)
	if err != nil {
		return nil, err
	}
	s.invalidate()

	s.logger.Info("checking balance updated",
		zap.Float64("old", old.Balance),
		zap.Float64("new", updated.Balance),
	)
	return &domain.UpdateBalanceResponse{
		Success:    true,
		OldBalance: old.Balance,
		NewBalance: updated.Balance,
		UpdatedAt:  updated.UpdatedAt,
	}, nil
}

// SetIncome creates or replaces the semimonthly income schedule.
func (s *LedgerService) SetIncome(ctx context.Context, req *domain.IncomeRequest) (*domain.IncomeSchedule, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.SetIncome")
	defer span.End()

	if req.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}
	if req.FirstPayday < 1 || req.FirstPayday > 31 {
		return nil, &domain.ErrValidation{Field: "first_payday", Message: "must be between 1 and 31"}
	}
	if req.SecondPayday < 1 || req.SecondPayday > 31 {
		return nil, &domain.ErrValidation{Field: "second_payday", Message: "must be between 1 and 31"}
	}
	if req.FirstPayday == req.SecondPayday {
		return nil, &domain.ErrValidation{Field: "second_payday", Message: "paydays must differ"}
	}

	inc := &domain.IncomeSchedule{
		Amount:       req.Amount,
		FirstPayday:  req.FirstPayday,
		SecondPayday: req.SecondPayday,
	}
	if err := s.store.UpsertIncomeSchedule(ctx, inc); err != nil {
		return nil, err
	}
	s.invalidate()
	return inc, nil
}

// ============================================================
// Credit cards
// ============================================================

// ListCards returns all cards.
func (s *LedgerService) ListCards(ctx context.Context, includeInactive bool) ([]domain.CreditCard, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.ListCards")
	defer span.End()

	return s.store.ListCards(ctx, includeInactive)
}

// GetCard returns one card.
func (s *LedgerService) GetCard(ctx context.Context, cardID string) (*domain.CreditCard, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.GetCard")
	defer span.End()
	span.SetAttributes(attribute.String("card.id", cardID))

	return s.store.GetCard(ctx, cardID)
}

// CreateCard validates and inserts a new card.
func (s *LedgerService) CreateCard(ctx context.Context, req *domain.CreateCardRequest) (*domain.CreditCard, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.CreateCard")
	defer span.End()

	if req.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "is required"}
	}
	if req.ClosingDay < 1 || req.ClosingDay > 31 {
		return nil, &domain.ErrValidation{Field: "closing_day", Message: "must be between 1 and 31"}
	}
	if req.PaymentDaysAfter < 0 {
		return nil, &domain.ErrValidation{Field: "payment_days_after", Message: "must not be negative"}
	}
	if req.CreditLimit < 0 {
		return nil, &domain.ErrValidation{Field: "credit_limit", Message: "must not be negative"}
	}
	if req.CurrentBalance < 0 {
		return nil, &domain.ErrValidation{Field: "current_balance", Message: "must not be negative"}
	}

	card := &domain.CreditCard{
		ID:               uuid.NewString(),
		Name:             req.Name,
		ClosingDay:       req.ClosingDay,
		PaymentDaysAfter: req.PaymentDaysAfter,
		CreditLimit:      req.CreditLimit,
		CurrentBalance:   req.CurrentBalance,
		APR:              req.APR,
		Color:            req.Color,
		Active:           true,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.store.CreateCard(ctx, card); err != nil {
		return nil, err
	}
	s.invalidate()

	s.logger.Info("card created", zap.String("card_id", card.ID), zap.String("name", card.Name))
	return card, nil
}

// UpdateCard applies a partial update to a card.
func (s *LedgerService) UpdateCard(ctx context.Context, cardID string, req *domain.UpdateCardRequest) (*domain.CreditCard, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.UpdateCard")
	defer span.End()
	span.SetAttributes(attribute.String("card.id", cardID))

	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, &domain.ErrValidation{Field: "name", Message: "is required"}
		}
		card.Name = *req.Name
	}
	if req.ClosingDay != nil {
		if *req.ClosingDay < 1 || *req.ClosingDay > 31 {
			return nil, &domain.ErrValidation{Field: "closing_day", Message: "must be between 1 and 31"}
		}
		card.ClosingDay = *req.ClosingDay
	}
	if req.PaymentDaysAfter != nil {
		if *req.PaymentDaysAfter < 0 {
			return nil, &domain.ErrValidation{Field: "payment_days_after", Message: "must not be negative"}
		}
		card.PaymentDaysAfter = *req.PaymentDaysAfter
	}
	if req.CreditLimit != nil {
		if *req.CreditLimit < 0 {
			return nil, &domain.ErrValidation{Field: "credit_limit", Message: "must not be negative"}
		}
		card.CreditLimit = *req.CreditLimit
	}
	if req.CurrentBalance != nil {
		card.CurrentBalance = *req.CurrentBalance
	}
	if req.APR != nil {
		card.APR = *req.APR
	}
	if req.Color != nil {
		card.Color = *req.Color
	}
	if req.Active != nil {
		card.Active = *req.Active
	}

	if err := s.store.UpdateCard(ctx, card); err != nil {
		return nil, err
	}
	s.invalidate()
	return card, nil
}

// DeleteCard removes a card without recorded history.
func (s *LedgerService) DeleteCard(ctx context.Context, cardID string) error {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.DeleteCard")
	defer span.End()
	span.SetAttributes(attribute.String("card.id", cardID))

	if err := s.store.DeleteCard(ctx, cardID); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// PayCard records a payment toward a card from checking.
func (s *LedgerService) PayCard(ctx context.Context, cardID string, req *domain.PayCardRequest) (*domain.PayCardResponse, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.PayCard")
	defer span.End()
	span.SetAttributes(attribute.String("card.id", cardID))

	if req.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}
	paidOn, err := parseDateOrToday(req.PaidOn, "paid_on")
	if err != nil {
		return nil, err
	}

	resp, err := s.store.PayCard(ctx, &domain.CardPayment{
		ID:     uuid.NewString(),
		CardID: cardID,
		Amount: req.Amount,
		PaidOn: paidOn,
		Notes:  req.Notes,
	})
	if err != nil {
		return nil, err
	}
	s.invalidate()

	s.logger.Info("card payment recorded",
		zap.String("card_id", cardID),
		zap.Float64("amount", req.Amount),
	)
	return resp, nil
}

// ============================================================
// Fixed expenses
// ============================================================

// ListFixedExpenses returns fixed expenses.
func (s *LedgerService) ListFixedExpenses(ctx context.Context, includeInactive bool) ([]domain.FixedExpense, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.ListFixedExpenses")
	defer span.End()

	return s.store.ListFixedExpenses(ctx, includeInactive)
}

// CreateFixedExpense validates and inserts a recurring expense.
func (s *LedgerService) CreateFixedExpense(ctx context.Context, e *domain.FixedExpense) (*domain.FixedExpense, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.CreateFixedExpense")
	defer span.End()

	if e.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "is required"}
	}
	if e.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}
	if e.DueDay < 1 || e.DueDay > 31 {
		return nil, &domain.ErrValidation{Field: "due_day", Message: "must be between 1 and 31"}
	}

	e.ID = uuid.NewString()
	e.Active = true
	if err := s.store.CreateFixedExpense(ctx, e); err != nil {
		return nil, err
	}
	s.invalidate()
	return e, nil
}

// UpdateFixedExpense applies a partial update to a fixed expense.
func (s *LedgerService) UpdateFixedExpense(ctx context.Context, expenseID string, req *domain.UpdateFixedExpenseRequest) (*domain.FixedExpense, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.UpdateFixedExpense")
	defer span.End()

	e, err := s.store.GetFixedExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, &domain.ErrValidation{Field: "name", Message: "is required"}
		}
		e.Name = *req.Name
	}
	if req.Amount != nil {
		if *req.Amount <= 0 {
			return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
		}
		e.Amount = *req.Amount
	}
	if req.DueDay != nil {
		if *req.DueDay < 1 || *req.DueDay > 31 {
			return nil, &domain.ErrValidation{Field: "due_day", Message: "must be between 1 and 31"}
		}
		e.DueDay = *req.DueDay
	}
	if req.Category != nil {
		e.Category = *req.Category
	}
	if req.Active != nil {
		e.Active = *req.Active
	}

	if err := s.store.UpdateFixedExpense(ctx, e); err != nil {
		return nil, err
	}
	s.invalidate()
	return e, nil
}

// PayFixedExpense marks one month of a fixed expense as paid.
func (s *LedgerService) PayFixedExpense(ctx context.Context, expenseID string, req *domain.PayExpenseRequest) (*domain.PayExpenseResponse, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.PayFixedExpense")
	defer span.End()
	span.SetAttributes(attribute.String("expense.id", expenseID))

	expense, err := s.store.GetFixedExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	amount := req.Amount
	if amount == 0 {
		amount = expense.Amount
	}
	if amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}
	paidOn, err := parseDateOrToday(req.PaidOn, "paid_on")
	if err != nil {
		return nil, err
	}

	method := req.Method
	if method == "" {
		method = domain.PayMethodCash
	}
	if method != domain.PayMethodCash && method != domain.PayMethodCard {
		return nil, &domain.ErrValidation{Field: "method", Message: "must be cash or card"}
	}
	if method == domain.PayMethodCard && req.CardID == "" {
		return nil, &domain.ErrValidation{Field: "card_id", Message: "is required for card payments"}
	}

	resp, err := s.store.PayFixedExpense(ctx, &domain.ExpensePayment{
		ID:        uuid.NewString(),
		ExpenseID: expenseID,
		Amount:    amount,
		PaidOn:    paidOn,
		Month:     int(paidOn.Month()),
		Year:      paidOn.Year(),
		Notes:     req.Notes,
	}, method, req.CardID, method == domain.PayMethodCard && !req.AlreadyInBalance)
	if err != nil {
		return nil, err
	}
	s.invalidate()
	return resp, nil
}

// ============================================================
// Variable expenses & bonuses
// ============================================================

// ListVariableExpenses returns variable expenses since the given date.
func (s *LedgerService) ListVariableExpenses(ctx context.Context, since time.Time) ([]domain.VariableExpense, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.ListVariableExpenses")
	defer span.End()

	return s.store.ListVariableExpenses(ctx, since)
}

// LogVariableExpense validates and appends a discretionary expenditure.
func (s *LedgerService) LogVariableExpense(ctx context.Context, e *domain.VariableExpense) (*domain.VariableExpense, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.LogVariableExpense")
	defer span.End()

	if e.Category == "" {
		return nil, &domain.ErrValidation{Field: "category", Message: "is required"}
	}
	if e.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}
	if e.SpentOn.IsZero() {
		e.SpentOn = todayUTC()
	}

	e.ID = uuid.NewString()
	if err := s.store.CreateVariableExpense(ctx, e); err != nil {
		return nil, err
	}
	s.invalidate()
	return e, nil
}

// ListBonusEvents returns expected bonuses.
func (s *LedgerService) ListBonusEvents(ctx context.Context, includeReceived bool) ([]domain.BonusEvent, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.ListBonusEvents")
	defer span.End()

	return s.store.ListBonusEvents(ctx, includeReceived)
}

// CreateBonusEvent validates and inserts an expected bonus.
func (s *LedgerService) CreateBonusEvent(ctx context.Context, b *domain.BonusEvent) (*domain.BonusEvent, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.CreateBonusEvent")
	defer span.End()

	if b.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}
	if b.ExpectedOn.IsZero() {
		return nil, &domain.ErrValidation{Field: "expected_on", Message: "is required"}
	}

	b.ID = uuid.NewString()
	b.Received = false
	if err := s.store.CreateBonusEvent(ctx, b); err != nil {
		return nil, err
	}
	s.invalidate()
	return b, nil
}

// MarkBonusReceived flags a bonus as landed and credits checking.
func (s *LedgerService) MarkBonusReceived(ctx context.Context, bonusID string) (*domain.BonusEvent, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.MarkBonusReceived")
	defer span.End()
	span.SetAttributes(attribute.String("bonus.id", bonusID))

	b, err := s.store.MarkBonusReceived(ctx, bonusID)
	if err != nil {
		return nil, err
	}
	s.invalidate()

	s.logger.Info("bonus received", zap.String("bonus_id", bonusID), zap.Float64("amount", b.Amount))
	return b, nil
}

// Ping reports store health.
func (s *LedgerService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// parseDateOrToday parses a YYYY-MM-DD field, defaulting to today.
func parseDateOrToday(value, field string) (time.Time, error) {
	if value == "" {
		return todayUTC(), nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, &domain.ErrValidation{Field: field, Message: "must be YYYY-MM-DD"}
	}
	return t, nil
}

func todayUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
