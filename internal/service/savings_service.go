package service

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/jpolanco/cardwise/internal/domain"
	"github.com/jpolanco/cardwise/internal/engine"
	"github.com/jpolanco/cardwise/internal/port"
)

var savingsTracer = otel.Tracer("service/savings")

// SavingsService advises on and executes checking-to-savings transfers.
type SavingsService struct {
	store  port.LedgerStore
	ledger *LedgerService
	logger *zap.Logger
}

// NewSavingsService creates a new savings service.
func NewSavingsService(store port.LedgerStore, ledger *LedgerService, logger *zap.Logger) *SavingsService {
	return &SavingsService{store: store, ledger: ledger, logger: logger}
}

// Available computes how much can move to savings before the next
// paycheck. Both the income schedule and the savings goal must be
// configured: without them there is no window and no floor.
func (s *SavingsService) Available(ctx context.Context) (*domain.SavingsAvailability, error) {
	ctx, span := savingsTracer.Start(ctx, "SavingsService.Available")
	defer span.End()

	// Check configuration before computing: the engine would silently
	// floor missing values, but the advisor's answer would be nonsense.
	if _, err := s.store.GetIncomeSchedule(ctx); err != nil {
		return nil, err
	}
	if _, err := s.store.GetSavingsGoal(ctx); err != nil {
		return nil, err
	}

	snap, err := s.ledger.LoadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	av := engine.Availability(snap, todayUTC())
	return &av, nil
}

// Transfer moves funds from checking to savings.
func (s *SavingsService) Transfer(ctx context.Context, req *domain.TransferRequest) (*domain.TransferResponse, error) {
	ctx, span := savingsTracer.Start(ctx, "SavingsService.Transfer")
	defer span.End()
	span.SetAttributes(attribute.Float64("transfer.amount", req.Amount))

	if req.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}

	checking, savings, err := s.store.TransferToSavings(ctx, req.Amount)
	if err != nil {
		return nil, err
	}
	s.ledger.invalidate()

	_, progress := savings.Progress()
	s.logger.Info("savings transfer completed",
		zap.Float64("amount", req.Amount),
		zap.Float64("new_checking", checking.Balance),
		zap.Float64("new_savings", savings.Balance),
	)
	return &domain.TransferResponse{
		Success:            true,
		Amount:             req.Amount,
		NewCheckingBalance: checking.Balance,
		NewSavingsBalance:  savings.Balance,
		SavingsProgress:    progress,
	}, nil
}

// SetGoal creates or replaces the savings policy, optionally updating
// the savings target as well.
func (s *SavingsService) SetGoal(ctx context.Context, req *domain.SavingsGoalRequest) (*domain.SavingsGoal, error) {
	ctx, span := savingsTracer.Start(ctx, "SavingsService.SetGoal")
	defer span.End()

	if req.AmountPerPaycheck < 0 {
		return nil, &domain.ErrValidation{Field: "amount_per_paycheck", Message: "must not be negative"}
	}
	if req.MinComfortBalance < 0 {
		return nil, &domain.ErrValidation{Field: "min_comfort_balance", Message: "must not be negative"}
	}
	if req.VariableMonthly < 0 {
		return nil, &domain.ErrValidation{Field: "variable_monthly", Message: "must not be negative"}
	}
	if req.Target != nil && *req.Target < 0 {
		return nil, &domain.ErrValidation{Field: "target", Message: "must not be negative"}
	}

	goal := &domain.SavingsGoal{
		AmountPerPaycheck: req.AmountPerPaycheck,
		MinComfortBalance: req.MinComfortBalance,
		VariableMonthly:   req.VariableMonthly,
	}
	if err := s.store.UpsertSavingsGoal(ctx, goal); err != nil {
		return nil, err
	}
	if req.Target != nil {
		if _, err := s.store.SetSavingsTarget(ctx, *req.Target); err != nil {
			return nil, err
		}
	}
	s.ledger.invalidate()
	return goal, nil
}
