// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/jpolanco/cardwise/internal/domain"
)

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// LedgerStore defines all data operations for the personal ledger.
// Implemented by the SQLite adapter (default), the Supabase adapter, and
// an in-memory fake for tests. Mutations that touch more than one record
// are atomic: on error the store is unchanged.
type LedgerStore interface {
	// Accounts
	GetChecking(ctx context.Context) (*domain.CheckingAccount, error)
	SetCheckingBalance(ctx context.Context, balance float64) (*domain.CheckingAccount, error)
	GetSavings(ctx context.Context) (*domain.SavingsAccount, error)
	SetSavingsTarget(ctx context.Context, target float64) (*domain.SavingsAccount, error)
	TransferToSavings(ctx context.Context, amount float64) (checking *domain.CheckingAccount, savings *domain.SavingsAccount, err error)

	// Credit cards
	ListCards(ctx context.Context, includeInactive bool) ([]domain.CreditCard, error)
	GetCard(ctx context.Context, cardID string) (*domain.CreditCard, error)
	CreateCard(ctx context.Context, card *domain.CreditCard) error
	UpdateCard(ctx context.Context, card *domain.CreditCard) error
	DeleteCard(ctx context.Context, cardID string) error
	PayCard(ctx context.Context, payment *domain.CardPayment) (*domain.PayCardResponse, error)

	// Income & savings policy
	GetIncomeSchedule(ctx context.Context) (*domain.IncomeSchedule, error)
	UpsertIncomeSchedule(ctx context.Context, s *domain.IncomeSchedule) error
	GetSavingsGoal(ctx context.Context) (*domain.SavingsGoal, error)
	UpsertSavingsGoal(ctx context.Context, g *domain.SavingsGoal) error

	// Fixed expenses
	ListFixedExpenses(ctx context.Context, includeInactive bool) ([]domain.FixedExpense, error)
	GetFixedExpense(ctx context.Context, expenseID string) (*domain.FixedExpense, error)
	CreateFixedExpense(ctx context.Context, e *domain.FixedExpense) error
	UpdateFixedExpense(ctx context.Context, e *domain.FixedExpense) error
	ListExpensePayments(ctx context.Context, since time.Time) ([]domain.ExpensePayment, error)
	PayFixedExpense(ctx context.Context, payment *domain.ExpensePayment, method string, cardID string, adjustBalance bool) (*domain.PayExpenseResponse, error)

	// Variable expenses
	ListVariableExpenses(ctx context.Context, since time.Time) ([]domain.VariableExpense, error)
	CreateVariableExpense(ctx context.Context, e *domain.VariableExpense) error

	// Bonus events
	ListBonusEvents(ctx context.Context, includeReceived bool) ([]domain.BonusEvent, error)
	CreateBonusEvent(ctx context.Context, b *domain.BonusEvent) error
	MarkBonusReceived(ctx context.Context, bonusID string) (*domain.BonusEvent, error)

	// Recommendations
	SaveRecommendation(ctx context.Context, rec *domain.PurchaseRecommendation) error
	GetRecommendation(ctx context.Context, recID string) (*domain.PurchaseRecommendation, error)
	ListRecommendations(ctx context.Context, status string, limit int) ([]domain.PurchaseRecommendation, error)
	ExecuteRecommendation(ctx context.Context, recID, cardID string, executedAt time.Time) (*domain.PurchaseRecommendation, *domain.CreditCard, error)
	CancelRecommendation(ctx context.Context, recID string) (*domain.PurchaseRecommendation, error)

	// Health
	Ping(ctx context.Context) error
}
