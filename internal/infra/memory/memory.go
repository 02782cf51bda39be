// Package memory implements port.LedgerStore entirely in memory. It
// backs service and handler tests and doubles as a throwaway backend
// for local experiments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpolanco/cardwise/internal/domain"
)

// Store is a mutex-guarded in-memory ledger store.
type Store struct {
	mu sync.Mutex

	checking domain.CheckingAccount
	savings  domain.SavingsAccount
	income   *domain.IncomeSchedule
	goal     *domain.SavingsGoal

	cards           map[string]*domain.CreditCard
	cardPayments    []domain.CardPayment
	fixedExpenses   map[string]*domain.FixedExpense
	expensePayments []domain.ExpensePayment
	variable        []domain.VariableExpense
	bonuses         map[string]*domain.BonusEvent
	recommendations map[string]*domain.PurchaseRecommendation
}

// New returns an empty store.
func New() *Store {
	return &Store{
		cards:           make(map[string]*domain.CreditCard),
		fixedExpenses:   make(map[string]*domain.FixedExpense),
		bonuses:         make(map[string]*domain.BonusEvent),
		recommendations: make(map[string]*domain.PurchaseRecommendation),
	}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) GetChecking(ctx context.Context) (*domain.CheckingAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.checking
	return &acc, nil
}

func (s *Store) SetCheckingBalance(ctx context.Context, balance float64) (*domain.CheckingAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checking = domain.CheckingAccount{Balance: balance, UpdatedAt: time.Now().UTC()}
	acc := s.checking
	return &acc, nil
}

func (s *Store) GetSavings(ctx context.Context) (*domain.SavingsAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.savings
	return &acc, nil
}

func (s *Store) SetSavingsTarget(ctx context.Context, target float64) (*domain.SavingsAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.savings.Target = target
	s.savings.UpdatedAt = time.Now().UTC()
	acc := s.savings
	return &acc, nil
}

func (s *Store) TransferToSavings(ctx context.Context, amount float64) (*domain.CheckingAccount, *domain.SavingsAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checking.Balance < amount {
		return nil, nil, &domain.ErrInsufficientFunds{Available: s.checking.Balance, Required: amount}
	}
	now := time.Now().UTC()
	s.checking.Balance -= amount
	s.checking.UpdatedAt = now
	s.savings.Balance += amount
	s.savings.UpdatedAt = now
	checking, savings := s.checking, s.savings
	return &checking, &savings, nil
}

func (s *Store) ListCards(ctx context.Context, includeInactive bool) ([]domain.CreditCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.CreditCard
	for _, c := range s.cards {
		if includeInactive || c.Active {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Active != out[j].Active {
			return out[i].Active
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) GetCard(ctx context.Context, cardID string) (*domain.CreditCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[cardID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "card", ID: cardID}
	}
	card := *c
	return &card, nil
}

func (s *Store) CreateCard(ctx context.Context, c *domain.CreditCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	card := *c
	s.cards[c.ID] = &card
	return nil
}

func (s *Store) UpdateCard(ctx context.Context, c *domain.CreditCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[c.ID]; !ok {
		return &domain.ErrNotFound{Resource: "card", ID: c.ID}
	}
	card := *c
	s.cards[c.ID] = &card
	return nil
}

func (s *Store) DeleteCard(ctx context.Context, cardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[cardID]; !ok {
		return &domain.ErrNotFound{Resource: "card", ID: cardID}
	}
	for _, p := range s.cardPayments {
		if p.CardID == cardID {
			return &domain.ErrConflict{Message: "card has recorded history; deactivate it instead of deleting"}
		}
	}
	for _, e := range s.variable {
		if e.CardID == cardID {
			return &domain.ErrConflict{Message: "card has recorded history; deactivate it instead of deleting"}
		}
	}
	delete(s.cards, cardID)
	return nil
}

func (s *Store) PayCard(ctx context.Context, payment *domain.CardPayment) (*domain.PayCardResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[payment.CardID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "card", ID: payment.CardID}
	}
	if s.checking.Balance < payment.Amount {
		return nil, &domain.ErrInsufficientFunds{Available: s.checking.Balance, Required: payment.Amount}
	}
	c.CurrentBalance -= payment.Amount
	s.checking.Balance -= payment.Amount
	s.checking.UpdatedAt = time.Now().UTC()
	s.cardPayments = append(s.cardPayments, *payment)
	return &domain.PayCardResponse{
		Payment:            payment,
		NewCardBalance:     c.CurrentBalance,
		NewCheckingBalance: s.checking.Balance,
	}, nil
}

func (s *Store) GetIncomeSchedule(ctx context.Context) (*domain.IncomeSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.income == nil {
		return nil, &domain.ErrNotConfigured{Resource: "income schedule"}
	}
	inc := *s.income
	return &inc, nil
}

func (s *Store) UpsertIncomeSchedule(ctx context.Context, inc *domain.IncomeSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := *inc
	s.income = &v
	return nil
}

func (s *Store) GetSavingsGoal(ctx context.Context) (*domain.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.goal == nil {
		return nil, &domain.ErrNotConfigured{Resource: "savings goal"}
	}
	g := *s.goal
	return &g, nil
}

func (s *Store) UpsertSavingsGoal(ctx context.Context, g *domain.SavingsGoal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := *g
	s.goal = &v
	return nil
}

func (s *Store) ListFixedExpenses(ctx context.Context, includeInactive bool) ([]domain.FixedExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.FixedExpense
	for _, e := range s.fixedExpenses {
		if includeInactive || e.Active {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DueDay != out[j].DueDay {
			return out[i].DueDay < out[j].DueDay
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) GetFixedExpense(ctx context.Context, expenseID string) (*domain.FixedExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.fixedExpenses[expenseID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "fixed expense", ID: expenseID}
	}
	exp := *e
	return &exp, nil
}

func (s *Store) CreateFixedExpense(ctx context.Context, e *domain.FixedExpense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp := *e
	s.fixedExpenses[e.ID] = &exp
	return nil
}

func (s *Store) UpdateFixedExpense(ctx context.Context, e *domain.FixedExpense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fixedExpenses[e.ID]; !ok {
		return &domain.ErrNotFound{Resource: "fixed expense", ID: e.ID}
	}
	exp := *e
	s.fixedExpenses[e.ID] = &exp
	return nil
}

func (s *Store) ListExpensePayments(ctx context.Context, since time.Time) ([]domain.ExpensePayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ExpensePayment
	for _, p := range s.expensePayments {
		if !p.PaidOn.Before(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) PayFixedExpense(ctx context.Context, payment *domain.ExpensePayment, method, cardID string, adjustBalance bool) (*domain.PayExpenseResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fixedExpenses[payment.ExpenseID]; !ok {
		return nil, &domain.ErrNotFound{Resource: "fixed expense", ID: payment.ExpenseID}
	}
	for _, p := range s.expensePayments {
		if p.ExpenseID == payment.ExpenseID && p.Year == payment.Year && p.Month == payment.Month {
			return nil, &domain.ErrDuplicate{
				Key: fmt.Sprintf("%s-%04d-%02d", payment.ExpenseID, payment.Year, payment.Month),
			}
		}
	}

	resp := &domain.PayExpenseResponse{Payment: payment}
	switch method {
	case domain.PayMethodCard:
		if adjustBalance {
			c, ok := s.cards[cardID]
			if !ok {
				return nil, &domain.ErrNotFound{Resource: "card", ID: cardID}
			}
			c.CurrentBalance += payment.Amount
			resp.CardUpdated = true
			resp.NewCardBalance = c.CurrentBalance
		}
	default:
		if s.checking.Balance < payment.Amount {
			return nil, &domain.ErrInsufficientFunds{Available: s.checking.Balance, Required: payment.Amount}
		}
		s.checking.Balance -= payment.Amount
		s.checking.UpdatedAt = time.Now().UTC()
		resp.CheckingUpdated = true
		resp.NewCheckingBalance = s.checking.Balance
	}

	s.expensePayments = append(s.expensePayments, *payment)
	return resp, nil
}

func (s *Store) ListVariableExpenses(ctx context.Context, since time.Time) ([]domain.VariableExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.VariableExpense
	for _, e := range s.variable {
		if !e.SpentOn.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) CreateVariableExpense(ctx context.Context, e *domain.VariableExpense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.CardID != "" {
		c, ok := s.cards[e.CardID]
		if !ok {
			return &domain.ErrNotFound{Resource: "card", ID: e.CardID}
		}
		c.CurrentBalance += e.Amount
	}
	s.variable = append(s.variable, *e)
	return nil
}

func (s *Store) ListBonusEvents(ctx context.Context, includeReceived bool) ([]domain.BonusEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.BonusEvent
	for _, b := range s.bonuses {
		if includeReceived || !b.Received {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpectedOn.Before(out[j].ExpectedOn) })
	return out, nil
}

func (s *Store) CreateBonusEvent(ctx context.Context, b *domain.BonusEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bonus := *b
	s.bonuses[b.ID] = &bonus
	return nil
}

func (s *Store) MarkBonusReceived(ctx context.Context, bonusID string) (*domain.BonusEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bonuses[bonusID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "bonus", ID: bonusID}
	}
	if b.Received {
		return nil, &domain.ErrConflict{Message: "bonus already received"}
	}
	b.Received = true
	s.checking.Balance += b.Amount
	s.checking.UpdatedAt = time.Now().UTC()
	bonus := *b
	return &bonus, nil
}

func (s *Store) SaveRecommendation(ctx context.Context, rec *domain.PurchaseRecommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := *rec
	r.Ranking = append([]domain.RankedCard(nil), rec.Ranking...)
	s.recommendations[rec.ID] = &r
	return nil
}

func (s *Store) GetRecommendation(ctx context.Context, recID string) (*domain.PurchaseRecommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recommendations[recID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "recommendation", ID: recID}
	}
	rec := *r
	return &rec, nil
}

func (s *Store) ListRecommendations(ctx context.Context, status string, limit int) ([]domain.PurchaseRecommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.PurchaseRecommendation
	for _, r := range s.recommendations {
		if status == "" || r.Status == status {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ExecuteRecommendation(ctx context.Context, recID, cardID string, executedAt time.Time) (*domain.PurchaseRecommendation, *domain.CreditCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recommendations[recID]
	if !ok {
		return nil, nil, &domain.ErrNotFound{Resource: "recommendation", ID: recID}
	}
	if r.Status != domain.RecommendationPending {
		return nil, nil, &domain.ErrConflict{Message: "recommendation is " + r.Status + ", only pending ones can be executed"}
	}
	c, ok := s.cards[cardID]
	if !ok || !c.Active {
		return nil, nil, &domain.ErrNotFound{Resource: "card", ID: cardID}
	}
	c.CurrentBalance += r.Amount
	r.Status = domain.RecommendationExecuted
	r.ExecutedAt = &executedAt
	r.ExecutedCard = cardID
	s.variable = append(s.variable, domain.VariableExpense{
		ID:          uuid.NewString(),
		Category:    "recommendation",
		Amount:      r.Amount,
		Description: r.Description,
		SpentOn:     executedAt,
		CardID:      cardID,
	})
	rec, card := *r, *c
	return &rec, &card, nil
}

func (s *Store) CancelRecommendation(ctx context.Context, recID string) (*domain.PurchaseRecommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recommendations[recID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "recommendation", ID: recID}
	}
	if r.Status != domain.RecommendationPending {
		return nil, &domain.ErrConflict{Message: "recommendation is " + r.Status + ", only pending ones can be cancelled"}
	}
	r.Status = domain.RecommendationCancelled
	rec := *r
	return &rec, nil
}
