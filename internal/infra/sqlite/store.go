// Package sqlite implements port.LedgerStore on an embedded SQLite
// database. It is the default persistence backend: single user, single
// file, no server to run.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jpolanco/cardwise/internal/domain"

	_ "modernc.org/sqlite" // register sqlite driver
)

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339
)

// Store is a SQLite-backed ledger store.
type Store struct {
	db *sql.DB
}

// Open opens or creates the ledger database at the given path and
// applies the schema.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetChecking returns the checking account singleton.
func (s *Store) GetChecking(ctx context.Context) (*domain.CheckingAccount, error) {
	var acc domain.CheckingAccount
	var updated string
	err := s.db.QueryRowContext(ctx,
		"SELECT balance, updated_at FROM checking_account WHERE id = 1").
		Scan(&acc.Balance, &updated)
	if err != nil {
		return nil, err
	}
	acc.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return &acc, nil
}

// SetCheckingBalance overwrites the checking balance.
func (s *Store) SetCheckingBalance(ctx context.Context, balance float64) (*domain.CheckingAccount, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		"UPDATE checking_account SET balance = ?, updated_at = ? WHERE id = 1",
		balance, now.Format(timeLayout))
	if err != nil {
		return nil, err
	}
	return &domain.CheckingAccount{Balance: balance, UpdatedAt: now}, nil
}

// GetSavings returns the savings account singleton.
func (s *Store) GetSavings(ctx context.Context) (*domain.SavingsAccount, error) {
	var acc domain.SavingsAccount
	var updated string
	err := s.db.QueryRowContext(ctx,
		"SELECT balance, target, updated_at FROM savings_account WHERE id = 1").
		Scan(&acc.Balance, &acc.Target, &updated)
	if err != nil {
		return nil, err
	}
	acc.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return &acc, nil
}

// SetSavingsTarget overwrites the savings target.
func (s *Store) SetSavingsTarget(ctx context.Context, target float64) (*domain.SavingsAccount, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		"UPDATE savings_account SET target = ?, updated_at = ? WHERE id = 1",
		target, now.Format(timeLayout))
	if err != nil {
		return nil, err
	}
	return s.GetSavings(ctx)
}

// TransferToSavings atomically moves amount from checking to savings.
// A transfer that would overdraw checking is rejected with both
// balances unchanged.
func (s *Store) TransferToSavings(ctx context.Context, amount float64) (*domain.CheckingAccount, *domain.SavingsAccount, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var checking float64
	if err := tx.QueryRowContext(ctx,
		"SELECT balance FROM checking_account WHERE id = 1").Scan(&checking); err != nil {
		return nil, nil, err
	}
	if checking < amount {
		return nil, nil, &domain.ErrInsufficientFunds{Available: checking, Required: amount}
	}

	now := time.Now().UTC()
	ts := now.Format(timeLayout)
	if _, err := tx.ExecContext(ctx,
		"UPDATE checking_account SET balance = balance - ?, updated_at = ? WHERE id = 1",
		amount, ts); err != nil {
		return nil, nil, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE savings_account SET balance = balance + ?, updated_at = ? WHERE id = 1",
		amount, ts); err != nil {
		return nil, nil, err
	}

	var savings domain.SavingsAccount
	if err := tx.QueryRowContext(ctx,
		"SELECT balance, target FROM savings_account WHERE id = 1").
		Scan(&savings.Balance, &savings.Target); err != nil {
		return nil, nil, err
	}
	savings.UpdatedAt = now

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return &domain.CheckingAccount{Balance: checking - amount, UpdatedAt: now},
		&savings, nil
}

// GetIncomeSchedule returns the income schedule, or ErrNotConfigured
// when it has never been set.
func (s *Store) GetIncomeSchedule(ctx context.Context) (*domain.IncomeSchedule, error) {
	var inc domain.IncomeSchedule
	err := s.db.QueryRowContext(ctx,
		"SELECT amount, first_payday, second_payday FROM income_schedule WHERE id = 1").
		Scan(&inc.Amount, &inc.FirstPayday, &inc.SecondPayday)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotConfigured{Resource: "income schedule"}
	}
	if err != nil {
		return nil, err
	}
	return &inc, nil
}

// UpsertIncomeSchedule creates or replaces the income schedule.
func (s *Store) UpsertIncomeSchedule(ctx context.Context, inc *domain.IncomeSchedule) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO income_schedule (id, amount, first_payday, second_payday)
		VALUES (1, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			amount = excluded.amount,
			first_payday = excluded.first_payday,
			second_payday = excluded.second_payday`,
		inc.Amount, inc.FirstPayday, inc.SecondPayday)
	return err
}

// GetSavingsGoal returns the savings goal, or ErrNotConfigured when it
// has never been set.
func (s *Store) GetSavingsGoal(ctx context.Context) (*domain.SavingsGoal, error) {
	var g domain.SavingsGoal
	err := s.db.QueryRowContext(ctx,
		"SELECT amount_per_paycheck, min_comfort_balance, variable_monthly FROM savings_goal WHERE id = 1").
		Scan(&g.AmountPerPaycheck, &g.MinComfortBalance, &g.VariableMonthly)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotConfigured{Resource: "savings goal"}
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// UpsertSavingsGoal creates or replaces the savings goal.
func (s *Store) UpsertSavingsGoal(ctx context.Context, g *domain.SavingsGoal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO savings_goal (id, amount_per_paycheck, min_comfort_balance, variable_monthly)
		VALUES (1, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			amount_per_paycheck = excluded.amount_per_paycheck,
			min_comfort_balance = excluded.min_comfort_balance,
			variable_monthly = excluded.variable_monthly`,
		g.AmountPerPaycheck, g.MinComfortBalance, g.VariableMonthly)
	return err
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
