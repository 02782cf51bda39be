package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jpolanco/cardwise/internal/domain"
)

// ListFixedExpenses returns fixed expenses ordered by due day.
func (s *Store) ListFixedExpenses(ctx context.Context, includeInactive bool) ([]domain.FixedExpense, error) {
	query := "SELECT id, name, amount, due_day, category, active FROM fixed_expenses"
	if !includeInactive {
		query += " WHERE active = 1"
	}
	query += " ORDER BY due_day, name"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.FixedExpense
	for rows.Next() {
		var e domain.FixedExpense
		if err := rows.Scan(&e.ID, &e.Name, &e.Amount, &e.DueDay, &e.Category, &e.Active); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetFixedExpense returns one fixed expense by ID.
func (s *Store) GetFixedExpense(ctx context.Context, expenseID string) (*domain.FixedExpense, error) {
	var e domain.FixedExpense
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, amount, due_day, category, active FROM fixed_expenses WHERE id = ?",
		expenseID).Scan(&e.ID, &e.Name, &e.Amount, &e.DueDay, &e.Category, &e.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "fixed expense", ID: expenseID}
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateFixedExpense inserts a new fixed expense.
func (s *Store) CreateFixedExpense(ctx context.Context, e *domain.FixedExpense) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fixed_expenses (id, name, amount, due_day, category, active)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Amount, e.DueDay, e.Category, e.Active)
	if isUniqueViolation(err) {
		return &domain.ErrDuplicate{Key: e.ID}
	}
	return err
}

// UpdateFixedExpense overwrites a fixed expense.
func (s *Store) UpdateFixedExpense(ctx context.Context, e *domain.FixedExpense) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE fixed_expenses SET name = ?, amount = ?, due_day = ?, category = ?, active = ?
		WHERE id = ?`,
		e.Name, e.Amount, e.DueDay, e.Category, e.Active, e.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "fixed expense", ID: e.ID}
	}
	return nil
}

// ListExpensePayments returns expense payments made on or after since.
func (s *Store) ListExpensePayments(ctx context.Context, since time.Time) ([]domain.ExpensePayment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, expense_id, amount, paid_on, month, year, notes
		FROM expense_payments WHERE paid_on >= ? ORDER BY paid_on DESC`,
		since.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.ExpensePayment
	for rows.Next() {
		var p domain.ExpensePayment
		var paidOn string
		if err := rows.Scan(&p.ID, &p.ExpenseID, &p.Amount, &paidOn, &p.Month, &p.Year, &p.Notes); err != nil {
			return nil, err
		}
		p.PaidOn, _ = time.Parse(dateLayout, paidOn)
		out = append(out, p)
	}
	return out, rows.Err()
}

// PayFixedExpense atomically appends a payment for one month and settles
// it: cash debits checking, card adds to the card's balance (unless the
// charge is already reflected there). A second payment for the same
// month is rejected as a duplicate.
func (s *Store) PayFixedExpense(ctx context.Context, payment *domain.ExpensePayment, method, cardID string, adjustBalance bool) (*domain.PayExpenseResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM fixed_expenses WHERE id = ?", payment.ExpenseID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, &domain.ErrNotFound{Resource: "fixed expense", ID: payment.ExpenseID}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO expense_payments (id, expense_id, amount, paid_on, month, year, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		payment.ID, payment.ExpenseID, payment.Amount,
		payment.PaidOn.Format(dateLayout), payment.Month, payment.Year, payment.Notes)
	if isUniqueViolation(err) {
		return nil, &domain.ErrDuplicate{
			Key: fmt.Sprintf("%s-%04d-%02d", payment.ExpenseID, payment.Year, payment.Month),
		}
	}
	if err != nil {
		return nil, err
	}

	resp := &domain.PayExpenseResponse{Payment: payment}

	switch method {
	case domain.PayMethodCard:
		if adjustBalance {
			var balance float64
			err = tx.QueryRowContext(ctx,
				"SELECT current_balance FROM credit_cards WHERE id = ?", cardID).Scan(&balance)
			if errors.Is(err, sql.ErrNoRows) {
				return nil, &domain.ErrNotFound{Resource: "card", ID: cardID}
			}
			if err != nil {
				return nil, err
			}
			if _, err := tx.ExecContext(ctx,
				"UPDATE credit_cards SET current_balance = current_balance + ? WHERE id = ?",
				payment.Amount, cardID); err != nil {
				return nil, err
			}
			resp.CardUpdated = true
			resp.NewCardBalance = balance + payment.Amount
		}
	default: // cash
		var checking float64
		if err := tx.QueryRowContext(ctx,
			"SELECT balance FROM checking_account WHERE id = 1").Scan(&checking); err != nil {
			return nil, err
		}
		if checking < payment.Amount {
			return nil, &domain.ErrInsufficientFunds{Available: checking, Required: payment.Amount}
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE checking_account SET balance = balance - ?, updated_at = ? WHERE id = 1",
			payment.Amount, time.Now().UTC().Format(timeLayout)); err != nil {
			return nil, err
		}
		resp.CheckingUpdated = true
		resp.NewCheckingBalance = checking - payment.Amount
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return resp, nil
}

// ListVariableExpenses returns variable expenses spent on or after since.
func (s *Store) ListVariableExpenses(ctx context.Context, since time.Time) ([]domain.VariableExpense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, amount, description, spent_on, card_id
		FROM variable_expenses WHERE spent_on >= ? ORDER BY spent_on DESC`,
		since.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.VariableExpense
	for rows.Next() {
		var e domain.VariableExpense
		var spent string
		if err := rows.Scan(&e.ID, &e.Category, &e.Amount, &e.Description, &spent, &e.CardID); err != nil {
			return nil, err
		}
		e.SpentOn, _ = time.Parse(dateLayout, spent)
		out = append(out, e)
	}
	return out, rows.Err()
}

// CreateVariableExpense appends a variable expense. Card spending also
// bumps the card's balance in the same transaction; cash spending is a
// log entry only.
func (s *Store) CreateVariableExpense(ctx context.Context, e *domain.VariableExpense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if e.CardID != "" {
		res, err := tx.ExecContext(ctx,
			"UPDATE credit_cards SET current_balance = current_balance + ? WHERE id = ?",
			e.Amount, e.CardID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &domain.ErrNotFound{Resource: "card", ID: e.CardID}
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO variable_expenses (id, category, amount, description, spent_on, card_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Category, e.Amount, e.Description,
		e.SpentOn.Format(dateLayout), e.CardID); err != nil {
		return err
	}

	return tx.Commit()
}

// ListBonusEvents returns bonus events, soonest first.
func (s *Store) ListBonusEvents(ctx context.Context, includeReceived bool) ([]domain.BonusEvent, error) {
	query := "SELECT id, amount, expected_on, description, received FROM bonus_events"
	if !includeReceived {
		query += " WHERE received = 0"
	}
	query += " ORDER BY expected_on"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.BonusEvent
	for rows.Next() {
		var b domain.BonusEvent
		var expected string
		if err := rows.Scan(&b.ID, &b.Amount, &expected, &b.Description, &b.Received); err != nil {
			return nil, err
		}
		b.ExpectedOn, _ = time.Parse(dateLayout, expected)
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateBonusEvent inserts a new expected bonus.
func (s *Store) CreateBonusEvent(ctx context.Context, b *domain.BonusEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bonus_events (id, amount, expected_on, description, received)
		VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.Amount, b.ExpectedOn.Format(dateLayout), b.Description, b.Received)
	return err
}

// MarkBonusReceived atomically flags a bonus as received and credits its
// amount to checking. Receiving twice is a conflict.
func (s *Store) MarkBonusReceived(ctx context.Context, bonusID string) (*domain.BonusEvent, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var b domain.BonusEvent
	var expected string
	err = tx.QueryRowContext(ctx,
		"SELECT id, amount, expected_on, description, received FROM bonus_events WHERE id = ?",
		bonusID).Scan(&b.ID, &b.Amount, &expected, &b.Description, &b.Received)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "bonus", ID: bonusID}
	}
	if err != nil {
		return nil, err
	}
	if b.Received {
		return nil, &domain.ErrConflict{Message: "bonus already received"}
	}
	b.ExpectedOn, _ = time.Parse(dateLayout, expected)

	if _, err := tx.ExecContext(ctx,
		"UPDATE bonus_events SET received = 1 WHERE id = ?", bonusID); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE checking_account SET balance = balance + ?, updated_at = ? WHERE id = 1",
		b.Amount, time.Now().UTC().Format(timeLayout)); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	b.Received = true
	return &b, nil
}
