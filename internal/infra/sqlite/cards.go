package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jpolanco/cardwise/internal/domain"
)

const cardColumns = "id, name, closing_day, payment_days_after, credit_limit, current_balance, apr, color, active, created_at"

func scanCard(row interface{ Scan(...any) error }) (*domain.CreditCard, error) {
	var c domain.CreditCard
	var created string
	err := row.Scan(&c.ID, &c.Name, &c.ClosingDay, &c.PaymentDaysAfter,
		&c.CreditLimit, &c.CurrentBalance, &c.APR, &c.Color, &c.Active, &created)
	if err != nil {
		return nil, err
	}
	c.CreatedAt, _ = time.Parse(timeLayout, created)
	return &c, nil
}

// ListCards returns all cards, active first, then by name.
func (s *Store) ListCards(ctx context.Context, includeInactive bool) ([]domain.CreditCard, error) {
	query := "SELECT " + cardColumns + " FROM credit_cards"
	if !includeInactive {
		query += " WHERE active = 1"
	}
	query += " ORDER BY active DESC, name"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var cards []domain.CreditCard
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *c)
	}
	return cards, rows.Err()
}

// GetCard returns one card by ID.
func (s *Store) GetCard(ctx context.Context, cardID string) (*domain.CreditCard, error) {
	c, err := scanCard(s.db.QueryRowContext(ctx,
		"SELECT "+cardColumns+" FROM credit_cards WHERE id = ?", cardID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "card", ID: cardID}
	}
	return c, err
}

// CreateCard inserts a new card.
func (s *Store) CreateCard(ctx context.Context, c *domain.CreditCard) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credit_cards (`+cardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.ClosingDay, c.PaymentDaysAfter, c.CreditLimit,
		c.CurrentBalance, c.APR, c.Color, c.Active, c.CreatedAt.Format(timeLayout))
	if isUniqueViolation(err) {
		return &domain.ErrDuplicate{Key: c.ID}
	}
	return err
}

// UpdateCard overwrites a card's mutable fields.
func (s *Store) UpdateCard(ctx context.Context, c *domain.CreditCard) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE credit_cards SET
			name = ?, closing_day = ?, payment_days_after = ?, credit_limit = ?,
			current_balance = ?, apr = ?, color = ?, active = ?
		WHERE id = ?`,
		c.Name, c.ClosingDay, c.PaymentDaysAfter, c.CreditLimit,
		c.CurrentBalance, c.APR, c.Color, c.Active, c.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "card", ID: c.ID}
	}
	return nil
}

// DeleteCard removes a card. Cards referenced by payments or logged
// expenses cannot be deleted; deactivate them instead.
func (s *Store) DeleteCard(ctx context.Context, cardID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var refs int
	err = tx.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM card_payments WHERE card_id = ?)
		     + (SELECT COUNT(*) FROM variable_expenses WHERE card_id = ?)
		     + (SELECT COUNT(*) FROM recommendations WHERE executed_card_id = ?)`,
		cardID, cardID, cardID).Scan(&refs)
	if err != nil {
		return err
	}
	if refs > 0 {
		return &domain.ErrConflict{Message: "card has recorded history; deactivate it instead of deleting"}
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM credit_cards WHERE id = ?", cardID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "card", ID: cardID}
	}
	return tx.Commit()
}

// PayCard atomically records a card payment: card balance down, checking
// balance down, payment row appended.
func (s *Store) PayCard(ctx context.Context, payment *domain.CardPayment) (*domain.PayCardResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var cardBalance float64
	err = tx.QueryRowContext(ctx,
		"SELECT current_balance FROM credit_cards WHERE id = ?", payment.CardID).
		Scan(&cardBalance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "card", ID: payment.CardID}
	}
	if err != nil {
		return nil, err
	}

	var checking float64
	if err := tx.QueryRowContext(ctx,
		"SELECT balance FROM checking_account WHERE id = 1").Scan(&checking); err != nil {
		return nil, err
	}
	if checking < payment.Amount {
		return nil, &domain.ErrInsufficientFunds{Available: checking, Required: payment.Amount}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO card_payments (id, card_id, amount, paid_on, notes)
		VALUES (?, ?, ?, ?, ?)`,
		payment.ID, payment.CardID, payment.Amount,
		payment.PaidOn.Format(dateLayout), payment.Notes); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE credit_cards SET current_balance = current_balance - ? WHERE id = ?",
		payment.Amount, payment.CardID); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE checking_account SET balance = balance - ?, updated_at = ? WHERE id = 1",
		payment.Amount, time.Now().UTC().Format(timeLayout)); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &domain.PayCardResponse{
		Payment:            payment,
		NewCardBalance:     cardBalance - payment.Amount,
		NewCheckingBalance: checking - payment.Amount,
	}, nil
}
