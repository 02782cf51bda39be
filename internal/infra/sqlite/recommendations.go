package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jpolanco/cardwise/internal/domain"
)

// SaveRecommendation persists a freshly computed recommendation. The
// ranking is stored as a JSON document: it is an immutable snapshot of
// the scoring at creation time, never queried field-by-field.
func (s *Store) SaveRecommendation(ctx context.Context, rec *domain.PurchaseRecommendation) error {
	ranking, err := json.Marshal(rec.Ranking)
	if err != nil {
		return err
	}
	affordability, err := json.Marshal(rec.Affordability)
	if err != nil {
		return err
	}
	plan := ""
	if rec.Plan != nil {
		raw, err := json.Marshal(rec.Plan)
		if err != nil {
			return err
		}
		plan = string(raw)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO recommendations (id, amount, description, purchase_date, status, ranking, affordability, plan, created_at, executed_at, executed_card_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, '')`,
		rec.ID, rec.Amount, rec.Description, rec.PurchaseDate.Format(dateLayout),
		rec.Status, string(ranking), string(affordability), plan, rec.CreatedAt.Format(timeLayout))
	return err
}

func scanRecommendation(row interface{ Scan(...any) error }) (*domain.PurchaseRecommendation, error) {
	var rec domain.PurchaseRecommendation
	var purchaseDate, created, ranking, affordability, plan string
	var executed sql.NullString
	err := row.Scan(&rec.ID, &rec.Amount, &rec.Description, &purchaseDate,
		&rec.Status, &ranking, &affordability, &plan, &created, &executed, &rec.ExecutedCard)
	if err != nil {
		return nil, err
	}
	rec.PurchaseDate, _ = time.Parse(dateLayout, purchaseDate)
	rec.CreatedAt, _ = time.Parse(timeLayout, created)
	if executed.Valid {
		if t, err := time.Parse(timeLayout, executed.String); err == nil {
			rec.ExecutedAt = &t
		}
	}
	if err := json.Unmarshal([]byte(ranking), &rec.Ranking); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(affordability), &rec.Affordability); err != nil {
		return nil, err
	}
	if plan != "" {
		rec.Plan = &domain.PaymentPlan{}
		if err := json.Unmarshal([]byte(plan), rec.Plan); err != nil {
			return nil, err
		}
	}
	return &rec, nil
}

const recColumns = "id, amount, description, purchase_date, status, ranking, affordability, plan, created_at, executed_at, executed_card_id"

// GetRecommendation returns one recommendation by ID.
func (s *Store) GetRecommendation(ctx context.Context, recID string) (*domain.PurchaseRecommendation, error) {
	rec, err := scanRecommendation(s.db.QueryRowContext(ctx,
		"SELECT "+recColumns+" FROM recommendations WHERE id = ?", recID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "recommendation", ID: recID}
	}
	return rec, err
}

// ListRecommendations returns recommendations newest first, optionally
// filtered by status. limit <= 0 means no limit.
func (s *Store) ListRecommendations(ctx context.Context, status string, limit int) ([]domain.PurchaseRecommendation, error) {
	query := "SELECT " + recColumns + " FROM recommendations"
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.PurchaseRecommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// ExecuteRecommendation atomically marks a pending recommendation as
// executed and charges the purchase to the chosen card.
func (s *Store) ExecuteRecommendation(ctx context.Context, recID, cardID string, executedAt time.Time) (*domain.PurchaseRecommendation, *domain.CreditCard, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rec, err := scanRecommendation(tx.QueryRowContext(ctx,
		"SELECT "+recColumns+" FROM recommendations WHERE id = ?", recID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, &domain.ErrNotFound{Resource: "recommendation", ID: recID}
	}
	if err != nil {
		return nil, nil, err
	}
	if rec.Status != domain.RecommendationPending {
		return nil, nil, &domain.ErrConflict{Message: "recommendation is " + rec.Status + ", only pending ones can be executed"}
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE credit_cards SET current_balance = current_balance + ? WHERE id = ? AND active = 1",
		rec.Amount, cardID)
	if err != nil {
		return nil, nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil, &domain.ErrNotFound{Resource: "card", ID: cardID}
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE recommendations SET status = ?, executed_at = ?, executed_card_id = ? WHERE id = ?",
		domain.RecommendationExecuted, executedAt.Format(timeLayout), cardID, recID); err != nil {
		return nil, nil, err
	}

	// The executed purchase becomes part of the spending history.
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO variable_expenses (id, category, amount, description, spent_on, card_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), "recommendation", rec.Amount, rec.Description,
		executedAt.Format(dateLayout), cardID); err != nil {
		return nil, nil, err
	}

	card, err := scanCard(tx.QueryRowContext(ctx,
		"SELECT "+cardColumns+" FROM credit_cards WHERE id = ?", cardID))
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	rec.Status = domain.RecommendationExecuted
	rec.ExecutedAt = &executedAt
	rec.ExecutedCard = cardID
	return rec, card, nil
}

// CancelRecommendation marks a pending recommendation as cancelled.
func (s *Store) CancelRecommendation(ctx context.Context, recID string) (*domain.PurchaseRecommendation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rec, err := scanRecommendation(tx.QueryRowContext(ctx,
		"SELECT "+recColumns+" FROM recommendations WHERE id = ?", recID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "recommendation", ID: recID}
	}
	if err != nil {
		return nil, err
	}
	if rec.Status != domain.RecommendationPending {
		return nil, &domain.ErrConflict{Message: "recommendation is " + rec.Status + ", only pending ones can be cancelled"}
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE recommendations SET status = ? WHERE id = ?",
		domain.RecommendationCancelled, recID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	rec.Status = domain.RecommendationCancelled
	return rec, nil
}
