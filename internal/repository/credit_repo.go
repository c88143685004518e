package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skillshare/backend/internal/models"
)

// CreditRepo reads and appends credit_transactions. Rows are never updated or deleted.
type CreditRepo struct {
	pool *pgxpool.Pool
}

func NewCreditRepo(pool *pgxpool.Pool) *CreditRepo {
	return &CreditRepo{pool: pool}
}

// CreateTx appends a ledger row inside the given transaction.
func (r *CreditRepo) CreateTx(ctx context.Context, tx pgx.Tx, c *models.CreditTransaction) error {
	return tx.QueryRow(ctx, `
		INSERT INTO credit_transactions (id, user_id, amount, type, ref_id, message)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, c.ID, c.UserID, c.Amount, c.Type, c.RefID, c.Message).Scan(&c.CreatedAt)
}

// ExistsTx reports whether a row of the given type references refID.
func (r *CreditRepo) ExistsTx(ctx context.Context, tx pgx.Tx, refID uuid.UUID, txType string) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM credit_transactions WHERE ref_id = $1 AND type = $2)
	`, refID, txType).Scan(&exists)
	return exists, err
}

func (r *CreditRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.CreditTransaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, amount, type, ref_id, message, created_at
		FROM credit_transactions WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.CreditTransaction
	for rows.Next() {
		var c models.CreditTransaction
		if err := rows.Scan(&c.ID, &c.UserID, &c.Amount, &c.Type, &c.RefID, &c.Message, &c.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}

// SumByUser returns the signed sum of the user's ledger rows.
func (r *CreditRepo) SumByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var sum int
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)::int FROM credit_transactions WHERE user_id = $1
	`, userID).Scan(&sum)
	return sum, err
}
