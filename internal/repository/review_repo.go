package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skillshare/backend/internal/apperr"
	"github.com/skillshare/backend/internal/models"
)

type ReviewRepo struct {
	pool *pgxpool.Pool
}

func NewReviewRepo(pool *pgxpool.Pool) *ReviewRepo {
	return &ReviewRepo{pool: pool}
}

func (r *ReviewRepo) CreateTx(ctx context.Context, tx pgx.Tx, rv *models.Review) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO reviews (id, skill_id, reviewer_id, booking_id, stars, comment, is_flagged)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, rv.ID, rv.SkillID, rv.ReviewerID, rv.BookingID, rv.Stars, rv.Comment, rv.IsFlagged).Scan(&rv.CreatedAt)
	if isPgCode(err, pgUniqueViolation) {
		return apperr.Conflict("booking already reviewed")
	}
	return err
}

func (r *ReviewRepo) ListBySkill(ctx context.Context, skillID uuid.UUID) ([]*models.Review, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, skill_id, reviewer_id, booking_id, stars, comment, is_flagged, created_at
		FROM reviews WHERE skill_id = $1 AND NOT is_flagged ORDER BY created_at DESC
	`, skillID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Review
	for rows.Next() {
		var rv models.Review
		if err := rows.Scan(&rv.ID, &rv.SkillID, &rv.ReviewerID, &rv.BookingID, &rv.Stars, &rv.Comment, &rv.IsFlagged, &rv.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &rv)
	}
	return list, rows.Err()
}
