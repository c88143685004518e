package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skillshare/backend/internal/apperr"
	"github.com/skillshare/backend/internal/models"
)

const skillColumns = `id, owner_id, title, description, category, price_credits, lat, lng, avg_rating, is_active, created_at, updated_at`

type SkillRepo struct {
	pool *pgxpool.Pool
}

func NewSkillRepo(pool *pgxpool.Pool) *SkillRepo {
	return &SkillRepo{pool: pool}
}

func scanSkill(row scanner) (*models.Skill, error) {
	var s models.Skill
	err := row.Scan(&s.ID, &s.OwnerID, &s.Title, &s.Description, &s.Category, &s.PriceCredits,
		&s.Lat, &s.Lng, &s.AvgRating, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SkillRepo) Create(ctx context.Context, s *models.Skill) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO skills (id, owner_id, title, description, category, price_credits, lat, lng, avg_rating, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, s.ID, s.OwnerID, s.Title, s.Description, s.Category, s.PriceCredits, s.Lat, s.Lng, s.AvgRating, s.IsActive).Scan(&s.CreatedAt, &s.UpdatedAt)
	if isPgCode(err, pgForeignKeyViolation) {
		return apperr.NotFound("owner")
	}
	return err
}

func (r *SkillRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Skill, error) {
	s, err := scanSkill(r.pool.QueryRow(ctx, `SELECT `+skillColumns+` FROM skills WHERE id = $1`, id))
	return s, notFound(err, "skill")
}

// ListActive returns active skills, newest first. An empty category matches all.
func (r *SkillRepo) ListActive(ctx context.Context, category string) ([]*models.Skill, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+skillColumns+` FROM skills
		WHERE is_active AND ($1 = '' OR category = $1)
		ORDER BY created_at DESC
	`, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Skill
	for rows.Next() {
		s, err := scanSkill(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (r *SkillRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE skills SET is_active = FALSE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("skill")
	}
	return nil
}

// RecalculateRating sets avg_rating from the skill's reviews and returns it.
func (r *SkillRepo) RecalculateRating(ctx context.Context, id uuid.UUID) (float64, error) {
	var avg float64
	err := r.pool.QueryRow(ctx, `
		UPDATE skills
		SET avg_rating = COALESCE((SELECT AVG(stars)::float8 FROM reviews WHERE skill_id = $1 AND NOT is_flagged), 0),
		    updated_at = now()
		WHERE id = $1
		RETURNING avg_rating
	`, id).Scan(&avg)
	return avg, notFound(err, "skill")
}
