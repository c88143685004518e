package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skillshare/backend/internal/apperr"
	"github.com/skillshare/backend/internal/models"
)

const projectSelect = `
	SELECT p.id, p.creator_id, p.title, p.description, p.max_volunteers, p.is_active, p.created_at,
	       (SELECT COUNT(*) FROM project_volunteers v WHERE v.project_id = p.id)::int
	FROM projects p`

type ProjectRepo struct {
	pool *pgxpool.Pool
}

func NewProjectRepo(pool *pgxpool.Pool) *ProjectRepo {
	return &ProjectRepo{pool: pool}
}

func scanProject(row scanner) (*models.Project, error) {
	var p models.Project
	if err := row.Scan(&p.ID, &p.CreatorID, &p.Title, &p.Description, &p.MaxVolunteers, &p.IsActive, &p.CreatedAt, &p.CurrentVolunteers); err != nil {
		return nil, err
	}
	p.IsFull = p.CurrentVolunteers >= p.MaxVolunteers
	return &p, nil
}

func (r *ProjectRepo) Create(ctx context.Context, p *models.Project) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO projects (id, creator_id, title, description, max_volunteers, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, p.ID, p.CreatorID, p.Title, p.Description, p.MaxVolunteers, p.IsActive).Scan(&p.CreatedAt)
	if isPgCode(err, pgForeignKeyViolation) {
		return apperr.NotFound("creator")
	}
	return err
}

func (r *ProjectRepo) ListActive(ctx context.Context) ([]*models.Project, error) {
	rows, err := r.pool.Query(ctx, projectSelect+` WHERE p.is_active ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// GetByIDForUpdate locks the project row so volunteer counts are stable. Call within a transaction.
func (r *ProjectRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Project, error) {
	p, err := scanProject(tx.QueryRow(ctx, projectSelect+` WHERE p.id = $1 FOR UPDATE OF p`, id))
	return p, notFound(err, "project")
}

func (r *ProjectRepo) AddVolunteerTx(ctx context.Context, tx pgx.Tx, projectID, userID uuid.UUID) error {
	_, err := tx.Exec(ctx, `INSERT INTO project_volunteers (project_id, user_id) VALUES ($1, $2)`, projectID, userID)
	switch {
	case isPgCode(err, pgUniqueViolation):
		return apperr.Conflict("already volunteering")
	case isPgCode(err, pgForeignKeyViolation):
		return apperr.NotFound("user")
	}
	return err
}
