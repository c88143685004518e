package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/skillshare/backend/internal/apperr"
	"github.com/skillshare/backend/internal/database"
	"github.com/skillshare/backend/internal/models"
)

type ProjectStore interface {
	Create(ctx context.Context, p *models.Project) error
	ListActive(ctx context.Context) ([]*models.Project, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Project, error)
	AddVolunteerTx(ctx context.Context, tx pgx.Tx, projectID, userID uuid.UUID) error
}

// ProjectService runs community volunteer projects.
type ProjectService struct {
	DB       database.TxBeginner
	Projects ProjectStore
	Log      *slog.Logger
}

func NewProjectService(db database.TxBeginner, projects ProjectStore, log *slog.Logger) *ProjectService {
	if log == nil {
		log = slog.Default()
	}
	return &ProjectService{DB: db, Projects: projects, Log: log}
}

func (s *ProjectService) Create(ctx context.Context, creatorID uuid.UUID, title, description string, maxVolunteers int) (*models.Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.Invalid("title is required")
	}
	if maxVolunteers < 1 {
		return nil, apperr.Invalid("max_volunteers must be at least 1")
	}
	p := &models.Project{
		ID:            uuid.New(),
		CreatorID:     creatorID,
		Title:         title,
		Description:   strings.TrimSpace(description),
		MaxVolunteers: maxVolunteers,
		IsActive:      true,
	}
	if err := s.Projects.Create(ctx, p); err != nil {
		return nil, err
	}
	s.Log.Info("project created", "project_id", p.ID, "creator_id", creatorID)
	return p, nil
}

func (s *ProjectService) List(ctx context.Context) ([]*models.Project, error) {
	list, err := s.Projects.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*models.Project{}
	}
	return list, nil
}

// Join adds userID as a volunteer. The project row is locked so two joins
// cannot both take the last place.
func (s *ProjectService) Join(ctx context.Context, projectID, userID uuid.UUID) (*models.Project, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := s.Projects.GetByIDForUpdate(ctx, tx, projectID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, apperr.Invalid("project is no longer active")
	}
	if p.IsFull {
		return nil, apperr.Conflict("project is full")
	}
	if err := s.Projects.AddVolunteerTx(ctx, tx, projectID, userID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	p.CurrentVolunteers++
	p.IsFull = p.CurrentVolunteers >= p.MaxVolunteers
	s.Log.Info("volunteer joined project", "project_id", projectID, "user_id", userID)
	return p, nil
}
