package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/skillshare/backend/internal/apperr"
	"github.com/skillshare/backend/internal/models"
)

// SkillStore is the skill repository used by SkillService.
type SkillStore interface {
	SkillGetter
	SkillLister
	Create(ctx context.Context, s *models.Skill) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// UserGetter loads a user by id.
type UserGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type SkillService struct {
	Skills SkillStore
	Users  UserGetter
	Log    *slog.Logger
}

func NewSkillService(skills SkillStore, users UserGetter, log *slog.Logger) *SkillService {
	if log == nil {
		log = slog.Default()
	}
	return &SkillService{Skills: skills, Users: users, Log: log}
}

type CreateSkillInput struct {
	OwnerID      uuid.UUID
	Title        string
	Description  string
	Category     string
	PriceCredits int
	Lat          float64
	Lng          float64
}

// Create lists a new active skill for an existing owner.
func (s *SkillService) Create(ctx context.Context, in CreateSkillInput) (*models.Skill, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Invalid("title is required")
	}
	cat, ok := models.NormalizeCategory(in.Category)
	if !ok {
		return nil, apperr.Invalid("unknown category %q", in.Category)
	}
	if in.PriceCredits < 0 {
		return nil, apperr.Invalid("price_credits must not be negative")
	}
	if err := validateCoordinates(in.Lat, in.Lng); err != nil {
		return nil, err
	}
	if in.OwnerID == uuid.Nil {
		return nil, apperr.Invalid("owner_id is required")
	}
	if _, err := s.Users.GetByID(ctx, in.OwnerID); err != nil {
		return nil, fmt.Errorf("skill owner: %w", err)
	}

	skill := &models.Skill{
		ID:           uuid.New(),
		OwnerID:      in.OwnerID,
		Title:        title,
		Description:  strings.TrimSpace(in.Description),
		Category:     cat,
		PriceCredits: in.PriceCredits,
		Lat:          in.Lat,
		Lng:          in.Lng,
		IsActive:     true,
	}
	if err := s.Skills.Create(ctx, skill); err != nil {
		return nil, err
	}
	s.Log.Info("skill created", "skill_id", skill.ID, "owner_id", skill.OwnerID, "category", skill.Category)
	return skill, nil
}

func (s *SkillService) Get(ctx context.Context, id uuid.UUID) (*models.Skill, error) {
	return s.Skills.GetByID(ctx, id)
}

// Deactivate hides a skill from search. Only its owner may do this.
func (s *SkillService) Deactivate(ctx context.Context, id, caller uuid.UUID) (*models.Skill, error) {
	skill, err := s.Skills.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if skill.OwnerID != caller {
		return nil, fmt.Errorf("only the owner may deactivate a skill: %w", apperr.ErrAccessDenied)
	}
	if err := s.Skills.Deactivate(ctx, id); err != nil {
		return nil, err
	}
	skill.IsActive = false
	s.Log.Info("skill deactivated", "skill_id", id)
	return skill, nil
}
