package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/skillshare/backend/internal/apperr"
	"github.com/skillshare/backend/internal/models"
	"github.com/skillshare/backend/internal/testutil"
)

func newSkillService(t *testing.T) (*SkillService, uuid.UUID) {
	t.Helper()
	owner := uuid.New()
	users := testutil.NewUsers(&models.User{ID: owner, Email: "sarah@example.com", Name: "Sarah"})
	return NewSkillService(testutil.NewSkills(), users, nil), owner
}

func validSkillInput(owner uuid.UUID) CreateSkillInput {
	return CreateSkillInput{
		OwnerID:      owner,
		Title:        "Python Programming",
		Description:  "Learn Python from scratch",
		Category:     "tech",
		PriceCredits: 20,
		Lat:          40.7128,
		Lng:          -74.0060,
	}
}

func TestSkillService_CreateAndGet(t *testing.T) {
	svc, owner := newSkillService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validSkillInput(owner))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Category != models.CategoryTech {
		t.Errorf("category = %q, want TECH", created.Category)
	}
	if !created.IsActive {
		t.Error("new skill should be active")
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != created.Title || got.OwnerID != owner || got.PriceCredits != 20 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestSkillService_CreateRejects(t *testing.T) {
	svc, owner := newSkillService(t)
	tests := []struct {
		name    string
		mutate  func(*CreateSkillInput)
		wantErr error
	}{
		{"blank title", func(in *CreateSkillInput) { in.Title = "  " }, nil},
		{"unknown category", func(in *CreateSkillInput) { in.Category = "JUGGLING" }, nil},
		{"negative price", func(in *CreateSkillInput) { in.PriceCredits = -1 }, nil},
		{"zero latitude", func(in *CreateSkillInput) { in.Lat = 0 }, nil},
		{"longitude out of range", func(in *CreateSkillInput) { in.Lng = 200 }, nil},
		{"missing owner", func(in *CreateSkillInput) { in.OwnerID = uuid.Nil }, nil},
		{"unknown owner", func(in *CreateSkillInput) { in.OwnerID = uuid.New() }, apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validSkillInput(owner)
			tt.mutate(&in)
			_, err := svc.Create(context.Background(), in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("want %v, got %v", tt.wantErr, err)
				}
				return
			}
			var ve *apperr.ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("want ValidationError, got %v", err)
			}
		})
	}
}

func TestSkillService_Deactivate(t *testing.T) {
	svc, owner := newSkillService(t)
	ctx := context.Background()
	skill, err := svc.Create(ctx, validSkillInput(owner))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Deactivate(ctx, skill.ID, uuid.New()); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Errorf("stranger: want ErrAccessDenied, got %v", err)
	}
	got, err := svc.Deactivate(ctx, skill.ID, owner)
	if err != nil {
		t.Fatalf("owner Deactivate: %v", err)
	}
	if got.IsActive {
		t.Error("skill still active")
	}
	active, _ := svc.Skills.ListActive(ctx, "")
	if len(active) != 0 {
		t.Errorf("active skills = %d, want 0", len(active))
	}
	if _, err := svc.Deactivate(ctx, uuid.New(), owner); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown skill: want ErrNotFound, got %v", err)
	}
}
