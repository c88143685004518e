package services

import (
	"context"
	"errors"
	"maps"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/skillshare/backend/internal/apperr"
	"github.com/skillshare/backend/internal/models"
	"github.com/skillshare/backend/internal/testutil"
)

type mockProjects struct {
	mu         sync.Mutex
	projects   map[uuid.UUID]models.Project
	volunteers map[uuid.UUID]map[uuid.UUID]bool
}

func newMockProjects() *mockProjects {
	return &mockProjects{projects: map[uuid.UUID]models.Project{}, volunteers: map[uuid.UUID]map[uuid.UUID]bool{}}
}

func (m *mockProjects) Snapshot() func() {
	m.mu.Lock()
	saved := make(map[uuid.UUID]map[uuid.UUID]bool, len(m.volunteers))
	for id, v := range m.volunteers {
		saved[id] = maps.Clone(v)
	}
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		m.volunteers = saved
		m.mu.Unlock()
	}
}

func (m *mockProjects) Create(_ context.Context, p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = *p
	return nil
}

func (m *mockProjects) withCount(p models.Project) *models.Project {
	p.CurrentVolunteers = len(m.volunteers[p.ID])
	p.IsFull = p.CurrentVolunteers >= p.MaxVolunteers
	return &p
}

func (m *mockProjects) ListActive(context.Context) ([]*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Project
	for _, p := range m.projects {
		if p.IsActive {
			out = append(out, m.withCount(p))
		}
	}
	return out, nil
}

func (m *mockProjects) GetByIDForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, apperr.NotFound("project")
	}
	return m.withCount(p), nil
}

func (m *mockProjects) AddVolunteerTx(_ context.Context, _ pgx.Tx, projectID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.volunteers[projectID][userID] {
		return apperr.Conflict("already volunteering")
	}
	if m.volunteers[projectID] == nil {
		m.volunteers[projectID] = map[uuid.UUID]bool{}
	}
	m.volunteers[projectID][userID] = true
	return nil
}

func TestProjectService_JoinUntilFull(t *testing.T) {
	store := newMockProjects()
	svc := NewProjectService(testutil.NewPool(store), store, nil)
	ctx := context.Background()

	p, err := svc.Create(ctx, uuid.New(), "Community Garden", "Plant the spring beds", 2)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	first := uuid.New()
	got, err := svc.Join(ctx, p.ID, first)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if got.CurrentVolunteers != 1 || got.IsFull {
		t.Errorf("after first join: %+v", got)
	}

	if _, err := svc.Join(ctx, p.ID, first); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("rejoin: want ErrConflict, got %v", err)
	}

	got, err = svc.Join(ctx, p.ID, uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsFull {
		t.Error("project should be full")
	}

	if _, err := svc.Join(ctx, p.ID, uuid.New()); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("full: want ErrConflict, got %v", err)
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].CurrentVolunteers != 2 {
		t.Errorf("list = %+v", list)
	}
}

func TestProjectService_Validation(t *testing.T) {
	store := newMockProjects()
	svc := NewProjectService(testutil.NewPool(store), store, nil)
	ctx := context.Background()

	var ve *apperr.ValidationError
	if _, err := svc.Create(ctx, uuid.New(), "", "desc", 3); !errors.As(err, &ve) {
		t.Errorf("blank title: %v", err)
	}
	if _, err := svc.Create(ctx, uuid.New(), "Cleanup", "desc", 0); !errors.As(err, &ve) {
		t.Errorf("zero volunteers: %v", err)
	}
	if _, err := svc.Join(ctx, uuid.New(), uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown project: %v", err)
	}
}
