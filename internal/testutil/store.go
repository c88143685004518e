package testutil

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/skillshare/backend/internal/apperr"
	"github.com/skillshare/backend/internal/models"
)

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

type Users struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func NewUsers(users ...*models.User) *Users {
	m := &Users{users: make(map[uuid.UUID]*models.User)}
	for _, u := range users {
		cp := *u
		m.users[u.ID] = &cp
	}
	return m
}

func (m *Users) Snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[uuid.UUID]models.User, len(m.users))
	for id, u := range m.users {
		saved[id] = *u
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.users = make(map[uuid.UUID]*models.User, len(saved))
		for id, u := range saved {
			cp := u
			m.users[id] = &cp
		}
	}
}

func (m *Users) get(id uuid.UUID) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	return u, nil
}

func (m *Users) CreateTx(_ context.Context, _ pgx.Tx, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return apperr.Conflict("email already registered")
		}
	}
	u.Credits = 0
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *Users) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.get(id)
	if err != nil {
		return nil, err
	}
	cp := *u
	return &cp, nil
}

func (m *Users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("user")
}

func (m *Users) GetByIDForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*models.User, error) {
	return m.GetByID(ctx, id)
}

func (m *Users) DeductCredits(_ context.Context, _ pgx.Tx, id uuid.UUID, amount int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.get(id)
	if err != nil {
		return 0, err
	}
	if u.Credits < amount {
		return 0, apperr.ErrInsufficientCredits
	}
	u.Credits -= amount
	return u.Credits, nil
}

func (m *Users) AddCredits(_ context.Context, _ pgx.Tx, id uuid.UUID, amount int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.get(id)
	if err != nil {
		return 0, err
	}
	u.Credits += amount
	return u.Credits, nil
}

func (m *Users) AddKarmaTx(_ context.Context, _ pgx.Tx, id uuid.UUID, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.get(id)
	if err != nil {
		return err
	}
	u.Karma += delta
	return nil
}

// Balance returns the stored credits of id, or -1 when unknown.
func (m *Users) Balance(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return -1
	}
	return u.Credits
}

// SetBalance overwrites the stored credits, bypassing the ledger.
func (m *Users) SetBalance(id uuid.UUID, credits int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.Credits = credits
	}
}

// ---------------------------------------------------------------------------
// Credit transactions
// ---------------------------------------------------------------------------

type Credits struct {
	mu      sync.Mutex
	entries []*models.CreditTransaction
}

func NewCredits() *Credits { return &Credits{} }

func (m *Credits) Snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.entries)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.entries = m.entries[:n]
	}
}

func (m *Credits) CreateTx(_ context.Context, _ pgx.Tx, c *models.CreditTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *Credits) ExistsTx(_ context.Context, _ pgx.Tx, refID uuid.UUID, txType string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.RefID != nil && *e.RefID == refID && e.Type == txType {
			return true, nil
		}
	}
	return false, nil
}

func (m *Credits) ListByUser(_ context.Context, userID uuid.UUID) ([]*models.CreditTransaction, error) {
	return m.ForUser(userID), nil
}

func (m *Credits) SumByUser(_ context.Context, userID uuid.UUID) (int, error) {
	sum := 0
	for _, e := range m.ForUser(userID) {
		sum += e.Amount
	}
	return sum, nil
}

// ForUser returns the user's rows, newest first.
func (m *Credits) ForUser(userID uuid.UUID) []*models.CreditTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.CreditTransaction
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].UserID == userID {
			out = append(out, m.entries[i])
		}
	}
	return out
}

// All returns every row in insertion order.
func (m *Credits) All() []*models.CreditTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.CreditTransaction, len(m.entries))
	copy(out, m.entries)
	return out
}

// ByType returns rows of txType in insertion order.
func (m *Credits) ByType(txType string) []*models.CreditTransaction {
	var out []*models.CreditTransaction
	for _, e := range m.All() {
		if e.Type == txType {
			out = append(out, e)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Skills
// ---------------------------------------------------------------------------

type Skills struct {
	mu     sync.Mutex
	skills map[uuid.UUID]*models.Skill
}

func NewSkills(skills ...*models.Skill) *Skills {
	m := &Skills{skills: make(map[uuid.UUID]*models.Skill)}
	for _, s := range skills {
		cp := *s
		m.skills[s.ID] = &cp
	}
	return m
}

func (m *Skills) Create(_ context.Context, s *models.Skill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.skills[s.ID] = &cp
	return nil
}

func (m *Skills) GetByID(_ context.Context, id uuid.UUID) (*models.Skill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.skills[id]
	if !ok {
		return nil, apperr.NotFound("skill")
	}
	cp := *s
	return &cp, nil
}

func (m *Skills) ListActive(_ context.Context, category string) ([]*models.Skill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Skill
	for _, s := range m.skills {
		if !s.IsActive || (category != "" && s.Category != category) {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Skills) Deactivate(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.skills[id]
	if !ok {
		return apperr.NotFound("skill")
	}
	s.IsActive = false
	return nil
}

// ---------------------------------------------------------------------------
// Bookings
// ---------------------------------------------------------------------------

type Bookings struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*models.Booking
}

func NewBookings() *Bookings {
	return &Bookings{bookings: make(map[uuid.UUID]*models.Booking)}
}

func (m *Bookings) Snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := maps.Clone(m.bookings)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.bookings = saved
	}
}

func (m *Bookings) CreateTx(_ context.Context, _ pgx.Tx, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	m.bookings[b.ID] = &cp
	return nil
}

func (m *Bookings) GetByID(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, apperr.NotFound("booking")
	}
	cp := *b
	return &cp, nil
}

func (m *Bookings) GetByIDForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*models.Booking, error) {
	return m.GetByID(ctx, id)
}

func (m *Bookings) UpdateStatusTx(_ context.Context, _ pgx.Tx, id uuid.UUID, status string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, apperr.NotFound("booking")
	}
	cp := *b
	cp.Status = status
	m.bookings[id] = &cp
	out := cp
	return &out, nil
}

func (m *Bookings) ListByLearner(_ context.Context, learnerID uuid.UUID) ([]*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Booking
	for _, b := range m.bookings {
		if b.LearnerID == learnerID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

// Len returns the number of stored bookings.
func (m *Bookings) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings)
}
