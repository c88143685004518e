// Package seed loads demo users and skills from a TOML fixture.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/skillshare/backend/internal/apperr"
	"github.com/skillshare/backend/internal/database"
	"github.com/skillshare/backend/internal/ledger"
	"github.com/skillshare/backend/internal/models"
)

// SeedMessage is the ledger message for fixture balances.
const SeedMessage = "Demo seed balance"

//go:embed demo.toml
var defaultFixture []byte

type Fixture struct {
	Users  []UserFixture  `toml:"users"`
	Skills []SkillFixture `toml:"skills"`
}

type UserFixture struct {
	Email    string `toml:"email"`
	Name     string `toml:"name"`
	Password string `toml:"password"`
	Credits  int    `toml:"credits"`
	Karma    int    `toml:"karma"`
	Verified bool   `toml:"verified"`
}

type SkillFixture struct {
	Owner        string  `toml:"owner"`
	Title        string  `toml:"title"`
	Description  string  `toml:"description"`
	Category     string  `toml:"category"`
	PriceCredits int     `toml:"price_credits"`
	Lat          float64 `toml:"lat"`
	Lng          float64 `toml:"lng"`
	AvgRating    float64 `toml:"avg_rating"`
}

// Default returns the embedded demo fixture.
func Default() (*Fixture, error) {
	return Parse(bytes.NewReader(defaultFixture))
}

// Load reads a fixture file, or the embedded demo fixture when path is empty.
func Load(path string) (*Fixture, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes and checks a fixture. Every skill owner must be one of the
// fixture's users.
func Parse(r io.Reader) (*Fixture, error) {
	var f Fixture
	md, err := toml.NewDecoder(r).Decode(&f)
	if err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, apperr.Invalid("unknown fixture key %q", undecoded[0].String())
	}
	emails := make(map[string]bool, len(f.Users))
	for _, u := range f.Users {
		key := strings.ToLower(u.Email)
		if key == "" || emails[key] {
			return nil, apperr.Invalid("fixture user email %q is empty or repeated", u.Email)
		}
		if u.Credits < 0 {
			return nil, apperr.Invalid("fixture user %s has negative credits", u.Email)
		}
		emails[key] = true
	}
	for i, s := range f.Skills {
		if !emails[strings.ToLower(s.Owner)] {
			return nil, apperr.Invalid("skill %q owner %q is not a fixture user", s.Title, s.Owner)
		}
		cat, ok := models.NormalizeCategory(s.Category)
		if !ok {
			return nil, apperr.Invalid("skill %q has unknown category %q", s.Title, s.Category)
		}
		f.Skills[i].Category = cat
	}
	return &f, nil
}

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	CreateTx(ctx context.Context, tx pgx.Tx, u *models.User) error
}

type SkillStore interface {
	Create(ctx context.Context, s *models.Skill) error
}

type Seeder struct {
	DB     database.TxBeginner
	Users  UserStore
	Skills SkillStore
	Ledger ledger.Service
	Log    *slog.Logger
}

type Result struct {
	UsersCreated  int
	UsersSkipped  int
	SkillsCreated int
}

// Run creates the fixture's users with their balances granted through the
// ledger, then the skills of the users it created. Users that already exist
// are left untouched together with their skills, so Run can be repeated.
func (s *Seeder) Run(ctx context.Context, f *Fixture) (*Result, error) {
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	res := &Result{}
	owners := make(map[string]uuid.UUID)
	for _, uf := range f.Users {
		existing, err := s.Users.GetByEmail(ctx, uf.Email)
		switch {
		case err == nil:
			log.Info("seed user exists, skipping", "email", existing.Email)
			res.UsersSkipped++
			continue
		case !errors.Is(err, apperr.ErrNotFound):
			return res, err
		}
		u, err := s.createUser(ctx, uf)
		if err != nil {
			return res, fmt.Errorf("seed user %s: %w", uf.Email, err)
		}
		owners[strings.ToLower(uf.Email)] = u.ID
		res.UsersCreated++
		log.Info("seed user created", "email", u.Email, "credits", uf.Credits)
	}

	for _, sf := range f.Skills {
		ownerID, ok := owners[strings.ToLower(sf.Owner)]
		if !ok {
			continue
		}
		skill := &models.Skill{
			ID:           uuid.New(),
			OwnerID:      ownerID,
			Title:        sf.Title,
			Description:  sf.Description,
			Category:     sf.Category,
			PriceCredits: sf.PriceCredits,
			Lat:          sf.Lat,
			Lng:          sf.Lng,
			AvgRating:    sf.AvgRating,
			IsActive:     true,
		}
		if err := s.Skills.Create(ctx, skill); err != nil {
			return res, fmt.Errorf("seed skill %q: %w", sf.Title, err)
		}
		res.SkillsCreated++
	}
	return res, nil
}

func (s *Seeder) createUser(ctx context.Context, uf UserFixture) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(uf.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(uf.Email),
		PasswordHash: string(hash),
		Name:         uf.Name,
		Karma:        uf.Karma,
		IsIDVerified: uf.Verified,
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.Users.CreateTx(ctx, tx, u); err != nil {
		return nil, err
	}
	if uf.Credits > 0 {
		if u.Credits, err = s.Ledger.Earn(ctx, tx, u.ID, uf.Credits, nil, SeedMessage); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return u, nil
}
