package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/skillshare/backend/internal/apperr"
	"github.com/skillshare/backend/internal/database"
	"github.com/skillshare/backend/internal/ledger"
	"github.com/skillshare/backend/internal/models"
)

// WelcomeMessage is the ledger message for the signup bonus.
const WelcomeMessage = "Welcome bonus! Start learning and sharing skills."

type authError string

func (e authError) Error() string { return string(e) }

// Is lets callers match any auth failure against apperr.ErrUnauthorized.
func (e authError) Is(target error) bool { return target == apperr.ErrUnauthorized }

const (
	ErrInvalidCredentials authError = "invalid credentials"
	ErrInvalidToken       authError = "invalid token"
)

type Service interface {
	Register(ctx context.Context, email, password, name string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	ValidateToken(ctx context.Context, token string) (uuid.UUID, error)
}

type Options struct {
	Secret         string
	TokenTTL       time.Duration
	WelcomeCredits int
}

type service struct {
	db      database.TxBeginner
	users   Users
	ledger  ledger.Service
	secret  []byte
	ttl     time.Duration
	welcome int
}

func NewService(db database.TxBeginner, users Users, l ledger.Service, opts Options) *service {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	return &service{
		db:      db,
		users:   users,
		ledger:  l,
		secret:  []byte(opts.Secret),
		ttl:     opts.TokenTTL,
		welcome: opts.WelcomeCredits,
	}
}

// Ensure service implements Service at compile time.
var _ Service = (*service)(nil)

type claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Register creates the user and grants the welcome bonus through the ledger
// in one transaction.
func (s *service) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" || len(password) < 6 || len(name) < 2 {
		return nil, apperr.Invalid("email, password (min 6) and name (min 2) are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	u := &models.User{ID: uuid.New(), Email: email, PasswordHash: string(hash), Name: name}
	if err := s.users.CreateTx(ctx, tx, u); err != nil {
		return nil, err
	}
	if s.welcome > 0 {
		balance, err := s.ledger.Earn(ctx, tx, u.ID, s.welcome, nil, WelcomeMessage)
		if err != nil {
			return nil, err
		}
		u.Credits = balance
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.issueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) issueToken(u *models.User) (string, error) {
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: u.Email,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString(s.secret)
}

func (s *service) ValidateToken(ctx context.Context, token string) (uuid.UUID, error) {
	tok, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	c, ok := tok.Claims.(*claims)
	if !ok || !tok.Valid {
		return uuid.Nil, ErrInvalidToken
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}
