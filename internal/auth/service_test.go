package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/skillshare/backend/internal/apperr"
	"github.com/skillshare/backend/internal/ledger"
	"github.com/skillshare/backend/internal/models"
	"github.com/skillshare/backend/internal/testutil"
)

func newTestService(t *testing.T) (*service, *testutil.Users, *testutil.Credits) {
	t.Helper()
	users := testutil.NewUsers()
	credits := testutil.NewCredits()
	pool := testutil.NewPool(users, credits)
	l := ledger.NewService(pool, users, credits)
	return NewService(pool, users, l, Options{Secret: "test-secret", WelcomeCredits: 100}), users, credits
}

func TestRegister_GrantsWelcomeBonus(t *testing.T) {
	svc, users, credits := newTestService(t)

	u, err := svc.Register(context.Background(), " Sarah@Example.com ", "secret1", "Sarah")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Email != "sarah@example.com" {
		t.Errorf("email not normalised: %q", u.Email)
	}
	if u.Credits != 100 || users.Balance(u.ID) != 100 {
		t.Errorf("credits = %d (stored %d), want 100", u.Credits, users.Balance(u.ID))
	}
	rows := credits.ForUser(u.ID)
	if len(rows) != 1 || rows[0].Type != models.CreditEarned || rows[0].Amount != 100 || rows[0].Message != WelcomeMessage {
		t.Errorf("unexpected welcome rows %+v", rows)
	}
	if u.PasswordHash == "secret1" || u.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, credits := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Register(ctx, "a@example.com", "secret1", "Alice"); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Register(ctx, "A@example.com", "secret2", "Alice Again")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if n := len(credits.All()); n != 1 {
		t.Errorf("ledger rows = %d, want only the first welcome bonus", n)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	var ve *apperr.ValidationError
	if _, err := svc.Register(context.Background(), "a@example.com", "123", "Al"); !errors.As(err, &ve) {
		t.Errorf("short password: got %v", err)
	}
	if _, err := svc.Register(context.Background(), "a@example.com", "123456", "A"); !errors.As(err, &ve) {
		t.Errorf("short name: got %v", err)
	}
}

func TestLoginAndValidateToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	reg, err := svc.Register(ctx, "bob@example.com", "hunter22", "Bob")
	if err != nil {
		t.Fatal(err)
	}

	u, token, err := svc.Login(ctx, "bob@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if u.ID != reg.ID || token == "" {
		t.Fatalf("unexpected login result %v %q", u.ID, token)
	}
	id, err := svc.ValidateToken(ctx, token)
	if err != nil || id != reg.ID {
		t.Fatalf("ValidateToken = %v, %v", id, err)
	}

	if _, _, err := svc.Login(ctx, "bob@example.com", "wrong"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("wrong password: got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "hunter22"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: got %v", err)
	}
}

func TestValidateToken_Rejects(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.ValidateToken(ctx, "garbage"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("garbage token: got %v", err)
	}

	other := NewService(nil, nil, nil, Options{Secret: "other-secret"})
	tok, err := other.issueToken(&models.User{ID: uuid.New(), Email: "x@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateToken(ctx, tok); err == nil {
		t.Error("token signed with another secret must be rejected")
	}

	expired := NewService(nil, nil, nil, Options{Secret: "test-secret", TokenTTL: time.Nanosecond})
	tok, _ = expired.issueToken(&models.User{ID: uuid.New()})
	time.Sleep(time.Millisecond)
	if _, err := svc.ValidateToken(ctx, tok); err == nil {
		t.Error("expired token must be rejected")
	}
}
