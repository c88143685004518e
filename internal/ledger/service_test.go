package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/skillshare/backend/internal/apperr"
	"github.com/skillshare/backend/internal/models"
	"github.com/skillshare/backend/internal/testutil"
)

func user(id uuid.UUID, credits int) *models.User {
	return &models.User{ID: id, Email: id.String() + "@example.com", Credits: credits}
}

// seedLedger gives each user an opening EARNED row matching their balance so
// stored balance == ledger sum from the start.
func seedLedger(t *testing.T, credits *testutil.Credits, users ...*models.User) {
	t.Helper()
	for _, u := range users {
		if err := credits.CreateTx(context.Background(), nil, &models.CreditTransaction{
			ID: uuid.New(), UserID: u.ID, Amount: u.Credits, Type: models.CreditEarned, Message: "opening",
		}); err != nil {
			t.Fatal(err)
		}
	}
}

func newTestService(users ...*models.User) (Service, *testutil.Users, *testutil.Credits, *testutil.Pool) {
	u := testutil.NewUsers(users...)
	c := testutil.NewCredits()
	pool := testutil.NewPool(u, c)
	return NewService(pool, u, c), u, c, pool
}

// ---------------------------------------------------------------------------
// Spend
// ---------------------------------------------------------------------------

func TestSpend(t *testing.T) {
	ctx := context.Background()
	learner := uuid.New()
	ref := uuid.New()

	t.Run("sufficient balance", func(t *testing.T) {
		svc, users, credits, _ := newTestService(user(learner, 100))
		bal, err := svc.Spend(ctx, &testutil.Tx{}, learner, 30, &ref, BookingMessage("Guitar"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if bal != 70 || users.Balance(learner) != 70 {
			t.Errorf("balance = %d (stored %d), want 70", bal, users.Balance(learner))
		}
		spent := credits.ByType(models.CreditSpent)
		if len(spent) != 1 {
			t.Fatalf("expected 1 SPENT row, got %d", len(spent))
		}
		if spent[0].Amount != -30 || *spent[0].RefID != ref || spent[0].Message != "Booked skill: Guitar" {
			t.Errorf("unexpected row %+v", spent[0])
		}
	})

	t.Run("insufficient balance writes nothing", func(t *testing.T) {
		svc, users, credits, _ := newTestService(user(learner, 100))
		_, err := svc.Spend(ctx, &testutil.Tx{}, learner, 150, &ref, "x")
		if !errors.Is(err, apperr.ErrInsufficientCredits) {
			t.Fatalf("expected ErrInsufficientCredits, got %v", err)
		}
		if users.Balance(learner) != 100 {
			t.Errorf("balance changed to %d", users.Balance(learner))
		}
		if n := len(credits.All()); n != 0 {
			t.Errorf("expected no ledger rows, got %d", n)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, _, _, _ := newTestService()
		_, err := svc.Spend(ctx, &testutil.Tx{}, uuid.New(), 10, nil, "x")
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("zero price still records a row", func(t *testing.T) {
		svc, _, credits, _ := newTestService(user(learner, 5))
		if _, err := svc.Spend(ctx, &testutil.Tx{}, learner, 0, &ref, "free"); err != nil {
			t.Fatal(err)
		}
		if len(credits.ByType(models.CreditSpent)) != 1 {
			t.Error("expected a SPENT row for a free session")
		}
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		svc, _, _, _ := newTestService(user(learner, 5))
		_, err := svc.Spend(ctx, &testutil.Tx{}, learner, -1, nil, "x")
		var ve *apperr.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

// ---------------------------------------------------------------------------
// EarnOnce
// ---------------------------------------------------------------------------

func TestEarnOnce_CreditsExactlyOnce(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	booking := uuid.New()
	svc, users, credits, _ := newTestService(user(owner, 0))

	for i := 0; i < 3; i++ {
		credited, err := svc.EarnOnce(ctx, &testutil.Tx{}, owner, 30, booking, CompletionMessage("Guitar"))
		if err != nil {
			t.Fatalf("EarnOnce #%d: %v", i, err)
		}
		if credited != (i == 0) {
			t.Errorf("EarnOnce #%d credited = %v", i, credited)
		}
	}
	if users.Balance(owner) != 30 {
		t.Errorf("owner balance = %d, want 30", users.Balance(owner))
	}
	if n := len(credits.ByType(models.CreditEarned)); n != 1 {
		t.Errorf("EARNED rows = %d, want 1", n)
	}
}

// ---------------------------------------------------------------------------
// Donate
// ---------------------------------------------------------------------------

func TestDonate(t *testing.T) {
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	t.Run("moves credits", func(t *testing.T) {
		svc, users, credits, pool := newTestService(user(alice, 50), user(bob, 10))
		bal, err := svc.Donate(ctx, alice, bob, 20, DonationMessage(20))
		if err != nil {
			t.Fatal(err)
		}
		if bal != 30 || users.Balance(bob) != 30 {
			t.Errorf("alice=%d bob=%d", bal, users.Balance(bob))
		}
		donated := credits.ByType(models.CreditDonated)
		earned := credits.ByType(models.CreditEarned)
		if len(donated) != 1 || donated[0].Amount != -20 || len(earned) != 1 || earned[0].Amount != 20 {
			t.Errorf("unexpected rows donated=%v earned=%v", donated, earned)
		}
		if *donated[0].RefID != *earned[0].RefID {
			t.Error("both legs should share a transfer reference")
		}
		if pool.Commits != 1 {
			t.Errorf("commits = %d", pool.Commits)
		}
	})

	t.Run("insufficient credits rolls back", func(t *testing.T) {
		svc, users, credits, pool := newTestService(user(alice, 5), user(bob, 0))
		_, err := svc.Donate(ctx, alice, bob, 20, "")
		if !errors.Is(err, apperr.ErrInsufficientCredits) {
			t.Fatalf("expected ErrInsufficientCredits, got %v", err)
		}
		if users.Balance(alice) != 5 || users.Balance(bob) != 0 || len(credits.All()) != 0 {
			t.Error("state changed on failed donation")
		}
		if pool.Rollbacks != 1 {
			t.Errorf("rollbacks = %d", pool.Rollbacks)
		}
	})

	t.Run("recipient missing", func(t *testing.T) {
		svc, users, credits, _ := newTestService(user(alice, 50))
		_, err := svc.Donate(ctx, alice, uuid.New(), 10, "")
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if users.Balance(alice) != 50 || len(credits.All()) != 0 {
			t.Error("state changed")
		}
	})

	t.Run("self donation rejected", func(t *testing.T) {
		svc, _, _, pool := newTestService(user(alice, 50))
		if _, err := svc.Donate(ctx, alice, alice, 10, ""); err == nil {
			t.Fatal("expected error")
		}
		if pool.Begins != 0 {
			t.Error("should fail before opening a transaction")
		}
	})
}

// ---------------------------------------------------------------------------
// Ledger integrity: after any mix of operations, stored balance equals the
// signed ledger sum for every user, and credits are conserved.
// ---------------------------------------------------------------------------

func TestLedgerIntegrity(t *testing.T) {
	ctx := context.Background()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	svc, users, credits, _ := newTestService(user(a, 100), user(b, 100), user(c, 100))
	seedLedger(t, credits, user(a, 100), user(b, 100), user(c, 100))

	for i := 0; i < 10; i++ {
		ref := uuid.New()
		switch i % 3 {
		case 0:
			_, _ = svc.Spend(ctx, &testutil.Tx{}, a, 7, &ref, "spend")
			_, _ = svc.EarnOnce(ctx, &testutil.Tx{}, b, 7, ref, "earn")
		case 1:
			_, _ = svc.Donate(ctx, b, c, 3, "gift")
		case 2:
			_, _ = svc.Donate(ctx, c, a, 500, "too much")
		}
	}

	auditor := NewAuditor(users, credits)
	total := 0
	for _, id := range []uuid.UUID{a, b, c} {
		res, err := auditor.Audit(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if !res.Consistent {
			t.Errorf("user %s: stored %d, ledger %d", id, res.StoredBalance, res.LedgerBalance)
		}
		total += res.StoredBalance
	}
	if total != 300 {
		t.Errorf("credits not conserved: total %d, want 300", total)
	}
}
