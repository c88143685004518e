// Package ledger moves credits between users. Every balance change is paired
// with an append-only credit_transactions row in the same database transaction,
// so a user's stored balance always equals the sum of their ledger rows.
package ledger

import (
	"context"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/skillshare/backend/internal/apperr"
	"github.com/skillshare/backend/internal/database"
	"github.com/skillshare/backend/internal/metrics"
	"github.com/skillshare/backend/internal/models"
)

// UserStore is the minimal user repository the ledger needs.
type UserStore interface {
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.User, error)
	DeductCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int) (newBalance int, err error)
	AddCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int) (newBalance int, err error)
}

// EntryStore appends and probes ledger rows.
type EntryStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, c *models.CreditTransaction) error
	ExistsTx(ctx context.Context, tx pgx.Tx, refID uuid.UUID, txType string) (bool, error)
}

type Service interface {
	// Spend debits amount from the user. Returns ErrInsufficientCredits without writing when the balance is short.
	Spend(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int, ref *uuid.UUID, message string) (int, error)
	// Earn credits amount to the user.
	Earn(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int, ref *uuid.UUID, message string) (int, error)
	// EarnOnce credits amount unless an EARNED row already references ref.
	EarnOnce(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int, ref uuid.UUID, message string) (bool, error)
	// Donate moves credits between two users in its own transaction and returns the donor's new balance.
	Donate(ctx context.Context, fromID, toID uuid.UUID, amount int, message string) (int, error)
}

type service struct {
	db      database.TxBeginner
	users   UserStore
	entries EntryStore
}

func NewService(db database.TxBeginner, users UserStore, entries EntryStore) Service {
	return &service{db: db, users: users, entries: entries}
}

var _ Service = (*service)(nil)

func (s *service) Spend(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int, ref *uuid.UUID, message string) (int, error) {
	if amount < 0 {
		return 0, apperr.Invalid("amount must not be negative")
	}
	u, err := s.users.GetByIDForUpdate(ctx, tx, userID)
	if err != nil {
		return 0, err
	}
	if u.Credits < amount {
		return 0, apperr.ErrInsufficientCredits
	}
	newBalance, err := s.users.DeductCredits(ctx, tx, userID, amount)
	if err != nil {
		return 0, err
	}
	if err := s.append(ctx, tx, userID, -amount, models.CreditSpent, ref, message); err != nil {
		return 0, err
	}
	return newBalance, nil
}

func (s *service) Earn(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int, ref *uuid.UUID, message string) (int, error) {
	if amount < 0 {
		return 0, apperr.Invalid("amount must not be negative")
	}
	newBalance, err := s.users.AddCredits(ctx, tx, userID, amount)
	if err != nil {
		return 0, err
	}
	if err := s.append(ctx, tx, userID, amount, models.CreditEarned, ref, message); err != nil {
		return 0, err
	}
	return newBalance, nil
}

func (s *service) EarnOnce(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int, ref uuid.UUID, message string) (bool, error) {
	// Lock first so two concurrent completions serialize on the owner row.
	if _, err := s.users.GetByIDForUpdate(ctx, tx, userID); err != nil {
		return false, err
	}
	exists, err := s.entries.ExistsTx(ctx, tx, ref, models.CreditEarned)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if _, err := s.Earn(ctx, tx, userID, amount, &ref, message); err != nil {
		return false, err
	}
	return true, nil
}

func (s *service) Donate(ctx context.Context, fromID, toID uuid.UUID, amount int, message string) (int, error) {
	if amount <= 0 {
		return 0, apperr.Invalid("amount must be positive")
	}
	if fromID == toID {
		return 0, apperr.Invalid("cannot donate to yourself")
	}
	if message == "" {
		message = DonationMessage(amount)
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	// Lock both rows in deterministic order to avoid deadlock with a reverse donation.
	ids := []uuid.UUID{fromID, toID}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	var donor *models.User
	for _, id := range ids {
		u, err := s.users.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return 0, err
		}
		if id == fromID {
			donor = u
		}
	}
	if donor.Credits < amount {
		return 0, apperr.ErrInsufficientCredits
	}

	newBalance, err := s.users.DeductCredits(ctx, tx, fromID, amount)
	if err != nil {
		return 0, err
	}
	transferID := uuid.New()
	if err := s.append(ctx, tx, fromID, -amount, models.CreditDonated, &transferID, message); err != nil {
		return 0, err
	}
	if _, err := s.Earn(ctx, tx, toID, amount, &transferID, message); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return newBalance, nil
}

func (s *service) append(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int, txType string, ref *uuid.UUID, message string) error {
	entry := &models.CreditTransaction{
		ID:      uuid.New(),
		UserID:  userID,
		Amount:  amount,
		Type:    txType,
		RefID:   ref,
		Message: message,
	}
	if err := s.entries.CreateTx(ctx, tx, entry); err != nil {
		return err
	}
	metrics.LedgerEntries.WithLabelValues(txType).Inc()
	if amount < 0 {
		amount = -amount
	}
	metrics.LedgerCreditsMoved.WithLabelValues(txType).Add(float64(amount))
	return nil
}

// BookingMessage is the ledger message for a booking purchase.
func BookingMessage(skillTitle string) string {
	return "Booked skill: " + skillTitle
}

// CompletionMessage is the ledger message credited to a skill owner.
func CompletionMessage(skillTitle string) string {
	return "Session completed: " + skillTitle
}

// DonationMessage is the default message for a donation without one.
func DonationMessage(amount int) string {
	return "Donated " + strconv.Itoa(amount) + " credits"
}
