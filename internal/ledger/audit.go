package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/skillshare/backend/internal/metrics"
	"github.com/skillshare/backend/internal/models"
)

type BalanceReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type HistoryReader interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.CreditTransaction, error)
	SumByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

// Auditor reads the ledger back out: history and balance consistency.
type Auditor struct {
	Users   BalanceReader
	Entries HistoryReader
}

func NewAuditor(users BalanceReader, entries HistoryReader) *Auditor {
	return &Auditor{Users: users, Entries: entries}
}

// History returns the user's ledger rows, newest first. Unknown users are NotFound.
func (a *Auditor) History(ctx context.Context, userID uuid.UUID) ([]*models.CreditTransaction, error) {
	if _, err := a.Users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	list, err := a.Entries.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*models.CreditTransaction{}
	}
	return list, nil
}

// Audit compares the stored balance against the ledger sum.
func (a *Auditor) Audit(ctx context.Context, userID uuid.UUID) (*models.BalanceAudit, error) {
	u, err := a.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	sum, err := a.Entries.SumByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	res := &models.BalanceAudit{
		UserID:        userID,
		StoredBalance: u.Credits,
		LedgerBalance: sum,
		Consistent:    u.Credits == sum,
	}
	if !res.Consistent {
		metrics.LedgerAuditMismatches.Inc()
	}
	return res, nil
}
