package models

import (
	"time"

	"github.com/google/uuid"
)

// Credit transaction types. Amount sign carries direction.
const (
	CreditEarned  = "EARNED"
	CreditSpent   = "SPENT"
	CreditDonated = "DONATED"
)

// CreditTransaction is an append-only ledger row.
type CreditTransaction struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Amount    int        `json:"amount"`
	Type      string     `json:"type"`
	RefID     *uuid.UUID `json:"ref_id,omitempty"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"created_at"`
}

// BalanceAudit compares the cached balance with the ledger sum.
type BalanceAudit struct {
	UserID        uuid.UUID `json:"user_id"`
	StoredBalance int       `json:"stored_balance"`
	LedgerBalance int       `json:"ledger_balance"`
	Consistent    bool      `json:"consistent"`
}
