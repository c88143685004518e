package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/skillshare/backend/internal/apperr"
	"github.com/skillshare/backend/internal/ledger"
	"github.com/skillshare/backend/internal/middleware"
	"github.com/skillshare/backend/internal/models"
)

type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type LedgerReader interface {
	History(ctx context.Context, userID uuid.UUID) ([]*models.CreditTransaction, error)
	Audit(ctx context.Context, userID uuid.UUID) (*models.BalanceAudit, error)
}

type Donor interface {
	Donate(ctx context.Context, fromID, toID uuid.UUID, amount int, message string) (int, error)
}

// AccountHandler serves /api/users and /api/credits.
type AccountHandler struct {
	Users  UserReader
	Ledger LedgerReader
	Donor  Donor
	Logger *slog.Logger
}

type donateRequest struct {
	ToUserID uuid.UUID `json:"to_user_id"`
	Amount   int       `json:"amount"`
	Message  string    `json:"message"`
}

type donateResponse struct {
	UpdatedCredits int `json:"updated_credits"`
}

// GetMe handles GET /api/users/me.
func (h *AccountHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		apperr.Write(w, h.Logger, apperr.ErrUnauthorized)
		return
	}
	u, err := h.Users.GetByID(r.Context(), id)
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// GetProfile handles GET /api/users/{id}.
func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	u, err := h.Users.GetByID(r.Context(), id)
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, u.Public())
}

// ListTransactions handles GET /api/users/{id}/transactions.
func (h *AccountHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	entries, err := h.Ledger.History(r.Context(), id)
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// ExportTransactions handles GET /api/users/{id}/transactions/export.
func (h *AccountHandler) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	entries, err := h.Ledger.History(r.Context(), id)
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	name := fmt.Sprintf("credits-%s-%s.xlsx", id.String()[:8], time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if err := ledger.WriteXLSX(w, entries); err != nil {
		h.Logger.Error("export transactions failed", "user_id", id, "error", err)
	}
}

// GetBalance handles GET /api/users/{id}/balance.
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	audit, err := h.Ledger.Audit(r.Context(), id)
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	if !audit.Consistent {
		h.Logger.Warn("stored balance drifted from ledger", "user_id", id,
			"stored", audit.StoredBalance, "ledger", audit.LedgerBalance)
	}
	writeJSON(w, http.StatusOK, audit)
}

// Donate handles POST /api/credits/donate.
func (h *AccountHandler) Donate(w http.ResponseWriter, r *http.Request) {
	from, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		apperr.Write(w, h.Logger, apperr.ErrUnauthorized)
		return
	}
	var req donateRequest
	if err := decode(r, &req); err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	bal, err := h.Donor.Donate(r.Context(), from, req.ToUserID, req.Amount, req.Message)
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	h.Logger.Info("credits donated", "from", from, "to", req.ToUserID, "amount", req.Amount)
	writeJSON(w, http.StatusOK, donateResponse{UpdatedCredits: bal})
}
