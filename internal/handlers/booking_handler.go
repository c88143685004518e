package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/skillshare/backend/internal/apperr"
	"github.com/skillshare/backend/internal/models"
	"github.com/skillshare/backend/internal/services"
)

type BookingDesk interface {
	CreateBooking(ctx context.Context, req services.BookingRequest) (*services.BookingResult, error)
	UpdateStatus(ctx context.Context, bookingID uuid.UUID, status string) (*models.Booking, error)
	ListForLearner(ctx context.Context, learnerID uuid.UUID) ([]*models.Booking, error)
}

// BookingHandler serves /api/bookings.
type BookingHandler struct {
	Bookings BookingDesk
	Logger   *slog.Logger
}

type createBookingRequest struct {
	SkillID     uuid.UUID  `json:"skill_id"`
	LearnerID   *uuid.UUID `json:"learner_id"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	Notes       string     `json:"notes"`
}

type updateBookingRequest struct {
	Status string `json:"status"`
}

// List handles GET /api/bookings?userId.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	learner, err := queryUUID(r, "userId")
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	list, err := h.Bookings.ListForLearner(r.Context(), learner)
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Create handles POST /api/bookings: 200 with the booking and the learner's
// new balance, 400 when credits are short.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := decode(r, &req); err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	learner, err := actingUser(r, req.LearnerID)
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	res, err := h.Bookings.CreateBooking(r.Context(), services.BookingRequest{
		SkillID:     req.SkillID,
		LearnerID:   learner,
		ScheduledAt: req.ScheduledAt,
		Notes:       req.Notes,
	})
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// UpdateStatus handles PUT /api/bookings?id.
func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := queryUUID(r, "id")
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	var req updateBookingRequest
	if err := decode(r, &req); err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	b, err := h.Bookings.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		apperr.Write(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
