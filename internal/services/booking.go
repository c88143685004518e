package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/skillshare/backend/internal/apperr"
	"github.com/skillshare/backend/internal/database"
	"github.com/skillshare/backend/internal/ledger"
	"github.com/skillshare/backend/internal/metrics"
	"github.com/skillshare/backend/internal/models"
	"github.com/skillshare/backend/internal/obs"
)

var tracer = obs.Tracer("services")

// SkillGetter loads a single skill.
type SkillGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Skill, error)
}

// BookingStore is the booking repository used by BookingService.
type BookingStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, b *models.Booking) error
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Booking, error)
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status string) (*models.Booking, error)
	ListByLearner(ctx context.Context, learnerID uuid.UUID) ([]*models.Booking, error)
}

// BookingService purchases sessions with credits and settles them on completion.
type BookingService struct {
	DB       database.TxBeginner
	Skills   SkillGetter
	Bookings BookingStore
	Ledger   ledger.Service
	Log      *slog.Logger
}

func NewBookingService(db database.TxBeginner, skills SkillGetter, bookings BookingStore, l ledger.Service, log *slog.Logger) *BookingService {
	if log == nil {
		log = slog.Default()
	}
	return &BookingService{DB: db, Skills: skills, Bookings: bookings, Ledger: l, Log: log}
}

type BookingRequest struct {
	SkillID     uuid.UUID
	LearnerID   uuid.UUID
	ScheduledAt time.Time
	Notes       string
}

type BookingResult struct {
	Booking        *models.Booking `json:"booking"`
	UpdatedCredits int             `json:"updated_credits"`
}

// CreateBooking debits the learner the skill's price and records a BOOKED
// session starting at ScheduledAt. The debit, its SPENT ledger row and the
// booking commit together or not at all.
func (s *BookingService) CreateBooking(ctx context.Context, req BookingRequest) (res *BookingResult, err error) {
	ctx, span := tracer.Start(ctx, "booking.create")
	span.SetAttributes(
		attribute.String("skill.id", req.SkillID.String()),
		attribute.String("learner.id", req.LearnerID.String()),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			metrics.BookingsRejected.WithLabelValues(rejectReason(err)).Inc()
		}
		span.End()
	}()

	if req.ScheduledAt.IsZero() {
		return nil, apperr.Invalid("scheduled_at is required")
	}
	skill, err := s.Skills.GetByID(ctx, req.SkillID)
	if err != nil {
		return nil, err
	}
	if !skill.IsActive {
		return nil, apperr.NotFound("skill")
	}
	if skill.OwnerID == req.LearnerID {
		return nil, apperr.Invalid("cannot book your own skill")
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	bookingID := uuid.New()
	balance, err := s.Ledger.Spend(ctx, tx, req.LearnerID, skill.PriceCredits, &bookingID, ledger.BookingMessage(skill.Title))
	if err != nil {
		return nil, err
	}
	start := req.ScheduledAt.UTC()
	b := &models.Booking{
		ID:           bookingID,
		SkillID:      skill.ID,
		LearnerID:    req.LearnerID,
		StartTime:    start,
		EndTime:      start.Add(models.SessionLength),
		Status:       models.BookingBooked,
		PriceCredits: skill.PriceCredits,
		Notes:        req.Notes,
	}
	if err := s.Bookings.CreateTx(ctx, tx, b); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.BookingsCreated.Inc()
	s.Log.Info("booking created", "booking_id", b.ID, "skill_id", skill.ID, "learner_id", req.LearnerID, "price", skill.PriceCredits)
	return &BookingResult{Booking: b, UpdatedCredits: balance}, nil
}

// UpdateStatus sets a booking's status. Any transition is allowed. Completing
// a booking credits the skill owner the agreed price exactly once, however
// many times COMPLETED is applied. Cancelling does not refund.
func (s *BookingService) UpdateStatus(ctx context.Context, bookingID uuid.UUID, status string) (b *models.Booking, err error) {
	ctx, span := tracer.Start(ctx, "booking.update_status")
	span.SetAttributes(attribute.String("booking.id", bookingID.String()), attribute.String("booking.status", status))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if !models.ValidBookingStatus(status) {
		return nil, apperr.Invalid("status must be one of BOOKED, COMPLETED, CANCELLED")
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	current, err := s.Bookings.GetByIDForUpdate(ctx, tx, bookingID)
	if err != nil {
		return nil, err
	}
	b, err = s.Bookings.UpdateStatusTx(ctx, tx, current.ID, status)
	if err != nil {
		return nil, err
	}

	if status == models.BookingCompleted {
		skill, err := s.Skills.GetByID(ctx, b.SkillID)
		if err != nil {
			return nil, err
		}
		credited, err := s.Ledger.EarnOnce(ctx, tx, skill.OwnerID, b.PriceCredits, b.ID, ledger.CompletionMessage(skill.Title))
		if err != nil {
			return nil, err
		}
		if credited {
			s.Log.Info("provider credited", "booking_id", b.ID, "owner_id", skill.OwnerID, "amount", b.PriceCredits)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	metrics.BookingStatusChanges.WithLabelValues(status).Inc()
	return b, nil
}

// ListForLearner returns the learner's bookings, latest session first.
func (s *BookingService) ListForLearner(ctx context.Context, learnerID uuid.UUID) ([]*models.Booking, error) {
	list, err := s.Bookings.ListByLearner(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*models.Booking{}
	}
	return list, nil
}

func rejectReason(err error) string {
	var ve *apperr.ValidationError
	switch {
	case errors.Is(err, apperr.ErrInsufficientCredits):
		return "insufficient_credits"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	case errors.As(err, &ve):
		return "invalid"
	default:
		return "error"
	}
}
