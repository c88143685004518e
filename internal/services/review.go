package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/skillshare/backend/internal/apperr"
	"github.com/skillshare/backend/internal/database"
	"github.com/skillshare/backend/internal/models"
)

// EnqueueRatingFunc schedules a rating recalculation for skillID inside tx.
type EnqueueRatingFunc func(ctx context.Context, tx pgx.Tx, skillID uuid.UUID) error

type BookingGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
}

type ReviewStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, rv *models.Review) error
	ListBySkill(ctx context.Context, skillID uuid.UUID) ([]*models.Review, error)
}

type KarmaStore interface {
	AddKarmaTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, delta int) error
}

type ReviewService struct {
	DB            database.TxBeginner
	Skills        SkillGetter
	Bookings      BookingGetter
	Reviews       ReviewStore
	Karma         KarmaStore
	EnqueueRating EnqueueRatingFunc
	Log           *slog.Logger
}

func NewReviewService(db database.TxBeginner, skills SkillGetter, bookings BookingGetter, reviews ReviewStore, karma KarmaStore, enqueue EnqueueRatingFunc, log *slog.Logger) *ReviewService {
	if log == nil {
		log = slog.Default()
	}
	return &ReviewService{DB: db, Skills: skills, Bookings: bookings, Reviews: reviews, Karma: karma, EnqueueRating: enqueue, Log: log}
}

type ReviewRequest struct {
	SkillID    uuid.UUID
	ReviewerID uuid.UUID
	BookingID  uuid.UUID
	Stars      int
	Comment    string
}

// Create records a review of a completed session. The review, the owner's
// karma for a good review and the rating recalculation job commit together.
func (s *ReviewService) Create(ctx context.Context, req ReviewRequest) (*models.Review, error) {
	if req.Stars < 1 || req.Stars > 5 {
		return nil, apperr.Invalid("stars must be between 1 and 5")
	}
	booking, err := s.Bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.LearnerID != req.ReviewerID {
		return nil, fmt.Errorf("only the learner may review a booking: %w", apperr.ErrAccessDenied)
	}
	if booking.SkillID != req.SkillID {
		return nil, apperr.Invalid("booking is not for this skill")
	}
	if booking.Status != models.BookingCompleted {
		return nil, apperr.Invalid("only completed sessions can be reviewed")
	}
	skill, err := s.Skills.GetByID(ctx, req.SkillID)
	if err != nil {
		return nil, err
	}

	rv := &models.Review{
		ID:         uuid.New(),
		SkillID:    skill.ID,
		ReviewerID: req.ReviewerID,
		BookingID:  booking.ID,
		Stars:      req.Stars,
		Comment:    strings.TrimSpace(req.Comment),
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.Reviews.CreateTx(ctx, tx, rv); err != nil {
		return nil, err
	}
	if rv.Stars >= models.KarmaReviewThreshold {
		if err := s.Karma.AddKarmaTx(ctx, tx, skill.OwnerID, 1); err != nil {
			return nil, fmt.Errorf("award karma: %w", err)
		}
	}
	if err := s.EnqueueRating(ctx, tx, skill.ID); err != nil {
		return nil, fmt.Errorf("enqueue rating recalculation: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	s.Log.Info("review created", "review_id", rv.ID, "skill_id", rv.SkillID, "stars", rv.Stars)
	return rv, nil
}

func (s *ReviewService) ListForSkill(ctx context.Context, skillID uuid.UUID) ([]*models.Review, error) {
	if _, err := s.Skills.GetByID(ctx, skillID); err != nil {
		return nil, err
	}
	list, err := s.Reviews.ListBySkill(ctx, skillID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*models.Review{}
	}
	return list, nil
}
