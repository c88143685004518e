package workers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

type RatingRecalcArgs struct {
	SkillID uuid.UUID `json:"skill_id"`
}

func (RatingRecalcArgs) Kind() string { return "rating_recalc" }

func (RatingRecalcArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{MaxAttempts: 5}
}

// RatingStore recomputes a skill's average from its unflagged reviews.
type RatingStore interface {
	RecalculateRating(ctx context.Context, skillID uuid.UUID) (float64, error)
}

type RatingRecalcWorker struct {
	river.WorkerDefaults[RatingRecalcArgs]
	ratings RatingStore
	log     *slog.Logger
}

func NewRatingRecalcWorker(ratings RatingStore, log *slog.Logger) *RatingRecalcWorker {
	if log == nil {
		log = slog.Default()
	}
	return &RatingRecalcWorker{ratings: ratings, log: log}
}

func (w *RatingRecalcWorker) Work(ctx context.Context, job *river.Job[RatingRecalcArgs]) error {
	avg, err := w.ratings.RecalculateRating(ctx, job.Args.SkillID)
	if err != nil {
		return fmt.Errorf("recalculate rating: %w", err)
	}
	w.log.Info("skill rating recalculated", "skill_id", job.Args.SkillID, "avg_rating", avg)
	return nil
}
