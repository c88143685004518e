package models

import (
	"time"

	"github.com/google/uuid"
)

// KarmaReviewThreshold is the minimum star count that earns the skill owner karma.
const KarmaReviewThreshold = 4

type Review struct {
	ID         uuid.UUID `json:"id"`
	SkillID    uuid.UUID `json:"skill_id"`
	ReviewerID uuid.UUID `json:"reviewer_id"`
	BookingID  uuid.UUID `json:"booking_id"`
	Stars      int       `json:"stars"`
	Comment    string    `json:"comment,omitempty"`
	IsFlagged  bool      `json:"is_flagged"`
	CreatedAt  time.Time `json:"created_at"`
}
