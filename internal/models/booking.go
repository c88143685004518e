package models

import (
	"time"

	"github.com/google/uuid"
)

// Booking statuses.
const (
	BookingBooked    = "BOOKED"
	BookingCompleted = "COMPLETED"
	BookingCancelled = "CANCELLED"
)

// SessionLength is the fixed duration of a booked session.
const SessionLength = time.Hour

func ValidBookingStatus(s string) bool {
	switch s {
	case BookingBooked, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

type Booking struct {
	ID           uuid.UUID `json:"id"`
	SkillID      uuid.UUID `json:"skill_id"`
	LearnerID    uuid.UUID `json:"learner_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Status       string    `json:"status"`
	PriceCredits int       `json:"price_credits"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
