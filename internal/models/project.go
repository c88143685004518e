package models

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID                uuid.UUID `json:"id"`
	CreatorID         uuid.UUID `json:"creator_id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	MaxVolunteers     int       `json:"max_volunteers"`
	CurrentVolunteers int       `json:"current_volunteers"`
	IsFull            bool      `json:"is_full"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
}
