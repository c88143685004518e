package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Credits      int       `json:"credits"`
	Karma        int       `json:"karma"`
	IsIDVerified bool      `json:"is_id_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicProfile is the view of a user other users may see.
type PublicProfile struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Karma        int       `json:"karma"`
	IsIDVerified bool      `json:"is_id_verified"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{ID: u.ID, Name: u.Name, Karma: u.Karma, IsIDVerified: u.IsIDVerified, CreatedAt: u.CreatedAt}
}
