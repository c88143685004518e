package models

import (
	"time"

	"github.com/google/uuid"
)

// Message types.
const (
	MessageText   = "text"
	MessageImage  = "image"
	MessageFile   = "file"
	MessageSystem = "system"
)

// Message delivery statuses.
const (
	MessageSent      = "sent"
	MessageDelivered = "delivered"
	MessageRead      = "read"
)

func ValidMessageType(t string) bool {
	switch t {
	case MessageText, MessageImage, MessageFile, MessageSystem:
		return true
	}
	return false
}

type ChatRoom struct {
	ID             uuid.UUID  `json:"id"`
	Participant1ID uuid.UUID  `json:"participant1_id"`
	Participant2ID uuid.UUID  `json:"participant2_id"`
	BookingID      *uuid.UUID `json:"booking_id,omitempty"`
	SkillID        *uuid.UUID `json:"skill_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// HasParticipant reports whether id is one of the two room members.
func (r *ChatRoom) HasParticipant(id uuid.UUID) bool {
	return r.Participant1ID == id || r.Participant2ID == id
}

// Other returns the participant that is not id.
func (r *ChatRoom) Other(id uuid.UUID) uuid.UUID {
	if r.Participant1ID == id {
		return r.Participant2ID
	}
	return r.Participant1ID
}

type Message struct {
	ID         uuid.UUID `json:"id"`
	RoomID     uuid.UUID `json:"room_id"`
	SenderID   uuid.UUID `json:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	Content    string    `json:"content"`
	Type       string    `json:"type"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// Chat event kinds delivered to live subscribers.
const (
	ChatEventMessage = "message"
	ChatEventStatus  = "status"
)

// ChatEvent is addressed to a single recipient and carries the message as it
// was persisted.
type ChatEvent struct {
	Kind        string    `json:"kind"`
	RecipientID uuid.UUID `json:"recipient_id"`
	Message     *Message  `json:"message"`
}

// MessageStatusRank orders statuses so a message never moves backwards.
func MessageStatusRank(s string) int {
	switch s {
	case MessageSent:
		return 1
	case MessageDelivered:
		return 2
	case MessageRead:
		return 3
	}
	return 0
}
