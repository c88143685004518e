// Package chat implements rooms between two users, persisted messages and
// live delivery of chat events to connected recipients.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/skillshare/backend/internal/apperr"
	"github.com/skillshare/backend/internal/database"
	"github.com/skillshare/backend/internal/metrics"
	"github.com/skillshare/backend/internal/models"
)

// EnqueueNotifyFunc schedules delivery of ev inside tx so the event is only
// sent if the write it describes commits.
type EnqueueNotifyFunc func(ctx context.Context, tx pgx.Tx, ev models.ChatEvent) error

// UserGetter checks that a participant exists.
type UserGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type CreateRoomInput struct {
	ParticipantID uuid.UUID
	BookingID     *uuid.UUID
	SkillID       *uuid.UUID
}

type Service interface {
	CreateRoom(ctx context.Context, caller uuid.UUID, in CreateRoomInput) (*models.ChatRoom, error)
	ListRooms(ctx context.Context, caller uuid.UUID) ([]*models.ChatRoom, error)
	SendMessage(ctx context.Context, roomID, sender uuid.UUID, content, msgType string) (*models.Message, error)
	ListMessages(ctx context.Context, roomID, caller uuid.UUID) ([]*models.Message, error)
	UpdateMessageStatus(ctx context.Context, roomID, messageID, caller uuid.UUID, status string) (*models.Message, error)
}

type service struct {
	db      database.TxBeginner
	store   Store
	users   UserGetter
	enqueue EnqueueNotifyFunc
	log     *slog.Logger
}

var _ Service = (*service)(nil)

func NewService(db database.TxBeginner, store Store, users UserGetter, enqueue EnqueueNotifyFunc, log *slog.Logger) Service {
	if log == nil {
		log = slog.Default()
	}
	return &service{db: db, store: store, users: users, enqueue: enqueue, log: log}
}

func (s *service) CreateRoom(ctx context.Context, caller uuid.UUID, in CreateRoomInput) (*models.ChatRoom, error) {
	if in.ParticipantID == uuid.Nil {
		return nil, apperr.Invalid("participant_id is required")
	}
	if in.ParticipantID == caller {
		return nil, apperr.Invalid("cannot open a chat with yourself")
	}
	if _, err := s.users.GetByID(ctx, in.ParticipantID); err != nil {
		return nil, err
	}
	_, err := s.store.FindRoomByPair(ctx, caller, in.ParticipantID)
	switch {
	case err == nil:
		return nil, apperr.Conflict("chat room already exists")
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, err
	}

	room := &models.ChatRoom{
		ID:             uuid.New(),
		Participant1ID: caller,
		Participant2ID: in.ParticipantID,
		BookingID:      in.BookingID,
		SkillID:        in.SkillID,
	}
	if err := s.store.CreateRoom(ctx, room); err != nil {
		return nil, err
	}
	s.log.Info("chat room created", "room_id", room.ID, "participant1_id", caller, "participant2_id", in.ParticipantID)
	return room, nil
}

func (s *service) ListRooms(ctx context.Context, caller uuid.UUID) ([]*models.ChatRoom, error) {
	rooms, err := s.store.ListRooms(ctx, caller)
	if err != nil {
		return nil, err
	}
	if rooms == nil {
		rooms = []*models.ChatRoom{}
	}
	return rooms, nil
}

// SendMessage persists the message, bumps the room and schedules its
// delivery to the other participant in one transaction.
func (s *service) SendMessage(ctx context.Context, roomID, sender uuid.UUID, content, msgType string) (*models.Message, error) {
	if content == "" {
		return nil, apperr.Invalid("content is required")
	}
	if msgType == "" {
		msgType = models.MessageText
	}
	if !models.ValidMessageType(msgType) {
		return nil, apperr.Invalid("unknown message type %q", msgType)
	}
	room, err := s.memberRoom(ctx, roomID, sender)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:         uuid.New(),
		RoomID:     room.ID,
		SenderID:   sender,
		ReceiverID: room.Other(sender),
		Content:    content,
		Type:       msgType,
		Status:     models.MessageSent,
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.store.InsertMessageTx(ctx, tx, msg); err != nil {
		return nil, err
	}
	if err := s.store.TouchRoomTx(ctx, tx, room.ID); err != nil {
		return nil, err
	}
	ev := models.ChatEvent{Kind: models.ChatEventMessage, RecipientID: msg.ReceiverID, Message: msg}
	if err := s.enqueue(ctx, tx, ev); err != nil {
		return nil, fmt.Errorf("enqueue chat notify: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	metrics.ChatMessagesSent.WithLabelValues(msgType).Inc()
	return msg, nil
}

func (s *service) ListMessages(ctx context.Context, roomID, caller uuid.UUID) ([]*models.Message, error) {
	if _, err := s.memberRoom(ctx, roomID, caller); err != nil {
		return nil, err
	}
	msgs, err := s.store.ListMessages(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []*models.Message{}
	}
	return msgs, nil
}

// UpdateMessageStatus lets the receiver acknowledge a message. Statuses only
// move forward; repeating or lowering one returns the message unchanged.
func (s *service) UpdateMessageStatus(ctx context.Context, roomID, messageID, caller uuid.UUID, status string) (*models.Message, error) {
	if status != models.MessageDelivered && status != models.MessageRead {
		return nil, apperr.Invalid("status must be delivered or read")
	}
	if _, err := s.memberRoom(ctx, roomID, caller); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	msg, err := s.store.GetMessageForUpdate(ctx, tx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.RoomID != roomID {
		return nil, apperr.NotFound("message")
	}
	if msg.ReceiverID != caller {
		return nil, fmt.Errorf("only the receiver may update a message: %w", apperr.ErrAccessDenied)
	}
	if models.MessageStatusRank(status) <= models.MessageStatusRank(msg.Status) {
		return msg, nil
	}

	updated, err := s.store.UpdateMessageStatusTx(ctx, tx, messageID, status)
	if err != nil {
		return nil, err
	}
	ev := models.ChatEvent{Kind: models.ChatEventStatus, RecipientID: updated.SenderID, Message: updated}
	if err := s.enqueue(ctx, tx, ev); err != nil {
		return nil, fmt.Errorf("enqueue chat notify: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return updated, nil
}

func (s *service) memberRoom(ctx context.Context, roomID, caller uuid.UUID) (*models.ChatRoom, error) {
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasParticipant(caller) {
		return nil, fmt.Errorf("not a participant of this room: %w", apperr.ErrAccessDenied)
	}
	return room, nil
}
