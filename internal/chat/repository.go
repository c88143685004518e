package chat

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skillshare/backend/internal/apperr"
	"github.com/skillshare/backend/internal/models"
)

const (
	roomColumns    = `id, participant1_id, participant2_id, booking_id, skill_id, created_at, updated_at`
	messageColumns = `id, room_id, sender_id, receiver_id, content, type, status, created_at`
)

// Store is the persistence contract of the chat service.
type Store interface {
	CreateRoom(ctx context.Context, room *models.ChatRoom) error
	FindRoomByPair(ctx context.Context, a, b uuid.UUID) (*models.ChatRoom, error)
	GetRoom(ctx context.Context, id uuid.UUID) (*models.ChatRoom, error)
	ListRooms(ctx context.Context, userID uuid.UUID) ([]*models.ChatRoom, error)
	InsertMessageTx(ctx context.Context, tx pgx.Tx, m *models.Message) error
	TouchRoomTx(ctx context.Context, tx pgx.Tx, roomID uuid.UUID) error
	ListMessages(ctx context.Context, roomID uuid.UUID) ([]*models.Message, error)
	GetMessageForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Message, error)
	UpdateMessageStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status string) (*models.Message, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Store {
	return &repository{pool: pool}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRoom(row scanner) (*models.ChatRoom, error) {
	var r models.ChatRoom
	if err := row.Scan(&r.ID, &r.Participant1ID, &r.Participant2ID, &r.BookingID, &r.SkillID, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func scanMessage(row scanner) (*models.Message, error) {
	var m models.Message
	if err := row.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Type, &m.Status, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func noRows(err error, entity string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(entity)
	}
	return err
}

func (r *repository) CreateRoom(ctx context.Context, room *models.ChatRoom) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chat_rooms (id, participant1_id, participant2_id, booking_id, skill_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, room.ID, room.Participant1ID, room.Participant2ID, room.BookingID, room.SkillID).Scan(&room.CreatedAt, &room.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return apperr.Conflict("chat room already exists")
		case "23503":
			return apperr.NotFound("room reference")
		}
	}
	return err
}

// FindRoomByPair returns the room shared by a and b regardless of order.
func (r *repository) FindRoomByPair(ctx context.Context, a, b uuid.UUID) (*models.ChatRoom, error) {
	room, err := scanRoom(r.pool.QueryRow(ctx, `
		SELECT `+roomColumns+` FROM chat_rooms
		WHERE (participant1_id = $1 AND participant2_id = $2)
		   OR (participant1_id = $2 AND participant2_id = $1)
	`, a, b))
	return room, noRows(err, "chat room")
}

func (r *repository) GetRoom(ctx context.Context, id uuid.UUID) (*models.ChatRoom, error) {
	room, err := scanRoom(r.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM chat_rooms WHERE id = $1`, id))
	return room, noRows(err, "chat room")
}

// ListRooms returns the caller's rooms, most recently active first.
func (r *repository) ListRooms(ctx context.Context, userID uuid.UUID) ([]*models.ChatRoom, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+roomColumns+` FROM chat_rooms
		WHERE participant1_id = $1 OR participant2_id = $1
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.ChatRoom
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, room)
	}
	return list, rows.Err()
}

func (r *repository) InsertMessageTx(ctx context.Context, tx pgx.Tx, m *models.Message) error {
	return tx.QueryRow(ctx, `
		INSERT INTO messages (id, room_id, sender_id, receiver_id, content, type, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, m.ID, m.RoomID, m.SenderID, m.ReceiverID, m.Content, m.Type, m.Status).Scan(&m.CreatedAt)
}

func (r *repository) TouchRoomTx(ctx context.Context, tx pgx.Tx, roomID uuid.UUID) error {
	_, err := tx.Exec(ctx, `UPDATE chat_rooms SET updated_at = now() WHERE id = $1`, roomID)
	return err
}

// ListMessages returns the room's messages in the order they were written.
func (r *repository) ListMessages(ctx context.Context, roomID uuid.UUID) ([]*models.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+messageColumns+` FROM messages WHERE room_id = $1 ORDER BY created_at, id
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func (r *repository) GetMessageForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Message, error) {
	m, err := scanMessage(tx.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1 FOR UPDATE`, id))
	return m, noRows(err, "message")
}

func (r *repository) UpdateMessageStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status string) (*models.Message, error) {
	m, err := scanMessage(tx.QueryRow(ctx, `
		UPDATE messages SET status = $2 WHERE id = $1
		RETURNING `+messageColumns, id, status))
	return m, noRows(err, "message")
}
