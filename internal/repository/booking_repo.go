package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skillshare/backend/internal/models"
)

const bookingColumns = `id, skill_id, learner_id, start_time, end_time, status, price_credits, notes, created_at, updated_at`

type BookingRepo struct {
	pool *pgxpool.Pool
}

func NewBookingRepo(pool *pgxpool.Pool) *BookingRepo {
	return &BookingRepo{pool: pool}
}

func scanBooking(row scanner) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(&b.ID, &b.SkillID, &b.LearnerID, &b.StartTime, &b.EndTime, &b.Status, &b.PriceCredits, &b.Notes, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateTx inserts a booking inside the caller's transaction.
func (r *BookingRepo) CreateTx(ctx context.Context, tx pgx.Tx, b *models.Booking) error {
	return tx.QueryRow(ctx, `
		INSERT INTO bookings (id, skill_id, learner_id, start_time, end_time, status, price_credits, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, b.ID, b.SkillID, b.LearnerID, b.StartTime, b.EndTime, b.Status, b.PriceCredits, b.Notes).Scan(&b.CreatedAt, &b.UpdatedAt)
}

func (r *BookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	b, err := scanBooking(r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	return b, notFound(err, "booking")
}

// GetByIDForUpdate locks the booking row. Call within a transaction.
func (r *BookingRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Booking, error) {
	b, err := scanBooking(tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id))
	return b, notFound(err, "booking")
}

func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status string) (*models.Booking, error) {
	b, err := scanBooking(tx.QueryRow(ctx, `
		UPDATE bookings SET status = $2, updated_at = now() WHERE id = $1
		RETURNING `+bookingColumns, id, status))
	return b, notFound(err, "booking")
}

func (r *BookingRepo) ListByLearner(ctx context.Context, learnerID uuid.UUID) ([]*models.Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+` FROM bookings WHERE learner_id = $1 ORDER BY start_time DESC
	`, learnerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return list, rows.Err()
}
