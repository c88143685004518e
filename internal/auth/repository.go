package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/skillshare/backend/internal/models"
)

// Users is the part of the user repository auth depends on.
// *repository.UserRepo satisfies it.
type Users interface {
	CreateTx(ctx context.Context, tx pgx.Tx, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
