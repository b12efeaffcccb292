package repositories

import (
	"context"

	"inkwell/internal/domain/models"
)

// UserRepository mirrors identity-provider users locally.
type UserRepository interface {
	// Upsert inserts the user or refreshes the email on conflict.
	Upsert(ctx context.Context, user *models.User) error

	GetByID(ctx context.Context, id string) (*models.User, error)

	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
