package repositories

import (
	"context"

	"inkwell/internal/domain/models"
)

// BoxConfigRepository stores per-user, per-context view preferences.
type BoxConfigRepository interface {
	Get(ctx context.Context, userID, contextID string) (*models.BoxConfig, error)

	// Put upserts the config for (user, context).
	Put(ctx context.Context, config *models.BoxConfig) error
}
