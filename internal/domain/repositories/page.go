package repositories

import (
	"context"
	"time"

	"inkwell/internal/domain/models"
)

// PageRepository handles page persistence. Reads exclude tombstoned
// rows unless a method says otherwise.
type PageRepository interface {
	Create(ctx context.Context, page *models.Page) error

	// GetByID retrieves a live page without permission filtering.
	GetByID(ctx context.Context, id string) (*models.Page, error)

	// ListForUser returns live pages the user owns or has a non-declined
	// permission on, owner-first then by position, with the MyRole,
	// PermissionStatus and OwnerEmail projections populated.
	ListForUser(ctx context.Context, userID string) ([]models.Page, error)

	// ListOwnedByUser returns the user's own live pages by position.
	ListOwnedByUser(ctx context.Context, userID string) ([]models.Page, error)

	// Update persists name, starred and position.
	Update(ctx context.Context, page *models.Page) error

	SoftDelete(ctx context.Context, id string, at time.Time) error

	// MaxPosition returns the highest position among the user's live
	// pages, or -1 if none.
	MaxPosition(ctx context.Context, userID string) (int, error)
}
