package repositories

import (
	"context"

	"inkwell/internal/domain/models"
)

// PermissionRepository handles share grants. One row per (page, user).
type PermissionRepository interface {
	// Upsert creates or replaces the grant for (page, user).
	Upsert(ctx context.Context, perm *models.Permission) error

	// Get returns the grant for (page, user), or ErrNotFound.
	Get(ctx context.Context, pageID, userID string) (*models.Permission, error)

	ListForPage(ctx context.Context, pageID string) ([]models.Permission, error)

	// SetStatus transitions the invitee's status (accept/decline).
	SetStatus(ctx context.Context, pageID, userID string, status models.PermissionStatus) error

	Delete(ctx context.Context, pageID, userID string) error

	// UserIDsWithAccess returns the owner plus every user holding a
	// non-declined grant on the page. Used for cache invalidation.
	UserIDsWithAccess(ctx context.Context, pageID string) ([]string, error)
}
