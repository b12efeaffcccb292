package repositories

import (
	"context"
	"time"

	"inkwell/internal/domain/models"
)

// APIKeyRepository handles API key persistence. Only key hashes are
// stored; lookup is by hash.
type APIKeyRepository interface {
	Create(ctx context.Context, key *models.APIKey) error

	// GetByHash returns the key row matching the hash, revoked or not.
	GetByHash(ctx context.Context, keyHash string) (*models.APIKey, error)

	ListForUser(ctx context.Context, userID string) ([]models.APIKey, error)

	// Revoke sets revoked_at; revoking an already-revoked key is a no-op.
	Revoke(ctx context.Context, id, userID string, at time.Time) error

	TouchLastUsed(ctx context.Context, id string, at time.Time) error
}
