package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
)

// PostgresAPIKeyRepository implements the APIKeyRepository interface
type PostgresAPIKeyRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewAPIKeyRepository creates a new API key repository
func NewAPIKeyRepository(config *RepositoryConfig) repositories.APIKeyRepository {
	return &PostgresAPIKeyRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a new API key row
func (r *PostgresAPIKeyRepository) Create(ctx context.Context, key *models.APIKey) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, key_hash, name, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, r.tables.APIKeys)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		key.ID,
		key.UserID,
		key.KeyHash,
		key.Name,
		key.CreatedAt,
	)
	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("api key: %w", domain.ErrConflict)
		}
		return fmt.Errorf("create api key: %w", err)
	}

	return nil
}

// GetByHash returns the key row matching the hash, revoked or not
func (r *PostgresAPIKeyRepository) GetByHash(ctx context.Context, keyHash string) (*models.APIKey, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, key_hash, name, created_at, last_used_at, revoked_at
		FROM %s
		WHERE key_hash = $1
	`, r.tables.APIKeys)

	var key models.APIKey
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, keyHash).Scan(
		&key.ID,
		&key.UserID,
		&key.KeyHash,
		&key.Name,
		&key.CreatedAt,
		&key.LastUsedAt,
		&key.RevokedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("api key: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get api key: %w", err)
	}

	return &key, nil
}

// ListForUser returns the user's keys, newest first
func (r *PostgresAPIKeyRepository) ListForUser(ctx context.Context, userID string) ([]models.APIKey, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, key_hash, name, created_at, last_used_at, revoked_at
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, r.tables.APIKeys)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []models.APIKey
	for rows.Next() {
		var key models.APIKey
		err := rows.Scan(
			&key.ID,
			&key.UserID,
			&key.KeyHash,
			&key.Name,
			&key.CreatedAt,
			&key.LastUsedAt,
			&key.RevokedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate api keys: %w", err)
	}

	return keys, nil
}

// Revoke sets revoked_at; already-revoked keys are left as they are
func (r *PostgresAPIKeyRepository) Revoke(ctx context.Context, id, userID string, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET revoked_at = $1
		WHERE id = $2 AND user_id = $3 AND revoked_at IS NULL
	`, r.tables.APIKeys)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, at, id, userID)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("api key %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// TouchLastUsed updates last_used_at
func (r *PostgresAPIKeyRepository) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET last_used_at = $1
		WHERE id = $2
	`, r.tables.APIKeys)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, at, id); err != nil {
		return fmt.Errorf("touch api key: %w", err)
	}

	return nil
}
