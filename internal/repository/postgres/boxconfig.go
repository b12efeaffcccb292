package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
)

// PostgresBoxConfigRepository implements the BoxConfigRepository interface
type PostgresBoxConfigRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewBoxConfigRepository creates a new box config repository
func NewBoxConfigRepository(config *RepositoryConfig) repositories.BoxConfigRepository {
	return &PostgresBoxConfigRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Get retrieves the config for (user, context)
func (r *PostgresBoxConfigRepository) Get(ctx context.Context, userID, contextID string) (*models.BoxConfig, error) {
	query := fmt.Sprintf(`
		SELECT user_id, context_id, config, updated_at
		FROM %s
		WHERE user_id = $1 AND context_id = $2
	`, r.tables.BoxConfigs)

	var config models.BoxConfig
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, userID, contextID).Scan(
		&config.UserID,
		&config.ContextID,
		&config.Config,
		&config.UpdatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("box config %s: %w", contextID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get box config: %w", err)
	}

	return &config, nil
}

// Put upserts the config for (user, context)
func (r *PostgresBoxConfigRepository) Put(ctx context.Context, config *models.BoxConfig) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, context_id, config, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, context_id)
		DO UPDATE SET config = EXCLUDED.config, updated_at = EXCLUDED.updated_at
	`, r.tables.BoxConfigs)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		config.UserID,
		config.ContextID,
		config.Config,
		config.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("put box config: %w", err)
	}

	return nil
}
