package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
)

// PostgresPermissionRepository implements the PermissionRepository interface
type PostgresPermissionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewPermissionRepository creates a new permission repository
func NewPermissionRepository(config *RepositoryConfig) repositories.PermissionRepository {
	return &PostgresPermissionRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Upsert creates or replaces the grant for (page, user)
func (r *PostgresPermissionRepository) Upsert(ctx context.Context, perm *models.Permission) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (page_id, user_id, role, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (page_id, user_id)
		DO UPDATE SET role = EXCLUDED.role, status = EXCLUDED.status
	`, r.tables.Permissions)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		perm.PageID,
		perm.UserID,
		perm.Role,
		perm.Status,
		perm.CreatedAt,
	)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("page %s: %w", perm.PageID, domain.ErrNotFound)
		}
		return fmt.Errorf("upsert permission: %w", err)
	}

	return nil
}

// Get returns the grant for (page, user)
func (r *PostgresPermissionRepository) Get(ctx context.Context, pageID, userID string) (*models.Permission, error) {
	query := fmt.Sprintf(`
		SELECT page_id, user_id, role, status, created_at
		FROM %s
		WHERE page_id = $1 AND user_id = $2
	`, r.tables.Permissions)

	var perm models.Permission
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, pageID, userID).Scan(
		&perm.PageID,
		&perm.UserID,
		&perm.Role,
		&perm.Status,
		&perm.CreatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("permission for user %s on page %s: %w", userID, pageID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get permission: %w", err)
	}

	return &perm, nil
}

// ListForPage returns all grants on a page
func (r *PostgresPermissionRepository) ListForPage(ctx context.Context, pageID string) ([]models.Permission, error) {
	query := fmt.Sprintf(`
		SELECT page_id, user_id, role, status, created_at
		FROM %s
		WHERE page_id = $1
		ORDER BY created_at ASC
	`, r.tables.Permissions)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, pageID)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	defer rows.Close()

	var perms []models.Permission
	for rows.Next() {
		var perm models.Permission
		err := rows.Scan(
			&perm.PageID,
			&perm.UserID,
			&perm.Role,
			&perm.Status,
			&perm.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		perms = append(perms, perm)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permissions: %w", err)
	}

	return perms, nil
}

// SetStatus transitions the invitee's status
func (r *PostgresPermissionRepository) SetStatus(ctx context.Context, pageID, userID string, status models.PermissionStatus) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1
		WHERE page_id = $2 AND user_id = $3
	`, r.tables.Permissions)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, status, pageID, userID)
	if err != nil {
		return fmt.Errorf("set permission status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("permission for user %s on page %s: %w", userID, pageID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes the grant (revoke)
func (r *PostgresPermissionRepository) Delete(ctx context.Context, pageID, userID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE page_id = $1 AND user_id = $2
	`, r.tables.Permissions)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, pageID, userID)
	if err != nil {
		return fmt.Errorf("delete permission: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("permission for user %s on page %s: %w", userID, pageID, domain.ErrNotFound)
	}

	return nil
}

// UserIDsWithAccess returns the owner plus every user with a
// non-declined grant on the page
func (r *PostgresPermissionRepository) UserIDsWithAccess(ctx context.Context, pageID string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT owner_user_id FROM %s WHERE id = $1
		UNION
		SELECT user_id FROM %s WHERE page_id = $1 AND status <> 'declined'
	`, r.tables.Pages, r.tables.Permissions)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, pageID)
	if err != nil {
		return nil, fmt.Errorf("list users with access: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		userIDs = append(userIDs, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user ids: %w", err)
	}

	return userIDs, nil
}
