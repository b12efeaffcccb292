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

// PostgresPageRepository implements the PageRepository interface
type PostgresPageRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewPageRepository creates a new page repository
func NewPageRepository(config *RepositoryConfig) repositories.PageRepository {
	return &PostgresPageRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a new page
func (r *PostgresPageRepository) Create(ctx context.Context, page *models.Page) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, owner_user_id, name, starred, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.tables.Pages)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		page.ID,
		page.OwnerUserID,
		page.Name,
		page.Starred,
		page.Position,
		page.CreatedAt,
	)

	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("page %s: %w", page.ID, domain.ErrConflict)
		}
		return fmt.Errorf("create page: %w", err)
	}

	return nil
}

// GetByID retrieves a live page by ID
func (r *PostgresPageRepository) GetByID(ctx context.Context, id string) (*models.Page, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_user_id, name, starred, position, created_at
		FROM %s
		WHERE id = $1 AND deleted_at IS NULL
	`, r.tables.Pages)

	var page models.Page
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&page.ID,
		&page.OwnerUserID,
		&page.Name,
		&page.Starred,
		&page.Position,
		&page.CreatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("page %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get page: %w", err)
	}

	return &page, nil
}

// ListForUser returns live pages the user owns or has a non-declined
// permission on, owner-first then by position, with role, status and
// owner email projections.
func (r *PostgresPageRepository) ListForUser(ctx context.Context, userID string) ([]models.Page, error) {
	query := fmt.Sprintf(`
		SELECT p.id, p.owner_user_id, p.name, p.starred, p.position, p.created_at,
		       COALESCE(pm.role, ''), COALESCE(pm.status, ''), COALESCE(u.email, '')
		FROM %s p
		LEFT JOIN %s pm ON pm.page_id = p.id AND pm.user_id = $1
		LEFT JOIN %s u ON u.id = p.owner_user_id
		WHERE p.deleted_at IS NULL
		  AND (p.owner_user_id = $1 OR (pm.user_id IS NOT NULL AND pm.status <> 'declined'))
		ORDER BY (p.owner_user_id = $1) DESC, p.position ASC, p.created_at ASC
	`, r.tables.Pages, r.tables.Permissions, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var pages []models.Page
	for rows.Next() {
		var page models.Page
		var role, status, ownerEmail string
		err := rows.Scan(
			&page.ID,
			&page.OwnerUserID,
			&page.Name,
			&page.Starred,
			&page.Position,
			&page.CreatedAt,
			&role,
			&status,
			&ownerEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}

		if page.OwnerUserID == userID {
			page.MyRole = models.RoleOwner
		} else {
			page.MyRole = models.Role(role)
			page.PermissionStatus = models.PermissionStatus(status)
			page.OwnerEmail = ownerEmail
		}
		pages = append(pages, page)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}

	return pages, nil
}

// ListOwnedByUser returns the user's own live pages ordered by position
func (r *PostgresPageRepository) ListOwnedByUser(ctx context.Context, userID string) ([]models.Page, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_user_id, name, starred, position, created_at
		FROM %s
		WHERE owner_user_id = $1 AND deleted_at IS NULL
		ORDER BY position ASC, created_at ASC
	`, r.tables.Pages)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list owned pages: %w", err)
	}
	defer rows.Close()

	var pages []models.Page
	for rows.Next() {
		var page models.Page
		err := rows.Scan(
			&page.ID,
			&page.OwnerUserID,
			&page.Name,
			&page.Starred,
			&page.Position,
			&page.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		page.MyRole = models.RoleOwner
		pages = append(pages, page)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}

	return pages, nil
}

// Update persists name, starred and position
func (r *PostgresPageRepository) Update(ctx context.Context, page *models.Page) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, starred = $2, position = $3
		WHERE id = $4 AND deleted_at IS NULL
	`, r.tables.Pages)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		page.Name,
		page.Starred,
		page.Position,
		page.ID,
	)
	if err != nil {
		return fmt.Errorf("update page: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("page %s: %w", page.ID, domain.ErrNotFound)
	}

	return nil
}

// SoftDelete tombstones the page. Descendants are left untouched; the
// ancestor rule makes them invisible.
func (r *PostgresPageRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`, r.tables.Pages)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("delete page: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("page %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// MaxPosition returns the highest position among the user's live pages,
// or -1 if none
func (r *PostgresPageRepository) MaxPosition(ctx context.Context, userID string) (int, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(MAX(position), -1)
		FROM %s
		WHERE owner_user_id = $1 AND deleted_at IS NULL
	`, r.tables.Pages)

	var max int
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, userID).Scan(&max); err != nil {
		return 0, fmt.Errorf("max page position: %w", err)
	}

	return max, nil
}
