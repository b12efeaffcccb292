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

// PostgresSectionRepository implements the SectionRepository interface
type PostgresSectionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewSectionRepository creates a new section repository
func NewSectionRepository(config *RepositoryConfig) repositories.SectionRepository {
	return &PostgresSectionRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a new section
func (r *PostgresSectionRepository) Create(ctx context.Context, section *models.Section) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, page_id, name, position, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, r.tables.Sections)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		section.ID,
		section.PageID,
		section.Name,
		section.Position,
		section.CreatedAt,
	)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("page %s: %w", section.PageID, domain.ErrNotFound)
		}
		if IsPgDuplicateError(err) {
			return fmt.Errorf("section %s: %w", section.ID, domain.ErrConflict)
		}
		return fmt.Errorf("create section: %w", err)
	}

	return nil
}

// GetByID retrieves a live section by ID
func (r *PostgresSectionRepository) GetByID(ctx context.Context, id string) (*models.Section, error) {
	query := fmt.Sprintf(`
		SELECT id, page_id, name, position, created_at
		FROM %s
		WHERE id = $1 AND deleted_at IS NULL
	`, r.tables.Sections)

	var section models.Section
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&section.ID,
		&section.PageID,
		&section.Name,
		&section.Position,
		&section.CreatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("section %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get section: %w", err)
	}

	return &section, nil
}

// ListByPage returns live sections of a page ordered by position
func (r *PostgresSectionRepository) ListByPage(ctx context.Context, pageID string) ([]models.Section, error) {
	query := fmt.Sprintf(`
		SELECT id, page_id, name, position, created_at
		FROM %s
		WHERE page_id = $1 AND deleted_at IS NULL
		ORDER BY position ASC, created_at ASC
	`, r.tables.Sections)

	return r.querySections(ctx, query, pageID)
}

// FindByName returns live sections matching name case-insensitively,
// ordered by position then created_at for a deterministic tie-break.
func (r *PostgresSectionRepository) FindByName(ctx context.Context, pageID, name string) ([]models.Section, error) {
	query := fmt.Sprintf(`
		SELECT id, page_id, name, position, created_at
		FROM %s
		WHERE page_id = $1 AND LOWER(name) = LOWER($2) AND deleted_at IS NULL
		ORDER BY position ASC, created_at ASC
	`, r.tables.Sections)

	return r.querySections(ctx, query, pageID, name)
}

func (r *PostgresSectionRepository) querySections(ctx context.Context, query string, args ...interface{}) ([]models.Section, error) {
	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	var sections []models.Section
	for rows.Next() {
		var section models.Section
		err := rows.Scan(
			&section.ID,
			&section.PageID,
			&section.Name,
			&section.Position,
			&section.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sections = append(sections, section)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}

	return sections, nil
}

// Update persists name and position
func (r *PostgresSectionRepository) Update(ctx context.Context, section *models.Section) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, position = $2
		WHERE id = $3 AND deleted_at IS NULL
	`, r.tables.Sections)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		section.Name,
		section.Position,
		section.ID,
	)
	if err != nil {
		return fmt.Errorf("update section: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("section %s: %w", section.ID, domain.ErrNotFound)
	}

	return nil
}

// SoftDelete tombstones the section. Notes under it are left untouched.
func (r *PostgresSectionRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`, r.tables.Sections)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("delete section: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("section %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// MaxPosition returns the highest position among the page's live
// sections, or -1 if none
func (r *PostgresSectionRepository) MaxPosition(ctx context.Context, pageID string) (int, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(MAX(position), -1)
		FROM %s
		WHERE page_id = $1 AND deleted_at IS NULL
	`, r.tables.Sections)

	var max int
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, pageID).Scan(&max); err != nil {
		return 0, fmt.Errorf("max section position: %w", err)
	}

	return max, nil
}
