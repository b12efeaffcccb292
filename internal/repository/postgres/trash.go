package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
)

// PostgresTrashRepository implements the TrashRepository interface.
// Everything here is scoped to pages owned by the acting user; shared
// pages surface in the owner's trash only.
type PostgresTrashRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewTrashRepository creates a new trash repository
func NewTrashRepository(config *RepositoryConfig) repositories.TrashRepository {
	return &PostgresTrashRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// ListDeletedPages returns the owner's tombstoned pages
func (r *PostgresTrashRepository) ListDeletedPages(ctx context.Context, ownerID string) ([]models.Page, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_user_id, name, starred, position, created_at, deleted_at
		FROM %s
		WHERE owner_user_id = $1 AND deleted_at IS NOT NULL
		ORDER BY deleted_at DESC
	`, r.tables.Pages)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list deleted pages: %w", err)
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
			&page.DeletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan deleted page: %w", err)
		}
		pages = append(pages, page)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deleted pages: %w", err)
	}

	return pages, nil
}

// ListDeletedSections returns tombstoned sections under the owner's
// pages along with the page-liveness flag
func (r *PostgresTrashRepository) ListDeletedSections(ctx context.Context, ownerID string) ([]repositories.DeletedSection, error) {
	query := fmt.Sprintf(`
		SELECT s.id, s.page_id, s.name, s.position, s.created_at, s.deleted_at,
		       p.deleted_at IS NOT NULL
		FROM %s s
		JOIN %s p ON p.id = s.page_id
		WHERE p.owner_user_id = $1 AND s.deleted_at IS NOT NULL
		ORDER BY s.deleted_at DESC
	`, r.tables.Sections, r.tables.Pages)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list deleted sections: %w", err)
	}
	defer rows.Close()

	var sections []repositories.DeletedSection
	for rows.Next() {
		var section repositories.DeletedSection
		err := rows.Scan(
			&section.ID,
			&section.PageID,
			&section.Name,
			&section.Position,
			&section.CreatedAt,
			&section.DeletedAt,
			&section.PageDeleted,
		)
		if err != nil {
			return nil, fmt.Errorf("scan deleted section: %w", err)
		}
		sections = append(sections, section)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deleted sections: %w", err)
	}

	return sections, nil
}

// ListDeletedNotes returns tombstoned notes under the owner's pages
// along with ancestor-liveness flags
func (r *PostgresTrashRepository) ListDeletedNotes(ctx context.Context, ownerID string) ([]repositories.DeletedNote, error) {
	query := fmt.Sprintf(`
		SELECT n.id, n.section_id, n.content, n.tags, n.date, n.completed,
		       n.completed_by_user_id, n.completed_at, n.created_by_user_id, n.created_at, n.deleted_at,
		       s.page_id, s.deleted_at IS NOT NULL, p.deleted_at IS NOT NULL
		FROM %s n
		JOIN %s s ON s.id = n.section_id
		JOIN %s p ON p.id = s.page_id
		WHERE p.owner_user_id = $1 AND n.deleted_at IS NOT NULL
		ORDER BY n.deleted_at DESC
	`, r.tables.Notes, r.tables.Sections, r.tables.Pages)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list deleted notes: %w", err)
	}
	defer rows.Close()

	var notes []repositories.DeletedNote
	for rows.Next() {
		var note repositories.DeletedNote
		err := rows.Scan(
			&note.ID,
			&note.SectionID,
			&note.Content,
			&note.Tags,
			&note.Date,
			&note.Completed,
			&note.CompletedByUserID,
			&note.CompletedAt,
			&note.CreatedByUserID,
			&note.CreatedAt,
			&note.DeletedAt,
			&note.PageID,
			&note.SectionDeleted,
			&note.PageDeleted,
		)
		if err != nil {
			return nil, fmt.Errorf("scan deleted note: %w", err)
		}
		if note.Tags == nil {
			note.Tags = []string{}
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deleted notes: %w", err)
	}

	return notes, nil
}

// GetDeletedPage returns a tombstoned page owned by ownerID
func (r *PostgresTrashRepository) GetDeletedPage(ctx context.Context, id, ownerID string) (*models.Page, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_user_id, name, starred, position, created_at, deleted_at
		FROM %s
		WHERE id = $1 AND owner_user_id = $2 AND deleted_at IS NOT NULL
	`, r.tables.Pages)

	var page models.Page
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, ownerID).Scan(
		&page.ID,
		&page.OwnerUserID,
		&page.Name,
		&page.Starred,
		&page.Position,
		&page.CreatedAt,
		&page.DeletedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("deleted page %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get deleted page: %w", err)
	}

	return &page, nil
}

// GetDeletedSection returns a tombstoned section under the owner's pages
func (r *PostgresTrashRepository) GetDeletedSection(ctx context.Context, id, ownerID string) (*repositories.DeletedSection, error) {
	query := fmt.Sprintf(`
		SELECT s.id, s.page_id, s.name, s.position, s.created_at, s.deleted_at,
		       p.deleted_at IS NOT NULL
		FROM %s s
		JOIN %s p ON p.id = s.page_id
		WHERE s.id = $1 AND p.owner_user_id = $2 AND s.deleted_at IS NOT NULL
	`, r.tables.Sections, r.tables.Pages)

	var section repositories.DeletedSection
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, ownerID).Scan(
		&section.ID,
		&section.PageID,
		&section.Name,
		&section.Position,
		&section.CreatedAt,
		&section.DeletedAt,
		&section.PageDeleted,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("deleted section %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get deleted section: %w", err)
	}

	return &section, nil
}

// GetDeletedNote returns a tombstoned note under the owner's pages
func (r *PostgresTrashRepository) GetDeletedNote(ctx context.Context, id, ownerID string) (*repositories.DeletedNote, error) {
	query := fmt.Sprintf(`
		SELECT n.id, n.section_id, n.content, n.tags, n.date, n.completed,
		       n.completed_by_user_id, n.completed_at, n.created_by_user_id, n.created_at, n.deleted_at,
		       s.page_id, s.deleted_at IS NOT NULL, p.deleted_at IS NOT NULL
		FROM %s n
		JOIN %s s ON s.id = n.section_id
		JOIN %s p ON p.id = s.page_id
		WHERE n.id = $1 AND p.owner_user_id = $2 AND n.deleted_at IS NOT NULL
	`, r.tables.Notes, r.tables.Sections, r.tables.Pages)

	var note repositories.DeletedNote
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, ownerID).Scan(
		&note.ID,
		&note.SectionID,
		&note.Content,
		&note.Tags,
		&note.Date,
		&note.Completed,
		&note.CompletedByUserID,
		&note.CompletedAt,
		&note.CreatedByUserID,
		&note.CreatedAt,
		&note.DeletedAt,
		&note.PageID,
		&note.SectionDeleted,
		&note.PageDeleted,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("deleted note %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get deleted note: %w", err)
	}
	if note.Tags == nil {
		note.Tags = []string{}
	}

	return &note, nil
}

// RestorePage clears the page tombstone and every tombstoned descendant
func (r *PostgresTrashRepository) RestorePage(ctx context.Context, id string) error {
	executor := GetExecutor(ctx, r.pool)

	clearPage := fmt.Sprintf(`UPDATE %s SET deleted_at = NULL WHERE id = $1`, r.tables.Pages)
	result, err := executor.Exec(ctx, clearPage, id)
	if err != nil {
		return fmt.Errorf("restore page: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("page %s: %w", id, domain.ErrNotFound)
	}

	clearNotes := fmt.Sprintf(`
		UPDATE %s SET deleted_at = NULL
		WHERE deleted_at IS NOT NULL
		  AND section_id IN (SELECT id FROM %s WHERE page_id = $1)
	`, r.tables.Notes, r.tables.Sections)
	if _, err := executor.Exec(ctx, clearNotes, id); err != nil {
		return fmt.Errorf("restore page notes: %w", err)
	}

	clearSections := fmt.Sprintf(`
		UPDATE %s SET deleted_at = NULL
		WHERE page_id = $1 AND deleted_at IS NOT NULL
	`, r.tables.Sections)
	if _, err := executor.Exec(ctx, clearSections, id); err != nil {
		return fmt.Errorf("restore page sections: %w", err)
	}

	return nil
}

// RestoreSection clears the section tombstone and its tombstoned notes.
// A tombstoned parent page is left as is.
func (r *PostgresTrashRepository) RestoreSection(ctx context.Context, id string) error {
	executor := GetExecutor(ctx, r.pool)

	clearSection := fmt.Sprintf(`UPDATE %s SET deleted_at = NULL WHERE id = $1`, r.tables.Sections)
	result, err := executor.Exec(ctx, clearSection, id)
	if err != nil {
		return fmt.Errorf("restore section: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("section %s: %w", id, domain.ErrNotFound)
	}

	clearNotes := fmt.Sprintf(`
		UPDATE %s SET deleted_at = NULL
		WHERE section_id = $1 AND deleted_at IS NOT NULL
	`, r.tables.Notes)
	if _, err := executor.Exec(ctx, clearNotes, id); err != nil {
		return fmt.Errorf("restore section notes: %w", err)
	}

	return nil
}

// RestoreNote clears the note tombstone
func (r *PostgresTrashRepository) RestoreNote(ctx context.Context, id string) error {
	query := fmt.Sprintf(`UPDATE %s SET deleted_at = NULL WHERE id = $1`, r.tables.Notes)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("restore note: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// PurgePage hard-deletes the page subtree bottom-up
func (r *PostgresTrashRepository) PurgePage(ctx context.Context, id string) error {
	executor := GetExecutor(ctx, r.pool)

	deleteNotes := fmt.Sprintf(`
		DELETE FROM %s
		WHERE section_id IN (SELECT id FROM %s WHERE page_id = $1)
	`, r.tables.Notes, r.tables.Sections)
	if _, err := executor.Exec(ctx, deleteNotes, id); err != nil {
		return fmt.Errorf("purge page notes: %w", err)
	}

	deleteSections := fmt.Sprintf(`DELETE FROM %s WHERE page_id = $1`, r.tables.Sections)
	if _, err := executor.Exec(ctx, deleteSections, id); err != nil {
		return fmt.Errorf("purge page sections: %w", err)
	}

	deletePage := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Pages)
	result, err := executor.Exec(ctx, deletePage, id)
	if err != nil {
		return fmt.Errorf("purge page: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("page %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// PurgeSection hard-deletes the section and its notes
func (r *PostgresTrashRepository) PurgeSection(ctx context.Context, id string) error {
	executor := GetExecutor(ctx, r.pool)

	deleteNotes := fmt.Sprintf(`DELETE FROM %s WHERE section_id = $1`, r.tables.Notes)
	if _, err := executor.Exec(ctx, deleteNotes, id); err != nil {
		return fmt.Errorf("purge section notes: %w", err)
	}

	deleteSection := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Sections)
	result, err := executor.Exec(ctx, deleteSection, id)
	if err != nil {
		return fmt.Errorf("purge section: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("section %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// PurgeNote hard-deletes the note
func (r *PostgresTrashRepository) PurgeNote(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Notes)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("purge note: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// EmptyTrash permanently deletes every tombstoned row under the owner's
// pages, bottom-up. Children of tombstoned parents go with them even
// when live themselves, so no orphan rows remain.
func (r *PostgresTrashRepository) EmptyTrash(ctx context.Context, ownerID string) error {
	executor := GetExecutor(ctx, r.pool)

	deleteNotes := fmt.Sprintf(`
		DELETE FROM %s n
		USING %s s, %s p
		WHERE s.id = n.section_id AND p.id = s.page_id AND p.owner_user_id = $1
		  AND (n.deleted_at IS NOT NULL OR s.deleted_at IS NOT NULL OR p.deleted_at IS NOT NULL)
	`, r.tables.Notes, r.tables.Sections, r.tables.Pages)
	if _, err := executor.Exec(ctx, deleteNotes, ownerID); err != nil {
		return fmt.Errorf("empty trash notes: %w", err)
	}

	deleteSections := fmt.Sprintf(`
		DELETE FROM %s s
		USING %s p
		WHERE p.id = s.page_id AND p.owner_user_id = $1
		  AND (s.deleted_at IS NOT NULL OR p.deleted_at IS NOT NULL)
	`, r.tables.Sections, r.tables.Pages)
	if _, err := executor.Exec(ctx, deleteSections, ownerID); err != nil {
		return fmt.Errorf("empty trash sections: %w", err)
	}

	deletePages := fmt.Sprintf(`
		DELETE FROM %s
		WHERE owner_user_id = $1 AND deleted_at IS NOT NULL
	`, r.tables.Pages)
	if _, err := executor.Exec(ctx, deletePages, ownerID); err != nil {
		return fmt.Errorf("empty trash pages: %w", err)
	}

	return nil
}
