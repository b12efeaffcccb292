package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
)

// PostgresNoteRepository implements the NoteRepository interface
type PostgresNoteRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewNoteRepository creates a new note repository
func NewNoteRepository(config *RepositoryConfig) repositories.NoteRepository {
	return &PostgresNoteRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const noteColumns = `id, section_id, content, tags, date, completed, completed_by_user_id, completed_at, created_by_user_id, created_at`

func scanNote(row interface{ Scan(...any) error }) (*models.Note, error) {
	var note models.Note
	err := row.Scan(
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
	)
	if err != nil {
		return nil, err
	}
	if note.Tags == nil {
		note.Tags = []string{}
	}
	return &note, nil
}

// Create inserts a new note
func (r *PostgresNoteRepository) Create(ctx context.Context, note *models.Note) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, section_id, content, tags, date, completed, completed_by_user_id, completed_at, created_by_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, r.tables.Notes)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		note.ID,
		note.SectionID,
		note.Content,
		note.Tags,
		note.Date,
		note.Completed,
		note.CompletedByUserID,
		note.CompletedAt,
		note.CreatedByUserID,
		note.CreatedAt,
	)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("section %s: %w", note.SectionID, domain.ErrNotFound)
		}
		if IsPgDuplicateError(err) {
			return fmt.Errorf("note %s: %w", note.ID, domain.ErrConflict)
		}
		return fmt.Errorf("create note: %w", err)
	}

	return nil
}

// GetByID retrieves a live note whose ancestors are also live.
// Authorization is the service layer's job.
func (r *PostgresNoteRepository) GetByID(ctx context.Context, id string) (*models.Note, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s n
		WHERE n.id = $1 AND n.deleted_at IS NULL
		  AND EXISTS (
			SELECT 1 FROM %s s
			JOIN %s p ON p.id = s.page_id AND p.deleted_at IS NULL
			WHERE s.id = n.section_id AND s.deleted_at IS NULL
		  )
	`, prefixColumns("n", noteColumns), r.tables.Notes, r.tables.Sections, r.tables.Pages)

	executor := GetExecutor(ctx, r.pool)
	note, err := scanNote(executor.QueryRow(ctx, query, id))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get note: %w", err)
	}

	return note, nil
}

// visibilityClause builds the WHERE fragment every note read carries:
// note, section and page live, and the page visible to the user.
func (r *PostgresNoteRepository) visibilityClause(filter repositories.NoteFilter, args *[]interface{}) string {
	var sb strings.Builder

	*args = append(*args, filter.UserID)
	userArg := len(*args)

	fmt.Fprintf(&sb, `
		n.deleted_at IS NULL
		AND s.deleted_at IS NULL
		AND p.deleted_at IS NULL
		AND (p.owner_user_id = $%d OR EXISTS (
			SELECT 1 FROM %s pm
			WHERE pm.page_id = p.id AND pm.user_id = $%d AND pm.status <> 'declined'
		))`, userArg, r.tables.Permissions, userArg)

	if filter.SectionID != "" {
		*args = append(*args, filter.SectionID)
		fmt.Fprintf(&sb, " AND n.section_id = $%d", len(*args))
	}
	if filter.PageID != "" {
		*args = append(*args, filter.PageID)
		fmt.Fprintf(&sb, " AND s.page_id = $%d", len(*args))
	}
	if filter.Completed != nil {
		*args = append(*args, *filter.Completed)
		fmt.Fprintf(&sb, " AND n.completed = $%d", len(*args))
	}
	if len(filter.Tags) > 0 {
		*args = append(*args, filter.Tags)
		fmt.Fprintf(&sb, " AND n.tags && $%d", len(*args))
	}
	if filter.DateFrom != nil {
		*args = append(*args, *filter.DateFrom)
		fmt.Fprintf(&sb, " AND n.date >= $%d", len(*args))
	}
	if filter.DateTo != nil {
		*args = append(*args, *filter.DateTo)
		fmt.Fprintf(&sb, " AND n.date <= $%d", len(*args))
	}
	if filter.Search != "" {
		*args = append(*args, filter.Search)
		fmt.Fprintf(&sb, " AND n.content ILIKE '%%' || $%d || '%%'", len(*args))
	}

	return sb.String()
}

// List returns visible notes matching the filter, newest first
func (r *PostgresNoteRepository) List(ctx context.Context, filter repositories.NoteFilter) ([]models.Note, error) {
	var args []interface{}
	where := r.visibilityClause(filter, &args)

	args = append(args, filter.Limit)
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s n
		JOIN %s s ON s.id = n.section_id
		JOIN %s p ON p.id = s.page_id
		WHERE %s
		ORDER BY n.created_at DESC
		LIMIT $%d
	`, prefixColumns("n", noteColumns), r.tables.Notes, r.tables.Sections, r.tables.Pages, where, len(args))

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}

	return notes, nil
}

// Count returns the total matching the filter ignoring Limit
func (r *PostgresNoteRepository) Count(ctx context.Context, filter repositories.NoteFilter) (int, error) {
	var args []interface{}
	where := r.visibilityClause(filter, &args)

	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM %s n
		JOIN %s s ON s.id = n.section_id
		JOIN %s p ON p.id = s.page_id
		WHERE %s
	`, r.tables.Notes, r.tables.Sections, r.tables.Pages, where)

	var count int
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count notes: %w", err)
	}

	return count, nil
}

// ListBySection returns all live notes of a section, newest first.
// No permission filtering; callers gate on ownership first.
func (r *PostgresNoteRepository) ListBySection(ctx context.Context, sectionID string) ([]models.Note, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s n
		WHERE n.section_id = $1 AND n.deleted_at IS NULL
		ORDER BY n.created_at DESC
	`, prefixColumns("n", noteColumns), r.tables.Notes)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, sectionID)
	if err != nil {
		return nil, fmt.Errorf("list section notes: %w", err)
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}

	return notes, nil
}

// Update persists content, tags, date and completion fields
func (r *PostgresNoteRepository) Update(ctx context.Context, note *models.Note) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET content = $1, tags = $2, date = $3, completed = $4, completed_by_user_id = $5, completed_at = $6
		WHERE id = $7 AND deleted_at IS NULL
	`, r.tables.Notes)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		note.Content,
		note.Tags,
		note.Date,
		note.Completed,
		note.CompletedByUserID,
		note.CompletedAt,
		note.ID,
	)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("note %s: %w", note.ID, domain.ErrNotFound)
	}

	return nil
}

// SoftDelete tombstones the note
func (r *PostgresNoteRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`, r.tables.Notes)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// TagsForUser returns sorted unique tags across the user's visible notes
func (r *PostgresNoteRepository) TagsForUser(ctx context.Context, userID string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT tag
		FROM %s n
		JOIN %s s ON s.id = n.section_id AND s.deleted_at IS NULL
		JOIN %s p ON p.id = s.page_id AND p.deleted_at IS NULL,
		UNNEST(n.tags) AS tag
		WHERE n.deleted_at IS NULL
		  AND (p.owner_user_id = $1 OR EXISTS (
			SELECT 1 FROM %s pm
			WHERE pm.page_id = p.id AND pm.user_id = $1 AND pm.status <> 'declined'
		  ))
		ORDER BY tag ASC
	`, r.tables.Notes, r.tables.Sections, r.tables.Pages, r.tables.Permissions)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}

	return tags, nil
}

// prefixColumns qualifies a comma-separated column list with an alias.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, part := range parts {
		parts[i] = alias + "." + part
	}
	return strings.Join(parts, ", ")
}
