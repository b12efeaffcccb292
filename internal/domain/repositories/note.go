package repositories

import (
	"context"
	"time"

	"inkwell/internal/domain/models"
)

// NoteFilter narrows a note listing. UserID is mandatory; all reads are
// permission-scoped to the user's visible sections.
type NoteFilter struct {
	UserID    string
	SectionID string
	PageID    string
	Completed *bool
	Tags      []string // overlap match; empty means no tag filtering
	DateFrom  *time.Time
	DateTo    *time.Time
	Search    string // case-insensitive content substring
	Limit     int
}

// NoteRepository handles note persistence. Reads exclude tombstoned
// rows and rows under tombstoned ancestors, and are scoped to pages the
// user owns or has a non-declined permission on.
type NoteRepository interface {
	Create(ctx context.Context, note *models.Note) error

	// GetByID retrieves a live, ancestor-live note without permission
	// filtering; authorization happens in the service layer.
	GetByID(ctx context.Context, id string) (*models.Note, error)

	// List returns visible notes matching the filter, created_at
	// descending. The filter's Limit must already be clamped.
	List(ctx context.Context, filter NoteFilter) ([]models.Note, error)

	// Count returns the total matching the filter ignoring Limit.
	Count(ctx context.Context, filter NoteFilter) (int, error)

	// ListBySection returns all live notes of a section, created_at
	// descending, without permission filtering. Used by the reconcile
	// path, which gates on ownership before calling.
	ListBySection(ctx context.Context, sectionID string) ([]models.Note, error)

	Update(ctx context.Context, note *models.Note) error

	SoftDelete(ctx context.Context, id string, at time.Time) error

	// TagsForUser returns the sorted unique tags across the user's
	// visible notes.
	TagsForUser(ctx context.Context, userID string) ([]string, error)
}
