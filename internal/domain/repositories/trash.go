package repositories

import (
	"context"

	"inkwell/internal/domain/models"
)

// DeletedSection is a tombstoned section plus the liveness of its
// ancestor, so callers can tell orphan deletions from cascaded ones.
type DeletedSection struct {
	models.Section
	PageDeleted bool
}

// DeletedNote is a tombstoned note plus the liveness of its ancestors.
// PageID is carried alongside so restore and purge can invalidate the
// page's tag projections without another lookup.
type DeletedNote struct {
	models.Note
	PageID         string
	SectionDeleted bool
	PageDeleted    bool
}

// TrashRepository is the persistence view over tombstoned rows. All
// operations are scoped to pages owned by the given user.
type TrashRepository interface {
	ListDeletedPages(ctx context.Context, ownerID string) ([]models.Page, error)
	ListDeletedSections(ctx context.Context, ownerID string) ([]DeletedSection, error)
	ListDeletedNotes(ctx context.Context, ownerID string) ([]DeletedNote, error)

	// GetDeletedPage returns a tombstoned page owned by ownerID.
	GetDeletedPage(ctx context.Context, id, ownerID string) (*models.Page, error)
	// GetDeletedSection returns a tombstoned section under the owner's
	// pages, with the page-liveness flag.
	GetDeletedSection(ctx context.Context, id, ownerID string) (*DeletedSection, error)
	GetDeletedNote(ctx context.Context, id, ownerID string) (*DeletedNote, error)

	// RestorePage clears deleted_at on the page and on every tombstoned
	// descendant. RestoreSection and RestoreNote do the same for their
	// subtrees; neither touches a tombstoned parent.
	RestorePage(ctx context.Context, id string) error
	RestoreSection(ctx context.Context, id string) error
	RestoreNote(ctx context.Context, id string) error

	// PurgePage hard-deletes the page subtree bottom-up (notes,
	// sections, page). PurgeSection and PurgeNote do the same for their
	// scope. Irreversible.
	PurgePage(ctx context.Context, id string) error
	PurgeSection(ctx context.Context, id string) error
	PurgeNote(ctx context.Context, id string) error

	// EmptyTrash permanently deletes every tombstoned row under the
	// owner's pages, bottom-up. Irreversible.
	EmptyTrash(ctx context.Context, ownerID string) error
}
