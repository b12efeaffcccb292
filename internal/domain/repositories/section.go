package repositories

import (
	"context"
	"time"

	"inkwell/internal/domain/models"
)

// SectionRepository handles section persistence. Reads exclude
// tombstoned rows.
type SectionRepository interface {
	Create(ctx context.Context, section *models.Section) error

	GetByID(ctx context.Context, id string) (*models.Section, error)

	// ListByPage returns live sections of a page ordered by position.
	ListByPage(ctx context.Context, pageID string) ([]models.Section, error)

	// FindByName returns live sections of a page whose name matches
	// case-insensitively, ordered by position then created_at.
	FindByName(ctx context.Context, pageID, name string) ([]models.Section, error)

	Update(ctx context.Context, section *models.Section) error

	SoftDelete(ctx context.Context, id string, at time.Time) error

	// MaxPosition returns the highest position among the page's live
	// sections, or -1 if none.
	MaxPosition(ctx context.Context, pageID string) (int, error)
}
