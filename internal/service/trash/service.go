package trash

import (
	"context"
	"fmt"
	"log/slog"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
)

// Contents is the owner's trash view, split by level. Sections under a
// tombstoned page and notes under a tombstoned ancestor are filtered
// out: they restore or purge with their parent.
type Contents struct {
	Pages    []models.Page    `json:"pages"`
	Sections []models.Section `json:"sections"`
	Notes    []models.Note    `json:"notes"`
}

// TagCache is the slice of the tag cache the trash path needs. Restores
// and purges change which notes are visible, so the cached projections
// of everyone with access go stale.
type TagCache interface {
	Invalidate(ctx context.Context, userIDs ...string)
}

// Service exposes the owner-only trash operations: list, restore,
// purge, and empty. All of them are scoped to pages the caller owns.
type Service struct {
	repo      repositories.TrashRepository
	permRepo  repositories.PermissionRepository
	txManager repositories.TransactionManager
	cache     TagCache
	logger    *slog.Logger
}

// NewService creates a new trash service
func NewService(repo repositories.TrashRepository, permRepo repositories.PermissionRepository, txManager repositories.TransactionManager, cache TagCache, logger *slog.Logger) *Service {
	return &Service{repo: repo, permRepo: permRepo, txManager: txManager, cache: cache, logger: logger}
}

// List returns the user's trash. Only orphan deletions appear: a row
// whose ancestor is itself tombstoned is represented by that ancestor.
func (s *Service) List(ctx context.Context, userID string) (*Contents, error) {
	pages, err := s.repo.ListDeletedPages(ctx, userID)
	if err != nil {
		return nil, err
	}
	deletedSections, err := s.repo.ListDeletedSections(ctx, userID)
	if err != nil {
		return nil, err
	}
	deletedNotes, err := s.repo.ListDeletedNotes(ctx, userID)
	if err != nil {
		return nil, err
	}

	contents := &Contents{
		Pages:    pages,
		Sections: make([]models.Section, 0, len(deletedSections)),
		Notes:    make([]models.Note, 0, len(deletedNotes)),
	}
	for _, section := range deletedSections {
		if section.PageDeleted {
			continue
		}
		contents.Sections = append(contents.Sections, section.Section)
	}
	for _, note := range deletedNotes {
		if note.SectionDeleted || note.PageDeleted {
			continue
		}
		contents.Notes = append(contents.Notes, note.Note)
	}
	return contents, nil
}

// RestorePage brings a tombstoned page back along with every tombstoned
// descendant.
func (s *Service) RestorePage(ctx context.Context, userID, pageID string) error {
	if _, err := s.repo.GetDeletedPage(ctx, pageID, userID); err != nil {
		return err
	}
	audience := s.projectionAudience(ctx, pageID)
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		return s.repo.RestorePage(ctx, pageID)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, audience)
	s.logger.Info("page restored", "page_id", pageID, "user_id", userID)
	return nil
}

// RestoreSection brings back a tombstoned section and its notes. A
// section whose page is also tombstoned cannot be restored on its own.
func (s *Service) RestoreSection(ctx context.Context, userID, sectionID string) error {
	section, err := s.repo.GetDeletedSection(ctx, sectionID, userID)
	if err != nil {
		return err
	}
	// A section inside a tombstoned page is not listed in the trash;
	// it restores with the page.
	if section.PageDeleted {
		return fmt.Errorf("section %s: %w", sectionID, domain.ErrNotFound)
	}
	audience := s.projectionAudience(ctx, section.PageID)
	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		return s.repo.RestoreSection(ctx, sectionID)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, audience)
	s.logger.Info("section restored", "section_id", sectionID, "user_id", userID)
	return nil
}

// RestoreNote brings back a single tombstoned note. A note under a
// tombstoned ancestor restores with that ancestor, not on its own.
func (s *Service) RestoreNote(ctx context.Context, userID, noteID string) error {
	note, err := s.repo.GetDeletedNote(ctx, noteID, userID)
	if err != nil {
		return err
	}
	if note.SectionDeleted || note.PageDeleted {
		return fmt.Errorf("note %s: %w", noteID, domain.ErrNotFound)
	}
	audience := s.projectionAudience(ctx, note.PageID)
	if err := s.repo.RestoreNote(ctx, noteID); err != nil {
		return err
	}
	s.invalidate(ctx, audience)
	s.logger.Info("note restored", "note_id", noteID, "user_id", userID)
	return nil
}

// PurgePage permanently deletes a tombstoned page and its full subtree
func (s *Service) PurgePage(ctx context.Context, userID, pageID string) error {
	if _, err := s.repo.GetDeletedPage(ctx, pageID, userID); err != nil {
		return err
	}
	// Resolve the audience first; the purge drops the permission rows.
	audience := s.projectionAudience(ctx, pageID)
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		return s.repo.PurgePage(ctx, pageID)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, audience)
	s.logger.Info("page purged", "page_id", pageID, "user_id", userID)
	return nil
}

// PurgeSection permanently deletes a tombstoned section and its notes
func (s *Service) PurgeSection(ctx context.Context, userID, sectionID string) error {
	section, err := s.repo.GetDeletedSection(ctx, sectionID, userID)
	if err != nil {
		return err
	}
	audience := s.projectionAudience(ctx, section.PageID)
	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		return s.repo.PurgeSection(ctx, sectionID)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, audience)
	s.logger.Info("section purged", "section_id", sectionID, "user_id", userID)
	return nil
}

// PurgeNote permanently deletes a tombstoned note
func (s *Service) PurgeNote(ctx context.Context, userID, noteID string) error {
	note, err := s.repo.GetDeletedNote(ctx, noteID, userID)
	if err != nil {
		return err
	}
	audience := s.projectionAudience(ctx, note.PageID)
	if err := s.repo.PurgeNote(ctx, noteID); err != nil {
		return err
	}
	s.invalidate(ctx, audience)
	s.logger.Info("note purged", "note_id", noteID, "user_id", userID)
	return nil
}

// Empty permanently deletes everything in the user's trash
func (s *Service) Empty(ctx context.Context, userID string) error {
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		return s.repo.EmptyTrash(ctx, userID)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, []string{userID})
	s.logger.Info("trash emptied", "user_id", userID)
	return nil
}

func (s *Service) projectionAudience(ctx context.Context, pageID string) []string {
	if s.cache == nil {
		return nil
	}
	userIDs, err := s.permRepo.UserIDsWithAccess(ctx, pageID)
	if err != nil {
		s.logger.Warn("tag cache invalidation skipped", "page_id", pageID, "error", err)
		return nil
	}
	return userIDs
}

func (s *Service) invalidate(ctx context.Context, userIDs []string) {
	if s.cache == nil || len(userIDs) == 0 {
		return
	}
	s.cache.Invalidate(ctx, userIDs...)
}
