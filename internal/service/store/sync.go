package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"

	"github.com/google/uuid"
)

// SyncService reconciles a full client snapshot of the principal's
// owned pages against the store in one transaction. The diff is keyed
// by id; rows present only in the snapshot are created, rows present
// only on the server are soft-deleted, and rows whose id belongs to
// another owner are skipped.
type SyncService struct {
	pageRepo    repositories.PageRepository
	sectionRepo repositories.SectionRepository
	noteRepo    repositories.NoteRepository
	txManager   repositories.TransactionManager
	tagCache    TagCache
	logger      *slog.Logger
}

// NewSyncService creates a new sync service
func NewSyncService(
	pageRepo repositories.PageRepository,
	sectionRepo repositories.SectionRepository,
	noteRepo repositories.NoteRepository,
	txManager repositories.TransactionManager,
	tagCache TagCache,
	logger *slog.Logger,
) *SyncService {
	return &SyncService{
		pageRepo:    pageRepo,
		sectionRepo: sectionRepo,
		noteRepo:    noteRepo,
		txManager:   txManager,
		tagCache:    tagCache,
		logger:      logger,
	}
}

// Reconcile applies the snapshot for the given user. Positions follow
// snapshot order regardless of what the client claims; the ownership
// gate uses the persisted owner_user_id, never anything the snapshot
// carries. Running the same snapshot twice is a no-op the second time.
func (s *SyncService) Reconcile(ctx context.Context, userID string, snapshot models.Snapshot) (*models.SyncResult, error) {
	for _, page := range snapshot.Pages {
		if page.Name == "" || len(page.Name) > MaxNameLength {
			return nil, fmt.Errorf("%w: page name must be 1-%d characters", domain.ErrValidation, MaxNameLength)
		}
		for _, section := range page.Sections {
			if section.Name == "" || len(section.Name) > MaxNameLength {
				return nil, fmt.Errorf("%w: section name must be 1-%d characters", domain.ErrValidation, MaxNameLength)
			}
			for _, note := range section.Notes {
				if note.Content == "" {
					return nil, fmt.Errorf("%w: note content is required", domain.ErrValidation)
				}
			}
		}
	}

	result := &models.SyncResult{}
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		return s.reconcile(ctx, userID, snapshot, result)
	})
	if err != nil {
		return nil, err
	}

	if s.tagCache != nil && result.Inserted+result.Updated+result.Deleted > 0 {
		s.tagCache.Invalidate(ctx, userID)
	}

	s.logger.Info("snapshot reconciled",
		"user_id", userID,
		"inserted", result.Inserted,
		"updated", result.Updated,
		"deleted", result.Deleted,
		"skipped", result.Skipped)
	return result, nil
}

func (s *SyncService) reconcile(ctx context.Context, userID string, snapshot models.Snapshot, result *models.SyncResult) error {
	now := time.Now().UTC()

	owned, err := s.pageRepo.ListOwnedByUser(ctx, userID)
	if err != nil {
		return err
	}
	ownedByID := make(map[string]*models.Page, len(owned))
	for i := range owned {
		ownedByID[owned[i].ID] = &owned[i]
	}

	seenPages := make(map[string]struct{}, len(snapshot.Pages))
	position := 0
	for _, snapPage := range snapshot.Pages {
		existing, skip, err := s.resolvePage(ctx, ownedByID, snapPage.ID)
		if err != nil {
			return err
		}
		if skip {
			result.Skipped++
			continue
		}

		if existing == nil {
			page := &models.Page{
				ID:          orNewID(snapPage.ID),
				OwnerUserID: userID,
				Name:        snapPage.Name,
				Starred:     snapPage.Starred,
				Position:    position,
				CreatedAt:   now,
			}
			if err := s.pageRepo.Create(ctx, page); err != nil {
				return err
			}
			result.Inserted++
			existing = page
		} else {
			if existing.Name != snapPage.Name || existing.Starred != snapPage.Starred || existing.Position != position {
				existing.Name = snapPage.Name
				existing.Starred = snapPage.Starred
				existing.Position = position
				if err := s.pageRepo.Update(ctx, existing); err != nil {
					return err
				}
				result.Updated++
			}
			seenPages[existing.ID] = struct{}{}
		}
		position++

		if err := s.reconcileSections(ctx, userID, existing.ID, snapPage.Sections, now, result); err != nil {
			return err
		}
	}

	for _, page := range owned {
		if _, ok := seenPages[page.ID]; ok {
			continue
		}
		if err := s.pageRepo.SoftDelete(ctx, page.ID, now); err != nil {
			return err
		}
		result.Deleted++
	}
	return nil
}

// resolvePage decides what a snapshot page id refers to: one of the
// user's own live pages, somebody else's page (skip), or nothing.
func (s *SyncService) resolvePage(ctx context.Context, ownedByID map[string]*models.Page, id string) (*models.Page, bool, error) {
	if id == "" {
		return nil, false, nil
	}
	if page, ok := ownedByID[id]; ok {
		return page, false, nil
	}
	_, err := s.pageRepo.GetByID(ctx, id)
	if err == nil {
		// Live page owned by someone else.
		return nil, true, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return nil, false, nil
	}
	return nil, false, err
}

func (s *SyncService) reconcileSections(ctx context.Context, userID, pageID string, snapSections []models.SnapshotSection, now time.Time, result *models.SyncResult) error {
	existing, err := s.sectionRepo.ListByPage(ctx, pageID)
	if err != nil {
		return err
	}
	existingByID := make(map[string]*models.Section, len(existing))
	for i := range existing {
		existingByID[existing[i].ID] = &existing[i]
	}

	seen := make(map[string]struct{}, len(snapSections))
	for position, snapSection := range snapSections {
		section := existingByID[snapSection.ID]
		if section == nil && snapSection.ID != "" {
			// An id we don't know under this page either belongs to a
			// foreign section or to nothing; only the latter is ours to
			// create.
			if foreign, err := s.sectionForeign(ctx, snapSection.ID, pageID); err != nil {
				return err
			} else if foreign {
				result.Skipped++
				continue
			}
		}

		if section == nil {
			section = &models.Section{
				ID:        orNewID(snapSection.ID),
				PageID:    pageID,
				Name:      snapSection.Name,
				Position:  position,
				CreatedAt: now,
			}
			if err := s.sectionRepo.Create(ctx, section); err != nil {
				return err
			}
			result.Inserted++
		} else {
			if section.Name != snapSection.Name || section.Position != position {
				section.Name = snapSection.Name
				section.Position = position
				if err := s.sectionRepo.Update(ctx, section); err != nil {
					return err
				}
				result.Updated++
			}
			seen[section.ID] = struct{}{}
		}

		if err := s.reconcileNotes(ctx, userID, section.ID, snapSection.Notes, now, result); err != nil {
			return err
		}
	}

	for _, section := range existing {
		if _, ok := seen[section.ID]; ok {
			continue
		}
		if err := s.sectionRepo.SoftDelete(ctx, section.ID, now); err != nil {
			return err
		}
		result.Deleted++
	}
	return nil
}

func (s *SyncService) reconcileNotes(ctx context.Context, userID, sectionID string, snapNotes []models.SnapshotNote, now time.Time, result *models.SyncResult) error {
	existing, err := s.noteRepo.ListBySection(ctx, sectionID)
	if err != nil {
		return err
	}
	existingByID := make(map[string]*models.Note, len(existing))
	for i := range existing {
		existingByID[existing[i].ID] = &existing[i]
	}

	seen := make(map[string]struct{}, len(snapNotes))
	for _, snapNote := range snapNotes {
		note := existingByID[snapNote.ID]
		if note == nil && snapNote.ID != "" {
			if foreign, err := s.noteForeign(ctx, snapNote.ID, sectionID); err != nil {
				return err
			} else if foreign {
				result.Skipped++
				continue
			}
		}

		tags := models.NormalizeTags(snapNote.Tags)
		if note == nil {
			note = &models.Note{
				ID:              orNewID(snapNote.ID),
				SectionID:       sectionID,
				Content:         snapNote.Content,
				Tags:            tags,
				Date:            snapNote.Date,
				Completed:       snapNote.Completed,
				CreatedByUserID: userID,
				CreatedAt:       now,
			}
			applyCompletion(note, snapNote.Completed, userID, now)
			if err := s.noteRepo.Create(ctx, note); err != nil {
				return err
			}
			result.Inserted++
			continue
		}
		seen[note.ID] = struct{}{}

		changed := note.Content != snapNote.Content ||
			!equalTags(note.Tags, tags) ||
			!equalDates(note.Date, snapNote.Date) ||
			note.Completed != snapNote.Completed
		if !changed {
			continue
		}
		note.Content = snapNote.Content
		note.Tags = tags
		note.Date = snapNote.Date
		if note.Completed != snapNote.Completed {
			applyCompletion(note, snapNote.Completed, userID, now)
		}
		if err := s.noteRepo.Update(ctx, note); err != nil {
			return err
		}
		result.Updated++
	}

	for _, note := range existing {
		if _, ok := seen[note.ID]; ok {
			continue
		}
		if err := s.noteRepo.SoftDelete(ctx, note.ID, now); err != nil {
			return err
		}
		result.Deleted++
	}
	return nil
}

func (s *SyncService) sectionForeign(ctx context.Context, id, pageID string) (bool, error) {
	section, err := s.sectionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return section.PageID != pageID, nil
}

func (s *SyncService) noteForeign(ctx context.Context, id, sectionID string) (bool, error) {
	note, err := s.noteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return note.SectionID != sectionID, nil
}

// applyCompletion keeps completed, completed_by and completed_at moving
// together in both directions.
func applyCompletion(note *models.Note, completed bool, userID string, now time.Time) {
	note.Completed = completed
	if completed {
		note.CompletedByUserID = &userID
		at := now
		note.CompletedAt = &at
	} else {
		note.CompletedByUserID = nil
		note.CompletedAt = nil
	}
}

func orNewID(id string) string {
	if id != "" {
		return id
	}
	return uuid.New().String()
}

func equalTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalDates(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
