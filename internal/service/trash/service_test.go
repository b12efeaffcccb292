package trash

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
)

type fakeTrashRepo struct {
	pages    []models.Page
	sections []repositories.DeletedSection
	notes    []repositories.DeletedNote

	restoredPages    []string
	restoredSections []string
	restoredNotes    []string
	purgedPages      []string
	purgedSections   []string
	purgedNotes      []string
	emptiedFor       []string
}

func (f *fakeTrashRepo) ListDeletedPages(ctx context.Context, ownerID string) ([]models.Page, error) {
	return f.pages, nil
}

func (f *fakeTrashRepo) ListDeletedSections(ctx context.Context, ownerID string) ([]repositories.DeletedSection, error) {
	return f.sections, nil
}

func (f *fakeTrashRepo) ListDeletedNotes(ctx context.Context, ownerID string) ([]repositories.DeletedNote, error) {
	return f.notes, nil
}

func (f *fakeTrashRepo) GetDeletedPage(ctx context.Context, id, ownerID string) (*models.Page, error) {
	for i := range f.pages {
		if f.pages[i].ID == id && f.pages[i].OwnerUserID == ownerID {
			return &f.pages[i], nil
		}
	}
	return nil, fmt.Errorf("page %s: %w", id, domain.ErrNotFound)
}

func (f *fakeTrashRepo) GetDeletedSection(ctx context.Context, id, ownerID string) (*repositories.DeletedSection, error) {
	for i := range f.sections {
		if f.sections[i].ID == id {
			return &f.sections[i], nil
		}
	}
	return nil, fmt.Errorf("section %s: %w", id, domain.ErrNotFound)
}

func (f *fakeTrashRepo) GetDeletedNote(ctx context.Context, id, ownerID string) (*repositories.DeletedNote, error) {
	for i := range f.notes {
		if f.notes[i].ID == id {
			return &f.notes[i], nil
		}
	}
	return nil, fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
}

func (f *fakeTrashRepo) RestorePage(ctx context.Context, id string) error {
	f.restoredPages = append(f.restoredPages, id)
	return nil
}

func (f *fakeTrashRepo) RestoreSection(ctx context.Context, id string) error {
	f.restoredSections = append(f.restoredSections, id)
	return nil
}

func (f *fakeTrashRepo) RestoreNote(ctx context.Context, id string) error {
	f.restoredNotes = append(f.restoredNotes, id)
	return nil
}

func (f *fakeTrashRepo) PurgePage(ctx context.Context, id string) error {
	f.purgedPages = append(f.purgedPages, id)
	return nil
}

func (f *fakeTrashRepo) PurgeSection(ctx context.Context, id string) error {
	f.purgedSections = append(f.purgedSections, id)
	return nil
}

func (f *fakeTrashRepo) PurgeNote(ctx context.Context, id string) error {
	f.purgedNotes = append(f.purgedNotes, id)
	return nil
}

func (f *fakeTrashRepo) EmptyTrash(ctx context.Context, ownerID string) error {
	f.emptiedFor = append(f.emptiedFor, ownerID)
	return nil
}

type countingTx struct {
	calls int
}

func (c *countingTx) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	c.calls++
	return fn(ctx)
}

type fakePermRepo struct {
	audience map[string][]string
}

func (f *fakePermRepo) Upsert(ctx context.Context, perm *models.Permission) error { return nil }

func (f *fakePermRepo) Get(ctx context.Context, pageID, userID string) (*models.Permission, error) {
	return nil, fmt.Errorf("permission: %w", domain.ErrNotFound)
}

func (f *fakePermRepo) ListForPage(ctx context.Context, pageID string) ([]models.Permission, error) {
	return nil, nil
}

func (f *fakePermRepo) SetStatus(ctx context.Context, pageID, userID string, status models.PermissionStatus) error {
	return nil
}

func (f *fakePermRepo) Delete(ctx context.Context, pageID, userID string) error { return nil }

func (f *fakePermRepo) UserIDsWithAccess(ctx context.Context, pageID string) ([]string, error) {
	return f.audience[pageID], nil
}

type recordingCache struct {
	invalidated []string
}

func (r *recordingCache) Invalidate(ctx context.Context, userIDs ...string) {
	r.invalidated = append(r.invalidated, userIDs...)
}

func newTestService(repo *fakeTrashRepo) (*Service, *countingTx) {
	svc, tx, _ := newTestServiceWithCache(repo, nil)
	return svc, tx
}

func newTestServiceWithCache(repo *fakeTrashRepo, audience map[string][]string) (*Service, *countingTx, *recordingCache) {
	tx := &countingTx{}
	cache := &recordingCache{}
	perms := &fakePermRepo{audience: audience}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, perms, tx, cache, logger), tx, cache
}

func TestListFiltersCascadedRows(t *testing.T) {
	repo := &fakeTrashRepo{
		pages: []models.Page{{ID: "p1", OwnerUserID: "u1", Name: "Old"}},
		sections: []repositories.DeletedSection{
			{Section: models.Section{ID: "s1", PageID: "p2"}},
			{Section: models.Section{ID: "s2", PageID: "p1"}, PageDeleted: true},
		},
		notes: []repositories.DeletedNote{
			{Note: models.Note{ID: "n1"}},
			{Note: models.Note{ID: "n2"}, SectionDeleted: true},
			{Note: models.Note{ID: "n3"}, PageDeleted: true},
		},
	}
	svc, _ := newTestService(repo)

	contents, err := svc.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(contents.Pages) != 1 {
		t.Errorf("pages = %d, want 1", len(contents.Pages))
	}
	if len(contents.Sections) != 1 || contents.Sections[0].ID != "s1" {
		t.Errorf("sections = %+v, want only s1", contents.Sections)
	}
	if len(contents.Notes) != 1 || contents.Notes[0].ID != "n1" {
		t.Errorf("notes = %+v, want only n1", contents.Notes)
	}
}

func TestRestorePage(t *testing.T) {
	repo := &fakeTrashRepo{pages: []models.Page{{ID: "p1", OwnerUserID: "u1"}}}
	svc, tx := newTestService(repo)

	if err := svc.RestorePage(context.Background(), "u1", "p1"); err != nil {
		t.Fatalf("RestorePage: %v", err)
	}
	if len(repo.restoredPages) != 1 || repo.restoredPages[0] != "p1" {
		t.Errorf("restored = %v", repo.restoredPages)
	}
	if tx.calls != 1 {
		t.Errorf("restore should run in a transaction, tx calls = %d", tx.calls)
	}
}

func TestRestorePageNotOwned(t *testing.T) {
	repo := &fakeTrashRepo{pages: []models.Page{{ID: "p1", OwnerUserID: "u2"}}}
	svc, _ := newTestService(repo)

	err := svc.RestorePage(context.Background(), "u1", "p1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if len(repo.restoredPages) != 0 {
		t.Errorf("nothing should be restored, got %v", repo.restoredPages)
	}
}

func TestRestoreSectionUnderDeletedPage(t *testing.T) {
	repo := &fakeTrashRepo{sections: []repositories.DeletedSection{
		{Section: models.Section{ID: "s1"}, PageDeleted: true},
	}}
	svc, _ := newTestService(repo)

	err := svc.RestoreSection(context.Background(), "u1", "s1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found for cascaded section, got %v", err)
	}
	if len(repo.restoredSections) != 0 {
		t.Errorf("nothing should be restored, got %v", repo.restoredSections)
	}
}

func TestRestoreNote(t *testing.T) {
	repo := &fakeTrashRepo{notes: []repositories.DeletedNote{
		{Note: models.Note{ID: "n1"}},
		{Note: models.Note{ID: "n2"}, SectionDeleted: true},
	}}
	svc, _ := newTestService(repo)

	if err := svc.RestoreNote(context.Background(), "u1", "n1"); err != nil {
		t.Fatalf("RestoreNote: %v", err)
	}
	if len(repo.restoredNotes) != 1 || repo.restoredNotes[0] != "n1" {
		t.Errorf("restored = %v", repo.restoredNotes)
	}

	err := svc.RestoreNote(context.Background(), "u1", "n2")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found for cascaded note, got %v", err)
	}
}

func TestPurgePage(t *testing.T) {
	repo := &fakeTrashRepo{pages: []models.Page{{ID: "p1", OwnerUserID: "u1"}}}
	svc, tx := newTestService(repo)

	if err := svc.PurgePage(context.Background(), "u1", "p1"); err != nil {
		t.Fatalf("PurgePage: %v", err)
	}
	if len(repo.purgedPages) != 1 {
		t.Errorf("purged = %v", repo.purgedPages)
	}
	if tx.calls != 1 {
		t.Errorf("purge should run in a transaction, tx calls = %d", tx.calls)
	}
}

func TestRestoreInvalidatesProjections(t *testing.T) {
	repo := &fakeTrashRepo{
		pages: []models.Page{{ID: "p1", OwnerUserID: "u1"}},
		notes: []repositories.DeletedNote{
			{Note: models.Note{ID: "n1"}, PageID: "p1"},
		},
	}
	audience := map[string][]string{"p1": {"u1", "u2"}}

	svc, _, cache := newTestServiceWithCache(repo, audience)
	if err := svc.RestorePage(context.Background(), "u1", "p1"); err != nil {
		t.Fatalf("RestorePage: %v", err)
	}
	if len(cache.invalidated) != 2 {
		t.Errorf("invalidated = %v, want u1 and u2", cache.invalidated)
	}

	svc, _, cache = newTestServiceWithCache(repo, audience)
	if err := svc.RestoreNote(context.Background(), "u1", "n1"); err != nil {
		t.Fatalf("RestoreNote: %v", err)
	}
	if len(cache.invalidated) != 2 {
		t.Errorf("invalidated = %v, want u1 and u2", cache.invalidated)
	}
}

func TestFailedRestoreLeavesCacheAlone(t *testing.T) {
	repo := &fakeTrashRepo{pages: []models.Page{{ID: "p1", OwnerUserID: "u2"}}}
	svc, _, cache := newTestServiceWithCache(repo, map[string][]string{"p1": {"u2"}})

	if err := svc.RestorePage(context.Background(), "u1", "p1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(cache.invalidated) != 0 {
		t.Errorf("failed restore must not invalidate, got %v", cache.invalidated)
	}
}

func TestPurgePageInvalidatesProjections(t *testing.T) {
	repo := &fakeTrashRepo{pages: []models.Page{{ID: "p1", OwnerUserID: "u1"}}}
	svc, _, cache := newTestServiceWithCache(repo, map[string][]string{"p1": {"u1", "u3"}})

	if err := svc.PurgePage(context.Background(), "u1", "p1"); err != nil {
		t.Fatalf("PurgePage: %v", err)
	}
	if len(cache.invalidated) != 2 {
		t.Errorf("invalidated = %v, want u1 and u3", cache.invalidated)
	}
}

func TestEmpty(t *testing.T) {
	repo := &fakeTrashRepo{}
	svc, tx, cache := newTestServiceWithCache(repo, nil)

	if err := svc.Empty(context.Background(), "u1"); err != nil {
		t.Fatalf("Empty: %v", err)
	}
	if len(repo.emptiedFor) != 1 || repo.emptiedFor[0] != "u1" {
		t.Errorf("emptied = %v", repo.emptiedFor)
	}
	if tx.calls != 1 {
		t.Errorf("empty should run in a transaction, tx calls = %d", tx.calls)
	}
	if len(cache.invalidated) != 1 || cache.invalidated[0] != "u1" {
		t.Errorf("invalidated = %v, want u1", cache.invalidated)
	}
}
