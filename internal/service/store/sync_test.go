package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
)

type memPageRepo struct {
	pages map[string]*models.Page
}

func newMemPageRepo() *memPageRepo {
	return &memPageRepo{pages: make(map[string]*models.Page)}
}

func (m *memPageRepo) Create(ctx context.Context, page *models.Page) error {
	stored := *page
	m.pages[page.ID] = &stored
	return nil
}

func (m *memPageRepo) GetByID(ctx context.Context, id string) (*models.Page, error) {
	page, ok := m.pages[id]
	if !ok || page.DeletedAt != nil {
		return nil, fmt.Errorf("page %s: %w", id, domain.ErrNotFound)
	}
	copied := *page
	return &copied, nil
}

func (m *memPageRepo) ListForUser(ctx context.Context, userID string) ([]models.Page, error) {
	return m.ListOwnedByUser(ctx, userID)
}

func (m *memPageRepo) ListOwnedByUser(ctx context.Context, userID string) ([]models.Page, error) {
	var pages []models.Page
	for _, page := range m.pages {
		if page.OwnerUserID == userID && page.DeletedAt == nil {
			pages = append(pages, *page)
		}
	}
	return pages, nil
}

func (m *memPageRepo) Update(ctx context.Context, page *models.Page) error {
	existing, ok := m.pages[page.ID]
	if !ok {
		return fmt.Errorf("page %s: %w", page.ID, domain.ErrNotFound)
	}
	existing.Name = page.Name
	existing.Starred = page.Starred
	existing.Position = page.Position
	return nil
}

func (m *memPageRepo) SoftDelete(ctx context.Context, id string, at time.Time) error {
	page, ok := m.pages[id]
	if !ok {
		return fmt.Errorf("page %s: %w", id, domain.ErrNotFound)
	}
	page.DeletedAt = &at
	return nil
}

func (m *memPageRepo) MaxPosition(ctx context.Context, userID string) (int, error) {
	return -1, nil
}

type memSectionRepo struct {
	sections map[string]*models.Section
}

func newMemSectionRepo() *memSectionRepo {
	return &memSectionRepo{sections: make(map[string]*models.Section)}
}

func (m *memSectionRepo) Create(ctx context.Context, section *models.Section) error {
	stored := *section
	m.sections[section.ID] = &stored
	return nil
}

func (m *memSectionRepo) GetByID(ctx context.Context, id string) (*models.Section, error) {
	section, ok := m.sections[id]
	if !ok || section.DeletedAt != nil {
		return nil, fmt.Errorf("section %s: %w", id, domain.ErrNotFound)
	}
	copied := *section
	return &copied, nil
}

func (m *memSectionRepo) ListByPage(ctx context.Context, pageID string) ([]models.Section, error) {
	var sections []models.Section
	for _, section := range m.sections {
		if section.PageID == pageID && section.DeletedAt == nil {
			sections = append(sections, *section)
		}
	}
	return sections, nil
}

func (m *memSectionRepo) FindByName(ctx context.Context, pageID, name string) ([]models.Section, error) {
	return nil, nil
}

func (m *memSectionRepo) Update(ctx context.Context, section *models.Section) error {
	existing, ok := m.sections[section.ID]
	if !ok {
		return fmt.Errorf("section %s: %w", section.ID, domain.ErrNotFound)
	}
	existing.Name = section.Name
	existing.Position = section.Position
	return nil
}

func (m *memSectionRepo) SoftDelete(ctx context.Context, id string, at time.Time) error {
	section, ok := m.sections[id]
	if !ok {
		return fmt.Errorf("section %s: %w", id, domain.ErrNotFound)
	}
	section.DeletedAt = &at
	return nil
}

func (m *memSectionRepo) MaxPosition(ctx context.Context, pageID string) (int, error) {
	return -1, nil
}

type memNoteRepo struct {
	notes map[string]*models.Note
}

func newMemNoteRepo() *memNoteRepo {
	return &memNoteRepo{notes: make(map[string]*models.Note)}
}

func (m *memNoteRepo) Create(ctx context.Context, note *models.Note) error {
	stored := *note
	m.notes[note.ID] = &stored
	return nil
}

func (m *memNoteRepo) GetByID(ctx context.Context, id string) (*models.Note, error) {
	note, ok := m.notes[id]
	if !ok || note.DeletedAt != nil {
		return nil, fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
	}
	copied := *note
	return &copied, nil
}

func (m *memNoteRepo) List(ctx context.Context, filter repositories.NoteFilter) ([]models.Note, error) {
	return nil, nil
}

func (m *memNoteRepo) Count(ctx context.Context, filter repositories.NoteFilter) (int, error) {
	return 0, nil
}

func (m *memNoteRepo) ListBySection(ctx context.Context, sectionID string) ([]models.Note, error) {
	var notes []models.Note
	for _, note := range m.notes {
		if note.SectionID == sectionID && note.DeletedAt == nil {
			notes = append(notes, *note)
		}
	}
	return notes, nil
}

func (m *memNoteRepo) Update(ctx context.Context, note *models.Note) error {
	existing, ok := m.notes[note.ID]
	if !ok {
		return fmt.Errorf("note %s: %w", note.ID, domain.ErrNotFound)
	}
	updated := *note
	updated.DeletedAt = existing.DeletedAt
	m.notes[note.ID] = &updated
	return nil
}

func (m *memNoteRepo) SoftDelete(ctx context.Context, id string, at time.Time) error {
	note, ok := m.notes[id]
	if !ok {
		return fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
	}
	note.DeletedAt = &at
	return nil
}

func (m *memNoteRepo) TagsForUser(ctx context.Context, userID string) ([]string, error) {
	return nil, nil
}

type passthroughTx struct {
	calls int
}

func (p *passthroughTx) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	p.calls++
	return fn(ctx)
}

type recordingTagCache struct {
	invalidated []string
}

func (r *recordingTagCache) Get(ctx context.Context, userID string) ([]string, bool) { return nil, false }
func (r *recordingTagCache) Set(ctx context.Context, userID string, tags []string)   {}
func (r *recordingTagCache) Invalidate(ctx context.Context, userIDs ...string) {
	r.invalidated = append(r.invalidated, userIDs...)
}

type syncFixture struct {
	svc      *SyncService
	pages    *memPageRepo
	sections *memSectionRepo
	notes    *memNoteRepo
	tx       *passthroughTx
	tagCache *recordingTagCache
}

func newSyncFixture() *syncFixture {
	f := &syncFixture{
		pages:    newMemPageRepo(),
		sections: newMemSectionRepo(),
		notes:    newMemNoteRepo(),
		tx:       &passthroughTx{},
		tagCache: &recordingTagCache{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewSyncService(f.pages, f.sections, f.notes, f.tx, f.tagCache, logger)
	return f
}

func snapshotOf(pageID string) models.Snapshot {
	return models.Snapshot{Pages: []models.SnapshotPage{{
		ID:      pageID,
		Name:    "Work",
		Starred: true,
		Sections: []models.SnapshotSection{{
			ID:   "s1",
			Name: "Inbox",
			Notes: []models.SnapshotNote{
				{ID: "n1", Content: "call dentist", Tags: []string{"Health", "health"}},
				{ID: "n2", Content: "ship release", Completed: true},
			},
		}},
	}}}
}

func TestReconcileCreates(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	result, err := f.svc.Reconcile(ctx, "u1", snapshotOf("p1"))
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Inserted != 4 || result.Updated != 0 || result.Deleted != 0 || result.Skipped != 0 {
		t.Errorf("result = %+v", result)
	}

	page := f.pages.pages["p1"]
	if page == nil || page.OwnerUserID != "u1" || !page.Starred || page.Position != 0 {
		t.Fatalf("page not created correctly: %+v", page)
	}
	note := f.notes.notes["n1"]
	if note == nil {
		t.Fatal("note n1 not created")
	}
	if len(note.Tags) != 1 || note.Tags[0] != "health" {
		t.Errorf("tags not normalized: %v", note.Tags)
	}
	completed := f.notes.notes["n2"]
	if completed == nil || !completed.Completed || completed.CompletedByUserID == nil || completed.CompletedAt == nil {
		t.Errorf("completion fields not populated: %+v", completed)
	}
	if f.tx.calls != 1 {
		t.Errorf("expected one transaction, got %d", f.tx.calls)
	}
	if len(f.tagCache.invalidated) != 1 || f.tagCache.invalidated[0] != "u1" {
		t.Errorf("tag cache not invalidated: %v", f.tagCache.invalidated)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	if _, err := f.svc.Reconcile(ctx, "u1", snapshotOf("p1")); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	result, err := f.svc.Reconcile(ctx, "u1", snapshotOf("p1"))
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if result.Inserted != 0 || result.Updated != 0 || result.Deleted != 0 || result.Skipped != 0 {
		t.Errorf("second run should be a no-op, got %+v", result)
	}
	if len(f.tagCache.invalidated) != 1 {
		t.Errorf("no-op run must not invalidate the tag cache, got %v", f.tagCache.invalidated)
	}
}

func TestReconcileUpdatesAndDeletes(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	if _, err := f.svc.Reconcile(ctx, "u1", snapshotOf("p1")); err != nil {
		t.Fatalf("seed reconcile: %v", err)
	}

	// Rename the page, edit one note, drop the other.
	snapshot := snapshotOf("p1")
	snapshot.Pages[0].Name = "Renamed"
	snapshot.Pages[0].Sections[0].Notes = []models.SnapshotNote{
		{ID: "n1", Content: "call dentist today", Tags: []string{"health"}},
	}

	result, err := f.svc.Reconcile(ctx, "u1", snapshot)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Updated != 2 {
		t.Errorf("updated = %d, want 2 (page rename and note edit)", result.Updated)
	}
	if result.Deleted != 1 {
		t.Errorf("deleted = %d, want 1", result.Deleted)
	}
	if f.pages.pages["p1"].Name != "Renamed" {
		t.Errorf("page name = %q", f.pages.pages["p1"].Name)
	}
	if f.notes.notes["n2"].DeletedAt == nil {
		t.Error("dropped note should be soft-deleted")
	}
	if f.notes.notes["n1"].Content != "call dentist today" {
		t.Errorf("note content = %q", f.notes.notes["n1"].Content)
	}
}

func TestReconcileGeneratesIDs(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	snapshot := models.Snapshot{Pages: []models.SnapshotPage{{
		Name:     "Fresh",
		Sections: []models.SnapshotSection{{Name: "New", Notes: []models.SnapshotNote{{Content: "hi"}}}},
	}}}
	result, err := f.svc.Reconcile(ctx, "u1", snapshot)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Inserted != 3 {
		t.Errorf("inserted = %d, want 3", result.Inserted)
	}
	for id := range f.pages.pages {
		if id == "" {
			t.Error("page created with empty id")
		}
	}
}

func TestReconcileSkipsForeignRows(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	// A live page owned by somebody else, and a section under it.
	foreignPage := &models.Page{ID: "theirs", OwnerUserID: "u2", Name: "Private"}
	f.pages.pages["theirs"] = foreignPage
	f.sections.sections["their-section"] = &models.Section{ID: "their-section", PageID: "theirs", Name: "Secret"}

	snapshot := snapshotOf("p1")
	snapshot.Pages = append(snapshot.Pages, models.SnapshotPage{ID: "theirs", Name: "Hijack"})
	snapshot.Pages[0].Sections = append(snapshot.Pages[0].Sections, models.SnapshotSection{
		ID:   "their-section",
		Name: "Hijack",
	})

	result, err := f.svc.Reconcile(ctx, "u1", snapshot)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Skipped != 2 {
		t.Errorf("skipped = %d, want 2", result.Skipped)
	}
	if f.pages.pages["theirs"].Name != "Private" {
		t.Errorf("foreign page was modified: %+v", f.pages.pages["theirs"])
	}
	if f.sections.sections["their-section"].Name != "Secret" {
		t.Errorf("foreign section was modified: %+v", f.sections.sections["their-section"])
	}
}

func TestReconcileValidation(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	snapshot := models.Snapshot{Pages: []models.SnapshotPage{{Name: ""}}}
	if _, err := f.svc.Reconcile(ctx, "u1", snapshot); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if f.tx.calls != 0 {
		t.Error("validation failure must not open a transaction")
	}

	snapshot = models.Snapshot{Pages: []models.SnapshotPage{{
		Name:     "Ok",
		Sections: []models.SnapshotSection{{Name: "Ok", Notes: []models.SnapshotNote{{Content: ""}}}},
	}}}
	if _, err := f.svc.Reconcile(ctx, "u1", snapshot); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for empty content, got %v", err)
	}
}

func TestReconcileUncompletesNote(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	if _, err := f.svc.Reconcile(ctx, "u1", snapshotOf("p1")); err != nil {
		t.Fatalf("seed reconcile: %v", err)
	}

	snapshot := snapshotOf("p1")
	snapshot.Pages[0].Sections[0].Notes[1].Completed = false

	if _, err := f.svc.Reconcile(ctx, "u1", snapshot); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	note := f.notes.notes["n2"]
	if note.Completed || note.CompletedByUserID != nil || note.CompletedAt != nil {
		t.Errorf("completion fields should be cleared together: %+v", note)
	}
}
