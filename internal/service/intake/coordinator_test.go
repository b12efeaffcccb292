package intake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/service/parse"
	"inkwell/internal/service/store"
)

type fakeParser struct {
	result *parse.Result
	err    error
}

func (f *fakeParser) Parse(ctx context.Context, utterance string, parseCtx parse.Context) (*parse.Result, error) {
	return f.result, f.err
}

type fakePages struct {
	pages   []models.Page
	created []string
}

func (f *fakePages) List(ctx context.Context, userID string) ([]models.Page, error) {
	return f.pages, nil
}

func (f *fakePages) Create(ctx context.Context, userID string, req store.CreatePageRequest) (*models.Page, error) {
	page := models.Page{ID: fmt.Sprintf("page-%d", len(f.created)+1), Name: req.Name}
	f.pages = append(f.pages, page)
	f.created = append(f.created, req.Name)
	return &page, nil
}

type fakeSections struct {
	byPage  map[string][]models.Section
	created []string
}

func (f *fakeSections) List(ctx context.Context, userID, pageID string) ([]models.Section, error) {
	return f.byPage[pageID], nil
}

func (f *fakeSections) Create(ctx context.Context, userID string, req store.CreateSectionRequest) (*models.Section, error) {
	section := models.Section{ID: fmt.Sprintf("section-%d", len(f.created)+1), PageID: req.PageID, Name: req.Name}
	if f.byPage == nil {
		f.byPage = make(map[string][]models.Section)
	}
	f.byPage[req.PageID] = append(f.byPage[req.PageID], section)
	f.created = append(f.created, req.Name)
	return &section, nil
}

func (f *fakeSections) ResolveByName(ctx context.Context, userID, pageID, name string) (*models.Section, error) {
	for _, section := range f.byPage[pageID] {
		if section.Name == name {
			return &section, nil
		}
	}
	return nil, fmt.Errorf("section %s: %w", name, domain.ErrNotFound)
}

type fakeNotes struct {
	written []store.CreateNoteRequest
	err     error
}

func (f *fakeNotes) Create(ctx context.Context, userID string, req store.CreateNoteRequest) (*models.Note, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.written = append(f.written, req)
	return &models.Note{ID: fmt.Sprintf("note-%d", len(f.written)), SectionID: req.SectionID, Content: req.Content}, nil
}

type fakeTags struct{}

func (fakeTags) Projection(ctx context.Context, userID string) ([]string, error) {
	return []string{"work"}, nil
}

func newTestCoordinator(parser Parser, pages *fakePages, sections *fakeSections, notes *fakeNotes) *Coordinator {
	return NewCoordinator(parser, pages, sections, notes, fakeTags{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSubmitWritesDirectly(t *testing.T) {
	pages := &fakePages{pages: []models.Page{{ID: "p1", Name: "Work"}}}
	sections := &fakeSections{byPage: map[string][]models.Section{
		"p1": {{ID: "s1", PageID: "p1", Name: "Inbox"}},
	}}
	notes := &fakeNotes{}
	parser := &fakeParser{result: &parse.Result{
		Proposal: &parse.Proposal{Content: "call dentist", Section: "Inbox"},
	}}
	c := newTestCoordinator(parser, pages, sections, notes)

	outcome, err := c.Submit(context.Background(), "u1", SubmitRequest{Utterance: "call dentist", PageID: "p1"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if outcome.Status != StatusDone {
		t.Fatalf("status = %q, want %q", outcome.Status, StatusDone)
	}
	if len(notes.written) != 1 || notes.written[0].SectionID != "s1" {
		t.Errorf("note not written to resolved section: %+v", notes.written)
	}
	if outcome.PendingID != "" {
		t.Error("direct write should not park a pending intake")
	}
}

func TestSubmitEmptyUtterance(t *testing.T) {
	c := newTestCoordinator(&fakeParser{}, &fakePages{}, &fakeSections{}, &fakeNotes{})
	_, err := c.Submit(context.Background(), "u1", SubmitRequest{Utterance: "  "})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestConfirmPageAccept(t *testing.T) {
	pages := &fakePages{}
	sections := &fakeSections{}
	notes := &fakeNotes{}
	parser := &fakeParser{result: &parse.Result{
		Proposal: &parse.Proposal{Content: "plan the launch", Page: "Projects", Section: "Ideas", NewPage: true, NewSection: true},
	}}
	c := newTestCoordinator(parser, pages, sections, notes)

	outcome, err := c.Submit(context.Background(), "u1", SubmitRequest{Utterance: "plan the launch"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if outcome.Status != StatusConfirmPage {
		t.Fatalf("status = %q, want %q", outcome.Status, StatusConfirmPage)
	}
	if outcome.Confirm == nil || outcome.Confirm.Kind != "page" || outcome.Confirm.Name != "Projects" {
		t.Fatalf("unexpected confirmation: %+v", outcome.Confirm)
	}
	if outcome.PendingID == "" {
		t.Fatal("confirmation must carry a pending id")
	}

	final, err := c.Confirm(context.Background(), "u1", ConfirmRequest{PendingID: outcome.PendingID, Accept: true})
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if final.Status != StatusDone {
		t.Fatalf("status = %q, want %q", final.Status, StatusDone)
	}
	if len(pages.created) != 1 || pages.created[0] != "Projects" {
		t.Errorf("page not created: %v", pages.created)
	}
	if len(sections.created) != 1 || sections.created[0] != "Ideas" {
		t.Errorf("section not created: %v", sections.created)
	}
	if len(notes.written) != 1 {
		t.Errorf("note not written: %+v", notes.written)
	}
}

func TestConfirmReject(t *testing.T) {
	pages := &fakePages{}
	parser := &fakeParser{result: &parse.Result{
		Proposal: &parse.Proposal{Content: "x", Page: "Scratch", NewPage: true},
	}}
	c := newTestCoordinator(parser, pages, &fakeSections{}, &fakeNotes{})

	outcome, err := c.Submit(context.Background(), "u1", SubmitRequest{Utterance: "x"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	final, err := c.Confirm(context.Background(), "u1", ConfirmRequest{PendingID: outcome.PendingID, Accept: false})
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if final.Status != StatusCancelled {
		t.Errorf("status = %q, want %q", final.Status, StatusCancelled)
	}
	if len(pages.created) != 0 {
		t.Errorf("rejected confirm must not create pages, got %v", pages.created)
	}

	// The pending slot is freed; a new submit goes through.
	if _, err := c.Submit(context.Background(), "u1", SubmitRequest{Utterance: "x"}); err != nil {
		t.Errorf("submit after reject: %v", err)
	}
}

func TestSubmitBusyWhilePending(t *testing.T) {
	parser := &fakeParser{result: &parse.Result{
		Proposal: &parse.Proposal{Content: "x", Page: "New", NewPage: true},
	}}
	c := newTestCoordinator(parser, &fakePages{}, &fakeSections{}, &fakeNotes{})

	if _, err := c.Submit(context.Background(), "u1", SubmitRequest{Utterance: "x"}); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err := c.Submit(context.Background(), "u1", SubmitRequest{Utterance: "y"})
	if !errors.Is(err, domain.ErrBusy) {
		t.Errorf("expected busy error, got %v", err)
	}

	// A different principal is unaffected.
	if _, err := c.Submit(context.Background(), "u2", SubmitRequest{Utterance: "z"}); err != nil {
		t.Errorf("submit for other user: %v", err)
	}
}

type blockingParser struct {
	entered chan struct{}
	release chan struct{}
	calls   int32
}

func (b *blockingParser) Parse(ctx context.Context, utterance string, parseCtx parse.Context) (*parse.Result, error) {
	atomic.AddInt32(&b.calls, 1)
	close(b.entered)
	<-b.release
	return &parse.Result{Proposal: &parse.Proposal{Content: utterance, Section: "Inbox"}}, nil
}

func TestSubmitBusyWhileParsing(t *testing.T) {
	pages := &fakePages{pages: []models.Page{{ID: "p1", Name: "Work"}}}
	sections := &fakeSections{byPage: map[string][]models.Section{
		"p1": {{ID: "s1", PageID: "p1", Name: "Inbox"}},
	}}
	parser := &blockingParser{entered: make(chan struct{}), release: make(chan struct{})}
	c := newTestCoordinator(parser, pages, sections, &fakeNotes{})

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), "u1", SubmitRequest{Utterance: "x", PageID: "p1"})
		done <- err
	}()

	<-parser.entered
	_, err := c.Submit(context.Background(), "u1", SubmitRequest{Utterance: "y", PageID: "p1"})
	if !errors.Is(err, domain.ErrBusy) {
		t.Errorf("expected busy while first submit is parsing, got %v", err)
	}
	if got := atomic.LoadInt32(&parser.calls); got != 1 {
		t.Errorf("parser calls = %d, want 1", got)
	}

	close(parser.release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}

	// The slot is released once the first submit finishes.
	parser.entered = make(chan struct{})
	go func() {
		_, err := c.Submit(context.Background(), "u1", SubmitRequest{Utterance: "z", PageID: "p1"})
		done <- err
	}()
	<-parser.entered
	if err := <-done; err != nil {
		t.Errorf("submit after release: %v", err)
	}
}

func TestConfirmWrongPendingID(t *testing.T) {
	parser := &fakeParser{result: &parse.Result{
		Proposal: &parse.Proposal{Content: "x", Page: "New", NewPage: true},
	}}
	c := newTestCoordinator(parser, &fakePages{}, &fakeSections{}, &fakeNotes{})

	if _, err := c.Submit(context.Background(), "u1", SubmitRequest{Utterance: "x"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	_, err := c.Confirm(context.Background(), "u1", ConfirmRequest{PendingID: "bogus", Accept: true})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestConfirmPageAcceptRetainsPageOnNoteFailure(t *testing.T) {
	pages := &fakePages{}
	notes := &fakeNotes{}
	parser := &fakeParser{result: &parse.Result{
		Proposal: &parse.Proposal{Content: "x", Page: "Solo", NewPage: true},
	}}
	c := newTestCoordinator(parser, pages, &fakeSections{}, notes)

	outcome, err := c.Submit(context.Background(), "u1", SubmitRequest{Utterance: "x"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// No section anywhere to land the note in.
	_, err = c.Confirm(context.Background(), "u1", ConfirmRequest{PendingID: outcome.PendingID, Accept: true})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(pages.created) != 1 {
		t.Errorf("page created before the failed write should remain, got %v", pages.created)
	}
	if len(notes.written) != 0 {
		t.Errorf("no note should be written, got %+v", notes.written)
	}
}

func planResult() *parse.Result {
	return &parse.Result{Plan: []parse.PlanGroup{
		{
			Description: "set up sections",
			Previews:    []string{"a", "b"},
			Actions: []parse.Proposal{
				{Content: "a", Section: "Inbox"},
				{Content: "b", Section: "Inbox"},
			},
		},
		{
			Description: "one more",
			Previews:    []string{"c"},
			Actions:     []parse.Proposal{{Content: "c", Section: "Inbox"}},
		},
	}}
}

func TestPlanYesAllGroups(t *testing.T) {
	pages := &fakePages{pages: []models.Page{{ID: "p1", Name: "Work"}}}
	sections := &fakeSections{byPage: map[string][]models.Section{
		"p1": {{ID: "s1", PageID: "p1", Name: "Inbox"}},
	}}
	notes := &fakeNotes{}
	c := newTestCoordinator(&fakeParser{result: planResult()}, pages, sections, notes)

	outcome, err := c.Submit(context.Background(), "u1", SubmitRequest{Utterance: "set up", PageID: "p1"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if outcome.Status != StatusPlanGroup {
		t.Fatalf("status = %q, want %q", outcome.Status, StatusPlanGroup)
	}
	if outcome.Group == nil || outcome.Group.Total != 2 || outcome.Group.Index != 0 {
		t.Fatalf("unexpected group prompt: %+v", outcome.Group)
	}

	next, err := c.Advance(context.Background(), "u1", AdvanceRequest{PendingID: outcome.PendingID, Decision: DecisionYes})
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if next.Status != StatusPlanGroup || next.Group.Index != 1 {
		t.Fatalf("expected second group, got %+v", next)
	}

	done, err := c.Advance(context.Background(), "u1", AdvanceRequest{PendingID: next.PendingID, Decision: DecisionYes})
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if done.Status != StatusPlanDone {
		t.Fatalf("status = %q, want %q", done.Status, StatusPlanDone)
	}
	if done.Summary.Succeeded != 3 || done.Summary.Failed != 0 || done.Summary.Skipped != 0 {
		t.Errorf("summary = %+v", done.Summary)
	}
	if len(notes.written) != 3 {
		t.Errorf("notes written = %d, want 3", len(notes.written))
	}
}

func TestPlanSkipAndCancel(t *testing.T) {
	pages := &fakePages{pages: []models.Page{{ID: "p1", Name: "Work"}}}
	sections := &fakeSections{byPage: map[string][]models.Section{
		"p1": {{ID: "s1", PageID: "p1", Name: "Inbox"}},
	}}
	notes := &fakeNotes{}
	c := newTestCoordinator(&fakeParser{result: planResult()}, pages, sections, notes)

	outcome, err := c.Submit(context.Background(), "u1", SubmitRequest{Utterance: "set up", PageID: "p1"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	next, err := c.Advance(context.Background(), "u1", AdvanceRequest{PendingID: outcome.PendingID, Decision: DecisionSkip})
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if next.Summary.Skipped != 2 {
		t.Errorf("skipped = %d, want 2", next.Summary.Skipped)
	}
	if len(notes.written) != 0 {
		t.Errorf("skip must not write notes, got %d", len(notes.written))
	}

	cancelled, err := c.Advance(context.Background(), "u1", AdvanceRequest{PendingID: next.PendingID, Decision: DecisionCancel})
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Fatalf("status = %q, want %q", cancelled.Status, StatusCancelled)
	}
	if cancelled.Summary.Skipped != 2 {
		t.Errorf("cancel summary = %+v", cancelled.Summary)
	}

	// Cancel frees the slot.
	if _, err := c.Submit(context.Background(), "u1", SubmitRequest{Utterance: "again", PageID: "p1"}); err != nil {
		t.Errorf("submit after cancel: %v", err)
	}
}

func TestPlanRevise(t *testing.T) {
	pages := &fakePages{pages: []models.Page{{ID: "p1", Name: "Work"}}}
	sections := &fakeSections{byPage: map[string][]models.Section{
		"p1": {{ID: "s1", PageID: "p1", Name: "Inbox"}},
	}}
	notes := &fakeNotes{}
	parser := &fakeParser{result: planResult()}
	c := newTestCoordinator(parser, pages, sections, notes)

	outcome, err := c.Submit(context.Background(), "u1", SubmitRequest{Utterance: "set up", PageID: "p1"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	revise, err := c.Advance(context.Background(), "u1", AdvanceRequest{PendingID: outcome.PendingID, Decision: DecisionRevise})
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if revise.Status != StatusRevise {
		t.Fatalf("status = %q, want %q", revise.Status, StatusRevise)
	}

	// The next submit replaces the current group with the revised
	// utterance's actions and advances past it.
	parser.result = &parse.Result{Proposal: &parse.Proposal{Content: "revised", Section: "Inbox"}}
	next, err := c.Submit(context.Background(), "u1", SubmitRequest{Utterance: "just one note instead"})
	if err != nil {
		t.Fatalf("revision submit: %v", err)
	}
	if next.Status != StatusPlanGroup || next.Group.Index != 1 {
		t.Fatalf("expected second group after revision, got %+v", next)
	}
	if len(notes.written) != 1 || notes.written[0].Content != "revised" {
		t.Errorf("revised action not executed: %+v", notes.written)
	}
	if next.Summary.Succeeded != 1 {
		t.Errorf("summary = %+v", next.Summary)
	}
}

func TestExecuteActionCountsFailures(t *testing.T) {
	pages := &fakePages{pages: []models.Page{{ID: "p1", Name: "Work"}}}
	sections := &fakeSections{}
	notes := &fakeNotes{err: errors.New("db down")}
	c := newTestCoordinator(&fakeParser{result: planResult()}, pages, sections, notes)

	outcome, err := c.Submit(context.Background(), "u1", SubmitRequest{Utterance: "set up", PageID: "p1", SectionID: "s1"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	next, err := c.Advance(context.Background(), "u1", AdvanceRequest{PendingID: outcome.PendingID, Decision: DecisionYes})
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if next.Summary.Failed != 2 || next.Summary.Succeeded != 0 {
		t.Errorf("summary = %+v", next.Summary)
	}
}
