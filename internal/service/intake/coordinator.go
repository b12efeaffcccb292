package intake

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/service/parse"
	"inkwell/internal/service/store"

	"github.com/google/uuid"
)

// PendingExpiry bounds how long an intake waits for its confirmation.
const PendingExpiry = 5 * time.Minute

// Parser classifies an utterance against the caller's hierarchy
type Parser interface {
	Parse(ctx context.Context, utterance string, parseCtx parse.Context) (*parse.Result, error)
}

// PageStore is the slice of the page service the coordinator needs
type PageStore interface {
	List(ctx context.Context, userID string) ([]models.Page, error)
	Create(ctx context.Context, userID string, req store.CreatePageRequest) (*models.Page, error)
}

// SectionStore is the slice of the section service the coordinator needs
type SectionStore interface {
	List(ctx context.Context, userID, pageID string) ([]models.Section, error)
	Create(ctx context.Context, userID string, req store.CreateSectionRequest) (*models.Section, error)
	ResolveByName(ctx context.Context, userID, pageID, name string) (*models.Section, error)
}

// NoteStore is the slice of the note service the coordinator needs
type NoteStore interface {
	Create(ctx context.Context, userID string, req store.CreateNoteRequest) (*models.Note, error)
}

// TagSource supplies the caller's tag projection for parser context
type TagSource interface {
	Projection(ctx context.Context, userID string) ([]string, error)
}

// Coordinator drives an utterance through parse, confirmation and the
// store write. One intake may be in flight per principal; a second
// submit while one is parsing or waiting for confirmation is rejected
// with Busy.
type Coordinator struct {
	parser   Parser
	pages    PageStore
	sections SectionStore
	notes    NoteStore
	tags     TagSource
	logger   *slog.Logger

	mu       sync.Mutex
	pending  map[string]*pendingIntake
	inflight map[string]struct{}
}

// NewCoordinator creates a new intake coordinator
func NewCoordinator(parser Parser, pages PageStore, sections SectionStore, notes NoteStore, tags TagSource, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		parser:   parser,
		pages:    pages,
		sections: sections,
		notes:    notes,
		tags:     tags,
		logger:   logger,
		pending:  make(map[string]*pendingIntake),
		inflight: make(map[string]struct{}),
	}
}

// pendingIntake is a parked intake waiting on the caller. Exactly one
// of proposal or plan is set.
type pendingIntake struct {
	id        string
	expiresAt time.Time

	// simple path
	proposal       *parse.Proposal
	awaitSection   bool   // false: awaiting page confirm
	targetPageID   string // resolved once the page exists
	activePageID   string
	focusSectionID string
	degraded       bool

	// plan path
	plan *planState
}

// SubmitRequest is one utterance plus the caller's current focus
type SubmitRequest struct {
	Utterance string `json:"utterance"`
	PageID    string `json:"page_id,omitempty"`
	SectionID string `json:"section_id,omitempty"`
}

// Confirmation asks the caller to approve creating a page or section
type Confirmation struct {
	Kind string `json:"kind"` // "page" or "section"
	Name string `json:"name"`
}

// GroupPrompt presents one plan group for confirmation
type GroupPrompt struct {
	Index       int      `json:"index"`
	Total       int      `json:"total"`
	Description string   `json:"description"`
	Previews    []string `json:"previews"`
}

// PlanSummary counts what a finished plan did
type PlanSummary struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Outcome statuses.
const (
	StatusDone           = "done"
	StatusConfirmPage    = "confirm_page"
	StatusConfirmSection = "confirm_section"
	StatusPlanGroup      = "plan_group"
	StatusPlanDone       = "plan_done"
	StatusRevise         = "revise"
	StatusCancelled      = "cancelled"
)

// Outcome is what an intake step hands back to the caller
type Outcome struct {
	Status    string        `json:"status"`
	PendingID string        `json:"pending_id,omitempty"`
	Confirm   *Confirmation `json:"confirm,omitempty"`
	Group     *GroupPrompt  `json:"group,omitempty"`
	Summary   *PlanSummary  `json:"summary,omitempty"`
	Note      *models.Note  `json:"note,omitempty"`
	Message   string        `json:"message,omitempty"`
	Degraded  bool          `json:"degraded,omitempty"`
}

// Submit runs an utterance through the pipeline. It returns either a
// final outcome or a confirmation request carrying a pending id. While
// a plan group awaits revision, Submit treats the utterance as the
// revised version of that group.
func (c *Coordinator) Submit(ctx context.Context, userID string, req SubmitRequest) (*Outcome, error) {
	if strings.TrimSpace(req.Utterance) == "" {
		return nil, fmt.Errorf("%w: utterance is required", domain.ErrValidation)
	}

	// The in-flight slot is held for the whole call, parse included, so
	// a second submit during a slow upstream parse is rejected too.
	c.mu.Lock()
	if _, busy := c.inflight[userID]; busy {
		c.mu.Unlock()
		return nil, fmt.Errorf("intake already in flight: %w", domain.ErrBusy)
	}
	parked := c.takeForSubmit(userID)
	if parked == errBusySentinel {
		c.mu.Unlock()
		return nil, fmt.Errorf("intake already in flight: %w", domain.ErrBusy)
	}
	c.inflight[userID] = struct{}{}
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.inflight, userID)
		c.mu.Unlock()
	}()

	if parked != nil {
		return c.submitRevision(ctx, userID, parked, req.Utterance)
	}

	parseCtx, err := c.buildContext(ctx, userID, req.PageID)
	if err != nil {
		return nil, err
	}

	result, err := c.parser.Parse(ctx, req.Utterance, parseCtx)
	if err != nil {
		return nil, err
	}

	if len(result.Plan) > 0 {
		return c.startPlan(userID, req, result)
	}
	return c.applyProposal(ctx, userID, req, result.Proposal, result.Degraded)
}

// errBusySentinel marks "user already has an intake waiting on a
// confirmation" inside takeForSubmit.
var errBusySentinel = &pendingIntake{}

// takeForSubmit is called under c.mu. It prunes an expired entry,
// yields a plan awaiting revision, and flags everything else as busy.
func (c *Coordinator) takeForSubmit(userID string) *pendingIntake {
	parked, ok := c.pending[userID]
	if !ok {
		return nil
	}
	if time.Now().After(parked.expiresAt) {
		delete(c.pending, userID)
		return nil
	}
	if parked.plan != nil && parked.plan.awaitingRevision {
		return parked
	}
	return errBusySentinel
}

func (c *Coordinator) buildContext(ctx context.Context, userID, activePageID string) (parse.Context, error) {
	parseCtx := parse.Context{}

	pages, err := c.pages.List(ctx, userID)
	if err != nil {
		return parseCtx, err
	}
	for _, page := range pages {
		parseCtx.Pages = append(parseCtx.Pages, page.Name)
		if page.ID == activePageID {
			parseCtx.CurrentPage = page.Name
		}
	}

	if activePageID != "" {
		sections, err := c.sections.List(ctx, userID, activePageID)
		if err != nil {
			return parseCtx, err
		}
		for _, section := range sections {
			parseCtx.Sections = append(parseCtx.Sections, section.Name)
		}
	}

	if c.tags != nil {
		tags, err := c.tags.Projection(ctx, userID)
		if err != nil {
			c.logger.Warn("tag projection unavailable for parse context", "error", err)
		} else {
			parseCtx.ExistingTags = tags
		}
	}
	return parseCtx, nil
}

// applyProposal walks the simple path: page confirm, section confirm,
// then the note write.
func (c *Coordinator) applyProposal(ctx context.Context, userID string, req SubmitRequest, proposal *parse.Proposal, degraded bool) (*Outcome, error) {
	if proposal.NewPage {
		if proposal.Page == "" {
			return nil, fmt.Errorf("%w: parser proposed a page without a name", domain.ErrValidation)
		}
		return c.park(userID, &pendingIntake{
			proposal:       proposal,
			activePageID:   req.PageID,
			focusSectionID: req.SectionID,
			degraded:       degraded,
		}, &Outcome{
			Status:   StatusConfirmPage,
			Confirm:  &Confirmation{Kind: "page", Name: proposal.Page},
			Message:  proposal.ResponseMessage,
			Degraded: degraded,
		}), nil
	}

	pageID, err := c.resolvePage(ctx, userID, req.PageID, proposal.Page)
	if err != nil {
		return nil, err
	}

	if proposal.NewSection {
		if proposal.Section == "" {
			return nil, fmt.Errorf("%w: parser proposed a section without a name", domain.ErrValidation)
		}
		return c.park(userID, &pendingIntake{
			proposal:       proposal,
			awaitSection:   true,
			targetPageID:   pageID,
			activePageID:   req.PageID,
			focusSectionID: req.SectionID,
			degraded:       degraded,
		}, &Outcome{
			Status:   StatusConfirmSection,
			Confirm:  &Confirmation{Kind: "section", Name: proposal.Section},
			Message:  proposal.ResponseMessage,
			Degraded: degraded,
		}), nil
	}

	note, err := c.writeNote(ctx, userID, pageID, req.SectionID, proposal)
	if err != nil {
		return nil, err
	}
	return &Outcome{Status: StatusDone, Note: note, Message: proposal.ResponseMessage, Degraded: degraded}, nil
}

func (c *Coordinator) park(userID string, parked *pendingIntake, outcome *Outcome) *Outcome {
	parked.id = uuid.New().String()
	parked.expiresAt = time.Now().Add(PendingExpiry)

	c.mu.Lock()
	c.pending[userID] = parked
	c.mu.Unlock()

	outcome.PendingID = parked.id
	return outcome
}

// ConfirmRequest answers a page/section confirmation
type ConfirmRequest struct {
	PendingID string `json:"pending_id"`
	Accept    bool   `json:"accept"`
}

// Confirm resumes a parked intake. Rejecting cancels it; a rejected
// page confirm leaves nothing behind, while effects already applied
// (such as a page created before a failed note write) are retained.
func (c *Coordinator) Confirm(ctx context.Context, userID string, req ConfirmRequest) (*Outcome, error) {
	parked, err := c.take(userID, req.PendingID)
	if err != nil {
		return nil, err
	}
	if parked.plan != nil {
		c.unpark(userID, parked)
		return nil, fmt.Errorf("%w: pending intake is a plan, answer it via the plan endpoint", domain.ErrValidation)
	}

	if !req.Accept {
		c.logger.Info("intake cancelled", "user_id", userID)
		return &Outcome{Status: StatusCancelled}, nil
	}

	proposal := parked.proposal
	pageID := parked.targetPageID
	if !parked.awaitSection {
		page, err := c.pages.Create(ctx, userID, store.CreatePageRequest{Name: proposal.Page})
		if err != nil {
			return nil, err
		}
		pageID = page.ID
	}

	if proposal.Section != "" {
		resolved, err := c.sections.ResolveByName(ctx, userID, pageID, proposal.Section)
		if err == nil {
			note, err := c.writeToSection(ctx, userID, resolved.ID, proposal)
			if err != nil {
				return nil, err
			}
			return &Outcome{Status: StatusDone, Note: note, Message: proposal.ResponseMessage, Degraded: parked.degraded}, nil
		}
		section, err := c.sections.Create(ctx, userID, store.CreateSectionRequest{PageID: pageID, Name: proposal.Section})
		if err != nil {
			return nil, err
		}
		note, err := c.writeToSection(ctx, userID, section.ID, proposal)
		if err != nil {
			return nil, err
		}
		return &Outcome{Status: StatusDone, Note: note, Message: proposal.ResponseMessage, Degraded: parked.degraded}, nil
	}

	note, err := c.writeNote(ctx, userID, pageID, parked.focusSectionID, proposal)
	if err != nil {
		return nil, err
	}
	return &Outcome{Status: StatusDone, Note: note, Message: proposal.ResponseMessage, Degraded: parked.degraded}, nil
}

// take removes and returns the caller's pending intake, validating the
// pending id and the expiry.
func (c *Coordinator) take(userID, pendingID string) (*pendingIntake, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	parked, ok := c.pending[userID]
	if !ok || parked.id != pendingID {
		return nil, fmt.Errorf("pending intake %s: %w", pendingID, domain.ErrNotFound)
	}
	delete(c.pending, userID)
	if time.Now().After(parked.expiresAt) {
		return nil, fmt.Errorf("pending intake %s expired: %w", pendingID, domain.ErrNotFound)
	}
	return parked, nil
}

func (c *Coordinator) unpark(userID string, parked *pendingIntake) {
	c.mu.Lock()
	c.pending[userID] = parked
	c.mu.Unlock()
}

// resolvePage maps a proposed page name onto the caller's pages,
// falling back to the active page.
func (c *Coordinator) resolvePage(ctx context.Context, userID, activePageID, name string) (string, error) {
	if name != "" {
		id, err := c.findPageByName(ctx, userID, name)
		if err != nil {
			return "", err
		}
		if id != "" {
			return id, nil
		}
	}
	if activePageID == "" {
		return "", fmt.Errorf("%w: no target page for note", domain.ErrValidation)
	}
	return activePageID, nil
}

// findPageByName returns the id of the caller's page matching the name
// case-insensitively, or "" when none does.
func (c *Coordinator) findPageByName(ctx context.Context, userID, name string) (string, error) {
	pages, err := c.pages.List(ctx, userID)
	if err != nil {
		return "", err
	}
	for _, page := range pages {
		if strings.EqualFold(page.Name, name) {
			return page.ID, nil
		}
	}
	return "", nil
}

// writeNote resolves the target section inside the page and creates
// the note. An unresolvable section name falls back to the focused
// section.
func (c *Coordinator) writeNote(ctx context.Context, userID, pageID, focusSectionID string, proposal *parse.Proposal) (*models.Note, error) {
	sectionID := ""
	if proposal.Section != "" {
		section, err := c.sections.ResolveByName(ctx, userID, pageID, proposal.Section)
		if err == nil {
			sectionID = section.ID
		}
	}
	if sectionID == "" {
		sectionID = focusSectionID
	}
	if sectionID == "" {
		return nil, fmt.Errorf("%w: no target section for note", domain.ErrValidation)
	}
	return c.writeToSection(ctx, userID, sectionID, proposal)
}

func (c *Coordinator) writeToSection(ctx context.Context, userID, sectionID string, proposal *parse.Proposal) (*models.Note, error) {
	return c.notes.Create(ctx, userID, store.CreateNoteRequest{
		SectionID: sectionID,
		Content:   proposal.Content,
		Tags:      proposal.Tags,
		Date:      proposal.Date,
	})
}
