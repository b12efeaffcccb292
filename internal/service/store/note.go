package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

const (
	// DefaultNoteLimit and MaxNoteLimit bound note listings.
	DefaultNoteLimit = 50
	MaxNoteLimit     = 200
)

// NoteService owns the note read and write paths, tag normalization,
// completion integrity, cache invalidation and the embedding hand-off.
type NoteService struct {
	noteRepo    repositories.NoteRepository
	sectionRepo repositories.SectionRepository
	permRepo    repositories.PermissionRepository
	auth        *Authorizer
	cache       TagCache // may be nil
	embedder    Embedder // may be nil
	logger      *slog.Logger
}

// NewNoteService creates a new note service
func NewNoteService(
	noteRepo repositories.NoteRepository,
	sectionRepo repositories.SectionRepository,
	permRepo repositories.PermissionRepository,
	auth *Authorizer,
	cache TagCache,
	embedder Embedder,
	logger *slog.Logger,
) *NoteService {
	return &NoteService{
		noteRepo:    noteRepo,
		sectionRepo: sectionRepo,
		permRepo:    permRepo,
		auth:        auth,
		cache:       cache,
		embedder:    embedder,
		logger:      logger,
	}
}

// ListNotesRequest narrows a note listing.
type ListNotesRequest struct {
	SectionID string
	PageID    string
	Completed *bool
	Tags      []string
	DateFrom  *time.Time
	DateTo    *time.Time
	Search    string
	Limit     int
}

// CreateNoteRequest carries a note creation.
type CreateNoteRequest struct {
	SectionID string     `json:"section_id"`
	Content   string     `json:"content"`
	Tags      []string   `json:"tags,omitempty"`
	Date      *time.Time `json:"date,omitempty"`
}

// Validate implements request validation
func (r CreateNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SectionID, validation.Required),
		validation.Field(&r.Content, validation.Required),
	)
}

// UpdateNoteRequest carries a partial note update. DateSet
// distinguishes "clear the date" from "leave it alone".
type UpdateNoteRequest struct {
	Content   *string
	Tags      *[]string
	Date      *time.Time
	DateSet   bool
	Completed *bool
}

// List returns visible notes matching the filter plus the total count.
// The limit is clamped to [1,200], defaulting to 50.
func (s *NoteService) List(ctx context.Context, userID string, req ListNotesRequest) ([]models.Note, int, error) {
	limit := req.Limit
	switch {
	case limit <= 0:
		limit = DefaultNoteLimit
	case limit > MaxNoteLimit:
		limit = MaxNoteLimit
	}

	filter := repositories.NoteFilter{
		UserID:    userID,
		SectionID: req.SectionID,
		PageID:    req.PageID,
		Completed: req.Completed,
		Tags:      models.NormalizeTags(req.Tags),
		DateFrom:  req.DateFrom,
		DateTo:    req.DateTo,
		Search:    req.Search,
		Limit:     limit,
	}

	notes, err := s.noteRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.noteRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return notes, total, nil
}

// Create creates a note in the section, newest-first by created_at
func (s *NoteService) Create(ctx context.Context, userID string, req CreateNoteRequest) (*models.Note, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	section, err := s.sectionRepo.GetByID(ctx, req.SectionID)
	if err != nil {
		return nil, err
	}

	if _, _, err := s.auth.Require(ctx, userID, section.PageID, ActionCreateNote); err != nil {
		return nil, err
	}

	note := &models.Note{
		ID:              uuid.NewString(),
		SectionID:       req.SectionID,
		Content:         req.Content,
		Tags:            models.NormalizeTags(req.Tags),
		Date:            req.Date,
		CreatedByUserID: userID,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.noteRepo.Create(ctx, note); err != nil {
		return nil, err
	}

	s.afterNoteWrite(ctx, section.PageID, note, true)
	return note, nil
}

// Update applies content, tag, date and completion changes under the
// role table. Completion keeps completed_by/completed_at consistent.
func (s *NoteService) Update(ctx context.Context, userID, noteID string, req UpdateNoteRequest) (*models.Note, error) {
	note, err := s.noteRepo.GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}

	section, err := s.sectionRepo.GetByID(ctx, note.SectionID)
	if err != nil {
		return nil, err
	}

	role, _, err := s.auth.EffectiveRole(ctx, userID, section.PageID)
	if err != nil {
		return nil, err
	}

	contentChanged := req.Content != nil || req.Tags != nil || req.DateSet
	if contentChanged {
		action := ActionEditAnyNote
		if note.CreatedByUserID == userID {
			action = ActionEditOwnNote
		}
		if !Can(role, action) {
			return nil, fmt.Errorf("role %s: %w", role, domain.ErrForbidden)
		}
	}
	if req.Completed != nil && !Can(role, ActionToggleComplete) {
		return nil, fmt.Errorf("role %s: %w", role, domain.ErrForbidden)
	}

	if req.Content != nil {
		if *req.Content == "" {
			return nil, fmt.Errorf("%w: content cannot be empty", domain.ErrValidation)
		}
		note.Content = *req.Content
	}
	if req.Tags != nil {
		note.Tags = models.NormalizeTags(*req.Tags)
	}
	if req.DateSet {
		note.Date = req.Date
	}
	if req.Completed != nil && *req.Completed != note.Completed {
		if *req.Completed {
			now := time.Now().UTC()
			note.Completed = true
			note.CompletedByUserID = &userID
			note.CompletedAt = &now
		} else {
			note.Completed = false
			note.CompletedByUserID = nil
			note.CompletedAt = nil
		}
	}

	if err := s.noteRepo.Update(ctx, note); err != nil {
		return nil, err
	}

	s.afterNoteWrite(ctx, section.PageID, note, contentChanged)
	return note, nil
}

// Delete soft-deletes the note
func (s *NoteService) Delete(ctx context.Context, userID, noteID string) error {
	note, err := s.noteRepo.GetByID(ctx, noteID)
	if err != nil {
		return err
	}

	section, err := s.sectionRepo.GetByID(ctx, note.SectionID)
	if err != nil {
		return err
	}

	action := ActionDeleteAnyNote
	if note.CreatedByUserID == userID {
		action = ActionDeleteOwnNote
	}
	if _, _, err := s.auth.Require(ctx, userID, section.PageID, action); err != nil {
		return err
	}

	if err := s.noteRepo.SoftDelete(ctx, noteID, time.Now().UTC()); err != nil {
		return err
	}

	s.invalidateProjection(ctx, section.PageID)
	s.logger.Info("note deleted", "note_id", noteID, "user_id", userID)
	return nil
}

// afterNoteWrite invalidates the tag projection for everyone who can
// see the page and hands content to the embedding sink. Neither step
// can fail the write.
func (s *NoteService) afterNoteWrite(ctx context.Context, pageID string, note *models.Note, contentChanged bool) {
	s.invalidateProjection(ctx, pageID)
	if contentChanged && s.embedder != nil {
		s.embedder.NoteWritten(note.ID, note.Content)
	}
}

func (s *NoteService) invalidateProjection(ctx context.Context, pageID string) {
	if s.cache == nil {
		return
	}
	userIDs, err := s.permRepo.UserIDsWithAccess(ctx, pageID)
	if err != nil {
		s.logger.Warn("tag cache invalidation skipped", "page_id", pageID, "error", err)
		return
	}
	s.cache.Invalidate(ctx, userIDs...)
}
