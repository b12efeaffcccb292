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

// MaxNameLength bounds page, section and key names. Long names are
// legal; empty ones are not.
const MaxNameLength = 10000

// PageService owns the page read and write paths.
type PageService struct {
	pageRepo repositories.PageRepository
	permRepo repositories.PermissionRepository
	auth     *Authorizer
	cache    TagCache
	logger   *slog.Logger
}

// NewPageService creates a new page service
func NewPageService(pageRepo repositories.PageRepository, permRepo repositories.PermissionRepository, auth *Authorizer, cache TagCache, logger *slog.Logger) *PageService {
	return &PageService{
		pageRepo: pageRepo,
		permRepo: permRepo,
		auth:     auth,
		cache:    cache,
		logger:   logger,
	}
}

// CreatePageRequest carries a page creation.
type CreatePageRequest struct {
	Name string `json:"name"`
}

// Validate implements request validation
func (r CreatePageRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, MaxNameLength)),
	)
}

// UpdatePageRequest carries a partial page update. Nil fields are left
// unchanged.
type UpdatePageRequest struct {
	Name     *string `json:"name,omitempty"`
	Starred  *bool   `json:"starred,omitempty"`
	Position *int    `json:"position,omitempty"`
}

// Validate implements request validation
func (r UpdatePageRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, MaxNameLength)),
		validation.Field(&r.Position, validation.Min(0)),
	)
}

// List returns the pages visible to the user, owner-first
func (s *PageService) List(ctx context.Context, userID string) ([]models.Page, error) {
	return s.pageRepo.ListForUser(ctx, userID)
}

// Get returns a single visible page with the role projection
func (s *PageService) Get(ctx context.Context, userID, pageID string) (*models.Page, error) {
	role, page, err := s.auth.EffectiveRole(ctx, userID, pageID)
	if err != nil {
		return nil, err
	}
	page.MyRole = role
	return page, nil
}

// Create creates a page owned by the user, appended after existing pages
func (s *PageService) Create(ctx context.Context, userID string, req CreatePageRequest) (*models.Page, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	max, err := s.pageRepo.MaxPosition(ctx, userID)
	if err != nil {
		return nil, err
	}

	page := &models.Page{
		ID:          uuid.NewString(),
		OwnerUserID: userID,
		Name:        req.Name,
		Position:    max + 1,
		CreatedAt:   time.Now().UTC(),
		MyRole:      models.RoleOwner,
	}
	if err := s.pageRepo.Create(ctx, page); err != nil {
		return nil, err
	}

	s.logger.Info("page created", "page_id", page.ID, "user_id", userID)
	return page, nil
}

// Update applies rename, star and reorder. Rename and reorder need the
// owner; starring also admits team-admin.
func (s *PageService) Update(ctx context.Context, userID, pageID string, req UpdatePageRequest) (*models.Page, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	action := ActionStarPage
	if req.Name != nil || req.Position != nil {
		action = ActionManagePage
	}

	role, page, err := s.auth.Require(ctx, userID, pageID, action)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		page.Name = *req.Name
	}
	if req.Starred != nil {
		page.Starred = *req.Starred
	}
	if req.Position != nil {
		page.Position = *req.Position
	}

	if err := s.pageRepo.Update(ctx, page); err != nil {
		return nil, err
	}

	page.MyRole = role
	return page, nil
}

// Delete soft-deletes the page. Descendants are untouched; the ancestor
// rule hides them.
func (s *PageService) Delete(ctx context.Context, userID, pageID string) error {
	if _, _, err := s.auth.Require(ctx, userID, pageID, ActionManagePage); err != nil {
		return err
	}

	if err := s.pageRepo.SoftDelete(ctx, pageID, time.Now().UTC()); err != nil {
		return err
	}

	// Hiding the page hides its notes, so the tag projection of
	// everyone who could see it changes.
	s.invalidateProjection(ctx, pageID)
	s.logger.Info("page deleted", "page_id", pageID, "user_id", userID)
	return nil
}

func (s *PageService) invalidateProjection(ctx context.Context, pageID string) {
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
