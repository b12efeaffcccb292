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

// SectionService owns the section read and write paths.
type SectionService struct {
	sectionRepo repositories.SectionRepository
	permRepo    repositories.PermissionRepository
	auth        *Authorizer
	cache       TagCache
	logger      *slog.Logger
}

// NewSectionService creates a new section service
func NewSectionService(sectionRepo repositories.SectionRepository, permRepo repositories.PermissionRepository, auth *Authorizer, cache TagCache, logger *slog.Logger) *SectionService {
	return &SectionService{
		sectionRepo: sectionRepo,
		permRepo:    permRepo,
		auth:        auth,
		cache:       cache,
		logger:      logger,
	}
}

// CreateSectionRequest carries a section creation.
type CreateSectionRequest struct {
	PageID string `json:"page_id"`
	Name   string `json:"name"`
}

// Validate implements request validation
func (r CreateSectionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PageID, validation.Required),
		validation.Field(&r.Name, validation.Required, validation.Length(1, MaxNameLength)),
	)
}

// UpdateSectionRequest carries a partial section update.
type UpdateSectionRequest struct {
	Name     *string `json:"name,omitempty"`
	Position *int    `json:"position,omitempty"`
}

// Validate implements request validation
func (r UpdateSectionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, MaxNameLength)),
		validation.Field(&r.Position, validation.Min(0)),
	)
}

// List returns the live sections of a page visible to the user.
// Invisible pages fail closed with NotFound.
func (s *SectionService) List(ctx context.Context, userID, pageID string) ([]models.Section, error) {
	if _, _, err := s.auth.EffectiveRole(ctx, userID, pageID); err != nil {
		return nil, err
	}
	return s.sectionRepo.ListByPage(ctx, pageID)
}

// Create appends a section to the page
func (s *SectionService) Create(ctx context.Context, userID string, req CreateSectionRequest) (*models.Section, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if _, _, err := s.auth.Require(ctx, userID, req.PageID, ActionManageSections); err != nil {
		return nil, err
	}

	max, err := s.sectionRepo.MaxPosition(ctx, req.PageID)
	if err != nil {
		return nil, err
	}

	section := &models.Section{
		ID:        uuid.NewString(),
		PageID:    req.PageID,
		Name:      req.Name,
		Position:  max + 1,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sectionRepo.Create(ctx, section); err != nil {
		return nil, err
	}

	s.logger.Info("section created", "section_id", section.ID, "page_id", req.PageID, "user_id", userID)
	return section, nil
}

// Update applies rename and reorder
func (s *SectionService) Update(ctx context.Context, userID, sectionID string, req UpdateSectionRequest) (*models.Section, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	section, err := s.sectionRepo.GetByID(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	if _, _, err := s.auth.Require(ctx, userID, section.PageID, ActionManageSections); err != nil {
		return nil, err
	}

	if req.Name != nil {
		section.Name = *req.Name
	}
	if req.Position != nil {
		section.Position = *req.Position
	}

	if err := s.sectionRepo.Update(ctx, section); err != nil {
		return nil, err
	}

	return section, nil
}

// Delete soft-deletes the section
func (s *SectionService) Delete(ctx context.Context, userID, sectionID string) error {
	section, err := s.sectionRepo.GetByID(ctx, sectionID)
	if err != nil {
		return err
	}

	if _, _, err := s.auth.Require(ctx, userID, section.PageID, ActionManageSections); err != nil {
		return err
	}

	if err := s.sectionRepo.SoftDelete(ctx, sectionID, time.Now().UTC()); err != nil {
		return err
	}

	// The section's notes drop out of the projection with it.
	s.invalidateProjection(ctx, section.PageID)
	s.logger.Info("section deleted", "section_id", sectionID, "user_id", userID)
	return nil
}

func (s *SectionService) invalidateProjection(ctx context.Context, pageID string) {
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

// ResolveByName finds the target section for a name within a page,
// case-insensitively. When several sections share the name, the lowest
// position wins, then the earliest created_at.
func (s *SectionService) ResolveByName(ctx context.Context, userID, pageID, name string) (*models.Section, error) {
	if _, _, err := s.auth.EffectiveRole(ctx, userID, pageID); err != nil {
		return nil, err
	}

	matches, err := s.sectionRepo.FindByName(ctx, pageID, name)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("section %q: %w", name, domain.ErrNotFound)
	}
	return &matches[0], nil
}
