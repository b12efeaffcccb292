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

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ShareService manages page permissions. Only the owner may grant or
// revoke freely; team-admin may do both except touching the owner role.
type ShareService struct {
	permRepo repositories.PermissionRepository
	userRepo repositories.UserRepository
	auth     *Authorizer
	logger   *slog.Logger
}

// NewShareService creates a new share service
func NewShareService(
	permRepo repositories.PermissionRepository,
	userRepo repositories.UserRepository,
	auth *Authorizer,
	logger *slog.Logger,
) *ShareService {
	return &ShareService{
		permRepo: permRepo,
		userRepo: userRepo,
		auth:     auth,
		logger:   logger,
	}
}

// GrantShareRequest carries a share grant. The invitee is addressed by
// email and must already be known to the identity mirror.
type GrantShareRequest struct {
	PageID string      `json:"page_id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
}

// Validate implements request validation
func (r GrantShareRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PageID, validation.Required),
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Role, validation.Required),
	)
}

// Grant creates or replaces a pending share for the invitee
func (s *ShareService) Grant(ctx context.Context, actorID string, req GrantShareRequest) (*models.Permission, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if !req.Role.Valid() || req.Role == models.RoleOwner {
		return nil, fmt.Errorf("%w: role %q cannot be granted", domain.ErrValidation, req.Role)
	}

	actorRole, page, err := s.auth.Require(ctx, actorID, req.PageID, ActionShare)
	if err != nil {
		return nil, err
	}
	// team-admin may not hand out team-admin either; only the owner
	// assigns admins.
	if actorRole == models.RoleTeamAdmin && req.Role == models.RoleTeamAdmin {
		return nil, fmt.Errorf("role %s: %w", actorRole, domain.ErrForbidden)
	}

	invitee, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if invitee.ID == page.OwnerUserID {
		return nil, fmt.Errorf("%w: page owner cannot be invited", domain.ErrValidation)
	}

	perm := &models.Permission{
		PageID:    req.PageID,
		UserID:    invitee.ID,
		Role:      req.Role,
		Status:    models.PermissionPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.permRepo.Upsert(ctx, perm); err != nil {
		return nil, err
	}

	s.logger.Info("share granted", "page_id", req.PageID, "invitee", invitee.ID, "role", req.Role)
	return perm, nil
}

// Respond lets the invitee accept or decline their pending grant
func (s *ShareService) Respond(ctx context.Context, userID, pageID string, accept bool) error {
	if _, err := s.permRepo.Get(ctx, pageID, userID); err != nil {
		return err
	}

	status := models.PermissionDeclined
	if accept {
		status = models.PermissionAccepted
	}
	return s.permRepo.SetStatus(ctx, pageID, userID, status)
}

// Revoke removes a grant. team-admin may not revoke another admin.
func (s *ShareService) Revoke(ctx context.Context, actorID, pageID, targetUserID string) error {
	actorRole, _, err := s.auth.Require(ctx, actorID, pageID, ActionShare)
	if err != nil {
		return err
	}

	target, err := s.permRepo.Get(ctx, pageID, targetUserID)
	if err != nil {
		return err
	}
	if actorRole == models.RoleTeamAdmin && target.Role == models.RoleTeamAdmin && actorID != targetUserID {
		return fmt.Errorf("role %s: %w", actorRole, domain.ErrForbidden)
	}

	if err := s.permRepo.Delete(ctx, pageID, targetUserID); err != nil {
		return err
	}

	s.logger.Info("share revoked", "page_id", pageID, "target", targetUserID)
	return nil
}

// List returns the grants on a page. Any non-declined collaborator may
// look; invisible pages fail closed.
func (s *ShareService) List(ctx context.Context, userID, pageID string) ([]models.Permission, error) {
	if _, _, err := s.auth.EffectiveRole(ctx, userID, pageID); err != nil {
		return nil, err
	}

	perms, err := s.permRepo.ListForPage(ctx, pageID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []models.Permission{}, nil
		}
		return nil, err
	}
	return perms, nil
}
