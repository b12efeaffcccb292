package store

import (
	"context"
	"errors"
	"fmt"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
)

// Authorizer resolves a principal's effective role on a page. Every
// write re-checks server-side; client-provided roles are never trusted.
type Authorizer struct {
	pageRepo repositories.PageRepository
	permRepo repositories.PermissionRepository
}

// NewAuthorizer creates a new authorizer
func NewAuthorizer(pageRepo repositories.PageRepository, permRepo repositories.PermissionRepository) *Authorizer {
	return &Authorizer{
		pageRepo: pageRepo,
		permRepo: permRepo,
	}
}

// EffectiveRole returns the page and the principal's role on it.
// Invisible pages (absent, tombstoned, or no non-declined permission)
// fail closed with ErrNotFound.
func (a *Authorizer) EffectiveRole(ctx context.Context, userID, pageID string) (models.Role, *models.Page, error) {
	page, err := a.pageRepo.GetByID(ctx, pageID)
	if err != nil {
		return "", nil, err
	}

	if page.OwnerUserID == userID {
		return models.RoleOwner, page, nil
	}

	perm, err := a.permRepo.Get(ctx, pageID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, fmt.Errorf("page %s: %w", pageID, domain.ErrNotFound)
		}
		return "", nil, err
	}
	if perm.Status == models.PermissionDeclined {
		return "", nil, fmt.Errorf("page %s: %w", pageID, domain.ErrNotFound)
	}

	return perm.Role, page, nil
}

// Require resolves the effective role and checks it against the action.
// A visible page without the capability yields ErrForbidden.
func (a *Authorizer) Require(ctx context.Context, userID, pageID string, action Action) (models.Role, *models.Page, error) {
	role, page, err := a.EffectiveRole(ctx, userID, pageID)
	if err != nil {
		return "", nil, err
	}
	if !Can(role, action) {
		return "", nil, fmt.Errorf("role %s: %w", role, domain.ErrForbidden)
	}
	return role, page, nil
}
