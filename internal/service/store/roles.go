package store

import (
	"inkwell/internal/domain/models"
)

// Action is a permission-gated store operation.
type Action int

const (
	// ActionManagePage covers create, rename, reorder and delete of pages.
	ActionManagePage Action = iota
	// ActionStarPage covers star/unstar.
	ActionStarPage
	// ActionManageSections covers create, rename, reorder and delete of sections.
	ActionManageSections
	ActionCreateNote
	ActionEditOwnNote
	ActionEditAnyNote
	ActionToggleComplete
	ActionDeleteOwnNote
	ActionDeleteAnyNote
	// ActionShare covers grant and revoke of page permissions.
	ActionShare
)

// Can reports whether a role may perform an action on the owning page.
// Role order: owner > team-admin > team > team-limited > public.
func Can(role models.Role, action Action) bool {
	switch action {
	case ActionManagePage:
		return role == models.RoleOwner
	case ActionStarPage:
		return role == models.RoleOwner || role == models.RoleTeamAdmin
	case ActionManageSections, ActionCreateNote, ActionEditOwnNote, ActionDeleteOwnNote:
		return role == models.RoleOwner || role == models.RoleTeamAdmin || role == models.RoleTeam
	case ActionEditAnyNote, ActionDeleteAnyNote:
		return role == models.RoleOwner || role == models.RoleTeamAdmin
	case ActionToggleComplete:
		return role != models.RolePublic && role.Valid()
	case ActionShare:
		return role == models.RoleOwner || role == models.RoleTeamAdmin
	}
	return false
}
