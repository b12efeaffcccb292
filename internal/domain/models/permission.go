package models

import (
	"time"
)

// Role is the access level a user holds on a page.
type Role string

const (
	RoleOwner       Role = "owner"
	RoleTeamAdmin   Role = "team-admin"
	RoleTeam        Role = "team"
	RoleTeamLimited Role = "team-limited"
	RolePublic      Role = "public"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleTeamAdmin, RoleTeam, RoleTeamLimited, RolePublic:
		return true
	}
	return false
}

// PermissionStatus is the invitee's state on a share grant.
type PermissionStatus string

const (
	PermissionPending  PermissionStatus = "pending"
	PermissionAccepted PermissionStatus = "accepted"
	PermissionDeclined PermissionStatus = "declined"
)

// Permission links a user to a shared page. One row per (page, user).
type Permission struct {
	PageID    string           `json:"page_id" db:"page_id"`
	UserID    string           `json:"user_id" db:"user_id"`
	Role      Role             `json:"role" db:"role"`
	Status    PermissionStatus `json:"status" db:"status"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}
