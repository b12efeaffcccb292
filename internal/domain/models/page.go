package models

import (
	"time"
)

type Page struct {
	ID          string     `json:"id" db:"id"`
	OwnerUserID string     `json:"owner_user_id" db:"owner_user_id"`
	Name        string     `json:"name" db:"name"`
	Starred     bool       `json:"starred" db:"starred"`
	Position    int        `json:"position" db:"position"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`

	// Projections computed per reading principal, not stored. MyRole is
	// RoleOwner on owned pages; status and owner email are set only on
	// shared pages.
	MyRole           Role             `json:"my_role,omitempty"`
	PermissionStatus PermissionStatus `json:"permission_status,omitempty"`
	OwnerEmail       string           `json:"owner_email,omitempty"`
}
