package models

import (
	"time"
)

// User mirrors the identity provider's record. Rows are upserted lazily
// when a session authenticates so that email projections and share
// grants by email can resolve locally.
type User struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
