package models

import (
	"encoding/json"
	"time"
)

// BoxConfig holds per-user, per-context view preferences. The config
// payload is opaque to the server.
type BoxConfig struct {
	UserID    string          `json:"user_id" db:"user_id"`
	ContextID string          `json:"context_id" db:"context_id"`
	Config    json.RawMessage `json:"config" db:"config"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}
