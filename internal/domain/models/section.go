package models

import (
	"time"
)

type Section struct {
	ID        string     `json:"id" db:"id"`
	PageID    string     `json:"page_id" db:"page_id"`
	Name      string     `json:"name" db:"name"`
	Position  int        `json:"position" db:"position"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}
