package models

import (
	"time"
)

// Snapshot is a full client-side copy of the principal's owned pages
// (with inlined sections) and notes, submitted for bulk reconcile.
// Positions are implied by slice order; the server reassigns them.
type Snapshot struct {
	Pages []SnapshotPage `json:"pages"`
}

type SnapshotPage struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Starred  bool              `json:"starred"`
	Sections []SnapshotSection `json:"sections"`
}

type SnapshotSection struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Notes []SnapshotNote `json:"notes"`
}

type SnapshotNote struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	Tags      []string   `json:"tags"`
	Date      *time.Time `json:"date,omitempty"`
	Completed bool       `json:"completed"`
}

// SyncResult summarizes what a reconcile changed.
type SyncResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Deleted  int `json:"deleted"`
	Skipped  int `json:"skipped"`
}
