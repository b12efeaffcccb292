package models

import (
	"sort"
	"strings"
	"time"
)

type Note struct {
	ID                string     `json:"id" db:"id"`
	SectionID         string     `json:"section_id" db:"section_id"`
	Content           string     `json:"content" db:"content"`
	Tags              []string   `json:"tags" db:"tags"`
	Date              *time.Time `json:"date,omitempty" db:"date"`
	Completed         bool       `json:"completed" db:"completed"`
	CompletedByUserID *string    `json:"completed_by_user_id,omitempty" db:"completed_by_user_id"`
	CompletedAt       *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedByUserID   string     `json:"created_by_user_id" db:"created_by_user_id"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	DeletedAt         *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// NormalizeTags trims, lowercases and deduplicates tags, dropping empties.
// Order of first occurrence is preserved.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		normalized = append(normalized, tag)
	}
	return normalized
}

// SortedUniqueTags flattens tag slices into a sorted unique set.
// This is the tag projection: derived, never stored.
func SortedUniqueTags(tagSets ...[]string) []string {
	seen := make(map[string]struct{})
	for _, tags := range tagSets {
		for _, tag := range tags {
			seen[tag] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for tag := range seen {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
