package store

import (
	"context"
)

// TagCache is an optional read-through cache for the tag projection.
// Implementations must tolerate being skipped entirely; the projection
// is always recomputable from the notes table.
type TagCache interface {
	// Get returns the cached projection and whether it was present.
	Get(ctx context.Context, userID string) ([]string, bool)
	Set(ctx context.Context, userID string, tags []string)
	// Invalidate drops the cached projection for each user.
	Invalidate(ctx context.Context, userIDs ...string)
}

// Embedder receives note content after content-changing writes.
// Implementations are fire-and-forget; outcomes are never awaited.
type Embedder interface {
	NoteWritten(noteID, content string)
}
