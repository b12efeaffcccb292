package store

import (
	"context"
	"log/slog"

	"inkwell/internal/domain/repositories"
)

// TagService serves the tag projection: the sorted unique tag set
// across a principal's visible notes. Derived state only - there is no
// tags table, and the cache is dropped on every note write.
type TagService struct {
	noteRepo repositories.NoteRepository
	cache    TagCache // may be nil
	logger   *slog.Logger
}

// NewTagService creates a new tag service
func NewTagService(noteRepo repositories.NoteRepository, cache TagCache, logger *slog.Logger) *TagService {
	return &TagService{
		noteRepo: noteRepo,
		cache:    cache,
		logger:   logger,
	}
}

// Projection returns the principal's tag projection, serving from the
// cache when warm and recomputing otherwise.
func (s *TagService) Projection(ctx context.Context, userID string) ([]string, error) {
	if s.cache != nil {
		if tags, ok := s.cache.Get(ctx, userID); ok {
			return tags, nil
		}
	}

	tags, err := s.noteRepo.TagsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, userID, tags)
	}
	return tags, nil
}
