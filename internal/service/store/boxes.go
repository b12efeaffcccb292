package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
)

// MaxBoxConfigBytes caps the opaque config payload.
const MaxBoxConfigBytes = 64 * 1024

// BoxConfigService stores per-user view preferences keyed by an opaque
// context id. The payload is never interpreted, only bounded.
type BoxConfigService struct {
	repo repositories.BoxConfigRepository
}

// NewBoxConfigService creates a new box config service
func NewBoxConfigService(repo repositories.BoxConfigRepository) *BoxConfigService {
	return &BoxConfigService{repo: repo}
}

// Get returns the stored config for (user, context). A context the user
// never saved returns an empty config rather than an error.
func (s *BoxConfigService) Get(ctx context.Context, userID, contextID string) (*models.BoxConfig, error) {
	if contextID == "" {
		return nil, fmt.Errorf("%w: context id is required", domain.ErrValidation)
	}
	config, err := s.repo.Get(ctx, userID, contextID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &models.BoxConfig{
				UserID:    userID,
				ContextID: contextID,
				Config:    json.RawMessage(`{}`),
			}, nil
		}
		return nil, err
	}
	return config, nil
}

// Put upserts the config for (user, context)
func (s *BoxConfigService) Put(ctx context.Context, userID, contextID string, payload json.RawMessage) (*models.BoxConfig, error) {
	if contextID == "" {
		return nil, fmt.Errorf("%w: context id is required", domain.ErrValidation)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: config payload is required", domain.ErrValidation)
	}
	if len(payload) > MaxBoxConfigBytes {
		return nil, fmt.Errorf("%w: config payload exceeds %d bytes", domain.ErrValidation, MaxBoxConfigBytes)
	}
	if !json.Valid(payload) {
		return nil, fmt.Errorf("%w: config payload is not valid JSON", domain.ErrValidation)
	}

	config := &models.BoxConfig{
		UserID:    userID,
		ContextID: contextID,
		Config:    payload,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.repo.Put(ctx, config); err != nil {
		return nil, err
	}
	return config, nil
}
