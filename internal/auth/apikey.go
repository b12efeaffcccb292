package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"

	"github.com/google/uuid"
)

const (
	apiKeyPrefix    = "sk_live_"
	apiKeyRandBytes = 32
	maxKeyNameLen   = 200
)

// APIKeyService issues and verifies API keys. Only the hex SHA-256 of
// the key material is ever stored; the plaintext is returned exactly
// once at issuance.
type APIKeyService struct {
	repo   repositories.APIKeyRepository
	logger *slog.Logger
}

// NewAPIKeyService creates a new API key service
func NewAPIKeyService(repo repositories.APIKeyRepository, logger *slog.Logger) *APIKeyService {
	return &APIKeyService{repo: repo, logger: logger}
}

// IssuedKey carries the one-time plaintext alongside the stored row
type IssuedKey struct {
	models.APIKey
	Key string `json:"key"`
}

// Issue generates a key for the user. Issuance is only reachable over
// a session-authenticated channel; the handler enforces that.
func (s *APIKeyService) Issue(ctx context.Context, userID, name string) (*IssuedKey, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxKeyNameLen {
		return nil, fmt.Errorf("%w: key name must be 1-%d characters", domain.ErrValidation, maxKeyNameLen)
	}

	raw := make([]byte, apiKeyRandBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate key material: %w", err)
	}
	plaintext := apiKeyPrefix + hex.EncodeToString(raw)

	key := &models.APIKey{
		ID:        uuid.New().String(),
		UserID:    userID,
		KeyHash:   HashKey(plaintext),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, key); err != nil {
		return nil, err
	}

	s.logger.Info("api key issued", "key_id", key.ID, "user_id", userID)
	return &IssuedKey{APIKey: *key, Key: plaintext}, nil
}

// Verify authenticates a presented key. All failure modes collapse to
// ErrUnauthorized. last_used_at is touched in a goroutine; a failed
// touch never fails the request.
func (s *APIKeyService) Verify(ctx context.Context, presented string) (*models.APIKey, error) {
	if !strings.HasPrefix(presented, apiKeyPrefix) || len(presented) != len(apiKeyPrefix)+apiKeyRandBytes*2 {
		return nil, domain.ErrUnauthorized
	}

	hash := HashKey(presented)
	key, err := s.repo.GetByHash(ctx, hash)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(key.KeyHash), []byte(hash)) != 1 {
		return nil, domain.ErrUnauthorized
	}
	if key.RevokedAt != nil {
		s.logger.Debug("revoked api key presented", "key_id", key.ID)
		return nil, domain.ErrUnauthorized
	}

	go func() {
		touchCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.repo.TouchLastUsed(touchCtx, key.ID, time.Now().UTC()); err != nil {
			s.logger.Debug("failed to update key last_used_at", "key_id", key.ID, "error", err)
		}
	}()

	return key, nil
}

// List returns the user's keys, hashes omitted from serialization
func (s *APIKeyService) List(ctx context.Context, userID string) ([]models.APIKey, error) {
	return s.repo.ListForUser(ctx, userID)
}

// Revoke permanently disables a key the user owns
func (s *APIKeyService) Revoke(ctx context.Context, userID, keyID string) error {
	if err := s.repo.Revoke(ctx, keyID, userID, time.Now().UTC()); err != nil {
		return err
	}
	s.logger.Info("api key revoked", "key_id", keyID, "user_id", userID)
	return nil
}

// HashKey returns the hex SHA-256 of the key material
func HashKey(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
