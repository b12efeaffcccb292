package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
)

type fakeKeyRepo struct {
	mu     sync.Mutex
	byHash map[string]*models.APIKey
}

func newFakeKeyRepo() *fakeKeyRepo {
	return &fakeKeyRepo{byHash: make(map[string]*models.APIKey)}
}

func (f *fakeKeyRepo) Create(ctx context.Context, key *models.APIKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *key
	f.byHash[key.KeyHash] = &stored
	return nil
}

func (f *fakeKeyRepo) GetByHash(ctx context.Context, keyHash string) (*models.APIKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key, ok := f.byHash[keyHash]
	if !ok {
		return nil, fmt.Errorf("api key: %w", domain.ErrNotFound)
	}
	copied := *key
	return &copied, nil
}

func (f *fakeKeyRepo) ListForUser(ctx context.Context, userID string) ([]models.APIKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []models.APIKey
	for _, key := range f.byHash {
		if key.UserID == userID {
			keys = append(keys, *key)
		}
	}
	return keys, nil
}

func (f *fakeKeyRepo) Revoke(ctx context.Context, id, userID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range f.byHash {
		if key.ID == id && key.UserID == userID {
			if key.RevokedAt == nil {
				key.RevokedAt = &at
			}
			return nil
		}
	}
	return fmt.Errorf("api key %s: %w", id, domain.ErrNotFound)
}

func (f *fakeKeyRepo) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range f.byHash {
		if key.ID == id {
			key.LastUsedAt = &at
		}
	}
	return nil
}

func newTestKeyService() (*APIKeyService, *fakeKeyRepo) {
	repo := newFakeKeyRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAPIKeyService(repo, logger), repo
}

func TestIssueAndVerify(t *testing.T) {
	svc, _ := newTestKeyService()
	ctx := context.Background()

	issued, err := svc.Issue(ctx, "u1", "ci runner")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !strings.HasPrefix(issued.Key, "sk_live_") {
		t.Errorf("key %q missing prefix", issued.Key)
	}
	if len(issued.Key) != len("sk_live_")+64 {
		t.Errorf("key length = %d", len(issued.Key))
	}
	if issued.KeyHash == issued.Key {
		t.Error("plaintext must not equal stored hash")
	}
	if issued.KeyHash != HashKey(issued.Key) {
		t.Error("stored hash does not match key material")
	}

	verified, err := svc.Verify(ctx, issued.Key)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if verified.UserID != "u1" || verified.ID != issued.ID {
		t.Errorf("verified wrong key: %+v", verified)
	}
}

func TestIssueValidatesName(t *testing.T) {
	svc, _ := newTestKeyService()
	ctx := context.Background()

	for _, name := range []string{"", "   ", strings.Repeat("x", 201)} {
		if _, err := svc.Issue(ctx, "u1", name); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Issue(%q): expected validation error, got %v", name, err)
		}
	}
}

func TestVerifyRejectsMalformedKeys(t *testing.T) {
	svc, _ := newTestKeyService()
	ctx := context.Background()

	tests := []string{
		"",
		"sk_live_short",
		"sk_test_" + strings.Repeat("a", 64),
		strings.Repeat("a", 72),
		"sk_live_" + strings.Repeat("a", 65),
	}
	for _, presented := range tests {
		if _, err := svc.Verify(ctx, presented); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("Verify(%q): expected unauthorized, got %v", presented, err)
		}
	}
}

func TestVerifyUnknownKey(t *testing.T) {
	svc, _ := newTestKeyService()
	_, err := svc.Verify(context.Background(), "sk_live_"+strings.Repeat("a", 64))
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected unauthorized, got %v", err)
	}
}

func TestVerifyRevokedKey(t *testing.T) {
	svc, _ := newTestKeyService()
	ctx := context.Background()

	issued, err := svc.Issue(ctx, "u1", "deploy")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if err := svc.Revoke(ctx, "u1", issued.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	if _, err := svc.Verify(ctx, issued.Key); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected unauthorized for revoked key, got %v", err)
	}
}

func TestRevokeOtherUsersKey(t *testing.T) {
	svc, _ := newTestKeyService()
	ctx := context.Background()

	issued, err := svc.Issue(ctx, "u1", "deploy")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if err := svc.Revoke(ctx, "u2", issued.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, err := svc.Verify(ctx, issued.Key); err != nil {
		t.Errorf("key should still verify: %v", err)
	}
}
