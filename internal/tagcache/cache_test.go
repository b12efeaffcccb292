package tagcache

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWithClient(client, logger), mr
}

func TestCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	if _, ok := cache.Get(ctx, "u1"); ok {
		t.Fatal("expected miss on empty cache")
	}

	tags := []string{"errand", "health", "work"}
	cache.Set(ctx, "u1", tags)

	got, ok := cache.Get(ctx, "u1")
	if !ok {
		t.Fatal("expected hit after set")
	}
	if !reflect.DeepEqual(got, tags) {
		t.Errorf("got %v, want %v", got, tags)
	}
}

func TestCacheEntryExpires(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, "u1", []string{"work"})
	mr.FastForward(TTL + 1)

	if _, ok := cache.Get(ctx, "u1"); ok {
		t.Error("expected miss after TTL elapsed")
	}
}

func TestCacheInvalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, "u1", []string{"a"})
	cache.Set(ctx, "u2", []string{"b"})
	cache.Set(ctx, "u3", []string{"c"})

	cache.Invalidate(ctx, "u1", "u2")

	if _, ok := cache.Get(ctx, "u1"); ok {
		t.Error("u1 should be invalidated")
	}
	if _, ok := cache.Get(ctx, "u2"); ok {
		t.Error("u2 should be invalidated")
	}
	if _, ok := cache.Get(ctx, "u3"); !ok {
		t.Error("u3 should still be cached")
	}
}

func TestCacheCorruptEntryIsMiss(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	if err := mr.Set("tags:u1", "not json"); err != nil {
		t.Fatal(err)
	}
	if _, ok := cache.Get(ctx, "u1"); ok {
		t.Error("corrupt entry must read as a miss")
	}
}

func TestCacheDegradesWhenRedisDown(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, "u1", []string{"a"})
	mr.Close()

	if _, ok := cache.Get(ctx, "u1"); ok {
		t.Error("unreachable redis must read as a miss")
	}
	// Writes and invalidations are fire-and-forget.
	cache.Set(ctx, "u1", []string{"b"})
	cache.Invalidate(ctx, "u1")
}
