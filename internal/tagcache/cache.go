// Package tagcache caches per-user tag projections in Redis. Every
// failure degrades to a cache miss; the projection is always
// recomputable from the notes table.
package tagcache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTL bounds how stale a cached projection can get.
const TTL = 5 * time.Minute

// Cache is a Redis-backed tag projection cache
type Cache struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// New connects to Redis and returns a cache
func New(redisURL string, logger *slog.Logger) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewWithClient(client, logger), nil
}

// NewWithClient creates a cache from an existing Redis client
func NewWithClient(client *redis.Client, logger *slog.Logger) *Cache {
	return &Cache{
		client: client,
		prefix: "tags:",
		logger: logger,
	}
}

func (c *Cache) key(userID string) string {
	return c.prefix + userID
}

// Get returns the cached projection and whether it was present
func (c *Cache) Get(ctx context.Context, userID string) ([]string, bool) {
	jsonData, err := c.client.Get(ctx, c.key(userID)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("tag cache read failed", "user_id", userID, "error", err)
		return nil, false
	}

	var tags []string
	if err := json.Unmarshal([]byte(jsonData), &tags); err != nil {
		c.logger.Warn("tag cache entry corrupt", "user_id", userID, "error", err)
		return nil, false
	}
	return tags, true
}

// Set stores the projection with the cache TTL
func (c *Cache) Set(ctx context.Context, userID string, tags []string) {
	jsonData, err := json.Marshal(tags)
	if err != nil {
		c.logger.Warn("tag cache marshal failed", "user_id", userID, "error", err)
		return
	}
	if err := c.client.Set(ctx, c.key(userID), jsonData, TTL).Err(); err != nil {
		c.logger.Warn("tag cache write failed", "user_id", userID, "error", err)
	}
}

// Invalidate drops the cached projection for each user
func (c *Cache) Invalidate(ctx context.Context, userIDs ...string) {
	if len(userIDs) == 0 {
		return
	}
	keys := make([]string, len(userIDs))
	for i, userID := range userIDs {
		keys[i] = c.key(userID)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("tag cache invalidation failed", "error", err)
	}
}

// Close releases the underlying Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}
