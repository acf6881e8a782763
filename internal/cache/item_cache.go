package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"teamvault/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

// ItemCache is a read-through Redis cache for vault item documents, keyed by
// item ID. A nil *ItemCache is valid and disables caching, so callers never
// need to branch on whether Redis is configured.
//
// The cache holds metadata, grants and the access log, but the plaintext of
// an item never passes through it: the ciphertext reference is cached as-is.
// Entries are serialized with BSON so every persisted field round-trips.
type ItemCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// New creates an ItemCache backed by the given Redis client.
func New(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ItemCache {
	return &ItemCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached item, or (nil, nil) on a miss. Cache errors are
// logged and reported as misses; the store of record stays authoritative.
func (c *ItemCache) Get(ctx context.Context, id string) (*domain.VaultItem, error) {
	if c == nil {
		return nil, nil
	}
	val, err := c.client.Get(ctx, c.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		c.logger.Warn("item cache read failed", zap.String("item", id), zap.Error(err))
		return nil, nil
	}

	var item domain.VaultItem
	if err := bson.Unmarshal([]byte(val), &item); err != nil {
		c.logger.Warn("item cache entry corrupt", zap.String("item", id), zap.Error(err))
		return nil, nil
	}
	return &item, nil
}

// Set stores the item under its ID with the configured TTL.
func (c *ItemCache) Set(ctx context.Context, item *domain.VaultItem) {
	if c == nil {
		return
	}
	data, err := bson.Marshal(item)
	if err != nil {
		c.logger.Warn("item cache marshal failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.key(item.ID.Hex()), data, c.ttl).Err(); err != nil {
		c.logger.Warn("item cache write failed", zap.String("item", item.ID.Hex()), zap.Error(err))
	}
}

// Invalidate drops the cached copy of an item. Called after every mutation
// (share, soft delete, access-log append) so stale grants are never served.
func (c *ItemCache) Invalidate(ctx context.Context, id string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		c.logger.Warn("item cache invalidation failed", zap.String("item", id), zap.Error(err))
	}
}

func (c *ItemCache) key(id string) string {
	return fmt.Sprintf("vault:item:%s", id)
}
