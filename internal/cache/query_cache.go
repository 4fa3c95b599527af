// Package cache implements the Redis-backed read-through query cache. The
// cache only ever holds derived, rebuildable query results keyed by logical
// query identity; authoritative auth state lives in the local store and is
// never written here.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Stats tracks cache performance counters.
type Stats struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Sets        int64 `json:"sets"`
	Invalidates int64 `json:"invalidates"`
	mu          sync.RWMutex
}

// QueryCache caches serialized query results in Redis under a shared
// application prefix, so Clear can wipe every derived entry in one pass.
type QueryCache struct {
	redis  *redis.Client
	ttl    time.Duration
	stats  *Stats
	prefix string
	logger *logrus.Logger
}

// NewQueryCache creates a query cache with the given entry TTL.
func NewQueryCache(redisClient *redis.Client, ttl time.Duration, logger *logrus.Logger) *QueryCache {
	return &QueryCache{
		redis:  redisClient,
		ttl:    ttl,
		stats:  &Stats{},
		prefix: "earnwise:",
		logger: logger,
	}
}

// Get loads the entry under key into dest. It returns false on a miss, a
// Redis error, or an entry that no longer deserializes; cache consumers fall
// back to the data source in all three cases.
func (c *QueryCache) Get(ctx context.Context, key string, dest interface{}) bool {
	data, err := c.redis.Get(ctx, c.prefix+key).Result()
	if err == redis.Nil {
		c.miss()
		return false
	}
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Redis error reading cache entry")
		c.miss()
		return false
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Error deserializing cache entry")
		c.miss()
		return false
	}

	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()
	return true
}

// Set stores value under key with the cache TTL.
func (c *QueryCache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("error serializing cache entry %s: %w", key, err)
	}

	if err := c.redis.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis error setting cache entry %s: %w", key, err)
	}

	c.stats.mu.Lock()
	c.stats.Sets++
	c.stats.mu.Unlock()
	return nil
}

// Invalidate removes the given logical keys.
func (c *QueryCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = c.prefix + key
	}
	if err := c.redis.Del(ctx, prefixed...).Err(); err != nil {
		return fmt.Errorf("redis error invalidating cache entries: %w", err)
	}

	c.stats.mu.Lock()
	c.stats.Invalidates += int64(len(keys))
	c.stats.mu.Unlock()
	return nil
}

// InvalidatePrefix removes every entry whose logical key starts with prefix.
func (c *QueryCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	return c.deletePattern(ctx, c.prefix+prefix+"*")
}

// Clear wipes all entries under the application prefix. Invoked by the auth
// reducer on sign-out so no cached query outlives the session that produced
// it.
func (c *QueryCache) Clear(ctx context.Context) error {
	return c.deletePattern(ctx, c.prefix+"*")
}

func (c *QueryCache) deletePattern(ctx context.Context, pattern string) error {
	// SCAN instead of KEYS so the pass stays incremental.
	var keys []string
	iter := c.redis.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("error scanning cache keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("error clearing cache: %w", err)
	}

	c.stats.mu.Lock()
	c.stats.Invalidates += int64(len(keys))
	c.stats.mu.Unlock()

	c.logger.WithField("entries", len(keys)).Debug("Cleared cache entries")
	return nil
}

// GetStats returns a snapshot of the cache counters.
func (c *QueryCache) GetStats() Stats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()
	return Stats{
		Hits:        c.stats.Hits,
		Misses:      c.stats.Misses,
		Sets:        c.stats.Sets,
		Invalidates: c.stats.Invalidates,
	}
}

func (c *QueryCache) miss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
}
