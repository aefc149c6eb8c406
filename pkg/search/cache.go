package search

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores search results keyed by normalized query. Entries may be
// dropped at any time; correctness never depends on a hit. Keys are scoped
// by corpus snapshot hash at construction so a redeploy with a new corpus
// can never serve stale results.
type Cache interface {
	Get(ctx context.Context, key string) ([]string, bool)
	Set(ctx context.Context, key string, ids []string)
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]string
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]string)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids, ok := c.entries[key]
	return ids, ok
}

func (c *MemoryCache) Set(_ context.Context, key string, ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = ids
}

// RedisCache shares search results across instances. Failures degrade to a
// cache miss; the search service recomputes from the corpus.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache creates a cache over a Redis client. snapshotHash scopes
// keys to one corpus snapshot.
func NewRedisCache(client *redis.Client, snapshotHash string, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: "kanun:search:" + snapshotHash + ":",
		ttl:    ttl,
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]string, bool) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, false
	}
	return ids, true
}

func (c *RedisCache) Set(ctx context.Context, key string, ids []string) {
	raw, err := json.Marshal(ids)
	if err != nil {
		return
	}
	// Best effort; a write failure only costs a future recompute.
	_ = c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err()
}
