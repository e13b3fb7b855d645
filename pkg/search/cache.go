package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// Cache stores query results by key. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]Result, bool, error)
	Set(ctx context.Context, key string, results []Result) error
}

// CacheKey derives a stable key from the normalized query parameters.
func CacheKey(text string, opts Options) string {
	h := sha256.New()
	h.Write([]byte(text))
	h.Write([]byte{0})
	h.Write([]byte(opts.EpisodeTitle))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(opts.NumResults)))
	return hex.EncodeToString(h.Sum(nil))
}

// DefaultCachePrefix namespaces cached query results.
const DefaultCachePrefix = "podsearch:q:"

// RedisCache is a Cache backed by Redis. Values are msgpack-encoded
// result lists.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache wraps client. A zero ttl keeps entries until evicted.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: DefaultCachePrefix, ttl: ttl}
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) ([]Result, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("search: cache get: %w", err)
	}
	var results []Result
	if err := msgpack.Unmarshal(raw, &results); err != nil {
		return nil, false, fmt.Errorf("search: cache decode: %w", err)
	}
	return results, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, results []Result) error {
	raw, err := msgpack.Marshal(results)
	if err != nil {
		return fmt.Errorf("search: cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("search: cache set: %w", err)
	}
	return nil
}
