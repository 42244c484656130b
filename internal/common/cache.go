package common

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
)

// Cache stores JSON-encoded values. A miss is reported as (false, nil).
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// MemoryCache is an in-process Cache backed by go-cache.
type MemoryCache struct {
	*cache.Cache
}

func NewMemoryCache(expirationTime, cleanupTime time.Duration) *MemoryCache {
	return &MemoryCache{cache.New(expirationTime, cleanupTime)}
}

func (c *MemoryCache) Get(_ context.Context, key string, dst any) (bool, error) {
	v, ok := c.Cache.Get(key)
	if !ok {
		return false, nil
	}

	b, ok := v.([]byte)
	if !ok {
		return false, nil
	}

	if err := json.Unmarshal(b, dst); err != nil {
		return false, err
	}

	return true, nil
}

// Set stores value for ttl. A zero ttl uses the cache default expiration.
func (c *MemoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if ttl == 0 {
		ttl = cache.DefaultExpiration
	}
	c.Cache.Set(key, b, ttl)

	return nil
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		c.Cache.Delete(k)
	}
	return nil
}

func (c *MemoryCache) Flush() {
	c.Cache.Flush()
}

func CacheKeyPost(id int) string {
	return "post:" + strconv.Itoa(id)
}

// CacheKeyTags is the key of the unfiltered tag list.
const CacheKeyTags = "tags:all"

func CacheKeyOAuthState(state string) string {
	return "oauth_state:" + state
}
