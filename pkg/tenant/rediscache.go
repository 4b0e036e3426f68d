package tenant

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCache stores resolved tenants in Redis so that several application
// instances share one resolution cache and one invalidation path.
type redisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache returns a Cache backed by the given Redis client. Keys are
// namespaced under the prefix; "tenant:" is used when empty.
func NewRedisCache(client *redis.Client, prefix string) Cache {
	if prefix == "" {
		prefix = "tenant:"
	}
	return &redisCache{client: client, prefix: prefix}
}

func (c *redisCache) Get(ctx context.Context, key string) (*Tenant, bool) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		// Treat redis failures as cache misses; the catalog stays the source
		// of truth.
		return nil, false
	}

	var t Tenant
	if err := json.Unmarshal(data, &t); err != nil {
		c.client.Del(ctx, c.prefix+key)
		return nil, false
	}
	return &t, true
}

func (c *redisCache) Set(ctx context.Context, key string, t *Tenant, ttl time.Duration) {
	data, err := json.Marshal(t)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.prefix+key, data, ttl)
}

func (c *redisCache) Delete(ctx context.Context, key string) {
	c.client.Del(ctx, c.prefix+key)
}

func (c *redisCache) Close() error {
	return c.client.Close()
}
