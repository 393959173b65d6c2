package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/uniedit/paygate/internal/port/outbound"
)

// kvClient is the subset of the redis client used by the cache.
type kvClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// cache implements outbound.CachePort.
type cache struct {
	client kvClient
	prefix string
}

// NewCache creates a redis cache whose keys are namespaced by prefix.
func NewCache(client redis.UniversalClient, prefix string) outbound.CachePort {
	return &cache{client: client, prefix: prefix}
}

func (c *cache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, outbound.ErrCacheMiss
		}
		return nil, err
	}
	return val, nil
}

func (c *cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}

func (c *cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}

// Compile-time check
var _ outbound.CachePort = (*cache)(nil)
