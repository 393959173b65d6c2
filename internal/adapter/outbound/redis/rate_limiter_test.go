package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unreachableClient(t *testing.T) redis.UniversalClient {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRateLimiter_Unreachable(t *testing.T) {
	limiter := NewRateLimiter(unreachableClient(t))
	ctx := context.Background()

	t.Run("allow", func(t *testing.T) {
		allowed, err := limiter.Allow(ctx, "1.2.3.4", 10, time.Minute)
		require.Error(t, err)
		assert.False(t, allowed)
		assert.Contains(t, err.Error(), "rate limit 1.2.3.4")
	})

	t.Run("remaining", func(t *testing.T) {
		remaining, err := limiter.GetRemaining(ctx, "1.2.3.4", 10, time.Minute)
		require.Error(t, err)
		assert.Zero(t, remaining)
		assert.Contains(t, err.Error(), "rate limit remaining")
	})
}
