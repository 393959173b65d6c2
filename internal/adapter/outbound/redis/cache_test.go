package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uniedit/paygate/internal/port/outbound"
)

type fakeKV struct {
	data map[string]string
	ttl  map[string]time.Duration
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (f *fakeKV) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.data[key] = string(value.([]byte))
	f.ttl[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeKV) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestCache(t *testing.T) {
	kv := newFakeKV()
	c := &cache{client: kv, prefix: "paygate:order:"}
	ctx := context.Background()

	_, err := c.Get(ctx, "100")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "100", []byte("1"), time.Minute))
	assert.Equal(t, time.Minute, kv.ttl["paygate:order:100"])

	got, err := c.Get(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)

	require.NoError(t, c.Delete(ctx, "100"))
	_, err = c.Get(ctx, "100")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)
}
