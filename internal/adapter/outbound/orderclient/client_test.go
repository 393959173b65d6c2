package orderclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uniedit/paygate/internal/port/outbound"
	"github.com/uniedit/paygate/internal/utils/metrics"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, outbound.ErrCacheMiss
	}
	return v, nil
}

func (c *mapCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func newOrderServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/orders/100":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"id":100}`))
		case "/orders/404":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOrderExists(t *testing.T) {
	var hits atomic.Int32
	srv := newOrderServer(t, &hits)
	c := New(srv.Client(), Config{BaseURL: srv.URL + "/"}, nil, nil, nil)
	ctx := context.Background()

	t.Run("known order", func(t *testing.T) {
		ok, err := c.OrderExists(ctx, 100)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("unknown order", func(t *testing.T) {
		ok, err := c.OrderExists(ctx, 404)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("server error", func(t *testing.T) {
		_, err := c.OrderExists(ctx, 500)
		assert.Error(t, err)
	})
}

func TestOrderExists_Cache(t *testing.T) {
	var hits atomic.Int32
	srv := newOrderServer(t, &hits)
	m := metrics.NewWithRegistry("test", prometheus.NewRegistry())
	c := New(srv.Client(), Config{BaseURL: srv.URL, CacheTTL: time.Minute}, newMapCache(), m, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := c.OrderExists(ctx, 100)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, float64(2), testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues(cacheName)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheMissesTotal.WithLabelValues(cacheName)))

	// Negative answers are not cached.
	for i := 0; i < 2; i++ {
		ok, err := c.OrderExists(ctx, 404)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, int32(3), hits.Load())
}

func TestOrderExists_BreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := newOrderServer(t, &hits)
	c := New(srv.Client(), Config{BaseURL: srv.URL, BreakerFailures: 2, BreakerTimeout: time.Minute}, nil, nil, nil)
	ctx := context.Background()

	_, err := c.OrderExists(ctx, 500)
	assert.Error(t, err)
	_, err = c.OrderExists(ctx, 500)
	assert.Error(t, err)

	_, err = c.OrderExists(ctx, 100)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), hits.Load())
}
