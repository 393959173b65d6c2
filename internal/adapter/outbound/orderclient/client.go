package orderclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/uniedit/paygate/internal/port/outbound"
	"github.com/uniedit/paygate/internal/utils/metrics"
	"go.uber.org/zap"
)

const cacheName = "order_exists"

// Config configures the order system client.
type Config struct {
	BaseURL         string
	CacheTTL        time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// client implements outbound.OrderReaderPort over the order system HTTP API.
// Only positive answers are cached; an unknown order may appear later.
type client struct {
	http    *http.Client
	baseURL string
	cache   outbound.CachePort
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker[bool]
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// New creates an order reader. cache and m may be nil.
func New(httpClient *http.Client, cfg Config, cache outbound.CachePort, m *metrics.Metrics, logger *zap.Logger) outbound.OrderReaderPort {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	logger = logger.Named("order_client")

	settings := gobreaker.Settings{
		Name:        "order_service",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if m != nil {
				m.SetBreakerState(name, int(to))
			}
		},
	}

	return &client{
		http:    httpClient,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		cache:   cache,
		ttl:     cfg.CacheTTL,
		breaker: gobreaker.NewCircuitBreaker[bool](settings),
		metrics: m,
		logger:  logger,
	}
}

func (c *client) OrderExists(ctx context.Context, orderID int64) (bool, error) {
	key := strconv.FormatInt(orderID, 10)

	if c.cache != nil {
		if _, err := c.cache.Get(ctx, key); err == nil {
			c.recordCache(true)
			return true, nil
		} else if !errors.Is(err, outbound.ErrCacheMiss) {
			c.logger.Warn("order cache get failed", zap.Int64("order_id", orderID), zap.Error(err))
		}
		c.recordCache(false)
	}

	exists, err := c.breaker.Execute(func() (bool, error) {
		return c.fetch(ctx, orderID)
	})
	if err != nil {
		return false, err
	}

	if exists && c.cache != nil && c.ttl > 0 {
		if err := c.cache.Set(ctx, key, []byte("1"), c.ttl); err != nil {
			c.logger.Warn("order cache set failed", zap.Int64("order_id", orderID), zap.Error(err))
		}
	}
	return exists, nil
}

func (c *client) fetch(ctx context.Context, orderID int64) (bool, error) {
	url := fmt.Sprintf("%s/orders/%d", c.baseURL, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("build order request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("get order %d: %w", orderID, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("get order %d: unexpected status %d", orderID, resp.StatusCode)
	}
}

func (c *client) recordCache(hit bool) {
	if c.metrics == nil {
		return
	}
	if hit {
		c.metrics.RecordCacheHit(cacheName)
	} else {
		c.metrics.RecordCacheMiss(cacheName)
	}
}

// Compile-time check
var _ outbound.OrderReaderPort = (*client)(nil)
