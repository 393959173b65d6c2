package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"github.com/uniedit/paygate/internal/port/outbound"
	"github.com/uniedit/paygate/internal/utils/metrics"
	"go.uber.org/zap"
)

// streamWriter is the subset of the redis client used by the bus.
type streamWriter interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// MessageBusConfig configures the redis stream bus.
type MessageBusConfig struct {
	StreamPrefix    string
	MaxLen          int64
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// messageBus implements outbound.MessagePort on redis streams.
// Each routing key maps to one stream named StreamPrefix+routingKey.
type messageBus struct {
	client  streamWriter
	cfg     MessageBusConfig
	breaker *gobreaker.CircuitBreaker[string]
	logger  *zap.Logger
}

// NewMessageBus creates a new redis stream message bus.
func NewMessageBus(client redis.UniversalClient, cfg MessageBusConfig, m *metrics.Metrics, logger *zap.Logger) outbound.MessagePort {
	return newMessageBus(client, cfg, m, logger)
}

func newMessageBus(client streamWriter, cfg MessageBusConfig, m *metrics.Metrics, logger *zap.Logger) *messageBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	logger = logger.Named("message_bus")

	settings := gobreaker.Settings{
		Name:        "message_bus",
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

	return &messageBus{
		client:  client,
		cfg:     cfg,
		breaker: gobreaker.NewCircuitBreaker[string](settings),
		logger:  logger,
	}
}

func (b *messageBus) Publish(ctx context.Context, routingKey string, msg *outbound.Message) error {
	args := &redis.XAddArgs{
		Stream: b.cfg.StreamPrefix + routingKey,
		Values: map[string]any{
			"event_id":    msg.ID,
			"event_type":  msg.Type,
			"occurred_at": msg.OccurredAt.UTC().Format(time.RFC3339Nano),
			"payload":     string(msg.Payload),
		},
	}
	if b.cfg.MaxLen > 0 {
		args.MaxLen = b.cfg.MaxLen
		args.Approx = true
	}

	id, err := b.breaker.Execute(func() (string, error) {
		return b.client.XAdd(ctx, args).Result()
	})
	if err != nil {
		return fmt.Errorf("xadd %s: %w", args.Stream, err)
	}

	b.logger.Debug("message published",
		zap.String("stream", args.Stream),
		zap.String("entry_id", id),
		zap.String("event_id", msg.ID),
	)
	return nil
}

// Compile-time check
var _ outbound.MessagePort = (*messageBus)(nil)
