package app

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/google/wire"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	// Adapters
	ginadapter "github.com/uniedit/paygate/internal/adapter/inbound/gin"
	"github.com/uniedit/paygate/internal/adapter/outbound/memory"
	"github.com/uniedit/paygate/internal/adapter/outbound/orderclient"
	"github.com/uniedit/paygate/internal/adapter/outbound/postgres"
	redisadapter "github.com/uniedit/paygate/internal/adapter/outbound/redis"

	// Domains
	"github.com/uniedit/paygate/internal/domain/click"
	"github.com/uniedit/paygate/internal/domain/payme"
	"github.com/uniedit/paygate/internal/domain/payment"

	// Infrastructure
	"github.com/uniedit/paygate/internal/infra/config"
	"github.com/uniedit/paygate/internal/infra/events"
	"github.com/uniedit/paygate/internal/infra/httpclient"
	"github.com/uniedit/paygate/internal/port/outbound"
	"github.com/uniedit/paygate/internal/shared/cache"
	"github.com/uniedit/paygate/internal/shared/database"
	"github.com/uniedit/paygate/internal/shared/logger"
	"github.com/uniedit/paygate/internal/utils/metrics"
)

// ===== Infrastructure Providers =====

// InfraSet provides infrastructure dependencies.
var InfraSet = wire.NewSet(
	ProvideZapLogger,
	ProvideMetrics,
	ProvideRedisClient,
	ProvideRateLimiter,
)

// ProvideZapLogger creates a zap logger instance.
func ProvideZapLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return log, func() { _ = log.Sync() }, nil
}

// ProvideMetrics creates a metrics instance.
func ProvideMetrics(cfg *config.Config) *metrics.Metrics {
	return metrics.New(cfg.Metrics.Namespace)
}

// ProvideRedisClient creates a Redis client. Redis is optional: nil is
// returned when it is disabled or unreachable.
func ProvideRedisClient(cfg *config.Config, zapLog *zap.Logger) (goredis.UniversalClient, func()) {
	if !cfg.Redis.Enabled || cfg.Redis.Address == "" {
		return nil, func() {}
	}
	client, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		zapLog.Warn("Redis connection failed, continuing without bus and caches", zap.Error(err))
		return nil, func() {}
	}
	return client, func() { _ = cache.Close(client) }
}

// ProvideRateLimiter creates a rate limiter.
func ProvideRateLimiter(redis goredis.UniversalClient) outbound.RateLimiterPort {
	if redis == nil {
		return nil
	}
	return redisadapter.NewRateLimiter(redis)
}

// ===== Payment Providers =====

// PaymentSet provides the payment engine and its outbound ports.
var PaymentSet = wire.NewSet(
	ProvidePaymentStore,
	ProvideSnowflakeNode,
	ProvideEventBus,
	ProvideMessagePort,
	ProvideEventPublisher,
	ProvidePaymentDomain,
	ProvideOrderCache,
	ProvideOrderReader,
)

// ProvidePaymentStore creates the payment store selected by engine.store.
func ProvidePaymentStore(cfg *config.Config, zapLog *zap.Logger) (outbound.PaymentDatabasePort, func(), error) {
	if cfg.Engine.Store == "memory" {
		zapLog.Warn("using in-memory payment store; data is lost on restart")
		return memory.NewPaymentAdapter(), func() {}, nil
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("init database: %w", err)
	}
	return postgres.NewPaymentAdapter(db), func() { _ = database.Close(db) }, nil
}

// ProvideSnowflakeNode creates the payment id generator.
func ProvideSnowflakeNode(cfg *config.Config) (*snowflake.Node, error) {
	node, err := snowflake.NewNode(cfg.Snowflake.Node)
	if err != nil {
		return nil, fmt.Errorf("init snowflake node: %w", err)
	}
	return node, nil
}

// ProvideEventBus creates the in-process event bus with its handlers.
func ProvideEventBus(zapLog *zap.Logger) *events.Bus {
	bus := events.NewBus(zapLog)
	bus.Register(events.NewAuditHandler(zapLog))
	return bus
}

// ProvideMessagePort creates the redis stream bus, or nil when disabled.
func ProvideMessagePort(cfg *config.Config, redis goredis.UniversalClient, m *metrics.Metrics, zapLog *zap.Logger) outbound.MessagePort {
	if !cfg.Bus.Enabled || redis == nil {
		zapLog.Warn("message bus disabled; payment events stay in-process")
		return nil
	}
	return redisadapter.NewMessageBus(redis, redisadapter.MessageBusConfig{
		StreamPrefix:    cfg.Bus.StreamPrefix,
		MaxLen:          cfg.Bus.MaxLen,
		BreakerFailures: cfg.Bus.BreakerFailures,
		BreakerTimeout:  cfg.Bus.BreakerTimeout,
	}, m, zapLog)
}

// ProvideEventPublisher creates the payment event publisher.
func ProvideEventPublisher(bus *events.Bus, messages outbound.MessagePort, zapLog *zap.Logger) outbound.EventPublisherPort {
	return events.NewPublisher(bus, messages, zapLog)
}

// ProvidePaymentDomain creates the payment domain.
func ProvidePaymentDomain(
	store outbound.PaymentDatabasePort,
	publisher outbound.EventPublisherPort,
	node *snowflake.Node,
	cfg *config.Config,
	m *metrics.Metrics,
	zapLog *zap.Logger,
) payment.PaymentDomain {
	return payment.NewPaymentDomain(store, publisher, node, payment.Config{
		MaxConflictRetries: cfg.Engine.MaxConflictRetries,
	}, m, zapLog)
}

// ProvideOrderCache creates the order lookup cache, or nil without redis.
func ProvideOrderCache(redis goredis.UniversalClient) outbound.CachePort {
	if redis == nil {
		return nil
	}
	return redisadapter.NewCache(redis, "paygate:order:")
}

// ProvideOrderReader creates the order system client, or nil when no
// order service is configured.
func ProvideOrderReader(cfg *config.Config, orderCache outbound.CachePort, m *metrics.Metrics, zapLog *zap.Logger) outbound.OrderReaderPort {
	if cfg.OrderService.BaseURL == "" {
		return nil
	}
	return orderclient.New(
		httpclient.New(cfg.HTTPClient, cfg.OrderService.Timeout),
		orderclient.Config{
			BaseURL:         cfg.OrderService.BaseURL,
			CacheTTL:        cfg.OrderService.CacheTTL,
			BreakerFailures: cfg.OrderService.BreakerFailures,
			BreakerTimeout:  cfg.OrderService.BreakerTimeout,
		},
		orderCache, m, zapLog,
	)
}

// ===== Protocol Providers =====

// ProtocolSet provides the Click and Payme protocol domains.
var ProtocolSet = wire.NewSet(
	ProvideClickDomain,
	ProvidePaymeDomain,
)

// ProvideClickDomain creates the Click protocol domain.
func ProvideClickDomain(payments payment.PaymentDomain, cfg *config.Config, m *metrics.Metrics, zapLog *zap.Logger) click.ClickDomain {
	return click.NewClickDomain(payments, click.Config{
		ServiceID: cfg.Click.ServiceID,
		SecretKey: cfg.Click.SecretKey,
	}, m, zapLog)
}

// ProvidePaymeDomain creates the Payme protocol domain.
func ProvidePaymeDomain(
	payments payment.PaymentDomain,
	orders outbound.OrderReaderPort,
	cfg *config.Config,
	m *metrics.Metrics,
	zapLog *zap.Logger,
) payme.PaymeDomain {
	return payme.NewPaymeDomain(payments, orders, payme.Config{
		Key:          cfg.Payme.Key,
		AccountField: cfg.Payme.AccountField,
	}, m, zapLog)
}

// ===== HTTP Providers =====

// HTTPSet provides the gin adapters.
var HTTPSet = wire.NewSet(
	ginadapter.NewClickAdapter,
	ginadapter.NewPaymeAdapter,
	ginadapter.NewPaymentAdapter,
)

// AppSet is the complete provider set of the server.
var AppSet = wire.NewSet(
	InfraSet,
	PaymentSet,
	ProtocolSet,
	HTTPSet,
	NewApp,
)
