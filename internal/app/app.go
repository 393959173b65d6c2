package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	ginadapter "github.com/uniedit/paygate/internal/adapter/inbound/gin"
	"github.com/uniedit/paygate/internal/domain/payment"
	"github.com/uniedit/paygate/internal/infra/config"
	"github.com/uniedit/paygate/internal/port/inbound"
	"github.com/uniedit/paygate/internal/port/outbound"
	"github.com/uniedit/paygate/internal/utils/metrics"
	"github.com/uniedit/paygate/internal/utils/middleware"
)

// App represents the application.
type App struct {
	config   *config.Config
	router   *gin.Engine
	logger   *zap.Logger
	metrics  *metrics.Metrics
	redis    goredis.UniversalClient
	limiter  outbound.RateLimiterPort
	payments payment.PaymentDomain

	clickHTTP   inbound.ClickHttpPort
	paymeHTTP   inbound.PaymeHttpPort
	paymentHTTP inbound.PaymentHttpPort
}

// NewApp assembles the application from its wired dependencies.
func NewApp(
	cfg *config.Config,
	zapLog *zap.Logger,
	m *metrics.Metrics,
	redis goredis.UniversalClient,
	limiter outbound.RateLimiterPort,
	payments payment.PaymentDomain,
	clickHTTP inbound.ClickHttpPort,
	paymeHTTP inbound.PaymeHttpPort,
	paymentHTTP inbound.PaymentHttpPort,
) *App {
	a := &App{
		config:      cfg,
		logger:      zapLog,
		metrics:     m,
		redis:       redis,
		limiter:     limiter,
		payments:    payments,
		clickHTTP:   clickHTTP,
		paymeHTTP:   paymeHTTP,
		paymentHTTP: paymentHTTP,
	}
	a.router = a.setupRouter()
	return a
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	switch a.config.Server.Mode {
	case gin.DebugMode, gin.TestMode:
		gin.SetMode(a.config.Server.Mode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Apply global middleware
	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger))
	r.Use(middleware.Metrics(a.metrics))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if a.config.Metrics.Enabled {
		r.GET(a.config.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// Provider callbacks: no CORS, no rate limiting; providers retry.
	ginadapter.RegisterClickRoutes(r, a.clickHTTP)
	ginadapter.RegisterPaymeRoutes(r, a.paymeHTTP)

	// Checkout API
	var idempotencyStore middleware.IdempotencyStore
	if a.redis != nil {
		idempotencyStore = a.redis
	}
	ginadapter.RegisterPaymentRoutes(r, a.paymentHTTP,
		middleware.CORS(middleware.DefaultCORSConfig(a.config.Server.CORSOrigins...)),
		middleware.RateLimitByEndpoint(a.limiter, a.config.Server.RateLimit, a.config.Server.RateLimitWindow),
		middleware.Idempotency(idempotencyStore, middleware.IdempotencyConfig{TTL: a.config.Server.IdempotencyTTL}),
	)

	return r
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Payments returns the payment domain.
func (a *App) Payments() payment.PaymentDomain {
	return a.payments
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}
