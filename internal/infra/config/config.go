package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	HTTPClient   HTTPClientConfig   `mapstructure:"http_client"`
	Log          LogConfig          `mapstructure:"log"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Click        ClickConfig        `mapstructure:"click"`
	Payme        PaymeConfig        `mapstructure:"payme"`
	Bus          BusConfig          `mapstructure:"bus"`
	OrderService OrderServiceConfig `mapstructure:"order_service"`
	Engine       EngineConfig       `mapstructure:"engine"`
	Snowflake    SnowflakeConfig    `mapstructure:"snowflake"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Mode            string        `mapstructure:"mode"` // gin mode: debug, release, test

	// Checkout API (/payments) protections
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	RateLimit       int           `mapstructure:"rate_limit"` // requests per window, 0 disables
	RateLimitWindow time.Duration `mapstructure:"rate_limit_window"`
	IdempotencyTTL  time.Duration `mapstructure:"idempotency_ttl"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN returns the database connection string.
func (c *DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Database, c.SSLMode,
	)
	if c.Password != "" {
		dsn += fmt.Sprintf(" password=%s", c.Password)
	}
	return dsn
}

// RedisConfig holds Redis configuration.
// When disabled, the message bus, caches, and HTTP protections backed by
// redis are not wired.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// HTTPClientConfig holds HTTP client configuration for connection pooling.
type HTTPClientConfig struct {
	// Connection pool settings
	MaxIdleConns        int           `mapstructure:"max_idle_conns"`
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `mapstructure:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `mapstructure:"idle_conn_timeout"`

	// Timeout settings
	DialTimeout         time.Duration `mapstructure:"dial_timeout"`
	TLSHandshakeTimeout time.Duration `mapstructure:"tls_handshake_timeout"`
	ResponseTimeout     time.Duration `mapstructure:"response_timeout"`

	// Keep-alive settings
	KeepAlive time.Duration `mapstructure:"keep_alive"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// MetricsConfig holds prometheus configuration.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// ClickConfig holds Click merchant credentials.
type ClickConfig struct {
	ServiceID string `mapstructure:"service_id"`
	SecretKey string `mapstructure:"secret_key"`
}

// PaymeConfig holds Payme merchant credentials.
type PaymeConfig struct {
	Key          string `mapstructure:"key"`
	AccountField string `mapstructure:"account_field"` // account param carrying the order id
}

// BusConfig holds message bus configuration.
type BusConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	StreamPrefix    string        `mapstructure:"stream_prefix"`
	MaxLen          int64         `mapstructure:"max_len"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
}

// OrderServiceConfig holds the order system client configuration.
// An empty BaseURL disables the order cross-check.
type OrderServiceConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
}

// EngineConfig holds payment engine settings.
type EngineConfig struct {
	Store              string `mapstructure:"store"` // postgres or memory
	MaxConflictRetries int    `mapstructure:"max_conflict_retries"`
}

// SnowflakeConfig holds payment id generation settings.
type SnowflakeConfig struct {
	Node int64 `mapstructure:"node"`
}

// Load loads configuration from file and environment.
// configFile overrides the default search paths when non-empty.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Set config file name and paths
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/paygate")
	}

	// Set defaults
	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found, use defaults and env
	}

	// Read from environment variables
	v.SetEnvPrefix("PAYGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Override with environment variables for sensitive values
	if secret := os.Getenv("PAYGATE_CLICK_SECRET_KEY"); secret != "" {
		cfg.Click.SecretKey = secret
	}
	if key := os.Getenv("PAYGATE_PAYME_KEY"); key != "" {
		cfg.Payme.Key = key
	}
	if password := os.Getenv("PAYGATE_DB_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}
	if password := os.Getenv("PAYGATE_REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail at first use.
func (c *Config) Validate() error {
	switch c.Engine.Store {
	case "postgres", "memory":
	default:
		return fmt.Errorf("config: engine.store must be postgres or memory, got %q", c.Engine.Store)
	}
	if c.Snowflake.Node < 0 || c.Snowflake.Node > 1023 {
		return fmt.Errorf("config: snowflake.node must be in [0, 1023], got %d", c.Snowflake.Node)
	}
	if c.Engine.MaxConflictRetries < 0 {
		return fmt.Errorf("config: engine.max_conflict_retries must not be negative")
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.rate_limit", 60)
	v.SetDefault("server.rate_limit_window", time.Minute)
	v.SetDefault("server.idempotency_ttl", 24*time.Hour)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.database", "paygate")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", 30*time.Minute)

	// Redis defaults
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)

	// HTTP client defaults
	v.SetDefault("http_client.max_idle_conns", 100)
	v.SetDefault("http_client.max_idle_conns_per_host", 20)
	v.SetDefault("http_client.max_conns_per_host", 50)
	v.SetDefault("http_client.idle_conn_timeout", 90*time.Second)
	v.SetDefault("http_client.dial_timeout", 5*time.Second)
	v.SetDefault("http_client.tls_handshake_timeout", 5*time.Second)
	v.SetDefault("http_client.response_timeout", 10*time.Second)
	v.SetDefault("http_client.keep_alive", 30*time.Second)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "paygate")
	v.SetDefault("metrics.path", "/metrics")

	// Provider defaults
	v.SetDefault("click.service_id", "")
	v.SetDefault("click.secret_key", "")
	v.SetDefault("payme.key", "")
	v.SetDefault("payme.account_field", "order_id")

	// Message bus defaults
	v.SetDefault("bus.enabled", true)
	v.SetDefault("bus.stream_prefix", "paygate:")
	v.SetDefault("bus.max_len", 100000)
	v.SetDefault("bus.breaker_failures", 5)
	v.SetDefault("bus.breaker_timeout", 30*time.Second)

	// Order service defaults
	v.SetDefault("order_service.base_url", "")
	v.SetDefault("order_service.timeout", 3*time.Second)
	v.SetDefault("order_service.cache_ttl", time.Minute)
	v.SetDefault("order_service.breaker_failures", 5)
	v.SetDefault("order_service.breaker_timeout", 30*time.Second)

	// Engine defaults
	v.SetDefault("engine.store", "postgres")
	v.SetDefault("engine.max_conflict_retries", 3)

	// Snowflake defaults
	v.SetDefault("snowflake.node", 1)
}
