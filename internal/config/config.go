package config

import (
	"fmt"
	"strings"
	"time"

	pkgconfig "github.com/Ado-go/farmly-sub001/pkg/config"
	"github.com/Ado-go/farmly-sub001/pkg/database"
	"github.com/Ado-go/farmly-sub001/pkg/tracing"
)

// Payment providers.
const (
	PaymentProviderMock    = "mock"
	PaymentProviderGateway = "gateway"
)

// Config holds all configuration for the farmly API.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`

	// HTTP server
	HTTPPort        int      `env:"HTTP_PORT" envDefault:"8080"`
	CORSOrigins     []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	PprofCIDRs      []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.1/32,::1/128" envSeparator:","`
	CatalogMaxAge   int      `env:"CATALOG_CACHE_MAX_AGE" envDefault:"60"`
	DefaultPageSize int      `env:"DEFAULT_PAGE_SIZE" envDefault:"32"`
	MaxPageSize     int      `env:"MAX_PAGE_SIZE" envDefault:"100"`

	// PostgreSQL
	PostgresHost     string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int           `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string        `env:"POSTGRES_USER" envDefault:"farmly"`
	PostgresPass     string        `env:"POSTGRES_PASSWORD" envDefault:"farmly"`
	PostgresDB       string        `env:"POSTGRES_DB" envDefault:"farmly"`
	PostgresSSL      string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	PostgresMaxConns int32         `env:"POSTGRES_MAX_CONNS" envDefault:"20"`
	PostgresMinConns int32         `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	SlowQuery        time.Duration `env:"SLOW_QUERY_THRESHOLD" envDefault:"200ms"`

	// Redis
	RedisHost       string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort       int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword   string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
	RedisPoolSize   int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	CartTTL         time.Duration `env:"CART_TTL" envDefault:"720h"`
	CartFallbackMax int           `env:"CART_FALLBACK_MAX" envDefault:"10000"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
	ServiceVersion string  `env:"SERVICE_VERSION" envDefault:"dev"`

	// Payments
	PaymentProvider   string `env:"PAYMENT_PROVIDER" envDefault:"mock"`
	PaymentGatewayURL string `env:"PAYMENT_GATEWAY_URL"`
	PaymentAPIKey     string `env:"PAYMENT_API_KEY"`
	Currency          string `env:"CURRENCY" envDefault:"EUR"`

	// Order jobs
	PreorderExpiryCron string        `env:"PREORDER_EXPIRY_CRON" envDefault:"0 */5 * * * *"`
	PreorderGrace      time.Duration `env:"PREORDER_GRACE" envDefault:"2h"`
	PreorderBatchSize  int           `env:"PREORDER_BATCH" envDefault:"100"`
	RefundRetryCron    string        `env:"REFUND_RETRY_CRON" envDefault:"@every 2m"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load farmly config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	for name, port := range map[string]int{
		"HTTP": c.HTTPPort, "PostgreSQL": c.PostgresPort, "Redis": c.RedisPort,
	} {
		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid %s port: %d", name, port)
		}
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.PostgresMinConns < 0 || c.PostgresMaxConns < 1 || c.PostgresMinConns > c.PostgresMaxConns {
		return fmt.Errorf("invalid postgres pool size: min %d, max %d", c.PostgresMinConns, c.PostgresMaxConns)
	}
	if c.CartTTL <= 0 {
		return fmt.Errorf("CART_TTL must be positive, got %s", c.CartTTL)
	}
	if c.CartFallbackMax < 1 {
		return fmt.Errorf("CART_FALLBACK_MAX must be positive, got %d", c.CartFallbackMax)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when Kafka is enabled")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0 and 1, got %v", c.OTELSampleRate)
	}
	if c.DefaultPageSize < 1 || c.MaxPageSize < c.DefaultPageSize {
		return fmt.Errorf("invalid page sizes: default %d, max %d", c.DefaultPageSize, c.MaxPageSize)
	}

	switch c.PaymentProvider {
	case PaymentProviderMock:
	case PaymentProviderGateway:
		if c.PaymentGatewayURL == "" || c.PaymentAPIKey == "" {
			return fmt.Errorf("PAYMENT_GATEWAY_URL and PAYMENT_API_KEY are required for the gateway provider")
		}
	default:
		return fmt.Errorf("unknown payment provider %q", c.PaymentProvider)
	}

	if len(c.Currency) != 3 {
		return fmt.Errorf("invalid currency code %q", c.Currency)
	}
	if c.PreorderGrace < 0 {
		return fmt.Errorf("PREORDER_GRACE must not be negative, got %s", c.PreorderGrace)
	}
	if c.PreorderBatchSize < 1 {
		return fmt.Errorf("PREORDER_BATCH must be positive, got %d", c.PreorderBatchSize)
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Postgres returns the pool configuration.
func (c *Config) Postgres() database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.PostgresHost
	pg.Port = c.PostgresPort
	pg.User = c.PostgresUser
	pg.Password = c.PostgresPass
	pg.DBName = c.PostgresDB
	pg.SSLMode = c.PostgresSSL
	pg.MaxConns = c.PostgresMaxConns
	pg.MinConns = c.PostgresMinConns
	return pg
}

// Redis returns the Redis client configuration.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:        c.RedisHost,
		Port:        c.RedisPort,
		Password:    c.RedisPassword,
		DB:          c.RedisDB,
		PoolSize:    c.RedisPoolSize,
		DialTimeout: 5 * time.Second,
	}
}

// Tracing returns the OpenTelemetry configuration for service.
func (c *Config) Tracing(service string) tracing.Config {
	tc := tracing.DefaultConfig(service)
	tc.ServiceVersion = c.ServiceVersion
	tc.Environment = c.Environment
	tc.OTLPEndpoint = c.OTELEndpoint
	tc.SampleRate = c.OTELSampleRate
	tc.Enabled = c.OTELEnabled
	return tc
}
