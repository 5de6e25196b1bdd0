package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/Ado-go/farmly-sub001/internal/config"
	"github.com/Ado-go/farmly-sub001/internal/event"
	handler "github.com/Ado-go/farmly-sub001/internal/handler/http"
	"github.com/Ado-go/farmly-sub001/internal/payment"
	"github.com/Ado-go/farmly-sub001/internal/payment/gateway"
	paymock "github.com/Ado-go/farmly-sub001/internal/payment/mock"
	"github.com/Ado-go/farmly-sub001/internal/repository/postgres"
	redisrepo "github.com/Ado-go/farmly-sub001/internal/repository/redis"
	"github.com/Ado-go/farmly-sub001/internal/scheduler"
	"github.com/Ado-go/farmly-sub001/internal/service"
	"github.com/Ado-go/farmly-sub001/migrations"
	"github.com/Ado-go/farmly-sub001/pkg/database"
	"github.com/Ado-go/farmly-sub001/pkg/health"
	"github.com/Ado-go/farmly-sub001/pkg/httpclient"
	pkgkafka "github.com/Ado-go/farmly-sub001/pkg/kafka"
	"github.com/Ado-go/farmly-sub001/pkg/middleware"
	"github.com/Ado-go/farmly-sub001/pkg/tracing"
)

// App wires together all dependencies and runs the farmly API.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	scheduler      *scheduler.Scheduler
	httpServer     *http.Server
	tracerShutdown tracing.Shutdown
}

// NewApp creates a new application instance, initializing all dependencies.
// Connections opened before a failure are closed again.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.closeResources(context.Background())
		}
	}()

	a.tracerShutdown, err = tracing.InitTracer(ctx, cfg.Tracing(handler.ServiceName))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// PostgreSQL.
	pgCfg := cfg.Postgres()
	a.pool, err = database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.String("db", cfg.PostgresDB),
	)

	if err = database.RunMigrations(ctx, a.pool, migrations.FS, logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	database.SetSlowQueryLogging(cfg.SlowQuery, logger)
	if err = database.RegisterPoolMetrics(prometheus.DefaultRegisterer, a.pool, handler.ServiceName); err != nil {
		return nil, fmt.Errorf("register pool metrics: %w", err)
	}

	// Redis.
	a.rdb, err = database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.Redis().Addr()),
		slog.Int("db", cfg.RedisDB),
	)

	// Kafka.
	var publisher event.Publisher = event.Discard{}
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = a.producer
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Warn("kafka disabled, domain events are dropped")
	}

	payments, err := newPaymentProvider(cfg, logger)
	if err != nil {
		return nil, err
	}

	// Build the dependency graph.
	farmRepo := postgres.NewFarmRepository(a.pool)
	productRepo := postgres.NewProductRepository(a.pool)
	eventRepo := postgres.NewEventRepository(a.pool)
	orderRepo := postgres.NewOrderRepository(a.pool)
	reviewRepo := postgres.NewReviewRepository(a.pool)
	cartRepo := redisrepo.NewCartRepository(a.rdb, cfg.CartTTL)

	producer := event.NewProducer(publisher, logger)
	carts := service.NewCartService(cartRepo, productRepo, eventRepo, producer,
		service.NewCartMetrics(prometheus.DefaultRegisterer), logger).
		WithFallbackLimits(cfg.CartFallbackMax, cfg.CartTTL)
	orders := service.NewOrderService(orderRepo, payments, producer, logger)

	services := handler.Services{
		Farms:    service.NewFarmService(farmRepo, logger),
		Products: service.NewProductService(productRepo, farmRepo, logger),
		Reviews:  service.NewReviewService(reviewRepo, productRepo, producer, logger),
		Events:   service.NewEventService(eventRepo, productRepo, farmRepo, logger),
		Carts:    carts,
		Checkout: service.NewCheckoutService(carts, productRepo, eventRepo, orderRepo, payments, producer, cfg.Currency, logger),
		Orders:   orders,
	}

	a.scheduler, err = scheduler.New(orders, scheduler.Config{
		Spec:            cfg.PreorderExpiryCron,
		Grace:           cfg.PreorderGrace,
		BatchSize:       cfg.PreorderBatchSize,
		RefundRetrySpec: cfg.RefundRetryCron,
	}, logger)
	if err != nil {
		return nil, err
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", a.pool.Ping)
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return a.rdb.Ping(ctx).Err()
	})
	if a.producer != nil {
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSOrigins

	router := handler.NewRouter(services, handler.RouterConfig{
		Pagination: handler.Pagination{
			DefaultPageSize: cfg.DefaultPageSize,
			MaxPageSize:     cfg.MaxPageSize,
		},
		PprofCIDRs:    cfg.PprofCIDRs,
		CORS:          cors,
		CatalogMaxAge: cfg.CatalogMaxAge,
		Metrics:       middleware.NewHTTPMetrics(prometheus.DefaultRegisterer, handler.ServiceName),
		Gatherer:      prometheus.DefaultGatherer,
	}, healthHandler, logger)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// newPaymentProvider returns the in-process provider or the remote gateway
// behind a retrying, circuit-breaking HTTP client.
func newPaymentProvider(cfg *config.Config, logger *slog.Logger) (payment.Provider, error) {
	if cfg.PaymentProvider == config.PaymentProviderMock {
		logger.Warn("using mock payment provider")
		return paymock.NewProvider(), nil
	}

	metrics, err := httpclient.NewBreakerMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, fmt.Errorf("register breaker metrics: %w", err)
	}
	client := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("payment-gateway"),
		metrics,
		logger,
	)
	return gateway.NewProvider(client, cfg.PaymentGatewayURL, cfg.PaymentAPIKey, cfg.Currency, logger), nil
}

// Run starts the HTTP server and the scheduler and blocks until the context
// is canceled or the server fails.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	a.scheduler.Start()

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutdown signal received")
		return a.Shutdown()
	})

	return g.Wait()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}
	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		a.logger.Error("scheduler stop error", slog.String("error", err.Error()))
	}

	a.closeResources(shutdownCtx)

	a.logger.Info("application shutdown complete")
	return nil
}

func (a *App) closeResources(ctx context.Context) {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}
}
