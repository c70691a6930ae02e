package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/SashaVektor/apple-store-clone/internal/cms"
	"github.com/SashaVektor/apple-store-clone/internal/config"
	"github.com/SashaVektor/apple-store-clone/internal/event"
	handler "github.com/SashaVektor/apple-store-clone/internal/handler/http"
	"github.com/SashaVektor/apple-store-clone/internal/payment"
	"github.com/SashaVektor/apple-store-clone/internal/payment/mock"
	"github.com/SashaVektor/apple-store-clone/internal/payment/stripepay"
	"github.com/SashaVektor/apple-store-clone/internal/repository/postgres"
	redisrepo "github.com/SashaVektor/apple-store-clone/internal/repository/redis"
	"github.com/SashaVektor/apple-store-clone/internal/service"
	"github.com/SashaVektor/apple-store-clone/pkg/database"
	"github.com/SashaVektor/apple-store-clone/pkg/health"
	pkgkafka "github.com/SashaVektor/apple-store-clone/pkg/kafka"
	"github.com/SashaVektor/apple-store-clone/pkg/tracing"
)

// processedEventTTL bounds how long consumed event IDs are remembered.
const processedEventTTL = 24 * time.Hour

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	dlq            *pkgkafka.DLQProducer
	consumer       *pkgkafka.Consumer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.Init(ctx, cfg.Tracing())
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// PostgreSQL holds confirmed orders.
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, config.ServiceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	if err := database.RunMigrations(ctx, pool, postgres.Migrations(), logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if cfg.SlowQuery > 0 {
		database.SetSlowQueryLogging(cfg.SlowQuery, logger)
	}

	// Redis holds baskets, the catalog cache and consumed event IDs.
	redisClient, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))

	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	dlq := pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	provider, err := newPaymentProvider(cfg, logger)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, err
	}
	logger.Info("payment provider selected", slog.String("provider", provider.Name()))

	// Build the dependency graph.
	events := event.NewProducer(producer, logger)
	cmsClient := cms.NewClient(cms.Config{
		ProjectID:  cfg.SanityProjectID,
		Dataset:    cfg.SanityDataset,
		APIVersion: cfg.SanityAPIVersion,
		Token:      cfg.SanityToken,
		UseCDN:     cfg.SanityUseCDN,
		BaseURL:    cfg.SanityBaseURL,
	}, logger)

	catalogService := service.NewCatalogService(cmsClient, redisrepo.NewCatalogCache(redisClient, cfg.CatalogCacheTTL), logger)
	basketService := service.NewBasketService(redisrepo.NewBasketRepository(redisClient, cfg.BasketTTL()), catalogService, events, logger, cfg.BasketTTL())
	checkoutService := service.NewCheckoutService(basketService, provider, events, logger)
	orderService := service.NewOrderService(postgres.NewOrderRepository(pool), provider, events, logger, cfg.FlatShippingCents)

	// Confirmed orders empty the basket they were paid from. Redelivered
	// events are dropped by ID.
	cleanup := event.NewConsumer(basketService, logger)
	consumer := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers: cfg.KafkaBrokers,
		GroupID: event.BasketCleanupGroup,
		Topic:   event.TopicOrderConfirmed,
	}, pkgkafka.IdempotentHandler(
		pkgkafka.NewRedisIdempotencyStore(redisClient, event.BasketCleanupGroup, processedEventTTL),
		cleanup.HandleOrderConfirmed,
		logger,
	), dlq, logger)

	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	router := handler.NewRouter(handler.RouterConfig{
		ServiceName:    config.ServiceName,
		RequestTimeout: cfg.RequestTimeout,
		CORSOrigins:    cfg.CORSOrigins,
		PprofCIDRs:     cfg.PprofCIDRs,

		CheckoutRateLimit: cfg.CheckoutRateLimit(),
	}, handler.Services{
		Catalog:  catalogService,
		Baskets:  basketService,
		Checkout: checkoutService,
		Orders:   orderService,
	}, healthHandler, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		producer:       producer,
		dlq:            dlq,
		consumer:       consumer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

func newPaymentProvider(cfg *config.Config, logger *slog.Logger) (payment.Provider, error) {
	switch cfg.PaymentProvider {
	case "stripe":
		return stripepay.NewProvider(stripepay.Config{
			SecretKey:        cfg.StripeSecretKey,
			WebhookSecret:    cfg.StripeWebhookSecret,
			PublicURL:        cfg.PublicURL,
			AllowedCountries: cfg.AllowedCountries,
			ShippingRate:     cfg.StripeShippingRate,
		}, logger), nil
	case "mock":
		logger.Warn("using mock payment provider; no real payments are taken")
		return mock.NewProvider(cfg.PublicURL, cfg.FlatShippingCents), nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.PaymentProvider)
	}
}

// Run starts the HTTP server and the basket cleanup consumer, and blocks
// until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.consumer.Start(consumerCtx); err != nil {
			a.logger.Error("basket cleanup consumer stopped", slog.String("error", err.Error()))
		}
	}()

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	stopConsumer()
	wg.Wait()

	return errors.Join(runErr, a.Shutdown())
}

// Shutdown stops components in dependency order: HTTP first so no new
// events are produced, then tracing, Kafka, Redis and finally PostgreSQL.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	if err := a.dlq.Close(); err != nil {
		a.logger.Error("kafka dlq close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
