package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/aid_budget_ledger/internal/adapters/lock"
	"github.com/SscSPs/aid_budget_ledger/internal/adapters/messaging"
	portsrepo "github.com/SscSPs/aid_budget_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/aid_budget_ledger/internal/core/ports/services"
	"github.com/SscSPs/aid_budget_ledger/internal/core/services"
	"github.com/SscSPs/aid_budget_ledger/internal/handlers"
	"github.com/SscSPs/aid_budget_ledger/internal/middleware"
	"github.com/SscSPs/aid_budget_ledger/internal/platform/config"
	"github.com/SscSPs/aid_budget_ledger/internal/repositories/database/memory"
	"github.com/SscSPs/aid_budget_ledger/internal/repositories/database/pgsql"
	"github.com/SscSPs/aid_budget_ledger/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	limitermemory "github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// @title Aid Budget Ledger API
// @version 1.0
// @description Budget pool allocation and payment settlement for the aid portal.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, err := setupStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer repos.Close()

	var redisClient *redis.Client
	if cfg.LockBackend == config.LockRedis {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("Failed to connect to redis", slog.String("addr", cfg.RedisAddr), slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
	}

	publisher, closePublisher, err := setupPublisher(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize event publisher", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closePublisher()

	serviceContainer, err := services.NewServiceContainer(cfg, repos, setupLocker(cfg, redisClient), publisher)
	if err != nil {
		logger.Error("Failed to build services", slog.String("error", err.Error()))
		os.Exit(1)
	}

	scheduler := services.NewReconciliationScheduler(serviceContainer.Reconciliation, cfg.ReconciliationInterval, logger)
	scheduler.Start()
	defer scheduler.Stop()

	rateLimiter, err := setupRateLimiter(cfg, redisClient)
	if err != nil {
		logger.Error("Failed to initialize rate limiter", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	err = r.SetTrustedProxies(nil)
	if err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer, rateLimiter)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
	}
}

func setupStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, error) {
	if cfg.StorageBackend == config.StorageMemory {
		logger.Warn("Using in-memory storage; ledger state is lost on restart")
		repos := memory.NewRepositoryProvider()
		repos.Close = func() {}
		return repos, nil
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, database.PoolOptions{
		ConnectTimeout:    5 * time.Second,
		HealthCheckPeriod: time.Minute,
	})
	if err != nil {
		return portsrepo.RepositoryProvider{}, err
	}
	logger.Info("Database connection pool established.")

	logger.Info("Running database migrations...")
	if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		dbPool.Close()
		return portsrepo.RepositoryProvider{}, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return pgsql.NewRepositoryProvider(dbPool), nil
}

func setupLocker(cfg *config.Config, client *redis.Client) services.Locker {
	if client != nil {
		return lock.NewRedisLocker(client, lock.DefaultRedisOptions())
	}
	return lock.NewKeyedMutexLocker()
}

func setupPublisher(cfg *config.Config, logger *slog.Logger) (portssvc.EventPublisher, func(), error) {
	if cfg.RabbitMQURL == "" {
		logger.Warn("RABBITMQ_URL not set; ledger events are only logged")
		return messaging.NewLogPublisher(), func() {}, nil
	}
	publisher, closeFn, err := messaging.DialRabbitMQ(cfg.RabbitMQURL, cfg.EventsExchange, messaging.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Publishing ledger events to rabbitmq", slog.String("exchange", cfg.EventsExchange))
	return publisher, closeFn, nil
}

// setupRateLimiter shares the redis instance across replicas when one is configured.
func setupRateLimiter(cfg *config.Config, client *redis.Client) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT %q: %w", cfg.RateLimit, err)
	}
	if client == nil {
		return limiter.New(limitermemory.NewStore(), rate), nil
	}
	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: "ledger:limiter", MaxRetry: 3})
	if err != nil {
		return nil, err
	}
	return limiter.New(store, rate), nil
}
