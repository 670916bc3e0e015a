package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/tair/stockroom/internal/access"
	"github.com/tair/stockroom/internal/access/cache"
	accesshttp "github.com/tair/stockroom/internal/access/delivery/http"
	accessdomain "github.com/tair/stockroom/internal/access/domain"
	accessrepo "github.com/tair/stockroom/internal/access/repository"
	"github.com/tair/stockroom/internal/access/usecase/command"
	"github.com/tair/stockroom/internal/config"
	"github.com/tair/stockroom/internal/httpapi"
	"github.com/tair/stockroom/internal/inventory"
	inventorygrpc "github.com/tair/stockroom/internal/inventory/delivery/grpc"
	"github.com/tair/stockroom/internal/inventory/domain"
	"github.com/tair/stockroom/internal/inventory/engine"
	"github.com/tair/stockroom/internal/inventory/feed"
	"github.com/tair/stockroom/internal/inventory/repository"
	"github.com/tair/stockroom/internal/inventory/session"
	"github.com/tair/stockroom/kafka"
	"github.com/tair/stockroom/pkg/auth"
	"github.com/tair/stockroom/pkg/database"
	"github.com/tair/stockroom/pkg/logger"
	"github.com/tair/stockroom/pkg/tracing"
)

const (
	feedBuffer          = 256
	healthCheckInterval = 15 * time.Second
	shutdownTimeout     = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("stockd", true)
		logger.Logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	logger.Init(cfg.ServiceName, cfg.IsDevelopment())
	logger.SetLevel(cfg.LogLevel)

	logger.Logger.Info().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Str("log_level", cfg.LogLevel).
		Str("store_backend", cfg.StoreBackend).
		Str("feed_backend", cfg.FeedBackend).
		Bool("redis", cfg.RedisEnabled()).
		Msg("Starting stockd")

	if err := run(cfg); err != nil {
		logger.Logger.Fatal().Err(err).Msg("stockd stopped with error")
	}
	logger.Logger.Info().Msg("stockd stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.InitTracer(cfg.ServiceName, cfg.Environment, cfg.JaegerEndpoint)
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("Tracing disabled")
	} else {
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := tracing.Shutdown(sctx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	hub := feed.NewHub(feedBuffer)
	defer hub.Close()

	checks := map[string]httpapi.Checker{}
	g, gctx := errgroup.WithContext(ctx)

	// Change feed: writes go to Kafka and come back through the consumer,
	// or straight to the in-process hub.
	var publisher domain.ChangePublisher = hub
	if cfg.FeedBackend == config.FeedKafka {
		kafkaPublisher, err := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher

		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, kafka.NewGroupID(cfg.ServiceName), []string{cfg.KafkaTopic})
		if err != nil {
			return err
		}
		defer consumer.Close()
		consumer.RegisterHandler(kafka.EventTypeItemChanged, func(ctx context.Context, event kafka.ItemChangedEvent) error {
			return hub.PublishChange(ctx, event.Change())
		})
		g.Go(func() error { return consumer.Run(gctx) })
	}

	// Stores
	var (
		itemStore domain.ItemStore
		users     interface {
			accessdomain.UserRepository
			accessdomain.RoleSource
		}
	)
	switch cfg.StoreBackend {
	case config.StorePostgres:
		sqlDB, err := database.NewPostgresConnection(cfg.Database)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		db, err := database.NewGormConnection(sqlDB)
		if err != nil {
			return err
		}

		items := repository.NewGormItemRepository(db, publisher)
		if err := items.AutoMigrate(); err != nil {
			return err
		}
		userRepo := accessrepo.NewGormUserRepository(db)
		if err := userRepo.AutoMigrate(); err != nil {
			return err
		}
		logger.Logger.Info().Msg("Database initialized successfully")

		itemStore, users = items, userRepo
		checks["database"] = sqlDB.PingContext
	default:
		itemStore = repository.NewMemoryItemRepository(publisher)
		users = accessrepo.NewMemoryUserRepository()
	}

	breaker := repository.NewCircuitBreaker("inventory-store", cfg.BreakerMaxFailures, cfg.BreakerOpenTimeout)
	itemStore = repository.NewTracingItemStore(repository.NewBreakerItemStore(itemStore, breaker))
	checks["inventory_store"] = func(context.Context) error {
		if breaker.State() == repository.StateOpen {
			return domain.ErrRemoteUnavailable
		}
		return nil
	}

	// Redis-backed access helpers; without Redis roles come straight from
	// the user store, logout only ends the session and login is unthrottled.
	var (
		roleSource  accessdomain.RoleSource = users
		revoker     command.TokenRevoker
		invalidator command.RoleInvalidator
		revocations accesshttp.RevocationChecker
		limiter     accesshttp.Limiter
	)
	if cfg.RedisEnabled() {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis not reachable at startup")
		}

		roleCache := cache.NewRoleCache(rdb, users, cfg.RoleCacheTTL)
		revocationList := cache.NewRevocationList(rdb)
		roleSource, invalidator = roleCache, roleCache
		revoker, revocations = revocationList, revocationList
		limiter = cache.NewRateLimiter(rdb, cfg.LoginRateLimit, time.Minute)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	sessions := session.NewManager(itemStore, hub, roleSource, session.Config{
		Engine: engine.Config{
			RemoteTimeout:     cfg.RemoteTimeout,
			MaxCommitAttempts: cfg.MaxCommitAttempts,
		},
		IdleTimeout: cfg.SessionIdleTimeout,
	})
	g.Go(func() error { return sessions.Run(gctx) })

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	inventoryHandler, err := inventory.InitializeHTTPHandler(sessions)
	if err != nil {
		return err
	}
	accessHandler, err := access.InitializeHTTPHandler(users, roleSource, tokens, revoker, sessions, invalidator, cfg.RemoteTimeout)
	if err != nil {
		return err
	}

	// HTTP
	router := mux.NewRouter()
	mwConfig := httpapi.DefaultMiddlewareConfig(cfg.ServiceName)
	httpapi.RegisterMiddlewares(router, mwConfig)

	authenticate := accesshttp.AuthMiddleware(tokens, revocations)
	accessHandler.RegisterRoutes(router, authenticate, accesshttp.RateLimitMiddleware(limiter))
	inventoryHandler.RegisterRoutes(router, authenticate)
	httpapi.RegisterHealthCheck(router, cfg.ServiceName, checks)
	httpapi.RegisterMetrics(router)

	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           httpapi.SetupCORS(mwConfig)(router),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		logger.Logger.Info().
			Str("port", cfg.HTTPPort).
			Str("metrics_endpoint", "/metrics").
			Msg("HTTP server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// gRPC
	grpcServer := inventorygrpc.NewServer()
	g.Go(func() error { return grpcServer.Serve(":" + cfg.GRPCPort) })
	g.Go(func() error {
		watchHealth(gctx, grpcServer, checks)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Logger.Info().Msg("Shutting down server...")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		grpcServer.Shutdown(sctx)
		if err := httpServer.Shutdown(sctx); err != nil {
			logger.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// watchHealth mirrors dependency checks into the gRPC health service
func watchHealth(ctx context.Context, server *inventorygrpc.Server, checks map[string]httpapi.Checker) {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		healthy := true
		for name, check := range checks {
			cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err := check(cctx)
			cancel()
			if err != nil {
				healthy = false
				logger.Logger.Warn().Err(err).Str("dependency", name).Msg("Health check failed")
			}
		}
		server.SetDependencyHealth(healthy)
	}
}
