// Package main is the entry point for the InternAI API server.
//
// The server owns a single user's personalized learning roadmap: it loads
// the roadmap and progress from PostgreSQL, serves toggles with optimistic
// updates and rollback, resolves lesson slugs through Redis, and generates
// roadmaps, subtopics, and lesson content through the OpenAI API (or a
// deterministic mock when no key is configured).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SuWh1/InternAI-sub001/config"
	"github.com/SuWh1/InternAI-sub001/internal/application/sync"
	"github.com/SuWh1/InternAI-sub001/internal/domain/lesson"
	"github.com/SuWh1/InternAI-sub001/internal/infrastructure/contentcache"
	"github.com/SuWh1/InternAI-sub001/internal/infrastructure/generation"
	"github.com/SuWh1/InternAI-sub001/internal/infrastructure/messaging"
	"github.com/SuWh1/InternAI-sub001/internal/infrastructure/persistence/postgres"
	"github.com/SuWh1/InternAI-sub001/internal/infrastructure/persistence/redis"
	"github.com/SuWh1/InternAI-sub001/internal/infrastructure/scheduler"
	"github.com/SuWh1/InternAI-sub001/internal/infrastructure/scheduler/jobs"
	httpserver "github.com/SuWh1/InternAI-sub001/internal/interface/http"
	"github.com/SuWh1/InternAI-sub001/internal/interface/http/handlers"
	"github.com/SuWh1/InternAI-sub001/pkg/logger"
	"github.com/SuWh1/InternAI-sub001/pkg/retry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. Configuration
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. Logging
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(logger.Options{
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		Format:    logger.ParseFormat(cfg.Observability.LogFormat),
		AddSource: cfg.App.Debug,
		Service:   cfg.App.Name,
	})
	slog.SetDefault(log)

	log.Info("starting InternAI API server",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. PostgreSQL (Supabase)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	// The database may still be coming up when the container starts.
	pingErr := retry.DatabaseRetrier().Do(ctx, func(ctx context.Context) error {
		return retry.Retryable(dbConn.Ping(ctx))
	})
	if pingErr != nil {
		return fmt.Errorf("database ping failed: %w", pingErr)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. Migrations
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("running database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. Redis (slug mapping, optional)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var slugStore lesson.IdentityStore

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, slug mapping degraded to structural parsing", "error", err)
		} else {
			defer redisCache.Close()
			slugStore = redis.NewSlugStore(redisCache, log)
			log.Info("Redis connection established")
		}
	}
	if slugStore == nil {
		slugStore = lesson.NewMemoryIdentityStore()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. Event bus
	// ─────────────────────────────────────────────────────────────────────────
	eventBusConfig := messaging.DefaultInMemoryEventBusConfig()
	eventBusConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(eventBusConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	if err := messaging.RegisterLoggingSubscribers(eventBus, log); err != nil {
		return fmt.Errorf("failed to register event subscribers: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. Content generation (OpenAI or mock)
	// ─────────────────────────────────────────────────────────────────────────
	contentCache := contentcache.New(contentcache.Config{
		TTL:        cfg.OpenAI.CacheTTL,
		MaxEntries: cfg.OpenAI.CacheMaxEntries,
	})
	if err := messaging.RegisterCacheInvalidation(eventBus, contentCache, log); err != nil {
		return fmt.Errorf("failed to register cache invalidation: %w", err)
	}

	genService := generation.NewService(generation.Config{
		APIKey:         cfg.OpenAI.APIKey,
		Model:          cfg.OpenAI.Model,
		Temperature:    cfg.OpenAI.Temperature,
		MaxTokens:      cfg.OpenAI.MaxTokens,
		RequestTimeout: cfg.OpenAI.RequestTimeout,
		RateLimiter: generation.RateLimiterConfig{
			RequestsPerSecond: float64(cfg.OpenAI.RateLimit),
			BurstSize:         cfg.OpenAI.RateLimitBurst,
		},
		CircuitBreaker: generation.CircuitBreakerConfig{
			FailureThreshold: cfg.OpenAI.CircuitBreakerThreshold,
			Timeout:          cfg.OpenAI.CircuitBreakerTimeout,
		},
	}, contentCache, log)

	if genService.MockMode() {
		log.Warn("no OpenAI API key configured, serving mock generation")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. Sync engine and debounced refresh
	// ─────────────────────────────────────────────────────────────────────────
	roadmapRepo := postgres.NewRoadmapRepository(dbConn)

	engine := sync.NewEngine(roadmapRepo, genService, eventBus, log, sync.Config{
		GuardWindow: cfg.Engine.GuardWindow,
	})

	refreshDebouncer := scheduler.NewDebouncer(cfg.Engine.RefreshQuietPeriod, func() {
		refreshCtx, refreshCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer refreshCancel()
		if err := engine.Refresh(refreshCtx); err != nil {
			log.Warn("debounced refresh failed", "error", err)
		}
	})
	defer refreshDebouncer.Stop()
	engine.SetRefreshTrigger(refreshDebouncer)

	if err := engine.Load(ctx, cfg.App.UserID); err != nil {
		return fmt.Errorf("failed to load roadmap session: %w", err)
	}
	log.Info("roadmap session loaded", "user_id", cfg.App.UserID, "has_roadmap", engine.HasRoadmap())

	resolver := lesson.NewResolver(slugStore, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. Background jobs
	// ─────────────────────────────────────────────────────────────────────────
	var jobScheduler *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		schedulerConfig := scheduler.DefaultSchedulerConfig()
		schedulerConfig.Logger = log
		jobScheduler = scheduler.NewScheduler(schedulerConfig)

		refreshJob := jobs.NewRefreshProgressJob(engine, log, jobs.RefreshProgressConfig{
			Timeout: cfg.Scheduler.JobTimeout,
		})
		if err := jobScheduler.Register(refreshJob, scheduler.NewIntervalSchedule(cfg.Scheduler.RefreshInterval)); err != nil {
			return fmt.Errorf("failed to register refresh job: %w", err)
		}

		if store, ok := slugStore.(*redis.SlugStore); ok {
			cleanupSchedule, err := scheduler.NewCronSchedule(cfg.Scheduler.CleanupCron)
			if err != nil {
				return fmt.Errorf("invalid cleanup schedule: %w", err)
			}
			cleanupJob := jobs.NewCleanupLegacyCacheJob(store, log)
			if err := jobScheduler.Register(cleanupJob, cleanupSchedule); err != nil {
				return fmt.Errorf("failed to register cleanup job: %w", err)
			}
			// One eager sweep at startup, after the store is confirmed up.
			if _, err := store.CleanupLegacyProgress(ctx); err != nil {
				log.Warn("startup legacy cleanup failed", "error", err)
			}
		}

		if err := jobScheduler.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			log.Info("stopping scheduler...")
			_ = jobScheduler.Stop()
		}()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. Health checks
	// ─────────────────────────────────────────────────────────────────────────
	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddCheck("database", handlers.NewDatabaseCheck(dbConn))
	if redisCache != nil {
		health.AddCheck("cache", handlers.NewCacheCheck(redisCache))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. HTTP server
	// ─────────────────────────────────────────────────────────────────────────
	serverConfig := httpserver.DefaultConfig()
	serverConfig.Host = cfg.Server.Host
	serverConfig.Port = cfg.Server.Port
	serverConfig.ReadTimeout = cfg.Server.ReadTimeout
	serverConfig.WriteTimeout = cfg.Server.WriteTimeout
	serverConfig.IdleTimeout = cfg.Server.IdleTimeout
	serverConfig.EnableCORS = cfg.Server.EnableCORS
	serverConfig.AllowedOrigins = cfg.Server.AllowedOrigins
	serverConfig.RateLimitPerMinute = cfg.Server.RateLimitPerMinute
	serverConfig.APIKeys = cfg.Server.APIKeys
	serverConfig.APIKeyHeader = cfg.Server.APIKeyHeader
	serverConfig.GenerationTimeout = cfg.Server.GenerationTimeout

	server := httpserver.NewServer(serverConfig, httpserver.Dependencies{
		Engine:        engine,
		Resolver:      resolver,
		Generator:     genService,
		Logger:        log,
		HealthChecker: health,
		Publisher:     eventBus,
	})

	serverErr := server.StartAsync()
	log.Info("HTTP server listening", "address", server.Address())

	// ─────────────────────────────────────────────────────────────────────────
	// 12. Wait for shutdown
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	// Flush any pending debounced refresh before stopping.
	refreshDebouncer.Flush()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", "error", err)
	}

	log.Info("shutdown complete")
	return nil
}
