package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadsync_backend/internal/adapters/storage"
	"leadsync_backend/internal/auth"
	"leadsync_backend/internal/events"
	apphttp "leadsync_backend/internal/http"
	"leadsync_backend/internal/http/router"
	"leadsync_backend/internal/leads"
	"leadsync_backend/internal/leads/repository"
	leadservice "leadsync_backend/internal/leads/service"
	"leadsync_backend/internal/scheduler"
	"leadsync_backend/platform/config"
	"leadsync_backend/platform/logger"
	"leadsync_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	// Durable lead store. Without REDIS_URL the service still runs, holding
	// leads in memory only.
	var store repository.Store
	var health apphttp.HealthChecker
	if cfg.RedisURL != "" {
		var redisStore *repository.RedisStore
		if err := withRetry(ctx, log, "redis connection", 5, 2*time.Second, func() error {
			s, err := repository.NewRedisStore(ctx, cfg)
			if err != nil {
				return err
			}
			redisStore = s
			return nil
		}); err != nil {
			log.Error("failed to connect to redis", "error", err)
			panic("failed to connect to redis: " + err.Error())
		}
		defer redisStore.Close()
		store = redisStore
		health = redisStore
		log.Info("redis connection established")
	} else {
		log.Warn("REDIS_URL not configured; leads will not survive restarts")
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// CSV archive (MinIO); optional
	var archiver leadservice.CSVArchiver
	if cfg.IsMinIOEnabled() {
		csvArchive, err := storage.NewCSVArchive(ctx, cfg)
		if err != nil {
			log.Error("failed to initialize csv archive", "error", err)
			panic("failed to initialize csv archive: " + err.Error())
		}
		archiver = csvArchive
		log.Info("csv archive initialized", "bucket", cfg.GetMinioBucketCSVArchive())
	} else {
		log.Warn("MinIO not configured; csv uploads will not be archived")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	authModule := auth.NewModule(cfg, val, log)

	leadsModule, err := leads.NewModule(ctx, store, archiver, eventBus, val, cfg, log)
	if err != nil {
		log.Error("failed to initialize leads module", "error", err)
		panic("failed to initialize leads module: " + err.Error())
	}

	// Background sheet sync: asynq worker plus the periodic enqueuer. Both
	// need Redis; without it the dashboard falls back to manual sync only.
	if cfg.RedisURL != "" {
		worker, err := scheduler.NewWorker(cfg, leadsModule.Service(), log)
		if err != nil {
			log.Error("failed to initialize scheduler worker", "error", err)
			panic("failed to initialize scheduler worker: " + err.Error())
		}
		go worker.Run(ctx)

		periodic, err := scheduler.NewPeriodic(cfg, log)
		if err != nil {
			log.Error("failed to initialize periodic scheduler", "error", err)
			panic("failed to initialize periodic scheduler: " + err.Error())
		}
		if periodic != nil {
			go periodic.Run(ctx)
			log.Info("periodic sheet sync enabled", "interval", cfg.SheetSyncInterval.String())
		}
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   health,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			authModule,
			leadsModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
