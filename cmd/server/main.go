package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/port-plaisance/internal/config"
	"github.com/benvon/port-plaisance/internal/database"
	"github.com/benvon/port-plaisance/internal/handlers"
	"github.com/benvon/port-plaisance/internal/logger"
	"github.com/benvon/port-plaisance/internal/metrics"
	"github.com/benvon/port-plaisance/internal/middleware"
	"github.com/benvon/port-plaisance/internal/policy"
	"github.com/benvon/port-plaisance/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.Environment, cfg.LogDebug || *debugFlag)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	if err := run(cfg, zapLogger); err != nil {
		var cfgErr *policy.ConfigurationError
		if errors.As(err, &cfgErr) {
			zapLogger.Error("invalid_configuration",
				zap.String("field", cfgErr.Field),
				zap.String("reason", cfgErr.Reason),
				zap.Error(cfgErr.Err),
			)
		} else {
			zapLogger.Error("server_failed", zap.Error(err))
		}
		_ = logger.Sync(zapLogger)
		os.Exit(1)
	}
}

func run(cfg *config.Config, zapLogger *zap.Logger) error {
	ctx := context.Background()

	zapLogger.Info("starting_server",
		zap.String("environment", cfg.Environment.String()),
		zap.String("port", cfg.Port),
		zap.Bool("database_configured", cfg.DatabaseURL != ""),
		zap.Bool("redis_configured", cfg.RedisURL != ""),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	tp, err := telemetry.Setup(ctx, cfg.OTELEnabled, cfg.OTELEndpoint, zapLogger)
	if err != nil {
		zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
			zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
		}
	}()

	health := map[string]handlers.Pinger{}

	var corsSource corsConfigSource
	if cfg.DatabaseURL != "" {
		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Close(); err != nil {
				zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
			}
		}()
		if err := db.EnsureSchema(ctx); err != nil {
			return err
		}
		zapLogger.Info("connected_to_database")
		corsSource = database.NewCorsConfigRepository(db)
		health["database"] = handlers.PingFunc(db.PingContext)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = middleware.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		zapLogger.Info("connected_to_redis")
		health["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	corsPolicy, err := resolvePolicy(ctx, cfg, corsSource, zapLogger)
	if err != nil {
		return err
	}

	r, err := buildRouter(routerDeps{
		cfg:     cfg,
		policy:  corsPolicy,
		logger:  zapLogger,
		metrics: metrics.New(),
		redis:   redisClient,
		tracer:  tp,
		health:  health,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB max header size
	}

	serverErr := make(chan error, 1)
	go func() {
		zapLogger.Info("server_listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case <-quit:
	}

	zapLogger.Info("server_shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	zapLogger.Info("server_exited")
	return nil
}
