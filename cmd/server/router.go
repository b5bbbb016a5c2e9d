package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/benvon/port-plaisance/internal/config"
	"github.com/benvon/port-plaisance/internal/handlers"
	"github.com/benvon/port-plaisance/internal/metrics"
	"github.com/benvon/port-plaisance/internal/middleware"
	"github.com/benvon/port-plaisance/internal/models"
	"github.com/benvon/port-plaisance/internal/pipeline"
	"github.com/benvon/port-plaisance/internal/policy"
	"github.com/benvon/port-plaisance/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// corsConfigSource is the stored CORS row, when a database is configured.
type corsConfigSource interface {
	Get(ctx context.Context) (*models.CorsConfig, error)
}

// resolvePolicy returns the stored policy when a row exists, the
// environment/file policy otherwise.
func resolvePolicy(ctx context.Context, cfg *config.Config, source corsConfigSource, logger *zap.Logger) (*policy.CorsPolicy, error) {
	if source != nil {
		row, err := source.Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("load stored cors config: %w", err)
		}
		if row != nil {
			p, err := row.Policy()
			if err != nil {
				return nil, err
			}
			logger.Info("cors_policy_loaded",
				zap.String("source", "database"),
				zap.Int("origin_count", len(p.Origins())),
			)
			return p, nil
		}
	}

	p, err := cfg.CorsPolicy()
	if err != nil {
		return nil, err
	}
	from := "environment"
	if cfg.CorsConfigFile != "" {
		from = "file"
	}
	logger.Info("cors_policy_loaded",
		zap.String("source", from),
		zap.Int("origin_count", len(p.Origins())),
	)
	return p, nil
}

// routerDeps are the collaborators buildRouter wires together.
type routerDeps struct {
	cfg     *config.Config
	policy  *policy.CorsPolicy
	logger  *zap.Logger
	metrics *metrics.PipelineMetrics
	redis   *redis.Client
	tracer  *sdktrace.TracerProvider
	health  map[string]handlers.Pinger
}

func buildRouter(d routerDeps) (*mux.Router, error) {
	r := mux.NewRouter()

	// Tracing wraps the whole pipeline
	telemetry.Instrument(r, d.tracer)

	pcfg := pipeline.ServerConfig{
		Environment:  d.cfg.Environment,
		Policy:       d.policy,
		Logger:       d.logger,
		MaxBodyBytes: d.cfg.MaxBodyBytes,
		EnableHSTS:   d.cfg.EnableHSTS,
		Metrics:      d.metrics,
	}
	if _, err := pipeline.Assemble(r, pcfg); err != nil {
		return nil, err
	}

	// mux skips Use middleware when no route matches; the fallbacks get the chain too
	chain, err := pipeline.Build(pcfg)
	if err != nil {
		return nil, err
	}
	r.NotFoundHandler = chain.Then(http.HandlerFunc(handlers.NotFound))
	r.MethodNotAllowedHandler = chain.Then(http.HandlerFunc(handlers.MethodNotAllowed))

	// Public routes (no rate limiting)
	r.HandleFunc("/healthz", handlers.NewHealthChecker(d.health).HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", handlers.VersionInfo).Methods(http.MethodGet)
	r.Handle("/metrics", d.metrics.Handler()).Methods(http.MethodGet)

	rateLimit, err := middleware.RateLimit(d.redis, d.cfg.RateLimit, d.logger)
	if err != nil {
		return nil, &policy.ConfigurationError{Field: "RATE_LIMIT", Reason: "invalid rate", Err: err}
	}

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(middleware.ErrorHandler(d.logger))
	apiRouter.Use(rateLimit)
	apiRouter.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	handlers.NewEchoHandler().RegisterRoutes(apiRouter)

	return r, nil
}
