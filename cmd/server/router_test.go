package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/benvon/port-plaisance/internal/config"
	"github.com/benvon/port-plaisance/internal/metrics"
	"github.com/benvon/port-plaisance/internal/models"
	"github.com/benvon/port-plaisance/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubSource struct {
	row *models.CorsConfig
	err error
}

func (s stubSource) Get(ctx context.Context) (*models.CorsConfig, error) { return s.row, s.err }

func testConfig() *config.Config {
	return &config.Config{
		Environment:          config.Development,
		Port:                 "3000",
		CorsAllowedOrigins:   policy.SplitList(config.DefaultAllowedOrigins),
		CorsAllowCredentials: true,
		CorsMaxAge:           policy.DefaultMaxAge,
		MaxBodyBytes:         config.DefaultMaxBodyBytes,
		RateLimit:            "2-M",
	}
}

func TestResolvePolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		source     corsConfigSource
		wantAllow  string
		wantDeny   string
		wantErr    bool
		wantSource string
	}{
		{
			name:       "environment when no database",
			source:     nil,
			wantAllow:  "https://port-plaisance.vercel.app",
			wantSource: "environment",
		},
		{
			name:       "environment when no stored row",
			source:     stubSource{},
			wantAllow:  "http://localhost:5173",
			wantSource: "environment",
		},
		{
			name:       "stored row wins",
			source:     stubSource{row: &models.CorsConfig{AllowedOrigins: "https://harbour.example.org", AllowCredentials: true}},
			wantAllow:  "https://harbour.example.org",
			wantDeny:   "https://port-plaisance.vercel.app",
			wantSource: "database",
		},
		{
			name:    "stored row invalid",
			source:  stubSource{row: &models.CorsConfig{AllowedOrigins: "*", AllowCredentials: true}},
			wantErr: true,
		},
		{
			name:    "database error",
			source:  stubSource{err: errors.New("connection reset")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zapcore.InfoLevel)
			p, err := resolvePolicy(context.Background(), testConfig(), tt.source, zap.New(core))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, p.Allows(tt.wantAllow))
			if tt.wantDeny != "" {
				assert.False(t, p.Allows(tt.wantDeny))
			}
			entries := logs.FilterMessage("cors_policy_loaded").All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.wantSource, entries[0].ContextMap()["source"])
		})
	}
}

func newTestRouter(t *testing.T) (http.Handler, *observer.ObservedLogs) {
	t.Helper()

	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)
	cfg := testConfig()
	p, err := cfg.CorsPolicy()
	require.NoError(t, err)

	r, err := buildRouter(routerDeps{cfg: cfg, policy: p, logger: log, metrics: metrics.New()})
	require.NoError(t, err)
	return r, logs
}

func TestRouter_PreflightOnPostOnlyRoute(t *testing.T) {
	t.Parallel()

	r, logs := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/echo", nil)
	req.Header.Set("Origin", "https://port-plaisance.vercel.app")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://port-plaisance.vercel.app", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"), "preflights are not rate limited")
	assert.Zero(t, logs.FilterMessage("http_request").Len())
}

func TestRouter_EchoThroughPipeline(t *testing.T) {
	t.Parallel()

	r, logs := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/echo", strings.NewReader(`{"boat":"Belle Isle"}`))
	req.Header.Set("Origin", "https://port-plaisance.vercel.app")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"boat":"Belle Isle"`)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "https://port-plaisance.vercel.app", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, 1, logs.FilterMessage("http_request").Len())
}

func TestRouter_PublicRoutes(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)

	for path, want := range map[string]string{
		"/healthz": `"status":"healthy"`,
		"/version": `"version"`,
		"/metrics": "pipeline_cors_decisions_total",
	} {
		// Generate at least one CORS decision before scraping
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"), path)
		if path != "/metrics" {
			assert.Contains(t, rec.Body.String(), want, path)
		}
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "pipeline_cors_decisions_total")
}

func TestRouter_UnmatchedRequestsGoThroughPipeline(t *testing.T) {
	t.Parallel()

	const origin = "https://port-plaisance.vercel.app"

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{name: "unknown path", method: http.MethodGet, path: "/nope", wantStatus: http.StatusNotFound},
		{name: "unknown path outside api prefix", method: http.MethodGet, path: "/api/boats", wantStatus: http.StatusNotFound},
		{name: "unknown path inside api prefix", method: http.MethodGet, path: "/api/v1/moorings", wantStatus: http.StatusNotFound},
		{name: "method mismatch", method: http.MethodPost, path: "/healthz", wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, _ := newTestRouter(t)
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("Origin", origin)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
			assert.Equal(t, origin, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestRouter_PreflightOnUnknownPath(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)

	for _, path := range []string{"/api/boats", "/healthz"} {
		req := httptest.NewRequest(http.MethodOptions, path, nil)
		req.Header.Set("Origin", "https://port-plaisance.vercel.app")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code, path)
		assert.Equal(t, "https://port-plaisance.vercel.app", rec.Header().Get("Access-Control-Allow-Origin"), path)
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"), path)
	}
}

func TestBuildRouter_InvalidRateLimit(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.RateLimit = "fast"
	p, err := cfg.CorsPolicy()
	require.NoError(t, err)

	_, err = buildRouter(routerDeps{cfg: cfg, policy: p, logger: zap.NewNop()})
	var cfgErr *policy.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "RATE_LIMIT", cfgErr.Field)
}
