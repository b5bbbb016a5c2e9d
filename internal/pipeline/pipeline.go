// Package pipeline assembles the fixed request pipeline (security headers,
// CORS, body parsing, request logging) onto a router.
package pipeline

import (
	"net/http"

	"github.com/benvon/port-plaisance/internal/config"
	"github.com/benvon/port-plaisance/internal/metrics"
	"github.com/benvon/port-plaisance/internal/middleware"
	"github.com/benvon/port-plaisance/internal/policy"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ConfigurationError is returned when the pipeline cannot be assembled.
type ConfigurationError = policy.ConfigurationError

// Stage names, in the order they run.
const (
	StageSecurityHeaders = "security_headers"
	StageCORS            = "cors"
	StageBodyParsing     = "body_parsing"
	StageRequestLogging  = "request_logging"
)

// Registrar accepts middleware registration. *mux.Router satisfies it.
type Registrar interface {
	Use(mwf ...mux.MiddlewareFunc)
}

// ServerConfig is everything the pipeline needs from the host.
type ServerConfig struct {
	Environment  config.Environment
	Policy       *policy.CorsPolicy
	Logger       *zap.Logger
	MaxBodyBytes int64
	EnableHSTS   bool
	// Metrics is optional.
	Metrics *metrics.PipelineMetrics
}

// Stage is one named middleware in the chain.
type Stage struct {
	Name       string
	Middleware func(http.Handler) http.Handler
}

// Chain is an ordered, immutable list of stages.
type Chain struct {
	stages []Stage
}

// Names returns the stage names in execution order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.stages))
	for i, s := range c.stages {
		names[i] = s.Name
	}
	return names
}

// Stages returns a copy of the stages in execution order.
func (c *Chain) Stages() []Stage {
	return append([]Stage(nil), c.stages...)
}

// Then wraps h so that the first stage runs outermost:
//
//	Then(h) == s1(s2(s3(s4(h))))
func (c *Chain) Then(h http.Handler) http.Handler {
	if h == nil {
		h = http.NotFoundHandler()
	}
	for i := len(c.stages) - 1; i >= 0; i-- {
		h = c.stages[i].Middleware(h)
	}
	return h
}

// Build validates cfg and returns the chain without registering it.
func Build(cfg ServerConfig) (*Chain, error) {
	if cfg.Policy == nil {
		return nil, &ConfigurationError{Field: "Policy", Reason: "CORS policy is required (no allowed origins configured)"}
	}
	if cfg.Logger == nil {
		return nil, &ConfigurationError{Field: "Logger", Reason: "logger is required"}
	}

	logging := passthrough
	if cfg.Environment.IsDevelopment() {
		logging = middleware.Logging(cfg.Logger)
	}

	return &Chain{stages: []Stage{
		{Name: StageSecurityHeaders, Middleware: middleware.SecurityHeaders(cfg.EnableHSTS)},
		{Name: StageCORS, Middleware: middleware.CORS(cfg.Policy, cfg.Metrics)},
		{Name: StageBodyParsing, Middleware: middleware.BodyParser(cfg.MaxBodyBytes, cfg.Metrics, cfg.Logger)},
		{Name: StageRequestLogging, Middleware: logging},
	}}, nil
}

// Assemble registers the chain on server and returns the same handle.
func Assemble(server Registrar, cfg ServerConfig) (Registrar, error) {
	if server == nil {
		return nil, &ConfigurationError{Field: "server", Reason: "server cannot accept middleware registration"}
	}
	if r, ok := server.(*mux.Router); ok && r == nil {
		return nil, &ConfigurationError{Field: "server", Reason: "server cannot accept middleware registration"}
	}

	chain, err := Build(cfg)
	if err != nil {
		return nil, err
	}

	for _, s := range chain.stages {
		server.Use(s.Middleware)
	}
	return server, nil
}

func passthrough(next http.Handler) http.Handler { return next }
