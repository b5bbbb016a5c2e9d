package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/benvon/port-plaisance/internal/policy"
	"github.com/joho/godotenv"
)

const (
	// DefaultMaxBodyBytes is the default request body limit (1MB)
	DefaultMaxBodyBytes int64 = 1 << 20
	// DefaultAllowedOrigins are the origins of the Port Plaisance front ends.
	DefaultAllowedOrigins = "http://localhost:5173,https://port-plaisance.vercel.app,.onrender.com"
)

// Config holds application configuration
type Config struct {
	Environment          Environment
	Port                 string
	CorsAllowedOrigins   []string
	CorsAllowCredentials bool
	CorsMaxAge           int
	CorsConfigFile       string
	MaxBodyBytes         int64
	EnableHSTS           bool
	DatabaseURL          string
	RedisURL             string
	RateLimit            string
	OTELEnabled          bool
	OTELEndpoint         string
	LogDebug             bool
}

// Load loads configuration from environment variables. A .env file in the
// working directory (or the file named by ENV_FILE) is read first; variables
// already set in the process environment win.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	env, err := ParseEnvironment(os.Getenv("NODE_ENV"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Environment:          env,
		Port:                 getEnv("PORT", "3000"),
		CorsAllowedOrigins:   policy.SplitList(getEnv("CORS_ALLOWED_ORIGINS", DefaultAllowedOrigins)),
		CorsAllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", true),
		CorsMaxAge:           getEnvInt("CORS_MAX_AGE", policy.DefaultMaxAge),
		CorsConfigFile:       getEnv("CORS_CONFIG_FILE", ""),
		MaxBodyBytes:         getEnvInt64("MAX_BODY_BYTES", DefaultMaxBodyBytes),
		EnableHSTS:           getEnvBool("ENABLE_HSTS", false),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		RedisURL:             getEnv("REDIS_URL", ""),
		RateLimit:            getEnv("RATE_LIMIT", "100-M"),
		OTELEnabled:          getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:         getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		LogDebug:             getEnvBool("LOG_DEBUG", false),
	}

	port, err := strconv.Atoi(cfg.Port)
	if err != nil || port <= 0 || port > 65535 {
		return nil, &policy.ConfigurationError{Field: "PORT", Reason: fmt.Sprintf("must be an integer between 1 and 65535, got %q", cfg.Port)}
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	return cfg, nil
}

// CorsPolicyConfig returns the raw CORS settings: the policy file when
// CORS_CONFIG_FILE is set, the CORS_* variables otherwise.
func (c *Config) CorsPolicyConfig() (policy.Config, error) {
	if c.CorsConfigFile != "" {
		return LoadPolicyFile(c.CorsConfigFile)
	}
	return policy.Config{
		AllowedOrigins:   c.CorsAllowedOrigins,
		AllowCredentials: c.CorsAllowCredentials,
		MaxAge:           c.CorsMaxAge,
	}, nil
}

// CorsPolicy builds the validated policy from CorsPolicyConfig.
func (c *Config) CorsPolicy() (*policy.CorsPolicy, error) {
	raw, err := c.CorsPolicyConfig()
	if err != nil {
		return nil, err
	}
	return policy.New(raw)
}

func loadDotEnv() error {
	if path := os.Getenv("ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return &policy.ConfigurationError{Field: "ENV_FILE", Reason: "cannot load " + path, Err: err}
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
