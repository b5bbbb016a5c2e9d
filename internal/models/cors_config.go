package models

import (
	"time"

	"github.com/benvon/port-plaisance/internal/policy"
)

// CorsConfig holds CORS configuration (allowed origins, etc.).
type CorsConfig struct {
	ConfigKey        string    `json:"config_key"`
	AllowedOrigins   string    `json:"allowed_origins"` // Comma-separated
	AllowCredentials bool      `json:"allow_credentials"`
	MaxAge           int       `json:"max_age"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// PolicyConfig converts the stored row into a policy configuration using the
// default methods and headers.
func (c *CorsConfig) PolicyConfig() policy.Config {
	return policy.Config{
		AllowedOrigins:   policy.SplitList(c.AllowedOrigins),
		AllowCredentials: c.AllowCredentials,
		MaxAge:           c.MaxAge,
	}
}

// Policy builds a validated CorsPolicy from the stored row.
func (c *CorsConfig) Policy() (*policy.CorsPolicy, error) {
	return policy.New(c.PolicyConfig())
}
