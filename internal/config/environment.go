package config

import (
	"strings"

	"github.com/benvon/port-plaisance/internal/policy"
)

// Environment is the runtime mode, decided once at startup from NODE_ENV.
type Environment int

const (
	// Production is the default when NODE_ENV is unset.
	Production Environment = iota
	Development
	Test
)

func (e Environment) String() string {
	switch e {
	case Development:
		return "development"
	case Test:
		return "test"
	default:
		return "production"
	}
}

// IsDevelopment gates development-only behavior such as request logging.
func (e Environment) IsDevelopment() bool { return e == Development }

// ParseEnvironment maps a NODE_ENV value to an Environment.
func ParseEnvironment(value string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "production", "prod":
		return Production, nil
	case "development", "dev":
		return Development, nil
	case "test":
		return Test, nil
	default:
		return Production, &policy.ConfigurationError{
			Field:  "NODE_ENV",
			Reason: "unknown environment '" + value + "' (want development, production or test)",
		}
	}
}
