package models

import (
	"errors"
	"testing"

	"github.com/benvon/port-plaisance/internal/policy"
)

func TestCorsConfig_Policy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     CorsConfig
		wantErr bool
		allowed string
	}{
		{
			name:    "stored list",
			cfg:     CorsConfig{AllowedOrigins: "https://port-plaisance.vercel.app, .onrender.com", AllowCredentials: true, MaxAge: 600},
			allowed: "https://preview.onrender.com",
		},
		{
			name:    "wildcard with credentials",
			cfg:     CorsConfig{AllowedOrigins: "*", AllowCredentials: true},
			wantErr: true,
		},
		{
			name:    "empty list",
			cfg:     CorsConfig{AllowedOrigins: " , "},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := tt.cfg.Policy()
			if tt.wantErr {
				var cfgErr *policy.ConfigurationError
				if !errors.As(err, &cfgErr) {
					t.Fatalf("Expected ConfigurationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !p.Allows(tt.allowed) {
				t.Errorf("Expected %q to be allowed", tt.allowed)
			}
			if p.MaxAge() != tt.cfg.MaxAge {
				t.Errorf("Expected max age %d, got %d", tt.cfg.MaxAge, p.MaxAge())
			}
		})
	}
}
