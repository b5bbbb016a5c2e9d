package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/benvon/port-plaisance/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	doc := []byte(`
allowed_origins:
  - http://localhost:5173
  - https://port-plaisance.vercel.app
  - .onrender.com
allow_credentials: true
allowed_methods: [GET, POST, PUT, DELETE, OPTIONS]
allowed_headers: [Content-Type, Authorization, Accept]
max_age: 3600
`)

	cfg, err := ParsePolicy(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:5173", "https://port-plaisance.vercel.app", ".onrender.com"}, cfg.AllowedOrigins)
	assert.True(t, cfg.AllowCredentials)
	assert.Equal(t, 3600, cfg.MaxAge)
	assert.Len(t, cfg.AllowedMethods, 5)
	assert.Len(t, cfg.AllowedHeaders, 3)
}

func TestParsePolicy_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty document", doc: ""},
		{name: "unknown key", doc: "allowed_origin: [https://a.com]\n"},
		{name: "wrong type", doc: "allowed_origins: yes-please\nmax_age: forever\n"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParsePolicy([]byte(tt.doc))
			var cfgErr *policy.ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "expected *policy.ConfigurationError, got %v", err)
			assert.Equal(t, "CORS_CONFIG_FILE", cfgErr.Field)
		})
	}
}

func TestLoadPolicyFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := LoadPolicyFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
