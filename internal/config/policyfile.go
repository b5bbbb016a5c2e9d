package config

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/benvon/port-plaisance/internal/policy"
	"gopkg.in/yaml.v3"
)

// LoadPolicyFile reads a YAML CORS policy:
//
//	allowed_origins:
//	  - https://port-plaisance.vercel.app
//	  - .onrender.com
//	allow_credentials: true
//	max_age: 86400
//
// Unknown keys are rejected so typos fail at startup instead of being ignored.
func LoadPolicyFile(path string) (policy.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return policy.Config{}, &policy.ConfigurationError{Field: "CORS_CONFIG_FILE", Reason: "cannot read " + path, Err: err}
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes a YAML CORS policy document.
func ParsePolicy(data []byte) (policy.Config, error) {
	var cfg policy.Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return policy.Config{}, &policy.ConfigurationError{Field: "CORS_CONFIG_FILE", Reason: "policy file is empty"}
		}
		return policy.Config{}, &policy.ConfigurationError{Field: "CORS_CONFIG_FILE", Reason: "invalid YAML", Err: err}
	}
	return cfg, nil
}
