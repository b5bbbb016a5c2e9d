// Package policy holds the CORS allow-list the request pipeline enforces.
//
// A CorsPolicy is built once at startup from static configuration and is
// read-only afterwards, so it can be shared by any number of concurrent
// requests without locking.
package policy

import (
	"net/http"
	"strings"

	"github.com/benvon/port-plaisance/internal/validation"
)

var (
	// DefaultMethods are advertised when Config.AllowedMethods is empty.
	DefaultMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	// DefaultHeaders are advertised when Config.AllowedHeaders is empty.
	DefaultHeaders = []string{"Content-Type", "Authorization", "Accept"}
)

// DefaultMaxAge caches preflight responses for 24 hours.
const DefaultMaxAge = 86400

// Config is the raw, unvalidated form of a CorsPolicy. It is what the
// environment, the YAML policy file and the database row decode into.
type Config struct {
	AllowedOrigins   []string `yaml:"allowed_origins" validate:"required,min=1,dive,required"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	AllowedMethods   []string `yaml:"allowed_methods" validate:"omitempty,dive,http_method"`
	AllowedHeaders   []string `yaml:"allowed_headers" validate:"omitempty,dive,header_name"`
	MaxAge           int      `yaml:"max_age" validate:"gte=0"`
}

// CorsPolicy is an immutable, validated CORS allow-list.
type CorsPolicy struct {
	origins          []OriginPattern
	allowCredentials bool
	methods          []string
	headers          []string
	maxAge           int

	allowMethods string
	allowHeaders string
}

// New validates cfg and builds a policy. Every failure is a *ConfigurationError.
func New(cfg Config) (*CorsPolicy, error) {
	if err := validation.Validate.Struct(cfg); err != nil {
		if field, tag, ok := validation.FirstError(err); ok {
			return nil, &ConfigurationError{Field: field, Reason: "failed '" + tag + "' validation", Err: err}
		}
		return nil, &ConfigurationError{Field: "cors", Reason: "validation failed", Err: err}
	}

	p := &CorsPolicy{
		allowCredentials: cfg.AllowCredentials,
		maxAge:           cfg.MaxAge,
	}

	seen := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, raw := range cfg.AllowedOrigins {
		pattern, err := ParsePattern(raw)
		if err != nil {
			return nil, &ConfigurationError{Field: "allowed_origins", Reason: "invalid pattern", Err: err}
		}
		if pattern.Kind() == KindAny && cfg.AllowCredentials {
			return nil, configErr("allowed_origins", "wildcard origin '*' cannot be combined with allow_credentials")
		}
		key := pattern.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		p.origins = append(p.origins, pattern)
	}

	p.methods = normalizeList(cfg.AllowedMethods, DefaultMethods, strings.ToUpper)
	p.headers = normalizeList(cfg.AllowedHeaders, DefaultHeaders, http.CanonicalHeaderKey)
	p.allowMethods = strings.Join(p.methods, ",")
	p.allowHeaders = strings.Join(p.headers, ",")

	return p, nil
}

// MustNew is New for static policies known to be valid, such as test fixtures.
func MustNew(cfg Config) *CorsPolicy {
	p, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return p
}

// Match returns the first pattern that allows origin.
func (p *CorsPolicy) Match(origin string) (OriginPattern, bool) {
	o, ok := parseOrigin(origin)
	if !ok {
		return OriginPattern{}, false
	}
	for _, pattern := range p.origins {
		if pattern.matches(o) {
			return pattern, true
		}
	}
	return OriginPattern{}, false
}

// Allows reports whether origin is on the allow-list.
func (p *CorsPolicy) Allows(origin string) bool {
	_, ok := p.Match(origin)
	return ok
}

// Origins returns a copy of the allow-list in configured order.
func (p *CorsPolicy) Origins() []OriginPattern {
	out := make([]OriginPattern, len(p.origins))
	copy(out, p.origins)
	return out
}

// AllowCredentials reports whether credentialed requests are allowed.
func (p *CorsPolicy) AllowCredentials() bool { return p.allowCredentials }

// Methods returns a copy of the advertised methods.
func (p *CorsPolicy) Methods() []string { return append([]string(nil), p.methods...) }

// Headers returns a copy of the advertised request headers.
func (p *CorsPolicy) Headers() []string { return append([]string(nil), p.headers...) }

// MaxAge is the preflight cache lifetime in seconds; 0 means unset.
func (p *CorsPolicy) MaxAge() int { return p.maxAge }

// AllowMethodsValue is the Access-Control-Allow-Methods header value.
func (p *CorsPolicy) AllowMethodsValue() string { return p.allowMethods }

// AllowHeadersValue is the Access-Control-Allow-Headers header value.
func (p *CorsPolicy) AllowHeadersValue() string { return p.allowHeaders }

func normalizeList(in, defaults []string, canon func(string) string) []string {
	if len(in) == 0 {
		return append([]string(nil), defaults...)
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		v = canon(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// SplitList splits a comma-separated list, trimming blanks and duplicates.
func SplitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	var out []string
	seen := make(map[string]bool)
	for _, part := range parts {
		s := strings.TrimSpace(part)
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
