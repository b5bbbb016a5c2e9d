package policy

import (
	"fmt"
	"net/url"
	"strings"
)

// PatternKind identifies how an OriginPattern matches request origins.
type PatternKind int

const (
	// KindExact matches one origin (scheme, host and optional port).
	KindExact PatternKind = iota
	// KindSuffixWildcard matches any proper subdomain of a host suffix.
	KindSuffixWildcard
	// KindAny matches every origin. Not allowed together with credentials.
	KindAny
)

func (k PatternKind) String() string {
	switch k {
	case KindExact:
		return "exact"
	case KindSuffixWildcard:
		return "suffix_wildcard"
	case KindAny:
		return "any"
	default:
		return "unknown"
	}
}

// OriginPattern is one entry of a CORS allow-list.
type OriginPattern struct {
	kind PatternKind
	// exact: normalized origin; suffix: host suffix with leading dot
	value string
	// suffix patterns may pin a scheme ("https://*.example.com")
	scheme string
}

// Exact returns a pattern matching exactly one origin.
func Exact(origin string) OriginPattern {
	return OriginPattern{kind: KindExact, value: strings.ToLower(strings.TrimSuffix(origin, "/"))}
}

// SuffixWildcard returns a pattern matching hosts ending in suffix.
// Both ".onrender.com" and "*.onrender.com" are accepted.
func SuffixWildcard(suffix string) OriginPattern {
	suffix = strings.TrimPrefix(strings.ToLower(suffix), "*")
	if !strings.HasPrefix(suffix, ".") {
		suffix = "." + suffix
	}
	return OriginPattern{kind: KindSuffixWildcard, value: suffix}
}

// Any returns the "*" pattern.
func Any() OriginPattern {
	return OriginPattern{kind: KindAny, value: "*"}
}

// Kind reports the pattern variant.
func (p OriginPattern) Kind() PatternKind { return p.kind }

// String renders the pattern in the form ParsePattern accepts.
func (p OriginPattern) String() string {
	switch p.kind {
	case KindSuffixWildcard:
		if p.scheme != "" {
			return p.scheme + "://*" + p.value
		}
		return p.value
	default:
		return p.value
	}
}

// Matches reports whether origin (an Origin header value) satisfies the pattern.
func (p OriginPattern) Matches(origin string) bool {
	o, ok := parseOrigin(origin)
	if !ok {
		return false
	}
	return p.matches(o)
}

func (p OriginPattern) matches(o requestOrigin) bool {
	switch p.kind {
	case KindAny:
		return true
	case KindExact:
		return o.raw == p.value
	case KindSuffixWildcard:
		if p.scheme != "" && o.scheme != p.scheme {
			return false
		}
		// proper subdomains only; the apex itself is not covered
		return len(o.host) > len(p.value) && strings.HasSuffix(o.host, p.value)
	default:
		return false
	}
}

// ParsePattern parses one allow-list entry.
//
//	*                       any origin
//	.onrender.com           any subdomain of onrender.com, any scheme
//	*.onrender.com          same as above
//	https://*.onrender.com  any subdomain, https only
//	https://app.example.com exactly that origin
func ParsePattern(raw string) (OriginPattern, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return OriginPattern{}, fmt.Errorf("empty origin pattern")
	}
	if strings.ContainsAny(s, " \t\r\n") {
		return OriginPattern{}, fmt.Errorf("origin pattern %q contains whitespace", raw)
	}
	if s == "*" {
		return Any(), nil
	}

	scheme, rest := "", s
	if i := strings.Index(s, "://"); i >= 0 {
		scheme, rest = strings.ToLower(s[:i]), s[i+3:]
		if scheme == "" {
			return OriginPattern{}, fmt.Errorf("origin pattern %q has an empty scheme", raw)
		}
	}
	rest = strings.TrimSuffix(rest, "/")
	if strings.ContainsAny(rest, "/?#") {
		return OriginPattern{}, fmt.Errorf("origin pattern %q must not contain a path, query or fragment", raw)
	}

	if strings.HasPrefix(rest, "*.") || strings.HasPrefix(rest, ".") {
		p := SuffixWildcard(rest)
		if len(p.value) < 2 || strings.ContainsAny(p.value[1:], "*:") || strings.HasSuffix(p.value, ".") {
			return OriginPattern{}, fmt.Errorf("origin pattern %q has an invalid host suffix", raw)
		}
		p.scheme = scheme
		return p, nil
	}

	if strings.Contains(rest, "*") {
		return OriginPattern{}, fmt.Errorf("origin pattern %q: wildcards are only supported as a leading label", raw)
	}
	if scheme == "" {
		return OriginPattern{}, fmt.Errorf("origin pattern %q must include a scheme", raw)
	}
	u, err := url.Parse(scheme + "://" + rest)
	if err != nil || u.Host == "" {
		return OriginPattern{}, fmt.Errorf("origin pattern %q is not a valid origin", raw)
	}
	return Exact(scheme + "://" + rest), nil
}

type requestOrigin struct {
	raw    string // lowercased origin
	scheme string
	host   string // without port
}

func parseOrigin(origin string) (requestOrigin, bool) {
	if origin == "" || origin == "null" {
		return requestOrigin{}, false
	}
	lower := strings.ToLower(origin)
	u, err := url.Parse(lower)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return requestOrigin{}, false
	}
	return requestOrigin{raw: lower, scheme: u.Scheme, host: u.Hostname()}, true
}
