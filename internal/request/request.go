package request

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

type contextKey string

const (
	bodyContextKey      contextKey = "body"
	formContextKey      contextKey = "form"
	requestIDContextKey contextKey = "request_id"
)

// ClientIP extracts the client IP from the request, respecting X-Forwarded-For and X-Real-IP.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return r.RemoteAddr
}

// jsonBody boxes the payload so a JSON null is distinguishable from "no body".
type jsonBody struct{ value any }

// WithBody returns a context carrying a decoded JSON payload.
func WithBody(ctx context.Context, value any) context.Context {
	return context.WithValue(ctx, bodyContextKey, jsonBody{value: value})
}

// BodyFromContext returns the decoded JSON payload. ok is false when the
// request had no JSON body; a JSON null yields (nil, true).
func BodyFromContext(r *http.Request) (any, bool) {
	b, ok := r.Context().Value(bodyContextKey).(jsonBody)
	if !ok {
		return nil, false
	}
	return b.value, true
}

// WithForm returns a context carrying a parsed URL-encoded form.
func WithForm(ctx context.Context, form url.Values) context.Context {
	return context.WithValue(ctx, formContextKey, form)
}

// FormFromContext returns the parsed URL-encoded form, or nil.
func FormFromContext(r *http.Request) url.Values {
	form, _ := r.Context().Value(formContextKey).(url.Values)
	return form
}

// WithRequestID returns a context carrying the request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

// RequestIDFromContext returns the request ID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}
