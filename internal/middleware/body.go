package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/benvon/port-plaisance/internal/metrics"
	"github.com/benvon/port-plaisance/internal/request"
	"go.uber.org/zap"
)

// DefaultMaxBodyBytes is used when the body limit is not positive (1MB).
const DefaultMaxBodyBytes int64 = 1 << 20

// BadRequestError is returned by ParseBody when the payload cannot be accepted.
type BadRequestError struct {
	Status int
	Reason string
	Err    error
}

func (e *BadRequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bad request (%d): %s: %v", e.Status, e.Reason, e.Err)
	}
	return fmt.Sprintf("bad request (%d): %s", e.Status, e.Reason)
}

func (e *BadRequestError) Unwrap() error { return e.Err }

func tooLarge(err error) *BadRequestError {
	return &BadRequestError{Status: http.StatusRequestEntityTooLarge, Reason: metrics.ReasonTooLarge, Err: err}
}

func malformed(reason string, err error) *BadRequestError {
	return &BadRequestError{Status: http.StatusBadRequest, Reason: reason, Err: err}
}

// ParseBody reads at most maxBytes of the request body and decodes JSON and
// URL-encoded payloads onto the returned request's context. Requests without
// a body, with an empty body or with another content type are returned
// unchanged apart from a rewound body.
func ParseBody(w http.ResponseWriter, r *http.Request, maxBytes int64) (*http.Request, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return r, nil
	}
	if r.ContentLength > maxBytes {
		return r, tooLarge(fmt.Errorf("content length %d exceeds %d", r.ContentLength, maxBytes))
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
	_ = r.Body.Close()
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return r, tooLarge(err)
		}
		return r, malformed(metrics.ReasonReadFailed, err)
	}
	r.Body = io.NopCloser(bytes.NewReader(data))
	if len(bytes.TrimSpace(data)) == 0 {
		return r, nil
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return r, nil
	}

	switch mediaType {
	case "application/json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return r, malformed(metrics.ReasonMalformedJSON, err)
		}
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			return r, malformed(metrics.ReasonMalformedJSON, errors.New("trailing data after JSON value"))
		}
		return r.WithContext(request.WithBody(r.Context(), v)), nil
	case "application/x-www-form-urlencoded":
		form, err := url.ParseQuery(string(data))
		if err != nil {
			return r, malformed(metrics.ReasonMalformedForm, err)
		}
		r = r.WithContext(request.WithForm(r.Context(), form))
		r.PostForm = form
		return r, nil
	default:
		return r, nil
	}
}

// BodyParser decodes request bodies and rejects malformed or oversized ones
// with a JSON 400 or 413.
func BodyParser(maxBytes int64, m *metrics.PipelineMetrics, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parsed, err := ParseBody(w, r, maxBytes)
			if err != nil {
				var bre *BadRequestError
				if !errors.As(err, &bre) {
					bre = malformed(metrics.ReasonReadFailed, err)
				}
				m.BodyParseFailure(bre.Reason)
				if bre.Status == http.StatusRequestEntityTooLarge {
					respondErrorJSON(w, r, bre.Status, "Payload Too Large", "Request body exceeds the allowed size", logger)
					return
				}
				respondErrorJSON(w, r, bre.Status, "Bad Request", "Request body could not be parsed", logger)
				return
			}
			next.ServeHTTP(w, parsed)
		})
	}
}
