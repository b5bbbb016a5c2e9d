package validation

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("http_method", validateHTTPMethod); err != nil {
		panic(fmt.Sprintf("failed to register http_method validator: %v", err))
	}
	if err := Validate.RegisterValidation("header_name", validateHeaderName); err != nil {
		panic(fmt.Sprintf("failed to register header_name validator: %v", err))
	}
}

// validateHTTPMethod validates that a string is one of the methods a CORS policy may advertise
func validateHTTPMethod(fl validator.FieldLevel) bool {
	return IsHTTPMethod(fl.Field().String())
}

// validateHeaderName validates that a string is a valid HTTP header field name (RFC 9110 token)
func validateHeaderName(fl validator.FieldLevel) bool {
	return IsHeaderName(fl.Field().String())
}

// IsHTTPMethod reports whether value is a standard request method (case-insensitive).
func IsHTTPMethod(value string) bool {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions:
		return true
	default:
		return false
	}
}

// IsHeaderName reports whether value is a non-empty token.
func IsHeaderName(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if !isTokenChar(r) {
			return false
		}
	}
	return true
}

func isTokenChar(r rune) bool {
	if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
		return true
	}
	return strings.ContainsRune("!#$%&'*+-.^_`|~", r)
}

// FirstError returns the namespace and tag of the first validation failure in err.
// ok is false when err is not a validator.ValidationErrors.
func FirstError(err error) (field, tag string, ok bool) {
	validationErrors, isValidation := err.(validator.ValidationErrors)
	if !isValidation || len(validationErrors) == 0 {
		return "", "", false
	}
	fe := validationErrors[0]
	return fe.Namespace(), fe.Tag(), true
}
