package handlers

import (
	"net/http"

	"github.com/benvon/port-plaisance/internal/request"
	"github.com/gorilla/mux"
)

// EchoResponse reports what the pipeline attached to the request.
type EchoResponse struct {
	Method      string              `json:"method"`
	ContentType string              `json:"content_type,omitempty"`
	RequestID   string              `json:"request_id,omitempty"`
	HasBody     bool                `json:"has_body"`
	Body        any                 `json:"body,omitempty"`
	Form        map[string][]string `json:"form,omitempty"`
}

// EchoHandler returns the parsed request payload back to the caller.
type EchoHandler struct{}

// NewEchoHandler creates a new echo handler
func NewEchoHandler() *EchoHandler {
	return &EchoHandler{}
}

// RegisterRoutes registers the echo routes on r.
func (h *EchoHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/echo", h.Echo).Methods(http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete)
}

// Echo handles /api/v1/echo
func (h *EchoHandler) Echo(w http.ResponseWriter, r *http.Request) {
	body, hasBody := request.BodyFromContext(r)
	resp := EchoResponse{
		Method:      r.Method,
		ContentType: r.Header.Get("Content-Type"),
		RequestID:   request.RequestIDFromContext(r.Context()),
		HasBody:     hasBody,
		Body:        body,
	}
	if form := request.FormFromContext(r); form != nil {
		resp.Form = form
		resp.HasBody = true
	}
	respondJSON(w, http.StatusOK, resp)
}
