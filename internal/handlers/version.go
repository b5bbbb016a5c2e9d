package handlers

import (
	"net/http"
	"time"
)

// Version is overridden at build time with -ldflags "-X ...handlers.Version=v1.2.3".
var Version = "dev"

// VersionInfo handles the /version endpoint
func VersionInfo(w http.ResponseWriter, r *http.Request) {
	// Only expose minimal version info
	writeJSON(w, http.StatusOK, map[string]string{
		"version":   Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
