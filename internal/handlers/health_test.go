package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestHealthChecker(t *testing.T) {
	t.Parallel()

	healthy := PingFunc(func(ctx context.Context) error { return nil })
	failing := PingFunc(func(ctx context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name         string
		mode         string
		checks       map[string]Pinger
		wantStatus   int
		wantHealth   string
		wantChecks   map[string]string
		expectChecks bool
	}{
		{
			name:       "basic mode ignores dependencies",
			checks:     map[string]Pinger{"database": failing},
			wantStatus: http.StatusOK,
			wantHealth: "healthy",
		},
		{
			name:         "extended mode all healthy",
			mode:         "extended",
			checks:       map[string]Pinger{"database": healthy, "redis": healthy},
			wantStatus:   http.StatusOK,
			wantHealth:   "healthy",
			wantChecks:   map[string]string{"database": "healthy", "redis": "healthy"},
			expectChecks: true,
		},
		{
			name:         "extended mode one failing",
			mode:         "extended",
			checks:       map[string]Pinger{"database": failing, "redis": healthy},
			wantStatus:   http.StatusServiceUnavailable,
			wantHealth:   "unhealthy",
			wantChecks:   map[string]string{"database": "unhealthy: connection refused", "redis": "healthy"},
			expectChecks: true,
		},
		{
			name:       "extended mode nil dependency skipped",
			mode:       "extended",
			checks:     map[string]Pinger{"database": nil},
			wantStatus: http.StatusOK,
			wantHealth: "healthy",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := "/healthz"
			if tt.mode != "" {
				path += "?mode=" + tt.mode
			}
			w := httptest.NewRecorder()
			NewHealthChecker(tt.checks).HealthCheck(w, httptest.NewRequest(http.MethodGet, path, nil))

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Status != tt.wantHealth {
				t.Errorf("Expected status %q, got %q", tt.wantHealth, resp.Status)
			}
			if resp.Timestamp == "" {
				t.Error("Expected timestamp to be set")
			}
			if !tt.expectChecks && len(resp.Checks) > 0 {
				t.Errorf("Expected no checks, got %v", resp.Checks)
			}
			for name, want := range tt.wantChecks {
				if resp.Checks[name] != want {
					t.Errorf("Expected check[%s] = %q, got %q", name, want, resp.Checks[name])
				}
			}
		})
	}
}

func TestHealthChecker_Redis(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	checker := NewHealthChecker(map[string]Pinger{
		"redis": PingFunc(func(ctx context.Context) error { return client.Ping(ctx).Err() }),
	})

	w := httptest.NewRecorder()
	checker.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/healthz?mode=extended", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	mr.Close()
	w = httptest.NewRecorder()
	checker.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/healthz?mode=extended", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503 after Redis stopped, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"redis":"unhealthy`) {
		t.Errorf("Expected redis to be reported unhealthy, got %s", w.Body.String())
	}
}

func TestVersionInfo(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	VersionInfo(w, httptest.NewRequest(http.MethodGet, "/version", nil))

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["version"] != Version {
		t.Errorf("Expected version %q, got %q", Version, body["version"])
	}
	if body["timestamp"] == "" {
		t.Error("Expected timestamp to be set")
	}
}
