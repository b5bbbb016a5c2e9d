// Package testharness owns the external handles used by integration tests
// and closes them in one teardown call.
package testharness

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alicebob/miniredis/v2"
	"github.com/benvon/port-plaisance/internal/database"
	"github.com/redis/go-redis/v9"
)

// Harness holds optional database and Redis handles.
type Harness struct {
	mu        sync.Mutex
	db        *database.DB
	redis     *redis.Client
	miniredis *miniredis.Miniredis
}

// New returns an empty harness.
func New() *Harness {
	return &Harness{}
}

// StartRedis starts an in-memory Redis server and a client connected to it.
func (h *Harness) StartRedis(ctx context.Context) (*redis.Client, error) {
	mr, err := miniredis.Run()
	if err != nil {
		return nil, fmt.Errorf("start miniredis: %w", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		mr.Close()
		return nil, fmt.Errorf("ping miniredis: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.redis = client
	h.miniredis = mr
	return client, nil
}

// StartDatabase connects to databaseURL and ensures the schema exists.
func (h *Harness) StartDatabase(ctx context.Context, databaseURL string) (*database.DB, error) {
	db, err := database.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.db = db
	return db, nil
}

// Attach adopts handles opened elsewhere. Nil values are ignored.
func (h *Harness) Attach(db *database.DB, client *redis.Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if db != nil {
		h.db = db
	}
	if client != nil {
		h.redis = client
	}
}

// Active reports whether any handle is still open.
func (h *Harness) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.db != nil || h.redis != nil || h.miniredis != nil
}

// Teardown closes the database connection, the Redis client and the
// in-memory Redis server. With no active handles it returns nil. Calling it
// again is a no-op. Handles are closed even if ctx is already done.
func (h *Harness) Teardown(_ context.Context) error {
	h.mu.Lock()
	db, client, mr := h.db, h.redis, h.miniredis
	h.db, h.redis, h.miniredis = nil, nil, nil
	h.mu.Unlock()

	var errs []error
	if db != nil {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if client != nil {
		if err := client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if mr != nil {
		mr.Close()
	}
	return errors.Join(errs...)
}
