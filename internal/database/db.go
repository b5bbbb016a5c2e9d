// Package database stores the CORS configuration row in Postgres.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// DB wraps a Postgres connection pool.
type DB struct {
	*sql.DB
}

// New opens a connection pool for databaseURL and verifies it with a ping.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{DB: sqlDB}, nil
}

const corsConfigSchema = `
CREATE TABLE IF NOT EXISTS cors_config (
	config_key        TEXT PRIMARY KEY,
	allowed_origins   TEXT NOT NULL,
	allow_credentials BOOLEAN NOT NULL DEFAULT TRUE,
	max_age           INTEGER NOT NULL DEFAULT 86400,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// EnsureSchema creates the cors_config table if it does not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, corsConfigSchema); err != nil {
		return fmt.Errorf("ensure cors_config schema: %w", err)
	}
	return nil
}
