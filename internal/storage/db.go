package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"vision_gateway/internal/config"
)

// DB wraps the database connection and provides health checks.
type DB struct {
	conn *sqlx.DB
}

// NewDB creates a new database connection pool.
func NewDB(cfg config.DatabaseConfig) (*DB, error) {
	conn, err := sqlx.Connect("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	conn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks if the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// EnsureSchema creates the ledger tables if they do not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS transactions (
			id          UUID PRIMARY KEY,
			tier        TEXT NOT NULL,
			cost        DOUBLE PRECISION NOT NULL,
			charged     BOOLEAN NOT NULL,
			quality     DOUBLE PRECISION NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_transactions_created_at
			ON transactions (created_at DESC);

		CREATE TABLE IF NOT EXISTS daily_stats (
			date             TEXT PRIMARY KEY,
			total_spent      DOUBLE PRECISION NOT NULL DEFAULT 0,
			requests_today   INTEGER NOT NULL DEFAULT 0,
			charged_requests INTEGER NOT NULL DEFAULT 0,
			free_requests    INTEGER NOT NULL DEFAULT 0
		);
	`

	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
