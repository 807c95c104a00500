package database

import (
	"context"
	"database/sql"
	"fmt"

	"workforce-analyst/internal/common/config"

	_ "modernc.org/sqlite"
)

type SQLiteClient struct {
	DB *sql.DB
}

// NewSQLite opens the pure-Go sqlite driver. ":memory:" gives a private
// database per connection, so the pool is pinned to one connection.
func NewSQLite(cfg config.SQLiteConfig) (*SQLiteClient, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", cfg.Path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure sqlite: %w", err)
	}
	return &SQLiteClient{DB: db}, nil
}

func (c *SQLiteClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *SQLiteClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
