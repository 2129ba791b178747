// Package postgres opens the database connections and applies schema migrations.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"passport-status/internal/platform/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Connection holds a pgx pool for the record store and a database/sql handle
// for migrations and the event log.
type Connection struct {
	Pool *pgxpool.Pool
	DB   *sql.DB
}

// Open connects both handles, verifies them and runs pending migrations.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Connection, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := Migrate(db); err != nil {
		pool.Close()
		_ = db.Close()
		return nil, err
	}
	return &Connection{Pool: pool, DB: db}, nil
}

// Migrate applies the embedded migrations.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Health pings the pool.
func (c *Connection) Health(ctx context.Context) error {
	return c.Pool.Ping(ctx)
}

func (c *Connection) Close() error {
	c.Pool.Close()
	return c.DB.Close()
}
