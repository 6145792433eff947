package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool builds the connection pool used by every repository. It is
// constructed once at startup and injected; nothing else in the codebase
// opens connections.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	cfg.MaxConns = 25
	cfg.MinConns = 5
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		avatar_url TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS movies (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		year INT NOT NULL,
		description TEXT,
		poster_url TEXT,
		watched_year INT NOT NULL,
		added_by TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_movies_title_year ON movies (LOWER(title), year)`,
	`CREATE INDEX IF NOT EXISTS idx_movies_watched_year ON movies (watched_year)`,
	`CREATE TABLE IF NOT EXISTS rankings (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		movie_id TEXT NOT NULL REFERENCES movies(id),
		rating INT NOT NULL CHECK (rating BETWEEN 1 AND 10),
		ranking_year INT NOT NULL,
		description TEXT,
		ranked_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT uniq_user_movie_year UNIQUE (user_id, movie_id, ranking_year)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rankings_user ON rankings (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_rankings_movie ON rankings (movie_id)`,
	`CREATE INDEX IF NOT EXISTS idx_rankings_year ON rankings (ranking_year)`,
}

// Migrate bootstraps the schema. Statements are idempotent, so running at
// every startup is safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
