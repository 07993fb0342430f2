// Package store provides PostgreSQL persistence for Tasteline: feedback
// events, listening history, users and taste snapshots. It satisfies the
// analytics engine's reader and snapshot-store interfaces.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Common errors.
var (
	ErrNotFound = errors.New("not found")
)

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// New creates a new database connection pool and verifies connectivity.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// EnsureSchema creates the Tasteline tables and indexes when absent.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}

// ensureUser creates a bare user row so event writes never trip the
// foreign key for a first-seen identity.
func ensureUser(ctx context.Context, pool *pgxpool.Pool, id string) error {
	_, err := pool.Exec(ctx, `INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, id)
	if err != nil {
		return fmt.Errorf("ensuring user: %w", err)
	}
	return nil
}

// Users returns a UserRepository.
func (db *DB) Users() *UserRepository {
	return &UserRepository{pool: db.pool}
}

// Feedback returns a FeedbackRepository.
func (db *DB) Feedback() *FeedbackRepository {
	return &FeedbackRepository{pool: db.pool}
}

// Listening returns a ListeningRepository.
func (db *DB) Listening() *ListeningRepository {
	return &ListeningRepository{pool: db.pool}
}

// Snapshots returns a SnapshotRepository.
func (db *DB) Snapshots() *SnapshotRepository {
	return &SnapshotRepository{pool: db.pool}
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	display_name TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_ingest_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS feedback_events (
	id UUID PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	artist TEXT NOT NULL,
	title TEXT NOT NULL,
	feedback_type TEXT NOT NULL CHECK (feedback_type IN ('up', 'down')),
	ts TIMESTAMPTZ NOT NULL,
	month INT NOT NULL,
	season TEXT NOT NULL,
	day_of_week INT NOT NULL,
	hour_of_day INT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_feedback_user_ts ON feedback_events (user_id, ts);
CREATE INDEX IF NOT EXISTS idx_feedback_user_season ON feedback_events (user_id, season);
CREATE INDEX IF NOT EXISTS idx_feedback_user_month ON feedback_events (user_id, month);

CREATE TABLE IF NOT EXISTS listening_events (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	artist TEXT NOT NULL,
	title TEXT NOT NULL,
	genre TEXT NOT NULL DEFAULT '',
	played_at TIMESTAMPTZ NOT NULL,
	UNIQUE (user_id, artist, title, played_at)
);

CREATE INDEX IF NOT EXISTS idx_listening_user_played ON listening_events (user_id, played_at);

CREATE TABLE IF NOT EXISTS taste_snapshots (
	id UUID PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	captured_at TIMESTAMPTZ NOT NULL,
	period_start TIMESTAMPTZ NOT NULL,
	period_end TIMESTAMPTZ NOT NULL,
	profile_data JSONB NOT NULL,
	export_formats JSONB NOT NULL DEFAULT '[]',
	description TEXT NOT NULL DEFAULT '',
	is_auto_generated BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_snapshots_user_captured ON taste_snapshots (user_id, captured_at DESC);
`
