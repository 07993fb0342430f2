package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// User is a Tasteline account. The engine trusts the ID as pre-validated
// identity; this table only tracks ingest bookkeeping.
type User struct {
	ID           string
	DisplayName  string
	CreatedAt    time.Time
	LastIngestAt *time.Time // nullable
}

// UserRepository handles user database operations.
type UserRepository struct {
	pool *pgxpool.Pool
}

// Ensure creates the user row if it does not exist yet. Existing rows
// are left untouched.
func (r *UserRepository) Ensure(ctx context.Context, id string) error {
	return ensureUser(ctx, r.pool, id)
}

// Upsert creates a user or updates their display name.
func (r *UserRepository) Upsert(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, display_name, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name
		RETURNING created_at
	`
	if err := r.pool.QueryRow(ctx, query, user.ID, user.DisplayName).Scan(&user.CreatedAt); err != nil {
		return fmt.Errorf("upserting user: %w", err)
	}
	return nil
}

// Get retrieves a user by ID.
func (r *UserRepository) Get(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, display_name, created_at, last_ingest_at
		FROM users
		WHERE id = $1
	`
	var user User
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.DisplayName, &user.CreatedAt, &user.LastIngestAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &user, nil
}

// SetLastIngest records when the user's listening history was last synced.
func (r *UserRepository) SetLastIngest(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE users SET last_ingest_at = $2 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("updating last ingest time: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user; feedback, listening history and snapshots
// cascade with it.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
