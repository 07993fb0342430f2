package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tasteline/tasteline/internal/analytics"
)

// ListeningRepository handles listening event database operations.
type ListeningRepository struct {
	pool *pgxpool.Pool
}

// InsertBatch persists listening events, silently skipping exact
// duplicates. Duplicates appear when an ingest window overlaps a previous
// run.
func (r *ListeningRepository) InsertBatch(ctx context.Context, events []analytics.ListeningEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	seen := make(map[string]bool, 1)
	for _, ev := range events {
		if !seen[ev.UserID] {
			seen[ev.UserID] = true
			if err := ensureUser(ctx, r.pool, ev.UserID); err != nil {
				return 0, err
			}
		}
	}

	query := `
		INSERT INTO listening_events (user_id, artist, title, genre, played_at)
		SELECT * FROM unnest($1::text[], $2::text[], $3::text[], $4::text[], $5::timestamptz[])
		ON CONFLICT (user_id, artist, title, played_at) DO NOTHING
	`

	userIDs := make([]string, len(events))
	artists := make([]string, len(events))
	titles := make([]string, len(events))
	genres := make([]string, len(events))
	playedAts := make([]time.Time, len(events))
	for i, ev := range events {
		userIDs[i] = ev.UserID
		artists[i] = ev.Artist
		titles[i] = ev.Title
		genres[i] = ev.Genre
		playedAts[i] = ev.PlayedAt
	}

	tag, err := r.pool.Exec(ctx, query, userIDs, artists, titles, genres, playedAts)
	if err != nil {
		return 0, fmt.Errorf("inserting listening events: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ListListening returns the user's listening events matching the filter,
// ordered by play time ascending. It implements analytics.ListeningReader.
func (r *ListeningRepository) ListListening(ctx context.Context, userID string, filter analytics.ListeningFilter) ([]analytics.ListeningEvent, error) {
	var (
		conditions = []string{"user_id = $1"}
		args       = []any{userID}
	)

	if !filter.Start.IsZero() {
		args = append(args, filter.Start)
		conditions = append(conditions, fmt.Sprintf("played_at >= $%d", len(args)))
	}
	if !filter.End.IsZero() {
		args = append(args, filter.End)
		conditions = append(conditions, fmt.Sprintf("played_at < $%d", len(args)))
	}

	query := `
		SELECT user_id, artist, title, genre, played_at
		FROM listening_events
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY played_at ASC
	`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying listening events: %w", err)
	}
	defer rows.Close()

	var events []analytics.ListeningEvent
	for rows.Next() {
		var ev analytics.ListeningEvent
		if err := rows.Scan(&ev.UserID, &ev.Artist, &ev.Title, &ev.Genre, &ev.PlayedAt); err != nil {
			return nil, fmt.Errorf("scanning listening event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating listening events: %w", err)
	}
	return events, nil
}

var _ analytics.ListeningReader = (*ListeningRepository)(nil)
