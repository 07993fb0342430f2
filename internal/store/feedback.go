package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tasteline/tasteline/internal/analytics"
)

// FeedbackRepository handles feedback event database operations. Artist
// and title are stored as separate columns; composite "Artist - Title"
// strings are split at the ingestion boundary, never here.
type FeedbackRepository struct {
	pool *pgxpool.Pool
}

// Insert persists a feedback event. The event's temporal fields must
// already be derived; they are written once and never recomputed.
func (r *FeedbackRepository) Insert(ctx context.Context, ev *analytics.FeedbackEvent) error {
	if err := ensureUser(ctx, r.pool, ev.UserID); err != nil {
		return err
	}

	query := `
		INSERT INTO feedback_events (id, user_id, artist, title, feedback_type, ts, month, season, day_of_week, hour_of_day)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		ev.ID,
		ev.UserID,
		ev.Artist,
		ev.Title,
		string(ev.Type),
		ev.Timestamp,
		ev.Month,
		string(ev.Season),
		ev.DayOfWeek,
		ev.HourOfDay,
	)
	if err != nil {
		return fmt.Errorf("inserting feedback event: %w", err)
	}
	return nil
}

// ListFeedback returns the user's feedback events matching the filter,
// ordered by timestamp ascending. It implements analytics.FeedbackReader.
func (r *FeedbackRepository) ListFeedback(ctx context.Context, userID string, filter analytics.FeedbackFilter) ([]analytics.FeedbackEvent, error) {
	var (
		conditions = []string{"user_id = $1"}
		args       = []any{userID}
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !filter.Start.IsZero() {
		conditions = append(conditions, "ts >= "+arg(filter.Start))
	}
	if !filter.End.IsZero() {
		conditions = append(conditions, "ts < "+arg(filter.End))
	}
	if filter.Season != "" {
		conditions = append(conditions, "season = "+arg(string(filter.Season)))
	}
	if filter.Month != 0 {
		conditions = append(conditions, "month = "+arg(filter.Month))
	}
	if filter.Type != "" {
		conditions = append(conditions, "feedback_type = "+arg(string(filter.Type)))
	}

	query := `
		SELECT id, user_id, artist, title, feedback_type, ts, month, season, day_of_week, hour_of_day
		FROM feedback_events
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY ts ASC
	`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying feedback events: %w", err)
	}
	defer rows.Close()

	var events []analytics.FeedbackEvent
	for rows.Next() {
		var ev analytics.FeedbackEvent
		if err := rows.Scan(
			&ev.ID, &ev.UserID, &ev.Artist, &ev.Title, &ev.Type,
			&ev.Timestamp, &ev.Month, &ev.Season, &ev.DayOfWeek, &ev.HourOfDay,
		); err != nil {
			return nil, fmt.Errorf("scanning feedback event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feedback events: %w", err)
	}
	return events, nil
}

var _ analytics.FeedbackReader = (*FeedbackRepository)(nil)
