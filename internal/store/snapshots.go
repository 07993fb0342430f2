package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tasteline/tasteline/internal/analytics"
)

// SnapshotRepository handles taste snapshot database operations. Profile
// data is stored as JSONB and is immutable once captured.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// InsertSnapshot persists a snapshot. It implements part of
// analytics.SnapshotStore.
func (r *SnapshotRepository) InsertSnapshot(ctx context.Context, snap *analytics.TasteSnapshot) error {
	profile, err := json.Marshal(snap.Profile)
	if err != nil {
		return fmt.Errorf("marshaling profile: %w", err)
	}
	formats, err := json.Marshal(exportFormatsOrEmpty(snap.ExportFormats))
	if err != nil {
		return fmt.Errorf("marshaling export records: %w", err)
	}

	query := `
		INSERT INTO taste_snapshots (id, user_id, name, captured_at, period_start, period_end, profile_data, export_formats, description, is_auto_generated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.pool.Exec(ctx, query,
		snap.ID,
		snap.UserID,
		snap.Name,
		snap.CapturedAt,
		snap.PeriodStart,
		snap.PeriodEnd,
		profile,
		formats,
		snap.Description,
		snap.IsAutoGenerated,
	)
	if err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}
	return nil
}

// GetSnapshot retrieves one snapshot by ID.
func (r *SnapshotRepository) GetSnapshot(ctx context.Context, id uuid.UUID) (*analytics.TasteSnapshot, error) {
	query := `
		SELECT id, user_id, name, captured_at, period_start, period_end, profile_data, export_formats, description, is_auto_generated
		FROM taste_snapshots
		WHERE id = $1
	`
	snap, err := scanSnapshot(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting snapshot: %w", err)
	}
	return snap, nil
}

// ListSnapshots returns a user's snapshots ordered by capture time
// descending.
func (r *SnapshotRepository) ListSnapshots(ctx context.Context, userID string) ([]analytics.TasteSnapshot, error) {
	query := `
		SELECT id, user_id, name, captured_at, period_start, period_end, profile_data, export_formats, description, is_auto_generated
		FROM taste_snapshots
		WHERE user_id = $1
		ORDER BY captured_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []analytics.TasteSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		snaps = append(snaps, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return snaps, nil
}

// RecordExport appends an export record to a snapshot's history.
func (r *SnapshotRepository) RecordExport(ctx context.Context, id uuid.UUID, record analytics.ExportRecord) error {
	entry, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling export record: %w", err)
	}

	query := `
		UPDATE taste_snapshots
		SET export_formats = export_formats || $2::jsonb
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, entry)
	if err != nil {
		return fmt.Errorf("recording export: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*analytics.TasteSnapshot, error) {
	var (
		snap        analytics.TasteSnapshot
		profileData []byte
		formatData  []byte
	)
	if err := row.Scan(
		&snap.ID, &snap.UserID, &snap.Name, &snap.CapturedAt,
		&snap.PeriodStart, &snap.PeriodEnd, &profileData, &formatData,
		&snap.Description, &snap.IsAutoGenerated,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(profileData, &snap.Profile); err != nil {
		return nil, fmt.Errorf("unmarshaling profile: %w", err)
	}
	if err := json.Unmarshal(formatData, &snap.ExportFormats); err != nil {
		return nil, fmt.Errorf("unmarshaling export records: %w", err)
	}
	return &snap, nil
}

func exportFormatsOrEmpty(records []analytics.ExportRecord) []analytics.ExportRecord {
	if records == nil {
		return []analytics.ExportRecord{}
	}
	return records
}

var _ analytics.SnapshotStore = (*SnapshotRepository)(nil)
