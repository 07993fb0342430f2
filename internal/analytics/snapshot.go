package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tasteline/tasteline/internal/temporal"
)

// Caps on the consolidated profile's top lists. These are wider than the
// per-period caps because a snapshot summarizes many periods at once.
const (
	profileTopArtists = 10
	profileTopGenres  = 10
	profileTopTracks  = 20
)

// CreateSnapshotRequest parameterizes a snapshot capture.
type CreateSnapshotRequest struct {
	Name          string    `json:"name"`
	PeriodStart   time.Time `json:"periodStart"`
	PeriodEnd     time.Time `json:"periodEnd"`
	Description   string    `json:"description,omitempty"`
	AutoGenerated bool      `json:"isAutoGenerated,omitempty"`
}

// CreateSnapshot aggregates the period at month granularity, consolidates
// the result into an immutable profile and persists it. A period with no
// activity fails with ErrEmptyPeriod before anything is stored.
func (e *Engine) CreateSnapshot(ctx context.Context, userID string, req CreateSnapshotRequest) (*TasteSnapshot, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: snapshot name is required", ErrInvalidRange)
	}
	if err := validateRange(req.PeriodStart, req.PeriodEnd); err != nil {
		return nil, err
	}

	points, err := e.aggregatePoints(ctx, userID, req.PeriodStart, req.PeriodEnd, temporal.Month)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: %s to %s", ErrEmptyPeriod,
			req.PeriodStart.Format("2006-01-02"), req.PeriodEnd.Format("2006-01-02"))
	}

	snap := &TasteSnapshot{
		ID:              uuid.New(),
		UserID:          userID,
		Name:            req.Name,
		CapturedAt:      e.now(),
		PeriodStart:     req.PeriodStart,
		PeriodEnd:       req.PeriodEnd,
		Profile:         consolidateProfile(points, req.PeriodStart, req.PeriodEnd),
		Description:     req.Description,
		IsAutoGenerated: req.AutoGenerated,
	}

	if err := e.snapshots.InsertSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("persisting snapshot %q (%s to %s): %w",
			req.Name, req.PeriodStart.Format("2006-01-02"), req.PeriodEnd.Format("2006-01-02"), err)
	}

	e.log.Info().
		Str("user", userID).
		Str("snapshot", snap.ID.String()).
		Int("periods", len(points)).
		Msg("snapshot captured")
	return snap, nil
}

// GetSnapshot fetches one stored snapshot.
func (e *Engine) GetSnapshot(ctx context.Context, id uuid.UUID) (*TasteSnapshot, error) {
	return e.snapshots.GetSnapshot(ctx, id)
}

// ListSnapshots returns the user's snapshots newest-first.
func (e *Engine) ListSnapshots(ctx context.Context, userID string) ([]TasteSnapshot, error) {
	return e.snapshots.ListSnapshots(ctx, userID)
}

// consolidateProfile merges a period's timeline points into one profile:
// top-item counts are summed and re-ranked, mood distributions are summed
// and renormalized, and diversity is recomputed over the merged artist
// counts.
func consolidateProfile(points []TimelineDataPoint, start, end time.Time) TasteProfileExport {
	artistCounts := make(map[string]int)
	genreCounts := make(map[string]int)
	trackCounts := make(map[string]int)
	moods := NewMoodDistribution()
	var totalListens, totalFeedback int
	var acceptanceWeighted float64

	for _, p := range points {
		for _, item := range p.TopArtists {
			artistCounts[item.Name] += item.Count
		}
		for _, item := range p.TopGenres {
			genreCounts[item.Name] += item.Count
		}
		for _, item := range p.TopTracks {
			trackCounts[item.Name] += item.Count
		}
		for _, m := range Moods {
			moods[m] += p.Moods[m]
		}
		totalListens += p.TotalListens
		totalFeedback += p.TotalFeedback
		acceptanceWeighted += p.AcceptanceRate * float64(p.TotalFeedback)
	}
	moods.Normalize()

	var acceptance float64
	if totalFeedback > 0 {
		acceptance = acceptanceWeighted / float64(totalFeedback)
	}

	return TasteProfileExport{
		PeriodStart:    start,
		PeriodEnd:      end,
		Periods:        len(points),
		TotalListens:   totalListens,
		TotalFeedback:  totalFeedback,
		AcceptanceRate: acceptance,
		DiversityScore: DiversityScore(artistCounts),
		Moods:          moods,
		TopArtists:     topN(artistCounts, profileTopArtists),
		TopGenres:      topN(genreCounts, profileTopGenres),
		TopTracks:      topN(trackCounts, profileTopTracks),
	}
}
