// Package analytics implements the temporal preference analytics engine:
// it buckets feedback and listening history into calendar periods, infers
// mood and diversity per period, detects milestones and seasonal patterns,
// compares arbitrary periods and captures durable taste snapshots.
package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tasteline/tasteline/internal/temporal"
)

// Mood is one of the eight fixed mood categories. The set is closed: no
// dynamic categories are ever added at runtime.
type Mood string

// Mood categories, in classification priority order.
const (
	MoodChill       Mood = "chill"
	MoodEnergetic   Mood = "energetic"
	MoodMelancholic Mood = "melancholic"
	MoodHappy       Mood = "happy"
	MoodFocused     Mood = "focused"
	MoodRomantic    Mood = "romantic"
	MoodAggressive  Mood = "aggressive"
	MoodNeutral     Mood = "neutral"
)

// Moods lists every mood category in a fixed order. Iteration over mood
// distributions always follows this order to keep output deterministic.
var Moods = []Mood{
	MoodChill,
	MoodEnergetic,
	MoodMelancholic,
	MoodHappy,
	MoodFocused,
	MoodRomantic,
	MoodAggressive,
	MoodNeutral,
}

// MoodDistribution maps every mood category to a non-negative share.
// A normalized distribution sums to 1.0; a period with no classifiable
// listening data keeps all values at zero.
type MoodDistribution map[Mood]float64

// NewMoodDistribution returns a distribution with every category at zero.
func NewMoodDistribution() MoodDistribution {
	d := make(MoodDistribution, len(Moods))
	for _, m := range Moods {
		d[m] = 0
	}
	return d
}

// Total returns the sum of all shares.
func (d MoodDistribution) Total() float64 {
	var sum float64
	for _, m := range Moods {
		sum += d[m]
	}
	return sum
}

// Normalize scales the distribution to sum to 1.0 in place. An all-zero
// distribution is left untouched.
func (d MoodDistribution) Normalize() {
	total := d.Total()
	if total == 0 {
		return
	}
	for _, m := range Moods {
		d[m] /= total
	}
}

// Dominant returns the mood with the highest share, breaking ties by
// classification priority order. An all-zero distribution is neutral.
func (d MoodDistribution) Dominant() Mood {
	if d.Total() == 0 {
		return MoodNeutral
	}
	best := Moods[0]
	for _, m := range Moods[1:] {
		if d[m] > d[best] {
			best = m
		}
	}
	return best
}

// Clone returns an independent copy of the distribution.
func (d MoodDistribution) Clone() MoodDistribution {
	out := make(MoodDistribution, len(Moods))
	for _, m := range Moods {
		out[m] = d[m]
	}
	return out
}

// FeedbackType is the polarity of a feedback event.
type FeedbackType string

// Feedback polarities.
const (
	ThumbsUp   FeedbackType = "up"
	ThumbsDown FeedbackType = "down"
)

// FeedbackEvent is a single thumbs-up or thumbs-down a user gave a track.
// The calendar fields are derived once at write time and never recomputed,
// so historical aggregates stay stable even if classification rules change.
type FeedbackEvent struct {
	ID        uuid.UUID       `json:"id"`
	UserID    string          `json:"userId"`
	Artist    string          `json:"artist"`
	Title     string          `json:"title"`
	Type      FeedbackType    `json:"feedbackType"`
	Timestamp time.Time       `json:"timestamp"`
	Month     int             `json:"month"`
	Season    temporal.Season `json:"season"`
	DayOfWeek int             `json:"dayOfWeek"`
	HourOfDay int             `json:"hourOfDay"`
}

// ListeningEvent is one playback of a track.
type ListeningEvent struct {
	UserID   string    `json:"userId"`
	Artist   string    `json:"artist"`
	Title    string    `json:"title"`
	Genre    string    `json:"genre,omitempty"`
	PlayedAt time.Time `json:"playedAt"`
}

// FeedbackFilter narrows a feedback query. Zero values mean "no constraint".
type FeedbackFilter struct {
	Start  time.Time
	End    time.Time // exclusive
	Season temporal.Season
	Month  int // 1-12
	Type   FeedbackType
}

// ListeningFilter narrows a listening-history query.
type ListeningFilter struct {
	Start time.Time
	End   time.Time // exclusive
}

// FeedbackReader supplies feedback events ordered by timestamp ascending.
type FeedbackReader interface {
	ListFeedback(ctx context.Context, userID string, filter FeedbackFilter) ([]FeedbackEvent, error)
}

// ListeningReader supplies listening events ordered by play time ascending.
type ListeningReader interface {
	ListListening(ctx context.Context, userID string, filter ListeningFilter) ([]ListeningEvent, error)
}

// SnapshotStore persists and lists taste snapshots.
type SnapshotStore interface {
	InsertSnapshot(ctx context.Context, snap *TasteSnapshot) error
	GetSnapshot(ctx context.Context, id uuid.UUID) (*TasteSnapshot, error)
	ListSnapshots(ctx context.Context, userID string) ([]TasteSnapshot, error)
}

// TopItem is one entry of a ranked, capped count projection. Percentage is
// relative to the sum of all positive counts in the source map, rounded to
// one decimal.
type TopItem struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// TimelineDataPoint is one calendar bucket of the taste timeline. Points
// are computed per query and never persisted directly; only derivative
// snapshots are stored.
type TimelineDataPoint struct {
	PeriodStart         time.Time        `json:"periodStart"`
	PeriodEnd           time.Time        `json:"periodEnd"`
	Label               string           `json:"label"`
	Moods               MoodDistribution `json:"moodDistribution"`
	TopGenres           []TopItem        `json:"topGenres"`
	TopArtists          []TopItem        `json:"topArtists"`
	TopTracks           []TopItem        `json:"topTracks"`
	TotalListens        int              `json:"totalListens"`
	TotalFeedback       int              `json:"totalFeedback"`
	AcceptanceRate      float64          `json:"acceptanceRate"`
	DiversityScore      float64          `json:"diversityScore"`
	Season              temporal.Season  `json:"season"`
	IsSignificantChange bool             `json:"isSignificantChange"`
	ChangeDescription   string           `json:"changeDescription,omitempty"`
}

// TimelineFilter removes whole periods from a timeline after reduction.
// Filters never alter the computed statistics of the periods they keep.
type TimelineFilter struct {
	Moods             []Mood   `json:"moods,omitempty"`
	Genres            []string `json:"genres,omitempty"`
	Artists           []string `json:"artists,omitempty"`
	MinAcceptanceRate *float64 `json:"minAcceptanceRate,omitempty"`
}

// TimelineResponse is the result of a timeline query.
type TimelineResponse struct {
	DataPoints   []TimelineDataPoint  `json:"dataPoints"`
	Granularity  temporal.Granularity `json:"granularity"`
	StartDate    time.Time            `json:"startDate"`
	EndDate      time.Time            `json:"endDate"`
	TotalPeriods int                  `json:"totalPeriods"`
	HasMoreData  bool                 `json:"hasMoreData"`
}

// SeasonalPattern is a recurring preference pattern for one season or one
// calendar month. Confidence is derived state, recomputed on every query.
type SeasonalPattern struct {
	Season           temporal.Season `json:"season"`
	Month            int             `json:"month,omitempty"`
	PreferredArtists []string        `json:"preferredArtists"`
	ThumbsUpCount    int             `json:"thumbsUpCount"`
	ThumbsDownCount  int             `json:"thumbsDownCount"`
	TotalFeedback    int             `json:"totalFeedback"`
	Confidence       float64         `json:"confidence"`
	AverageRating    float64         `json:"averageRating"`
}

// SeasonalResponse is the result of a seasonal pattern query. An empty
// Patterns slice is the normal "not enough data" state, not an error.
type SeasonalResponse struct {
	UserID      string            `json:"userId"`
	Patterns    []SeasonalPattern `json:"patterns"`
	LastUpdated time.Time         `json:"lastUpdated"`
}

// Window is an inclusive-start, exclusive-end time range.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// WindowProfile summarizes one comparison window.
type WindowProfile struct {
	Window         Window           `json:"window"`
	TopArtists     []TopItem        `json:"topArtists"`
	TopGenres      []TopItem        `json:"topGenres"`
	Moods          MoodDistribution `json:"moodDistribution"`
	DominantMood   Mood             `json:"dominantMood"`
	AcceptanceRate float64          `json:"acceptanceRate"`
	TotalFeedback  int              `json:"totalFeedback"`
	TotalListens   int              `json:"totalListens"`
}

// TasteComparison is the delta between a past and a current window.
type TasteComparison struct {
	Past                 WindowProfile `json:"past"`
	Current              WindowProfile `json:"current"`
	NewArtists           []string      `json:"newArtists"`
	DroppedArtists       []string      `json:"droppedArtists"`
	NewGenres            []string      `json:"newGenres"`
	DroppedGenres        []string      `json:"droppedGenres"`
	MoodShift            string        `json:"moodShift"`
	AcceptanceRateChange float64       `json:"acceptanceRateChange"`
}

// RegeneratedTrack is one historical slot of a regenerated playlist.
type RegeneratedTrack struct {
	Artist     string    `json:"artist"`
	Title      string    `json:"title"`
	LikedAt    time.Time `json:"likedAt"`
	MatchScore float64   `json:"matchScore"`
	Reasoning  string    `json:"reasoning"`
}

// RegeneratedPlaylist blends previously-liked tracks from a period with
// discovery slots the caller fills. Only the historical portion and the
// slot arithmetic are guaranteed here.
type RegeneratedPlaylist struct {
	PeriodStart    time.Time          `json:"periodStart"`
	PeriodEnd      time.Time          `json:"periodEnd"`
	BlendRatio     int                `json:"blendRatio"`
	MaxTracks      int                `json:"maxTracks"`
	Tracks         []RegeneratedTrack `json:"tracks"`
	DiscoverySlots int                `json:"discoverySlots"`
}

// TasteProfileExport is the consolidated preference profile stored inside
// a snapshot. Once captured it is immutable; re-running the aggregator
// later must never mutate a past snapshot.
type TasteProfileExport struct {
	PeriodStart    time.Time        `json:"periodStart"`
	PeriodEnd      time.Time        `json:"periodEnd"`
	Periods        int              `json:"periods"`
	TotalListens   int              `json:"totalListens"`
	TotalFeedback  int              `json:"totalFeedback"`
	AcceptanceRate float64          `json:"acceptanceRate"`
	DiversityScore float64          `json:"diversityScore"`
	Moods          MoodDistribution `json:"moodDistribution"`
	TopArtists     []TopItem        `json:"topArtists"`
	TopGenres      []TopItem        `json:"topGenres"`
	TopTracks      []TopItem        `json:"topTracks"`
}

// ExportRecord notes one completed export of a snapshot.
type ExportRecord struct {
	Format     string    `json:"format"`
	ExportedAt time.Time `json:"exportedAt"`
}

// TasteSnapshot is a persisted point-in-time capture of a user's profile
// over a chosen period. Snapshots are owned by and lifetime-bound to their
// user.
type TasteSnapshot struct {
	ID              uuid.UUID          `json:"id"`
	UserID          string             `json:"userId"`
	Name            string             `json:"name"`
	CapturedAt      time.Time          `json:"capturedAt"`
	PeriodStart     time.Time          `json:"periodStart"`
	PeriodEnd       time.Time          `json:"periodEnd"`
	Profile         TasteProfileExport `json:"profileData"`
	ExportFormats   []ExportRecord     `json:"exportFormats"`
	Description     string             `json:"description,omitempty"`
	IsAutoGenerated bool               `json:"isAutoGenerated"`
}
