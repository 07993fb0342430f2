package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"
)

// Playlist regeneration defaults and scoring.
const (
	defaultBlendRatio = 100
	defaultMaxTracks  = 25
	maxPlaylistTracks = 100

	// artistAffinitySaturation is the thumbs-up count at which an artist's
	// match score maxes out.
	artistAffinitySaturation = 5
)

// regeneratedReasoning is the fixed reasoning attached to every
// historical slot.
const regeneratedReasoning = "You loved this track during this period"

// RegenerateRequest parameterizes a historical playlist regeneration.
// Zero BlendRatio and MaxTracks take their defaults (100 and 25).
type RegenerateRequest struct {
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
	BlendRatio  int       `json:"blendRatio"`
	MaxTracks   int       `json:"maxTracks"`
}

// RegeneratePlaylist selects the tracks the user thumbed up inside the
// period and fills floor(maxTracks * blendRatio / 100) slots with them in
// most-recent-first order. The remaining discovery slots are a contract
// for the caller to fill; this engine never fabricates tracks that are not
// in the user's history.
func (e *Engine) RegeneratePlaylist(ctx context.Context, userID string, req RegenerateRequest) (*RegeneratedPlaylist, error) {
	if err := validateRange(req.PeriodStart, req.PeriodEnd); err != nil {
		return nil, err
	}
	if req.BlendRatio == 0 {
		req.BlendRatio = defaultBlendRatio
	}
	if req.BlendRatio < 0 || req.BlendRatio > 100 {
		return nil, fmt.Errorf("%w: blend ratio %d out of range 0-100", ErrInvalidRange, req.BlendRatio)
	}
	if req.MaxTracks == 0 {
		req.MaxTracks = defaultMaxTracks
	}
	if req.MaxTracks < 0 || req.MaxTracks > maxPlaylistTracks {
		return nil, fmt.Errorf("%w: max tracks %d out of range 1-%d", ErrInvalidRange, req.MaxTracks, maxPlaylistTracks)
	}

	liked, err := e.feedback.ListFeedback(ctx, userID, FeedbackFilter{
		Start: req.PeriodStart,
		End:   req.PeriodEnd,
		Type:  ThumbsUp,
	})
	if err != nil {
		return nil, fmt.Errorf("listing liked tracks: %w", err)
	}

	likesByArtist := make(map[string]int)
	for _, ev := range liked {
		likesByArtist[ev.Artist]++
	}

	// Deduplicate to unique tracks, keeping the most recent like.
	latest := make(map[string]FeedbackEvent)
	for _, ev := range liked {
		key := trackName(ev.Artist, ev.Title)
		if prev, ok := latest[key]; !ok || ev.Timestamp.After(prev.Timestamp) {
			latest[key] = ev
		}
	}
	unique := make([]FeedbackEvent, 0, len(latest))
	for _, ev := range latest {
		unique = append(unique, ev)
	}
	sort.Slice(unique, func(i, j int) bool {
		if !unique[i].Timestamp.Equal(unique[j].Timestamp) {
			return unique[i].Timestamp.After(unique[j].Timestamp)
		}
		return trackName(unique[i].Artist, unique[i].Title) < trackName(unique[j].Artist, unique[j].Title)
	})

	historicalSlots := req.MaxTracks * req.BlendRatio / 100
	if len(unique) > historicalSlots {
		unique = unique[:historicalSlots]
	}

	tracks := make([]RegeneratedTrack, len(unique))
	for i, ev := range unique {
		tracks[i] = RegeneratedTrack{
			Artist:     ev.Artist,
			Title:      ev.Title,
			LikedAt:    ev.Timestamp,
			MatchScore: math.Min(1, float64(likesByArtist[ev.Artist])/artistAffinitySaturation),
			Reasoning:  regeneratedReasoning,
		}
	}

	return &RegeneratedPlaylist{
		PeriodStart:    req.PeriodStart,
		PeriodEnd:      req.PeriodEnd,
		BlendRatio:     req.BlendRatio,
		MaxTracks:      req.MaxTracks,
		Tracks:         tracks,
		DiscoverySlots: req.MaxTracks - len(tracks),
	}, nil
}
