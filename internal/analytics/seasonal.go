package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tasteline/tasteline/internal/cache"
	"github.com/tasteline/tasteline/internal/temporal"
)

// Seasonal pattern gating.
const (
	// minFeedbackThreshold is the smallest sample a season or month needs
	// before a pattern is even considered.
	minFeedbackThreshold = 10

	// minPatternConfidence gates pattern emission.
	minPatternConfidence = 0.7

	// confidenceSampleSaturation is the sample size at which the size term
	// of the confidence score maxes out.
	confidenceSampleSaturation = 50

	// maxPreferredArtists caps the artist list on an emitted pattern.
	maxPreferredArtists = 10
)

// GetSeasonalPatterns detects recurring per-season preference patterns
// across the user's full feedback history. A season is emitted only with
// at least minFeedbackThreshold events and a confidence of at least
// minPatternConfidence; an empty pattern list is the normal state for new
// users, not an error.
func (e *Engine) GetSeasonalPatterns(ctx context.Context, userID string) (*SeasonalResponse, error) {
	key := cache.Key(userID, "seasonal")
	if hit, ok := e.results.Get(key); ok {
		return hit.(*SeasonalResponse).clone(), nil
	}

	patterns := make([]SeasonalPattern, 0, len(temporal.Seasons))
	for _, season := range temporal.Seasons {
		events, err := e.feedback.ListFeedback(ctx, userID, FeedbackFilter{Season: season})
		if err != nil {
			return nil, fmt.Errorf("listing %s feedback: %w", season, err)
		}
		if pattern, ok := buildPattern(events, season, 0); ok {
			patterns = append(patterns, pattern)
		}
	}

	resp := &SeasonalResponse{
		UserID:      userID,
		Patterns:    patterns,
		LastUpdated: e.now(),
	}
	e.results.Set(key, resp)
	return resp.clone(), nil
}

// GetMonthlyPatterns repeats seasonal detection keyed by calendar month
// for finer-grained insight. Thresholds and the confidence formula are
// identical to the per-season variant.
func (e *Engine) GetMonthlyPatterns(ctx context.Context, userID string) (*SeasonalResponse, error) {
	key := cache.Key(userID, "monthly")
	if hit, ok := e.results.Get(key); ok {
		return hit.(*SeasonalResponse).clone(), nil
	}

	patterns := make([]SeasonalPattern, 0, 12)
	for month := 1; month <= 12; month++ {
		events, err := e.feedback.ListFeedback(ctx, userID, FeedbackFilter{Month: month})
		if err != nil {
			return nil, fmt.Errorf("listing month %d feedback: %w", month, err)
		}
		season := temporal.SeasonOf(time.Month(month))
		if pattern, ok := buildPattern(events, season, month); ok {
			patterns = append(patterns, pattern)
		}
	}

	resp := &SeasonalResponse{
		UserID:      userID,
		Patterns:    patterns,
		LastUpdated: e.now(),
	}
	e.results.Set(key, resp)
	return resp.clone(), nil
}

// clone copies the response so callers can mutate what they receive
// without corrupting the cached entry.
func (r *SeasonalResponse) clone() *SeasonalResponse {
	out := *r
	out.Patterns = make([]SeasonalPattern, len(r.Patterns))
	for i, p := range r.Patterns {
		p.PreferredArtists = append([]string(nil), p.PreferredArtists...)
		out.Patterns[i] = p
	}
	return &out
}

// buildPattern reduces one season's (or month's) feedback into a pattern.
// The second return value is false when the sample or the confidence falls
// below the emission thresholds.
func buildPattern(events []FeedbackEvent, season temporal.Season, month int) (SeasonalPattern, bool) {
	total := len(events)
	if total < minFeedbackThreshold {
		return SeasonalPattern{}, false
	}

	var up, down int
	likesByArtist := make(map[string]int)
	for _, ev := range events {
		if ev.Type == ThumbsDown {
			down++
			continue
		}
		up++
		likesByArtist[ev.Artist]++
	}

	avgRating := float64(up) / float64(total)
	conf := patternConfidence(total, avgRating)
	if conf < minPatternConfidence {
		return SeasonalPattern{}, false
	}

	return SeasonalPattern{
		Season:           season,
		Month:            month,
		PreferredArtists: topArtistNames(likesByArtist, maxPreferredArtists),
		ThumbsUpCount:    up,
		ThumbsDownCount:  down,
		TotalFeedback:    total,
		Confidence:       conf,
		AverageRating:    avgRating,
	}, true
}

// patternConfidence scores a pattern from sample size and rating
// decisiveness: the size term saturates at confidenceSampleSaturation
// events, and the polarity term rewards ratings far from a 50/50 split.
func patternConfidence(total int, avgRating float64) float64 {
	sizeTerm := math.Min(float64(total)/confidenceSampleSaturation, 1.0)
	polarityTerm := math.Abs(avgRating-0.5) * 2
	conf := 0.6*sizeTerm + 0.4*polarityTerm
	return math.Min(1, math.Max(0, conf))
}

func topArtistNames(likes map[string]int, n int) []string {
	type artistCount struct {
		name  string
		count int
	}
	ranked := make([]artistCount, 0, len(likes))
	for name, count := range likes {
		ranked = append(ranked, artistCount{name, count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].name < ranked[j].name
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	names := make([]string, len(ranked))
	for i, a := range ranked {
		names[i] = a.name
	}
	return names
}
