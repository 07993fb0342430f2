package analytics

import (
	"context"
	"fmt"

	"github.com/tasteline/tasteline/internal/temporal"
)

// Caps on the comparison windows' top lists. Set differences between the
// two windows' artist and genre lists are taken over these.
const (
	compareTopArtists = 10
	compareTopGenres  = 5
)

// CompareTaste aggregates two arbitrary windows at month granularity and
// computes the taste-evolution delta between them: new and dropped artists
// and genres, mood shift and acceptance-rate change. It is purely a
// read/compute operation and persists nothing.
func (e *Engine) CompareTaste(ctx context.Context, userID string, past, current Window) (*TasteComparison, error) {
	if err := validateRange(past.Start, past.End); err != nil {
		return nil, fmt.Errorf("past window: %w", err)
	}
	if err := validateRange(current.Start, current.End); err != nil {
		return nil, fmt.Errorf("current window: %w", err)
	}

	pastProfile, err := e.windowProfile(ctx, userID, past)
	if err != nil {
		return nil, fmt.Errorf("aggregating past window: %w", err)
	}
	currentProfile, err := e.windowProfile(ctx, userID, current)
	if err != nil {
		return nil, fmt.Errorf("aggregating current window: %w", err)
	}

	moodShift := "Stable"
	if pastProfile.DominantMood != currentProfile.DominantMood {
		moodShift = fmt.Sprintf("%s → %s", pastProfile.DominantMood, currentProfile.DominantMood)
	}

	return &TasteComparison{
		Past:                 *pastProfile,
		Current:              *currentProfile,
		NewArtists:           nameDiff(currentProfile.TopArtists, pastProfile.TopArtists),
		DroppedArtists:       nameDiff(pastProfile.TopArtists, currentProfile.TopArtists),
		NewGenres:            nameDiff(currentProfile.TopGenres, pastProfile.TopGenres),
		DroppedGenres:        nameDiff(pastProfile.TopGenres, currentProfile.TopGenres),
		MoodShift:            moodShift,
		AcceptanceRateChange: currentProfile.AcceptanceRate - pastProfile.AcceptanceRate,
	}, nil
}

// windowProfile sums a window's monthly timeline points into one summary.
func (e *Engine) windowProfile(ctx context.Context, userID string, w Window) (*WindowProfile, error) {
	points, err := e.aggregatePoints(ctx, userID, w.Start, w.End, temporal.Month)
	if err != nil {
		return nil, err
	}

	artistCounts := make(map[string]int)
	genreCounts := make(map[string]int)
	moods := NewMoodDistribution()
	var totalFeedback, totalListens int
	var acceptanceWeighted float64

	for _, p := range points {
		for _, item := range p.TopArtists {
			artistCounts[item.Name] += item.Count
		}
		for _, item := range p.TopGenres {
			genreCounts[item.Name] += item.Count
		}
		for _, m := range Moods {
			moods[m] += p.Moods[m]
		}
		totalFeedback += p.TotalFeedback
		totalListens += p.TotalListens
		acceptanceWeighted += p.AcceptanceRate * float64(p.TotalFeedback)
	}
	moods.Normalize()

	var acceptance float64
	if totalFeedback > 0 {
		acceptance = acceptanceWeighted / float64(totalFeedback)
	}

	return &WindowProfile{
		Window:         w,
		TopArtists:     topN(artistCounts, compareTopArtists),
		TopGenres:      topN(genreCounts, compareTopGenres),
		Moods:          moods,
		DominantMood:   moods.Dominant(),
		AcceptanceRate: acceptance,
		TotalFeedback:  totalFeedback,
		TotalListens:   totalListens,
	}, nil
}

// nameDiff returns the names present in a but absent from b, preserving
// a's ranking order.
func nameDiff(a, b []TopItem) []string {
	inB := make(map[string]bool, len(b))
	for _, item := range b {
		inB[item.Name] = true
	}
	diff := make([]string, 0, len(a))
	for _, item := range a {
		if !inB[item.Name] {
			diff = append(diff, item.Name)
		}
	}
	return diff
}
