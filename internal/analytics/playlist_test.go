package analytics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func playlistPeriod() (time.Time, time.Time) {
	return time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, time.July, 1, 0, 0, 0, 0, time.UTC)
}

func TestRegeneratePlaylistHistoricalSlice(t *testing.T) {
	start, end := playlistPeriod()
	base := start.Add(24 * time.Hour)

	fb := &fakeFeedback{events: []FeedbackEvent{
		feedbackAt(base, "Caribou", "Odessa", ThumbsUp),
		feedbackAt(base.Add(time.Hour), "Caribou", "Sun", ThumbsUp),
		feedbackAt(base.Add(2*time.Hour), "Bonobo", "Kerala", ThumbsUp),
		feedbackAt(base.Add(3*time.Hour), "Nickelback", "Photograph", ThumbsDown),
		// Outside the period: never included.
		feedbackAt(end.Add(time.Hour), "Tycho", "Awake", ThumbsUp),
	}}
	e := newTestEngine(fb, nil, nil)

	pl, err := e.RegeneratePlaylist(context.Background(), testUser, RegenerateRequest{
		PeriodStart: start,
		PeriodEnd:   end,
	})
	require.NoError(t, err)

	assert.Equal(t, 100, pl.BlendRatio)
	assert.Equal(t, 25, pl.MaxTracks)
	require.Len(t, pl.Tracks, 3, "thumbs-down and out-of-period tracks are excluded")
	assert.Equal(t, 22, pl.DiscoverySlots)

	// Most recent like first.
	assert.Equal(t, "Bonobo", pl.Tracks[0].Artist)
	for _, track := range pl.Tracks {
		assert.Equal(t, regeneratedReasoning, track.Reasoning)
	}
}

func TestRegeneratePlaylistDeduplicates(t *testing.T) {
	start, end := playlistPeriod()
	base := start.Add(24 * time.Hour)

	fb := &fakeFeedback{events: []FeedbackEvent{
		feedbackAt(base, "Caribou", "Odessa", ThumbsUp),
		feedbackAt(base.Add(48*time.Hour), "Caribou", "Odessa", ThumbsUp),
	}}
	e := newTestEngine(fb, nil, nil)

	pl, err := e.RegeneratePlaylist(context.Background(), testUser, RegenerateRequest{
		PeriodStart: start,
		PeriodEnd:   end,
	})
	require.NoError(t, err)

	require.Len(t, pl.Tracks, 1)
	assert.Equal(t, base.Add(48*time.Hour), pl.Tracks[0].LikedAt, "keeps the most recent like")
}

func TestRegeneratePlaylistBlendRatioArithmetic(t *testing.T) {
	start, end := playlistPeriod()
	base := start.Add(24 * time.Hour)

	var events []FeedbackEvent
	for i := 0; i < 30; i++ {
		events = append(events, feedbackAt(base.Add(time.Duration(i)*time.Hour),
			"Artist", fmt.Sprintf("track-%02d", i), ThumbsUp))
	}
	fb := &fakeFeedback{events: events}
	e := newTestEngine(fb, nil, nil)

	// floor(20 * 70 / 100) = 14 historical slots, 6 discovery slots.
	pl, err := e.RegeneratePlaylist(context.Background(), testUser, RegenerateRequest{
		PeriodStart: start,
		PeriodEnd:   end,
		BlendRatio:  70,
		MaxTracks:   20,
	})
	require.NoError(t, err)

	assert.Len(t, pl.Tracks, 14)
	assert.Equal(t, 6, pl.DiscoverySlots)
}

func TestRegeneratePlaylistMatchScoreSaturates(t *testing.T) {
	start, end := playlistPeriod()
	base := start.Add(24 * time.Hour)

	var events []FeedbackEvent
	// 7 likes for Caribou: score saturates at 1. 2 likes for Bonobo: 0.4.
	for i := 0; i < 7; i++ {
		events = append(events, feedbackAt(base.Add(time.Duration(i)*time.Hour),
			"Caribou", fmt.Sprintf("c-%d", i), ThumbsUp))
	}
	for i := 0; i < 2; i++ {
		events = append(events, feedbackAt(base.Add(time.Duration(100+i)*time.Hour),
			"Bonobo", fmt.Sprintf("b-%d", i), ThumbsUp))
	}
	fb := &fakeFeedback{events: events}
	e := newTestEngine(fb, nil, nil)

	pl, err := e.RegeneratePlaylist(context.Background(), testUser, RegenerateRequest{
		PeriodStart: start,
		PeriodEnd:   end,
	})
	require.NoError(t, err)

	scores := make(map[string]float64)
	for _, track := range pl.Tracks {
		scores[track.Artist] = track.MatchScore
	}
	assert.InDelta(t, 1.0, scores["Caribou"], 1e-9)
	assert.InDelta(t, 0.4, scores["Bonobo"], 1e-9)
}

func TestRegeneratePlaylistEmptyPeriod(t *testing.T) {
	start, end := playlistPeriod()
	e := newTestEngine(nil, nil, nil)

	pl, err := e.RegeneratePlaylist(context.Background(), testUser, RegenerateRequest{
		PeriodStart: start,
		PeriodEnd:   end,
	})
	require.NoError(t, err, "an empty playlist period is not an error")
	assert.Empty(t, pl.Tracks)
	assert.Equal(t, 25, pl.DiscoverySlots)
}

func TestRegeneratePlaylistValidation(t *testing.T) {
	start, end := playlistPeriod()
	e := newTestEngine(nil, nil, nil)

	_, err := e.RegeneratePlaylist(context.Background(), testUser, RegenerateRequest{
		PeriodStart: start, PeriodEnd: end, BlendRatio: 150,
	})
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = e.RegeneratePlaylist(context.Background(), testUser, RegenerateRequest{
		PeriodStart: start, PeriodEnd: end, MaxTracks: 500,
	})
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = e.RegeneratePlaylist(context.Background(), testUser, RegenerateRequest{
		PeriodStart: end, PeriodEnd: start,
	})
	assert.ErrorIs(t, err, ErrInvalidRange)
}
