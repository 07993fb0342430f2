package eras

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasteline/tasteline/internal/analytics"
)

func monthPoint(year int, month time.Month, mood analytics.Mood, artist string) analytics.TimelineDataPoint {
	moods := analytics.NewMoodDistribution()
	moods[mood] = 1
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return analytics.TimelineDataPoint{
		PeriodStart: start,
		PeriodEnd:   start.AddDate(0, 1, 0),
		Moods:       moods,
		TopArtists:  []analytics.TopItem{{Name: artist, Count: 10, Percentage: 100}},
	}
}

func TestDetectEmptyInput(t *testing.T) {
	eras, err := Detect(nil, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, eras)
}

func TestDetectTooFewClassifiablePoints(t *testing.T) {
	points := []analytics.TimelineDataPoint{
		monthPoint(2024, time.January, analytics.MoodChill, "Tycho"),
		{PeriodStart: time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), Moods: analytics.NewMoodDistribution()},
	}
	eras, err := Detect(points, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, eras, "one classifiable point cannot form three clusters")
}

func TestDetectSeparatesDistinctMoodRuns(t *testing.T) {
	var points []analytics.TimelineDataPoint
	for m := time.January; m <= time.April; m++ {
		points = append(points, monthPoint(2024, m, analytics.MoodChill, "Tycho"))
	}
	for m := time.May; m <= time.August; m++ {
		points = append(points, monthPoint(2024, m, analytics.MoodAggressive, "Slayer"))
	}

	eras, err := Detect(points, Config{NumEras: 2, MinPeriods: 2})
	require.NoError(t, err)
	require.Len(t, eras, 2)

	// Eras come back in chronological order.
	assert.True(t, eras[0].Start.Before(eras[1].Start))
	assert.Equal(t, analytics.MoodChill, eras[0].Centroid.Dominant())
	assert.Equal(t, analytics.MoodAggressive, eras[1].Centroid.Dominant())
	assert.Equal(t, []string{"Tycho"}, eras[0].TopArtists)
	assert.Equal(t, []string{"Slayer"}, eras[1].TopArtists)
	assert.Equal(t, 4, eras[0].Periods)
}

func TestDetectEraNameCarriesMoodAndSpan(t *testing.T) {
	var points []analytics.TimelineDataPoint
	for m := time.January; m <= time.June; m++ {
		points = append(points, monthPoint(2024, m, analytics.MoodChill, "Tycho"))
	}

	eras, err := Detect(points, Config{NumEras: 1, MinPeriods: 2})
	require.NoError(t, err)
	require.Len(t, eras, 1)
	assert.Equal(t, "Chill: Jan 2024 - Jun 2024", eras[0].Name)
}

func TestDetectZeroConfigUsesDefaults(t *testing.T) {
	var points []analytics.TimelineDataPoint
	for m := time.January; m <= time.June; m++ {
		points = append(points, monthPoint(2024, m, analytics.MoodChill, "Tycho"))
	}

	_, err := Detect(points, Config{})
	assert.NoError(t, err)
}
