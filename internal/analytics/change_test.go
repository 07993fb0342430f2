package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pointWith(acceptance, diversity float64, topArtist string, dominant Mood) TimelineDataPoint {
	moods := NewMoodDistribution()
	if dominant != "" {
		moods[dominant] = 1
	}
	var top []TopItem
	if topArtist != "" {
		top = []TopItem{{Name: topArtist, Count: 10, Percentage: 100}}
	}
	return TimelineDataPoint{
		AcceptanceRate: acceptance,
		DiversityScore: diversity,
		TopArtists:     top,
		Moods:          moods,
	}
}

func TestDetectChangeFirstPeriodNeverSignificant(t *testing.T) {
	result := DetectChange(pointWith(0.9, 0.8, "Caribou", MoodHappy), nil)
	assert.False(t, result.IsSignificant)
	assert.Empty(t, result.Description)
}

func TestDetectChangeIdenticalPeriods(t *testing.T) {
	p := pointWith(0.7, 0.5, "Caribou", MoodChill)
	result := DetectChange(p, &p)
	assert.False(t, result.IsSignificant)
	assert.Empty(t, result.Description)
}

func TestDetectChangeAcceptanceDecline(t *testing.T) {
	prev := pointWith(0.9, 0.5, "Caribou", MoodChill)
	cur := pointWith(0.5, 0.5, "Caribou", MoodChill)

	result := DetectChange(cur, &prev)
	require.True(t, result.IsSignificant)
	assert.Contains(t, result.Description, "declined")
}

func TestDetectChangeAcceptanceImprovement(t *testing.T) {
	prev := pointWith(0.4, 0.5, "Caribou", MoodChill)
	cur := pointWith(0.75, 0.5, "Caribou", MoodChill)

	result := DetectChange(cur, &prev)
	require.True(t, result.IsSignificant)
	assert.Contains(t, result.Description, "improved")
}

func TestDetectChangeAcceptanceAtThresholdIsNotSignificant(t *testing.T) {
	prev := pointWith(0.5, 0.5, "Caribou", MoodChill)
	cur := pointWith(0.7, 0.5, "Caribou", MoodChill) // delta exactly 0.20

	result := DetectChange(cur, &prev)
	assert.False(t, result.IsSignificant)
}

func TestDetectChangeMoodShift(t *testing.T) {
	prev := pointWith(0.5, 0.5, "Caribou", MoodChill)
	cur := pointWith(0.5, 0.5, "Caribou", MoodAggressive)

	result := DetectChange(cur, &prev)
	require.True(t, result.IsSignificant)
	assert.Contains(t, result.Description, "chill")
	assert.Contains(t, result.Description, "aggressive")
}

func TestDetectChangeNewFavoriteArtist(t *testing.T) {
	prev := pointWith(0.5, 0.5, "Caribou", MoodChill)
	cur := pointWith(0.5, 0.5, "Bonobo", MoodChill)

	result := DetectChange(cur, &prev)
	require.True(t, result.IsSignificant)
	assert.Contains(t, result.Description, "Bonobo")
}

func TestDetectChangeEmptyCurrentTopArtistDoesNotFire(t *testing.T) {
	prev := pointWith(0.5, 0.5, "Caribou", MoodChill)
	cur := pointWith(0.5, 0.5, "", MoodChill)

	result := DetectChange(cur, &prev)
	assert.False(t, result.IsSignificant)
}

func TestDetectChangeDiversityShift(t *testing.T) {
	prev := pointWith(0.5, 0.2, "Caribou", MoodChill)
	cur := pointWith(0.5, 0.6, "Caribou", MoodChill)

	result := DetectChange(cur, &prev)
	require.True(t, result.IsSignificant)
	assert.Contains(t, result.Description, "expanded")

	result = DetectChange(prev, &cur)
	require.True(t, result.IsSignificant)
	assert.Contains(t, result.Description, "narrowed")
}

// Rules are cumulative: every triggered rule contributes a sentence.
func TestDetectChangeCumulativeDescription(t *testing.T) {
	prev := pointWith(0.9, 0.8, "Caribou", MoodChill)
	cur := pointWith(0.3, 0.2, "Slayer", MoodAggressive)

	result := DetectChange(cur, &prev)
	require.True(t, result.IsSignificant)
	assert.Contains(t, result.Description, "declined")
	assert.Contains(t, result.Description, "shifted")
	assert.Contains(t, result.Description, "Slayer")
	assert.Contains(t, result.Description, "narrowed")
}
