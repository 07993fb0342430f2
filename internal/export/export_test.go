package export

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasteline/tasteline/internal/analytics"
)

func sampleSnapshot() *analytics.TasteSnapshot {
	moods := analytics.NewMoodDistribution()
	moods[analytics.MoodChill] = 0.75
	moods[analytics.MoodFocused] = 0.25

	return &analytics.TasteSnapshot{
		ID:          uuid.New(),
		UserID:      "user-1",
		Name:        "spring 2024",
		CapturedAt:  time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC),
		PeriodStart: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		Profile: analytics.TasteProfileExport{
			PeriodStart:    time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
			PeriodEnd:      time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
			Periods:        3,
			TotalListens:   120,
			TotalFeedback:  40,
			AcceptanceRate: 0.825,
			DiversityScore: 0.667,
			Moods:          moods,
			TopArtists: []analytics.TopItem{
				{Name: "Tycho", Count: 50, Percentage: 41.7},
				{Name: "Portico, Quartet", Count: 30, Percentage: 25.0},
			},
			TopGenres: []analytics.TopItem{
				{Name: "ambient", Count: 80, Percentage: 66.7},
			},
			TopTracks: []analytics.TopItem{
				{Name: `Tycho - "Awake"`, Count: 12, Percentage: 10.0},
			},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("structured")
	require.NoError(t, err)
	assert.Equal(t, Structured, f)

	f, err = ParseFormat("delimited")
	require.NoError(t, err)
	assert.Equal(t, Delimited, f)

	_, err = ParseFormat("yaml")
	assert.Error(t, err)
}

func TestStructuredRoundTrip(t *testing.T) {
	snap := sampleSnapshot()

	out, err := Render(snap, Structured)
	require.NoError(t, err)

	parsed, err := ParseProfile(out)
	require.NoError(t, err)

	assert.Equal(t, snap.Profile.Periods, parsed.Periods)
	assert.Equal(t, snap.Profile.TotalListens, parsed.TotalListens)
	assert.Equal(t, snap.Profile.AcceptanceRate, parsed.AcceptanceRate)
	assert.Equal(t, snap.Profile.TopArtists, parsed.TopArtists)
	assert.InDelta(t, snap.Profile.Moods[analytics.MoodChill], parsed.Moods[analytics.MoodChill], 1e-9)
	assert.True(t, snap.Profile.PeriodStart.Equal(parsed.PeriodStart))
}

func TestRenderIsPure(t *testing.T) {
	snap := sampleSnapshot()
	before := *snap

	_, err := Render(snap, Structured)
	require.NoError(t, err)
	_, err = Render(snap, Delimited)
	require.NoError(t, err)

	assert.Equal(t, before, *snap)
}

func TestDelimitedSectionOrder(t *testing.T) {
	out, err := Render(sampleSnapshot(), Delimited)
	require.NoError(t, err)

	idxSummary := strings.Index(out, "summary,")
	idxMood := strings.Index(out, "mood,")
	idxArtist := strings.Index(out, "artist,")
	idxGenre := strings.Index(out, "genre,")
	idxTrack := strings.Index(out, "track,")

	require.GreaterOrEqual(t, idxSummary, 0)
	assert.Less(t, idxSummary, idxMood)
	assert.Less(t, idxMood, idxArtist)
	assert.Less(t, idxArtist, idxGenre)
	assert.Less(t, idxGenre, idxTrack)
}

func TestDelimitedPercentagesOneDecimal(t *testing.T) {
	out, err := Render(sampleSnapshot(), Delimited)
	require.NoError(t, err)

	assert.Contains(t, out, "acceptance_rate,,82.5")
	assert.Contains(t, out, "mood,chill,,75.0")
	assert.Contains(t, out, "Tycho,50,41.7")
}

// Names containing the delimiter or quotes must survive a CSV parse.
func TestDelimitedEscapesEmbeddedDelimiters(t *testing.T) {
	out, err := Render(sampleSnapshot(), Delimited)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)

	var foundComma, foundQuote bool
	for _, rec := range records {
		if rec[1] == "Portico, Quartet" {
			foundComma = true
		}
		if rec[1] == `Tycho - "Awake"` {
			foundQuote = true
		}
	}
	assert.True(t, foundComma, "comma-containing artist must round-trip")
	assert.True(t, foundQuote, "quote-containing track must round-trip")
}

func TestDelimitedMoodRowsCoverAllCategories(t *testing.T) {
	out, err := Render(sampleSnapshot(), Delimited)
	require.NoError(t, err)

	for _, mood := range analytics.Moods {
		assert.Contains(t, out, "mood,"+string(mood)+",")
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	_, err := Render(sampleSnapshot(), Format("xml"))
	assert.Error(t, err)
}
