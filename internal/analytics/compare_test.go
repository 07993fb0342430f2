package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compareWindows() (Window, Window) {
	past := Window{
		Start: time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2023, time.July, 1, 0, 0, 0, 0, time.UTC),
	}
	current := Window{
		Start: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
	}
	return past, current
}

func TestCompareTasteArtistAndGenreDiffs(t *testing.T) {
	past, current := compareWindows()
	pastTS := past.Start.Add(24 * time.Hour)
	curTS := current.Start.Add(24 * time.Hour)

	ls := &fakeListening{events: []ListeningEvent{
		listenAt(pastTS, "Tycho", "Awake", "ambient"),
		listenAt(pastTS, "Bonobo", "Kerala", "downtempo"),
		listenAt(curTS, "Bonobo", "Cirrus", "downtempo"),
		listenAt(curTS, "Slayer", "Raining Blood", "thrash metal"),
	}}
	e := newTestEngine(nil, ls, nil)

	cmp, err := e.CompareTaste(context.Background(), testUser, past, current)
	require.NoError(t, err)

	assert.Equal(t, []string{"Slayer"}, cmp.NewArtists)
	assert.Equal(t, []string{"Tycho"}, cmp.DroppedArtists)
	assert.Equal(t, []string{"thrash metal"}, cmp.NewGenres)
	assert.Equal(t, []string{"ambient"}, cmp.DroppedGenres)
}

func TestCompareTasteMoodShift(t *testing.T) {
	past, current := compareWindows()
	pastTS := past.Start.Add(24 * time.Hour)
	curTS := current.Start.Add(24 * time.Hour)

	ls := &fakeListening{events: []ListeningEvent{
		listenAt(pastTS, "Tycho", "Awake", "ambient"),
		listenAt(curTS, "Slayer", "Raining Blood", "thrash metal"),
	}}
	e := newTestEngine(nil, ls, nil)

	cmp, err := e.CompareTaste(context.Background(), testUser, past, current)
	require.NoError(t, err)

	assert.Equal(t, MoodChill, cmp.Past.DominantMood)
	assert.Equal(t, MoodAggressive, cmp.Current.DominantMood)
	assert.Equal(t, "chill → aggressive", cmp.MoodShift)
}

func TestCompareTasteStableMood(t *testing.T) {
	past, current := compareWindows()

	ls := &fakeListening{events: []ListeningEvent{
		listenAt(past.Start.Add(time.Hour), "Tycho", "Awake", "ambient"),
		listenAt(current.Start.Add(time.Hour), "Boards of Canada", "Roygbiv", "ambient"),
	}}
	e := newTestEngine(nil, ls, nil)

	cmp, err := e.CompareTaste(context.Background(), testUser, past, current)
	require.NoError(t, err)
	assert.Equal(t, "Stable", cmp.MoodShift)
}

func TestCompareTasteAcceptanceDelta(t *testing.T) {
	past, current := compareWindows()

	fb := &fakeFeedback{events: []FeedbackEvent{
		// Past: 1 up, 1 down -> 0.5.
		feedbackAt(past.Start.Add(time.Hour), "A", "x", ThumbsUp),
		feedbackAt(past.Start.Add(2*time.Hour), "A", "y", ThumbsDown),
		// Current: 2 up -> 1.0.
		feedbackAt(current.Start.Add(time.Hour), "A", "x", ThumbsUp),
		feedbackAt(current.Start.Add(2*time.Hour), "A", "z", ThumbsUp),
	}}
	e := newTestEngine(fb, nil, nil)

	cmp, err := e.CompareTaste(context.Background(), testUser, past, current)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, cmp.Past.AcceptanceRate, 1e-9)
	assert.InDelta(t, 1.0, cmp.Current.AcceptanceRate, 1e-9)
	assert.InDelta(t, 0.5, cmp.AcceptanceRateChange, 1e-9)
}

func TestCompareTasteEmptyWindows(t *testing.T) {
	past, current := compareWindows()
	e := newTestEngine(nil, nil, nil)

	cmp, err := e.CompareTaste(context.Background(), testUser, past, current)
	require.NoError(t, err)

	assert.Empty(t, cmp.NewArtists)
	assert.Empty(t, cmp.DroppedArtists)
	assert.Equal(t, "Stable", cmp.MoodShift)
	assert.Zero(t, cmp.AcceptanceRateChange)
}

func TestCompareTasteRejectsMalformedWindow(t *testing.T) {
	_, current := compareWindows()
	e := newTestEngine(nil, nil, nil)

	_, err := e.CompareTaste(context.Background(), testUser,
		Window{Start: current.End, End: current.Start}, current)
	assert.ErrorIs(t, err, ErrInvalidRange)
}
