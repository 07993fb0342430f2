package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gookit/validate"

	"github.com/tasteline/tasteline/internal/analytics"
)

const dateLayout = "2006-01-02"

// parseDate accepts plain dates and full RFC 3339 timestamps.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}

// decodeBody decodes and validates a JSON request body. Validation
// rules come from the struct's validate tags.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	v := validate.Struct(dst)
	if !v.Validate() {
		return fmt.Errorf("%s", v.Errors.One())
	}
	return nil
}

// splitList parses a comma separated query value, dropping empties.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseMoods converts a comma separated mood list, rejecting values
// outside the closed mood vocabulary.
func parseMoods(s string) ([]analytics.Mood, error) {
	var moods []analytics.Mood
	for _, name := range splitList(s) {
		mood := analytics.Mood(strings.ToLower(name))
		if !validMood(mood) {
			return nil, fmt.Errorf("unknown mood %q", name)
		}
		moods = append(moods, mood)
	}
	return moods, nil
}

func validMood(m analytics.Mood) bool {
	for _, known := range analytics.Moods {
		if m == known {
			return true
		}
	}
	return false
}

// parseTimelineFilter builds the optional timeline filter from query
// parameters. Returns nil when no filter parameter is present.
func parseTimelineFilter(r *http.Request) (*analytics.TimelineFilter, error) {
	q := r.URL.Query()

	moods, err := parseMoods(q.Get("moods"))
	if err != nil {
		return nil, err
	}

	filter := &analytics.TimelineFilter{
		Moods:   moods,
		Genres:  splitList(q.Get("genres")),
		Artists: splitList(q.Get("artists")),
	}

	if raw := q.Get("min_acceptance"); raw != "" {
		min, err := strconv.ParseFloat(raw, 64)
		if err != nil || min < 0 || min > 1 {
			return nil, fmt.Errorf("min_acceptance must be a number between 0 and 1")
		}
		filter.MinAcceptanceRate = &min
	}

	if len(filter.Moods) == 0 && len(filter.Genres) == 0 && len(filter.Artists) == 0 && filter.MinAcceptanceRate == nil {
		return nil, nil
	}
	return filter, nil
}

// compareRequest is the body of POST /api/compare.
type compareRequest struct {
	PastStart    string `json:"pastStart" validate:"required"`
	PastEnd      string `json:"pastEnd" validate:"required"`
	CurrentStart string `json:"currentStart" validate:"required"`
	CurrentEnd   string `json:"currentEnd" validate:"required"`
}

// playlistRequest is the body of POST /api/playlist/regenerate. Zero
// blend ratio and max tracks fall back to engine defaults.
type playlistRequest struct {
	PeriodStart string `json:"periodStart" validate:"required"`
	PeriodEnd   string `json:"periodEnd" validate:"required"`
	BlendRatio  int    `json:"blendRatio" validate:"min:0|max:100"`
	MaxTracks   int    `json:"maxTracks" validate:"min:0|max:100"`
}

// snapshotRequest is the body of POST /api/snapshots.
type snapshotRequest struct {
	Name        string `json:"name" validate:"required"`
	PeriodStart string `json:"periodStart" validate:"required"`
	PeriodEnd   string `json:"periodEnd" validate:"required"`
	Description string `json:"description"`
}

// feedbackRequest is the body of POST /api/feedback. Either structured
// artist and title fields or the legacy composite track field must be
// set.
type feedbackRequest struct {
	Artist       string `json:"artist"`
	Title        string `json:"title"`
	Track        string `json:"track"`
	FeedbackType string `json:"feedbackType" validate:"required|in:up,down"`
	Timestamp    string `json:"timestamp"`
}

// profileRequest is the body of PUT /api/profile.
type profileRequest struct {
	DisplayName string `json:"displayName" validate:"required"`
}

// spotifyIngestRequest is the body of POST /api/ingest/spotify.
type spotifyIngestRequest struct {
	AccessToken  string `json:"accessToken" validate:"required"`
	RefreshToken string `json:"refreshToken"`
	Force        bool   `json:"force"`
}

// splitComposite splits a legacy "Artist - Title" value on the first
// separator. The title keeps any further separators.
func splitComposite(track string) (artist, title string) {
	parts := strings.SplitN(track, " - ", 2)
	if len(parts) != 2 {
		return strings.TrimSpace(track), ""
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}
