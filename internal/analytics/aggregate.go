package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/tasteline/tasteline/internal/cache"
	"github.com/tasteline/tasteline/internal/temporal"
)

// Feedback weighting applied to artist and track counts. Mood and genre
// counts come exclusively from listening-event genres; feedback never
// contributes to them.
const (
	thumbsUpWeight   = 2
	thumbsDownWeight = -1
)

// topItemsPerPeriod caps the ranked projections on a timeline point.
const topItemsPerPeriod = 5

// GetTimeline buckets the user's activity between start and end into
// calendar-aligned periods and reduces each into a TimelineDataPoint.
// Results are cached per (user, parameters) within the cache TTL.
func (e *Engine) GetTimeline(ctx context.Context, userID string, start, end time.Time, g temporal.Granularity, filter *TimelineFilter) (*TimelineResponse, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	// ParseGranularity canonicalizes case variants; bucketing below must
	// see the canonical value, never the caller's spelling.
	g, err := temporal.ParseGranularity(string(g))
	if err != nil {
		return nil, err
	}

	key := cache.Key(userID, "timeline",
		start.UTC().Format(time.RFC3339),
		end.UTC().Format(time.RFC3339),
		string(g),
		filter.cacheKey(),
	)
	if hit, ok := e.results.Get(key); ok {
		return hit.(*TimelineResponse).clone(), nil
	}

	points, err := e.aggregatePoints(ctx, userID, start, end, g)
	if err != nil {
		return nil, err
	}

	if filter != nil {
		kept := make([]TimelineDataPoint, 0, len(points))
		for _, p := range points {
			if filter.matches(p) {
				kept = append(kept, p)
			}
		}
		points = kept
	}

	resp := &TimelineResponse{
		DataPoints:   points,
		Granularity:  g,
		StartDate:    start,
		EndDate:      end,
		TotalPeriods: len(points),
		HasMoreData:  false,
	}
	e.results.Set(key, resp)

	e.log.Debug().
		Str("user", userID).
		Str("granularity", string(g)).
		Int("periods", len(points)).
		Msg("timeline aggregated")
	return resp.clone(), nil
}

// clone copies the response so callers can mutate what they receive
// without corrupting the cached entry.
func (r *TimelineResponse) clone() *TimelineResponse {
	out := *r
	out.DataPoints = make([]TimelineDataPoint, len(r.DataPoints))
	for i, p := range r.DataPoints {
		p.Moods = p.Moods.Clone()
		p.TopGenres = append([]TopItem(nil), p.TopGenres...)
		p.TopArtists = append([]TopItem(nil), p.TopArtists...)
		p.TopTracks = append([]TopItem(nil), p.TopTracks...)
		out.DataPoints[i] = p
	}
	return &out
}

// aggregatePoints fetches the user's events for the window and reduces
// them. Upstream read failures propagate unchanged; they are never masked
// as an empty timeline.
func (e *Engine) aggregatePoints(ctx context.Context, userID string, start, end time.Time, g temporal.Granularity) ([]TimelineDataPoint, error) {
	feedback, err := e.feedback.ListFeedback(ctx, userID, FeedbackFilter{Start: start, End: end})
	if err != nil {
		return nil, fmt.Errorf("listing feedback: %w", err)
	}
	listening, err := e.listening.ListListening(ctx, userID, ListeningFilter{Start: start, End: end})
	if err != nil {
		return nil, fmt.Errorf("listing listening history: %w", err)
	}
	return buildTimeline(feedback, listening, g), nil
}

// periodAccum accumulates raw counts for one calendar bucket.
type periodAccum struct {
	start        time.Time
	moodCounts   map[Mood]int
	genreCounts  map[string]int
	artistCounts map[string]int
	trackCounts  map[string]int
	listens      int
	thumbsUp     int
	thumbsDown   int
}

func newPeriodAccum(start time.Time) *periodAccum {
	return &periodAccum{
		start:        start,
		moodCounts:   make(map[Mood]int),
		genreCounts:  make(map[string]int),
		artistCounts: make(map[string]int),
		trackCounts:  make(map[string]int),
	}
}

// buildTimeline classifies every event into exactly one bucket keyed by
// its own timestamp, reduces each bucket to a TimelineDataPoint and runs
// change detection over the chronological sequence. It is a pure function
// of its inputs: identical events and granularity yield identical output.
func buildTimeline(feedback []FeedbackEvent, listening []ListeningEvent, g temporal.Granularity) []TimelineDataPoint {
	buckets := make(map[time.Time]*periodAccum)

	accum := func(ts time.Time) *periodAccum {
		key := temporal.BucketStart(ts.UTC(), g)
		b, ok := buckets[key]
		if !ok {
			b = newPeriodAccum(key)
			buckets[key] = b
		}
		return b
	}

	for _, ev := range listening {
		b := accum(ev.PlayedAt)
		b.listens++
		b.artistCounts[ev.Artist]++
		b.trackCounts[trackName(ev.Artist, ev.Title)]++
		if ev.Genre != "" {
			b.genreCounts[ev.Genre]++
			b.moodCounts[InferMood(ev.Genre)]++
		}
	}

	for _, ev := range feedback {
		b := accum(ev.Timestamp)
		weight := thumbsUpWeight
		if ev.Type == ThumbsDown {
			weight = thumbsDownWeight
			b.thumbsDown++
		} else {
			b.thumbsUp++
		}
		b.artistCounts[ev.Artist] += weight
		b.trackCounts[trackName(ev.Artist, ev.Title)] += weight
	}

	starts := make([]time.Time, 0, len(buckets))
	for start := range buckets {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	points := make([]TimelineDataPoint, 0, len(starts))
	for _, start := range starts {
		points = append(points, buckets[start].reduce(g))
	}

	// Milestones compare each point to the immediately preceding one in
	// the emitted sequence; post-reduction filters run after this, so
	// filtered-out periods never change which neighbor was compared.
	for i := range points {
		var prev *TimelineDataPoint
		if i > 0 {
			prev = &points[i-1]
		}
		change := DetectChange(points[i], prev)
		points[i].IsSignificantChange = change.IsSignificant
		points[i].ChangeDescription = change.Description
	}

	return points
}

// reduce turns accumulated counts into a finished timeline point.
func (b *periodAccum) reduce(g temporal.Granularity) TimelineDataPoint {
	moods := NewMoodDistribution()
	for m, c := range b.moodCounts {
		moods[m] = float64(c)
	}
	moods.Normalize()

	var acceptance float64
	totalFeedback := b.thumbsUp + b.thumbsDown
	if totalFeedback > 0 {
		acceptance = float64(b.thumbsUp) / float64(totalFeedback)
	}

	return TimelineDataPoint{
		PeriodStart:    b.start,
		PeriodEnd:      temporal.BucketEnd(b.start, g),
		Label:          temporal.BucketLabel(b.start, g),
		Moods:          moods,
		TopGenres:      topN(b.genreCounts, topItemsPerPeriod),
		TopArtists:     topN(b.artistCounts, topItemsPerPeriod),
		TopTracks:      topN(b.trackCounts, topItemsPerPeriod),
		TotalListens:   b.listens,
		TotalFeedback:  totalFeedback,
		AcceptanceRate: acceptance,
		DiversityScore: DiversityScore(b.artistCounts),
		Season:         temporal.SeasonOf(b.start.Month()),
	}
}

// topN ranks the positive entries of a count map. Entries driven to zero
// or below by negative feedback weighting are excluded from ranking and
// from the percentage base, but they still contributed to the raw totals.
func topN(counts map[string]int, n int) []TopItem {
	var total int
	items := make([]TopItem, 0, len(counts))
	for name, count := range counts {
		if count <= 0 {
			continue
		}
		total += count
		items = append(items, TopItem{Name: name, Count: count})
	}
	if total == 0 {
		return nil
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Name < items[j].Name
	})
	if len(items) > n {
		items = items[:n]
	}
	for i := range items {
		items[i].Percentage = round1(float64(items[i].Count) / float64(total) * 100)
	}
	return items
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// trackName renders a display name for a track. It is never parsed back
// into fields; artist and title stay structured everywhere else.
func trackName(artist, title string) string {
	return artist + " - " + title
}

// matches reports whether a fully reduced point passes the filter. Nil
// filters pass everything.
func (f *TimelineFilter) matches(p TimelineDataPoint) bool {
	if f == nil {
		return true
	}
	if len(f.Moods) > 0 {
		dominant := p.Moods.Dominant()
		found := false
		for _, m := range f.Moods {
			if m == dominant {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Genres) > 0 && !anyTopItemMatches(p.TopGenres, f.Genres) {
		return false
	}
	if len(f.Artists) > 0 && !anyTopItemMatches(p.TopArtists, f.Artists) {
		return false
	}
	if f.MinAcceptanceRate != nil && p.AcceptanceRate < *f.MinAcceptanceRate {
		return false
	}
	return true
}

func anyTopItemMatches(items []TopItem, wanted []string) bool {
	for _, item := range items {
		for _, w := range wanted {
			if strings.EqualFold(item.Name, w) {
				return true
			}
		}
	}
	return false
}

// cacheKey renders the filter deterministically for cache keying.
func (f *TimelineFilter) cacheKey() string {
	if f == nil {
		return "nofilter"
	}
	var sb strings.Builder
	for _, m := range f.Moods {
		sb.WriteString(string(m))
		sb.WriteByte(',')
	}
	sb.WriteByte(';')
	sb.WriteString(strings.Join(f.Genres, ","))
	sb.WriteByte(';')
	sb.WriteString(strings.Join(f.Artists, ","))
	sb.WriteByte(';')
	if f.MinAcceptanceRate != nil {
		fmt.Fprintf(&sb, "%.4f", *f.MinAcceptanceRate)
	}
	return sb.String()
}
