// Package export serializes taste snapshots into durable text
// representations. Rendering is pure: it never mutates the snapshot and
// has no side effects.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tasteline/tasteline/internal/analytics"
)

// Format selects an export representation.
type Format string

// Supported formats.
const (
	// Structured round-trips the full profile as indented JSON.
	Structured Format = "structured"

	// Delimited emits CSV with a fixed section order: summary, mood
	// distribution, top artists, top genres, top tracks.
	Delimited Format = "delimited"
)

// ParseFormat validates a format string.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case Structured:
		return Structured, nil
	case Delimited:
		return Delimited, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// Render serializes a snapshot's profile in the requested format.
func Render(snap *analytics.TasteSnapshot, format Format) (string, error) {
	switch format {
	case Structured:
		return renderStructured(snap)
	case Delimited:
		return renderDelimited(snap)
	default:
		return "", fmt.Errorf("unknown export format %q", format)
	}
}

// ParseProfile reverses a structured export back into a profile.
func ParseProfile(data string) (analytics.TasteProfileExport, error) {
	var profile analytics.TasteProfileExport
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		return analytics.TasteProfileExport{}, fmt.Errorf("parsing structured export: %w", err)
	}
	return profile, nil
}

func renderStructured(snap *analytics.TasteSnapshot) (string, error) {
	data, err := json.MarshalIndent(snap.Profile, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling profile: %w", err)
	}
	return string(data), nil
}

// renderDelimited writes one CSV record per fact. Embedded commas and
// quotes in artist or track names are escaped by the csv writer's quoting
// rule.
func renderDelimited(snap *analytics.TasteSnapshot) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{
		{"section", "name", "count", "value"},
		{"summary", "snapshot", "", snap.Name},
		{"summary", "period_start", "", snap.PeriodStart.Format("2006-01-02")},
		{"summary", "period_end", "", snap.PeriodEnd.Format("2006-01-02")},
		{"summary", "periods", strconv.Itoa(snap.Profile.Periods), ""},
		{"summary", "total_listens", strconv.Itoa(snap.Profile.TotalListens), ""},
		{"summary", "total_feedback", strconv.Itoa(snap.Profile.TotalFeedback), ""},
		{"summary", "acceptance_rate", "", percent(snap.Profile.AcceptanceRate * 100)},
		{"summary", "diversity_score", "", percent(snap.Profile.DiversityScore * 100)},
	}

	for _, mood := range analytics.Moods {
		records = append(records, []string{
			"mood", string(mood), "", percent(snap.Profile.Moods[mood] * 100),
		})
	}
	records = append(records, itemRecords("artist", snap.Profile.TopArtists)...)
	records = append(records, itemRecords("genre", snap.Profile.TopGenres)...)
	records = append(records, itemRecords("track", snap.Profile.TopTracks)...)

	if err := w.WriteAll(records); err != nil {
		return "", fmt.Errorf("writing delimited export: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing delimited export: %w", err)
	}
	return buf.String(), nil
}

func itemRecords(section string, items []analytics.TopItem) [][]string {
	records := make([][]string, 0, len(items))
	for _, item := range items {
		records = append(records, []string{
			section, item.Name, strconv.Itoa(item.Count), percent(item.Percentage),
		})
	}
	return records
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
