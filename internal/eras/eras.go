// Package eras groups timeline periods into "taste eras" by clustering
// their mood distributions.
package eras

import (
	"fmt"
	"sort"
	"time"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/tasteline/tasteline/internal/analytics"
)

// Config holds era detection parameters.
type Config struct {
	NumEras    int // number of clusters to partition into
	MinPeriods int // smallest cluster that still counts as an era
}

// DefaultConfig returns the recommended defaults.
func DefaultConfig() Config {
	return Config{
		NumEras:    3,
		MinPeriods: 2,
	}
}

// Era is a run of periods sharing a mood profile.
type Era struct {
	Name       string                     `json:"name"`
	Start      time.Time                  `json:"start"`
	End        time.Time                  `json:"end"`
	Periods    int                        `json:"periods"`
	Centroid   analytics.MoodDistribution `json:"centroid"`
	TopArtists []string                   `json:"topArtists"`
}

// pointObservation wraps a timeline point for the k-means interface.
type pointObservation struct {
	point  *analytics.TimelineDataPoint
	coords clusters.Coordinates
}

func (o pointObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o pointObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// Detect clusters timeline points by their mood vectors. Points without
// classifiable mood data are skipped; when fewer classifiable points
// remain than clusters requested, no eras are detected.
func Detect(points []analytics.TimelineDataPoint, cfg Config) ([]Era, error) {
	if cfg.NumEras <= 0 {
		cfg.NumEras = DefaultConfig().NumEras
	}
	if cfg.MinPeriods <= 0 {
		cfg.MinPeriods = DefaultConfig().MinPeriods
	}

	var valid []*analytics.TimelineDataPoint
	for i := range points {
		if points[i].Moods.Total() > 0 {
			valid = append(valid, &points[i])
		}
	}
	if len(valid) < cfg.NumEras {
		return nil, nil
	}

	var obs clusters.Observations
	for _, p := range valid {
		obs = append(obs, pointObservation{point: p, coords: moodCoordinates(p.Moods)})
	}

	km := kmeans.New()
	result, err := km.Partition(obs, cfg.NumEras)
	if err != nil {
		return nil, fmt.Errorf("partitioning timeline: %w", err)
	}

	var eras []Era
	for _, cluster := range result {
		var clusterPoints []*analytics.TimelineDataPoint
		for _, o := range cluster.Observations {
			if po, ok := o.(pointObservation); ok {
				clusterPoints = append(clusterPoints, po.point)
			}
		}
		if len(clusterPoints) < cfg.MinPeriods {
			continue
		}

		sort.Slice(clusterPoints, func(i, j int) bool {
			return clusterPoints[i].PeriodStart.Before(clusterPoints[j].PeriodStart)
		})

		centroid := analytics.NewMoodDistribution()
		for i, m := range analytics.Moods {
			centroid[m] = cluster.Center[i]
		}

		start := clusterPoints[0].PeriodStart
		end := clusterPoints[len(clusterPoints)-1].PeriodEnd
		eras = append(eras, Era{
			Name:       eraName(centroid.Dominant(), start, end),
			Start:      start,
			End:        end,
			Periods:    len(clusterPoints),
			Centroid:   centroid,
			TopArtists: dominantArtists(clusterPoints, 3),
		})
	}

	sort.Slice(eras, func(i, j int) bool { return eras[i].Start.Before(eras[j].Start) })
	return eras, nil
}

func moodCoordinates(d analytics.MoodDistribution) clusters.Coordinates {
	coords := make(clusters.Coordinates, len(analytics.Moods))
	for i, m := range analytics.Moods {
		coords[i] = d[m]
	}
	return coords
}

// eraLabels maps a centroid's dominant mood to a display name.
var eraLabels = map[analytics.Mood]string{
	analytics.MoodChill:       "Chill",
	analytics.MoodEnergetic:   "High Energy",
	analytics.MoodMelancholic: "Melancholy",
	analytics.MoodHappy:       "Upbeat",
	analytics.MoodFocused:     "Focused",
	analytics.MoodRomantic:    "Romantic",
	analytics.MoodAggressive:  "Intense",
	analytics.MoodNeutral:     "Eclectic",
}

func eraName(dominant analytics.Mood, start, end time.Time) string {
	const dateFormat = "Jan 2006"
	startStr := start.Format(dateFormat)
	endStr := end.AddDate(0, 0, -1).Format(dateFormat)

	label := eraLabels[dominant]
	if startStr == endStr {
		return fmt.Sprintf("%s: %s", label, startStr)
	}
	return fmt.Sprintf("%s: %s - %s", label, startStr, endStr)
}

// dominantArtists merges the clustered periods' top-artist counts and
// returns the n biggest names.
func dominantArtists(points []*analytics.TimelineDataPoint, n int) []string {
	counts := make(map[string]int)
	for _, p := range points {
		for _, item := range p.TopArtists {
			counts[item.Name] += item.Count
		}
	}

	type artistCount struct {
		name  string
		count int
	}
	ranked := make([]artistCount, 0, len(counts))
	for name, count := range counts {
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
