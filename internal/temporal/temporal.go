// Package temporal maps timestamps onto the calendar attributes the
// analytics engine aggregates by: seasons, months, days of week and
// granularity-aligned period buckets.
package temporal

import (
	"fmt"
	"strings"
	"time"
)

// Season is one of the four meteorological seasons.
type Season string

// Season values.
const (
	Spring Season = "spring"
	Summer Season = "summer"
	Fall   Season = "fall"
	Winter Season = "winter"
)

// Seasons lists all seasons in calendar order starting from spring.
var Seasons = []Season{Spring, Summer, Fall, Winter}

// SeasonOf returns the season containing the given month.
func SeasonOf(m time.Month) Season {
	switch m {
	case time.March, time.April, time.May:
		return Spring
	case time.June, time.July, time.August:
		return Summer
	case time.September, time.October, time.November:
		return Fall
	default:
		return Winter
	}
}

// Granularity selects the calendar alignment of aggregation buckets.
type Granularity string

// Supported granularities.
const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
	Year  Granularity = "year"
)

// ParseGranularity validates a granularity string.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(strings.ToLower(s)) {
	case Day:
		return Day, nil
	case Week:
		return Week, nil
	case Month:
		return Month, nil
	case Year:
		return Year, nil
	default:
		return "", fmt.Errorf("unknown granularity %q", s)
	}
}

// Attributes are the calendar fields derived from an event timestamp once,
// at write time, and never recomputed afterwards.
type Attributes struct {
	Month     int    // 1-12
	Season    Season //
	DayOfWeek int    // 0 = Sunday .. 6 = Saturday
	HourOfDay int    // 0-23
}

// Classify derives calendar attributes from a timestamp.
func Classify(t time.Time) Attributes {
	return Attributes{
		Month:     int(t.Month()),
		Season:    SeasonOf(t.Month()),
		DayOfWeek: int(t.Weekday()),
		HourOfDay: t.Hour(),
	}
}

// BucketStart returns the start of the bucket containing t for the given
// granularity. Days start at midnight, weeks on the containing Sunday,
// months and years on their first day. The timestamp's location is kept.
func BucketStart(t time.Time, g Granularity) time.Time {
	switch g {
	case Week:
		midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		return midnight.AddDate(0, 0, -int(midnight.Weekday()))
	case Month:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	case Year:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
}

// BucketEnd returns the exclusive end of the bucket starting at start.
func BucketEnd(start time.Time, g Granularity) time.Time {
	switch g {
	case Week:
		return start.AddDate(0, 0, 7)
	case Month:
		return start.AddDate(0, 1, 0)
	case Year:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// BucketLabel renders a human-readable label for a bucket. The label is a
// pure function of the bucket start so identical queries produce identical
// timelines.
func BucketLabel(start time.Time, g Granularity) string {
	switch g {
	case Week:
		end := BucketEnd(start, Week).AddDate(0, 0, -1)
		return fmt.Sprintf("Week of %s - %s", start.Format("Jan 2"), end.Format("Jan 2, 2006"))
	case Month:
		return start.Format("January 2006")
	case Year:
		return start.Format("2006")
	default:
		return start.Format("Jan 2, 2006")
	}
}
