package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeasonOf(t *testing.T) {
	tests := []struct {
		month time.Month
		want  Season
	}{
		{time.January, Winter},
		{time.February, Winter},
		{time.March, Spring},
		{time.May, Spring},
		{time.June, Summer},
		{time.August, Summer},
		{time.September, Fall},
		{time.November, Fall},
		{time.December, Winter},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SeasonOf(tt.month), "month %s", tt.month)
	}
}

func TestParseGranularity(t *testing.T) {
	g, err := ParseGranularity("Week")
	require.NoError(t, err)
	assert.Equal(t, Week, g)

	_, err = ParseGranularity("fortnight")
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	// A Saturday evening in October.
	ts := time.Date(2024, time.October, 12, 21, 30, 0, 0, time.UTC)
	attrs := Classify(ts)

	assert.Equal(t, 10, attrs.Month)
	assert.Equal(t, Fall, attrs.Season)
	assert.Equal(t, 6, attrs.DayOfWeek)
	assert.Equal(t, 21, attrs.HourOfDay)
}

func TestBucketStart(t *testing.T) {
	// Wednesday, Jan 15, 2025 at 14:45.
	ts := time.Date(2025, time.January, 15, 14, 45, 0, 0, time.UTC)

	tests := []struct {
		granularity Granularity
		want        time.Time
	}{
		{Day, time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)},
		{Week, time.Date(2025, time.January, 12, 0, 0, 0, 0, time.UTC)}, // Sunday
		{Month, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{Year, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BucketStart(ts, tt.granularity), "granularity %s", tt.granularity)
	}
}

func TestBucketStartWeekOnSunday(t *testing.T) {
	// A Sunday is the start of its own week.
	sunday := time.Date(2025, time.January, 12, 10, 0, 0, 0, time.UTC)
	got := BucketStart(sunday, Week)
	assert.Equal(t, time.Date(2025, time.January, 12, 0, 0, 0, 0, time.UTC), got)
}

func TestBucketEnd(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC), BucketEnd(start, Day))
	assert.Equal(t, time.Date(2025, time.January, 8, 0, 0, 0, 0, time.UTC), BucketEnd(start, Week))
	assert.Equal(t, time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), BucketEnd(start, Month))
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), BucketEnd(start, Year))
}

func TestBucketLabel(t *testing.T) {
	start := time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC) // a Sunday

	assert.Equal(t, "Mar 3, 2024", BucketLabel(start, Day))
	assert.Equal(t, "Week of Mar 3 - Mar 9, 2024", BucketLabel(start, Week))
	assert.Equal(t, "March 2024", BucketLabel(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), Month))
	assert.Equal(t, "2024", BucketLabel(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), Year))
}
