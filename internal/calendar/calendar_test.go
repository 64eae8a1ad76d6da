package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayStart(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)

	// 02:30 UTC on the 15th is still the 14th in UTC-5
	got := DayStart(time.Date(2025, 1, 15, 2, 30, 0, 0, time.UTC), loc)

	assert.Equal(t, time.Date(2025, 1, 14, 0, 0, 0, 0, loc), got)
}

func TestWeekStart(t *testing.T) {
	loc := time.UTC
	monday := time.Date(2025, 1, 13, 0, 0, 0, 0, loc)

	tests := []struct {
		name string
		at   time.Time
		want time.Time
	}{
		{name: "monday midnight", at: monday, want: monday},
		{name: "monday afternoon", at: monday.Add(15 * time.Hour), want: monday},
		{name: "wednesday", at: time.Date(2025, 1, 15, 9, 0, 0, 0, loc), want: monday},
		{name: "saturday", at: time.Date(2025, 1, 18, 23, 59, 0, 0, loc), want: monday},
		{name: "sunday belongs to previous monday", at: time.Date(2025, 1, 19, 12, 0, 0, 0, loc), want: monday},
		{name: "next monday", at: time.Date(2025, 1, 20, 0, 0, 1, 0, loc), want: monday.AddDate(0, 0, 7)},
		{name: "across a year boundary", at: time.Date(2025, 1, 1, 8, 0, 0, 0, loc), want: time.Date(2024, 12, 30, 0, 0, 0, 0, loc)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeekStart(tt.at, loc)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, time.Monday, got.Weekday())
		})
	}
}

func TestWeekStartIsStable(t *testing.T) {
	loc := time.UTC
	for d := 0; d < 7; d++ {
		at := time.Date(2025, 3, 3+d, 10, 0, 0, 0, loc)
		assert.Equal(t, "2025-03-03", Key(WeekStart(at, loc), loc))
	}
}

func TestKeyRoundTrip(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	day := DayStart(time.Date(2025, 6, 1, 21, 0, 0, 0, time.UTC), loc)

	key := Key(day, loc)
	assert.Equal(t, "2025-06-02", key)

	parsed, err := ParseKey(key, loc)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(day))

	_, err = ParseKey("06/02/2025", loc)
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	loc := time.UTC

	got, err := ParseDate("2025-02-05", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 5, 0, 0, 0, 0, loc), got)

	got, err = ParseDate("2025-02-05T10:00:00Z", loc)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Day())

	_, err = ParseDate("yesterday", loc)
	assert.Error(t, err)
}
