// Package calendar computes the day and week boundaries used by attendance and goals.
package calendar

import (
	"fmt"
	"time"
)

// DateLayout is the storage format for calendar days and week starts
const DateLayout = "2006-01-02"

// Clock supplies the current instant
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

// Now returns the current time
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant. Useful for tests and replays.
type FixedClock struct {
	T time.Time
}

// Now returns the fixed instant
func (c FixedClock) Now() time.Time { return c.T }

// DayStart returns local midnight of the day containing t
func DayStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// WeekStart returns the Monday at local midnight on or before t.
// Sunday belongs to the week that started six days earlier.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	day := DayStart(t, loc)
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return day.AddDate(0, 0, -(weekday - 1))
}

// Key formats a day as YYYY-MM-DD in loc
func Key(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// ParseKey turns a stored YYYY-MM-DD key back into local midnight
func ParseKey(key string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", key, err)
	}
	return t, nil
}

// ParseDate accepts a plain date or an RFC3339 timestamp, as sent by clients
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(DateLayout, value, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", value)
	}
	return t.In(loc), nil
}
