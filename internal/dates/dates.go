// Package dates parses and shifts the calendar dates used in measurement filters.
package dates

import (
	"errors"
	"fmt"
	"time"
)

// Layout is the only accepted date format (ISO 8601 calendar date).
const Layout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// Parse accepts exactly YYYY-MM-DD with in-range components.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// Format renders t in the same form stored in the measurement table.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// OneYearBefore moves t back one calendar year. A day that does not exist in the
// target month (29 February) is clamped to the last day of that month.
func OneYearBefore(t time.Time) time.Time {
	year, month, day := t.Date()
	year--

	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
