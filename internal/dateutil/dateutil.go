// Package dateutil provides calendar-date helpers for the daily pipeline.
package dateutil

import (
	"errors"
	"fmt"
	"time"
)

// ISODate is the calendar-date layout used for batch keys and directories.
const ISODate = "2006-01-02"

// ErrInvalidDate indicates a date string that is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date")

// ParseISO parses a YYYY-MM-DD date string.
func ParseISO(s string) (time.Time, error) {
	t, err := time.Parse(ISODate, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// LastWeekday rolls a weekend date back to the most recent Friday.
// Weekdays pass through unchanged. The paper feed publishes nothing on
// Saturday or Sunday.
func LastWeekday(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		return t.AddDate(0, 0, -1)
	case time.Sunday:
		return t.AddDate(0, 0, -2)
	default:
		return t
	}
}
