package model

import (
	"fmt"
	"strings"
	"time"
)

// clock12Layout renders times the way the schedule displays them:
// no leading zero on the hour, minutes always two digits.
const clock12Layout = "3:04 PM"

// FormatClock formats a point in time as a 12-hour clock string.
func FormatClock(t time.Time) string {
	return t.Format(clock12Layout)
}

// FormatTimeRange builds the item time string from start and end.
func FormatTimeRange(start, end time.Time) string {
	return FormatClock(start) + " - " + FormatClock(end)
}

// To12Hour converts a 24-hour "HH:MM" string to "h:mm AM/PM". It
// returns an error for values that are not a valid wall-clock time.
func To12Hour(hhmm string) (string, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return "", fmt.Errorf("invalid 24-hour time %q: %w", hhmm, err)
	}
	return FormatClock(t), nil
}

// To24Hour converts a "h:mm AM/PM" string back to 24-hour "HH:MM".
func To24Hour(clock string) (string, error) {
	t, err := time.Parse(clock12Layout, strings.TrimSpace(clock))
	if err != nil {
		return "", fmt.Errorf("invalid 12-hour time %q: %w", clock, err)
	}
	return t.Format("15:04"), nil
}

// RangeTo12Hour formats a pair of 24-hour times as an item time string.
func RangeTo12Hour(start24, end24 string) (string, error) {
	s, err := To12Hour(start24)
	if err != nil {
		return "", err
	}
	e, err := To12Hour(end24)
	if err != nil {
		return "", err
	}
	return s + " - " + e, nil
}

// StartMinutes extracts the start of an item time string as minutes
// since midnight, for sorting. The second return is false when the
// item has no parseable time; such items sort after timed ones.
func StartMinutes(timeRange string) (int, bool) {
	start, _, found := strings.Cut(timeRange, " - ")
	if !found {
		start = timeRange
	}
	t, err := time.Parse(clock12Layout, strings.TrimSpace(start))
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}
