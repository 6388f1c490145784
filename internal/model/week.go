package model

import (
	"strings"
	"time"
)

// Days lists the weekday keys in display order, Monday first.
var Days = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// DateLayout is the wire format for due dates.
const DateLayout = "2006-01-02"

var longDays = map[string]int{
	"monday": 0, "tuesday": 1, "wednesday": 2, "thursday": 3,
	"friday": 4, "saturday": 5, "sunday": 6,
}

// DayIndex resolves a weekday name to its Monday-first index. Both the
// short keys ("Mon") and full names ("Monday") are accepted, in any
// case, since agent output uses full names while the store uses keys.
func DayIndex(name string) (int, bool) {
	for i, d := range Days {
		if strings.EqualFold(d, name) {
			return i, true
		}
	}
	if i, ok := longDays[strings.ToLower(name)]; ok {
		return i, true
	}
	return 0, false
}

// DayKey returns the weekday key for a date.
func DayKey(t time.Time) string {
	return Days[mondayIndex(t.Weekday())]
}

// mondayIndex converts time.Weekday (Sunday=0) to Monday-first 0..6.
func mondayIndex(w time.Weekday) int {
	return (int(w) + 6) % 7
}

// WeekStart returns midnight of the Monday of the week containing t.
func WeekStart(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return d.AddDate(0, 0, -mondayIndex(d.Weekday()))
}

// WeekDates returns the seven dates (Mon..Sun) of the week containing t.
func WeekDates(t time.Time) [7]time.Time {
	var out [7]time.Time
	start := WeekStart(t)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

// DateString formats a date as its due-date string.
func DateString(t time.Time) string {
	return t.Format(DateLayout)
}
