// Package ics converts raw iCalendar feed text into a bounded,
// deduplicated list of normalized events, with recurrence already
// unrolled. It performs no network I/O; fetching is the caller's job.
package ics

import "time"

// Event is one concrete calendar occurrence as produced by the parser.
// Recurring templates never leave this package: each occurrence gets
// its own UID so re-syncs can replace instances independently.
type Event struct {
	UID      string
	Title    string
	Start    time.Time
	End      time.Time
	AllDay   bool
	Location string
}

const (
	// defaultMaxOccurrences bounds worst-case expansion of a single
	// pathological recurrence rule, independent of the time window.
	defaultMaxOccurrences = 500

	defaultTitle = "Untitled Event"
)

// Options control parsing. The zero value is ready to use.
type Options struct {
	// Now anchors the iteration window [Now - 1 month, Now + 4 months].
	// Zero means time.Now().
	Now time.Time

	// MaxOccurrences caps recurrence unrolling per event. Zero means
	// defaultMaxOccurrences.
	MaxOccurrences int
}

func (o Options) normalized() (now time.Time, cap int) {
	now = o.Now
	if now.IsZero() {
		now = time.Now()
	}
	cap = o.MaxOccurrences
	if cap <= 0 {
		cap = defaultMaxOccurrences
	}
	return now, cap
}

// window returns the inclusive event-retention window around now.
func window(now time.Time) (start, end time.Time) {
	return now.AddDate(0, -1, 0), now.AddDate(0, 4, 0)
}
