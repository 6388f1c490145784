// Package model defines the schedule data structures shared by the
// synthesis engine, the feed parser and the persistence layer.
package model

// Priority is the display priority of a schedule item.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is one of the known priority values.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Source marks where a schedule item came from.
type Source string

const (
	SourceManual Source = "manual"
	SourceFeed   Source = "ical"
)

// ScheduleItem is one calendar entry. Time and DueDate are optional;
// an item without a DueDate is a legacy entry that is always visible
// under its weekday regardless of the displayed week.
type ScheduleItem struct {
	ID        int      `json:"id"`
	Title     string   `json:"title"`
	Time      string   `json:"time,omitempty"` // "h:mm AM - h:mm PM"
	DueDate   string   `json:"due_date,omitempty"`
	Priority  Priority `json:"priority"`
	Completed bool     `json:"completed"`

	// Provenance. FeedUID and FeedURL are set only for ical items so a
	// re-sync of one subscription can replace exactly its own items.
	Source  Source `json:"source,omitempty"`
	FeedUID string `json:"feed_uid,omitempty"`
	FeedURL string `json:"feed_url,omitempty"`

	// RepeatGroup links every occurrence spawned from one recurring
	// template so they can be edited or removed together.
	RepeatGroup string `json:"repeat_group,omitempty"`
}

// Schedule maps a weekday key (Mon..Sun) to its ordered items.
//
// Invariant: an item stored under weekday W either has no due date or
// has a due date falling on W. Date scoping lives entirely in the
// item's DueDate; the weekday key exists so legacy date-less items
// still render under a fixed weekday.
type Schedule map[string][]ScheduleItem

// NewSchedule returns a schedule with all seven weekday keys present
// and empty.
func NewSchedule() Schedule {
	s := make(Schedule, len(Days))
	for _, d := range Days {
		s[d] = nil
	}
	return s
}

// Clone returns a deep copy. Transformations never mutate their input
// schedule; they clone and return a new one.
func (s Schedule) Clone() Schedule {
	out := make(Schedule, len(Days))
	for _, d := range Days {
		items := s[d]
		cp := make([]ScheduleItem, len(items))
		copy(cp, items)
		out[d] = cp
	}
	return out
}

// Items returns every item in weekday order. Useful for counting and
// for completion statistics.
func (s Schedule) Items() []ScheduleItem {
	var out []ScheduleItem
	for _, d := range Days {
		out = append(out, s[d]...)
	}
	return out
}

// CompletionPercent returns the share of completed items, rounded to
// the nearest integer percent. An empty schedule reports 0.
func (s Schedule) CompletionPercent() int {
	total, done := 0, 0
	for _, d := range Days {
		for _, it := range s[d] {
			total++
			if it.Completed {
				done++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return int(float64(done)/float64(total)*100 + 0.5)
}
