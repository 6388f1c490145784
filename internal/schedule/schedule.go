// Package schedule is the synthesis engine: it expands recurring task
// templates, folds calendar-feed events and agent proposals into the
// per-day store, and applies incremental change sets. Every function
// here is pure with respect to the store: inputs are never mutated,
// callers serialize writes.
package schedule

import (
	"strings"

	"weekplan/internal/model"
	"weekplan/internal/normalize"
)

// BlockType classifies an agent-proposed time block.
type BlockType string

const (
	BlockClass           BlockType = "class"
	BlockWork            BlockType = "work"
	BlockStudy           BlockType = "study"
	BlockAthletic        BlockType = "athletic"
	BlockExtracurricular BlockType = "extracurricular"
	BlockPersonal        BlockType = "personal"
)

// Block is one proposed schedule entry from the planning agent.
// Start and end times are 24-hour "HH:MM".
type Block struct {
	Title       string    `json:"title"`
	Type        BlockType `json:"type"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	Location    string    `json:"location,omitempty"`
	IsRecurring bool      `json:"is_recurring,omitempty"`
}

// DayBlocks groups an agent proposal's blocks under one weekday. Day
// carries the agent's naming ("Monday"); resolution is tolerant of
// short keys too.
type DayBlocks struct {
	Day    string  `json:"day"`
	Blocks []Block `json:"blocks"`
}

// ChangeAction names one incremental diff operation.
type ChangeAction string

const (
	ActionAdd    ChangeAction = "add"
	ActionRemove ChangeAction = "remove"
	ActionModify ChangeAction = "modify"
)

// Change is one add/remove/modify instruction from the agent's partial
// update mode.
type Change struct {
	Action     ChangeAction `json:"action"`
	Day        string       `json:"day"`
	MatchTitle string       `json:"match_title,omitempty"`
	Block      *Block       `json:"block,omitempty"`
}

// priorityFor maps a block type to a display priority. Unknown types
// land on medium.
func priorityFor(t BlockType) model.Priority {
	switch t {
	case BlockClass, BlockWork:
		return model.PriorityHigh
	case BlockStudy, BlockAthletic, BlockExtracurricular:
		return model.PriorityMedium
	case BlockPersonal:
		return model.PriorityLow
	}
	return model.PriorityMedium
}

const (
	maxTitleLen      = 100
	truncatedBodyLen = 97
)

// buildTitle appends the location when it is not already part of the
// title, then bounds the result.
func buildTitle(title, location string) string {
	if location != "" && !strings.Contains(strings.ToLower(title), strings.ToLower(location)) {
		title += " @ " + location
	}
	return truncateTitle(title)
}

func truncateTitle(title string) string {
	if len(title) > maxTitleLen {
		return title[:truncatedBodyLen] + "..."
	}
	return title
}

// blockToItem converts an agent block to a schedule item. Blocks
// missing either end of the time range are malformed agent output and
// yield ok=false; the caller skips them silently.
func blockToItem(b Block, id int, dueDate string) (model.ScheduleItem, bool) {
	if b.StartTime == "" || b.EndTime == "" {
		return model.ScheduleItem{}, false
	}
	timeRange, err := model.RangeTo12Hour(b.StartTime, b.EndTime)
	if err != nil {
		return model.ScheduleItem{}, false
	}
	return model.ScheduleItem{
		ID:       id,
		Title:    buildTitle(b.Title, b.Location),
		Time:     timeRange,
		DueDate:  dueDate,
		Priority: priorityFor(b.Type),
	}, true
}

// dedupeKey is the triple that identifies a duplicate within one merge:
// canonical title, weekday, and time range (or the no-time marker).
func dedupeKey(item model.ScheduleItem, day string) string {
	t := item.Time
	if t == "" {
		t = "no-time"
	}
	return normalize.Title(item.Title) + "|" + day + "|" + t
}
