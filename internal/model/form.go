package model

import (
	"errors"
	"fmt"
)

// RepeatRule names a task's recurrence cadence.
type RepeatRule string

const (
	RepeatNever   RepeatRule = "never"
	RepeatDaily   RepeatRule = "daily"
	RepeatWeekly  RepeatRule = "weekly"
	RepeatMonthly RepeatRule = "monthly"
	RepeatCustom  RepeatRule = "custom"
)

// Valid reports whether r is a known repeat rule.
func (r RepeatRule) Valid() bool {
	switch r {
	case RepeatNever, RepeatDaily, RepeatWeekly, RepeatMonthly, RepeatCustom:
		return true
	}
	return false
}

// TaskForm carries the fields of the task editor. Start and end times
// use 24-hour "HH:MM"; a time range is attached to the resulting item
// only when both are present.
type TaskForm struct {
	Name      string
	StartTime string
	EndTime   string
	DueDate   string // YYYY-MM-DD, optional
	Priority  Priority

	Repeat RepeatRule
	// RepeatDays holds weekday indices for the custom rule,
	// 0=Sunday..6=Saturday.
	RepeatDays []int
}

const maxTitleLen = 100

// Validate checks the caller-supplied form fields.
func (f TaskForm) Validate() error {
	if f.Name == "" {
		return errors.New("task name is required")
	}
	if len(f.Name) > maxTitleLen {
		return fmt.Errorf("task name exceeds %d characters", maxTitleLen)
	}
	if !f.Priority.Valid() {
		return fmt.Errorf("unknown priority %q", f.Priority)
	}
	if f.Repeat != "" && !f.Repeat.Valid() {
		return fmt.Errorf("unknown repeat rule %q", f.Repeat)
	}
	if f.StartTime != "" {
		if _, err := To12Hour(f.StartTime); err != nil {
			return err
		}
	}
	if f.EndTime != "" {
		if _, err := To12Hour(f.EndTime); err != nil {
			return err
		}
	}
	if f.StartTime != "" && f.EndTime != "" && f.EndTime <= f.StartTime {
		return errors.New("end time must be after start time")
	}
	for _, d := range f.RepeatDays {
		if d < 0 || d > 6 {
			return fmt.Errorf("repeat day index %d out of range", d)
		}
	}
	return nil
}

// TimeRange returns the 12-hour time string for the form, or "" when
// either end is missing.
func (f TaskForm) TimeRange() string {
	if f.StartTime == "" || f.EndTime == "" {
		return ""
	}
	r, err := RangeTo12Hour(f.StartTime, f.EndTime)
	if err != nil {
		return ""
	}
	return r
}
