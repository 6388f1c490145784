package schedule

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"weekplan/internal/model"
)

// ExpandOptions control recurrence expansion policy.
type ExpandOptions struct {
	// IncludeClosingWeek populates the term's final week. The default
	// (false) deliberately leaves the closing/finals week free of
	// auto-generated commitments.
	IncludeClosingWeek bool
}

// Expand projects one task template across the term. The anchor date
// must be supplied by the caller; this function never defaults it.
//
// A "never" rule yields exactly one occurrence on the anchor date.
// Daily, weekly and custom rules yield one occurrence per matching
// weekday per week, from the anchor's week through the term-end week,
// with the closing week excluded unless opts say otherwise. The
// monthly rule currently reduces to a single occurrence on the anchor.
//
// Occurrences are grouped by weekday key and carry strictly increasing
// IDs starting at nextID; the updated counter is returned. All
// occurrences of one recurring expansion share a repeat-group
// identifier.
func Expand(form model.TaskForm, anchor, termEnd time.Time, nextID int, opts ExpandOptions) (map[string][]model.ScheduleItem, int, error) {
	if anchor.IsZero() {
		return nil, nextID, fmt.Errorf("expand: anchor date is required")
	}
	if termEnd.Before(anchor) {
		return nil, nextID, fmt.Errorf("expand: term end %s precedes anchor %s",
			model.DateString(termEnd), model.DateString(anchor))
	}

	rule := form.Repeat
	if rule == "" {
		rule = model.RepeatNever
	}

	byDay := make(map[string][]model.ScheduleItem)

	makeItem := func(id int, date time.Time, group string) model.ScheduleItem {
		return model.ScheduleItem{
			ID:          id,
			Title:       truncateTitle(form.Name),
			Time:        form.TimeRange(),
			DueDate:     model.DateString(date),
			Priority:    form.Priority,
			Source:      model.SourceManual,
			RepeatGroup: group,
		}
	}

	switch rule {
	case model.RepeatNever, model.RepeatMonthly:
		// Monthly cadence is not distinctly handled; it intentionally
		// collapses to a single occurrence until the intended
		// semantics are settled.
		byDay[model.DayKey(anchor)] = []model.ScheduleItem{makeItem(nextID, anchor, "")}
		return byDay, nextID + 1, nil
	}

	wanted := weekdaySet(rule, anchor, form.RepeatDays)
	group := uuid.NewString()

	weekStart := model.WeekStart(anchor)
	closingWeek := model.WeekStart(termEnd)

	for ; ; weekStart = weekStart.AddDate(0, 0, 7) {
		if opts.IncludeClosingWeek {
			if weekStart.After(closingWeek) {
				break
			}
		} else if !weekStart.Before(closingWeek) {
			break
		}
		for i := 0; i < 7; i++ {
			date := weekStart.AddDate(0, 0, i)
			if !wanted[i] || date.Before(anchor) || date.After(termEnd) {
				continue
			}
			key := model.Days[i]
			byDay[key] = append(byDay[key], makeItem(nextID, date, group))
			nextID++
		}
	}

	return byDay, nextID, nil
}

// weekdaySet returns which Monday-first weekday indices a rule covers.
// Custom rules arrive with Sunday-first indices (0=Sun..6=Sat) and are
// remapped here.
func weekdaySet(rule model.RepeatRule, anchor time.Time, customDays []int) [7]bool {
	var set [7]bool
	switch rule {
	case model.RepeatDaily:
		for i := range set {
			set[i] = true
		}
	case model.RepeatWeekly:
		set[(int(anchor.Weekday())+6)%7] = true
	case model.RepeatCustom:
		for _, d := range customDays {
			if d >= 0 && d <= 6 {
				set[(d+6)%7] = true
			}
		}
	}
	return set
}
