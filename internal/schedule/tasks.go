package schedule

import (
	"fmt"

	"weekplan/internal/model"
)

// NewTask builds a single manual item from a validated task form. The
// time range is attached only when both ends were supplied.
func NewTask(form model.TaskForm, id int) model.ScheduleItem {
	return model.ScheduleItem{
		ID:       id,
		Title:    truncateTitle(form.Name),
		Time:     form.TimeRange(),
		DueDate:  form.DueDate,
		Priority: form.Priority,
		Source:   model.SourceManual,
	}
}

// ToggleCompleted flips one item's completion flag. Unknown weekday
// keys are a caller error; unknown ids leave the store unchanged.
func ToggleCompleted(s model.Schedule, day string, id int) (model.Schedule, error) {
	idx, ok := model.DayIndex(day)
	if !ok {
		return s, fmt.Errorf("unknown weekday %q", day)
	}
	key := model.Days[idx]

	out := s.Clone()
	for i, item := range out[key] {
		if item.ID == id {
			out[key][i].Completed = !item.Completed
		}
	}
	return out, nil
}

// RemoveRepeatGroup deletes every occurrence linked to one recurring
// template, across all weekdays. Editing a recurring task removes its
// group before re-expansion so occurrences never double up.
func RemoveRepeatGroup(s model.Schedule, group string) model.Schedule {
	out := s.Clone()
	if group == "" {
		return out
	}
	for _, day := range model.Days {
		kept := out[day][:0:0]
		for _, item := range out[day] {
			if item.RepeatGroup == group {
				continue
			}
			kept = append(kept, item)
		}
		out[day] = kept
	}
	return out
}

// RemoveMatching deletes items in one weekday whose titles the matcher
// accepts, returning the new store and how many items were removed.
func RemoveMatching(s model.Schedule, day, matchTitle string, match TitleMatcher) (model.Schedule, int, error) {
	idx, ok := model.DayIndex(day)
	if !ok {
		return s, 0, fmt.Errorf("unknown weekday %q", day)
	}
	if match == nil {
		match = MatchSubstring
	}
	key := model.Days[idx]

	out := s.Clone()
	kept := out[key][:0:0]
	removed := 0
	for _, item := range out[key] {
		if match(item.Title, matchTitle) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	out[key] = kept
	return out, removed, nil
}
