package schedule

import (
	"time"

	"weekplan/internal/ics"
	"weekplan/internal/model"
)

// MergeFeed folds one subscription's parsed events into the store.
// Every existing item owned by this feed (source ical with a matching
// feed URL) is removed first, so a re-sync replaces exactly its own
// items and never disturbs another feed's or any manual entry. Events
// starting after the term end are dropped. Idempotent for the same
// event list and URL.
func MergeFeed(s model.Schedule, events []ics.Event, feedURL string, termEnd time.Time, nextID int) (model.Schedule, int) {
	out := s.Clone()

	for _, day := range model.Days {
		kept := out[day][:0:0]
		for _, item := range out[day] {
			if item.Source == model.SourceFeed && item.FeedURL == feedURL {
				continue
			}
			kept = append(kept, item)
		}
		out[day] = kept
	}

	for _, ev := range events {
		if ev.Start.After(termEnd) {
			continue
		}

		item := model.ScheduleItem{
			ID:       nextID,
			Title:    buildTitle(ev.Title, ev.Location),
			DueDate:  model.DateString(ev.Start),
			Priority: model.PriorityMedium,
			Source:   model.SourceFeed,
			FeedUID:  ev.UID,
			FeedURL:  feedURL,
		}
		if !ev.AllDay {
			item.Time = model.FormatTimeRange(ev.Start, ev.End)
		}

		day := model.DayKey(ev.Start)
		out[day] = append(out[day], item)
		nextID++
	}

	return out, nextID
}

// TransformFull converts a full agent proposal into dated items for
// the given week. Blocks missing either time are skipped silently.
// Proposal days that resolve to no known weekday are ignored.
func TransformFull(proposal []DayBlocks, weekDates [7]time.Time, nextID int) (model.Schedule, int) {
	out := model.NewSchedule()

	for _, dayBlocks := range proposal {
		idx, ok := model.DayIndex(dayBlocks.Day)
		if !ok {
			continue
		}
		key := model.Days[idx]
		due := model.DateString(weekDates[idx])

		for _, b := range dayBlocks.Blocks {
			item, ok := blockToItem(b, nextID, due)
			if !ok {
				continue
			}
			out[key] = append(out[key], item)
			nextID++
		}
	}

	return out, nextID
}

// MergeForWeek replaces the target week's contents with incoming
// items. Existing items survive when they carry no due date (legacy
// entries) or a due date outside the week; everything dated inside the
// week is discarded. Incoming items are deduplicated among themselves
// by (canonical title, weekday, time), first occurrence wins.
func MergeForWeek(existing, incoming model.Schedule, weekDates [7]time.Time) model.Schedule {
	inWeek := make(map[string]bool, 7)
	for _, d := range weekDates {
		inWeek[model.DateString(d)] = true
	}

	out := model.NewSchedule()
	for _, day := range model.Days {
		var kept []model.ScheduleItem
		for _, item := range existing[day] {
			if item.DueDate == "" || !inWeek[item.DueDate] {
				kept = append(kept, item)
			}
		}

		seen := make(map[string]bool)
		for _, item := range incoming[day] {
			key := dedupeKey(item, day)
			if seen[key] {
				continue
			}
			seen[key] = true
			kept = append(kept, item)
		}
		out[day] = kept
	}

	return out
}

// MergeFull applies a full schedule proposal to the target week:
// transform, then week-scoped replacement with deduplication.
func MergeFull(s model.Schedule, proposal []DayBlocks, weekDates [7]time.Time, nextID int) (model.Schedule, int) {
	incoming, nextID := TransformFull(proposal, weekDates, nextID)
	return MergeForWeek(s, incoming, weekDates), nextID
}
