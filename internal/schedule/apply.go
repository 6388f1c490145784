package schedule

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	applog "weekplan/internal/log"
	"weekplan/internal/model"
)

// TitleMatcher decides whether an existing item's title is targeted by
// a change operation's match string. The matching strategy is a
// replaceable policy: substring matching tolerates paraphrased titles
// from the agent but carries false-positive risk, so callers wanting
// stricter behavior can swap in MatchExact.
type TitleMatcher func(title, match string) bool

// MatchSubstring is the default policy: case-insensitive containment.
func MatchSubstring(title, match string) bool {
	return strings.Contains(strings.ToLower(title), strings.ToLower(match))
}

// MatchExact matches on the canonical lowercase form only.
func MatchExact(title, match string) bool {
	return strings.EqualFold(strings.TrimSpace(title), strings.TrimSpace(match))
}

// ApplyOptions tune the diff applicator.
type ApplyOptions struct {
	Match  TitleMatcher // nil means MatchSubstring
	Expand ExpandOptions
}

// ApplyChanges applies the agent's incremental operations in order and
// returns the new store and id counter. The batch is not transactional:
// an operation naming an unknown weekday is logged and skipped, earlier
// operations stand. Afterwards every weekday list is re-sorted by
// start time, undated-or-untimed items last, otherwise stable.
func ApplyChanges(s model.Schedule, changes []Change, weekDates [7]time.Time, nextID int, termEnd time.Time, opts ApplyOptions) (model.Schedule, int) {
	match := opts.Match
	if match == nil {
		match = MatchSubstring
	}

	out := s.Clone()

	for _, ch := range changes {
		idx, ok := model.DayIndex(ch.Day)
		if !ok {
			applog.Warn("skipping change with unknown weekday", "day", ch.Day, "action", string(ch.Action))
			continue
		}
		day := model.Days[idx]

		switch ch.Action {
		case ActionRemove:
			kept := out[day][:0:0]
			for _, item := range out[day] {
				if match(item.Title, ch.MatchTitle) {
					continue
				}
				kept = append(kept, item)
			}
			out[day] = kept

		case ActionAdd:
			if ch.Block == nil {
				continue
			}
			nextID = addBlock(out, *ch.Block, idx, weekDates, termEnd, nextID, opts.Expand)

		case ActionModify:
			if ch.Block == nil {
				continue
			}
			for i, item := range out[day] {
				if !match(item.Title, ch.MatchTitle) {
					continue
				}
				repl, ok := blockToItem(*ch.Block, item.ID, item.DueDate)
				if !ok {
					continue
				}
				// Identity and completion state survive a modify.
				repl.Completed = item.Completed
				repl.Source = item.Source
				repl.FeedUID = item.FeedUID
				repl.FeedURL = item.FeedURL
				repl.RepeatGroup = item.RepeatGroup
				out[day][i] = repl
			}

		default:
			applog.Warn("skipping change with unknown action", "action", string(ch.Action))
		}
	}

	SortDays(out)
	return out, nextID
}

// addBlock inserts one block, replicating it weekly through the term
// when the block is marked recurring (closing week excluded under the
// same policy as template expansion).
func addBlock(s model.Schedule, b Block, dayIdx int, weekDates [7]time.Time, termEnd time.Time, nextID int, opts ExpandOptions) int {
	day := model.Days[dayIdx]
	date := weekDates[dayIdx]

	if !b.IsRecurring {
		item, ok := blockToItem(b, nextID, model.DateString(date))
		if !ok {
			return nextID
		}
		s[day] = append(s[day], item)
		return nextID + 1
	}

	group := uuid.NewString()
	closingWeek := model.WeekStart(termEnd)
	for ws := model.WeekStart(date); ; ws = ws.AddDate(0, 0, 7) {
		if opts.IncludeClosingWeek {
			if ws.After(closingWeek) {
				break
			}
		} else if !ws.Before(closingWeek) {
			break
		}
		occDate := ws.AddDate(0, 0, dayIdx)
		if occDate.Before(date) || occDate.After(termEnd) {
			continue
		}
		item, ok := blockToItem(b, nextID, model.DateString(occDate))
		if !ok {
			return nextID
		}
		item.RepeatGroup = group
		s[day] = append(s[day], item)
		nextID++
	}
	return nextID
}

// SortDays orders every weekday's items by start time ascending, with
// untimed items kept after timed ones in their original order.
func SortDays(s model.Schedule) {
	for _, day := range model.Days {
		items := s[day]
		sort.SliceStable(items, func(i, j int) bool {
			mi, iok := model.StartMinutes(items[i].Time)
			mj, jok := model.StartMinutes(items[j].Time)
			if iok != jok {
				return iok
			}
			if !iok {
				return false
			}
			return mi < mj
		})
	}
}
