package schedule

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekplan/internal/ics"
	"weekplan/internal/model"
)

var termEnd = time.Date(2024, 12, 13, 0, 0, 0, 0, time.Local)

func feedEvent(uid, title string, start time.Time, dur time.Duration) ics.Event {
	return ics.Event{UID: uid, Title: title, Start: start, End: start.Add(dur)}
}

func TestMergeFeed_EndToEnd(t *testing.T) {
	s := model.NewSchedule()
	s["Mon"] = []model.ScheduleItem{{
		ID: 1, Title: "Math Study", DueDate: "2024-10-14",
		Priority: model.PriorityMedium, Source: model.SourceManual,
	}}

	start := time.Date(2024, 10, 14, 14, 0, 0, 0, time.Local)
	events := []ics.Event{feedEvent("ev-1", "Advising Meeting", start, time.Hour)}

	out, nextID := MergeFeed(s, events, "https://cal.example.edu/me.ics", termEnd, 2)
	require.Len(t, out["Mon"], 2)
	assert.Equal(t, 3, nextID)

	assert.Equal(t, "Math Study", out["Mon"][0].Title, "manual item untouched")

	got := out["Mon"][1]
	assert.Equal(t, "Advising Meeting", got.Title)
	assert.Equal(t, "2:00 PM - 3:00 PM", got.Time)
	assert.Equal(t, "2024-10-14", got.DueDate)
	assert.Equal(t, model.SourceFeed, got.Source)
	assert.Equal(t, "ev-1", got.FeedUID)
	assert.Equal(t, "https://cal.example.edu/me.ics", got.FeedURL)
	assert.Equal(t, model.PriorityMedium, got.Priority)
}

func TestMergeFeed_Idempotent(t *testing.T) {
	s := model.NewSchedule()
	events := []ics.Event{
		feedEvent("a", "Lecture", time.Date(2024, 10, 14, 9, 0, 0, 0, time.Local), time.Hour),
		feedEvent("b", "Lab", time.Date(2024, 10, 16, 13, 0, 0, 0, time.Local), 2*time.Hour),
	}
	url := "https://cal.example.edu/me.ics"

	once, id1 := MergeFeed(s, events, url, termEnd, 1)
	twice, id2 := MergeFeed(once, events, url, termEnd, id1)

	// Ids advance, but the set of items per day is the same size with
	// the same identities.
	assert.Equal(t, id1+2, id2)
	for _, day := range model.Days {
		require.Equal(t, len(once[day]), len(twice[day]), day)
		for i := range once[day] {
			a, b := once[day][i], twice[day][i]
			assert.Equal(t, a.Title, b.Title)
			assert.Equal(t, a.Time, b.Time)
			assert.Equal(t, a.DueDate, b.DueDate)
			assert.Equal(t, a.FeedUID, b.FeedUID)
		}
	}
}

func TestMergeFeed_FeedIsolation(t *testing.T) {
	s := model.NewSchedule()
	tue := time.Date(2024, 10, 15, 10, 0, 0, 0, time.Local)

	s1, id := MergeFeed(s, []ics.Event{feedEvent("a1", "Feed A Event", tue, time.Hour)}, "https://a.example.com/a.ics", termEnd, 1)
	s2, id := MergeFeed(s1, []ics.Event{feedEvent("b1", "Feed B Event", tue, time.Hour)}, "https://b.example.com/b.ics", termEnd, id)

	// Re-sync feed A with nothing; feed B's item must survive.
	s3, _ := MergeFeed(s2, nil, "https://a.example.com/a.ics", termEnd, id)
	require.Len(t, s3["Tue"], 1)
	assert.Equal(t, "Feed B Event", s3["Tue"][0].Title)
}

func TestMergeFeed_ManualItemsNeverRemoved(t *testing.T) {
	s := model.NewSchedule()
	s["Fri"] = []model.ScheduleItem{{ID: 9, Title: "Call Home", Priority: model.PriorityLow, Source: model.SourceManual}}

	out, _ := MergeFeed(s, nil, "https://a.example.com/a.ics", termEnd, 10)
	require.Len(t, out["Fri"], 1)
	assert.Equal(t, "Call Home", out["Fri"][0].Title)
}

func TestMergeFeed_DropsEventsPastTermEnd(t *testing.T) {
	s := model.NewSchedule()
	after := termEnd.AddDate(0, 1, 0)

	out, nextID := MergeFeed(s, []ics.Event{feedEvent("x", "Winter Thing", after, time.Hour)}, "u", termEnd, 1)
	assert.Equal(t, 1, nextID)
	for _, day := range model.Days {
		assert.Empty(t, out[day])
	}
}

func TestMergeFeed_AllDayEventHasNoTime(t *testing.T) {
	s := model.NewSchedule()
	ev := ics.Event{
		UID: "d", Title: "Reading Day", AllDay: true,
		Start: time.Date(2024, 10, 18, 0, 0, 0, 0, time.Local),
		End:   time.Date(2024, 10, 19, 0, 0, 0, 0, time.Local),
	}

	out, _ := MergeFeed(s, []ics.Event{ev}, "u", termEnd, 1)
	require.Len(t, out["Fri"], 1)
	assert.Empty(t, out["Fri"][0].Time)
}

func TestMergeFeed_LocationAppendedUnlessPresent(t *testing.T) {
	s := model.NewSchedule()
	mon := time.Date(2024, 10, 14, 9, 0, 0, 0, time.Local)
	events := []ics.Event{
		{UID: "1", Title: "Chem Lecture", Location: "Fulmer 150", Start: mon, End: mon.Add(time.Hour)},
		{UID: "2", Title: "Seminar in Fulmer 201", Location: "fulmer 201", Start: mon.Add(2 * time.Hour), End: mon.Add(3 * time.Hour)},
	}

	out, _ := MergeFeed(s, events, "u", termEnd, 1)
	require.Len(t, out["Mon"], 2)
	assert.Equal(t, "Chem Lecture @ Fulmer 150", out["Mon"][0].Title)
	assert.Equal(t, "Seminar in Fulmer 201", out["Mon"][1].Title, "location already embedded, case-insensitively")
}

func TestMergeFeed_LongTitlesTruncated(t *testing.T) {
	s := model.NewSchedule()
	mon := time.Date(2024, 10, 14, 9, 0, 0, 0, time.Local)
	long := strings.Repeat("a", 120)

	out, _ := MergeFeed(s, []ics.Event{feedEvent("1", long, mon, time.Hour)}, "u", termEnd, 1)
	require.Len(t, out["Mon"], 1)
	title := out["Mon"][0].Title
	assert.Len(t, title, 100)
	assert.True(t, strings.HasSuffix(title, "..."))
}

func weekOf(t *testing.T, day string) [7]time.Time {
	t.Helper()
	ref, err := time.ParseInLocation(model.DateLayout, day, time.Local)
	require.NoError(t, err)
	return model.WeekDates(ref)
}

func TestMergeFull_ReplacesOnlyTargetWeek(t *testing.T) {
	s := model.NewSchedule()
	s["Mon"] = []model.ScheduleItem{
		{ID: 1, Title: "This Week Class", DueDate: "2024-10-14", Priority: model.PriorityHigh},
		{ID: 2, Title: "Next Week Class", DueDate: "2024-10-21", Priority: model.PriorityHigh},
		{ID: 3, Title: "Legacy Undated", Priority: model.PriorityLow},
	}

	proposal := []DayBlocks{{
		Day: "Monday",
		Blocks: []Block{
			{Title: "New Plan", Type: BlockStudy, StartTime: "09:00", EndTime: "10:00"},
		},
	}}

	out, nextID := MergeFull(s, proposal, weekOf(t, "2024-10-14"), 10)
	assert.Equal(t, 11, nextID)

	titles := []string{}
	for _, item := range out["Mon"] {
		titles = append(titles, item.Title)
	}
	assert.NotContains(t, titles, "This Week Class", "in-week item replaced")
	assert.Contains(t, titles, "Next Week Class", "other weeks preserved")
	assert.Contains(t, titles, "Legacy Undated", "undated legacy items preserved")
	assert.Contains(t, titles, "New Plan")
}

func TestMergeFull_DedupAcrossSpellings(t *testing.T) {
	s := model.NewSchedule()
	proposal := []DayBlocks{{
		Day: "Monday",
		Blocks: []Block{
			{Title: "Hist 101", Type: BlockClass, StartTime: "09:00", EndTime: "10:00"},
			{Title: "history 101", Type: BlockClass, StartTime: "09:00", EndTime: "10:00"},
		},
	}}

	out, _ := MergeFull(s, proposal, weekOf(t, "2024-10-14"), 1)
	require.Len(t, out["Mon"], 1)
	assert.Equal(t, "Hist 101", out["Mon"][0].Title, "first occurrence wins")
}

func TestMergeFull_SkipsBlocksMissingTimes(t *testing.T) {
	s := model.NewSchedule()
	proposal := []DayBlocks{{
		Day: "Tuesday",
		Blocks: []Block{
			{Title: "No End", Type: BlockStudy, StartTime: "09:00"},
			{Title: "No Start", Type: BlockStudy, EndTime: "10:00"},
			{Title: "Complete", Type: BlockStudy, StartTime: "09:00", EndTime: "10:00"},
		},
	}}

	out, _ := MergeFull(s, proposal, weekOf(t, "2024-10-14"), 1)
	require.Len(t, out["Tue"], 1)
	assert.Equal(t, "Complete", out["Tue"][0].Title)
}

func TestMergeFull_PriorityMapping(t *testing.T) {
	s := model.NewSchedule()
	proposal := []DayBlocks{{
		Day: "Wednesday",
		Blocks: []Block{
			{Title: "Class", Type: BlockClass, StartTime: "08:00", EndTime: "09:00"},
			{Title: "Shift", Type: BlockWork, StartTime: "10:00", EndTime: "12:00"},
			{Title: "Review", Type: BlockStudy, StartTime: "13:00", EndTime: "14:00"},
			{Title: "Practice", Type: BlockAthletic, StartTime: "15:00", EndTime: "16:00"},
			{Title: "Dinner", Type: BlockPersonal, StartTime: "18:00", EndTime: "19:00"},
			{Title: "Mystery", Type: "retreat", StartTime: "20:00", EndTime: "21:00"},
		},
	}}

	out, _ := MergeFull(s, proposal, weekOf(t, "2024-10-14"), 1)
	require.Len(t, out["Wed"], 6)
	want := []model.Priority{
		model.PriorityHigh, model.PriorityHigh,
		model.PriorityMedium, model.PriorityMedium,
		model.PriorityLow, model.PriorityMedium,
	}
	for i, item := range out["Wed"] {
		assert.Equal(t, want[i], item.Priority, item.Title)
	}
}

func TestMergeFull_UnknownDayIgnored(t *testing.T) {
	s := model.NewSchedule()
	proposal := []DayBlocks{{
		Day:    "Someday",
		Blocks: []Block{{Title: "x", Type: BlockStudy, StartTime: "09:00", EndTime: "10:00"}},
	}}

	out, nextID := MergeFull(s, proposal, weekOf(t, "2024-10-14"), 1)
	assert.Equal(t, 1, nextID)
	for _, day := range model.Days {
		assert.Empty(t, out[day])
	}
}

func TestMergeFull_InputNotMutated(t *testing.T) {
	s := model.NewSchedule()
	s["Mon"] = []model.ScheduleItem{{ID: 1, Title: "Keep", DueDate: "2024-10-14", Priority: model.PriorityLow}}

	_, _ = MergeFull(s, nil, weekOf(t, "2024-10-14"), 2)
	require.Len(t, s["Mon"], 1, "input schedule must not change")
	assert.Equal(t, "Keep", s["Mon"][0].Title)
}
