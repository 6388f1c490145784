package ics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Payloads without a VCALENDAR wrapper are rejected by the grammar
// parser and land in the line-prefix fallback.
func TestFallback_BareVEventBlock(t *testing.T) {
	raw := "BEGIN:VEVENT\r\n" +
		"UID:bare-1\r\n" +
		"SUMMARY:Office Hours\r\n" +
		"LOCATION:Sloan 25\r\n" +
		"DTSTART:20241015T130000\r\n" +
		"DTEND:20241015T140000\r\n" +
		"END:VEVENT\r\n"

	events := Parse(raw, Options{Now: testNow})
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "bare-1", ev.UID)
	assert.Equal(t, "Office Hours", ev.Title)
	assert.Equal(t, "Sloan 25", ev.Location)
	assert.Equal(t, 13, ev.Start.Hour())
	assert.Equal(t, 14, ev.End.Hour())
	assert.False(t, ev.AllDay)
}

func TestFallback_DateOnlyStartIsAllDay(t *testing.T) {
	raw := "BEGIN:VEVENT\r\nUID:allday\r\nSUMMARY:Reading Day\r\nDTSTART:20241018\r\nEND:VEVENT\r\n"

	events := Parse(raw, Options{Now: testNow})
	require.Len(t, events, 1)
	assert.True(t, events[0].AllDay)
	assert.Equal(t, 18, events[0].Start.Day())
}

func TestFallback_ParameterizedProperties(t *testing.T) {
	raw := "BEGIN:VEVENT\r\nUID:tz-1\r\nSUMMARY:Seminar\r\n" +
		"DTSTART;TZID=America/Los_Angeles:20241015T090000\r\nEND:VEVENT\r\n"

	events := Parse(raw, Options{Now: testNow})
	require.Len(t, events, 1)
	assert.Equal(t, 9, events[0].Start.Hour(), "naive wall-clock reading, parameters ignored")
}

func TestFallback_MissingEndDefaultsToOneHour(t *testing.T) {
	raw := "BEGIN:VEVENT\r\nUID:x\r\nSUMMARY:Chat\r\nDTSTART:20241015T090000\r\nEND:VEVENT\r\n"

	events := Parse(raw, Options{Now: testNow})
	require.Len(t, events, 1)
	assert.Equal(t, events[0].Start.Add(time.Hour), events[0].End)
}

func TestFallback_SkipsBlocksWithoutStart(t *testing.T) {
	raw := "BEGIN:VEVENT\r\nUID:nostart\r\nSUMMARY:Broken\r\nEND:VEVENT\r\n" +
		"BEGIN:VEVENT\r\nUID:good\r\nSUMMARY:Fine\r\nDTSTART:20241015T090000\r\nEND:VEVENT\r\n"

	events := Parse(raw, Options{Now: testNow})
	require.Len(t, events, 1)
	assert.Equal(t, "good", events[0].UID)
}

func TestFallback_WindowFilter(t *testing.T) {
	raw := "BEGIN:VEVENT\r\nUID:old\r\nSUMMARY:Ancient\r\nDTSTART:20200101T090000\r\nEND:VEVENT\r\n"

	events := Parse(raw, Options{Now: testNow})
	assert.Empty(t, events)
}

func TestFallback_DuplicateUIDsDeduplicated(t *testing.T) {
	block := "BEGIN:VEVENT\r\nUID:dup\r\nSUMMARY:Twice\r\nDTSTART:20241015T090000\r\nEND:VEVENT\r\n"

	events := Parse(block+block, Options{Now: testNow})
	assert.Len(t, events, 1)
}
