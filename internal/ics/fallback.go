package ics

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// parseFallback is the pattern-based extractor used when the calendar
// grammar parser rejects the payload. It understands only single
// non-recurring VEVENT blocks, reading SUMMARY/UID/DTSTART/DTEND/
// LOCATION by line prefix. An 8-digit DTSTART (date-only precision)
// marks an all-day event.
func parseFallback(raw string, rangeStart, rangeEnd time.Time) []Event {
	var events []Event
	for _, block := range veventBlocks(raw) {
		startVal := blockProperty(block, "DTSTART")
		if startVal == "" {
			continue
		}
		start, err := parseStamp(startVal)
		if err != nil {
			continue
		}

		end := start.Add(time.Hour)
		if endVal := blockProperty(block, "DTEND"); endVal != "" {
			if t, err := parseStamp(endVal); err == nil && t.After(start) {
				end = t
			}
		}

		if start.Before(rangeStart) || start.After(rangeEnd) {
			continue
		}

		title := strings.TrimSpace(strings.ReplaceAll(blockProperty(block, "SUMMARY"), `\n`, "\n"))
		if title == "" {
			title = defaultTitle
		}
		uid := blockProperty(block, "UID")
		if uid == "" {
			uid = "evt-" + uuid.NewString()
		}

		events = append(events, Event{
			UID:      uid,
			Title:    title,
			Start:    start,
			End:      end,
			AllDay:   len(stripStampSeparators(startVal)) == 8,
			Location: blockProperty(block, "LOCATION"),
		})
	}
	return events
}

// veventBlocks slices the payload into BEGIN:VEVENT..END:VEVENT spans.
func veventBlocks(raw string) []string {
	var blocks []string
	rest := raw
	for {
		i := strings.Index(rest, "BEGIN:VEVENT")
		if i < 0 {
			break
		}
		rest = rest[i:]
		j := strings.Index(rest, "END:VEVENT")
		if j < 0 {
			break
		}
		blocks = append(blocks, rest[:j])
		rest = rest[j+len("END:VEVENT"):]
	}
	return blocks
}

// blockProperty finds a property value by line prefix, tolerating
// parameters between the name and the colon (DTSTART;TZID=...:value).
func blockProperty(block, name string) string {
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimRight(line, "\r")
		if !strings.HasPrefix(line, name) {
			continue
		}
		rest := line[len(name):]
		if rest == "" || (rest[0] != ':' && rest[0] != ';') {
			continue
		}
		if _, value, found := strings.Cut(rest, ":"); found {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func stripStampSeparators(v string) string {
	return strings.NewReplacer("-", "", ":", "", "Z", "").Replace(strings.TrimSpace(v))
}
