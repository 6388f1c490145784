package ics

import (
	"errors"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	applog "weekplan/internal/log"
)

// Parse converts raw feed text into events. It never fails: a payload
// the calendar grammar cannot handle degrades to the line-prefix
// fallback parser, and a payload neither understands yields an empty
// slice. Individual malformed VEVENTs are skipped, not fatal.
func Parse(raw string, opts Options) []Event {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	now, maxOcc := opts.normalized()
	rangeStart, rangeEnd := window(now)

	cal, err := ical.ParseCalendar(strings.NewReader(raw))
	if err != nil {
		applog.Warn("ics grammar parse failed, using fallback parser", "reason", err)
		return dedupe(parseFallback(raw, rangeStart, rangeEnd))
	}

	var events []Event
	for _, ve := range cal.Events() {
		evs, verr := parseVEvent(ve, rangeStart, rangeEnd, maxOcc)
		if verr != nil {
			applog.Warn("skipping malformed vevent", "reason", verr)
			continue
		}
		events = append(events, evs...)
	}

	return dedupe(events)
}

// parseVEvent normalizes one VEVENT, unrolling recurrence when an
// RRULE is present.
func parseVEvent(ve *ical.VEvent, rangeStart, rangeEnd time.Time, maxOcc int) ([]Event, error) {
	uid := propValue(ve, ical.ComponentPropertyUniqueId)
	if uid == "" {
		uid = "evt-" + uuid.NewString()
	}

	title := strings.TrimSpace(propValue(ve, ical.ComponentPropertySummary))
	if title == "" {
		title = defaultTitle
	}
	location := propValue(ve, ical.ComponentPropertyLocation)

	startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil || startProp.Value == "" {
		return nil, errors.New("missing DTSTART")
	}

	allDay := isAllDay(startProp)

	start, err := ve.GetStartAt()
	if err != nil {
		// Library rejects date-only values in some forms; fall back to
		// parsing the raw property.
		start, err = parseStamp(startProp.Value)
		if err != nil {
			return nil, err
		}
	}

	end, err := ve.GetEndAt()
	if err != nil {
		if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil {
			end, err = parseStamp(p.Value)
		}
		if err != nil {
			// Missing or unreadable end defaults to one hour.
			end = start.Add(time.Hour)
		}
	}
	if !end.After(start) {
		end = start.Add(time.Hour)
	}

	base := Event{
		UID:      uid,
		Title:    title,
		Start:    start,
		End:      end,
		AllDay:   allDay,
		Location: location,
	}

	rawRule := propValue(ve, ical.ComponentPropertyRrule)
	if rawRule == "" {
		if start.Before(rangeStart) || start.After(rangeEnd) {
			return nil, nil
		}
		return []Event{base}, nil
	}

	return unroll(ve, base, rawRule, rangeStart, rangeEnd, maxOcc)
}

// unroll expands a recurring VEVENT into per-occurrence events, in
// chronological order, stopping at the first occurrence past the
// window's upper bound and capping the iteration count regardless of
// window to bound pathological rules.
func unroll(ve *ical.VEvent, base Event, rawRule string, rangeStart, rangeEnd time.Time, maxOcc int) ([]Event, error) {
	r, err := rrule.StrToRRule(rawRule)
	if err != nil {
		applog.Warn("unparseable RRULE, keeping single occurrence", "uid", base.UID, "rrule", rawRule)
		if base.Start.Before(rangeStart) || base.Start.After(rangeEnd) {
			return nil, nil
		}
		return []Event{base}, nil
	}
	r.DTStart(base.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range exDates(ve) {
		set.ExDate(ex)
	}

	dur := base.End.Sub(base.Start)

	var out []Event
	next := set.Iterator()
	for count := 0; count < maxOcc; count++ {
		occStart, ok := next()
		if !ok {
			break
		}
		if occStart.After(rangeEnd) {
			break
		}
		if occStart.Before(rangeStart) {
			continue
		}

		ev := base
		if base.AllDay {
			day := time.Date(occStart.Year(), occStart.Month(), occStart.Day(), 0, 0, 0, 0, occStart.Location())
			ev.Start = day
			ev.End = day.Add(24 * time.Hour)
		} else {
			ev.Start = occStart
			ev.End = occStart.Add(dur)
		}
		// Per-occurrence identity so one instance can be replaced on
		// re-sync without touching its siblings.
		ev.UID = base.UID + "-" + occStart.Format("20060102T150405")
		out = append(out, ev)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func exDates(ve *ical.VEvent) []time.Time {
	var out []time.Time
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseStamp(part); err == nil {
				out = append(out, t)
			}
		}
	}
	return out
}

// isAllDay reports date-only precision: an explicit VALUE=DATE
// parameter or a value without a time component.
func isAllDay(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func propValue(ve *ical.VEvent, name ical.ComponentProperty) string {
	if p := ve.GetProperty(name); p != nil {
		return p.Value
	}
	return ""
}

// parseStamp reads a basic ICS date or date-time value. All times are
// naive local wall clock; a trailing Z is dropped rather than shifted,
// since course feeds publish wall-clock meeting times.
func parseStamp(v string) (time.Time, error) {
	cleaned := strings.TrimSuffix(strings.TrimSpace(v), "Z")
	cleaned = strings.NewReplacer("-", "", ":", "").Replace(cleaned)
	switch {
	case len(cleaned) == 8:
		return time.ParseInLocation("20060102", cleaned, time.Local)
	case len(cleaned) >= 15:
		return time.ParseInLocation("20060102T150405", cleaned[:15], time.Local)
	}
	return time.Time{}, errors.New("unrecognized ICS timestamp " + v)
}

// dedupe drops events repeating an already-seen UID, first wins.
func dedupe(events []Event) []Event {
	if len(events) < 2 {
		return events
	}
	seen := make(map[string]struct{}, len(events))
	out := events[:0]
	for _, ev := range events {
		if _, dup := seen[ev.UID]; dup {
			continue
		}
		seen[ev.UID] = struct{}{}
		out = append(out, ev)
	}
	return out
}
