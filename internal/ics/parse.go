package ics

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	appLog "icsweek/internal/log"
	"icsweek/internal/model"
)

// RepairDuration is the length given to events whose end is not after their start.
const RepairDuration = time.Hour

// EntryStatus is the outcome of normalizing one VEVENT.
type EntryStatus int

const (
	EntryOK EntryStatus = iota
	EntryRepaired
	EntryDropped
)

func (s EntryStatus) String() string {
	switch s {
	case EntryOK:
		return "ok"
	case EntryRepaired:
		return "repaired"
	case EntryDropped:
		return "dropped"
	default:
		return fmt.Sprintf("EntryStatus(%d)", int(s))
	}
}

// Entry records what happened to a single VEVENT of the feed.
type Entry struct {
	Index   int // position of the VEVENT in the feed
	UID     string
	Summary string
	Status  EntryStatus
	Reason  string       // set for repaired and dropped entries
	Event   *model.Event // nil when dropped
}

// Feed is the normalized content of one calendar payload.
type Feed struct {
	Source  string
	Events  []*model.Event // sorted by start, end, summary, uid
	Entries []Entry
}

// Dropped returns the entries that did not produce an event.
func (f *Feed) Dropped() []Entry {
	var out []Entry
	for _, e := range f.Entries {
		if e.Status == EntryDropped {
			out = append(out, e)
		}
	}
	return out
}

// Repaired returns the number of entries whose end was rewritten.
func (f *Feed) Repaired() int {
	n := 0
	for _, e := range f.Entries {
		if e.Status == EntryRepaired {
			n++
		}
	}
	return n
}

// Normalize parses an ICS payload into a Feed.
//
//   - Every VEVENT produces an Entry. The end comes from DTEND, else from
//     DURATION, else one day for DATE starts. Entries without a usable
//     DTSTART, or with an unreadable DTEND or DURATION, are dropped;
//     entries whose end is not after their start are repaired to
//     start + RepairDuration.
//   - Instants are converted into loc (time.Local when nil).
//   - A ParseError is returned for an empty body, an unparseable calendar,
//     or when no event survives.
func Normalize(source string, body []byte, loc *time.Location) (*Feed, error) {
	if loc == nil {
		loc = time.Local
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &ParseError{Source: source, Err: ErrEmptyFeed}
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "source", redactURL(source))
		return nil, &ParseError{Source: source, Err: err}
	}

	feed := &Feed{Source: source}
	for i, comp := range cal.Events() {
		entry := normalizeVEvent(source, i, comp, loc)
		if entry.Status == EntryDropped {
			// Log and skip this event, but keep parsing others.
			appLog.Debug("ics vevent dropped", "source", redactURL(source), "index", i, "uid", entry.UID, "reason", entry.Reason)
		} else {
			feed.Events = append(feed.Events, entry.Event)
		}
		feed.Entries = append(feed.Entries, entry)
	}

	if len(feed.Events) == 0 {
		return nil, &ParseError{Source: source, Err: ErrNoEvents}
	}

	slices.SortStableFunc(feed.Events, compareEvents)

	appLog.Info("ics parse completed",
		"source", redactURL(source),
		"event_count", len(feed.Events),
		"dropped", len(feed.Entries)-len(feed.Events),
		"repaired", feed.Repaired(),
	)
	return feed, nil
}

func normalizeVEvent(source string, index int, ve *ical.VEvent, loc *time.Location) Entry {
	entry := Entry{Index: index}

	var ev model.Event
	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		ev.UID = strings.TrimSpace(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Summary = strings.TrimSpace(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		ev.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		ev.Location = strings.TrimSpace(p.Value)
	}
	entry.UID = ev.UID
	entry.Summary = ev.Summary

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || strings.TrimSpace(dtStart.Value) == "" {
		return dropped(entry, "missing DTSTART")
	}
	ev.AllDay = isDateValue(dtStart)

	var start time.Time
	var err error
	if ev.AllDay {
		// All-day values carry no zone; they cover local midnight to midnight.
		if start, err = parseICSDate(dtStart.Value, loc); err != nil {
			return dropped(entry, fmt.Sprintf("invalid DTSTART %q", dtStart.Value))
		}
	} else {
		// The library resolves TZID / UTC forms for us.
		if start, err = ve.GetStartAt(); err != nil {
			return dropped(entry, fmt.Sprintf("invalid DTSTART %q", dtStart.Value))
		}
		start = start.In(loc)
	}

	end, reason := eventEnd(ve, start, ev.AllDay, loc)
	if reason != "" {
		return dropped(entry, reason)
	}
	if start.IsZero() || end.IsZero() {
		return dropped(entry, "zero instant")
	}

	entry.Status = EntryOK
	if !end.After(start) {
		end = start.Add(RepairDuration)
		entry.Status = EntryRepaired
		entry.Reason = "end not after start; extended by one hour"
	}
	ev.Start, ev.End = start, end

	if ev.UID == "" {
		ev.UID = syntheticUID(source, ev)
	}
	entry.UID = ev.UID
	entry.Event = &ev
	return entry
}

// eventEnd resolves the end instant from DTEND, then DURATION. With neither,
// a DATE start lasts one day and a DATE-TIME start ends where it begins,
// which the caller repairs. A non-empty reason means the entry is dropped.
func eventEnd(ve *ical.VEvent, start time.Time, allDay bool, loc *time.Location) (time.Time, string) {
	if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil && strings.TrimSpace(p.Value) != "" {
		if allDay {
			end, err := parseICSDate(p.Value, loc)
			if err != nil {
				return time.Time{}, fmt.Sprintf("invalid DTEND %q", p.Value)
			}
			return end, ""
		}
		end, err := ve.GetEndAt()
		if err != nil {
			return time.Time{}, fmt.Sprintf("invalid DTEND %q", p.Value)
		}
		return end.In(loc), ""
	}
	if p := ve.GetProperty(ical.ComponentPropertyDuration); p != nil && strings.TrimSpace(p.Value) != "" {
		d, err := parseICSDuration(p.Value)
		if err != nil {
			return time.Time{}, fmt.Sprintf("invalid DURATION %q", p.Value)
		}
		return d.addTo(start), ""
	}
	if allDay {
		return start.AddDate(0, 0, 1), ""
	}
	return start, ""
}

func dropped(e Entry, reason string) Entry {
	e.Status = EntryDropped
	e.Reason = reason
	return e
}

// isDateValue detects all-day values: VALUE=DATE or no time part.
func isDateValue(p *ical.IANAProperty) bool {
	if params := p.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			return true
		}
	}
	return !strings.Contains(p.Value, "T")
}

// parseICSDate parses a DATE value (YYYYMMDD) as midnight in loc.
func parseICSDate(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty date value")
	}
	const layoutDate = "20060102"
	return time.ParseInLocation(layoutDate, v, loc)
}

// syntheticUID derives a stable identifier for events that carry no UID.
func syntheticUID(source string, ev model.Event) string {
	name := source + "|" + ev.Summary + "|" + ev.Start.UTC().Format(time.RFC3339Nano)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

func compareEvents(a, b *model.Event) int {
	if c := a.Start.Compare(b.Start); c != 0 {
		return c
	}
	if c := a.End.Compare(b.End); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Summary, b.Summary); c != 0 {
		return c
	}
	return cmp.Compare(a.UID, b.UID)
}
