// Package week splits a normalized event list into Monday-aligned pages and
// clips events to each day's visible hours.
package week

import (
	"time"

	"icsweek/internal/model"
)

// Bucket is one week page.
type Bucket struct {
	WeekStart time.Time      // Monday 00:00
	WeekEnd   time.Time      // last instant of Sunday, or Friday without weekends
	Days      []time.Time    // 5 or 7 midnights, Monday first
	Events    []*model.Event // events overlapping [WeekStart, WeekEnd], feed order
}

// Empty reports whether no event overlaps the week.
func (b Bucket) Empty() bool {
	return len(b.Events) == 0
}

// MondayOf returns midnight of the Monday of t's week in loc.
func MondayOf(t time.Time, loc *time.Location) time.Time {
	day := model.StartOfDay(t, loc)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0, Sunday = 6
	return day.AddDate(0, 0, -offset)
}

// Overlaps is the inclusive overlap test shared by week and day assignment:
// the event starts inside [from, to], ends inside it, or spans it entirely.
func Overlaps(start, end, from, to time.Time) bool {
	startsWithin := !start.Before(from) && !start.After(to)
	endsWithin := !end.Before(from) && !end.After(to)
	spans := start.Before(from) && end.After(to)
	return startsWithin || endsWithin || spans
}

// Partition returns one bucket per Monday from the week of window.Start
// through window.End, in order, including weeks without events.
//
// Events are first filtered against the window (inclusive, whole days) and
// only the admitted ones are bucketed. An event lying entirely on an
// out-of-window day of a boundary week is therefore not shown, while an
// admitted event is listed in every week it overlaps.
func Partition(events []*model.Event, window model.DateWindow, includeWeekends bool, loc *time.Location) []Bucket {
	if loc == nil {
		loc = time.Local
	}
	winStart := model.StartOfDay(window.Start, loc)
	winEnd := model.EndOfDay(model.StartOfDay(window.End, loc))
	if winStart.After(winEnd) {
		return nil
	}

	admitted := make([]*model.Event, 0, len(events))
	for _, ev := range events {
		if Overlaps(ev.Start, ev.End, winStart, winEnd) {
			admitted = append(admitted, ev)
		}
	}

	dayCount := 5
	if includeWeekends {
		dayCount = 7
	}

	var buckets []Bucket
	for monday := MondayOf(winStart, loc); !monday.After(winEnd); monday = monday.AddDate(0, 0, 7) {
		b := Bucket{
			WeekStart: monday,
			WeekEnd:   model.EndOfDay(monday.AddDate(0, 0, dayCount-1)),
			Days:      make([]time.Time, dayCount),
		}
		for i := range b.Days {
			b.Days[i] = monday.AddDate(0, 0, i)
		}
		for _, ev := range admitted {
			if Overlaps(ev.Start, ev.End, b.WeekStart, b.WeekEnd) {
				b.Events = append(b.Events, ev)
			}
		}
		buckets = append(buckets, b)
	}
	return buckets
}
