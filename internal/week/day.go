package week

import (
	"time"

	"icsweek/internal/model"
)

// Visible reports whether [start, end) intersects the hour window of day
// with positive length.
func Visible(start, end time.Time, day time.Time, hours model.HourRange) bool {
	winStart, winEnd := hours.Window(day)
	return end.After(winStart) && start.Before(winEnd)
}

// Truncate clips ev to the hour window of day. The event itself is not
// modified; the clipped interval only drives geometry.
func Truncate(ev *model.Event, day time.Time, hours model.HourRange) model.Segment {
	winStart, winEnd := hours.Window(day)
	seg := model.Segment{
		Event:        ev,
		Day:          day,
		DisplayStart: ev.Start,
		DisplayEnd:   ev.End,
	}
	if seg.DisplayStart.Before(winStart) {
		seg.DisplayStart = winStart
		seg.ClippedStart = true
	}
	if seg.DisplayEnd.After(winEnd) {
		seg.DisplayEnd = winEnd
		seg.ClippedEnd = true
	}
	return seg
}

// DaySegments returns the visible, clipped segments of events on day.
// day must be a midnight; events keep their input order.
func DaySegments(day time.Time, events []*model.Event, hours model.HourRange) []model.Segment {
	dayEnd := model.EndOfDay(day)

	var out []model.Segment
	for _, ev := range events {
		if !Overlaps(ev.Start, ev.End, day, dayEnd) {
			continue
		}
		if !Visible(ev.Start, ev.End, day, hours) {
			continue
		}
		out = append(out, Truncate(ev, day, hours))
	}
	return out
}
