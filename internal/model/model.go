package model

import (
	"errors"
	"fmt"
	"time"
)

// UntitledPlaceholder is displayed for events whose SUMMARY is empty.
const UntitledPlaceholder = "(untitled)"

var (
	ErrInvalidWindow = errors.New("window start must be on or before window end")
	ErrInvalidHours  = errors.New("hour range must satisfy 0 <= start < end <= 24")
)

// Event is one normalized calendar occurrence. It is produced by the feed
// normalizer and never mutated afterwards; layout code works on Segments.
type Event struct {
	UID string

	Summary     string
	Description string
	Location    string

	AllDay bool

	// Start / End are in the display timezone. End is always after Start.
	Start time.Time
	End   time.Time
}

// Title returns the summary, or the placeholder when it is empty.
func (e *Event) Title() string {
	if e.Summary == "" {
		return UntitledPlaceholder
	}
	return e.Summary
}

// Duration returns End - Start.
func (e *Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Segment is a display-scoped view of an Event on one day, clipped to that
// day's visible hour window. The underlying Event keeps the true instants
// for labels.
type Segment struct {
	Event *Event
	Day   time.Time // midnight of the day this segment renders on

	DisplayStart time.Time
	DisplayEnd   time.Time

	// ClippedStart / ClippedEnd report whether the display interval was cut
	// at the window boundaries.
	ClippedStart bool
	ClippedEnd   bool
}

// DateWindow is an inclusive range of calendar dates.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// NewDateWindow truncates both ends to midnight in loc.
func NewDateWindow(start, end time.Time, loc *time.Location) DateWindow {
	return DateWindow{Start: StartOfDay(start, loc), End: StartOfDay(end, loc)}
}

// Validate reports ErrInvalidWindow when Start is after End.
func (w DateWindow) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("%w: window is not set", ErrInvalidWindow)
	}
	if w.Start.After(w.End) {
		return ErrInvalidWindow
	}
	return nil
}

// Bounds returns the first and last instant covered by the window.
func (w DateWindow) Bounds() (time.Time, time.Time) {
	return w.Start, EndOfDay(w.End)
}

// HourRange is the visible portion of each day, in whole hours.
type HourRange struct {
	Start int `yaml:"start" json:"start"`
	End   int `yaml:"end" json:"end"`
}

// Hours returns the number of hour rows.
func (h HourRange) Hours() int {
	return h.End - h.Start
}

func (h HourRange) Validate() error {
	if h.Start < 0 || h.End > 24 || h.Start >= h.End {
		return fmt.Errorf("%w: got %d-%d", ErrInvalidHours, h.Start, h.End)
	}
	return nil
}

// Window returns the visible interval of the given day.
// Hour 24 resolves to the next midnight.
func (h HourRange) Window(day time.Time) (time.Time, time.Time) {
	y, m, d := day.Date()
	loc := day.Location()
	return time.Date(y, m, d, h.Start, 0, 0, 0, loc), time.Date(y, m, d, h.End, 0, 0, 0, loc)
}

// Options is the typed configuration record consumed by the layout core.
type Options struct {
	Window             DateWindow
	IncludeWeekends    bool
	Hours              HourRange
	Theme              string
	ShowEventTimes     bool
	ShowEventLocations bool

	// Location is the display timezone; nil means time.Local.
	Location *time.Location
}

// DayCount returns 7 with weekends, 5 otherwise.
func (o Options) DayCount() int {
	if o.IncludeWeekends {
		return 7
	}
	return 5
}

// Loc returns the display location, defaulting to time.Local.
func (o Options) Loc() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

// Validate checks the window and hour range once at the boundary.
func (o Options) Validate() error {
	if err := o.Window.Validate(); err != nil {
		return err
	}
	return o.Hours.Validate()
}

// StartOfDay returns midnight of t's date in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = t.Location()
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns the last representable instant of t's date.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location()).Add(-time.Nanosecond)
}
