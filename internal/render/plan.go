// Package render turns normalized events into a week-planner document:
// one page per Monday-aligned week, day columns and placed event blocks.
package render

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"icsweek/internal/layout"
	appLog "icsweek/internal/log"
	"icsweek/internal/model"
	"icsweek/internal/theme"
	"icsweek/internal/week"
)

// EmptyWeekMessage is shown on pages without events.
const EmptyWeekMessage = "No events this week"

// Document is the fully resolved planner, ready for a writer.
type Document struct {
	Hours      model.HourRange `json:"hours"`
	WindowFrom time.Time       `json:"window_start"`
	WindowTo   time.Time       `json:"window_end"`
	Palette    theme.Palette   `json:"palette"`
	Metrics    layout.Metrics  `json:"metrics"`
	HourLabels []string        `json:"hour_labels"`
	Pages      []Page          `json:"pages"`
}

// Page is one week.
type Page struct {
	Index     int         `json:"index"`
	WeekStart time.Time   `json:"week_start"`
	WeekEnd   time.Time   `json:"week_end"`
	Title     string      `json:"title"`
	Empty     bool        `json:"empty"`
	Days      []DayColumn `json:"days"`
}

// DayColumn holds the placed blocks of one day.
type DayColumn struct {
	Date    time.Time            `json:"date"`
	Header  string               `json:"header"`
	Events  []layout.PlacedEvent `json:"events"`
	Omitted int                  `json:"omitted,omitempty"` // visible segments too thin to draw
}

// EventCount returns the number of placed blocks on the page.
func (p Page) EventCount() int {
	n := 0
	for _, d := range p.Days {
		n += len(d.Events)
	}
	return n
}

type metricsKey struct {
	page      layout.Page
	hourCount int
	dayCount  int
}

// Planner builds Documents. It memoizes layout metrics by input tuple and
// is safe for concurrent use.
type Planner struct {
	page layout.Page

	mu      sync.Mutex
	metrics map[metricsKey]layout.Metrics
}

// NewPlanner creates a Planner for page; a zero page means A4 landscape.
func NewPlanner(page layout.Page) *Planner {
	if page.Width <= 0 || page.Height <= 0 {
		page = layout.A4Landscape
	}
	return &Planner{page: page, metrics: make(map[metricsKey]layout.Metrics)}
}

// Metrics returns the (cached) grid metrics for the planner's page.
func (p *Planner) Metrics(hourCount, dayCount int) layout.Metrics {
	key := metricsKey{page: p.page, hourCount: hourCount, dayCount: dayCount}

	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := p.metrics[key]; ok {
		return m
	}
	m := layout.Compute(p.page, hourCount, dayCount)
	p.metrics[key] = m
	return m
}

// Plan lays out events for opts with the given palette. opts is validated
// here; everything after validation degrades by omitting blocks.
func (p *Planner) Plan(events []*model.Event, opts model.Options, pal theme.Palette) (*Document, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	loc := opts.Loc()

	m := p.Metrics(opts.Hours.Hours(), opts.DayCount())
	text := layout.TextOptions{ShowTimes: opts.ShowEventTimes, ShowLocations: opts.ShowEventLocations}

	doc := &Document{
		Hours:      opts.Hours,
		WindowFrom: model.StartOfDay(opts.Window.Start, loc),
		WindowTo:   model.StartOfDay(opts.Window.End, loc),
		Palette:    pal,
		Metrics:    m,
		HourLabels: HourLabels(opts.Hours),
	}

	buckets := week.Partition(events, opts.Window, opts.IncludeWeekends, loc)
	for i, b := range buckets {
		page := Page{
			Index:     i,
			WeekStart: b.WeekStart,
			WeekEnd:   b.WeekEnd,
			Title:     WeekTitle(b.Days[0], b.Days[len(b.Days)-1]),
			Empty:     b.Empty(),
			Days:      make([]DayColumn, len(b.Days)),
		}
		for j, day := range b.Days {
			col := DayColumn{Date: day, Header: DayHeader(day), Events: []layout.PlacedEvent{}}
			for _, seg := range week.DaySegments(day, b.Events, opts.Hours) {
				placed, ok := layout.Place(seg, opts.Hours, m, text)
				if !ok {
					col.Omitted++
					continue
				}
				col.Events = append(col.Events, placed)
			}
			page.Days[j] = col
		}
		doc.Pages = append(doc.Pages, page)
	}

	appLog.Debug("document planned",
		"pages", len(doc.Pages),
		"events", len(events),
		"cell_height", m.CellHeight,
		"days", m.DayCount,
	)
	return doc, nil
}

// WeekTitle formats the page heading, e.g. "Week of 13 – 19 January 2025"
// or "Week of 27 January – 2 February 2025".
func WeekTitle(first, last time.Time) string {
	switch {
	case first.Year() != last.Year():
		return fmt.Sprintf("Week of %s – %s", first.Format("2 January 2006"), last.Format("2 January 2006"))
	case first.Month() != last.Month():
		return fmt.Sprintf("Week of %s – %s", first.Format("2 January"), last.Format("2 January 2006"))
	default:
		return fmt.Sprintf("Week of %d – %s", first.Day(), last.Format("2 January 2006"))
	}
}

// DayHeader formats a column heading, e.g. "MON 13".
func DayHeader(day time.Time) string {
	return strings.ToUpper(day.Format("Mon")) + " " + day.Format("2")
}

// HourLabels returns one "HH:00" label per hour row.
func HourLabels(h model.HourRange) []string {
	labels := make([]string, 0, h.Hours())
	for hour := h.Start; hour < h.End; hour++ {
		labels = append(labels, fmt.Sprintf("%02d:00", hour))
	}
	return labels
}
