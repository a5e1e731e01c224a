// Package layout computes the page grid of a week planner and places event
// blocks inside it. Everything here is pure: identical inputs always give
// identical geometry.
package layout

import "math"

// Page is a page size in points.
type Page struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// A4Landscape is the default page.
var A4Landscape = Page{Width: 842, Height: 595}

// Fixed chrome, in points.
const (
	PagePadding      = 20.0
	WeekHeaderHeight = 25.0
	WeekHeaderMargin = 15.0
	DayHeaderHeight  = 30.0
	SafetyMargin     = 2.0

	// TimeColumnPct is the share of the content width used by hour labels.
	TimeColumnPct = 8.0

	// ReferenceCellHeight is the cell height at which fonts use their max size.
	ReferenceCellHeight = 40.0
)

// FontBand is a [Min, Max] clamp around a size scaled from Max.
type FontBand struct {
	Min float64
	Max float64
}

// Font roles.
var (
	WeekTitleBand  = FontBand{Min: 14, Max: 18}
	DayHeaderBand  = FontBand{Min: 10, Max: 12}
	TimeLabelBand  = FontBand{Min: 8, Max: 12}
	EventTitleBand = FontBand{Min: 7, Max: 10}
	EventTimeBand  = FontBand{Min: 6, Max: 9}
)

// Fonts holds the resolved font sizes of one layout.
type Fonts struct {
	WeekTitle  float64 `json:"week_title"`
	DayHeader  float64 `json:"day_header"`
	TimeLabel  float64 `json:"time_label"`
	EventTitle float64 `json:"event_title"`
	EventTime  float64 `json:"event_time"`
}

// Metrics is the grid geometry for one (page, hourCount, dayCount) tuple.
type Metrics struct {
	Page      Page `json:"page"`
	HourCount int  `json:"hour_count"`
	DayCount  int  `json:"day_count"`

	// CellHeight is the height of one hour row. It is never rounded.
	CellHeight     float64 `json:"cell_height"`
	GridBodyHeight float64 `json:"grid_body_height"`

	// AvailableHeight is the page height left after chrome and safety margin.
	AvailableHeight float64 `json:"available_height"`

	TimeColumnPct   float64 `json:"time_column_pct"`
	DayColumnPct    float64 `json:"day_column_pct"`
	ContentWidth    float64 `json:"content_width"`
	TimeColumnWidth float64 `json:"time_column_width"`
	DayColumnWidth  float64 `json:"day_column_width"`

	WeekHeaderHeight float64 `json:"week_header_height"`
	DayHeaderHeight  float64 `json:"day_header_height"`

	Fonts Fonts `json:"fonts"`

	// Adjustments lists the inputs that had to be coerced.
	Adjustments []Adjustment `json:"adjustments,omitempty"`
}

// Compute returns the grid metrics for page with hourCount rows and
// dayCount columns. hourCount < 1 and dayCount < 1 are coerced to 1 and
// reported in Adjustments; range checks beyond that belong to the caller.
func Compute(page Page, hourCount, dayCount int) Metrics {
	m := Metrics{
		Page:             page,
		WeekHeaderHeight: WeekHeaderHeight,
		DayHeaderHeight:  DayHeaderHeight,
		TimeColumnPct:    TimeColumnPct,
	}
	if hourCount < 1 {
		m.Adjustments = append(m.Adjustments, Adjustment{Quantity: "hour_count", From: float64(hourCount), To: 1})
		hourCount = 1
	}
	if dayCount < 1 {
		m.Adjustments = append(m.Adjustments, Adjustment{Quantity: "day_count", From: float64(dayCount), To: 1})
		dayCount = 1
	}
	m.HourCount, m.DayCount = hourCount, dayCount

	available := page.Height -
		PagePadding*2 -
		WeekHeaderHeight -
		WeekHeaderMargin -
		DayHeaderHeight -
		SafetyMargin
	if available < 0 {
		m.Adjustments = append(m.Adjustments, Adjustment{Quantity: "available_height", From: available, To: 0})
		available = 0
	}
	m.AvailableHeight = available
	m.CellHeight = available / float64(hourCount)
	m.GridBodyHeight = m.CellHeight * float64(hourCount)

	m.ContentWidth = math.Max(0, page.Width-PagePadding*2)
	m.DayColumnPct = (100 - TimeColumnPct) / float64(dayCount)
	m.TimeColumnWidth = m.ContentWidth * TimeColumnPct / 100
	m.DayColumnWidth = m.ContentWidth * m.DayColumnPct / 100

	m.Fonts = fontsFor(m.CellHeight)
	return m
}

func fontsFor(cell float64) Fonts {
	ratio := cell / ReferenceCellHeight
	return Fonts{
		WeekTitle:  WeekTitleBand.scale(ratio),
		DayHeader:  DayHeaderBand.scale(ratio),
		TimeLabel:  TimeLabelBand.scale(ratio),
		EventTitle: EventTitleBand.scale(ratio),
		EventTime:  EventTimeBand.scale(ratio),
	}
}

func (b FontBand) scale(ratio float64) float64 {
	return clamp(math.Round(b.Max*ratio), b.Min, b.Max)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
