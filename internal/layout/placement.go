package layout

import (
	"math"
	"time"

	appLog "icsweek/internal/log"
	"icsweek/internal/model"
)

const (
	// MinVisibleHeight is the floor applied to short events when the grid
	// has room for it below their top.
	MinVisibleHeight = 10.0

	// OmitBelowHeight drops blocks that would be too thin to read.
	OmitBelowHeight = 5.0
)

// Adjustment records one clamp applied to a derived quantity.
type Adjustment struct {
	Quantity string  `json:"quantity"`
	From     float64 `json:"from"`
	To       float64 `json:"to"`
}

// PlacedEvent is the renderable block for one segment.
type PlacedEvent struct {
	UID string `json:"uid"`

	// Top is the offset from the grid body top; Top+Height never exceeds
	// the grid body height.
	Top    float64 `json:"top"`
	Height float64 `json:"height"`

	Tier          Tier    `json:"tier"`
	Title         string  `json:"title,omitempty"`
	MaxTitleLines int     `json:"max_title_lines"`
	TimeLabel     string  `json:"time_label,omitempty"`
	Location      string  `json:"location,omitempty"`
	TitleSize     float64 `json:"title_size"`
	TimeSize      float64 `json:"time_size"`

	ClippedStart bool `json:"clipped_start,omitempty"`
	ClippedEnd   bool `json:"clipped_end,omitempty"`

	Adjustments []Adjustment `json:"adjustments,omitempty"`
}

// Place maps seg onto the day column described by m. The second return is
// false when the event must be left out of this day: non-finite or empty
// geometry, or a block thinner than OmitBelowHeight after clamping.
func Place(seg model.Segment, hours model.HourRange, m Metrics, opts TextOptions) (PlacedEvent, bool) {
	if seg.Event == nil {
		return PlacedEvent{}, false
	}
	start := clockHours(seg.DisplayStart, seg.Day)
	end := clockHours(seg.DisplayEnd, seg.Day)

	top := (start - float64(hours.Start)) * m.CellHeight
	natural := (end - start) * m.CellHeight
	if !finite(top) || !finite(natural) || !finite(m.GridBodyHeight) || natural <= 0 {
		appLog.Debug("placement omitted: invalid geometry", "uid", seg.Event.UID, "top", top, "height", natural)
		return PlacedEvent{}, false
	}

	p := PlacedEvent{
		UID:          seg.Event.UID,
		ClippedStart: seg.ClippedStart,
		ClippedEnd:   seg.ClippedEnd,
	}
	grid := m.GridBodyHeight

	top = p.clamp("top", top, 0, grid)

	available := grid - top
	height := p.clamp("height", natural, math.Inf(-1), available)
	if height < MinVisibleHeight && available >= MinVisibleHeight {
		p.record("height", height, MinVisibleHeight)
		height = MinVisibleHeight
	}
	if top+height > grid {
		p.record("height", height, grid-top)
		height = grid - top
		// Float rounding can leave top+height one ulp past the grid.
		for height > 0 && top+height > grid {
			height = math.Nextafter(height, 0)
		}
	}
	if height < OmitBelowHeight {
		appLog.Debug("placement omitted: too thin", "uid", seg.Event.UID, "height", height)
		return PlacedEvent{}, false
	}

	p.Top, p.Height = top, height
	applyText(&p, seg.Event, height, m, opts)
	return p, true
}

// clockHours is the wall-clock reading of t in hours, counted from the
// midnight that starts day. Days after day add 24 each, so the next
// midnight reads 24. Rows follow the clock, not elapsed time, and stay
// aligned with the hour labels across DST switches.
func clockHours(t, day time.Time) float64 {
	t = t.In(day.Location())
	ty, tm, td := t.Date()
	dy, dm, dd := day.Date()
	days := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC).Sub(time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC)).Hours() / 24
	return days*24 + float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
}

func (p *PlacedEvent) clamp(quantity string, v, lo, hi float64) float64 {
	c := clamp(v, lo, hi)
	if c != v {
		p.record(quantity, v, c)
	}
	return c
}

func (p *PlacedEvent) record(quantity string, from, to float64) {
	p.Adjustments = append(p.Adjustments, Adjustment{Quantity: quantity, From: from, To: to})
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
