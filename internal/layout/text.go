package layout

import (
	"fmt"
	"math"
	"strings"

	"github.com/rivo/uniseg"

	"icsweek/internal/model"
)

// Tier is how much text an event block shows.
type Tier int

const (
	TierNone Tier = iota
	TierOneLine
	TierTwoLine
	TierThreeLine
)

var tierNames = [...]string{"none", "one-line", "two-line", "three-line"}

func (t Tier) String() string {
	if t < 0 || int(t) >= len(tierNames) {
		return fmt.Sprintf("Tier(%d)", int(t))
	}
	return tierNames[t]
}

func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Tier thresholds, in points.
const (
	NoTextBelow = 8.0

	TimeLineMinHeight = 25.0
	TimeLineCellRatio = 0.8

	ThreeLineMinHeight = 35.0
	ThreeLineCellRatio = 1.2
)

// Truncation limits, in grapheme clusters.
const (
	TallTitleLength      = 50
	InlineLocationLength = 20
	LocationLineLength   = 30

	Ellipsis = "..."
)

// titleStep is one rung of the title ladder for short blocks.
type titleStep struct {
	below  float64
	size   float64
	length int
}

var titleLadder = []titleStep{
	{below: 15, size: 6, length: 15},
	{below: 20, size: 7, length: 20},
	{below: 30, size: 8, length: 25},
}

const defaultTitleLength = 30

// TextOptions toggles optional event text. They never change the tier.
type TextOptions struct {
	ShowTimes     bool
	ShowLocations bool
}

// TierFor returns the text tier of a block of the given height.
func TierFor(height, cellHeight float64) Tier {
	switch {
	case height < NoTextBelow:
		return TierNone
	case height < math.Max(TimeLineMinHeight, cellHeight*TimeLineCellRatio):
		return TierOneLine
	case height < math.Max(ThreeLineMinHeight, cellHeight*ThreeLineCellRatio):
		return TierTwoLine
	default:
		return TierThreeLine
	}
}

// TitleLimits returns the title font size and max length for a block.
// base is the layout's event title size; short blocks never exceed it.
func TitleLimits(height, cellHeight, base float64) (size float64, length int) {
	if TierFor(height, cellHeight) == TierThreeLine {
		return base, TallTitleLength
	}
	for _, s := range titleLadder {
		if height < s.below {
			return math.Min(s.size, base), s.length
		}
	}
	return base, defaultTitleLength
}

func applyText(p *PlacedEvent, ev *model.Event, height float64, m Metrics, opts TextOptions) {
	p.Tier = TierFor(height, m.CellHeight)
	p.TimeSize = m.Fonts.EventTime
	if p.Tier == TierNone {
		p.TitleSize = m.Fonts.EventTitle
		return
	}

	size, length := TitleLimits(height, m.CellHeight, m.Fonts.EventTitle)
	p.TitleSize = size
	p.Title = Truncate(ev.Title(), length)
	p.MaxTitleLines = 1

	switch p.Tier {
	case TierTwoLine:
		if opts.ShowTimes {
			p.TimeLabel = TimeLabel(ev)
		}
		if opts.ShowLocations {
			p.Location = Truncate(ev.Location, InlineLocationLength)
		}
	case TierThreeLine:
		p.MaxTitleLines = 2
		if opts.ShowTimes {
			p.TimeLabel = TimeLabel(ev)
		}
		if opts.ShowLocations {
			p.Location = Truncate(ev.Location, LocationLineLength)
		}
	}
}

// TimeLabel formats the event's true start and end, not the clipped ones.
func TimeLabel(ev *model.Event) string {
	return ev.Start.Format("15:04") + " - " + ev.End.Format("15:04")
}

// Truncate shortens s to max grapheme clusters and appends Ellipsis.
func Truncate(s string, max int) string {
	if max <= 0 || s == "" {
		return ""
	}
	if uniseg.GraphemeClusterCount(s) <= max {
		return s
	}
	var b strings.Builder
	g := uniseg.NewGraphemes(s)
	for n := 0; n < max && g.Next(); n++ {
		b.WriteString(g.Str())
	}
	return strings.TrimRight(b.String(), " ") + Ellipsis
}
