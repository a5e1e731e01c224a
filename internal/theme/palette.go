package theme

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Palette holds the resolved colors handed to the document writers.
// All values are #rrggbb strings.
type Palette struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	Primary string `json:"primary"`
	Light   string `json:"light"`
	Text    string `json:"text"`
	Muted   string `json:"muted"`

	EventBorder   string `json:"event_border"`
	EventBg       string `json:"event_bg"`
	GridLine      string `json:"grid_line"`
	HourBand      string `json:"hour_band"`
	TimeColumnBg  string `json:"time_column_bg"`
	TextOnPrimary string `json:"text_on_primary"`
}

var (
	white = colorful.Color{R: 1, G: 1, B: 1}
	black = colorful.Color{}
)

// NewPalette derives the document colors from t. Unparseable hex values
// fall back to black so a broken file still renders.
func NewPalette(t *Theme) Palette {
	if t == nil {
		t, _ = Load(Default)
	}

	primary := parseHex(t.Primary, black)
	light := parseHex(t.Light, primary.BlendLab(white, 0.94))
	text := parseHex(t.Text, black)

	return Palette{
		ID:      t.ID,
		Name:    t.Name,
		Primary: primary.Hex(),
		Light:   light.Hex(),
		Text:    text.Hex(),
		Muted:   parseHex(t.Muted, text.BlendLab(white, 0.55)).Hex(),

		EventBorder:   primary.Hex(),
		EventBg:       light.Hex(),
		GridLine:      text.BlendLab(white, 0.9).Clamped().Hex(),
		HourBand:      light.BlendLab(white, 0.6).Clamped().Hex(),
		TimeColumnBg:  text.BlendLab(white, 0.98).Clamped().Hex(),
		TextOnPrimary: textOn(primary),
	}
}

func parseHex(hex string, fallback colorful.Color) colorful.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return fallback
	}
	return c
}

// textOn picks black or white text for legibility on bg.
func textOn(bg colorful.Color) string {
	l, _, _ := bg.Lab()
	if l > 0.65 {
		return black.Hex()
	}
	return white.Hex()
}
