// Package theme provides the color palettes of the planner document.
// Palettes only affect colors, never geometry.
package theme

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed embedded/*.toml
var embeddedThemes embed.FS

// Default is the theme used when none is configured.
const Default = "neutral"

// ErrUnknown is returned for a theme id that has no embedded palette.
var ErrUnknown = errors.New("unknown theme")

// Theme is the raw palette file.
type Theme struct {
	ID      string `toml:"id"`
	Name    string `toml:"name"`
	Primary string `toml:"primary"` // event borders, header accents
	Light   string `toml:"light"`   // event background
	Text    string `toml:"text"`
	Muted   string `toml:"muted"` // hour labels, subtitles
}

// Load loads a theme by id from the embedded files. An empty id loads
// Default; an unknown id returns ErrUnknown.
func Load(id string) (*Theme, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		id = Default
	}
	if !IsAvailable(id) {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknown, id, strings.Join(Available(), ", "))
	}

	data, err := embeddedThemes.ReadFile("embedded/" + id + ".toml")
	if err != nil {
		return nil, fmt.Errorf("loading theme %q: %w", id, err)
	}

	var t Theme
	if err := toml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing theme %q: %w", id, err)
	}
	t.applyDefaults(id)
	return &t, nil
}

func (t *Theme) applyDefaults(id string) {
	if t.ID == "" {
		t.ID = id
	}
	if t.Name == "" {
		t.Name = t.ID
	}
	if t.Text == "" {
		t.Text = "#000000"
	}
	if t.Muted == "" {
		t.Muted = "#6B7280"
	}
}

// Available returns the theme ids in display order.
func Available() []string {
	return []string{"neutral", "blue", "green", "orange", "purple"}
}

// IsAvailable reports whether a theme id is available.
func IsAvailable(id string) bool {
	id = strings.ToLower(id)
	for _, name := range Available() {
		if name == id {
			return true
		}
	}
	return false
}
