package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"icsweek/internal/ics"
	appLog "icsweek/internal/log"
	"icsweek/internal/model"
	"icsweek/internal/pipeline"
	"icsweek/internal/theme"
)

// DateLayout is the format of window dates in config files and flags.
const DateLayout = "2006-01-02"

// FeedConfig selects the calendar source.
type FeedConfig struct {
	// Path is a local .ics file, or "-" for stdin.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
	// URL is an ICS subscription endpoint. It wins over Path.
	URL string `yaml:"url,omitempty" json:"url,omitempty"`
	// ProxyURL is the CORS-style fallback template; "%s" receives the
	// escaped feed URL. Empty disables the fallback.
	ProxyURL string `yaml:"proxy_url" json:"proxy_url"`
	// CacheDir keeps the last good download per URL.
	CacheDir string        `yaml:"cache_dir,omitempty" json:"cache_dir,omitempty"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
}

// WindowConfig is the inclusive date range to print. Empty Start means the
// first day of the current month; empty End means the last day of Start's
// month.
type WindowConfig struct {
	Start string `yaml:"start,omitempty" json:"start,omitempty"`
	End   string `yaml:"end,omitempty" json:"end,omitempty"`
}

// OutputConfig controls where and how the document is written.
type OutputConfig struct {
	// Path is the output file; empty means calendar-YYYY-MM-DD.<ext>.
	Path   string `yaml:"path,omitempty" json:"path,omitempty"`
	Format string `yaml:"format" json:"format"`
}

// CaptureConfig tunes the headless Chromium step.
type CaptureConfig struct {
	ChromePath string        `yaml:"chrome_path,omitempty" json:"chrome_path,omitempty"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
}

// Config is the top-level application configuration.
type Config struct {
	Feed   FeedConfig   `yaml:"feed" json:"feed"`
	Window WindowConfig `yaml:"window" json:"window"`

	// Hours is the visible hour range of each day (end exclusive).
	Hours           model.HourRange `yaml:"hours" json:"hours"`
	IncludeWeekends bool            `yaml:"include_weekends" json:"include_weekends"`

	Theme              string `yaml:"theme" json:"theme"`
	ShowEventTimes     bool   `yaml:"show_event_times" json:"show_event_times"`
	ShowEventLocations bool   `yaml:"show_event_locations" json:"show_event_locations"`

	// Timezone is the IANA display zone. Empty means the system zone.
	Timezone string `yaml:"timezone,omitempty" json:"timezone,omitempty"`

	Output  OutputConfig  `yaml:"output" json:"output"`
	Capture CaptureConfig `yaml:"capture" json:"capture"`

	// RefreshCron is a standard 5-field cron schedule for watch mode.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	LogLevel string `yaml:"log_level" json:"log_level"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Feed: FeedConfig{
			ProxyURL: ics.DefaultProxyURL,
			CacheDir: defaultCacheDir(),
			Timeout:  15 * time.Second,
		},
		Hours:              model.HourRange{Start: 8, End: 20},
		IncludeWeekends:    false,
		Theme:              theme.Default,
		ShowEventTimes:     true,
		ShowEventLocations: true,
		Output:             OutputConfig{Format: string(pipeline.FormatPDF)},
		Capture:            CaptureConfig{Timeout: 30 * time.Second},
		RefreshCron:        "*/15 * * * *",
		LogLevel:           "info",
	}
}

// DefaultPath returns ~/.config/icsweek/config.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "icsweek.yaml"
	}
	return filepath.Join(dir, "icsweek", "config.yaml")
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "icsweek")
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Feed.Timeout <= 0 {
		c.Feed.Timeout = def.Feed.Timeout
	}
	if c.Capture.Timeout <= 0 {
		c.Capture.Timeout = def.Capture.Timeout
	}
	if c.Hours == (model.HourRange{}) {
		c.Hours = def.Hours
	}
	if c.Theme == "" {
		c.Theme = def.Theme
	}
	if c.Output.Format == "" {
		c.Output.Format = def.Output.Format
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	c.Feed.CacheDir = expandPath(c.Feed.CacheDir)
	c.Feed.Path = expandPath(c.Feed.Path)
	c.Output.Path = expandPath(c.Output.Path)
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - read the file over DefaultConfig (see LoadFile)
//   - apply ICSWEEK_* environment overrides
//   - validate
func Load(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFile returns the file's settings on top of the defaults, without
// environment overrides or validation. Use it to edit and Save the file.
//
// If the file does not exist, the defaults are written there (0600).
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// First run: create default config file. A read-only home is not
		// fatal, the defaults still apply.
		if err := Save(path, cfg); err != nil {
			appLog.Warn("could not write default config", "path", path, "err", err)
		} else {
			appLog.Info("wrote default config", "path", path)
		}
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	cfg.Normalize()
	return cfg, nil
}

// applyEnvOverrides applies ICSWEEK_* variables. Environment variables
// take precedence over file config.
func applyEnvOverrides(cfg *Config) error {
	// Feed overrides
	if v := os.Getenv("ICSWEEK_FEED_URL"); v != "" {
		cfg.Feed.URL = v
	}
	if v := os.Getenv("ICSWEEK_FEED_PATH"); v != "" {
		cfg.Feed.Path = v
	}
	if v, ok := os.LookupEnv("ICSWEEK_PROXY_URL"); ok {
		cfg.Feed.ProxyURL = v
	}
	if v := os.Getenv("ICSWEEK_CACHE_DIR"); v != "" {
		cfg.Feed.CacheDir = v
	}

	// Layout overrides
	if v := os.Getenv("ICSWEEK_HOURS"); v != "" {
		h, err := ParseHours(v)
		if err != nil {
			return fmt.Errorf("ICSWEEK_HOURS: %w", err)
		}
		cfg.Hours = h
	}
	if v := os.Getenv("ICSWEEK_INCLUDE_WEEKENDS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ICSWEEK_INCLUDE_WEEKENDS: %w", err)
		}
		cfg.IncludeWeekends = b
	}
	if v := os.Getenv("ICSWEEK_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := os.Getenv("ICSWEEK_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}

	// Output overrides
	if v := os.Getenv("ICSWEEK_OUTPUT"); v != "" {
		cfg.Output.Path = v
	}
	if v := os.Getenv("ICSWEEK_FORMAT"); v != "" {
		cfg.Output.Format = v
	}
	if v := os.Getenv("ICSWEEK_CHROME_PATH"); v != "" {
		cfg.Capture.ChromePath = v
	}

	if v := os.Getenv("ICSWEEK_REFRESH"); v != "" {
		cfg.RefreshCron = v
	}
	if v := os.Getenv("ICSWEEK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

// ParseHours parses "START-END", e.g. "8-20".
func ParseHours(s string) (model.HourRange, error) {
	startStr, endStr, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return model.HourRange{}, fmt.Errorf("%w: %q is not START-END", model.ErrInvalidHours, s)
	}
	start, err := strconv.Atoi(strings.TrimSpace(startStr))
	if err != nil {
		return model.HourRange{}, fmt.Errorf("%w: start %q", model.ErrInvalidHours, startStr)
	}
	end, err := strconv.Atoi(strings.TrimSpace(endStr))
	if err != nil {
		return model.HourRange{}, fmt.Errorf("%w: end %q", model.ErrInvalidHours, endStr)
	}
	h := model.HourRange{Start: start, End: end}
	return h, h.Validate()
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Hours.Validate(); err != nil {
		return err
	}
	if !theme.IsAvailable(c.Theme) {
		return fmt.Errorf("%w: %q (available: %s)", theme.ErrUnknown, c.Theme, strings.Join(theme.Available(), ", "))
	}
	if _, err := pipeline.ParseFormat(c.Output.Format); err != nil {
		return err
	}
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", c.RefreshCron, err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Feed.ProxyURL != "" && !strings.Contains(c.Feed.ProxyURL, "%s") {
		return fmt.Errorf("proxy_url %q must contain %%s", c.Feed.ProxyURL)
	}
	for field, v := range map[string]string{"window.start": c.Window.Start, "window.end": c.Window.End} {
		if v == "" {
			continue
		}
		if _, err := time.Parse(DateLayout, v); err != nil {
			return fmt.Errorf("%s: %q is not YYYY-MM-DD", field, v)
		}
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}

// Location resolves Timezone; empty means time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Format returns the parsed output format.
func (c *Config) Format() pipeline.Format {
	f, err := pipeline.ParseFormat(c.Output.Format)
	if err != nil {
		return pipeline.FormatPDF
	}
	return f
}

// Options builds the layout options, resolving a missing window relative
// to now.
func (c *Config) Options(now time.Time) (model.Options, error) {
	loc, err := c.Location()
	if err != nil {
		return model.Options{}, err
	}
	now = now.In(loc)

	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	if c.Window.Start != "" {
		if start, err = time.ParseInLocation(DateLayout, c.Window.Start, loc); err != nil {
			return model.Options{}, fmt.Errorf("window.start: %w", err)
		}
	}
	end := time.Date(start.Year(), start.Month()+1, 0, 0, 0, 0, 0, loc)
	if c.Window.End != "" {
		if end, err = time.ParseInLocation(DateLayout, c.Window.End, loc); err != nil {
			return model.Options{}, fmt.Errorf("window.end: %w", err)
		}
	}

	opts := model.Options{
		Window:             model.NewDateWindow(start, end, loc),
		IncludeWeekends:    c.IncludeWeekends,
		Hours:              c.Hours,
		Theme:              c.Theme,
		ShowEventTimes:     c.ShowEventTimes,
		ShowEventLocations: c.ShowEventLocations,
		Location:           loc,
	}
	return opts, opts.Validate()
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".icsweek-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
