// Package cli implements the icsweek command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"icsweek/internal/capture"
	"icsweek/internal/config"
	"icsweek/internal/ics"
	appLog "icsweek/internal/log"
	"icsweek/internal/pipeline"
)

type globalOptions struct {
	Config  string
	Debug   bool
	NoColor bool
}

// docOptions are per-command overrides layered on top of the config file.
type docOptions struct {
	Feed        string
	From        string
	To          string
	Hours       string
	Weekends    bool
	Theme       string
	NoTimes     bool
	NoLocations bool
	TZ          string
	Output      string
	Format      string
}

// env is the resolved state shared by the document commands.
type env struct {
	cfg    *config.Config
	pipe   *pipeline.Pipeline
	out    io.Writer
	errOut io.Writer
}

// now is replaceable in tests.
var now = time.Now

func Execute() int {
	cmd := NewRootCommand()
	err := cmd.Execute()
	if err != nil {
		renderTopLevelError(cmd.ErrOrStderr(), err)
	}
	return ExitCode(err)
}

func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "icsweek",
		Short:         "Turn an iCalendar feed into a printable one-page-per-week planner",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       BuildVersionString(),
	}
	root.SetVersionTemplate("icsweek {{.Version}}\n")

	root.PersistentFlags().StringVar(&opts.Config, "config", "", "Config file path (default "+config.DefaultPath()+")")
	root.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "Disable color output")

	root.AddCommand(newExportCmd(opts))
	root.AddCommand(newPreviewCmd(opts))
	root.AddCommand(newWeeksCmd(opts))
	root.AddCommand(newThemeCmd(opts))
	root.AddCommand(newWatchCmd(opts))
	root.AddCommand(newVersionCmd())

	return root
}

func addDocFlags(cmd *cobra.Command, d *docOptions) {
	f := cmd.Flags()
	f.StringVar(&d.Feed, "feed", "", "ICS file path, URL, or - for stdin")
	f.StringVar(&d.From, "from", "", "First date to print (YYYY-MM-DD)")
	f.StringVar(&d.To, "to", "", "Last date to print (YYYY-MM-DD)")
	f.StringVar(&d.Hours, "hours", "", "Visible hours, e.g. 8-20")
	f.BoolVar(&d.Weekends, "weekends", false, "Include Saturday and Sunday columns")
	f.StringVar(&d.Theme, "theme", "", "Color theme")
	f.BoolVar(&d.NoTimes, "no-times", false, "Hide event times")
	f.BoolVar(&d.NoLocations, "no-locations", false, "Hide event locations")
	f.StringVar(&d.TZ, "tz", "", "IANA display timezone")
}

func addOutputFlags(cmd *cobra.Command, d *docOptions) {
	cmd.Flags().StringVarP(&d.Output, "output", "o", "", "Output file, or - for stdout")
	cmd.Flags().StringVarP(&d.Format, "format", "f", "", "Output format: pdf|html|png|json")
}

// buildEnv loads the config, applies flag overrides and sets up logging.
func buildEnv(cmd *cobra.Command, g *globalOptions, d *docOptions, args []string) (*env, error) {
	if g.NoColor {
		color.NoColor = true
	}
	appLog.SetOutput(cmd.ErrOrStderr())

	path := configPath(g)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, Wrap(ExitUsage, err)
	}

	if d != nil {
		if len(args) > 0 {
			d.Feed = args[0]
		}
		if err := applyDocOptions(cmd, cfg, d); err != nil {
			return nil, Wrap(ExitUsage, err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, Wrap(ExitUsage, err)
		}
	}

	level := appLog.ParseLevel(cfg.LogLevel)
	if g.Debug {
		level = appLog.LevelDebug
	}
	appLog.SetLevel(level)

	fetcher := ics.NewFetcher(ics.FetcherOptions{
		ProxyURL: cfg.Feed.ProxyURL,
		CacheDir: cfg.Feed.CacheDir,
		Timeout:  cfg.Feed.Timeout,
	})
	pipe := pipeline.New(fetcher, nil, capture.Options{
		Timeout:  cfg.Capture.Timeout,
		ExecPath: cfg.Capture.ChromePath,
	})
	pipe.SetStdout(cmd.OutOrStdout())

	return &env{
		cfg:    cfg,
		pipe:   pipe,
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
	}, nil
}

func configPath(g *globalOptions) string {
	if g.Config != "" {
		return g.Config
	}
	return config.DefaultPath()
}

func applyDocOptions(cmd *cobra.Command, cfg *config.Config, d *docOptions) error {
	changed := cmd.Flags().Changed

	if d.Feed != "" {
		if isURL(d.Feed) {
			cfg.Feed.URL, cfg.Feed.Path = webcalToHTTPS(d.Feed), ""
		} else {
			cfg.Feed.Path, cfg.Feed.URL = d.Feed, ""
		}
	}
	if changed("from") {
		cfg.Window.Start = d.From
		if !changed("to") {
			cfg.Window.End = ""
		}
	}
	if changed("to") {
		cfg.Window.End = d.To
	}
	if changed("hours") {
		h, err := config.ParseHours(d.Hours)
		if err != nil {
			return fmt.Errorf("--hours: %w", err)
		}
		cfg.Hours = h
	}
	if changed("weekends") {
		cfg.IncludeWeekends = d.Weekends
	}
	if changed("theme") {
		cfg.Theme = d.Theme
	}
	if d.NoTimes {
		cfg.ShowEventTimes = false
	}
	if d.NoLocations {
		cfg.ShowEventLocations = false
	}
	if changed("tz") {
		cfg.Timezone = d.TZ
	}
	if d.Output != "" {
		cfg.Output.Path = d.Output
	}
	if d.Format != "" {
		cfg.Output.Format = d.Format
	}
	return nil
}

func isURL(s string) bool {
	for _, p := range []string{"http://", "https://", "webcal://"} {
		if strings.HasPrefix(strings.ToLower(s), p) {
			return true
		}
	}
	return false
}

// webcalToHTTPS rewrites the webcal:// scheme calendar apps hand out.
func webcalToHTTPS(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "webcal://") {
		return "https://" + s[len("webcal://"):]
	}
	return s
}

func (e *env) source() pipeline.Source {
	return pipeline.Source{Path: e.cfg.Feed.Path, URL: e.cfg.Feed.URL}
}

// request builds a pipeline request from the resolved config.
func (e *env) request(f pipeline.Format, t time.Time) (pipeline.Request, error) {
	opts, err := e.cfg.Options(t)
	if err != nil {
		return pipeline.Request{}, Wrap(ExitUsage, err)
	}
	out := e.cfg.Output.Path
	if out == "" {
		out = pipeline.DefaultOutputPath(f, t)
	}
	return pipeline.Request{
		Source:  e.source(),
		Options: opts,
		Format:  f,
		Output:  out,
	}, nil
}

func renderTopLevelError(w io.Writer, err error) {
	var appErr AppError
	if errors.As(err, &appErr) && appErr.Printed {
		return
	}
	red := color.New(color.FgRed, color.Bold)
	red.Fprint(w, "error: ")
	fmt.Fprintln(w, err)

	var fetchErr *ics.FetchError
	if errors.As(err, &fetchErr) {
		color.New(color.Faint).Fprintf(w, "hint: %s\n", fetchErr.Hint())
	}
}
