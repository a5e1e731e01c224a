package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"icsweek/internal/ics"
	"icsweek/internal/pipeline"
)

var errNoFeed = errors.New("no calendar feed: pass a file or URL, or set feed.path / feed.url in the config")

func newExportCmd(g *globalOptions) *cobra.Command {
	d := &docOptions{}
	cmd := &cobra.Command{
		Use:   "export [FILE|URL]",
		Short: "Render the planner document (PDF by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEnv(cmd, g, d, args)
			if err != nil {
				return err
			}
			return e.export(cmd, e.cfg.Format())
		},
	}
	addDocFlags(cmd, d)
	addOutputFlags(cmd, d)
	return cmd
}

func newPreviewCmd(g *globalOptions) *cobra.Command {
	d := &docOptions{}
	cmd := &cobra.Command{
		Use:   "preview [FILE|URL]",
		Short: "Render a PNG preview of the first week",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEnv(cmd, g, d, args)
			if err != nil {
				return err
			}
			return e.export(cmd, pipeline.FormatPNG)
		},
	}
	addDocFlags(cmd, d)
	cmd.Flags().StringVarP(&d.Output, "output", "o", "", "Output file, or - for stdout")
	return cmd
}

func (e *env) export(cmd *cobra.Command, f pipeline.Format) error {
	if e.cfg.Feed.Path == "" && e.cfg.Feed.URL == "" {
		return Wrap(ExitUsage, errNoFeed)
	}
	req, err := e.request(f, now())
	if err != nil {
		return err
	}

	res, err := e.pipe.Run(cmd.Context(), req)
	if err != nil {
		return err
	}
	warnEntries(e.errOut, res.Feed)

	if res.Output == pipeline.StdoutPath {
		return nil
	}
	events := 0
	for _, p := range res.Document.Pages {
		events += p.EventCount()
	}
	_, err = fmt.Fprintf(e.out, "%s %s (%d %s, %d events, %s)\n",
		color.GreenString("wrote"),
		res.Output,
		len(res.Document.Pages),
		plural(len(res.Document.Pages), "page", "pages"),
		events,
		humanize.Bytes(uint64(len(res.Data))),
	)
	return err
}

// warnEntries reports feed entries that were repaired or skipped.
func warnEntries(w io.Writer, feed *ics.Feed) {
	if feed == nil {
		return
	}
	yellow := color.New(color.FgYellow)
	for _, entry := range feed.Dropped() {
		name := entry.Summary
		if name == "" {
			name = entry.UID
		}
		yellow.Fprintf(w, "warning: skipped event #%d %q: %s\n", entry.Index+1, name, entry.Reason)
	}
	if n := feed.Repaired(); n > 0 {
		yellow.Fprintf(w, "warning: %d %s had no valid end and now last one hour\n", n, plural(n, "event", "events"))
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
