package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"icsweek/internal/render"
)

func newWeeksCmd(g *globalOptions) *cobra.Command {
	d := &docOptions{}
	cmd := &cobra.Command{
		Use:   "weeks [FILE|URL]",
		Short: "Summarize the pages the planner would contain",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEnv(cmd, g, d, args)
			if err != nil {
				return err
			}
			if e.cfg.Feed.Path == "" && e.cfg.Feed.URL == "" {
				return Wrap(ExitUsage, errNoFeed)
			}
			opts, err := e.cfg.Options(now())
			if err != nil {
				return Wrap(ExitUsage, err)
			}

			feed, err := e.pipe.Load(cmd.Context(), e.source(), opts.Loc())
			if err != nil {
				return err
			}
			doc, err := e.pipe.Plan(feed.Events, opts)
			if err != nil {
				return err
			}
			warnEntries(e.errOut, feed)
			return writeWeeks(e.out, doc)
		},
	}
	addDocFlags(cmd, d)
	return cmd
}

// writeWeeks prints one table row per page.
func writeWeeks(w io.Writer, doc *render.Document) error {
	re := lipgloss.NewRenderer(w)
	headerStyle := re.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := re.NewStyle().Padding(0, 1)
	mutedStyle := cellStyle.Faint(true)

	rows := make([][]string, 0, len(doc.Pages))
	total := 0
	for _, p := range doc.Pages {
		n := p.EventCount()
		total += n
		omitted := 0
		for _, d := range p.Days {
			omitted += d.Omitted
		}
		rows = append(rows, []string{
			strconv.Itoa(p.Index + 1),
			p.Title,
			strconv.Itoa(len(p.Days)),
			strconv.Itoa(n),
			strconv.Itoa(omitted),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(re.NewStyle().Faint(true)).
		Headers("#", "WEEK", "DAYS", "EVENTS", "OMITTED").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row >= 0 && row < len(doc.Pages) && doc.Pages[row].Empty {
				return mutedStyle
			}
			return cellStyle
		})

	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d %s, %d events, hours %02d:00-%02d:00, theme %s\n",
		len(doc.Pages), plural(len(doc.Pages), "week", "weeks"), total,
		doc.Hours.Start, doc.Hours.End, doc.Palette.ID)
	return err
}
