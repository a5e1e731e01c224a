package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"icsweek/internal/config"
	"icsweek/internal/theme"
)

func newThemeCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "List or select the color theme",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEnv(cmd, g, nil, nil)
			if err != nil {
				return err
			}
			return writeThemes(e.out, e.cfg.Theme)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set THEME",
		Short: "Persist the theme in the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := theme.Load(args[0]); err != nil {
				return Wrap(ExitUsage, err)
			}
			// Edit the file itself: environment overrides are not persisted
			// and a broken setting elsewhere does not block the change.
			path := configPath(g)
			file, err := config.LoadFile(path)
			if err != nil {
				return Wrap(ExitUsage, err)
			}
			file.Theme = args[0]
			if err := file.Save(path); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "theme set to %s in %s\n", args[0], path)
			return err
		},
	})
	return cmd
}

// writeThemes prints each theme with a swatch of its primary and light
// colors; the current one is starred.
func writeThemes(w io.Writer, current string) error {
	re := lipgloss.NewRenderer(w)
	for _, id := range theme.Available() {
		th, err := theme.Load(id)
		if err != nil {
			return err
		}
		pal := theme.NewPalette(th)

		marker := " "
		if id == current {
			marker = "*"
		}
		swatch := re.NewStyle().Background(lipgloss.Color(pal.Primary)).Render("  ") +
			re.NewStyle().Background(lipgloss.Color(pal.Light)).Render("  ")
		name := re.NewStyle().Width(10).Render(id)
		if _, err := fmt.Fprintf(w, "%s %s %s %s %s\n", marker, name, swatch, pal.Primary, th.Name); err != nil {
			return err
		}
	}
	return nil
}
