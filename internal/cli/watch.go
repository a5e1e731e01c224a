package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	appLog "icsweek/internal/log"
	"icsweek/internal/pipeline"
)

func newWatchCmd(g *globalOptions) *cobra.Command {
	d := &docOptions{}
	var refresh string
	cmd := &cobra.Command{
		Use:   "watch [FILE|URL]",
		Short: "Re-export the document on a cron schedule",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEnv(cmd, g, d, args)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("refresh") {
				e.cfg.RefreshCron = refresh
			}
			if e.cfg.Feed.Path == "" && e.cfg.Feed.URL == "" {
				return Wrap(ExitUsage, errNoFeed)
			}
			if e.cfg.Output.Path == pipeline.StdoutPath {
				return Wrap(ExitUsage, errors.New("watch cannot write to stdout"))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return e.watch(ctx)
		},
	}
	addDocFlags(cmd, d)
	addOutputFlags(cmd, d)
	cmd.Flags().StringVar(&refresh, "refresh", "", "Cron schedule (default from config)")
	return cmd
}

// watch exports once, then again on every tick until ctx is done. Ticks
// that arrive while an export is running cancel it.
func (e *env) watch(ctx context.Context) error {
	loc, err := e.cfg.Location()
	if err != nil {
		return Wrap(ExitUsage, err)
	}
	sched, err := cron.ParseStandard(e.cfg.RefreshCron)
	if err != nil {
		return Wrap(ExitUsage, fmt.Errorf("invalid refresh schedule %q: %w", e.cfg.RefreshCron, err))
	}

	runner := pipeline.NewRunner(e.pipe)
	format := e.cfg.Format()
	runOnce := func() {
		req, err := e.request(format, now())
		if err != nil {
			appLog.Error("watch: build request failed", err)
			return
		}
		res, err := runner.Submit(ctx, req)
		switch {
		case errors.Is(err, pipeline.ErrSuperseded), errors.Is(err, context.Canceled):
			appLog.Debug("watch: run cancelled", "output", req.Output)
		case err != nil:
			appLog.Error("watch: export failed", err, "output", req.Output)
		default:
			warnEntries(e.errOut, res.Feed)
		}
	}

	c := cron.New(cron.WithLocation(loc))
	c.Schedule(sched, cron.FuncJob(runOnce))
	c.Start()
	appLog.Info("watch started", "schedule", e.cfg.RefreshCron, "format", string(format))

	runOnce()
	if ctx.Err() == nil {
		fmt.Fprintf(e.out, "watching; next run %s\n", sched.Next(now().In(loc)).Format("2006-01-02 15:04"))
	}

	<-ctx.Done()
	<-c.Stop().Done()
	appLog.Info("watch stopped")
	return nil
}
