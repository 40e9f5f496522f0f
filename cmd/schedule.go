package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/api"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/logger"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/runner"
)

func newScheduleCommand() *cobra.Command {
	var now bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Harvest enabled sources on the configured cron schedule",
		Long: `Schedule resumes every enabled source (or schedule.sources) each time
schedule.spec fires. With --serve, the status API runs alongside it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := newRegistry()
			r, err := runner.New(ctx, cfg, log, runner.WithRegisterer(reg))
			if err != nil {
				return err
			}
			defer func() {
				if cerr := r.Close(); cerr != nil {
					log.Warn("Failed to close runner", logger.Error(cerr))
				}
			}()

			sched, err := runner.NewScheduler(cfg.Schedule.Spec, cfg.EnabledSources(), r, log)
			if err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			if cfg.Server.Enabled {
				srv := api.NewServer(cfg.Server, r.Board(), reg, log)
				g.Go(func() error { return srv.Run(gctx) })
			}
			g.Go(func() error {
				sched.Start(gctx)
				if now {
					printReports(cmd.OutOrStdout(), sched.RunNow(gctx)...)
				}
				<-gctx.Done()
				sched.Stop()
				return nil
			})
			return g.Wait()
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&now, "now", false, "run once immediately, then follow the schedule")
	flags.Bool("serve", false, "serve /health, /status, and /metrics while scheduling")
	flags.Int("port", 0, "status server port")
	return cmd
}

func init() {
	rootCmd.AddCommand(
		newHarvestCommand(),
		newStatusCommand(),
		newSourcesCommand(),
		newScheduleCommand(),
	)
}
