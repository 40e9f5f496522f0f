package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/harvest"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/logger"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/runner"
)

// ErrRunFailed marks a harvest that ended in the failed state.
var ErrRunFailed = errors.New("harvest failed")

func newHarvestCommand() *cobra.Command {
	var (
		ov          runner.Overrides
		fresh       bool
		noDownloads bool
	)

	cmd := &cobra.Command{
		Use:   "harvest <source>",
		Short: "Harvest one source, resuming from its cursor",
		Long: `Harvest walks the listing pages of a source, extracts item metadata,
downloads eligible attachments, and appends records to <output>/<source>.jsonl.
Progress is committed per page, so an interrupted run resumes where it stopped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if fresh {
				resume := false
				ov.Resume = &resume
			}
			if noDownloads {
				cfg.Attachments.Enabled = false
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			r, err := runner.New(ctx, cfg, log, runner.WithRegisterer(newRegistry()))
			if err != nil {
				return err
			}
			defer func() {
				if cerr := r.Close(); cerr != nil {
					log.Warn("Failed to close runner", logger.Error(cerr))
				}
			}()

			report, err := r.Harvest(ctx, args[0], ov)
			if err != nil {
				return err
			}
			printReports(cmd.OutOrStdout(), report)
			if !report.OK() {
				return fmt.Errorf("%w: %s", ErrRunFailed, report.Error)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&fresh, "fresh", false, "walk from --start-page instead of resuming; committed items are still skipped")
	flags.IntVar(&ov.StartPage, "start-page", 0, "first page when not resuming")
	flags.IntVar(&ov.MaxPages, "max-pages", 0, "stop after this many pages (0 = no limit)")
	flags.IntVar(&ov.MaxItems, "max-items", 0, "stop after this many new records (0 = no limit)")
	flags.BoolVar(&noDownloads, "no-downloads", false, "skip attachment downloads")
	flags.Duration("delay", 0, "minimum spacing between requests")
	flags.Int("concurrency", 0, "attachment downloads in flight")
	flags.Int("max-attempts", 0, "attempts per request, including the first")
	flags.String("merge-policy", "", "listing/detail merge policy (last_write_wins, first_write_wins)")
	return cmd
}

func printReports(w io.Writer, reports ...harvest.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Source", "State", "Pages", "Last page", "Committed", "Skipped", "Degraded", "Files ok/skip/fail", "Elapsed", "Stop"})
	for _, r := range reports {
		stop := r.StopReason
		if r.Error != "" {
			stop = r.Error
		}
		t.AppendRow(table.Row{
			r.Source, r.State, r.Pages, r.LastPage, r.Committed, r.Skipped, r.Degraded,
			fmt.Sprintf("%d/%d/%d", r.Attachments.Succeeded, r.Attachments.Skipped, r.Attachments.Failed),
			r.Elapsed().Round(time.Millisecond), stop,
		})
	}
	t.Render()
}
