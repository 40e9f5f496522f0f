package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/sink"
)

func newStatusCommand() *cobra.Command {
	var events int64

	cmd := &cobra.Command{
		Use:   "status [source...]",
		Short: "Show committed progress per source",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				for _, d := range cfg.Registry().Definitions() {
					names = append(names, d.Name)
				}
			}

			store := sink.NewFileCursorStore(cfg.Sink.OutputDir)
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Source", "Last page", "Items", "Updated", "Run ID"})
			for _, name := range names {
				c, err := store.Load(cmd.Context(), name)
				if err != nil {
					return err
				}
				if c == nil {
					t.AppendRow(table.Row{name, "-", 0, "never", ""})
					continue
				}
				t.AppendRow(table.Row{name, c.LastPage, c.Committed.Cardinality(), formatTime(c.UpdatedAt), c.RunID})
			}
			t.Render()

			if events > 0 && cfg.Redis.Enabled {
				redis := sink.NewRedisCursorStore(sink.NewRedisClient(cfg.Redis), cfg.Redis.KeyPrefix, cfg.Redis.EventTTL)
				defer func() { _ = redis.Close() }()
				for _, name := range names {
					if err := printEvents(cmd, redis, name, events); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&events, "events", 0, "also list this many recent progress events per source from Redis")
	return cmd
}

func printEvents(cmd *cobra.Command, store *sink.RedisCursorStore, source string, count int64) error {
	msgs, err := store.Events(cmd.Context(), source, count)
	if err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "\n%s progress events\n", source)
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Time", "Last page", "Items", "Run ID"})
	for _, m := range msgs {
		t.AppendRow(table.Row{m.Values["timestamp"], m.Values["last_page"], m.Values["committed"], m.Values["run_id"]})
	}
	t.Render()
	return nil
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return "never"
	}
	return ts.Local().Format(time.DateTime)
}

func newSourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List configured sources",
		RunE: func(cmd *cobra.Command, _ []string) error {
			printSources(cmd.OutOrStdout())
			return nil
		},
	}
}

func printSources(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Kind", "Base URL", "Query", "Page size", "Enabled"})
	for _, d := range cfg.Registry().Definitions() {
		t.AppendRow(table.Row{d.Name, d.Kind, d.BaseURL, d.Query, d.PageSize, !d.Disabled})
	}
	t.Render()
}
