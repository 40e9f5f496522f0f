// Package cmd implements the harvester command-line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/config"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/logger"
)

// Version is set at build time with -ldflags.
var Version = "dev"

var (
	cfgFile     string
	sourcesFile string
	debug       bool

	cfg *config.Config
	log logger.Logger
)

// flagKeys maps command-line flags to config keys. Flags a command does
// not define are ignored.
var flagKeys = map[string]string{
	"debug":        "app.debug",
	"output":       "sink.output_dir",
	"delay":        "rate_limit.interval",
	"concurrency":  "attachments.concurrency",
	"max-attempts": "fetcher.max_attempts",
	"merge-policy": "harvest.merge_policy",
	"serve":        "server.enabled",
	"port":         "server.port",
}

var rootCmd = &cobra.Command{
	Use:           "harvester",
	Short:         "Resumable multi-source harvester for Grateful Dead archives",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initConfig(cmd)
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./harvester.yaml or ./config/harvester.yaml)")
	flags.StringVar(&sourcesFile, "sources-file", "", "YAML file replacing the configured source definitions")
	flags.BoolVar(&debug, "debug", false, "enable debug logging")
	flags.String("output", "", "output directory")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "harvester %s\n", Version)
		},
	})
}

func initConfig(cmd *cobra.Command) error {
	v, err := config.NewViper(cfgFile)
	if err != nil {
		return err
	}
	if err := bindFlags(v, cmd); err != nil {
		return err
	}
	v.SetDefault("app.version", Version)

	loaded, err := config.FromViper(v)
	if err != nil {
		return err
	}
	if sourcesFile != "" {
		defs, err := config.LoadSources(sourcesFile)
		if err != nil {
			return err
		}
		loaded.Sources = defs
		loaded.SetDefaults()
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}

	l, err := logger.New(loaded.Logger)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	cfg = loaded
	log = l.With(logger.String("service", cfg.App.Name), logger.String("version", cfg.App.Version))
	return nil
}

// newRegistry returns a metrics registry with the Go and process collectors.
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		if key == "" {
			continue
		}
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	return nil
}
