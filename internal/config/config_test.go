package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/config"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/extract"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/sources"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func load(t *testing.T, yamlDoc string) *config.Config {
	t.Helper()
	v, err := config.NewViper(writeFile(t, "harvester.yaml", yamlDoc))
	require.NoError(t, err)
	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	return cfg
}

func TestFromViper_Defaults(t *testing.T) {
	cfg := load(t, "app:\n  version: 1.2.3\n")

	assert.Equal(t, "harvester", cfg.App.Name)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, 1, cfg.Harvest.StartPage)
	assert.True(t, cfg.Harvest.Resume)
	assert.Equal(t, extract.LastWriteWins, cfg.Harvest.MergePolicy)
	assert.Equal(t, 10*time.Second, cfg.Harvest.ShutdownGrace)
	assert.Equal(t, time.Second, cfg.RateLimit.Interval)
	assert.Equal(t, 3, cfg.Fetcher.MaxAttempts)
	assert.True(t, cfg.Fetcher.RespectRobots)
	assert.True(t, cfg.Attachments.Enabled)
	assert.Equal(t, "output", cfg.Sink.OutputDir)
	assert.True(t, cfg.Sink.ErrorLog)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "@daily", cfg.Schedule.Spec)
	assert.Equal(t, "1.2.3", cfg.Server.ServiceVersion)
	assert.Len(t, cfg.Sources, len(sources.Defaults()))
}

func TestFromViper_FileValues(t *testing.T) {
	cfg := load(t, `
harvest:
  max_pages: 5
  merge_policy: first_write_wins
rate_limit:
  interval: 2500ms
sink:
  output_dir: /data/harvest
sources:
  - name: tapes
    kind: archiveorg
    query: "collection:etree"
    page_size: 50
  - name: gdao
    disabled: true
`)

	assert.Equal(t, 5, cfg.Harvest.MaxPages)
	assert.Equal(t, extract.FirstWriteWins, cfg.Harvest.MergePolicy)
	assert.Equal(t, 2500*time.Millisecond, cfg.RateLimit.Interval)
	assert.Equal(t, "/data/harvest", cfg.Sink.OutputDir)

	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, "archiveorg", cfg.Sources[0].Kind)
	assert.Equal(t, 50, cfg.Sources[0].PageSize)
	assert.Equal(t, "gdao", cfg.Sources[1].Kind, "kind defaults to name")
	assert.Equal(t, []string{"tapes"}, cfg.EnabledSources())
}

func TestFromViper_EnvironmentOverrides(t *testing.T) {
	t.Setenv("HARVESTER_HARVEST_MAX_ITEMS", "7")
	t.Setenv("HARVESTER_FETCHER_MAX_ATTEMPTS", "5")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg := load(t, "harvest:\n  max_items: 3\n")

	assert.Equal(t, 7, cfg.Harvest.MaxItems)
	assert.Equal(t, 5, cfg.Fetcher.MaxAttempts)
	assert.Equal(t, "warn", cfg.Logger.Level)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
}

func TestNewViper_MissingExplicitFile(t *testing.T) {
	_, err := config.NewViper(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Sources: []sources.Definition{
			{Name: "gdao", Kind: "gdao"},
			{Name: "gdao", Kind: "gdao"},
			{Name: "mystery", Kind: "ftp"},
		},
		Schedule: config.ScheduleConfig{Spec: "every tuesday", Sources: []string{"nope"}},
	}
	cfg.SetDefaults()
	cfg.Harvest.MergePolicy = "newest_wins"
	cfg.Harvest.MaxItems = -1

	err := cfg.Validate()
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)

	fields := map[string]bool{}
	for _, e := range merr.Errors {
		var verr *config.ValidationError
		require.True(t, errors.As(e, &verr), "%v is not a ValidationError", e)
		fields[verr.Field] = true
	}
	assert.Equal(t, map[string]bool{
		"harvest.merge_policy": true,
		"harvest.max_items":    true,
		"schedule.spec":        true,
		"schedule.sources":     true,
		"sources[1].name":      true,
		"sources[2].kind":      true,
	}, fields)
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"archiveorg", "deadcast", "gdao", "github"}, cfg.EnabledSources())
}

func TestLoadSources(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "sources.yaml", `
sources:
  - name: github
    query: "deadhead"
    page_size: 30
  - name: shows
    kind: archiveorg
    details: true
`)
	defs, err := config.LoadSources(path)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "github", defs[0].Kind)
	assert.Equal(t, 30, defs[0].PageSize)
	assert.True(t, defs[1].Details)

	_, err = config.LoadSources(writeFile(t, "empty.yaml", "sources: []\n"))
	require.Error(t, err)
}
