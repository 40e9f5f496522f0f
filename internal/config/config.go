// Package config assembles the harvester configuration from defaults, a
// YAML file, .env files, and the environment.
package config

import (
	"time"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/api"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/attachments"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/fetcher"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/harvest"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/index"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/logger"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/ratelimit"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/sink"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/sources"
)

// Defaults.
const (
	DefaultAppName      = "harvester"
	DefaultOutputDir    = "output"
	DefaultScheduleSpec = "@daily"
	DefaultEventTTL     = 7 * 24 * time.Hour
)

// Config is the complete harvester configuration.
type Config struct {
	App           AppConfig            `mapstructure:"app"           yaml:"app"`
	Logger        logger.Config        `mapstructure:"logger"        yaml:"logger"`
	Harvest       harvest.Config       `mapstructure:"harvest"       yaml:"harvest"`
	RateLimit     ratelimit.Config     `mapstructure:"rate_limit"    yaml:"rate_limit"`
	Fetcher       fetcher.Config       `mapstructure:"fetcher"       yaml:"fetcher"`
	Attachments   attachments.Config   `mapstructure:"attachments"   yaml:"attachments"`
	Sink          SinkConfig           `mapstructure:"sink"          yaml:"sink"`
	Redis         sink.RedisConfig     `mapstructure:"redis"         yaml:"redis"`
	Elasticsearch index.Config         `mapstructure:"elasticsearch" yaml:"elasticsearch"`
	Server        api.Config           `mapstructure:"server"        yaml:"server"`
	Schedule      ScheduleConfig       `mapstructure:"schedule"      yaml:"schedule"`
	Sources       []sources.Definition `mapstructure:"sources"       yaml:"sources"`
}

// AppConfig identifies the running binary.
type AppConfig struct {
	Name        string `env:"APP_NAME"    mapstructure:"name"        yaml:"name"`
	Version     string `mapstructure:"version"     yaml:"version"`
	Environment string `env:"APP_ENV"     mapstructure:"environment" yaml:"environment"`
	Debug       bool   `env:"APP_DEBUG"   mapstructure:"debug"       yaml:"debug"`
}

// SinkConfig locates the output tree.
type SinkConfig struct {
	// OutputDir holds <source>.jsonl, cursor files, error logs, and attachments/.
	OutputDir string `env:"HARVEST_OUTPUT_DIR" mapstructure:"output_dir" yaml:"output_dir"`
	// ErrorLog writes <source>.errors.log next to the JSONL file.
	ErrorLog bool `mapstructure:"error_log" yaml:"error_log"`
}

// ScheduleConfig drives periodic harvests.
type ScheduleConfig struct {
	// Spec is a cron expression or descriptor such as "@daily".
	Spec string `env:"SCHEDULE_SPEC" mapstructure:"spec" yaml:"spec"`
	// Sources limits scheduled runs; empty means every enabled source.
	Sources []string `mapstructure:"sources" yaml:"sources"`
}

// SetDefaults fills unset values.
func (c *Config) SetDefaults() {
	if c.App.Name == "" {
		c.App.Name = DefaultAppName
	}
	if c.App.Debug {
		c.Logger.Development = true
		c.Logger.Level = "debug"
	}
	c.Logger.SetDefaults()
	c.Harvest = c.Harvest.WithDefaults()
	c.Fetcher = c.Fetcher.WithDefaults()
	if c.Attachments.Concurrency <= 0 {
		c.Attachments.Concurrency = attachments.DefaultConcurrency
	}
	if c.Sink.OutputDir == "" {
		c.Sink.OutputDir = DefaultOutputDir
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = sink.DefaultRedisKeyPrefix
	}
	if c.Redis.EventTTL <= 0 {
		c.Redis.EventTTL = DefaultEventTTL
	}
	c.Elasticsearch.SetDefaults()
	c.Server.SetDefaults()
	c.Server.ServiceVersion = c.App.Version
	if c.Schedule.Spec == "" {
		c.Schedule.Spec = DefaultScheduleSpec
	}
	if len(c.Sources) == 0 {
		c.Sources = sources.Defaults()
	}
	for i := range c.Sources {
		if c.Sources[i].Kind == "" {
			c.Sources[i].Kind = c.Sources[i].Name
		}
	}
}

// Registry builds a source registry from the configured definitions.
func (c *Config) Registry() *sources.Registry {
	return sources.NewRegistry(c.Sources...)
}

// EnabledSources returns the names scheduled runs should harvest.
func (c *Config) EnabledSources() []string {
	var names []string
	for _, d := range c.Registry().Definitions() {
		if !d.Disabled {
			names = append(names, d.Name)
		}
	}
	if len(c.Schedule.Sources) == 0 {
		return names
	}
	var picked []string
	for _, name := range names {
		for _, want := range c.Schedule.Sources {
			if name == want {
				picked = append(picked, name)
			}
		}
	}
	return picked
}
