package config

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/robfig/cron/v3"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/extract"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/sources"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validate checks the whole config and reports every problem found.
func (c *Config) Validate() error {
	var result *multierror.Error
	add := func(err *ValidationError) {
		if err != nil {
			result = multierror.Append(result, err)
		}
	}

	add(validateLogLevel(c.Logger.Level))
	if c.Sink.OutputDir == "" {
		add(invalid("sink.output_dir", "is required"))
	}
	if c.Harvest.MaxPages < 0 {
		add(invalid("harvest.max_pages", "must not be negative"))
	}
	if c.Harvest.MaxItems < 0 {
		add(invalid("harvest.max_items", "must not be negative"))
	}
	if _, err := extract.ParseMergePolicy(string(c.Harvest.MergePolicy)); err != nil {
		add(invalid("harvest.merge_policy", "%v", err))
	}
	if c.Fetcher.BaseDelay > c.Fetcher.MaxDelay {
		add(invalid("fetcher.base_delay", "must not exceed fetcher.max_delay"))
	}
	if c.Server.Enabled && (c.Server.Port < 1 || c.Server.Port > 65535) {
		add(invalid("server.port", "must be between 1 and 65535"))
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		add(invalid("redis.addr", "is required when redis is enabled"))
	}
	if _, err := cron.ParseStandard(c.Schedule.Spec); err != nil {
		add(invalid("schedule.spec", "%v", err))
	}

	names := mapset.NewThreadUnsafeSet[string]()
	for i, d := range c.Sources {
		field := fmt.Sprintf("sources[%d]", i)
		switch {
		case d.Name == "":
			add(invalid(field+".name", "is required"))
		case !names.Add(d.Name):
			add(invalid(field+".name", "duplicate source %q", d.Name))
		}
		if !sources.KnownKind(d.Kind) {
			add(invalid(field+".kind", "unknown kind %q", d.Kind))
		}
		if d.PageSize < 0 {
			add(invalid(field+".page_size", "must not be negative"))
		}
	}
	for _, name := range c.Schedule.Sources {
		if !names.Contains(name) {
			add(invalid("schedule.sources", "unknown source %q", name))
		}
	}

	return result.ErrorOrNil()
}

func validateLogLevel(level string) *ValidationError {
	switch level {
	case "debug", "info", "warn", "warning", "error", "fatal":
		return nil
	default:
		return invalid("logger.level", "must be one of: debug, info, warn, error, fatal")
	}
}
