package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment key viper reads, e.g.
// HARVESTER_HARVEST_MAX_PAGES.
const EnvPrefix = "HARVESTER"

// NewViper prepares a viper instance: .env files first, then defaults, the
// config file (cfgFile, or harvester.yaml in . or ./config), and
// HARVESTER_* environment variables.
func NewViper(cfgFile string) (*viper.Viper, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setViperDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("harvester")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// FromViper decodes v into a Config, applies env-tag overrides and
// defaults, and validates the result.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyEnvOverrides(&cfg)
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Viper only resolves environment variables for keys it knows about, so
// every scalar key gets a default here.
func setViperDefaults(v *viper.Viper) {
	v.SetDefault("app.name", DefaultAppName)
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "production")
	v.SetDefault("app.debug", false)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")
	v.SetDefault("logger.development", false)
	v.SetDefault("logger.output_paths", []string{"stderr"})

	v.SetDefault("harvest.start_page", 1)
	v.SetDefault("harvest.resume", true)
	v.SetDefault("harvest.max_pages", 0)
	v.SetDefault("harvest.max_items", 0)
	v.SetDefault("harvest.merge_policy", "last_write_wins")
	v.SetDefault("harvest.shutdown_grace", "10s")

	v.SetDefault("rate_limit.interval", "1s")
	v.SetDefault("rate_limit.jitter", "0s")

	v.SetDefault("fetcher.user_agent", "")
	v.SetDefault("fetcher.request_timeout", "30s")
	v.SetDefault("fetcher.max_attempts", 3)
	v.SetDefault("fetcher.base_delay", "1s")
	v.SetDefault("fetcher.max_delay", "30s")
	v.SetDefault("fetcher.multiplier", 2.0)
	v.SetDefault("fetcher.respect_robots", true)
	v.SetDefault("fetcher.robots_cache_ttl", "1h")

	v.SetDefault("attachments.enabled", true)
	v.SetDefault("attachments.concurrency", 4)

	v.SetDefault("sink.output_dir", DefaultOutputDir)
	v.SetDefault("sink.error_log", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "harvester")
	v.SetDefault("redis.event_ttl", DefaultEventTTL.String())

	v.SetDefault("elasticsearch.enabled", false)
	v.SetDefault("elasticsearch.url", "http://localhost:9200")
	v.SetDefault("elasticsearch.username", "")
	v.SetDefault("elasticsearch.password", "")
	v.SetDefault("elasticsearch.api_key", "")
	v.SetDefault("elasticsearch.index_prefix", "harvest")

	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.debug", false)

	v.SetDefault("schedule.spec", DefaultScheduleSpec)
}

// loadEnvFiles loads ENV_FILE if set, otherwise .env.local then .env.
// Missing files are ignored.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}
