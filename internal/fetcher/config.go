package fetcher

import "time"

// Default configuration values.
const (
	defaultUserAgent      = "Mozilla/5.0 (compatible; GratefulGPT-Harvester/1.0; Cultural Preservation)"
	defaultRequestTimeout = 30 * time.Second
	defaultMaxAttempts    = 3
	defaultBaseDelay      = time.Second
	defaultMaxDelay       = 30 * time.Second
	defaultMultiplier     = 2.0
	defaultMaxRedirects   = 10
	defaultMaxPageBytes   = 10 * 1024 * 1024
	defaultMaxFileBytes   = 100 * 1024 * 1024
)

// Config holds retrying fetcher configuration.
type Config struct {
	UserAgent      string        `env:"FETCHER_USER_AGENT"      mapstructure:"user_agent"      yaml:"user_agent"`
	RequestTimeout time.Duration `env:"FETCHER_REQUEST_TIMEOUT" mapstructure:"request_timeout" yaml:"request_timeout"`
	MaxAttempts    int           `env:"FETCHER_MAX_ATTEMPTS"    mapstructure:"max_attempts"    yaml:"max_attempts"`
	BaseDelay      time.Duration `env:"FETCHER_BASE_DELAY"      mapstructure:"base_delay"      yaml:"base_delay"`
	MaxDelay       time.Duration `env:"FETCHER_MAX_DELAY"       mapstructure:"max_delay"       yaml:"max_delay"`
	Multiplier     float64       `mapstructure:"multiplier"      yaml:"multiplier"`
	MaxRedirects   int           `mapstructure:"max_redirects"   yaml:"max_redirects"`
	MaxPageBytes   int64         `mapstructure:"max_page_bytes"  yaml:"max_page_bytes"`
	MaxFileBytes   int64         `mapstructure:"max_file_bytes"  yaml:"max_file_bytes"`
	RespectRobots  bool          `env:"FETCHER_RESPECT_ROBOTS"  mapstructure:"respect_robots"  yaml:"respect_robots"`
	RobotsCacheTTL time.Duration `mapstructure:"robots_cache_ttl" yaml:"robots_cache_ttl"`
}

// WithDefaults returns a copy of the config with default values applied for zero-value fields.
func (c Config) WithDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = defaultBaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = defaultMaxDelay
	}
	if c.Multiplier <= 1 {
		c.Multiplier = defaultMultiplier
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = defaultMaxRedirects
	}
	if c.MaxPageBytes <= 0 {
		c.MaxPageBytes = defaultMaxPageBytes
	}
	if c.MaxFileBytes <= 0 {
		c.MaxFileBytes = defaultMaxFileBytes
	}
	if c.RobotsCacheTTL <= 0 {
		c.RobotsCacheTTL = defaultRobotsCacheTTL
	}
	return c
}
