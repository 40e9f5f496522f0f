package index

import "time"

// Defaults for the Elasticsearch mirror.
const (
	DefaultURL         = "http://localhost:9200"
	DefaultIndexPrefix = "harvest"
	DefaultMaxRetries  = 3
	DefaultPingTimeout = 5 * time.Second
	DefaultPingRetries = 3
)

// Config holds Elasticsearch mirror configuration.
type Config struct {
	// Enabled turns the mirror on. The JSONL sink stays authoritative either way.
	Enabled bool `env:"ELASTICSEARCH_ENABLED" mapstructure:"enabled" yaml:"enabled"`

	// URL is the Elasticsearch server URL (e.g., http://elasticsearch:9200).
	URL string `env:"ELASTICSEARCH_URL" mapstructure:"url" yaml:"url"`

	Username string `env:"ELASTICSEARCH_USERNAME" mapstructure:"username" yaml:"username"`
	Password string `env:"ELASTICSEARCH_PASSWORD" mapstructure:"password" yaml:"password"`
	APIKey   string `env:"ELASTICSEARCH_API_KEY"  mapstructure:"api_key"  yaml:"api_key"`

	// IndexPrefix is prepended to the source name to form the index name.
	IndexPrefix string `mapstructure:"index_prefix" yaml:"index_prefix"`

	// MaxRetries is the client's per-request retry budget.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`

	// PingTimeout bounds each connection check.
	PingTimeout time.Duration `mapstructure:"ping_timeout" yaml:"ping_timeout"`

	// PingRetries is how many times the initial ping is attempted.
	PingRetries int `mapstructure:"ping_retries" yaml:"ping_retries"`
}

// SetDefaults applies default values to the config if not set.
func (c *Config) SetDefaults() {
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.IndexPrefix == "" {
		c.IndexPrefix = DefaultIndexPrefix
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.PingTimeout <= 0 {
		c.PingTimeout = DefaultPingTimeout
	}
	if c.PingRetries <= 0 {
		c.PingRetries = DefaultPingRetries
	}
}
