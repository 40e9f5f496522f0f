package api

import "time"

// Default server values.
const (
	DefaultPort            = 8090
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// Config holds the status server configuration.
type Config struct {
	Enabled bool `env:"SERVER_ENABLED" mapstructure:"enabled" yaml:"enabled"`
	Port    int  `env:"SERVER_PORT"    mapstructure:"port"    yaml:"port"`
	// Debug switches gin into debug mode.
	Debug           bool          `mapstructure:"debug"            yaml:"debug"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"     yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"    yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	ServiceVersion  string        `mapstructure:"-"                yaml:"-"`
}

// SetDefaults applies default values to the config if not set.
func (c *Config) SetDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
}
