package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultDBPort        = 5432
	DefaultDBSSLMode     = "prefer"
	DefaultMaxConns      = 10
	DefaultMinConns      = 2
	DefaultJobsFile      = "config/jobs.yaml"
	DefaultWatchInterval = 1 * time.Second
	DefaultLogLevel      = "info"
)

func (c *ServiceConfig) applyDefaults() {
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	if c.Jobs.File == "" {
		c.Jobs.File = DefaultJobsFile
	}
	if c.Jobs.WatchInterval == 0 {
		c.Jobs.WatchInterval = DefaultWatchInterval
	}

	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
}
