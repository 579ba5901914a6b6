package app

import (
	"studiomcp/internal/config"
)

// Config holds the application configuration
type Config struct {
	// ConfigPath replaces the layered user and project files when set
	ConfigPath string

	// Debug forces debug logging
	Debug bool

	// ReadOnly forces read-only mode regardless of the environment
	ReadOnly bool

	// Transport overrides the configured MCP transport when set
	Transport string

	// Version is reported to MCP clients and telemetry
	Version string

	// Loaded configuration, nil until NewApplication runs
	StudioMCPConfig *config.StudioMCPConfig
}

// NewConfig creates a new application configuration
func NewConfig(configPath string, debug, readOnly bool) *Config {
	return &Config{
		ConfigPath: configPath,
		Debug:      debug,
		ReadOnly:   readOnly,
	}
}

// applyOverrides applies command line flags on top of the loaded configuration.
func (c *Config) applyOverrides(loaded *config.StudioMCPConfig) {
	if c.Debug {
		loaded.Logging.Level = "debug"
	}
	if c.ReadOnly {
		loaded.ReadOnly = true
	}
	if c.Transport != "" {
		loaded.Server.Transport = c.Transport
	}
}
