package config

import (
	"time"
)

// StudioMCPConfig is the top-level configuration structure for studiomcp.
type StudioMCPConfig struct {
	Studio    StudioConfig    `yaml:"studio"`
	Logging   LoggingConfig   `yaml:"logging"`
	Cache     CacheConfig     `yaml:"cache"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// ReadOnly hides and rejects every tool that writes upstream.
	ReadOnly bool `yaml:"readOnly"`
	// SanitizeErrors hides upstream error details from tool results.
	SanitizeErrors bool `yaml:"sanitizeErrors"`
}

// StudioConfig holds the upstream API settings. Credentials are usually
// supplied through the environment rather than the config file.
type StudioConfig struct {
	BaseURL          string `yaml:"baseURL,omitempty"`
	AccessToken      string `yaml:"accessToken,omitempty"`
	ClientID         string `yaml:"clientID,omitempty"`
	UID              string `yaml:"uid,omitempty"`
	RequestTimeoutMS int    `yaml:"requestTimeoutMs,omitempty"`
}

// LoggingConfig selects the log level, format and targets.
type LoggingConfig struct {
	Level    string `yaml:"level,omitempty"`  // debug, info, warn or error
	Format   string `yaml:"format,omitempty"` // text or json
	File     string `yaml:"file,omitempty"`   // optional file target, appended to
	ToStderr bool   `yaml:"toStderr"`
}

// CacheConfig controls the GET response cache.
type CacheConfig struct {
	Enabled    bool `yaml:"enabled"`
	TTLSeconds int  `yaml:"ttlSeconds,omitempty"`
}

// ServerConfig selects the MCP transport.
type ServerConfig struct {
	Transport string `yaml:"transport,omitempty"` // stdio or sse
	Host      string `yaml:"host,omitempty"`
	Port      int    `yaml:"port,omitempty"`
}

// TelemetryConfig enables OTLP export when Endpoint is set.
type TelemetryConfig struct {
	Endpoint string `yaml:"endpoint,omitempty"`
	Insecure bool   `yaml:"insecure,omitempty"`
}

const (
	// MCPTransportSSE is the Server-Sent Events transport.
	MCPTransportSSE = "sse"
	// MCPTransportStdio is the standard I/O transport.
	MCPTransportStdio = "stdio"
)

// CacheTTL returns the cache TTL as a duration.
func (c StudioMCPConfig) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// RequestTimeout returns the upstream request timeout as a duration.
func (c StudioMCPConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Studio.RequestTimeoutMS) * time.Millisecond
}
