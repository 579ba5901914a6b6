package config

const (
	defaultBaseURL          = "https://studio.cucumberstudio.com/api"
	defaultRequestTimeoutMS = 30000
	defaultCacheTTLSeconds  = 120
	defaultPort             = 8090
)

// GetDefaultConfig returns the configuration used before any file or
// environment variable is applied. It carries no credentials.
func GetDefaultConfig() StudioMCPConfig {
	return StudioMCPConfig{
		Studio: StudioConfig{
			BaseURL:          defaultBaseURL,
			RequestTimeoutMS: defaultRequestTimeoutMS,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "text",
			ToStderr: true,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: defaultCacheTTLSeconds,
		},
		Server: ServerConfig{
			Transport: MCPTransportStdio,
			Host:      "localhost",
			Port:      defaultPort,
		},
	}
}
