// Package config provides configuration management for studiomcp.
//
// Configuration is loaded from several sources, with later sources
// overriding earlier ones:
//
//  1. Default Configuration (embedded in binary)
//     - Public API base URL, 30s request timeout, 120s cache TTL
//     - stdio transport, text logs on stderr
//
//  2. User Configuration (~/.config/studiomcp/config.yaml)
//
//  3. Project Configuration (./.studiomcp/config.yaml)
//
//  4. Environment variables
//     - CUCUMBERSTUDIO_ACCESS_TOKEN, CUCUMBERSTUDIO_CLIENT_ID, CUCUMBERSTUDIO_UID
//     - CUCUMBERSTUDIO_BASE_URL, REQUEST_TIMEOUT_MS
//     - LOG_LEVEL, LOG_FORMAT, LOG_FILE, LOG_TO_STDERR
//     - CACHE_ENABLED, CACHE_TTL_SECONDS
//     - READ_ONLY_MODE, SANITIZE_ERRORS
//     - MCP_TRANSPORT, MCP_HOST, MCP_PORT
//     - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE
//
// When an explicit path is given (--config), it replaces layers 2 and 3.
//
// A YAML file only needs the keys it changes:
//
//	studio:
//	  baseURL: "https://studio.cucumberstudio.com/api"
//	  requestTimeoutMs: 10000
//	logging:
//	  level: debug
//	  format: json
//	  file: /var/log/studiomcp.log
//	cache:
//	  enabled: true
//	  ttlSeconds: 300
//	server:
//	  transport: sse
//	  port: 8090
//	readOnly: true
//
// Credentials are normally provided through the environment. Validate
// reports missing credentials as ErrMissingCredentials, which is fatal at
// startup.
package config
