package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"studiomcp/pkg/logging"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd
var lookupEnv = os.LookupEnv

const (
	userConfigDir    = ".config/studiomcp"
	projectConfigDir = ".studiomcp"
	configFileName   = "config.yaml"
)

// Environment variables recognized by the loader.
const (
	EnvAccessToken      = "CUCUMBERSTUDIO_ACCESS_TOKEN"
	EnvClientID         = "CUCUMBERSTUDIO_CLIENT_ID"
	EnvUID              = "CUCUMBERSTUDIO_UID"
	EnvBaseURL          = "CUCUMBERSTUDIO_BASE_URL"
	EnvLogLevel         = "LOG_LEVEL"
	EnvLogFormat        = "LOG_FORMAT"
	EnvLogFile          = "LOG_FILE"
	EnvLogToStderr      = "LOG_TO_STDERR"
	EnvCacheEnabled     = "CACHE_ENABLED"
	EnvCacheTTLSeconds  = "CACHE_TTL_SECONDS"
	EnvRequestTimeoutMS = "REQUEST_TIMEOUT_MS"
	EnvReadOnlyMode     = "READ_ONLY_MODE"
	EnvSanitizeErrors   = "SANITIZE_ERRORS"
	EnvTransport        = "MCP_TRANSPORT"
	EnvHost             = "MCP_HOST"
	EnvPort             = "MCP_PORT"
	EnvOTLPEndpoint     = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvOTLPInsecure     = "OTEL_EXPORTER_OTLP_INSECURE"
)

// ErrMissingCredentials is returned when any upstream credential is unset.
var ErrMissingCredentials = errors.New("missing Cucumber Studio credentials")

// LoadConfig loads the configuration by layering defaults, the user file,
// the project file and finally the environment.
func LoadConfig() (StudioMCPConfig, error) {
	config := GetDefaultConfig()

	userConfigPath, err := getUserConfigPath()
	if err != nil {
		logging.Warn("Config", "Could not determine user config path: %v", err)
	} else if err := overlayFile(&config, userConfigPath); err != nil {
		return StudioMCPConfig{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
	}

	projectConfigPath, err := getProjectConfigPath()
	if err != nil {
		logging.Warn("Config", "Could not determine project config path: %v", err)
	} else if err := overlayFile(&config, projectConfigPath); err != nil {
		return StudioMCPConfig{}, fmt.Errorf("error loading project config from %s: %w", projectConfigPath, err)
	}

	if err := applyEnv(&config); err != nil {
		return StudioMCPConfig{}, err
	}
	return config, nil
}

// LoadConfigFromPath loads defaults, then the given file, then the environment.
// Unlike LoadConfig, a missing file is an error.
func LoadConfigFromPath(path string) (StudioMCPConfig, error) {
	config := GetDefaultConfig()

	if _, err := os.Stat(path); err != nil {
		return StudioMCPConfig{}, fmt.Errorf("config file %s: %w", path, err)
	}
	if err := overlayFile(&config, path); err != nil {
		return StudioMCPConfig{}, fmt.Errorf("error loading config from %s: %w", path, err)
	}

	if err := applyEnv(&config); err != nil {
		return StudioMCPConfig{}, err
	}
	return config, nil
}

var getUserConfigPath = func() (string, error) {
	dir, err := GetUserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

// overlayFile decodes the YAML file onto config. Keys absent from the file
// keep their current value. A file that does not exist is skipped.
func overlayFile(config *StudioMCPConfig, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return err
	}
	logging.Debug("Config", "Applied configuration file %s", filePath)
	return nil
}

// applyEnv overrides config with the environment variables that are set.
func applyEnv(config *StudioMCPConfig) error {
	setString(EnvAccessToken, &config.Studio.AccessToken)
	setString(EnvClientID, &config.Studio.ClientID)
	setString(EnvUID, &config.Studio.UID)
	setString(EnvBaseURL, &config.Studio.BaseURL)
	setString(EnvLogLevel, &config.Logging.Level)
	setString(EnvLogFormat, &config.Logging.Format)
	setString(EnvLogFile, &config.Logging.File)
	setString(EnvTransport, &config.Server.Transport)
	setString(EnvHost, &config.Server.Host)
	setString(EnvOTLPEndpoint, &config.Telemetry.Endpoint)

	var errs []error
	errs = append(errs,
		setBool(EnvLogToStderr, &config.Logging.ToStderr),
		setBool(EnvCacheEnabled, &config.Cache.Enabled),
		setBool(EnvReadOnlyMode, &config.ReadOnly),
		setBool(EnvSanitizeErrors, &config.SanitizeErrors),
		setBool(EnvOTLPInsecure, &config.Telemetry.Insecure),
		setInt(EnvCacheTTLSeconds, &config.Cache.TTLSeconds),
		setInt(EnvRequestTimeoutMS, &config.Studio.RequestTimeoutMS),
		setInt(EnvPort, &config.Server.Port),
	)
	return errors.Join(errs...)
}

func setString(name string, target *string) {
	if v, ok := lookupEnv(name); ok && v != "" {
		*target = v
	}
}

func setBool(name string, target *bool) error {
	v, ok := lookupEnv(name)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid value %q for %s: expected a boolean", v, name)
	}
	*target = b
	return nil
}

func setInt(name string, target *int) error {
	v, ok := lookupEnv(name)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid value %q for %s: expected an integer", v, name)
	}
	*target = n
	return nil
}

// Validate checks the loaded configuration. Missing credentials are
// reported as ErrMissingCredentials.
func (c StudioMCPConfig) Validate() error {
	var missing []string
	if c.Studio.AccessToken == "" {
		missing = append(missing, EnvAccessToken)
	}
	if c.Studio.ClientID == "" {
		missing = append(missing, EnvClientID)
	}
	if c.Studio.UID == "" {
		missing = append(missing, EnvUID)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: set %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}

	var errs []error
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unsupported log format %q: expected text or json", c.Logging.Format))
	}
	switch c.Server.Transport {
	case MCPTransportStdio, MCPTransportSSE:
	default:
		errs = append(errs, fmt.Errorf("unsupported transport %q: expected %s or %s", c.Server.Transport, MCPTransportStdio, MCPTransportSSE))
	}
	if c.Cache.TTLSeconds < 0 {
		errs = append(errs, fmt.Errorf("cache TTL must not be negative, got %d", c.Cache.TTLSeconds))
	}
	if c.Studio.RequestTimeoutMS <= 0 {
		errs = append(errs, fmt.Errorf("request timeout must be positive, got %d", c.Studio.RequestTimeoutMS))
	}
	if c.Server.Transport == MCPTransportSSE && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Server.Port))
	}
	if !c.Logging.ToStderr && c.Logging.File == "" {
		errs = append(errs, errors.New("no log target: enable stderr logging or set a log file"))
	}
	return errors.Join(errs...)
}

// GetUserConfigDir returns the user configuration directory path
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir), nil
}
