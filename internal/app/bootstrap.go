package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studiomcp/internal/config"
	"studiomcp/internal/telemetry"
	"studiomcp/pkg/logging"
)

// Application is the main application structure that bootstraps and runs studiomcp
type Application struct {
	config    *Config
	services  *Services
	telemetry *telemetry.Provider
	logFile   *os.File
}

// NewApplication loads the configuration and initializes every service.
// Missing credentials are returned as config.ErrMissingCredentials.
func NewApplication(cfg *Config) (*Application, error) {
	bootstrapLevel := logging.LevelInfo
	if cfg.Debug {
		bootstrapLevel = logging.LevelDebug
	}

	// Stdout carries the stdio transport, so logs always go elsewhere.
	logging.InitForCLI(bootstrapLevel, os.Stderr)

	var loaded config.StudioMCPConfig
	var err error
	if cfg.ConfigPath != "" {
		loaded, err = config.LoadConfigFromPath(cfg.ConfigPath)
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load configuration from path: %s", cfg.ConfigPath)
			return nil, fmt.Errorf("failed to load configuration from path %s: %w", cfg.ConfigPath, err)
		}
		logging.Debug("Bootstrap", "Loaded configuration from custom path: %s", cfg.ConfigPath)
	} else {
		loaded, err = config.LoadConfig()
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load configuration")
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		logging.Debug("Bootstrap", "Loaded configuration using layered approach")
	}

	cfg.applyOverrides(&loaded)
	if err := loaded.Validate(); err != nil {
		logging.Error("Bootstrap", err, "Invalid configuration")
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.StudioMCPConfig = &loaded

	app := &Application{config: cfg}
	if err := app.initLogging(loaded.Logging); err != nil {
		return nil, err
	}

	app.telemetry, err = telemetry.New(context.Background(), telemetry.Config{
		ServiceName:    "studiomcp",
		ServiceVersion: cfg.Version,
		Endpoint:       loaded.Telemetry.Endpoint,
		Insecure:       loaded.Telemetry.Insecure,
	})
	if err != nil {
		logging.Warn("Bootstrap", "Telemetry disabled: %v", err)
		app.telemetry = &telemetry.Provider{}
	}

	services, err := InitializeServices(cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	app.services = services

	logging.Info("Bootstrap", "Initialized with %d tools (transport=%s)", len(services.Tools.Names()), loaded.Server.Transport)
	return app, nil
}

// initLogging switches from the bootstrap logger to the configured targets.
func (a *Application) initLogging(lc config.LoggingConfig) error {
	level, err := logging.ParseLevel(lc.Level)
	if err != nil {
		return err
	}

	var targets []io.Writer
	if lc.ToStderr {
		targets = append(targets, os.Stderr)
	}
	if lc.File != "" {
		f, err := os.OpenFile(lc.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", lc.File, err)
		}
		a.logFile = f
		targets = append(targets, f)
	}

	logging.Init(logging.Options{
		Level:  level,
		Output: io.MultiWriter(targets...),
		Format: lc.Format,
	})
	return nil
}

// Services returns the initialized services.
func (a *Application) Services() *Services {
	return a.services
}

// Run serves MCP until ctx is cancelled or SIGINT/SIGTERM is received.
func (a *Application) Run(ctx context.Context) error {
	defer a.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := a.services.Server.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error("Bootstrap", err, "Server stopped with error")
		return err
	}
	logging.Info("Bootstrap", "Server stopped")
	return nil
}

// Close flushes telemetry and logs. Safe to call more than once.
func (a *Application) Close() {
	if a.telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.telemetry.Shutdown(ctx)
		cancel()
		a.telemetry = nil
	}
	if dropped := logging.Dropped(); dropped > 0 {
		logging.Warn("Bootstrap", "Dropped %d log entries because the log buffer was full", dropped)
	}
	logging.Close()
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}
