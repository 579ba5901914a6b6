package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiomcp/internal/config"
)

// setupEnv writes an empty config file so that no user or project file is
// read, and sets the given environment.
func setupEnv(t *testing.T, env map[string]string) string {
	t.Helper()
	for _, key := range []string{
		config.EnvAccessToken, config.EnvClientID, config.EnvUID,
		config.EnvReadOnlyMode, config.EnvLogFile, config.EnvLogToStderr,
		config.EnvCacheEnabled, config.EnvTransport, config.EnvOTLPEndpoint,
	} {
		t.Setenv(key, "")
	}
	for k, v := range env {
		t.Setenv(k, v)
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))
	return path
}

var credentials = map[string]string{
	config.EnvAccessToken: "token",
	config.EnvClientID:    "client",
	config.EnvUID:         "me@example.com",
}

func TestNewApplication_MissingCredentials(t *testing.T) {
	path := setupEnv(t, nil)

	app, err := NewApplication(NewConfig(path, false, false))

	assert.Nil(t, app)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrMissingCredentials)
}

func TestNewApplication_InitializesServices(t *testing.T) {
	tests := []struct {
		name      string
		readOnly  bool
		env       map[string]string
		wantTools int
		wantCache bool
	}{
		{name: "defaults", wantTools: 16, wantCache: true},
		{name: "read-only flag", readOnly: true, wantTools: 6, wantCache: true},
		{name: "read-only env", env: map[string]string{config.EnvReadOnlyMode: "true"}, wantTools: 6, wantCache: true},
		{name: "cache disabled", env: map[string]string{config.EnvCacheEnabled: "false"}, wantTools: 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := map[string]string{}
			for k, v := range credentials {
				env[k] = v
			}
			for k, v := range tt.env {
				env[k] = v
			}
			path := setupEnv(t, env)

			app, err := NewApplication(NewConfig(path, false, tt.readOnly))
			require.NoError(t, err)
			defer app.Close()

			services := app.Services()
			require.NotNil(t, services)
			assert.Len(t, services.Tools.Names(), tt.wantTools)
			assert.Len(t, services.Tools.ServerTools(), tt.wantTools)
			assert.Equal(t, tt.wantCache, services.Cache != nil)
			assert.Equal(t, tt.wantCache, services.Client.CachingEnabled())
		})
	}
}

func TestNewApplication_LogFileTarget(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "studiomcp.log")
	env := map[string]string{
		config.EnvLogFile:     logPath,
		config.EnvLogToStderr: "false",
	}
	for k, v := range credentials {
		env[k] = v
	}
	path := setupEnv(t, env)

	app, err := NewApplication(NewConfig(path, false, false))
	require.NoError(t, err)
	app.Close()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Initialized with 16 tools")
}

func TestRun_StopsOnCancelledContext(t *testing.T) {
	env := map[string]string{
		config.EnvTransport: config.MCPTransportSSE,
		config.EnvPort:      "18932",
		config.EnvHost:      "127.0.0.1",
	}
	for k, v := range credentials {
		env[k] = v
	}
	path := setupEnv(t, env)

	app, err := NewApplication(NewConfig(path, false, false))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, app.Run(ctx))
}
