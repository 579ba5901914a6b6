package app

import (
	"fmt"

	"studiomcp/internal/api"
	"studiomcp/internal/api/tools"
	"studiomcp/internal/cache"
	"studiomcp/internal/config"
	"studiomcp/internal/server"
	"studiomcp/internal/studio"
	"studiomcp/pkg/logging"
)

// Services holds all the initialized services
type Services struct {
	Cache   *cache.Cache
	Client  *studio.Client
	Service *api.Service
	Tools   *tools.Tools
	Server  *server.Server
}

// InitializeServices builds the request path from the loaded configuration:
// cache, upstream client, domain service, tools and MCP server.
func InitializeServices(cfg *Config) (*Services, error) {
	loaded := cfg.StudioMCPConfig
	if loaded == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}

	var clientOpts []studio.Option
	var responseCache *cache.Cache
	if loaded.Cache.Enabled {
		responseCache = cache.New(loaded.CacheTTL())
		clientOpts = append(clientOpts, studio.WithCache(responseCache))
		logging.Info("Bootstrap", "Response cache enabled (ttl=%s)", loaded.CacheTTL())
	} else {
		logging.Info("Bootstrap", "Response cache disabled")
	}

	client, err := studio.NewClient(studio.Config{
		BaseURL: loaded.Studio.BaseURL,
		Credentials: studio.Credentials{
			AccessToken: loaded.Studio.AccessToken,
			ClientID:    loaded.Studio.ClientID,
			UID:         loaded.Studio.UID,
		},
		Timeout: loaded.RequestTimeout(),
	}, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create studio client: %w", err)
	}

	service := api.NewService(client)

	toolSet, err := tools.New(service, tools.Options{
		ReadOnly:       loaded.ReadOnly,
		SanitizeErrors: loaded.SanitizeErrors,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build tools: %w", err)
	}
	if loaded.ReadOnly {
		logging.Info("Bootstrap", "Read-only mode: write tools are disabled")
	}

	srv := server.New(server.Config{
		Name:      "studiomcp",
		Version:   cfg.Version,
		Transport: transportName(loaded.Server.Transport),
		Host:      loaded.Server.Host,
		Port:      loaded.Server.Port,
	}, toolSet.ServerTools())

	return &Services{
		Cache:   responseCache,
		Client:  client,
		Service: service,
		Tools:   toolSet,
		Server:  srv,
	}, nil
}

func transportName(t string) string {
	if t == config.MCPTransportSSE {
		return server.TransportSSE
	}
	return server.TransportStdio
}
