// Package server hosts the studiomcp tools over an MCP transport.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"studiomcp/pkg/logging"
)

const (
	// TransportStdio serves a single client over stdin and stdout.
	TransportStdio = "stdio"
	// TransportSSE serves clients over HTTP Server-Sent Events.
	TransportSSE = "sse"

	shutdownTimeout = 5 * time.Second
)

// Config configures the MCP server.
type Config struct {
	Name      string
	Version   string
	Transport string
	Host      string
	Port      int
}

// Server wraps an mcp-go server and the transport it is served on.
type Server struct {
	config Config
	mcp    *mcpserver.MCPServer

	stdin  io.Reader
	stdout io.Writer
}

// New creates a server exposing tools.
func New(config Config, tools []mcpserver.ServerTool) *Server {
	if config.Name == "" {
		config.Name = "studiomcp"
	}
	if config.Transport == "" {
		config.Transport = TransportStdio
	}
	if config.Host == "" {
		config.Host = "localhost"
	}
	if config.Port == 0 {
		config.Port = 8090
	}

	mcp := mcpserver.NewMCPServer(
		config.Name,
		config.Version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)
	mcp.AddTools(tools...)

	return &Server{
		config: config,
		mcp:    mcp,
		stdin:  os.Stdin,
		stdout: os.Stdout,
	}
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcp
}

// Serve blocks until ctx is cancelled or the transport fails.
func (s *Server) Serve(ctx context.Context) error {
	switch s.config.Transport {
	case TransportStdio:
		return s.serveStdio(ctx)
	case TransportSSE:
		return s.serveSSE(ctx)
	default:
		return fmt.Errorf("unsupported transport %q", s.config.Transport)
	}
}

func (s *Server) serveStdio(ctx context.Context) error {
	stdio := mcpserver.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(logging.Logger().Handler(), slog.LevelError))

	logging.Info("Server", "Serving MCP over stdio")
	err := stdio.Listen(ctx, s.stdin, s.stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio transport: %w", err)
	}
	return nil
}

func (s *Server) serveSSE(ctx context.Context) error {
	baseURL := fmt.Sprintf("http://%s:%d", s.config.Host, s.config.Port)
	sseServer := mcpserver.NewSSEServer(
		s.mcp,
		mcpserver.WithBaseURL(baseURL),
		mcpserver.WithSSEEndpoint("/sse"),
		mcpserver.WithMessageEndpoint("/message"),
		mcpserver.WithKeepAlive(true),
		mcpserver.WithKeepAliveInterval(30*time.Second),
	)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	logging.Info("Server", "Serving MCP over SSE on %s", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := sseServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			logging.Error("Server", err, "SSE server error")
			return fmt.Errorf("sse transport: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sseServer.Shutdown(shutdownCtx); err != nil {
		logging.Error("Server", err, "Failed to shut down SSE server")
		return err
	}
	logging.Info("Server", "SSE server stopped")
	return nil
}
