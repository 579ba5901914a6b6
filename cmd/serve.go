package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"studiomcp/internal/app"
)

var (
	serveConfigPath string
	serveDebug      bool
	serveReadOnly   bool
	serveTransport  string
)

// serveCmd starts the MCP server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Cucumber Studio MCP server",
	Long: `Starts the MCP server and exposes the Cucumber Studio tools.

By default the server speaks MCP over stdio, which is what desktop
assistants expect. Use --transport sse to serve over HTTP instead.

Credentials are read from the environment:
  CUCUMBERSTUDIO_ACCESS_TOKEN, CUCUMBERSTUDIO_CLIENT_ID, CUCUMBERSTUDIO_UID

Configuration:
  studiomcp loads ~/.config/studiomcp/config.yaml, then .studiomcp/config.yaml
  in the current directory, then the environment. --config replaces both files.

Logs never go to stdout; with the stdio transport stdout carries the protocol.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(serveConfigPath, serveDebug, serveReadOnly)
	cfg.Transport = serveTransport
	cfg.Version = rootCmd.Version

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to a config file (replaces the user and project files)")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().BoolVar(&serveReadOnly, "read-only", false, "Only expose tools that do not modify Cucumber Studio")
	serveCmd.Flags().StringVar(&serveTransport, "transport", "", "MCP transport: stdio or sse (overrides the config)")
}
