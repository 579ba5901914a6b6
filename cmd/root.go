package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

const versionTemplate = `{{printf "studiomcp version %s\n" .Version}}`

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "studiomcp",
	Short: "Expose Cucumber Studio to AI assistants over MCP",
	Long: `studiomcp is a Model Context Protocol server for Cucumber Studio.
It lets AI assistants browse projects, read and write scenarios, manage
tags and folders, and works with the scenario definition language.`,
	// Errors are reported by cobra; usage would only add noise.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(versionTemplate)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
	rootCmd.AddCommand(newDefinitionCmd())
}
