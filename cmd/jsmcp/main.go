package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shubhamrasal/jsmcp/internal/app"
)

var (
	// Version information (set by goreleaser)
	version = "dev"
	commit  = "none"
	date    = "unknown"

	opts app.Options
)

var rootCmd = &cobra.Command{
	Use:   "jsmcp",
	Short: "MCP server for NATS JetStream administration",
	Long: `jsmcp exposes NATS JetStream administrative operations - stream and
consumer management, message inspection, publishing, diagnostics, and
backup/restore - as MCP tools for AI assistants.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Run(opts)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("jsmcp version %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&opts.ServerURL, "server", "s", "", "NATS server URL (overrides config file)")
	rootCmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Config file path")
	rootCmd.Flags().StringVarP(&opts.Transport, "transport", "t", "", "MCP transport: stdio or http (default stdio)")
	rootCmd.Flags().IntVarP(&opts.Port, "port", "p", 0, "Listener port for the http transport (default 8080)")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
