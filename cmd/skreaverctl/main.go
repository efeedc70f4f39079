// Command skreaverctl is the CLI entry point for the Skreaver agent
// runtime: it can launch a local agent loop, serve the HTTP/WebSocket
// runtime, manage memory-backend schema, and probe a running
// instance's health, grounded on the teacher's cmd/nexus/main.go
// root-command/subcommand-tree structure.
//
// # Basic usage
//
//	skreaverctl serve --config skreaver.yaml
//	skreaverctl run echo --input "hello"
//	skreaverctl migrate up
//	skreaverctl healthcheck http://localhost:8080
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information, populated by ldflags during release builds:
//
//	go build -ldflags "-X main.version=v0.1.0 -X main.commit=$(git rev-parse HEAD) -X main.date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	configPath string
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(exitCodeFor(err))
	}
}

// buildRootCmd creates the root command with all subcommands attached,
// separated from main() to facilitate testing.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "skreaverctl",
		Short: "Skreaver agent runtime control plane",
		Long: `skreaverctl drives the Skreaver agent runtime: it launches agent
loops locally, serves the HTTP/WebSocket runtime, manages memory-backend
schema migrations, and checks a deployed instance's health.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "skreaver.yaml", "Path to the runtime config file (or set SKREAVER_CONFIG)")

	rootCmd.AddCommand(
		buildRunCmd(),
		buildServeCmd(),
		buildMigrateCmd(),
		buildHealthcheckCmd(),
	)

	return rootCmd
}

// resolveConfigPath honors SKREAVER_CONFIG over the --config flag
// default, mirroring the teacher's profile-then-flag precedence.
func resolveConfigPath(flagValue string) string {
	if env := os.Getenv("SKREAVER_CONFIG"); env != "" {
		return env
	}
	return flagValue
}
