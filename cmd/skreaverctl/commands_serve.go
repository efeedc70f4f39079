package main

import (
	"github.com/spf13/cobra"
)

// buildServeCmd creates the "serve" command that starts the C9 HTTP
// runtime (routes, auth, rate limiting, backpressure) and the C10
// WebSocket manager, grounded on the teacher's commands_serve.go.
func buildServeCmd() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Skreaver HTTP/WebSocket runtime",
		Long: `Start the Skreaver HTTP runtime with all configured middleware.

The server will:
1. Load configuration from the specified file (or skreaver.yaml)
2. Open the configured memory backend
3. Wire auth, rate limiting, backpressure admission, and metrics
4. Start the HTTP server and the WebSocket subscription manager
5. Start the periodic mesh maintenance sweep

Graceful shutdown is handled on SIGINT/SIGTERM.`,
		Example: `  # Start with default config
  skreaverctl serve

  # Start on a specific host/port, overriding the config file
  skreaverctl serve --host 0.0.0.0 --port 9000 --config /etc/skreaver/production.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), resolveConfigPath(configPath), host, port)
		},
	}

	cmd.Flags().StringVarP(&host, "host", "H", "", "Override the configured listen host")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Override the configured HTTP port")

	return cmd
}
