package main

import (
	"time"

	"github.com/spf13/cobra"
)

// buildHealthcheckCmd creates the "healthcheck <url>" command that
// probes a running instance's /ready endpoint, e.g. for use as a
// container HEALTHCHECK or a Kubernetes readiness probe wrapper.
func buildHealthcheckCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "healthcheck <url>",
		Short: "Probe a running instance's /ready endpoint",
		Long: `Healthcheck issues a GET request to <url>/ready and exits 0 if the
instance reports ready, or exitServiceUnavailable (69) if it reports
not-ready or is unreachable.`,
		Args: cobra.ExactArgs(1),
		Example: `  skreaverctl healthcheck http://localhost:8080
  skreaverctl healthcheck https://skreaver.internal --timeout 2s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealthcheck(cmd.Context(), args[0], timeout)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Request timeout")
	return cmd
}
