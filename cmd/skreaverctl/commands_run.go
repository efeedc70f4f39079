package main

import (
	"github.com/spf13/cobra"
)

// buildRunCmd creates the "run <agent-type>" command that drives one
// local internal/coordinator.Coordinator turn to completion, grounded
// on the teacher's single-purpose leaf commands (e.g. buildPromptCmd)
// that take one positional argument and a handful of flags.
func buildRunCmd() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "run <agent-type>",
		Short: "Run a local agent loop for one turn",
		Long: `Run drives a single internal/coordinator.Coordinator turn: observe the
given --input, dispatch any tool calls the agent's typestate phases
produce through the secure tool-dispatch wrapper, and print the
resulting action summary.

agent-type identifies the principal the turn runs as; it is attached to
the coordinator's toolregistry.Principal and is currently the sole role
granted to the run (use "admin"/"agent"/"viewer" to match the built-in
rbac roles, or any other name for a custom, permission-less role).`,
		Args: cobra.ExactArgs(1),
		Example: `  skreaverctl run agent --input "summarize the last deploy"
  skreaverctl run admin --input "list active workers"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(cmd.Context(), resolveConfigPath(configPath), args[0], input)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Input text to observe for this turn (required)")
	return cmd
}
