package main

import (
	"github.com/spf13/cobra"
)

// buildMigrateCmd creates the "migrate up|down" command group for the
// memory backend's schema, grounded on the teacher's
// commands_migrate.go up/down/status command group.
func buildMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage memory-backend schema migrations",
		Long: `Manage the SQL-backed memory store's schema_migrations table.

Migrations are additive and applied idempotently every time a SQL
backend opens, so "up" simply opens the backend (applying any pending
migration) and reports the resulting schema version. The in-memory and
Redis backends have no schema to migrate.`,
	}
	cmd.AddCommand(buildMigrateUpCmd(), buildMigrateDownCmd())
	return cmd
}

func buildMigrateUpCmd() *cobra.Command {
	var target int
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending schema migrations",
		Example: `  skreaverctl migrate up --config skreaver.yaml
  skreaverctl migrate up --target 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrateUp(cmd.Context(), resolveConfigPath(configPath), target)
		},
	}
	cmd.Flags().IntVar(&target, "target", 0, "Target schema version (0 means the latest known version)")
	return cmd
}

func buildMigrateDownCmd() *cobra.Command {
	var target int
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back schema migrations",
		Long: `Roll back is unsupported by the current additive-only migration model:
this reports the current version and succeeds as a no-op rather than
destructively dropping tables a running deployment may still need.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrateDown(cmd.Context(), resolveConfigPath(configPath), target)
		},
	}
	cmd.Flags().IntVar(&target, "target", 0, "Target schema version (informational; rollback is a no-op)")
	return cmd
}
