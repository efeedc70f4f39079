package main

import (
	"context"
	"fmt"

	"github.com/skreaver/skreaver/internal/config"
)

// schemaVersioner is implemented by the SQL-backed memory backends;
// the in-memory and Redis backends have no migration concept.
type schemaVersioner interface {
	SchemaVersion(ctx context.Context) (int, error)
}

// runMigrateUp opens the configured backend, which applies any
// pending migration as a side effect of construction, then reports
// the resulting schema version.
func runMigrateUp(ctx context.Context, configPath string, target int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return usageErrorf("load config: %w", err)
	}

	store, err := openMemoryBackend(cfg.Memory)
	if err != nil {
		return unavailableErrorf("open memory backend: %w", err)
	}
	defer store.Close()

	versioner, ok := store.(schemaVersioner)
	if !ok {
		fmt.Printf("backend %q has no schema to migrate\n", cfg.Memory.Backend)
		return nil
	}

	version, err := versioner.SchemaVersion(ctx)
	if err != nil {
		return internalErrorf("read schema version: %w", err)
	}
	if target > 0 && version < target {
		return unavailableErrorf("backend %q is at schema version %d, below requested target %d", cfg.Memory.Backend, version, target)
	}

	fmt.Printf("backend %q is at schema version %d\n", cfg.Memory.Backend, version)
	return nil
}

// runMigrateDown reports the current schema version. The additive-only
// migration model (see internal/memory/backend/{sqlite,postgres}.go's
// migrate()) never drops a prior version's tables, so there is nothing
// to roll back; this is a deliberate no-op rather than a destructive
// DROP TABLE sequence.
func runMigrateDown(ctx context.Context, configPath string, target int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return usageErrorf("load config: %w", err)
	}

	store, err := openMemoryBackend(cfg.Memory)
	if err != nil {
		return unavailableErrorf("open memory backend: %w", err)
	}
	defer store.Close()

	versioner, ok := store.(schemaVersioner)
	if !ok {
		fmt.Printf("backend %q has no schema to roll back\n", cfg.Memory.Backend)
		return nil
	}

	version, err := versioner.SchemaVersion(ctx)
	if err != nil {
		return internalErrorf("read schema version: %w", err)
	}
	fmt.Printf("backend %q remains at schema version %d (rollback is a no-op)\n", cfg.Memory.Backend, version)
	return nil
}
