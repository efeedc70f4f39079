package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/skreaver/skreaver/internal/config"
	"github.com/skreaver/skreaver/internal/coordinator"
	"github.com/skreaver/skreaver/internal/toolregistry"
)

// runAgent loads cfg, opens the configured memory backend, and runs
// one coordinator turn as agentType, printing the resulting action
// summary to stdout.
func runAgent(ctx context.Context, configPath, agentType, input string) error {
	if strings.TrimSpace(input) == "" {
		return usageErrorf("run: --input is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return usageErrorf("load config: %w", err)
	}

	store, err := openMemoryBackend(cfg.Memory)
	if err != nil {
		return unavailableErrorf("open memory backend: %w", err)
	}
	defer store.Close()

	registry := toolregistry.New()
	wrapper, err := buildSecureWrapper(registry, cfg.RateLimit)
	if err != nil {
		return internalErrorf("build secure wrapper: %w", err)
	}

	principal := toolregistry.Principal{ID: agentType, Roles: rolesFromStrings([]string{agentType})}
	coord := coordinator.New(wrapper, store, principal)

	complete, err := coord.Run(ctx, input)
	if err != nil {
		return internalErrorf("run: %w", err)
	}

	action := complete.Act()
	fmt.Println(action.Summary)
	return nil
}
