package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/skreaver/skreaver/internal/config"
	"github.com/skreaver/skreaver/internal/httpapi"
	"github.com/skreaver/skreaver/internal/mesh"
	"github.com/skreaver/skreaver/internal/toolregistry"
	"github.com/skreaver/skreaver/internal/wsmanager"
)

// runServe loads cfg, wires every C9/C10/C11 dependency, and blocks
// until SIGINT/SIGTERM, at which point it drains the HTTP server and
// the maintenance sweep with a bounded shutdown window — grounded
// verbatim on the teacher's runServe's ctx/signal/shutdown shape.
func runServe(ctx context.Context, configPath, hostOverride string, portOverride int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return usageErrorf("load config: %w", err)
	}
	if hostOverride != "" {
		cfg.Server.Host = hostOverride
	}
	if portOverride != 0 {
		cfg.Server.HTTPPort = portOverride
	}

	store, err := openMemoryBackend(cfg.Memory)
	if err != nil {
		return unavailableErrorf("open memory backend: %w", err)
	}
	defer store.Close()

	authSvc := buildAuthService(cfg.Auth)
	registry := toolregistry.New()
	wrapper, err := buildSecureWrapper(registry, cfg.RateLimit)
	if err != nil {
		return internalErrorf("build secure wrapper: %w", err)
	}

	_, metrics, tracer, shutdownTracer, err := buildObservability(cfg.Observability)
	if err != nil {
		return internalErrorf("build observability: %w", err)
	}
	defer shutdownTracer()

	dlq := mesh.NewDeadLetterQueue(&mesh.DLQConfig{
		MaxSize:    cfg.Mesh.DLQMaxSize,
		DefaultTTL: cfg.Mesh.DLQTTL,
		MaxRetries: cfg.Mesh.DLQMaxRetries,
	})
	backpressureMonitor := mesh.NewBackpressureMonitor(mesh.BackpressureConfig{
		WarningThreshold:  cfg.Backpressure.WarningThreshold,
		BlockingThreshold: cfg.Backpressure.BlockingThreshold,
		Enabled:           cfg.Backpressure.Enabled,
	})
	admission := httpapi.NewBackpressureAdmission(mesh.BackpressureConfig{
		WarningThreshold:  cfg.Backpressure.WarningThreshold,
		BlockingThreshold: cfg.Backpressure.BlockingThreshold,
		Enabled:           cfg.Backpressure.Enabled,
	})

	server := httpapi.NewServer(cfg.Server, slog.Default(), version, httpapi.Dependencies{
		Auth:         authSvc,
		Metrics:      metrics,
		Tracer:       tracer,
		Wrapper:      wrapper,
		Backpressure: admission,
		DLQ:          dlq,
	})
	server = server.WithRateLimiters(cfg.RateLimit)

	wsManager := wsmanager.NewManager(wsmanager.DefaultConfig(), func(token string) (string, error) {
		principal, err := authSvc.ValidateJWT(token)
		if err != nil {
			if apiPrincipal, apiErr := authSvc.ValidateAPIKey(token); apiErr == nil {
				return apiPrincipal.ID, nil
			}
			return "", err
		}
		return principal.ID, nil
	}, nil, metrics)
	server = server.WithWebSocketManager(wsManager)

	sweeper := mesh.NewSweeper(dlq, backpressureMonitor, slog.Default())
	if err := sweeper.Start("@every 1m"); err != nil {
		return internalErrorf("start mesh sweeper: %w", err)
	}
	defer sweeper.Stop()

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(runCtx); err != nil {
		return unavailableErrorf("start http server: %w", err)
	}

	slog.Info("skreaverctl serve: running", "host", cfg.Server.Host, "port", cfg.Server.HTTPPort)
	<-runCtx.Done()

	slog.Info("skreaverctl serve: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	server.Stop(shutdownCtx)

	return nil
}
