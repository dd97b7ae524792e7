package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/allisson/factorauth/internal/app"
	"github.com/allisson/factorauth/internal/config"
)

// RunServer starts the service: it validates the crypto pipeline, warms the
// enrollment dependencies, and serves metrics until receiving SIGINT/SIGTERM.
func RunServer(ctx context.Context, version string) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)
	logger := container.Logger()
	logger.Info("starting server", slog.String("version", version))

	defer closeContainer(container, logger)

	// Startup self-test: refuse to serve with a broken crypto pipeline.
	doubleLayer, err := container.DoubleLayer()
	if err != nil {
		return fmt.Errorf("failed to initialize crypto engine: %w", err)
	}
	if err := doubleLayer.ValidateSetup(ctx); err != nil {
		return fmt.Errorf("setup validation failed: %w", err)
	}

	// Initializing the use case eagerly surfaces configuration problems now
	// instead of on the first request.
	if _, err := container.EnrollmentUseCase(); err != nil {
		return fmt.Errorf("failed to initialize enrollment use case: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	serverErr := make(chan error, 1)

	if cfg.MetricsEnabled {
		metricsServer, err := container.MetricsServer()
		if err != nil {
			return fmt.Errorf("failed to initialize metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil {
				serverErr <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		// The deferred closeContainer stops the metrics server, the backend
		// executor, and the KMS provider.
		logger.Info("shutdown signal received")
		return nil
	case err := <-serverErr:
		return err
	}
}
