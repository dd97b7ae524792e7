package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/allisson/factorauth/internal/app"
	"github.com/allisson/factorauth/internal/config"
)

// RunValidateSetup runs the crypto pipeline self-test: a fixed enroll/verify
// round trip plus a negative check, confirming KMS reachability and pipeline
// correctness without touching stored records.
func RunValidateSetup(ctx context.Context) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	logger.Info("validating crypto setup",
		slog.String("kms_provider", cfg.KMSProvider),
		slog.Int("derivation_iterations", cfg.DerivationIterations),
	)

	doubleLayer, err := container.DoubleLayer()
	if err != nil {
		return fmt.Errorf("failed to initialize crypto engine: %w", err)
	}

	if err := doubleLayer.ValidateSetup(ctx); err != nil {
		return fmt.Errorf("setup validation failed: %w", err)
	}

	logger.Info("setup validation passed")
	return nil
}
