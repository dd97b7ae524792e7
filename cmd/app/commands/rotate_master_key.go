package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/allisson/factorauth/internal/app"
	"github.com/allisson/factorauth/internal/config"
)

// RunRotateMasterKey activates a new master key version on the configured
// KMS provider. New wraps use the new version; existing records keep
// unwrapping under the version recorded with them. With rewrap set, every
// stored record is re-wrapped under the new version in the same run.
func RunRotateMasterKey(ctx context.Context, rewrap bool) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	kms, err := container.KMSProvider()
	if err != nil {
		return fmt.Errorf("failed to initialize kms provider: %w", err)
	}

	oldVersion := kms.MasterKeyVersion()
	newVersion, err := kms.RotateMasterKey(ctx)
	if err != nil {
		return fmt.Errorf("failed to rotate master key: %w", err)
	}

	logger.Info("master key rotated",
		slog.String("old_version", oldVersion),
		slog.String("new_version", newVersion),
	)

	if !rewrap {
		logger.Info("run the rewrap-keys command to move stored records to the new version")
		return nil
	}

	useCase, err := container.EnrollmentUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize enrollment use case: %w", err)
	}

	updated, err := useCase.ReWrapAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to rewrap stored keys: %w", err)
	}

	logger.Info("rewrap sweep completed", slog.Int("updated", updated))
	return nil
}
