package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/allisson/factorauth/internal/app"
	"github.com/allisson/factorauth/internal/config"
)

// RunRewrapKeys re-wraps every stored enrollment record under the current
// master key version. Per-record failures are skipped and logged so one
// corrupt record cannot stall the sweep; rerun after fixing the cause.
func RunRewrapKeys(ctx context.Context) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	useCase, err := container.EnrollmentUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize enrollment use case: %w", err)
	}

	logger.Info("starting rewrap sweep")

	updated, err := useCase.ReWrapAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to rewrap stored keys: %w", err)
	}

	logger.Info("rewrap sweep completed", slog.Int("updated", updated))
	return nil
}
