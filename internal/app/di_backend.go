package app

import (
	"context"
	"fmt"
	"strings"

	backendDomain "github.com/allisson/factorauth/internal/backend/domain"
	backendService "github.com/allisson/factorauth/internal/backend/service"
)

// Executor returns the resilient backend executor.
func (c *Container) Executor() (*backendService.Executor, error) {
	c.executorInit.Do(func() {
		executor, err := c.initExecutor()
		if err != nil {
			c.initErrors["executor"] = err
			return
		}
		c.executor = executor
	})
	if err, exists := c.initErrors["executor"]; exists {
		return nil, err
	}
	return c.executor, nil
}

func (c *Container) initExecutor() (*backendService.Executor, error) {
	strategy, err := backendDomain.ParseFallbackStrategy(c.config.BackendFallbackStrategy)
	if err != nil {
		return nil, fmt.Errorf("invalid backend fallback strategy: %w", err)
	}

	business, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}

	breaker := backendService.NewCircuitBreaker(
		c.config.CircuitBreakerThreshold,
		c.config.CircuitBreakerTimeout,
		c.config.CircuitBreakerSuccessThreshold,
	)

	var health backendService.HealthChecker
	if c.config.HealthCheckInterval > 0 {
		health = c.backendHealthCheck
	}

	return backendService.NewExecutor(
		backendService.ExecutorConfig{
			Strategy:            strategy,
			MaxRetries:          c.config.BackendMaxRetries,
			InitialRetryDelay:   c.config.BackendInitialRetryDelay,
			MaxRetryDelay:       c.config.BackendMaxRetryDelay,
			RetryableErrors:     strings.Split(c.config.BackendRetryableErrors, ","),
			SyncDisabled:        !c.config.BackendSyncEnabled,
			SyncPerSec:          c.config.BackendSyncPerSec,
			SyncBurst:           c.config.BackendSyncBurst,
			HealthCheckInterval: c.config.HealthCheckInterval,
		},
		breaker,
		backendService.NewIntegrationMetrics(business),
		health,
		c.Logger(),
	), nil
}

// backendHealthCheck probes the KMS provider, the hard dependency every
// backend-bound operation shares.
func (c *Container) backendHealthCheck(ctx context.Context) error {
	kms, err := c.KMSProvider()
	if err != nil {
		return err
	}
	if !kms.IsAvailable(ctx) {
		return fmt.Errorf("kms provider %s unavailable", kms.ID())
	}
	return nil
}
