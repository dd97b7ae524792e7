package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	backendDomain "github.com/allisson/factorauth/internal/backend/domain"
	apperrors "github.com/allisson/factorauth/internal/errors"
)

// Operation is a single unit of backend work. The executor retries it,
// feeds its outcome into the circuit breaker, and records its latency.
type Operation func(ctx context.Context) error

// HealthChecker probes backend liveness for the periodic health loop.
type HealthChecker func(ctx context.Context) error

// ExecutorConfig tunes retries, fallback behavior, and background work.
type ExecutorConfig struct {
	Strategy            backendDomain.FallbackStrategy
	MaxRetries          int
	InitialRetryDelay   time.Duration
	MaxRetryDelay       time.Duration
	RetryableErrors     []string
	SyncDisabled        bool
	SyncPerSec          float64
	SyncBurst           int
	HealthCheckInterval time.Duration
}

// Executor runs backend operations through the retry core and circuit
// breaker, combining the API path with a cache path per the configured
// fallback strategy. Background sync and health checks run under an
// errgroup cancelled by Close.
type Executor struct {
	cfg       ExecutorConfig
	breaker   *CircuitBreaker
	metrics   *IntegrationMetrics
	logger    *slog.Logger
	retryable []string

	group   *errgroup.Group
	ctx     context.Context
	cancel  context.CancelFunc
	limiter *rate.Limiter
}

// NewExecutor creates an executor. health may be nil; the health loop only
// starts when both health and a positive HealthCheckInterval are given.
func NewExecutor(
	cfg ExecutorConfig,
	breaker *CircuitBreaker,
	integrationMetrics *IntegrationMetrics,
	health HealthChecker,
	logger *slog.Logger,
) *Executor {
	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)

	retryable := make([]string, 0, len(cfg.RetryableErrors))
	for _, fragment := range cfg.RetryableErrors {
		fragment = strings.ToLower(strings.TrimSpace(fragment))
		if fragment != "" {
			retryable = append(retryable, fragment)
		}
	}

	perSec := cfg.SyncPerSec
	if perSec <= 0 {
		perSec = 10
	}
	burst := cfg.SyncBurst
	if burst < 1 {
		burst = 1
	}

	e := &Executor{
		cfg:       cfg,
		breaker:   breaker,
		metrics:   integrationMetrics,
		logger:    logger,
		retryable: retryable,
		group:     group,
		ctx:       ctx,
		cancel:    cancel,
		limiter:   rate.NewLimiter(rate.Limit(perSec), burst),
	}

	if health != nil && cfg.HealthCheckInterval > 0 {
		group.Go(func() error {
			e.healthLoop(health)
			return nil
		})
	}

	return e
}

// Execute runs the named write operation. primary is the API path, fallback
// the cache path; either may be nil when the strategy never touches it.
// Under CACHE_FIRST_API_SYNC a cache hit schedules the primary in the
// background, so the primary closure must stay safe to run after Execute
// returns.
func (e *Executor) Execute(ctx context.Context, name string, primary, fallback Operation) error {
	return e.execute(ctx, name, primary, fallback, true)
}

// ExecuteRead runs the named read operation. Reads have nothing to push to
// the API, so a cache hit never schedules a background sync: the primary
// closure runs only synchronously and may write caller state.
func (e *Executor) ExecuteRead(ctx context.Context, name string, primary, fallback Operation) error {
	return e.execute(ctx, name, primary, fallback, false)
}

func (e *Executor) execute(ctx context.Context, name string, primary, fallback Operation, sync bool) error {
	switch e.cfg.Strategy {
	case backendDomain.StrategyAPIOnly:
		return e.callAPI(ctx, name, primary)

	case backendDomain.StrategyCacheOnly:
		return e.callCache(ctx, name, fallback)

	case backendDomain.StrategyCacheFirstAPISync:
		if fallback != nil {
			if err := e.callCache(ctx, name, fallback); err == nil {
				if sync {
					e.syncInBackground(name, primary)
				}
				return nil
			}
		}
		return e.callAPI(ctx, name, primary)

	default: // StrategyAPIFirstCacheFallback
		apiErr := e.callAPI(ctx, name, primary)
		if apiErr == nil {
			return nil
		}
		if fallback == nil {
			return apiErr
		}
		if cacheErr := e.callCache(ctx, name, fallback); cacheErr != nil {
			e.logger.Warn("backend fallback failed",
				"operation", name, "api_error", apiErr, "cache_error", cacheErr)
			return apperrors.Wrap(
				backendDomain.ErrAllPathsFailed,
				"api: "+apiErr.Error()+"; cache: "+cacheErr.Error(),
			)
		}
		e.logger.Info("backend call served from cache", "operation", name, "api_error", apiErr)
		return nil
	}
}

// Strategy returns the configured fallback strategy.
func (e *Executor) Strategy() backendDomain.FallbackStrategy {
	return e.cfg.Strategy
}

// Breaker exposes the circuit breaker for inspection.
func (e *Executor) Breaker() *CircuitBreaker {
	return e.breaker
}

// Metrics exposes the integration counters.
func (e *Executor) Metrics() *IntegrationMetrics {
	return e.metrics
}

// Close cancels background sync and the health loop and waits for them.
func (e *Executor) Close() error {
	e.cancel()
	return e.group.Wait()
}

// callAPI is the retry core. Each attempt consults the breaker first and
// feeds its outcome back. The delay before attempt n is
// min(initial * 2^n, max). Non-retryable errors return immediately.
func (e *Executor) callAPI(ctx context.Context, name string, primary Operation) error {
	if primary == nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "no primary path for operation "+name)
	}

	var lastErr error
	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.retryDelay(attempt - 1)):
			}
		}

		if !e.breaker.Allow() {
			return backendDomain.ErrCircuitOpen
		}

		start := time.Now()
		err := primary(ctx)
		e.metrics.RecordAPI(ctx, name, time.Since(start), err)

		if err == nil {
			e.breaker.RecordSuccess()
			return nil
		}

		e.breaker.RecordFailure()
		lastErr = err

		if !e.isRetryable(err) {
			return err
		}
		e.logger.Debug("backend call failed, retrying",
			"operation", name, "attempt", attempt, "error", err)
	}

	return apperrors.Wrap(backendDomain.ErrRetriesExhausted, lastErr.Error())
}

func (e *Executor) callCache(ctx context.Context, name string, fallback Operation) error {
	if fallback == nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "no cache path for operation "+name)
	}
	start := time.Now()
	err := fallback(ctx)
	e.metrics.RecordCache(ctx, name, time.Since(start), err)
	return err
}

// syncInBackground schedules the API write behind the rate limiter. Sync
// failures never surface to the caller: the cache already answered.
func (e *Executor) syncInBackground(name string, primary Operation) {
	if primary == nil || e.cfg.SyncDisabled {
		return
	}
	e.group.Go(func() error {
		if err := e.limiter.Wait(e.ctx); err != nil {
			return nil
		}
		if err := e.callAPI(e.ctx, name+"_sync", primary); err != nil {
			e.logger.Warn("background sync failed", "operation", name, "error", err)
		}
		return nil
	})
}

func (e *Executor) healthLoop(health HealthChecker) {
	ticker := time.NewTicker(e.cfg.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			err := health(e.ctx)
			e.metrics.RecordHealthCheck(e.ctx, err)
			if err != nil {
				e.logger.Warn("backend health check failed", "error", err)
			}
		}
	}
}

func (e *Executor) retryDelay(attempt int) time.Duration {
	delay := e.cfg.InitialRetryDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= e.cfg.MaxRetryDelay {
			return e.cfg.MaxRetryDelay
		}
	}
	if e.cfg.MaxRetryDelay > 0 && delay > e.cfg.MaxRetryDelay {
		return e.cfg.MaxRetryDelay
	}
	return delay
}

// isRetryable matches the error text against the configured fragments,
// case-insensitively.
func (e *Executor) isRetryable(err error) bool {
	message := strings.ToLower(err.Error())
	for _, fragment := range e.retryable {
		if strings.Contains(message, fragment) {
			return true
		}
	}
	return false
}
