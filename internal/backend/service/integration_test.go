package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	backendDomain "github.com/allisson/factorauth/internal/backend/domain"
	apperrors "github.com/allisson/factorauth/internal/errors"
	"github.com/allisson/factorauth/internal/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testExecutor(t *testing.T, cfg ExecutorConfig) *Executor {
	t.Helper()
	if cfg.Strategy == "" {
		cfg.Strategy = backendDomain.StrategyAPIFirstCacheFallback
	}
	if cfg.RetryableErrors == nil {
		cfg.RetryableErrors = []string{"timeout", "connection refused", "temporarily unavailable"}
	}
	breaker := NewCircuitBreaker(5, time.Minute, 1)
	executor := NewExecutor(
		cfg,
		breaker,
		NewIntegrationMetrics(metrics.NewNoOpBusinessMetrics()),
		nil,
		slog.New(slog.DiscardHandler),
	)
	t.Cleanup(func() {
		require.NoError(t, executor.Close())
	})
	return executor
}

func TestExecutorAPIOnly(t *testing.T) {
	ctx := context.Background()

	t.Run("success passes through", func(t *testing.T) {
		executor := testExecutor(t, ExecutorConfig{Strategy: backendDomain.StrategyAPIOnly})
		err := executor.Execute(ctx, "save", func(context.Context) error { return nil }, nil)
		require.NoError(t, err)

		snapshot := executor.Metrics().Snapshot()
		assert.Equal(t, uint64(1), snapshot.APISuccesses)
		assert.Equal(t, uint64(0), snapshot.APIFailures)
	})

	t.Run("non-retryable error returns immediately", func(t *testing.T) {
		executor := testExecutor(t, ExecutorConfig{
			Strategy:   backendDomain.StrategyAPIOnly,
			MaxRetries: 3,
		})
		calls := 0
		fatal := errors.New("record malformed")
		err := executor.Execute(ctx, "save", func(context.Context) error {
			calls++
			return fatal
		}, nil)
		assert.ErrorIs(t, err, fatal)
		assert.Equal(t, 1, calls)
	})

	t.Run("retryable error is retried then exhausted", func(t *testing.T) {
		executor := testExecutor(t, ExecutorConfig{
			Strategy:          backendDomain.StrategyAPIOnly,
			MaxRetries:        2,
			InitialRetryDelay: time.Millisecond,
			MaxRetryDelay:     2 * time.Millisecond,
		})
		calls := 0
		err := executor.Execute(ctx, "save", func(context.Context) error {
			calls++
			return errors.New("request Timeout")
		}, nil)
		assert.ErrorIs(t, err, apperrors.ErrUnavailable)
		assert.ErrorIs(t, err, backendDomain.ErrRetriesExhausted)
		assert.Equal(t, 3, calls)
	})

	t.Run("recovers when a retry succeeds", func(t *testing.T) {
		executor := testExecutor(t, ExecutorConfig{
			Strategy:          backendDomain.StrategyAPIOnly,
			MaxRetries:        2,
			InitialRetryDelay: time.Millisecond,
			MaxRetryDelay:     2 * time.Millisecond,
		})
		calls := 0
		err := executor.Execute(ctx, "save", func(context.Context) error {
			calls++
			if calls < 2 {
				return errors.New("connection refused")
			}
			return nil
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})
}

func TestExecutorCircuitBreaker(t *testing.T) {
	ctx := context.Background()
	fatal := errors.New("backend broken")

	breaker := NewCircuitBreaker(2, time.Hour, 1)
	executor := NewExecutor(
		ExecutorConfig{Strategy: backendDomain.StrategyAPIOnly},
		breaker,
		NewIntegrationMetrics(metrics.NewNoOpBusinessMetrics()),
		nil,
		slog.New(slog.DiscardHandler),
	)
	defer func() { require.NoError(t, executor.Close()) }()

	failing := func(context.Context) error { return fatal }
	assert.ErrorIs(t, executor.Execute(ctx, "save", failing, nil), fatal)
	assert.ErrorIs(t, executor.Execute(ctx, "save", failing, nil), fatal)
	assert.Equal(t, backendDomain.StateOpen, breaker.State())

	// Open breaker fails fast without invoking the operation.
	calls := 0
	err := executor.Execute(ctx, "save", func(context.Context) error {
		calls++
		return nil
	}, nil)
	assert.ErrorIs(t, err, backendDomain.ErrCircuitOpen)
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
	assert.Equal(t, 0, calls)
}

func TestExecutorAPIFirstCacheFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("API success skips the cache", func(t *testing.T) {
		executor := testExecutor(t, ExecutorConfig{})
		cacheCalls := 0
		err := executor.Execute(ctx, "load",
			func(context.Context) error { return nil },
			func(context.Context) error { cacheCalls++; return nil },
		)
		require.NoError(t, err)
		assert.Equal(t, 0, cacheCalls)
	})

	t.Run("API failure is served from cache", func(t *testing.T) {
		executor := testExecutor(t, ExecutorConfig{})
		err := executor.Execute(ctx, "load",
			func(context.Context) error { return errors.New("record malformed") },
			func(context.Context) error { return nil },
		)
		require.NoError(t, err)

		snapshot := executor.Metrics().Snapshot()
		assert.Equal(t, uint64(1), snapshot.APIFailures)
		assert.Equal(t, uint64(1), snapshot.CacheSuccesses)
	})

	t.Run("both paths failing surfaces as unavailable", func(t *testing.T) {
		executor := testExecutor(t, ExecutorConfig{})
		err := executor.Execute(ctx, "load",
			func(context.Context) error { return errors.New("record malformed") },
			func(context.Context) error { return backendDomain.ErrCacheMiss },
		)
		assert.ErrorIs(t, err, backendDomain.ErrAllPathsFailed)
		assert.ErrorIs(t, err, apperrors.ErrUnavailable)
	})

	t.Run("both-path failure names both causes", func(t *testing.T) {
		executor := testExecutor(t, ExecutorConfig{})
		err := executor.Execute(ctx, "load",
			func(context.Context) error { return errors.New("record malformed") },
			func(context.Context) error { return backendDomain.ErrCacheMiss },
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "record malformed")
		assert.Contains(t, err.Error(), "cache miss")
	})
}

func TestExecutorCacheOnly(t *testing.T) {
	ctx := context.Background()
	executor := testExecutor(t, ExecutorConfig{Strategy: backendDomain.StrategyCacheOnly})

	apiCalls := 0
	err := executor.Execute(ctx, "load",
		func(context.Context) error { apiCalls++; return nil },
		func(context.Context) error { return nil },
	)
	require.NoError(t, err)
	assert.Equal(t, 0, apiCalls)
}

func TestExecutorCacheFirstAPISync(t *testing.T) {
	ctx := context.Background()

	t.Run("cache hit syncs in the background", func(t *testing.T) {
		executor := testExecutor(t, ExecutorConfig{
			Strategy:   backendDomain.StrategyCacheFirstAPISync,
			SyncPerSec: 1000,
			SyncBurst:  10,
		})

		var apiCalls atomic.Int32
		done := make(chan struct{})
		var once sync.Once
		err := executor.Execute(ctx, "save",
			func(context.Context) error {
				apiCalls.Add(1)
				once.Do(func() { close(done) })
				return nil
			},
			func(context.Context) error { return nil },
		)
		require.NoError(t, err)

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("background sync never ran")
		}
		assert.Equal(t, int32(1), apiCalls.Load())
	})

	t.Run("background sync failure does not surface", func(t *testing.T) {
		executor := testExecutor(t, ExecutorConfig{
			Strategy:   backendDomain.StrategyCacheFirstAPISync,
			SyncPerSec: 1000,
			SyncBurst:  10,
		})

		done := make(chan struct{})
		var once sync.Once
		err := executor.Execute(ctx, "save",
			func(context.Context) error {
				once.Do(func() { close(done) })
				return errors.New("record malformed")
			},
			func(context.Context) error { return nil },
		)
		require.NoError(t, err)

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("background sync never ran")
		}
		require.NoError(t, executor.Close())
	})

	t.Run("reads never sync in the background", func(t *testing.T) {
		executor := testExecutor(t, ExecutorConfig{
			Strategy:   backendDomain.StrategyCacheFirstAPISync,
			SyncPerSec: 1000,
			SyncBurst:  10,
		})

		var apiCalls atomic.Int32
		err := executor.ExecuteRead(ctx, "load",
			func(context.Context) error {
				apiCalls.Add(1)
				return nil
			},
			func(context.Context) error { return nil },
		)
		require.NoError(t, err)

		// Close waits for background work; a scheduled sync would show up
		// in the counter.
		require.NoError(t, executor.Close())
		assert.Equal(t, int32(0), apiCalls.Load())
	})

	t.Run("read cache miss falls through to the API synchronously", func(t *testing.T) {
		executor := testExecutor(t, ExecutorConfig{
			Strategy: backendDomain.StrategyCacheFirstAPISync,
		})

		apiCalls := 0
		err := executor.ExecuteRead(ctx, "load",
			func(context.Context) error { apiCalls++; return nil },
			func(context.Context) error { return backendDomain.ErrCacheMiss },
		)
		require.NoError(t, err)
		assert.Equal(t, 1, apiCalls)
	})

	t.Run("cache miss falls through to the API", func(t *testing.T) {
		executor := testExecutor(t, ExecutorConfig{
			Strategy: backendDomain.StrategyCacheFirstAPISync,
		})

		apiCalls := 0
		err := executor.Execute(ctx, "load",
			func(context.Context) error { apiCalls++; return nil },
			func(context.Context) error { return backendDomain.ErrCacheMiss },
		)
		require.NoError(t, err)
		assert.Equal(t, 1, apiCalls)
	})
}

func TestExecutorHealthLoop(t *testing.T) {
	var checks atomic.Int32
	executor := NewExecutor(
		ExecutorConfig{
			Strategy:            backendDomain.StrategyAPIOnly,
			HealthCheckInterval: 5 * time.Millisecond,
		},
		NewCircuitBreaker(5, time.Minute, 1),
		NewIntegrationMetrics(metrics.NewNoOpBusinessMetrics()),
		func(context.Context) error {
			checks.Add(1)
			return nil
		},
		slog.New(slog.DiscardHandler),
	)

	assert.Eventually(t, func() bool { return checks.Load() >= 2 }, 2*time.Second, time.Millisecond)
	require.NoError(t, executor.Close())

	snapshot := executor.Metrics().Snapshot()
	assert.GreaterOrEqual(t, snapshot.HealthSuccesses, uint64(2))
}

func TestRetryDelay(t *testing.T) {
	executor := testExecutor(t, ExecutorConfig{
		Strategy:          backendDomain.StrategyAPIOnly,
		InitialRetryDelay: 100 * time.Millisecond,
		MaxRetryDelay:     time.Second,
	})

	assert.Equal(t, 100*time.Millisecond, executor.retryDelay(0))
	assert.Equal(t, 200*time.Millisecond, executor.retryDelay(1))
	assert.Equal(t, 400*time.Millisecond, executor.retryDelay(2))
	assert.Equal(t, 800*time.Millisecond, executor.retryDelay(3))
	assert.Equal(t, time.Second, executor.retryDelay(4))
	assert.Equal(t, time.Second, executor.retryDelay(20))
}

func TestIsRetryable(t *testing.T) {
	executor := testExecutor(t, ExecutorConfig{Strategy: backendDomain.StrategyAPIOnly})

	assert.True(t, executor.isRetryable(errors.New("i/o TIMEOUT on read")))
	assert.True(t, executor.isRetryable(errors.New("dial: Connection Refused")))
	assert.False(t, executor.isRetryable(errors.New("record malformed")))
}
