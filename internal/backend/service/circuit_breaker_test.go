package service

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	backendDomain "github.com/allisson/factorauth/internal/backend/domain"
)

func TestCircuitBreaker(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }

	newBreaker := func(threshold int, timeout time.Duration, successThreshold int) *CircuitBreaker {
		cb := NewCircuitBreaker(threshold, timeout, successThreshold)
		cb.now = clock
		return cb
	}

	t.Run("starts closed and allows", func(t *testing.T) {
		cb := newBreaker(3, time.Minute, 1)
		assert.Equal(t, backendDomain.StateClosed, cb.State())
		assert.True(t, cb.Allow())
	})

	t.Run("opens after threshold consecutive failures", func(t *testing.T) {
		cb := newBreaker(3, time.Minute, 1)
		cb.RecordFailure()
		cb.RecordFailure()
		assert.Equal(t, backendDomain.StateClosed, cb.State())
		cb.RecordFailure()
		assert.Equal(t, backendDomain.StateOpen, cb.State())
		assert.False(t, cb.Allow())
	})

	t.Run("success resets the failure count", func(t *testing.T) {
		cb := newBreaker(3, time.Minute, 1)
		cb.RecordFailure()
		cb.RecordFailure()
		cb.RecordSuccess()
		cb.RecordFailure()
		cb.RecordFailure()
		assert.Equal(t, backendDomain.StateClosed, cb.State())
	})

	t.Run("half-opens after the timeout", func(t *testing.T) {
		cb := newBreaker(1, time.Minute, 1)
		cb.RecordFailure()
		assert.False(t, cb.Allow())

		now = now.Add(time.Minute)
		assert.True(t, cb.Allow())
		assert.Equal(t, backendDomain.StateHalfOpen, cb.State())
	})

	t.Run("closes after enough probe successes", func(t *testing.T) {
		cb := newBreaker(1, time.Minute, 2)
		cb.RecordFailure()
		now = now.Add(time.Minute)
		assert.True(t, cb.Allow())

		cb.RecordSuccess()
		assert.Equal(t, backendDomain.StateHalfOpen, cb.State())
		cb.RecordSuccess()
		assert.Equal(t, backendDomain.StateClosed, cb.State())
	})

	t.Run("probe failure reopens and restarts the timeout", func(t *testing.T) {
		cb := newBreaker(1, time.Minute, 1)
		cb.RecordFailure()
		now = now.Add(time.Minute)
		assert.True(t, cb.Allow())

		cb.RecordFailure()
		assert.Equal(t, backendDomain.StateOpen, cb.State())
		assert.False(t, cb.Allow())

		now = now.Add(time.Minute)
		assert.True(t, cb.Allow())
	})

	t.Run("half-open admits one probe at a time", func(t *testing.T) {
		cb := newBreaker(1, time.Minute, 2)
		cb.RecordFailure()
		now = now.Add(time.Minute)

		assert.True(t, cb.Allow())
		assert.False(t, cb.Allow(), "second caller must wait for the in-flight probe")

		cb.RecordSuccess()
		assert.True(t, cb.Allow(), "settled probe frees the next probe slot")
		assert.False(t, cb.Allow())

		cb.RecordFailure()
		assert.Equal(t, backendDomain.StateOpen, cb.State())
		assert.False(t, cb.Allow())
	})

	t.Run("concurrent callers get a single probe", func(t *testing.T) {
		cb := newBreaker(1, time.Minute, 1)
		cb.RecordFailure()
		now = now.Add(time.Minute)

		var admitted atomic.Int64
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if cb.Allow() {
					admitted.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(1), admitted.Load())
		assert.Equal(t, backendDomain.StateHalfOpen, cb.State())
	})

	t.Run("reset closes unconditionally", func(t *testing.T) {
		cb := newBreaker(1, time.Minute, 1)
		cb.RecordFailure()
		assert.Equal(t, backendDomain.StateOpen, cb.State())
		cb.Reset()
		assert.Equal(t, backendDomain.StateClosed, cb.State())
		assert.True(t, cb.Allow())
	})
}
