package service

import (
	"context"
	"sync"
	"time"

	"github.com/allisson/factorauth/internal/metrics"
)

// IntegrationMetrics counts per-path outcomes and cumulative latency. A
// single mutex guards every field so a snapshot is always internally
// consistent. Counts are additionally fed to the business metrics pipeline
// when one is attached.
type IntegrationMetrics struct {
	mu sync.Mutex

	apiSuccesses    uint64
	apiFailures     uint64
	apiLatency      time.Duration
	cacheSuccesses  uint64
	cacheFailures   uint64
	cacheLatency    time.Duration
	healthSuccesses uint64
	healthFailures  uint64

	business metrics.BusinessMetrics
}

// MetricsSnapshot is a consistent copy of the counters.
type MetricsSnapshot struct {
	APISuccesses    uint64
	APIFailures     uint64
	APILatency      time.Duration
	CacheSuccesses  uint64
	CacheFailures   uint64
	CacheLatency    time.Duration
	HealthSuccesses uint64
	HealthFailures  uint64
}

// NewIntegrationMetrics creates metrics that also forward to business.
// Pass metrics.NewNoOpBusinessMetrics() to keep counters local only.
func NewIntegrationMetrics(business metrics.BusinessMetrics) *IntegrationMetrics {
	return &IntegrationMetrics{business: business}
}

// RecordAPI records an API path attempt.
func (m *IntegrationMetrics) RecordAPI(ctx context.Context, operation string, latency time.Duration, err error) {
	m.mu.Lock()
	if err != nil {
		m.apiFailures++
	} else {
		m.apiSuccesses++
	}
	m.apiLatency += latency
	m.mu.Unlock()

	m.business.RecordOperation(ctx, "backend", operation, status(err))
	m.business.RecordDuration(ctx, "backend", operation, latency, status(err))
}

// RecordCache records a cache path attempt.
func (m *IntegrationMetrics) RecordCache(ctx context.Context, operation string, latency time.Duration, err error) {
	m.mu.Lock()
	if err != nil {
		m.cacheFailures++
	} else {
		m.cacheSuccesses++
	}
	m.cacheLatency += latency
	m.mu.Unlock()

	m.business.RecordOperation(ctx, "backend", operation+"_cache", status(err))
}

// RecordHealthCheck records a health check outcome.
func (m *IntegrationMetrics) RecordHealthCheck(ctx context.Context, err error) {
	m.mu.Lock()
	if err != nil {
		m.healthFailures++
	} else {
		m.healthSuccesses++
	}
	m.mu.Unlock()

	m.business.RecordOperation(ctx, "backend", "health_check", status(err))
}

// Snapshot returns a consistent copy of all counters.
func (m *IntegrationMetrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		APISuccesses:    m.apiSuccesses,
		APIFailures:     m.apiFailures,
		APILatency:      m.apiLatency,
		CacheSuccesses:  m.cacheSuccesses,
		CacheFailures:   m.cacheFailures,
		CacheLatency:    m.cacheLatency,
		HealthSuccesses: m.healthSuccesses,
		HealthFailures:  m.healthFailures,
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
