package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name:    "load default configuration",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "postgres", cfg.DBDriver)
				assert.Equal(t, 25, cfg.DBMaxOpenConnections)
				assert.Equal(t, "info", cfg.LogLevel)
				assert.Equal(t, "local", cfg.KMSProvider)
				assert.Equal(t, 100000, cfg.DerivationIterations)
				assert.Equal(t, 2, cfg.MinFactorCount)
				assert.Equal(t, 5, cfg.CircuitBreakerThreshold)
				assert.Equal(t, 30*time.Second, cfg.CircuitBreakerTimeout)
				assert.Equal(t, 2, cfg.CircuitBreakerSuccessThreshold)
				assert.Equal(t, 3, cfg.BackendMaxRetries)
				assert.Equal(t, 200*time.Millisecond, cfg.BackendInitialRetryDelay)
				assert.Equal(t, 5*time.Second, cfg.BackendMaxRetryDelay)
				assert.Equal(t, "api_first_cache_fallback", cfg.BackendFallbackStrategy)
				assert.Equal(t, time.Minute, cfg.HealthCheckInterval)
				assert.False(t, cfg.PolicyAlertOnDegrade)
				assert.Equal(t, "high", cfg.PolicyTemporaryAlertMinSeverity)
			},
		},
		{
			name: "load custom backend configuration",
			envVars: map[string]string{
				"BACKEND_FALLBACK_STRATEGY":     "cache_first_api_sync",
				"BACKEND_MAX_RETRIES":           "5",
				"CIRCUIT_BREAKER_THRESHOLD":     "10",
				"CIRCUIT_BREAKER_TIMEOUT_MS":    "1500",
				"BACKEND_INITIAL_RETRY_DELAY_MS": "50",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "cache_first_api_sync", cfg.BackendFallbackStrategy)
				assert.Equal(t, 5, cfg.BackendMaxRetries)
				assert.Equal(t, 10, cfg.CircuitBreakerThreshold)
				assert.Equal(t, 1500*time.Millisecond, cfg.CircuitBreakerTimeout)
				assert.Equal(t, 50*time.Millisecond, cfg.BackendInitialRetryDelay)
			},
		},
		{
			name: "derivation iteration floor is enforced",
			envVars: map[string]string{
				"DERIVATION_ITERATIONS": "1000",
				"MIN_FACTOR_COUNT":      "1",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 100000, cfg.DerivationIterations)
				assert.Equal(t, 2, cfg.MinFactorCount)
			},
		},
		{
			name: "derivation iterations above the floor are kept",
			envVars: map[string]string{
				"DERIVATION_ITERATIONS": "310000",
				"MIN_FACTOR_COUNT":      "3",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 310000, cfg.DerivationIterations)
				assert.Equal(t, 3, cfg.MinFactorCount)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}
			cfg := Load()
			tt.validate(t, cfg)
		})
	}
}
