// Package domain holds the types for resilient backend integration:
// fallback strategies, circuit breaker states, and the failure modes the
// executor surfaces.
package domain

import (
	"fmt"
	"strings"
)

// FallbackStrategy selects how the executor combines the primary API path
// with the local cache path.
type FallbackStrategy string

const (
	// StrategyAPIOnly calls the API and fails when it fails.
	StrategyAPIOnly FallbackStrategy = "api_only"
	// StrategyCacheOnly reads the cache and never calls the API.
	StrategyCacheOnly FallbackStrategy = "cache_only"
	// StrategyAPIFirstCacheFallback calls the API and falls back to the
	// cache when the API path fails. This is the default.
	StrategyAPIFirstCacheFallback FallbackStrategy = "api_first_cache_fallback"
	// StrategyCacheFirstAPISync reads the cache and syncs to the API in the
	// background. Cache misses fall through to a synchronous API call.
	StrategyCacheFirstAPISync FallbackStrategy = "cache_first_api_sync"
)

// ParseFallbackStrategy maps a config value to a strategy, defaulting to
// api_first_cache_fallback for empty input.
func ParseFallbackStrategy(value string) (FallbackStrategy, error) {
	switch FallbackStrategy(strings.ToLower(strings.TrimSpace(value))) {
	case StrategyAPIOnly:
		return StrategyAPIOnly, nil
	case StrategyCacheOnly:
		return StrategyCacheOnly, nil
	case StrategyAPIFirstCacheFallback, "":
		return StrategyAPIFirstCacheFallback, nil
	case StrategyCacheFirstAPISync:
		return StrategyCacheFirstAPISync, nil
	default:
		return "", fmt.Errorf("unknown fallback strategy %q", value)
	}
}
