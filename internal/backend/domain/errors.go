package domain

import (
	"fmt"

	apperrors "github.com/allisson/factorauth/internal/errors"
)

var (
	// ErrCircuitOpen is returned when the breaker fails fast without
	// attempting the call.
	ErrCircuitOpen = fmt.Errorf("circuit breaker open: %w", apperrors.ErrUnavailable)

	// ErrRetriesExhausted is returned when every retry attempt failed with a
	// retryable error.
	ErrRetriesExhausted = fmt.Errorf("retries exhausted: %w", apperrors.ErrUnavailable)

	// ErrAllPathsFailed is returned when both the primary and the fallback
	// path failed.
	ErrAllPathsFailed = fmt.Errorf("primary and fallback paths failed: %w", apperrors.ErrUnavailable)

	// ErrCacheMiss is returned by cache stores when the key is absent.
	ErrCacheMiss = fmt.Errorf("cache miss: %w", apperrors.ErrNotFound)
)
