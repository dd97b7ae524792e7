// Package usecase defines the interfaces and implementations for enrollment
// management. The use case gates every operation through the device trust
// policy, runs the double-layer crypto engine, and persists wrapped-key
// records through the resilient backend executor.
package usecase

import (
	"context"

	enrollmentDomain "github.com/allisson/factorauth/internal/enrollment/domain"
)

// WrappedKeyRepository defines local persistence for enrollment records.
// Implemented by the SQL repositories and by the in-memory cached store.
type WrappedKeyRepository interface {
	// Save inserts or replaces the record for its user.
	Save(ctx context.Context, enrollment *enrollmentDomain.Enrollment) error
	Get(ctx context.Context, userID string) (*enrollmentDomain.Enrollment, error)
	Delete(ctx context.Context, userID string) error
	List(ctx context.Context, offset, limit int) ([]*enrollmentDomain.Enrollment, error)
}

// RemoteStore abstracts the backend API that holds the authoritative copy of
// enrollment records. Implementations live outside this repo; their errors
// carry message text matchable against the configured retryable set.
type RemoteStore interface {
	Save(ctx context.Context, enrollment *enrollmentDomain.Enrollment) error
	Load(ctx context.Context, userID string) (*enrollmentDomain.Enrollment, error)
	Delete(ctx context.Context, userID string) error
}

// EnrollmentUseCase defines the business logic for factor enrollment.
type EnrollmentUseCase interface {
	// Enroll derives and wraps a key from the user's ordered factors and
	// persists the record. A policy block returns an outcome carrying the
	// decision, not an error.
	Enroll(ctx context.Context, userID string, factors []string) (*enrollmentDomain.EnrollOutcome, error)
	// Verify checks presented factors against the stored wrapped key. The
	// verification result never reveals which stage failed.
	Verify(ctx context.Context, userID string, factors []string) (*enrollmentDomain.VerifyOutcome, error)
	// Delete removes the user's record everywhere. Removing the wrapped key
	// is the cryptographic erasure mechanism.
	Delete(ctx context.Context, userID string) error
	// ReWrapAll re-wraps every stored record under the current master key
	// version and reports how many records were updated.
	ReWrapAll(ctx context.Context) (int, error)
}
