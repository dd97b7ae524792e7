package usecase

import (
	"context"
	"time"

	enrollmentDomain "github.com/allisson/factorauth/internal/enrollment/domain"
	"github.com/allisson/factorauth/internal/metrics"
)

// enrollmentUseCaseWithMetrics decorates EnrollmentUseCase with metrics
// instrumentation.
type enrollmentUseCaseWithMetrics struct {
	next    EnrollmentUseCase
	metrics metrics.BusinessMetrics
}

// NewEnrollmentUseCaseWithMetrics wraps an EnrollmentUseCase with metrics
// recording.
func NewEnrollmentUseCaseWithMetrics(useCase EnrollmentUseCase, m metrics.BusinessMetrics) EnrollmentUseCase {
	return &enrollmentUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Enroll records metrics for enrollment operations. Policy blocks and
// generic verification failures count as "blocked" and "failure" rather
// than "error": they are outcomes, not faults.
func (e *enrollmentUseCaseWithMetrics) Enroll(
	ctx context.Context,
	userID string,
	factors []string,
) (*enrollmentDomain.EnrollOutcome, error) {
	start := time.Now()
	outcome, err := e.next.Enroll(ctx, userID, factors)

	status := "success"
	switch {
	case err != nil:
		status = "error"
	case outcome.Blocked():
		status = "blocked"
	}

	e.metrics.RecordOperation(ctx, "enrollment", "enroll", status)
	e.metrics.RecordDuration(ctx, "enrollment", "enroll", time.Since(start), status)

	return outcome, err
}

// Verify records metrics for verification operations.
func (e *enrollmentUseCaseWithMetrics) Verify(
	ctx context.Context,
	userID string,
	factors []string,
) (*enrollmentDomain.VerifyOutcome, error) {
	start := time.Now()
	outcome, err := e.next.Verify(ctx, userID, factors)

	status := "success"
	switch {
	case err != nil:
		status = "error"
	case outcome.Blocked():
		status = "blocked"
	case !outcome.Result.Success:
		status = "failure"
	}

	e.metrics.RecordOperation(ctx, "enrollment", "verify", status)
	e.metrics.RecordDuration(ctx, "enrollment", "verify", time.Since(start), status)

	return outcome, err
}

// Delete records metrics for erasure operations.
func (e *enrollmentUseCaseWithMetrics) Delete(ctx context.Context, userID string) error {
	start := time.Now()
	err := e.next.Delete(ctx, userID)

	status := "success"
	if err != nil {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "enrollment", "delete", status)
	e.metrics.RecordDuration(ctx, "enrollment", "delete", time.Since(start), status)

	return err
}

// ReWrapAll records metrics for key-rotation sweeps.
func (e *enrollmentUseCaseWithMetrics) ReWrapAll(ctx context.Context) (int, error) {
	start := time.Now()
	updated, err := e.next.ReWrapAll(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "enrollment", "rewrap_all", status)
	e.metrics.RecordDuration(ctx, "enrollment", "rewrap_all", time.Since(start), status)

	return updated, err
}
