package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	backendDomain "github.com/allisson/factorauth/internal/backend/domain"
	backendService "github.com/allisson/factorauth/internal/backend/service"
	cryptoService "github.com/allisson/factorauth/internal/crypto/service"
	"github.com/allisson/factorauth/internal/database"
	enrollmentDomain "github.com/allisson/factorauth/internal/enrollment/domain"
	apperrors "github.com/allisson/factorauth/internal/errors"
	policyDomain "github.com/allisson/factorauth/internal/policy/domain"
	policyService "github.com/allisson/factorauth/internal/policy/service"
)

// enrollmentUseCase implements EnrollmentUseCase. Every operation runs the
// same pipeline: detect threats, evaluate the policy, run the crypto engine,
// then reach storage through the backend executor with the remote store as
// the primary path and the local repository as the fallback path.
type enrollmentUseCase struct {
	txManager   database.TxManager
	local       WrappedKeyRepository
	remote      RemoteStore
	doubleLayer *cryptoService.DoubleLayerService
	detector    policyDomain.ThreatDetector
	evaluator   *policyService.Evaluator
	executor    *backendService.Executor
	logger      *slog.Logger
}

// NewEnrollmentUseCase creates the enrollment use case with its collaborators.
func NewEnrollmentUseCase(
	txManager database.TxManager,
	local WrappedKeyRepository,
	remote RemoteStore,
	doubleLayer *cryptoService.DoubleLayerService,
	detector policyDomain.ThreatDetector,
	evaluator *policyService.Evaluator,
	executor *backendService.Executor,
	logger *slog.Logger,
) EnrollmentUseCase {
	return &enrollmentUseCase{
		txManager:   txManager,
		local:       local,
		remote:      remote,
		doubleLayer: doubleLayer,
		detector:    detector,
		evaluator:   evaluator,
		executor:    executor,
		logger:      logger,
	}
}

// Enroll gates the attempt through the device policy, derives and wraps the
// key, and persists the record.
func (e *enrollmentUseCase) Enroll(
	ctx context.Context,
	userID string,
	factors []string,
) (*enrollmentDomain.EnrollOutcome, error) {
	decision, err := e.gate(ctx, userID)
	if err != nil {
		return nil, err
	}
	outcome := &enrollmentDomain.EnrollOutcome{Decision: decision}
	if outcome.Blocked() {
		return outcome, nil
	}

	result, err := e.doubleLayer.Enroll(ctx, userID, factors)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := &enrollmentDomain.Enrollment{
		UserID:      userID,
		WrappedKey:  result.WrappedKey,
		FactorCount: result.FactorCount,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = e.executor.Execute(ctx, "enrollment_save",
		func(ctx context.Context) error { return e.remote.Save(ctx, record) },
		func(ctx context.Context) error { return e.saveLocal(ctx, record) },
	)
	if err != nil {
		return nil, err
	}

	e.logger.Info("enrollment created", "user_id", userID, "factor_count", result.FactorCount)
	outcome.Result = &result
	return outcome, nil
}

// Verify gates the attempt through the device policy, loads the stored
// wrapped key, and runs the constant-time comparison. A missing record
// returns ErrNotFound; every crypto-stage failure stays inside the generic
// verification result.
func (e *enrollmentUseCase) Verify(
	ctx context.Context,
	userID string,
	factors []string,
) (*enrollmentDomain.VerifyOutcome, error) {
	decision, err := e.gate(ctx, userID)
	if err != nil {
		return nil, err
	}
	outcome := &enrollmentDomain.VerifyOutcome{Decision: decision}
	if outcome.Blocked() {
		return outcome, nil
	}

	// ExecuteRead keeps both closures synchronous: a background sync here
	// would write record while the verification below reads it.
	var record *enrollmentDomain.Enrollment
	err = e.executor.ExecuteRead(ctx, "enrollment_load",
		func(ctx context.Context) error {
			loaded, err := e.remote.Load(ctx, userID)
			if err != nil {
				return err
			}
			record = loaded
			return nil
		},
		func(ctx context.Context) error {
			loaded, err := e.local.Get(ctx, userID)
			if err != nil {
				return err
			}
			record = loaded
			return nil
		},
	)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	result := e.doubleLayer.Verify(ctx, userID, factors, record.WrappedKey)
	outcome.Result = &result
	return outcome, nil
}

// Delete removes the record from the local repository and from the remote
// store. Both copies must go: a surviving copy of the wrapped key defeats
// crypto-shredding. A missing local record is not an error.
func (e *enrollmentUseCase) Delete(ctx context.Context, userID string) error {
	err := e.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return e.local.Delete(txCtx, userID)
	})
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	if e.executor.Strategy() == backendDomain.StrategyCacheOnly {
		e.logger.Info("enrollment deleted", "user_id", userID)
		return nil
	}

	err = e.executor.Execute(ctx, "enrollment_delete",
		func(ctx context.Context) error {
			if err := e.remote.Delete(ctx, userID); err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
				return err
			}
			return nil
		},
		nil,
	)
	if err != nil {
		return err
	}

	e.logger.Info("enrollment deleted", "user_id", userID)
	return nil
}

// ReWrapAll sweeps the local repository and re-wraps every record under the
// current master key version. Per-record failures are logged and skipped so
// one corrupt record cannot stall a rotation sweep.
func (e *enrollmentUseCase) ReWrapAll(ctx context.Context) (int, error) {
	const pageSize = 100

	updated := 0
	for offset := 0; ; offset += pageSize {
		records, err := e.local.List(ctx, offset, pageSize)
		if err != nil {
			return updated, err
		}
		if len(records) == 0 {
			return updated, nil
		}

		for _, record := range records {
			rewrapped, err := e.doubleLayer.ReWrapKey(ctx, record.UserID, record.WrappedKey)
			if err != nil {
				e.logger.Warn("re-wrap failed, record skipped",
					"user_id", record.UserID, "key_version", record.WrappedKey.KeyVersion, "error", err)
				continue
			}

			record.WrappedKey = rewrapped
			record.UpdatedAt = time.Now().UTC()

			err = e.executor.Execute(ctx, "enrollment_rewrap_save",
				func(ctx context.Context) error { return e.remote.Save(ctx, record) },
				func(ctx context.Context) error { return e.saveLocal(ctx, record) },
			)
			if err != nil {
				e.logger.Warn("re-wrap save failed, record skipped",
					"user_id", record.UserID, "error", err)
				continue
			}
			updated++
		}

		if len(records) < pageSize {
			return updated, nil
		}
	}
}

// gate detects threats and evaluates the policy. A detector failure fails
// closed: no threat signal means no authentication.
func (e *enrollmentUseCase) gate(ctx context.Context, userID string) (policyDomain.SecurityDecision, error) {
	threats, hint, err := e.detector.DetectThreats(ctx)
	if err != nil {
		return policyDomain.SecurityDecision{}, apperrors.Wrap(err, "threat detection failed")
	}

	decision := e.evaluator.EvaluateWithHint(threats, hint)
	if decision.MerchantAlert != nil {
		decision.MerchantAlert.AlertID = uuid.NewString()
		decision.MerchantAlert.UserID = userID
		e.logger.Warn("merchant alert raised",
			"alert_id", decision.MerchantAlert.AlertID,
			"user_id", userID,
			"alert_type", decision.MerchantAlert.AlertType,
			"severity", decision.MerchantAlert.Severity.String(),
			"action", decision.Action.String(),
		)
	}
	return decision, nil
}

func (e *enrollmentUseCase) saveLocal(ctx context.Context, record *enrollmentDomain.Enrollment) error {
	return e.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return e.local.Save(txCtx, record)
	})
}
