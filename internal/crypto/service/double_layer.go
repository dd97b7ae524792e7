package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/factorauth/internal/crypto/domain"
	appvalidation "github.com/allisson/factorauth/internal/validation"
)

// DoubleLayerService orchestrates key derivation (Layer 1) and KMS wrapping
// (Layer 2) into enroll, verify, and re-wrap operations.
//
// The security property both layers preserve together: compromising only the
// factors (shoulder-surfing) is insufficient without the KMS master key, and
// compromising only the KMS is insufficient without the factors. Derived keys
// exist only inside a single call and are wiped on every path out, success or
// failure.
//
// Deletion contract: removing the stored WrappedKey record is sufficient for
// cryptographic erasure. Without the wrapped value the derived key cannot
// practically be recomputed past the PBKDF2 work factor, so the derivation
// salt needs no separate handling. The record removal itself belongs to the
// storage layer.
type DoubleLayerService struct {
	deriver    *KeyDerivationService
	kms        KMSProvider
	minFactors int
	logger     *slog.Logger
}

// NewDoubleLayer creates the double-layer service. minFactors below 2 is
// raised to 2: a single knowledge item never constitutes enrollment.
func NewDoubleLayer(
	deriver *KeyDerivationService,
	kms KMSProvider,
	minFactors int,
	logger *slog.Logger,
) *DoubleLayerService {
	if minFactors < 2 {
		minFactors = 2
	}
	return &DoubleLayerService{
		deriver:    deriver,
		kms:        kms,
		minFactors: minFactors,
		logger:     logger,
	}
}

// Enroll derives a key from the ordered factors, wraps it via the KMS, and
// returns the enrollment record. The derived key is wiped before returning
// on every path.
func (d *DoubleLayerService) Enroll(
	ctx context.Context,
	userID string,
	factors []string,
) (cryptoDomain.EnrollmentResult, error) {
	if err := d.validateEnrollInput(userID, factors); err != nil {
		return cryptoDomain.EnrollmentResult{}, err
	}

	key := d.deriver.DeriveKey(userID, factors)
	defer cryptoDomain.Zero(key)

	if !d.deriver.IsValidKey(key) {
		return cryptoDomain.EnrollmentResult{}, cryptoDomain.ErrWeakDerivedKey
	}

	wrapped, err := d.kms.WrapKey(ctx, key, userID)
	if err != nil {
		return cryptoDomain.EnrollmentResult{}, fmt.Errorf("failed to wrap derived key: %w", err)
	}

	return cryptoDomain.EnrollmentResult{
		UserID:            userID,
		WrappedKey:        wrapped,
		VerificationToken: d.deriver.VerificationToken(key),
		FactorCount:       len(factors),
		CreatedAt:         time.Now().UTC(),
	}, nil
}

// EnrollDigests enrolls from pre-hashed factor digests instead of raw factor
// strings, for callers that receive FactorDigest values from the capture layer.
func (d *DoubleLayerService) EnrollDigests(
	ctx context.Context,
	userID string,
	digests []cryptoDomain.FactorDigest,
) (cryptoDomain.EnrollmentResult, error) {
	if err := validation.Validate(userID, appvalidation.UserID); err != nil {
		return cryptoDomain.EnrollmentResult{}, appvalidation.WrapValidationError(err)
	}
	if len(digests) < d.minFactors {
		return cryptoDomain.EnrollmentResult{}, cryptoDomain.ErrTooFewFactors
	}

	key, err := d.deriver.DeriveKeyFromDigests(userID, digests)
	if err != nil {
		return cryptoDomain.EnrollmentResult{}, err
	}
	defer cryptoDomain.Zero(key)

	if !d.deriver.IsValidKey(key) {
		return cryptoDomain.EnrollmentResult{}, cryptoDomain.ErrWeakDerivedKey
	}

	wrapped, err := d.kms.WrapKey(ctx, key, userID)
	if err != nil {
		return cryptoDomain.EnrollmentResult{}, fmt.Errorf("failed to wrap derived key: %w", err)
	}

	return cryptoDomain.EnrollmentResult{
		UserID:            userID,
		WrappedKey:        wrapped,
		VerificationToken: d.deriver.VerificationToken(key),
		FactorCount:       len(digests),
		CreatedAt:         time.Now().UTC(),
	}, nil
}

// Verify unwraps the stored key, derives a fresh key from the presented
// factors, and compares them in constant time.
//
// Every failure path (unwrap error, entropy check, mismatch) produces the
// same generic result so the caller cannot distinguish "wrong factor" from
// "corrupted record" from "KMS unreachable". The underlying cause is logged
// at debug level for operators and never crosses into the result.
func (d *DoubleLayerService) Verify(
	ctx context.Context,
	userID string,
	factors []string,
	stored cryptoDomain.WrappedKey,
) cryptoDomain.VerificationResult {
	failed := cryptoDomain.VerificationResult{
		Success:       false,
		UserID:        userID,
		FactorCount:   len(factors),
		KMSProviderID: d.kms.ID(),
		ErrorMessage:  cryptoDomain.GenericVerificationError,
		VerifiedAt:    time.Now().UTC(),
	}

	if err := d.validateEnrollInput(userID, factors); err != nil {
		d.logVerifyFailure(userID, "input validation", err)
		return failed
	}

	storedKey, err := d.kms.UnwrapKey(ctx, stored, userID)
	if err != nil {
		d.logVerifyFailure(userID, "unwrap", err)
		return failed
	}
	defer cryptoDomain.Zero(storedKey)

	if !d.deriver.IsValidKey(storedKey) {
		d.logVerifyFailure(userID, "stored key validation", cryptoDomain.ErrWeakDerivedKey)
		return failed
	}

	presentedKey := d.deriver.DeriveKey(userID, factors)
	defer cryptoDomain.Zero(presentedKey)

	if !ConstantTimeEquals(storedKey, presentedKey) {
		d.logVerifyFailure(userID, "comparison", nil)
		return failed
	}

	return cryptoDomain.VerificationResult{
		Success:       true,
		UserID:        userID,
		FactorCount:   len(factors),
		KMSProviderID: d.kms.ID(),
		VerifiedAt:    time.Now().UTC(),
	}
}

// ReWrapKey unwraps a key under its recorded (possibly prior) master key
// version and re-wraps it under the current one. Used during key rotation so
// users do not have to re-present factors.
func (d *DoubleLayerService) ReWrapKey(
	ctx context.Context,
	userID string,
	old cryptoDomain.WrappedKey,
) (cryptoDomain.WrappedKey, error) {
	key, err := d.kms.UnwrapKey(ctx, old, userID)
	if err != nil {
		return cryptoDomain.WrappedKey{}, fmt.Errorf("failed to unwrap for re-wrap: %w", err)
	}
	defer cryptoDomain.Zero(key)

	wrapped, err := d.kms.WrapKey(ctx, key, userID)
	if err != nil {
		return cryptoDomain.WrappedKey{}, fmt.Errorf("failed to re-wrap key: %w", err)
	}
	return wrapped, nil
}

// ValidateSetup runs a fixed enroll/verify round trip to confirm KMS
// reachability and pipeline correctness at startup.
func (d *DoubleLayerService) ValidateSetup(ctx context.Context) error {
	const setupUserID = "setup-self-test"
	setupFactors := []string{"0000", "pattern-self-test"}

	result, err := d.Enroll(ctx, setupUserID, setupFactors)
	if err != nil {
		return fmt.Errorf("setup enroll failed: %w", err)
	}

	verification := d.Verify(ctx, setupUserID, setupFactors, result.WrappedKey)
	if !verification.Success {
		return fmt.Errorf("setup verify failed: %s", verification.ErrorMessage)
	}

	negative := d.Verify(ctx, setupUserID, []string{"1111", "pattern-self-test"}, result.WrappedKey)
	if negative.Success {
		return fmt.Errorf("setup verify accepted wrong factors")
	}

	return nil
}

// validateEnrollInput checks the user ID and factor list. Validation errors
// may carry detail: no secret is implicated in their message.
func (d *DoubleLayerService) validateEnrollInput(userID string, factors []string) error {
	if err := validation.Validate(userID, appvalidation.UserID); err != nil {
		return appvalidation.WrapValidationError(err)
	}
	if len(factors) < d.minFactors {
		return cryptoDomain.ErrTooFewFactors
	}
	if err := (appvalidation.Factors{MinCount: d.minFactors}).Validate(factors); err != nil {
		return appvalidation.WrapValidationError(err)
	}
	return nil
}

// logVerifyFailure records the real cause for operators without letting it
// reach the caller.
func (d *DoubleLayerService) logVerifyFailure(userID, stage string, err error) {
	if d.logger == nil {
		return
	}
	d.logger.Debug("verification failed",
		slog.String("user_id", userID),
		slog.String("stage", stage),
		slog.Any("error", err),
	)
}
