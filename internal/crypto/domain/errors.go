package domain

import (
	"github.com/allisson/factorauth/internal/errors"
)

// Cryptographic operation error definitions.
//
// Validation errors wrap ErrInvalidInput and may carry detail, since no secret
// is implicated in their message. Failures during verification are never
// returned to callers directly: the double-layer service converts every one of
// them into a generic failed VerificationResult so that a wrong factor, a
// corrupted record, and an unreachable KMS are indistinguishable.
var (
	// ErrInvalidKeySize indicates a key or digest is not exactly 32 bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrTooFewFactors indicates fewer factors were presented than the enrollment minimum.
	ErrTooFewFactors = errors.Wrap(errors.ErrInvalidInput, "at least two factors are required")

	// ErrWeakDerivedKey indicates the derived key failed the entropy sanity check.
	ErrWeakDerivedKey = errors.Wrap(errors.ErrInvalidInput, "derived key failed entropy check")

	// ErrContextMismatch indicates a wrapped key's encryption context does not
	// match the caller's user ID. Unwrapping fails closed to prevent cross-user
	// key substitution even when ciphertexts are swapped at the storage layer.
	ErrContextMismatch = errors.Wrap(errors.ErrForbidden, "encryption context mismatch")

	// ErrUnwrapFailed indicates the KMS could not decrypt the wrapped key.
	ErrUnwrapFailed = errors.New("unwrap failed")

	// ErrMasterKeyVersionNotFound indicates a wrapped key references a master
	// key version this provider no longer holds.
	ErrMasterKeyVersionNotFound = errors.Wrap(errors.ErrNotFound, "master key version not found")

	// ErrKMSUnavailable indicates the KMS provider cannot be reached.
	ErrKMSUnavailable = errors.Wrap(errors.ErrUnavailable, "kms unreachable")
)

// GenericVerificationError is the only error message a failed verification
// exposes. Any more detail would give an attacker an oracle separating
// "wrong factor" from "system error".
const GenericVerificationError = "verification failed"
