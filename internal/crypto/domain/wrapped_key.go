// Package domain defines the value types of the double-layer authentication engine.
//
// Layer 1 derives a 32-byte key from a user's ordered factors; Layer 2 wraps
// that key under a KMS-held master key. The WrappedKey record is the only
// durable artifact: deleting it is the erasure mechanism (crypto-shredding),
// because the derived key cannot practically be recomputed without it.
// Plaintext derived keys are transient byte slices, wiped within the call
// stack that produced them and never persisted or logged.
package domain

import (
	"time"
)

// EncryptionContext binds a wrapped key to the user it was created for.
//
// Providers must refuse to unwrap when the caller's user ID differs from the
// context's, so a ciphertext copied between records cannot authenticate a
// different user even with a valid KMS master key.
type EncryptionContext struct {
	UserID    string    // User the wrapped key belongs to
	Provider  string    // Provider identifier that produced the ciphertext
	Algorithm Algorithm // Wrapping cipher
}

// WrappedKey is a Layer-1 derived key encrypted by the Layer-2 KMS provider.
//
// Created at enrollment, optionally replaced in place by key rotation
// (re-wrap), and destroyed at erasure. The ciphertext is only decryptable by
// the KMS provider that produced it.
type WrappedKey struct {
	Ciphertext []byte            // Derived key encrypted under the KMS master key
	Context    EncryptionContext // Binding context checked at unwrap time
	ProviderID string            // Identifier of the producing provider
	KeyVersion string            // Master key version used for wrapping
	Nonce      []byte            // Wrapping nonce (local provider only; empty for keepers)
	CreatedAt  time.Time
}

// EnrollmentResult is the outcome of a successful enrollment.
//
// It never contains the raw derived key. The verification token is
// sha256(derived key): a one-way audit fingerprint that must never be used
// for authentication decisions.
type EnrollmentResult struct {
	UserID            string
	WrappedKey        WrappedKey
	VerificationToken []byte
	FactorCount       int
	CreatedAt         time.Time
}

// VerificationResult is the outcome of a verification attempt.
//
// ErrorMessage, when set, is always the generic verification failure text:
// it never distinguishes a wrong factor from a corrupted record or an
// unreachable KMS.
type VerificationResult struct {
	Success       bool
	UserID        string
	FactorCount   int
	KMSProviderID string
	ErrorMessage  string
	VerifiedAt    time.Time
}
