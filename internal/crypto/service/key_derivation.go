package service

import (
	"math/bits"

	cryptoDomain "github.com/allisson/factorauth/internal/crypto/domain"
)

// MinIterations is the PBKDF2 work factor floor. Configured values below it
// are raised, and it must not decrease across releases: records wrapped under
// a higher count stay verifiable because the count only affects derivation,
// not the stored ciphertext.
const MinIterations = 100000

// KeyDerivationService deterministically turns a user ID plus an ordered list
// of factor values into a 32-byte key.
//
// Pipeline: each factor is hashed independently with SHA-256 (order
// preserved), the per-factor hashes are concatenated, and PBKDF2-HMAC-SHA256
// stretches the concatenation with the user ID as salt. Identical
// (userID, factors-in-order) always yields the identical key; changing any
// factor or the order changes the key. Intermediate buffers are wiped before
// returning.
type KeyDerivationService struct {
	iterations int
}

// NewKeyDerivation creates a derivation service with the given PBKDF2
// iteration count, raising it to MinIterations when lower.
func NewKeyDerivation(iterations int) *KeyDerivationService {
	if iterations < MinIterations {
		iterations = MinIterations
	}
	return &KeyDerivationService{iterations: iterations}
}

// Iterations returns the configured PBKDF2 round count.
func (k *KeyDerivationService) Iterations() int {
	return k.iterations
}

// DeriveKey derives a 32-byte key from the user ID and ordered factor values.
func (k *KeyDerivationService) DeriveKey(userID string, factors []string) []byte {
	hashes := make([][]byte, len(factors))
	for i, factor := range factors {
		hashes[i] = Sha256([]byte(factor))
	}
	return k.deriveFromHashes(userID, hashes)
}

// DeriveKeyFromDigests derives a 32-byte key from pre-hashed factor digests,
// for callers that hold FactorDigest values instead of raw factor strings.
func (k *KeyDerivationService) DeriveKeyFromDigests(
	userID string,
	digests []cryptoDomain.FactorDigest,
) ([]byte, error) {
	hashes := make([][]byte, len(digests))
	for i, digest := range digests {
		if len(digest.Digest) != cryptoDomain.KeySize {
			return nil, cryptoDomain.ErrInvalidKeySize
		}
		// Copy so wiping the intermediate doesn't clobber the caller's digest.
		hashes[i] = append([]byte(nil), digest.Digest...)
	}
	return k.deriveFromHashes(userID, hashes), nil
}

// deriveFromHashes concatenates per-factor hashes and stretches them with
// PBKDF2-HMAC-SHA256, salted with the user ID. All intermediates are wiped.
func (k *KeyDerivationService) deriveFromHashes(userID string, hashes [][]byte) []byte {
	concatenated := make([]byte, 0, len(hashes)*cryptoDomain.KeySize)
	for _, h := range hashes {
		concatenated = append(concatenated, h...)
	}

	key := Pbkdf2(concatenated, []byte(userID), k.iterations, cryptoDomain.KeySize)

	cryptoDomain.Zero(concatenated)
	for _, h := range hashes {
		cryptoDomain.Zero(h)
	}

	return key
}

// IsValidKey performs a cheap sanity check on a derived or unwrapped key:
// exact length, not all-zero, and a set-bit ratio within [0.3, 0.7]. This
// catches wiped buffers and degenerate derivations, not weak keys; it is not
// a cryptographic guarantee.
func (k *KeyDerivationService) IsValidKey(key []byte) bool {
	if len(key) != cryptoDomain.KeySize {
		return false
	}

	setBits := 0
	for _, b := range key {
		setBits += bits.OnesCount8(b)
	}
	if setBits == 0 {
		return false
	}

	ratio := float64(setBits) / float64(len(key)*8)
	return ratio >= 0.3 && ratio <= 0.7
}

// VerificationToken returns sha256(key): a one-way audit fingerprint of a
// derived key. It must never be used for authentication decisions.
func (k *KeyDerivationService) VerificationToken(key []byte) []byte {
	return Sha256(key)
}
