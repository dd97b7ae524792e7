package domain

import (
	"fmt"
)

// FactorDigest is the hashed form of a single authentication factor.
//
// The factor capture layer hashes raw input (PIN digits, pattern coordinates,
// audio features) before it crosses into this module, so a FactorDigest never
// holds a raw factor value. Order matters: the derivation pipeline consumes
// digests in the exact order the user enrolled them.
type FactorDigest struct {
	Type     FactorType        // Kind of factor the digest was produced from
	Digest   []byte            // SHA-256 of the canonical factor value, always 32 bytes
	Metadata map[string]string // Optional capture hints (device, locale); never secret material
}

// NewFactorDigest builds a FactorDigest, rejecting digests that are not
// exactly 32 bytes.
func NewFactorDigest(factorType FactorType, digest []byte) (FactorDigest, error) {
	if len(digest) != KeySize {
		return FactorDigest{}, fmt.Errorf("%w: digest must be %d bytes, got %d",
			ErrInvalidKeySize, KeySize, len(digest))
	}
	return FactorDigest{Type: factorType, Digest: digest}, nil
}
