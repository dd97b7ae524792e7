package service

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"math/big"

	"golang.org/x/crypto/pbkdf2"

	cryptoDomain "github.com/allisson/factorauth/internal/crypto/domain"
)

// Primitive crypto helpers shared by the derivation and KMS services.
//
// All randomness comes from crypto/rand; a general-purpose PRNG is never
// acceptable here.

// Sha256 returns the SHA-256 digest of data.
func Sha256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// MultiHash returns the SHA-256 digest of the concatenation of all inputs,
// in order.
func MultiHash(inputs ...[]byte) []byte {
	h := sha256.New()
	for _, input := range inputs {
		h.Write(input)
	}
	return h.Sum(nil)
}

// HmacSha256 returns the HMAC-SHA256 of data under key.
func HmacSha256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// Pbkdf2 runs PBKDF2-HMAC-SHA256 over password with the given salt,
// iteration count, and output length.
func Pbkdf2(password, salt []byte, iterations, keyLen int) []byte {
	return pbkdf2.Key(password, salt, iterations, keyLen, sha256.New)
}

// ConstantTimeEquals compares two byte slices in time independent of where
// they first differ. A length mismatch returns false before any comparison;
// equal-length inputs are XOR-accumulated over their full width.
func ConstantTimeEquals(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateNonce returns 16 cryptographically secure random bytes.
func GenerateNonce() ([]byte, error) {
	return GenerateRandomBytes(cryptoDomain.NonceSize)
}

// GenerateRandomBytes returns n cryptographically secure random bytes.
func GenerateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return b, nil
}

// SecureShuffle performs an in-place Fisher-Yates shuffle using crypto/rand.
// Used by factor capture surfaces to randomize layouts (e.g., PIN pad order)
// so observed positions reveal nothing about values.
func SecureShuffle[T any](items []T) error {
	for i := len(items) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return fmt.Errorf("failed to generate shuffle index: %w", err)
		}
		k := int(j.Int64())
		items[i], items[k] = items[k], items[i]
	}
	return nil
}

// lengthPrefix returns data prefixed with its length as a big-endian uint32.
// Used to make concatenated context fields unambiguous.
func lengthPrefix(data []byte) []byte {
	out := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(out, uint32(len(data)))
	copy(out[4:], data)
	return out
}
