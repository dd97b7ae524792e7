// Package service implements the double-layer authentication engine: factor
// key derivation (Layer 1) and KMS-backed key wrapping (Layer 2).
package service

import (
	"context"

	cryptoDomain "github.com/allisson/factorauth/internal/crypto/domain"
)

// KMSProvider wraps and unwraps 32-byte derived keys under an externally-held
// master key.
//
// The master key is the second independent secret of the double-layer scheme:
// compromising enrolled factors without it, or it without the factors, is
// insufficient to recover a derived key. Production providers delegate to a
// managed key service where the master key never leaves the service boundary.
type KMSProvider interface {
	// ID returns the provider identifier recorded on wrapped keys.
	ID() string

	// IsAvailable reports whether the provider can currently serve wrap/unwrap calls.
	IsAvailable(ctx context.Context) bool

	// WrapKey encrypts a 32-byte key, binding it to the given user ID.
	WrapKey(ctx context.Context, key []byte, userID string) (cryptoDomain.WrappedKey, error)

	// UnwrapKey decrypts a wrapped key. It must fail closed with
	// ErrContextMismatch when the wrapped key's encryption context does not
	// name the calling user.
	UnwrapKey(ctx context.Context, wrapped cryptoDomain.WrappedKey, userID string) ([]byte, error)

	// RotateMasterKey activates a new master key version and returns its ID.
	// Previously wrapped keys remain unwrappable under their recorded version.
	RotateMasterKey(ctx context.Context) (string, error)

	// MasterKeyVersion returns the currently active master key version.
	MasterKeyVersion() string
}

// Keeper is the subset of *gocloud.dev/secrets.Keeper the keeper provider
// relies on, extracted as an interface for testability.
type Keeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// KeeperOpener opens a Keeper for a master key URI.
type KeeperOpener func(ctx context.Context, keyURI string) (Keeper, error)
