package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	cryptoDomain "github.com/allisson/factorauth/internal/crypto/domain"
)

// LocalProviderID identifies the in-process reference provider.
const LocalProviderID = "local"

// LocalKMSProvider is a reference KMSProvider holding versioned 32-byte
// master keys in memory and wrapping with AES-256-GCM.
//
// It exists for tests, local development, and the validate-setup command.
// It preserves every contract a production provider must honor (encryption
// context binding, fail-closed unwrapping, version retention across rotation)
// but offers none of the hardware-boundary guarantees of a managed KMS.
type LocalKMSProvider struct {
	mu            sync.RWMutex
	masterKeys    map[string][]byte
	activeVersion string
	versionSeq    int
}

// NewLocalKMSProvider creates a provider with a freshly generated v1 master key.
func NewLocalKMSProvider() (*LocalKMSProvider, error) {
	masterKey, err := GenerateRandomBytes(cryptoDomain.KeySize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}
	return NewLocalKMSProviderWithKey(masterKey)
}

// NewLocalKMSProviderWithKey creates a provider seeded with the given
// 32-byte master key as version v1.
func NewLocalKMSProviderWithKey(masterKey []byte) (*LocalKMSProvider, error) {
	if len(masterKey) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}
	return &LocalKMSProvider{
		masterKeys:    map[string][]byte{"v1": append([]byte(nil), masterKey...)},
		activeVersion: "v1",
		versionSeq:    1,
	}, nil
}

// ID returns the provider identifier.
func (l *LocalKMSProvider) ID() string {
	return LocalProviderID
}

// IsAvailable always reports true: the provider is in-process.
func (l *LocalKMSProvider) IsAvailable(_ context.Context) bool {
	return true
}

// MasterKeyVersion returns the active master key version.
func (l *LocalKMSProvider) MasterKeyVersion() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.activeVersion
}

// WrapKey encrypts a 32-byte key under the active master key, binding the
// user ID into the AAD so the ciphertext cannot be replayed for another user.
func (l *LocalKMSProvider) WrapKey(
	_ context.Context,
	key []byte,
	userID string,
) (cryptoDomain.WrappedKey, error) {
	if len(key) != cryptoDomain.KeySize {
		return cryptoDomain.WrappedKey{}, cryptoDomain.ErrInvalidKeySize
	}

	l.mu.RLock()
	version := l.activeVersion
	masterKey := l.masterKeys[version]
	l.mu.RUnlock()

	aead, err := NewAESGCM(masterKey)
	if err != nil {
		return cryptoDomain.WrappedKey{}, fmt.Errorf("failed to create wrapping cipher: %w", err)
	}

	encCtx := cryptoDomain.EncryptionContext{
		UserID:    userID,
		Provider:  LocalProviderID,
		Algorithm: cryptoDomain.AESGCM,
	}

	ciphertext, nonce, err := aead.Encrypt(key, contextAAD(encCtx))
	if err != nil {
		return cryptoDomain.WrappedKey{}, fmt.Errorf("failed to wrap key: %w", err)
	}

	return cryptoDomain.WrappedKey{
		Ciphertext: ciphertext,
		Context:    encCtx,
		ProviderID: LocalProviderID,
		KeyVersion: version,
		Nonce:      nonce,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// UnwrapKey decrypts a wrapped key. It fails closed when the encryption
// context names a different user, and maps every decryption failure to
// ErrUnwrapFailed without further detail.
func (l *LocalKMSProvider) UnwrapKey(
	_ context.Context,
	wrapped cryptoDomain.WrappedKey,
	userID string,
) ([]byte, error) {
	if wrapped.Context.UserID != userID {
		return nil, cryptoDomain.ErrContextMismatch
	}

	l.mu.RLock()
	masterKey, ok := l.masterKeys[wrapped.KeyVersion]
	l.mu.RUnlock()
	if !ok {
		return nil, cryptoDomain.ErrMasterKeyVersionNotFound
	}

	aead, err := NewAESGCM(masterKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create unwrapping cipher: %w", err)
	}

	key, err := aead.Decrypt(wrapped.Ciphertext, wrapped.Nonce, contextAAD(wrapped.Context))
	if err != nil {
		return nil, cryptoDomain.ErrUnwrapFailed
	}
	return key, nil
}

// RotateMasterKey generates a fresh master key as the next version and
// activates it. Superseded versions are retained so existing wrapped keys
// remain unwrappable until they are re-wrapped.
func (l *LocalKMSProvider) RotateMasterKey(_ context.Context) (string, error) {
	newKey, err := GenerateRandomBytes(cryptoDomain.KeySize)
	if err != nil {
		return "", fmt.Errorf("failed to generate master key: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.versionSeq++
	version := fmt.Sprintf("v%d", l.versionSeq)
	l.masterKeys[version] = newKey
	l.activeVersion = version
	return version, nil
}

// Close wipes all master key material.
func (l *LocalKMSProvider) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for version, key := range l.masterKeys {
		cryptoDomain.Zero(key)
		delete(l.masterKeys, version)
	}
	l.activeVersion = ""
}

// contextAAD serializes an encryption context into unambiguous AAD bytes.
// Fields are length-prefixed so no two distinct contexts share an encoding.
func contextAAD(encCtx cryptoDomain.EncryptionContext) []byte {
	out := lengthPrefix([]byte(encCtx.UserID))
	out = append(out, lengthPrefix([]byte(encCtx.Provider))...)
	out = append(out, lengthPrefix([]byte(encCtx.Algorithm))...)
	return out
}
