package service

import (
	"context"
	"encoding/binary"
	"fmt"
	"strconv"
	"sync"
	"time"

	"gocloud.dev/secrets"

	cryptoDomain "github.com/allisson/factorauth/internal/crypto/domain"

	// Register all KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// KeeperProviderID identifies the gocloud.dev keeper-backed provider.
const KeeperProviderID = "keeper"

// OpenKeeper opens a gocloud.dev secrets keeper for the given master key URI.
// Supports: gcpkms://, awskms://, azurekeyvault://, hashivault://, base64key://
func OpenKeeper(ctx context.Context, keyURI string) (Keeper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return keeper, nil
}

// KeeperKMSProvider implements KMSProvider on top of managed key services via
// gocloud.dev secrets keepers.
//
// Master key versions map to the ordered list of configured key URIs:
// rotation activates the next URI, and keepers for superseded URIs are
// retained so existing records remain unwrappable. Managed keepers expose no
// AAD parameter, so the encryption context is enforced by this provider: the
// user ID is length-prefixed into the plaintext before keeper encryption and
// checked, fail-closed, after decryption.
type KeeperKMSProvider struct {
	mu      sync.RWMutex
	uris    []string
	keepers map[int]Keeper
	active  int
	opener  KeeperOpener
}

// NewKeeperKMSProvider creates a provider over the ordered key URIs, opening
// the first keeper eagerly so misconfiguration fails at startup.
func NewKeeperKMSProvider(ctx context.Context, keyURIs []string, opener KeeperOpener) (*KeeperKMSProvider, error) {
	if len(keyURIs) == 0 {
		return nil, fmt.Errorf("%w: at least one KMS key URI is required", cryptoDomain.ErrKMSUnavailable)
	}
	if opener == nil {
		opener = OpenKeeper
	}

	p := &KeeperKMSProvider{
		uris:    append([]string(nil), keyURIs...),
		keepers: make(map[int]Keeper),
		opener:  opener,
	}
	if _, err := p.keeperFor(ctx, 0); err != nil {
		return nil, err
	}
	return p, nil
}

// ID returns the provider identifier.
func (p *KeeperKMSProvider) ID() string {
	return KeeperProviderID
}

// IsAvailable probes the active keeper with a round-trip encryption.
func (p *KeeperKMSProvider) IsAvailable(ctx context.Context) bool {
	p.mu.RLock()
	active := p.active
	p.mu.RUnlock()

	keeper, err := p.keeperFor(ctx, active)
	if err != nil {
		return false
	}
	probe, err := GenerateNonce()
	if err != nil {
		return false
	}
	_, err = keeper.Encrypt(ctx, probe)
	return err == nil
}

// MasterKeyVersion returns the active version ("uri-<index>").
func (p *KeeperKMSProvider) MasterKeyVersion() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return versionForIndex(p.active)
}

// WrapKey encrypts the key under the active keeper with the user ID bound
// into the sealed payload.
func (p *KeeperKMSProvider) WrapKey(
	ctx context.Context,
	key []byte,
	userID string,
) (cryptoDomain.WrappedKey, error) {
	if len(key) != cryptoDomain.KeySize {
		return cryptoDomain.WrappedKey{}, cryptoDomain.ErrInvalidKeySize
	}

	p.mu.RLock()
	active := p.active
	p.mu.RUnlock()

	keeper, err := p.keeperFor(ctx, active)
	if err != nil {
		return cryptoDomain.WrappedKey{}, err
	}

	payload := bindUserID(userID, key)
	defer cryptoDomain.Zero(payload)

	ciphertext, err := keeper.Encrypt(ctx, payload)
	if err != nil {
		return cryptoDomain.WrappedKey{}, fmt.Errorf("%w: %v", cryptoDomain.ErrKMSUnavailable, err)
	}

	return cryptoDomain.WrappedKey{
		Ciphertext: ciphertext,
		Context: cryptoDomain.EncryptionContext{
			UserID:    userID,
			Provider:  KeeperProviderID,
			Algorithm: cryptoDomain.KeeperManaged,
		},
		ProviderID: KeeperProviderID,
		KeyVersion: versionForIndex(active),
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// UnwrapKey decrypts the wrapped key under the keeper for its recorded
// version and verifies the bound user ID, failing closed on any mismatch.
// The record-level context is checked first so a swapped record is rejected
// even before the KMS round trip.
func (p *KeeperKMSProvider) UnwrapKey(
	ctx context.Context,
	wrapped cryptoDomain.WrappedKey,
	userID string,
) ([]byte, error) {
	if wrapped.Context.UserID != userID {
		return nil, cryptoDomain.ErrContextMismatch
	}

	index, err := indexForVersion(wrapped.KeyVersion)
	if err != nil || index < 0 || index >= len(p.uris) {
		return nil, cryptoDomain.ErrMasterKeyVersionNotFound
	}

	keeper, err := p.keeperFor(ctx, index)
	if err != nil {
		return nil, err
	}

	payload, err := keeper.Decrypt(ctx, wrapped.Ciphertext)
	if err != nil {
		return nil, cryptoDomain.ErrUnwrapFailed
	}
	defer cryptoDomain.Zero(payload)

	boundUserID, key, err := splitUserID(payload)
	if err != nil {
		return nil, cryptoDomain.ErrUnwrapFailed
	}
	if !ConstantTimeEquals([]byte(boundUserID), []byte(userID)) {
		cryptoDomain.Zero(key)
		return nil, cryptoDomain.ErrContextMismatch
	}
	return key, nil
}

// RotateMasterKey activates the next configured key URI and returns its
// version. Managed services mint key material server-side, so rotation here
// is a matter of selecting which remote key new wraps go to.
func (p *KeeperKMSProvider) RotateMasterKey(ctx context.Context) (string, error) {
	p.mu.Lock()
	if p.active+1 >= len(p.uris) {
		p.mu.Unlock()
		return "", fmt.Errorf(
			"%w: no further key URI configured for rotation",
			cryptoDomain.ErrMasterKeyVersionNotFound,
		)
	}
	next := p.active + 1
	p.mu.Unlock()

	// Open before activating so a bad URI doesn't strand new wraps.
	if _, err := p.keeperFor(ctx, next); err != nil {
		return "", err
	}

	p.mu.Lock()
	p.active = next
	p.mu.Unlock()
	return versionForIndex(next), nil
}

// Close closes all opened keepers.
func (p *KeeperKMSProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for index, keeper := range p.keepers {
		if err := keeper.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.keepers, index)
	}
	return firstErr
}

// keeperFor returns the keeper for a URI index, opening and caching it on
// first use.
func (p *KeeperKMSProvider) keeperFor(ctx context.Context, index int) (Keeper, error) {
	p.mu.RLock()
	keeper, ok := p.keepers[index]
	p.mu.RUnlock()
	if ok {
		return keeper, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if keeper, ok := p.keepers[index]; ok {
		return keeper, nil
	}

	keeper, err := p.opener(ctx, p.uris[index])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrKMSUnavailable, err)
	}
	p.keepers[index] = keeper
	return keeper, nil
}

// bindUserID prepends the length-prefixed user ID to the key material.
func bindUserID(userID string, key []byte) []byte {
	out := lengthPrefix([]byte(userID))
	return append(out, key...)
}

// splitUserID reverses bindUserID.
func splitUserID(payload []byte) (string, []byte, error) {
	if len(payload) < 4 {
		return "", nil, fmt.Errorf("payload too short")
	}
	idLen := int(binary.BigEndian.Uint32(payload))
	if len(payload) < 4+idLen+cryptoDomain.KeySize {
		return "", nil, fmt.Errorf("payload truncated")
	}
	userID := string(payload[4 : 4+idLen])
	key := append([]byte(nil), payload[4+idLen:]...)
	return userID, key, nil
}

func versionForIndex(index int) string {
	return "uri-" + strconv.Itoa(index)
}

func indexForVersion(version string) (int, error) {
	const prefix = "uri-"
	if len(version) <= len(prefix) || version[:len(prefix)] != prefix {
		return 0, fmt.Errorf("malformed key version %q", version)
	}
	return strconv.Atoi(version[len(prefix):])
}
