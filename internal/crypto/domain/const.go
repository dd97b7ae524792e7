package domain

// FactorType identifies the kind of knowledge factor a digest was produced from.
//
// The type is metadata only: it never influences key derivation, which operates
// on the ordered digest values alone. It exists so audit trails and enrollment
// records can describe what a user enrolled with, without describing the value.
type FactorType string

const (
	// FactorPIN is a numeric PIN entered on a keypad.
	FactorPIN FactorType = "pin"

	// FactorPattern is a canonicalized swipe pattern.
	FactorPattern FactorType = "pattern"

	// FactorEmoji is an ordered emoji sequence.
	FactorEmoji FactorType = "emoji"

	// FactorColor is an ordered color sequence.
	FactorColor FactorType = "color"

	// FactorVoice is a canonical digest of a spoken phrase.
	FactorVoice FactorType = "voice"

	// FactorPhrase is a typed passphrase.
	FactorPhrase FactorType = "phrase"
)

// Algorithm identifies the wrapping cipher used by a KMS provider.
type Algorithm string

const (
	// AESGCM is AES-256-GCM, used by the local reference provider.
	AESGCM Algorithm = "aes-gcm"

	// KeeperManaged marks ciphertext produced by a managed KMS keeper,
	// where the cipher is chosen by the remote service.
	KeeperManaged Algorithm = "keeper-managed"
)

const (
	// KeySize is the size in bytes of derived keys, master keys, and digests.
	KeySize = 32

	// NonceSize is the size in bytes of generated nonces.
	NonceSize = 16
)
