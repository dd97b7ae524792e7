package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZero(t *testing.T) {
	t.Run("zeroes all bytes", func(t *testing.T) {
		b := []byte{1, 2, 3, 4}
		Zero(b)
		assert.Equal(t, []byte{0, 0, 0, 0}, b)
	})

	t.Run("handles nil slice", func(t *testing.T) {
		assert.NotPanics(t, func() { Zero(nil) })
	})

	t.Run("handles empty slice", func(t *testing.T) {
		assert.NotPanics(t, func() { Zero([]byte{}) })
	})
}

func TestNewFactorDigest(t *testing.T) {
	t.Run("accepts a 32-byte digest", func(t *testing.T) {
		digest := make([]byte, KeySize)
		fd, err := NewFactorDigest(FactorPIN, digest)
		require.NoError(t, err)
		assert.Equal(t, FactorPIN, fd.Type)
		assert.Len(t, fd.Digest, KeySize)
	})

	t.Run("rejects a short digest", func(t *testing.T) {
		_, err := NewFactorDigest(FactorPattern, make([]byte, 16))
		assert.ErrorIs(t, err, ErrInvalidKeySize)
	})

	t.Run("rejects an empty digest", func(t *testing.T) {
		_, err := NewFactorDigest(FactorPattern, nil)
		assert.ErrorIs(t, err, ErrInvalidKeySize)
	})
}
