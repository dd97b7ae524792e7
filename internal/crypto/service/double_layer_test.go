package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/factorauth/internal/crypto/domain"
	"github.com/allisson/factorauth/internal/crypto/service/mocks"
	apperrors "github.com/allisson/factorauth/internal/errors"
)

func testDoubleLayer(t *testing.T) *DoubleLayerService {
	t.Helper()
	provider, err := NewLocalKMSProvider()
	require.NoError(t, err)
	t.Cleanup(provider.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDoubleLayer(testDeriver(1000), provider, 2, logger)
}

func TestDoubleLayerService_Enroll(t *testing.T) {
	ctx := context.Background()
	service := testDoubleLayer(t)

	t.Run("enrolls with two factors", func(t *testing.T) {
		result, err := service.Enroll(ctx, "u-1", []string{"1234", "pattern-abcd"})
		require.NoError(t, err)

		assert.Equal(t, "u-1", result.UserID)
		assert.Equal(t, 2, result.FactorCount)
		assert.Len(t, result.VerificationToken, 32)
		assert.NotEmpty(t, result.WrappedKey.Ciphertext)
		assert.False(t, result.CreatedAt.IsZero())
	})

	t.Run("rejects a single factor", func(t *testing.T) {
		_, err := service.Enroll(ctx, "u-1", []string{"1234"})
		assert.ErrorIs(t, err, cryptoDomain.ErrTooFewFactors)
	})

	t.Run("rejects a blank user id", func(t *testing.T) {
		_, err := service.Enroll(ctx, "  ", []string{"1234", "pattern-abcd"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("rejects an empty factor value", func(t *testing.T) {
		_, err := service.Enroll(ctx, "u-1", []string{"1234", ""})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("never exposes the derived key", func(t *testing.T) {
		result, err := service.Enroll(ctx, "u-1", []string{"1234", "pattern-abcd"})
		require.NoError(t, err)

		key := testDeriver(1000).DeriveKey("u-1", []string{"1234", "pattern-abcd"})
		assert.NotEqual(t, key, result.WrappedKey.Ciphertext)
		assert.NotEqual(t, key, result.VerificationToken)
	})

	t.Run("propagates KMS failure", func(t *testing.T) {
		kms := &mocks.MockKMSProvider{}
		kms.On("WrapKey", mock.Anything, mock.Anything, "u-1").
			Return(cryptoDomain.WrappedKey{}, cryptoDomain.ErrKMSUnavailable)

		failing := NewDoubleLayer(testDeriver(1000), kms, 2, nil)
		_, err := failing.Enroll(ctx, "u-1", []string{"1234", "pattern-abcd"})
		assert.ErrorIs(t, err, cryptoDomain.ErrKMSUnavailable)
	})
}

func TestDoubleLayerService_EnrollDigests(t *testing.T) {
	ctx := context.Background()
	service := testDoubleLayer(t)

	digests := func(factors ...string) []cryptoDomain.FactorDigest {
		out := make([]cryptoDomain.FactorDigest, len(factors))
		for i, f := range factors {
			fd, err := cryptoDomain.NewFactorDigest(cryptoDomain.FactorPIN, Sha256([]byte(f)))
			require.NoError(t, err)
			out[i] = fd
		}
		return out
	}

	t.Run("digest enrollment verifies against string factors", func(t *testing.T) {
		result, err := service.EnrollDigests(ctx, "u-1", digests("1234", "pattern-abcd"))
		require.NoError(t, err)

		verification := service.Verify(ctx, "u-1", []string{"1234", "pattern-abcd"}, result.WrappedKey)
		assert.True(t, verification.Success)
	})

	t.Run("rejects too few digests", func(t *testing.T) {
		_, err := service.EnrollDigests(ctx, "u-1", digests("1234"))
		assert.ErrorIs(t, err, cryptoDomain.ErrTooFewFactors)
	})
}

func TestDoubleLayerService_Verify(t *testing.T) {
	ctx := context.Background()
	service := testDoubleLayer(t)

	enrollment, err := service.Enroll(ctx, "u-1", []string{"1234", "pattern-abcd"})
	require.NoError(t, err)

	t.Run("round trip succeeds", func(t *testing.T) {
		result := service.Verify(ctx, "u-1", []string{"1234", "pattern-abcd"}, enrollment.WrappedKey)
		assert.True(t, result.Success)
		assert.Empty(t, result.ErrorMessage)
		assert.Equal(t, LocalProviderID, result.KMSProviderID)
	})

	t.Run("wrong factor fails generically", func(t *testing.T) {
		result := service.Verify(ctx, "u-1", []string{"0000", "pattern-abcd"}, enrollment.WrappedKey)
		assert.False(t, result.Success)
		assert.Equal(t, cryptoDomain.GenericVerificationError, result.ErrorMessage)
	})

	t.Run("wrong factor order fails generically", func(t *testing.T) {
		result := service.Verify(ctx, "u-1", []string{"pattern-abcd", "1234"}, enrollment.WrappedKey)
		assert.False(t, result.Success)
		assert.Equal(t, cryptoDomain.GenericVerificationError, result.ErrorMessage)
	})

	t.Run("corrupted record fails with the same message as a wrong factor", func(t *testing.T) {
		corrupted := enrollment.WrappedKey
		corrupted.Ciphertext = append([]byte(nil), corrupted.Ciphertext...)
		corrupted.Ciphertext[0] ^= 0xFF

		result := service.Verify(ctx, "u-1", []string{"1234", "pattern-abcd"}, corrupted)
		assert.False(t, result.Success)
		assert.Equal(t, cryptoDomain.GenericVerificationError, result.ErrorMessage)
	})

	t.Run("cross-user verification fails generically", func(t *testing.T) {
		result := service.Verify(ctx, "u-2", []string{"1234", "pattern-abcd"}, enrollment.WrappedKey)
		assert.False(t, result.Success)
		assert.Equal(t, cryptoDomain.GenericVerificationError, result.ErrorMessage)
	})

	t.Run("KMS failure is indistinguishable from a wrong factor", func(t *testing.T) {
		kms := &mocks.MockKMSProvider{}
		kms.On("ID").Return("mock")
		kms.On("UnwrapKey", mock.Anything, mock.Anything, "u-1").
			Return(nil, errors.New("kms exploded: internal detail"))

		failing := NewDoubleLayer(testDeriver(1000), kms, 2, nil)
		result := failing.Verify(ctx, "u-1", []string{"1234", "pattern-abcd"}, enrollment.WrappedKey)
		assert.False(t, result.Success)
		assert.Equal(t, cryptoDomain.GenericVerificationError, result.ErrorMessage)
		assert.NotContains(t, result.ErrorMessage, "kms exploded")
	})
}

func TestDoubleLayerService_ReWrapKey(t *testing.T) {
	ctx := context.Background()
	provider, err := NewLocalKMSProvider()
	require.NoError(t, err)
	defer provider.Close()

	service := NewDoubleLayer(testDeriver(1000), provider, 2, nil)

	enrollment, err := service.Enroll(ctx, "u-1", []string{"1234", "pattern-abcd"})
	require.NoError(t, err)

	_, err = provider.RotateMasterKey(ctx)
	require.NoError(t, err)

	rewrapped, err := service.ReWrapKey(ctx, "u-1", enrollment.WrappedKey)
	require.NoError(t, err)
	assert.Equal(t, "v2", rewrapped.KeyVersion)
	assert.NotEqual(t, enrollment.WrappedKey.Ciphertext, rewrapped.Ciphertext)

	t.Run("re-wrapped key still verifies", func(t *testing.T) {
		result := service.Verify(ctx, "u-1", []string{"1234", "pattern-abcd"}, rewrapped)
		assert.True(t, result.Success)
	})

	t.Run("re-wrap for the wrong user fails", func(t *testing.T) {
		_, err := service.ReWrapKey(ctx, "u-2", enrollment.WrappedKey)
		assert.Error(t, err)
	})
}

func TestDoubleLayerService_ValidateSetup(t *testing.T) {
	ctx := context.Background()

	t.Run("passes with a working provider", func(t *testing.T) {
		service := testDoubleLayer(t)
		assert.NoError(t, service.ValidateSetup(ctx))
	})

	t.Run("fails when the KMS is unreachable", func(t *testing.T) {
		kms := &mocks.MockKMSProvider{}
		kms.On("WrapKey", mock.Anything, mock.Anything, mock.Anything).
			Return(cryptoDomain.WrappedKey{}, cryptoDomain.ErrKMSUnavailable)

		service := NewDoubleLayer(testDeriver(1000), kms, 2, nil)
		assert.Error(t, service.ValidateSetup(ctx))
	})
}
