// Package mocks provides mock implementations for testing crypto services.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	cryptoDomain "github.com/allisson/factorauth/internal/crypto/domain"
)

// MockKMSProvider is a mock implementation of KMSProvider for testing.
type MockKMSProvider struct {
	mock.Mock
}

// ID mocks the ID method of KMSProvider.
func (m *MockKMSProvider) ID() string {
	args := m.Called()
	return args.String(0)
}

// IsAvailable mocks the IsAvailable method of KMSProvider.
func (m *MockKMSProvider) IsAvailable(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

// WrapKey mocks the WrapKey method of KMSProvider.
func (m *MockKMSProvider) WrapKey(
	ctx context.Context,
	key []byte,
	userID string,
) (cryptoDomain.WrappedKey, error) {
	args := m.Called(ctx, key, userID)
	return args.Get(0).(cryptoDomain.WrappedKey), args.Error(1)
}

// UnwrapKey mocks the UnwrapKey method of KMSProvider.
func (m *MockKMSProvider) UnwrapKey(
	ctx context.Context,
	wrapped cryptoDomain.WrappedKey,
	userID string,
) ([]byte, error) {
	args := m.Called(ctx, wrapped, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// RotateMasterKey mocks the RotateMasterKey method of KMSProvider.
func (m *MockKMSProvider) RotateMasterKey(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MasterKeyVersion mocks the MasterKeyVersion method of KMSProvider.
func (m *MockKMSProvider) MasterKeyVersion() string {
	args := m.Called()
	return args.String(0)
}
