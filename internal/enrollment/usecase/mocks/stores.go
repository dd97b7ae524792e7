// Package mocks provides mock implementations for testing the enrollment
// use case.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	enrollmentDomain "github.com/allisson/factorauth/internal/enrollment/domain"
)

// MockWrappedKeyRepository is a mock implementation of WrappedKeyRepository
// for testing.
type MockWrappedKeyRepository struct {
	mock.Mock
}

// Save mocks the Save method of WrappedKeyRepository.
func (m *MockWrappedKeyRepository) Save(ctx context.Context, enrollment *enrollmentDomain.Enrollment) error {
	args := m.Called(ctx, enrollment)
	return args.Error(0)
}

// Get mocks the Get method of WrappedKeyRepository.
func (m *MockWrappedKeyRepository) Get(ctx context.Context, userID string) (*enrollmentDomain.Enrollment, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*enrollmentDomain.Enrollment), args.Error(1)
}

// Delete mocks the Delete method of WrappedKeyRepository.
func (m *MockWrappedKeyRepository) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// List mocks the List method of WrappedKeyRepository.
func (m *MockWrappedKeyRepository) List(ctx context.Context, offset, limit int) ([]*enrollmentDomain.Enrollment, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*enrollmentDomain.Enrollment), args.Error(1)
}

// MockRemoteStore is a mock implementation of RemoteStore for testing.
type MockRemoteStore struct {
	mock.Mock
}

// Save mocks the Save method of RemoteStore.
func (m *MockRemoteStore) Save(ctx context.Context, enrollment *enrollmentDomain.Enrollment) error {
	args := m.Called(ctx, enrollment)
	return args.Error(0)
}

// Load mocks the Load method of RemoteStore.
func (m *MockRemoteStore) Load(ctx context.Context, userID string) (*enrollmentDomain.Enrollment, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*enrollmentDomain.Enrollment), args.Error(1)
}

// Delete mocks the Delete method of RemoteStore.
func (m *MockRemoteStore) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}
