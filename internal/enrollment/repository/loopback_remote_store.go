package repository

import (
	"context"

	enrollmentDomain "github.com/allisson/factorauth/internal/enrollment/domain"
)

// LoopbackRemoteStore adapts an in-memory cached store to the remote store
// contract. It stands in for the backend API in single-node deployments and
// in tests.
type LoopbackRemoteStore struct {
	store *CachedStore
}

// NewLoopbackRemoteStore creates a loopback store over a fresh cache.
func NewLoopbackRemoteStore() *LoopbackRemoteStore {
	return &LoopbackRemoteStore{store: NewCachedStore()}
}

// Save stores the record.
func (l *LoopbackRemoteStore) Save(ctx context.Context, enrollment *enrollmentDomain.Enrollment) error {
	return l.store.Save(ctx, enrollment)
}

// Load retrieves the record for a user.
func (l *LoopbackRemoteStore) Load(ctx context.Context, userID string) (*enrollmentDomain.Enrollment, error) {
	return l.store.Get(ctx, userID)
}

// Delete removes the record for a user.
func (l *LoopbackRemoteStore) Delete(ctx context.Context, userID string) error {
	return l.store.Delete(ctx, userID)
}
