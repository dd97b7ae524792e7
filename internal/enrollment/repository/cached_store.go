package repository

import (
	"context"
	"sort"
	"sync"

	enrollmentDomain "github.com/allisson/factorauth/internal/enrollment/domain"
	apperrors "github.com/allisson/factorauth/internal/errors"
)

// CachedStore is an in-memory enrollment store. It serves the executor's
// cache path under cache-first strategies and stands in for a database in
// tests. Records are copied on the way in and out so callers cannot mutate
// the cached state.
type CachedStore struct {
	mu      sync.RWMutex
	records map[string]enrollmentDomain.Enrollment
}

// NewCachedStore creates an empty in-memory store.
func NewCachedStore() *CachedStore {
	return &CachedStore{records: make(map[string]enrollmentDomain.Enrollment)}
}

// Save inserts or replaces the record for its user.
func (c *CachedStore) Save(_ context.Context, enrollment *enrollmentDomain.Enrollment) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[enrollment.UserID] = copyEnrollment(enrollment)
	return nil
}

// Get retrieves the record for a user.
func (c *CachedStore) Get(_ context.Context, userID string) (*enrollmentDomain.Enrollment, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	record, ok := c.records[userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	out := copyEnrollment(&record)
	return &out, nil
}

// Delete removes the record for a user.
func (c *CachedStore) Delete(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.records[userID]; !ok {
		return apperrors.ErrNotFound
	}
	delete(c.records, userID)
	return nil
}

// List retrieves records ordered by user ID with pagination.
func (c *CachedStore) List(_ context.Context, offset, limit int) ([]*enrollmentDomain.Enrollment, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	userIDs := make([]string, 0, len(c.records))
	for userID := range c.records {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)

	if offset >= len(userIDs) {
		return nil, nil
	}
	end := offset + limit
	if end > len(userIDs) {
		end = len(userIDs)
	}

	out := make([]*enrollmentDomain.Enrollment, 0, end-offset)
	for _, userID := range userIDs[offset:end] {
		record := c.records[userID]
		copied := copyEnrollment(&record)
		out = append(out, &copied)
	}
	return out, nil
}

// Len reports how many records the store holds.
func (c *CachedStore) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

func copyEnrollment(record *enrollmentDomain.Enrollment) enrollmentDomain.Enrollment {
	out := *record
	out.WrappedKey.Ciphertext = append([]byte(nil), record.WrappedKey.Ciphertext...)
	out.WrappedKey.Nonce = append([]byte(nil), record.WrappedKey.Nonce...)
	return out
}
