package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps documents in a map. It backs tests and the "memory"
// backend.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]string
	quota *quota
}

// NewMemoryStore creates an empty store. quotaBytes <= 0 disables the quota.
func NewMemoryStore(quotaBytes int64) *MemoryStore {
	return &MemoryStore{
		items: make(map[string]string),
		quota: newQuota(quotaBytes),
	}
}

func (s *MemoryStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *MemoryStore) SetItem(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	size := int64(len(key) + len(value))
	if !s.quota.allows(key, size) {
		return ErrQuotaExceeded
	}
	s.items[key] = value
	s.quota.set(key, size)
	return nil
}

func (s *MemoryStore) RemoveItem(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	s.quota.remove(key)
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]string)
	s.quota.reset()
	return nil
}
