package cache

import (
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	storedAt  time.Time
	expiresAt time.Time
}

// MemoryStore is a mutex-guarded in-process Store. Values are copied on
// write and on read so no caller can mutate a cached entry in place.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock creates a store with an injected clock so tests
// can simulate expiry without sleeping.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     now,
	}
}

// Set stores a copy of value under key, replacing any existing entry.
func (s *MemoryStore) Set(key string, value []byte, ttl time.Duration) error {
	cp := make([]byte, len(value))
	copy(cp, value)

	now := s.now()
	s.mu.Lock()
	s.entries[key] = memoryEntry{
		value:     cp,
		storedAt:  now,
		expiresAt: now.Add(ttl),
	}
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the value for key. Expired entries are absent and
// lazily evicted.
func (s *MemoryStore) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if s.now().After(e.expiresAt) {
		s.mu.Lock()
		// Re-check under the write lock; a fresh Set may have replaced it
		if cur, ok := s.entries[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}

	cp := make([]byte, len(e.value))
	copy(cp, e.value)
	return cp, true, nil
}

// Delete removes the entry for key if present.
func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Cleanup sweeps all expired entries and returns the number removed.
func (s *MemoryStore) Cleanup() (int, error) {
	now := s.now()
	removed := 0

	s.mu.Lock()
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	s.mu.Unlock()
	return removed, nil
}

// Clear removes all entries.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	s.entries = make(map[string]memoryEntry)
	s.mu.Unlock()
	return nil
}

// Stats counts total/active/expired entries without evicting anything.
func (s *MemoryStore) Stats() (Stats, error) {
	now := s.now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{Total: len(s.entries)}
	for _, e := range s.entries {
		if now.After(e.expiresAt) {
			stats.Expired++
		}
	}
	stats.Active = stats.Total - stats.Expired
	return stats, nil
}
