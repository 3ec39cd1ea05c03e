// Package cache provides the generic TTL key/value store and the category
// manager the rest of the engine fetches through.
package cache

import "time"

// Stats describes the contents of one store at a point in time.
// Expired is a subset of Total; Active = Total - Expired.
type Stats struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Expired int `json:"expired"`
}

// Store is the cache contract shared by the in-process and persisted
// implementations. Values are opaque byte slices (JSON-encoded by callers);
// TTL is per entry, not per store. There is no size-based eviction: entries
// leave only by expiry, Delete, Cleanup, or Clear.
type Store interface {
	// Set stores value under key, unconditionally replacing any existing
	// entry (last-write-wins).
	Set(key string, value []byte, ttl time.Duration) error

	// Get returns the value for key. An expired entry behaves as absent
	// and is evicted as a side effect.
	Get(key string) ([]byte, bool, error)

	// Delete removes the entry for key if present.
	Delete(key string) error

	// Cleanup removes every entry expired at call time and returns how
	// many were removed. Active entries are untouched.
	Cleanup() (int, error)

	// Clear removes all entries.
	Clear() error

	// Stats reports entry counts without mutating the store, so expired
	// volume can be observed before a Cleanup.
	Stats() (Stats, error)
}
