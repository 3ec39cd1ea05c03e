package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"depmap/internal/logging"
)

// Cache categories. Listing and content categories are typically backed by
// the persisted store; the analysis-session categories stay in process.
const (
	CategoryRepoListing     = "repo-listing"
	CategoryDirListing      = "dir-listing"
	CategoryFileContent     = "file-content"
	CategoryAnalysisContent = "analysis-content"
)

// ManagerStats aggregates per-category stats with combined totals.
type ManagerStats struct {
	PerCategory     map[string]Stats `json:"perCategory"`
	CombinedTotal   int              `json:"combinedTotal"`
	CombinedActive  int              `json:"combinedActive"`
	CombinedExpired int              `json:"combinedExpired"`
}

// Manager composes Store instances into named categories and is the single
// component callers fetch through. Each category owns its entries; keys do
// not collide across categories even when equal.
type Manager struct {
	mu     sync.RWMutex
	stores map[string]Store
	logger *logging.Logger
}

// NewManager creates a Manager with no registered categories.
func NewManager(logger *logging.Logger) *Manager {
	return &Manager{
		stores: make(map[string]Store),
		logger: logger,
	}
}

// Register binds a category name to a store. Registering an existing
// category replaces its store.
func (m *Manager) Register(category string, store Store) {
	m.mu.Lock()
	m.stores[category] = store
	m.mu.Unlock()
}

func (m *Manager) store(category string) (Store, error) {
	m.mu.RLock()
	s, ok := m.stores[category]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown cache category %q", category)
	}
	return s, nil
}

// GetOrFetch returns the cached value for key in category, or runs fetch,
// stores its result with ttl, and returns it. This is a plain
// check-then-fetch-then-store sequence, not single-flight: two concurrent
// callers on a cold key both fetch and both write, and the last write wins.
// That race is accepted because the same key yields the same upstream
// content within the TTL window.
func (m *Manager) GetOrFetch(ctx context.Context, category, key string, ttl time.Duration, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	s, err := m.store(category)
	if err != nil {
		return nil, err
	}

	if value, ok, err := s.Get(key); err != nil {
		// A broken cache read degrades to a fetch, not a failure
		m.logger.Warn("Cache read failed, fetching", map[string]interface{}{
			"category": category,
			"key":      key,
			"error":    err.Error(),
		})
	} else if ok {
		return value, nil
	}

	value, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.Set(key, value, ttl); err != nil {
		m.logger.Warn("Cache write failed", map[string]interface{}{
			"category": category,
			"key":      key,
			"error":    err.Error(),
		})
	}
	return value, nil
}

// Invalidate clears every entry in one category.
func (m *Manager) Invalidate(category string) error {
	s, err := m.store(category)
	if err != nil {
		return err
	}
	if err := s.Clear(); err != nil {
		return fmt.Errorf("invalidate %s: %w", category, err)
	}
	m.logger.Info("Cache category invalidated", map[string]interface{}{
		"category": category,
	})
	return nil
}

// ClearAll clears every registered category.
func (m *Manager) ClearAll() error {
	for _, category := range m.categories() {
		if err := m.Invalidate(category); err != nil {
			return err
		}
	}
	return nil
}

// Cleanup sweeps expired entries in every category and returns the total
// number removed.
func (m *Manager) Cleanup() (int, error) {
	removed := 0
	for _, category := range m.categories() {
		s, err := m.store(category)
		if err != nil {
			return removed, err
		}
		n, err := s.Cleanup()
		if err != nil {
			return removed, fmt.Errorf("cleanup %s: %w", category, err)
		}
		removed += n
	}
	return removed, nil
}

// Stats reports per-category and combined counts. The pass is read-only;
// expired entries stay in place until a Get or Cleanup touches them.
func (m *Manager) Stats() (ManagerStats, error) {
	out := ManagerStats{PerCategory: make(map[string]Stats)}
	for _, category := range m.categories() {
		s, err := m.store(category)
		if err != nil {
			return out, err
		}
		stats, err := s.Stats()
		if err != nil {
			return out, fmt.Errorf("stats %s: %w", category, err)
		}
		out.PerCategory[category] = stats
		out.CombinedTotal += stats.Total
		out.CombinedActive += stats.Active
		out.CombinedExpired += stats.Expired
	}
	return out, nil
}

func (m *Manager) categories() []string {
	m.mu.RLock()
	names := make([]string, 0, len(m.stores))
	for name := range m.stores {
		names = append(names, name)
	}
	m.mu.RUnlock()
	sort.Strings(names)
	return names
}

// GetOrFetchJSON is GetOrFetch for struct values, handling the JSON
// round-trip through the store.
func GetOrFetchJSON[T any](ctx context.Context, m *Manager, category, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	var zero T

	raw, err := m.GetOrFetch(ctx, category, key, ttl, func(ctx context.Context) ([]byte, error) {
		value, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(value)
	})
	if err != nil {
		return zero, err
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("decode cached %s value: %w", category, err)
	}
	return out, nil
}
