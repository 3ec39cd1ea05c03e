package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"depmap/internal/cache"
)

// Store is a persisted cache.Store bound to one category. Value blobs are
// zstd-compressed on write; raw file content compresses well and the
// database stays small even with large repositories cached.
type Store struct {
	db       *DB
	category string
	now      func() time.Time
	enc      *zstd.Encoder
	dec      *zstd.Decoder
}

// NewStore creates a persisted store for category.
func NewStore(db *DB, category string) (*Store, error) {
	return NewStoreWithClock(db, category, time.Now)
}

// NewStoreWithClock creates a store with an injected clock for tests.
func NewStoreWithClock(db *DB, category string, now func() time.Time) (*Store, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Store{
		db:       db,
		category: category,
		now:      now,
		enc:      enc,
		dec:      dec,
	}, nil
}

// Set stores value under key, replacing any existing entry.
func (s *Store) Set(key string, value []byte, ttl time.Duration) error {
	now := s.now()
	compressed := s.enc.EncodeAll(value, nil)

	_, err := s.db.conn.Exec(`
		INSERT OR REPLACE INTO cache_entries (category, key, value, stored_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`, s.category, key, compressed, now.UnixNano(), now.Add(ttl).UnixNano())
	if err != nil {
		return fmt.Errorf("set %s cache entry: %w", s.category, err)
	}
	return nil
}

// Get returns the value for key. Expired entries behave as absent and are
// deleted as a side effect.
func (s *Store) Get(key string) ([]byte, bool, error) {
	var compressed []byte
	var expiresAt int64

	err := s.db.conn.QueryRow(`
		SELECT value, expires_at FROM cache_entries
		WHERE category = ? AND key = ?
	`, s.category, key).Scan(&compressed, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s cache lookup: %w", s.category, err)
	}

	if s.now().UnixNano() > expiresAt {
		_, _ = s.db.conn.Exec(
			"DELETE FROM cache_entries WHERE category = ? AND key = ?",
			s.category, key)
		return nil, false, nil
	}

	value, err := s.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, false, fmt.Errorf("decompress %s cache entry: %w", s.category, err)
	}
	return value, true, nil
}

// Delete removes the entry for key if present.
func (s *Store) Delete(key string) error {
	_, err := s.db.conn.Exec(
		"DELETE FROM cache_entries WHERE category = ? AND key = ?",
		s.category, key)
	if err != nil {
		return fmt.Errorf("delete %s cache entry: %w", s.category, err)
	}
	return nil
}

// Cleanup removes all expired entries in this category.
func (s *Store) Cleanup() (int, error) {
	res, err := s.db.conn.Exec(
		"DELETE FROM cache_entries WHERE category = ? AND expires_at < ?",
		s.category, s.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("cleanup %s cache: %w", s.category, err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cleanup %s cache: %w", s.category, err)
	}
	return int(removed), nil
}

// Clear removes all entries in this category.
func (s *Store) Clear() error {
	_, err := s.db.conn.Exec(
		"DELETE FROM cache_entries WHERE category = ?", s.category)
	if err != nil {
		return fmt.Errorf("clear %s cache: %w", s.category, err)
	}
	return nil
}

// Stats counts entries without removing anything.
func (s *Store) Stats() (cache.Stats, error) {
	var stats cache.Stats
	err := s.db.conn.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(expires_at < ?), 0)
		FROM cache_entries WHERE category = ?
	`, s.now().UnixNano(), s.category).Scan(&stats.Total, &stats.Expired)
	if err != nil {
		return stats, fmt.Errorf("%s cache stats: %w", s.category, err)
	}
	stats.Active = stats.Total - stats.Expired
	return stats, nil
}
