// Package cache provides the TTL-bound ranking cache backed by Badger.
//
// Each key holds one fully materialized ranking set encoded as a single
// value, sorted by descending score at write time. Replacing a set is
// therefore a single key write: readers observe either the previous or
// the next generation, never a mix. The cache is populated only by the
// recompute job (plus the top-creators read-through exception in the
// ranking service); readers that miss fall back to the relational store
// without writing here.
package cache

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/clipclash/clipclash-server/internal/domain"
)

// ErrNotFound is returned when a key or member is absent from the cache.
// Callers treat it the same as a miss, never as a failure.
var ErrNotFound = errors.New("cache: not found")

// RankedEntry is a cache entry paired with its 1-based descending rank.
type RankedEntry struct {
	domain.RankingEntry
	Rank int
}

// Cache wraps a Badger database holding ranking sets.
type Cache struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open creates a cache at the given path.
func Open(path string, logger *slog.Logger) (*Cache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable Badger's internal logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open ranking cache: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Cache{db: db, logger: logger}, nil
}

// OpenInMemory creates a cache that keeps everything in memory.
// Used by tests and single-process development setups.
func OpenInMemory(logger *slog.Logger) (*Cache, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory ranking cache: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Cache{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// ReplaceAll atomically replaces the ranking set at key with entries,
// sorted by descending score (ties keep input order), expiring after
// ttl. An empty entries slice is a no-op: an empty recompute result
// must never wipe a previously good set.
func (c *Cache) ReplaceAll(key Key, entries []domain.RankingEntry, ttl time.Duration) error {
	if len(entries) == 0 {
		c.logger.Warn("refusing to replace ranking set with empty result", "key", key.String())
		return nil
	}

	sorted := make([]domain.RankingEntry, len(entries))
	copy(sorted, entries)
	slices.SortStableFunc(sorted, func(a, b domain.RankingEntry) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	data, err := json.Marshal(sorted)
	if err != nil {
		return fmt.Errorf("encode ranking set: %w", err)
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key.String()), data)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("replace ranking set %s: %w", key, err)
	}
	return nil
}

// Range returns the entries for the inclusive index range [start, stop]
// in descending-score order, each with its 1-based rank. A negative
// stop counts from the end (-1 is the last entry). Absent keys and
// out-of-bounds ranges return an empty result.
func (c *Cache) Range(key Key, start, stop int) ([]RankedEntry, error) {
	entries, err := c.load(key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	n := len(entries)
	if stop < 0 {
		stop = n + stop
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start >= n || start > stop {
		return nil, nil
	}

	result := make([]RankedEntry, 0, stop-start+1)
	for i := start; i <= stop; i++ {
		result = append(result, RankedEntry{RankingEntry: entries[i], Rank: i + 1})
	}
	return result, nil
}

// Rank returns the 1-based descending rank of member at key, or
// ErrNotFound if the key or member is absent.
func (c *Cache) Rank(key Key, member string) (int, error) {
	entries, err := c.load(key)
	if err != nil {
		return 0, err
	}
	for i, e := range entries {
		if e.Member == member {
			return i + 1, nil
		}
	}
	return 0, ErrNotFound
}

// Score returns the score of member at key, or ErrNotFound if the key
// or member is absent.
func (c *Cache) Score(key Key, member string) (float64, error) {
	entries, err := c.load(key)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if e.Member == member {
			return e.Score, nil
		}
	}
	return 0, ErrNotFound
}

// Count returns the cardinality of the set at key, 0 if absent.
func (c *Cache) Count(key Key) (int, error) {
	entries, err := c.load(key)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Exists reports whether a (non-expired) set is present at key.
func (c *Cache) Exists(key Key) (bool, error) {
	err := c.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key.String()))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check ranking set %s: %w", key, err)
	}
	return true, nil
}

// Invalidate removes the set at key. Removing an absent key is not an
// error.
func (c *Cache) Invalidate(key Key) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key.String()))
	})
	if err != nil {
		return fmt.Errorf("invalidate ranking set %s: %w", key, err)
	}
	return nil
}

// load reads and decodes the full set at key.
func (c *Cache) load(key Key) ([]domain.RankingEntry, error) {
	var entries []domain.RankingEntry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key.String()))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entries)
		})
	})
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load ranking set %s: %w", key, err)
	}
	return entries, nil
}
