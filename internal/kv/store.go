// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

// Package kv provides the BadgerDB-backed live-state store. It holds the
// ephemeral side of the system: game-server heartbeats, per-type intake
// counters, the recent-events ring and dashboard query caches. Everything
// in this store is reconstructible from the relational store or from the
// live event flow, so TTL expiry is used aggressively.
package kv

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/playgrid/playgrid/internal/config"
	"github.com/playgrid/playgrid/internal/logging"
)

// ErrKeyNotFound is returned when a key does not exist or has expired.
var ErrKeyNotFound = errors.New("kv: key not found")

// Store wraps a BadgerDB instance with the access patterns the rest of
// the system needs. All methods are safe for concurrent use.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the BadgerDB at the configured path.
func Open(cfg config.KVConfig) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path)
	opts.Logger = nil // Suppress BadgerDB logs
	if cfg.InMemory {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Msg("KV store opened")

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value for key, or ErrKeyNotFound.
func (s *Store) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrKeyNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores a value without expiry.
func (s *Store) Set(key string, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// SetWithTTL stores a value that expires after ttl.
func (s *Store) SetWithTTL(key string, value []byte, ttl time.Duration) error {
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Exists reports whether key is present and unexpired.
func (s *Store) Exists(key string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", key, err)
	}
	return true, nil
}

// GetJSON unmarshals the value for key into v.
func (s *Store) GetJSON(key string, v interface{}) error {
	data, err := s.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}

// SetJSON marshals v and stores it under key with the given ttl.
// A ttl of zero stores without expiry.
func (s *Store) SetJSON(key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if ttl > 0 {
		return s.SetWithTTL(key, data, ttl)
	}
	return s.Set(key, data)
}

// IncrementWithTTL atomically increments the counter at key and refreshes
// its expiry, returning the new value. A missing or expired counter starts
// from zero.
func (s *Store) IncrementWithTTL(key string, ttl time.Duration) (int64, error) {
	var next int64
	err := s.db.Update(func(txn *badger.Txn) error {
		var current int64
		item, err := txn.Get([]byte(key))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			current = 0
		case err != nil:
			return fmt.Errorf("get counter %s: %w", key, err)
		default:
			if err := item.Value(func(val []byte) error {
				if len(val) != 8 {
					return fmt.Errorf("counter %s has invalid length %d", key, len(val))
				}
				current = int64(binary.BigEndian.Uint64(val))
				return nil
			}); err != nil {
				return err
			}
		}

		next = current + 1
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(next))
		entry := badger.NewEntry([]byte(key), buf).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// GetCounter returns the current counter value, or zero when it does not
// exist.
func (s *Store) GetCounter(key string) (int64, error) {
	data, err := s.Get(key)
	if errors.Is(err, ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("counter %s has invalid length %d", key, len(data))
	}
	return int64(binary.BigEndian.Uint64(data)), nil
}

// Counters returns every counter under prefix as a map keyed by the
// remainder of the key after the prefix.
func (s *Store) Counters(prefix string) (map[string]int64, error) {
	out := make(map[string]int64)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			name := strings.TrimPrefix(string(item.Key()), prefix)
			if err := item.Value(func(val []byte) error {
				if len(val) != 8 {
					return fmt.Errorf("counter %s has invalid length %d", item.Key(), len(val))
				}
				out[name] = int64(binary.BigEndian.Uint64(val))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PushCapped prepends value to the JSON list at key, trimming the list to
// at most cap entries. Newest entries come first.
func (s *Store) PushCapped(key string, value interface{}, cap int) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal ring entry: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		var entries []json.RawMessage
		item, err := txn.Get([]byte(key))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			// empty ring
		case err != nil:
			return fmt.Errorf("get ring %s: %w", key, err)
		default:
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entries)
			}); err != nil {
				return fmt.Errorf("unmarshal ring %s: %w", key, err)
			}
		}

		entries = append([]json.RawMessage{data}, entries...)
		if len(entries) > cap {
			entries = entries[:cap]
		}

		buf, err := json.Marshal(entries)
		if err != nil {
			return fmt.Errorf("marshal ring %s: %w", key, err)
		}
		return txn.Set([]byte(key), buf)
	})
}

// List returns up to limit entries from the JSON list at key, newest
// first. A limit of zero or less returns the whole list.
func (s *Store) List(key string, limit int) ([]json.RawMessage, error) {
	var entries []json.RawMessage
	err := s.GetJSON(key, &entries)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// RunGC runs BadgerDB value-log garbage collection until no more space
// can be reclaimed.
func (s *Store) RunGC() error {
	for {
		err := s.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run gc: %w", err)
		}
	}
}
