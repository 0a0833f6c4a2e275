// Copyright 2025, Daniel Nylander and the ddtp-translate contributors
// SPDX-License-Identifier: GPL-3.0-only

package queue

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketItems = []byte("items")

// Store persists queue items in a BoltDB file. Items are keyed by a
// monotonically increasing sequence number so queue order survives a
// restart.
type Store struct {
	db *bolt.DB
}

// OpenStore opens (or creates) the queue database at path.
func OpenStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open queue db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketItems)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the persisted queue with items, in order, in one
// transaction. Either the whole new state lands or the old one stays.
func (s *Store) Save(items []Item) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketItems); err != nil {
			return err
		}

		b, err := tx.CreateBucket(bucketItems)
		if err != nil {
			return err
		}

		for n, item := range items {
			data, err := json.Marshal(item)
			if err != nil {
				return fmt.Errorf("failed to encode item %s: %w", item.Package, err)
			}

			var key [8]byte
			binary.BigEndian.PutUint64(key[:], uint64(n))

			if err := b.Put(key[:], data); err != nil {
				return err
			}
		}

		return nil
	})
}

// Load reads the persisted queue in order. An item persisted mid-submission
// comes back as StatusError: the process died before the outcome was known,
// so it must not be silently retried.
func (s *Store) Load() ([]Item, error) {
	var items []Item

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketItems)
		if b == nil {
			return nil
		}

		return b.ForEach(func(_, v []byte) error {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("failed to decode queue item: %w", err)
			}

			if item.Status == StatusSending {
				item.Status = StatusError
				item.ErrorMsg = "interrupted while sending; outcome unknown"
			}

			items = append(items, item)

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}
