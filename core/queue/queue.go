// Copyright 2025, Daniel Nylander and the ddtp-translate contributors
// SPDX-License-Identifier: GPL-3.0-only

// Package queue holds translations waiting to be submitted. Every mutation
// is persisted before it is reported back, so a crash never loses work.
package queue

import (
	"fmt"
	"sort"
	"sync"
)

// Status is the lifecycle state of a queued item.
type Status string

const (
	// StatusReady marks an item eligible for submission.
	StatusReady Status = "ready"

	// StatusSending marks the single item currently in flight. It is never
	// persisted across a restart: loading maps it to StatusError.
	StatusSending Status = "sending"

	// StatusSent marks an item the server accepted.
	StatusSent Status = "sent"

	// StatusError marks an item whose submission failed. It stays in the
	// queue until requeued or removed.
	StatusError Status = "error"
)

// Item is one queued translation.
type Item struct {
	Package     string `json:"package"`
	ContentHash string `json:"md5"`
	Short       string `json:"short"`
	Long        string `json:"long"`
	Comment     string `json:"comment,omitempty"`
	Status      Status `json:"status"`
	ErrorMsg    string `json:"error,omitempty"`
}

// Key identifies an item. Two descriptions of the same package with
// different content hashes are distinct items.
func (i Item) Key() string {
	return i.Package + "\x00" + i.ContentHash
}

// Queue is a durable, ordered collection of Items. All methods are safe for
// concurrent use.
type Queue struct {
	mu    sync.Mutex
	items []Item
	store *Store
}

// Load builds a Queue from the store's persisted contents.
func Load(store *Store) (*Queue, error) {
	items, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load queue: %w", err)
	}

	return &Queue{items: items, store: store}, nil
}

// Upsert adds an item or, when its key already exists, replaces its texts.
// A replaced item goes back to StatusReady with its error cleared, since its
// content changed. Reports whether the item was newly inserted.
func (q *Queue) Upsert(item Item) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	item.Status = StatusReady
	item.ErrorMsg = ""

	for n, cur := range q.items {
		if cur.Key() == item.Key() {
			q.items[n] = item
			return false, q.persist()
		}
	}

	q.items = append(q.items, item)

	return true, q.persist()
}

// Remove deletes the item with the given key. Removing an absent key is not
// an error.
func (q *Queue) Remove(pkg, contentHash string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	key := Item{Package: pkg, ContentHash: contentHash}.Key()
	for n, cur := range q.items {
		if cur.Key() == key {
			q.items = append(q.items[:n], q.items[n+1:]...)
			return q.persist()
		}
	}

	return nil
}

// Items returns a snapshot of the queue in order.
func (q *Queue) Items() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Item, len(q.items))
	copy(out, q.items)

	return out
}

// ByStatus returns a snapshot of the items in the given state, in queue
// order.
func (q *Queue) ByStatus(status Status) []Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []Item
	for _, cur := range q.items {
		if cur.Status == status {
			out = append(out, cur)
		}
	}

	return out
}

// SortByPackage reorders the queue alphabetically by package name. The sort
// is stable, so items sharing a package keep their relative order.
func (q *Queue) SortByPackage() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	sort.SliceStable(q.items, func(a, b int) bool {
		return q.items[a].Package < q.items[b].Package
	})

	return q.persist()
}

// ClearSent drops every item the server already accepted. Reports how many
// were removed.
func (q *Queue) ClearSent() (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.items[:0]
	removed := 0

	for _, cur := range q.items {
		if cur.Status == StatusSent {
			removed++
			continue
		}

		kept = append(kept, cur)
	}

	q.items = kept

	if removed == 0 {
		return 0, nil
	}

	return removed, q.persist()
}

// Requeue moves a failed item back to StatusReady. Items in any other state
// are left alone.
func (q *Queue) Requeue(pkg, contentHash string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	key := Item{Package: pkg, ContentHash: contentHash}.Key()
	for n, cur := range q.items {
		if cur.Key() != key || cur.Status != StatusError {
			continue
		}

		q.items[n].Status = StatusReady
		q.items[n].ErrorMsg = ""

		return q.persist()
	}

	return nil
}

// SetStatus transitions an item and persists immediately. errMsg is only
// stored for StatusError and cleared otherwise.
func (q *Queue) SetStatus(pkg, contentHash string, status Status, errMsg string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	key := Item{Package: pkg, ContentHash: contentHash}.Key()
	for n, cur := range q.items {
		if cur.Key() != key {
			continue
		}

		q.items[n].Status = status
		if status == StatusError {
			q.items[n].ErrorMsg = errMsg
		} else {
			q.items[n].ErrorMsg = ""
		}

		return q.persist()
	}

	return fmt.Errorf("no queued item for package %s", pkg)
}

// Len reports the number of items in the queue.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

// persist writes the full queue. Callers hold q.mu.
func (q *Queue) persist() error {
	if err := q.store.Save(q.items); err != nil {
		return fmt.Errorf("failed to persist queue: %w", err)
	}

	return nil
}
