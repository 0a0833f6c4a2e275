// Copyright 2025, Daniel Nylander and the ddtp-translate contributors
// SPDX-License-Identifier: GPL-3.0-only

package queue

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func openTestStore(t *testing.T, dir string) *Store {
	t.Helper()

	store, err := OpenStore(filepath.Join(dir, "queue.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	t.Cleanup(func() { store.Close() })

	return store
}

func TestQueueUpsert(t *testing.T) {
	t.Parallel()

	store := openTestStore(t, t.TempDir())

	q, err := Load(store)
	assert.NoError(t, err)

	inserted, err := q.Upsert(Item{Package: "0ad", ContentHash: "h1", Short: "kort"})
	assert.NoError(t, err)
	assert.True(t, inserted)

	// Same key again replaces the texts instead of duplicating.
	inserted, err = q.Upsert(Item{Package: "0ad", ContentHash: "h1", Short: "kortare"})
	assert.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, "kortare", q.Items()[0].Short)

	// A different hash of the same package is a distinct item.
	inserted, err = q.Upsert(Item{Package: "0ad", ContentHash: "h2", Short: "annan"})
	assert.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, 2, q.Len())
}

// Updating a failed item resets it to ready, since its content changed.
func TestQueueUpsertResetsStatus(t *testing.T) {
	t.Parallel()

	store := openTestStore(t, t.TempDir())

	q, _ := Load(store)
	q.Upsert(Item{Package: "zsh", ContentHash: "h1", Short: "a"})
	q.SetStatus("zsh", "h1", StatusError, "boom")

	q.Upsert(Item{Package: "zsh", ContentHash: "h1", Short: "b"})

	item := q.Items()[0]
	assert.Equal(t, StatusReady, item.Status)
	assert.Empty(t, item.ErrorMsg)
}

func TestQueueOrderSurvivesReload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := openTestStore(t, dir)

	q, _ := Load(store)
	for _, pkg := range []string{"zsh", "0ad", "mutt"} {
		q.Upsert(Item{Package: pkg, ContentHash: "h", Short: "s"})
	}

	store.Close()

	store2 := openTestStore(t, dir)

	q2, err := Load(store2)
	assert.NoError(t, err)

	var pkgs []string
	for _, item := range q2.Items() {
		pkgs = append(pkgs, item.Package)
	}

	assert.Equal(t, []string{"zsh", "0ad", "mutt"}, pkgs)
}

// An item that was mid-flight when the process died must not come back as
// silently retryable.
func TestQueueSendingBecomesErrorOnReload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := openTestStore(t, dir)

	q, _ := Load(store)
	q.Upsert(Item{Package: "0ad", ContentHash: "h1", Short: "s"})
	q.SetStatus("0ad", "h1", StatusSending, "")

	store.Close()

	q2, err := Load(openTestStore(t, dir))
	assert.NoError(t, err)

	item := q2.Items()[0]
	assert.Equal(t, StatusError, item.Status)
	assert.NotEmpty(t, item.ErrorMsg)
}

func TestQueueRemove(t *testing.T) {
	t.Parallel()

	q, _ := Load(openTestStore(t, t.TempDir()))
	q.Upsert(Item{Package: "0ad", ContentHash: "h1", Short: "s"})

	assert.NoError(t, q.Remove("0ad", "h1"))
	assert.Equal(t, 0, q.Len())

	// Removing an absent key is a no-op.
	assert.NoError(t, q.Remove("0ad", "h1"))
}

func TestQueueClearSent(t *testing.T) {
	t.Parallel()

	q, _ := Load(openTestStore(t, t.TempDir()))
	q.Upsert(Item{Package: "a", ContentHash: "h", Short: "s"})
	q.Upsert(Item{Package: "b", ContentHash: "h", Short: "s"})
	q.Upsert(Item{Package: "c", ContentHash: "h", Short: "s"})
	q.SetStatus("a", "h", StatusSent, "")
	q.SetStatus("c", "h", StatusSent, "")

	removed, err := q.ClearSent()
	assert.NoError(t, err)
	assert.Equal(t, 2, removed)

	items := q.Items()
	if assert.Len(t, items, 1) {
		assert.Equal(t, "b", items[0].Package)
	}
}

func TestQueueRequeue(t *testing.T) {
	t.Parallel()

	q, _ := Load(openTestStore(t, t.TempDir()))
	q.Upsert(Item{Package: "a", ContentHash: "h", Short: "s"})
	q.Upsert(Item{Package: "b", ContentHash: "h", Short: "s"})
	q.SetStatus("a", "h", StatusError, "boom")
	q.SetStatus("b", "h", StatusSent, "")

	assert.NoError(t, q.Requeue("a", "h"))
	assert.Equal(t, StatusReady, q.Items()[0].Status)
	assert.Empty(t, q.Items()[0].ErrorMsg)

	// Requeue only applies to failed items.
	assert.NoError(t, q.Requeue("b", "h"))
	assert.Equal(t, StatusSent, q.Items()[1].Status)
}

func TestQueueByStatus(t *testing.T) {
	t.Parallel()

	q, _ := Load(openTestStore(t, t.TempDir()))
	q.Upsert(Item{Package: "a", ContentHash: "h", Short: "s"})
	q.Upsert(Item{Package: "b", ContentHash: "h", Short: "s"})
	q.SetStatus("a", "h", StatusSent, "")

	ready := q.ByStatus(StatusReady)
	if assert.Len(t, ready, 1) {
		assert.Equal(t, "b", ready[0].Package)
	}
}

func TestQueueSortByPackage(t *testing.T) {
	t.Parallel()

	q, _ := Load(openTestStore(t, t.TempDir()))
	for _, pkg := range []string{"zsh", "0ad", "mutt"} {
		q.Upsert(Item{Package: pkg, ContentHash: "h", Short: "s"})
	}

	assert.NoError(t, q.SortByPackage())

	var pkgs []string
	for _, item := range q.Items() {
		pkgs = append(pkgs, item.Package)
	}

	assert.Equal(t, []string{"0ad", "mutt", "zsh"}, pkgs)
}

func TestQueueSetStatusUnknownKey(t *testing.T) {
	t.Parallel()

	q, _ := Load(openTestStore(t, t.TempDir()))

	assert.Error(t, q.SetStatus("nope", "h", StatusSent, ""))
}
