// Copyright 2025, Daniel Nylander and the ddtp-translate contributors
// SPDX-License-Identifier: GPL-3.0-only

// Package status tracks where submitted translations stand on the server
// side, folded out of the language overview page.
package status

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yeager/ddtp-translate/core/ddtss"
)

// RemoteStatus is a package's server-side position in the review pipeline.
// Higher values are further along; when a package appears in several
// overview sections the furthest one wins.
type RemoteStatus int

const (
	// None means the server does not list the package at all.
	None RemoteStatus = iota

	// Pending means the package awaits translation or sits in review
	// without activity yet.
	Pending

	// ReviewedWithComment means a reviewer left a change request.
	ReviewedWithComment

	// ReviewedOk means the package passed review, or our own review of it
	// is on record.
	ReviewedOk
)

func (s RemoteStatus) String() string {
	switch s {
	case Pending:
		return "pending"
	case ReviewedWithComment:
		return "reviewed with comments"
	case ReviewedOk:
		return "reviewed"
	default:
		return "not listed"
	}
}

// Aggregator caches the server-side view of the language's packages. It
// keeps serving the last good snapshot when a refresh fails.
type Aggregator struct {
	client *ddtss.Client

	mu       sync.RWMutex
	statuses map[string]RemoteStatus
	stats    ddtss.Stats
}

func NewAggregator(client *ddtss.Client) *Aggregator {
	return &Aggregator{
		client:   client,
		statuses: map[string]RemoteStatus{},
	}
}

// Refresh fetches the overview listings and counters and rebuilds the
// snapshot. On failure the previous snapshot stays in place.
func (a *Aggregator) Refresh(ctx context.Context) error {
	var (
		listings ddtss.Listings
		stats    ddtss.Stats
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		listings, err = a.client.Listings(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = a.client.Stats(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}

	a.mu.Lock()
	a.statuses = fold(listings)
	a.stats = stats
	a.mu.Unlock()

	return nil
}

// StatusOf returns the cached status of a package.
func (a *Aggregator) StatusOf(pkg string) RemoteStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.statuses[pkg]
}

// All returns a copy of the cached status map.
func (a *Aggregator) All() map[string]RemoteStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(map[string]RemoteStatus, len(a.statuses))
	for pkg, st := range a.statuses {
		out[pkg] = st
	}

	return out
}

// Stats returns the cached overview counters.
func (a *Aggregator) Stats() ddtss.Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.stats
}

// fold collapses the overview sections into one status per package, keeping
// the furthest-along status when sections overlap.
func fold(listings ddtss.Listings) map[string]RemoteStatus {
	statuses := map[string]RemoteStatus{}

	raise := func(pkg string, st RemoteStatus) {
		if pkg == "" {
			return
		}
		if st > statuses[pkg] {
			statuses[pkg] = st
		}
	}

	for _, pkg := range listings.PendingTranslation {
		raise(pkg, Pending)
	}

	for _, entry := range listings.PendingReview {
		switch {
		case entry.ReviewedByYou:
			raise(entry.Package, ReviewedOk)
		case entry.Note != "":
			raise(entry.Package, ReviewedWithComment)
		default:
			raise(entry.Package, Pending)
		}
	}

	for _, pkg := range listings.RecentlyReviewed {
		raise(pkg, ReviewedOk)
	}

	return statuses
}
