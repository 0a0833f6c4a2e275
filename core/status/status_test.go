// Copyright 2025, Daniel Nylander and the ddtp-translate contributors
// SPDX-License-Identifier: GPL-3.0-only

package status

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yeager/ddtp-translate/core/ddtss"
	"github.com/yeager/ddtp-translate/core/session"
)

const testOverviewBody = `<html><body>
<h2>Pending translation (7)</h2>
<ol>
<li><a href="translate/0ad">0ad</a></li>
<li><a href="translate/vim">vim</a></li>
</ol>
<h2>Pending review (3)</h2>
<ol>
<li><a href="forreview/bash?100">bash</a> (needs initial review)</li>
<li><a href="forreview/curl?101">curl</a></li>
<li><a href="forreview/vim?102">vim</a> (two lines rewrapped)</li>
</ol>
<h2>Reviewed by you (1)</h2>
<ol>
<li><a href="forreview/wget?103">wget</a></li>
</ol>
<h2>Recently reviewed (1)</h2>
<ol>
<li><a href="translate/mutt">mutt</a></li>
</ol>
<p>Sent: 42</p>
</body></html>`

func newTestAggregator(t *testing.T, handler http.Handler) *Aggregator {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := ddtss.NewClient(ddtss.Config{
		BaseURL:  srv.URL,
		Language: "sv",
		Store:    session.NewStore(filepath.Join(t.TempDir(), "session.json")),
	})

	return NewAggregator(client)
}

func TestAggregatorRefresh(t *testing.T) {
	t.Parallel()

	agg := newTestAggregator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testOverviewBody)
	}))

	assert.NoError(t, agg.Refresh(t.Context()))

	assert.Equal(t, Pending, agg.StatusOf("0ad"))
	assert.Equal(t, ReviewedWithComment, agg.StatusOf("bash"))
	assert.Equal(t, Pending, agg.StatusOf("curl"))
	assert.Equal(t, ReviewedOk, agg.StatusOf("wget"))
	assert.Equal(t, ReviewedOk, agg.StatusOf("mutt"))
	assert.Equal(t, None, agg.StatusOf("unknown"))

	// vim is both pending translation and commented on in review; the
	// further-along status wins.
	assert.Equal(t, ReviewedWithComment, agg.StatusOf("vim"))

	assert.Equal(t, ddtss.Stats{PendingTranslation: 7, PendingReview: 3, Sent: 42}, agg.Stats())
}

// A failed refresh must not wipe the previous snapshot.
func TestAggregatorKeepsStaleOnFailure(t *testing.T) {
	t.Parallel()

	var broken atomic.Bool

	agg := newTestAggregator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if broken.Load() {
			fmt.Fprint(w, "<html><body>You must be logged in for this to work</body></html>")
			return
		}

		fmt.Fprint(w, testOverviewBody)
	}))

	assert.NoError(t, agg.Refresh(t.Context()))
	assert.Equal(t, ReviewedOk, agg.StatusOf("wget"))

	broken.Store(true)

	assert.Error(t, agg.Refresh(t.Context()))
	assert.Equal(t, ReviewedOk, agg.StatusOf("wget"), "stale snapshot must survive a failed refresh")
	assert.Equal(t, ddtss.Stats{PendingTranslation: 7, PendingReview: 3, Sent: 42}, agg.Stats())
}

func TestFoldPrecedence(t *testing.T) {
	t.Parallel()

	listings := ddtss.Listings{
		PendingTranslation: []string{"pkg"},
		PendingReview: []ddtss.ReviewListing{
			{Package: "pkg", Note: "comment"},
			{Package: "pkg", ReviewedByYou: true},
		},
		RecentlyReviewed: []string{"pkg"},
	}

	statuses := fold(listings)
	assert.Equal(t, ReviewedOk, statuses["pkg"])
}

func TestRemoteStatusOrdering(t *testing.T) {
	t.Parallel()

	assert.True(t, None < Pending)
	assert.True(t, Pending < ReviewedWithComment)
	assert.True(t, ReviewedWithComment < ReviewedOk)
}
