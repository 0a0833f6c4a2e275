// Copyright 2025, Daniel Nylander and the ddtp-translate contributors
// SPDX-License-Identifier: GPL-3.0-only

package ddtss

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const testFetchRedirectPage = `<html>
<head><meta http-equiv="refresh" content="0; url=https://ddtp.debian.org/ddtss/index.cgi/sv/translate/0ad"></head>
<body>Redirecting...</body>
</html>`

const testTranslatePage = `<html>
<body>
<h1>Translating 0ad</h1>
Description: Real-time strategy game of ancient warfare<br>
<div class="untranslated">0 A.D. is a free, open-source, historical
Real Time Strategy (RTS) game.</div>
<form method="post">
<input type="hidden" name="md5" value="d41d8cd98f00b204e9800998ecf8427e">
<input name="short" value="Realtidsstrategispel">
<textarea name="long">0 A.D. &#228;r ett fritt strategispel.</textarea>
<input type="submit" name="submit" value="Submit">
</form>
</body>
</html>`

const testReviewPage = `<html>
<body>
<h1>Review 0ad</h1>
<p>the owner is: <b>translator1</b></p>
Untranslated: <tt>Real-time strategy game of ancient warfare</tt>
<p>Untranslated long:</p>
Untranslated: <pre>0 A.D. is a free game.</pre>
<form method="post">
<input type="hidden" name="md5" value="d41d8cd98f00b204e9800998ecf8427e">
<input name="short" value="Realtidsstrategispel">
<textarea name="long">0 A.D. är ett fritt spel.</textarea>
<textarea name="comment">ser bra ut</textarea>
</form>
Log: <pre>2026-08-01 fetched by translator1</pre>
</body>
</html>`

const testOverviewPage = `<html>
<body>
<h1>DDTSS for sv</h1>
<h2>Pending translation (312)</h2>
<ol>
<li><a href="translate/0ad">0ad</a> 2026-08-20</li>
<li><a href="translate/zsh">zsh</a> 2026-08-21</li>
</ol>
<h2>Pending review (44)</h2>
<ol>
<li><a href="forreview/bash?1756000000">bash</a> (needs initial review)</li>
<li><a href="forreview/curl?1756000001">curl</a></li>
</ol>
<h2>Reviewed by you (1)</h2>
<ol>
<li><a href="forreview/wget?1756000002">wget</a></li>
</ol>
<h2>Recently translated (1)</h2>
<ol>
<li><a href="translate/vim">vim</a></li>
</ol>
<p>Sent: 1205</p>
</body>
</html>`

func TestRedirectTarget(t *testing.T) {
	t.Parallel()

	target, pkg, ok := redirectTarget([]byte(testFetchRedirectPage))
	if !ok {
		t.Fatal("redirectTarget found no target")
	}

	assert.Equal(t, "https://ddtp.debian.org/ddtss/index.cgi/sv/translate/0ad", target)
	assert.Equal(t, "0ad", pkg)
}

func TestRedirectTargetAbsent(t *testing.T) {
	t.Parallel()

	_, _, ok := redirectTarget([]byte(testTranslatePage))
	if ok {
		t.Error("redirectTarget found a target on a translate page")
	}
}

func TestParseTranslatePage(t *testing.T) {
	t.Parallel()

	desc := parseTranslatePage([]byte(testTranslatePage), "0ad")

	assert.Equal(t, "0ad", desc.Package)
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", desc.ContentHash)
	assert.Equal(t, "Real-time strategy game of ancient warfare", desc.ShortOrig)
	assert.Contains(t, desc.LongOrig, "historical")
	assert.Equal(t, "Realtidsstrategispel", desc.ShortTrans)
	assert.Equal(t, "0 A.D. är ett fritt strategispel.", desc.LongTrans)
}

// A page with none of the expected anchors still parses, yielding empty
// fields rather than an error.
func TestParseTranslatePageSparse(t *testing.T) {
	t.Parallel()

	desc := parseTranslatePage([]byte("<html><body><p>hello</p></body></html>"), "foo")

	assert.Equal(t, "foo", desc.Package)
	assert.Empty(t, desc.ContentHash)
	assert.Empty(t, desc.ShortOrig)
	assert.Empty(t, desc.ShortTrans)
}

func TestParseReviewPage(t *testing.T) {
	t.Parallel()

	rec := parseReviewPage([]byte(testReviewPage), "0ad")

	assert.Equal(t, "0ad", rec.Package)
	assert.Equal(t, "translator1", rec.Owner)
	assert.Equal(t, "Real-time strategy game of ancient warfare", rec.ShortOrig)
	assert.Equal(t, "0 A.D. is a free game.", rec.LongOrig)
	assert.Equal(t, "Realtidsstrategispel", rec.ShortTrans)
	assert.Equal(t, "0 A.D. är ett fritt spel.", rec.LongTrans)
	assert.Equal(t, "ser bra ut", rec.Comment)
	assert.Equal(t, "2026-08-01 fetched by translator1", rec.Log)
}

func TestParseListings(t *testing.T) {
	t.Parallel()

	listings := parseListings([]byte(testOverviewPage))

	assert.Equal(t, []string{"0ad", "zsh"}, listings.PendingTranslation)
	assert.Equal(t, []string{"vim"}, listings.RecentlyReviewed)

	if assert.Len(t, listings.PendingReview, 3) {
		assert.Equal(t, "bash", listings.PendingReview[0].Package)
		assert.Equal(t, "1756000000", listings.PendingReview[0].Timestamp)
		assert.Equal(t, "needs initial review", listings.PendingReview[0].Note)
		assert.False(t, listings.PendingReview[0].ReviewedByYou)

		assert.Equal(t, "curl", listings.PendingReview[1].Package)
		assert.Empty(t, listings.PendingReview[1].Note)

		assert.Equal(t, "wget", listings.PendingReview[2].Package)
		assert.True(t, listings.PendingReview[2].ReviewedByYou)
	}
}

func TestParseListingsEmptyPage(t *testing.T) {
	t.Parallel()

	listings := parseListings([]byte("<html><body><h1>DDTSS</h1></body></html>"))

	assert.Empty(t, listings.PendingTranslation)
	assert.Empty(t, listings.PendingReview)
	assert.Empty(t, listings.RecentlyReviewed)
}

func TestParseStats(t *testing.T) {
	t.Parallel()

	stats := parseStats([]byte(testOverviewPage))

	assert.Equal(t, Stats{PendingTranslation: 312, PendingReview: 44, Sent: 1205}, stats)
}

// A page without counters reads as all zeros, not as an error.
func TestParseStatsMissing(t *testing.T) {
	t.Parallel()

	stats := parseStats([]byte("<html><body><h1>DDTSS</h1></body></html>"))

	assert.Equal(t, Stats{}, stats)
}
