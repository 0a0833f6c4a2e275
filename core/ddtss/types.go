// Copyright 2025, Daniel Nylander and the ddtp-translate contributors
// SPDX-License-Identifier: GPL-3.0-only

package ddtss

// Credentials authenticate against the DDTSS. They are supplied by the
// caller per login and never persisted here.
type Credentials struct {
	Alias    string
	Password string
}

// Description is a package description as served by a translate or review
// page. Immutable once fetched; a changed content hash on the server yields
// a new instance through a re-fetch.
type Description struct {
	Package string

	// ContentHash fingerprints the untranslated text. The protocol uses it
	// as an implicit optimistic-concurrency token. Empty when the page does
	// not expose it.
	ContentHash string

	// ShortOrig and LongOrig are the untranslated texts.
	ShortOrig string
	LongOrig  string

	// ShortTrans and LongTrans hold the current translation draft on the
	// server, when one exists.
	ShortTrans string
	LongTrans  string
}

// TranslationDraft is a translation ready for submission.
type TranslationDraft struct {
	Package     string
	ContentHash string
	Short       string
	Long        string

	// Comment is an optional note to reviewers.
	Comment string
}

// ReviewRecord is a translation sitting in the review queue, as presented by
// a forreview page.
type ReviewRecord struct {
	Description

	// Owner is the submitter currently responsible for the translation.
	Owner string

	// Log is the server-side review history.
	Log string

	// Comment is the freeform reviewer comment currently attached.
	Comment string
}

// ReviewAction selects what a review submission does.
type ReviewAction int

const (
	// ReviewAccept accepts the translation as is.
	ReviewAccept ReviewAction = iota

	// ReviewAcceptWithChanges accepts while replacing the texts.
	ReviewAcceptWithChanges

	// ReviewCommentOnly updates the comment without reviewing.
	ReviewCommentOnly
)

// ReviewListing is one entry of the pending-review section of the language
// overview page.
type ReviewListing struct {
	Package   string
	Timestamp string
	Note      string

	// ReviewedByYou marks entries listed under "Reviewed by you".
	ReviewedByYou bool
}

// Listings aggregates the overview page sections used for status tracking.
type Listings struct {
	PendingTranslation []string
	PendingReview      []ReviewListing
	RecentlyReviewed   []string
}

// Stats are the three counters of the language overview page.
type Stats struct {
	PendingTranslation int
	PendingReview      int
	Sent               int
}
