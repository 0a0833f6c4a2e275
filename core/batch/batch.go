// Copyright 2025, Daniel Nylander and the ddtp-translate contributors
// SPDX-License-Identifier: GPL-3.0-only

// Package batch submits queued translations to the DDTSS one at a time.
//
// The server is a shared community resource with no bulk endpoint, so the
// submitter is deliberately sequential and paced. Cancellation is
// cooperative: it is honored between items, never by tearing down an
// in-flight request, so the queue state always matches what the server saw.
package batch

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/yeager/ddtp-translate/core/ddtss"
	"github.com/yeager/ddtp-translate/core/queue"
)

// EventType identifies a batch progress event.
type EventType int

const (
	// ItemStarted fires when an item's submission begins.
	ItemStarted EventType = iota

	// ItemSent fires when the server accepted an item.
	ItemSent

	// ItemFailed fires when an item's submission failed. The batch
	// continues with the next item.
	ItemFailed

	// Done is the final event on every run, carrying the Summary. The
	// channel is closed after it.
	Done
)

// Event is one progress report from a running batch.
type Event struct {
	Type        EventType
	Package     string
	ContentHash string

	// Index is 1-based; Total is the number of items in this run.
	Index int
	Total int

	// Err is set for ItemFailed.
	Err error

	// Summary is set for Done.
	Summary Summary
}

// Summary describes a finished batch run.
type Summary struct {
	Sent      int
	Failed    int
	Total     int
	Cancelled bool
}

// ErrAlreadyRunning is returned by Start while a previous run is active.
var ErrAlreadyRunning = errors.New("a batch submission is already running")

// DefaultPacing is the minimum delay between consecutive submissions.
const DefaultPacing = 2 * time.Second

// Submitter runs batch submissions over a queue. At most one run is active
// at a time.
type Submitter struct {
	client *ddtss.Client
	queue  *queue.Queue
	creds  ddtss.Credentials

	limiter *rate.Limiter
	running atomic.Bool
}

// NewSubmitter creates a Submitter. pacing is the minimum delay between
// submissions; zero means DefaultPacing.
func NewSubmitter(client *ddtss.Client, q *queue.Queue, creds ddtss.Credentials, pacing time.Duration) *Submitter {
	if pacing <= 0 {
		pacing = DefaultPacing
	}

	return &Submitter{
		client:  client,
		queue:   q,
		creds:   creds,
		limiter: rate.NewLimiter(rate.Every(pacing), 1),
	}
}

// Running reports whether a batch run is active.
func (s *Submitter) Running() bool {
	return s.running.Load()
}

// Start begins submitting every StatusReady item and returns a channel of
// progress events. The channel is closed after the Done event. Cancelling
// ctx stops the run at the next item boundary; the item in flight always
// completes.
func (s *Submitter) Start(ctx context.Context) (<-chan Event, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}

	items := s.queue.ByStatus(queue.StatusReady)
	events := make(chan Event, len(items)+1)

	go s.run(ctx, items, events)

	return events, nil
}

func (s *Submitter) run(ctx context.Context, items []queue.Item, events chan<- Event) {
	defer close(events)
	defer s.running.Store(false)

	summary := Summary{Total: len(items)}

	for n, item := range items {
		// Cancellation is only honored here, between items.
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}

		if err := s.limiter.Wait(ctx); err != nil {
			summary.Cancelled = true
			break
		}

		events <- Event{Type: ItemStarted, Package: item.Package, ContentHash: item.ContentHash, Index: n + 1, Total: len(items)}

		if err := s.sendOne(ctx, item); err != nil {
			summary.Failed++

			log.Warn().
				Err(err).
				Str("package", item.Package).
				Msg("Submission failed")

			events <- Event{Type: ItemFailed, Package: item.Package, ContentHash: item.ContentHash, Index: n + 1, Total: len(items), Err: err}

			continue
		}

		summary.Sent++

		log.Info().
			Str("package", item.Package).
			Msg("Submission accepted")

		events <- Event{Type: ItemSent, Package: item.Package, ContentHash: item.ContentHash, Index: n + 1, Total: len(items)}
	}

	events <- Event{Type: Done, Summary: summary}
}

// sendOne submits a single item and records its outcome in the queue. The
// queue write happens before the submission begins, so a crash mid-flight
// leaves the item marked as interrupted rather than silently retryable.
func (s *Submitter) sendOne(ctx context.Context, item queue.Item) error {
	if err := s.queue.SetStatus(item.Package, item.ContentHash, queue.StatusSending, ""); err != nil {
		return err
	}

	if err := s.ensureLoggedIn(ctx); err != nil {
		s.queue.SetStatus(item.Package, item.ContentHash, queue.StatusError, err.Error())
		return err
	}

	// Once the submission is underway its HTTP exchanges must not be torn
	// down by a batch cancel: the server may have accepted the item even if
	// we stopped listening. Timeouts still apply per request.
	err := s.client.SubmitTranslation(context.WithoutCancel(ctx), ddtss.TranslationDraft{
		Package:     item.Package,
		ContentHash: item.ContentHash,
		Short:       item.Short,
		Long:        item.Long,
		Comment:     item.Comment,
	})
	if err != nil {
		s.queue.SetStatus(item.Package, item.ContentHash, queue.StatusError, err.Error())
		return err
	}

	return s.queue.SetStatus(item.Package, item.ContentHash, queue.StatusSent, "")
}

func (s *Submitter) ensureLoggedIn(ctx context.Context) error {
	if s.client.IsLoggedIn() {
		return nil
	}

	return s.client.Login(context.WithoutCancel(ctx), s.creds)
}
