// Copyright 2025, Daniel Nylander and the ddtp-translate contributors
// SPDX-License-Identifier: GPL-3.0-only

/*
Package session owns the DDTSS authentication state.

The DDTSS issues a single session cookie named "id" on login, valid for about
70 days. This package keeps that cookie plus its expiry in memory and mirrors
it to a small JSON file so a restart does not force a re-login.
*/
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// CookieName is the DDTSS session cookie name.
const CookieName = "id"

// DefaultTTL is assumed when the server does not send an explicit expiry.
const DefaultTTL = 70 * 24 * time.Hour

const sessionFilePermissions = 0o600

// Session is an opaque authentication cookie and its expiry.
type Session struct {
	Cookie  string    `json:"cookie"`
	Expires time.Time `json:"expires"`
}

// Live reports whether the session can still authenticate requests at the
// given time.
func (s Session) Live(now time.Time) bool {
	return s.Cookie != "" && now.Before(s.Expires)
}

// Store holds the current session and its on-disk mirror.
//
// The file is written on every change; reads are served from memory only.
type Store struct {
	path string

	mu  sync.Mutex
	cur Session
}

// NewStore creates a store backed by the given file path. A missing or
// unreadable file simply yields an empty session; a stale session file is
// never an error.
func NewStore(path string) *Store {
	st := &Store{path: path}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from our own data directory
	if err != nil {
		return st
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return st
	}

	st.cur = s

	return st
}

// Current returns the in-memory session.
func (st *Store) Current() Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	return st.cur
}

// Save replaces the session and persists it immediately.
func (st *Store) Save(s Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.cur = s

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := os.WriteFile(st.path, data, sessionFilePermissions); err != nil {
		return fmt.Errorf("failed to persist session to %s: %w", st.path, err)
	}

	return nil
}

// Clear drops the session from memory and disk.
func (st *Store) Clear() error {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.cur = Session{}

	if err := os.Remove(st.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file %s: %w", st.path, err)
	}

	return nil
}
