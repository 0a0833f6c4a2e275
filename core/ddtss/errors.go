// Copyright 2025, Daniel Nylander and the ddtp-translate contributors
// SPDX-License-Identifier: GPL-3.0-only

package ddtss

import (
	"errors"
	"strings"
)

// Kind partitions DDTSS failures into the categories the batch layer and the
// user can act on.
type Kind int

const (
	// KindServer is a generic server-side failure, possibly transient.
	KindServer Kind = iota

	// KindAuth covers missing/bad credentials and inactive accounts.
	// Batch-fatal in practice until the user logs in again.
	KindAuth

	// KindLocked means another translator currently holds the package.
	KindLocked

	// KindNotFound means the package is unavailable, gone, or malformed on
	// the server.
	KindNotFound

	// KindValidation means the server rejected the submitted text, e.g.
	// unresolved <trans> placeholders or an over-length line. Requires a
	// user edit before retrying.
	KindValidation

	// KindTransport is a connection-level failure below the protocol.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindLocked:
		return "locked"
	case KindNotFound:
		return "not-found"
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// ProtocolError is a classified DDTSS failure.
type ProtocolError struct {
	// Kind is the error category.
	Kind Kind

	// Message is the human-readable text extracted from the server response,
	// or a description of the local failure.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error returns the message, annotated with the kind.
func (e *ProtocolError) Error() string {
	var b strings.Builder

	b.WriteString("ddtss ")
	b.WriteString(e.Kind.String())
	b.WriteString(" error")

	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// KindOf extracts the error kind from err. Unclassified errors report
// KindServer and false.
func KindOf(err error) (Kind, bool) {
	var perr *ProtocolError
	if errors.As(err, &perr) {
		return perr.Kind, true
	}

	return KindServer, false
}

// transportError wraps a connection-level failure.
func transportError(err error) *ProtocolError {
	return &ProtocolError{Kind: KindTransport, Message: "connection error", Err: err}
}
