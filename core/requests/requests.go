// Copyright 2025, Daniel Nylander and the ddtp-translate contributors
// SPDX-License-Identifier: GPL-3.0-only

/*
Package requests performs outbound HTTP traffic against the DDTSS web
interface.

The DDTSS has no formal API; every endpoint is a server-rendered HTML form.
This package only moves bytes: form encoding, cookies, timeouts, and audit
logging. Interpreting response bodies is the caller's job.
*/
package requests

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yeager/ddtp-translate/core/audit"
	"github.com/yeager/ddtp-translate/core/idgen"
)

// UserAgent identifies this client to the DDTSS.
const UserAgent = "ddtp-translate/0.7.0 (+https://github.com/yeager/ddtp-translate)"

// Bounds for per-request timeouts. The DDTSS can be slow when a submission
// triggers server-side processing, so callers pick a timeout per operation
// cost; anything outside these bounds is clamped.
const (
	MinTimeout     = 15 * time.Second
	MaxTimeout     = 60 * time.Second
	DefaultTimeout = 30 * time.Second
)

// Options describes a single request to the DDTSS.
type Options struct {
	Method string
	URL    string

	// Form holds the request body fields for POST requests. Nil means no body.
	Form map[string]string

	// Multipart selects multipart/form-data encoding instead of
	// application/x-www-form-urlencoded. Several DDTSS endpoints only accept
	// multipart submissions.
	Multipart bool

	// Cookies are attached verbatim to the request.
	Cookies map[string]string

	// Timeout bounds the whole request. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Do sends a request and returns the raw *http.Response and the full
// response body as a byte slice. The Body field of the returned response is
// a NopCloser over these same bytes; callers should prefer the slice.
//
// Redirects are not followed and non-2xx statuses are not an error at this
// layer: DDTSS error pages are regular HTML documents that the caller
// classifies, and login responses carry Set-Cookie headers the caller must
// see before any redirect target. An error is returned only for
// connection-level failures, and no retrying happens here; retry policy
// belongs to the batch layer.
func Do(ctx context.Context, opts Options) (*http.Response, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, clampTimeout(opts.Timeout))
	defer cancel()

	req, err := newRequest(ctx, opts)
	if err != nil {
		return nil, nil, err
	}

	return sendRequest(ctx, req)
}

// newRequest constructs an *http.Request from Options.
func newRequest(ctx context.Context, opts Options) (*http.Request, error) {
	var (
		reqBody           io.Reader
		contentTypeHeader string
	)

	if opts.Method == http.MethodPost && opts.Form != nil {
		if opts.Multipart {
			body, formContentType, err := createMultipartFormData(opts.Form)
			if err != nil {
				return nil, err
			}

			reqBody = body
			contentTypeHeader = formContentType
		} else {
			values := url.Values{}
			for k, v := range opts.Form {
				values.Set(k, v)
			}

			reqBody = strings.NewReader(values.Encode())
			contentTypeHeader = "application/x-www-form-urlencoded"
		}
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, opts.URL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", UserAgent)

	if contentTypeHeader != "" {
		req.Header.Set("Content-Type", contentTypeHeader)
	}

	for name, value := range opts.Cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	return req, nil
}

// sendRequest executes the HTTP request, reads the body for auditing, and
// returns the response with a new, readable body stream, along with the raw
// body bytes.
func sendRequest(ctx context.Context, req *http.Request) (_ *http.Response, _ []byte, err error) {
	span := audit.Span{
		RequestID: idgen.Make(),
		Method:    req.Method,
		URL:       req.URL.String(),
	}

	defer func() { span.Error = err }()

	_ = span.Begin(ctx)
	defer span.End() // in case of error

	resp, err := HTTPClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	span.StatusCode = resp.StatusCode

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	span.Body = body

	span.End()
	span.Log()

	// Replace the consumed body with a new reader so the caller can still read it.
	resp.Body = io.NopCloser(bytes.NewReader(body))

	return resp, body, nil
}

// createMultipartFormData constructs multipart form data from a map of fields.
func createMultipartFormData(fields map[string]string) (*bytes.Buffer, string, error) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			_ = writer.Close()

			return nil, "", fmt.Errorf("failed to write multipart form field %q: %w", k, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return body, writer.FormDataContentType(), nil
}

func clampTimeout(d time.Duration) time.Duration {
	switch {
	case d == 0:
		return DefaultTimeout
	case d < MinTimeout:
		return MinTimeout
	case d > MaxTimeout:
		return MaxTimeout
	default:
		return d
	}
}
