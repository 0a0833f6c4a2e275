// Copyright 2025, Daniel Nylander and the ddtp-translate contributors
// SPDX-License-Identifier: GPL-3.0-only

/*
Package ddtss speaks the DDTSS web protocol.

The DDTSS (the DDTP's web submission front-end) has no API; its contract is
loosely-structured server-rendered HTML reached over an authenticated
session. The client below owns that session, classifies free-text error
pages into typed errors, and extracts structured data from the handful of
page shapes the server produces.
*/
package ddtss

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yeager/ddtp-translate/core/requests"
	"github.com/yeager/ddtp-translate/core/session"
)

// Config configures a Client.
type Config struct {
	// BaseURL is the DDTSS entry point, e.g.
	// "https://ddtp.debian.org/ddtss/index.cgi".
	BaseURL string

	// Language is the language team code, e.g. "sv".
	Language string

	// Store owns the persisted session cookie.
	Store *session.Store

	// Timeout bounds ordinary page requests; SubmitTimeout bounds
	// submissions, which can be slow server-side. Zero values pick package
	// requests defaults.
	Timeout       time.Duration
	SubmitTimeout time.Duration
}

// Client is a session-authenticated DDTSS protocol client.
//
// The Client is the single owner of the authentication state; no other
// component reads or writes the session.
type Client struct {
	base string
	lang string

	store *session.Store

	timeout       time.Duration
	submitTimeout time.Duration
}

// NewClient creates a Client from cfg.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = requests.DefaultTimeout
	}

	submitTimeout := cfg.SubmitTimeout
	if submitTimeout == 0 {
		submitTimeout = requests.MaxTimeout
	}

	return &Client{
		base:          strings.TrimRight(cfg.BaseURL, "/"),
		lang:          cfg.Language,
		store:         cfg.Store,
		timeout:       timeout,
		submitTimeout: submitTimeout,
	}
}

// phrases whose presence marks a successful login response.
var loggedInPhrases = []string{
	"Logged in as",
	"logged in",
	"Pending translation",
	"Pending review",
}

// Login authenticates against the DDTSS and persists the session cookie
// immediately, so a restart does not force a re-login.
func (c *Client) Login(ctx context.Context, creds Credentials) error {
	form := map[string]string{
		"alias":    creds.Alias,
		"password": creds.Password,
		"submit":   "Submit",
	}

	resp, body, err := c.do(ctx, http.MethodPost, c.base+"/login", form, true, c.timeout)
	if err != nil {
		return err
	}

	if err := Classify(body); err != nil {
		return err
	}

	sess, haveCookie := sessionFromResponse(resp)

	// A successful login may redirect to the overview page. Follow it once,
	// with the fresh cookie, so the phrase check sees the final page.
	if isRedirect(resp.StatusCode) && resp.Header.Get("Location") != "" {
		cookies := c.sessionCookies()
		if haveCookie {
			cookies = map[string]string{session.CookieName: sess.Cookie}
		}

		_, redirBody, err := c.doWithCookies(
			ctx, http.MethodGet, c.resolveRedirect(resp.Header.Get("Location")),
			nil, false, c.timeout, cookies)
		if err != nil {
			return err
		}

		if err := Classify(redirBody); err != nil {
			return err
		}

		body = redirBody
	}

	if !haveCookie {
		if !containsAny(body, loggedInPhrases) {
			return &ProtocolError{Kind: KindAuth, Message: "login failed (unexpected response)"}
		}

		// The server recognized us without issuing a new cookie; the one we
		// already hold stays valid.
		if c.store.Current().Live(time.Now()) {
			return nil
		}

		return &ProtocolError{Kind: KindAuth, Message: "login failed (no session cookie)"}
	}

	if err := c.store.Save(sess); err != nil {
		return fmt.Errorf("login succeeded but session could not be persisted: %w", err)
	}

	log.Info().
		Str("alias", creds.Alias).
		Time("expires", sess.Expires).
		Msg("Logged in to DDTSS")

	return nil
}

// IsLoggedIn reports whether a non-expired session cookie is present. This
// is a purely local check and makes no network call.
func (c *Client) IsLoggedIn() bool {
	return c.store.Current().Live(time.Now())
}

// Logout invalidates the session locally.
func (c *Client) Logout() error {
	return c.store.Clear()
}

// FetchPackage asks the server for a package to translate. With an empty
// name the server picks the next available one.
//
// Fetching is also the required first step of a submission: the translate
// form only accepts a POST for a package fetched earlier in the same
// session.
func (c *Client) FetchPackage(ctx context.Context, pkg string) (Description, error) {
	body, err := c.getPage(ctx, c.fetchURL(pkg))
	if err != nil {
		return Description{}, err
	}

	// The fetch page redirects to /translate/<pkg> or /forreview/<pkg>.
	if target, name, ok := redirectTarget(body); ok {
		pageBody, err := c.getPage(ctx, c.resolveRedirect(target))
		if err != nil {
			return Description{}, err
		}

		return parseTranslatePage(pageBody, name), nil
	}

	// Some responses carry the translate form directly.
	desc := parseTranslatePage(body, pkg)
	if desc.ShortOrig != "" || desc.ShortTrans != "" || desc.LongTrans != "" {
		return desc, nil
	}

	return Description{}, &ProtocolError{Kind: KindNotFound, Message: "no package available for translation"}
}

// TranslatePage fetches the translation form for a specific package.
func (c *Client) TranslatePage(ctx context.Context, pkg string) (Description, error) {
	body, err := c.getPage(ctx, c.translateURL(pkg))
	if err != nil {
		return Description{}, err
	}

	return parseTranslatePage(body, pkg), nil
}

// SubmitTranslation submits a translated description.
//
// The server expects a fetch, confirm, submit sequence: submitting without a
// preceding fetch of the same package in the same session is rejected. The
// whole sequence runs here so callers only see one operation.
func (c *Client) SubmitTranslation(ctx context.Context, draft TranslationDraft) error {
	if _, err := c.getPage(ctx, c.fetchURL(draft.Package)); err != nil {
		return err
	}

	body, err := c.getPage(ctx, c.translateURL(draft.Package))
	if err != nil {
		return err
	}

	if bytes.Contains(body, []byte("Fetching package")) {
		return &ProtocolError{Kind: KindNotFound, Message: "package " + draft.Package + " not available for translation"}
	}

	form := map[string]string{
		"short":     draft.Short,
		"long":      draft.Long,
		"comment":   draft.Comment,
		"submit":    "Submit",
		"_charset_": "UTF-8",
	}

	resp, respBody, err := c.do(ctx, http.MethodPost, c.translateURL(draft.Package), form, true, c.submitTimeout)
	if err != nil {
		return err
	}

	if err := Classify(respBody); err != nil {
		return err
	}

	if bytes.Contains(bytes.ToLower(respBody), []byte("submitted")) {
		return nil
	}

	// No classified error and a sane status: treat as success.
	if resp.StatusCode == http.StatusOK || isRedirect(resp.StatusCode) {
		return nil
	}

	return &ProtocolError{
		Kind:    KindServer,
		Message: fmt.Sprintf("unexpected response after submit (HTTP %d)", resp.StatusCode),
	}
}

// Abandon gives a fetched package back to the server without translating it.
func (c *Client) Abandon(ctx context.Context, pkg string) error {
	form := map[string]string{
		"abandon":   "Abandon",
		"_charset_": "UTF-8",
	}

	_, body, err := c.do(ctx, http.MethodPost, c.translateURL(pkg), form, true, c.timeout)
	if err != nil {
		return err
	}

	return Classify(body)
}

// ReviewPage fetches the review form for a package.
func (c *Client) ReviewPage(ctx context.Context, pkg string) (ReviewRecord, error) {
	body, err := c.getPage(ctx, c.reviewURL(pkg))
	if err != nil {
		return ReviewRecord{}, err
	}

	return parseReviewPage(body, pkg), nil
}

// SubmitReview posts a review action for a package. The short and long texts
// are only sent for ReviewAcceptWithChanges.
func (c *Client) SubmitReview(ctx context.Context, pkg string, action ReviewAction, short, long, comment string) error {
	form := map[string]string{
		"_charset_": "UTF-8",
		"comment":   comment,
	}

	switch action {
	case ReviewAccept:
		form["accept"] = "Accept as is"
	case ReviewAcceptWithChanges:
		form["submit"] = "Accept with changes"
		form["short"] = short
		form["long"] = long
	case ReviewCommentOnly:
		form["nothing"] = "Change comment only"
	default:
		return fmt.Errorf("unknown review action %d", action)
	}

	_, body, err := c.do(ctx, http.MethodPost, c.reviewURL(pkg), form, true, c.submitTimeout)
	if err != nil {
		return err
	}

	return Classify(body)
}

// Listings fetches the language overview page and extracts its queue/review
// sections.
func (c *Client) Listings(ctx context.Context) (Listings, error) {
	body, err := c.getPage(ctx, c.overviewURL())
	if err != nil {
		return Listings{}, err
	}

	return parseListings(body), nil
}

// Stats fetches the language overview page and extracts its counters.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	body, err := c.getPage(ctx, c.overviewURL())
	if err != nil {
		return Stats{}, err
	}

	return parseStats(body), nil
}

// getPage issues a GET and classifies the body before handing it back.
func (c *Client) getPage(ctx context.Context, pageURL string) ([]byte, error) {
	_, body, err := c.do(ctx, http.MethodGet, pageURL, nil, false, c.timeout)
	if err != nil {
		return nil, err
	}

	if err := Classify(body); err != nil {
		return nil, err
	}

	return body, nil
}

func (c *Client) do(
	ctx context.Context,
	method, rawURL string,
	form map[string]string,
	multipart bool,
	timeout time.Duration,
) (*http.Response, []byte, error) {
	return c.doWithCookies(ctx, method, rawURL, form, multipart, timeout, c.sessionCookies())
}

func (c *Client) doWithCookies(
	ctx context.Context,
	method, rawURL string,
	form map[string]string,
	multipart bool,
	timeout time.Duration,
	cookies map[string]string,
) (*http.Response, []byte, error) {
	resp, body, err := requests.Do(ctx, requests.Options{
		Method:    method,
		URL:       rawURL,
		Form:      form,
		Multipart: multipart,
		Cookies:   cookies,
		Timeout:   timeout,
	})
	if err != nil {
		return nil, nil, transportError(err)
	}

	return resp, body, nil
}

// sessionCookies returns the cookie map for the current session, or nil when
// no live session exists.
func (c *Client) sessionCookies() map[string]string {
	s := c.store.Current()
	if !s.Live(time.Now()) {
		return nil
	}

	return map[string]string{session.CookieName: s.Cookie}
}

func (c *Client) overviewURL() string {
	return c.base + "/" + c.lang + "/"
}

func (c *Client) fetchURL(pkg string) string {
	u := c.base + "/" + c.lang + "/fetch"
	if pkg != "" {
		u += "?package=" + url.QueryEscape(pkg)
	}

	return u
}

func (c *Client) translateURL(pkg string) string {
	return c.base + "/" + c.lang + "/translate/" + url.PathEscape(pkg)
}

func (c *Client) reviewURL(pkg string) string {
	return c.base + "/" + c.lang + "/forreview/" + url.PathEscape(pkg)
}

// resolveRedirect turns an embedded redirect target into an absolute URL
// under our base.
func (c *Client) resolveRedirect(target string) string {
	if strings.HasPrefix(target, "http") {
		return target
	}

	marker := "/" + c.lang + "/"
	if i := strings.LastIndex(target, marker); i >= 0 {
		target = target[i+len(marker):]
	}

	return c.base + "/" + c.lang + "/" + strings.TrimPrefix(target, "/")
}

// sessionFromResponse extracts the session cookie a login response sets.
func sessionFromResponse(resp *http.Response) (session.Session, bool) {
	for _, ck := range resp.Cookies() {
		if ck.Name != session.CookieName || ck.Value == "" {
			continue
		}

		expires := ck.Expires
		if expires.IsZero() {
			if ck.MaxAge > 0 {
				expires = time.Now().Add(time.Duration(ck.MaxAge) * time.Second)
			} else {
				expires = time.Now().Add(session.DefaultTTL)
			}
		}

		return session.Session{Cookie: ck.Value, Expires: expires}, true
	}

	return session.Session{}, false
}

func isRedirect(status int) bool {
	return status >= http.StatusMultipleChoices && status < http.StatusBadRequest
}

func containsAny(body []byte, phrases []string) bool {
	for _, phrase := range phrases {
		if bytes.Contains(body, []byte(phrase)) {
			return true
		}
	}

	return false
}
