// Copyright 2025, Daniel Nylander and the ddtp-translate contributors
// SPDX-License-Identifier: GPL-3.0-only

package ddtss

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// classifyRule maps a phrase the DDTSS embeds in an HTML response to an
// error kind.
type classifyRule struct {
	phrase string
	kind   Kind
}

// classifyRules is evaluated top to bottom and the first match wins.
//
// The order is load-bearing: some phrases are substrings of page text that
// also appears around more specific ones, so the specific phrases must come
// first. Keep this list in sync with TestClassifyPhrases.
var classifyRules = []classifyRule{
	{"You must be logged in", KindAuth},
	{"Invalid username/password", KindAuth},
	{"Account not active yet", KindAuth},
	{"locked, sorry", KindLocked},
	{"gone, sorry", KindNotFound},
	{"Couldn't fetch", KindNotFound},
	{"didn't contain package name", KindNotFound},
	{"Encoding error", KindServer},
	{"not complete, still <trans>", KindValidation},
	{"line longer than 80 characters", KindValidation},
}

// Classify scans a raw response body for known DDTSS error phrases.
//
// On a match it returns a *ProtocolError of the mapped kind, carrying the
// page's <h1> text (markup stripped) as the message when one is present.
// A nil return means the body looked like a regular page and the caller may
// parse it structurally.
func Classify(body []byte) error {
	for _, rule := range classifyRules {
		if !bytes.Contains(body, []byte(rule.phrase)) {
			continue
		}

		msg := headingText(body)
		if msg == "" {
			msg = rule.phrase
		}

		return &ProtocolError{Kind: rule.kind, Message: msg}
	}

	return nil
}

// headingText returns the text content of the first <h1> element, with any
// nested markup stripped. Returns "" if the body has no heading.
func headingText(body []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(body))

	var (
		sb    strings.Builder
		depth int
	)

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			if name, _ := tokenizer.TagName(); string(name) == "h1" {
				depth++
			}
		case html.TextToken:
			if depth > 0 {
				sb.Write(tokenizer.Text())
			}
		case html.EndTagToken:
			if name, _ := tokenizer.TagName(); string(name) == "h1" && depth > 0 {
				return strings.TrimSpace(sb.String())
			}
		default:
		}
	}
}
