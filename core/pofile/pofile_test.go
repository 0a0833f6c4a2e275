// Copyright 2025, Daniel Nylander and the ddtp-translate contributors
// SPDX-License-Identifier: GPL-3.0-only

package pofile

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExportImportRoundTrip(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{
			Package:     "0ad",
			ContentHash: "aaaa1111",
			OrigShort:   "Real-time strategy game",
			OrigLong:    "First line.\nSecond line with \"quotes\".",
			Short:       "Realtidsstrategispel",
			Long:        "Första raden.\nAndra raden.",
		},
		{
			Package:     "zsh",
			ContentHash: "bbbb2222",
			OrigShort:   "Shell with lots of features",
			Short:       "Skal med många funktioner",
		},
	}

	var buf bytes.Buffer
	assert.NoError(t, Export(&buf, entries, "sv"))

	got, err := Import(&buf)
	assert.NoError(t, err)

	if assert.Len(t, got, 2) {
		assert.Equal(t, "0ad", got[0].Package)
		assert.Equal(t, "aaaa1111", got[0].ContentHash)
		assert.Equal(t, "Realtidsstrategispel", got[0].Short)
		assert.Equal(t, "Första raden.\nAndra raden.", got[0].Long)

		assert.Equal(t, "zsh", got[1].Package)
		assert.Equal(t, "Skal med många funktioner", got[1].Short)
		assert.Empty(t, got[1].Long)
	}
}

// Entries whose short translation was never filled in are dropped on import:
// they cannot be submitted.
func TestImportDropsUntranslated(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{Package: "done", ContentHash: "h1", OrigShort: "orig", Short: "klar"},
		{Package: "todo", ContentHash: "h2", OrigShort: "orig"},
	}

	var buf bytes.Buffer
	assert.NoError(t, Export(&buf, entries, "sv"))

	got, err := Import(&buf)
	assert.NoError(t, err)

	if assert.Len(t, got, 1) {
		assert.Equal(t, "done", got[0].Package)
	}
}

// The header pair (empty msgid) must not produce an entry.
func TestImportSkipsHeader(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	assert.NoError(t, Export(&buf, nil, "sv"))

	got, err := Import(&buf)
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestImportIgnoresEntriesWithoutComments(t *testing.T) {
	t.Parallel()

	po := `msgid "hello"
msgstr "hej"
`

	got, err := Import(strings.NewReader(po))
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestExportFormat(t *testing.T) {
	t.Parallel()

	entries := []Entry{{
		Package:     "0ad",
		ContentHash: "aaaa1111",
		OrigShort:   "Strategy game",
		OrigLong:    "Line one.\nLine two.",
	}}

	var buf bytes.Buffer
	assert.NoError(t, Export(&buf, entries, "sv"))

	out := buf.String()
	assert.Contains(t, out, "#. Package: 0ad\n")
	assert.Contains(t, out, "#. MD5: aaaa1111\n")
	assert.Contains(t, out, `msgid "Strategy game"`)
	assert.Contains(t, out, `msgctxt "long:0ad"`)
	assert.Contains(t, out, "\"Line one.\\n\"\n")
	assert.Contains(t, out, `"Language: sv\n"`)
}

func TestEscapeRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
	}{
		{"Plain", "hello"},
		{"Quote", `say "hi"`},
		{"Newline", "a\nb"},
		{"Backslash", `C:\path`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.in, unescape(escape(tc.in)))
		})
	}
}
