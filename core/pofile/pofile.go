// Copyright 2025, Daniel Nylander and the ddtp-translate contributors
// SPDX-License-Identifier: GPL-3.0-only

// Package pofile reads and writes the gettext PO exchange format used to
// move descriptions between this tool and external translation editors.
//
// Standard PO has no place for the package name and content hash that a
// DDTSS submission requires, so each entry carries them in extracted
// comments ("#. Package:", "#. MD5:"). The long description rides in a
// second message pair under a "long:<package>" msgctxt.
package pofile

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Entry is one description in a PO exchange file.
type Entry struct {
	Package     string
	ContentHash string
	OrigShort   string
	OrigLong    string
	Short       string
	Long        string
}

// Export writes entries as a PO file. The original texts become msgids and
// the translations msgstrs, so a file exported before translating has empty
// msgstrs an external editor can fill in.
func Export(w io.Writer, entries []Entry, lang string) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# DDTP translations export\n")
	fmt.Fprintf(bw, "# Language: %s\n", lang)
	fmt.Fprintf(bw, "# Packages: %d\n", len(entries))
	fmt.Fprintf(bw, "#\n")
	fmt.Fprintf(bw, "msgid \"\"\nmsgstr \"\"\n")
	fmt.Fprintf(bw, "\"Language: %s\\n\"\n", lang)
	fmt.Fprintf(bw, "\"Content-Type: text/plain; charset=UTF-8\\n\"\n")
	fmt.Fprintf(bw, "\"Content-Transfer-Encoding: 8bit\\n\"\n\n")

	for _, entry := range entries {
		fmt.Fprintf(bw, "#. Package: %s\n", entry.Package)
		fmt.Fprintf(bw, "#. MD5: %s\n", entry.ContentHash)
		fmt.Fprintf(bw, "msgid \"%s\"\n", escape(entry.OrigShort))
		fmt.Fprintf(bw, "msgstr \"%s\"\n\n", escape(entry.Short))

		if entry.OrigLong == "" && entry.Long == "" {
			continue
		}

		fmt.Fprintf(bw, "#. Long description for %s\n", entry.Package)
		fmt.Fprintf(bw, "msgctxt \"long:%s\"\n", entry.Package)
		fmt.Fprintf(bw, "msgid %s\n", escapeMultiline(entry.OrigLong))
		fmt.Fprintf(bw, "msgstr %s\n\n", escapeMultiline(entry.Long))
	}

	return bw.Flush()
}

// Import reads a PO file written by Export (or filled in by an external
// editor) and returns the entries that carry a translated short
// description. Entries missing the package or hash comments are skipped:
// without them a submission is impossible.
func Import(r io.Reader) ([]Entry, error) {
	var (
		entries []Entry
		index   = map[string]int{}

		curPkg, curHash, curCtx string

		inMsgstr    bool
		msgstrParts []string
	)

	flush := func() {
		if !inMsgstr {
			return
		}

		text := strings.TrimSpace(unescape(strings.Join(msgstrParts, "")))
		inMsgstr = false
		msgstrParts = nil

		if text == "" || curPkg == "" || curHash == "" {
			return
		}

		key := curPkg + "\x00" + curHash
		n, ok := index[key]
		if !ok {
			n = len(entries)
			index[key] = n
			entries = append(entries, Entry{Package: curPkg, ContentHash: curHash})
		}

		if strings.HasPrefix(curCtx, "long:") {
			entries[n].Long = text
		} else {
			entries[n].Short = text
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\n")

		switch {
		case strings.HasPrefix(line, "#. Package: "):
			curPkg = strings.TrimSpace(line[len("#. Package: "):])
		case strings.HasPrefix(line, "#. MD5: "):
			curHash = strings.TrimSpace(line[len("#. MD5: "):])
		case strings.HasPrefix(line, "msgctxt "):
			curCtx = quotedBody(line[len("msgctxt "):])
		case strings.HasPrefix(line, "msgid "):
			flush()
		case strings.HasPrefix(line, "msgstr "):
			inMsgstr = true
			msgstrParts = []string{quotedBody(line[len("msgstr "):])}
		case inMsgstr && strings.HasPrefix(strings.TrimSpace(line), `"`):
			msgstrParts = append(msgstrParts, quotedBody(line))
		case strings.TrimSpace(line) == "":
			flush()
			curCtx = ""
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read po file: %w", err)
	}

	flush()

	// Only entries with a translated short are submittable.
	out := entries[:0]
	for _, entry := range entries {
		if entry.Short != "" {
			out = append(out, entry)
		}
	}

	return out, nil
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)

	return s
}

func unescape(s string) string {
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = strings.ReplaceAll(s, `\\`, `\`)

	return s
}

// escapeMultiline renders s as a PO string, split per line the way gettext
// tools format multi-line messages.
func escapeMultiline(s string) string {
	lines := strings.Split(s, "\n")
	if len(lines) == 1 {
		return `"` + escape(s) + `"`
	}

	parts := []string{`""`}
	for n, line := range lines {
		if n < len(lines)-1 {
			parts = append(parts, `"`+escape(line)+`\n"`)
		} else {
			parts = append(parts, `"`+escape(line)+`"`)
		}
	}

	return strings.Join(parts, "\n")
}

// quotedBody strips the surrounding quotes from a PO string fragment.
func quotedBody(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)

	return s
}
