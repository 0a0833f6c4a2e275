// Copyright 2025, Daniel Nylander and the ddtp-translate contributors
// SPDX-License-Identifier: GPL-3.0-only

package ddtss

import (
	"bytes"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// The DDTSS renders plain server-side HTML with no stable schema, so parsing
// is tolerant pattern extraction rather than strict DOM validation. Every
// field below is independently optional: a partially-unexpected page still
// yields best-effort data with empty-string defaults.

var (
	// redirectRe finds the embedded redirect target of a fetch page.
	redirectRe = regexp.MustCompile(`url=([^"]+/(?:translate|forreview)/([\w.+-]+))`)

	// origShortRe anchors on the untranslated short description line.
	origShortRe = regexp.MustCompile(`Description:\s*(.*?)(?:\n|<br)`)

	// origLongRe captures the untranslated long description block.
	origLongRe = regexp.MustCompile(`(?s)class=["']?untranslated["']?[^>]*>(.*?)</(?:pre|div|td)`)

	// Review page anchors.
	reviewShortRe = regexp.MustCompile(`Untranslated:\s*<tt>(.*?)</tt>`)
	reviewLongRe  = regexp.MustCompile(`(?s)Untranslated:.*?<pre>(.*?)</pre>`)
	ownerRe       = regexp.MustCompile(`the owner is:\s*<b>(.*?)</b>`)
	reviewLogRe   = regexp.MustCompile(`(?s)Log:\s*<pre>(.*?)</pre>`)

	// statsRe matches the three overview counters in document order. If the
	// page deviates, all counters read zero ("statistics temporarily
	// unavailable"), which is not an error.
	statsRe = regexp.MustCompile(`(?s)Pending translation.*?(\d+).*?Pending review.*?(\d+).*?Sent.*?(\d+)`)

	tagRe = regexp.MustCompile(`<[^>]+>`)

	// noteRe extracts the parenthesized note trailing a listing entry.
	noteRe = regexp.MustCompile(`\(([^)]*)\)`)
)

// redirectTarget returns the translate/forreview URL a fetch page redirects
// to, along with the package name it names.
func redirectTarget(body []byte) (target, pkg string, ok bool) {
	m := redirectRe.FindSubmatch(body)
	if m == nil {
		return "", "", false
	}

	return string(m[1]), string(m[2]), true
}

// parseTranslatePage extracts a Description from a translate form page.
func parseTranslatePage(body []byte, pkg string) Description {
	desc := Description{Package: pkg}

	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
		desc.ShortTrans = formField(doc, "short")
		desc.LongTrans = formField(doc, "long")
		desc.ContentHash = doc.Find("input[name='md5']").AttrOr("value", "")
	}

	if m := origShortRe.FindSubmatch(body); m != nil {
		desc.ShortOrig = strings.TrimSpace(stripTags(string(m[1])))
	}

	if m := origLongRe.FindSubmatch(body); m != nil {
		desc.LongOrig = strings.TrimSpace(stripTags(string(m[1])))
	}

	return desc
}

// parseReviewPage extracts a ReviewRecord from a forreview form page.
func parseReviewPage(body []byte, pkg string) ReviewRecord {
	rec := ReviewRecord{Description: Description{Package: pkg}}

	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
		rec.ShortTrans = formField(doc, "short")
		rec.LongTrans = formField(doc, "long")
		rec.Comment = formField(doc, "comment")
		rec.ContentHash = doc.Find("input[name='md5']").AttrOr("value", "")
	}

	if m := reviewShortRe.FindSubmatch(body); m != nil {
		rec.ShortOrig = strings.TrimSpace(html.UnescapeString(string(m[1])))
	}

	if m := reviewLongRe.FindSubmatch(body); m != nil {
		rec.LongOrig = strings.TrimSpace(html.UnescapeString(string(m[1])))
	}

	if m := ownerRe.FindSubmatch(body); m != nil {
		rec.Owner = string(m[1])
	}

	if m := reviewLogRe.FindSubmatch(body); m != nil {
		rec.Log = strings.TrimSpace(html.UnescapeString(string(m[1])))
	}

	return rec
}

// parseListings extracts the overview page sections. Sections are identified
// by heading text; each is expected to be followed by an ordered list of
// package entries. Missing sections yield empty slices.
func parseListings(body []byte) Listings {
	var listings Listings

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return listings
	}

	doc.Find("h2, h3").Each(func(_ int, heading *goquery.Selection) {
		title := strings.TrimSpace(heading.Text())

		list := heading.NextAllFiltered("ol, ul").First()
		if list.Length() == 0 {
			return
		}

		switch {
		case strings.HasPrefix(title, "Pending translation"):
			list.Find("li").Each(func(_ int, li *goquery.Selection) {
				if pkg := listingPackage(li); pkg != "" {
					listings.PendingTranslation = append(listings.PendingTranslation, pkg)
				}
			})
		case strings.HasPrefix(title, "Pending review"):
			list.Find("li").Each(func(_ int, li *goquery.Selection) {
				if entry, ok := reviewEntry(li, false); ok {
					listings.PendingReview = append(listings.PendingReview, entry)
				}
			})
		case strings.HasPrefix(title, "Reviewed by you"):
			list.Find("li").Each(func(_ int, li *goquery.Selection) {
				if entry, ok := reviewEntry(li, true); ok {
					listings.PendingReview = append(listings.PendingReview, entry)
				}
			})
		case strings.HasPrefix(title, "Recently translated"), strings.HasPrefix(title, "Recently reviewed"):
			list.Find("li").Each(func(_ int, li *goquery.Selection) {
				if pkg := listingPackage(li); pkg != "" {
					listings.RecentlyReviewed = append(listings.RecentlyReviewed, pkg)
				}
			})
		}
	})

	return listings
}

// parseStats extracts the three overview counters.
func parseStats(body []byte) Stats {
	m := statsRe.FindSubmatch(body)
	if m == nil {
		return Stats{}
	}

	atoi := func(b []byte) int {
		n, _ := strconv.Atoi(string(b))

		return n
	}

	return Stats{
		PendingTranslation: atoi(m[1]),
		PendingReview:      atoi(m[2]),
		Sent:               atoi(m[3]),
	}
}

// formField reads a named form field, preferring a textarea over an input
// element of the same name.
func formField(doc *goquery.Document, name string) string {
	if ta := doc.Find("textarea[name='" + name + "']"); ta.Length() > 0 {
		return ta.Text()
	}

	return doc.Find("input[name='" + name + "']").AttrOr("value", "")
}

// listingPackage reads the package name of a listing entry: the text of its
// first link, falling back to the entry's leading text.
func listingPackage(li *goquery.Selection) string {
	if link := li.Find("a").First(); link.Length() > 0 {
		return strings.TrimSpace(link.Text())
	}

	fields := strings.Fields(li.Text())
	if len(fields) == 0 {
		return ""
	}

	return fields[0]
}

// reviewEntry reads one pending-review listing entry.
func reviewEntry(li *goquery.Selection, reviewedByYou bool) (ReviewListing, bool) {
	link := li.Find("a[href*='forreview/']").First()
	if link.Length() == 0 {
		return ReviewListing{}, false
	}

	entry := ReviewListing{
		Package:       strings.TrimSpace(link.Text()),
		ReviewedByYou: reviewedByYou,
	}

	if entry.Package == "" {
		return ReviewListing{}, false
	}

	href := link.AttrOr("href", "")
	if i := strings.IndexByte(href, '?'); i >= 0 {
		entry.Timestamp = href[i+1:]
	}

	if m := noteRe.FindStringSubmatch(li.Text()); m != nil {
		entry.Note = strings.TrimSpace(m[1])
	}

	return entry, true
}

// stripTags removes HTML markup from a text fragment.
func stripTags(s string) string {
	return html.UnescapeString(tagRe.ReplaceAllString(s, ""))
}
