// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/trend-engine/pkg/types"
)

// extractOutboundURL pulls the external article link out of an entry's
// HTML body. Feed bodies label it with a "[link]" anchor; self posts
// point that anchor back at the platform. The result distinguishes
// "inspected, links nowhere off-platform" (explicit null) from
// "not evaluated" (absent), so a parse failure stays absent.
// Per prd001-ingestion R3.1-R3.3.
func extractOutboundURL(body string) types.Nullable[string] {
	if strings.TrimSpace(body) == "" {
		return types.Null[string]()
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return types.Nullable[string]{}
	}

	var found string
	doc.Find("a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.TrimSpace(sel.Text()) != "[link]" {
			return true
		}
		href, ok := sel.Attr("href")
		if ok {
			found = href
		}
		return false
	})

	if found == "" || isPlatformURL(found) {
		return types.Null[string]()
	}
	return types.Value(found)
}

func isPlatformURL(href string) bool {
	lower := strings.ToLower(href)
	for _, prefix := range []string{"https://www.reddit.com/", "https://old.reddit.com/", "https://redd.it/", "https://i.redd.it/", "https://v.redd.it/"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
