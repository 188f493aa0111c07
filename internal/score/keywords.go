// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"strings"
	"unicode"
)

// maxKeywords caps how many terms go into a search-interest query;
// the interest API degrades sharply past a few comparison terms.
const maxKeywords = 3

// stopwords are never useful as interest terms.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"but": true, "for": true, "nor": true, "with": true, "from": true,
	"into": true, "over": true, "after": true, "before": true,
	"about": true, "against": true, "between": true, "through": true,
	"this": true, "that": true, "these": true, "those": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"been": true, "being": true, "has": true, "have": true, "had": true,
	"will": true, "would": true, "could": true, "should": true,
	"can": true, "may": true, "might": true, "just": true, "not": true,
	"its": true, "his": true, "her": true, "their": true, "your": true,
	"our": true, "you": true, "they": true, "how": true, "why": true,
	"what": true, "when": true, "where": true, "who": true, "says": true,
	"new": true, "now": true, "out": true, "off": true, "all": true,
	"more": true, "most": true, "than": true, "then": true, "them": true,
}

// ExtractKeywords pulls up to three interest-query terms from a title.
// Capitalized words beyond the first token are taken first; they are
// usually the names the interest data actually tracks.
func ExtractKeywords(title string) []string {
	words := strings.FieldsFunc(title, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	var proper, plain []string
	seen := map[string]bool{}
	for i, w := range words {
		lower := strings.ToLower(w)
		if len(lower) < 3 || stopwords[lower] || seen[lower] {
			continue
		}
		seen[lower] = true

		if i > 0 && unicode.IsUpper([]rune(w)[0]) {
			proper = append(proper, w)
		} else {
			plain = append(plain, lower)
		}
	}

	out := append(proper, plain...)
	if len(out) > maxKeywords {
		out = out[:maxKeywords]
	}
	return out
}
