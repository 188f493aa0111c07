// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"net/url"
	"strings"

	"github.com/pdiddy/trend-engine/pkg/types"
)

// discoveryDomains are the discovery platform's own hosts. A post
// cannot cite its own platform as independent evidence.
var discoveryDomains = map[string]bool{
	"reddit.com":     true,
	"www.reddit.com": true,
	"old.reddit.com": true,
	"redd.it":        true,
	"i.redd.it":      true,
	"v.redd.it":      true,
}

// trackingParams are query parameters stripped during URL
// normalization so the same article under different campaign tags
// deduplicates to one source.
var trackingParams = map[string]bool{
	"ref":      true,
	"fbclid":   true,
	"gclid":    true,
	"mc_cid":   true,
	"mc_eid":   true,
	"igshid":   true,
	"ocid":     true,
	"cmpid":    true,
	"smid":     true,
	"partner":  true,
	"referrer": true,
}

// NormalizeURL lower-cases the scheme and host, strips tracking
// parameters and the fragment, and removes a trailing slash from the
// path. The input is returned unchanged when it does not parse.
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.TrimSpace(raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for param := range q {
		if trackingParams[param] || strings.HasPrefix(param, "utm_") {
			q.Del(param)
		}
	}
	u.RawQuery = q.Encode()

	if strings.HasSuffix(u.Path, "/") && u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	if u.Path == "/" && u.RawQuery == "" {
		u.Path = ""
	}
	return u.String()
}

// Domain extracts the registrable host of a URL, without a www prefix.
func Domain(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// isDiscoveryDomain reports whether the URL points back at the
// discovery platform.
func isDiscoveryDomain(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if discoveryDomains[host] {
		return true
	}
	return strings.HasSuffix(host, ".reddit.com") || strings.HasSuffix(host, ".redd.it")
}

// cleanSources normalizes, filters, and deduplicates collaborator
// sources. Discovery-platform citations are dropped. Duplicates are
// keyed by normalized URL; when both a primary and a secondary source
// resolve to the same URL the primary wins.
func cleanSources(in []types.Source) []types.Source {
	byURL := make(map[string]int, len(in))
	out := make([]types.Source, 0, len(in))

	for _, src := range in {
		norm := NormalizeURL(src.URL)
		if norm == "" || isDiscoveryDomain(norm) {
			continue
		}
		src.URL = norm
		if src.Publisher == "" {
			src.Publisher = Domain(norm)
		}
		if src.Type != types.SourcePrimary {
			src.Type = types.SourceSecondary
		}

		if i, seen := byURL[norm]; seen {
			if src.Type == types.SourcePrimary && out[i].Type != types.SourcePrimary {
				out[i] = src
			}
			continue
		}
		byURL[norm] = len(out)
		out = append(out, src)
	}
	return out
}
