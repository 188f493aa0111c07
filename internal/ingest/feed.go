// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/trend-engine/internal/httputil"
	"github.com/pdiddy/trend-engine/pkg/types"
)

// feedBase is the discovery platform root. Declared as a var so tests
// can substitute an httptest server.
var feedBase = "https://www.reddit.com"

// FeedClient fetches one community's newest postings from its Atom
// feed. Per prd001-ingestion R1.1.
type FeedClient struct {
	Client     *http.Client
	UserAgent  string
	MaxRetries int
}

// Reddit Atom feed XML structures.
type redditFeed struct {
	Entries []redditEntry `xml:"entry"`
}

type redditEntry struct {
	ID        string       `xml:"id"`
	Title     string       `xml:"title"`
	Updated   string       `xml:"updated"`
	Published string       `xml:"published"`
	Author    redditAuthor `xml:"author"`
	Links     []redditLink `xml:"link"`
	Content   string       `xml:"content"`
}

type redditAuthor struct {
	Name string `xml:"name"`
}

type redditLink struct {
	Href string `xml:"href,attr"`
}

// Fetch downloads and parses one community feed into partially
// populated records: identity, discovery fields, and the outbound
// link. Window filtering and ordering belong to the stage (R1.2).
func (c *FeedClient) Fetch(ctx context.Context, subreddit string) ([]types.Record, error) {
	url := fmt.Sprintf("%s/r/%s/new/.rss", feedBase, subreddit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, c.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("fetching r/%s feed: %w", subreddit, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("r/%s feed returned HTTP %d", subreddit, resp.StatusCode)
	}

	var feed redditFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing r/%s feed: %w", subreddit, err)
	}

	records := make([]types.Record, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		r := types.Record{
			ID:          entryID(entry.ID),
			Title:       strings.TrimSpace(entry.Title),
			Subreddit:   subreddit,
			Author:      authorName(entry.Author.Name),
			PublishedAt: entryTime(entry),
		}
		if len(entry.Links) > 0 {
			r.DiscoveryURL = entry.Links[0].Href
		}
		r.OutboundURL = extractOutboundURL(entry.Content)
		records = append(records, r)
	}
	return records, nil
}

// entryID extracts the stable posting identifier from the Atom entry
// ID, generating one when the feed omits it so later stages can still
// key mutations by ID (R2.2).
func entryID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "gen_" + uuid.NewString()
	}
	// Atom IDs look like "t3_1abc2d" or a tag URI ending in the same.
	if i := strings.LastIndexByte(raw, '/'); i >= 0 {
		raw = raw[i+1:]
	}
	return raw
}

func authorName(raw string) string {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "/u/")
	if raw == "" {
		return "unknown"
	}
	return raw
}

func entryTime(entry redditEntry) time.Time {
	for _, s := range []string{entry.Published, entry.Updated} {
		if s == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
