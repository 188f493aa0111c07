// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/trend-engine/internal/httputil"
	"github.com/pdiddy/trend-engine/pkg/types"
)

// trendsAPIBase is the unofficial search-interest API root. Package-
// level var for test substitution.
var trendsAPIBase = "https://trends.google.com/trends/api"

// trendsWindow is the interest window queried for every record.
const trendsWindow = "now 7-d"

// TrendsBackend fetches search-interest data from the unofficial
// trends API. The protocol is two-step: an explore call hands out a
// widget token, then the multiline call returns the interest
// timeline. Both responses carry an anti-hijacking prefix before the
// JSON body. Per prd003-scoring R3.1-R3.2.
type TrendsBackend struct {
	UserAgent  string
	MaxRetries int
	Client     *http.Client
}

type trendsWidget struct {
	ID      string          `json:"id"`
	Token   string          `json:"token"`
	Request json.RawMessage `json:"request"`
}

type trendsTimeline struct {
	Default struct {
		TimelineData []struct {
			Value []float64 `json:"value"`
		} `json:"timelineData"`
	} `json:"default"`
}

// Interest fetches an interest score for up to three keywords. The
// confidence tier reflects how much timeline data came back, so thin
// results weaken rather than poison the composite (R3.2).
func (b *TrendsBackend) Interest(ctx context.Context, keywords []string) (types.SignalScore, error) {
	if len(keywords) == 0 {
		return types.SignalScore{}, fmt.Errorf("no keywords to query")
	}

	widget, err := b.explore(ctx, keywords)
	if err != nil {
		return types.SignalScore{}, err
	}

	timeline, err := b.multiline(ctx, widget)
	if err != nil {
		return types.SignalScore{}, err
	}

	points := timeline.Default.TimelineData
	if len(points) == 0 {
		return types.SignalScore{}, fmt.Errorf("interest timeline is empty")
	}

	// Peak interest across keywords, averaged over the window.
	var sum float64
	for _, p := range points {
		var peak float64
		for _, v := range p.Value {
			if v > peak {
				peak = v
			}
		}
		sum += peak
	}
	value := sum / float64(len(points))

	conf := types.TierLow
	switch {
	case len(points) >= 24:
		conf = types.TierHigh
	case len(points) >= 8:
		conf = types.TierMedium
	}

	detail, _ := json.Marshal(keywords)
	return types.SignalScore{
		Value:      value,
		Confidence: conf,
		Enabled:    true,
		Detail:     map[string]json.RawMessage{"keywords": detail},
	}, nil
}

// explore asks for the widget list and returns the timeline widget.
func (b *TrendsBackend) explore(ctx context.Context, keywords []string) (*trendsWidget, error) {
	items := make([]map[string]any, len(keywords))
	for i, kw := range keywords {
		items[i] = map[string]any{"keyword": kw, "geo": "", "time": trendsWindow}
	}
	reqPayload, err := json.Marshal(map[string]any{
		"comparisonItem": items,
		"category":       0,
		"property":       "",
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling explore request: %w", err)
	}

	params := url.Values{"hl": {"en-US"}, "tz": {"0"}, "req": {string(reqPayload)}}
	body, err := b.get(ctx, trendsAPIBase+"/explore?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("explore call: %w", err)
	}

	var exploreResp struct {
		Widgets []trendsWidget `json:"widgets"`
	}
	if err := json.Unmarshal(stripAntiHijack(body), &exploreResp); err != nil {
		return nil, fmt.Errorf("parsing explore response: %w", err)
	}
	for i := range exploreResp.Widgets {
		if exploreResp.Widgets[i].ID == "TIMESERIES" {
			return &exploreResp.Widgets[i], nil
		}
	}
	return nil, fmt.Errorf("explore response has no timeline widget")
}

// multiline fetches the interest timeline for a widget token.
func (b *TrendsBackend) multiline(ctx context.Context, widget *trendsWidget) (*trendsTimeline, error) {
	params := url.Values{
		"hl":    {"en-US"},
		"tz":    {"0"},
		"req":   {string(widget.Request)},
		"token": {widget.Token},
	}
	body, err := b.get(ctx, trendsAPIBase+"/widgetdata/multiline?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("multiline call: %w", err)
	}

	var timeline trendsTimeline
	if err := json.Unmarshal(stripAntiHijack(body), &timeline); err != nil {
		return nil, fmt.Errorf("parsing timeline: %w", err)
	}
	return &timeline, nil
}

func (b *TrendsBackend) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, b.MaxRetries)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("interest API returned HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// stripAntiHijack drops the )]}' guard prefix the API prepends to
// every JSON body.
func stripAntiHijack(body []byte) []byte {
	s := string(body)
	if i := strings.IndexAny(s, "{["); i > 0 {
		return []byte(s[i:])
	}
	return body
}
