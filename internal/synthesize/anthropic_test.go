// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesize

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/trend-engine/internal/httputil"
	"github.com/pdiddy/trend-engine/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func anthropicReply(text string) string {
	body, _ := json.Marshal(map[string]any{
		"content": []map[string]any{{"type": "text", "text": text}},
	})
	return string(body)
}

func withAnthropicServer(t *testing.T, handler http.HandlerFunc) *AnthropicBackend {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	oldURL := anthropicAPIURL
	anthropicAPIURL = srv.URL
	t.Cleanup(func() { anthropicAPIURL = oldURL })

	return &AnthropicBackend{APIKey: "ak-test", Model: "claude-sonnet-4-5"}
}

func TestAnthropicDraftParsesCopy(t *testing.T) {
	var gotKey, gotVersion string
	var gotReq anthropicRequest
	backend := withAnthropicServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		fmt.Fprint(w, anthropicReply(`{"x_post_a":"BREAKING: outage","x_post_b":"Well, that happened.","x_tone_a":"urgent","x_tone_b":"wry","carousel_slides":[{"slide_number":1,"text":"hook"},{"slide_number":2,"text":"a"},{"slide_number":3,"text":"b"},{"slide_number":4,"text":"c"},{"slide_number":5,"text":"cta"}],"instagram_caption":"Outage day. #tech #news #outage"}`))
	})

	rec := types.Record{Title: "Major outage", SelectionRationale: "big story"}
	rec.ClaimSummary = types.Value("A global outage occurred.")

	draft, err := backend.Draft(context.Background(), rec)
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if draft.XPostA != "BREAKING: outage" || draft.XToneB != "wry" {
		t.Errorf("draft = %+v", draft)
	}
	if len(draft.CarouselSlides) != 5 {
		t.Errorf("slides = %d", len(draft.CarouselSlides))
	}

	if gotKey != "ak-test" || gotVersion != "2023-06-01" {
		t.Errorf("headers: key=%q version=%q", gotKey, gotVersion)
	}
	prompt := gotReq.Messages[0].Content
	if !strings.Contains(prompt, "Major outage") || !strings.Contains(prompt, "A global outage occurred.") {
		t.Errorf("prompt missing story details:\n%s", prompt)
	}
}

func TestAnthropicDraftFencedJSON(t *testing.T) {
	backend := withAnthropicServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, anthropicReply("```json\n{\"x_post_a\":\"a\",\"x_post_b\":\"b\"}\n```"))
	})

	draft, err := backend.Draft(context.Background(), types.Record{Title: "x"})
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if draft.XPostA != "a" || draft.XPostB != "b" {
		t.Errorf("draft = %+v", draft)
	}
}

func TestAnthropicDraftAPIError(t *testing.T) {
	backend := withAnthropicServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	// 503 is transient: the retry helper re-sends once, then the
	// status comes back to the caller.
	_, err := backend.Draft(context.Background(), types.Record{Title: "x"})
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected a 503 error, got %v", err)
	}
}
