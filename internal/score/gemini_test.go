// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/trend-engine/pkg/types"
)

func geminiReply(text string) string {
	body, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	})
	return string(body)
}

func withGeminiServer(t *testing.T, handler http.HandlerFunc) *GeminiBackend {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	oldBase := geminiAPIBase
	geminiAPIBase = srv.URL
	t.Cleanup(func() { geminiAPIBase = oldBase })

	return &GeminiBackend{APIKey: "gk-test", Model: "gemini-3-flash-preview"}
}

func TestGeminiScoreVirality(t *testing.T) {
	var gotPath, gotKey string
	var gotReq geminiRequest
	backend := withGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		fmt.Fprint(w, geminiReply(`{"score": 78, "confidence": "high", "breakdown": {"emotional_pull": 20, "novelty": 19, "breadth": 21, "momentum": 18}}`))
	})

	rec := types.Record{Title: "Major outage hits Cloudflare", Subreddit: "technology"}
	rec.ClaimSummary = types.Value("Cloudflare suffered a global outage.")

	got, err := backend.ScoreVirality(context.Background(), rec)
	if err != nil {
		t.Fatalf("ScoreVirality: %v", err)
	}
	if got.Value != 78 || got.Confidence != types.TierHigh || !got.Enabled {
		t.Errorf("score = %+v", got)
	}
	if len(got.Detail) != 4 {
		t.Errorf("breakdown detail missing: %v", got.Detail)
	}

	if gotPath != "/gemini-3-flash-preview:generateContent" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "gk-test" {
		t.Errorf("api key header = %q", gotKey)
	}
	prompt := gotReq.Contents[0].Parts[0].Text
	if !strings.Contains(prompt, "Major outage hits Cloudflare") || !strings.Contains(prompt, "r/technology") {
		t.Errorf("prompt missing posting details:\n%s", prompt)
	}
}

func TestGeminiRejectsOutOfRangeScore(t *testing.T) {
	backend := withGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, geminiReply(`{"score": 140, "confidence": "high"}`))
	})

	_, err := backend.ScoreVirality(context.Background(), types.Record{Title: "x"})
	if err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("expected out-of-range error, got %v", err)
	}
}

func TestGeminiUnknownConfidenceDefaultsLow(t *testing.T) {
	backend := withGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, geminiReply(`{"score": 50, "confidence": "certain"}`))
	})

	got, err := backend.ScoreVirality(context.Background(), types.Record{Title: "x"})
	if err != nil {
		t.Fatalf("ScoreVirality: %v", err)
	}
	if got.Confidence != types.TierLow {
		t.Errorf("confidence = %s, want low", got.Confidence)
	}
}

func TestGeminiMalformedVerdict(t *testing.T) {
	backend := withGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, geminiReply(`the score is probably around 70`))
	})

	if _, err := backend.ScoreVirality(context.Background(), types.Record{Title: "x"}); err == nil {
		t.Fatal("expected a parse error")
	}
}
