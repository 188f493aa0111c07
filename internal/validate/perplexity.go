// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"text/template"

	"github.com/pdiddy/trend-engine/internal/httputil"
	"github.com/pdiddy/trend-engine/internal/llmjson"
)

// factCheckPromptTmpl is the prompt sent to the fact-check collaborator
// for one batch of postings. It demands a strict JSON shape with
// 1-based indices mirroring the input order. Per prd002-factcheck R5.2.
var factCheckPromptTmpl = template.Must(template.New("factcheck").Parse(`You are a fact-checking assistant with live web search. For each numbered social media posting below, research whether its central claim is accurate.

For each posting return:
- index: the posting's number, exactly as given
- status: "verified" if independent reporting confirms the claim, "debunked" if reporting contradicts it, "unverifiable" if you cannot find independent coverage
- item_type: "news" for factual claims, or "discussion", "question", "opinion" for postings that make no checkable claim
- claim_summary: the central claim in one sentence, or null for postings with no factual claim
- reason: a specific justification naming what you found, at least two sentences
- sources: articles you relied on, each with url, title, publisher, source_type ("primary" for official announcements, filings, or papers; "secondary" for reporting), and evidence (one sentence on what the source confirms)

Never cite the platform the posting was discovered on as a source.

Respond with a JSON object {"results": [...]} and nothing else.

Postings:
{{range .}}{{.Index}}. [r/{{.Subreddit}}] {{.Title}}{{if .OutboundURL}} (links to {{.OutboundURL}}){{end}}
{{end}}`))

// perplexityAPIURL is the Perplexity chat completions endpoint.
// Package-level var for test substitution.
var perplexityAPIURL = "https://api.perplexity.ai/chat/completions"

// PerplexityBackend fact-checks posting batches through the Perplexity
// API, which grounds its answers in live search. Per prd002-factcheck R5.1.
type PerplexityBackend struct {
	APIKey     string
	Model      string
	MaxRetries int
	Client     *http.Client
}

type perplexityRequest struct {
	Model    string              `json:"model"`
	Messages []perplexityMessage `json:"messages"`
}

type perplexityMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type perplexityResponse struct {
	Choices []struct {
		Message perplexityMessage `json:"message"`
	} `json:"choices"`
}

// Validate sends one batch to the collaborator and parses the verdict
// list (R5.2, R5.3).
func (b *PerplexityBackend) Validate(ctx context.Context, batch []BatchItem) ([]BatchResult, error) {
	var prompt bytes.Buffer
	if err := factCheckPromptTmpl.Execute(&prompt, batch); err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	reqBody := perplexityRequest{
		Model: b.Model,
		Messages: []perplexityMessage{
			{Role: "user", Content: prompt.String()},
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, perplexityAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.APIKey)

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, b.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("calling Perplexity API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Perplexity API returned %d: %s", resp.StatusCode, string(body))
	}

	var pResp perplexityResponse
	if err := json.NewDecoder(resp.Body).Decode(&pResp); err != nil {
		return nil, fmt.Errorf("decoding Perplexity response: %w", err)
	}
	if len(pResp.Choices) == 0 {
		return nil, fmt.Errorf("Perplexity API returned no choices")
	}

	var verdicts struct {
		Results []BatchResult `json:"results"`
	}
	if err := llmjson.Unmarshal(pResp.Choices[0].Message.Content, &verdicts); err != nil {
		return nil, fmt.Errorf("parsing fact-check response: %w", err)
	}
	return verdicts.Results, nil
}
