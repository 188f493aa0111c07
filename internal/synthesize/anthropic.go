// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesize

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
	"github.com/pdiddy/trend-engine/pkg/types"
)

// draftPromptTmpl asks for the full platform copy package for one
// curated posting. Per prd005-synthesis R2.1.
var draftPromptTmpl = template.Must(template.New("draft").Parse(`You are a social media copywriter. Write platform copy for the following verified story.

Produce:
- x_post_a: a post under 280 characters in a punchy, direct voice
- x_post_b: a second post under 280 characters in a contrasting voice
- x_tone_a, x_tone_b: one-word names for each voice (e.g. "urgent", "wry")
- carousel_slides: 5 to 7 slides, each {"slide_number": n, "text": "..."} with slide 1 as a hook and the last slide as a call to action
- instagram_caption: a caption with 3-5 relevant hashtags

Respond with a JSON object containing exactly those fields and nothing else.

Story:
Title: {{.Title}}
{{if .Claim}}Verified claim: {{.Claim}}
{{end}}{{if .Rationale}}Editorial angle: {{.Rationale}}
{{end}}{{if .Sources}}Sources: {{range .Sources}}{{.Publisher}} {{end}}
{{end}}`))

// anthropicAPIURL is the messages endpoint. Package-level var for test
// substitution.
var anthropicAPIURL = "https://api.anthropic.com/v1/messages"

// AnthropicBackend writes platform copy through the Anthropic messages
// API. Per prd005-synthesis R3.1.
type AnthropicBackend struct {
	APIKey     string
	Model      string
	MaxRetries int
	Client     *http.Client
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Draft produces the copy package for one record (R2.1, R3.1).
func (b *AnthropicBackend) Draft(ctx context.Context, r types.Record) (types.SocialDraft, error) {
	claim, _ := r.ClaimSummary.Get()
	data := struct {
		Title     string
		Claim     string
		Rationale string
		Sources   []types.Source
	}{r.Title, claim, r.SelectionRationale, r.Sources}

	var prompt bytes.Buffer
	if err := draftPromptTmpl.Execute(&prompt, data); err != nil {
		return types.SocialDraft{}, fmt.Errorf("rendering prompt: %w", err)
	}

	reqBody := anthropicRequest{
		Model:     b.Model,
		MaxTokens: 4096,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt.String()},
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return types.SocialDraft{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return types.SocialDraft{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", b.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, b.MaxRetries)
	if err != nil {
		return types.SocialDraft{}, fmt.Errorf("calling Anthropic API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return types.SocialDraft{}, fmt.Errorf("Anthropic API returned %d: %s", resp.StatusCode, string(body))
	}

	var aResp anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&aResp); err != nil {
		return types.SocialDraft{}, fmt.Errorf("decoding Anthropic response: %w", err)
	}

	for _, block := range aResp.Content {
		if block.Type != "text" {
			continue
		}
		var draft types.SocialDraft
		if err := llmjson.Unmarshal(block.Text, &draft); err != nil {
			return types.SocialDraft{}, fmt.Errorf("parsing draft: %w", err)
		}
		return draft, nil
	}
	return types.SocialDraft{}, fmt.Errorf("no text content in Anthropic response")
}
