// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

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

// viralityPromptTmpl asks the model to grade one posting against a
// fixed rubric and return a bounded score. Per prd003-scoring R2.2.
var viralityPromptTmpl = template.Must(template.New("virality").Parse(`You are a social media trend analyst. Grade the following verified posting on its potential to spread widely in the next 48 hours.

Score each rubric dimension 0-25:
- emotional_pull: does it trigger outrage, awe, humor, or fear
- novelty: is this genuinely new information or a fresh angle
- breadth: how wide is the audience that cares
- momentum: is the underlying story still developing

Respond with a JSON object and nothing else:
{"score": <sum of dimensions, 0-100>, "confidence": "high"|"medium"|"low", "breakdown": {"emotional_pull": n, "novelty": n, "breadth": n, "momentum": n}}

Use "low" confidence when the posting gives you too little to grade.

Posting:
Title: {{.Title}}
Community: r/{{.Subreddit}}
{{if .Claim}}Claim: {{.Claim}}
{{end}}{{if .Sources}}Confirmed by {{.Sources}} independent sources.
{{end}}`))

// geminiAPIBase is the Gemini generateContent endpoint up to the model
// segment. Package-level var for test substitution.
var geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta/models"

// GeminiBackend grades virality through the Gemini API.
// Per prd003-scoring R2.1.
type GeminiBackend struct {
	APIKey     string
	Model      string
	MaxRetries int
	Client     *http.Client
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// viralityVerdict is the JSON shape the prompt demands.
type viralityVerdict struct {
	Score      float64                    `json:"score"`
	Confidence string                     `json:"confidence"`
	Breakdown  map[string]json.RawMessage `json:"breakdown"`
}

// ScoreVirality grades one record (R2.2, R2.4).
func (b *GeminiBackend) ScoreVirality(ctx context.Context, r types.Record) (types.SignalScore, error) {
	claim, _ := r.ClaimSummary.Get()
	data := struct {
		Title     string
		Subreddit string
		Claim     string
		Sources   int
	}{r.Title, r.Subreddit, claim, len(r.Sources)}

	var prompt bytes.Buffer
	if err := viralityPromptTmpl.Execute(&prompt, data); err != nil {
		return types.SignalScore{}, fmt.Errorf("rendering prompt: %w", err)
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt.String()}}}},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return types.SignalScore{}, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", geminiAPIBase, b.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return types.SignalScore{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", b.APIKey)

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, b.MaxRetries)
	if err != nil {
		return types.SignalScore{}, fmt.Errorf("calling Gemini API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return types.SignalScore{}, fmt.Errorf("Gemini API returned %d: %s", resp.StatusCode, string(body))
	}

	var gResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gResp); err != nil {
		return types.SignalScore{}, fmt.Errorf("decoding Gemini response: %w", err)
	}
	if len(gResp.Candidates) == 0 || len(gResp.Candidates[0].Content.Parts) == 0 {
		return types.SignalScore{}, fmt.Errorf("Gemini API returned no candidates")
	}

	var verdict viralityVerdict
	if err := llmjson.Unmarshal(gResp.Candidates[0].Content.Parts[0].Text, &verdict); err != nil {
		return types.SignalScore{}, fmt.Errorf("parsing virality verdict: %w", err)
	}
	if verdict.Score < 0 || verdict.Score > 100 {
		return types.SignalScore{}, fmt.Errorf("virality score %.1f out of range", verdict.Score)
	}

	conf := types.ConfidenceTier(verdict.Confidence)
	switch conf {
	case types.TierHigh, types.TierMedium, types.TierLow:
	default:
		conf = types.TierLow
	}

	return types.SignalScore{
		Value:      verdict.Score,
		Confidence: conf,
		Enabled:    true,
		Detail:     verdict.Breakdown,
	}, nil
}
