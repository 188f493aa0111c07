// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package curate

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

// curationPromptTmpl asks for an editorial selection from the
// candidate pool under the strict contract. Per prd004-curation R2.2.
var curationPromptTmpl = template.Must(template.New("curation").Parse(`You are a social media editor. From the numbered candidates below, pick exactly {{.Picks}} that together make the strongest daily lineup. Favor variety: avoid picking near-duplicate stories.

For each pick return:
- index: the candidate's number, exactly as given
- rationale: one or two sentences on why this posting makes the lineup
- angle: a one-word editorial angle such as "outrage", "awe", "utility", "humor", "controversy"

Rules:
- exactly {{.Picks}} picks
- every index must appear in the candidate list
- no index twice

Respond with a JSON object {"selections": [...]} and nothing else.

Candidates:
{{range .Candidates}}{{.Index}}. [r/{{.Subreddit}}, score {{printf "%.1f" .Composite}}] {{.Title}}{{if .Claim}} | claim: {{.Claim}}{{end}}
{{end}}`))

// openaiAPIURL is the chat completions endpoint. Package-level var for
// test substitution.
var openaiAPIURL = "https://api.openai.com/v1/chat/completions"

// OpenAIBackend performs the editorial selection through the OpenAI
// API. Per prd004-curation R2.1.
type OpenAIBackend struct {
	APIKey     string
	Model      string
	MaxRetries int
	Client     *http.Client
}

type openaiRequest struct {
	Model    string          `json:"model"`
	Messages []openaiMessage `json:"messages"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []struct {
		Message openaiMessage `json:"message"`
	} `json:"choices"`
}

// Curate sends the candidate pool and parses the selections (R2.2).
func (b *OpenAIBackend) Curate(ctx context.Context, candidates []Candidate, picks int) ([]Selection, error) {
	data := struct {
		Picks      int
		Candidates []Candidate
	}{picks, candidates}

	var prompt bytes.Buffer
	if err := curationPromptTmpl.Execute(&prompt, data); err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	reqBody := openaiRequest{
		Model: b.Model,
		Messages: []openaiMessage{
			{Role: "user", Content: prompt.String()},
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openaiAPIURL, bytes.NewReader(bodyBytes))
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
		return nil, fmt.Errorf("calling OpenAI API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("OpenAI API returned %d: %s", resp.StatusCode, string(body))
	}

	var oResp openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&oResp); err != nil {
		return nil, fmt.Errorf("decoding OpenAI response: %w", err)
	}
	if len(oResp.Choices) == 0 {
		return nil, fmt.Errorf("OpenAI API returned no choices")
	}

	var parsed struct {
		Selections []Selection `json:"selections"`
	}
	if err := llmjson.Unmarshal(oResp.Choices[0].Message.Content, &parsed); err != nil {
		return nil, fmt.Errorf("parsing curation response: %w", err)
	}
	return parsed.Selections, nil
}
