// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llmjson extracts JSON from generative-model responses that
// may be wrapped in markdown code fences or surrounding prose.
package llmjson

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	jsonFence    = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	genericFence = regexp.MustCompile("(?s)```\\s*(.*?)\\s*```")
)

// Clean strips markdown fencing from a model response, returning a
// string ready for json.Unmarshal. It prefers an explicit ```json
// fence, then any fence whose body starts with { or [, then falls
// back to removing stray fence markers.
func Clean(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}

	if m := jsonFence.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}

	if m := genericFence.FindStringSubmatch(content); m != nil {
		body := strings.TrimSpace(m[1])
		if body != "" && (body[0] == '{' || body[0] == '[') {
			return body
		}
	}

	cleaned := strings.ReplaceAll(content, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

// Unmarshal cleans a model response and decodes it into v. The error
// includes a short content preview so a malformed response can be
// diagnosed from logs without dumping the full payload.
func Unmarshal(content string, v any) error {
	cleaned := Clean(content)
	if cleaned == "" {
		return fmt.Errorf("no JSON content found in response")
	}
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("decoding model response: %w (preview: %s)", err, preview(cleaned))
	}
	return nil
}

func preview(s string) string {
	if len(s) > 100 {
		return s[:100] + "..."
	}
	return s
}
