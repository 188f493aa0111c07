// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/trend-engine/pkg/types"
)

// LinkChecker probes discovery URLs and classifies the outcome into
// the closed ReachStatus set. Redirects are reported, not followed;
// a posting that moved is still a posting.
type LinkChecker struct {
	client *http.Client
	ua     string
}

// NewLinkChecker returns a checker using the given HTTP settings.
func NewLinkChecker(cfg types.HTTPConfig) *LinkChecker {
	return &LinkChecker{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		ua: cfg.UserAgent,
	}
}

// Check probes url with a HEAD request, falling back to GET when the
// server rejects HEAD with 405. The probe never retries; rate limiting
// here is a classification, not a failure.
func (c *LinkChecker) Check(ctx context.Context, url string) types.ReachabilityCheck {
	result := types.ReachabilityCheck{CheckedAt: time.Now().UTC()}

	resp, err := c.do(ctx, http.MethodHead, url)
	if err != nil {
		result.Status = types.ReachError
		result.Error = err.Error()
		return result
	}
	resp.Body.Close()

	if resp.StatusCode == http.StatusMethodNotAllowed {
		resp, err = c.do(ctx, http.MethodGet, url)
		if err != nil {
			result.Status = types.ReachError
			result.Error = err.Error()
			return result
		}
		resp.Body.Close()
	}

	result.HTTPStatus = resp.StatusCode
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		result.Status = types.ReachOK
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		result.Status = types.ReachRedirect
		result.FinalURL = resp.Header.Get("Location")
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		result.Status = types.ReachNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		result.Status = types.ReachForbidden
	case resp.StatusCode == http.StatusTooManyRequests:
		result.Status = types.ReachRateLimited
	default:
		result.Status = types.ReachError
		result.Error = fmt.Sprintf("unexpected status %d", resp.StatusCode)
	}
	return result
}

func (c *LinkChecker) do(ctx context.Context, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	if c.ua != "" {
		req.Header.Set("User-Agent", c.ua)
	}
	return c.client.Do(req)
}
