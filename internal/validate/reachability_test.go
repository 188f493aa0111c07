// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pdiddy/trend-engine/pkg/types"
)

func newChecker() *LinkChecker {
	return NewLinkChecker(types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "trend-engine-test/0.1"})
}

func TestCheckClassifiesStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		code int
		want types.ReachStatus
	}{
		{"ok", http.StatusOK, types.ReachOK},
		{"no content", http.StatusNoContent, types.ReachOK},
		{"moved", http.StatusMovedPermanently, types.ReachRedirect},
		{"temporary redirect", http.StatusFound, types.ReachRedirect},
		{"not found", http.StatusNotFound, types.ReachNotFound},
		{"gone", http.StatusGone, types.ReachNotFound},
		{"forbidden", http.StatusForbidden, types.ReachForbidden},
		{"unauthorized", http.StatusUnauthorized, types.ReachForbidden},
		{"rate limited", http.StatusTooManyRequests, types.ReachRateLimited},
		{"server error", http.StatusInternalServerError, types.ReachError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.code >= 300 && tt.code < 400 {
					w.Header().Set("Location", "https://example.com/moved")
				}
				w.WriteHeader(tt.code)
			}))
			defer srv.Close()

			got := newChecker().Check(context.Background(), srv.URL)
			if got.Status != tt.want {
				t.Errorf("status = %s, want %s", got.Status, tt.want)
			}
			if got.HTTPStatus != tt.code {
				t.Errorf("http status = %d, want %d", got.HTTPStatus, tt.code)
			}
			if got.CheckedAt.IsZero() {
				t.Error("CheckedAt not set")
			}
		})
	}
}

func TestCheckRecordsRedirectTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "https://example.com/moved")
		w.WriteHeader(http.StatusMovedPermanently)
	}))
	defer srv.Close()

	got := newChecker().Check(context.Background(), srv.URL)
	if got.FinalURL != "https://example.com/moved" {
		t.Errorf("FinalURL = %q", got.FinalURL)
	}
}

func TestCheckFallsBackToGet(t *testing.T) {
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	got := newChecker().Check(context.Background(), srv.URL)
	if got.Status != types.ReachOK {
		t.Fatalf("status = %s, want ok", got.Status)
	}
	if len(methods) != 2 || methods[0] != http.MethodHead || methods[1] != http.MethodGet {
		t.Errorf("methods = %v, want [HEAD GET]", methods)
	}
}

func TestCheckNetworkFailure(t *testing.T) {
	got := newChecker().Check(context.Background(), "http://127.0.0.1:1/nope")
	if got.Status != types.ReachError {
		t.Fatalf("status = %s, want error", got.Status)
	}
	if got.Error == "" {
		t.Error("expected error description")
	}
}

func TestCheckSendsUserAgent(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	newChecker().Check(context.Background(), srv.URL)
	if ua != "trend-engine-test/0.1" {
		t.Errorf("User-Agent = %q", ua)
	}
}
