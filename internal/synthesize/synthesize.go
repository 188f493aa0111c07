// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesize turns curated records into platform copy. Every
// record gets its own collaborator call; a bad draft degrades that one
// record and leaves the rest of the lineup intact.
// Implements: prd005-synthesis;
//
//	docs/ARCHITECTURE § Synthesis.
package synthesize

import (
	"context"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/trend-engine/internal/pipeline"
	"github.com/pdiddy/trend-engine/pkg/types"
)

// Short-form length ceiling, counted in runes the way the platform
// counts them.
const maxPostLength = 280

const (
	minSlides = 5
	maxSlides = 7
)

// Backend abstracts the copywriting collaborator so tests can supply a
// mock. Per Strategy pattern (prd005-synthesis R3.1).
type Backend interface {
	Draft(ctx context.Context, r types.Record) (types.SocialDraft, error)
}

// Stage is the copy-synthesis pipeline stage.
type Stage struct {
	backend Backend
	cfg     types.SynthesisConfig
}

// New returns the synthesize stage.
func New(backend Backend, cfg types.SynthesisConfig) *Stage {
	return &Stage{backend: backend, cfg: cfg}
}

func (s *Stage) Name() string         { return "synthesize" }
func (s *Stage) ArtifactName() string { return "5_social_drafts.json" }

func (s *Stage) Meta() pipeline.Meta {
	return pipeline.Meta{
		Introduces: []string{"social_draft"},
	}
}

// Run drafts copy for every record. Transport failures and drafts that
// break the copy rules both degrade per record: the draft field stays
// absent and the error travels with the record (R4.1, R4.2).
func (s *Stage) Run(ctx context.Context, records []types.Record, w io.Writer) ([]types.Record, error) {
	drafted := 0
	for i := range records {
		if i > 0 && s.cfg.CallDelay > 0 {
			if err := sleep(ctx, s.cfg.CallDelay); err != nil {
				return nil, err
			}
		}

		draft, err := s.backend.Draft(ctx, records[i])
		if err != nil {
			fmt.Fprintf(w, "warning: drafting %s: %v\n", records[i].ID, err)
			records[i].AttachError(s.Name(), types.ErrTransient, fmt.Sprintf("draft call failed: %v", err))
			continue
		}

		if reason := checkDraft(&draft); reason != "" {
			fmt.Fprintf(w, "warning: draft for %s rejected: %s\n", records[i].ID, reason)
			records[i].AttachError(s.Name(), types.ErrMalformed, "draft rejected: "+reason)
			continue
		}

		records[i].SocialDraft = &draft
		drafted++
	}

	fmt.Fprintf(w, "drafted copy for %d of %d records\n", drafted, len(records))
	return records, nil
}

// checkDraft validates a draft against the copy rules. It returns an
// empty string when the draft is acceptable.
func checkDraft(d *types.SocialDraft) string {
	if d.XPostA == "" || d.XPostB == "" {
		return "missing short-form variant"
	}
	if n := utf8.RuneCountInString(d.XPostA); n > maxPostLength {
		return fmt.Sprintf("variant A is %d characters", n)
	}
	if n := utf8.RuneCountInString(d.XPostB); n > maxPostLength {
		return fmt.Sprintf("variant B is %d characters", n)
	}

	if len(d.CarouselSlides) > 0 {
		if len(d.CarouselSlides) < minSlides || len(d.CarouselSlides) > maxSlides {
			return fmt.Sprintf("%d carousel slides, want %d-%d", len(d.CarouselSlides), minSlides, maxSlides)
		}
		for i, slide := range d.CarouselSlides {
			if slide.Number != i+1 {
				return fmt.Sprintf("slide %d numbered %d", i+1, slide.Number)
			}
			if slide.Text == "" {
				return fmt.Sprintf("slide %d is empty", i+1)
			}
		}
	}
	return ""
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
