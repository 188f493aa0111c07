// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest discovers candidate postings from community feeds,
// filters them to the collection window, and assigns the stable
// identities the rest of the pipeline keys on.
// Implements: prd001-ingestion;
//
//	docs/ARCHITECTURE § Ingestion.
package ingest

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/trend-engine/internal/pipeline"
	"github.com/pdiddy/trend-engine/pkg/types"
)

// Fetcher abstracts the feed client so tests can supply a mock.
type Fetcher interface {
	Fetch(ctx context.Context, subreddit string) ([]types.Record, error)
}

// Deduper reports which posting identifiers past runs already covered.
// The coverage archive implements it. Per prd007-archive R2.1.
type Deduper interface {
	Seen(ids []string) (map[string]bool, error)
}

// Stage is the ingestion pipeline stage.
type Stage struct {
	fetcher Fetcher
	deduper Deduper
	cfg     types.IngestConfig

	// now is replaceable in tests so window math is deterministic.
	now func() time.Time
}

// New returns the ingest stage. deduper may be nil when no coverage
// archive is configured.
func New(fetcher Fetcher, deduper Deduper, cfg types.IngestConfig) *Stage {
	return &Stage{fetcher: fetcher, deduper: deduper, cfg: cfg, now: time.Now}
}

func (s *Stage) Name() string         { return "ingest" }
func (s *Stage) ArtifactName() string { return "1_raw_feed.json" }

func (s *Stage) Meta() pipeline.Meta {
	return pipeline.Meta{
		Introduces: []string{
			"id", "title", "subreddit", "author", "discovery_url",
			"published_at", "ingest_order", "outbound_url",
		},
	}
}

// Run polls every configured community. One dead feed is a warning;
// the run only halts when every feed fails, because an empty first
// checkpoint would make the rest of the pipeline a no-op (R1.4).
func (s *Stage) Run(ctx context.Context, _ []types.Record, w io.Writer) ([]types.Record, error) {
	if len(s.cfg.Subreddits) == 0 {
		return nil, fmt.Errorf("no communities configured")
	}

	var collected []types.Record
	failed := 0
	for i, sub := range s.cfg.Subreddits {
		if i > 0 && s.cfg.FeedDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.cfg.FeedDelay):
			}
		}

		records, err := s.fetcher.Fetch(ctx, sub)
		if err != nil {
			failed++
			fmt.Fprintf(w, "warning: %v\n", err)
			continue
		}
		fmt.Fprintf(w, "r/%s: %d postings\n", sub, len(records))
		collected = append(collected, records...)
	}
	if failed == len(s.cfg.Subreddits) {
		return nil, fmt.Errorf("all %d feeds failed", failed)
	}

	collected = s.applyWindow(collected)
	collected = dedupeByID(collected)

	if s.deduper != nil {
		var err error
		collected, err = s.dropCovered(collected, w)
		if err != nil {
			fmt.Fprintf(w, "warning: coverage lookup failed, keeping all postings: %v\n", err)
		}
	}

	for i := range collected {
		collected[i].IngestOrder = i
	}

	fmt.Fprintf(w, "ingested %d postings\n", len(collected))
	return collected, nil
}

// applyWindow keeps postings whose publication time falls inside the
// collection window. Postings the feed dated in the future or not at
// all are discarded with everything else outside the window (R1.2).
func (s *Stage) applyWindow(records []types.Record) []types.Record {
	startHours := s.cfg.WindowStartHours
	if startHours <= 0 {
		startHours = 72
	}
	endHours := s.cfg.WindowEndHours
	if endHours < 0 {
		endHours = 24
	}

	now := s.now().UTC()
	windowStart := now.Add(-time.Duration(startHours) * time.Hour)
	windowEnd := now.Add(-time.Duration(endHours) * time.Hour)

	kept := records[:0]
	for _, r := range records {
		if r.PublishedAt.Before(windowStart) || r.PublishedAt.After(windowEnd) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// dedupeByID drops repeat identifiers within one run, keeping the
// first occurrence. Cross-posted entries show up in several feeds with
// the same ID (R2.3).
func dedupeByID(records []types.Record) []types.Record {
	seen := make(map[string]bool, len(records))
	kept := records[:0]
	for _, r := range records {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		kept = append(kept, r)
	}
	return kept
}

// dropCovered filters out postings the coverage archive already saw in
// past runs.
func (s *Stage) dropCovered(records []types.Record, w io.Writer) ([]types.Record, error) {
	ids := make([]string, len(records))
	for i := range records {
		ids[i] = records[i].ID
	}
	covered, err := s.deduper.Seen(ids)
	if err != nil {
		return records, err
	}

	kept := records[:0]
	dropped := 0
	for _, r := range records {
		if covered[r.ID] {
			dropped++
			continue
		}
		kept = append(kept, r)
	}
	if dropped > 0 {
		fmt.Fprintf(w, "skipping %d postings covered in earlier runs\n", dropped)
	}
	return kept, nil
}
