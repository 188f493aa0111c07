// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate fact-checks ingested postings: it probes discovery
// URLs, sends posting batches to a search-grounded collaborator,
// re-checks the collaborator's verdicts against the acceptance
// conditions, and filters the survivors.
// Implements: prd002-factcheck;
//
//	docs/ARCHITECTURE § Validation.
package validate

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/pdiddy/trend-engine/internal/pipeline"
	"github.com/pdiddy/trend-engine/pkg/types"
)

// Backend abstracts the fact-check collaborator so tests can supply a
// mock. Per Strategy pattern (prd002-factcheck R5.1).
type Backend interface {
	Validate(ctx context.Context, batch []BatchItem) ([]BatchResult, error)
}

// BatchItem is one posting as presented to the collaborator. Index is
// 1-based within the batch.
type BatchItem struct {
	Index       int    `json:"index"`
	Title       string `json:"title"`
	Subreddit   string `json:"subreddit"`
	OutboundURL string `json:"outbound_url,omitempty"`
}

// BatchResult is the collaborator's verdict for one posting.
type BatchResult struct {
	Index        int            `json:"index"`
	Status       string         `json:"status"`
	ItemType     string         `json:"item_type"`
	ClaimSummary *string        `json:"claim_summary"`
	Reason       string         `json:"reason"`
	Sources      []types.Source `json:"sources"`
}

// Stage is the fact-check pipeline stage.
type Stage struct {
	backend Backend
	checker *LinkChecker
	cfg     types.ValidationConfig
}

// New returns the validate stage. A nil checker disables reachability
// probing, which marks every record's discovery URL as unchecked.
func New(backend Backend, checker *LinkChecker, cfg types.ValidationConfig) *Stage {
	return &Stage{backend: backend, checker: checker, cfg: cfg}
}

func (s *Stage) Name() string         { return "validate" }
func (s *Stage) ArtifactName() string { return "2_validated_facts.json" }

func (s *Stage) Meta() pipeline.Meta {
	return pipeline.Meta{
		Introduces: []string{
			"reachability_check", "validation_status", "item_type",
			"claim_summary", "validation_reason", "downgrade_reasons",
			"search_query", "search_url", "sources",
		},
		Filters: true,
	}
}

// Run executes the stage: reachability probes first, then batched
// collaborator calls, then the acceptance gate, then the status
// filter. A failed batch degrades its records to unverifiable with an
// attached error; it never aborts the stage (R5.4).
func (s *Stage) Run(ctx context.Context, records []types.Record, w io.Writer) ([]types.Record, error) {
	records = s.checkLinks(ctx, records, w)

	if s.cfg.DropInaccessible {
		kept := records[:0]
		for _, r := range records {
			st := types.ReachStatus("")
			if r.Reachability != nil {
				st = r.Reachability.Status
			}
			if st == types.ReachNotFound || st == types.ReachForbidden {
				fmt.Fprintf(w, "dropping %s: discovery URL %s\n", r.ID, st)
				continue
			}
			kept = append(kept, r)
		}
		records = kept
	}

	for i := range records {
		records[i].SearchQuery = records[i].Title
		records[i].SearchURL = searchURL(records[i].Title)
	}

	batchSize := s.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 5
	}
	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		s.runBatch(ctx, records[start:end], w)

		if end < len(records) && s.cfg.BatchDelay > 0 {
			if err := sleep(ctx, s.cfg.BatchDelay); err != nil {
				return nil, err
			}
		}
	}

	minReason := s.cfg.MinReasonLength
	if minReason <= 0 {
		minReason = 40
	}
	for i := range records {
		applyGate(&records[i], minReason)
	}

	keep := s.cfg.KeepStatuses
	if len(keep) == 0 {
		keep = []types.ValidationStatus{types.StatusVerified}
	}
	kept := make([]types.Record, 0, len(records))
	for _, r := range records {
		for _, st := range keep {
			if r.ValidationStatus == st {
				kept = append(kept, r)
				break
			}
		}
	}

	fmt.Fprintf(w, "validated %d records, kept %d\n", len(records), len(kept))
	return kept, nil
}

// checkLinks probes each record's discovery URL with the configured
// inter-probe delay. A cancelled context stops probing; remaining
// records are left unchecked rather than mislabeled.
func (s *Stage) checkLinks(ctx context.Context, records []types.Record, w io.Writer) []types.Record {
	if s.checker == nil {
		return records
	}
	for i := range records {
		if ctx.Err() != nil {
			fmt.Fprintf(w, "warning: link checking interrupted after %d of %d records\n", i, len(records))
			break
		}
		check := s.checker.Check(ctx, records[i].DiscoveryURL)
		records[i].Reachability = &check
		if check.Status == types.ReachError {
			fmt.Fprintf(w, "warning: probing %s: %s\n", records[i].ID, check.Error)
		}

		if i < len(records)-1 && s.cfg.LinkCheckDelay > 0 {
			if sleep(ctx, s.cfg.LinkCheckDelay) != nil {
				continue
			}
		}
	}
	return records
}

// runBatch calls the collaborator for one batch and folds verdicts
// back into the records by 1-based index.
func (s *Stage) runBatch(ctx context.Context, batch []types.Record, w io.Writer) {
	items := make([]BatchItem, len(batch))
	for i := range batch {
		items[i] = BatchItem{
			Index:     i + 1,
			Title:     batch[i].Title,
			Subreddit: batch[i].Subreddit,
		}
		if v, ok := batch[i].OutboundURL.Get(); ok {
			items[i].OutboundURL = v
		}
	}

	results, err := s.backend.Validate(ctx, items)
	if err != nil {
		fmt.Fprintf(w, "warning: fact-check batch failed: %v\n", err)
		for i := range batch {
			batch[i].ValidationStatus = types.StatusUnverifiable
			batch[i].DowngradeReasons = append(batch[i].DowngradeReasons, "fact-check collaborator unavailable")
			batch[i].AttachError(s.Name(), types.ErrTransient, err.Error())
		}
		return
	}

	seen := make(map[int]bool, len(results))
	for _, res := range results {
		if res.Index < 1 || res.Index > len(batch) || seen[res.Index] {
			fmt.Fprintf(w, "warning: fact-check verdict with bad index %d ignored\n", res.Index)
			continue
		}
		seen[res.Index] = true
		applyVerdict(&batch[res.Index-1], res, s.Name())
	}

	for i := range batch {
		if !seen[i+1] {
			batch[i].ValidationStatus = types.StatusUnverifiable
			batch[i].DowngradeReasons = append(batch[i].DowngradeReasons, "no verdict returned for posting")
			batch[i].AttachError(s.Name(), types.ErrMalformed, "collaborator returned no verdict for this posting")
		}
	}
}

// applyVerdict folds one collaborator verdict into a record,
// normalizing enum values and cleaning sources. Unknown enum values
// degrade the record instead of propagating free text downstream.
func applyVerdict(r *types.Record, res BatchResult, stage string) {
	switch types.ValidationStatus(res.Status) {
	case types.StatusVerified, types.StatusDebunked, types.StatusUnverifiable:
		r.ValidationStatus = types.ValidationStatus(res.Status)
	default:
		r.ValidationStatus = types.StatusUnverifiable
		r.AttachError(stage, types.ErrMalformed, fmt.Sprintf("unknown validation status %q", res.Status))
	}

	switch types.ItemType(res.ItemType) {
	case types.ItemNews, types.ItemDiscussion, types.ItemQuestion, types.ItemOpinion:
		r.ItemType = types.ItemType(res.ItemType)
	default:
		r.ItemType = types.ItemNews
	}

	if res.ClaimSummary != nil {
		r.ClaimSummary = types.Value(*res.ClaimSummary)
	} else {
		r.ClaimSummary = types.Null[string]()
	}
	r.ValidationReason = res.Reason
	r.Sources = cleanSources(res.Sources)
}

// searchURL builds the deterministic news-search URL recorded for
// manual revisiting.
func searchURL(title string) string {
	return "https://www.google.com/search?tbm=nws&q=" + url.QueryEscape(title)
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
