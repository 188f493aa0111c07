// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package curate narrows the ranked record set to the top picks. A
// collaborator chooses from the leading candidates under a strict
// selection contract; any contract violation falls back to a
// deterministic top-N cut so the stage always yields a usable result.
// Implements: prd004-curation;
//
//	docs/ARCHITECTURE § Curation.
package curate

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/pdiddy/trend-engine/internal/pipeline"
	"github.com/pdiddy/trend-engine/pkg/types"
)

// candidateFactor sizes the candidate pool shown to the collaborator
// relative to the requested pick count. Wide enough for editorial
// judgment, narrow enough that rank still dominates.
const candidateFactor = 2

// Backend abstracts the curation collaborator so tests can supply a
// mock. Per Strategy pattern (prd004-curation R2.1).
type Backend interface {
	Curate(ctx context.Context, candidates []Candidate, picks int) ([]Selection, error)
}

// Candidate is one posting as presented to the collaborator. Index is
// 1-based within the candidate list.
type Candidate struct {
	Index     int     `json:"index"`
	Title     string  `json:"title"`
	Subreddit string  `json:"subreddit"`
	Claim     string  `json:"claim,omitempty"`
	Composite float64 `json:"composite_score"`
}

// Selection is one collaborator pick.
type Selection struct {
	Index     int    `json:"index"`
	Rationale string `json:"rationale"`
	Angle     string `json:"angle"`
}

// ContractViolationError reports a collaborator response that broke
// the selection contract. It triggers the fallback, never a retry with
// the same prompt.
type ContractViolationError struct {
	Reason string
}

func (e *ContractViolationError) Error() string {
	return "curation contract violation: " + e.Reason
}

// Stage is the curation pipeline stage.
type Stage struct {
	backend Backend
	cfg     types.CurationConfig
}

// New returns the curate stage.
func New(backend Backend, cfg types.CurationConfig) *Stage {
	return &Stage{backend: backend, cfg: cfg}
}

func (s *Stage) Name() string         { return "curate" }
func (s *Stage) ArtifactName() string { return "4_curated_top5.json" }

func (s *Stage) Meta() pipeline.Meta {
	return pipeline.Meta{
		Introduces: []string{"selection_rationale", "selection_angle", "rationale_source"},
		Filters:    true,
	}
}

// Run selects the top picks. Records arrive ranked; the collaborator
// sees the top candidateFactor×N and must return exactly N distinct
// in-range picks (R2.2, R2.3). Violations and transport failures both
// land on the deterministic fallback (R3.1).
func (s *Stage) Run(ctx context.Context, records []types.Record, w io.Writer) ([]types.Record, error) {
	picks := s.cfg.TopN
	if picks <= 0 {
		picks = 5
	}

	if len(records) <= picks {
		if len(records) < picks {
			fmt.Fprintf(w, "warning: only %d records available for %d picks\n", len(records), picks)
		}
		return fallback(records, len(records)), nil
	}

	pool := min(candidateFactor*picks, len(records))
	candidates := make([]Candidate, pool)
	for i := 0; i < pool; i++ {
		claim, _ := records[i].ClaimSummary.Get()
		composite, _ := records[i].CompositeScore.Get()
		candidates[i] = Candidate{
			Index:     i + 1,
			Title:     records[i].Title,
			Subreddit: records[i].Subreddit,
			Claim:     claim,
			Composite: composite,
		}
	}

	selections, err := s.backend.Curate(ctx, candidates, picks)
	if err == nil {
		err = validateSelections(selections, picks, pool)
	}
	if err != nil {
		fmt.Fprintf(w, "warning: %v; using rank-order fallback\n", err)
		return fallback(records, picks), nil
	}

	// Picks keep their rank order regardless of the order the
	// collaborator listed them in.
	sort.Slice(selections, func(i, j int) bool { return selections[i].Index < selections[j].Index })

	out := make([]types.Record, 0, picks)
	for _, sel := range selections {
		r := records[sel.Index-1]
		r.SelectionRationale = sel.Rationale
		r.SelectionAngle = sel.Angle
		r.RationaleSource = types.RationaleModel
		out = append(out, r)
	}
	fmt.Fprintf(w, "curated %d of %d candidates\n", len(out), pool)
	return out, nil
}

// validateSelections enforces the selection contract: exactly picks
// selections, each index distinct and within the candidate pool.
func validateSelections(selections []Selection, picks, pool int) error {
	if len(selections) != picks {
		return &ContractViolationError{Reason: fmt.Sprintf("%d selections returned, contract requires %d", len(selections), picks)}
	}
	seen := make(map[int]bool, picks)
	for _, sel := range selections {
		if sel.Index < 1 || sel.Index > pool {
			return &ContractViolationError{Reason: fmt.Sprintf("index %d outside candidate range 1..%d", sel.Index, pool)}
		}
		if seen[sel.Index] {
			return &ContractViolationError{Reason: fmt.Sprintf("index %d selected twice", sel.Index)}
		}
		seen[sel.Index] = true
	}
	return nil
}

// fallback takes the first n records in rank order with a fallback
// rationale marker.
func fallback(records []types.Record, n int) []types.Record {
	out := make([]types.Record, 0, n)
	for i := 0; i < n; i++ {
		r := records[i]
		r.SelectionRationale = fmt.Sprintf("ranked #%d by composite score", i+1)
		r.SelectionAngle = ""
		r.RationaleSource = types.RationaleFallback
		out = append(out, r)
	}
	return out
}
