// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score ranks validated records by a composite of two signals:
// a mandatory model-graded virality score and an optional search-
// interest score behind a circuit breaker.
// Implements: prd003-scoring;
//
//	docs/ARCHITECTURE § Scoring.
package score

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/trend-engine/internal/pipeline"
	"github.com/pdiddy/trend-engine/pkg/types"
)

// PrimaryBackend grades virality for one record. Per Strategy pattern
// (prd003-scoring R2.1).
type PrimaryBackend interface {
	ScoreVirality(ctx context.Context, r types.Record) (types.SignalScore, error)
}

// SecondaryBackend fetches search interest for a keyword set.
type SecondaryBackend interface {
	Interest(ctx context.Context, keywords []string) (types.SignalScore, error)
}

// Stage is the trend-scoring pipeline stage.
type Stage struct {
	primary   PrimaryBackend
	secondary SecondaryBackend
	cfg       types.ScoringConfig
}

// New returns the score stage. secondary may be nil when the interest
// signal is disabled for the run.
func New(primary PrimaryBackend, secondary SecondaryBackend, cfg types.ScoringConfig) *Stage {
	return &Stage{primary: primary, secondary: secondary, cfg: cfg}
}

func (s *Stage) Name() string         { return "score" }
func (s *Stage) ArtifactName() string { return "3_ranked_trends.json" }

func (s *Stage) Meta() pipeline.Meta {
	return pipeline.Meta{
		Introduces: []string{"primary_score", "secondary_score", "composite_score"},
		Reorders:   true,
	}
}

// Run scores every record and re-sorts by composite. The primary
// signal is mandatory: a record the grader cannot score halts the run,
// because a ranking with holes in its primary dimension is not a
// ranking (R2.1). The secondary signal degrades per record and trips a
// breaker after consecutive failures (R3.3, R3.4).
func (s *Stage) Run(ctx context.Context, records []types.Record, w io.Writer) ([]types.Record, error) {
	breaker := NewBreaker(s.cfg.BreakerThreshold)
	secondaryOff := !s.cfg.EnableTrends || s.secondary == nil

	for i := range records {
		if i > 0 && s.cfg.CallDelay > 0 {
			if err := sleep(ctx, s.cfg.CallDelay); err != nil {
				return nil, err
			}
		}

		primary, err := s.primary.ScoreVirality(ctx, records[i])
		if err != nil {
			return nil, fmt.Errorf("grading %s: %w", records[i].ID, err)
		}
		records[i].PrimaryScore = &primary

		records[i].SecondaryScore = s.fetchSecondary(ctx, &records[i], breaker, secondaryOff, w)
		records[i].CompositeScore = types.Value(Composite(records[i].PrimaryScore, records[i].SecondaryScore))
	}

	Rank(records)

	fmt.Fprintf(w, "scored %d records", len(records))
	if !breaker.Allow() {
		fmt.Fprintf(w, " (interest signal tripped off mid-run)")
	}
	fmt.Fprintln(w)
	return records, nil
}

// fetchSecondary always returns a score object; when the signal is
// off, tripped, or failing, the object is disabled with an Error
// marker so downstream consumers never branch on nil (R3.4).
func (s *Stage) fetchSecondary(ctx context.Context, r *types.Record, breaker *Breaker, off bool, w io.Writer) *types.SignalScore {
	if off {
		return &types.SignalScore{Enabled: false, Error: "interest signal disabled"}
	}
	if !breaker.Allow() {
		return &types.SignalScore{Enabled: false, Error: "interest signal circuit open"}
	}

	keywords := ExtractKeywords(r.Title)
	if len(keywords) == 0 {
		return &types.SignalScore{Enabled: false, Error: "no keywords in title"}
	}

	interest, err := s.secondary.Interest(ctx, keywords)
	if err != nil {
		breaker.RecordFailure()
		fmt.Fprintf(w, "warning: interest lookup for %s: %v\n", r.ID, err)
		r.AttachError(s.Name(), types.ErrTransient, fmt.Sprintf("interest lookup failed: %v", err))
		return &types.SignalScore{Enabled: false, Error: err.Error()}
	}
	breaker.RecordSuccess()
	return &interest
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
