// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/pdiddy/trend-engine/pkg/types"
)

type mockBackend struct {
	verdicts func(batch []BatchItem) ([]BatchResult, error)
	calls    int
	batches  [][]BatchItem
}

func (m *mockBackend) Validate(_ context.Context, batch []BatchItem) ([]BatchResult, error) {
	m.calls++
	m.batches = append(m.batches, batch)
	return m.verdicts(batch)
}

func verifiedVerdicts(batch []BatchItem) ([]BatchResult, error) {
	results := make([]BatchResult, len(batch))
	for i := range batch {
		claim := "the claim"
		results[i] = BatchResult{
			Index:        i + 1,
			Status:       "verified",
			ItemType:     "news",
			ClaimSummary: &claim,
			Reason:       substantiveReason,
			Sources:      []types.Source{{URL: fmt.Sprintf("https://reuters.com/article/%d", i), Type: types.SourceSecondary}},
		}
	}
	return results, nil
}

func inputRecords(n int) []types.Record {
	recs := make([]types.Record, n)
	for i := range recs {
		recs[i] = types.Record{
			ID:          fmt.Sprintf("t3_%03d", i),
			Title:       fmt.Sprintf("Headline %d", i),
			Subreddit:   "technology",
			IngestOrder: i,
		}
		recs[i].Reachability = &types.ReachabilityCheck{Status: types.ReachOK}
	}
	return recs
}

func testCfg() types.ValidationConfig {
	return types.ValidationConfig{
		BatchSize:       5,
		MinReasonLength: 40,
	}
}

func TestRunKeepsVerifiedRecords(t *testing.T) {
	backend := &mockBackend{verdicts: verifiedVerdicts}
	// nil checker: reachability set up by the fixture.
	stage := New(backend, nil, testCfg())

	out, err := stage.Run(context.Background(), inputRecords(3), io.Discard)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 records, got %d", len(out))
	}
	for _, r := range out {
		if r.ValidationStatus != types.StatusVerified {
			t.Errorf("record %s: status %s", r.ID, r.ValidationStatus)
		}
		if r.SearchQuery == "" || !strings.Contains(r.SearchURL, "tbm=nws") {
			t.Errorf("record %s: search fields not populated", r.ID)
		}
		if _, ok := r.ClaimSummary.Get(); !ok {
			t.Errorf("record %s: claim summary missing", r.ID)
		}
	}
}

func TestRunBatchesBySize(t *testing.T) {
	backend := &mockBackend{verdicts: verifiedVerdicts}
	cfg := testCfg()
	cfg.BatchSize = 4
	stage := New(backend, nil, cfg)

	if _, err := stage.Run(context.Background(), inputRecords(10), io.Discard); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if backend.calls != 3 {
		t.Fatalf("expected 3 batches, got %d", backend.calls)
	}
	if len(backend.batches[0]) != 4 || len(backend.batches[2]) != 2 {
		t.Errorf("unexpected batch sizes: %d, %d, %d",
			len(backend.batches[0]), len(backend.batches[1]), len(backend.batches[2]))
	}
	// Indices restart at 1 for every batch.
	if backend.batches[1][0].Index != 1 {
		t.Errorf("second batch first index = %d, want 1", backend.batches[1][0].Index)
	}
}

func TestRunBatchFailureDegradesWithoutAborting(t *testing.T) {
	backend := &mockBackend{verdicts: func(batch []BatchItem) ([]BatchResult, error) {
		return nil, errors.New("upstream 429 persisted past retry")
	}}
	cfg := testCfg()
	cfg.KeepStatuses = []types.ValidationStatus{types.StatusVerified, types.StatusUnverifiable}
	stage := New(backend, nil, cfg)

	var buf strings.Builder
	out, err := stage.Run(context.Background(), inputRecords(2), &buf)
	if err != nil {
		t.Fatalf("batch failure must not abort the stage: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 surviving records, got %d", len(out))
	}
	for _, r := range out {
		if r.ValidationStatus != types.StatusUnverifiable {
			t.Errorf("record %s: status %s, want unverifiable", r.ID, r.ValidationStatus)
		}
		if !r.Degraded() {
			t.Errorf("record %s: expected attached error", r.ID)
		}
		if r.Errors[0].Kind != types.ErrTransient {
			t.Errorf("record %s: error kind %s", r.ID, r.Errors[0].Kind)
		}
	}
	if !strings.Contains(buf.String(), "warning:") {
		t.Error("expected a warning on the progress writer")
	}
}

func TestRunMissingVerdictIsMalformed(t *testing.T) {
	backend := &mockBackend{verdicts: func(batch []BatchItem) ([]BatchResult, error) {
		results, _ := verifiedVerdicts(batch)
		return results[:len(results)-1], nil // drop the last verdict
	}}
	cfg := testCfg()
	cfg.KeepStatuses = []types.ValidationStatus{types.StatusVerified, types.StatusUnverifiable}
	stage := New(backend, nil, cfg)

	out, err := stage.Run(context.Background(), inputRecords(3), io.Discard)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	last := out[len(out)-1]
	if last.ValidationStatus != types.StatusUnverifiable {
		t.Errorf("unanswered record status = %s", last.ValidationStatus)
	}
	if len(last.Errors) != 1 || last.Errors[0].Kind != types.ErrMalformed {
		t.Errorf("expected one malformed_result error, got %v", last.Errors)
	}
}

func TestRunOutOfRangeIndexIgnored(t *testing.T) {
	backend := &mockBackend{verdicts: func(batch []BatchItem) ([]BatchResult, error) {
		results, _ := verifiedVerdicts(batch)
		results[0].Index = 99
		return results, nil
	}}
	cfg := testCfg()
	cfg.KeepStatuses = []types.ValidationStatus{types.StatusVerified, types.StatusUnverifiable}
	stage := New(backend, nil, cfg)

	var buf strings.Builder
	out, err := stage.Run(context.Background(), inputRecords(2), &buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out[0].ValidationStatus != types.StatusUnverifiable {
		t.Errorf("record with misaddressed verdict should end unverifiable, got %s", out[0].ValidationStatus)
	}
	if !strings.Contains(buf.String(), "bad index") {
		t.Error("expected a bad-index warning")
	}
}

func TestRunDropsInaccessible(t *testing.T) {
	backend := &mockBackend{verdicts: verifiedVerdicts}
	cfg := testCfg()
	cfg.DropInaccessible = true
	stage := New(backend, nil, cfg)

	recs := inputRecords(3)
	recs[1].Reachability = &types.ReachabilityCheck{Status: types.ReachNotFound}

	out, err := stage.Run(context.Background(), recs, io.Discard)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected not_found record dropped, got %d survivors", len(out))
	}
	for _, r := range out {
		if r.ID == "t3_001" {
			t.Error("not_found record survived the filter")
		}
	}
	if len(backend.batches[0]) != 2 {
		t.Errorf("dropped record still sent to collaborator")
	}
}

// A verdict of verified does not survive the gate when the posting's
// own URL was dead, however good the citations look.
func TestRunUnreachablePostingEndsUnverifiable(t *testing.T) {
	backend := &mockBackend{verdicts: verifiedVerdicts}
	cfg := testCfg()
	cfg.KeepStatuses = []types.ValidationStatus{types.StatusVerified, types.StatusUnverifiable}
	stage := New(backend, nil, cfg)

	recs := inputRecords(1)
	recs[0].Reachability = &types.ReachabilityCheck{Status: types.ReachNotFound}

	out, err := stage.Run(context.Background(), recs, io.Discard)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out[0].ValidationStatus != types.StatusUnverifiable {
		t.Fatalf("status = %s, want unverifiable", out[0].ValidationStatus)
	}
	if len(out[0].DowngradeReasons) == 0 {
		t.Fatal("expected downgrade reasons")
	}
}

func TestRunFiltersToVerifiedByDefault(t *testing.T) {
	backend := &mockBackend{verdicts: func(batch []BatchItem) ([]BatchResult, error) {
		results, _ := verifiedVerdicts(batch)
		results[1].Status = "debunked"
		results[2].Status = "unverifiable"
		return results, nil
	}}
	stage := New(backend, nil, testCfg())

	out, err := stage.Run(context.Background(), inputRecords(3), io.Discard)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected only the verified record, got %d", len(out))
	}
	if out[0].ID != "t3_000" {
		t.Errorf("wrong survivor %s", out[0].ID)
	}
}

func TestRunUnknownStatusDegrades(t *testing.T) {
	backend := &mockBackend{verdicts: func(batch []BatchItem) ([]BatchResult, error) {
		results, _ := verifiedVerdicts(batch)
		results[0].Status = "plausible"
		return results, nil
	}}
	cfg := testCfg()
	cfg.KeepStatuses = []types.ValidationStatus{types.StatusUnverifiable}
	stage := New(backend, nil, cfg)

	out, err := stage.Run(context.Background(), inputRecords(1), io.Discard)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 1 || out[0].Errors[0].Kind != types.ErrMalformed {
		t.Fatalf("unknown status should degrade to unverifiable with a malformed_result error: %+v", out)
	}
}

func TestRunNullClaimSummarySerializesAsNull(t *testing.T) {
	backend := &mockBackend{verdicts: func(batch []BatchItem) ([]BatchResult, error) {
		results, _ := verifiedVerdicts(batch)
		results[0].ItemType = "discussion"
		results[0].ClaimSummary = nil
		return results, nil
	}}
	stage := New(backend, nil, testCfg())

	out, err := stage.Run(context.Background(), inputRecords(1), io.Discard)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out[0].ClaimSummary.IsZero() {
		t.Fatal("claim summary should be explicit null, not absent")
	}
	if _, ok := out[0].ClaimSummary.Get(); ok {
		t.Fatal("claim summary should be null for a no-claim posting")
	}
}
