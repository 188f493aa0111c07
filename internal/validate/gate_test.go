// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"strings"
	"testing"

	"github.com/pdiddy/trend-engine/pkg/types"
)

const substantiveReason = "Multiple outlets independently confirmed the recall, including the manufacturer's own advisory published the same day."

func gateRecord() types.Record {
	return types.Record{
		ID:               "t3_abc",
		ValidationStatus: types.StatusVerified,
		ItemType:         types.ItemNews,
		Reachability:     &types.ReachabilityCheck{Status: types.ReachOK},
		Sources:          []types.Source{{URL: "https://reuters.com/article", Type: types.SourceSecondary}},
		ValidationReason: substantiveReason,
	}
}

func TestGateAcceptsWhenAllConditionsHold(t *testing.T) {
	r := gateRecord()
	applyGate(&r, 40)

	if r.ValidationStatus != types.StatusVerified {
		t.Fatalf("expected verified, got %s (reasons: %v)", r.ValidationStatus, r.DowngradeReasons)
	}
	if len(r.DowngradeReasons) != 0 {
		t.Errorf("unexpected downgrade reasons: %v", r.DowngradeReasons)
	}
}

func TestGateDowngrades(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*types.Record)
		wantReason string
	}{
		{
			name:       "unreachable discovery URL",
			mutate:     func(r *types.Record) { r.Reachability.Status = types.ReachNotFound },
			wantReason: "not reachable",
		},
		{
			name:       "rate limited counts as unreachable",
			mutate:     func(r *types.Record) { r.Reachability.Status = types.ReachRateLimited },
			wantReason: "not reachable",
		},
		{
			name:       "missing reachability check",
			mutate:     func(r *types.Record) { r.Reachability = nil },
			wantReason: "not reachable",
		},
		{
			name:       "no sources",
			mutate:     func(r *types.Record) { r.Sources = nil },
			wantReason: "no independent sources",
		},
		{
			name:       "thin justification",
			mutate:     func(r *types.Record) { r.ValidationReason = "seems right" },
			wantReason: "justification under",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gateRecord()
			tt.mutate(&r)
			applyGate(&r, 40)

			if r.ValidationStatus != types.StatusUnverifiable {
				t.Fatalf("expected unverifiable, got %s", r.ValidationStatus)
			}
			found := false
			for _, reason := range r.DowngradeReasons {
				if strings.Contains(reason, tt.wantReason) {
					found = true
				}
			}
			if !found {
				t.Errorf("downgrade reasons %v do not mention %q", r.DowngradeReasons, tt.wantReason)
			}
		})
	}
}

func TestGateRecordsEveryFailedCondition(t *testing.T) {
	r := gateRecord()
	r.Reachability.Status = types.ReachNotFound
	r.Sources = nil
	r.ValidationReason = "ok"
	applyGate(&r, 40)

	if len(r.DowngradeReasons) != 3 {
		t.Fatalf("expected 3 downgrade reasons, got %v", r.DowngradeReasons)
	}
}

func TestGateExemptsNonNewsItems(t *testing.T) {
	for _, it := range []types.ItemType{types.ItemDiscussion, types.ItemQuestion, types.ItemOpinion} {
		r := gateRecord()
		r.ItemType = it
		r.Reachability = nil
		r.Sources = nil
		r.ValidationReason = ""
		applyGate(&r, 40)

		if r.ValidationStatus != types.StatusVerified {
			t.Errorf("%s item should be exempt from the gate, got %s", it, r.ValidationStatus)
		}
	}
}

func TestGateLeavesDebunkedAlone(t *testing.T) {
	r := gateRecord()
	r.ValidationStatus = types.StatusDebunked
	r.Sources = nil
	applyGate(&r, 40)

	if r.ValidationStatus != types.StatusDebunked {
		t.Errorf("gate must not touch debunked records, got %s", r.ValidationStatus)
	}
}
