// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"fmt"
	"strings"

	"github.com/pdiddy/trend-engine/pkg/types"
)

// applyGate re-evaluates a collaborator "verified" verdict against the
// acceptance conditions and downgrades to unverifiable when any fails.
// The gate only tightens: it never promotes, and debunked verdicts
// pass through untouched. Non-news items are exempt because the
// conditions test evidence for a factual claim, which they do not
// carry. Per prd002-factcheck R4.3-R4.5.
func applyGate(r *types.Record, minReasonLength int) {
	if r.ValidationStatus != types.StatusVerified {
		return
	}
	if r.ItemType != types.ItemNews && r.ItemType != "" {
		return
	}

	var reasons []string

	if r.Reachability == nil || !r.Reachability.Status.Acceptable() {
		status := types.ReachError
		if r.Reachability != nil {
			status = r.Reachability.Status
		}
		reasons = append(reasons, fmt.Sprintf("discovery URL not reachable (%s)", status))
	}

	if len(r.Sources) == 0 {
		reasons = append(reasons, "no independent sources cited")
	}

	if len(strings.TrimSpace(r.ValidationReason)) < minReasonLength {
		reasons = append(reasons, fmt.Sprintf("justification under %d characters", minReasonLength))
	}

	if len(reasons) > 0 {
		r.ValidationStatus = types.StatusUnverifiable
		r.DowngradeReasons = append(r.DowngradeReasons, reasons...)
	}
}
