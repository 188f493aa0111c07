// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"sort"

	"github.com/pdiddy/trend-engine/pkg/types"
)

// Composite weighting. Fixed by design review, not configuration:
// runs must rank identically given identical inputs.
// Per prd003-scoring R4.1.
const (
	primaryWeight   = 0.70
	secondaryWeight = 0.30
)

// Composite derives the ranking score from the two signals. The
// secondary signal only participates when it is enabled and its
// confidence is better than low; otherwise the primary value stands
// alone (R4.2).
func Composite(primary, secondary *types.SignalScore) float64 {
	if secondary != nil && secondary.Enabled && secondary.Confidence != types.TierLow {
		return primaryWeight*primary.Value + secondaryWeight*secondary.Value
	}
	return primary.Value
}

// Rank sorts records by composite score descending. Equal scores keep
// ingestion order, so a re-run over the same checkpoint produces the
// same ranking byte for byte (R4.3).
func Rank(records []types.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		si, iok := records[i].CompositeScore.Get()
		sj, jok := records[j].CompositeScore.Get()
		if iok != jok {
			return iok // scored records rank above unscored ones
		}
		if si != sj {
			return si > sj
		}
		return records[i].IngestOrder < records[j].IngestOrder
	})
}
