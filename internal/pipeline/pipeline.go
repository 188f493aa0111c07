// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline defines the stage contract and the orchestrator
// that drives stages in order, committing a checkpoint after each one.
// Implements: prd006-pipeline;
//
//	docs/ARCHITECTURE § Orchestrator.
package pipeline

import (
	"context"
	"io"

	"github.com/pdiddy/trend-engine/pkg/types"
)

// Meta describes how a stage transforms the record stream. The
// orchestrator uses it to decide which fields must survive each
// transition and whether filtering or reordering is legitimate.
type Meta struct {
	// Introduces lists the record fields (JSON names) this stage adds.
	Introduces []string

	// Filters is true when the stage may drop records.
	Filters bool

	// Reorders is true when the stage may change record order.
	Reorders bool
}

// Stage is one step of the refinement pipeline. A stage receives the
// full record set from its predecessor's checkpoint and returns the
// enriched set. Returning a non-nil error halts the run; per-record
// problems belong on the record itself via AttachError, not in the
// return value.
type Stage interface {
	// Name is the stable stage identifier used in checkpoints, CLI
	// dispatch, and record error attribution.
	Name() string

	// ArtifactName is the checkpoint file this stage commits.
	ArtifactName() string

	Meta() Meta

	Run(ctx context.Context, records []types.Record, w io.Writer) ([]types.Record, error)
}
