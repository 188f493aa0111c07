// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SchemaVersion is the checkpoint format version this revision reads
// and writes. Loading a checkpoint with a different version fails
// rather than guessing. Per prd006-pipeline R3.2.
const SchemaVersion = "2.0"

// Checkpoint is the durable hand-off artifact between stages: an
// ordered record sequence wrapped in self-describing envelope
// metadata. Checkpoints are immutable once written; re-running a
// stage produces a new file, never an in-place edit.
// Per prd006-pipeline R3.1-R3.4.
type Checkpoint struct {
	// StageID names the stage that produced this checkpoint.
	StageID string `json:"stage_id" yaml:"stage_id"`

	// SchemaVersion tags the record format.
	SchemaVersion string `json:"schema_version" yaml:"schema_version"`

	// GeneratedAt is the write time in UTC.
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`

	// Records is the ordered payload. Order is stable across stages
	// except where a stage documents re-sorting or filtering.
	Records []Record `json:"records" yaml:"records"`
}
