// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package checkpoint persists stage output as the next stage's durable
// input. Checkpoints are self-describing (stage identity and schema
// version travel in the file), written atomically, and validated
// structurally on load.
// Implements: prd006-pipeline (R3);
//
//	docs/ARCHITECTURE § Checkpoint Store.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/trend-engine/pkg/types"
)

// CorruptError reports a checkpoint that failed structural validation:
// unrecognized schema version, payload that is not a record list, or
// records missing the identifier field. Always fatal for the stage
// that detects it, never silently repaired.
type CorruptError struct {
	Path   string
	Reason string
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt checkpoint %s: %s", e.Path, e.Reason)
}

// Ref identifies a committed checkpoint.
type Ref struct {
	Path    string
	StageID string
}

// Store reads and writes checkpoints under a single output directory.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir. The directory is created on
// first save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the output directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the location an artifact name resolves to.
func (s *Store) Path(artifactName string) string {
	return filepath.Join(s.dir, artifactName)
}

// Save serializes records under a versioned envelope and commits the
// file atomically: the payload goes to a temp file in the same
// directory and is renamed into place, so a crash mid-write never
// corrupts a previously committed checkpoint.
func (s *Store) Save(stageID, artifactName string, records []types.Record) (Ref, error) {
	if err := validateIDs(records); err != nil {
		return Ref{}, fmt.Errorf("refusing to save %s: %w", artifactName, err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Ref{}, fmt.Errorf("creating output directory %s: %w", s.dir, err)
	}

	cp := types.Checkpoint{
		StageID:       stageID,
		SchemaVersion: types.SchemaVersion,
		GeneratedAt:   time.Now().UTC(),
		Records:       records,
	}

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return Ref{}, fmt.Errorf("marshaling checkpoint: %w", err)
	}

	destPath := s.Path(artifactName)

	tmpFile, err := os.CreateTemp(s.dir, ".checkpoint-*.tmp")
	if err != nil {
		return Ref{}, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return Ref{}, fmt.Errorf("writing checkpoint: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return Ref{}, fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return Ref{}, fmt.Errorf("renaming temp file: %w", err)
	}

	return Ref{Path: destPath, StageID: stageID}, nil
}

// Load reads a checkpoint file, validating structure before decoding:
// the schema version must be recognized, the payload must be a list of
// objects, and every object must carry a non-empty identifier.
func (s *Store) Load(path string) (*types.Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint %s: %w", path, err)
	}

	var raw struct {
		StageID       string            `json:"stage_id"`
		SchemaVersion string            `json:"schema_version"`
		Records       []json.RawMessage `json:"records"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &CorruptError{Path: path, Reason: fmt.Sprintf("not a checkpoint envelope: %v", err)}
	}

	if raw.SchemaVersion != types.SchemaVersion {
		return nil, &CorruptError{
			Path:   path,
			Reason: fmt.Sprintf("unrecognized schema version %q (want %q)", raw.SchemaVersion, types.SchemaVersion),
		}
	}
	if raw.StageID == "" {
		return nil, &CorruptError{Path: path, Reason: "missing stage_id"}
	}

	seen := make(map[string]bool, len(raw.Records))
	for i, rec := range raw.Records {
		fields, err := recordFields(rec)
		if err != nil {
			return nil, &CorruptError{Path: path, Reason: fmt.Sprintf("record %d is not an object: %v", i, err)}
		}
		id, ok := fields["id"]
		if !ok || string(id) == `""` || string(id) == "null" {
			return nil, &CorruptError{Path: path, Reason: fmt.Sprintf("record %d missing identifier", i)}
		}
		if seen[string(id)] {
			return nil, &CorruptError{Path: path, Reason: fmt.Sprintf("duplicate identifier %s", id)}
		}
		seen[string(id)] = true
	}

	var cp types.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, &CorruptError{Path: path, Reason: fmt.Sprintf("decoding records: %v", err)}
	}
	return &cp, nil
}

// validateIDs enforces identifier uniqueness within one checkpoint.
func validateIDs(records []types.Record) error {
	seen := make(map[string]bool, len(records))
	for i, r := range records {
		if r.ID == "" {
			return fmt.Errorf("record %d has no identifier", i)
		}
		if seen[r.ID] {
			return fmt.Errorf("duplicate record identifier %q", r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}

// recordFields decodes one record into its raw field map. Field
// presence in this map is the propagation check's notion of presence:
// an explicit null is present, an omitted field is not.
func recordFields(raw json.RawMessage) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
