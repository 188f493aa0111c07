// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package checkpoint

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/trend-engine/pkg/types"
)

func testRecords(ids ...string) []types.Record {
	recs := make([]types.Record, len(ids))
	for i, id := range ids {
		recs[i] = types.Record{ID: id, Title: "post " + id, IngestOrder: i}
	}
	return recs
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	ref, err := store.Save("ingest", "1_raw_feed.json", testRecords("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, "ingest", ref.StageID)

	cp, err := store.Load(ref.Path)
	require.NoError(t, err)
	assert.Equal(t, "ingest", cp.StageID)
	assert.Equal(t, types.SchemaVersion, cp.SchemaVersion)
	assert.False(t, cp.GeneratedAt.IsZero())
	require.Len(t, cp.Records, 2)
	assert.Equal(t, "a", cp.Records[0].ID)
	assert.Equal(t, 1, cp.Records[1].IngestOrder)
}

func TestSaveOverwritesAtomically(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Save("ingest", "1_raw_feed.json", testRecords("a"))
	require.NoError(t, err)
	ref, err := store.Save("ingest", "1_raw_feed.json", testRecords("a", "b", "c"))
	require.NoError(t, err)

	cp, err := store.Load(ref.Path)
	require.NoError(t, err)
	assert.Len(t, cp.Records, 3)
}

func TestInterruptedWriteLeavesCommittedFileIntact(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	ref, err := store.Save("ingest", "1_raw_feed.json", testRecords("a"))
	require.NoError(t, err)

	// A write that died before rename leaves only a temp file behind.
	orphan := filepath.Join(dir, ".checkpoint-999.tmp")
	require.NoError(t, os.WriteFile(orphan, []byte(`{"stage_id":"ing`), 0o644))

	cp, err := store.Load(ref.Path)
	require.NoError(t, err)
	assert.Len(t, cp.Records, 1)
	assert.Equal(t, "a", cp.Records[0].ID)
}

func TestSaveRejectsDuplicateIDs(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Save("ingest", "1_raw_feed.json", testRecords("a", "a"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestSaveRejectsEmptyID(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Save("ingest", "1_raw_feed.json", []types.Record{{Title: "no id"}})
	require.Error(t, err)
}

func TestLoadRejectsSchemaVersionMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "1_raw_feed.json")
	body := `{"stage_id":"ingest","schema_version":"1.0","generated_at":"2026-08-01T00:00:00Z","records":[]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := NewStore(dir).Load(path)
	var corrupt *CorruptError
	require.ErrorAs(t, err, &corrupt)
	assert.Contains(t, corrupt.Reason, "schema version")
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "1_raw_feed.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"stage_id": "ing`), 0o644))

	_, err := NewStore(dir).Load(path)
	var corrupt *CorruptError
	require.ErrorAs(t, err, &corrupt)
}

func TestLoadRejectsRecordWithoutID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "1_raw_feed.json")
	body := `{"stage_id":"ingest","schema_version":"2.0","generated_at":"2026-08-01T00:00:00Z","records":[{"title":"orphan"}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := NewStore(dir).Load(path)
	var corrupt *CorruptError
	require.ErrorAs(t, err, &corrupt)
	assert.Contains(t, corrupt.Reason, "identifier")
}

func TestLoadRejectsNonObjectRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "1_raw_feed.json")
	body := `{"stage_id":"ingest","schema_version":"2.0","generated_at":"2026-08-01T00:00:00Z","records":["just a string"]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := NewStore(dir).Load(path)
	var corrupt *CorruptError
	require.ErrorAs(t, err, &corrupt)
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()

	_, err := NewStore(dir).Load(filepath.Join(dir, "nope.json"))
	require.Error(t, err)
	var corrupt *CorruptError
	assert.False(t, errors.As(err, &corrupt), "missing file is an I/O error, not corruption")
}

func TestNullFieldSurvivesRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	recs := testRecords("a", "b")
	recs[0].OutboundURL = types.Null[string]()
	recs[1].OutboundURL = types.Value("https://example.com/story")

	ref, err := store.Save("ingest", "1_raw_feed.json", recs)
	require.NoError(t, err)

	data, err := os.ReadFile(ref.Path)
	require.NoError(t, err)
	var raw struct {
		Records []map[string]json.RawMessage `json:"records"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw.Records, 2)

	val, ok := raw.Records[0]["outbound_url"]
	require.True(t, ok, "explicit null must serialize as a present field")
	assert.Equal(t, "null", string(val))
	assert.Equal(t, `"https://example.com/story"`, string(raw.Records[1]["outbound_url"]))
}
