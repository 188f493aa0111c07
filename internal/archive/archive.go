// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive persists coverage history: which postings past runs
// saw and which made the lineup. Ingestion consults it to avoid
// re-covering a story; the history command searches it.
// Implements: prd007-archive;
//
//	docs/ARCHITECTURE § Coverage Archive.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/trend-engine/pkg/types"
)

const dbFile = "coverage.db"

// Store manages the coverage archive SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// Entry is one archived posting.
type Entry struct {
	ID               string    `json:"id" yaml:"id"`
	Title            string    `json:"title" yaml:"title"`
	Subreddit        string    `json:"subreddit" yaml:"subreddit"`
	RunID            string    `json:"run_id" yaml:"run_id"`
	ValidationStatus string    `json:"validation_status,omitempty" yaml:"validation_status,omitempty"`
	CompositeScore   float64   `json:"composite_score" yaml:"composite_score"`
	Selected         bool      `json:"selected" yaml:"selected"`
	RecordedAt       time.Time `json:"recorded_at" yaml:"recorded_at"`
}

// NewStore opens or creates the archive database at cfg.Dir/coverage.db
// and creates the schema if it does not exist (R1.1, R1.2).
func NewStore(cfg types.ArchiveConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "archive"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			recorded_at TEXT NOT NULL,
			postings INTEGER NOT NULL,
			selected INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS postings (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			subreddit TEXT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			validation_status TEXT,
			composite_score REAL,
			selected INTEGER NOT NULL DEFAULT 0,
			published_at TEXT,
			recorded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_postings_run_id ON postings(run_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='postings_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE postings_fts USING fts5(title, content=postings, content_rowid=rowid)`,
			`CREATE TRIGGER postings_ai AFTER INSERT ON postings BEGIN
				INSERT INTO postings_fts(rowid, title) VALUES (new.rowid, new.title);
			END`,
			`CREATE TRIGGER postings_ad AFTER DELETE ON postings BEGIN
				INSERT INTO postings_fts(postings_fts, rowid, title) VALUES('delete', old.rowid, old.title);
			END`,
			`CREATE TRIGGER postings_au AFTER UPDATE ON postings BEGIN
				INSERT INTO postings_fts(postings_fts, rowid, title) VALUES('delete', old.rowid, old.title);
				INSERT INTO postings_fts(rowid, title) VALUES (new.rowid, new.title);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				if strings.Contains(err.Error(), "no such module: fts5") {
					return fmt.Errorf("creating FTS infrastructure (binary built without the sqlite_fts5 tag): %w", err)
				}
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Seen reports which of the given posting identifiers the archive
// already holds (R2.1). Implements the ingest stage's dedup lookup.
func (s *Store) Seen(ids []string) (map[string]bool, error) {
	out := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.Query(
		fmt.Sprintf(`SELECT id FROM postings WHERE id IN (%s)`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("querying coverage: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning coverage row: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

// RecordRun archives one completed run: every posting it processed,
// with the curated picks marked selected (R3.1). Postings already
// archived by an earlier run are left untouched.
func (s *Store) RecordRun(ctx context.Context, runID string, startedAt time.Time, processed, selected []types.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, recorded_at, postings, selected) VALUES (?, ?, ?, ?, ?)`,
		runID, startedAt.UTC().Format(time.RFC3339), now, len(processed), len(selected),
	); err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	picked := make(map[string]bool, len(selected))
	for _, r := range selected {
		picked[r.ID] = true
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO postings
		(id, title, subreddit, run_id, validation_status, composite_score, selected, published_at, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range processed {
		composite, _ := r.CompositeScore.Get()
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.Title, r.Subreddit, runID, string(r.ValidationStatus),
			composite, picked[r.ID], r.PublishedAt.UTC().Format(time.RFC3339), now,
		); err != nil {
			return fmt.Errorf("inserting posting %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// Search runs a full-text query over archived posting titles, newest
// first (R4.1). An empty query lists recent coverage instead.
func (s *Store) Search(ctx context.Context, query string, maxResults int) ([]Entry, error) {
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		rows *sql.Rows
		err  error
	)
	if query == "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, title, subreddit, run_id, validation_status, composite_score, selected, recorded_at
			 FROM postings ORDER BY recorded_at DESC, rowid DESC LIMIT ?`, maxResults)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT p.id, p.title, p.subreddit, p.run_id, p.validation_status, p.composite_score, p.selected, p.recorded_at
			 FROM postings p
			 JOIN postings_fts f ON f.rowid = p.rowid
			 WHERE postings_fts MATCH ?
			 ORDER BY f.rank LIMIT ?`, query, maxResults)
	}
	if err != nil {
		return nil, fmt.Errorf("querying archive: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var recordedAt string
		if err := rows.Scan(&e.ID, &e.Title, &e.Subreddit, &e.RunID,
			&e.ValidationStatus, &e.CompositeScore, &e.Selected, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning archive row: %w", err)
		}
		if t, parseErr := time.Parse(time.RFC3339, recordedAt); parseErr == nil {
			e.RecordedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
