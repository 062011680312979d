// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists question sets in a local SQLite question bank.
// Questions are upserted by ID together with their reasoning tags and
// clinical entities, and can be filtered and exported.
package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/zeebo/blake3"

	"github.com/pdiddy/qbank/pkg/types"
)

const (
	dbFile            = "qbank.db"
	defaultMaxResults = 20
)

// ErrNotFound is returned by Get for an unknown question ID.
var ErrNotFound = errors.New("question not found")

// Store manages the question bank database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// Open opens or creates the question bank at cfg.Dir/qbank.db and creates
// the schema if it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{
		db:         db,
		dir:        cfg.Dir,
		maxResults: maxResults,
	}

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

// Dir returns the directory holding the database.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS questions (
			pk INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			source_exam TEXT NOT NULL,
			year INTEGER,
			number INTEGER NOT NULL,
			domain TEXT,
			topic TEXT,
			subtopic TEXT,
			focus TEXT,
			stem TEXT NOT NULL,
			answer_key TEXT,
			answer_text TEXT,
			document TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			run_id TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS question_tags (
			question_id TEXT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
			tag TEXT NOT NULL,
			PRIMARY KEY (question_id, tag)
		)`,
		`CREATE TABLE IF NOT EXISTS entities (
			question_id TEXT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			type TEXT NOT NULL,
			value TEXT NOT NULL,
			text_span TEXT NOT NULL,
			attributes TEXT,
			PRIMARY KEY (question_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_exam ON questions(source_exam, year)`,
		`CREATE INDEX IF NOT EXISTS idx_tags_tag ON question_tags(tag)`,
		`CREATE INDEX IF NOT EXISTS idx_entities_type ON entities(type, value)`,
		`CREATE TABLE IF NOT EXISTS ingest_runs (
			id TEXT PRIMARY KEY,
			source TEXT,
			started_at TEXT NOT NULL,
			indexed INTEGER NOT NULL,
			updated INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			failed INTEGER NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// IngestSummary holds counts from one ingest run.
type IngestSummary struct {
	RunID   string
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of questions processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// HasFailures reports whether any question failed to store.
func (s IngestSummary) HasFailures() bool {
	return s.Failed > 0
}

// Ingest upserts questions into the bank. A question whose content hash
// matches the stored one is skipped; a changed question replaces its row,
// tags and entities. Progress goes to w; the run is recorded under a fresh
// UUID.
func (s *Store) Ingest(ctx context.Context, questions []types.Question, source string, w io.Writer) (IngestSummary, error) {
	summary := IngestSummary{RunID: uuid.NewString()}
	started := time.Now().UTC().Format(time.RFC3339Nano)

	for _, q := range questions {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		doc, err := types.MarshalNoEscape(q)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", q.ID, err)
			summary.Failed++
			continue
		}
		hash := contentHash(doc)

		var storedHash string
		err = s.db.QueryRowContext(ctx,
			`SELECT content_hash FROM questions WHERE id = ?`, q.ID,
		).Scan(&storedHash)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			fmt.Fprintf(w, "failed  %s: %v\n", q.ID, err)
			summary.Failed++
			continue
		}
		exists := err == nil

		if exists && storedHash == hash {
			summary.Skipped++
			continue
		}

		if err := s.ingestQuestion(ctx, q, string(doc), hash, summary.RunID); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", q.ID, err)
			summary.Failed++
			continue
		}

		if exists {
			fmt.Fprintf(w, "updated %s (%d entities)\n", q.ID, len(q.ClinicalEntities))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexed %s (%d entities)\n", q.ID, len(q.ClinicalEntities))
			summary.Indexed++
		}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingest_runs (id, source, started_at, indexed, updated, skipped, failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		summary.RunID, source, started,
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed,
	)
	if err != nil {
		return summary, fmt.Errorf("recording ingest run: %w", err)
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

func (s *Store) ingestQuestion(ctx context.Context, q types.Question, doc, hash, runID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM question_tags WHERE question_id = ?`,
		`DELETE FROM entities WHERE question_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, q.ID); err != nil {
			return fmt.Errorf("clearing old rows: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO questions (id, source_exam, year, number, domain, topic, subtopic, focus,
			stem, answer_key, answer_text, document, content_hash, run_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			source_exam=excluded.source_exam, year=excluded.year, number=excluded.number,
			domain=excluded.domain, topic=excluded.topic, subtopic=excluded.subtopic,
			focus=excluded.focus, stem=excluded.stem, answer_key=excluded.answer_key,
			answer_text=excluded.answer_text, document=excluded.document,
			content_hash=excluded.content_hash, run_id=excluded.run_id`,
		q.ID, q.SourceExam, nullInt(q.Year), q.Number,
		nullString(q.Domain), nullString(q.Topic), nullString(q.Subtopic), nullString(q.Focus),
		q.Stem, q.AnswerKey, q.AnswerText, doc, hash, runID,
	)
	if err != nil {
		return fmt.Errorf("upserting question: %w", err)
	}

	for _, tag := range q.ReasoningTags {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO question_tags (question_id, tag) VALUES (?, ?)`, q.ID, tag,
		); err != nil {
			return fmt.Errorf("inserting tag %q: %w", tag, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entities (question_id, seq, type, value, text_span, attributes)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing entity insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range q.ClinicalEntities {
		attrs, err := types.MarshalNoEscape(e.Attributes)
		if err != nil {
			return fmt.Errorf("encoding attributes of entity %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx,
			q.ID, i, string(e.Type), e.Value, e.TextSpan, string(attrs),
		); err != nil {
			return fmt.Errorf("inserting entity %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// contentHash returns the hex BLAKE3 digest of a question document.
func contentHash(doc []byte) string {
	sum := blake3.Sum256(doc)
	return hex.EncodeToString(sum[:])
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
