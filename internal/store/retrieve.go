// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/qbank/pkg/types"
)

// QueryOptions holds filters for question bank queries. Zero-valued fields
// do not filter.
type QueryOptions struct {
	// Text matches a substring of the stem.
	Text string

	// Exam filters by source exam name.
	Exam string

	// Year filters by exam year; zero means any year.
	Year int

	// Tags filters by reasoning tags with AND semantics.
	Tags []string

	// EntityType filters to questions carrying an entity of this type.
	EntityType types.EntityType

	// EntityValue filters to questions carrying an entity with this label.
	EntityValue string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Text == "" && q.Exam == "" && q.Year == 0 && len(q.Tags) == 0 &&
		q.EntityType == "" && q.EntityValue == ""
}

// Retrieve returns the stored questions matching opts, ordered by ID.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]types.Question, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)

	qb.WriteString(`SELECT q.document FROM questions q WHERE 1=1`)

	if opts.Text != "" {
		qb.WriteString(` AND q.stem LIKE ?`)
		args = append(args, "%"+opts.Text+"%")
	}

	if opts.Exam != "" {
		qb.WriteString(` AND q.source_exam = ?`)
		args = append(args, opts.Exam)
	}

	if opts.Year != 0 {
		qb.WriteString(` AND q.year = ?`)
		args = append(args, opts.Year)
	}

	for _, tag := range opts.Tags {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM question_tags t WHERE t.question_id = q.id AND t.tag = ?)`)
		args = append(args, tag)
	}

	if opts.EntityType != "" || opts.EntityValue != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM entities e WHERE e.question_id = q.id`)
		if opts.EntityType != "" {
			qb.WriteString(` AND e.type = ?`)
			args = append(args, string(opts.EntityType))
		}
		if opts.EntityValue != "" {
			qb.WriteString(` AND e.value = ?`)
			args = append(args, opts.EntityValue)
		}
		qb.WriteString(`)`)
	}

	qb.WriteString(` ORDER BY q.id LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying question bank: %w", err)
	}
	defer rows.Close()

	results := []types.Question{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		var q types.Question
		if err := json.Unmarshal([]byte(doc), &q); err != nil {
			return nil, fmt.Errorf("decoding stored question: %w", err)
		}
		results = append(results, q)
	}

	return results, rows.Err()
}

// Get returns one stored question by ID.
func (s *Store) Get(ctx context.Context, id string) (types.Question, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM questions WHERE id = ?`, id,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Question{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return types.Question{}, fmt.Errorf("looking up question: %w", err)
	}

	var q types.Question
	if err := json.Unmarshal([]byte(doc), &q); err != nil {
		return types.Question{}, fmt.Errorf("decoding stored question: %w", err)
	}
	return q, nil
}

// Count returns the number of stored questions.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM questions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting questions: %w", err)
	}
	return n, nil
}
