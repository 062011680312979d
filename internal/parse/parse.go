// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parse converts a plain-text exam-question dump into Question
// records. A document is segmented into blocks on horizontal-rule lines,
// each block is parsed into header, metadata, stem, options and answer,
// and each question receives an ID derived from its header fields.
package parse

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pdiddy/qbank/pkg/types"
)

var (
	// ErrMalformedBlock marks a block without a recognizable question header.
	ErrMalformedBlock = errors.New("malformed block")

	// ErrDuplicateID marks a batch in which two questions derive the same ID.
	ErrDuplicateID = errors.New("duplicate question id")
)

// SkippedBlock records a block dropped in skip mode.
type SkippedBlock struct {
	// Index is the zero-based position of the block in the document.
	Index int

	// Err is the parse failure, wrapping ErrMalformedBlock.
	Err error
}

// Result holds the output of parsing one document.
type Result struct {
	Questions []types.Question
	Skipped   []SkippedBlock
}

// Total returns the number of blocks seen.
func (r Result) Total() int {
	return len(r.Questions) + len(r.Skipped)
}

// HasSkipped reports whether any block was dropped.
func (r Result) HasSkipped() bool {
	return len(r.Skipped) > 0
}

// ParseText segments text and parses every block in document order.
// With cfg.SkipMalformed unset the first malformed block aborts the batch
// and no questions are returned. Skipped blocks and duplicate IDs are
// reported on w.
func ParseText(text string, cfg types.ParseConfig, w io.Writer) (Result, error) {
	blocks := Segment(text)
	result := Result{Questions: make([]types.Question, 0, len(blocks))}

	for i, block := range blocks {
		q, err := ParseChunk(block)
		if err != nil {
			if !cfg.SkipMalformed {
				return Result{}, fmt.Errorf("block %d: %w", i+1, err)
			}
			fmt.Fprintf(w, "skipped block %d: %v\n", i+1, err)
			result.Skipped = append(result.Skipped, SkippedBlock{Index: i, Err: err})
			continue
		}
		result.Questions = append(result.Questions, q)
	}

	if cfg.UniqueIDs {
		if err := CheckUniqueIDs(result.Questions); err != nil {
			return Result{}, err
		}
	} else if dups := DuplicateIDs(result.Questions); len(dups) > 0 {
		fmt.Fprintf(w, "warning: %d duplicate question id(s): %v\n", len(dups), dups)
	}

	return result, nil
}

// ParseFile reads a UTF-8 text document and parses it with ParseText.
func ParseFile(path string, cfg types.ParseConfig, w io.Writer) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseText(string(data), cfg, w)
}
