// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset reads and writes question sets as JSON documents.
// Documents are written whole: the encoded array goes to a temporary file
// in the destination directory which is then renamed over the target, so a
// failed run never leaves a partial output file.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/qbank/pkg/types"
)

// Read decodes a JSON array of questions.
func Read(path string) ([]types.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var questions []types.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("decoding questions from %s: %w", path, err)
	}
	if questions == nil {
		questions = []types.Question{}
	}
	return questions, nil
}

// Encode renders questions as an indented JSON array without HTML escaping.
func Encode(questions []types.Question) ([]byte, error) {
	if questions == nil {
		questions = []types.Question{}
	}
	return encodeIndented(questions)
}

func encodeIndented(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding questions: %w", err)
	}
	return buf.Bytes(), nil
}

// Write encodes questions and replaces path atomically, creating the parent
// directory when needed.
func Write(path string, questions []types.Question) error {
	data, err := Encode(questions)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data)
}

// WriteFileAtomic writes data to a sibling temp file and renames it to path.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming to %s: %w", path, err)
	}
	return nil
}
