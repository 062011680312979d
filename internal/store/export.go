// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/qbank/internal/dataset"
)

const exportLimit = 100000

// DefaultExportPath returns <store dir>/export.<ext>.
func (s *Store) DefaultExportPath(ext string) string {
	return filepath.Join(s.dir, "export."+ext)
}

// ExportYAML writes the questions matching opts to path as YAML.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions, path string) (int, error) {
	opts.MaxResults = exportLimit
	questions, err := s.Retrieve(ctx, opts)
	if err != nil {
		return 0, fmt.Errorf("querying for export: %w", err)
	}

	data, err := yaml.Marshal(questions)
	if err != nil {
		return 0, fmt.Errorf("marshaling YAML: %w", err)
	}
	if err := dataset.WriteFileAtomic(path, data); err != nil {
		return 0, err
	}
	return len(questions), nil
}

// ExportJSON writes the questions matching opts to path in the same JSON
// shape the parsing pipeline produces.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions, path string) (int, error) {
	opts.MaxResults = exportLimit
	questions, err := s.Retrieve(ctx, opts)
	if err != nil {
		return 0, fmt.Errorf("querying for export: %w", err)
	}

	if err := dataset.Write(path, questions); err != nil {
		return 0, err
	}
	return len(questions), nil
}
