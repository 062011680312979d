// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/qbank/internal/unitext"
	"github.com/pdiddy/qbank/pkg/types"
)

// DefaultPatternsPath is the pattern file used when none is configured.
const DefaultPatternsPath = "config/clinical_patterns.json"

// ErrInvalidPattern marks a pattern file that cannot be loaded as a whole.
var ErrInvalidPattern = errors.New("invalid pattern")

// Pattern is a PatternSpec with its compiled case-insensitive matcher.
type Pattern struct {
	types.PatternSpec
	re *regexp.Regexp
}

// Regexp returns the compiled matcher.
func (p Pattern) Regexp() *regexp.Regexp {
	return p.re
}

// LoadPatterns reads a pattern file and compiles it. Files ending in .yaml
// or .yml are decoded as YAML, anything else as JSON.
func LoadPatterns(path string) ([]Pattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pattern file %s: %w", path, err)
	}

	specs, err := DecodePatterns(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return CompilePatterns(specs)
}

// DecodePatterns parses pattern specifications; ext selects the format.
func DecodePatterns(data []byte, ext string) ([]types.PatternSpec, error) {
	var specs []types.PatternSpec
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &specs); err != nil {
			return nil, fmt.Errorf("parsing YAML patterns: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &specs); err != nil {
			return nil, fmt.Errorf("parsing JSON patterns: %w", err)
		}
	}
	return specs, nil
}

// CompilePatterns compiles every spec in declaration order. A single
// invalid entry fails the whole load so no run ever uses a partial set.
// \d, \w and \s match Unicode text (see unitext.Translate); patterns using
// \b or \B are rejected.
func CompilePatterns(specs []types.PatternSpec) ([]Pattern, error) {
	patterns := make([]Pattern, 0, len(specs))
	for i, spec := range specs {
		if spec.Type == "" || spec.Label == "" {
			return nil, fmt.Errorf("%w: entry %d: type and label are required", ErrInvalidPattern, i)
		}
		translated, err := unitext.Translate(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d (%s): %v", ErrInvalidPattern, i, spec.Label, err)
		}
		re, err := regexp.Compile("(?i)" + translated)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d (%s): %v", ErrInvalidPattern, i, spec.Label, err)
		}
		patterns = append(patterns, Pattern{PatternSpec: spec, re: re})
	}
	return patterns, nil
}
