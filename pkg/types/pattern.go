// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// PatternSpec is one entry of the clinical pattern configuration file.
type PatternSpec struct {
	// Pattern is the regular expression source. It is compiled
	// case-insensitively.
	Pattern string `json:"pattern" yaml:"pattern"`

	// Type becomes ClinicalEntity.Type for every match.
	Type EntityType `json:"type" yaml:"type"`

	// Label becomes ClinicalEntity.Value for every match.
	Label string `json:"label" yaml:"label"`

	// Attributes is a flat template copied into each matching entity.
	Attributes map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}
