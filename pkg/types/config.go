// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ParseConfig holds settings for the parsing pipeline.
type ParseConfig struct {
	// SkipMalformed reports and skips blocks without a valid header instead
	// of aborting the whole batch (default false: strict abort).
	SkipMalformed bool `json:"skip_malformed" yaml:"skip_malformed"`

	// UniqueIDs fails the batch when two questions derive the same ID.
	UniqueIDs bool `json:"unique_ids" yaml:"unique_ids"`
}

// EnrichConfig holds settings for the annotation pipeline.
type EnrichConfig struct {
	// PatternsPath is the JSON or YAML pattern file
	// (default config/clinical_patterns.json).
	PatternsPath string `json:"patterns" yaml:"patterns"`
}

// StoreConfig holds settings for the question bank.
type StoreConfig struct {
	// Dir is the directory holding qbank.db and export files.
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// LogConfig selects the structured logger's level and output format.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level"`

	// Format is text or json.
	Format string `json:"format" yaml:"format"`
}

// PipelineConfig groups all stage configurations, mirroring qbank.yaml.
type PipelineConfig struct {
	Parse  ParseConfig  `json:"parse" yaml:"parse"`
	Enrich EnrichConfig `json:"enrich" yaml:"enrich"`
	Store  StoreConfig  `json:"store" yaml:"store"`
	Log    LogConfig    `json:"log" yaml:"log"`
}
