// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the qbank pipelines.
// Question and its parts are produced by the parsing pipeline, extended by
// the annotation pipeline, and persisted by the question bank.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"go.yaml.in/yaml/v3"
)

// EntityType categorizes a ClinicalEntity. The set is open: pattern files
// may introduce any type string.
type EntityType string

const (
	EntityTimeline EntityType = "timeline"
	EntitySymptom  EntityType = "symptom"
	EntityFinding  EntityType = "finding"
)

// AnswerOption is one lettered choice of a Question.
type AnswerOption struct {
	// ID is a single uppercase letter, unique within its question.
	ID string `json:"id" yaml:"id"`

	// Text is the trimmed option text.
	Text string `json:"text" yaml:"text"`

	// LinkedEntity is an optional back-reference for downstream linking.
	// The parser never sets it.
	LinkedEntity *string `json:"linked_entity" yaml:"linked_entity"`
}

// ClinicalEntity is a span of a question stem matched by a configured pattern.
type ClinicalEntity struct {
	// Type is the pattern's category tag (timeline, symptom, finding, ...).
	Type EntityType `json:"type" yaml:"type"`

	// Value is the pattern's canonical label.
	Value string `json:"value" yaml:"value"`

	// TextSpan is the exact matched substring.
	TextSpan string `json:"text_span" yaml:"text_span"`

	// Attributes holds auxiliary data: the pattern's template plus any
	// type-specific captures.
	Attributes map[string]any `json:"attributes" yaml:"attributes"`
}

// Question is one exam item.
type Question struct {
	// ID is derived from SourceExam, Year and Number (see parse.BuildID).
	ID string `json:"id" yaml:"id"`

	SourceExam string `json:"source_exam" yaml:"source_exam"`

	// Year is nil when the header label carries no trailing integer.
	Year *int `json:"year" yaml:"year"`

	Number int `json:"number" yaml:"number"`

	// Classification fields from the metadata lines; nil when absent.
	Domain   *string `json:"domain" yaml:"domain"`
	Topic    *string `json:"topic" yaml:"topic"`
	Subtopic *string `json:"subtopic" yaml:"subtopic"`
	Focus    *string `json:"focus" yaml:"focus"`

	// Stem is the question text proper. It may be empty for degenerate blocks.
	Stem string `json:"stem" yaml:"stem"`

	// Options are kept in document order.
	Options []AnswerOption `json:"options" yaml:"options"`

	// AnswerKey and AnswerText are empty when no answer line was recognized.
	AnswerKey  string `json:"answer_key" yaml:"answer_key"`
	AnswerText string `json:"answer_text" yaml:"answer_text"`

	// ClinicalEntities is append-only and filled by the annotator.
	ClinicalEntities []ClinicalEntity `json:"clinical_entities" yaml:"clinical_entities"`

	// ReasoningTags are de-duplicated, normalized and sorted.
	ReasoningTags []string `json:"reasoning_tags" yaml:"reasoning_tags"`

	Metadata Metadata `json:"metadata" yaml:"metadata"`

	// Extra holds top-level JSON keys not modeled above so that a question
	// read from disk is written back with them intact.
	Extra map[string]json.RawMessage `json:"-" yaml:"-"`
}

// questionKeys lists the JSON keys modeled by Question.
var questionKeys = map[string]bool{
	"id": true, "source_exam": true, "year": true, "number": true,
	"domain": true, "topic": true, "subtopic": true, "focus": true,
	"stem": true, "options": true, "answer_key": true, "answer_text": true,
	"clinical_entities": true, "reasoning_tags": true, "metadata": true,
}

// MarshalJSON writes empty sequences as [] and appends Extra keys after the
// modeled fields.
func (q Question) MarshalJSON() ([]byte, error) {
	type plain Question
	p := plain(q)
	if p.Options == nil {
		p.Options = []AnswerOption{}
	}
	if p.ClinicalEntities == nil {
		p.ClinicalEntities = []ClinicalEntity{}
	}
	if p.ReasoningTags == nil {
		p.ReasoningTags = []string{}
	}

	data, err := MarshalNoEscape(p)
	if err != nil || len(q.Extra) == 0 {
		return data, err
	}

	var buf bytes.Buffer
	buf.Write(data[:len(data)-1])
	for _, k := range q.extraKeys() {
		name, err := MarshalNoEscape(k)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(q.Extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML writes the modeled fields followed by the Extra keys in
// sorted order.
func (q Question) MarshalYAML() (any, error) {
	type plain Question
	var node yaml.Node
	if err := node.Encode(plain(q)); err != nil {
		return nil, err
	}

	for _, k := range q.extraKeys() {
		var v any
		if err := json.Unmarshal(q.Extra[k], &v); err != nil {
			return nil, fmt.Errorf("decoding %q: %w", k, err)
		}
		key, val := &yaml.Node{}, &yaml.Node{}
		key.SetString(k)
		if err := val.Encode(v); err != nil {
			return nil, fmt.Errorf("encoding %q: %w", k, err)
		}
		node.Content = append(node.Content, key, val)
	}
	return &node, nil
}

// extraKeys returns the sorted Extra keys that do not shadow a modeled field.
func (q Question) extraKeys() []string {
	keys := make([]string, 0, len(q.Extra))
	for k := range q.Extra {
		if !questionKeys[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// UnmarshalJSON decodes the modeled fields and keeps the rest in Extra.
func (q *Question) UnmarshalJSON(data []byte) error {
	type plain Question
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k := range raw {
		if questionKeys[k] {
			delete(raw, k)
		}
	}

	*q = Question(p)
	q.Extra = nil
	if len(raw) > 0 {
		q.Extra = raw
	}
	return nil
}

// Metadata is the provenance mapping of a Question. RawHeader is the one
// enumerated key; anything else lives in Extra and is flattened next to it
// on the wire.
type Metadata struct {
	// RawHeader is the unmodified header line of the source block.
	RawHeader string

	// Extra holds additional provenance keys.
	Extra map[string]any
}

const rawHeaderKey = "raw_header"

func (m Metadata) asMap() map[string]any {
	out := make(map[string]any, len(m.Extra)+1)
	for k, v := range m.Extra {
		out[k] = v
	}
	out[rawHeaderKey] = m.RawHeader
	return out
}

func (m *Metadata) fromMap(in map[string]any) {
	m.RawHeader = ""
	m.Extra = nil
	if s, ok := in[rawHeaderKey].(string); ok {
		m.RawHeader = s
		delete(in, rawHeaderKey)
	}
	if len(in) > 0 {
		m.Extra = in
	}
}

// MarshalJSON writes Metadata as one flat object.
func (m Metadata) MarshalJSON() ([]byte, error) {
	return MarshalNoEscape(m.asMap())
}

// UnmarshalJSON reads a flat object into RawHeader and Extra.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var in map[string]any
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	m.fromMap(in)
	return nil
}

// MarshalYAML writes Metadata as one flat mapping.
func (m Metadata) MarshalYAML() (any, error) {
	return m.asMap(), nil
}

// MarshalNoEscape encodes v as compact JSON without HTML escaping, so that
// clinical text such as "<38 °C" survives verbatim.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
