// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package annotate attaches clinical entities to questions by scanning each
// stem with a configured, ordered list of regular expressions. Entities are
// appended in pattern declaration order and, within a pattern, in match
// order. Annotation accumulates: running it twice on the same question
// doubles its entities.
package annotate

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pdiddy/qbank/internal/dataset"
	"github.com/pdiddy/qbank/pkg/types"
)

// Annotate scans q.Stem with every pattern and appends one ClinicalEntity
// per non-overlapping match. It returns the number of entities added and
// touches no field other than ClinicalEntities.
func Annotate(q *types.Question, patterns []Pattern) int {
	added := 0
	for _, p := range patterns {
		enricher := enricherFor(p.Type)
		for _, m := range p.re.FindAllStringSubmatchIndex(q.Stem, -1) {
			attrs := make(map[string]any, len(p.Attributes)+1)
			for k, v := range p.Attributes {
				attrs[k] = v
			}
			enricher.Enrich(attrs, q.Stem, m)

			q.ClinicalEntities = append(q.ClinicalEntities, types.ClinicalEntity{
				Type:       p.Type,
				Value:      p.Label,
				TextSpan:   q.Stem[m[0]:m[1]],
				Attributes: attrs,
			})
			added++
		}
	}
	return added
}

// AnnotateDocument annotates one question object as read from disk. Only
// the clinical_entities value changes: existing entries are kept verbatim,
// new ones are appended, and every other key keeps its value and position.
// A missing or null stem annotates as empty text and a missing or null
// clinical_entities starts as an empty list.
func AnnotateDocument(doc *dataset.Document, patterns []Pattern) (int, error) {
	var q types.Question
	if _, err := doc.Lookup(stemKey, &q.Stem); err != nil {
		return 0, err
	}

	var entities []json.RawMessage
	if _, err := doc.Lookup(entitiesKey, &entities); err != nil {
		return 0, err
	}
	if entities == nil {
		entities = []json.RawMessage{}
	}

	added := Annotate(&q, patterns)
	for _, e := range q.ClinicalEntities {
		raw, err := types.MarshalNoEscape(e)
		if err != nil {
			return 0, fmt.Errorf("encoding entity: %w", err)
		}
		entities = append(entities, raw)
	}

	if err := doc.Set(entitiesKey, entities); err != nil {
		return 0, err
	}
	return added, nil
}

const (
	stemKey     = "stem"
	entitiesKey = "clinical_entities"
)

// EnrichSummary holds counts from one enrichment run.
type EnrichSummary struct {
	Questions int
	Entities  int
	Patterns  int
}

// EnrichFile loads patterns, annotates every question object at inPath
// with AnnotateDocument and writes the set to outPath. Any failure happens
// before outPath is touched.
func EnrichFile(inPath, outPath, patternsPath string, w io.Writer) (EnrichSummary, error) {
	docs, err := dataset.ReadDocuments(inPath)
	if err != nil {
		return EnrichSummary{}, err
	}

	patterns, err := LoadPatterns(patternsPath)
	if err != nil {
		return EnrichSummary{}, err
	}

	summary := EnrichSummary{Questions: len(docs), Patterns: len(patterns)}
	for i := range docs {
		n, err := AnnotateDocument(&docs[i], patterns)
		if err != nil {
			return EnrichSummary{}, fmt.Errorf("%s: question %d: %w", inPath, i+1, err)
		}
		summary.Entities += n
	}

	if err := dataset.WriteDocuments(outPath, docs); err != nil {
		return EnrichSummary{}, err
	}

	fmt.Fprintf(w, "enriched %d questions (%d entities from %d patterns) -> %s\n",
		summary.Questions, summary.Entities, summary.Patterns, outPath)
	return summary, nil
}
