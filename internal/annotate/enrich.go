// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import "github.com/pdiddy/qbank/pkg/types"

// Enricher adds type-specific attributes to an entity built from one
// match. attrs already holds a fresh copy of the pattern's template; match
// holds submatch index pairs into text as returned by
// regexp.FindAllStringSubmatchIndex.
type Enricher interface {
	Enrich(attrs map[string]any, text string, match []int)
}

// EnricherFunc adapts a function to the Enricher interface.
type EnricherFunc func(attrs map[string]any, text string, match []int)

// Enrich calls f.
func (f EnricherFunc) Enrich(attrs map[string]any, text string, match []int) {
	f(attrs, text, match)
}

// templateOnly leaves the copied template untouched. It serves every
// entity type without a registered strategy.
var templateOnly = EnricherFunc(func(map[string]any, string, []int) {})

// enrichers holds the per-type strategies.
var enrichers = map[types.EntityType]Enricher{
	types.EntityTimeline: EnricherFunc(enrichTimeline),
}

// RegisterEnricher installs the strategy for entity type t, replacing any
// previous one. It is not safe to call concurrently with Annotate.
func RegisterEnricher(t types.EntityType, e Enricher) {
	enrichers[t] = e
}

func enricherFor(t types.EntityType) Enricher {
	if e, ok := enrichers[t]; ok {
		return e
	}
	return templateOnly
}

// enrichTimeline records the first capture group as attributes["value"]
// when that group took part in the match. Otherwise any "value" from the
// pattern's template is kept as is.
func enrichTimeline(attrs map[string]any, text string, match []int) {
	if len(match) < 4 || match[2] < 0 {
		return
	}
	attrs["value"] = text[match[2]:match[3]]
}
