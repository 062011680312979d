// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"strings"
	"unicode/utf8"
)

// minRuleLen is the shortest run of dash-like characters that counts as a
// block delimiter.
const minRuleLen = 10

// ruleRunes are the characters a delimiter line may be drawn with.
var ruleRunes = map[rune]bool{
	'-': true, // hyphen-minus
	'–': true, // en dash
	'—': true, // em dash
	'―': true, // horizontal bar
	'─': true, // box drawings light horizontal
	'━': true, // box drawings heavy horizontal
	'═': true, // box drawings double horizontal
}

// Segment splits a document into question blocks along horizontal-rule
// lines. Blocks are trimmed and empty blocks are dropped; block content is
// not validated here.
func Segment(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	var blocks []string
	var current []string

	flush := func() {
		block := strings.TrimSpace(strings.Join(current, "\n"))
		if block != "" {
			blocks = append(blocks, block)
		}
		current = nil
	}

	for _, line := range lines {
		if isRule(strings.TrimSpace(line)) {
			flush()
			continue
		}
		current = append(current, line)
	}

	flush()
	return blocks
}

// isRule reports whether line is a run of at least minRuleLen copies of a
// single dash-like rune.
func isRule(line string) bool {
	if utf8.RuneCountInString(line) < minRuleLen {
		return false
	}
	first, _ := utf8.DecodeRuneInString(line)
	if !ruleRunes[first] {
		return false
	}
	for _, r := range line {
		if r != first {
			return false
		}
	}
	return true
}
