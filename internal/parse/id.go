// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pdiddy/qbank/pkg/types"
)

const (
	defaultExam     = "EXAM"
	yearPlaceholder = "XXXX"
)

// BuildID derives the canonical question ID: the exam name upper-cased with
// whitespace removed, the year or XXXX, and the two-digit question number,
// joined by dashes (e.g. "ENARM-2023-07"). A zero year counts as absent.
// Upper-casing uses full case mapping, so "ß" becomes "SS". It never checks
// for collisions.
func BuildID(exam string, year *int, number int) string {
	name := cases.Upper(language.Und).String(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, exam))
	if name == "" {
		name = defaultExam
	}

	y := yearPlaceholder
	if year != nil && *year != 0 {
		y = fmt.Sprintf("%d", *year)
	}

	return fmt.Sprintf("%s-%s-%02d", name, y, number)
}

// CheckUniqueIDs reports ErrDuplicateID naming every ID shared by more than
// one question.
func CheckUniqueIDs(questions []types.Question) error {
	dups := DuplicateIDs(questions)
	if len(dups) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrDuplicateID, strings.Join(dups, ", "))
}

// DuplicateIDs returns the sorted IDs that occur more than once.
func DuplicateIDs(questions []types.Question) []string {
	counts := make(map[string]int, len(questions))
	for _, q := range questions {
		counts[q.ID]++
	}

	var dups []string
	for id, n := range counts {
		if n > 1 {
			dups = append(dups, id)
		}
	}
	sort.Strings(dups)
	return dups
}
