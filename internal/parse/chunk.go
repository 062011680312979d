// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/qbank/internal/unitext"
	"github.com/pdiddy/qbank/pkg/types"
)

const (
	headerMarker = "pregunta"
	answerMarker = "respuesta correcta"
)

// \d and \s in these patterns are the Unicode classes of package unitext.
var (
	headerRe   = unitext.MustCompile(`(?i)^Pregunta\s+(\d+)\s*\(([^)]+)\):`)
	metaLineRe = unitext.MustCompile(`^([^:]+):\s*(.+)$`)
	optionRe   = unitext.MustCompile(`^([A-Z])\)\s*(.+)$`)
	answerRe   = unitext.MustCompile(`(?i)Respuesta correcta:\s*([A-Z])\)\s*(.+)$`)
)

// metaField identifies one of the recognized metadata keys.
type metaField int

const (
	fieldDomain metaField = iota
	fieldTopic
	fieldSubtopic
	fieldFocus
)

// metaKeys maps folded (lower-case, diacritic-free) keys to fields.
var metaKeys = map[string]metaField{
	"area":               fieldDomain,
	"tema":               fieldTopic,
	"subtema":            fieldSubtopic,
	"subtema especifico": fieldFocus,
}

// ParseChunk turns one block into a Question. The only failure is a block
// without a well-formed header line, reported as ErrMalformedBlock; every
// other irregularity leaves the corresponding field empty or nil.
func ParseChunk(block string) (types.Question, error) {
	lines := nonBlankLines(block)

	headerIdx := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.ToLower(line), headerMarker) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return types.Question{}, fmt.Errorf("%w: no header line", ErrMalformedBlock)
	}

	header := lines[headerIdx]
	number, exam, year, err := parseHeader(header)
	if err != nil {
		return types.Question{}, err
	}

	q := types.Question{
		SourceExam:       exam,
		Year:             year,
		Number:           number,
		Options:          []types.AnswerOption{},
		ClinicalEntities: []types.ClinicalEntity{},
		Metadata:         types.Metadata{RawHeader: header},
	}

	idx := headerIdx + 1
	for ; idx < len(lines); idx++ {
		field, value, ok := parseMetaLine(unitext.TrimSpace(lines[idx]))
		if !ok {
			break
		}
		setMeta(&q, field, value)
	}

	var stemLines []string
	for ; idx < len(lines); idx++ {
		line := unitext.TrimSpace(lines[idx])
		if optionRe.MatchString(line) {
			break
		}
		stemLines = append(stemLines, line)
	}
	q.Stem = unitext.TrimSpace(strings.Join(stemLines, "\n"))

	seen := make(map[string]bool)
	for ; idx < len(lines); idx++ {
		line := unitext.TrimSpace(lines[idx])
		if isAnswerLine(line) {
			break
		}
		m := optionRe.FindStringSubmatch(line)
		if m == nil || seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		q.Options = append(q.Options, types.AnswerOption{ID: m[1], Text: unitext.TrimSpace(m[2])})
	}

	q.AnswerKey, q.AnswerText = parseAnswer(lines)
	q.ReasoningTags = reasoningTags(q.Subtopic, q.Focus)
	q.ID = BuildID(q.SourceExam, q.Year, q.Number)

	return q, nil
}

// nonBlankLines splits block into right-trimmed lines, dropping blank ones.
func nonBlankLines(block string) []string {
	raw := strings.Split(strings.ReplaceAll(block, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if unitext.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, strings.TrimRightFunc(line, unitext.IsSpace))
	}
	return lines
}

// parseHeader extracts the question number, exam name and optional year
// from a line shaped "Pregunta <n> (<label>):". The last whitespace token
// of the label is taken as the year when it parses as an integer; both
// numbers accept any Unicode decimal digits.
func parseHeader(line string) (number int, exam string, year *int, err error) {
	m := headerRe.FindStringSubmatch(line)
	if m == nil {
		return 0, "", nil, fmt.Errorf("%w: unrecognized header %q", ErrMalformedBlock, line)
	}

	number, err = unitext.ParseInt(m[1])
	if err != nil {
		return 0, "", nil, fmt.Errorf("%w: question number %q: %v", ErrMalformedBlock, m[1], err)
	}

	label := unitext.TrimSpace(m[2])
	tokens := unitext.Fields(label)
	exam = label
	if len(tokens) > 0 {
		if y, convErr := unitext.ParseInt(tokens[len(tokens)-1]); convErr == nil {
			year = &y
			// A label that is only a year keeps it as the exam name.
			if len(tokens) > 1 {
				exam = strings.Join(tokens[:len(tokens)-1], " ")
			} else {
				exam = tokens[0]
			}
		}
	}

	return number, unitext.TrimSpace(exam), year, nil
}

// parseMetaLine recognizes "<Key>: <Value>" for the known metadata keys.
func parseMetaLine(line string) (metaField, string, bool) {
	m := metaLineRe.FindStringSubmatch(line)
	if m == nil {
		return 0, "", false
	}
	field, ok := metaKeys[foldKey(m[1])]
	if !ok {
		return 0, "", false
	}
	return field, unitext.TrimSpace(m[2]), true
}

// foldKey lower-cases key and strips combining marks, so "Área" and "AREA"
// compare equal.
func foldKey(key string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, key)
	if err != nil {
		folded = key
	}
	return strings.ToLower(folded)
}

// setMeta stores a metadata value; blank values leave the field nil.
func setMeta(q *types.Question, field metaField, value string) {
	if value == "" {
		return
	}
	v := value
	switch field {
	case fieldDomain:
		q.Domain = &v
	case fieldTopic:
		q.Topic = &v
	case fieldSubtopic:
		q.Subtopic = &v
	case fieldFocus:
		q.Focus = &v
	}
}

func isAnswerLine(line string) bool {
	return strings.HasPrefix(strings.ToLower(line), answerMarker)
}

// parseAnswer finds the first answer-marker line and extracts the letter
// and restated text. A marker line in any other shape yields empty values.
func parseAnswer(lines []string) (key, text string) {
	for _, line := range lines {
		line = unitext.TrimSpace(line)
		if !isAnswerLine(line) {
			continue
		}
		if m := answerRe.FindStringSubmatch(line); m != nil {
			return strings.ToUpper(m[1]), unitext.TrimSpace(m[2])
		}
		return "", ""
	}
	return "", ""
}

// reasoningTags returns the normalized, de-duplicated, sorted non-empty
// values of the subtopic and focus fields.
func reasoningTags(values ...*string) []string {
	set := make(map[string]bool)
	for _, v := range values {
		if v == nil {
			continue
		}
		if tag := normalizeSpaces(*v); tag != "" {
			set[tag] = true
		}
	}

	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// normalizeSpaces collapses every whitespace run to one space and trims.
func normalizeSpaces(s string) string {
	return strings.Join(unitext.Fields(s), " ")
}
