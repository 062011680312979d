// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/qbank/pkg/types"
)

const fullBlock = `Pregunta 7 (ENARM 2023):
Área: Medicina interna
Tema: Infectología
Subtema: Fiebre   tifoidea
Subtema específico: Diagnóstico

Paciente de 25 años con fiebre de 3 días.
  ¿Cuál es el diagnóstico?
A) Foo
B) Bar
Respuesta correcta: B) Bar`

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }

// --- Segment ---

func TestSegment(t *testing.T) {
	rule := strings.Repeat("─", 20)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "blank lines around delimiter",
			text: "uno\n\n" + rule + "\n\ndos\n",
			want: []string{"uno", "dos"},
		},
		{
			name: "ascii dashes and crlf",
			text: "uno\r\n----------\r\ndos",
			want: []string{"uno", "dos"},
		},
		{
			name: "indented delimiter",
			text: "uno\n   " + rule + "  \ndos",
			want: []string{"uno", "dos"},
		},
		{
			name: "empty blocks dropped",
			text: rule + "\n\n" + rule + "\nuno\n" + rule + "\n   \n" + rule,
			want: []string{"uno"},
		},
		{
			name: "short rule is content",
			text: "uno\n---------\ndos",
			want: []string{"uno\n---------\ndos"},
		},
		{
			name: "mixed runes are content",
			text: "uno\n-----─────\ndos",
			want: []string{"uno\n-----─────\ndos"},
		},
		{
			name: "empty document",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Segment(tt.text))
		})
	}
}

func TestSegmentRoundTrip(t *testing.T) {
	blocks := []string{
		"Pregunta 1 (A 2020):\nuno",
		"Pregunta 2 (A 2020):\ndos\nlíneas",
		"Pregunta 3 (A 2020):\ntres",
		"  Pregunta 4 (A 2020):\ncuatro  ",
	}
	text := strings.Join(blocks, "\n\n"+strings.Repeat("─", 40)+"\n\n")

	got := Segment(text)
	require.Len(t, got, len(blocks))
	for i, b := range blocks {
		assert.Equal(t, strings.TrimSpace(b), got[i], "block %d", i)
	}
}

// --- header and ID ---

func TestParseHeader(t *testing.T) {
	tests := []struct {
		line       string
		wantNumber int
		wantExam   string
		wantYear   *int
		wantErr    bool
	}{
		{"Pregunta 7 (ENARM 2023):", 7, "ENARM", intPtr(2023), false},
		{"Pregunta 3 (ENARM):", 3, "ENARM", nil, false},
		{"PREGUNTA 12 (Examen   Nacional 2019):", 12, "Examen Nacional", intPtr(2019), false},
		{"pregunta 1 (Examen Nacional):", 1, "Examen Nacional", nil, false},
		{"Pregunta 5 (2021):", 5, "2021", intPtr(2021), false},
		{"Pregunta\u00a01 (ENARM\u00a02023):", 1, "ENARM", intPtr(2023), false},
		{"Pregunta ٣ (ENARM ٢٠٢٣):", 3, "ENARM", intPtr(2023), false},
		{"Pregunta 2 (MIR 2_020):", 2, "MIR", intPtr(2020), false},
		{"Pregunta 5 (ENARM 2023) extra:", 0, "", nil, true},
		{"Pregunta sin número", 0, "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			number, exam, year, err := parseHeader(tt.line)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformedBlock))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNumber, number)
			assert.Equal(t, tt.wantExam, exam)
			assert.Equal(t, tt.wantYear, year)
		})
	}
}

func TestBuildID(t *testing.T) {
	tests := []struct {
		exam   string
		year   *int
		number int
		want   string
	}{
		{"ENARM", intPtr(2023), 7, "ENARM-2023-07"},
		{"X Y", nil, 1, "XY-XXXX-01"},
		{"enarm", intPtr(2019), 123, "ENARM-2019-123"},
		{"", nil, 4, "EXAM-XXXX-04"},
		{"ENARM", intPtr(0), 1, "ENARM-XXXX-01"},
		{"Straße\u00a0Exam", nil, 2, "STRASSEEXAM-XXXX-02"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildID(tt.exam, tt.year, tt.number))
		})
	}
}

func TestCheckUniqueIDs(t *testing.T) {
	qs := []types.Question{{ID: "A-2020-01"}, {ID: "A-2020-02"}, {ID: "A-2020-01"}}
	err := CheckUniqueIDs(qs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateID))
	assert.Contains(t, err.Error(), "A-2020-01")

	assert.NoError(t, CheckUniqueIDs(qs[:2]))
}

// --- ParseChunk ---

func TestParseChunkFull(t *testing.T) {
	q, err := ParseChunk(fullBlock)
	require.NoError(t, err)

	assert.Equal(t, "ENARM-2023-07", q.ID)
	assert.Equal(t, "ENARM", q.SourceExam)
	assert.Equal(t, intPtr(2023), q.Year)
	assert.Equal(t, 7, q.Number)
	assert.Equal(t, strPtr("Medicina interna"), q.Domain)
	assert.Equal(t, strPtr("Infectología"), q.Topic)
	assert.Equal(t, strPtr("Fiebre   tifoidea"), q.Subtopic)
	assert.Equal(t, strPtr("Diagnóstico"), q.Focus)
	assert.Equal(t, "Paciente de 25 años con fiebre de 3 días.\n¿Cuál es el diagnóstico?", q.Stem)
	assert.Equal(t, []types.AnswerOption{{ID: "A", Text: "Foo"}, {ID: "B", Text: "Bar"}}, q.Options)
	assert.Equal(t, "B", q.AnswerKey)
	assert.Equal(t, "Bar", q.AnswerText)
	assert.Equal(t, []string{"Diagnóstico", "Fiebre tifoidea"}, q.ReasoningTags)
	assert.Empty(t, q.ClinicalEntities)
	assert.NotNil(t, q.ClinicalEntities)
	assert.Equal(t, "Pregunta 7 (ENARM 2023):", q.Metadata.RawHeader)
}

func TestParseChunkWithoutMetadata(t *testing.T) {
	q, err := ParseChunk("Pregunta 2 (ENARM):\n¿Pregunta?\nA) Uno\nB) Dos\nRespuesta correcta: A) Uno")
	require.NoError(t, err)

	assert.Nil(t, q.Domain)
	assert.Nil(t, q.Topic)
	assert.Nil(t, q.Subtopic)
	assert.Nil(t, q.Focus)
	assert.Nil(t, q.Year)
	assert.Equal(t, []string{}, q.ReasoningTags)
	assert.Equal(t, "ENARM-XXXX-02", q.ID)
	assert.Equal(t, "¿Pregunta?", q.Stem)
}

func TestParseChunkMissingHeader(t *testing.T) {
	_, err := ParseChunk("Área: Cardiología\nTexto sin encabezado\nA) Uno")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedBlock))
}

func TestParseChunkDegradations(t *testing.T) {
	tests := []struct {
		name        string
		block       string
		wantStem    string
		wantOptions []types.AnswerOption
		wantKey     string
		wantText    string
	}{
		{
			name:        "stray lines between options are skipped",
			block:       "Pregunta 1 (X 2020):\nStem\nA) Uno\n(nota del editor)\nB) Dos\nRespuesta correcta: B) Dos",
			wantStem:    "Stem",
			wantOptions: []types.AnswerOption{{ID: "A", Text: "Uno"}, {ID: "B", Text: "Dos"}},
			wantKey:     "B",
			wantText:    "Dos",
		},
		{
			name:        "answer line in another shape",
			block:       "Pregunta 1 (X 2020):\nStem\nA) Uno\nRespuesta correcta: la primera",
			wantStem:    "Stem",
			wantOptions: []types.AnswerOption{{ID: "A", Text: "Uno"}},
		},
		{
			name:        "no answer line",
			block:       "Pregunta 1 (X 2020):\nStem\nA) Uno\nB) Dos",
			wantStem:    "Stem",
			wantOptions: []types.AnswerOption{{ID: "A", Text: "Uno"}, {ID: "B", Text: "Dos"}},
		},
		{
			name:        "lower-case answer letter",
			block:       "Pregunta 1 (X 2020):\nStem\nA) Uno\nB) Dos\nRESPUESTA CORRECTA: b) Dos",
			wantStem:    "Stem",
			wantOptions: []types.AnswerOption{{ID: "A", Text: "Uno"}, {ID: "B", Text: "Dos"}},
			wantKey:     "B",
			wantText:    "Dos",
		},
		{
			name:        "empty stem",
			block:       "Pregunta 1 (X 2020):\nTema: Algo\nA) Uno",
			wantStem:    "",
			wantOptions: []types.AnswerOption{{ID: "A", Text: "Uno"}},
		},
		{
			name:        "lower-case option letters stay in the stem",
			block:       "Pregunta 1 (X 2020):\nStem\na) uno",
			wantStem:    "Stem\na) uno",
			wantOptions: []types.AnswerOption{},
		},
		{
			name:        "repeated letter keeps the first option",
			block:       "Pregunta 1 (X 2020):\nStem\nA) Uno\nA) Otra vez\nB) Dos",
			wantStem:    "Stem",
			wantOptions: []types.AnswerOption{{ID: "A", Text: "Uno"}, {ID: "B", Text: "Dos"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseChunk(tt.block)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStem, q.Stem)
			assert.Equal(t, tt.wantOptions, q.Options)
			assert.Equal(t, tt.wantKey, q.AnswerKey)
			assert.Equal(t, tt.wantText, q.AnswerText)
		})
	}
}

func TestParseChunkMetadataKeys(t *testing.T) {
	block := "Pregunta 1 (X 2020):\nAREA: Pediatría\ntema: Neonatología\nSubtema especifico:   Ictericia  \nSUBTEMA ESPECÍFICO: Kernicterus\nStem"
	q, err := ParseChunk(block)
	require.NoError(t, err)

	assert.Equal(t, strPtr("Pediatría"), q.Domain)
	assert.Equal(t, strPtr("Neonatología"), q.Topic)
	assert.Nil(t, q.Subtopic)
	assert.Equal(t, strPtr("Kernicterus"), q.Focus)
	assert.Equal(t, []string{"Kernicterus"}, q.ReasoningTags)
	assert.Equal(t, "Stem", q.Stem)
}

func TestParseChunkMetadataStopsAtUnknownKey(t *testing.T) {
	block := "Pregunta 1 (X 2020):\nTema: A\nNota: algo\nSubtema: B\nStem"
	q, err := ParseChunk(block)
	require.NoError(t, err)

	assert.Equal(t, strPtr("A"), q.Topic)
	assert.Nil(t, q.Subtopic)
	assert.Equal(t, "Nota: algo\nSubtema: B\nStem", q.Stem)
}

func TestParseChunkDuplicateTagsCollapse(t *testing.T) {
	block := "Pregunta 1 (X 2020):\nSubtema: Asma  grave\nSubtema específico: Asma grave\nStem"
	q, err := ParseChunk(block)
	require.NoError(t, err)
	assert.Equal(t, []string{"Asma grave"}, q.ReasoningTags)
}

func TestParseChunkUnicodeWhitespace(t *testing.T) {
	block := "Pregunta\u00a04 (ENARM 2023):\n" +
		"Subtema:\u00a0Asma\u00a0 grave\n" +
		"Subtema específico: Asma grave\n" +
		"Paciente con tos.\n" +
		"A)\u00a0Salbutamol\n" +
		"B) Budesonida\n" +
		"Respuesta correcta:\u2003A) Salbutamol"

	q, err := ParseChunk(block)
	require.NoError(t, err)

	assert.Equal(t, "ENARM-2023-04", q.ID)
	assert.Equal(t, []string{"Asma grave"}, q.ReasoningTags)
	assert.Equal(t, "Paciente con tos.", q.Stem)
	require.Len(t, q.Options, 2)
	assert.Equal(t, "Salbutamol", q.Options[0].Text)
	assert.Equal(t, "A", q.AnswerKey)
	assert.Equal(t, "Salbutamol", q.AnswerText)
}

// --- ParseText / ParseFile ---

func sampleDocument(blocks ...string) string {
	return strings.Join(blocks, "\n\n"+strings.Repeat("─", 30)+"\n\n")
}

func TestParseTextStrictAbort(t *testing.T) {
	doc := sampleDocument(fullBlock, "sin encabezado", "Pregunta 8 (ENARM 2023):\nStem")

	var buf strings.Builder
	result, err := ParseText(doc, types.ParseConfig{}, &buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedBlock))
	assert.Contains(t, err.Error(), "block 2")
	assert.Empty(t, result.Questions)
}

func TestParseTextSkipMalformed(t *testing.T) {
	doc := sampleDocument(fullBlock, "sin encabezado", "Pregunta 8 (ENARM 2023):\nStem")

	var buf strings.Builder
	result, err := ParseText(doc, types.ParseConfig{SkipMalformed: true}, &buf)
	require.NoError(t, err)

	require.Len(t, result.Questions, 2)
	assert.Equal(t, "ENARM-2023-07", result.Questions[0].ID)
	assert.Equal(t, "ENARM-2023-08", result.Questions[1].ID)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 1, result.Skipped[0].Index)
	assert.Equal(t, 3, result.Total())
	assert.True(t, result.HasSkipped())
	assert.Contains(t, buf.String(), "skipped block 2")
}

func TestParseTextDuplicateIDs(t *testing.T) {
	doc := sampleDocument(fullBlock, fullBlock)

	var buf strings.Builder
	result, err := ParseText(doc, types.ParseConfig{}, &buf)
	require.NoError(t, err)
	assert.Len(t, result.Questions, 2)
	assert.Contains(t, buf.String(), "duplicate")

	_, err = ParseText(doc, types.ParseConfig{UniqueIDs: true}, &buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateID))
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "preguntas.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleDocument(fullBlock, "Pregunta 8 (ENARM 2023):\nStem")), 0o644))

	result, err := ParseFile(path, types.ParseConfig{}, &strings.Builder{})
	require.NoError(t, err)
	assert.Len(t, result.Questions, 2)

	_, err = ParseFile(filepath.Join(dir, "missing.txt"), types.ParseConfig{}, &strings.Builder{})
	assert.Error(t, err)
}
