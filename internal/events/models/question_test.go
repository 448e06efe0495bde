package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "egresados/pkg/domain-errors"
	"egresados/pkg/platform/dataurl"
)

func TestNormalizeQuestions(t *testing.T) {
	t.Run("trims and defaults the type", func(t *testing.T) {
		got, err := NormalizeQuestions([]Question{
			{Text: "  Talla ", Type: QuestionSelect, Options: []string{" S", "M", "M", ""}},
			{Text: "Comentarios"},
		})
		require.NoError(t, err)
		assert.Equal(t, []Question{
			{Text: "Talla", Type: QuestionSelect, Options: []string{"S", "M"}},
			{Text: "Comentarios", Type: QuestionText},
		}, got)
	})

	tests := []struct {
		name      string
		questions []Question
		message   string
	}{
		{"blank text", []Question{{Text: "  "}}, "Question text is required"},
		{"duplicate text", []Question{{Text: "A"}, {Text: "A "}}, "Duplicate question: A"},
		{"duplicate ignoring case", []Question{{Text: "Talla"}, {Text: "talla"}}, "Duplicate question: talla"},
		{"select without options", []Question{{Text: "Talla", Type: QuestionSelect}}, "Question Talla needs at least one option"},
		{"unknown type", []Question{{Text: "X", Type: "date"}}, "Unknown question type: date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeQuestions(tt.questions)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.EqualError(t, err, tt.message)
		})
	}
}

func TestCheckResponses(t *testing.T) {
	questions := []Question{
		{Text: "Talla", Type: QuestionSelect, Options: []string{"S", "M", "L"}},
		{Text: "Motivo", Type: QuestionText},
		{Text: "Certificado", Type: QuestionFile},
	}
	file := dataurl.Encode("application/pdf", []byte("%PDF-1.7"))

	t.Run("all unanswered questions are listed", func(t *testing.T) {
		_, err := CheckResponses(questions, map[string]string{"Motivo": "  "})
		require.Error(t, err)
		assert.EqualError(t, err, "Unanswered questions: Talla, Motivo, Certificado")
	})

	t.Run("complete answers are kept and extras dropped", func(t *testing.T) {
		got, err := CheckResponses(questions, map[string]string{
			"Talla":       "M",
			"Motivo":      " networking ",
			"Certificado": file,
			"Extra":       "ignored",
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"Talla": "M", "Motivo": "networking", "Certificado": file}, got)
	})

	t.Run("select answer outside the options", func(t *testing.T) {
		_, err := CheckResponses(questions, map[string]string{"Talla": "XL", "Motivo": "x", "Certificado": file})
		assert.EqualError(t, err, "Invalid option for Talla")
	})

	t.Run("file answer that is not a data URL", func(t *testing.T) {
		_, err := CheckResponses(questions, map[string]string{"Talla": "S", "Motivo": "x", "Certificado": "C:\\cert.pdf"})
		assert.EqualError(t, err, "Answer to Certificado must be a file")
	})

	t.Run("no questions accepts anything", func(t *testing.T) {
		got, err := CheckResponses(nil, map[string]string{"a": "b"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestSameQuestions(t *testing.T) {
	a := []Question{{Text: "Talla", Type: QuestionSelect, Options: []string{"S", "M"}}}
	b := []Question{{Text: "Talla", Type: QuestionSelect, Options: []string{"S", "M"}}}
	assert.True(t, SameQuestions(a, b))

	b[0].Options = []string{"M", "S"}
	assert.False(t, SameQuestions(a, b))
	assert.True(t, SameQuestions(nil, []Question{}))
}
