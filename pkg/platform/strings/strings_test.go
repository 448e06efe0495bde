package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollapseSpace(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"already clean", "Talla", "Talla"},
		{"outer and inner runs", "  Talla   de\tcamiseta \n", "Talla de camiseta"},
		{"blank", " \t ", ""},
		{"non-ascii", " ¿Asistirá  con acompañante? ", "¿Asistirá con acompañante?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CollapseSpace(tt.input))
		})
	}
}

func TestFoldKey(t *testing.T) {
	assert.Equal(t, FoldKey("Programa  Académico"), FoldKey(" programa académico"))
	assert.NotEqual(t, FoldKey("Talla"), FoldKey("Tallas"))
}

func TestDedupeFold(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{"nil stays nil", nil, nil},
		{"first spelling wins", []string{" S", "m", "M ", "", "Extra  grande"}, []string{"S", "m", "Extra grande"}},
		{"only blanks", []string{"", "  "}, []string{}},
		{"order preserved", []string{"L", "S", "M"}, []string{"L", "S", "M"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeFold(tt.input))
		})
	}
}
