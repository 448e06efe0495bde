package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayNameFromEmail(t *testing.T) {
	tests := []struct {
		email    string
		expected string
	}{
		{"ana.perez@uni.edu.co", "Ana Perez"},
		{"ANA_maria.lopez@uni.edu.co", "Ana Lopez"},
		{"jgomez@uni.edu.co", "Jgomez"},
		{"luis2024@uni.edu.co", "Luis"},
		{"1234@uni.edu.co", ""},
		{"", ""},
		{"no-at-sign", "No Sign"},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.expected, DisplayNameFromEmail(tt.email))
		})
	}
}
