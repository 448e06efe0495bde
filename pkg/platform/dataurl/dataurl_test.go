package dataurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("decodes base64 payload", func(t *testing.T) {
		got, err := Parse("data:image/png;base64,aGVsbG8=")
		require.NoError(t, err)
		assert.Equal(t, "image/png", got.ContentType)
		assert.Equal(t, []byte("hello"), got.Data)
	})

	t.Run("defaults media type", func(t *testing.T) {
		got, err := Parse("data:;base64,aGk=")
		require.NoError(t, err)
		assert.Equal(t, "text/plain", got.ContentType)
	})

	tests := map[string]string{
		"missing scheme":     "image/png;base64,aGVsbG8=",
		"missing comma":      "data:image/png;base64",
		"not base64 encoded": "data:text/plain,hello",
		"corrupt payload":    "data:image/png;base64,@@@",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(input)
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	encoded := Encode("application/pdf", []byte("%PDF-1.4"))
	assert.True(t, IsDataURL(encoded))

	got, err := Parse(encoded)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", got.ContentType)
	assert.Equal(t, []byte("%PDF-1.4"), got.Data)
}
