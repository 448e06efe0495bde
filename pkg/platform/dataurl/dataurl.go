// Package dataurl parses RFC 2397 data URLs carrying base64 payloads,
// the encoding used for event images and file-type form answers.
package dataurl

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var ErrMalformed = errors.New("malformed data URL")

// DataURL is a decoded data URL.
type DataURL struct {
	ContentType string
	Data        []byte
}

// IsDataURL reports whether s looks like a data URL without decoding it.
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:") && strings.Contains(s, ",")
}

// Parse decodes a base64 data URL. Only base64 payloads are accepted.
func Parse(s string) (DataURL, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return DataURL{}, ErrMalformed
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return DataURL{}, ErrMalformed
	}
	mediaType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return DataURL{}, fmt.Errorf("%w: payload must be base64", ErrMalformed)
	}
	if mediaType == "" {
		mediaType = "text/plain"
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return DataURL{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return DataURL{ContentType: mediaType, Data: data}, nil
}

// Encode renders data as a base64 data URL.
func Encode(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
