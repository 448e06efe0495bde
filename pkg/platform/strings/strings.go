// Package strings normalizes user-entered labels such as form question texts
// and select options.
package strings

import (
	"strings"
	"unicode"
)

// CollapseSpace trims s and replaces every inner run of whitespace with a single space.
//
//	CollapseSpace("  Talla   de\tcamiseta ") // "Talla de camiseta"
func CollapseSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// FoldKey is the comparison key for labels that differ only in case or spacing.
func FoldKey(s string) string {
	return strings.ToLower(CollapseSpace(s))
}

// DedupeFold collapses whitespace in each value, drops blanks and removes
// values equal under FoldKey. The first spelling wins and order is preserved.
//
//	DedupeFold([]string{" S", "m", "M ", "", "Extra  grande"}) // ["S", "m", "Extra grande"]
func DedupeFold(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		label := CollapseSpace(v)
		if label == "" {
			continue
		}
		key := strings.ToLower(label)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, label)
	}
	return result
}
