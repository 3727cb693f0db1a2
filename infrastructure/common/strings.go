package common

import (
	"strings"
	"unicode"
)

// ToSnakeCase converts a Go field name to its snake_case column name.
// Runs of capitals stay together, so "BoxID" becomes "box_id".
func ToSnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder

	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if i > 0 && (prevLower || nextLower) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}
