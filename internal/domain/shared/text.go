// Package shared holds primitives used by every domain package
package shared

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// CleanText strips control characters (C0, DEL and C1) and surrounding
// whitespace from free-text input. Newlines and tabs inside the text are
// kept so multi-line descriptions survive.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(cleaned)
}

// TooLong reports whether s exceeds max characters
func TooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}
