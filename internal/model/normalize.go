package model

import (
	"strings"
	"unicode"
)

// NormalizeKey builds the fuzzy-matching key for entity names: lowercased,
// with punctuation and whitespace runs collapsed to a single space.
// "O'Brien,  Kate" and "o brien kate" produce the same key.
func NormalizeKey(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	space := false
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			// punctuation and whitespace both act as soft separators
			space = true
		}
	}
	return b.String()
}
