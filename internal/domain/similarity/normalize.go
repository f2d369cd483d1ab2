// Package similarity implements the text-similarity metrics used to rank tickets:
// normalization, keyword extraction, the individual metrics and the weighted combined score.
// Everything here is pure and safe for concurrent use.
package similarity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonSpacingMarks = runes.In(unicode.Mn)

// Normalize canonicalizes text for comparison: lowercase, diacritics removed,
// every run of non-word characters collapsed to a single space, trimmed.
// Word characters are Unicode letters, numbers and underscore.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	// transform.Chain keeps state, so each call builds its own.
	folder := transform.Chain(norm.NFD, runes.Remove(nonSpacingMarks))
	folded, _, err := transform.String(folder, strings.ToLower(text))
	if err != nil {
		folded = strings.ToLower(text)
	}
	return strings.Join(strings.FieldsFunc(folded, isSeparator), " ")
}

// Tokens returns the whitespace-separated tokens of the normalized text.
func Tokens(text string) []string {
	return strings.Fields(Normalize(text))
}

func isSeparator(r rune) bool {
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
