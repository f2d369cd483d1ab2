package similarity

import "unicode/utf8"

// DefaultMinKeywordLength is the shortest token, in characters, kept as a keyword.
const DefaultMinKeywordLength = 3

// KeywordSet is a set of normalized keywords.
type KeywordSet map[string]struct{}

// Has reports whether the set contains the keyword.
func (k KeywordSet) Has(word string) bool {
	_, ok := k[word]
	return ok
}

// ExtractKeywords returns the distinct normalized tokens of text that are at least
// minLength characters long and are not default stop words.
func ExtractKeywords(text string, minLength int) KeywordSet {
	return extractKeywords(text, minLength, defaultStopWords)
}

func extractKeywords(text string, minLength int, stop StopWords) KeywordSet {
	set := KeywordSet{}
	for _, tok := range Tokens(text) {
		if utf8.RuneCountInString(tok) < minLength || stop.Contains(tok) {
			continue
		}
		set[tok] = struct{}{}
	}
	return set
}
