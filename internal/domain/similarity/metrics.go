package similarity

import (
	"math"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Jaccard returns |A∩B| / |A∪B|. Two empty sets are identical; exactly one empty set shares nothing.
func Jaccard(a, b KeywordSet) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for w := range small {
		if large.Has(w) {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Cosine returns the cosine of the raw term-frequency vectors of the normalized texts.
func Cosine(text1, text2 string) float64 {
	if text1 == "" || text2 == "" {
		return 0.0
	}
	w1, w2 := Tokens(text1), Tokens(text2)
	if len(w1) == 0 || len(w2) == 0 {
		return 0.0
	}
	f1, f2 := termCounts(w1), termCounts(w2)
	v1 := make(map[string]float64, len(f1))
	v2 := make(map[string]float64, len(f2))
	for w, c := range f1 {
		v1[w] = float64(c)
	}
	for w, c := range f2 {
		v2[w] = float64(c)
	}
	return cosineOf(v1, v2)
}

// TFIDF returns the cosine of two-document TF-IDF vectors: term frequency divided by
// document length, weighted by ln(2/(df+1))+1 where df counts the documents holding the term.
func TFIDF(text1, text2 string) float64 {
	if text1 == "" || text2 == "" {
		return 0.0
	}
	w1, w2 := Tokens(text1), Tokens(text2)
	if len(w1) == 0 || len(w2) == 0 {
		return 0.0
	}
	f1, f2 := termCounts(w1), termCounts(w2)
	idf := func(w string) float64 {
		df := 0
		if _, ok := f1[w]; ok {
			df++
		}
		if _, ok := f2[w]; ok {
			df++
		}
		return math.Log(2.0/float64(df+1)) + 1
	}
	v1 := make(map[string]float64, len(f1))
	v2 := make(map[string]float64, len(f2))
	for w, c := range f1 {
		v1[w] = float64(c) / float64(len(w1)) * idf(w)
	}
	for w, c := range f2 {
		v2[w] = float64(c) / float64(len(w2)) * idf(w)
	}
	return cosineOf(v1, v2)
}

// Levenshtein returns 1 - distance/maxLen over the normalized texts, measured in characters.
// Two empty texts are identical; exactly one empty text shares nothing.
func Levenshtein(text1, text2 string) float64 {
	if text1 == "" && text2 == "" {
		return 1.0
	}
	if text1 == "" || text2 == "" {
		return 0.0
	}
	n1, n2 := Normalize(text1), Normalize(text2)
	maxLen := max(utf8.RuneCountInString(n1), utf8.RuneCountInString(n2))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein.ComputeDistance(n1, n2))/float64(maxLen)
}

func termCounts(words []string) map[string]int {
	counts := make(map[string]int, len(words))
	for _, w := range words {
		counts[w]++
	}
	return counts
}

// cosineOf treats absent keys as zero components.
func cosineOf(v1, v2 map[string]float64) float64 {
	var dot, n1, n2 float64
	for w, x := range v1 {
		n1 += x * x
		if y, ok := v2[w]; ok {
			dot += x * y
		}
	}
	for _, y := range v2 {
		n2 += y * y
	}
	if n1 == 0 || n2 == 0 {
		return 0.0
	}
	return clamp01(dot / (math.Sqrt(n1) * math.Sqrt(n2)))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
