package similarity

import (
	"math"

	"github.com/kailas-cloud/simdex/internal/domain/document"
	"github.com/kailas-cloud/simdex/internal/domain/similarity/result"
)

// Algorithm names reported by the engine.
const (
	AlgorithmSequence    = "sequence"
	AlgorithmCosine      = "cosine"
	AlgorithmJaccard     = "jaccard"
	AlgorithmLevenshtein = "levenshtein"
	AlgorithmTFIDF       = "tfidf"
	AlgorithmCombined    = "combined"
)

// Algorithms lists every metric the engine computes.
func Algorithms() []string {
	return []string{
		AlgorithmSequence, AlgorithmCosine, AlgorithmJaccard,
		AlgorithmLevenshtein, AlgorithmTFIDF, AlgorithmCombined,
	}
}

// Scorer computes combined scores with fixed weights and stop words.
type Scorer struct {
	weights   Weights
	stopWords StopWords
	minLength int
}

// NewScorer creates a Scorer. Zero weights fall back to DefaultWeights.
func NewScorer(weights Weights) *Scorer {
	if weights.IsZero() {
		weights = DefaultWeights()
	}
	return &Scorer{weights: weights, stopWords: defaultStopWords, minLength: DefaultMinKeywordLength}
}

// WithStopWords replaces the stop word set used for keyword extraction.
func (s *Scorer) WithStopWords(stop StopWords) *Scorer {
	s.stopWords = stop
	return s
}

// Weights returns the configured weights.
func (s *Scorer) Weights() Weights { return s.weights }

// Keywords extracts keywords with the scorer's stop words and minimum length.
func (s *Scorer) Keywords(text string) KeywordSet {
	return extractKeywords(text, s.minLength, s.stopWords)
}

// Combined returns the weighted score of two texts with an optional title bonus.
// Either text empty yields 0 without consulting the titles.
func (s *Scorer) Combined(text1, text2, title1, title2 string) float64 {
	if text1 == "" || text2 == "" {
		return 0.0
	}
	return s.weigh(
		Sequence(text1, text2),
		Cosine(text1, text2),
		Jaccard(s.Keywords(text1), s.Keywords(text2)),
		titleSimilarity(title1, title2),
	)
}

// Compare scores target against candidate on their contents, titles feeding the bonus.
// The individual metrics are filled in for diagnostics.
func (s *Scorer) Compare(target, candidate document.Document) result.Result {
	t1, t2 := target.Content(), candidate.Content()
	m := result.Metrics{
		Sequence:    Sequence(t1, t2),
		Cosine:      Cosine(t1, t2),
		Jaccard:     Jaccard(s.Keywords(t1), s.Keywords(t2)),
		Levenshtein: Levenshtein(t1, t2),
		TFIDF:       TFIDF(t1, t2),
	}
	combined := 0.0
	if t1 != "" && t2 != "" {
		combined = s.weigh(m.Sequence, m.Cosine, m.Jaccard, titleSimilarity(target.Title(), candidate.Title()))
	}
	return result.New(target.ID(), candidate.ID(), m, combined)
}

func (s *Scorer) weigh(seq, cos, jac, title float64) float64 {
	score := s.weights.Sequence*seq +
		s.weights.Cosine*cos +
		s.weights.Jaccard*jac +
		s.weights.TitleBonus*title
	return math.Min(1.0, score)
}

func titleSimilarity(title1, title2 string) float64 {
	if title1 == "" || title2 == "" {
		return 0.0
	}
	return Sequence(title1, title2)
}
