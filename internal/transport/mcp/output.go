package mcp

import (
	"encoding/json"

	"github.com/kailas-cloud/simdex/internal/domain/document"
	"github.com/kailas-cloud/simdex/internal/domain/similarity/result"
)

const (
	previewRunes  = 200
	previewSuffix = "..."
	// envelopeSlack covers the counters and flags that change after items are fitted.
	envelopeSlack = 64
)

type scoredItem struct {
	ID              string  `json:"id"`
	Title           string  `json:"title,omitempty"`
	Content         string  `json:"content,omitempty"`
	SimilarityScore float64 `json:"similarity_score"`
	Sequence        float64 `json:"sequence_similarity"`
	Cosine          float64 `json:"cosine_similarity"`
	Jaccard         float64 `json:"jaccard_similarity"`
	Levenshtein     float64 `json:"levenshtein_similarity"`
	TFIDF           float64 `json:"tfidf_similarity"`
}

type pairItem struct {
	ID1             string  `json:"id1"`
	ID2             string  `json:"id2"`
	SimilarityScore float64 `json:"similarity_score"`
	Sequence        float64 `json:"sequence_similarity"`
	Cosine          float64 `json:"cosine_similarity"`
	Jaccard         float64 `json:"jaccard_similarity"`
	Levenshtein     float64 `json:"levenshtein_similarity"`
	TFIDF           float64 `json:"tfidf_similarity"`
}

type ticketRef struct {
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
}

type ticketsOutput struct {
	Reference      ticketRef    `json:"reference"`
	SimilarTickets []scoredItem `json:"similar_tickets"`
	Total          int          `json:"total"`
	Compared       int          `json:"compared"`
	Failed         int          `json:"failed"`
	Truncated      bool         `json:"truncated"`
}

type rankOutput struct {
	TargetID  string       `json:"target_id"`
	Results   []scoredItem `json:"results"`
	Total     int          `json:"total"`
	Compared  int          `json:"compared"`
	Failed    int          `json:"failed"`
	Truncated bool         `json:"truncated"`
}

type matrixOutput struct {
	Pairs     []pairItem `json:"pairs"`
	Total     int        `json:"total"`
	Compared  int        `json:"compared"`
	Failed    int        `json:"failed"`
	Truncated bool       `json:"truncated"`
}

type weightsOutput struct {
	Sequence   float64 `json:"sequence"`
	Cosine     float64 `json:"cosine"`
	Jaccard    float64 `json:"jaccard"`
	TitleBonus float64 `json:"title_bonus"`
}

type statsOutput struct {
	Workers          int           `json:"workers"`
	MaxItems         int           `json:"max_items"`
	TaskTimeoutSec   float64       `json:"task_timeout_sec"`
	Algorithms       []string      `json:"algorithms"`
	Weights          weightsOutput `json:"weights"`
	ResponseMaxBytes int           `json:"response_max_bytes"`
}

func newScoredItem(d document.Document, r *result.Result) scoredItem {
	m := r.Metrics().Rounded()
	return scoredItem{
		ID:              r.ID2(),
		Title:           d.Title(),
		Content:         preview(d.Content()),
		SimilarityScore: result.Round(r.Combined()),
		Sequence:        m.Sequence,
		Cosine:          m.Cosine,
		Jaccard:         m.Jaccard,
		Levenshtein:     m.Levenshtein,
		TFIDF:           m.TFIDF,
	}
}

func newPairItem(r *result.Result) pairItem {
	m := r.Metrics().Rounded()
	return pairItem{
		ID1:             r.ID1(),
		ID2:             r.ID2(),
		SimilarityScore: result.Round(r.Combined()),
		Sequence:        m.Sequence,
		Cosine:          m.Cosine,
		Jaccard:         m.Jaccard,
		Levenshtein:     m.Levenshtein,
		TFIDF:           m.TFIDF,
	}
}

// preview truncates s to previewRunes runes.
func preview(s string) string {
	runes := []rune(s)
	if len(runes) <= previewRunes {
		return s
	}
	return string(runes[:previewRunes]) + previewSuffix
}

// fitItems keeps the longest prefix of items that, embedded in envelope, stays within maxBytes.
// envelope must carry an empty item list.
func fitItems[T any](envelope any, items []T, maxBytes int) ([]T, bool) {
	base, err := json.Marshal(envelope)
	if err != nil {
		return items[:0], len(items) > 0
	}
	size := len(base) + envelopeSlack
	for i := range items {
		b, err := json.Marshal(items[i])
		if err != nil {
			return items[:i], true
		}
		size += len(b) + 1
		if size > maxBytes {
			return items[:i], true
		}
	}
	return items, false
}
