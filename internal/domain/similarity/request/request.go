package request

import (
	"fmt"
	"math"
	"strings"
)

// Defaults and caps applied at the request boundary.
const (
	DefaultThreshold       = 0.3
	DefaultMaxResults      = 10
	MaxResults             = 50
	DefaultSearchThreshold = 0.1
	DefaultTopK            = 5
	MaxTopK                = 20
)

// RankRequest is a validated ranking query: keep results scoring at least threshold, at most maxResults of them.
type RankRequest struct {
	threshold  float64
	maxResults int
}

// NewRank validates caller-supplied ranking parameters.
// A nil threshold means DefaultThreshold; maxResults is clamped to [1, MaxResults], zero meaning the default.
func NewRank(threshold *float64, maxResults int) (RankRequest, error) {
	th := DefaultThreshold
	if threshold != nil {
		th = *threshold
	}
	if th < 0 || th > 1 || math.IsNaN(th) {
		return RankRequest{}, fmt.Errorf("threshold must be between 0 and 1")
	}
	if maxResults < 0 {
		return RankRequest{}, fmt.Errorf("max_results must be positive")
	}
	if maxResults == 0 {
		maxResults = DefaultMaxResults
	}
	if maxResults > MaxResults {
		maxResults = MaxResults
	}
	return RankRequest{threshold: th, maxResults: maxResults}, nil
}

// ClampRank builds a RankRequest without rejecting anything: threshold is clamped
// to [0,1] and a negative maxResults becomes 0, which yields no results.
func ClampRank(threshold float64, maxResults int) RankRequest {
	if math.IsNaN(threshold) {
		threshold = DefaultThreshold
	}
	return RankRequest{
		threshold:  math.Max(0, math.Min(1, threshold)),
		maxResults: max(0, maxResults),
	}
}

// Threshold returns the minimum combined score.
func (r *RankRequest) Threshold() float64 { return r.threshold }

// MaxResults returns the result cap.
func (r *RankRequest) MaxResults() int { return r.maxResults }

// SearchRequest is a validated free-text similarity search.
type SearchRequest struct {
	title     string
	content   string
	topK      int
	threshold float64
}

// NewSearch validates a free-text search. At least one of title or content must be non-blank.
// topK is clamped to [1, MaxTopK], zero meaning DefaultTopK; a nil threshold means DefaultSearchThreshold.
func NewSearch(title, content string, topK int, threshold *float64) (SearchRequest, error) {
	if strings.TrimSpace(title) == "" && strings.TrimSpace(content) == "" {
		return SearchRequest{}, fmt.Errorf("title or content is required")
	}
	if topK < 0 {
		return SearchRequest{}, fmt.Errorf("top_k must be positive")
	}
	if topK == 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}
	th := DefaultSearchThreshold
	if threshold != nil {
		th = *threshold
	}
	if th < 0 || th > 1 || math.IsNaN(th) {
		return SearchRequest{}, fmt.Errorf("threshold must be between 0 and 1")
	}
	return SearchRequest{title: title, content: content, topK: topK, threshold: th}, nil
}

// Title returns the query title.
func (r *SearchRequest) Title() string { return r.title }

// Content returns the query body.
func (r *SearchRequest) Content() string { return r.content }

// TopK returns the number of results to return.
func (r *SearchRequest) TopK() int { return r.topK }

// Threshold returns the minimum combined score.
func (r *SearchRequest) Threshold() float64 { return r.threshold }

// Rank converts the search into ranking parameters.
func (r *SearchRequest) Rank() RankRequest {
	return RankRequest{threshold: r.threshold, maxResults: r.topK}
}
