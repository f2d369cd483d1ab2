// Package simdex ranks short texts, such as help desk tickets, by lexical similarity.
//
// The Engine combines a sequence-matching ratio, term-frequency cosine, keyword Jaccard
// and a title bonus into one score in [0,1]. Comparisons run on a bounded worker pool;
// a failing pair is reported without aborting the batch.
package simdex

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kailas-cloud/simdex/internal/domain/document"
	"github.com/kailas-cloud/simdex/internal/domain/similarity"
	"github.com/kailas-cloud/simdex/internal/domain/similarity/request"
	"github.com/kailas-cloud/simdex/internal/domain/similarity/result"
	rankinguc "github.com/kailas-cloud/simdex/internal/usecase/ranking"
)

// Document is a text to compare.
type Document struct {
	ID      string
	Title   string
	Content string
}

// Result is the comparison of ID1 (the target) with ID2.
type Result struct {
	ID1         string
	ID2         string
	Score       float64
	Sequence    float64
	Cosine      float64
	Jaccard     float64
	Levenshtein float64
	TFIDF       float64
	Err         error
}

// Weights are the coefficients of the combined score.
type Weights struct {
	Sequence   float64
	Cosine     float64
	Jaccard    float64
	TitleBonus float64
}

// DefaultWeights returns the weights used when none are configured.
func DefaultWeights() Weights {
	return weightsFromDomain(similarity.DefaultWeights())
}

// Report is the outcome of a ranking call.
type Report struct {
	// Results scored at least the threshold, best first.
	Results []Result
	// Failed comparisons, excluded from Results.
	Failed []Result
	// Compared is the number of pairs evaluated.
	Compared int
	// Truncated is set when the input exceeded the item cap.
	Truncated bool
}

// Stats describes the engine configuration.
type Stats struct {
	Workers     int
	MaxItems    int
	TaskTimeout time.Duration
	Algorithms  []string
	Weights     Weights
}

// Engine scores and ranks documents. It is safe for concurrent use.
type Engine struct {
	scorer  *similarity.Scorer
	ranking *rankinguc.Service
}

// New creates an Engine.
func New(opts ...Option) (*Engine, error) {
	cfg := &engineConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	w := similarity.DefaultWeights()
	if cfg.weights != (Weights{}) {
		w = similarity.Weights(cfg.weights)
		if err := w.Validate(); err != nil {
			return nil, fmt.Errorf("simdex: %w", err)
		}
	}

	scorer := similarity.NewScorer(w)
	if cfg.stopWords != nil {
		scorer = scorer.WithStopWords(similarity.NewStopWords(cfg.stopWords...))
	}

	ranking := rankinguc.New(scorer, cfg.logger).
		WithWorkers(cfg.workers).
		WithMaxItems(cfg.maxItems).
		WithTaskTimeout(cfg.taskTimeout)

	return &Engine{scorer: scorer, ranking: ranking}, nil
}

// FindSimilar ranks candidates against target and returns those scoring at least
// threshold, best first, at most maxResults of them.
// threshold is clamped to [0,1]; maxResults <= 0 yields no results.
func (e *Engine) FindSimilar(
	ctx context.Context, target Document, candidates []Document, threshold float64, maxResults int,
) Report {
	rep := e.ranking.FindSimilar(ctx, toDomain(target), toDomainAll(candidates), request.ClampRank(threshold, maxResults))
	return reportFromDomain(rep)
}

// Matrix compares every unordered pair of docs and returns those scoring at least threshold, best first.
func (e *Engine) Matrix(ctx context.Context, docs []Document, threshold float64) Report {
	th := request.ClampRank(threshold, 0)
	return reportFromDomain(e.ranking.Matrix(ctx, toDomainAll(docs), th.Threshold()))
}

// Compare scores a against b synchronously.
func (e *Engine) Compare(a, b Document) Result {
	r := e.scorer.Compare(toDomain(a), toDomain(b))
	return resultFromDomain(&r)
}

// Stats describes the engine configuration.
func (e *Engine) Stats() Stats {
	st := e.ranking.Stats()
	return Stats{
		Workers:     st.Workers,
		MaxItems:    st.MaxItems,
		TaskTimeout: st.TaskTimeout,
		Algorithms:  st.Algorithms,
		Weights:     weightsFromDomain(st.Weights),
	}
}

// Normalize returns the canonical form of text used by every metric.
func Normalize(text string) string {
	return similarity.Normalize(text)
}

// Keywords returns the sorted distinct keywords of text.
func Keywords(text string) []string {
	set := similarity.ExtractKeywords(text, similarity.DefaultMinKeywordLength)
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func toDomain(d Document) document.Document {
	return document.New(d.ID, d.Title, d.Content)
}

func toDomainAll(docs []Document) []document.Document {
	out := make([]document.Document, len(docs))
	for i, d := range docs {
		out[i] = toDomain(d)
	}
	return out
}

func resultFromDomain(r *result.Result) Result {
	m := r.Metrics()
	return Result{
		ID1:         r.ID1(),
		ID2:         r.ID2(),
		Score:       r.Combined(),
		Sequence:    m.Sequence,
		Cosine:      m.Cosine,
		Jaccard:     m.Jaccard,
		Levenshtein: m.Levenshtein,
		TFIDF:       m.TFIDF,
		Err:         r.Err(),
	}
}

func resultsFromDomain(rs []result.Result) []Result {
	out := make([]Result, len(rs))
	for i := range rs {
		out[i] = resultFromDomain(&rs[i])
	}
	return out
}

func reportFromDomain(rep rankinguc.Report) Report {
	return Report{
		Results:   resultsFromDomain(rep.Results),
		Failed:    resultsFromDomain(rep.Failed),
		Compared:  rep.Compared,
		Truncated: rep.Truncated,
	}
}

func weightsFromDomain(w similarity.Weights) Weights {
	return Weights(w)
}
