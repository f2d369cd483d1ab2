package result

import "math"

// Metrics holds the individual similarity metrics of a pair.
// They are diagnostics: the combined score is computed independently.
type Metrics struct {
	Sequence    float64
	Cosine      float64
	Jaccard     float64
	Levenshtein float64
	TFIDF       float64
}

// Result is the comparison of a target document (id1) with a candidate (id2).
type Result struct {
	id1      string
	id2      string
	metrics  Metrics
	combined float64
	err      error
}

// New creates a successful comparison result.
func New(id1, id2 string, metrics Metrics, combined float64) Result {
	return Result{id1: id1, id2: id2, metrics: metrics, combined: combined}
}

// NewError creates a failed comparison result. All scores are zero.
func NewError(id1, id2 string, err error) Result {
	return Result{id1: id1, id2: id2, err: err}
}

// ID1 returns the target document identifier.
func (r *Result) ID1() string { return r.id1 }

// ID2 returns the candidate document identifier.
func (r *Result) ID2() string { return r.id2 }

// Metrics returns the diagnostic per-metric scores.
func (r *Result) Metrics() Metrics { return r.metrics }

// Combined returns the weighted ranking score.
func (r *Result) Combined() float64 { return r.combined }

// Err returns the comparison failure, nil on success.
func (r *Result) Err() error { return r.err }

// Failed reports whether the comparison failed.
func (r *Result) Failed() bool { return r.err != nil }

// ScorePrecision is the number of decimals scores are reported with.
const ScorePrecision = 4

// Round rounds a score to ScorePrecision decimals.
func Round(v float64) float64 {
	const scale = 1e4
	return math.Round(v*scale) / scale
}

// Rounded returns the metrics rounded for presentation.
func (m Metrics) Rounded() Metrics {
	return Metrics{
		Sequence:    Round(m.Sequence),
		Cosine:      Round(m.Cosine),
		Jaccard:     Round(m.Jaccard),
		Levenshtein: Round(m.Levenshtein),
		TFIDF:       Round(m.TFIDF),
	}
}
