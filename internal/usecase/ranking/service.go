package ranking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/simdex/internal/domain"
	"github.com/kailas-cloud/simdex/internal/domain/document"
	"github.com/kailas-cloud/simdex/internal/domain/similarity"
	"github.com/kailas-cloud/simdex/internal/domain/similarity/request"
	"github.com/kailas-cloud/simdex/internal/domain/similarity/result"
	"github.com/kailas-cloud/simdex/internal/metrics"
)

// Defaults for the batch ranker.
const (
	DefaultWorkers     = 2
	DefaultMaxItems    = 200
	DefaultTaskTimeout = 30 * time.Second
)

// Operation names used in logs and metrics.
const (
	OpFindSimilar = "find_similar"
	OpMatrix      = "matrix"
)

var errNotComputed = errors.New("comparison not computed")

// Service ranks candidate documents against a target by combined similarity.
// Comparisons run on a bounded worker pool; a failing comparison is isolated
// to its own result and never aborts the batch.
type Service struct {
	scorer      PairScorer
	pool        Executor
	fallback    Executor
	workers     int
	maxItems    int
	taskTimeout time.Duration
	logger      *zap.Logger
}

// New creates a ranking service with default limits.
func New(scorer PairScorer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		scorer:      scorer,
		pool:        NewPool(DefaultWorkers),
		fallback:    Sequential{},
		workers:     DefaultWorkers,
		maxItems:    DefaultMaxItems,
		taskTimeout: DefaultTaskTimeout,
		logger:      logger,
	}
}

// WithWorkers sets the worker pool size.
func (s *Service) WithWorkers(n int) *Service {
	if n > 0 {
		s.workers = n
		s.pool = NewPool(n)
	}
	return s
}

// WithMaxItems caps the number of candidates compared per call.
func (s *Service) WithMaxItems(n int) *Service {
	if n > 0 {
		s.maxItems = n
	}
	return s
}

// WithTaskTimeout bounds a single pairwise comparison.
func (s *Service) WithTaskTimeout(d time.Duration) *Service {
	if d > 0 {
		s.taskTimeout = d
	}
	return s
}

// WithExecutor replaces the concurrent executor.
func (s *Service) WithExecutor(e Executor) *Service {
	if e != nil {
		s.pool = e
	}
	return s
}

// Report is the outcome of a ranking call.
type Report struct {
	// Results passed the threshold, ordered by combined score descending.
	Results []result.Result
	// Failed holds the comparisons that errored or timed out.
	Failed []result.Result
	// Compared is the number of pairs evaluated.
	Compared int
	// Truncated is set when the input exceeded the item cap.
	Truncated bool
	// Sequential is set when the worker pool failed and the batch was recomputed in order.
	Sequential bool
}

type pair struct {
	a, b document.Document
}

// FindSimilar compares target with every candidate and returns those scoring at least
// the request threshold, best first, at most MaxResults of them.
// An empty candidate list yields an empty report.
func (s *Service) FindSimilar(
	ctx context.Context,
	target document.Document,
	candidates []document.Document,
	req request.RankRequest,
) Report {
	if len(candidates) == 0 {
		return Report{Results: []result.Result{}}
	}

	candidates, truncated := s.capItems(OpFindSimilar, candidates)
	pairs := make([]pair, len(candidates))
	for i, c := range candidates {
		pairs[i] = pair{a: target, b: c}
	}

	start := time.Now()
	results, sequential := s.run(ctx, OpFindSimilar, pairs)
	kept, failed := selectResults(results, req.Threshold(), req.MaxResults())

	s.logger.Info("ranking complete",
		zap.String("operation", OpFindSimilar),
		zap.String("target_id", target.ID()),
		zap.Int("pairs", len(pairs)),
		zap.Int("matches", len(kept)),
		zap.Int("failed", len(failed)),
		zap.Duration("duration", time.Since(start)),
	)

	return Report{
		Results:    kept,
		Failed:     failed,
		Compared:   len(pairs),
		Truncated:  truncated,
		Sequential: sequential,
	}
}

// Matrix compares every unordered pair of docs and returns those scoring at least threshold, best first.
// Fewer than two documents yield an empty report.
func (s *Service) Matrix(ctx context.Context, docs []document.Document, threshold float64) Report {
	if len(docs) < 2 {
		return Report{Results: []result.Result{}}
	}
	if math.IsNaN(threshold) {
		threshold = request.DefaultThreshold
	}
	threshold = math.Max(0, math.Min(1, threshold))

	docs, truncated := s.capItems(OpMatrix, docs)
	pairs := make([]pair, 0, len(docs)*(len(docs)-1)/2)
	for i := range docs {
		for j := i + 1; j < len(docs); j++ {
			pairs = append(pairs, pair{a: docs[i], b: docs[j]})
		}
	}

	start := time.Now()
	results, sequential := s.run(ctx, OpMatrix, pairs)
	kept, failed := selectResults(results, threshold, -1)

	s.logger.Info("ranking complete",
		zap.String("operation", OpMatrix),
		zap.Int("pairs", len(pairs)),
		zap.Int("matches", len(kept)),
		zap.Int("failed", len(failed)),
		zap.Duration("duration", time.Since(start)),
	)

	return Report{
		Results:    kept,
		Failed:     failed,
		Compared:   len(pairs),
		Truncated:  truncated,
		Sequential: sequential,
	}
}

// Stats describes the engine configuration.
type Stats struct {
	Workers     int
	MaxItems    int
	TaskTimeout time.Duration
	Algorithms  []string
	Weights     similarity.Weights
}

// Stats returns the engine configuration.
func (s *Service) Stats() Stats {
	st := Stats{
		Workers:     s.workers,
		MaxItems:    s.maxItems,
		TaskTimeout: s.taskTimeout,
		Algorithms:  similarity.Algorithms(),
		Weights:     similarity.DefaultWeights(),
	}
	if w, ok := s.scorer.(interface{ Weights() similarity.Weights }); ok {
		st.Weights = w.Weights()
	}
	return st
}

// SelfCheck ranks a fixed document against itself through the full pipeline.
func (s *Service) SelfCheck(ctx context.Context) error {
	sample := document.New("selfcheck", "similarity self check", "similarity engine self check")
	rep := s.FindSimilar(ctx, sample, []document.Document{sample}, request.ClampRank(0, 1))
	if len(rep.Failed) > 0 {
		return rep.Failed[0].Err()
	}
	if len(rep.Results) != 1 || rep.Results[0].Combined() < 0.99 {
		return fmt.Errorf("%w: self-check document did not match itself", domain.ErrSimilarityComputation)
	}
	return nil
}

func (s *Service) capItems(op string, docs []document.Document) ([]document.Document, bool) {
	if len(docs) <= s.maxItems {
		return docs, false
	}
	s.logger.Warn("item cap exceeded, truncating",
		zap.String("operation", op),
		zap.Int("items", len(docs)),
		zap.Int("max_items", s.maxItems),
	)
	metrics.RankingCandidatesTruncatedTotal.WithLabelValues(op).Inc()
	return docs[:s.maxItems], true
}

// run scores all pairs, result i belonging to pairs[i]. If the pool fails the
// whole batch is recomputed sequentially.
func (s *Service) run(ctx context.Context, op string, pairs []pair) ([]result.Result, bool) {
	start := time.Now()
	results := make([]result.Result, len(pairs))
	task := func(ctx context.Context, i int) {
		results[i] = s.compare(ctx, op, pairs[i].a, pairs[i].b)
	}

	reset(results, pairs)
	err := s.pool.Run(ctx, len(pairs), task)
	if err == nil {
		metrics.RankingDuration.WithLabelValues(op, "parallel").Observe(time.Since(start).Seconds())
		return results, false
	}

	s.logger.Error("worker pool failed, recomputing sequentially",
		zap.String("operation", op),
		zap.Int("pairs", len(pairs)),
		zap.Error(err),
	)
	metrics.RankingFallbackTotal.WithLabelValues(op).Inc()

	start = time.Now()
	reset(results, pairs)
	if err := s.fallback.Run(ctx, len(pairs), task); err != nil {
		s.logger.Error("sequential ranking failed", zap.String("operation", op), zap.Error(err))
	}
	metrics.RankingDuration.WithLabelValues(op, "sequential").Observe(time.Since(start).Seconds())
	return results, true
}

func reset(results []result.Result, pairs []pair) {
	for i, p := range pairs {
		results[i] = result.NewError(p.a.ID(), p.b.ID(), fmt.Errorf("%w: %w", domain.ErrSimilarityComputation, errNotComputed))
	}
}

// compare scores one pair under the task timeout, turning panics and
// timeouts into error results.
func (s *Service) compare(ctx context.Context, op string, a, b document.Document) result.Result {
	if err := ctx.Err(); err != nil {
		return s.failed(op, a, b, "timeout", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.taskTimeout)
	defer cancel()

	// Buffered so an abandoned comparison can still finish and exit.
	done := make(chan result.Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result.NewError(a.ID(), b.ID(), fmt.Errorf("panic: %v", r))
			}
		}()
		done <- s.scorer.Compare(a, b)
	}()

	select {
	case res := <-done:
		if res.Failed() {
			return s.failed(op, a, b, "error", res.Err())
		}
		metrics.RankingPairsTotal.WithLabelValues(op, "ok").Inc()
		return res
	case <-ctx.Done():
		return s.failed(op, a, b, "timeout", fmt.Errorf("exceeded %s: %w", s.taskTimeout, ctx.Err()))
	}
}

func (s *Service) failed(op string, a, b document.Document, status string, err error) result.Result {
	if !errors.Is(err, domain.ErrSimilarityComputation) {
		err = fmt.Errorf("%w: %w", domain.ErrSimilarityComputation, err)
	}
	metrics.RankingPairsTotal.WithLabelValues(op, status).Inc()
	s.logger.Warn("comparison failed",
		zap.String("operation", op),
		zap.String("id1", a.ID()),
		zap.String("id2", b.ID()),
		zap.String("status", status),
		zap.Error(err),
	)
	return result.NewError(a.ID(), b.ID(), err)
}

// selectResults drops failures and results below threshold, then orders by combined
// score descending. Ties keep input order. A negative limit keeps everything.
func selectResults(results []result.Result, threshold float64, limit int) (kept, failed []result.Result) {
	kept = make([]result.Result, 0, len(results))
	for _, r := range results {
		if r.Failed() {
			failed = append(failed, r)
			continue
		}
		if r.Combined() >= threshold {
			kept = append(kept, r)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Combined() > kept[j].Combined()
	})
	if limit >= 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	return kept, failed
}
