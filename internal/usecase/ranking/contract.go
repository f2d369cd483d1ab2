package ranking

import (
	"github.com/kailas-cloud/simdex/internal/domain/document"
	"github.com/kailas-cloud/simdex/internal/domain/similarity/result"
)

// PairScorer compares a target document with a candidate.
// Implementations must be safe for concurrent use; a failure is reported
// through result.NewError or by panicking, never by blocking forever.
type PairScorer interface {
	Compare(target, candidate document.Document) result.Result
}
