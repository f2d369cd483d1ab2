package ticket

import (
	"context"

	"github.com/kailas-cloud/simdex/internal/domain/document"
	"github.com/kailas-cloud/simdex/internal/domain/similarity/request"
	"github.com/kailas-cloud/simdex/internal/usecase/ranking"
)

// Source reads tickets from the help desk.
type Source interface {
	GetTicket(ctx context.Context, id int) (document.Document, error)
	ListTickets(ctx context.Context, limit int) ([]document.Document, error)
}

// Ranker ranks candidates against a target.
type Ranker interface {
	FindSimilar(
		ctx context.Context,
		target document.Document,
		candidates []document.Document,
		req request.RankRequest,
	) ranking.Report
}
