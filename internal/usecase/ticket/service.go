package ticket

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/simdex/internal/domain"
	"github.com/kailas-cloud/simdex/internal/domain/document"
	"github.com/kailas-cloud/simdex/internal/domain/similarity"
	"github.com/kailas-cloud/simdex/internal/domain/similarity/request"
	"github.com/kailas-cloud/simdex/internal/domain/similarity/result"
)

// DefaultCandidateLimit is how many recent tickets are compared per query.
const DefaultCandidateLimit = 200

// QueryID identifies the synthetic target of a free-text search.
const QueryID = "query"

// Match is a ranked ticket with its score breakdown.
type Match struct {
	Ticket document.Document
	Result result.Result
}

// Similar is the answer to a similarity query.
type Similar struct {
	Reference document.Document
	Matches   []Match
	// Compared is the number of candidates scored.
	Compared int
	// Failed is the number of candidates whose comparison failed.
	Failed int
}

// Service finds tickets similar to an existing ticket or to free text.
type Service struct {
	source         Source
	ranker         Ranker
	candidateLimit int
	anonymize      bool
	logger         *zap.Logger
}

// New creates a ticket similarity service.
func New(source Source, ranker Ranker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		source:         source,
		ranker:         ranker,
		candidateLimit: DefaultCandidateLimit,
		logger:         logger,
	}
}

// WithCandidateLimit sets how many recent tickets are fetched as candidates.
func (s *Service) WithCandidateLimit(n int) *Service {
	if n > 0 {
		s.candidateLimit = n
	}
	return s
}

// WithAnonymization masks personal data in every ticket before scoring and output.
func (s *Service) WithAnonymization(enabled bool) *Service {
	s.anonymize = enabled
	return s
}

// FindSimilar ranks recent tickets against ticket ticketID. The reference ticket is never its own match.
func (s *Service) FindSimilar(ctx context.Context, ticketID int, req request.RankRequest) (Similar, error) {
	if ticketID <= 0 {
		return Similar{}, fmt.Errorf("ticket_id must be positive: %w", domain.ErrInvalidRequest)
	}

	ref, err := s.source.GetTicket(ctx, ticketID)
	if err != nil {
		return Similar{}, fmt.Errorf("get reference ticket: %w", err)
	}

	candidates, err := s.candidates(ctx, ref.ID())
	if err != nil {
		return Similar{}, err
	}

	ref = s.prepare(ref)
	sim := s.rank(ctx, ref, candidates, candidates, req)

	s.logger.Info("similar tickets found",
		zap.Int("ticket_id", ticketID),
		zap.Int("candidates", sim.Compared),
		zap.Int("matches", len(sim.Matches)),
		zap.Float64("threshold", req.Threshold()),
	)
	return sim, nil
}

// SearchSimilar ranks recent tickets against free text.
func (s *Service) SearchSimilar(ctx context.Context, req request.SearchRequest) (Similar, error) {
	candidates, err := s.candidates(ctx, "")
	if err != nil {
		return Similar{}, err
	}

	// The body compared is title and content together; the title alone feeds the title bonus.
	query := document.New(QueryID, req.Title(), strings.TrimSpace(req.Title()+" "+req.Content()))
	query = s.prepare(query)
	sim := s.rank(ctx, query, candidates, searchTexts(candidates), req.Rank())

	s.logger.Info("free-text search complete",
		zap.Int("candidates", sim.Compared),
		zap.Int("matches", len(sim.Matches)),
	)
	return sim, nil
}

func (s *Service) candidates(ctx context.Context, excludeID string) ([]document.Document, error) {
	all, err := s.source.ListTickets(ctx, s.candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("list candidate tickets: %w", err)
	}
	out := make([]document.Document, 0, len(all))
	for i := range all {
		if excludeID != "" && all[i].ID() == excludeID {
			continue
		}
		out = append(out, s.prepare(all[i]))
	}
	return out, nil
}

// searchTexts scores candidates on title and content together, like the query.
// Candidates with neither are dropped.
func searchTexts(candidates []document.Document) []document.Document {
	out := make([]document.Document, 0, len(candidates))
	for i := range candidates {
		text := candidates[i].Text()
		if text == "" {
			continue
		}
		out = append(out, candidates[i].WithText(candidates[i].Title(), text))
	}
	return out
}

func (s *Service) prepare(d document.Document) document.Document {
	if !s.anonymize {
		return d
	}
	return d.WithText(similarity.Anonymize(d.Title()), similarity.Anonymize(d.Content()))
}

// rank scores ref against scored and reports matches as the tickets they came from.
func (s *Service) rank(
	ctx context.Context,
	ref document.Document,
	tickets, scored []document.Document,
	req request.RankRequest,
) Similar {
	byID := make(map[string]document.Document, len(tickets))
	for i := range tickets {
		byID[tickets[i].ID()] = tickets[i]
	}

	rep := s.ranker.FindSimilar(ctx, ref, scored, req)
	matches := make([]Match, 0, len(rep.Results))
	for _, r := range rep.Results {
		matches = append(matches, Match{Ticket: byID[r.ID2()], Result: r})
	}
	return Similar{
		Reference: ref,
		Matches:   matches,
		Compared:  rep.Compared,
		Failed:    len(rep.Failed),
	}
}

// TicketID parses a document ID produced by the ticket source.
func TicketID(d *document.Document) (int, bool) {
	id, err := strconv.Atoi(d.ID())
	return id, err == nil
}
