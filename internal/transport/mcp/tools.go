package mcp

import (
	"context"
	"fmt"
	"math"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kailas-cloud/simdex/internal/domain"
	"github.com/kailas-cloud/simdex/internal/domain/document"
	"github.com/kailas-cloud/simdex/internal/domain/similarity/request"
	ticketuc "github.com/kailas-cloud/simdex/internal/usecase/ticket"
)

// --- Tool input types ---

type findSimilarTicketsInput struct {
	TicketID   int      `json:"ticket_id" jsonschema:"GLPI ticket id to compare against"`
	Threshold  *float64 `json:"threshold,omitempty" jsonschema:"minimum combined score in [0,1] (default 0.3)"`
	MaxResults *int     `json:"max_results,omitempty" jsonschema:"maximum number of matches in [1,50] (default 10)"`
}

type searchSimilarInput struct {
	Title     string   `json:"title,omitempty" jsonschema:"ticket title"`
	Content   string   `json:"content,omitempty" jsonschema:"ticket description"`
	TopK      int      `json:"top_k,omitempty" jsonschema:"number of matches in [1,20] (default 5)"`
	Threshold *float64 `json:"threshold,omitempty" jsonschema:"minimum combined score in [0,1] (default 0.1)"`
}

type documentInput struct {
	ID      any    `json:"id" jsonschema:"document id, string or integer"`
	Title   string `json:"title,omitempty" jsonschema:"document title"`
	Content string `json:"content,omitempty" jsonschema:"document body"`
}

type rankDocumentsInput struct {
	Target     documentInput   `json:"target" jsonschema:"document to compare against"`
	Candidates []documentInput `json:"candidates" jsonschema:"documents to rank"`
	Threshold  *float64        `json:"threshold,omitempty" jsonschema:"minimum combined score in [0,1] (default 0.3)"`
	MaxResults *int            `json:"max_results,omitempty" jsonschema:"maximum number of results in [1,50] (default 10)"`
}

type similarityMatrixInput struct {
	Documents []documentInput `json:"documents" jsonschema:"documents to compare pairwise"`
	Threshold *float64        `json:"threshold,omitempty" jsonschema:"minimum combined score in [0,1] (default 0.3)"`
}

type similarityStatsInput struct{}

// --- Handlers ---

func (s *Server) handleFindSimilarTickets(
	ctx context.Context, _ *sdkmcp.CallToolRequest, in findSimilarTicketsInput,
) (*sdkmcp.CallToolResult, ticketsOutput, error) {
	if err := s.requireTickets(); err != nil {
		return nil, ticketsOutput{}, err
	}
	if in.TicketID <= 0 {
		return nil, ticketsOutput{}, fmt.Errorf("%w: ticket_id must be a positive integer", domain.ErrInvalidRequest)
	}
	req, err := rankRequest(in.Threshold, in.MaxResults)
	if err != nil {
		return nil, ticketsOutput{}, err
	}

	sim, err := s.tickets.FindSimilar(ctx, in.TicketID, req)
	if err != nil {
		return nil, ticketsOutput{}, err
	}
	return nil, s.ticketsOutput(&sim), nil
}

func (s *Server) handleSearchSimilar(
	ctx context.Context, _ *sdkmcp.CallToolRequest, in searchSimilarInput,
) (*sdkmcp.CallToolResult, ticketsOutput, error) {
	if err := s.requireTickets(); err != nil {
		return nil, ticketsOutput{}, err
	}
	if in.TopK < 0 || in.TopK > request.MaxTopK {
		return nil, ticketsOutput{}, fmt.Errorf("%w: top_k must be between 1 and %d", domain.ErrInvalidRequest, request.MaxTopK)
	}
	req, err := request.NewSearch(in.Title, in.Content, in.TopK, in.Threshold)
	if err != nil {
		return nil, ticketsOutput{}, err
	}

	sim, err := s.tickets.SearchSimilar(ctx, req)
	if err != nil {
		return nil, ticketsOutput{}, err
	}
	return nil, s.ticketsOutput(&sim), nil
}

func (s *Server) handleRankDocuments(
	ctx context.Context, _ *sdkmcp.CallToolRequest, in rankDocumentsInput,
) (*sdkmcp.CallToolResult, rankOutput, error) {
	target, err := document.Coerce(in.Target.ID, in.Target.Title, in.Target.Content)
	if err != nil {
		return nil, rankOutput{}, fmt.Errorf("%w: target: %w", domain.ErrInvalidRequest, err)
	}
	candidates, err := coerceDocuments(in.Candidates)
	if err != nil {
		return nil, rankOutput{}, err
	}
	req, err := rankRequest(in.Threshold, in.MaxResults)
	if err != nil {
		return nil, rankOutput{}, err
	}

	rep := s.ranking.FindSimilar(ctx, target, candidates, req)

	byID := make(map[string]document.Document, len(candidates))
	for i := range candidates {
		byID[candidates[i].ID()] = candidates[i]
	}
	items := make([]scoredItem, len(rep.Results))
	for i := range rep.Results {
		items[i] = newScoredItem(byID[rep.Results[i].ID2()], &rep.Results[i])
	}

	out := rankOutput{
		TargetID: target.ID(),
		Results:  []scoredItem{},
		Compared: rep.Compared,
		Failed:   len(rep.Failed),
	}
	out.Results, out.Truncated = fitItems(out, items, s.maxBytes)
	out.Total = len(out.Results)
	out.Truncated = out.Truncated || rep.Truncated
	return nil, out, nil
}

func (s *Server) handleSimilarityMatrix(
	ctx context.Context, _ *sdkmcp.CallToolRequest, in similarityMatrixInput,
) (*sdkmcp.CallToolResult, matrixOutput, error) {
	docs, err := coerceDocuments(in.Documents)
	if err != nil {
		return nil, matrixOutput{}, err
	}
	req, err := rankRequest(in.Threshold, nil)
	if err != nil {
		return nil, matrixOutput{}, err
	}

	rep := s.ranking.Matrix(ctx, docs, req.Threshold())

	pairs := make([]pairItem, len(rep.Results))
	for i := range rep.Results {
		pairs[i] = newPairItem(&rep.Results[i])
	}

	out := matrixOutput{
		Pairs:    []pairItem{},
		Compared: rep.Compared,
		Failed:   len(rep.Failed),
	}
	out.Pairs, out.Truncated = fitItems(out, pairs, s.maxBytes)
	out.Total = len(out.Pairs)
	out.Truncated = out.Truncated || rep.Truncated
	return nil, out, nil
}

func (s *Server) handleSimilarityStats(
	_ context.Context, _ *sdkmcp.CallToolRequest, _ similarityStatsInput,
) (*sdkmcp.CallToolResult, statsOutput, error) {
	st := s.ranking.Stats()
	return nil, statsOutput{
		Workers:        st.Workers,
		MaxItems:       st.MaxItems,
		TaskTimeoutSec: st.TaskTimeout.Seconds(),
		Algorithms:     st.Algorithms,
		Weights: weightsOutput{
			Sequence:   st.Weights.Sequence,
			Cosine:     st.Weights.Cosine,
			Jaccard:    st.Weights.Jaccard,
			TitleBonus: st.Weights.TitleBonus,
		},
		ResponseMaxBytes: s.maxBytes,
	}, nil
}

// rankRequest validates tool arguments strictly: out-of-range values are rejected, not clamped.
func rankRequest(threshold *float64, maxResults *int) (request.RankRequest, error) {
	if threshold != nil && (math.IsNaN(*threshold) || *threshold < 0 || *threshold > 1) {
		return request.RankRequest{}, fmt.Errorf("%w: threshold must be between 0 and 1", domain.ErrInvalidRequest)
	}
	n := 0
	if maxResults != nil {
		if *maxResults < 1 || *maxResults > request.MaxResults {
			return request.RankRequest{}, fmt.Errorf(
				"%w: max_results must be between 1 and %d", domain.ErrInvalidRequest, request.MaxResults)
		}
		n = *maxResults
	}
	req, err := request.NewRank(threshold, n)
	if err != nil {
		return request.RankRequest{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	return req, nil
}

func coerceDocuments(in []documentInput) ([]document.Document, error) {
	docs := make([]document.Document, 0, len(in))
	for i, d := range in {
		doc, err := document.Coerce(d.ID, d.Title, d.Content)
		if err != nil {
			return nil, fmt.Errorf("%w: document %d: %w", domain.ErrInvalidRequest, i, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *Server) ticketsOutput(sim *ticketuc.Similar) ticketsOutput {
	items := make([]scoredItem, len(sim.Matches))
	for i := range sim.Matches {
		items[i] = newScoredItem(sim.Matches[i].Ticket, &sim.Matches[i].Result)
	}

	out := ticketsOutput{
		Reference: ticketRef{
			ID:      sim.Reference.ID(),
			Title:   sim.Reference.Title(),
			Content: preview(sim.Reference.Content()),
		},
		SimilarTickets: []scoredItem{},
		Compared:       sim.Compared,
		Failed:         sim.Failed,
	}
	out.SimilarTickets, out.Truncated = fitItems(out, items, s.maxBytes)
	out.Total = len(out.SimilarTickets)
	return out
}
