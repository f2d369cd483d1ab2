// Package mcp exposes the similarity engine as MCP tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/simdex/internal/domain"
	"github.com/kailas-cloud/simdex/internal/metrics"
	rankinguc "github.com/kailas-cloud/simdex/internal/usecase/ranking"
	ticketuc "github.com/kailas-cloud/simdex/internal/usecase/ticket"
	"github.com/kailas-cloud/simdex/internal/version"
)

// Tool names.
const (
	ToolFindSimilarTickets   = "find_similar_tickets"
	ToolSearchSimilarTickets = "search_similar_tickets"
	ToolSearchSimilar        = "search_similar"
	ToolRankDocuments        = "rank_documents"
	ToolSimilarityMatrix     = "similarity_matrix"
	ToolSimilarityStats      = "similarity_stats"
)

// DefaultResponseMaxBytes bounds the JSON payload of a single tool result.
const DefaultResponseMaxBytes = 51200

// Server wraps the MCP SDK server with the similarity tools registered.
type Server struct {
	MCPServer *sdkmcp.Server

	ranking  *rankinguc.Service
	tickets  *ticketuc.Service
	maxBytes int
	logger   *zap.Logger
}

// NewServer creates an MCP server. tickets can be nil when no ticket source is configured;
// the ticket tools then report the source as unavailable.
func NewServer(ranking *rankinguc.Service, tickets *ticketuc.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		MCPServer: sdkmcp.NewServer(
			&sdkmcp.Implementation{Name: "simdex", Title: "GLPI ticket similarity", Version: version.Version},
			nil,
		),
		ranking:  ranking,
		tickets:  tickets,
		maxBytes: DefaultResponseMaxBytes,
		logger:   logger.Named("mcp"),
	}
	s.registerTools()
	return s
}

// WithResponseMaxBytes overrides the tool result size bound.
func (s *Server) WithResponseMaxBytes(n int) *Server {
	if n > 0 {
		s.maxBytes = n
	}
	return s
}

// RunStdio serves MCP over stdin/stdout until ctx is done or the client disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	if err := s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp stdio: %w", err)
	}
	return nil
}

// HTTPHandler returns a streamable HTTP handler for the server.
func (s *Server) HTTPHandler() http.Handler {
	return sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server { return s.MCPServer }, nil)
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        ToolFindSimilarTickets,
		Description: "Find GLPI tickets similar to an existing ticket, best match first.",
	}, instrument(s, ToolFindSimilarTickets, s.handleFindSimilarTickets))

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        ToolSearchSimilarTickets,
		Description: "Alias of find_similar_tickets.",
	}, instrument(s, ToolSearchSimilarTickets, s.handleFindSimilarTickets))

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        ToolSearchSimilar,
		Description: "Search recent GLPI tickets similar to a free-text title and description.",
	}, instrument(s, ToolSearchSimilar, s.handleSearchSimilar))

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        ToolRankDocuments,
		Description: "Rank candidate documents by similarity to a target document.",
	}, instrument(s, ToolRankDocuments, s.handleRankDocuments))

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        ToolSimilarityMatrix,
		Description: "Score every pair of the given documents and return pairs above the threshold.",
	}, instrument(s, ToolSimilarityMatrix, s.handleSimilarityMatrix))

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        ToolSimilarityStats,
		Description: "Describe the similarity engine: algorithms, weights and limits.",
	}, instrument(s, ToolSimilarityStats, s.handleSimilarityStats))
}

// instrument logs and counts every call of a tool handler.
func instrument[In, Out any](s *Server, tool string, h sdkmcp.ToolHandlerFor[In, Out]) sdkmcp.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, Out, error) {
		start := time.Now()
		res, out, err := h(ctx, req, in)

		status := "ok"
		if err != nil {
			status = "error"
			s.logger.Warn("tool call failed",
				zap.String("tool", tool),
				zap.Duration("latency", time.Since(start)),
				zap.Error(err),
			)
		} else {
			s.logger.Debug("tool call",
				zap.String("tool", tool),
				zap.Duration("latency", time.Since(start)),
			)
		}
		metrics.MCPToolCallsTotal.WithLabelValues(tool, status).Inc()
		return res, out, err
	}
}

func (s *Server) requireTickets() error {
	if s.tickets == nil {
		return fmt.Errorf("%w: ticket source is not configured", domain.ErrTicketSourceUnavailable)
	}
	return nil
}
