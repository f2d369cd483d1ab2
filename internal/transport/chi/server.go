package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/simdex/internal/domain/document"
	"github.com/kailas-cloud/simdex/internal/domain/similarity"
	"github.com/kailas-cloud/simdex/internal/domain/similarity/request"
	"github.com/kailas-cloud/simdex/internal/domain/similarity/result"
	"github.com/kailas-cloud/simdex/internal/logger"
	healthuc "github.com/kailas-cloud/simdex/internal/usecase/health"
	rankinguc "github.com/kailas-cloud/simdex/internal/usecase/ranking"
	ticketuc "github.com/kailas-cloud/simdex/internal/usecase/ticket"
)

const maxBodyBytes = 4 << 20

// Server serves the similarity HTTP API.
type Server struct {
	ranking *rankinguc.Service
	tickets *ticketuc.Service
	scorer  *similarity.Scorer
	health  *healthuc.Service
	logger  *zap.Logger
}

// NewServer creates an HTTP API server. tickets can be nil when no ticket source is configured.
func NewServer(
	ranking *rankinguc.Service,
	tickets *ticketuc.Service,
	scorer *similarity.Scorer,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	return &Server{
		ranking: ranking,
		tickets: tickets,
		scorer:  scorer,
		health:  health,
		logger:  logger,
	}
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/similarity", func(r chi.Router) {
		r.Post("/rank", s.Rank)
		r.Post("/matrix", s.Matrix)
		r.Post("/compare", s.Compare)
		r.Get("/stats", s.Stats)
	})

	r.Route("/tickets", func(r chi.Router) {
		r.Get("/{ticket_id}/similar", s.similarTicketsWrapper)
		r.Post("/search-similar", s.SearchSimilar)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed")
	})
}

// Rank handles POST /similarity/rank.
func (s *Server) Rank(w http.ResponseWriter, r *http.Request) {
	var req RankRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Target == nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "target is required")
		return
	}

	target, err := documentFromInput(*req.Target)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "target: "+err.Error())
		return
	}
	candidates, err := documentsFromInput(req.Candidates)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}
	rankReq, err := request.NewRank(req.Threshold, derefInt(req.MaxResults))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	rep := s.ranking.FindSimilar(r.Context(), target, candidates, rankReq)

	byID := make(map[string]document.Document, len(candidates))
	for i := range candidates {
		byID[candidates[i].ID()] = candidates[i]
	}
	items := make([]RankedItem, len(rep.Results))
	for i := range rep.Results {
		items[i] = rankedItem(byID[rep.Results[i].ID2()], &rep.Results[i])
	}

	writeJSON(w, http.StatusOK, RankResponse{
		TargetID:  target.ID(),
		Results:   items,
		Total:     len(items),
		Compared:  rep.Compared,
		Failed:    len(rep.Failed),
		Truncated: rep.Truncated,
	})
}

// Matrix handles POST /similarity/matrix.
func (s *Server) Matrix(w http.ResponseWriter, r *http.Request) {
	var req MatrixRequest
	if !decodeBody(w, r, &req) {
		return
	}

	docs, err := documentsFromInput(req.Documents)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}
	rankReq, err := request.NewRank(req.Threshold, 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	rep := s.ranking.Matrix(r.Context(), docs, rankReq.Threshold())

	pairs := make([]PairItem, len(rep.Results))
	for i := range rep.Results {
		pairs[i] = pairItem(&rep.Results[i])
	}
	writeJSON(w, http.StatusOK, MatrixResponse{
		Pairs:     pairs,
		Total:     len(pairs),
		Compared:  rep.Compared,
		Failed:    len(rep.Failed),
		Truncated: rep.Truncated,
	})
}

// Compare handles POST /similarity/compare.
func (s *Server) Compare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res := s.scorer.Compare(
		document.New("text1", req.Title1, req.Text1),
		document.New("text2", req.Title2, req.Text2),
	)
	writeJSON(w, http.StatusOK, pairItem(&res))
}

// Stats handles GET /similarity/stats.
func (s *Server) Stats(w http.ResponseWriter, _ *http.Request) {
	st := s.ranking.Stats()
	writeJSON(w, http.StatusOK, StatsResponse{
		Workers:        st.Workers,
		MaxItems:       st.MaxItems,
		TaskTimeoutSec: st.TaskTimeout.Seconds(),
		Algorithms:     st.Algorithms,
		Weights: WeightsResponse{
			Sequence:   st.Weights.Sequence,
			Cosine:     st.Weights.Cosine,
			Jaccard:    st.Weights.Jaccard,
			TitleBonus: st.Weights.TitleBonus,
		},
	})
}

// similarTicketsWrapper binds the path and query parameters of GET /tickets/{ticket_id}/similar.
func (s *Server) similarTicketsWrapper(w http.ResponseWriter, r *http.Request) {
	var ticketID int
	err := runtime.BindStyledParameterWithOptions("simple", "ticket_id", chi.URLParam(r, "ticket_id"), &ticketID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, fmt.Sprintf("Invalid format for parameter ticket_id: %s", err))
		return
	}

	var params SimilarTicketsParams
	if err := runtime.BindQueryParameter("form", true, false, "threshold", r.URL.Query(), &params.Threshold); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, fmt.Sprintf("Invalid format for parameter threshold: %s", err))
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "max_results", r.URL.Query(), &params.MaxResults); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, fmt.Sprintf("Invalid format for parameter max_results: %s", err))
		return
	}

	s.SimilarTickets(w, r, ticketID, params)
}

// SimilarTickets handles GET /tickets/{ticket_id}/similar.
func (s *Server) SimilarTickets(w http.ResponseWriter, r *http.Request, ticketID int, params SimilarTicketsParams) {
	if s.tickets == nil {
		writeError(w, http.StatusServiceUnavailable, ErrorCodeSourceUnavailable, "ticket source is not configured")
		return
	}
	if ticketID <= 0 {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "ticket_id must be a positive integer")
		return
	}
	rankReq, err := request.NewRank(params.Threshold, derefInt(params.MaxResults))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	r = r.WithContext(logger.WithFields(r.Context(), zap.Int("ticket_id", ticketID)))
	sim, err := s.tickets.FindSimilar(r.Context(), ticketID, rankReq)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, similarResponse(&sim))
}

// SearchSimilar handles POST /tickets/search-similar.
func (s *Server) SearchSimilar(w http.ResponseWriter, r *http.Request) {
	if s.tickets == nil {
		writeError(w, http.StatusServiceUnavailable, ErrorCodeSourceUnavailable, "ticket source is not configured")
		return
	}
	var req SearchSimilarRequest
	if !decodeBody(w, r, &req) {
		return
	}

	searchReq, err := request.NewSearch(req.Title, req.Content, req.TopK, req.Threshold)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	sim, err := s.tickets.SearchSimilar(r.Context(), searchReq)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, similarResponse(&sim))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		switch {
		case errors.As(err, &mbe):
			writeError(w, http.StatusRequestEntityTooLarge, ErrorCodeBadRequest, "request body too large")
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "request body is required")
		default:
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		}
		return false
	}
	return true
}

func documentFromInput(in DocumentInput) (document.Document, error) {
	d, err := document.Coerce(in.ID, in.Title, in.Content)
	if err != nil {
		return document.Document{}, fmt.Errorf("build document: %w", err)
	}
	return d, nil
}

func documentsFromInput(in []DocumentInput) ([]document.Document, error) {
	docs := make([]document.Document, 0, len(in))
	for i, item := range in {
		d, err := documentFromInput(item)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func scores(r *result.Result) Scores {
	m := r.Metrics().Rounded()
	return Scores{
		Sequence:        m.Sequence,
		Cosine:          m.Cosine,
		Jaccard:         m.Jaccard,
		Levenshtein:     m.Levenshtein,
		TFIDF:           m.TFIDF,
		SimilarityScore: result.Round(r.Combined()),
	}
}

func rankedItem(d document.Document, r *result.Result) RankedItem {
	return RankedItem{
		ID:      r.ID2(),
		Title:   d.Title(),
		Content: d.Content(),
		Scores:  scores(r),
	}
}

func pairItem(r *result.Result) PairItem {
	return PairItem{
		ID1:    r.ID1(),
		ID2:    r.ID2(),
		Scores: scores(r),
	}
}

func similarResponse(sim *ticketuc.Similar) SimilarTicketsResponse {
	items := make([]RankedItem, len(sim.Matches))
	for i := range sim.Matches {
		items[i] = rankedItem(sim.Matches[i].Ticket, &sim.Matches[i].Result)
	}
	return SimilarTicketsResponse{
		Reference: TicketItem{
			ID:      sim.Reference.ID(),
			Title:   sim.Reference.Title(),
			Content: sim.Reference.Content(),
		},
		Results:  items,
		Total:    len(items),
		Compared: sim.Compared,
		Failed:   sim.Failed,
	}
}
