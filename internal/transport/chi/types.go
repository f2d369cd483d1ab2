package chi

// ErrorCode is a machine-readable error code returned to API clients.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest        ErrorCode = "bad_request"
	ErrorCodeValidationFailed  ErrorCode = "validation_failed"
	ErrorCodeUnauthorized      ErrorCode = "unauthorized"
	ErrorCodeNotFound          ErrorCode = "not_found"
	ErrorCodeTicketNotFound    ErrorCode = "ticket_not_found"
	ErrorCodeRateLimited       ErrorCode = "rate_limited"
	ErrorCodeSourceUnavailable ErrorCode = "ticket_source_unavailable"
	ErrorCodeComputation       ErrorCode = "similarity_computation_failed"
	ErrorCodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// DocumentInput is a document as sent by clients. Ids may be strings or integers.
type DocumentInput struct {
	ID      any `json:"id"`
	Title   any `json:"title"`
	Content any `json:"content"`
}

// RankRequest is the body of POST /similarity/rank.
type RankRequest struct {
	Target     *DocumentInput  `json:"target"`
	Candidates []DocumentInput `json:"candidates"`
	Threshold  *float64        `json:"threshold,omitempty"`
	MaxResults *int            `json:"max_results,omitempty"`
}

// MatrixRequest is the body of POST /similarity/matrix.
type MatrixRequest struct {
	Documents []DocumentInput `json:"documents"`
	Threshold *float64        `json:"threshold,omitempty"`
}

// CompareRequest is the body of POST /similarity/compare.
type CompareRequest struct {
	Text1  string `json:"text1"`
	Text2  string `json:"text2"`
	Title1 string `json:"title1,omitempty"`
	Title2 string `json:"title2,omitempty"`
}

// SearchSimilarRequest is the body of POST /tickets/search-similar.
type SearchSimilarRequest struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	TopK      int      `json:"top_k,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
}

// SimilarTicketsParams are the query parameters of GET /tickets/{ticket_id}/similar.
type SimilarTicketsParams struct {
	Threshold  *float64
	MaxResults *int
}

// Scores carries every metric of a comparison, rounded to four decimals.
type Scores struct {
	Sequence        float64 `json:"sequence_similarity"`
	Cosine          float64 `json:"cosine_similarity"`
	Jaccard         float64 `json:"jaccard_similarity"`
	Levenshtein     float64 `json:"levenshtein_similarity"`
	TFIDF           float64 `json:"tfidf_similarity"`
	SimilarityScore float64 `json:"similarity_score"`
}

// RankedItem is one candidate in a ranked list.
type RankedItem struct {
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
	Scores
}

// PairItem is one scored pair of documents.
type PairItem struct {
	ID1 string `json:"id1"`
	ID2 string `json:"id2"`
	Scores
}

// RankResponse is returned by the ranking endpoints.
type RankResponse struct {
	TargetID  string       `json:"target_id"`
	Results   []RankedItem `json:"results"`
	Total     int          `json:"total"`
	Compared  int          `json:"compared"`
	Failed    int          `json:"failed"`
	Truncated bool         `json:"truncated,omitempty"`
}

// MatrixResponse is returned by POST /similarity/matrix.
type MatrixResponse struct {
	Pairs     []PairItem `json:"pairs"`
	Total     int        `json:"total"`
	Compared  int        `json:"compared"`
	Failed    int        `json:"failed"`
	Truncated bool       `json:"truncated,omitempty"`
}

// TicketItem describes a GLPI ticket.
type TicketItem struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
}

// SimilarTicketsResponse is returned by the ticket endpoints.
type SimilarTicketsResponse struct {
	Reference TicketItem   `json:"reference"`
	Results   []RankedItem `json:"results"`
	Total     int          `json:"total"`
	Compared  int          `json:"compared"`
	Failed    int          `json:"failed"`
}

// WeightsResponse describes the combined score weights.
type WeightsResponse struct {
	Sequence   float64 `json:"sequence"`
	Cosine     float64 `json:"cosine"`
	Jaccard    float64 `json:"jaccard"`
	TitleBonus float64 `json:"title_bonus"`
}

// StatsResponse is returned by GET /similarity/stats.
type StatsResponse struct {
	Workers        int             `json:"workers"`
	MaxItems       int             `json:"max_items"`
	TaskTimeoutSec float64         `json:"task_timeout_sec"`
	Algorithms     []string        `json:"algorithms"`
	Weights        WeightsResponse `json:"weights"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
