// Package glpi is a client for the GLPI REST API (apirest.php), limited to the
// session and ticket endpoints the similarity engine reads from.
package glpi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/simdex/internal/domain"
	"github.com/kailas-cloud/simdex/internal/domain/document"
	"github.com/kailas-cloud/simdex/internal/metrics"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultPageSize = 50
	maxBodyBytes    = 16 << 20
)

// Config holds the GLPI connection settings.
type Config struct {
	BaseURL    string // e.g. https://glpi.example.com/apirest.php
	AppToken   string
	UserToken  string
	Timeout    time.Duration
	PageSize   int
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to the GLPI REST API with a lazily initialized session.
// It is safe for concurrent use.
type Client struct {
	baseURL   string
	appToken  string
	userToken string
	pageSize  int
	http      *http.Client
	logger    *zap.Logger

	mu           sync.Mutex
	sessionToken string
}

// NewClient creates a GLPI client. No request is made until first use.
func NewClient(cfg *Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		appToken:  cfg.AppToken,
		userToken: cfg.UserToken,
		pageSize:  pageSize,
		http:      hc,
		logger:    logger,
	}
}

// InitSession opens a new API session, replacing any current one.
func (c *Client) InitSession(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/initSession", nil, "")
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "user_token "+c.userToken)

	status, body, err := c.send(req, "init_session")
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return mapStatus(status, body)
	}

	var resp struct {
		SessionToken string `json:"session_token"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.SessionToken == "" {
		return fmt.Errorf("init session: missing session token: %w", domain.ErrTicketSourceUnavailable)
	}

	c.mu.Lock()
	c.sessionToken = resp.SessionToken
	c.mu.Unlock()
	c.logger.Info("glpi session initialized")
	return nil
}

// KillSession closes the current session, if any.
func (c *Client) KillSession(ctx context.Context) error {
	token := c.session()
	if token == "" {
		return nil
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/killSession", nil, token)
	if err != nil {
		return err
	}
	status, body, err := c.send(req, "kill_session")
	c.mu.Lock()
	c.sessionToken = ""
	c.mu.Unlock()
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return mapStatus(status, body)
	}
	return nil
}

// GetTicket fetches one ticket. A missing ticket yields a domain.TicketNotFoundError.
func (c *Client) GetTicket(ctx context.Context, id int) (document.Document, error) {
	if id <= 0 {
		return document.Document{}, fmt.Errorf("ticket id must be positive: %w", domain.ErrInvalidRequest)
	}
	status, body, err := c.get(ctx, "get_ticket", "/Ticket/"+strconv.Itoa(id), nil)
	if err != nil {
		return document.Document{}, err
	}
	if status == http.StatusNotFound {
		return document.Document{}, domain.NewTicketNotFound(id)
	}
	if status != http.StatusOK {
		return document.Document{}, mapStatus(status, body)
	}

	var t ticketDTO
	if err := json.Unmarshal(body, &t); err != nil {
		return document.Document{}, fmt.Errorf("decode ticket %d: %w", id, domain.ErrTicketSourceUnavailable)
	}
	if t.ID == 0 {
		return document.Document{}, domain.NewTicketNotFound(id)
	}
	return t.toDocument(), nil
}

// ListTickets returns up to limit tickets, most recently modified first, paging through the API.
func (c *Client) ListTickets(ctx context.Context, limit int) ([]document.Document, error) {
	if limit <= 0 {
		return []document.Document{}, nil
	}
	out := make([]document.Document, 0, limit)
	for offset := 0; offset < limit; offset += c.pageSize {
		end := min(offset+c.pageSize, limit) - 1
		q := url.Values{}
		q.Set("range", fmt.Sprintf("%d-%d", offset, end))
		q.Set("sort", "date_mod")
		q.Set("order", "DESC")
		q.Set("expand_dropdowns", "false")

		status, body, err := c.get(ctx, "list_tickets", "/Ticket", q)
		if err != nil {
			return nil, err
		}
		if status == http.StatusBadRequest && strings.Contains(string(body), "ERROR_RANGE_EXCEED_TOTAL") {
			break
		}
		if status != http.StatusOK && status != http.StatusPartialContent {
			return nil, mapStatus(status, body)
		}

		var page []ticketDTO
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode ticket page: %w", domain.ErrTicketSourceUnavailable)
		}
		for i := range page {
			out = append(out, page[i].toDocument())
		}
		if len(page) < end-offset+1 {
			break
		}
	}
	return out, nil
}

// HealthCheck verifies the API is reachable and the credentials are accepted.
func (c *Client) HealthCheck(ctx context.Context) error {
	status, body, err := c.get(ctx, "health", "/getMyEntities", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return mapStatus(status, body)
	}
	return nil
}

// get performs an authenticated GET, opening a session first if needed and
// re-opening it once if the server rejects the current one.
func (c *Client) get(ctx context.Context, endpoint, path string, q url.Values) (int, []byte, error) {
	if c.session() == "" {
		if err := c.InitSession(ctx); err != nil {
			return 0, nil, err
		}
	}

	for attempt := 0; ; attempt++ {
		req, err := c.newRequest(ctx, http.MethodGet, path, q, c.session())
		if err != nil {
			return 0, nil, err
		}
		status, body, err := c.send(req, endpoint)
		if err != nil {
			return 0, nil, err
		}
		if status != http.StatusUnauthorized || attempt > 0 {
			return status, body, nil
		}
		c.logger.Warn("glpi session rejected, re-initializing", zap.String("endpoint", endpoint))
		if err := c.InitSession(ctx); err != nil {
			return 0, nil, err
		}
	}
}

func (c *Client) session() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionToken
}

func (c *Client) newRequest(ctx context.Context, method, path string, q url.Values, session string) (*http.Request, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.appToken != "" {
		req.Header.Set("App-Token", c.appToken)
	}
	if session != "" {
		req.Header.Set("Session-Token", session)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, endpoint string) (int, []byte, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.GLPIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GLPIRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return 0, nil, fmt.Errorf("glpi %s: %w", endpoint, ctxErr)
		}
		return 0, nil, fmt.Errorf("glpi %s: %w: %w", endpoint, domain.ErrTicketSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.GLPIRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return 0, nil, fmt.Errorf("glpi %s: read body: %w: %w", endpoint, domain.ErrTicketSourceUnavailable, err)
	}
	metrics.GLPIRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	return resp.StatusCode, body, nil
}

// mapStatus converts a non-success GLPI response into a domain error.
func mapStatus(status int, body []byte) error {
	detail := errorDetail(body)
	switch {
	case status == http.StatusUnauthorized:
		return fmt.Errorf("glpi: %s: %w", detail, domain.ErrUnauthorized)
	case status == http.StatusForbidden:
		return fmt.Errorf("glpi: permission denied: %s: %w", detail, domain.ErrUnauthorized)
	case status == http.StatusNotFound:
		return fmt.Errorf("glpi: %s: %w", detail, domain.ErrNotFound)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("glpi: %s: %w", detail, domain.ErrRateLimited)
	case status == http.StatusBadRequest:
		return fmt.Errorf("glpi: %s: %w", detail, domain.ErrInvalidRequest)
	default:
		return fmt.Errorf("glpi: status %d: %s: %w", status, detail, domain.ErrTicketSourceUnavailable)
	}
}

// errorDetail extracts the message from GLPI's ["ERROR_CODE", "message"] error body.
func errorDetail(body []byte) string {
	var parts []string
	if json.Unmarshal(body, &parts) == nil && len(parts) > 0 {
		return strings.Join(parts, ": ")
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	if s == "" {
		return "empty response"
	}
	return s
}
