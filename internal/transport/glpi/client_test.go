package glpi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kailas-cloud/simdex/internal/domain"
)

// fakeGLPI is a minimal apirest.php with a fixed ticket set.
type fakeGLPI struct {
	tickets      []ticketDTO
	inits        atomic.Int64
	kills        atomic.Int64
	rejectNext   atomic.Bool
	lastRanges   []string
	sessionToken string
}

func (f *fakeGLPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/apirest.php/initSession", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("App-Token") != "app" || r.Header.Get("Authorization") != "user_token user" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`["ERROR_GLPI_LOGIN_USER_TOKEN","invalid user token"]`))
			return
		}
		n := f.inits.Add(1)
		f.sessionToken = "sess-" + strconv.FormatInt(n, 10)
		_ = json.NewEncoder(w).Encode(map[string]string{"session_token": f.sessionToken})
	})
	mux.HandleFunc("/apirest.php/killSession", func(w http.ResponseWriter, r *http.Request) {
		f.kills.Add(1)
		_, _ = w.Write([]byte(`true`))
	})
	mux.HandleFunc("/apirest.php/getMyEntities", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(w, r) {
			return
		}
		_, _ = w.Write([]byte(`{"myentities":[{"id":0,"name":"Root"}]}`))
	})
	mux.HandleFunc("/apirest.php/Ticket/", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(w, r) {
			return
		}
		id, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/apirest.php/Ticket/"))
		for _, tk := range f.tickets {
			if tk.ID == id {
				_ = json.NewEncoder(w).Encode(tk)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`["ERROR_ITEM_NOT_FOUND","Item not found"]`))
	})
	mux.HandleFunc("/apirest.php/Ticket", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(w, r) {
			return
		}
		rng := r.URL.Query().Get("range")
		f.lastRanges = append(f.lastRanges, rng)
		var start, end int
		if _, err := fmt.Sscanf(rng, "%d-%d", &start, &end); err != nil {
			t.Errorf("bad range %q", rng)
		}
		if start >= len(f.tickets) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`["ERROR_RANGE_EXCEED_TOTAL","Provided range exceed total count of data"]`))
			return
		}
		end = min(end, len(f.tickets)-1)
		w.WriteHeader(http.StatusPartialContent)
		_ = json.NewEncoder(w).Encode(f.tickets[start : end+1])
	})
	return mux
}

func (f *fakeGLPI) authorized(w http.ResponseWriter, r *http.Request) bool {
	if f.rejectNext.CompareAndSwap(true, false) || r.Header.Get("Session-Token") != f.sessionToken {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`["ERROR_SESSION_TOKEN_INVALID","session_token seems invalid"]`))
		return false
	}
	return true
}

func newFake(n int) *fakeGLPI {
	f := &fakeGLPI{}
	for i := 1; i <= n; i++ {
		f.tickets = append(f.tickets, ticketDTO{
			ID:      i,
			Name:    fmt.Sprintf("Ticket %d", i),
			Content: fmt.Sprintf("&lt;p&gt;conteúdo &amp;amp; detalhe %d&lt;/p&gt;", i),
		})
	}
	return f
}

func newTestClient(t *testing.T, f *fakeGLPI, pageSize int) *Client {
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return NewClient(&Config{
		BaseURL:   srv.URL + "/apirest.php/",
		AppToken:  "app",
		UserToken: "user",
		PageSize:  pageSize,
	})
}

func TestGetTicket(t *testing.T) {
	f := newFake(3)
	c := newTestClient(t, f, 50)

	doc, err := c.GetTicket(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID() != "2" || doc.Title() != "Ticket 2" {
		t.Errorf("doc = %q/%q", doc.ID(), doc.Title())
	}
	if doc.Content() != "conteúdo & detalhe 2" {
		t.Errorf("Content() = %q", doc.Content())
	}
	if f.inits.Load() != 1 {
		t.Errorf("inits = %d, want 1", f.inits.Load())
	}
}

func TestGetTicket_NotFound(t *testing.T) {
	c := newTestClient(t, newFake(1), 50)

	_, err := c.GetTicket(context.Background(), 99)
	if !errors.Is(err, domain.ErrTicketNotFound) {
		t.Fatalf("err = %v, want ErrTicketNotFound", err)
	}
	var nf *domain.TicketNotFoundError
	if !errors.As(err, &nf) || nf.TicketID != 99 {
		t.Errorf("err = %#v", err)
	}
}

func TestGetTicket_InvalidID(t *testing.T) {
	c := newTestClient(t, newFake(1), 50)
	if _, err := c.GetTicket(context.Background(), 0); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestGet_ReinitializesRejectedSession(t *testing.T) {
	f := newFake(2)
	c := newTestClient(t, f, 50)

	if _, err := c.GetTicket(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.rejectNext.Store(true)
	if _, err := c.GetTicket(context.Background(), 2); err != nil {
		t.Fatalf("unexpected error after re-init: %v", err)
	}
	if f.inits.Load() != 2 {
		t.Errorf("inits = %d, want 2", f.inits.Load())
	}
}

func TestInitSession_BadCredentials(t *testing.T) {
	f := newFake(1)
	srv := httptest.NewServer(f.handler(t))
	defer srv.Close()
	c := NewClient(&Config{BaseURL: srv.URL + "/apirest.php", AppToken: "app", UserToken: "wrong"})

	_, err := c.GetTicket(context.Background(), 1)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestListTickets_Pages(t *testing.T) {
	f := newFake(7)
	c := newTestClient(t, f, 3)

	docs, err := c.ListTickets(context.Background(), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 7 {
		t.Fatalf("got %d tickets, want 7", len(docs))
	}
	want := []string{"0-2", "3-5", "6-8"}
	if strings.Join(f.lastRanges, ",") != strings.Join(want, ",") {
		t.Errorf("ranges = %v, want %v", f.lastRanges, want)
	}
}

func TestListTickets_Limit(t *testing.T) {
	f := newFake(10)
	c := newTestClient(t, f, 4)

	docs, err := c.ListTickets(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 5 {
		t.Fatalf("got %d tickets, want 5", len(docs))
	}
	if got := strings.Join(f.lastRanges, ","); got != "0-3,4-4" {
		t.Errorf("ranges = %s", got)
	}
}

func TestListTickets_RangeExceedsTotal(t *testing.T) {
	f := newFake(4)
	c := newTestClient(t, f, 2)

	docs, err := c.ListTickets(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 4 {
		t.Errorf("got %d tickets, want 4", len(docs))
	}
}

func TestListTickets_ZeroLimit(t *testing.T) {
	f := newFake(4)
	c := newTestClient(t, f, 2)

	docs, err := c.ListTickets(context.Background(), 0)
	if err != nil || len(docs) != 0 {
		t.Errorf("docs = %v, err = %v", docs, err)
	}
	if f.inits.Load() != 0 {
		t.Error("zero limit should not open a session")
	}
}

func TestKillSession(t *testing.T) {
	f := newFake(1)
	c := newTestClient(t, f, 50)

	if err := c.KillSession(context.Background()); err != nil {
		t.Fatalf("kill without session: %v", err)
	}
	if f.kills.Load() != 0 {
		t.Error("kill sent without a session")
	}
	if err := c.HealthCheck(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
	if err := c.KillSession(context.Background()); err != nil {
		t.Fatalf("kill: %v", err)
	}
	if f.kills.Load() != 1 || c.session() != "" {
		t.Errorf("kills = %d, session = %q", f.kills.Load(), c.session())
	}
}

func TestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(&Config{BaseURL: url, AppToken: "app", UserToken: "user"})
	if err := c.HealthCheck(context.Background()); !errors.Is(err, domain.ErrTicketSourceUnavailable) {
		t.Errorf("err = %v, want ErrTicketSourceUnavailable", err)
	}
}

func TestMapStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, domain.ErrUnauthorized},
		{http.StatusForbidden, domain.ErrUnauthorized},
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusTooManyRequests, domain.ErrRateLimited},
		{http.StatusBadRequest, domain.ErrInvalidRequest},
		{http.StatusBadGateway, domain.ErrTicketSourceUnavailable},
	}
	for _, tt := range tests {
		if err := mapStatus(tt.status, []byte(`["CODE","msg"]`)); !errors.Is(err, tt.want) {
			t.Errorf("mapStatus(%d) = %v, want %v", tt.status, err, tt.want)
		}
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"plain", "plain"},
		{"&lt;p&gt;Olá&lt;/p&gt;&lt;br /&gt;mundo", "Olá mundo"},
		{"<div>a &amp;amp; b</div>", "a & b"},
		{"  muitos   espaços \n aqui ", "muitos espaços aqui"},
	}
	for _, tt := range tests {
		if got := cleanText(tt.in); got != tt.want {
			t.Errorf("cleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
