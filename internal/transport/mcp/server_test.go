package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kailas-cloud/simdex/internal/domain"
	"github.com/kailas-cloud/simdex/internal/domain/document"
	"github.com/kailas-cloud/simdex/internal/domain/similarity"
	rankinguc "github.com/kailas-cloud/simdex/internal/usecase/ranking"
	ticketuc "github.com/kailas-cloud/simdex/internal/usecase/ticket"
)

// --- Mocks ---

type mockTicketSource struct {
	tickets []document.Document
}

func (m *mockTicketSource) GetTicket(_ context.Context, id int) (document.Document, error) {
	for i := range m.tickets {
		if tid, ok := ticketuc.TicketID(&m.tickets[i]); ok && tid == id {
			return m.tickets[i], nil
		}
	}
	return document.Document{}, domain.NewTicketNotFound(id)
}

func (m *mockTicketSource) ListTickets(_ context.Context, _ int) ([]document.Document, error) {
	return m.tickets, nil
}

// --- Helpers ---

func helpdeskTickets() []document.Document {
	return []document.Document{
		document.FromTicket(1, "Servidor não responde", "não consigo conectar ao servidor"),
		document.FromTicket(2, "Servidor sem resposta", "conexão com servidor impossível"),
		document.FromTicket(3, "Impressora", "não posso imprimir documentos"),
		document.FromTicket(4, "Servidor não responde", "não consigo conectar ao servidor"),
		document.FromTicket(5, "", ""),
		document.FromTicket(6, "Rede", "erro de rede no equipamento"),
	}
}

func newTestServer(withTickets bool) *Server {
	ranking := rankinguc.New(similarity.NewScorer(similarity.DefaultWeights()), nil)
	var tickets *ticketuc.Service
	if withTickets {
		tickets = ticketuc.New(&mockTicketSource{tickets: helpdeskTickets()}, ranking, nil)
	}
	return NewServer(ranking, tickets, nil)
}

func connectInMemory(t *testing.T, ctx context.Context, srv *Server) *sdkmcp.ClientSession {
	t.Helper()
	t1, t2 := sdkmcp.NewInMemoryTransports()
	if _, err := srv.MCPServer.Connect(ctx, t1, nil); err != nil {
		t.Fatalf("server.Connect: %v", err)
	}
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callTool[T any](t *testing.T, ctx context.Context, session *sdkmcp.ClientSession, name string, args map[string]any) T {
	t.Helper()
	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if res.IsError {
		t.Fatalf("CallTool(%s) returned error: %s", name, textOf(res))
	}
	var out T
	if err := json.Unmarshal([]byte(textOf(res)), &out); err != nil {
		t.Fatalf("unmarshal tool result: %v (text: %s)", err, textOf(res))
	}
	return out
}

func callToolExpectError(t *testing.T, ctx context.Context, session *sdkmcp.ClientSession, name string, args map[string]any) string {
	t.Helper()
	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return err.Error()
	}
	if !res.IsError {
		t.Fatalf("CallTool(%s): expected error, got %s", name, textOf(res))
	}
	return textOf(res)
}

func textOf(res *sdkmcp.CallToolResult) string {
	for _, c := range res.Content {
		if tc, ok := c.(*sdkmcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func scoredIDs(items []scoredItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

// --- Tests ---

func TestServer_ToolDiscovery(t *testing.T) {
	ctx := context.Background()
	session := connectInMemory(t, ctx, newTestServer(true))

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	want := []string{
		ToolFindSimilarTickets,
		ToolRankDocuments,
		ToolSearchSimilar,
		ToolSearchSimilarTickets,
		ToolSimilarityMatrix,
		ToolSimilarityStats,
	}
	for _, w := range want {
		if !strings.Contains(strings.Join(names, ","), w) {
			t.Errorf("tool %s not registered (have %v)", w, names)
		}
	}
}

func TestFindSimilarTickets(t *testing.T) {
	ctx := context.Background()
	session := connectInMemory(t, ctx, newTestServer(true))

	for _, tool := range []string{ToolFindSimilarTickets, ToolSearchSimilarTickets} {
		out := callTool[ticketsOutput](t, ctx, session, tool, map[string]any{"ticket_id": 1})
		if out.Reference.ID != "1" {
			t.Errorf("%s: reference = %q", tool, out.Reference.ID)
		}
		if diff := cmp.Diff([]string{"4", "2"}, scoredIDs(out.SimilarTickets)); diff != "" {
			t.Errorf("%s: ids mismatch (-want +got):\n%s", tool, diff)
		}
		if out.SimilarTickets[0].SimilarityScore != 1 {
			t.Errorf("%s: top score = %v, want 1", tool, out.SimilarTickets[0].SimilarityScore)
		}
	}
}

func TestFindSimilarTickets_Validation(t *testing.T) {
	ctx := context.Background()
	session := connectInMemory(t, ctx, newTestServer(true))

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"zero id", map[string]any{"ticket_id": 0}, "ticket_id"},
		{"threshold above one", map[string]any{"ticket_id": 1, "threshold": 1.5}, "threshold"},
		{"max results above cap", map[string]any{"ticket_id": 1, "max_results": 51}, "max_results"},
		{"max results zero", map[string]any{"ticket_id": 1, "max_results": 0}, "max_results"},
		{"unknown ticket", map[string]any{"ticket_id": 99}, "ticket not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := callToolExpectError(t, ctx, session, ToolFindSimilarTickets, tt.args)
			if !strings.Contains(msg, tt.want) {
				t.Errorf("error %q does not mention %q", msg, tt.want)
			}
		})
	}
}

func TestTicketTools_NoSource(t *testing.T) {
	ctx := context.Background()
	session := connectInMemory(t, ctx, newTestServer(false))

	msg := callToolExpectError(t, ctx, session, ToolFindSimilarTickets, map[string]any{"ticket_id": 1})
	if !strings.Contains(msg, "not configured") {
		t.Errorf("unexpected error: %s", msg)
	}
}

func TestSearchSimilar(t *testing.T) {
	ctx := context.Background()
	session := connectInMemory(t, ctx, newTestServer(true))

	out := callTool[ticketsOutput](t, ctx, session, ToolSearchSimilar, map[string]any{
		"title":   "Servidor não responde",
		"content": "não consigo conectar ao servidor",
		"top_k":   2,
	})
	if out.Reference.ID != ticketuc.QueryID {
		t.Errorf("reference = %q, want %q", out.Reference.ID, ticketuc.QueryID)
	}
	if len(out.SimilarTickets) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(out.SimilarTickets))
	}

	msg := callToolExpectError(t, ctx, session, ToolSearchSimilar, map[string]any{"title": "", "content": ""})
	if msg == "" {
		t.Error("expected an error message for an empty query")
	}
}

func TestRankDocuments(t *testing.T) {
	ctx := context.Background()
	session := connectInMemory(t, ctx, newTestServer(false))

	out := callTool[rankOutput](t, ctx, session, ToolRankDocuments, map[string]any{
		"target": map[string]any{"id": 1, "title": "Servidor não responde", "content": "não consigo conectar ao servidor"},
		"candidates": []any{
			map[string]any{"id": 2, "title": "Servidor sem resposta", "content": "conexão com servidor impossível"},
			map[string]any{"id": "3", "title": "Impressora", "content": "não posso imprimir documentos"},
			map[string]any{"id": 4, "title": "Servidor não responde", "content": "não consigo conectar ao servidor"},
		},
	})
	if out.TargetID != "1" || out.Compared != 3 {
		t.Errorf("unexpected envelope: %+v", out)
	}
	if diff := cmp.Diff([]string{"4", "2"}, scoredIDs(out.Results)); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestRankDocuments_InvalidTarget(t *testing.T) {
	ctx := context.Background()
	session := connectInMemory(t, ctx, newTestServer(false))

	msg := callToolExpectError(t, ctx, session, ToolRankDocuments, map[string]any{
		"target":     map[string]any{"id": 1.5, "content": "x"},
		"candidates": []any{},
	})
	if !strings.Contains(msg, "not an integer") {
		t.Errorf("unexpected error: %s", msg)
	}
}

func TestSimilarityMatrix(t *testing.T) {
	ctx := context.Background()
	session := connectInMemory(t, ctx, newTestServer(false))

	out := callTool[matrixOutput](t, ctx, session, ToolSimilarityMatrix, map[string]any{
		"threshold": 0,
		"documents": []any{
			map[string]any{"id": "a", "content": "hello world"},
			map[string]any{"id": "b", "content": "hello world"},
			map[string]any{"id": "c", "content": "something else"},
		},
	})
	if out.Total != 3 || out.Truncated {
		t.Fatalf("expected 3 untruncated pairs, got %+v", out)
	}
	if out.Pairs[0].ID1 != "a" || out.Pairs[0].ID2 != "b" {
		t.Errorf("best pair = %s/%s", out.Pairs[0].ID1, out.Pairs[0].ID2)
	}
}

func TestSimilarityStats(t *testing.T) {
	ctx := context.Background()
	session := connectInMemory(t, ctx, newTestServer(false))

	out := callTool[statsOutput](t, ctx, session, ToolSimilarityStats, map[string]any{})
	if out.Workers != rankinguc.DefaultWorkers || out.ResponseMaxBytes != DefaultResponseMaxBytes {
		t.Errorf("unexpected stats: %+v", out)
	}
	if diff := cmp.Diff(similarity.Algorithms(), out.Algorithms); diff != "" {
		t.Errorf("algorithms mismatch (-want +got):\n%s", diff)
	}
}

func TestPreview(t *testing.T) {
	short := "abc"
	if got := preview(short); got != short {
		t.Errorf("preview(%q) = %q", short, got)
	}

	long := strings.Repeat("é", previewRunes+10)
	got := preview(long)
	if !strings.HasSuffix(got, previewSuffix) {
		t.Errorf("expected %q suffix", previewSuffix)
	}
	if n := len([]rune(strings.TrimSuffix(got, previewSuffix))); n != previewRunes {
		t.Errorf("kept %d runes, want %d", n, previewRunes)
	}
}

func TestFitItems(t *testing.T) {
	items := make([]scoredItem, 100)
	for i := range items {
		items[i] = scoredItem{ID: strings.Repeat("x", 100)}
	}
	env := rankOutput{Results: []scoredItem{}}

	kept, truncated := fitItems(env, items, 2048)
	if !truncated || len(kept) == 0 || len(kept) >= len(items) {
		t.Fatalf("expected a truncated non-empty prefix, got %d items (truncated=%v)", len(kept), truncated)
	}
	env.Results = kept
	b, err := json.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) > 2048 {
		t.Errorf("fitted payload is %d bytes, want <= 2048", len(b))
	}

	all, truncated := fitItems(env, items[:2], DefaultResponseMaxBytes)
	if truncated || len(all) != 2 {
		t.Errorf("small payload should not be truncated")
	}
}
