package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const ticketsJSON = `{
  "target": {"id": 1, "title": "Servidor não responde", "content": "não consigo conectar ao servidor"},
  "candidates": [
    {"id": 2, "title": "Servidor sem resposta", "content": "conexão com servidor impossível"},
    {"id": 3, "title": "Impressora", "content": "não posso imprimir documentos"},
    {"id": "4", "title": "Servidor não responde", "content": "não consigo conectar ao servidor"},
    {"id": 5},
    {"id": 6, "title": "Rede", "content": "erro de rede no equipamento"}
  ]
}`

func defaultRankOptions() rankOptions {
	return rankOptions{file: "-", threshold: 0.3, maxResults: 10, workers: 2}
}

func runRankString(t *testing.T, input string, opts rankOptions) rankOutput {
	t.Helper()
	var out bytes.Buffer
	if err := runRank(context.Background(), strings.NewReader(input), &out, opts); err != nil {
		t.Fatalf("runRank: %v", err)
	}
	var got rankOutput
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out.String())
	}
	return got
}

func TestRunRank_FindSimilar(t *testing.T) {
	got := runRankString(t, ticketsJSON, defaultRankOptions())

	var ids []string
	for _, r := range got.Results {
		ids = append(ids, r.ID2)
	}
	if diff := cmp.Diff([]string{"4", "2"}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
	if got.Compared != 5 {
		t.Errorf("compared = %d, want 5", got.Compared)
	}
	if got.Results[0].Score != 1 {
		t.Errorf("identical ticket score = %v, want 1", got.Results[0].Score)
	}
}

func TestRunRank_MaxResults(t *testing.T) {
	opts := defaultRankOptions()
	opts.maxResults = 1

	got := runRankString(t, ticketsJSON, opts)
	if len(got.Results) != 1 || got.Results[0].ID2 != "4" {
		t.Errorf("unexpected results: %+v", got.Results)
	}
}

func TestRunRank_Matrix(t *testing.T) {
	input := `{"documents": [
		{"id": "a", "content": "hello world"},
		{"id": "b", "content": "hello world"},
		{"id": "c", "content": "something else"}
	]}`
	opts := defaultRankOptions()
	opts.matrix = true
	opts.threshold = 0.5

	got := runRankString(t, input, opts)
	if len(got.Results) != 1 {
		t.Fatalf("expected one pair, got %+v", got.Results)
	}
	if r := got.Results[0]; r.ID1 != "a" || r.ID2 != "b" || r.Score != 0.85 {
		t.Errorf("unexpected pair: %+v", r)
	}
}

func TestRunRank_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.json")
	if err := os.WriteFile(path, []byte(ticketsJSON), 0o600); err != nil {
		t.Fatal(err)
	}
	opts := defaultRankOptions()
	opts.file = path

	got := runRankString(t, "", opts)
	if len(got.Results) != 2 {
		t.Errorf("expected 2 results, got %d", len(got.Results))
	}
}

func TestRunRank_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  func(*rankOptions)
	}{
		{"threshold above 1", ticketsJSON, func(o *rankOptions) { o.threshold = 1.5 }},
		{"max results zero", ticketsJSON, func(o *rankOptions) { o.maxResults = 0 }},
		{"max results above 50", ticketsJSON, func(o *rankOptions) { o.maxResults = 51 }},
		{"invalid json", `{`, nil},
		{"missing target", `{"candidates": []}`, nil},
		{"fractional id", `{"target": {"id": 1.5}, "candidates": []}`, nil},
		{"non-string content", `{"documents": [{"id": 1, "content": 3}]}`, func(o *rankOptions) { o.matrix = true }},
		{"missing file", ``, func(o *rankOptions) { o.file = filepath.Join(t.TempDir(), "nope.json") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := defaultRankOptions()
			if tt.opts != nil {
				tt.opts(&opts)
			}
			var out bytes.Buffer
			if err := runRank(context.Background(), strings.NewReader(tt.input), &out, opts); err == nil {
				t.Errorf("expected error, got output %s", out.String())
			}
		})
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.HasPrefix(out.String(), "simdex dev") {
		t.Errorf("unexpected version output %q", out.String())
	}
}
