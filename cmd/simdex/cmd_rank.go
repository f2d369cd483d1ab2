package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/simdex"
	"github.com/kailas-cloud/simdex/internal/domain/document"
	"github.com/kailas-cloud/simdex/internal/domain/similarity/result"
)

type rankOptions struct {
	file       string
	threshold  float64
	maxResults int
	matrix     bool
	workers    int
}

var rankOpts rankOptions

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank documents from a JSON file",
	Long: `Reads {"target": {...}, "candidates": [...]} and prints the candidates
similar to the target, or with --matrix reads {"documents": [...]} and prints
every similar pair. Documents are {"id", "title", "content"}; "-" reads stdin.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runRank(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), rankOpts)
	},
}

func init() {
	f := rankCmd.Flags()
	f.StringVarP(&rankOpts.file, "file", "f", "-", "JSON input file")
	f.Float64Var(&rankOpts.threshold, "threshold", 0.3, "minimum combined score")
	f.IntVar(&rankOpts.maxResults, "max-results", 10, "maximum number of results (1..50)")
	f.BoolVar(&rankOpts.matrix, "matrix", false, "compare every pair of documents")
	f.IntVar(&rankOpts.workers, "workers", 2, "concurrent comparison workers")
}

type rankInput struct {
	Target     *inputDocument  `json:"target"`
	Candidates []inputDocument `json:"candidates"`
	Documents  []inputDocument `json:"documents"`
}

type inputDocument struct {
	ID      any `json:"id"`
	Title   any `json:"title"`
	Content any `json:"content"`
}

type rankItem struct {
	ID1         string  `json:"id1"`
	ID2         string  `json:"id2"`
	Score       float64 `json:"similarity_score"`
	Sequence    float64 `json:"sequence_similarity"`
	Cosine      float64 `json:"cosine_similarity"`
	Jaccard     float64 `json:"jaccard_similarity"`
	Levenshtein float64 `json:"levenshtein_similarity"`
	TFIDF       float64 `json:"tfidf_similarity"`
}

type rankFailure struct {
	ID1   string `json:"id1"`
	ID2   string `json:"id2"`
	Error string `json:"error"`
}

type rankOutput struct {
	Results   []rankItem    `json:"results"`
	Failed    []rankFailure `json:"failed,omitempty"`
	Compared  int           `json:"compared"`
	Truncated bool          `json:"truncated,omitempty"`
}

func runRank(ctx context.Context, stdin io.Reader, out io.Writer, opts rankOptions) error {
	if opts.threshold < 0 || opts.threshold > 1 {
		return fmt.Errorf("--threshold must be between 0 and 1, got %v", opts.threshold)
	}
	if opts.maxResults < 1 || opts.maxResults > 50 {
		return fmt.Errorf("--max-results must be between 1 and 50, got %d", opts.maxResults)
	}

	in, err := readRankInput(stdin, opts.file)
	if err != nil {
		return err
	}

	engine, err := simdex.New(simdex.WithWorkers(opts.workers))
	if err != nil {
		return err
	}

	var rep simdex.Report
	if opts.matrix {
		docs, err := toDocuments(in.Documents)
		if err != nil {
			return err
		}
		rep = engine.Matrix(ctx, docs, opts.threshold)
	} else {
		if in.Target == nil {
			return errors.New(`input has no "target" (use --matrix for "documents")`)
		}
		target, err := toDocument(*in.Target)
		if err != nil {
			return fmt.Errorf("target: %w", err)
		}
		candidates, err := toDocuments(in.Candidates)
		if err != nil {
			return err
		}
		rep = engine.FindSimilar(ctx, target, candidates, opts.threshold, opts.maxResults)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(toRankOutput(&rep))
}

func readRankInput(stdin io.Reader, path string) (rankInput, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(filepath.Clean(path))
	}
	if err != nil {
		return rankInput{}, fmt.Errorf("read input: %w", err)
	}

	var in rankInput
	if err := json.Unmarshal(data, &in); err != nil {
		return rankInput{}, fmt.Errorf("parse input: %w", err)
	}
	return in, nil
}

func toDocument(in inputDocument) (simdex.Document, error) {
	d, err := document.Coerce(in.ID, in.Title, in.Content)
	if err != nil {
		return simdex.Document{}, err
	}
	return simdex.Document{ID: d.ID(), Title: d.Title(), Content: d.Content()}, nil
}

func toDocuments(in []inputDocument) ([]simdex.Document, error) {
	docs := make([]simdex.Document, 0, len(in))
	for i, d := range in {
		doc, err := toDocument(d)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func toRankOutput(rep *simdex.Report) rankOutput {
	out := rankOutput{
		Results:   make([]rankItem, 0, len(rep.Results)),
		Compared:  rep.Compared,
		Truncated: rep.Truncated,
	}
	for _, r := range rep.Results {
		out.Results = append(out.Results, rankItem{
			ID1:         r.ID1,
			ID2:         r.ID2,
			Score:       result.Round(r.Score),
			Sequence:    result.Round(r.Sequence),
			Cosine:      result.Round(r.Cosine),
			Jaccard:     result.Round(r.Jaccard),
			Levenshtein: result.Round(r.Levenshtein),
			TFIDF:       result.Round(r.TFIDF),
		})
	}
	for _, r := range rep.Failed {
		out.Failed = append(out.Failed, rankFailure{ID1: r.ID1, ID2: r.ID2, Error: r.Err.Error()})
	}
	return out
}
