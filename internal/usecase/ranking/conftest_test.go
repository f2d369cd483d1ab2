package ranking

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/kailas-cloud/simdex/internal/domain/document"
	"github.com/kailas-cloud/simdex/internal/domain/similarity"
	"github.com/kailas-cloud/simdex/internal/domain/similarity/result"
)

// faultyScorer delegates to the real scorer except for candidates it is told to break.
type faultyScorer struct {
	real    *similarity.Scorer
	panicOn string
	errorOn string
	slowOn  string
	delay   time.Duration
	calls   atomic.Int64
}

func newFaultyScorer() *faultyScorer {
	return &faultyScorer{real: similarity.NewScorer(similarity.DefaultWeights())}
}

func (f *faultyScorer) Compare(target, candidate document.Document) result.Result {
	f.calls.Add(1)
	switch candidate.ID() {
	case f.panicOn:
		panic("corrupt candidate")
	case f.errorOn:
		return result.NewError(target.ID(), candidate.ID(), errors.New("bad input"))
	case f.slowOn:
		time.Sleep(f.delay)
	}
	return f.real.Compare(target, candidate)
}

// brokenExecutor always fails before running anything.
type brokenExecutor struct {
	calls int
}

func (b *brokenExecutor) Run(_ context.Context, _ int, _ func(context.Context, int)) error {
	b.calls++
	return ErrPoolUnavailable
}

func tickets() (document.Document, []document.Document) {
	target := document.New("1", "Servidor não responde", "não consigo conectar ao servidor")
	return target, []document.Document{
		document.New("2", "Servidor sem resposta", "conexão com servidor impossível"),
		document.New("3", "Impressora", "não posso imprimir documentos"),
		document.New("4", "Servidor não responde", "não consigo conectar ao servidor"),
		document.New("5", "", ""),
		document.New("6", "Rede", "erro de rede no equipamento"),
	}
}
