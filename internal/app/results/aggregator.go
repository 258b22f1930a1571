// Package results collects batch and probe timings into the persisted documents.
package results

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/juju/loggo/v2"

	"github.com/Overland-East-Bay/vehicle-search-bench/internal/domain"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/ports/out/resultstore"
)

var logger = loggo.GetLogger("vsbench.app.results")

// BatchTiming is one completed batch.
type BatchTiming struct {
	Strategy  domain.Strategy
	Entity    domain.EntityKind
	Operation domain.Operation
	Size      int
	Elapsed   time.Duration
}

// ProbeTiming is one probe, or one concurrent probe load when Probes > 0.
type ProbeTiming struct {
	Strategy domain.Strategy
	// Kind is "general", "specific" or the load size.
	Kind        string
	Elapsed     time.Duration
	FoundResult bool
	Probes      int
	Matched     int
}

// Millis converts d to fractional milliseconds.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Aggregator is safe for concurrent use. Recording the same key twice keeps
// the latest value.
type Aggregator struct {
	mu     sync.Mutex
	ops    resultstore.OperationResults
	search resultstore.SearchResults
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		ops:    make(resultstore.OperationResults),
		search: make(resultstore.SearchResults),
	}
}

func (a *Aggregator) RecordBatch(b BatchTiming) {
	a.mu.Lock()
	defer a.mu.Unlock()

	byEntity, ok := a.ops[b.Strategy]
	if !ok {
		byEntity = make(map[domain.EntityKind]map[domain.Operation]map[int]float64)
		a.ops[b.Strategy] = byEntity
	}
	byOp, ok := byEntity[b.Entity]
	if !ok {
		byOp = make(map[domain.Operation]map[int]float64)
		byEntity[b.Entity] = byOp
	}
	bySize, ok := byOp[b.Operation]
	if !ok {
		bySize = make(map[int]float64)
		byOp[b.Operation] = bySize
	}
	bySize[b.Size] = Millis(b.Elapsed)
}

func (a *Aggregator) RecordProbe(p ProbeTiming) {
	a.mu.Lock()
	defer a.mu.Unlock()

	byKind, ok := a.search[p.Strategy]
	if !ok {
		byKind = make(map[string]resultstore.ProbeTiming)
		a.search[p.Strategy] = byKind
	}
	byKind[p.Kind] = resultstore.ProbeTiming{
		TimeMs:      Millis(p.Elapsed),
		FoundResult: p.FoundResult,
		Probes:      p.Probes,
		Matched:     p.Matched,
	}
}

// Operations returns a copy of the operation document.
func (a *Aggregator) Operations() resultstore.OperationResults {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(resultstore.OperationResults, len(a.ops))
	for st, byEntity := range a.ops {
		e := make(map[domain.EntityKind]map[domain.Operation]map[int]float64, len(byEntity))
		for kind, byOp := range byEntity {
			o := make(map[domain.Operation]map[int]float64, len(byOp))
			for op, bySize := range byOp {
				s := make(map[int]float64, len(bySize))
				for size, ms := range bySize {
					s[size] = ms
				}
				o[op] = s
			}
			e[kind] = o
		}
		out[st] = e
	}
	return out
}

// Search returns a copy of the search document.
func (a *Aggregator) Search() resultstore.SearchResults {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(resultstore.SearchResults, len(a.search))
	for st, byKind := range a.search {
		k := make(map[string]resultstore.ProbeTiming, len(byKind))
		for kind, p := range byKind {
			k[kind] = p
		}
		out[st] = k
	}
	return out
}

// Persist writes every document that has at least one entry. An empty
// document is skipped so a partial run does not clobber earlier output.
func (a *Aggregator) Persist(ctx context.Context, w resultstore.Writer) error {
	if ops := a.Operations(); len(ops) > 0 {
		if err := w.SaveOperations(ctx, ops); err != nil {
			return fmt.Errorf("save operation results: %w", err)
		}
		logger.Infof("saved operation results for %d strategies", len(ops))
	}
	if search := a.Search(); len(search) > 0 {
		if err := w.SaveSearch(ctx, search); err != nil {
			return fmt.Errorf("save search results: %w", err)
		}
		logger.Infof("saved search results for %d strategies", len(search))
	}
	return nil
}
