package oracle

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/Overland-East-Bay/vehicle-search-bench/internal/app/results"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/domain"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/platform/fanout"
)

// Query kinds in the search results document. Concurrent loads use their
// size as the kind.
const (
	KindGeneral  = "general"
	KindSpecific = "specific"
	// KindScenario summarizes RunScenario: probes are checks issued, matched
	// are checks passed and foundResult is true when the scenario passed.
	KindScenario = "scenario"
	// KindVerification summarizes ledger verification during the operations
	// phase: probes are verified batches and matched the batches that passed.
	KindVerification = "verification"
)

// DefaultLoadSizes are the concurrent probe loads run after the single probes.
var DefaultLoadSizes = []int{100, 1000}

// LoadTiming is one timed probe or probe load.
type LoadTiming struct {
	Kind     string
	Terms    string
	Probes   int
	Matched  int
	Duration time.Duration
}

// SearchLoadReport lists the timings of one RunSearchLoad call in run order.
type SearchLoadReport struct {
	Strategy domain.Strategy
	Timings  []LoadTiming
}

// RunSearchLoad times a general probe (year, make, model), a specific probe
// (plus trim and package) and then, per size, that many concurrent specific
// probes. Terms are drawn from the seed vocabulary, so an unseeded store
// simply reports no result.
func (o *Oracle) RunSearchLoad(ctx context.Context, s domain.Strategy, sizes []int) (SearchLoadReport, error) {
	rep := SearchLoadReport{Strategy: s}

	for _, single := range []struct {
		kind  string
		terms string
	}{
		{KindGeneral, o.gen.GeneralTerms()},
		{KindSpecific, o.gen.SpecificTerms()},
	} {
		res, err := o.Probe(ctx, s, single.terms)
		if err != nil {
			return rep, fmt.Errorf("%s probe: %w", single.kind, err)
		}
		matched := 0
		if res.MatchCount > 0 {
			matched = 1
		}
		rep.Timings = append(rep.Timings, LoadTiming{Kind: single.kind, Terms: single.terms, Probes: 1, Matched: matched, Duration: res.Duration})
		o.record(results.ProbeTiming{Strategy: s, Kind: single.kind, Elapsed: res.Duration, FoundResult: matched > 0})
	}

	for _, n := range sizes {
		if n < 1 {
			continue
		}
		terms := make([]string, n)
		for i := range terms {
			terms[i] = o.gen.SpecificTerms()
		}
		var matched atomic.Int64
		start := o.clock.Now()
		out := fanout.Run(ctx, n, func(ctx context.Context, i int) error {
			res, err := o.Probe(ctx, s, terms[i])
			if err != nil {
				return err
			}
			if res.MatchCount > 0 {
				matched.Add(1)
			}
			return nil
		})
		elapsed := o.clock.Now().Sub(start)
		if err := out.Err(); err != nil {
			return rep, fmt.Errorf("load of %d: %w", n, err)
		}

		kind := strconv.Itoa(n)
		m := int(matched.Load())
		rep.Timings = append(rep.Timings, LoadTiming{Kind: kind, Probes: n, Matched: m, Duration: elapsed})
		o.record(results.ProbeTiming{Strategy: s, Kind: kind, Elapsed: elapsed, FoundResult: m > 0, Probes: n, Matched: m})
		logger.Infof("[%s] %d concurrent probes in %s (%d matched)", s, n, elapsed, m)
	}
	return rep, nil
}

func (o *Oracle) record(p results.ProbeTiming) {
	if o.recorder != nil {
		o.recorder.RecordProbe(p)
	}
}
