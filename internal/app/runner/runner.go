// Package runner sequences the benchmark phases for each strategy and
// persists the aggregated timings.
package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/juju/loggo/v2"

	"github.com/Overland-East-Bay/vehicle-search-bench/internal/app/load"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/app/oracle"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/app/results"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/domain"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/fixtures"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/ports/out/clock"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/ports/out/resultstore"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/ports/out/store"
)

var logger = loggo.GetLogger("vsbench.app.runner")

// Phase is one independently failing unit of a run.
type Phase string

const (
	PhaseScenario   Phase = "scenario"
	PhaseOperations Phase = "operations"
	PhaseSearch     Phase = "search"
)

// AllPhases is the order phases run in for each strategy.
var AllPhases = []Phase{PhaseScenario, PhaseOperations, PhaseSearch}

// ParsePhase validates a user-provided phase name.
func ParsePhase(v string) (Phase, error) {
	p := Phase(strings.ToLower(strings.TrimSpace(v)))
	for _, known := range AllPhases {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown phase %q", v)
}

// PhaseResult is the outcome of one phase for one strategy.
type PhaseResult struct {
	Strategy domain.Strategy
	Phase    Phase
	Duration time.Duration
	Err      error
}

// Report lists every phase that ran, in run order.
type Report struct {
	Phases []PhaseResult
}

// Failed returns the phases that returned an error.
func (r Report) Failed() []PhaseResult {
	var out []PhaseResult
	for _, p := range r.Phases {
		if p.Err != nil {
			out = append(out, p)
		}
	}
	return out
}

// Err is nil when every phase passed.
func (r Report) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	errs := make([]error, len(failed))
	names := make([]string, len(failed))
	for i, p := range failed {
		errs[i] = fmt.Errorf("%s %s: %w", p.Strategy, p.Phase, p.Err)
		names[i] = string(p.Strategy) + "/" + string(p.Phase)
	}
	return fmt.Errorf("%d phase(s) failed (%s): %w", len(failed), strings.Join(names, ", "), errors.Join(errs...))
}

// Options selects what a run does. Zero values take the package defaults.
type Options struct {
	Strategies      []domain.Strategy
	Phases          []Phase
	InsertSizes     []int
	DeleteSizes     []int
	SearchLoadSizes []int
	ProbeLimit      int
	// Verify runs the oracle after every operation batch.
	Verify bool
}

// Runner owns the aggregator for one run.
type Runner struct {
	store  store.Store
	gen    *fixtures.Generator
	clock  clock.Clock
	writer resultstore.Writer
	opts   Options

	agg    *results.Aggregator
	driver *load.Driver
	oracle *oracle.Oracle
}

// New wires a run. writer may be nil, in which case nothing is persisted.
func New(s store.Store, gen *fixtures.Generator, clk clock.Clock, w resultstore.Writer, opts Options) *Runner {
	if len(opts.Strategies) == 0 {
		opts.Strategies = domain.Strategies
	}
	if len(opts.Phases) == 0 {
		opts.Phases = AllPhases
	}
	if opts.SearchLoadSizes == nil {
		opts.SearchLoadSizes = oracle.DefaultLoadSizes
	}
	agg := results.NewAggregator()
	return &Runner{
		store:  s,
		gen:    gen,
		clock:  clk,
		writer: w,
		opts:   opts,
		agg:    agg,
		driver: load.NewDriver(s, gen, clk),
		oracle: oracle.New(s, gen, clk, oracle.Options{Limit: opts.ProbeLimit, Recorder: agg}),
	}
}

// Aggregator exposes the timings recorded so far.
func (r *Runner) Aggregator() *results.Aggregator { return r.agg }

// Run executes every selected phase for every selected strategy. A failed
// phase is recorded and the run moves on; the returned error is reserved for
// persistence failures. Check Report.Err for phase failures.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	var rep Report
	for _, s := range r.opts.Strategies {
		for _, p := range r.opts.Phases {
			res := r.RunPhase(ctx, s, p)
			rep.Phases = append(rep.Phases, res)
			if res.Err != nil {
				logger.Errorf("[%s] %s phase failed after %s: %v", s, p, res.Duration, res.Err)
				continue
			}
			logger.Infof("[%s] %s phase passed in %s", s, p, res.Duration)
		}
	}

	if r.writer != nil {
		if err := r.agg.Persist(ctx, r.writer); err != nil {
			return rep, fmt.Errorf("persist results: %w", err)
		}
	}
	return rep, nil
}

// RunPhase runs a single phase for one strategy.
func (r *Runner) RunPhase(ctx context.Context, s domain.Strategy, p Phase) PhaseResult {
	start := r.clock.Now()
	var err error
	switch p {
	case PhaseScenario:
		var rep oracle.ScenarioReport
		rep, err = r.oracle.RunScenario(ctx, s)
		r.agg.RecordProbe(results.ProbeTiming{
			Strategy:    s,
			Kind:        oracle.KindScenario,
			Elapsed:     rep.Duration,
			FoundResult: err == nil,
			Probes:      rep.Checks,
			Matched:     rep.Passed,
		})
	case PhaseOperations:
		err = r.operations(ctx, s)
	case PhaseSearch:
		_, err = r.oracle.RunSearchLoad(ctx, s, r.opts.SearchLoadSizes)
	default:
		err = fmt.Errorf("unknown phase %q", p)
	}
	return PhaseResult{Strategy: s, Phase: p, Duration: r.clock.Now().Sub(start), Err: err}
}

func (r *Runner) operations(ctx context.Context, s domain.Strategy) error {
	opts := load.SuiteOptions{
		InsertSizes: r.opts.InsertSizes,
		DeleteSizes: r.opts.DeleteSizes,
		Recorder:    r.agg,
	}
	var tally *verifyTally
	if r.opts.Verify {
		tally = &verifyTally{next: r.oracle, clock: r.clock}
		opts.Verifier = tally
	}
	suite := load.NewSuite(r.driver, s, opts)
	err := suite.Run(ctx)
	if tally != nil {
		r.agg.RecordProbe(tally.timing(s))
	}
	if err != nil {
		return err
	}

	// The surviving chain is the suite's only leftover; cascades remove it.
	if mk := suite.Chain().Make; mk != nil {
		if _, err := r.store.Delete(ctx, s, domain.EntityMake, string(mk.ID)); err != nil {
			return fmt.Errorf("remove current chain: %w", err)
		}
	}
	return nil
}

// verifyTally forwards to the oracle and counts verified batches for the
// search results document.
type verifyTally struct {
	next  load.Verifier
	clock clock.Clock

	mu      sync.Mutex
	batches int
	passed  int
	elapsed time.Duration
}

func (v *verifyTally) VerifyInserted(ctx context.Context, s domain.Strategy, ledger load.Ledger, chain load.Chain) error {
	return v.track(func() error { return v.next.VerifyInserted(ctx, s, ledger, chain) })
}

func (v *verifyTally) VerifyUpdated(ctx context.Context, s domain.Strategy, before, after load.Ledger, chain load.Chain) error {
	return v.track(func() error { return v.next.VerifyUpdated(ctx, s, before, after, chain) })
}

func (v *verifyTally) VerifyDeleted(ctx context.Context, s domain.Strategy, ledger load.Ledger, chain load.Chain) error {
	return v.track(func() error { return v.next.VerifyDeleted(ctx, s, ledger, chain) })
}

func (v *verifyTally) track(fn func() error) error {
	start := v.clock.Now()
	err := fn()
	elapsed := v.clock.Now().Sub(start)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.batches++
	v.elapsed += elapsed
	if err == nil {
		v.passed++
	}
	return err
}

func (v *verifyTally) timing(s domain.Strategy) results.ProbeTiming {
	v.mu.Lock()
	defer v.mu.Unlock()
	return results.ProbeTiming{
		Strategy:    s,
		Kind:        oracle.KindVerification,
		Elapsed:     v.elapsed,
		FoundResult: v.batches > 0 && v.passed == v.batches,
		Probes:      v.batches,
		Matched:     v.passed,
	}
}
