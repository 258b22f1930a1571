// Package oracle checks that a strategy's search documents reflect the
// source tables immediately after each committed write.
package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/juju/loggo/v2"

	"github.com/Overland-East-Bay/vehicle-search-bench/internal/app/results"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/domain"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/fixtures"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/ports/out/clock"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/ports/out/store"
)

var logger = loggo.GetLogger("vsbench.app.oracle")

// DefaultLimit is the sample size every probe asks for.
const DefaultLimit = 10

// Scope restricts a probe to the documents of specific rows.
type Scope struct {
	ModelIDs []domain.ModelID
	TrimIDs  []domain.TrimID
}

func (s Scope) String() string {
	var parts []string
	if len(s.ModelIDs) > 0 {
		parts = append(parts, fmt.Sprintf("models=%v", s.ModelIDs))
	}
	if len(s.TrimIDs) > 0 {
		parts = append(parts, fmt.Sprintf("trims=%v", s.TrimIDs))
	}
	if len(parts) == 0 {
		return "unscoped"
	}
	return strings.Join(parts, " ")
}

// ProbeResult is the outcome of one timed probe.
type ProbeResult struct {
	MatchCount int
	Sample     []store.SearchHit
	Duration   time.Duration
}

// Violation is raised when a probe outcome disagrees with the source tables.
type Violation struct {
	Strategy   domain.Strategy
	Check      string
	Terms      string
	Scope      Scope
	WantMatch  bool
	MatchCount int
}

func (v *Violation) Error() string {
	want := "no match"
	if v.WantMatch {
		want = "at least one match"
	}
	return fmt.Sprintf("consistency violation [%s] %s: probe %q (%s) matched %d document(s), want %s",
		v.Strategy, v.Check, v.Terms, v.Scope, v.MatchCount, want)
}

// ProbeRecorder receives timed probes for the search results document.
type ProbeRecorder interface {
	RecordProbe(results.ProbeTiming)
}

// Options configures an Oracle.
type Options struct {
	// Limit bounds each probe's sample. Zero means DefaultLimit.
	Limit int
	// Recorder is optional.
	Recorder ProbeRecorder
}

// Oracle issues probes through the store port. It keeps no state between calls.
type Oracle struct {
	store    store.Store
	gen      *fixtures.Generator
	clock    clock.Clock
	limit    int
	recorder ProbeRecorder
}

func New(s store.Store, gen *fixtures.Generator, clk clock.Clock, opts Options) *Oracle {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Oracle{store: s, gen: gen, clock: clk, limit: limit, recorder: opts.Recorder}
}

// Probe searches every document of the strategy.
func (o *Oracle) Probe(ctx context.Context, s domain.Strategy, terms string) (ProbeResult, error) {
	return o.ProbeScoped(ctx, s, terms, Scope{})
}

func (o *Oracle) ProbeScoped(ctx context.Context, s domain.Strategy, terms string, scope Scope) (ProbeResult, error) {
	start := o.clock.Now()
	res, err := o.store.Search(ctx, s, store.SearchQuery{
		Terms:    terms,
		ModelIDs: scope.ModelIDs,
		TrimIDs:  scope.TrimIDs,
		Limit:    o.limit,
	})
	elapsed := o.clock.Now().Sub(start)
	if err != nil {
		return ProbeResult{}, err
	}
	logger.Tracef("[%s] %q (%s) -> %d in %s", s, terms, scope, res.MatchCount, elapsed)
	return ProbeResult{MatchCount: res.MatchCount, Sample: res.Hits, Duration: elapsed}, nil
}

// AssertReflects fails with a *Violation when the unscoped probe for terms
// does not match (shouldMatch) or does match (!shouldMatch).
func (o *Oracle) AssertReflects(ctx context.Context, s domain.Strategy, terms string, shouldMatch bool) error {
	return o.AssertReflectsScoped(ctx, s, "probe", terms, Scope{}, shouldMatch)
}

func (o *Oracle) AssertReflectsScoped(ctx context.Context, s domain.Strategy, check, terms string, scope Scope, shouldMatch bool) error {
	res, err := o.ProbeScoped(ctx, s, terms, scope)
	if err != nil {
		return err
	}
	if (res.MatchCount > 0) != shouldMatch {
		return &Violation{
			Strategy:   s,
			Check:      check,
			Terms:      terms,
			Scope:      scope,
			WantMatch:  shouldMatch,
			MatchCount: res.MatchCount,
		}
	}
	return nil
}
