package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memclock "github.com/Overland-East-Bay/vehicle-search-bench/internal/adapters/memory/clock"
	memresults "github.com/Overland-East-Bay/vehicle-search-bench/internal/adapters/memory/resultstore"
	memstore "github.com/Overland-East-Bay/vehicle-search-bench/internal/adapters/memory/store"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/app/oracle"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/domain"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/fixtures"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/ports/out/store"
)

var errSearchDown = errors.New("search down")

// brokenSearch fails every probe against one strategy.
type brokenSearch struct {
	store.Store
	strategy domain.Strategy
}

func (b brokenSearch) Search(ctx context.Context, s domain.Strategy, q store.SearchQuery) (store.SearchResult, error) {
	if s == b.strategy {
		return store.SearchResult{}, errSearchDown
	}
	return b.Store.Search(ctx, s, q)
}

func smallOptions() Options {
	return Options{
		InsertSizes:     []int{1, 5},
		DeleteSizes:     []int{5},
		SearchLoadSizes: []int{3},
		Verify:          true,
	}
}

func TestRun_AllPhasesPass(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mem := memstore.New(memstore.Options{PoolSize: 2})
	out := memresults.NewStore()
	r := New(mem, fixtures.NewSeeded(1, 1), memclock.NewManualClock(time.Unix(0, 0)), out, smallOptions())

	rep, err := r.Run(ctx)
	require.NoError(t, err)
	require.NoError(t, rep.Err())
	require.Len(t, rep.Phases, len(domain.Strategies)*len(AllPhases))
	assert.Equal(t, domain.StrategyView, rep.Phases[0].Strategy)
	assert.Equal(t, PhaseScenario, rep.Phases[0].Phase)

	ops, ok, err := out.LoadOperations(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	for _, s := range domain.Strategies {
		byOp := ops[s][domain.EntityTrim]
		assert.Len(t, byOp[domain.OperationInsert], 2)
		assert.Len(t, byOp[domain.OperationDelete], 1)
	}

	search, ok, err := out.LoadSearch(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, search[domain.StrategyTrigger], oracle.KindSpecific)
	assert.Contains(t, search[domain.StrategyView], "3")
	for _, s := range domain.Strategies {
		scenario, ok := search[s][oracle.KindScenario]
		require.True(t, ok, "%s scenario summary missing", s)
		assert.True(t, scenario.FoundResult, s)
		assert.Equal(t, 22, scenario.Probes, s)
		assert.Equal(t, scenario.Probes, scenario.Matched, s)

		verification, ok := search[s][oracle.KindVerification]
		require.True(t, ok, "%s verification summary missing", s)
		assert.True(t, verification.FoundResult, s)
		assert.Positive(t, verification.Probes, s)
		assert.Equal(t, verification.Probes, verification.Matched, s)
	}

	for _, s := range domain.Strategies {
		for _, kind := range domain.EntityKinds {
			assert.Zero(t, mem.Rows(s, kind), "%s %s rows left behind", s, kind)
		}
	}
}

func TestRun_FailedPhaseDoesNotStopTheRun(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mem := memstore.New(memstore.Options{})
	out := memresults.NewStore()
	broken := brokenSearch{Store: mem, strategy: domain.StrategyView}
	r := New(broken, fixtures.New(), memclock.NewManualClock(time.Unix(0, 0)), out, smallOptions())

	rep, err := r.Run(ctx)
	require.NoError(t, err)

	failed := rep.Failed()
	require.Len(t, failed, len(AllPhases))
	for _, p := range failed {
		assert.Equal(t, domain.StrategyView, p.Strategy)
		assert.ErrorIs(t, p.Err, errSearchDown)
	}
	assert.ErrorIs(t, rep.Err(), errSearchDown)
	assert.Contains(t, rep.Err().Error(), "view/scenario")

	// The trigger strategy still produced its documents.
	ops, ok, err := out.LoadOperations(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, ops, domain.StrategyTrigger)

	search, ok, err := out.LoadSearch(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	view := search[domain.StrategyView]
	require.Contains(t, view, oracle.KindScenario)
	assert.False(t, view[oracle.KindScenario].FoundResult)
	assert.Less(t, view[oracle.KindScenario].Matched, view[oracle.KindScenario].Probes)
	require.Contains(t, view, oracle.KindVerification)
	assert.False(t, view[oracle.KindVerification].FoundResult)
	assert.Less(t, view[oracle.KindVerification].Matched, view[oracle.KindVerification].Probes)

	trigger := search[domain.StrategyTrigger]
	assert.True(t, trigger[oracle.KindScenario].FoundResult)
	assert.True(t, trigger[oracle.KindVerification].FoundResult)
}

func TestRun_WithoutVerificationOperationsIgnoreSearch(t *testing.T) {
	t.Parallel()

	mem := memstore.New(memstore.Options{})
	opts := smallOptions()
	opts.Verify = false
	opts.Phases = []Phase{PhaseOperations}
	opts.Strategies = []domain.Strategy{domain.StrategyView}
	r := New(brokenSearch{Store: mem, strategy: domain.StrategyView}, fixtures.New(), memclock.NewManualClock(time.Unix(0, 0)), nil, opts)

	rep, err := r.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, rep.Err())
	assert.NotEmpty(t, r.Aggregator().Operations()[domain.StrategyView])
}

func TestParsePhase(t *testing.T) {
	t.Parallel()

	p, err := ParsePhase(" Search ")
	require.NoError(t, err)
	assert.Equal(t, PhaseSearch, p)

	_, err = ParsePhase("warmup")
	assert.Error(t, err)
}
