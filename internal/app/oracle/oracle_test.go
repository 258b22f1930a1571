package oracle

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memclock "github.com/Overland-East-Bay/vehicle-search-bench/internal/adapters/memory/clock"
	memstore "github.com/Overland-East-Bay/vehicle-search-bench/internal/adapters/memory/store"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/app/load"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/app/results"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/domain"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/fixtures"
	storeport "github.com/Overland-East-Bay/vehicle-search-bench/internal/ports/out/store"
)

func newOracle(s storeport.Store, rec ProbeRecorder) *Oracle {
	return New(s, fixtures.NewSeeded(21, 22), memclock.NewManualClock(time.Unix(0, 0)), Options{Recorder: rec})
}

// lyingStore acknowledges updates without applying them.
type lyingStore struct {
	storeport.Store
}

func (s lyingStore) Update(ctx context.Context, st domain.Strategy, rec domain.Record) (int64, error) {
	return 1, nil
}

// trimDroppingStore loses every trim document once a make or model is renamed.
type trimDroppingStore struct {
	storeport.Store
	renamed atomic.Bool
}

func (s *trimDroppingStore) Update(ctx context.Context, st domain.Strategy, rec domain.Record) (int64, error) {
	if k := rec.Kind(); k == domain.EntityMake || k == domain.EntityModel {
		s.renamed.Store(true)
	}
	return s.Store.Update(ctx, st, rec)
}

func (s *trimDroppingStore) Search(ctx context.Context, st domain.Strategy, q storeport.SearchQuery) (storeport.SearchResult, error) {
	if !s.renamed.Load() {
		return s.Store.Search(ctx, st, q)
	}
	limit := q.Limit
	q.Limit = 0
	res, err := s.Store.Search(ctx, st, q)
	if err != nil {
		return res, err
	}
	var kept []storeport.SearchHit
	for _, h := range res.Hits {
		if h.TrimID == "" {
			kept = append(kept, h)
		}
	}
	out := storeport.SearchResult{MatchCount: len(kept), Hits: kept}
	if limit > 0 && len(out.Hits) > limit {
		out.Hits = out.Hits[:limit]
	}
	return out, nil
}

func TestRunScenario_PassesForEveryStrategy(t *testing.T) {
	t.Parallel()

	mem := memstore.New(memstore.Options{PoolSize: 1})
	o := newOracle(mem, nil)
	for _, st := range domain.Strategies {
		rep, err := o.RunScenario(context.Background(), st)
		require.NoError(t, err, "strategy %s", st)
		assert.Equal(t, st, rep.Strategy)
		assert.Equal(t, 22, rep.Checks)
		assert.Equal(t, rep.Checks, rep.Passed)
		for _, kind := range domain.EntityKinds {
			assert.Zero(t, mem.Rows(st, kind), "%s %s rows left behind", st, kind)
		}
	}
}

func TestRunScenario_DetectsStaleDocuments(t *testing.T) {
	t.Parallel()

	mem := memstore.New(memstore.Options{})
	o := newOracle(lyingStore{Store: mem}, nil)

	_, err := o.RunScenario(context.Background(), domain.StrategyTrigger)
	var v *Violation
	require.True(t, errors.As(err, &v), "err=%v", err)
	assert.Equal(t, "old make name", v.Check)
	assert.False(t, v.WantMatch)
	assert.Positive(t, v.MatchCount)
	assert.Zero(t, mem.Rows(domain.StrategyTrigger, domain.EntityMake), "failed scenario must clean up")
}

func TestRunScenario_DetectsTrimDocumentsLostOnRename(t *testing.T) {
	t.Parallel()

	for _, st := range domain.Strategies {
		mem := memstore.New(memstore.Options{})
		o := newOracle(&trimDroppingStore{Store: mem}, nil)

		rep, err := o.RunScenario(context.Background(), st)
		var v *Violation
		require.True(t, errors.As(err, &v), "%s: err=%v", st, err)
		assert.Equal(t, "trim after make rename", v.Check)
		assert.True(t, v.WantMatch)
		assert.Zero(t, v.MatchCount)
		assert.Positive(t, rep.Checks)
		assert.Equal(t, rep.Checks-1, rep.Passed)
		assert.Zero(t, mem.Rows(st, domain.EntityTrim), "failed scenario must clean up")
	}
}

func TestAssertReflects_Unscoped(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mem := memstore.New(memstore.Options{})
	o := newOracle(mem, nil)
	tag := "t" + strings.ReplaceAll(uuid.NewString(), "-", "")
	mk := domain.Make{ID: domain.MakeID(uuid.NewString()), Name: tag}
	mo := domain.Model{ID: domain.ModelID(uuid.NewString()), MakeID: mk.ID, Name: "Dart", Year: 2017, Type: domain.ModelTypeNew}
	_, err := mem.Insert(ctx, domain.StrategyView, mk)
	require.NoError(t, err)
	_, err = mem.Insert(ctx, domain.StrategyView, mo)
	require.NoError(t, err)

	require.NoError(t, o.AssertReflects(ctx, domain.StrategyView, tag+" dart", true))
	err = o.AssertReflects(ctx, domain.StrategyView, tag+" dart", false)
	var v *Violation
	require.True(t, errors.As(err, &v))
	assert.Equal(t, 1, v.MatchCount)
	assert.Contains(t, v.Error(), "want no match")

	// Store errors pass through untouched.
	err = o.AssertReflects(ctx, domain.StrategyView, "  ", true)
	assert.ErrorIs(t, err, storeport.ErrEmptyQuery)
}

func TestVerifyUpdated_FlagsStaleTokens(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := domain.StrategyTrigger

	mem := memstore.New(memstore.Options{})
	fx := fixtures.NewSeeded(8, 9)
	clk := memclock.NewManualClock(time.Unix(0, 0))

	mk := fx.MakeMake()
	_, err := mem.Insert(ctx, st, mk)
	require.NoError(t, err)

	driver := load.NewDriver(mem, fx, clk)
	ins, err := driver.RunBatch(ctx, load.BatchSpec{Strategy: st, Entity: domain.EntityModel, Operation: domain.OperationInsert, Size: 20, Parent: string(mk.ID)})
	require.NoError(t, err)

	chain := load.Chain{Make: &mk}
	o := New(mem, fx, clk, Options{})
	require.NoError(t, o.VerifyInserted(ctx, st, ins.Ledger, chain))

	upd, err := driver.RunBatch(ctx, load.BatchSpec{Strategy: st, Entity: domain.EntityModel, Operation: domain.OperationUpdate, Size: 20, Ledger: ins.Ledger})
	require.NoError(t, err)
	require.NoError(t, o.VerifyUpdated(ctx, st, upd.Before, upd.Ledger, chain))

	// Claim a rename that never reached the store.
	fake := make([]domain.Record, upd.Ledger.Len())
	for i, rec := range upd.Ledger.Records {
		fake[i] = fx.Rename(rec)
	}
	err = o.VerifyUpdated(ctx, st, upd.Ledger, load.NewLedger(domain.EntityModel, fake), chain)
	var v *Violation
	require.True(t, errors.As(err, &v), "err=%v", err)
	assert.Equal(t, "updated model", v.Check)

	del, err := driver.RunBatch(ctx, load.BatchSpec{Strategy: st, Entity: domain.EntityModel, Operation: domain.OperationDelete, Size: 20, Ledger: upd.Ledger})
	require.NoError(t, err)
	require.NoError(t, o.VerifyDeleted(ctx, st, del.Before, chain))
}

func TestVerifyUpdated_ChecksCurrentMakeRename(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := domain.StrategyTrigger

	mem := memstore.New(memstore.Options{})
	fx := fixtures.New()
	mk := fx.MakeMake()
	mk.Name = "Kia Motors"
	mo := fx.MakeModel(mk.ID)
	mo.Name = "Sorento"
	for _, rec := range []domain.Record{mk, mo} {
		_, err := mem.Insert(ctx, st, rec)
		require.NoError(t, err)
	}
	o := newOracle(mem, nil)
	makes := func(recs ...domain.Make) load.Ledger {
		out := make([]domain.Record, len(recs))
		for i, r := range recs {
			out[i] = r
		}
		return load.NewLedger(domain.EntityMake, out)
	}

	renamed := mk
	renamed.Name = "Hyundai Group"
	_, err := mem.Update(ctx, st, renamed)
	require.NoError(t, err)
	chain := load.Chain{Make: &renamed, Model: &mo}
	require.NoError(t, o.VerifyUpdated(ctx, st, makes(mk), makes(renamed), chain))

	// A rename that never reached the store.
	claimed := renamed
	claimed.Name = "Genesis Luxury"
	err = o.VerifyUpdated(ctx, st, makes(renamed), makes(claimed), load.Chain{Make: &claimed, Model: &mo})
	var v *Violation
	require.True(t, errors.As(err, &v), "err=%v", err)
	assert.Equal(t, "renamed make", v.Check)
	assert.True(t, v.WantMatch)

	// The document still carries the previous name.
	both := renamed
	both.Name = "Hyundai Group Kia Motors"
	_, err = mem.Update(ctx, st, both)
	require.NoError(t, err)
	err = o.VerifyUpdated(ctx, st, makes(mk), makes(renamed), chain)
	require.True(t, errors.As(err, &v), "err=%v", err)
	assert.Equal(t, "stale make", v.Check)
	assert.False(t, v.WantMatch)
	assert.Equal(t, []domain.ModelID{mo.ID}, v.Scope.ModelIDs)

	// Without a current model no document exists to check.
	assert.NoError(t, o.VerifyUpdated(ctx, st, makes(renamed), makes(claimed), load.Chain{Make: &claimed}))
}

func TestVerifyDeleted_FlagsSurvivingDocuments(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := domain.StrategyView

	mem := memstore.New(memstore.Options{})
	fx := fixtures.New()
	mk := fx.MakeMake()
	mo := fx.MakeModel(mk.ID)
	tr := fx.MakeTrim(mo.ID)
	for _, rec := range []domain.Record{mk, mo, tr} {
		_, err := mem.Insert(ctx, st, rec)
		require.NoError(t, err)
	}

	o := newOracle(mem, nil)
	ledger := load.NewLedger(domain.EntityTrim, []domain.Record{tr})
	err := o.VerifyDeleted(ctx, st, ledger, load.Chain{Make: &mk, Model: &mo})
	var v *Violation
	require.True(t, errors.As(err, &v), "err=%v", err)
	assert.Equal(t, []domain.TrimID{tr.ID}, v.Scope.TrimIDs)

	// Make ledgers project no documents and are skipped.
	assert.NoError(t, o.VerifyDeleted(ctx, st, load.NewLedger(domain.EntityMake, []domain.Record{mk}), load.Chain{}))
}

func TestRunSearchLoad_RecordsEveryKind(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mem := memstore.New(memstore.Options{PoolSize: 2})
	agg := results.NewAggregator()
	o := newOracle(mem, agg)

	rep, err := o.RunSearchLoad(ctx, domain.StrategyTrigger, []int{5, 10})
	require.NoError(t, err)
	require.Len(t, rep.Timings, 4)
	assert.Equal(t, KindGeneral, rep.Timings[0].Kind)
	assert.Equal(t, 10, rep.Timings[3].Probes)

	search := agg.Search()[domain.StrategyTrigger]
	for _, kind := range []string{KindGeneral, KindSpecific, "5", "10"} {
		_, ok := search[kind]
		assert.True(t, ok, "missing %s", kind)
	}
	// Nothing is seeded, so nothing can be found.
	assert.False(t, search[KindGeneral].FoundResult)
	assert.Zero(t, search["10"].Matched)
}

func TestProperty_ProbesIgnoreCaseAndOrder(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New(memstore.Options{})
	fx := fixtures.NewSeeded(30, 31)
	o := newOracle(mem, nil)

	mk := fx.CatalogMake()
	mo := fx.CatalogModel(mk.ID)
	tr := fx.CatalogTrim(mo.ID)
	for _, st := range domain.Strategies {
		for _, rec := range []domain.Record{mk, mo, tr} {
			if _, err := mem.Insert(ctx, st, rec); err != nil {
				t.Fatalf("Insert: %v", err)
			}
		}
	}
	tokens := domain.DocumentTokens(mk, mo, &tr)
	scope := Scope{ModelIDs: []domain.ModelID{mo.ID}}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("shuffled, re-cased subsets match like the canonical probe", prop.ForAll(
		func(perm []int, upper []bool) bool {
			var picked []string
			for i, p := range perm {
				tok := tokens[p%len(tokens)]
				if upper[i%len(upper)] {
					tok = strings.ToUpper(tok)
				}
				picked = append(picked, tok)
			}
			canonical := strings.ToLower(strings.Join(picked, " "))
			for _, st := range domain.Strategies {
				a, errA := o.ProbeScoped(ctx, st, canonical, scope)
				b, errB := o.ProbeScoped(ctx, st, reverse(picked), scope)
				if errA != nil || errB != nil || a.MatchCount != b.MatchCount || a.MatchCount == 0 {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(4, gen.IntRange(0, 100)),
		gen.SliceOfN(4, gen.Bool()),
	))

	properties.TestingRun(t)
}

func reverse(in []string) string {
	out := make([]string, len(in))
	for i, s := range in {
		out[len(in)-1-i] = s
	}
	return strings.Join(out, " ")
}
