package contracttest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/Overland-East-Bay/vehicle-search-bench/internal/domain"
	resultstoreport "github.com/Overland-East-Bay/vehicle-search-bench/internal/ports/out/resultstore"
	storeport "github.com/Overland-East-Bay/vehicle-search-bench/internal/ports/out/store"
)

type CleanupFunc = func()

type StoreFactory func(t *testing.T) (storeport.Store, CleanupFunc)
type ResultStoreFactory func(t *testing.T) (resultstoreport.Store, CleanupFunc)

// uniqueToken returns a single search token no other test row carries.
func uniqueToken() string {
	return "u" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

type chain struct {
	mk domain.Make
	mo domain.Model
	tr domain.Trim
}

func newChain(tag string) chain {
	mk := domain.Make{ID: domain.MakeID(uuid.NewString()), Name: "Toyota " + tag}
	mo := domain.Model{ID: domain.ModelID(uuid.NewString()), MakeID: mk.ID, Name: "Elantra", Year: 2016, Type: domain.ModelTypeNew}
	tr := domain.Trim{
		ID:          domain.TrimID(uuid.NewString()),
		ModelID:     mo.ID,
		Name:        "Extended Test",
		PackageName: "AWD Technology Package",
		ModelCode:   "T5R22",
		APXCode:     "B",
		PackageCode: "10",
	}
	return chain{mk: mk, mo: mo, tr: tr}
}

func mustWrite(t *testing.T, op string, n int64, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", op, err)
	}
	if n != 1 {
		t.Fatalf("%s: rows=%d, want 1", op, n)
	}
}

func insertChain(t *testing.T, ctx context.Context, s storeport.Store, st domain.Strategy, c chain) {
	t.Helper()
	for _, rec := range []domain.Record{c.mk, c.mo, c.tr} {
		n, err := s.Insert(ctx, st, rec)
		mustWrite(t, "Insert "+string(rec.Kind()), n, err)
	}
}

func matchCount(t *testing.T, ctx context.Context, s storeport.Store, st domain.Strategy, terms string, models ...domain.ModelID) int {
	t.Helper()
	res, err := s.Search(ctx, st, storeport.SearchQuery{Terms: terms, ModelIDs: models, Limit: 10})
	if err != nil {
		t.Fatalf("Search(%q): %v", terms, err)
	}
	return res.MatchCount
}

// RunStore exercises every store behavior the benchmark relies on, once per strategy.
func RunStore(t *testing.T, newStore StoreFactory) {
	t.Helper()

	for _, st := range domain.Strategies {
		t.Run(string(st), func(t *testing.T) {
			s, cleanup := newStore(t)
			if cleanup != nil {
				t.Cleanup(cleanup)
			}
			runStoreStrategy(t, s, st)
		})
	}
}

func runStoreStrategy(t *testing.T, s storeport.Store, st domain.Strategy) {
	t.Helper()
	ctx := context.Background()

	tag := uniqueToken()
	c := newChain(tag)
	insertChain(t, ctx, s, st, c)

	// Model document plus trim document.
	if n := matchCount(t, ctx, s, st, tag+" 2016 elantra", c.mo.ID); n != 2 {
		t.Fatalf("chain probe: matches=%d, want 2", n)
	}
	if n := matchCount(t, ctx, s, st, "ELANTRA "+strings.ToUpper(tag)+" 2016", c.mo.ID); n != 2 {
		t.Fatalf("shuffled probe: matches=%d, want 2", n)
	}
	if n := matchCount(t, ctx, s, st, tag+" extended awd t5r22", c.mo.ID); n != 1 {
		t.Fatalf("trim probe: matches=%d, want 1", n)
	}
	if n := matchCount(t, ctx, s, st, uniqueToken()); n != 0 {
		t.Fatalf("unknown token probe: matches=%d, want 0", n)
	}

	// Trim scope excludes the model-level document.
	res, err := s.Search(ctx, st, storeport.SearchQuery{Terms: tag, TrimIDs: []domain.TrimID{c.tr.ID}})
	if err != nil {
		t.Fatalf("Search trim scope: %v", err)
	}
	if res.MatchCount != 1 || len(res.Hits) != 1 || res.Hits[0].TrimID != c.tr.ID || res.Hits[0].ModelID != c.mo.ID {
		t.Fatalf("unexpected trim-scoped result: %#v", res)
	}

	// Limit bounds the sample, not the count.
	res, err = s.Search(ctx, st, storeport.SearchQuery{Terms: tag, ModelIDs: []domain.ModelID{c.mo.ID}, Limit: 1})
	if err != nil {
		t.Fatalf("Search limit: %v", err)
	}
	if res.MatchCount != 2 || len(res.Hits) != 1 {
		t.Fatalf("unexpected limited result: %#v", res)
	}
	if res.Hits[0].TrimID != "" {
		t.Fatalf("expected model-level document first, got %#v", res.Hits[0])
	}

	// Empty probes are rejected.
	if _, err := s.Search(ctx, st, storeport.SearchQuery{Terms: " - "}); !errors.Is(err, storeport.ErrEmptyQuery) || !storeport.IsStoreError(err) {
		t.Fatalf("expected ErrEmptyQuery store error, got %v", err)
	}

	// Foreign keys.
	orphan := domain.Trim{ID: domain.TrimID(uuid.NewString()), ModelID: domain.ModelID(uuid.NewString()), Name: "Orphan"}
	if _, err := s.Insert(ctx, st, orphan); !errors.Is(err, storeport.ErrForeignKey) {
		t.Fatalf("expected ErrForeignKey, got %v", err)
	}
	var se *storeport.Error
	if _, err := s.Insert(ctx, st, c.mk); !errors.As(err, &se) || !errors.Is(err, storeport.ErrDuplicate) {
		t.Fatalf("expected duplicate store error, got %v", err)
	}
	if se.Strategy != st || se.Entity != domain.EntityMake {
		t.Fatalf("unexpected store error fields: %+v", se)
	}

	// Make rename propagates to every document below it.
	renamedTag := uniqueToken()
	mk2 := c.mk
	mk2.Name = "Scion " + renamedTag
	n, err := s.Update(ctx, st, mk2)
	mustWrite(t, "Update make", n, err)
	if n := matchCount(t, ctx, s, st, tag+" 2016 elantra", c.mo.ID); n != 0 {
		t.Fatalf("stale make probe: matches=%d, want 0", n)
	}
	if n := matchCount(t, ctx, s, st, renamedTag+" 2016 elantra", c.mo.ID); n != 2 {
		t.Fatalf("renamed make probe: matches=%d, want 2", n)
	}

	// Model rename.
	mo2 := c.mo
	mo2.Name = "QB"
	n, err = s.Update(ctx, st, mo2)
	mustWrite(t, "Update model", n, err)
	if n := matchCount(t, ctx, s, st, "elantra", c.mo.ID); n != 0 {
		t.Fatalf("stale model probe: matches=%d, want 0", n)
	}
	if n := matchCount(t, ctx, s, st, renamedTag+" qb 2016 new", c.mo.ID); n != 2 {
		t.Fatalf("renamed model probe: matches=%d, want 2", n)
	}

	// Trim rename.
	tr2 := c.tr
	tr2.Name = "Race Base"
	n, err = s.Update(ctx, st, tr2)
	mustWrite(t, "Update trim", n, err)
	if n := matchCount(t, ctx, s, st, "extended", c.mo.ID); n != 0 {
		t.Fatalf("stale trim probe: matches=%d, want 0", n)
	}
	if n := matchCount(t, ctx, s, st, "race base qb", c.mo.ID); n != 1 {
		t.Fatalf("renamed trim probe: matches=%d, want 1", n)
	}

	// Keyed writes against missing rows affect nothing.
	ghost := domain.Make{ID: domain.MakeID(uuid.NewString()), Name: "Ghost"}
	if n, err := s.Update(ctx, st, ghost); err != nil || n != 0 {
		t.Fatalf("Update missing: rows=%d err=%v", n, err)
	}
	if n, err := s.Delete(ctx, st, domain.EntityTrim, uuid.NewString()); err != nil || n != 0 {
		t.Fatalf("Delete missing: rows=%d err=%v", n, err)
	}

	// Trim delete leaves the model document.
	n, err = s.Delete(ctx, st, domain.EntityTrim, string(c.tr.ID))
	mustWrite(t, "Delete trim", n, err)
	if n := matchCount(t, ctx, s, st, renamedTag+" qb", c.mo.ID); n != 1 {
		t.Fatalf("after trim delete: matches=%d, want 1", n)
	}

	// Make delete cascades through its models.
	sibling := domain.Model{ID: domain.ModelID(uuid.NewString()), MakeID: c.mk.ID, Name: "FRS", Year: 2014, Type: domain.ModelTypeCertified}
	n, err = s.Insert(ctx, st, sibling)
	mustWrite(t, "Insert sibling", n, err)
	if n := matchCount(t, ctx, s, st, renamedTag+" 2014 frs certified", sibling.ID); n != 1 {
		t.Fatalf("sibling probe: matches=%d, want 1", n)
	}
	n, err = s.Delete(ctx, st, domain.EntityMake, string(c.mk.ID))
	mustWrite(t, "Delete make", n, err)
	if n := matchCount(t, ctx, s, st, renamedTag, c.mo.ID, sibling.ID); n != 0 {
		t.Fatalf("after make delete: matches=%d, want 0", n)
	}
	if n, err := s.Delete(ctx, st, domain.EntityModel, string(sibling.ID)); err != nil || n != 0 {
		t.Fatalf("Delete cascaded model: rows=%d err=%v", n, err)
	}

	// Unknown strategies never reach a table.
	if _, err := s.Insert(ctx, domain.Strategy("materialized"), c.mk); !errors.Is(err, storeport.ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
}

// RunResultStore exercises persistence of both result documents.
func RunResultStore(t *testing.T, newStore ResultStoreFactory) {
	t.Helper()
	ctx := context.Background()

	rs, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	if _, ok, err := rs.LoadOperations(ctx); err != nil || ok {
		t.Fatalf("LoadOperations before save: ok=%v err=%v", ok, err)
	}
	if _, ok, err := rs.LoadSearch(ctx); err != nil || ok {
		t.Fatalf("LoadSearch before save: ok=%v err=%v", ok, err)
	}

	ops := resultstoreport.OperationResults{
		domain.StrategyTrigger: {
			domain.EntityMake: {
				domain.OperationInsert: {1: 1.5, 100: 42},
			},
		},
	}
	if err := rs.SaveOperations(ctx, ops); err != nil {
		t.Fatalf("SaveOperations: %v", err)
	}
	got, ok, err := rs.LoadOperations(ctx)
	if err != nil || !ok {
		t.Fatalf("LoadOperations: ok=%v err=%v", ok, err)
	}
	if got[domain.StrategyTrigger][domain.EntityMake][domain.OperationInsert][100] != 42 {
		t.Fatalf("unexpected operations: %#v", got)
	}

	search := resultstoreport.SearchResults{
		domain.StrategyView: {
			"general": {TimeMs: 3.25, FoundResult: true},
			"100":     {TimeMs: 120, FoundResult: true, Probes: 100, Matched: 100},
		},
	}
	if err := rs.SaveSearch(ctx, search); err != nil {
		t.Fatalf("SaveSearch: %v", err)
	}
	gotSearch, ok, err := rs.LoadSearch(ctx)
	if err != nil || !ok {
		t.Fatalf("LoadSearch: ok=%v err=%v", ok, err)
	}
	if p := gotSearch[domain.StrategyView]["100"]; p.Probes != 100 || p.TimeMs != 120 || !p.FoundResult {
		t.Fatalf("unexpected search results: %#v", gotSearch)
	}

	// Replace semantics.
	ops2 := resultstoreport.OperationResults{domain.StrategyView: {}}
	if err := rs.SaveOperations(ctx, ops2); err != nil {
		t.Fatalf("SaveOperations replace: %v", err)
	}
	got, _, err = rs.LoadOperations(ctx)
	if err != nil {
		t.Fatalf("LoadOperations after replace: %v", err)
	}
	if _, ok := got[domain.StrategyTrigger]; ok {
		t.Fatalf("expected replaced document, got %#v", got)
	}
}
