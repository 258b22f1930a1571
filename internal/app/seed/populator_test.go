package seed

import (
	"context"
	"errors"
	"testing"

	memstore "github.com/Overland-East-Bay/vehicle-search-bench/internal/adapters/memory/store"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/domain"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/fixtures"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/ports/out/store"
)

func TestPlanFor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		level int
		want  Counts
	}{
		{0, Counts{Makes: 1, Models: 30, Trims: 110}},
		{1, Counts{Makes: 4, Models: 175, Trims: 1200}},
		{2, Counts{Makes: 9, Models: 1000, Trims: 13000}},
	}
	for _, tc := range cases {
		got, err := PlanFor(tc.level)
		if err != nil {
			t.Fatalf("PlanFor(%d): %v", tc.level, err)
		}
		if got != tc.want {
			t.Fatalf("PlanFor(%d) = %+v, want %+v", tc.level, got, tc.want)
		}
	}

	for _, level := range []int{-1, 3} {
		if _, err := PlanFor(level); !errors.Is(err, ErrInvalidLevel) {
			t.Fatalf("PlanFor(%d) err = %v, want ErrInvalidLevel", level, err)
		}
	}
}

func TestBuild_ParentsAreSpread(t *testing.T) {
	t.Parallel()

	p := NewPopulator(memstore.New(memstore.Options{}), fixtures.NewSeeded(1, 2), Options{})
	plan, err := p.Build(1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	perMake := map[domain.MakeID]int{}
	for _, mo := range plan.Models {
		perMake[mo.MakeID]++
	}
	if len(perMake) != len(plan.Makes) {
		t.Fatalf("models cover %d makes, want %d", len(perMake), len(plan.Makes))
	}
	perModel := map[domain.ModelID]int{}
	for _, tr := range plan.Trims {
		perModel[tr.ModelID]++
	}
	if len(perModel) != len(plan.Models) {
		t.Fatalf("trims cover %d models, want %d", len(perModel), len(plan.Models))
	}
}

func TestPopulate_WritesEveryStrategy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mem := memstore.New(memstore.Options{PoolSize: 4})
	p := NewPopulator(mem, fixtures.NewSeeded(3, 4), Options{ChunkSize: 16})
	got, err := p.Populate(ctx, 0)
	if err != nil {
		t.Fatalf("Populate: %v", err)
	}
	want, _ := PlanFor(0)
	if got != want {
		t.Fatalf("Populate = %+v, want %+v", got, want)
	}

	for _, s := range domain.Strategies {
		if n := mem.Rows(s, domain.EntityMake); n != want.Makes {
			t.Fatalf("%s makes = %d, want %d", s, n, want.Makes)
		}
		if n := mem.Rows(s, domain.EntityModel); n != want.Models {
			t.Fatalf("%s models = %d, want %d", s, n, want.Models)
		}
		if n := mem.Rows(s, domain.EntityTrim); n != want.Trims {
			t.Fatalf("%s trims = %d, want %d", s, n, want.Trims)
		}
	}
}

func TestPopulate_SameRowsInBothStrategies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mem := memstore.New(memstore.Options{})
	p := NewPopulator(mem, fixtures.NewSeeded(5, 6), Options{})
	plan, err := p.Build(0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, s := range domain.Strategies {
		if err := p.Write(ctx, s, plan); err != nil {
			t.Fatalf("Write(%s): %v", s, err)
		}
	}

	mo := plan.Models[0]
	terms := plan.Makes[0].SearchText() + " " + mo.SearchText()
	var counts []int
	for _, s := range domain.Strategies {
		res, err := mem.Search(ctx, s, store.SearchQuery{Terms: terms, ModelIDs: []domain.ModelID{mo.ID}})
		if err != nil {
			t.Fatalf("Search(%s): %v", s, err)
		}
		if res.MatchCount == 0 {
			t.Fatalf("%s: seeded model %s not found", s, mo.ID)
		}
		counts = append(counts, res.MatchCount)
	}
	if counts[0] != counts[1] {
		t.Fatalf("strategies disagree: %v", counts)
	}
}

func TestPopulate_Rejections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mem := memstore.New(memstore.Options{})
	p := NewPopulator(mem, fixtures.New(), Options{})
	if _, err := p.Populate(ctx, MaxLevel+1); !errors.Is(err, ErrInvalidLevel) {
		t.Fatalf("err = %v, want ErrInvalidLevel", err)
	}
	if n := mem.Rows(domain.StrategyView, domain.EntityMake); n != 0 {
		t.Fatalf("rejected level wrote %d makes", n)
	}

	// Writing the same plan twice collides on ids.
	plan, _ := p.Build(0)
	if err := p.Write(ctx, domain.StrategyTrigger, plan); err != nil {
		t.Fatalf("Write: %v", err)
	}
	err := p.Write(ctx, domain.StrategyTrigger, plan)
	if !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("second Write err = %v, want ErrDuplicate", err)
	}
}
