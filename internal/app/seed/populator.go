// Package seed fills both strategies with a catalog of makes, models and
// trims so search probes have something to find.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/juju/loggo/v2"

	"github.com/Overland-East-Bay/vehicle-search-bench/internal/domain"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/fixtures"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/platform/fanout"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/ports/out/store"
)

var logger = loggo.GetLogger("vsbench.app.seed")

// MaxLevel is the largest supported seed level.
const MaxLevel = 2

// DefaultChunkSize bounds how many writes are in flight at once.
const DefaultChunkSize = 500

// ErrInvalidLevel is returned for a level outside 0..MaxLevel.
var ErrInvalidLevel = errors.New("invalid seed level")

// Counts is the number of rows a level writes per strategy.
type Counts struct {
	Makes  int
	Models int
	Trims  int
}

func (c Counts) String() string {
	return fmt.Sprintf("%d makes, %d models, %d trims", c.Makes, c.Models, c.Trims)
}

// PlanFor returns the row counts for level. With s = level+1 a level writes
// s² makes, (s+5)·5^s models and (s+10)·10^s trims.
func PlanFor(level int) (Counts, error) {
	if level < 0 || level > MaxLevel {
		return Counts{}, fmt.Errorf("%w: %d (expected 0..%d)", ErrInvalidLevel, level, MaxLevel)
	}
	s := level + 1
	return Counts{
		Makes:  s * s,
		Models: (s + 5) * pow(5, s),
		Trims:  (s + 10) * pow(10, s),
	}, nil
}

func pow(b, e int) int {
	out := 1
	for i := 0; i < e; i++ {
		out *= b
	}
	return out
}

// Options configures a Populator.
type Options struct {
	// Strategies defaults to every strategy.
	Strategies []domain.Strategy
	// ChunkSize defaults to DefaultChunkSize.
	ChunkSize int
}

// Populator writes seed rows through the store port. Nothing is timed or verified.
type Populator struct {
	store store.Store
	gen   *fixtures.Generator
	opts  Options
}

func NewPopulator(s store.Store, gen *fixtures.Generator, opts Options) *Populator {
	if len(opts.Strategies) == 0 {
		opts.Strategies = domain.Strategies
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	return &Populator{store: s, gen: gen, opts: opts}
}

// Plan is the generated rows of one Populate call. Every strategy receives
// the same rows under the same ids.
type Plan struct {
	Makes  []domain.Make
	Models []domain.Model
	Trims  []domain.Trim
}

func (p Plan) Counts() Counts {
	return Counts{Makes: len(p.Makes), Models: len(p.Models), Trims: len(p.Trims)}
}

// Build generates the rows for level. Models are spread round-robin over the
// makes and trims over the models, so every make has at least one model and
// every model at least one trim whenever the counts allow it.
func (p *Populator) Build(level int) (Plan, error) {
	c, err := PlanFor(level)
	if err != nil {
		return Plan{}, err
	}
	plan := Plan{
		Makes:  make([]domain.Make, c.Makes),
		Models: make([]domain.Model, c.Models),
		Trims:  make([]domain.Trim, c.Trims),
	}
	for i := range plan.Makes {
		plan.Makes[i] = p.gen.CatalogMake()
	}
	for i := range plan.Models {
		plan.Models[i] = p.gen.CatalogModel(plan.Makes[i%c.Makes].ID)
	}
	for i := range plan.Trims {
		plan.Trims[i] = p.gen.CatalogTrim(plan.Models[i%c.Models].ID)
	}
	return plan, nil
}

// Populate builds the rows for level and inserts them into every configured
// strategy, parents first.
func (p *Populator) Populate(ctx context.Context, level int) (Counts, error) {
	plan, err := p.Build(level)
	if err != nil {
		return Counts{}, err
	}
	for _, s := range p.opts.Strategies {
		if err := p.Write(ctx, s, plan); err != nil {
			return Counts{}, err
		}
	}
	return plan.Counts(), nil
}

// Write inserts plan into one strategy.
func (p *Populator) Write(ctx context.Context, s domain.Strategy, plan Plan) error {
	groups := []struct {
		kind domain.EntityKind
		recs []domain.Record
	}{
		{domain.EntityMake, records(plan.Makes)},
		{domain.EntityModel, records(plan.Models)},
		{domain.EntityTrim, records(plan.Trims)},
	}
	for _, g := range groups {
		if err := p.insertAll(ctx, s, g.recs); err != nil {
			return fmt.Errorf("seed %s %s: %w", s, g.kind, err)
		}
		logger.Infof("[%s] seeded %d %s rows", s, len(g.recs), g.kind)
	}
	return nil
}

func (p *Populator) insertAll(ctx context.Context, s domain.Strategy, recs []domain.Record) error {
	for start := 0; start < len(recs); start += p.opts.ChunkSize {
		chunk := recs[start:min(start+p.opts.ChunkSize, len(recs))]
		out := fanout.Run(ctx, len(chunk), func(ctx context.Context, i int) error {
			rec := chunk[i]
			n, err := p.store.Insert(ctx, s, rec)
			if err != nil {
				return err
			}
			if n != 1 {
				return &store.Error{Op: string(domain.OperationInsert), Strategy: s, Entity: rec.Kind(), ID: rec.RecordID(), Err: fmt.Errorf("%w: %d rows", store.ErrNoRows, n)}
			}
			return nil
		})
		if err := out.Err(); err != nil {
			return err
		}
		logger.Debugf("[%s] seeded rows %d..%d", s, start, start+len(chunk)-1)
	}
	return nil
}

func records[T domain.Record](in []T) []domain.Record {
	out := make([]domain.Record, len(in))
	for i, r := range in {
		out[i] = r
	}
	return out
}
