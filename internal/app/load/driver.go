// Package load drives timed create/update/delete batches against a store.
package load

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/juju/loggo/v2"

	"github.com/Overland-East-Bay/vehicle-search-bench/internal/domain"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/fixtures"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/platform/fanout"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/ports/out/clock"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/ports/out/store"
)

var logger = loggo.GetLogger("vsbench.app.load")

// Standard batch sizes.
var (
	DefaultInsertSizes = []int{1, 100, 10000}
	DefaultDeleteSizes = []int{100, 10000}
)

// ErrInvalidBatch is returned for a BatchSpec the driver cannot run.
var ErrInvalidBatch = errors.New("invalid batch")

// BatchSpec describes one batch.
type BatchSpec struct {
	Strategy  domain.Strategy
	Entity    domain.EntityKind
	Operation domain.Operation
	Size      int
	// Ledger is required for update and delete and must hold exactly Size records.
	Ledger Ledger
	// Parent is the foreign key new models and trims are attached to.
	Parent string
}

// BatchResult is a completed batch.
type BatchResult struct {
	Strategy  domain.Strategy
	Entity    domain.EntityKind
	Operation domain.Operation
	Size      int
	Duration  time.Duration
	// Ledger holds the inserted or updated records; empty after a delete.
	Ledger Ledger
	// Before holds the records as they were before an update or delete.
	Before   Ledger
	Affected int64
}

// Driver issues batches. Fixtures are prepared before the timer starts, so
// only store round trips are measured.
type Driver struct {
	store store.Store
	gen   *fixtures.Generator
	clock clock.Clock
}

func NewDriver(s store.Store, gen *fixtures.Generator, clk clock.Clock) *Driver {
	return &Driver{store: s, gen: gen, clock: clk}
}

func (d *Driver) validate(spec BatchSpec) error {
	if !spec.Strategy.Valid() {
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidBatch, spec.Strategy)
	}
	if !spec.Entity.Valid() {
		return fmt.Errorf("%w: unknown entity %q", ErrInvalidBatch, spec.Entity)
	}
	if spec.Size < 1 {
		return fmt.Errorf("%w: size must be at least 1", ErrInvalidBatch)
	}
	switch spec.Operation {
	case domain.OperationInsert:
		if spec.Entity != domain.EntityMake && spec.Parent == "" {
			return fmt.Errorf("%w: %s insert needs a parent", ErrInvalidBatch, spec.Entity)
		}
	case domain.OperationUpdate, domain.OperationDelete:
		if spec.Ledger.Len() != spec.Size {
			return fmt.Errorf("%w: %s of %d needs a ledger of %d records, got %d", ErrInvalidBatch, spec.Operation, spec.Size, spec.Size, spec.Ledger.Len())
		}
		if spec.Ledger.Entity != spec.Entity {
			return fmt.Errorf("%w: ledger holds %s records, batch targets %s", ErrInvalidBatch, spec.Ledger.Entity, spec.Entity)
		}
	default:
		return fmt.Errorf("%w: unknown operation %q", ErrInvalidBatch, spec.Operation)
	}
	return nil
}

// RunBatch runs spec to completion. Every operation is launched, in index
// order, before the driver waits; a failure of any of them fails the whole
// batch and no timing is returned.
func (d *Driver) RunBatch(ctx context.Context, spec BatchSpec) (BatchResult, error) {
	if err := d.validate(spec); err != nil {
		return BatchResult{}, err
	}

	var recs []domain.Record
	switch spec.Operation {
	case domain.OperationInsert:
		recs = make([]domain.Record, spec.Size)
		for i := range recs {
			recs[i] = d.gen.Make(spec.Entity, spec.Parent)
		}
	case domain.OperationUpdate:
		recs = make([]domain.Record, spec.Size)
		for i, r := range spec.Ledger.Records {
			recs[i] = d.gen.Rename(r)
		}
	case domain.OperationDelete:
		recs = spec.Ledger.Records
	}

	var affected atomic.Int64
	op := func(ctx context.Context, i int) error {
		rec := recs[i]
		var (
			n   int64
			err error
		)
		switch spec.Operation {
		case domain.OperationInsert:
			n, err = d.store.Insert(ctx, spec.Strategy, rec)
		case domain.OperationUpdate:
			n, err = d.store.Update(ctx, spec.Strategy, rec)
		case domain.OperationDelete:
			n, err = d.store.Delete(ctx, spec.Strategy, spec.Entity, rec.RecordID())
		}
		if err != nil {
			return err
		}
		if n != 1 {
			return &store.Error{Op: string(spec.Operation), Strategy: spec.Strategy, Entity: spec.Entity, ID: rec.RecordID(), Err: fmt.Errorf("%w: %d rows", store.ErrNoRows, n)}
		}
		affected.Add(n)
		return nil
	}

	start := d.clock.Now()
	out := fanout.Run(ctx, spec.Size, op)
	elapsed := d.clock.Now().Sub(start)

	if err := out.Err(); err != nil {
		logger.Errorf("%s %s %s x%d failed: %v", spec.Strategy, spec.Entity, spec.Operation, spec.Size, err)
		return BatchResult{}, fmt.Errorf("%s %s %s x%d: %w", spec.Strategy, spec.Entity, spec.Operation, spec.Size, err)
	}
	logger.Infof("%s %s %s x%d in %s", spec.Strategy, spec.Entity, spec.Operation, spec.Size, elapsed)

	res := BatchResult{
		Strategy:  spec.Strategy,
		Entity:    spec.Entity,
		Operation: spec.Operation,
		Size:      spec.Size,
		Duration:  elapsed,
		Affected:  affected.Load(),
	}
	switch spec.Operation {
	case domain.OperationInsert:
		res.Ledger = NewLedger(spec.Entity, recs)
	case domain.OperationUpdate:
		res.Ledger = NewLedger(spec.Entity, recs)
		res.Before = NewLedger(spec.Entity, spec.Ledger.Records)
	case domain.OperationDelete:
		res.Ledger = Ledger{Entity: spec.Entity}
		res.Before = NewLedger(spec.Entity, spec.Ledger.Records)
	}
	return res, nil
}
