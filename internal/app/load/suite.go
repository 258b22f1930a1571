package load

import (
	"context"
	"fmt"

	"github.com/Overland-East-Bay/vehicle-search-bench/internal/app/results"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/domain"
)

// Verifier checks the search representation after a batch.
type Verifier interface {
	VerifyInserted(ctx context.Context, s domain.Strategy, ledger Ledger, chain Chain) error
	VerifyUpdated(ctx context.Context, s domain.Strategy, before, after Ledger, chain Chain) error
	VerifyDeleted(ctx context.Context, s domain.Strategy, ledger Ledger, chain Chain) error
}

// Recorder receives every successful batch.
type Recorder interface {
	RecordBatch(results.BatchTiming)
}

// SuiteOptions configures one strategy's operation suite.
type SuiteOptions struct {
	InsertSizes []int
	DeleteSizes []int
	// Verifier is optional; nil skips verification.
	Verifier Verifier
	Recorder Recorder
}

// Suite runs the operation sequence for one strategy: for make, then model,
// then trim, an insert batch per size, an update batch per size and a delete
// batch per delete size. The first record of the first insert batch of each
// kind becomes that kind's current record; it is the parent of every batch
// one level down and is kept current through updates.
type Suite struct {
	driver   *Driver
	strategy domain.Strategy
	opts     SuiteOptions

	chain       Chain
	currentSize map[domain.EntityKind]int
	ledgers     map[domain.EntityKind]map[int]Ledger
}

func NewSuite(driver *Driver, s domain.Strategy, opts SuiteOptions) *Suite {
	if len(opts.InsertSizes) == 0 {
		opts.InsertSizes = DefaultInsertSizes
	}
	if opts.DeleteSizes == nil {
		opts.DeleteSizes = DefaultDeleteSizes
	}
	return &Suite{
		driver:      driver,
		strategy:    s,
		opts:        opts,
		currentSize: make(map[domain.EntityKind]int),
		ledgers:     make(map[domain.EntityKind]map[int]Ledger),
	}
}

// Chain returns the strategy's current records.
func (s *Suite) Chain() Chain { return s.chain }

// Ledger returns the latest ledger for kind and size.
func (s *Suite) Ledger(kind domain.EntityKind, size int) (Ledger, bool) {
	l, ok := s.ledgers[kind][size]
	return l, ok
}

// Run executes every entity in parent-to-child order and stops at the first
// failure. With a verifier set, the current make is renamed once its models
// exist so make renames are checked against real documents.
func (s *Suite) Run(ctx context.Context) error {
	for _, kind := range domain.EntityKinds {
		if err := s.RunEntity(ctx, kind); err != nil {
			return err
		}
		if kind == domain.EntityModel {
			if err := s.renameCurrentMake(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// renameCurrentMake runs an untimed single-record update of the current make
// and verifies it. The batch is not recorded.
func (s *Suite) renameCurrentMake(ctx context.Context) error {
	v := s.opts.Verifier
	if v == nil || s.chain.Make == nil || s.chain.Model == nil {
		return nil
	}
	res, err := s.driver.RunBatch(ctx, BatchSpec{
		Strategy:  s.strategy,
		Entity:    domain.EntityMake,
		Operation: domain.OperationUpdate,
		Size:      1,
		Ledger:    NewLedger(domain.EntityMake, []domain.Record{*s.chain.Make}),
	})
	if err != nil {
		return err
	}
	renamed := res.Ledger.Records[0]
	s.setCurrent(renamed)
	if size, ok := s.currentSize[domain.EntityMake]; ok {
		if l, ok := s.Ledger(domain.EntityMake, size); ok {
			s.keep(domain.EntityMake, size, withRecord(l, renamed))
		}
	}
	if err := v.VerifyUpdated(ctx, s.strategy, res.Before, res.Ledger, s.chain); err != nil {
		return fmt.Errorf("verify %s make rename: %w", s.strategy, err)
	}
	return nil
}

// RunEntity runs the insert, update and delete batches for one kind.
func (s *Suite) RunEntity(ctx context.Context, kind domain.EntityKind) error {
	parent, err := s.parentFor(kind)
	if err != nil {
		return err
	}

	for _, size := range s.opts.InsertSizes {
		res, err := s.driver.RunBatch(ctx, BatchSpec{
			Strategy:  s.strategy,
			Entity:    kind,
			Operation: domain.OperationInsert,
			Size:      size,
			Parent:    parent,
		})
		if err != nil {
			return err
		}
		s.record(res)
		s.keep(kind, size, res.Ledger)
		if _, ok := s.currentSize[kind]; !ok {
			s.currentSize[kind] = size
			s.setCurrent(res.Ledger.Records[0])
		}
		if v := s.opts.Verifier; v != nil {
			if err := v.VerifyInserted(ctx, s.strategy, res.Ledger, s.chain); err != nil {
				return fmt.Errorf("verify %s %s insert x%d: %w", s.strategy, kind, size, err)
			}
		}
	}

	for _, size := range s.opts.InsertSizes {
		ledger, _ := s.Ledger(kind, size)
		res, err := s.driver.RunBatch(ctx, BatchSpec{
			Strategy:  s.strategy,
			Entity:    kind,
			Operation: domain.OperationUpdate,
			Size:      size,
			Ledger:    ledger,
		})
		if err != nil {
			return err
		}
		s.record(res)
		s.keep(kind, size, res.Ledger)
		if s.currentSize[kind] == size {
			if i := res.Ledger.Index(s.currentID(kind)); i >= 0 {
				s.setCurrent(res.Ledger.Records[i])
			}
		}
		if v := s.opts.Verifier; v != nil {
			if err := v.VerifyUpdated(ctx, s.strategy, res.Before, res.Ledger, s.chain); err != nil {
				return fmt.Errorf("verify %s %s update x%d: %w", s.strategy, kind, size, err)
			}
		}
	}

	for _, size := range s.opts.DeleteSizes {
		ledger, ok := s.Ledger(kind, size)
		if !ok {
			return fmt.Errorf("%w: no %s ledger of %d to delete", ErrInvalidBatch, kind, size)
		}
		if s.currentSize[kind] == size {
			ledger = withoutRecord(ledger, s.currentID(kind))
			if ledger.Len() == 0 {
				logger.Warningf("%s %s delete x%d skipped: the batch only holds the current record", s.strategy, kind, size)
				continue
			}
		}
		res, err := s.driver.RunBatch(ctx, BatchSpec{
			Strategy:  s.strategy,
			Entity:    kind,
			Operation: domain.OperationDelete,
			Size:      ledger.Len(),
			Ledger:    ledger,
		})
		if err != nil {
			return err
		}
		res.Size = size
		s.record(res)
		delete(s.ledgers[kind], size)
		if v := s.opts.Verifier; v != nil {
			if err := v.VerifyDeleted(ctx, s.strategy, res.Before, s.chain); err != nil {
				return fmt.Errorf("verify %s %s delete x%d: %w", s.strategy, kind, size, err)
			}
		}
	}
	return nil
}

func (s *Suite) parentFor(kind domain.EntityKind) (string, error) {
	switch kind {
	case domain.EntityModel:
		if s.chain.Make == nil {
			return "", fmt.Errorf("%w: model batches need a current make", ErrInvalidBatch)
		}
		return string(s.chain.Make.ID), nil
	case domain.EntityTrim:
		if s.chain.Model == nil {
			return "", fmt.Errorf("%w: trim batches need a current model", ErrInvalidBatch)
		}
		return string(s.chain.Model.ID), nil
	default:
		return "", nil
	}
}

func (s *Suite) currentID(kind domain.EntityKind) string {
	switch kind {
	case domain.EntityMake:
		if s.chain.Make != nil {
			return string(s.chain.Make.ID)
		}
	case domain.EntityModel:
		if s.chain.Model != nil {
			return string(s.chain.Model.ID)
		}
	case domain.EntityTrim:
		if s.chain.Trim != nil {
			return string(s.chain.Trim.ID)
		}
	}
	return ""
}

func (s *Suite) setCurrent(rec domain.Record) {
	switch r := rec.(type) {
	case domain.Make:
		s.chain.Make = &r
	case domain.Model:
		s.chain.Model = &r
	case domain.Trim:
		s.chain.Trim = &r
	}
}

func (s *Suite) keep(kind domain.EntityKind, size int, l Ledger) {
	byKind, ok := s.ledgers[kind]
	if !ok {
		byKind = make(map[int]Ledger)
		s.ledgers[kind] = byKind
	}
	byKind[size] = l
}

func (s *Suite) record(res BatchResult) {
	if s.opts.Recorder == nil {
		return
	}
	s.opts.Recorder.RecordBatch(results.BatchTiming{
		Strategy:  res.Strategy,
		Entity:    res.Entity,
		Operation: res.Operation,
		Size:      res.Size,
		Elapsed:   res.Duration,
	})
}

// withoutRecord drops the current record so deletes never remove a parent
// the next level still needs.
func withoutRecord(l Ledger, id string) Ledger {
	i := l.Index(id)
	if i < 0 {
		return l
	}
	out := make([]domain.Record, 0, l.Len()-1)
	out = append(out, l.Records[:i]...)
	out = append(out, l.Records[i+1:]...)
	return Ledger{Entity: l.Entity, Records: out}
}

// withRecord replaces the record sharing rec's id.
func withRecord(l Ledger, rec domain.Record) Ledger {
	i := l.Index(rec.RecordID())
	if i < 0 {
		return l
	}
	out := make([]domain.Record, l.Len())
	copy(out, l.Records)
	out[i] = rec
	return Ledger{Entity: l.Entity, Records: out}
}
