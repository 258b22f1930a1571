package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Overland-East-Bay/vehicle-search-bench/internal/domain"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/ports/out/store"
)

// ScenarioReport summarizes a scenario run. On failure Checks counts the
// checks issued up to and including the failing one.
type ScenarioReport struct {
	Strategy domain.Strategy
	Checks   int
	Passed   int
	Duration time.Duration
}

// scenario holds the rows of one RunScenario call. Probes are scoped to its
// two model ids so rows written by other phases cannot affect the outcome.
type scenario struct {
	o        *Oracle
	strategy domain.Strategy

	mk        domain.Make
	newModel  domain.Model
	certModel domain.Model
	trim      domain.Trim

	makeDeleted bool
	checks      int
	passed      int
}

func (sc *scenario) count(err error) error {
	sc.checks++
	if err == nil {
		sc.passed++
	}
	return err
}

func (sc *scenario) scope() Scope {
	return Scope{ModelIDs: []domain.ModelID{sc.newModel.ID, sc.certModel.ID}}
}

func (sc *scenario) expect(ctx context.Context, step, terms string, shouldMatch bool) error {
	return sc.count(sc.o.AssertReflectsScoped(ctx, sc.strategy, step, terms, sc.scope(), shouldMatch))
}

func (sc *scenario) write(ctx context.Context, op domain.Operation, rec domain.Record) error {
	var (
		n   int64
		err error
	)
	switch op {
	case domain.OperationInsert:
		n, err = sc.o.store.Insert(ctx, sc.strategy, rec)
	case domain.OperationUpdate:
		n, err = sc.o.store.Update(ctx, sc.strategy, rec)
	case domain.OperationDelete:
		n, err = sc.o.store.Delete(ctx, sc.strategy, rec.Kind(), rec.RecordID())
	}
	if err != nil {
		return err
	}
	if n != 1 {
		return &store.Error{Op: string(op), Strategy: sc.strategy, Entity: rec.Kind(), ID: rec.RecordID(), Err: fmt.Errorf("%w: %d rows", store.ErrNoRows, n)}
	}
	return nil
}

// RunScenario walks one make through insert, rename and delete, asserting
// after every write that probes for current values match and probes for
// replaced or deleted values do not. It stops at the first failure.
func (o *Oracle) RunScenario(ctx context.Context, s domain.Strategy) (ScenarioReport, error) {
	sc := &scenario{o: o, strategy: s}
	sc.mk = domain.Make{ID: domain.MakeID(uuid.NewString()), Name: "Toyota Test"}
	sc.newModel = domain.Model{
		ID:     domain.ModelID(uuid.NewString()),
		MakeID: sc.mk.ID,
		Name:   "Elantra",
		Year:   2016,
		Type:   domain.ModelTypeNew,
	}
	sc.certModel = domain.Model{
		ID:     domain.ModelID(uuid.NewString()),
		MakeID: sc.mk.ID,
		Name:   "RAV4 Test",
		Year:   2014,
		Type:   domain.ModelTypeCertified,
	}
	sc.trim = domain.Trim{
		ID:          domain.TrimID(uuid.NewString()),
		ModelID:     sc.newModel.ID,
		Name:        "Extended Test",
		PackageName: "AWD Technology Package",
		ModelCode:   "T5R22",
		APXCode:     "10",
		PackageCode: "B",
	}

	start := o.clock.Now()
	err := sc.run(ctx)
	rep := ScenarioReport{Strategy: s, Checks: sc.checks, Passed: sc.passed, Duration: o.clock.Now().Sub(start)}
	if err != nil && !sc.makeDeleted {
		// Cascades remove everything the scenario wrote.
		if _, cerr := o.store.Delete(ctx, s, domain.EntityMake, string(sc.mk.ID)); cerr != nil {
			logger.Warningf("[%s] scenario cleanup: %v", s, cerr)
		}
	}
	if err != nil {
		return rep, fmt.Errorf("scenario %s: %w", s, err)
	}
	logger.Infof("[%s] scenario passed %d checks in %s", s, rep.Checks, rep.Duration)
	return rep, nil
}

func (sc *scenario) run(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(ctx context.Context) error
	}{
		{"insert chain", sc.insertChain},
		{"case and order", sc.caseAndOrder},
		{"make rename", sc.renameMake},
		{"model rename", sc.renameModels},
		{"trim delete", sc.deleteTrim},
		{"cascade delete", sc.deleteAll},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
		logger.Debugf("[%s] scenario step %q ok", sc.strategy, step.name)
	}
	return nil
}

func (sc *scenario) insertChain(ctx context.Context) error {
	for _, rec := range []domain.Record{sc.mk, sc.newModel, sc.trim} {
		if err := sc.write(ctx, domain.OperationInsert, rec); err != nil {
			return err
		}
	}
	full := strings.Join([]string{sc.mk.SearchText(), sc.newModel.SearchText(), sc.trim.SearchText()}, " ")
	if err := sc.expect(ctx, "full chain", full, true); err != nil {
		return err
	}
	if err := sc.expect(ctx, "never inserted", "rav4 TOYOTA", false); err != nil {
		return err
	}
	random := "z" + strings.ReplaceAll(uuid.NewString(), "-", "")
	return sc.count(sc.o.AssertReflectsScoped(ctx, sc.strategy, "random token", random, Scope{}, false))
}

func (sc *scenario) caseAndOrder(ctx context.Context) error {
	canonical, err := sc.o.ProbeScoped(ctx, sc.strategy, "toyota 2016 elantra", sc.scope())
	if err != nil {
		return err
	}
	shuffled, err := sc.o.ProbeScoped(ctx, sc.strategy, "ELANTRA toyota 2016", sc.scope())
	if err != nil {
		return err
	}
	sc.checks += 2
	if canonical.MatchCount == 0 || shuffled.MatchCount != canonical.MatchCount {
		sc.passed++
		return &Violation{
			Strategy:   sc.strategy,
			Check:      fmt.Sprintf("shuffled probe must match as often as the canonical one (%d)", canonical.MatchCount),
			Terms:      "ELANTRA toyota 2016",
			Scope:      sc.scope(),
			WantMatch:  true,
			MatchCount: shuffled.MatchCount,
		}
	}
	sc.passed += 2
	return nil
}

func (sc *scenario) renameMake(ctx context.Context) error {
	if err := sc.write(ctx, domain.OperationInsert, sc.certModel); err != nil {
		return err
	}
	if err := sc.expect(ctx, "certified model", "rav4 TOYOTA", true); err != nil {
		return err
	}

	sc.mk.Name = "Scion"
	if err := sc.write(ctx, domain.OperationUpdate, sc.mk); err != nil {
		return err
	}
	if err := sc.expect(ctx, "old make name", "toyota 2016 elantra", false); err != nil {
		return err
	}
	if err := sc.expect(ctx, "new make name", "scion 2016 elantra", true); err != nil {
		return err
	}
	return sc.expect(ctx, "trim after make rename", "scion 2016 elantra extended test b", true)
}

func (sc *scenario) renameModels(ctx context.Context) error {
	sc.certModel.Name = "FRS"
	if err := sc.write(ctx, domain.OperationUpdate, sc.certModel); err != nil {
		return err
	}
	if err := sc.expect(ctx, "old certified name", "2014 scion rav4", false); err != nil {
		return err
	}
	if err := sc.expect(ctx, "new certified name", "2014 scion frs", true); err != nil {
		return err
	}

	sc.newModel.Name = "QB"
	if err := sc.write(ctx, domain.OperationUpdate, sc.newModel); err != nil {
		return err
	}
	if err := sc.expect(ctx, "old model name", "scion 2016 elantra", false); err != nil {
		return err
	}
	if err := sc.expect(ctx, "new model name", "scion 2016 qb", true); err != nil {
		return err
	}
	if err := sc.expect(ctx, "trim after model rename", "scion 2016 qb extended test b", true); err != nil {
		return err
	}
	if err := sc.expect(ctx, "sibling untouched", "2014 scion frs", true); err != nil {
		return err
	}
	return sc.expect(ctx, "sibling year", "2016 scion frs", false)
}

func (sc *scenario) deleteTrim(ctx context.Context) error {
	if err := sc.expect(ctx, "trim before delete", "scion qb extended test", true); err != nil {
		return err
	}
	if err := sc.write(ctx, domain.OperationDelete, sc.trim); err != nil {
		return err
	}
	if err := sc.expect(ctx, "deleted trim", "scion qb extended test", false); err != nil {
		return err
	}
	return sc.expect(ctx, "model survives trim delete", "scion 2016 qb", true)
}

func (sc *scenario) deleteAll(ctx context.Context) error {
	if err := sc.write(ctx, domain.OperationDelete, sc.certModel); err != nil {
		return err
	}
	if err := sc.expect(ctx, "deleted certified model", "2014 scion frs", false); err != nil {
		return err
	}
	if err := sc.write(ctx, domain.OperationDelete, sc.newModel); err != nil {
		return err
	}
	if err := sc.expect(ctx, "deleted model", "scion 2016 qb", false); err != nil {
		return err
	}
	if err := sc.write(ctx, domain.OperationDelete, sc.mk); err != nil {
		return err
	}
	sc.makeDeleted = true
	return sc.expect(ctx, "deleted make", "scion", false)
}
