package oracle

import (
	"context"
	"strings"

	"github.com/Overland-East-Bay/vehicle-search-bench/internal/app/load"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/domain"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/platform/fanout"
)

var _ load.Verifier = (*Oracle)(nil)

// VerifyInserted checks every new model or trim is findable by its own text.
// Make ledgers are skipped: a make without models projects no document.
func (o *Oracle) VerifyInserted(ctx context.Context, s domain.Strategy, ledger load.Ledger, chain load.Chain) error {
	if ledger.Entity == domain.EntityMake {
		return nil
	}
	return o.eachRecord(ctx, ledger, func(ctx context.Context, i int) error {
		rec := ledger.Records[i]
		return o.AssertReflectsScoped(ctx, s, "inserted "+string(rec.Kind()), rec.SearchText(), scopeOf(rec), true)
	})
}

// VerifyUpdated checks each updated record matches its new text and no
// longer matches tokens only its previous version carried. For make ledgers
// only the chain's make is checked, through the current model's document.
func (o *Oracle) VerifyUpdated(ctx context.Context, s domain.Strategy, before, after load.Ledger, chain load.Chain) error {
	if after.Entity == domain.EntityMake {
		return o.verifyMakeRename(ctx, s, before, after, chain)
	}
	return o.eachRecord(ctx, after, func(ctx context.Context, i int) error {
		rec := after.Records[i]
		scope := scopeOf(rec)
		if err := o.AssertReflectsScoped(ctx, s, "updated "+string(rec.Kind()), rec.SearchText(), scope, true); err != nil {
			return err
		}
		if i >= before.Len() {
			return nil
		}
		stale := staleTokens(before.Records[i], rec, chain)
		if len(stale) == 0 {
			return nil
		}
		return o.AssertReflectsScoped(ctx, s, "stale "+string(rec.Kind()), strings.Join(stale, " "), scope, false)
	})
}

func (o *Oracle) verifyMakeRename(ctx context.Context, s domain.Strategy, before, after load.Ledger, chain load.Chain) error {
	if chain.Make == nil || chain.Model == nil || chain.Model.MakeID != chain.Make.ID {
		return nil
	}
	i := after.Index(string(chain.Make.ID))
	if i < 0 {
		return nil
	}
	mk, ok := after.Records[i].(domain.Make)
	if !ok {
		return nil
	}
	scope := Scope{ModelIDs: []domain.ModelID{chain.Model.ID}}
	if err := o.AssertReflectsScoped(ctx, s, "renamed make", mk.SearchText()+" "+chain.Model.SearchText(), scope, true); err != nil {
		return err
	}
	j := before.Index(string(mk.ID))
	if j < 0 {
		return nil
	}
	stale := domain.MissingTokens(before.Records[j].SearchText(), domain.DocumentTokens(mk, *chain.Model, nil))
	if len(stale) == 0 {
		return nil
	}
	return o.AssertReflectsScoped(ctx, s, "stale make", strings.Join(stale, " "), scope, false)
}

// VerifyDeleted checks no document of a deleted record is still findable.
func (o *Oracle) VerifyDeleted(ctx context.Context, s domain.Strategy, ledger load.Ledger, chain load.Chain) error {
	if ledger.Entity == domain.EntityMake {
		return nil
	}
	return o.eachRecord(ctx, ledger, func(ctx context.Context, i int) error {
		rec := ledger.Records[i]
		return o.AssertReflectsScoped(ctx, s, "deleted "+string(rec.Kind()), rec.SearchText(), scopeOf(rec), false)
	})
}

func (o *Oracle) eachRecord(ctx context.Context, ledger load.Ledger, fn func(ctx context.Context, i int) error) error {
	if ledger.Len() == 0 {
		return nil
	}
	out := fanout.Run(ctx, ledger.Len(), fn)
	if err := out.Err(); err != nil {
		logger.Errorf("%d of %d %s records failed verification", out.Failed(), ledger.Len(), ledger.Entity)
		return err
	}
	return nil
}

func scopeOf(rec domain.Record) Scope {
	switch r := rec.(type) {
	case domain.Model:
		return Scope{ModelIDs: []domain.ModelID{r.ID}}
	case domain.Trim:
		return Scope{TrimIDs: []domain.TrimID{r.ID}}
	default:
		return Scope{}
	}
}

// staleTokens returns the tokens of old that the current document of cur no
// longer carries. It returns nil when the chain cannot rebuild that document.
func staleTokens(old, cur domain.Record, chain load.Chain) []string {
	var doc []string
	switch r := cur.(type) {
	case domain.Model:
		if chain.Make == nil || chain.Make.ID != r.MakeID {
			return nil
		}
		doc = domain.DocumentTokens(*chain.Make, r, nil)
	case domain.Trim:
		if chain.Make == nil || chain.Model == nil || chain.Model.ID != r.ModelID {
			return nil
		}
		doc = domain.DocumentTokens(*chain.Make, *chain.Model, &r)
	default:
		return nil
	}
	return domain.MissingTokens(old.SearchText(), doc)
}
