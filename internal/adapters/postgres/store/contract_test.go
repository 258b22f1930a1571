package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Overland-East-Bay/vehicle-search-bench/internal/adapters/contracttest"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/adapters/postgres/testutil"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/domain"
	storeport "github.com/Overland-East-Bay/vehicle-search-bench/internal/ports/out/store"
)

func TestContract_PostgresStore(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)

	contracttest.RunStore(t, func(t *testing.T) (storeport.Store, func()) {
		t.Helper()
		return NewStore(pool, time.Minute), nil
	})
}

func TestStore_TriggerCascadeLeavesNoDocuments(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)
	s := NewStore(pool, time.Minute)
	ctx := context.Background()
	st := domain.StrategyTrigger

	mk := domain.Make{ID: domain.MakeID(uuid.NewString()), Name: "Hyundai"}
	mo := domain.Model{ID: domain.ModelID(uuid.NewString()), MakeID: mk.ID, Name: "Tuscon", Year: 2015, Type: domain.ModelTypeCertified}
	tr := domain.Trim{ID: domain.TrimID(uuid.NewString()), ModelID: mo.ID, Name: "Limited"}
	for _, rec := range []domain.Record{mk, mo, tr} {
		if n, err := s.Insert(ctx, st, rec); err != nil || n != 1 {
			t.Fatalf("Insert %s: rows=%d err=%v", rec.Kind(), n, err)
		}
	}

	count := func() int64 {
		t.Helper()
		res, err := s.RawQuery(ctx, `SELECT count(*) FROM "trigger".vehicle_search WHERE model_id = $1`, uuid.MustParse(string(mo.ID)))
		if err != nil {
			t.Fatalf("RawQuery: %v", err)
		}
		if len(res.Rows) != 1 {
			t.Fatalf("unexpected rows: %#v", res.Rows)
		}
		n, ok := res.Rows[0][0].(int64)
		if !ok {
			t.Fatalf("unexpected count type %T", res.Rows[0][0])
		}
		return n
	}
	if n := count(); n != 2 {
		t.Fatalf("documents=%d, want 2", n)
	}
	if n, err := s.Delete(ctx, st, domain.EntityMake, string(mk.ID)); err != nil || n != 1 {
		t.Fatalf("Delete make: rows=%d err=%v", n, err)
	}
	if n := count(); n != 0 {
		t.Fatalf("documents after cascade=%d, want 0", n)
	}
}

func TestStore_InvalidIDIsStoreError(t *testing.T) {
	t.Parallel()

	// Validation happens before any connection is needed.
	s := NewStore(nil, time.Second)
	_, err := s.Delete(context.Background(), domain.StrategyView, domain.EntityTrim, "not-a-uuid")
	var se *storeport.Error
	if !errors.As(err, &se) || se.Entity != domain.EntityTrim {
		t.Fatalf("expected trim store error, got %v", err)
	}
	_, err = s.Insert(context.Background(), domain.Strategy("nope"), domain.Make{ID: domain.MakeID(uuid.NewString())})
	if !errors.Is(err, storeport.ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestStore_ClosedRejectsCalls(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := NewStore(nil, time.Second)
	s.Close()
	s.Close()

	_, err := s.Insert(ctx, domain.StrategyView, domain.Make{ID: domain.MakeID(uuid.NewString()), Name: "Kia"})
	var se *storeport.Error
	if !errors.As(err, &se) || se.Op != "insert" || !errors.Is(err, storeport.ErrClosed) {
		t.Fatalf("expected closed insert store error, got %v", err)
	}
	_, err = s.Search(ctx, domain.StrategyTrigger, storeport.SearchQuery{Terms: "kia"})
	if !errors.Is(err, storeport.ErrClosed) {
		t.Fatalf("expected ErrClosed from search, got %v", err)
	}
}
