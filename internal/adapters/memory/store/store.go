// Package store is an in-memory implementation of the store port.
//
// Both strategies keep their own copy of the make/model/trim tables. The
// trigger strategy recomputes a token document for every affected row on
// write; the view strategy derives documents on every read. Foreign keys and
// cascading deletes follow the Postgres schema.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/Overland-East-Bay/vehicle-search-bench/internal/domain"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/ports/out/store"
)

// DefaultAcquireTimeout bounds how long a call waits for a free slot.
const DefaultAcquireTimeout = 2 * time.Minute

// Options configures the connection slot emulation.
type Options struct {
	// PoolSize is the number of calls that may run at once. Values < 1 mean 1.
	PoolSize int64
	// AcquireTimeout bounds the wait for a slot. Zero means DefaultAcquireTimeout.
	AcquireTimeout time.Duration
	// OpLatency, when set, is slept while a slot is held. Tests use it to
	// make slot contention observable.
	OpLatency time.Duration
}

// Store is safe for concurrent use.
type Store struct {
	slots          *semaphore.Weighted
	acquireTimeout time.Duration
	opLatency      time.Duration
	closed         atomic.Bool

	mu      sync.RWMutex
	schemas map[domain.Strategy]*schema
}

type docKey struct {
	model domain.ModelID
	trim  domain.TrimID
}

type schema struct {
	maintainDocs bool

	makes  map[domain.MakeID]domain.Make
	models map[domain.ModelID]domain.Model
	trims  map[domain.TrimID]domain.Trim

	modelsByMake map[domain.MakeID]map[domain.ModelID]struct{}
	trimsByModel map[domain.ModelID]map[domain.TrimID]struct{}

	docs map[docKey][]string
}

func newSchema(maintainDocs bool) *schema {
	sc := &schema{
		maintainDocs: maintainDocs,
		makes:        make(map[domain.MakeID]domain.Make),
		models:       make(map[domain.ModelID]domain.Model),
		trims:        make(map[domain.TrimID]domain.Trim),
		modelsByMake: make(map[domain.MakeID]map[domain.ModelID]struct{}),
		trimsByModel: make(map[domain.ModelID]map[domain.TrimID]struct{}),
	}
	if maintainDocs {
		sc.docs = make(map[docKey][]string)
	}
	return sc
}

func New(opts Options) *Store {
	size := opts.PoolSize
	if size < 1 {
		size = 1
	}
	timeout := opts.AcquireTimeout
	if timeout <= 0 {
		timeout = DefaultAcquireTimeout
	}
	return &Store{
		slots:          semaphore.NewWeighted(size),
		acquireTimeout: timeout,
		opLatency:      opts.OpLatency,
		schemas: map[domain.Strategy]*schema{
			domain.StrategyTrigger: newSchema(true),
			domain.StrategyView:    newSchema(false),
		},
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) Close() { s.closed.Store(true) }

// Rows returns the number of rows of kind currently held for the strategy.
func (s *Store) Rows(st domain.Strategy, kind domain.EntityKind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.schemas[st]
	if !ok {
		return 0
	}
	switch kind {
	case domain.EntityMake:
		return len(sc.makes)
	case domain.EntityModel:
		return len(sc.models)
	case domain.EntityTrim:
		return len(sc.trims)
	default:
		return 0
	}
}

// acquire occupies one slot. The returned func releases it.
func (s *Store) acquire(ctx context.Context) (func(), error) {
	if s.closed.Load() {
		return nil, store.ErrClosed
	}
	actx, cancel := context.WithTimeout(ctx, s.acquireTimeout)
	defer cancel()
	if err := s.slots.Acquire(actx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, store.ErrAcquireTimeout
	}
	if s.opLatency > 0 {
		time.Sleep(s.opLatency)
	}
	return func() { s.slots.Release(1) }, nil
}

func (s *Store) schema(st domain.Strategy) (*schema, error) {
	sc, ok := s.schemas[st]
	if !ok {
		return nil, store.ErrUnknownStrategy
	}
	return sc, nil
}

func (s *Store) Insert(ctx context.Context, st domain.Strategy, rec domain.Record) (int64, error) {
	n, err := s.write(ctx, st, rec, func(sc *schema) (int64, error) { return sc.insert(rec) })
	if err != nil {
		return 0, &store.Error{Op: "insert", Strategy: st, Entity: kindOf(rec), ID: idOf(rec), Err: err}
	}
	return n, nil
}

func (s *Store) Update(ctx context.Context, st domain.Strategy, rec domain.Record) (int64, error) {
	n, err := s.write(ctx, st, rec, func(sc *schema) (int64, error) { return sc.update(rec) })
	if err != nil {
		return 0, &store.Error{Op: "update", Strategy: st, Entity: kindOf(rec), ID: idOf(rec), Err: err}
	}
	return n, nil
}

func (s *Store) Delete(ctx context.Context, st domain.Strategy, kind domain.EntityKind, id string) (int64, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return 0, &store.Error{Op: "delete", Strategy: st, Entity: kind, ID: id, Err: err}
	}
	defer release()

	s.mu.Lock()
	defer s.mu.Unlock()
	sc, err := s.schema(st)
	if err != nil {
		return 0, &store.Error{Op: "delete", Strategy: st, Entity: kind, ID: id, Err: err}
	}
	switch kind {
	case domain.EntityMake:
		return sc.deleteMake(domain.MakeID(id)), nil
	case domain.EntityModel:
		return sc.deleteModel(domain.ModelID(id)), nil
	case domain.EntityTrim:
		return sc.deleteTrim(domain.TrimID(id)), nil
	default:
		return 0, &store.Error{Op: "delete", Strategy: st, Entity: kind, ID: id, Err: fmt.Errorf("unsupported entity %q", kind)}
	}
}

func (s *Store) write(ctx context.Context, st domain.Strategy, rec domain.Record, fn func(sc *schema) (int64, error)) (int64, error) {
	if rec == nil {
		return 0, errors.New("nil record")
	}
	release, err := s.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	s.mu.Lock()
	defer s.mu.Unlock()
	sc, err := s.schema(st)
	if err != nil {
		return 0, err
	}
	return fn(sc)
}

func kindOf(rec domain.Record) domain.EntityKind {
	if rec == nil {
		return ""
	}
	return rec.Kind()
}

func idOf(rec domain.Record) string {
	if rec == nil {
		return ""
	}
	return rec.RecordID()
}

func (s *Store) Search(ctx context.Context, st domain.Strategy, q store.SearchQuery) (store.SearchResult, error) {
	if len(domain.SearchTokens(q.Terms)) == 0 {
		return store.SearchResult{}, &store.Error{Op: "search", Strategy: st, Err: store.ErrEmptyQuery}
	}
	release, err := s.acquire(ctx)
	if err != nil {
		return store.SearchResult{}, &store.Error{Op: "search", Strategy: st, Err: err}
	}
	defer release()

	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, err := s.schema(st)
	if err != nil {
		return store.SearchResult{}, &store.Error{Op: "search", Strategy: st, Err: err}
	}

	keys := sc.candidates(q)
	res := store.SearchResult{Hits: make([]store.SearchHit, 0)}
	for _, k := range keys {
		if !domain.ContainsAllTokens(sc.document(k), q.Terms) {
			continue
		}
		res.MatchCount++
		if q.Limit <= 0 || len(res.Hits) < q.Limit {
			res.Hits = append(res.Hits, store.SearchHit{ModelID: k.model, TrimID: k.trim})
		}
	}
	return res, nil
}

// candidates lists the document keys a query may match, ordered by model then
// trim with the model-level document first.
func (sc *schema) candidates(q store.SearchQuery) []docKey {
	var models []domain.ModelID
	if len(q.ModelIDs) > 0 {
		for _, id := range q.ModelIDs {
			if _, ok := sc.models[id]; ok {
				models = append(models, id)
			}
		}
	} else {
		models = make([]domain.ModelID, 0, len(sc.models))
		for id := range sc.models {
			models = append(models, id)
		}
	}
	sort.Slice(models, func(i, j int) bool { return models[i] < models[j] })
	models = compactModelIDs(models)

	var trimFilter map[domain.TrimID]struct{}
	if len(q.TrimIDs) > 0 {
		trimFilter = make(map[domain.TrimID]struct{}, len(q.TrimIDs))
		for _, id := range q.TrimIDs {
			trimFilter[id] = struct{}{}
		}
	}

	var out []docKey
	for _, mid := range models {
		if trimFilter == nil {
			out = append(out, docKey{model: mid})
		}
		trims := make([]domain.TrimID, 0, len(sc.trimsByModel[mid]))
		for tid := range sc.trimsByModel[mid] {
			if trimFilter != nil {
				if _, ok := trimFilter[tid]; !ok {
					continue
				}
			}
			trims = append(trims, tid)
		}
		sort.Slice(trims, func(i, j int) bool { return trims[i] < trims[j] })
		for _, tid := range trims {
			out = append(out, docKey{model: mid, trim: tid})
		}
	}
	return out
}

func compactModelIDs(ids []domain.ModelID) []domain.ModelID {
	out := ids[:0]
	for i, id := range ids {
		if i > 0 && ids[i-1] == id {
			continue
		}
		out = append(out, id)
	}
	return out
}

// document returns the token set for k: stored for trigger, derived for view.
func (sc *schema) document(k docKey) []string {
	if sc.maintainDocs {
		return sc.docs[k]
	}
	return sc.deriveDocument(k)
}

func (sc *schema) deriveDocument(k docKey) []string {
	mo, ok := sc.models[k.model]
	if !ok {
		return nil
	}
	mk := sc.makes[mo.MakeID]
	if k.trim == "" {
		return domain.DocumentTokens(mk, mo, nil)
	}
	tr, ok := sc.trims[k.trim]
	if !ok {
		return nil
	}
	return domain.DocumentTokens(mk, mo, &tr)
}

func (sc *schema) insert(rec domain.Record) (int64, error) {
	switch r := rec.(type) {
	case domain.Make:
		if _, ok := sc.makes[r.ID]; ok {
			return 0, store.ErrDuplicate
		}
		sc.makes[r.ID] = r
	case domain.Model:
		if _, ok := sc.models[r.ID]; ok {
			return 0, store.ErrDuplicate
		}
		if _, ok := sc.makes[r.MakeID]; !ok {
			return 0, store.ErrForeignKey
		}
		sc.models[r.ID] = r
		link(sc.modelsByMake, r.MakeID, r.ID)
		sc.refreshModel(r.ID)
	case domain.Trim:
		if _, ok := sc.trims[r.ID]; ok {
			return 0, store.ErrDuplicate
		}
		if _, ok := sc.models[r.ModelID]; !ok {
			return 0, store.ErrForeignKey
		}
		sc.trims[r.ID] = r
		link(sc.trimsByModel, r.ModelID, r.ID)
		sc.refreshTrim(r.ID)
	default:
		return 0, fmt.Errorf("unsupported record type %T", rec)
	}
	return 1, nil
}

func (sc *schema) update(rec domain.Record) (int64, error) {
	switch r := rec.(type) {
	case domain.Make:
		if _, ok := sc.makes[r.ID]; !ok {
			return 0, nil
		}
		sc.makes[r.ID] = r
		for mid := range sc.modelsByMake[r.ID] {
			sc.refreshModel(mid)
		}
	case domain.Model:
		old, ok := sc.models[r.ID]
		if !ok {
			return 0, nil
		}
		if _, ok := sc.makes[r.MakeID]; !ok {
			return 0, store.ErrForeignKey
		}
		if old.MakeID != r.MakeID {
			unlink(sc.modelsByMake, old.MakeID, r.ID)
			link(sc.modelsByMake, r.MakeID, r.ID)
		}
		sc.models[r.ID] = r
		sc.refreshModel(r.ID)
	case domain.Trim:
		old, ok := sc.trims[r.ID]
		if !ok {
			return 0, nil
		}
		if _, ok := sc.models[r.ModelID]; !ok {
			return 0, store.ErrForeignKey
		}
		if old.ModelID != r.ModelID {
			unlink(sc.trimsByModel, old.ModelID, r.ID)
			link(sc.trimsByModel, r.ModelID, r.ID)
			if sc.maintainDocs {
				delete(sc.docs, docKey{model: old.ModelID, trim: r.ID})
			}
		}
		sc.trims[r.ID] = r
		sc.refreshTrim(r.ID)
	default:
		return 0, fmt.Errorf("unsupported record type %T", rec)
	}
	return 1, nil
}

func (sc *schema) deleteMake(id domain.MakeID) int64 {
	if _, ok := sc.makes[id]; !ok {
		return 0
	}
	for mid := range sc.modelsByMake[id] {
		sc.deleteModel(mid)
	}
	delete(sc.modelsByMake, id)
	delete(sc.makes, id)
	return 1
}

func (sc *schema) deleteModel(id domain.ModelID) int64 {
	mo, ok := sc.models[id]
	if !ok {
		return 0
	}
	for tid := range sc.trimsByModel[id] {
		sc.deleteTrim(tid)
	}
	delete(sc.trimsByModel, id)
	unlink(sc.modelsByMake, mo.MakeID, id)
	delete(sc.models, id)
	if sc.maintainDocs {
		delete(sc.docs, docKey{model: id})
	}
	return 1
}

func (sc *schema) deleteTrim(id domain.TrimID) int64 {
	tr, ok := sc.trims[id]
	if !ok {
		return 0
	}
	unlink(sc.trimsByModel, tr.ModelID, id)
	delete(sc.trims, id)
	if sc.maintainDocs {
		delete(sc.docs, docKey{model: tr.ModelID, trim: id})
	}
	return 1
}

// refreshModel recomputes the model document and every trim document below it.
func (sc *schema) refreshModel(id domain.ModelID) {
	if !sc.maintainDocs {
		return
	}
	k := docKey{model: id}
	sc.docs[k] = sc.deriveDocument(k)
	for tid := range sc.trimsByModel[id] {
		sc.refreshTrim(tid)
	}
}

func (sc *schema) refreshTrim(id domain.TrimID) {
	if !sc.maintainDocs {
		return
	}
	tr := sc.trims[id]
	k := docKey{model: tr.ModelID, trim: id}
	sc.docs[k] = sc.deriveDocument(k)
}

func link[P, C comparable](idx map[P]map[C]struct{}, parent P, child C) {
	set, ok := idx[parent]
	if !ok {
		set = make(map[C]struct{})
		idx[parent] = set
	}
	set[child] = struct{}{}
}

func unlink[P, C comparable](idx map[P]map[C]struct{}, parent P, child C) {
	set, ok := idx[parent]
	if !ok {
		return
	}
	delete(set, child)
	if len(set) == 0 {
		delete(idx, parent)
	}
}
