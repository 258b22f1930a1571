package resultstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Overland-East-Bay/vehicle-search-bench/internal/ports/out/resultstore"
)

// Store keeps result documents in memory. It is safe for concurrent use.
// Documents are stored encoded so callers never share maps with it.
type Store struct {
	mu     sync.RWMutex
	ops    []byte
	search []byte
}

func NewStore() *Store { return &Store{} }

var _ resultstore.Store = (*Store)(nil)

func (s *Store) SaveOperations(ctx context.Context, doc resultstore.OperationResults) error {
	_ = ctx
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = b
	return nil
}

func (s *Store) SaveSearch(ctx context.Context, doc resultstore.SearchResults) error {
	_ = ctx
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = b
	return nil
}

func (s *Store) LoadOperations(ctx context.Context) (resultstore.OperationResults, bool, error) {
	_ = ctx
	s.mu.RLock()
	b := s.ops
	s.mu.RUnlock()
	if b == nil {
		return nil, false, nil
	}
	var doc resultstore.OperationResults
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

func (s *Store) LoadSearch(ctx context.Context) (resultstore.SearchResults, bool, error) {
	_ = ctx
	s.mu.RLock()
	b := s.search
	s.mu.RUnlock()
	if b == nil {
		return nil, false, nil
	}
	var doc resultstore.SearchResults
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, false, err
	}
	return doc, true, nil
}
