package store

import (
	"context"

	"github.com/Overland-East-Bay/vehicle-search-bench/internal/domain"
)

// SearchQuery is a full-text probe against a strategy's derived documents.
//
// Terms are matched as a conjunction of tokens, case- and order-insensitive.
// ModelIDs/TrimIDs, when non-empty, restrict matches to documents of those rows.
type SearchQuery struct {
	Terms    string
	ModelIDs []domain.ModelID
	TrimIDs  []domain.TrimID
	// Limit bounds len(SearchResult.Hits); 0 means no limit.
	Limit int
}

// SearchHit identifies one matching document. TrimID is empty for model-level documents.
type SearchHit struct {
	ModelID domain.ModelID
	TrimID  domain.TrimID
}

// SearchResult carries the total match count and a (possibly limited) sample.
type SearchResult struct {
	MatchCount int
	Hits       []SearchHit
}

// Store is the table-scoped access the benchmark drives.
//
// Every call occupies one connection slot for its duration. Implementations
// are constructed with a fixed slot count and must queue callers beyond it.
type Store interface {
	// Insert writes a new row and returns the affected row count.
	Insert(ctx context.Context, s domain.Strategy, rec domain.Record) (int64, error)
	// Update overwrites every mutable column of the row keyed by rec's ID.
	Update(ctx context.Context, s domain.Strategy, rec domain.Record) (int64, error)
	// Delete removes the row of kind keyed by id; children cascade.
	Delete(ctx context.Context, s domain.Strategy, kind domain.EntityKind, id string) (int64, error)

	Search(ctx context.Context, s domain.Strategy, q SearchQuery) (SearchResult, error)

	Close()
}
