package resultstore

import (
	"context"

	"github.com/Overland-East-Bay/vehicle-search-bench/internal/domain"
)

// OperationResults holds batch timings in milliseconds keyed by
// strategy, entity, operation and batch size.
type OperationResults map[domain.Strategy]map[domain.EntityKind]map[domain.Operation]map[int]float64

// ProbeTiming is the persisted outcome of one probe or one probe load.
type ProbeTiming struct {
	TimeMs      float64 `json:"time"`
	FoundResult bool    `json:"foundResult"`
	// Probes and Matched are set for concurrent probe loads only.
	Probes  int `json:"probes,omitempty"`
	Matched int `json:"matched,omitempty"`
}

// SearchResults holds probe outcomes keyed by strategy then query kind.
type SearchResults map[domain.Strategy]map[string]ProbeTiming

// Reader loads previously persisted result documents.
// ok=false means the document has not been written yet.
type Reader interface {
	LoadOperations(ctx context.Context) (OperationResults, bool, error)
	LoadSearch(ctx context.Context) (SearchResults, bool, error)
}

// Writer persists result documents, replacing earlier versions.
type Writer interface {
	SaveOperations(ctx context.Context, doc OperationResults) error
	SaveSearch(ctx context.Context, doc SearchResults) error
}

// Store is the durable output of a run.
type Store interface {
	Reader
	Writer
}
