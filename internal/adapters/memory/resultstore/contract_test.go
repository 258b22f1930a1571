package resultstore

import (
	"testing"

	"github.com/Overland-East-Bay/vehicle-search-bench/internal/adapters/contracttest"
	resultstoreport "github.com/Overland-East-Bay/vehicle-search-bench/internal/ports/out/resultstore"
)

func TestContract_MemoryResultStore(t *testing.T) {
	contracttest.RunResultStore(t, func(t *testing.T) (resultstoreport.Store, func()) {
		t.Helper()
		return NewStore(), nil
	})
}
