package load

import "github.com/Overland-East-Bay/vehicle-search-bench/internal/domain"

// Ledger is the ordered set of rows one batch produced. It is handed to the
// next phase by value; phases never share a ledger's backing array.
type Ledger struct {
	Entity  domain.EntityKind
	Records []domain.Record
}

func NewLedger(kind domain.EntityKind, recs []domain.Record) Ledger {
	out := make([]domain.Record, len(recs))
	copy(out, recs)
	return Ledger{Entity: kind, Records: out}
}

func (l Ledger) Len() int { return len(l.Records) }

// IDs returns the record identifiers in batch order.
func (l Ledger) IDs() []string {
	out := make([]string, len(l.Records))
	for i, r := range l.Records {
		out[i] = r.RecordID()
	}
	return out
}

// Index returns the position of id, or -1.
func (l Ledger) Index(id string) int {
	for i, r := range l.Records {
		if r.RecordID() == id {
			return i
		}
	}
	return -1
}

// Chain is the current make and model of a strategy: the parents every
// model and trim batch is attached to.
type Chain struct {
	Make  *domain.Make
	Model *domain.Model
	Trim  *domain.Trim
}
