// Package fixtures generates synthetic Make, Model and Trim rows.
//
// Generators never touch a store. Text is random and not reproducible across
// runs unless a seed is supplied; identifiers are always random v4 UUIDs.
package fixtures

import (
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Overland-East-Bay/vehicle-search-bench/internal/domain"
)

// Word counts per field role.
const (
	makeNameWords        = 1
	modelNameWords       = 3
	renamedModelWords    = 4
	trimNameWords        = 2
	renamedTrimWords     = 4
	packageFieldWords    = 1
	defaultModelYear     = 2016
	defaultModelTypeCode = domain.ModelTypeNew
)

// Generator produces fixture rows. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand

	newID func() string
}

// New returns a generator with randomly seeded text.
func New() *Generator {
	return NewSeeded(rand.Uint64(), rand.Uint64())
}

// NewSeeded returns a generator whose text sequence is determined by the seeds.
func NewSeeded(seed1, seed2 uint64) *Generator {
	return &Generator{
		rnd:   rand.New(rand.NewPCG(seed1, seed2)),
		newID: uuid.NewString,
	}
}

// Words returns n space-separated placeholder words.
func (g *Generator) Words(n int) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	parts := make([]string, n)
	for i := range parts {
		parts[i] = loremWords[g.rnd.IntN(len(loremWords))]
	}
	return strings.Join(parts, " ")
}

// Pick returns a random element of vals.
func Pick[T any](g *Generator, vals []T) T {
	g.mu.Lock()
	defer g.mu.Unlock()
	return vals[g.rnd.IntN(len(vals))]
}

func (g *Generator) MakeMake() domain.Make {
	return domain.Make{
		ID:   domain.MakeID(g.newID()),
		Name: g.Words(makeNameWords),
	}
}

func (g *Generator) MakeModel(makeID domain.MakeID) domain.Model {
	return domain.Model{
		ID:     domain.ModelID(g.newID()),
		MakeID: makeID,
		Name:   g.Words(modelNameWords),
		Year:   defaultModelYear,
		Type:   defaultModelTypeCode,
	}
}

func (g *Generator) MakeTrim(modelID domain.ModelID) domain.Trim {
	return domain.Trim{
		ID:          domain.TrimID(g.newID()),
		ModelID:     modelID,
		Name:        g.Words(trimNameWords),
		PackageName: g.Words(packageFieldWords),
		ModelCode:   g.Words(packageFieldWords),
		APXCode:     g.Words(packageFieldWords),
		PackageCode: g.Words(packageFieldWords),
	}
}

// Make returns a fresh record of kind whose parent is parentID (ignored for makes).
func (g *Generator) Make(kind domain.EntityKind, parentID string) domain.Record {
	switch kind {
	case domain.EntityModel:
		return g.MakeModel(domain.MakeID(parentID))
	case domain.EntityTrim:
		return g.MakeTrim(domain.ModelID(parentID))
	default:
		return g.MakeMake()
	}
}

func (g *Generator) RenameMake(m domain.Make) domain.Make {
	m.Name = g.Words(makeNameWords)
	return m
}

func (g *Generator) RenameModel(m domain.Model) domain.Model {
	m.Name = g.Words(renamedModelWords)
	return m
}

func (g *Generator) RenameTrim(t domain.Trim) domain.Trim {
	t.Name = g.Words(renamedTrimWords)
	return t
}

// Rename returns rec with a newly generated name; every other field is kept.
func (g *Generator) Rename(rec domain.Record) domain.Record {
	switch r := rec.(type) {
	case domain.Make:
		return g.RenameMake(r)
	case domain.Model:
		return g.RenameModel(r)
	case domain.Trim:
		return g.RenameTrim(r)
	default:
		return rec
	}
}
