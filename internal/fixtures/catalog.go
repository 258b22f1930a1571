package fixtures

import (
	"strconv"
	"strings"

	"github.com/Overland-East-Bay/vehicle-search-bench/internal/domain"
)

// catalogModelTypes makes three in four catalog models new.
var catalogModelTypes = []domain.ModelType{
	domain.ModelTypeNew, domain.ModelTypeNew, domain.ModelTypeNew, domain.ModelTypeCertified,
}

// CatalogMake returns a make named from the seed vocabulary.
func (g *Generator) CatalogMake() domain.Make {
	return domain.Make{
		ID:   domain.MakeID(g.newID()),
		Name: Pick(g, Vocabulary.MakeNames),
	}
}

func (g *Generator) CatalogModel(makeID domain.MakeID) domain.Model {
	return domain.Model{
		ID:     domain.ModelID(g.newID()),
		MakeID: makeID,
		Name:   Pick(g, Vocabulary.ModelNames),
		Year:   Pick(g, Vocabulary.Years),
		Type:   Pick(g, catalogModelTypes),
	}
}

func (g *Generator) CatalogTrim(modelID domain.ModelID) domain.Trim {
	return domain.Trim{
		ID:          domain.TrimID(g.newID()),
		ModelID:     modelID,
		Name:        Pick(g, Vocabulary.TrimNames),
		PackageName: Pick(g, Vocabulary.PackageNames),
		ModelCode:   Pick(g, Vocabulary.ModelCodes),
		APXCode:     Pick(g, Vocabulary.APXCodes),
		PackageCode: Pick(g, Vocabulary.PackageCodes),
	}
}

// GeneralTerms returns a "year make model" probe drawn from the vocabulary.
func (g *Generator) GeneralTerms() string {
	return strings.Join([]string{
		strconv.Itoa(Pick(g, Vocabulary.Years)),
		Pick(g, Vocabulary.MakeNames),
		Pick(g, Vocabulary.ModelNames),
	}, " ")
}

// SpecificTerms extends a general probe with a trim and package name.
func (g *Generator) SpecificTerms() string {
	return g.GeneralTerms() + " " + Pick(g, Vocabulary.TrimNames) + " " + Pick(g, Vocabulary.PackageNames)
}
