package domain

import "strconv"

// ModelType distinguishes new from certified pre-owned models.
type ModelType string

const (
	ModelTypeNew       ModelType = "N"
	ModelTypeCertified ModelType = "C"
)

// Label is the word the search document carries for the type.
func (t ModelType) Label() string {
	switch t {
	case ModelTypeCertified:
		return "Certified"
	default:
		return "New"
	}
}

func (t ModelType) Valid() bool {
	return t == ModelTypeNew || t == ModelTypeCertified
}

// Record is a persisted row of one of the three entities.
type Record interface {
	Kind() EntityKind
	RecordID() string
	// SearchText is the portion of a search document this row contributes.
	SearchText() string
}

// Make is the root of the hierarchy.
type Make struct {
	ID   MakeID
	Name string
}

func (m Make) Kind() EntityKind   { return EntityMake }
func (m Make) RecordID() string   { return string(m.ID) }
func (m Make) SearchText() string { return m.Name }

// Model belongs to a Make.
type Model struct {
	ID     ModelID
	MakeID MakeID
	Name   string
	Year   int
	Type   ModelType
}

func (m Model) Kind() EntityKind { return EntityModel }
func (m Model) RecordID() string { return string(m.ID) }

func (m Model) SearchText() string {
	return m.Name + " " + strconv.Itoa(m.Year) + " " + m.Type.Label()
}

// Trim belongs to a Model.
type Trim struct {
	ID          TrimID
	ModelID     ModelID
	Name        string
	PackageName string
	ModelCode   string
	APXCode     string
	PackageCode string
}

func (t Trim) Kind() EntityKind { return EntityTrim }
func (t Trim) RecordID() string { return string(t.ID) }

func (t Trim) SearchText() string {
	return t.Name + " " + t.PackageName + " " + t.ModelCode + " " + t.APXCode + " " + t.PackageCode
}
