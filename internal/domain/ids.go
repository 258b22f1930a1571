package domain

// MakeID identifies a make row. Values are UUID strings.
type MakeID string

// ModelID identifies a model row. Values are UUID strings.
type ModelID string

// TrimID identifies a trim row. Values are UUID strings.
type TrimID string

// EntityKind names one of the three normalized tables.
type EntityKind string

const (
	EntityMake  EntityKind = "make"
	EntityModel EntityKind = "model"
	EntityTrim  EntityKind = "trim"
)

// EntityKinds lists the kinds in parent-to-child order.
var EntityKinds = []EntityKind{EntityMake, EntityModel, EntityTrim}

func (k EntityKind) Valid() bool {
	switch k {
	case EntityMake, EntityModel, EntityTrim:
		return true
	default:
		return false
	}
}

// Operation is the kind of write a batch issues.
type Operation string

const (
	OperationInsert Operation = "insert"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Operations lists the operations in the order a suite runs them.
var Operations = []Operation{OperationInsert, OperationUpdate, OperationDelete}
