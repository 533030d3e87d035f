// Package planner compiles one parsed GraphQL document against a
// Blueprint into an OperationPlan: a flat, parent-linked field list plus a
// nested children view, with every argument bound and validated (spec
// §3.4, §4.G).
package planner

import (
	"github.com/hanpama/protograph/internal/config"
	"github.com/hanpama/protograph/internal/language"
	"github.com/hanpama/protograph/internal/resolverir"
)

// Field is one planned selection (spec §3.4 "Field<E>"). The same struct
// serves both the flat (Parent) and nested (Children) views; ParentID is
// -1 for a root field.
type Field struct {
	ID           int
	ParentID     int
	ResponseName string
	TypeName     string // the type declaring this field (blueprint.Definition.Name)
	FieldName    string
	TypeOf       *config.TypeRef
	Args         map[string]any
	IR           *resolverir.IR

	// IsConst and ConstValue hold the result of the "Check const"
	// post-transform (spec §4.G): when IsConst is true the executor uses
	// ConstValue directly instead of evaluating IR.
	IsConst    bool
	ConstValue any

	Children []*Field

	// RawSelection holds the merged, un-expanded selection set for a field
	// whose return type is an Interface or Union. The concrete type isn't
	// known until the field's Discriminate node runs at execution time, so
	// its selection can't be flattened into Children ahead of time the way
	// a concrete Object's can; the executor re-collects this selection
	// against each resolved concrete type.
	RawSelection language.SelectionSet
}

// OperationPlan is the per-request compiled plan (spec §3.4).
type OperationPlan struct {
	RootType string
	IsQuery  bool
	Dedupe   bool

	// Variables holds the coerced operation variables, kept around so the
	// executor can re-plan an interface/union field's RawSelection against
	// whatever concrete type its Discriminate node resolves to at
	// execution time (see ExpandSelection).
	Variables map[string]any

	// Parent is the flat, ID-ordered field list (the "Parent" view).
	Parent []*Field
	// Children is the nested root field list (the "Children" view), used
	// by the executor's top-down walk.
	Children []*Field
}

// FieldByID looks up a flattened field by its plan-assigned ID.
func (p *OperationPlan) FieldByID(id int) *Field {
	for _, f := range p.Parent {
		if f.ID == id {
			return f
		}
	}
	return nil
}
