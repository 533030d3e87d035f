package planner

import (
	"fmt"

	"github.com/hanpama/protograph/internal/blueprint"
	"github.com/hanpama/protograph/internal/language"
	"github.com/hanpama/protograph/internal/resolverir"
)

// Plan compiles doc against bp into an OperationPlan (spec §4.G). Grounded
// on the teacher's executor package's document-to-execution-state setup
// (coerceVariableValues + collectFields + coerceArgumentValues), split out
// here into a standalone build phase that runs once per request ahead of
// execution rather than interleaved with it.
func Plan(bp *blueprint.Blueprint, doc *language.QueryDocument, operationName string, rawVariables map[string]any) (*OperationPlan, error) {
	op, err := resolveOperation(doc, operationName)
	if err != nil {
		return nil, err
	}

	rootType := bp.Schema.Query
	switch op.Operation {
	case language.Mutation:
		rootType = bp.Schema.Mutation
	case language.Subscription:
		rootType = bp.Schema.Subscription
	}
	if rootType == "" {
		return nil, fmt.Errorf("planner: schema has no root type for operation %q", op.Operation)
	}

	enums := enumTable(bp)
	b := &builder{}
	variables := coerceVariableValues(b, enums, op, rawVariables)

	w := &walker{b: b, doc: doc, bp: bp, variables: variables, enums: enums}
	children := w.walkSelectionSet(rootType, op.SelectionSet, -1)

	if err := b.err(); err != nil {
		return nil, err
	}

	plan := &OperationPlan{
		RootType:  rootType,
		IsQuery:   op.Operation == language.Query,
		Dedupe:    bp.Upstream.Batch.Dedupe,
		Variables: variables,
		Parent:    w.flat,
		Children:  children,
	}

	applyCheckConst(plan)
	checkProtected(b, plan)
	if err := b.err(); err != nil {
		return nil, err
	}

	return plan, nil
}

// resolveOperation finds the operation to plan, grounded on the teacher's
// executor.getOperation.
func resolveOperation(doc *language.QueryDocument, name string) (*language.OperationDefinition, error) {
	if name == "" && len(doc.Operations) == 1 {
		return doc.Operations[0], nil
	}
	for _, op := range doc.Operations {
		if op.Name == name {
			return op, nil
		}
	}
	if name == "" {
		return nil, fmt.Errorf("planner: document has %d operations; operationName is required", len(doc.Operations))
	}
	return nil, fmt.Errorf("planner: no operation named %q", name)
}

// ExpandSelection re-plans a merged, un-expanded selection set (a
// Field.RawSelection) against a concrete type once the executor has
// resolved it via that field's Discriminate node. It reuses the same
// walker used at Plan() build time, continuing the shared ID sequence
// from nextID so expanded fields don't collide with the already-planned
// parent list.
func ExpandSelection(bp *blueprint.Blueprint, doc *language.QueryDocument, concreteType string, sel language.SelectionSet, variables map[string]any, parentID, nextID int) ([]*Field, int, error) {
	enums := enumTable(bp)
	b := &builder{nextID: nextID}
	w := &walker{b: b, doc: doc, bp: bp, variables: variables, enums: enums}
	children := w.walkSelectionSet(concreteType, sel, parentID)
	if err := b.err(); err != nil {
		return nil, b.nextID, err
	}
	return children, b.nextID, nil
}

func enumTable(bp *blueprint.Blueprint) map[string][]string {
	out := map[string][]string{}
	for name, def := range bp.Definitions {
		if def.Kind == blueprint.KindEnum {
			out[name] = def.EnumValues
		}
	}
	return out
}

// walker accumulates the flat field list while recursively expanding
// nested selection sets (spec §4.G steps 2-5).
type walker struct {
	b         *builder
	doc       *language.QueryDocument
	bp        *blueprint.Blueprint
	variables map[string]any
	enums     map[string][]string
	flat      []*Field
}

// walkSelectionSet plans one type's selection set and returns its
// immediate (possibly recursively expanded) children.
func (w *walker) walkSelectionSet(typeName string, sel language.SelectionSet, parentID int) []*Field {
	grouped := collectFields(w.doc, w.variables, typeName, sel)

	var out []*Field
	for _, cf := range grouped.order {
		first := cf.Nodes[0]
		fieldName := first.Name

		if fieldName == "__typename" {
			id := w.b.newID()
			f := &Field{
				ID: id, ParentID: parentID, ResponseName: cf.ResponseName,
				TypeName: typeName, FieldName: fieldName,
				IsConst: true, ConstValue: typeName,
			}
			w.flat = append(w.flat, f)
			out = append(out, f)
			continue
		}

		fdef, ok := w.bp.Field(typeName, fieldName)
		if !ok {
			w.b.fail(UnknownField, fmt.Sprintf("unknown field %q on type %q", fieldName, typeName), typeName, fieldName, "")
			continue
		}

		argDefs := make(map[string]*argDef, len(fdef.Args))
		for name, a := range fdef.Args {
			argDefs[name] = &argDef{TypeOf: a.TypeOf, DefaultValue: a.DefaultValue}
		}
		args := coerceArgumentValues(w.b, w.enums, typeName, fieldName, argDefs, first.Arguments, w.variables)

		id := w.b.newID()
		field := &Field{
			ID: id, ParentID: parentID, ResponseName: cf.ResponseName,
			TypeName: typeName, FieldName: fieldName,
			TypeOf: fdef.TypeOf, Args: args, IR: fdef.IR,
		}
		w.flat = append(w.flat, field)
		out = append(out, field)

		baseName := fdef.TypeOf.BaseName()
		def, isComposite := w.bp.Definitions[baseName]
		if !isComposite || def.Kind == blueprint.KindEnum || def.Kind == blueprint.KindScalar || def.Kind == blueprint.KindInputObject {
			continue
		}

		var merged language.SelectionSet
		for _, n := range cf.Nodes {
			merged = append(merged, n.SelectionSet...)
		}
		if len(merged) == 0 {
			continue
		}

		if def.Kind == blueprint.KindObject {
			field.Children = w.walkSelectionSet(baseName, merged, id)
			continue
		}

		// Interface/Union: the concrete type is data-dependent (resolved
		// by the field's Discriminate node at execution time), so the
		// selection set can't be flattened ahead of time the way a
		// concrete object's can. The raw, merged selection is kept and
		// re-collected per resolved concrete type once the executor knows
		// it (spec §4.I discriminator resolves concrete type per value).
		field.RawSelection = merged
	}
	return out
}

// applyCheckConst precomputes fields whose IR is a purely constant
// DynamicValue (spec §4.G "Check const": "nodes whose IR is purely
// constant are pre-computed and inlined").
func applyCheckConst(plan *OperationPlan) {
	for _, f := range plan.Parent {
		if f.IsConst || f.IR == nil || f.IR.Kind != resolverir.KindDynamic {
			continue
		}
		if !f.IR.Dynamic.IsStatic() {
			continue
		}
		v, err := f.IR.Dynamic.Render(staticResolver{})
		if err != nil {
			continue
		}
		f.IsConst = true
		f.ConstValue = v
	}
}

type staticResolver struct{}

func (staticResolver) PathString(path []string) (string, bool) { return "", false }

// checkProtected validates every Protect node planned for this request
// names at least one auth provider (spec §4.G "Check protected"). A
// Protect node with zero provider IDs reflects a missing required
// configuration value on an explicit @protected resolver, the same class
// of defect ValueRequired already names.
func checkProtected(b *builder, plan *OperationPlan) {
	for _, f := range plan.Parent {
		if f.IR == nil {
			continue
		}
		resolverir.Modify(f.IR, func(n *resolverir.IR) *resolverir.IR {
			if n.Kind == resolverir.KindProtect && len(n.ProtectProviderIDs) == 0 {
				b.fail(ValueRequired, "protected field has no configured auth providers", f.TypeName, f.FieldName, "")
			}
			return n
		})
	}
}
