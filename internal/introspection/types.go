// Package introspection builds and serves the standard GraphQL __schema and
// __type meta-fields (spec §3.2 "Blueprint.server.introspectionOn") directly
// off a *blueprint.Blueprint. The teacher built this same introspection
// surface from its federated ir.Project and served it by wrapping an
// executor.Runtime; this system's executor has no Runtime seam to wrap (spec
// §4.H compiles IR ahead of time instead of dispatching through resolver
// callbacks), so the type-system model and field resolvers below are rebuilt
// against Blueprint and driven by a small dedicated selection walker
// (resolve.go) instead.
package introspection

import (
	"sort"

	"github.com/hanpama/protograph/internal/blueprint"
	"github.com/hanpama/protograph/internal/config"
)

// Schema is the introspection-queryable view of one Blueprint's type system.
type Schema struct {
	QueryType        string
	MutationType     string
	SubscriptionType string
	Types            map[string]*Type
	Directives       map[string]*Directive
	Description      string
}

func (s *Schema) GetQueryType() *Type        { return s.Types[s.QueryType] }
func (s *Schema) GetMutationType() *Type     { return s.Types[s.MutationType] }
func (s *Schema) GetSubscriptionType() *Type { return s.Types[s.SubscriptionType] }

// Type is a named GraphQL type (object, interface, union, scalar, enum, input).
type Type struct {
	Name           string
	Kind           TypeKind
	Description    string
	Fields         []*Field // OBJECT, INTERFACE: sorted by name
	Interfaces     []string
	PossibleTypes  []string
	EnumValues     []*EnumValue  // ENUM
	InputFields    []*InputValue // INPUT_OBJECT
	SpecifiedByURL *string
	OneOf          bool
}

type Field struct {
	Name              string
	Description       string
	Type              *TypeRef
	Arguments         []*InputValue
	IsDeprecated      bool
	DeprecationReason string
}

type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindInterface   TypeKind = "INTERFACE"
	TypeKindUnion       TypeKind = "UNION"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

// TypeRef is a (possibly List/NonNull-wrapped) reference to a named type.
type TypeRef struct {
	Kind   TypeRefKind
	OfType *TypeRef
	Named  string
}

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

func NonNullType(t *TypeRef) *TypeRef { return &TypeRef{Kind: TypeRefKindNonNull, OfType: t} }
func ListType(t *TypeRef) *TypeRef    { return &TypeRef{Kind: TypeRefKindList, OfType: t} }
func NamedType(name string) *TypeRef  { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }

func IsNonNull(t *TypeRef) bool { return t != nil && t.Kind == TypeRefKindNonNull }
func IsList(t *TypeRef) bool {
	if t == nil {
		return false
	}
	if t.Kind == TypeRefKindList {
		return true
	}
	return t.Kind == TypeRefKindNonNull && t.OfType != nil && t.OfType.Kind == TypeRefKindList
}

// GetNamedType returns the innermost named type for the given reference.
func GetNamedType(t *TypeRef) string {
	for t != nil {
		if t.Named != "" {
			return t.Named
		}
		t = t.OfType
	}
	return ""
}

type EnumValue struct {
	Name              string
	Description       string
	IsDeprecated      bool
	DeprecationReason string
}

type InputValue struct {
	Name              string
	Description       string
	Type              *TypeRef
	DefaultValue      any
	IsDeprecated      bool
	DeprecationReason string
}

type Directive struct {
	Name         string
	Description  string
	Locations    []string
	Arguments    []*InputValue
	IsRepeatable bool
}

// BuildFromBlueprint converts bp's compiled Definitions into the generic
// introspection type system above, then extends it with the standard
// introspection meta-types and the Query.__schema/__type fields (spec §3.2;
// the meta-type shapes themselves are invariant GraphQL-spec structure, not
// domain-specific, so they are declared once in introspectionMetaTypes
// below rather than per Blueprint).
func BuildFromBlueprint(bp *blueprint.Blueprint) *Schema {
	sch := &Schema{
		QueryType:        bp.Schema.Query,
		MutationType:     bp.Schema.Mutation,
		SubscriptionType: bp.Schema.Subscription,
		Types:            map[string]*Type{},
		Directives:       map[string]*Directive{},
	}

	for name, def := range bp.Definitions {
		sch.Types[name] = convertDefinition(name, def)
	}

	for name, t := range introspectionMetaTypes() {
		sch.Types[name] = t
	}
	if q := sch.Types[sch.QueryType]; q != nil {
		q.Fields = append(append([]*Field{}, q.Fields...),
			&Field{
				Name:        "__schema",
				Description: "Access the current type schema of this server.",
				Type:        NonNullType(NamedType("__Schema")),
			},
			&Field{
				Name:        "__type",
				Description: "Request the type information of a single type.",
				Arguments: []*InputValue{
					{Name: "name", Type: NonNullType(NamedType("String"))},
				},
				Type: NamedType("__Type"),
			},
		)
		sort.Slice(q.Fields, func(i, j int) bool { return q.Fields[i].Name < q.Fields[j].Name })
	}
	return sch
}

func convertDefinition(name string, def *blueprint.Definition) *Type {
	t := &Type{Name: name}
	switch def.Kind {
	case blueprint.KindObject:
		t.Kind = TypeKindObject
	case blueprint.KindInterface:
		t.Kind = TypeKindInterface
		t.PossibleTypes = append([]string{}, def.PossibleTypes...)
	case blueprint.KindInputObject:
		t.Kind = TypeKindInputObject
	case blueprint.KindScalar:
		t.Kind = TypeKindScalar
	case blueprint.KindEnum:
		t.Kind = TypeKindEnum
		for _, v := range def.EnumValues {
			t.EnumValues = append(t.EnumValues, &EnumValue{Name: v})
		}
		return t
	case blueprint.KindUnion:
		t.Kind = TypeKindUnion
		t.PossibleTypes = append([]string{}, def.UnionTypes...)
		return t
	}

	for iface := range def.Implements {
		t.Interfaces = append(t.Interfaces, iface)
	}
	sort.Strings(t.Interfaces)

	names := make([]string, 0, len(def.Fields))
	for fname := range def.Fields {
		names = append(names, fname)
	}
	sort.Strings(names)
	for _, fname := range names {
		f := def.Fields[fname]
		field := &Field{Name: fname, Type: convertTypeRef(f.TypeOf)}
		argNames := make([]string, 0, len(f.Args))
		for aname := range f.Args {
			argNames = append(argNames, aname)
		}
		sort.Strings(argNames)
		for _, aname := range argNames {
			a := f.Args[aname]
			field.Arguments = append(field.Arguments, &InputValue{Name: aname, Type: convertTypeRef(a.TypeOf), DefaultValue: a.DefaultValue})
		}
		if t.Kind == TypeKindInputObject {
			t.InputFields = append(t.InputFields, &InputValue{Name: fname, Type: field.Type})
			continue
		}
		t.Fields = append(t.Fields, field)
	}
	return t
}

func convertTypeRef(t *config.TypeRef) *TypeRef {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case config.KindList:
		return ListType(convertTypeRef(t.OfType))
	case config.KindNonNull:
		return NonNullType(convertTypeRef(t.OfType))
	default:
		return NamedType(t.Named)
	}
}
