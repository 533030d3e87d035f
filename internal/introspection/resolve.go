package introspection

import (
	"sort"

	"github.com/hanpama/protograph/internal/language"
)

// IsIntrospectionQuery reports whether every top-level field of set is one
// of the three meta-fields GraphQL servers must expose (__schema, __type,
// __typename). Real-world tooling (GraphiQL, codegen) commonly sends these
// standalone, so the server special-cases them and answers via Execute
// instead of compiling a planner.OperationPlan for a Blueprint that may not
// even declare the queried type.
func IsIntrospectionQuery(set language.SelectionSet) bool {
	found := false
	for _, s := range set {
		f, ok := s.(*language.Field)
		if !ok {
			continue
		}
		switch f.Name {
		case "__schema", "__type", "__typename":
			found = true
		default:
			return false
		}
	}
	return found
}

// Execute answers a top-level selection set made up only of __schema/__type
// fields against sch. It is a small dedicated walker rather than a trip
// through planner/executor, since the introspection meta-schema is fixed
// ahead of time and never touches resolverir, upstream calls or caching.
func Execute(sch *Schema, set language.SelectionSet, variables map[string]any) (map[string]any, []string) {
	var errs []string
	out := map[string]any{}
	for _, s := range set {
		f, ok := s.(*language.Field)
		if !ok {
			continue
		}
		name := f.Alias
		if name == "" {
			name = f.Name
		}
		switch f.Name {
		case "__typename":
			out[name] = "Query"
		case "__schema":
			out[name] = resolveSelection(sch, sch, f.SelectionSet, variables, &errs)
		case "__type":
			typeName, _ := argValue(f.Arguments, "name", variables).(string)
			t := sch.Types[typeName]
			if t == nil {
				out[name] = nil
				continue
			}
			out[name] = resolveSelection(sch, t, f.SelectionSet, variables, &errs)
		}
	}
	return out, errs
}

// resolveSelection walks one selection set against source, dispatching each
// field through resolveField. Lists and nested objects recurse directly
// since the introspection meta-schema has no abstract types of its own.
func resolveSelection(sch *Schema, source any, set language.SelectionSet, variables map[string]any, errs *[]string) map[string]any {
	if source == nil {
		return nil
	}
	out := map[string]any{}
	for _, s := range set {
		switch node := s.(type) {
		case *language.Field:
			name := node.Alias
			if name == "" {
				name = node.Name
			}
			if node.Name == "__typename" {
				out[name] = typeNameOf(source)
				continue
			}
			val, err := resolveField(sch, source, node.Name, node.Arguments, variables)
			if err != nil {
				*errs = append(*errs, err.Error())
				continue
			}
			out[name] = completeValue(sch, val, node.SelectionSet, variables, errs)
		case *language.InlineFragment:
			for k, v := range resolveSelection(sch, source, node.SelectionSet, variables, errs) {
				out[k] = v
			}
		}
	}
	return out
}

func completeValue(sch *Schema, val any, set language.SelectionSet, variables map[string]any, errs *[]string) any {
	if val == nil {
		return nil
	}
	if len(set) == 0 {
		return val
	}
	switch v := val.(type) {
	case []*Type:
		list := make([]any, len(v))
		for i, item := range v {
			list[i] = resolveSelection(sch, item, set, variables, errs)
		}
		return list
	case []*Field:
		list := make([]any, len(v))
		for i, item := range v {
			list[i] = resolveSelection(sch, item, set, variables, errs)
		}
		return list
	case []*InputValue:
		list := make([]any, len(v))
		for i, item := range v {
			list[i] = resolveSelection(sch, item, set, variables, errs)
		}
		return list
	case []*EnumValue:
		list := make([]any, len(v))
		for i, item := range v {
			list[i] = resolveSelection(sch, item, set, variables, errs)
		}
		return list
	case []*Directive:
		list := make([]any, len(v))
		for i, item := range v {
			list[i] = resolveSelection(sch, item, set, variables, errs)
		}
		return list
	default:
		return resolveSelection(sch, val, set, variables, errs)
	}
}

func typeNameOf(source any) string {
	switch source.(type) {
	case *Schema:
		return "__Schema"
	case *Type:
		return "__Type"
	case *Field:
		return "__Field"
	case *InputValue:
		return "__InputValue"
	case *EnumValue:
		return "__EnumValue"
	case *Directive:
		return "__Directive"
	case *TypeRef:
		return "__Type"
	default:
		return ""
	}
}

// resolveField resolves one field of the introspection meta-schema generically
// by switching on the Go type of source, mirroring the teacher's approach of
// keeping one central table instead of per-type Go interfaces.
func resolveField(sch *Schema, source any, field string, args language.ArgumentList, variables map[string]any) (any, error) {
	switch s := source.(type) {
	case *Schema:
		return resolveSchemaField(s, field)
	case *Type:
		return resolveTypeField(sch, s, field, args, variables)
	case *TypeRef:
		return resolveTypeRefField(sch, s, field)
	case *Field:
		return resolveFieldField(s, field)
	case *InputValue:
		return resolveInputValueField(s, field)
	case *EnumValue:
		return resolveEnumValueField(s, field)
	case *Directive:
		return resolveDirectiveField(s, field)
	default:
		return nil, nil
	}
}

func resolveSchemaField(s *Schema, field string) (any, error) {
	switch field {
	case "description":
		return s.Description, nil
	case "types":
		return resolveSchemaTypes(s), nil
	case "queryType":
		return s.GetQueryType(), nil
	case "mutationType":
		return s.GetMutationType(), nil
	case "subscriptionType":
		return s.GetSubscriptionType(), nil
	case "directives":
		return resolveSchemaDirectives(s), nil
	default:
		return nil, nil
	}
}

func resolveSchemaTypes(s *Schema) []*Type {
	names := make([]string, 0, len(s.Types))
	for name := range s.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*Type, len(names))
	for i, name := range names {
		out[i] = s.Types[name]
	}
	return out
}

func resolveSchemaDirectives(s *Schema) []*Directive {
	names := make([]string, 0, len(s.Directives))
	for name := range s.Directives {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*Directive, len(names))
	for i, name := range names {
		out[i] = s.Directives[name]
	}
	return out
}

func resolveTypeField(sch *Schema, t *Type, field string, args language.ArgumentList, variables map[string]any) (any, error) {
	switch field {
	case "kind":
		return string(t.Kind), nil
	case "name":
		return t.Name, nil
	case "description":
		return t.Description, nil
	case "fields":
		return resolveTypeFields(t, args, variables), nil
	case "interfaces":
		return resolveTypeInterfaces(sch, t), nil
	case "possibleTypes":
		return resolveTypePossibleTypes(sch, t), nil
	case "enumValues":
		return resolveTypeEnumValues(t, args, variables), nil
	case "inputFields":
		return resolveTypeInputFields(t), nil
	case "ofType":
		return nil, nil
	case "specifiedByURL":
		return t.SpecifiedByURL, nil
	case "isOneOf":
		return t.OneOf, nil
	default:
		return nil, nil
	}
}

func resolveTypeFields(t *Type, args language.ArgumentList, variables map[string]any) []*Field {
	if t.Kind != TypeKindObject && t.Kind != TypeKindInterface {
		return nil
	}
	includeDeprecated, _ := argValue(args, "includeDeprecated", variables).(bool)
	if includeDeprecated {
		return t.Fields
	}
	out := make([]*Field, 0, len(t.Fields))
	for _, f := range t.Fields {
		if !f.IsDeprecated {
			out = append(out, f)
		}
	}
	return out
}

func resolveTypeInterfaces(sch *Schema, t *Type) []*Type {
	if t.Kind != TypeKindObject && t.Kind != TypeKindInterface {
		return nil
	}
	return lookupTypes(sch, t.Interfaces)
}

func resolveTypePossibleTypes(sch *Schema, t *Type) []*Type {
	if t.Kind != TypeKindInterface && t.Kind != TypeKindUnion {
		return nil
	}
	return lookupTypes(sch, t.PossibleTypes)
}

func lookupTypes(sch *Schema, names []string) []*Type {
	out := make([]*Type, 0, len(names))
	for _, name := range names {
		if t := sch.Types[name]; t != nil {
			out = append(out, t)
		}
	}
	return out
}

func resolveTypeEnumValues(t *Type, args language.ArgumentList, variables map[string]any) []*EnumValue {
	if t.Kind != TypeKindEnum {
		return nil
	}
	includeDeprecated, _ := argValue(args, "includeDeprecated", variables).(bool)
	if includeDeprecated {
		return t.EnumValues
	}
	out := make([]*EnumValue, 0, len(t.EnumValues))
	for _, v := range t.EnumValues {
		if !v.IsDeprecated {
			out = append(out, v)
		}
	}
	return out
}

func resolveTypeInputFields(t *Type) []*InputValue {
	if t.Kind != TypeKindInputObject {
		return nil
	}
	return t.InputFields
}

// resolveTypeRefField serves the __Type shape for a field/argument type
// reference. A LIST/NON_NULL wrapper only ever answers kind/ofType; a NAMED
// leaf delegates everything beyond kind/name to the full *Type it names, so
// a query like `type { ofType { fields { name } } }` still reaches the real
// field list instead of dead-ending at the bare name.
func resolveTypeRefField(sch *Schema, ref *TypeRef, field string) (any, error) {
	switch field {
	case "kind":
		return string(ref.Kind), nil
	case "name":
		if ref.Kind == TypeRefKindNamed {
			return ref.Named, nil
		}
		return nil, nil
	case "ofType":
		if ref.Kind == TypeRefKindNamed {
			return nil, nil
		}
		return ref.OfType, nil
	default:
		if ref.Kind == TypeRefKindNamed {
			if t := sch.Types[ref.Named]; t != nil {
				return resolveTypeField(sch, t, field, nil, nil)
			}
		}
		return nil, nil
	}
}

func resolveFieldField(f *Field, field string) (any, error) {
	switch field {
	case "name":
		return f.Name, nil
	case "description":
		return f.Description, nil
	case "args":
		return resolveFieldArgs(f), nil
	case "type":
		return f.Type, nil
	case "isDeprecated":
		return f.IsDeprecated, nil
	case "deprecationReason":
		return resolveFieldDeprecationReason(f), nil
	default:
		return nil, nil
	}
}

func resolveFieldArgs(f *Field) []*InputValue { return f.Arguments }

func resolveFieldDeprecationReason(f *Field) any {
	if !f.IsDeprecated {
		return nil
	}
	return f.DeprecationReason
}

func resolveInputValueField(v *InputValue, field string) (any, error) {
	switch field {
	case "name":
		return v.Name, nil
	case "description":
		return v.Description, nil
	case "type":
		return v.Type, nil
	case "defaultValue":
		return resolveInputValueDefaultValue(v), nil
	case "isDeprecated":
		return v.IsDeprecated, nil
	case "deprecationReason":
		return resolveInputValueDeprecationReason(v), nil
	default:
		return nil, nil
	}
}

func resolveInputValueDefaultValue(v *InputValue) any {
	if v.DefaultValue == nil {
		return nil
	}
	return v.DefaultValue
}

func resolveInputValueDeprecationReason(v *InputValue) any {
	if !v.IsDeprecated {
		return nil
	}
	return v.DeprecationReason
}

func resolveEnumValueField(v *EnumValue, field string) (any, error) {
	switch field {
	case "name":
		return v.Name, nil
	case "description":
		return v.Description, nil
	case "isDeprecated":
		return v.IsDeprecated, nil
	case "deprecationReason":
		return resolveEnumValueDeprecationReason(v), nil
	default:
		return nil, nil
	}
}

func resolveEnumValueDeprecationReason(v *EnumValue) any {
	if !v.IsDeprecated {
		return nil
	}
	return v.DeprecationReason
}

func resolveDirectiveField(d *Directive, field string) (any, error) {
	switch field {
	case "name":
		return d.Name, nil
	case "description":
		return d.Description, nil
	case "locations":
		return resolveDirectiveLocations(d), nil
	case "args":
		return resolveDirectiveArgs(d), nil
	case "isRepeatable":
		return d.IsRepeatable, nil
	default:
		return nil, nil
	}
}

func resolveDirectiveLocations(d *Directive) []string { return d.Locations }
func resolveDirectiveArgs(d *Directive) []*InputValue { return d.Arguments }

// argValue extracts one literal or variable-bound argument value. The
// introspection meta-schema only ever takes String and Boolean arguments
// (__type(name:), fields(includeDeprecated:), enumValues(includeDeprecated:)),
// so this only needs to cover those two kinds plus variable indirection.
func argValue(args language.ArgumentList, name string, variables map[string]any) any {
	for _, a := range args {
		if a.Name != name {
			continue
		}
		if a.Value == nil {
			return nil
		}
		if a.Value.Kind == language.Variable {
			return variables[a.Value.Raw]
		}
		if a.Value.Kind == language.BooleanValue {
			return a.Value.Raw == "true"
		}
		return a.Value.Raw
	}
	return nil
}

