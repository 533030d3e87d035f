package planner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hanpama/protograph/internal/config"
	"github.com/hanpama/protograph/internal/language"
)

// coerceVariableValues coerces the document's bound variables against
// their declared operation types (spec §4.G step 4 "bind mustache
// variables from document variables; fall back to default_value; enforce
// non-null"). Grounded on the teacher's executor/values.go
// coerceVariableValues, retargeted from schema.TypeRef to config.TypeRef
// and from plain errors to planner.ValidationError.
func coerceVariableValues(b *builder, enums map[string][]string, op *language.OperationDefinition, raw map[string]any) map[string]any {
	if raw == nil {
		raw = map[string]any{}
	}
	coerced := make(map[string]any, len(op.VariableDefinitions))
	for _, varDef := range op.VariableDefinitions {
		name := varDef.Variable
		t := typeRefFromAST(varDef.Type)
		val, ok := raw[name]
		if !ok {
			val, ok = raw[strings.TrimPrefix(name, "$")]
		}
		if !ok {
			if varDef.DefaultValue != nil {
				val = astValueToGo(varDef.DefaultValue)
			} else if t.IsNonNull() {
				b.fail(ValueRequired, fmt.Sprintf("variable $%s of required type %s was not provided", name, t.String()), "", "", name)
				continue
			} else {
				continue
			}
		}
		if val == nil && t.IsNonNull() {
			b.fail(ValueRequired, fmt.Sprintf("variable $%s of type %s cannot be null", name, t.String()), "", "", name)
			continue
		}
		cv, err := coerceValue(enums, val, t)
		if err != nil {
			b.fail(TypeMismatch, fmt.Sprintf("variable $%s: %v", name, err), "", "", name)
			continue
		}
		coerced[name] = cv
	}
	return coerced
}

// coerceArgumentValues binds and coerces one field's arguments (spec §4.G
// step 4, "Input resolver" post-transform). typeName/fieldName position
// violations for diagnostics.
func coerceArgumentValues(b *builder, enums map[string][]string, typeName, fieldName string, argDefs map[string]*argDef, args language.ArgumentList, variables map[string]any) map[string]any {
	coerced := make(map[string]any, len(argDefs))
	for _, arg := range args {
		def, ok := argDefs[arg.Name]
		if !ok {
			continue // unknown arguments are ignored, matching GraphQL's permissive argument binding
		}
		val := valueFromASTWithVars(arg.Value, variables)
		cv, err := coerceValue(enums, val, def.TypeOf)
		if err != nil {
			kind := TypeMismatch
			if _, isEnum := enums[def.TypeOf.BaseName()]; isEnum && val != nil {
				kind = EnumInvalid
			}
			b.fail(kind, fmt.Sprintf("argument %q: %v", arg.Name, err), typeName, fieldName, arg.Name)
			continue
		}
		coerced[arg.Name] = cv
	}
	for name, def := range argDefs {
		if _, ok := coerced[name]; ok {
			continue
		}
		if def.DefaultValue != nil {
			coerced[name] = def.DefaultValue
		} else if def.TypeOf.IsNonNull() {
			b.fail(ValueRequired, fmt.Sprintf("argument %q of required type %s was not provided", name, def.TypeOf.String()), typeName, fieldName, name)
		}
	}
	return coerced
}

// argDef is the subset of blueprint.Arg the planner needs, decoupled from
// the blueprint package's exact struct shape.
type argDef struct {
	TypeOf       *config.TypeRef
	DefaultValue any
}

func valueFromASTWithVars(value *language.Value, variables map[string]any) any {
	if value == nil {
		return nil
	}
	if value.Kind == language.Variable {
		name := value.Raw
		if v, ok := variables[name]; ok {
			return v
		}
		if v, ok := variables[strings.TrimPrefix(name, "$")]; ok {
			return v
		}
		return nil
	}
	return astValueToGo(value)
}

func astValueToGo(value *language.Value) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case language.IntValue:
		iv, _ := strconv.Atoi(value.Raw)
		return iv
	case language.FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case language.StringValue, language.BlockValue:
		return value.Raw
	case language.BooleanValue:
		return value.Raw == "true"
	case language.NullValue:
		return nil
	case language.EnumValue:
		return value.Raw
	case language.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = astValueToGo(c.Value)
		}
		return out
	case language.ObjectValue:
		m := make(map[string]any)
		for _, f := range value.Children {
			m[f.Name] = astValueToGo(f.Value)
		}
		return m
	default:
		return nil
	}
}

// coerceValue coerces a runtime value against a config.TypeRef, validating
// enum membership against the given enum table (spec §4.G "enforce
// non-null"; §4.H step 3 "enum membership"). Grounded on the teacher's
// executor/values.go coerceValue/coerceListValue/coerceTo* family.
func coerceValue(enums map[string][]string, value any, t *config.TypeRef) (any, error) {
	if t.IsNonNull() {
		if value == nil {
			return nil, fmt.Errorf("cannot provide null for non-null type %s", t.String())
		}
		return coerceValue(enums, value, t.OfType)
	}
	if value == nil {
		return nil, nil
	}
	if t.Kind == config.KindList {
		return coerceListValue(enums, value, t)
	}

	base := t.BaseName()
	if values, ok := enums[base]; ok {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("cannot coerce %v (%T) to enum %s", value, value, base)
		}
		for _, v := range values {
			if v == s {
				return s, nil
			}
		}
		return nil, fmt.Errorf("%q is not a valid value of enum %s", s, base)
	}

	switch base {
	case "Int":
		return coerceToInt(value)
	case "Float":
		return coerceToFloat(value)
	case "String":
		return coerceToString(value)
	case "Boolean":
		return coerceToBoolean(value)
	case "ID":
		return coerceToID(value)
	default:
		return value, nil
	}
}

func coerceListValue(enums map[string][]string, value any, listType *config.TypeRef) (any, error) {
	inner := listType.OfType
	if slice, ok := value.([]any); ok {
		out := make([]any, len(slice))
		for i, item := range slice {
			cv, err := coerceValue(enums, item, inner)
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil
	}
	cv, err := coerceValue(enums, value, inner)
	if err != nil {
		return nil, err
	}
	return []any{cv}, nil
}

func coerceToInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case float32:
		return int(v), nil
	case string:
		if iv, err := strconv.Atoi(v); err == nil {
			return iv, nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Int", value, value)
}

func coerceToFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		if fv, err := strconv.ParseFloat(v, 64); err == nil {
			return fv, nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Float", value, value)
}

func coerceToString(value any) (any, error) {
	if v, ok := value.(string); ok {
		return v, nil
	}
	return fmt.Sprintf("%v", value), nil
}

func coerceToBoolean(value any) (any, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Boolean", value, value)
}

func coerceToID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	default:
		return fmt.Sprintf("%v", value), nil
	}
}

// typeRefFromAST converts a gqlparser *ast.Type (a query's inline variable
// type syntax) into a config.TypeRef.
func typeRefFromAST(t *language.Type) *config.TypeRef {
	if t == nil {
		return nil
	}
	var ref *config.TypeRef
	if t.Elem != nil {
		ref = &config.TypeRef{Kind: config.KindList, OfType: typeRefFromAST(t.Elem)}
	} else {
		ref = &config.TypeRef{Kind: config.KindNamed, Named: t.NamedType}
	}
	if t.NonNull {
		return &config.TypeRef{Kind: config.KindNonNull, OfType: ref}
	}
	return ref
}
