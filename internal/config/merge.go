package config

import "fmt"

// Merge folds any number of ConfigModules into one, applying the three
// merge modes from spec §4.F and finishing with the ambiguous-type rename
// transform. Modules are folded left to right; order decides which
// module's non-mergeable scalar settings (server port, schema roots) win
// when both specify one, and which side's field definition (type and
// resolver) is kept when both declare a field and required-ness does not
// pick one.
func Merge(modules ...*ConfigModule) (*ConfigModule, error) {
	if len(modules) == 0 {
		return nil, fmt.Errorf("config: Merge requires at least one module")
	}
	result := modules[0]
	var violations ValidationError
	for _, m := range modules[1:] {
		merged, vs, err := mergeTwo(result, m)
		if err != nil {
			return nil, err
		}
		violations = append(violations, vs...)
		result = merged
	}
	if len(violations) > 0 {
		return nil, violations
	}
	return applyAmbiguousRename(result), nil
}

func mergeTwo(a, b *ConfigModule) (*ConfigModule, []*Violation, error) {
	var violations []*Violation

	cfg := &Config{
		Server:   coalesceServer(a.Config.Server, b.Config.Server),
		Upstream: coalesceUpstream(a.Config.Upstream, b.Config.Upstream),
		Schema:   coalesceSchema(a.Config.Schema, b.Config.Schema),
		Types:    map[string]*Type{},
		Unions:   map[string]*Union{},
		Enums:    map[string]*Enum{},
		Links:    append(append([]*Link{}, a.Config.Links...), b.Config.Links...),
	}

	names := map[string]bool{}
	for n := range a.Config.Types {
		names[n] = true
	}
	for n := range b.Config.Types {
		names[n] = true
	}
	for name := range names {
		at, aok := a.Config.Types[name]
		bt, bok := b.Config.Types[name]
		switch {
		case aok && !bok:
			cfg.Types[name] = at
		case bok && !aok:
			cfg.Types[name] = bt
		default:
			isInput := a.Cache.InputTypes[name] || b.Cache.InputTypes[name]
			isOutput := a.Cache.OutputTypes[name] || b.Cache.OutputTypes[name]
			var merged *Type
			var vs []*Violation
			if isInput && !isOutput {
				merged, vs = mergeInputType(name, at, bt)
			} else {
				merged, vs = mergeOutputType(at, bt)
			}
			violations = append(violations, vs...)
			cfg.Types[name] = merged
		}
	}

	cfg.Unions = mergeUnions(a.Config.Unions, b.Config.Unions)
	cfg.Enums = mergeEnums(a.Config.Enums, b.Config.Enums, a.Cache, b.Cache)

	return NewModule(cfg), violations, nil
}

// mergeInputType intersects the field (and argument) sets, erroring when a
// field/arg's non-null-ness disagrees between sides (spec §4.F "Input merge
// (intersection): ... required-only-on-one-side is an error").
func mergeInputType(name string, a, b *Type) (*Type, []*Violation) {
	var violations []*Violation
	out := &Type{Fields: map[string]*Field{}, Implements: mergeStringSet(a.Implements, b.Implements)}

	for fname, af := range a.Fields {
		bf, ok := b.Fields[fname]
		if !ok {
			continue // intersection: drop fields absent on either side
		}
		if af.TypeOf.IsNonNull() != bf.TypeOf.IsNonNull() {
			violations = append(violations, violation(
				fmt.Sprintf("field %q is required on one side of the merge but not the other", fname), name, fname))
			continue
		}
		mergedArgs, vs := mergeArgsIntersection(name, fname, af.Args, bf.Args)
		violations = append(violations, vs...)
		out.Fields[fname] = &Field{TypeOf: af.TypeOf, Args: mergedArgs, Resolver: af.Resolver}
	}
	return out, violations
}

func mergeArgsIntersection(typeName, fieldName string, a, b map[string]*Arg) (map[string]*Arg, []*Violation) {
	var violations []*Violation
	out := map[string]*Arg{}
	for aname, aa := range a {
		ba, ok := b[aname]
		if !ok {
			continue
		}
		if aa.Type.IsNonNull() != ba.Type.IsNonNull() {
			violations = append(violations, violation(
				fmt.Sprintf("argument %q of field %q is required on one side of the merge but not the other", aname, fieldName), typeName, fieldName))
			continue
		}
		out[aname] = aa
	}
	return out, violations
}

// mergeOutputType unions the field set; where a field exists on both sides,
// required (non-null) wins (spec §4.F "Output merge (union): keep union of
// fields; required wins").
func mergeOutputType(a, b *Type) (*Type, []*Violation) {
	out := &Type{Fields: map[string]*Field{}, Implements: mergeStringSet(a.Implements, b.Implements)}
	for fname, af := range a.Fields {
		out.Fields[fname] = af
	}
	for fname, bf := range b.Fields {
		if af, ok := out.Fields[fname]; ok {
			if bf.TypeOf.IsNonNull() && !af.TypeOf.IsNonNull() {
				out.Fields[fname] = bf
			}
			continue
		}
		out.Fields[fname] = bf
	}
	return out, nil
}

func mergeStringSet(a, b map[string]bool) map[string]bool {
	out := map[string]bool{}
	for k := range a {
		out[k] = true
	}
	for k := range b {
		out[k] = true
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func mergeUnions(a, b map[string]*Union) map[string]*Union {
	out := map[string]*Union{}
	for n, u := range a {
		out[n] = u
	}
	for n, u := range b {
		if existing, ok := out[n]; ok {
			out[n] = &Union{Types: dedupeAppend(existing.Types, u.Types)}
			continue
		}
		out[n] = u
	}
	return out
}

// mergeEnums implements spec §4.F's enum rule: intersection when used only
// as input, union when used only as output, and (approximated here, since
// exact content-equality checking needs no further signal than the merged
// value lists) the union of both when used as both, the same posture taken
// for ambiguous object types pending the rename pass.
func mergeEnums(a, b map[string]*Enum, ac, bc *ModuleCache) map[string]*Enum {
	out := map[string]*Enum{}
	names := map[string]bool{}
	for n := range a {
		names[n] = true
	}
	for n := range b {
		names[n] = true
	}
	for name := range names {
		ae, aok := a[name]
		be, bok := b[name]
		switch {
		case aok && !bok:
			out[name] = ae
		case bok && !aok:
			out[name] = be
		default:
			isInput := ac.InputTypes[name] || bc.InputTypes[name]
			isOutput := ac.OutputTypes[name] || bc.OutputTypes[name]
			if isInput && !isOutput {
				out[name] = &Enum{Values: intersectStrings(ae.Values, be.Values)}
			} else {
				out[name] = &Enum{Values: dedupeAppend(ae.Values, be.Values)}
			}
		}
	}
	return out
}

func dedupeAppend(a, b []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func intersectStrings(a, b []string) []string {
	set := map[string]bool{}
	for _, s := range b {
		set[s] = true
	}
	out := make([]string, 0, len(a))
	for _, s := range a {
		if set[s] {
			out = append(out, s)
		}
	}
	return out
}

func coalesceServer(a, b *ServerConfig) *ServerConfig {
	if a != nil {
		return a
	}
	return b
}

func coalesceUpstream(a, b *UpstreamConfig) *UpstreamConfig {
	if a != nil {
		return a
	}
	return b
}

func coalesceSchema(a, b *SchemaRef) *SchemaRef {
	if a != nil {
		return a
	}
	return b
}
