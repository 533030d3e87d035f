package config

// applyAmbiguousRename resolves every type used as both input and output by
// cloning it under an "In_<Name>" alias and rewriting every argument
// reference (recursively, through nested argument types) to point at the
// alias, leaving output-position references untouched (spec §3.1 "a type is
// classified as input-only, output-only, interface, or both; 'both' ...
// triggers an ambiguity ... resolved by a rename transformation", §4.F,
// §8 scenario 6).
func applyAmbiguousRename(m *ConfigModule) *ConfigModule {
	ambiguous := map[string]string{}
	for name := range m.Config.Types {
		if m.Cache.InputTypes[name] && m.Cache.OutputTypes[name] {
			ambiguous["In_"+name] = name
			ambiguous[name] = name // marks name itself as needing arg-side rewrite
		}
	}
	if len(ambiguous) == 0 {
		return m
	}

	renameTo := map[string]string{}
	for alias, original := range ambiguous {
		if alias != original {
			renameTo[original] = alias
		}
	}
	if len(renameTo) == 0 {
		return m
	}

	for original, alias := range renameTo {
		m.Config.Types[alias] = cloneTypeForInput(m.Config.Types[original], renameTo)
	}

	for _, t := range m.Config.Types {
		for _, f := range t.Fields {
			for _, a := range f.Args {
				a.Type = rewriteTypeRef(a.Type, renameTo)
			}
		}
	}

	m.Cache = BuildCache(m.Config)
	return m
}

func cloneTypeForInput(t *Type, renameTo map[string]string) *Type {
	out := &Type{Fields: map[string]*Field{}, Implements: t.Implements}
	for name, f := range t.Fields {
		args := map[string]*Arg{}
		for aname, a := range f.Args {
			args[aname] = &Arg{Type: rewriteTypeRef(a.Type, renameTo), DefaultValue: a.DefaultValue}
		}
		out.Fields[name] = &Field{TypeOf: rewriteTypeRef(f.TypeOf, renameTo), Args: args}
	}
	return out
}

func rewriteTypeRef(t *TypeRef, renameTo map[string]string) *TypeRef {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case KindNamed:
		if alias, ok := renameTo[t.Named]; ok {
			return &TypeRef{Kind: KindNamed, Named: alias}
		}
		return t
	default:
		return &TypeRef{Kind: t.Kind, OfType: rewriteTypeRef(t.OfType, renameTo)}
	}
}
