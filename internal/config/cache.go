package config

// ModuleCache precomputes the input/output/interface classification every
// type needs before merge and Blueprint construction can proceed (spec
// §3.1 "ConfigModule wraps Config with a Cache").
type ModuleCache struct {
	InputTypes     map[string]bool
	OutputTypes    map[string]bool
	InterfaceTypes map[string]bool
}

// BuildCache classifies every named type by walking every field's TypeRef
// (output position) and every argument's TypeRef (input position), plus
// every declared `implements` relationship.
func BuildCache(cfg *Config) *ModuleCache {
	c := &ModuleCache{
		InputTypes:     map[string]bool{},
		OutputTypes:    map[string]bool{},
		InterfaceTypes: map[string]bool{},
	}

	for name, t := range cfg.Types {
		for iface := range t.Implements {
			c.InterfaceTypes[iface] = true
		}
		for _, f := range t.Fields {
			c.OutputTypes[f.TypeOf.BaseName()] = true
			for _, a := range f.Args {
				c.InputTypes[a.Type.BaseName()] = true
			}
		}
		// A type reachable only from schema roots (Query/Mutation/Subscription)
		// is still an output type even with no fields of its own (e.g. an
		// empty marker object); record it defensively.
		if len(t.Fields) == 0 {
			c.OutputTypes[name] = true
		}
	}
	return c
}

// IsAmbiguous reports whether name is classified as both input and output,
// the condition that forces the rename transform (spec §3.1, §4.F).
func (c *ModuleCache) IsAmbiguous(name string) bool {
	return c.InputTypes[name] && c.OutputTypes[name]
}
