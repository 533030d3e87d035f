package blueprint

import (
	"fmt"
	"sort"

	"github.com/hanpama/protograph/internal/config"
	"github.com/hanpama/protograph/internal/resolverir"
)

// Build compiles a validated, merged ConfigModule into a Blueprint (spec
// §4.E "config_blueprint"). It runs, in order, the server, schema,
// definitions and upstream (batching defaults) passes, then registers
// implicit scalars and builds the field index. Links are resolved earlier,
// by config.ResolveLinks; there is no telemetry or compress pass. Grounded
// on the teacher's internal/ir/build.go, which runs
// the equivalent multi-pass, violation-accumulating builder over a single
// federated Project; here the passes assemble a Blueprint from one
// ConfigModule instead, since this system has no service-federation step
// beyond the ConfigModule merge already performed by internal/config.
func Build(module *config.ConfigModule) (*Blueprint, error) {
	bld := &builder{}
	bp := &Blueprint{Definitions: map[string]*Definition{}}

	bp.Server = buildServerInfo(module)
	bp.Schema = buildSchema(module.Config.Schema)

	for name, u := range module.Config.Unions {
		bp.Definitions[name] = &Definition{Kind: KindUnion, Name: name, UnionTypes: u.Types}
	}
	for name, e := range module.Config.Enums {
		bp.Definitions[name] = &Definition{Kind: KindEnum, Name: name, EnumValues: e.Values}
	}

	cc := newCompileCtx(module)

	for typeName, t := range module.Config.Types {
		checkNotProtectedInput(bld, module.Cache, typeName, t)

		kind := classifyDefinitionKind(module.Cache, typeName)
		def := &Definition{Kind: kind, Name: typeName, Implements: t.Implements, Fields: map[string]*Field{}}

		for fieldName, f := range t.Fields {
			field, err := buildField(cc, module, bld, typeName, t, fieldName, f)
			if err != nil {
				bld.fail(err.Error(), typeName, fieldName)
				continue
			}
			if field == nil {
				continue // f.Omit
			}
			def.Fields[fieldName] = field
		}
		bp.Definitions[typeName] = def
	}

	for typeName, def := range bp.Definitions {
		if def.Kind == KindInterface {
			def.PossibleTypes = possibleTypesOf(module, typeName)
		}
	}

	bp.Upstream = buildUpstreamInfo(module.Config.Upstream)
	registerImplicitScalars(bp)
	bp.buildIndex()

	if err := bld.err(); err != nil {
		return nil, err
	}
	return bp, nil
}

// registerImplicitScalars adds a KindScalar Definition for every named type
// referenced by a field or argument that the config never declares as an
// object/interface/input/union/enum — String, Int, Float, Boolean, ID and
// any custom scalar all reach the Blueprint this way, since GraphQL scalars
// carry no field declarations of their own. Grounded on the teacher's
// internal/ir/builtin.go, which seeds the same five built-in names into its
// federated Project before the builder runs.
func registerImplicitScalars(bp *Blueprint) {
	missing := map[string]bool{}
	var visit func(t *config.TypeRef)
	visit = func(t *config.TypeRef) {
		if t == nil {
			return
		}
		if t.Kind != config.KindNamed {
			visit(t.OfType)
			return
		}
		if _, ok := bp.Definitions[t.Named]; !ok {
			missing[t.Named] = true
		}
	}
	for _, def := range bp.Definitions {
		for _, f := range def.Fields {
			visit(f.TypeOf)
			for _, a := range f.Args {
				visit(a.TypeOf)
			}
		}
	}
	for name := range missing {
		bp.Definitions[name] = &Definition{Kind: KindScalar, Name: name}
	}
}

func classifyDefinitionKind(cache *config.ModuleCache, typeName string) DefinitionKind {
	if cache.InterfaceTypes[typeName] {
		return KindInterface
	}
	if cache.InputTypes[typeName] && !cache.OutputTypes[typeName] {
		return KindInputObject
	}
	return KindObject
}

func buildField(cc *compileCtx, module *config.ConfigModule, bld *builder, typeName string, t *config.Type, fieldName string, f *config.Field) (*Field, error) {
	if f.Omit {
		return nil, nil
	}

	ir, err := cc.compile(typeName, fieldName)
	if err != nil {
		return nil, err
	}

	ir = applyCacheTTL(ir, cacheTTLFor(t, f))
	ir = applyProtection(t.Protected, f.Protected, ir)
	if len(f.Modify) > 0 {
		ir = resolverir.Map(ir, f.Modify)
	}

	baseName := f.TypeOf.BaseName()
	members := abstractMembers(module, baseName)
	if members != nil {
		d, derr := buildDiscriminator(module, members)
		if derr != nil {
			bld.fail(derr.Error(), typeName, fieldName)
		} else {
			ir = applyDiscriminator(d, ir)
		}
	}

	args := make(map[string]*Arg, len(f.Args))
	for argName, a := range f.Args {
		args[argName] = &Arg{TypeOf: a.Type, DefaultValue: a.DefaultValue}
	}

	return &Field{
		Name:      fieldName,
		TypeOf:    f.TypeOf,
		Args:      args,
		IR:        ir,
		Protected: mergeProviderIDs(t.Protected, f.Protected),
	}, nil
}

// abstractMembers returns the ordered member-type list for baseName if it
// names a union or an interface, or nil if it names neither (a concrete
// object/scalar/enum field needs no discriminator).
func abstractMembers(module *config.ConfigModule, baseName string) []string {
	if u, ok := module.Config.Unions[baseName]; ok {
		return u.Types
	}
	if module.Cache.InterfaceTypes[baseName] {
		return possibleTypesOf(module, baseName)
	}
	return nil
}

func possibleTypesOf(module *config.ConfigModule, ifaceName string) []string {
	var out []string
	for name, t := range module.Config.Types {
		if t.Implements[ifaceName] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func cacheTTLFor(t *config.Type, f *config.Field) int {
	if f.CacheTTL > 0 {
		return f.CacheTTL
	}
	return t.CacheTTL
}

func buildSchema(ref *config.SchemaRef) Schema {
	if ref == nil {
		return Schema{Query: "Query", Mutation: "Mutation", Subscription: "Subscription"}
	}
	s := Schema{Query: ref.Query, Mutation: ref.Mutation, Subscription: ref.Subscription}
	if s.Query == "" {
		s.Query = "Query"
	}
	return s
}

func buildServerInfo(module *config.ConfigModule) ServerInfo {
	info := ServerInfo{
		Auth:            module.Extensions.AuthProviders,
		GraphQLPath:     "/graphql",
		Port:            8080,
		IntrospectionOn: true,
	}
	if s := module.Config.Server; s != nil {
		if s.Port != 0 {
			info.Port = s.Port
		}
		if s.GraphQLPath != "" {
			info.GraphQLPath = s.GraphQLPath
		}
		info.IntrospectionOn = s.IntrospectionOn
		info.CORS = s.CORS
	}
	return info
}

// newCompileCtx builds a compileCtx whose compile function memoizes each
// (type, field) resolver compilation and detects @call cycles (spec §4.E;
// @call indirection can reference any sibling field, possibly compiled
// before or after the current one, so compilation is demand-driven rather
// than a single top-to-bottom pass).
func newCompileCtx(module *config.ConfigModule) *compileCtx {
	compiled := map[[2]string]*resolverir.IR{}
	compiling := map[[2]string]bool{}

	cc := &compileCtx{module: module}
	cc.compile = func(typeName, fieldName string) (*resolverir.IR, error) {
		key := [2]string{typeName, fieldName}
		if ir, ok := compiled[key]; ok {
			return ir, nil
		}
		if compiling[key] {
			return nil, fmt.Errorf("@call cycle detected at %s.%s", typeName, fieldName)
		}
		t, ok := module.Config.Types[typeName]
		if !ok {
			return nil, fmt.Errorf("@call references unknown type %q", typeName)
		}
		f, ok := t.Fields[fieldName]
		if !ok {
			return nil, fmt.Errorf("@call references unknown field %s.%s", typeName, fieldName)
		}
		compiling[key] = true
		ir, err := compileResolver(cc, typeName, fieldName, f.Resolver)
		delete(compiling, key)
		if err != nil {
			return nil, err
		}
		compiled[key] = ir
		return ir, nil
	}
	return cc
}
