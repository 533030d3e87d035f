// Package blueprint implements the fully-validated Blueprint model (spec
// §3.2, §4.E): one ConfigModule compiled once into typed definitions with a
// compiled resolverir.IR per field and an O(1) field index.
package blueprint

import (
	"github.com/hanpama/protograph/internal/auth"
	"github.com/hanpama/protograph/internal/config"
	"github.com/hanpama/protograph/internal/resolverir"
)

// DefinitionKind tags which SDL construct a Definition represents.
type DefinitionKind int

const (
	KindObject DefinitionKind = iota
	KindInterface
	KindInputObject
	KindScalar
	KindEnum
	KindUnion
)

// Field is one resolvable field: its declared type, its arguments, and the
// compiled resolverir.IR that produces its value (spec §3.2 "each with
// fully-resolved field metadata and a compiled IR per field").
type Field struct {
	Name      string
	TypeOf    *config.TypeRef
	Args      map[string]*Arg
	IR        *resolverir.IR
	Protected []string
}

// Arg is one resolved field argument.
type Arg struct {
	TypeOf       *config.TypeRef
	DefaultValue any
}

// Definition is one type-system declaration; which of the fields below are
// populated depends on Kind, as each field's comment notes (spec §9 "avoid dynamic
// dispatch per node by switching on the tag" applied to the type system
// too, mirroring the teacher's internal/ir.Definition shape).
type Definition struct {
	Kind DefinitionKind
	Name string

	Fields        map[string]*Field // Object, Interface, InputObject
	Implements    map[string]bool   // Object, Interface
	PossibleTypes []string          // Interface: declared implementers
	UnionTypes    []string          // Union: member types in declaration order
	EnumValues    []string          // Enum: value names in declaration order
}

// Schema names the root operation types.
type Schema struct {
	Query        string
	Mutation     string
	Subscription string
}

// ServerInfo carries the resolved auth providers and the other
// process-level settings the executor/server need (spec §3.2 "Blueprint =
// {definitions, server, upstream, schema, telemetry}").
type ServerInfo struct {
	Auth map[string]auth.Provider
	CORS *config.CORSConfig
	Port int
	GraphQLPath string
	IntrospectionOn bool
}

// UpstreamInfo carries the resolved batching/transport defaults applied
// during apply_batching.
type UpstreamInfo struct {
	Batch                resolverir.BatchPolicy
	CacheHeaderAllowlist []string
	EnableCacheControl   bool
}

// Blueprint is the fully-validated, immutable schema+resolver graph built
// once per process and shared by reference across every request (spec
// §3.2 "Lifecycle: built once from a ConfigModule; immutable thereafter").
type Blueprint struct {
	Definitions map[string]*Definition
	Schema      Schema
	Server      ServerInfo
	Upstream    UpstreamInfo

	// index provides O(1) lookup keyed by (parent_type_name, field_name)
	// (spec §4.E "Responsibility: ... a field index for O(1) lookup").
	index map[[2]string]*Field
}

// Field looks up a field by its declaring type and name.
func (b *Blueprint) Field(typeName, fieldName string) (*Field, bool) {
	f, ok := b.index[[2]string{typeName, fieldName}]
	return f, ok
}

func (b *Blueprint) buildIndex() {
	b.index = make(map[[2]string]*Field)
	for typeName, def := range b.Definitions {
		for fieldName, f := range def.Fields {
			b.index[[2]string{typeName, fieldName}] = f
		}
	}
}
