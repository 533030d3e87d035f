// Package config implements the Config/ConfigModule data model (spec §3.1):
// the author-facing, not-yet-validated description of a schema's types and
// their resolvers, together with the federation-style merge that combines
// several ConfigModules into one (spec §4.F).
package config

// TypeRef is a GraphQL type expression: a named type, optionally wrapped in
// List and/or NonNull (spec §3.1 "TypeRef carries base name, list-ness,
// non-null-ness"). Grounded on the teacher's internal/ir.TypeExpr shape.
type TypeRef struct {
	Kind   TypeRefKind
	Named  string
	OfType *TypeRef
}

type TypeRefKind string

const (
	KindNamed   TypeRefKind = "NAMED"
	KindList    TypeRefKind = "LIST"
	KindNonNull TypeRefKind = "NON_NULL"
)

// BaseName returns the innermost named type, unwrapping List/NonNull.
func (t *TypeRef) BaseName() string {
	if t == nil {
		return ""
	}
	if t.Kind == KindNamed {
		return t.Named
	}
	return t.OfType.BaseName()
}

func (t *TypeRef) String() string {
	if t == nil {
		return "Unknown"
	}
	switch t.Kind {
	case KindNamed:
		return t.Named
	case KindList:
		return "[" + t.OfType.String() + "]"
	case KindNonNull:
		return t.OfType.String() + "!"
	default:
		return "Unknown"
	}
}

func (t *TypeRef) IsNonNull() bool { return t != nil && t.Kind == KindNonNull }

// ResolverKind tags which of the closed resolver variants a Field carries
// (spec §3.1 "Resolver = one of Http|Grpc|GraphQL|Call|Expr|Const|Js|Protected").
type ResolverKind string

const (
	ResolverHTTP      ResolverKind = "Http"
	ResolverGRPC      ResolverKind = "Grpc"
	ResolverGraphQL   ResolverKind = "GraphQL"
	ResolverCall      ResolverKind = "Call"
	ResolverExpr      ResolverKind = "Expr"
	ResolverConst     ResolverKind = "Const"
	ResolverJS        ResolverKind = "Js"
	ResolverProtected ResolverKind = "Protected"
)

// Resolver is the exclusive, tagged resolver a Field carries (at most one
// per field after merge, per spec §3.1 invariant).
type Resolver struct {
	Kind ResolverKind

	HTTP    *HTTPResolver
	GRPC    *GRPCResolver
	GraphQL *GraphQLResolver
	Call    *CallResolver
	Expr    *ExprResolver
	Const   any
	JS      *JSResolver

	// Protected wraps an inner resolver with an auth requirement; it is
	// also expressible as Field.Protected (see below) — both forms are
	// accepted from configuration and normalized by the blueprint builder.
	Protected *ProtectedResolver
}

type HTTPResolver struct {
	URL         string
	Method      string
	Headers     map[string]string
	Query       map[string]string
	QuerySkip   map[string]bool
	Body        any
	Encoding    string
	GroupBy     []string
	ResponseValidation bool
}

type GRPCResolver struct {
	URL               string
	Headers           map[string]string
	Body              any
	Service           string
	Method            string
	FileDescriptorRef string
	GroupBy           []string
}

type GraphQLResolver struct {
	URL       string
	Headers   map[string]string
	Operation string // "query" | "mutation"
	FieldName string
	Args      map[string]string
	Batch     bool
}

// CallResolver is the supplemented @call macro (SPEC_FULL #2.5): it names
// another field to invoke and an argument-forwarding map, inlined into that
// field's own IR at Blueprint-build time rather than kept as a runtime node.
type CallResolver struct {
	Type  string
	Field string
	Args  map[string]string // local arg/value path -> target field's arg name
}

// ExprResolver is the supplemented @expr combinator (SPEC_FULL #2).
type ExprResolver struct {
	If     *ExprValue
	Then   *ExprValue
	Else   *ExprValue
	Concat []*ExprValue
}

// ExprValue is either a literal/templated value or a nested field path; the
// blueprint builder compiles each into a resolverir.IR leaf.
type ExprValue struct {
	Literal  any
	Resolver *Resolver
}

type JSResolver struct {
	Name string
}

type ProtectedResolver struct {
	ProviderIDs []string
	Inner       *Resolver
}

// Arg is one field argument declaration.
type Arg struct {
	Type         *TypeRef
	DefaultValue any
}

// Field is one object/interface field (spec §3.1 "Field").
type Field struct {
	TypeOf    *TypeRef
	Args      map[string]*Arg
	Resolver  *Resolver
	Modify    map[string]string // value -> value rewrite (IR Map)
	Omit      bool
	CacheTTL  int // seconds; 0 means "use Type.CacheTTL or no cache"
	Protected []string
}

// Type is one object/interface declaration (spec §3.1 "Type").
type Type struct {
	Fields      map[string]*Field
	Implements  map[string]bool
	AddedFields []string
	CacheTTL    int
	Protected   []string
	// Key lists federation-style entity key fields; carried for forward
	// compatibility with teacher-style service composition but unused by
	// this system's single-schema merge (spec §3.1 "key? (federation)").
	Key []string
}

// Union declares member types in declaration order (order feeds the
// discriminator's documented tie-break, spec §4.I step 5).
type Union struct {
	Types []string
}

// Enum declares value names in declaration order.
type Enum struct {
	Values []string
}

// LinkKind enumerates the @link target kinds (spec §6).
type LinkKind string

const (
	LinkConfig    LinkKind = "Config"
	LinkProtobuf  LinkKind = "Protobuf"
	LinkScript    LinkKind = "Script"
	LinkHtpasswd  LinkKind = "Htpasswd"
	LinkJwks      LinkKind = "Jwks"
	LinkOperation LinkKind = "Operation"
	LinkData      LinkKind = "Data"
)

// Link is one @link directive use (spec §3.1, §6).
type Link struct {
	Kind LinkKind
	Src  string // local path or URL
	ID   string // provider/link identifier, when applicable (auth providers)
}

// ServerConfig carries process-level server settings (SPEC_FULL ambient +
// supplemented CORS).
type ServerConfig struct {
	Port            int
	GraphQLPath     string
	IntrospectionOn bool
	CORS            *CORSConfig
}

// CORSConfig is the supplemented CORS policy (SPEC_FULL "Supplemented
// features" #1).
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	AllowCredentials bool
	MaxAgeSeconds    int
}

// UpstreamConfig carries default batching/transport parameters applied to
// every group_by IO node; no per-field override exists (spec §4.C, §4.E
// "apply_batching").
type UpstreamConfig struct {
	BatchDelayMS      int
	BatchMaxSize      int
	BatchDedupe       bool
	HTTPTimeoutMS     int
	CacheHeaderAllow  []string
	EnableCacheControl bool
}

// SchemaRef names the root operation types.
type SchemaRef struct {
	Query        string
	Mutation     string
	Subscription string
}

// Config is the author-facing, unvalidated schema description (spec §3.1).
type Config struct {
	Server   *ServerConfig
	Upstream *UpstreamConfig
	Schema   *SchemaRef
	Types    map[string]*Type
	Unions   map[string]*Union
	Enums    map[string]*Enum
	Links    []*Link
}
