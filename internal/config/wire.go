package config

import "fmt"

// The wireXxx types mirror the on-disk YAML/JSON shape (spec §6
// "Configuration formats accepted ... JSON and YAML carrying the same
// object shape as SDL"). They exist only as a decode target: convert()
// turns them into the real Config model, parsing TypeRef strings and
// normalizing the (at most one populated) resolver variant.
type wireDocument struct {
	Server   *wireServer              `yaml:"server" json:"server"`
	Upstream *wireUpstream            `yaml:"upstream" json:"upstream"`
	Schema   *SchemaRef               `yaml:"schema" json:"schema"`
	Types    map[string]*wireType     `yaml:"types" json:"types"`
	Unions   map[string]*Union        `yaml:"unions" json:"unions"`
	Enums    map[string]*Enum         `yaml:"enums" json:"enums"`
	Links    []*wireLink              `yaml:"links" json:"links"`
}

type wireServer struct {
	Port            int         `yaml:"port" json:"port"`
	GraphQLPath     string      `yaml:"graphQLPath" json:"graphQLPath"`
	IntrospectionOn bool        `yaml:"introspection" json:"introspection"`
	CORS            *CORSConfig `yaml:"cors" json:"cors"`
}

type wireUpstream struct {
	BatchDelayMS       int      `yaml:"batchDelayMs" json:"batchDelayMs"`
	BatchMaxSize       int      `yaml:"batchMaxSize" json:"batchMaxSize"`
	BatchDedupe        bool     `yaml:"batchDedupe" json:"batchDedupe"`
	HTTPTimeoutMS      int      `yaml:"httpTimeoutMs" json:"httpTimeoutMs"`
	CacheHeaderAllow   []string `yaml:"cacheHeaderAllow" json:"cacheHeaderAllow"`
	EnableCacheControl bool     `yaml:"enableCacheControl" json:"enableCacheControl"`
}

type wireLink struct {
	Type LinkKind `yaml:"type" json:"type"`
	Src  string   `yaml:"src" json:"src"`
	ID   string   `yaml:"id" json:"id"`
}

type wireType struct {
	Fields      map[string]*wireField `yaml:"fields" json:"fields"`
	Implements  []string              `yaml:"implements" json:"implements"`
	AddedFields []string              `yaml:"addedFields" json:"addedFields"`
	CacheTTL    int                   `yaml:"cache" json:"cache"`
	Protected   []string              `yaml:"protected" json:"protected"`
	Key         []string              `yaml:"key" json:"key"`
}

type wireField struct {
	Type      string              `yaml:"type" json:"type"`
	Args      map[string]*wireArg `yaml:"args" json:"args"`
	Resolver  *wireResolver       `yaml:"resolver" json:"resolver"`
	Modify    map[string]string   `yaml:"modify" json:"modify"`
	Omit      bool                `yaml:"omit" json:"omit"`
	CacheTTL  int                 `yaml:"cache" json:"cache"`
	Protected []string            `yaml:"protected" json:"protected"`
}

type wireArg struct {
	Type    string `yaml:"type" json:"type"`
	Default any    `yaml:"default" json:"default"`
}

// wireResolver carries every resolver shape; convert keeps only the one
// populated by whichever key is present in the source document, mirroring
// the closed Resolver tagged-union (spec §3.1 "Resolver is exclusive").
type wireResolver struct {
	HTTP      *HTTPResolver      `yaml:"http" json:"http"`
	GRPC      *GRPCResolver      `yaml:"grpc" json:"grpc"`
	GraphQL   *GraphQLResolver   `yaml:"graphql" json:"graphql"`
	Call      *CallResolver      `yaml:"call" json:"call"`
	Expr      *ExprResolver      `yaml:"expr" json:"expr"`
	Const     any                `yaml:"const" json:"const"`
	JS        *JSResolver        `yaml:"js" json:"js"`
	Protected *ProtectedResolver `yaml:"protected" json:"protected"`
}

func (r *wireResolver) convert() *Resolver {
	if r == nil {
		return nil
	}
	switch {
	case r.HTTP != nil:
		return &Resolver{Kind: ResolverHTTP, HTTP: r.HTTP}
	case r.GRPC != nil:
		return &Resolver{Kind: ResolverGRPC, GRPC: r.GRPC}
	case r.GraphQL != nil:
		return &Resolver{Kind: ResolverGraphQL, GraphQL: r.GraphQL}
	case r.Call != nil:
		return &Resolver{Kind: ResolverCall, Call: r.Call}
	case r.Expr != nil:
		return &Resolver{Kind: ResolverExpr, Expr: r.Expr}
	case r.JS != nil:
		return &Resolver{Kind: ResolverJS, JS: r.JS}
	case r.Protected != nil:
		return &Resolver{Kind: ResolverProtected, Protected: r.Protected}
	case r.Const != nil:
		return &Resolver{Kind: ResolverConst, Const: r.Const}
	default:
		return nil
	}
}

func (d *wireDocument) convert() (*Config, error) {
	cfg := &Config{
		Schema: d.Schema,
		Types:  map[string]*Type{},
		Unions: d.Unions,
		Enums:  d.Enums,
	}
	if d.Server != nil {
		cfg.Server = &ServerConfig{
			Port: d.Server.Port, GraphQLPath: d.Server.GraphQLPath,
			IntrospectionOn: d.Server.IntrospectionOn, CORS: d.Server.CORS,
		}
	}
	if d.Upstream != nil {
		cfg.Upstream = &UpstreamConfig{
			BatchDelayMS: d.Upstream.BatchDelayMS, BatchMaxSize: d.Upstream.BatchMaxSize,
			BatchDedupe: d.Upstream.BatchDedupe, HTTPTimeoutMS: d.Upstream.HTTPTimeoutMS,
			CacheHeaderAllow: d.Upstream.CacheHeaderAllow, EnableCacheControl: d.Upstream.EnableCacheControl,
		}
	}
	for _, l := range d.Links {
		cfg.Links = append(cfg.Links, &Link{Kind: l.Type, Src: l.Src, ID: l.ID})
	}
	for name, wt := range d.Types {
		t := &Type{
			Fields: map[string]*Field{}, Implements: map[string]bool{},
			AddedFields: wt.AddedFields, CacheTTL: wt.CacheTTL, Protected: wt.Protected, Key: wt.Key,
		}
		for _, i := range wt.Implements {
			t.Implements[i] = true
		}
		for fname, wf := range wt.Fields {
			typeOf, err := ParseTypeRef(wf.Type)
			if err != nil {
				return nil, fmt.Errorf("config: type %s.%s: %w", name, fname, err)
			}
			f := &Field{
				TypeOf: typeOf, Args: map[string]*Arg{}, Resolver: wf.Resolver.convert(),
				Modify: wf.Modify, Omit: wf.Omit, CacheTTL: wf.CacheTTL, Protected: wf.Protected,
			}
			for aname, wa := range wf.Args {
				argType, err := ParseTypeRef(wa.Type)
				if err != nil {
					return nil, fmt.Errorf("config: type %s.%s(%s): %w", name, fname, aname, err)
				}
				f.Args[aname] = &Arg{Type: argType, DefaultValue: wa.Default}
			}
			t.Fields[fname] = f
		}
		cfg.Types[name] = t
	}
	return cfg, nil
}
