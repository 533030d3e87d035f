package blueprint_test

import (
	"testing"

	"github.com/hanpama/protograph/internal/blueprint"
	"github.com/hanpama/protograph/internal/config"
	"github.com/hanpama/protograph/internal/resolverir"
	"github.com/stretchr/testify/require"
)

func named(name string) *config.TypeRef { return &config.TypeRef{Kind: config.KindNamed, Named: name} }
func nonNull(t *config.TypeRef) *config.TypeRef {
	return &config.TypeRef{Kind: config.KindNonNull, OfType: t}
}

func TestBuild_CompilesHTTPFieldWithCacheAndProtect(t *testing.T) {
	cfg := &config.Config{
		Types: map[string]*config.Type{
			"Query": {
				CacheTTL:  30,
				Protected: []string{"basic"},
				Fields: map[string]*config.Field{
					"me": {
						TypeOf: named("String"),
						Resolver: &config.Resolver{
							Kind: config.ResolverHTTP,
							HTTP: &config.HTTPResolver{URL: "https://api.example.com/me", Method: "GET"},
						},
					},
				},
			},
		},
	}
	bp, err := blueprint.Build(config.NewModule(cfg))
	require.NoError(t, err)

	field, ok := bp.Field("Query", "me")
	require.True(t, ok)
	require.Equal(t, resolverir.KindProtect, field.IR.Kind)
	require.Equal(t, []string{"basic"}, field.IR.ProtectProviderIDs)
	require.Equal(t, resolverir.KindCache, field.IR.ProtectInner.Kind)
}

func TestBuild_UnionFieldGetsDiscriminator(t *testing.T) {
	cfg := &config.Config{
		Unions: map[string]*config.Union{
			"SearchResult": {Types: []string{"User", "Post"}},
		},
		Types: map[string]*config.Type{
			"User": {Fields: map[string]*config.Field{
				"name": {TypeOf: named("String")},
			}},
			"Post": {Fields: map[string]*config.Field{
				"title": {TypeOf: named("String")},
			}},
			"Query": {Fields: map[string]*config.Field{
				"search": {
					TypeOf: named("SearchResult"),
					Resolver: &config.Resolver{
						Kind: config.ResolverConst,
						Const: map[string]any{"name": "alice"},
					},
				},
			}},
		},
	}
	bp, err := blueprint.Build(config.NewModule(cfg))
	require.NoError(t, err)

	field, ok := bp.Field("Query", "search")
	require.True(t, ok)
	require.Equal(t, resolverir.KindDiscriminate, field.IR.Kind)
	require.NotNil(t, field.IR.Discriminator)
}

func TestBuild_CallMacroInlinesArgsRebinding(t *testing.T) {
	cfg := &config.Config{
		Types: map[string]*config.Type{
			"Query": {Fields: map[string]*config.Field{
				"userByID": {
					TypeOf: named("String"),
					Args:   map[string]*config.Arg{"id": {Type: nonNull(named("ID"))}},
					Resolver: &config.Resolver{
						Kind: config.ResolverHTTP,
						HTTP: &config.HTTPResolver{URL: "https://api.example.com/users/{{args.id}}", Method: "GET"},
					},
				},
				"me": {
					TypeOf: named("String"),
					Resolver: &config.Resolver{
						Kind: config.ResolverCall,
						Call: &config.CallResolver{
							Type:  "Query",
							Field: "userByID",
							Args:  map[string]string{"vars.currentUserID": "id"},
						},
					},
				},
			}},
		},
	}
	bp, err := blueprint.Build(config.NewModule(cfg))
	require.NoError(t, err)

	field, ok := bp.Field("Query", "me")
	require.True(t, ok)
	require.Equal(t, resolverir.KindArgs, field.IR.Kind)
	require.Equal(t, "vars.currentUserID", field.IR.ArgsMap["id"])
	require.Equal(t, resolverir.KindIO, field.IR.ArgsInner.Kind)
}

func TestBuild_ProtectedInputTypeIsViolation(t *testing.T) {
	cfg := &config.Config{
		Types: map[string]*config.Type{
			"Filter": {
				Protected: []string{"basic"},
				Fields:    map[string]*config.Field{"q": {TypeOf: named("String")}},
			},
			"Query": {Fields: map[string]*config.Field{
				"search": {
					TypeOf: named("String"),
					Args:   map[string]*config.Arg{"filter": {Type: named("Filter")}},
				},
			}},
		},
	}
	_, err := blueprint.Build(config.NewModule(cfg))
	require.Error(t, err)
	var verr blueprint.ValidationError
	require.ErrorAs(t, err, &verr)
}
