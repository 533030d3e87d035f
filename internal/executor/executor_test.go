package executor

import (
	"context"
	"testing"

	"github.com/hanpama/protograph/internal/auth"
	"github.com/hanpama/protograph/internal/blueprint"
	"github.com/hanpama/protograph/internal/config"
	"github.com/hanpama/protograph/internal/evalctx"
	"github.com/hanpama/protograph/internal/planner"
	"github.com/hanpama/protograph/internal/resolverir"
	"github.com/stretchr/testify/require"
)

func named(name string) *config.TypeRef { return &config.TypeRef{Kind: config.KindNamed, Named: name} }
func nonNull(t *config.TypeRef) *config.TypeRef {
	return &config.TypeRef{Kind: config.KindNonNull, OfType: t}
}
func list(t *config.TypeRef) *config.TypeRef { return &config.TypeRef{Kind: config.KindList, OfType: t} }

func buildBlueprint(t *testing.T, cfg *config.Config) *blueprint.Blueprint {
	t.Helper()
	bp, err := blueprint.Build(config.NewModule(cfg))
	require.NoError(t, err)
	return bp
}

func run(t *testing.T, bp *blueprint.Blueprint, env *resolverir.Env, query string) *ExecutionResult {
	t.Helper()
	doc := mustParseQuery(t, query)
	plan, err := planner.Plan(bp, doc, "", nil)
	require.NoError(t, err)
	if env == nil {
		env = &resolverir.Env{}
	}
	req := &evalctx.RequestContext{Ctx: context.Background()}
	exec := New(bp)
	return exec.Execute(context.Background(), env, plan, doc, req, "", nil)
}

func TestExecute_ConstField(t *testing.T) {
	cfg := &config.Config{Types: map[string]*config.Type{
		"Query": {Fields: map[string]*config.Field{
			"name": {
				TypeOf:   named("String"),
				Resolver: &config.Resolver{Kind: config.ResolverConst, Const: "alice"},
			},
		}},
	}}
	bp := buildBlueprint(t, cfg)
	res := run(t, bp, nil, `{ name }`)

	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{"name": "alice"}, res.Data)
}

func TestExecute_TemplatedProjectionFromParentValue(t *testing.T) {
	cfg := &config.Config{Types: map[string]*config.Type{
		"User": {Fields: map[string]*config.Field{
			"id": {
				TypeOf:   nonNull(named("ID")),
				Resolver: &config.Resolver{Kind: config.ResolverConst, Const: "{{value.id}}"},
			},
		}},
		"Query": {Fields: map[string]*config.Field{
			"me": {
				TypeOf:   named("User"),
				Resolver: &config.Resolver{Kind: config.ResolverConst, Const: map[string]any{"id": "42"}},
			},
		}},
	}}
	bp := buildBlueprint(t, cfg)
	res := run(t, bp, nil, `{ me { id } }`)

	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{"me": map[string]any{"id": "42"}}, res.Data)
}

func TestExecute_RootNonNullViolationNullsSlotAndReportsError(t *testing.T) {
	cfg := &config.Config{Types: map[string]*config.Type{
		"Query": {Fields: map[string]*config.Field{
			"user": {
				TypeOf:   nonNull(named("String")),
				Resolver: &config.Resolver{Kind: config.ResolverConst, Const: nil},
			},
			"other": {
				TypeOf:   named("String"),
				Resolver: &config.Resolver{Kind: config.ResolverConst, Const: "still here"},
			},
		}},
	}}
	bp := buildBlueprint(t, cfg)
	res := run(t, bp, nil, `{ user other }`)

	require.Len(t, res.Errors, 1)
	data, ok := res.Data.(map[string]any)
	require.True(t, ok)
	require.Nil(t, data["user"])
	require.Equal(t, "still here", data["other"])
}

// TestExecute_NonNullViolationStopsAtNearestNullableAncestor exercises the
// completeValue demotion directly: Query.a (nullable) -> a.wrapper
// (nullable) -> wrapper.user (NonNull) -> user.name (NonNull, resolves
// null). The violation propagates through user and must stop at wrapper,
// leaving a and its siblings intact.
func TestExecute_NonNullViolationStopsAtNearestNullableAncestor(t *testing.T) {
	cfg := &config.Config{Types: map[string]*config.Type{
		"User": {Fields: map[string]*config.Field{
			"name": {
				TypeOf:   nonNull(named("String")),
				Resolver: &config.Resolver{Kind: config.ResolverConst, Const: nil},
			},
		}},
		"Wrapper": {Fields: map[string]*config.Field{
			"user": {
				TypeOf:   nonNull(named("User")),
				Resolver: &config.Resolver{Kind: config.ResolverConst, Const: map[string]any{}},
			},
			"label": {
				TypeOf:   named("String"),
				Resolver: &config.Resolver{Kind: config.ResolverConst, Const: "wrapper-label"},
			},
		}},
		"Query": {Fields: map[string]*config.Field{
			"a": {
				TypeOf:   named("A"),
				Resolver: &config.Resolver{Kind: config.ResolverConst, Const: map[string]any{}},
			},
			"sibling": {
				TypeOf:   named("String"),
				Resolver: &config.Resolver{Kind: config.ResolverConst, Const: "ok"},
			},
		}},
		"A": {Fields: map[string]*config.Field{
			"wrapper": {
				TypeOf:   named("Wrapper"),
				Resolver: &config.Resolver{Kind: config.ResolverConst, Const: map[string]any{}},
			},
		}},
	}}
	bp := buildBlueprint(t, cfg)
	res := run(t, bp, nil, `{ a { wrapper { user { name } label } } sibling }`)

	require.Len(t, res.Errors, 1)
	data, ok := res.Data.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "ok", data["sibling"])

	a, ok := data["a"].(map[string]any)
	require.True(t, ok, "a must survive: the violation two levels down must not cascade past wrapper")
	require.Nil(t, a["wrapper"])
}

func TestExecute_ListCompletion(t *testing.T) {
	cfg := &config.Config{Types: map[string]*config.Type{
		"User": {Fields: map[string]*config.Field{
			"id": {
				TypeOf:   nonNull(named("ID")),
				Resolver: &config.Resolver{Kind: config.ResolverConst, Const: "{{value.id}}"},
			},
		}},
		"Query": {Fields: map[string]*config.Field{
			"users": {
				TypeOf: nonNull(list(nonNull(named("User")))),
				Resolver: &config.Resolver{Kind: config.ResolverConst, Const: []any{
					map[string]any{"id": "1"},
					map[string]any{"id": "2"},
				}},
			},
		}},
	}}
	bp := buildBlueprint(t, cfg)
	res := run(t, bp, nil, `{ users { id } }`)

	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{"users": []any{
		map[string]any{"id": "1"},
		map[string]any{"id": "2"},
	}}, res.Data)
}

func TestExecute_UnionDiscrimination(t *testing.T) {
	cfg := &config.Config{
		Types: map[string]*config.Type{
			"Book": {Fields: map[string]*config.Field{
				"title": {
					TypeOf:   nonNull(named("String")),
					Resolver: &config.Resolver{Kind: config.ResolverConst, Const: "{{value.title}}"},
				},
			}},
			"Author": {Fields: map[string]*config.Field{
				"name": {
					TypeOf:   nonNull(named("String")),
					Resolver: &config.Resolver{Kind: config.ResolverConst, Const: "{{value.name}}"},
				},
			}},
			"Query": {Fields: map[string]*config.Field{
				"search": {
					TypeOf:   named("SearchResult"),
					Resolver: &config.Resolver{Kind: config.ResolverConst, Const: map[string]any{"title": "Go"}},
				},
			}},
		},
		Unions: map[string]*config.Union{
			"SearchResult": {Types: []string{"Book", "Author"}},
		},
	}
	bp := buildBlueprint(t, cfg)
	res := run(t, bp, nil, `{ search { __typename ... on Book { title } ... on Author { name } } }`)

	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{"search": map[string]any{
		"__typename": "Book",
		"title":      "Go",
	}}, res.Data)
}

func TestExecute_ProtectedFieldAuthRejection(t *testing.T) {
	cfg := &config.Config{Types: map[string]*config.Type{
		"Query": {Fields: map[string]*config.Field{
			"secret": {
				TypeOf: named("String"),
				Resolver: &config.Resolver{
					Kind: config.ResolverProtected,
					Protected: &config.ProtectedResolver{
						ProviderIDs: []string{"basic"},
						Inner:       &config.Resolver{Kind: config.ResolverConst, Const: "classified"},
					},
				},
			},
		}},
	}}
	bp := buildBlueprint(t, cfg)
	env := &resolverir.Env{Auth: map[string]auth.Provider{
		"basic": &auth.Basic{Name: "basic", Credentials: map[string]string{"u": "p"}},
	}}
	res := run(t, bp, env, `{ secret }`)

	require.Len(t, res.Errors, 1)
	require.Equal(t, "AuthError", res.Errors[0].Extensions["code"])
	data, ok := res.Data.(map[string]any)
	require.True(t, ok)
	require.Nil(t, data["secret"])
}

func TestExecute_ProtectedFieldUnregisteredProviderIsOtherError(t *testing.T) {
	cfg := &config.Config{Types: map[string]*config.Type{
		"Query": {Fields: map[string]*config.Field{
			"secret": {
				TypeOf: named("String"),
				Resolver: &config.Resolver{
					Kind: config.ResolverProtected,
					Protected: &config.ProtectedResolver{
						ProviderIDs: []string{"missing"},
						Inner:       &config.Resolver{Kind: config.ResolverConst, Const: "classified"},
					},
				},
			},
		}},
	}}
	bp := buildBlueprint(t, cfg)
	res := run(t, bp, &resolverir.Env{}, `{ secret }`)

	require.Len(t, res.Errors, 1)
	require.Equal(t, "Other", res.Errors[0].Extensions["code"])
}
