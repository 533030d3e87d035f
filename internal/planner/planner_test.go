package planner_test

import (
	"testing"

	"github.com/hanpama/protograph/internal/blueprint"
	"github.com/hanpama/protograph/internal/config"
	"github.com/hanpama/protograph/internal/language"
	"github.com/hanpama/protograph/internal/planner"
	"github.com/stretchr/testify/require"
)

func named(name string) *config.TypeRef { return &config.TypeRef{Kind: config.KindNamed, Named: name} }
func nonNull(t *config.TypeRef) *config.TypeRef {
	return &config.TypeRef{Kind: config.KindNonNull, OfType: t}
}

func buildBlueprint(t *testing.T, cfg *config.Config) *blueprint.Blueprint {
	t.Helper()
	bp, err := blueprint.Build(config.NewModule(cfg))
	require.NoError(t, err)
	return bp
}

func mustParse(t *testing.T, q string) *language.QueryDocument {
	t.Helper()
	doc, err := language.ParseQuery(q)
	require.NoError(t, err)
	return doc
}

func baseConfig() *config.Config {
	return &config.Config{
		Types: map[string]*config.Type{
			"Query": {Fields: map[string]*config.Field{
				"name": {
					TypeOf: named("String"),
					Resolver: &config.Resolver{
						Kind:  config.ResolverConst,
						Const: "alice",
					},
				},
				"greet": {
					TypeOf: named("String"),
					Args: map[string]*config.Arg{
						"loud": {Type: nonNull(named("Boolean"))},
					},
					Resolver: &config.Resolver{
						Kind:  config.ResolverConst,
						Const: "hi",
					},
				},
				"status": {
					TypeOf: named("Status"),
					Resolver: &config.Resolver{
						Kind:  config.ResolverConst,
						Const: "ACTIVE",
					},
				},
			}},
		},
		Enums: map[string]*config.Enum{
			"Status": {Values: []string{"ACTIVE", "INACTIVE"}},
		},
	}
}

func TestPlan_ConstFieldIsPrecomputed(t *testing.T) {
	bp := buildBlueprint(t, baseConfig())
	doc := mustParse(t, `{ name }`)

	plan, err := planner.Plan(bp, doc, "", nil)
	require.NoError(t, err)
	require.Len(t, plan.Children, 1)

	f := plan.Children[0]
	require.Equal(t, "name", f.ResponseName)
	require.True(t, f.IsConst)
	require.Equal(t, "alice", f.ConstValue)
	require.Equal(t, -1, f.ParentID)
}

func TestPlan_UnknownFieldFails(t *testing.T) {
	bp := buildBlueprint(t, baseConfig())
	doc := mustParse(t, `{ nope }`)

	_, err := planner.Plan(bp, doc, "", nil)
	require.Error(t, err)
	var verr planner.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, planner.UnknownField, verr[0].Kind)
}

func TestPlan_MissingRequiredArgumentFails(t *testing.T) {
	bp := buildBlueprint(t, baseConfig())
	doc := mustParse(t, `{ greet }`)

	_, err := planner.Plan(bp, doc, "", nil)
	require.Error(t, err)
	var verr planner.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, planner.ValueRequired, verr[0].Kind)
}

func TestPlan_EnumMembershipIsValidated(t *testing.T) {
	cfg := baseConfig()
	cfg.Types["Query"].Fields["setStatus"] = &config.Field{
		TypeOf: named("String"),
		Args: map[string]*config.Arg{
			"status": {Type: nonNull(named("Status"))},
		},
		Resolver: &config.Resolver{Kind: config.ResolverConst, Const: "ok"},
	}
	bp2 := buildBlueprint(t, cfg)
	doc2 := mustParse(t, `{ setStatus(status: BOGUS) }`)
	_, err2 := planner.Plan(bp2, doc2, "", nil)
	require.Error(t, err2)
	var verr planner.ValidationError
	require.ErrorAs(t, err2, &verr)
	require.Equal(t, planner.EnumInvalid, verr[0].Kind)
}

func TestPlan_SkipDirectiveDropsField(t *testing.T) {
	bp := buildBlueprint(t, baseConfig())
	doc := mustParse(t, `{ name @skip(if: true) status }`)

	plan, err := planner.Plan(bp, doc, "", nil)
	require.NoError(t, err)
	require.Len(t, plan.Children, 1)
	require.Equal(t, "status", plan.Children[0].ResponseName)
}

func TestPlan_NestedSelectionBuildsParentLinks(t *testing.T) {
	cfg := &config.Config{
		Types: map[string]*config.Type{
			"User": {Fields: map[string]*config.Field{
				"id": {
					TypeOf:   nonNull(named("ID")),
					Resolver: &config.Resolver{Kind: config.ResolverConst, Const: "1"},
				},
			}},
			"Query": {Fields: map[string]*config.Field{
				"me": {
					TypeOf:   named("User"),
					Resolver: &config.Resolver{Kind: config.ResolverConst, Const: map[string]any{"id": "1"}},
				},
			}},
		},
	}
	bp := buildBlueprint(t, cfg)
	doc := mustParse(t, `{ me { id } }`)

	plan, err := planner.Plan(bp, doc, "", nil)
	require.NoError(t, err)
	require.Len(t, plan.Children, 1)

	me := plan.Children[0]
	require.Equal(t, "me", me.ResponseName)
	require.Len(t, me.Children, 1)

	id := me.Children[0]
	require.Equal(t, "id", id.ResponseName)
	require.Equal(t, me.ID, id.ParentID)

	require.Len(t, plan.Parent, 2)
	require.Same(t, plan.FieldByID(id.ID), id)
}
