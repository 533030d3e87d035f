package config_test

import (
	"testing"

	"github.com/hanpama/protograph/internal/config"
	"github.com/stretchr/testify/require"
)

func named(name string) *config.TypeRef { return &config.TypeRef{Kind: config.KindNamed, Named: name} }
func nonNull(t *config.TypeRef) *config.TypeRef {
	return &config.TypeRef{Kind: config.KindNonNull, OfType: t}
}

func TestMerge_AmbiguousTypeIsRenamedForInputPositions(t *testing.T) {
	a := config.NewModule(&config.Config{
		Types: map[string]*config.Type{
			"T": {Fields: map[string]*config.Field{"a": {TypeOf: named("String")}}},
			"Query": {Fields: map[string]*config.Field{
				"echo": {TypeOf: named("T"), Args: map[string]*config.Arg{"in": {Type: named("T")}}},
			}},
		},
	})

	merged, err := config.Merge(a)
	require.NoError(t, err)

	_, hasAlias := merged.Config.Types["In_T"]
	require.True(t, hasAlias, "expected an In_T alias for the ambiguous type")

	echoArgType := merged.Config.Types["Query"].Fields["echo"].Args["in"].Type
	require.Equal(t, "In_T", echoArgType.BaseName())

	echoReturnType := merged.Config.Types["Query"].Fields["echo"].TypeOf
	require.Equal(t, "T", echoReturnType.BaseName())
}

func TestMerge_OutputUnion_RequiredWins(t *testing.T) {
	a := config.NewModule(&config.Config{
		Types: map[string]*config.Type{
			"User": {Fields: map[string]*config.Field{"name": {TypeOf: named("String")}}},
			"Query": {Fields: map[string]*config.Field{"me": {TypeOf: named("User")}}},
		},
	})
	b := config.NewModule(&config.Config{
		Types: map[string]*config.Type{
			"User": {Fields: map[string]*config.Field{
				"name": {TypeOf: nonNull(named("String"))},
				"age":  {TypeOf: named("Int")},
			}},
			"Query": {Fields: map[string]*config.Field{"me": {TypeOf: named("User")}}},
		},
	})

	merged, err := config.Merge(a, b)
	require.NoError(t, err)

	userType := merged.Config.Types["User"]
	require.Len(t, userType.Fields, 2)
	require.True(t, userType.Fields["name"].TypeOf.IsNonNull())
}

func TestMerge_InputIntersection_RequiredMismatchErrors(t *testing.T) {
	a := config.NewModule(&config.Config{
		Types: map[string]*config.Type{
			"Filter": {Fields: map[string]*config.Field{"q": {TypeOf: nonNull(named("String"))}}},
			"Query":  {Fields: map[string]*config.Field{"search": {TypeOf: named("String"), Args: map[string]*config.Arg{"filter": {Type: named("Filter")}}}}},
		},
	})
	b := config.NewModule(&config.Config{
		Types: map[string]*config.Type{
			"Filter": {Fields: map[string]*config.Field{"q": {TypeOf: named("String")}}},
			"Query":  {Fields: map[string]*config.Field{"search": {TypeOf: named("String"), Args: map[string]*config.Arg{"filter": {Type: named("Filter")}}}}},
		},
	})

	_, err := config.Merge(a, b)
	require.Error(t, err)
	var verr config.ValidationError
	require.ErrorAs(t, err, &verr)
}
