package mustache_test

import (
	"testing"

	"github.com/hanpama/protograph/internal/mustache"
	"github.com/stretchr/testify/require"
)

func TestRender_NoExpressions_ByteForByte(t *testing.T) {
	tpl := mustache.Parse("https://api.example.com/health")
	got := mustache.Render(tpl, mustache.ResolverFunc(func([]string) (string, bool) { return "", false }))
	require.Equal(t, "https://api.example.com/health", got)
}

func TestRender_SubstitutesDottedPath(t *testing.T) {
	tpl := mustache.Parse("https://api/{{args.id}}")
	got := mustache.Render(tpl, mustache.ResolverFunc(func(p []string) (string, bool) {
		if len(p) == 2 && p[0] == "args" && p[1] == "id" {
			return "42", true
		}
		return "", false
	}))
	require.Equal(t, "https://api/42", got)
}

func TestRender_MissingPathRendersEmpty(t *testing.T) {
	tpl := mustache.Parse("tag={{value.tag}}")
	got := mustache.Render(tpl, mustache.ResolverFunc(func([]string) (string, bool) { return "", false }))
	require.Equal(t, "tag=", got)
}

func TestRender_WhitespaceTolerance(t *testing.T) {
	tpl := mustache.Parse("{{  args.id  }}")
	got := mustache.Render(tpl, mustache.ResolverFunc(func(p []string) (string, bool) {
		require.Equal(t, []string{"args", "id"}, p)
		return "ok", true
	}))
	require.Equal(t, "ok", got)
}

func TestIsStatic(t *testing.T) {
	require.True(t, mustache.Parse("no expr here").IsStatic())
	require.False(t, mustache.Parse("{{value.x}}").IsStatic())
}
