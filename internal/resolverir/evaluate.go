package resolverir

import (
	"fmt"

	"github.com/hanpama/protograph/internal/discriminator"
	"github.com/hanpama/protograph/internal/evalctx"
)

// Evaluate dispatches on node.Kind and implements every combinator's
// semantics (spec §4.A). It never panics on a well-formed tree; an unknown
// Kind is a Blueprint-build bug and is reported as ErrOther rather than
// crashing a live request, and a nil node evaluates to an empty Result.
func Evaluate(ctx evalctx.Context, env *Env, node *IR) (Result, error) {
	if node == nil {
		return Result{}, nil
	}
	switch node.Kind {
	case KindDynamic:
		return evalDynamic(ctx, node)
	case KindIO:
		return evalIO(ctx, env, node.IO)
	case KindCache:
		return evalCache(ctx, env, node)
	case KindPath:
		return evalPath(ctx, node.Segments)
	case KindContextPath:
		return evalContextPath(ctx, node.Segments)
	case KindMap:
		return evalMap(ctx, env, node)
	case KindPipe:
		return evalPipe(ctx, env, node)
	case KindProtect:
		return evalProtect(ctx, env, node)
	case KindDiscriminate:
		return evalDiscriminate(ctx, env, node)
	case KindExpr:
		return evalExpr(ctx, env, node.Expr)
	case KindArgs:
		return evalArgs(ctx, env, node)
	default:
		return Result{}, OtherError(fmt.Sprintf("unknown IR kind %d", node.Kind), nil)
	}
}

func evalDynamic(ctx evalctx.Context, node *IR) (Result, error) {
	v, err := node.Dynamic.Render(ctx)
	if err != nil {
		return Result{}, OtherError("rendering dynamic value", err)
	}
	return Result{Value: v}, nil
}

func evalIO(ctx evalctx.Context, env *Env, io *IONode) (Result, error) {
	v, err := evaluateIO(ctx, env, io)
	if err != nil {
		return Result{}, err
	}
	return Result{Value: v}, nil
}

// evalCache wraps a single IO call with key-based lookup and write-through
// (spec §4.A "Cache(max_age, io)", §4.C "Cache key"). max_age == 0 disables
// caching outright rather than caching with a zero TTL (decided in
// DESIGN.md's Open Question log).
func evalCache(ctx evalctx.Context, env *Env, node *IR) (Result, error) {
	if node.CacheMaxAge <= 0 || env.Cache == nil {
		v, err := evaluateIO(ctx, env, node.CacheIO)
		if err != nil {
			return Result{}, err
		}
		return Result{Value: v}, nil
	}

	key, ok := cacheKeyFor(ctx, node.CacheIO, env.CacheHeaderAllowlist)
	if ok {
		if raw, hit := env.Cache.Get(key); hit {
			v, err := decodeCachedValue(raw)
			if err == nil {
				return Result{Value: v}, nil
			}
		}
	}

	v, err := evaluateIO(ctx, env, node.CacheIO)
	if err != nil {
		return Result{}, err
	}
	if ok {
		if raw, encErr := encodeCachedValue(v); encErr == nil {
			env.Cache.Set(key, raw, node.CacheMaxAge)
		}
	}
	return Result{Value: v}, nil
}

func evalPath(ctx evalctx.Context, segments []string) (Result, error) {
	v, _ := lookupPathValue(ctx.GraphQL.Value, segments)
	return Result{Value: v}, nil
}

func evalContextPath(ctx evalctx.Context, segments []string) (Result, error) {
	if len(segments) == 0 {
		return Result{}, nil
	}
	s, ok := ctx.PathString(segments)
	if !ok {
		return Result{Value: nil}, nil
	}
	return Result{Value: s}, nil
}

// evalMap evaluates inner and, when the result is a string present in kv,
// substitutes the mapped value; any other result (missing key, non-string
// value) passes through unchanged (spec §4.A "Map").
func evalMap(ctx evalctx.Context, env *Env, node *IR) (Result, error) {
	inner, err := Evaluate(ctx, env, node.MapInner)
	if err != nil {
		return Result{}, err
	}
	s, ok := inner.Value.(string)
	if !ok {
		return inner, nil
	}
	if mapped, found := node.MapKV[s]; found {
		inner.Value = mapped
	}
	return inner, nil
}

// evalPipe evaluates left, then evaluates right with left's result bound as
// the new parent value (spec §4.A "Pipe").
func evalPipe(ctx evalctx.Context, env *Env, node *IR) (Result, error) {
	left, err := Evaluate(ctx, env, node.PipeLeft)
	if err != nil {
		return Result{}, err
	}
	return Evaluate(ctx.WithValue(left.Value), env, node.PipeRight)
}

// evalProtect authenticates the request against every named provider before
// evaluating inner, short-circuiting with an AuthError on the first
// rejection (spec §4.A "Protect").
func evalProtect(ctx evalctx.Context, env *Env, node *IR) (Result, error) {
	for _, id := range node.ProtectProviderIDs {
		provider, ok := env.Auth[id]
		if !ok {
			return Result{}, OtherError(fmt.Sprintf("no auth provider registered for %q", id), nil)
		}
		if err := provider.Authenticate(ctx.Request.Ctx, ctx.Request); err != nil {
			return Result{}, AuthError(err)
		}
	}
	return Evaluate(ctx, env, node.ProtectInner)
}

// evalDiscriminate evaluates inner, then tags the result with the resolved
// concrete type name(s) for GraphQL __typename resolution (spec §4.A
// "Discriminate", §4.I).
func evalDiscriminate(ctx evalctx.Context, env *Env, node *IR) (Result, error) {
	inner, err := Evaluate(ctx, env, node.DiscInner)
	if err != nil {
		return Result{}, err
	}
	if node.Discriminator == nil {
		return inner, nil
	}

	if list, ok := inner.Value.([]any); ok {
		names := make([]string, len(list))
		for i, item := range list {
			name, rerr := node.Discriminator.Resolve(discMapPresence(item))
			if rerr != nil {
				return Result{}, OtherError("resolving discriminated type", rerr)
			}
			names[i] = name
		}
		inner.TypeNames = names
		return inner, nil
	}

	name, rerr := node.Discriminator.Resolve(discMapPresence(inner.Value))
	if rerr != nil {
		return Result{}, OtherError("resolving discriminated type", rerr)
	}
	inner.TypeName = name
	return inner, nil
}

func discMapPresence(v any) discriminator.MapPresence {
	m, _ := v.(map[string]any)
	return discriminator.MapPresence(m)
}

// evalExpr implements the supplemented @expr combinator: a conditional
// branch when If is set, otherwise a string concatenation of Concat
// (SPEC_FULL "Supplemented features" #2).
func evalExpr(ctx evalctx.Context, env *Env, expr *ExprNode) (Result, error) {
	if expr == nil {
		return Result{}, nil
	}
	if expr.If != nil {
		cond, err := Evaluate(ctx, env, expr.If)
		if err != nil {
			return Result{}, err
		}
		if truthy(cond.Value) {
			return Evaluate(ctx, env, expr.Then)
		}
		return Evaluate(ctx, env, expr.Else)
	}

	var out string
	for _, part := range expr.Concat {
		r, err := Evaluate(ctx, env, part)
		if err != nil {
			return Result{}, err
		}
		out += stringifyAny(r.Value)
	}
	return Result{Value: out}, nil
}

// evalArgs rebinds the argument map seen by Inner, resolving each source
// path against the caller's own context before descending (the inlined
// @call macro, see IR.ArgsMap's doc comment).
func evalArgs(ctx evalctx.Context, env *Env, node *IR) (Result, error) {
	newArgs := make(map[string]any, len(node.ArgsMap))
	for target, src := range node.ArgsMap {
		newArgs[target] = resolveArgSource(ctx, src)
	}
	return Evaluate(ctx.WithArgs(newArgs), env, node.ArgsInner)
}

func resolveArgSource(ctx evalctx.Context, path string) any {
	segs := splitDotted(path)
	if len(segs) == 0 {
		return nil
	}
	switch segs[0] {
	case "args":
		v, _ := lookupPathValue(anyMap(ctx.GraphQL.Args), segs[1:])
		return v
	case "value":
		v, _ := lookupPathValue(ctx.GraphQL.Value, segs[1:])
		return v
	case "vars":
		if ctx.Request == nil {
			return nil
		}
		v, _ := lookupPathValue(anyMap(ctx.Request.Variables), segs[1:])
		return v
	default:
		return nil
	}
}

func anyMap(m map[string]any) any {
	if m == nil {
		return nil
	}
	return m
}

func splitDotted(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	default:
		return true
	}
}

func stringifyAny(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func lookupPathValue(root any, segments []string) (any, bool) {
	cur := root
	for _, seg := range segments {
		switch m := cur.(type) {
		case map[string]any:
			v, ok := m[seg]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}
	return cur, true
}
