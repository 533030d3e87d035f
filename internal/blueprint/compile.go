package blueprint

import (
	"fmt"
	"time"

	"github.com/hanpama/protograph/internal/config"
	"github.com/hanpama/protograph/internal/mustache"
	"github.com/hanpama/protograph/internal/reqtemplate"
	"github.com/hanpama/protograph/internal/resolverir"
)

// compileCtx carries the cross-field state a single field's resolver may
// need while compiling: the module being built (for @call target lookup)
// and the already-compiled IR of fields compiled earlier in this pass
// (@call only ever targets a sibling field, never itself, so a simple
// memo avoids recompiling shared targets).
type compileCtx struct {
	module  *config.ConfigModule
	compile func(typeName, fieldName string) (*resolverir.IR, error)
}

// compileResolver turns one config.Resolver into a resolverir.IR tree
// (spec §4.E "setFieldResolution", mirroring the teacher's
// internal/ir.build setFieldResolution pass that turns a directive into a
// FieldDefinition.Resolve* variant — here switched on ResolverKind instead
// since the resolver algebra in this system is the IR, not a directive
// list).
func compileResolver(cc *compileCtx, typeName, fieldName string, r *config.Resolver) (*resolverir.IR, error) {
	if r == nil {
		return nil, nil
	}
	switch r.Kind {
	case config.ResolverHTTP:
		return resolverir.IO(&resolverir.IONode{
			Kind:                resolverir.IOHttp,
			HTTP:                buildHTTPTemplate(r.HTTP),
			GroupBy:             r.HTTP.GroupBy,
			ResponseValidation:  r.HTTP.ResponseValidation,
		}), nil

	case config.ResolverGRPC:
		return resolverir.IO(&resolverir.IONode{
			Kind:    resolverir.IOGrpc,
			GRPC:    buildGRPCTemplate(r.GRPC),
			GroupBy: r.GRPC.GroupBy,
		}), nil

	case config.ResolverGraphQL:
		return resolverir.IO(&resolverir.IONode{
			Kind:    resolverir.IOGraphQL,
			GraphQL: buildGraphQLTemplate(r.GraphQL),
		}), nil

	case config.ResolverJS:
		return resolverir.IO(&resolverir.IONode{
			Kind:   resolverir.IOScript,
			Script: &reqtemplate.Script{Name: r.JS.Name},
		}), nil

	case config.ResolverConst:
		return resolverir.Dynamic(mustache.FromJSONLiteral(r.Const)), nil

	case config.ResolverExpr:
		return compileExpr(cc, typeName, fieldName, r.Expr)

	case config.ResolverProtected:
		inner, err := compileResolver(cc, typeName, fieldName, r.Protected.Inner)
		if err != nil {
			return nil, err
		}
		return resolverir.Protect(r.Protected.ProviderIDs, inner), nil

	case config.ResolverCall:
		return compileCall(cc, typeName, fieldName, r.Call)

	default:
		return nil, fmt.Errorf("blueprint: unknown resolver kind %q on %s.%s", r.Kind, typeName, fieldName)
	}
}

// compileCall inlines the supplemented @call macro (SPEC_FULL "Supplemented
// features" #2.5): it is never a runtime resolverir.Kind, only a build-time
// indirection that reuses the target field's already-compiled IR wrapped
// in a resolverir.Args rebinding node (@call never reaches the executor).
func compileCall(cc *compileCtx, typeName, fieldName string, c *config.CallResolver) (*resolverir.IR, error) {
	if c.Type == typeName && c.Field == fieldName {
		return nil, fmt.Errorf("blueprint: @call on %s.%s references itself", typeName, fieldName)
	}
	target, err := cc.compile(c.Type, c.Field)
	if err != nil {
		return nil, fmt.Errorf("blueprint: resolving @call target %s.%s for %s.%s: %w", c.Type, c.Field, typeName, fieldName, err)
	}
	remap := make(map[string]string, len(c.Args))
	for localPath, targetArg := range c.Args {
		remap[targetArg] = localPath
	}
	return resolverir.Args(remap, target), nil
}

func compileExpr(cc *compileCtx, typeName, fieldName string, e *config.ExprResolver) (*resolverir.IR, error) {
	if e == nil {
		return nil, fmt.Errorf("blueprint: empty @expr on %s.%s", typeName, fieldName)
	}
	node := &resolverir.ExprNode{}
	if e.If != nil {
		ifIR, err := compileExprValue(cc, typeName, fieldName, e.If)
		if err != nil {
			return nil, err
		}
		thenIR, err := compileExprValue(cc, typeName, fieldName, e.Then)
		if err != nil {
			return nil, err
		}
		elseIR, err := compileExprValue(cc, typeName, fieldName, e.Else)
		if err != nil {
			return nil, err
		}
		node.If, node.Then, node.Else = ifIR, thenIR, elseIR
		return resolverir.Expr(node), nil
	}
	for _, part := range e.Concat {
		partIR, err := compileExprValue(cc, typeName, fieldName, part)
		if err != nil {
			return nil, err
		}
		node.Concat = append(node.Concat, partIR)
	}
	return resolverir.Expr(node), nil
}

func compileExprValue(cc *compileCtx, typeName, fieldName string, v *config.ExprValue) (*resolverir.IR, error) {
	if v == nil {
		return resolverir.Dynamic(mustache.Const(nil)), nil
	}
	if v.Resolver != nil {
		return compileResolver(cc, typeName, fieldName, v.Resolver)
	}
	return resolverir.Dynamic(mustache.FromJSONLiteral(v.Literal)), nil
}

// applyCacheTTL wraps an IO-producing IR in a Cache combinator when a
// positive TTL applies, per spec §4.A "Cache(max_age, io)". Every IO node
// in the tree is replaced by a Cache node, including IO nodes nested under
// Protect, Expr, Args or another combinator; a tree with no IO node (a
// Const, say) comes back unchanged. The caller applies any type- or
// field-level Protect wrapper around the result.
func applyCacheTTL(ir *resolverir.IR, ttlSeconds int) *resolverir.IR {
	if ir == nil || ttlSeconds <= 0 {
		return ir
	}
	return resolverir.Modify(ir, func(n *resolverir.IR) *resolverir.IR {
		if n.Kind == resolverir.KindIO {
			return resolverir.Cache(time.Duration(ttlSeconds)*time.Second, n.IO)
		}
		return n
	})
}

func buildHTTPTemplate(r *config.HTTPResolver) *reqtemplate.HTTP {
	t := &reqtemplate.HTTP{
		URL:      mustache.Parse(r.URL),
		Method:   r.Method,
		Encoding: r.Encoding,
		GroupBy:  r.GroupBy,
	}
	for name, val := range r.Headers {
		t.Headers = append(t.Headers, reqtemplate.HTTPHeader{Name: name, Value: mustache.Parse(val)})
	}
	for name, val := range r.Query {
		t.Query = append(t.Query, reqtemplate.HTTPQueryParam{
			Name:        name,
			Value:       mustache.Parse(val),
			SkipIfEmpty: r.QuerySkip[name],
		})
	}
	if r.Body != nil {
		t.Body = mustache.FromJSONLiteral(r.Body)
	}
	return t
}

func buildGRPCTemplate(r *config.GRPCResolver) *reqtemplate.GRPC {
	t := &reqtemplate.GRPC{
		URL: mustache.Parse(r.URL),
		Operation: reqtemplate.GRPCOperation{
			Service:           r.Service,
			MethodName:        r.Method,
			FileDescriptorRef: r.FileDescriptorRef,
		},
		GroupBy: r.GroupBy,
	}
	for name, val := range r.Headers {
		t.Headers = append(t.Headers, reqtemplate.HTTPHeader{Name: name, Value: mustache.Parse(val)})
	}
	if r.Body != nil {
		t.Body = mustache.FromJSONLiteral(r.Body)
	}
	return t
}

func buildGraphQLTemplate(r *config.GraphQLResolver) *reqtemplate.GraphQL {
	opType := reqtemplate.GraphQLQuery
	if r.Operation == "mutation" {
		opType = reqtemplate.GraphQLMutation
	}
	t := &reqtemplate.GraphQL{
		URL:           mustache.Parse(r.URL),
		OperationType: opType,
		FieldName:     r.FieldName,
		Batch:         r.Batch,
	}
	for name, val := range r.Headers {
		t.Headers = append(t.Headers, reqtemplate.HTTPHeader{Name: name, Value: mustache.Parse(val)})
	}
	for name, val := range r.Args {
		t.Args = append(t.Args, reqtemplate.GraphQLArg{Name: name, Value: mustache.Parse(val)})
	}
	return t
}
