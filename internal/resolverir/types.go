// Package resolverir implements the IR model (spec §4.A): an algebraic
// description of a resolver — I/O nodes, composition combinators, auth
// guards, and dynamic-value templates — evaluated against an
// evalctx.Context to produce a JSON value or a typed error.
//
// IR is modeled as one tagged struct switched on Kind rather than an
// interface hierarchy, per the redesign guidance in spec §9 ("avoid dynamic
// dispatch per node by switching on the tag").
package resolverir

import (
	"time"

	"github.com/hanpama/protograph/internal/discriminator"
	"github.com/hanpama/protograph/internal/mustache"
	"github.com/hanpama/protograph/internal/reqtemplate"
)

// Kind tags which variant of the IR algebra a node is.
type Kind int

const (
	KindDynamic Kind = iota
	KindIO
	KindCache
	KindPath
	KindContextPath
	KindMap
	KindPipe
	KindProtect
	KindDiscriminate
	KindExpr
	KindArgs
)

// IOKind tags which upstream protocol an IO node targets (spec §3.3).
type IOKind int

const (
	IOHttp IOKind = iota
	IOGrpc
	IOGraphQL
	IOScript
)

// IONode carries a fully-compiled request template plus optional
// group_by (triggers DataLoader batching) and, for GraphQL, a field name
// and a batch flag (spec §3.3 "IOKind").
type IONode struct {
	Kind IOKind

	HTTP    *reqtemplate.HTTP
	GRPC    *reqtemplate.GRPC
	GraphQL *reqtemplate.GraphQL
	Script  *reqtemplate.Script

	// GroupBy mirrors the underlying template's batching key(s); present
	// here too so the executor/dataloader wiring doesn't need to branch
	// on Kind just to find it.
	GroupBy []string

	// ResponseValidation, when true, makes a response shape mismatch an
	// I/O error instead of best-effort pass-through (spec §7
	// "Deserialization").
	ResponseValidation bool
}

// IR is one node of the resolver expression tree.
type IR struct {
	Kind Kind

	// KindDynamic
	Dynamic *mustache.DynamicValue

	// KindIO
	IO *IONode

	// KindCache wraps exactly one IO node (spec §3.3 "Cache(max_age, IOKind)").
	CacheMaxAge time.Duration
	CacheIO     *IONode

	// KindPath / KindContextPath
	Segments []string

	// KindMap
	MapInner *IR
	MapKV    map[string]string

	// KindPipe: left result fed as parent to right.
	PipeLeft  *IR
	PipeRight *IR

	// KindProtect
	ProtectProviderIDs []string
	ProtectInner       *IR

	// KindDiscriminate
	Discriminator *discriminator.Discriminator
	DiscInner     *IR

	// KindExpr: supplemented @expr combinator (SPEC_FULL "Supplemented
	// features" #2): a small conditional/concatenation tree evaluated
	// against the same context as every other node.
	Expr *ExprNode

	// KindArgs rebinds the argument set seen by Inner before evaluating
	// it: ArgsMap is keyed by the target field's argument name, valued by
	// a dotted source path ("args.<name>", "value.<name>", "vars.<name>")
	// resolved against the *calling* field's context. This is how the
	// supplemented @call macro (SPEC_FULL "Supplemented features" #2.5) is
	// inlined at Blueprint-build time: the callee's compiled IR is reused
	// verbatim, wrapped in one KindArgs node that forwards the caller's
	// values under the callee's argument names.
	ArgsMap   map[string]string
	ArgsInner *IR
}

// ExprNode is the @expr combinator: either a conditional branch or a
// string-concatenation of sub-expressions, terminating in IR leaves.
type ExprNode struct {
	// If/Then/Else: If is truthy when its IR evaluates to a non-nil,
	// non-false, non-empty-string, non-zero value.
	If   *IR
	Then *IR
	Else *IR

	// Concat joins the string form of each IR's result, when If/Then/Else
	// are all nil.
	Concat []*IR
}

// Dynamic constructs a leaf IR node from a literal or mustache-templated
// DynamicValue.
func Dynamic(v *mustache.DynamicValue) *IR { return &IR{Kind: KindDynamic, Dynamic: v} }

// IO constructs a bare I/O node with no caching.
func IO(node *IONode) *IR { return &IR{Kind: KindIO, IO: node} }

// Cache wraps an I/O node with TTL-bounded memoization (spec §4.A).
func Cache(maxAge time.Duration, node *IONode) *IR {
	return &IR{Kind: KindCache, CacheMaxAge: maxAge, CacheIO: node}
}

// Path constructs a node that plucks a value from the parent value
// (spec §3.3 "Path(list<segment>)").
func Path(segments ...string) *IR { return &IR{Kind: KindPath, Segments: segments} }

// ContextPath constructs a node that plucks a value from the request
// context (spec §3.3 "ContextPath").
func ContextPath(segments ...string) *IR { return &IR{Kind: KindContextPath, Segments: segments} }

// Map constructs a value->value rewrite over a string result; missing keys
// propagate the original value unchanged (spec §4.A).
func Map(inner *IR, kv map[string]string) *IR {
	return &IR{Kind: KindMap, MapInner: inner, MapKV: kv}
}

// Pipe constructs a sequential composition: left evaluates first, then
// right evaluates with left's result as its parent value (spec §4.A).
func Pipe(left, right *IR) *IR { return &IR{Kind: KindPipe, PipeLeft: left, PipeRight: right} }

// Protect constructs an authorization guard (spec §4.A).
func Protect(providerIDs []string, inner *IR) *IR {
	return &IR{Kind: KindProtect, ProtectProviderIDs: providerIDs, ProtectInner: inner}
}

// Discriminate constructs a union/interface type-tagging node (spec §4.A).
func Discriminate(d *discriminator.Discriminator, inner *IR) *IR {
	return &IR{Kind: KindDiscriminate, Discriminator: d, DiscInner: inner}
}

// Expr constructs the supplemented @expr combinator node.
func Expr(e *ExprNode) *IR { return &IR{Kind: KindExpr, Expr: e} }

// Args constructs the @call macro's argument-rebinding wrapper.
func Args(remap map[string]string, inner *IR) *IR {
	return &IR{Kind: KindArgs, ArgsMap: remap, ArgsInner: inner}
}

// Result is what Evaluate returns: the resolved JSON value plus, when a
// Discriminate node ran, the concrete type name attached for GraphQL
// __typename resolution (spec §4.A "attaches a concrete type tag").
type Result struct {
	Value    any
	TypeName string
	// TypeNames holds per-element type tags when the discriminated value
	// is a list (spec §4.I "List values").
	TypeNames []string
}

// Modify applies fn depth-first over the IR tree and returns the rewritten
// tree, enabling batch-insertion of Cache wrappers over all I/O nodes
// (spec §4.A "Modify helper").
func Modify(node *IR, fn func(*IR) *IR) *IR {
	if node == nil {
		return nil
	}
	switch node.Kind {
	case KindMap:
		node.MapInner = Modify(node.MapInner, fn)
	case KindPipe:
		node.PipeLeft = Modify(node.PipeLeft, fn)
		node.PipeRight = Modify(node.PipeRight, fn)
	case KindProtect:
		node.ProtectInner = Modify(node.ProtectInner, fn)
	case KindDiscriminate:
		node.DiscInner = Modify(node.DiscInner, fn)
	case KindExpr:
		if node.Expr != nil {
			node.Expr.If = Modify(node.Expr.If, fn)
			node.Expr.Then = Modify(node.Expr.Then, fn)
			node.Expr.Else = Modify(node.Expr.Else, fn)
			for i, c := range node.Expr.Concat {
				node.Expr.Concat[i] = Modify(c, fn)
			}
		}
	case KindArgs:
		node.ArgsInner = Modify(node.ArgsInner, fn)
	}
	return fn(node)
}
