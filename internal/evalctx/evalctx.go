// Package evalctx defines the per-resolver evaluation context: the cheap,
// shared-reference view of a single request that IR nodes and request
// templates consult while resolving one field (spec §4.D).
package evalctx

import (
	"context"
	"strconv"
)

// RequestContext carries request-scoped, read-only handles shared across
// every resolver invocation in one request: headers, environment, the
// request's bound GraphQL variables, and the Go context used for
// cancellation/deadlines. It is built once per request and never mutated.
type RequestContext struct {
	Ctx       context.Context
	Headers   map[string][]string
	Env       map[string]string
	Variables map[string]any
}

// Header returns the first value of the named header, case already
// normalized by the caller (the HTTP transport boundary lower-cases keys).
func (r *RequestContext) Header(name string) (string, bool) {
	if r == nil || r.Headers == nil {
		return "", false
	}
	vs, ok := r.Headers[name]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// GraphQLContext is the per-field slice of context: the parent value, the
// bound argument values for this field, and metadata about which field is
// being resolved.
type GraphQLContext struct {
	Value     any            // the parent/source value
	Args      map[string]any // resolved argument values for this field
	FieldName string
	ParentType string
}

// Path is a diagnostic breadcrumb (GraphQL response path), purely for error
// reporting; it never affects evaluation results.
type Path []PathSegment

// PathSegment is either a field name (string) or a list index (int).
type PathSegment struct {
	Name  string
	Index int
	IsIdx bool
}

func FieldSegment(name string) PathSegment { return PathSegment{Name: name} }
func IndexSegment(i int) PathSegment       { return PathSegment{Index: i, IsIdx: true} }

func (p Path) String() string {
	out := ""
	for i, s := range p {
		if s.IsIdx {
			out += "[" + strconv.Itoa(s.Index) + "]"
		} else {
			if i > 0 {
				out += "."
			}
			out += s.Name
		}
	}
	return out
}

// EvalError is a non-fatal, per-request error recorded during evaluation
// (spec §4.D "add_error"). It is appended to the request's error list for
// GraphQL partial responses and never aborts the whole request on its own.
type EvalError struct {
	Message string
	Path    Path
}

// Context is the full per-resolver view passed to IR.Evaluate and template
// rendering. It is small and cheap to copy: With* methods return a shallow
// copy with one field replaced, never mutating the receiver, matching
// spec §4.D's "never mutate the shared parts" contract.
type Context struct {
	Request  *RequestContext
	GraphQL  GraphQLContext
	Path     Path
	errSink  *[]EvalError
}

// New creates a root Context for one field resolution, backed by a shared
// error sink so that nested With* derivations still report into the same
// per-request error list.
func New(req *RequestContext, value any, args map[string]any, path Path, errs *[]EvalError) Context {
	return Context{
		Request: req,
		GraphQL: GraphQLContext{Value: value, Args: args},
		Path:    path,
		errSink: errs,
	}
}

// WithValue returns a new Context with the parent value replaced (used by
// Pipe to feed a's result as b's parent, spec §4.A).
func (c Context) WithValue(v any) Context {
	c.GraphQL.Value = v
	return c
}

// WithArgs returns a new Context with arguments replaced.
func (c Context) WithArgs(args map[string]any) Context {
	c.GraphQL.Args = args
	return c
}

// WithPath returns a new Context with the diagnostic path replaced.
func (c Context) WithPath(p Path) Context {
	c.Path = p
	return c
}

// WithField records which field is currently being resolved, for templates
// that need objectType/field identity (e.g. DataLoader keying).
func (c Context) WithField(parentType, field string) Context {
	c.GraphQL.ParentType = parentType
	c.GraphQL.FieldName = field
	return c
}

// AddError records a per-request non-fatal error at the context's current
// path (spec §4.D).
func (c Context) AddError(message string) {
	if c.errSink == nil {
		return
	}
	*c.errSink = append(*c.errSink, EvalError{Message: message, Path: c.Path})
}

// PathString resolves a dotted mustache reference against this context.
// Recognized roots: args, value, vars, headers, env. Unknown roots or
// absent leaves yield (\"\", false) so mustache.Render substitutes empty
// string rather than erroring (spec §4.B, §4.J).
func (c Context) PathString(path []string) (string, bool) {
	if len(path) == 0 {
		return "", false
	}
	switch path[0] {
	case "args":
		return lookupString(c.GraphQL.Args, path[1:])
	case "value":
		return lookupAnyString(c.GraphQL.Value, path[1:])
	case "vars":
		if c.Request == nil {
			return "", false
		}
		return lookupString(c.Request.Variables, path[1:])
	case "headers":
		if c.Request == nil || len(path) < 2 {
			return "", false
		}
		return c.Request.Header(path[1])
	case "env":
		if c.Request == nil || len(path) < 2 {
			return "", false
		}
		v, ok := c.Request.Env[path[1]]
		return v, ok
	default:
		return "", false
	}
}

func lookupString(m map[string]any, rest []string) (string, bool) {
	v, ok := lookup(m, rest)
	if !ok {
		return "", false
	}
	return stringify(v), true
}

func lookupAnyString(root any, rest []string) (string, bool) {
	v, ok := lookupValue(root, rest)
	if !ok {
		return "", false
	}
	return stringify(v), true
}

func lookup(m map[string]any, rest []string) (any, bool) {
	return lookupValue(map[string]any(m), rest)
}

// lookupValue walks rest through nested map[string]any values starting at root.
func lookupValue(root any, rest []string) (any, bool) {
	cur := root
	if len(rest) == 0 {
		return cur, cur != nil
	}
	for _, seg := range rest {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := m[seg]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
