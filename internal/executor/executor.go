package executor

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/hanpama/protograph/internal/blueprint"
	"github.com/hanpama/protograph/internal/config"
	"github.com/hanpama/protograph/internal/evalctx"
	"github.com/hanpama/protograph/internal/eventbus"
	"github.com/hanpama/protograph/internal/events"
	"github.com/hanpama/protograph/internal/language"
	"github.com/hanpama/protograph/internal/planner"
	"github.com/hanpama/protograph/internal/resolverir"
)

// Path is a GraphQL response path: a sequence of field names and list
// indices, used only for error reporting.
type Path []PathElement

// PathElement is either a field name (string) or a list index (int).
type PathElement any

// Executor runs a planned operation against a Blueprint's compiled IR (spec
// §4.H). Unlike the teacher's depth-wise async-batch loop, resolverir.Evaluate
// exposes no separate sync/async dispatch: every field resolves through one
// blocking call. A dataloader.Loader.Load call only batches with its siblings
// if those siblings are in flight at the same time, so this executor fans out
// every selection set's fields across goroutines instead of queuing an async
// frontier (see doc.go).
type Executor struct {
	bp *blueprint.Blueprint
}

// New constructs an Executor bound to one Blueprint, reused across requests.
func New(bp *blueprint.Blueprint) *Executor {
	return &Executor{bp: bp}
}

// execState is the per-request execution context, shared read-only (bp, env,
// doc, req, variables) or guarded (idSeq) across the goroutines fanned out
// for one operation.
type execState struct {
	ctx context.Context
	bp  *blueprint.Blueprint
	env *resolverir.Env
	doc *language.QueryDocument
	req *evalctx.RequestContext

	variables map[string]any

	// idSeq continues planner.OperationPlan's field-ID sequence so fields
	// expanded at runtime via planner.ExpandSelection (abstract-typed
	// selections, resolved per concrete type) never collide with an ID
	// already assigned at plan time. Concurrent discriminated list elements
	// can expand concurrently, hence the mutex.
	idMu  sync.Mutex
	idSeq int
}

func (s *execState) nextIDs(count int) int {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	start := s.idSeq
	s.idSeq += count
	return start
}

// taggedValue carries the concrete type name a Discriminate node resolved
// for one value, so completeAbstractValue can re-plan its selection without
// threading resolverir.Result through every completion branch.
type taggedValue struct {
	value    any
	typeName string
}

// unwrapResult converts one IR evaluation into the plain value (or, for an
// abstract-typed result, a taggedValue / slice of taggedValue) completeValue
// operates on.
func unwrapResult(res resolverir.Result) any {
	if len(res.TypeNames) > 0 {
		items, _ := toAnySlice(res.Value)
		out := make([]any, len(items))
		for i, it := range items {
			tn := ""
			if i < len(res.TypeNames) {
				tn = res.TypeNames[i]
			}
			out[i] = taggedValue{value: it, typeName: tn}
		}
		return out
	}
	if res.TypeName != "" {
		return taggedValue{value: res.Value, typeName: res.TypeName}
	}
	return res.Value
}

// completion is the result of evaluating one field or selection set: the
// completed value, any GraphQLErrors recorded along the way, and whether a
// Non-Null violation occurred at or below this point. abort plays the role
// the teacher's nil-map return plays in executeSelectionSet: the immediate
// parent checks it (IsNonNull && abort) and either re-aborts itself or
// swallows it into an explicit null, so no separate bubble type is needed.
type completion struct {
	value any
	errs  []GraphQLError
	abort bool
}

// Execute runs plan against doc/req and returns a complete ExecutionResult.
// initialValue is the root source value (nil for Query/Mutation roots backed
// entirely by resolvers).
func (e *Executor) Execute(ctx context.Context, env *resolverir.Env, plan *planner.OperationPlan, doc *language.QueryDocument, req *evalctx.RequestContext, operationName string, initialValue any) *ExecutionResult {
	start := time.Now()
	opType := "query"
	if !plan.IsQuery {
		opType = "mutation"
	}
	eventbus.Publish(ctx, events.GraphQLStart{OperationName: operationName, OperationType: opType})

	maxID := 0
	for _, f := range plan.Parent {
		if f.ID >= maxID {
			maxID = f.ID + 1
		}
	}

	state := &execState{
		ctx:       ctx,
		bp:        e.bp,
		env:       env,
		doc:       doc,
		req:       req,
		variables: plan.Variables,
		idSeq:     maxID,
	}

	c := state.evaluateSelectionSet(plan.RootType, plan.Children, initialValue, Path{}, true)

	cc := newCacheControl()
	for _, f := range plan.Parent {
		cc.observe(f.IR)
	}

	var finishErrs []error
	for _, ge := range c.errs {
		finishErrs = append(finishErrs, ge)
	}
	eventbus.Publish(ctx, events.GraphQLFinish{
		OperationName: operationName, OperationType: opType,
		Errors: finishErrs, Duration: time.Since(start),
	})

	return &ExecutionResult{Data: c.value, Errors: c.errs, CacheControl: cc}
}

// evaluateSelectionSet evaluates every field concurrently and assembles the
// response object (spec §4.H "executeSelectionSet"). isRoot controls whether
// a Non-Null violation aborts the whole map (nested object) or is written as
// an explicit null while siblings still complete (root selection set),
// matching the teacher's len(path) == 0 special case.
func (s *execState) evaluateSelectionSet(parentType string, fields []*planner.Field, parentValue any, path Path, isRoot bool) completion {
	type slot struct {
		name string
		c    completion
	}
	slots := make([]slot, len(fields))

	var wg sync.WaitGroup
	for i, f := range fields {
		wg.Add(1)
		go func(i int, f *planner.Field) {
			defer wg.Done()
			fieldPath := appendPath(path, f.ResponseName)
			slots[i] = slot{name: f.ResponseName, c: s.evaluateField(parentType, f, parentValue, fieldPath)}
		}(i, f)
	}
	wg.Wait()

	out := make(map[string]any, len(fields))
	var errs []GraphQLError
	abort := false
	for _, sl := range slots {
		errs = append(errs, sl.c.errs...)
		if sl.c.abort {
			if !isRoot {
				abort = true
				continue
			}
			out[sl.name] = nil
			continue
		}
		out[sl.name] = sl.c.value
	}
	if abort {
		return completion{abort: true, errs: errs}
	}
	return completion{value: out, errs: errs}
}

// evaluateField resolves one planned field — via its precomputed constant
// or by evaluating its compiled IR — and completes the result against its
// declared type.
func (s *execState) evaluateField(parentType string, f *planner.Field, parentValue any, path Path) completion {
	select {
	case <-s.ctx.Done():
		errs := []GraphQLError{{Message: s.ctx.Err().Error(), Path: path}}
		if f.TypeOf.IsNonNull() {
			return completion{abort: true, errs: errs}
		}
		return completion{value: nil, errs: errs}
	default:
	}

	if f.IsConst {
		return s.completeValue(f, f.TypeOf, f.ConstValue, path)
	}

	var localErrs []evalctx.EvalError
	ectx := evalctx.New(s.req, parentValue, f.Args, toEvalPath(path), &localErrs)
	ectx = ectx.WithField(parentType, f.FieldName)

	res, err := resolverir.Evaluate(ectx, s.env, f.IR)

	var errs []GraphQLError
	for _, le := range localErrs {
		errs = append(errs, GraphQLError{Message: le.Message, Path: toResponsePath(le.Path)})
	}

	if err != nil {
		errs = append(errs, graphQLErrorFromResolverError(err, path))
		if f.TypeOf.IsNonNull() {
			return completion{abort: true, errs: errs}
		}
		return completion{value: nil, errs: errs}
	}

	c := s.completeValue(f, f.TypeOf, unwrapResult(res), path)
	c.errs = append(errs, c.errs...)
	return c
}

// completeValue implements GraphQL value completion (spec §4.H
// "completeValue"): Non-Null unwrap and re-check, list recursion, scalar/enum
// pass-through, object sub-selection, and abstract-type resolution.
func (s *execState) completeValue(f *planner.Field, typeOf *config.TypeRef, result any, path Path) completion {
	if typeOf.IsNonNull() {
		if isNullish(result) {
			return completion{abort: true, errs: []GraphQLError{{
				Message: fmt.Sprintf("Cannot return null for non-nullable field %s", pathToString(path)),
				Path:    path,
			}}}
		}
		c := s.completeValue(f, typeOf.OfType, result, path)
		if c.abort || isNullish(c.value) {
			// The inner completion was itself a deeper Non-Null violation
			// (abort) or bottomed out null some other way; either way this
			// layer is Non-Null too, so the violation keeps cascading.
			return completion{abort: true, errs: c.errs}
		}
		return c
	}

	// typeOf is nullable from here down: any abort bubbling up from a
	// nested object/list/abstract completion stops here and is written as
	// an explicit null, exactly mirroring the teacher's executeSelectionSet
	// "if len(path) > 0 { return nil }" check being scoped to the field
	// that declared Non-Null, not every ancestor above it.
	if isNullish(result) {
		return completion{value: nil}
	}

	if typeOf == nil {
		// __typename and other Check-const meta fields carry no declared
		// TypeOf; their constant value is already the completed result.
		return completion{value: result}
	}

	var c completion
	switch {
	case typeOf.Kind == config.KindList:
		c = s.completeListValue(f, typeOf.OfType, result, path)
	default:
		baseName := typeOf.BaseName()
		def, ok := s.bp.Definitions[baseName]
		if !ok {
			return completion{value: nil, errs: []GraphQLError{{Message: fmt.Sprintf("unknown type %q", baseName), Path: path}}}
		}
		switch def.Kind {
		case blueprint.KindScalar, blueprint.KindEnum:
			return completion{value: result}
		case blueprint.KindObject:
			c = s.completeObjectValue(def.Name, f.Children, result, path)
		case blueprint.KindInterface, blueprint.KindUnion:
			c = s.completeAbstractValue(f, result, path)
		default:
			return completion{value: nil, errs: []GraphQLError{{Message: fmt.Sprintf("cannot complete value of unexpected kind for %q", baseName), Path: path}}}
		}
	}
	if c.abort {
		return completion{value: nil, errs: c.errs}
	}
	return c
}

// completeListValue completes each element recursively (spec §4.H
// "completeListValue"). Elements are completed concurrently for the same
// DataLoader-batching reason sibling fields are.
func (s *execState) completeListValue(f *planner.Field, elemType *config.TypeRef, result any, path Path) completion {
	items, ok := toAnySlice(result)
	if !ok {
		return completion{value: nil, errs: []GraphQLError{{Message: fmt.Sprintf("expected list value, got %T", result), Path: path}}}
	}

	completed := make([]any, len(items))
	var mu sync.Mutex
	var errs []GraphQLError
	abort := false

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item any) {
			defer wg.Done()
			p := appendPath(path, i)
			c := s.completeValue(f, elemType, item, p)
			mu.Lock()
			defer mu.Unlock()
			errs = append(errs, c.errs...)
			if c.abort {
				abort = true
				return
			}
			completed[i] = c.value
		}(i, item)
	}
	wg.Wait()

	if abort {
		return completion{abort: true, errs: errs}
	}
	return completion{value: completed, errs: errs}
}

func (s *execState) completeObjectValue(typeName string, children []*planner.Field, result any, path Path) completion {
	return s.evaluateSelectionSet(typeName, children, result, path, false)
}

// completeAbstractValue resolves an Interface/Union field's concrete type
// (already tagged on the value by its Discriminate node) and re-plans its
// deferred RawSelection against that type (spec §4.I).
func (s *execState) completeAbstractValue(f *planner.Field, result any, path Path) completion {
	tv, ok := result.(taggedValue)
	if !ok || tv.typeName == "" {
		return completion{value: nil, errs: []GraphQLError{{
			Message: fmt.Sprintf("abstract type %q did not resolve a concrete type", f.TypeOf.BaseName()), Path: path,
		}}}
	}
	def, ok := s.bp.Definitions[tv.typeName]
	if !ok || def.Kind != blueprint.KindObject {
		return completion{value: nil, errs: []GraphQLError{{
			Message: fmt.Sprintf("abstract type %q resolved to unknown object type %q", f.TypeOf.BaseName(), tv.typeName), Path: path,
		}}}
	}

	start := s.nextIDs(len(f.RawSelection) + 1)
	children, _, err := planner.ExpandSelection(s.bp, s.doc, tv.typeName, f.RawSelection, s.variables, f.ID, start)
	if err != nil {
		return completion{value: nil, errs: []GraphQLError{{Message: err.Error(), Path: path}}}
	}

	return s.completeObjectValue(tv.typeName, children, tv.value, path)
}

func graphQLErrorFromResolverError(err error, path Path) GraphQLError {
	rerr, ok := err.(*resolverir.Error)
	if !ok {
		return GraphQLError{Message: err.Error(), Path: path}
	}
	ext := map[string]any{"code": rerr.Kind.String()}
	switch rerr.Kind {
	case resolverir.ErrGRPC:
		if rerr.GRPCCode != "" {
			ext["grpcCode"] = rerr.GRPCCode
		}
		if rerr.GRPCDetails != nil {
			ext["grpcDetails"] = rerr.GRPCDetails
		}
	case resolverir.ErrAPIValidation:
		if len(rerr.ValidationMessages) > 0 {
			ext["validationMessages"] = rerr.ValidationMessages
		}
	}
	return GraphQLError{Message: rerr.Error(), Path: path, Extensions: ext}
}

func pathToString(path Path) string {
	out := ""
	for i, elem := range path {
		switch v := elem.(type) {
		case string:
			if i > 0 {
				out += "."
			}
			out += v
		case int:
			out += fmt.Sprintf("[%d]", v)
		}
	}
	return out
}

func appendPath(path Path, elem PathElement) Path {
	out := make(Path, len(path)+1)
	copy(out, path)
	out[len(path)] = elem
	return out
}

func toEvalPath(path Path) evalctx.Path {
	out := make(evalctx.Path, len(path))
	for i, elem := range path {
		switch v := elem.(type) {
		case string:
			out[i] = evalctx.FieldSegment(v)
		case int:
			out[i] = evalctx.IndexSegment(v)
		}
	}
	return out
}

func toResponsePath(p evalctx.Path) Path {
	out := make(Path, len(p))
	for i, seg := range p {
		if seg.IsIdx {
			out[i] = seg.Index
		} else {
			out[i] = seg.Name
		}
	}
	return out
}

// isNullish reports true for nil interfaces and typed nils (map, slice, ptr),
// matching the teacher's completeValue nullish check. It sees through
// taggedValue so a Non-Null abstract-typed field whose Discriminate inner
// resolved nil is still caught.
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	if tv, ok := v.(taggedValue); ok {
		return isNullish(tv.value)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

func toAnySlice(v any) ([]any, bool) {
	if direct, ok := v.([]any); ok {
		return direct, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
